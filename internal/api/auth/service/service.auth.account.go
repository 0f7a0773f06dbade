package authsvc

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	authdto "admin_backoffice/internal/api/auth/dto"
	models "admin_backoffice/internal/api/auth/models"
	basemodels "admin_backoffice/internal/api/base/models"
	basesvc "admin_backoffice/internal/api/base/service"
	"admin_backoffice/internal/authz"
	"admin_backoffice/internal/common"
	"admin_backoffice/internal/database"
	"admin_backoffice/internal/logger"
	"admin_backoffice/internal/metrics"
	"admin_backoffice/internal/utility"
)

// AccountService quản lý vòng đời tài khoản
type AccountService struct {
	*basesvc.LifecycleService[models.Account, *models.Account]
	accounts     basesvc.Repository[models.Account]
	roles        *AccountRoleService
	passwordCost int
}

// NewAccountService tạo mới AccountService
func NewAccountService(accounts basesvc.Repository[models.Account], roles *AccountRoleService, runner *database.TransactionRunner, audit *logger.AuditLogger, m *metrics.Metrics) *AccountService {
	s := &AccountService{accounts: accounts, roles: roles, passwordCost: bcrypt.DefaultCost}
	s.LifecycleService = basesvc.NewLifecycleService[models.Account, *models.Account](accounts, runner, s.policy(), audit, m)
	return s
}

// SetPasswordCost đổi cost của bcrypt (test dùng bcrypt.MinCost)
func (s *AccountService) SetPasswordCost(cost int) {
	s.passwordCost = cost
}

func (s *AccountService) policy() basesvc.Policy[models.Account] {
	return basesvc.Policy[models.Account]{
		Kind: "account",
		UniqueKeys: []basesvc.UniqueKey[models.Account]{
			{Field: "email.value", Value: func(a *models.Account) interface{} { return a.Email.Value }, Conflict: common.ErrEmailInUse},
		},
		PatchableFields:  []string{"email.value", "email.verified", "profile.name", "security.passwordHash", "data.role", "data.status"},
		RedactedFields:   []string{"security.passwordHash"},
		SearchableFields: []string{"email.value", "profile.name"},
		TargetLevel:      s.roleLevel,
		Validate: func(_ context.Context, _, after *models.Account) error {
			return validateAccount(after)
		},
		OnUpdate: onAccountUpdate,
		OnDelete: onAccountDelete,
	}
}

// roleLevel trả về cấp bậc của vai trò mà tài khoản tham chiếu
func (s *AccountService) roleLevel(ctx context.Context, a *models.Account) (int, error) {
	role, err := s.roles.FindActive(ctx, a.Data.Role)
	if err != nil {
		return 0, err
	}
	return role.Level, nil
}

func validateAccount(a *models.Account) error {
	invalid := map[string]string{}
	if a.Email.Value == "" {
		invalid["email"] = "required"
	}
	if a.Profile.Name == "" {
		invalid["name"] = "required"
	}
	if a.Data.Status != models.AccountStatusActive && a.Data.Status != models.AccountStatusLocked {
		invalid["status"] = "oneof active locked"
	}
	if len(invalid) > 0 {
		return common.ErrInvalidInput.WithDetails(invalid)
	}
	return nil
}

// onAccountUpdate ghi nhận thời điểm đổi email và đổi mật khẩu
func onAccountUpdate(_, after *models.Account, changes map[string]interface{}, now int64) map[string]interface{} {
	extra := map[string]interface{}{}
	if _, ok := changes["email.value"]; ok {
		after.Email.LastChanged = &now
		extra["email.lastChanged"] = now
	}
	if _, ok := changes["security.passwordHash"]; ok {
		after.Security.LastPasswordChange = &now
		after.Security.ForgotPasswordToken = nil
		after.Security.ForgotPasswordTokenExpires = nil
		extra["security.lastPasswordChange"] = now
	}
	return extra
}

// onAccountDelete ẩn danh email để giải phóng địa chỉ cho tài khoản khác
func onAccountDelete(a *models.Account, now int64) map[string]interface{} {
	a.Email.Value = AnonymizedEmail(now)
	a.Security.ForgotPasswordToken = nil
	a.Security.ForgotPasswordTokenExpires = nil
	return map[string]interface{}{"email.value": a.Email.Value}
}

// AnonymizedEmail tạo email dạng {epochMillis}-{random}@deleted.com
func AnonymizedEmail(now int64) string {
	random := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%d-%s@%s", now, random, models.DeletedEmailDomain)
}

// NormalizeEmail chuẩn hóa email (bỏ khoảng trắng, chữ thường)
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword băm mật khẩu bằng bcrypt
func (s *AccountService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// ====================================
// DTO
// ====================================

// CreateFromInput tạo tài khoản từ DTO. Mật khẩu được băm trước khi mở transaction.
func (s *AccountService) CreateFromInput(ctx context.Context, actor *authz.Actor, input *authdto.AccountCreateInput, scope database.Scope) (*models.Account, error) {
	roleID, err := primitive.ObjectIDFromHex(input.RoleID)
	if err != nil {
		return nil, common.ErrInvalidInput.WithDetails(map[string]string{"roleId": "invalid"})
	}
	hash, err := s.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := utility.CurrentTimeInMilli()
	account := &models.Account{
		Email:    models.AccountEmail{Value: NormalizeEmail(input.Email), Verified: input.Verified, LastChanged: &now},
		Profile:  models.AccountProfile{Name: strings.TrimSpace(input.Name)},
		Security: models.AccountSecurity{PasswordHash: hash, LastPasswordChange: &now},
		Data:     models.AccountData{Role: roleID, Status: models.AccountStatusActive},
	}
	return s.Create(ctx, actor, account, scope)
}

// UpdateFromInput cập nhật tài khoản từ DTO
func (s *AccountService) UpdateFromInput(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, input *authdto.AccountUpdateInput, scope database.Scope) (*models.Account, error) {
	patch := basesvc.NewPatch()

	if input.Email.HasValue() {
		input.Email.Value = NormalizeEmail(input.Email.Value)
	}
	basesvc.SetOptional(patch, "email.value", input.Email)
	basesvc.SetOptional(patch, "email.verified", input.Verified)
	basesvc.SetOptional(patch, "profile.name", input.Name)
	basesvc.SetOptional(patch, "data.status", input.Status)

	switch {
	case input.RoleID.Null:
		patch.Clear("data.role")
	case input.RoleID.HasValue():
		roleID, err := primitive.ObjectIDFromHex(input.RoleID.Value)
		if err != nil {
			return nil, common.ErrInvalidInput.WithDetails(map[string]string{"roleId": "invalid"})
		}
		patch.Set("data.role", roleID)
	}

	switch {
	case input.Password.Null:
		patch.Clear("security.passwordHash")
	case input.Password.HasValue():
		hash, err := s.HashPassword(input.Password.Value)
		if err != nil {
			return nil, err
		}
		patch.Set("security.passwordHash", hash)
	}

	return s.Update(ctx, actor, id, patch, scope)
}

// DeleteSelf cho phép actor tự xóa tài khoản của mình
func (s *AccountService) DeleteSelf(ctx context.Context, actor *authz.Actor, scope database.Scope) (*models.Account, error) {
	if actor == nil {
		return nil, common.ErrUnauthenticated
	}
	return s.Delete(ctx, actor, actor.ID, basesvc.DeleteOptions{AllowDeleteSelf: true}, scope)
}

// FindActiveByEmail tìm tài khoản chưa xóa theo email
func (s *AccountService) FindActiveByEmail(ctx context.Context, email string) (*models.Account, error) {
	result, err := s.accounts.FindWithPagination(ctx, basemodels.ListQuery{
		Filter: map[string]interface{}{"email.value": NormalizeEmail(email)},
		Page:   1,
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, common.ErrNotFound
	}
	return &result.Items[0], nil
}

// ResolveActor xác định actor từ ID tài khoản: tài khoản phải chưa xóa, chưa khóa và có vai trò chưa xóa
func (s *AccountService) ResolveActor(ctx context.Context, accountID primitive.ObjectID) (*authz.Actor, error) {
	account, err := s.accounts.FindOneById(ctx, accountID, basemodels.OnlyActive, nil)
	if err != nil {
		if common.IsDomainError(err) {
			return nil, common.ErrUnauthenticated
		}
		return nil, err
	}
	if account.Data.Status == models.AccountStatusLocked {
		return nil, common.ErrUnauthenticated
	}
	role, err := s.roles.FindActive(ctx, account.Data.Role)
	if err != nil {
		if common.IsDomainError(err) {
			return nil, common.ErrUnauthenticated
		}
		return nil, err
	}
	return &authz.Actor{
		ID:          account.ID,
		RoleID:      role.ID,
		RoleLevel:   role.Level,
		Permissions: role.Permissions,
	}, nil
}
