// Package authsvc - các service của domain auth: vai trò, tài khoản, đăng nhập và xác định actor.
package authsvc

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"

	authdto "admin_backoffice/internal/api/auth/dto"
	models "admin_backoffice/internal/api/auth/models"
	basemodels "admin_backoffice/internal/api/base/models"
	basesvc "admin_backoffice/internal/api/base/service"
	"admin_backoffice/internal/authz"
	"admin_backoffice/internal/common"
	"admin_backoffice/internal/database"
	"admin_backoffice/internal/global"
	"admin_backoffice/internal/logger"
	"admin_backoffice/internal/metrics"
)

// AccountRoleService quản lý vòng đời vai trò
type AccountRoleService struct {
	*basesvc.LifecycleService[models.AccountRole, *models.AccountRole]
	roles    basesvc.Repository[models.AccountRole]
	accounts basesvc.Repository[models.Account]
}

// NewAccountRoleService tạo mới AccountRoleService
func NewAccountRoleService(roles basesvc.Repository[models.AccountRole], accounts basesvc.Repository[models.Account], runner *database.TransactionRunner, audit *logger.AuditLogger, m *metrics.Metrics) *AccountRoleService {
	s := &AccountRoleService{roles: roles, accounts: accounts}
	s.LifecycleService = basesvc.NewLifecycleService[models.AccountRole, *models.AccountRole](roles, runner, s.policy(), audit, m)
	return s
}

func (s *AccountRoleService) policy() basesvc.Policy[models.AccountRole] {
	return basesvc.Policy[models.AccountRole]{
		Kind: "account_role",
		UniqueKeys: []basesvc.UniqueKey[models.AccountRole]{
			{Field: "level", Value: func(r *models.AccountRole) interface{} { return r.Level }, Conflict: common.ErrLevelInUse},
			{Field: "name", Value: func(r *models.AccountRole) interface{} { return r.Name }, Conflict: common.ErrNameInUse},
		},
		PatchableFields:  []string{"name", "description", "level", "permissions", "requiresTwoFactor"},
		NullableFields:   []string{"description"},
		SearchableFields: []string{"name", "description"},
		TargetLevel: func(_ context.Context, r *models.AccountRole) (int, error) {
			return r.Level, nil
		},
		Validate: func(_ context.Context, _, after *models.AccountRole) error {
			return validateRole(after)
		},
		GuardDelete: s.guardDelete,
	}
}

// validateRole kiểm tra dữ liệu vai trò sau khi tạo/cập nhật
func validateRole(r *models.AccountRole) error {
	if strings.TrimSpace(r.Name) == "" {
		return common.ErrRequiredField.WithDetails(map[string]string{"name": "required"})
	}
	if err := global.Validate.Var(r.Permissions, "dive,permission"); err != nil {
		return common.ErrInvalidInput.WithDetails(map[string]string{"permissions": err.Error()})
	}
	return nil
}

// guardDelete: không xóa vai trò khi còn tài khoản chưa xóa tham chiếu tới
func (s *AccountRoleService) guardDelete(ctx context.Context, r *models.AccountRole) error {
	used, err := s.accounts.ExistsActive(ctx, map[string]interface{}{"data.role": r.ID}, primitive.NilObjectID)
	if err != nil {
		return err
	}
	if used {
		return common.ErrRoleInUse
	}
	return nil
}

// LevelTaken cài đặt authz.LevelLookup
func (s *AccountRoleService) LevelTaken(ctx context.Context, level int, excludingID primitive.ObjectID) (bool, error) {
	return s.roles.ExistsActive(ctx, map[string]interface{}{"level": level}, excludingID)
}

// LevelIsAvailable trả về true nếu không có vai trò chưa xóa nào (khác excludingID) dùng level
func (s *AccountRoleService) LevelIsAvailable(ctx context.Context, level int, excludingID primitive.ObjectID) (bool, error) {
	return authz.LevelIsAvailable(ctx, s, level, excludingID)
}

// FindActive trả về vai trò chưa xóa, ErrRoleNotFound nếu không có
func (s *AccountRoleService) FindActive(ctx context.Context, id primitive.ObjectID) (*models.AccountRole, error) {
	role, err := s.roles.FindOneById(ctx, id, basemodels.OnlyActive, nil)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrRoleNotFound
	}
	return role, err
}

// ====================================
// DTO
// ====================================

// CreateFromInput tạo vai trò từ DTO
func (s *AccountRoleService) CreateFromInput(ctx context.Context, actor *authz.Actor, input *authdto.AccountRoleCreateInput, scope database.Scope) (*models.AccountRole, error) {
	role := &models.AccountRole{
		Name:              strings.TrimSpace(input.Name),
		Description:       input.Description,
		Permissions:       lo.Uniq(input.Permissions),
		RequiresTwoFactor: input.RequiresTwoFactor,
	}
	if role.Permissions == nil {
		role.Permissions = []string{}
	}
	if input.Level != nil {
		role.Level = *input.Level
	}
	return s.Create(ctx, actor, role, scope)
}

// UpdateFromInput cập nhật vai trò từ DTO
func (s *AccountRoleService) UpdateFromInput(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, input *authdto.AccountRoleUpdateInput, scope database.Scope) (*models.AccountRole, error) {
	patch := basesvc.NewPatch()
	if input.Name.HasValue() {
		input.Name.Value = strings.TrimSpace(input.Name.Value)
	}
	if input.Permissions.HasValue() {
		input.Permissions.Value = lo.Uniq(input.Permissions.Value)
	}
	basesvc.SetOptional(patch, "name", input.Name)
	basesvc.SetOptional(patch, "description", input.Description)
	basesvc.SetOptional(patch, "level", input.Level)
	basesvc.SetOptional(patch, "permissions", input.Permissions)
	basesvc.SetOptional(patch, "requiresTwoFactor", input.RequiresTwoFactor)
	return s.Update(ctx, actor, id, patch, scope)
}
