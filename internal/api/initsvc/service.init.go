// Package initsvc chứa InitService dùng để khởi tạo dữ liệu ban đầu: vai trò Admin của hệ thống và tài khoản quản trị đầu tiên.
// Các bản ghi này ghi thẳng qua repository vì service vòng đời không cho phép cấp bậc -1.
package initsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "admin_backoffice/internal/api/auth/models"
	authsvc "admin_backoffice/internal/api/auth/service"
	basemodels "admin_backoffice/internal/api/base/models"
	"admin_backoffice/internal/authz"
	"admin_backoffice/internal/common"
	"admin_backoffice/internal/database"
	"admin_backoffice/internal/logger"
	"admin_backoffice/internal/utility"
)

// AdminRoleName tên vai trò Admin của hệ thống
const AdminRoleName = "Admin"

// AdminAccount thông tin tài khoản quản trị khởi tạo (Email rỗng = bỏ qua)
type AdminAccount struct {
	Email    string
	Password string
	Name     string
}

// InitService khởi tạo dữ liệu hệ thống
type InitService struct {
	roles    *authsvc.AccountRoleService
	accounts *authsvc.AccountService
	runner   *database.TransactionRunner
}

// NewInitService tạo mới InitService
func NewInitService(roles *authsvc.AccountRoleService, accounts *authsvc.AccountService, runner *database.TransactionRunner) *InitService {
	return &InitService{roles: roles, accounts: accounts, runner: runner}
}

// InitAll tạo vai trò Admin và tài khoản quản trị (nếu được cấu hình) trong một transaction
func (h *InitService) InitAll(ctx context.Context, admin AdminAccount) error {
	return h.runner.Run(ctx, nil, func(ctx context.Context, scope database.Scope) error {
		role, err := h.InitAdminRole(ctx)
		if err != nil {
			return err
		}
		if strings.TrimSpace(admin.Email) == "" {
			return nil
		}
		return h.InitAdminAccount(ctx, role.ID, admin)
	})
}

// InitAdminRole đảm bảo tồn tại vai trò cấp -1 với quyền "*"
func (h *InitService) InitAdminRole(ctx context.Context) (*models.AccountRole, error) {
	repo := h.roles.Repository()
	existing, err := repo.FindWithPagination(ctx, basemodels.ListQuery{
		Filter: map[string]interface{}{"level": authz.SystemAdminLevel},
		Page:   1,
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(existing.Items) > 0 {
		return &existing.Items[0], nil
	}

	role := &models.AccountRole{
		ID:           primitive.NewObjectID(),
		Name:         AdminRoleName,
		Description:  "Vai trò quản trị hệ thống",
		Level:        authz.SystemAdminLevel,
		Permissions:  []string{authz.Wildcard},
		IsSystemRole: true,
		Metadata:     basemodels.NewMetadata(utility.CurrentTimeInMilli(), nil),
	}
	if err := repo.InsertOne(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to create admin role: %w", err)
	}
	logger.WithContext(ctx).WithField("role_id", role.ID.Hex()).Info("Đã tạo vai trò Admin của hệ thống")
	return role, nil
}

// InitAdminAccount tạo tài khoản quản trị nếu email chưa được dùng
func (h *InitService) InitAdminAccount(ctx context.Context, roleID primitive.ObjectID, admin AdminAccount) error {
	email := authsvc.NormalizeEmail(admin.Email)
	_, err := h.accounts.FindActiveByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return err
	}

	hash, err := h.accounts.HashPassword(admin.Password)
	if err != nil {
		return err
	}
	name := admin.Name
	if name == "" {
		name = "Administrator"
	}

	now := utility.CurrentTimeInMilli()
	account := &models.Account{
		ID:       primitive.NewObjectID(),
		Email:    models.AccountEmail{Value: email, Verified: true, LastChanged: &now},
		Profile:  models.AccountProfile{Name: name},
		Security: models.AccountSecurity{PasswordHash: hash, LastPasswordChange: &now},
		Data:     models.AccountData{Role: roleID, Status: models.AccountStatusActive},
		Metadata: basemodels.NewMetadata(now, nil),
	}
	if err := h.accounts.Repository().InsertOne(ctx, account); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}
	logger.WithContext(ctx).WithFields(logrus.Fields{
		"account_id": account.ID.Hex(),
		"email":      email,
	}).Info("Đã tạo tài khoản quản trị")
	return nil
}
