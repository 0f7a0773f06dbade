// Package authhdl - các handler HTTP của domain auth (vai trò, tài khoản, phiên đăng nhập).
package authhdl

import (
	authdto "admin_backoffice/internal/api/auth/dto"
	models "admin_backoffice/internal/api/auth/models"
	authsvc "admin_backoffice/internal/api/auth/service"
	basehdl "admin_backoffice/internal/api/base/handler"
)

// AccountRoleHandler xử lý các route /account-role
type AccountRoleHandler = basehdl.LifecycleHandler[models.AccountRole, authdto.AccountRoleCreateInput, authdto.AccountRoleUpdateInput]

// NewAccountRoleHandler tạo mới AccountRoleHandler
func NewAccountRoleHandler(svc *authsvc.AccountRoleService) *AccountRoleHandler {
	return basehdl.NewLifecycleHandler[models.AccountRole, authdto.AccountRoleCreateInput, authdto.AccountRoleUpdateInput](svc)
}
