package authhdl

import (
	authdto "admin_backoffice/internal/api/auth/dto"
	models "admin_backoffice/internal/api/auth/models"
	authsvc "admin_backoffice/internal/api/auth/service"
	basehdl "admin_backoffice/internal/api/base/handler"
)

// AccountHandler xử lý các route /account
type AccountHandler = basehdl.LifecycleHandler[models.Account, authdto.AccountCreateInput, authdto.AccountUpdateInput]

// NewAccountHandler tạo mới AccountHandler
func NewAccountHandler(svc *authsvc.AccountService) *AccountHandler {
	return basehdl.NewLifecycleHandler[models.Account, authdto.AccountCreateInput, authdto.AccountUpdateInput](svc)
}
