package authhdl

import (
	"github.com/gofiber/fiber/v3"

	authdto "admin_backoffice/internal/api/auth/dto"
	authsvc "admin_backoffice/internal/api/auth/service"
	basehdl "admin_backoffice/internal/api/base/handler"
	"admin_backoffice/internal/common"
	"admin_backoffice/internal/logger"
)

// SessionHandler xử lý đăng nhập và các thao tác trên tài khoản hiện tại
type SessionHandler struct {
	auth     *authsvc.AuthService
	accounts *authsvc.AccountService
}

// NewSessionHandler tạo mới SessionHandler
func NewSessionHandler(auth *authsvc.AuthService, accounts *authsvc.AccountService) *SessionHandler {
	return &SessionHandler{auth: auth, accounts: accounts}
}

// HandleLogin xử lý POST /auth/login
func (h *SessionHandler) HandleLogin(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input authdto.LoginInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			return basehdl.HandleError(c, err)
		}
		result, err := h.auth.Login(logger.RequestContext(c), &input)
		return basehdl.HandleResponse(c, result, err)
	})
}

// HandleMe xử lý GET /auth/me
func (h *SessionHandler) HandleMe(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		actor := basehdl.ActorOf(c)
		if actor == nil {
			return basehdl.HandleError(c, common.ErrUnauthenticated)
		}
		account, err := h.accounts.Get(logger.RequestContext(c), actor, actor.ID, nil, false)
		return basehdl.HandleResponse(c, account, err)
	})
}

// HandleDeleteMe xử lý DELETE /auth/me
func (h *SessionHandler) HandleDeleteMe(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		account, err := h.accounts.DeleteSelf(logger.RequestContext(c), basehdl.ActorOf(c), nil)
		return basehdl.HandleResponse(c, account, err)
	})
}
