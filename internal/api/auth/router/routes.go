// Package router đăng ký các route thuộc domain auth: đăng nhập, tài khoản hiện tại, vai trò, tài khoản.
package router

import (
	"github.com/gofiber/fiber/v3"

	authhdl "admin_backoffice/internal/api/auth/handler"
	apirouter "admin_backoffice/internal/api/router"
)

// Resource dùng làm tiền tố permission
const (
	ResourceRoles    = "roles"
	ResourceAccounts = "accounts"
)

// Handlers gom các handler của domain auth
type Handlers struct {
	Roles    *authhdl.AccountRoleHandler
	Accounts *authhdl.AccountHandler
	Session  *authhdl.SessionHandler
}

// Register trả về hàm đăng ký tất cả route auth lên v1.
func Register(h Handlers) apirouter.RegisterFunc {
	return func(v1 fiber.Router, r *apirouter.Router) error {
		registerSessionRoutes(v1, r, h.Session)
		r.RegisterLifecycleRoutes(v1, "/account-role", h.Roles, ResourceRoles)
		r.RegisterLifecycleRoutes(v1, "/account", h.Accounts, ResourceAccounts)
		return nil
	}
}

func registerSessionRoutes(router fiber.Router, r *apirouter.Router, h *authhdl.SessionHandler) {
	router.Post("/auth/login", h.HandleLogin)
	authOnlyMiddleware := r.Auth()
	apirouter.RegisterRouteWithMiddleware(router, "/auth", fiber.MethodGet, "/me", []fiber.Handler{authOnlyMiddleware}, h.HandleMe)
	apirouter.RegisterRouteWithMiddleware(router, "/auth", fiber.MethodDelete, "/me", []fiber.Handler{authOnlyMiddleware}, h.HandleDeleteMe)
}
