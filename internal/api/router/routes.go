// Package router - hạ tầng đăng ký route dùng chung cho các domain.
package router

import (
	"github.com/gofiber/fiber/v3"

	"admin_backoffice/internal/api/middleware"
)

// LifecycleHandler định nghĩa interface cho các handler vòng đời của một collection
type LifecycleHandler interface {
	HandleList(c fiber.Ctx) error
	HandleGet(c fiber.Ctx) error
	HandleCreate(c fiber.Ctx) error
	HandleUpdate(c fiber.Ctx) error
	HandleDelete(c fiber.Ctx) error
	HandleRestore(c fiber.Ctx) error
}

// Các action permission của route vòng đời, permission đầy đủ là "<resource>:<action>"
const (
	ActionRead    = "read"
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionRestore = "restore"
)

// RoutePrefix chứa các prefix cơ bản cho API
type RoutePrefix struct {
	Base string // Prefix cơ bản (/api)
	V1   string // Prefix cho API version 1 (/api/v1)
}

// NewRoutePrefix tạo mới một instance của RoutePrefix với các giá trị mặc định
func NewRoutePrefix() RoutePrefix {
	base := "/api"
	return RoutePrefix{
		Base: base,
		V1:   base + "/v1",
	}
}

// Router quản lý việc định tuyến cho API
type Router struct {
	app  *fiber.App
	auth middleware.Authenticator
}

// NewRouter tạo mới một instance của Router
func NewRouter(app *fiber.App, auth middleware.Authenticator) *Router {
	return &Router{
		app:  app,
		auth: auth,
	}
}

// Auth trả về middleware xác thực yêu cầu các permission cho trước
func (r *Router) Auth(permissions ...string) fiber.Handler {
	return middleware.AuthMiddleware(r.auth, permissions...)
}

// RegisterRouteWithMiddleware đăng ký route với chuỗi middleware gắn trực tiếp vào method + path.
// Mỗi middleware là một route riêng cùng method + path, c.Next() chuyển sang route kế tiếp trong stack,
// nên middleware không lan sang route khác cùng prefix như khi dùng Group().Use().
//
// Ví dụ sử dụng:
//
//	RegisterRouteWithMiddleware(router, "/auth", "GET", "/me", []fiber.Handler{r.Auth()}, handler)
func RegisterRouteWithMiddleware(router fiber.Router, prefix string, method string, path string, middlewares []fiber.Handler, handler fiber.Handler) {
	fullPath := prefix + path
	if fullPath == "" {
		fullPath = "/"
	}
	for _, mw := range middlewares {
		router.Add([]string{method}, fullPath, mw)
	}
	router.Add([]string{method}, fullPath, handler)
}

// RegisterLifecycleRoutes đăng ký 6 route vòng đời (list, get, create, update, delete, restore)
// cho một collection, mỗi route yêu cầu permission "<resource>:<action>" tương ứng.
func (r *Router) RegisterLifecycleRoutes(router fiber.Router, prefix string, h LifecycleHandler, resource string) {
	perm := func(action string) []fiber.Handler {
		return []fiber.Handler{r.Auth(resource + ":" + action)}
	}

	RegisterRouteWithMiddleware(router, prefix, fiber.MethodGet, "", perm(ActionRead), h.HandleList)
	RegisterRouteWithMiddleware(router, prefix, fiber.MethodGet, "/:id", perm(ActionRead), h.HandleGet)
	RegisterRouteWithMiddleware(router, prefix, fiber.MethodPost, "", perm(ActionCreate), h.HandleCreate)
	RegisterRouteWithMiddleware(router, prefix, fiber.MethodPut, "/:id", perm(ActionUpdate), h.HandleUpdate)
	RegisterRouteWithMiddleware(router, prefix, fiber.MethodDelete, "/:id", perm(ActionDelete), h.HandleDelete)
	RegisterRouteWithMiddleware(router, prefix, fiber.MethodPost, "/:id/restore", perm(ActionRestore), h.HandleRestore)
}

// RegisterFunc là hàm đăng ký route của một domain (do domain/router export).
type RegisterFunc func(v1 fiber.Router, r *Router) error

// SetupRoutes thiết lập tất cả các route dưới /api/v1. Caller truyền lần lượt Register của từng domain để tránh import cycle.
func SetupRoutes(app *fiber.App, auth middleware.Authenticator, regs ...RegisterFunc) error {
	prefix := NewRoutePrefix()
	v1 := app.Group(prefix.V1)
	r := NewRouter(app, auth)
	for _, reg := range regs {
		if err := reg(v1, r); err != nil {
			return err
		}
	}
	return nil
}
