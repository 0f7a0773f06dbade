package basehdl

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"admin_backoffice/internal/common"
)

// HealthChecker kiểm tra một phụ thuộc (database, ...)
type HealthChecker func(ctx context.Context) error

// SystemHandler xử lý các route hệ thống
type SystemHandler struct {
	startedAt time.Time
	checks    map[string]HealthChecker
}

// NewSystemHandler tạo mới SystemHandler
func NewSystemHandler(checks map[string]HealthChecker) *SystemHandler {
	return &SystemHandler{startedAt: time.Now(), checks: checks}
}

// HandleHealth trả về trạng thái dịch vụ, 503 nếu có phụ thuộc lỗi
func (h *SystemHandler) HandleHealth(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			components[name] = err.Error()
			healthy = false
			continue
		}
		components[name] = "ok"
	}

	status, code := "ok", common.StatusOK
	if !healthy {
		status, code = "degraded", common.StatusServiceUnavailable
	}
	return JSONResponse(c, code, fiber.Map{
		"status":     status,
		"uptime":     time.Since(h.startedAt).Round(time.Second).String(),
		"components": components,
	})
}
