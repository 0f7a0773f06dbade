package main

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhdl "admin_backoffice/internal/api/auth/handler"
	authrouter "admin_backoffice/internal/api/auth/router"
	basehdl "admin_backoffice/internal/api/base/handler"
	"admin_backoffice/internal/api/router"
	"admin_backoffice/internal/common"
	"admin_backoffice/internal/logger"
)

// InitFiberApp khởi tạo ứng dụng Fiber với các middleware cần thiết
func InitFiberApp(s *Server) (*fiber.App, error) {
	cfg := s.Config

	app := fiber.New(fiber.Config{
		AppName:       "Admin Backoffice API",
		ServerHeader:  "Admin Backoffice API",
		StrictRouting: false,
		CaseSensitive: true,

		BodyLimit:    1 * 1024 * 1024, // 1MB là đủ cho các DTO quản trị
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,

		// Lỗi do Fiber sinh ra (404 route, 405, body quá lớn, ...) theo cùng format response
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := common.MsgInternalError
			errorCode := common.ErrCodeInternalServer.Code

			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
				switch code {
				case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
					errorCode = common.ErrCodeValidationInput.Code
				case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
					errorCode = common.ErrCodeLifecycleNotFound.Code
				}
			}

			if code >= fiber.StatusInternalServerError {
				logger.WithRequest(c).WithError(err).Error("Request error")
			}
			return basehdl.JSONResponse(c, code, fiber.Map{
				"code":    errorCode,
				"message": message,
				"status":  "error",
			})
		},
	})

	// 1. Request ID - trace từng request qua log và audit
	app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: uuid.NewString,
	}))

	// 2. CORS - đặt sớm để xử lý preflight trước các middleware khác
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: cfg.CORS_AllowCreds,
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		MaxAge:           24 * 60 * 60,
	}))

	// 3. Security headers
	app.Use(func(c fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	})

	// 4. Rate limiting theo IP
	log := logger.GetAppLogger()
	if cfg.RateLimit_Enabled && cfg.RateLimit_Max > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit_Max,
			Expiration: cfg.RateLimitWindow(),
			KeyGenerator: func(c fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c fiber.Ctx) error {
				return basehdl.JSONResponse(c, common.StatusTooManyRequests, fiber.Map{
					"code":    common.ErrCodeRateLimit.Code,
					"message": "Quá nhiều yêu cầu, vui lòng thử lại sau",
					"status":  "error",
				})
			},
			Next: func(c fiber.Ctx) bool {
				return c.Path() == "/health" || c.Path() == "/metrics" || c.Method() == fiber.MethodOptions
			},
		}))
		log.Infof("Rate limiting enabled: %d requests per %d seconds", cfg.RateLimit_Max, cfg.RateLimit_Window)
	} else {
		log.Info("Rate limiting disabled")
	}

	// 5. Recover
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			logger.WithRequest(c).WithField("panic", fmt.Sprint(e)).Error("Panic recovered")
		},
	}))

	// Route hệ thống
	system := basehdl.NewSystemHandler(healthChecks())
	app.Get("/health", system.HandleHealth)
	if cfg.MetricsEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.Prom, promhttp.HandlerOpts{})))
	}

	err := router.SetupRoutes(app, s.Auth, authrouter.Register(authrouter.Handlers{
		Roles:    authhdl.NewAccountRoleHandler(s.Roles),
		Accounts: authhdl.NewAccountHandler(s.Accounts),
		Session:  authhdl.NewSessionHandler(s.Auth, s.Accounts),
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return app, nil
}
