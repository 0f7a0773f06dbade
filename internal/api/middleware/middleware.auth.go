// Package middleware - các middleware Fiber: xác thực bearer token và kiểm tra quyền.
package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	basehdl "admin_backoffice/internal/api/base/handler"
	"admin_backoffice/internal/authz"
	"admin_backoffice/internal/common"
	"admin_backoffice/internal/logger"
)

// Authenticator phân giải bearer token thành actor
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*authz.Actor, error)
}

// AuthMiddleware xác thực request và kiểm tra actor có đủ các quyền yêu cầu.
// Không truyền permission nào = chỉ yêu cầu đã xác thực.
func AuthMiddleware(auth Authenticator, permissions ...string) fiber.Handler {
	return func(c fiber.Ctx) error {
		token, err := bearerToken(c.Get("Authorization"))
		if err != nil {
			logger.WithRequest(c).Warn("Request thiếu hoặc sai Authorization header")
			return basehdl.HandleError(c, err)
		}

		actor, err := auth.Authenticate(logger.RequestContext(c), token)
		if err != nil {
			return basehdl.HandleError(c, err)
		}

		if err := authz.Authorize(actor, permissions...); err != nil {
			logger.WithRequest(c).WithFields(logrus.Fields{
				"actor_id": actor.ID.Hex(),
				"required": permissions,
			}).Warn("Actor không đủ quyền")
			return basehdl.HandleError(c, err)
		}

		basehdl.SetActor(c, actor)
		return c.Next()
	}
}

// bearerToken tách token từ header "Bearer <token>"
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", common.ErrTokenMissing
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", common.ErrTokenInvalid
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", common.ErrTokenMissing
	}
	return token, nil
}
