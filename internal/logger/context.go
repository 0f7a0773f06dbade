package logger

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/sirupsen/logrus"
)

// ContextKey là type cho context keys
type ContextKey string

const (
	// RequestIDKey là key cho request ID trong context
	RequestIDKey ContextKey = "requestID"
	// ActorIDKey là key cho ID tài khoản đang thao tác
	ActorIDKey ContextKey = "actorID"
	// TraceIDKey là key cho trace ID của một thao tác nghiệp vụ
	TraceIDKey ContextKey = "traceID"
)

// ContextWithTraceID gắn trace ID vào context
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// TraceIDFromContext lấy trace ID từ context (rỗng nếu không có)
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(TraceIDKey).(string); ok {
		return v
	}
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithContext trả về logger entry với các fields lấy từ context
func WithContext(ctx context.Context) *logrus.Entry {
	entry := GetAppLogger().WithContext(ctx)

	if requestID := ctx.Value(RequestIDKey); requestID != nil {
		entry = entry.WithField("request_id", requestID)
	}
	if actorID := ctx.Value(ActorIDKey); actorID != nil {
		entry = entry.WithField("actor_id", actorID)
	}
	if traceID := ctx.Value(TraceIDKey); traceID != nil {
		entry = entry.WithField("trace_id", traceID)
	}
	return entry
}

// RequestContext tạo context.Context từ Fiber context, mang theo request ID
func RequestContext(c fiber.Ctx) context.Context {
	ctx := c.Context()
	if requestID := requestIDOf(c); requestID != "" {
		ctx = context.WithValue(ctx, RequestIDKey, requestID)
	}
	if actorID, ok := c.Locals("actorID").(string); ok && actorID != "" {
		ctx = context.WithValue(ctx, ActorIDKey, actorID)
	}
	return ctx
}

// WithRequest trả về logger entry với request context từ Fiber.
// Các giá trị được copy vì Fiber tái sử dụng buffer sau khi request kết thúc.
func WithRequest(c fiber.Ctx) *logrus.Entry {
	entry := GetAppLogger().WithFields(logrus.Fields{
		"method": strings.Clone(c.Method()),
		"path":   strings.Clone(c.Path()),
		"ip":     strings.Clone(c.IP()),
	})
	if requestID := requestIDOf(c); requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	if actorID, ok := c.Locals("actorID").(string); ok && actorID != "" {
		entry = entry.WithField("actor_id", actorID)
	}
	return entry
}

// requestIDOf lấy request ID từ Locals (requestid middleware) hoặc header.
// Kết quả là bản copy, có thể giữ lại sau khi request kết thúc (audit, log async).
func requestIDOf(c fiber.Ctx) string {
	if rid := requestid.FromContext(c); rid != "" {
		return strings.Clone(rid)
	}
	if rid := c.Get("X-Request-ID"); rid != "" {
		return strings.Clone(rid)
	}
	return strings.Clone(c.GetRespHeader("X-Request-ID"))
}
