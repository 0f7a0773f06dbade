package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"admin_backoffice/internal/common"
	"admin_backoffice/internal/logger"
	"admin_backoffice/internal/metrics"
)

// RetryPolicy cấu hình việc thử lại khi gặp lỗi hạ tầng tạm thời
type RetryPolicy struct {
	MaxRetries   uint64        // Số lần thử lại sau lần chạy đầu tiên
	BaseInterval time.Duration // Khoảng chờ trước lần thử lại đầu tiên
	Multiplier   float64       // Hệ số tăng khoảng chờ
	MaxInterval  time.Duration // Khoảng chờ tối đa
}

// DefaultRetryPolicy: 3 lần thử lại, chờ 1s, 2s, 4s (tối đa 5s)
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   3,
		BaseInterval: 1000 * time.Millisecond,
		Multiplier:   2,
		MaxInterval:  5000 * time.Millisecond,
	}
}

// newBackOff tạo exponential backoff không có jitter theo policy
func (p RetryPolicy) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseInterval
	b.Multiplier = p.Multiplier
	b.MaxInterval = p.MaxInterval
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithMaxRetries(b, p.MaxRetries)
}

// UnitOfWork là phần việc chạy trong một transaction scope.
// ctx đã được gắn scope; scope được truyền tiếp cho các service lồng nhau.
type UnitOfWork func(ctx context.Context, scope Scope) error

// TransactionRunner chạy unit of work trong transaction scope, thử lại khi gặp lỗi tạm thời
type TransactionRunner struct {
	factory ScopeFactory
	policy  RetryPolicy
	audit   *logger.AuditLogger
	metrics *metrics.Metrics
}

// NewTransactionRunner tạo mới TransactionRunner
func NewTransactionRunner(factory ScopeFactory, policy RetryPolicy, audit *logger.AuditLogger, m *metrics.Metrics) *TransactionRunner {
	return &TransactionRunner{
		factory: factory,
		policy:  policy,
		audit:   audit,
		metrics: m,
	}
}

// Run chạy work.
//   - existing != nil: chạy đúng một lần trong scope có sẵn, không commit/abort scope đó.
//   - existing == nil: mở scope mới, commit khi thành công, abort khi lỗi.
//     Lỗi nghiệp vụ trả về ngay; lỗi khác được thử lại theo RetryPolicy, hết lượt thì trả lỗi cuối cùng.
func (r *TransactionRunner) Run(ctx context.Context, existing Scope, work UnitOfWork) error {
	if existing != nil {
		return work(existing.Bind(ctx), existing)
	}

	start := time.Now()
	attempt := 0

	operation := func() error {
		attempt++
		r.metrics.ObserveAttempt()
		err := r.runOnce(ctx, work)
		if err != nil && common.IsDomainError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		r.metrics.ObserveRetry()
		r.audit.Log(logger.AuditEntry{
			Level:   logger.AuditWarning,
			Source:  "transaction.retry",
			Message: fmt.Sprintf("Giao dịch thất bại ở lần thử %d, thử lại sau %s", attempt, wait),
			Details: map[string]interface{}{
				"attempt":       attempt,
				"elapsed_ms":    time.Since(start).Milliseconds(),
				"next_delay_ms": wait.Milliseconds(),
				"transient":     common.IsTransient(err),
				"error":         err.Error(),
			},
			TraceID: logger.TraceIDFromContext(ctx),
		})
	}

	return backoff.RetryNotify(operation, backoff.WithContext(r.policy.newBackOff(), ctx), notify)
}

// runOnce mở scope, chạy work và commit hoặc abort
func (r *TransactionRunner) runOnce(ctx context.Context, work UnitOfWork) (err error) {
	scope, err := r.factory.Begin(ctx)
	if err != nil {
		return common.ErrTransaction.Wrap(fmt.Errorf("begin transaction: %w", err))
	}
	defer scope.End(ctx)

	defer func() {
		if p := recover(); p != nil {
			_ = scope.Abort(ctx)
			r.metrics.ObserveOutcome("aborted")
			panic(p)
		}
	}()

	if err = work(scope.Bind(ctx), scope); err != nil {
		if abortErr := scope.Abort(ctx); abortErr != nil {
			logger.WithContext(ctx).WithError(abortErr).Warn("Abort transaction thất bại")
		}
		r.metrics.ObserveOutcome("aborted")
		return err
	}

	if err = scope.Commit(ctx); err != nil {
		_ = scope.Abort(ctx)
		r.metrics.ObserveOutcome("aborted")
		return common.ErrTransaction.Wrap(fmt.Errorf("commit transaction: %w", err))
	}
	r.metrics.ObserveOutcome("committed")
	return nil
}

// RunValue là phiên bản của Run trả về giá trị
func RunValue[T any](ctx context.Context, r *TransactionRunner, existing Scope, work func(ctx context.Context, scope Scope) (T, error)) (T, error) {
	var result T
	err := r.Run(ctx, existing, func(ctx context.Context, scope Scope) error {
		v, err := work(ctx, scope)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
