package database

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admin_backoffice/internal/common"
	"admin_backoffice/internal/logger"
	"admin_backoffice/internal/metrics"
)

// fakeScope ghi lại các lần commit/abort
type fakeScope struct {
	factory   *fakeFactory
	committed bool
	aborted   bool
	ended     bool
}

func (s *fakeScope) Bind(ctx context.Context) context.Context { return ctx }

func (s *fakeScope) Commit(context.Context) error {
	s.factory.mu.Lock()
	defer s.factory.mu.Unlock()
	if len(s.factory.commitErrs) > 0 {
		err := s.factory.commitErrs[0]
		s.factory.commitErrs = s.factory.commitErrs[1:]
		return err
	}
	s.committed = true
	s.factory.commits++
	return nil
}

func (s *fakeScope) Abort(context.Context) error {
	s.factory.mu.Lock()
	defer s.factory.mu.Unlock()
	if !s.aborted && !s.committed {
		s.aborted = true
		s.factory.aborts++
	}
	return nil
}

func (s *fakeScope) End(context.Context) { s.ended = true }

type fakeFactory struct {
	mu         sync.Mutex
	scopes     []*fakeScope
	commits    int
	aborts     int
	commitErrs []error
}

func (f *fakeFactory) Begin(context.Context) (Scope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &fakeScope{factory: f}
	f.scopes = append(f.scopes, s)
	return s, nil
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseInterval: time.Millisecond, Multiplier: 2, MaxInterval: 5 * time.Millisecond}
}

func newTestRunner(f ScopeFactory) (*TransactionRunner, *logger.AuditLogger, *logger.MemoryAuditSink, *metrics.Metrics) {
	sink := logger.NewMemoryAuditSink()
	audit := logger.NewAuditLogger(100, sink)
	m := metrics.New(prometheus.NewRegistry())
	return NewTransactionRunner(f, fastPolicy(), audit, m), audit, sink, m
}

func TestRun_CommitsOnSuccess(t *testing.T) {
	f := &fakeFactory{}
	runner, audit, sink, m := newTestRunner(f)

	err := runner.Run(context.Background(), nil, func(ctx context.Context, scope Scope) error {
		assert.NotNil(t, scope)
		return nil
	})
	audit.Close()

	require.NoError(t, err)
	assert.Equal(t, 1, f.commits)
	assert.Equal(t, 0, f.aborts)
	assert.True(t, f.scopes[0].ended)
	assert.Empty(t, sink.Filter(logger.AuditWarning, "transaction.retry"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TxOutcomes.WithLabelValues("committed")))
}

func TestRun_ExistingScopeIsNeverCommitted(t *testing.T) {
	f := &fakeFactory{}
	runner, audit, _, _ := newTestRunner(f)
	defer audit.Close()

	outer, _ := f.Begin(context.Background())
	calls := 0
	err := runner.Run(context.Background(), outer, func(ctx context.Context, scope Scope) error {
		calls++
		assert.Same(t, outer, scope)
		return errors.New("transient")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls, "scope có sẵn không thử lại")
	assert.Equal(t, 0, f.commits)
	assert.Equal(t, 0, f.aborts, "scope có sẵn không bị abort")
	assert.Len(t, f.scopes, 1, "không mở scope mới")
}

func TestRun_DomainErrorBailsImmediately(t *testing.T) {
	for _, domainErr := range []error{common.ErrNotFound, common.ErrLevelInUse, common.ErrLevelTooHigh, common.ErrCannotDeleteSelf} {
		f := &fakeFactory{}
		runner, audit, sink, _ := newTestRunner(f)

		calls := 0
		err := runner.Run(context.Background(), nil, func(context.Context, Scope) error {
			calls++
			return domainErr
		})
		audit.Close()

		assert.ErrorIs(t, err, domainErr)
		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, f.aborts)
		assert.Empty(t, sink.Filter(logger.AuditWarning, "transaction.retry"))
	}
}

func TestRun_TransientErrorRetriedThenSucceeds(t *testing.T) {
	f := &fakeFactory{}
	runner, audit, sink, m := newTestRunner(f)

	calls := 0
	err := runner.Run(context.Background(), nil, func(context.Context, Scope) error {
		calls++
		if calls == 1 {
			return common.ErrWriteConflict
		}
		return nil
	})
	audit.Close()

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, f.aborts)
	assert.Equal(t, 1, f.commits)

	retries := sink.Filter(logger.AuditWarning, "transaction.retry")
	require.Len(t, retries, 1)
	assert.Equal(t, 1, retries[0].Details["attempt"])
	assert.Contains(t, retries[0].Details, "elapsed_ms")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TxRetries))
}

func TestRun_CommitFailureIsRetried(t *testing.T) {
	f := &fakeFactory{commitErrs: []error{errors.New("UnknownTransactionCommitResult")}}
	runner, audit, _, _ := newTestRunner(f)
	defer audit.Close()

	calls := 0
	err := runner.Run(context.Background(), nil, func(context.Context, Scope) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, f.commits)
}

func TestRun_CommitFailuresSurfaceAsTransactionError(t *testing.T) {
	lost := errors.New("connection reset")
	f := &fakeFactory{commitErrs: []error{lost, lost, lost, lost}}
	runner, audit, _, _ := newTestRunner(f)
	defer audit.Close()

	err := runner.Run(context.Background(), nil, func(context.Context, Scope) error { return nil })

	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrTransaction))
	assert.True(t, errors.Is(err, lost), "lỗi gốc vẫn được giữ")
	assert.False(t, common.IsDomainError(err))
	assert.Equal(t, 0, f.commits)
	assert.Equal(t, 4, f.aborts)
}

func TestRun_ExhaustedRetriesReturnLastError(t *testing.T) {
	f := &fakeFactory{}
	runner, audit, sink, m := newTestRunner(f)

	calls := 0
	err := runner.Run(context.Background(), nil, func(context.Context, Scope) error {
		calls++
		return errors.New("socket closed")
	})
	audit.Close()

	require.Error(t, err)
	assert.Equal(t, "socket closed", err.Error())
	assert.Equal(t, 4, calls, "một lần chạy đầu và ba lần thử lại")
	assert.Len(t, sink.Filter(logger.AuditWarning, "transaction.retry"), 3)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.TxAttempts))
	assert.Equal(t, 0, f.commits)
}

func TestRun_PanicAbortsScope(t *testing.T) {
	f := &fakeFactory{}
	runner, audit, _, _ := newTestRunner(f)
	defer audit.Close()

	assert.Panics(t, func() {
		_ = runner.Run(context.Background(), nil, func(context.Context, Scope) error {
			panic("bug")
		})
	})
	assert.Equal(t, 1, f.aborts)
}

func TestRunValue(t *testing.T) {
	f := &fakeFactory{}
	runner, audit, _, _ := newTestRunner(f)
	defer audit.Close()

	v, err := RunValue(context.Background(), runner, nil, func(context.Context, Scope) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = RunValue(context.Background(), runner, nil, func(context.Context, Scope) (int, error) {
		return 7, common.ErrNotFound
	})
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Zero(t, v)
}

func TestDefaultRetryPolicy_Intervals(t *testing.T) {
	b := DefaultRetryPolicy().newBackOff()
	b.Reset()
	assert.Equal(t, 1000*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 2000*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 4000*time.Millisecond, b.NextBackOff())
	assert.Equal(t, time.Duration(-1), b.NextBackOff(), "hết ba lần thử lại")
}

func TestCollectIndexes(t *testing.T) {
	type email struct {
		Value string `bson:"value" index:"unique,active"`
	}
	type account struct {
		Email email  `bson:"email"`
		Name  string `bson:"name" index:"single:-1"`
		Skip  string `bson:"-" index:"unique"`
	}

	specs := CollectIndexes(&account{})
	require.Len(t, specs, 2)
	assert.Equal(t, IndexSpec{Field: "email.value", Order: 1, Unique: true, Active: true}, specs[0])
	assert.Equal(t, "email.value_unique", specs[0].Name())
	assert.Equal(t, IndexSpec{Field: "name", Order: -1}, specs[1])
}
