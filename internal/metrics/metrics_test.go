package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveAttempt()
	m.ObserveAttempt()
	m.ObserveRetry()
	m.ObserveOutcome("committed")
	m.ObserveOperation("account_role", "create", "success", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TxAttempts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TxRetries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TxOutcomes.WithLabelValues("committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("account_role", "create", "success")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAttempt()
		m.ObserveRetry()
		m.ObserveOutcome("aborted")
		m.ObserveOperation("account", "delete", "not-found", 0)
	})
}
