// Package metrics gom các Prometheus collector của service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics chứa các collector cho giao dịch và vòng đời thực thể.
// Các phương thức đều an toàn khi receiver là nil.
type Metrics struct {
	TxAttempts   prometheus.Counter
	TxRetries    prometheus.Counter
	TxOutcomes   *prometheus.CounterVec
	Operations   *prometheus.CounterVec
	OperationDur *prometheus.HistogramVec
}

// New tạo và đăng ký collector vào registerer
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TxAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "transaction",
			Name:      "attempts_total",
			Help:      "Số lần thực thi unit of work trong transaction scope",
		}),
		TxRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "transaction",
			Name:      "retries_total",
			Help:      "Số lần thử lại do lỗi hạ tầng tạm thời",
		}),
		TxOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "transaction",
			Name:      "outcomes_total",
			Help:      "Kết quả transaction scope (committed, aborted)",
		}, []string{"outcome"}),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "lifecycle",
			Name:      "operations_total",
			Help:      "Số thao tác vòng đời thực thể theo kết quả",
		}, []string{"entity", "operation", "result"}),
		OperationDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "backoffice",
			Subsystem: "lifecycle",
			Name:      "operation_duration_seconds",
			Help:      "Thời gian thực hiện thao tác vòng đời thực thể",
			Buckets:   prometheus.DefBuckets,
		}, []string{"entity", "operation"}),
	}
	if reg != nil {
		reg.MustRegister(m.TxAttempts, m.TxRetries, m.TxOutcomes, m.Operations, m.OperationDur)
	}
	return m
}

// ObserveAttempt ghi nhận một lần thực thi unit of work
func (m *Metrics) ObserveAttempt() {
	if m == nil {
		return
	}
	m.TxAttempts.Inc()
}

// ObserveRetry ghi nhận một lần thử lại
func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.TxRetries.Inc()
}

// ObserveOutcome ghi nhận kết quả của transaction scope
func (m *Metrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.TxOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveOperation ghi nhận kết quả và thời gian của một thao tác vòng đời
func (m *Metrics) ObserveOperation(entity, operation, result string, seconds float64) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(entity, operation, result).Inc()
	m.OperationDur.WithLabelValues(entity, operation).Observe(seconds)
}
