package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLevel là mức độ của một audit entry
type AuditLevel string

const (
	AuditInfo      AuditLevel = "info"
	AuditWarning   AuditLevel = "warning"
	AuditImportant AuditLevel = "important"
	AuditError     AuditLevel = "error"
	AuditCritical  AuditLevel = "critical"
)

// AuditEntry là một bản ghi audit có cấu trúc
type AuditEntry struct {
	Timestamp  time.Time              `json:"timestamp" bson:"timestamp"`
	Level      AuditLevel             `json:"level" bson:"level"`
	Source     string                 `json:"source" bson:"source"`
	Message    string                 `json:"message" bson:"message"`
	Details    map[string]interface{} `json:"details,omitempty" bson:"details,omitempty"`
	DurationMs *int64                 `json:"duration_ms,omitempty" bson:"durationMs,omitempty"`
	TraceID    string                 `json:"traceId,omitempty" bson:"traceId,omitempty"`
	EntityRefs map[string]string      `json:"entityRefs,omitempty" bson:"entityRefs,omitempty"`
}

// AuditSink là nơi nhận audit entry (logrus, MongoDB, bộ nhớ, ...)
type AuditSink interface {
	WriteAudit(ctx context.Context, entry AuditEntry) error
}

// AuditLogger ghi audit bất đồng bộ vào các sink.
// Log không bao giờ trả lỗi hay panic ra ngoài; lỗi của sink chỉ được ghi ra fallback (stderr).
type AuditLogger struct {
	sinks       []AuditSink
	entries     chan AuditEntry
	fallback    io.Writer
	sinkTimeout time.Duration
	mu          sync.Mutex
	closed      bool
	wg          sync.WaitGroup
}

// NewAuditLogger tạo AuditLogger với hàng đợi kích thước queueSize
func NewAuditLogger(queueSize int, sinks ...AuditSink) *AuditLogger {
	if queueSize <= 0 {
		queueSize = 1000
	}
	a := &AuditLogger{
		sinks:       sinks,
		entries:     make(chan AuditEntry, queueSize),
		fallback:    os.Stderr,
		sinkTimeout: 5 * time.Second,
	}
	a.wg.Add(1)
	go a.process()
	return a
}

// SetFallback đổi kênh fallback (mặc định là stderr)
func (a *AuditLogger) SetFallback(w io.Writer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fallback = w
}

// Log đưa entry vào hàng đợi. Hàng đợi đầy thì entry được ghi ra fallback.
func (a *AuditLogger) Log(entry AuditEntry) {
	if a == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			a.reportFallback(entry, fmt.Errorf("audit log panic: %v", r))
		}
	}()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.Level == "" {
		entry.Level = AuditInfo
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		a.fallbackLocked(entry, fmt.Errorf("audit logger closed"))
		return
	}
	select {
	case a.entries <- entry:
	default:
		a.fallbackLocked(entry, fmt.Errorf("audit queue full"))
	}
}

// process chuyển entry tới các sink trong một goroutine riêng
func (a *AuditLogger) process() {
	defer a.wg.Done()
	for entry := range a.entries {
		a.deliver(entry)
	}
}

// deliver ghi entry vào từng sink, lỗi hoặc panic của sink không ảnh hưởng sink khác
func (a *AuditLogger) deliver(entry AuditEntry) {
	for _, sink := range a.sinks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					a.reportFallback(entry, fmt.Errorf("audit sink panic: %v", r))
				}
			}()
			ctx, cancel := context.WithTimeout(context.Background(), a.sinkTimeout)
			defer cancel()
			if err := sink.WriteAudit(ctx, entry); err != nil {
				a.reportFallback(entry, err)
			}
		}()
	}
}

func (a *AuditLogger) reportFallback(entry AuditEntry, cause error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fallbackLocked(entry, cause)
}

func (a *AuditLogger) fallbackLocked(entry AuditEntry, cause error) {
	if a.fallback == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		data = []byte(fmt.Sprintf("%q", entry.Message))
	}
	_, _ = fmt.Fprintf(a.fallback, "[AUDIT FALLBACK] %v: %s\n", cause, data)
}

// Close dừng nhận entry mới và đợi hàng đợi được xử lý hết
func (a *AuditLogger) Close() {
	if a == nil {
		return
	}
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.entries)
	a.mu.Unlock()
	a.wg.Wait()
}

// ====================================
// SINKS
// ====================================

// LogrusAuditSink ghi audit entry vào kênh logger "audit"
type LogrusAuditSink struct {
	logger *logrus.Logger
}

// NewLogrusAuditSink tạo sink ghi vào logrus logger (nil = GetAuditLogger())
func NewLogrusAuditSink(l *logrus.Logger) *LogrusAuditSink {
	if l == nil {
		l = GetAuditLogger()
	}
	return &LogrusAuditSink{logger: l}
}

// WriteAudit ghi entry với level logrus tương ứng
func (s *LogrusAuditSink) WriteAudit(_ context.Context, entry AuditEntry) error {
	fields := logrus.Fields{
		"audit_level": string(entry.Level),
		"source":      entry.Source,
		"timestamp":   entry.Timestamp.UnixMilli(),
	}
	if len(entry.Details) > 0 {
		fields["details"] = entry.Details
	}
	if entry.DurationMs != nil {
		fields["duration_ms"] = *entry.DurationMs
	}
	if entry.TraceID != "" {
		fields["trace_id"] = entry.TraceID
	}
	if len(entry.EntityRefs) > 0 {
		fields["entity_refs"] = entry.EntityRefs
	}
	s.logger.WithFields(fields).Log(logrusLevel(entry.Level), entry.Message)
	return nil
}

// logrusLevel ánh xạ AuditLevel sang logrus.Level
func logrusLevel(level AuditLevel) logrus.Level {
	switch level {
	case AuditWarning, AuditImportant:
		return logrus.WarnLevel
	case AuditError, AuditCritical:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// MemoryAuditSink giữ audit entry trong bộ nhớ (dùng cho test và môi trường dev)
type MemoryAuditSink struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// NewMemoryAuditSink tạo sink lưu trong bộ nhớ
func NewMemoryAuditSink() *MemoryAuditSink {
	return &MemoryAuditSink{}
}

// WriteAudit lưu entry
func (s *MemoryAuditSink) WriteAudit(_ context.Context, entry AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// Entries trả về bản sao các entry đã nhận
func (s *MemoryAuditSink) Entries() []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Filter trả về các entry có level và source (rỗng = mọi source) tương ứng
func (s *MemoryAuditSink) Filter(level AuditLevel, source string) []AuditEntry {
	var out []AuditEntry
	for _, e := range s.Entries() {
		if e.Level == level && (source == "" || e.Source == source) {
			out = append(out, e)
		}
	}
	return out
}
