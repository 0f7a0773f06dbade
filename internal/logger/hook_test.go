package logger

import (
	"bytes"
	"io"
	"testing"
	"unsafe"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newHookedLogger(buf *bytes.Buffer) (*logrus.Logger, *AsyncHook) {
	hook := NewAsyncHookWithWriters([]io.Writer{buf}, 10)
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	l.SetOutput(io.Discard)
	l.AddHook(hook)
	return l, hook
}

func TestAsyncHook_KeepsLevelAndMessage(t *testing.T) {
	var buf bytes.Buffer
	l, hook := newHookedLogger(&buf)

	l.WithField("actor_id", "abc").Warn("Actor không đủ quyền")
	assert.NoError(t, hook.Close())

	out := buf.String()
	assert.Contains(t, out, "level=warning")
	assert.Contains(t, out, "Actor không đủ quyền")
	assert.Contains(t, out, "actor_id=abc")
}

// Fiber trả về chuỗi trỏ vào buffer của request và ghi đè buffer đó ở request sau.
// Entry đã đưa vào hàng đợi phải giữ nguyên giá trị lúc ghi log.
func TestAsyncHook_DetachesStringsFromReusedBuffer(t *testing.T) {
	var buf bytes.Buffer
	l, hook := newHookedLogger(&buf)

	raw := []byte("/api/v1/account")
	path := unsafe.String(&raw[0], len(raw))

	l.WithField("path", path).Info("request")
	copy(raw, "/xxxxxxxxxxxxxx")
	assert.NoError(t, hook.Close())

	assert.Contains(t, buf.String(), "path=/api/v1/account")
	assert.NotContains(t, buf.String(), "xxxx")
}

func TestAsyncHook_WritesDirectlyAfterClose(t *testing.T) {
	var buf bytes.Buffer
	l, hook := newHookedLogger(&buf)
	assert.NoError(t, hook.Close())

	l.Error("after close")
	assert.Contains(t, buf.String(), "after close")
	assert.NoError(t, hook.Close(), "đóng lần hai không lỗi")
}
