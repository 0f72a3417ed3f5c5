package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miulabs/miu-linebot-go/internal/ctxutil"
)

func TestNewWithWriterJSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.WithModule("webhook").WithField("user_id", "U123").Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "webhook", entry["module"])
	assert.Equal(t, "U123", entry["user_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestWarnLevelRendersAsWarning(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)

	log.Warn("careful")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["level"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("error", &buf)

	log.Info("ignored")
	log.Debug("ignored too")
	assert.Zero(t, buf.Len())

	log.Error("kept")
	assert.NotZero(t, buf.Len())
}

type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

func TestAsyncHandlerFlushesOnShutdown(t *testing.T) {
	rec := &recordingHandler{}
	async := NewAsyncHandler(rec, AsyncOptions{BufferSize: 8})

	log := slog.New(async)
	for i := 0; i < 5; i++ {
		log.Info("msg")
	}

	require.NoError(t, async.Shutdown(context.Background()))
	assert.Equal(t, 5, rec.count())
}

func TestAsyncHandlerDropsWhenClosed(t *testing.T) {
	rec := &recordingHandler{}
	async := NewAsyncHandler(rec, AsyncOptions{BufferSize: 1})
	require.NoError(t, async.Shutdown(context.Background()))

	log := slog.New(async)
	log.Info("after close")

	assert.Equal(t, 0, rec.count())
}

func TestContextHandlerStampsIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	ctx := ctxutil.WithRequestID(context.Background(), "evt-42")
	ctx = ctxutil.WithUserID(ctx, "U123")
	log.InfoContext(ctx, "handled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "evt-42", entry["request_id"])
	assert.Equal(t, "U123", entry["user_id"])
}

func TestContextHandlerSkipsMissingIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.InfoContext(context.Background(), "handled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "request_id")
	assert.NotContains(t, entry, "user_id")
}

func TestFanoutHandlerDuplicates(t *testing.T) {
	a := &recordingHandler{}
	b := &recordingHandler{}
	log := slog.New(newFanoutHandler(a, b, nil))

	log.Info("one")

	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
}
