package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultAsyncBufferSize   = 1024
	defaultAsyncFlushTimeout = 5 * time.Second
)

// AsyncOptions configures the async log pipeline.
type AsyncOptions struct {
	BufferSize   int
	FlushTimeout time.Duration
}

type asyncEntry struct {
	ctx     context.Context
	record  slog.Record
	handler slog.Handler
}

// AsyncHandler wraps a slog.Handler and dispatches records on a background
// goroutine so remote log shipping never blocks request handling.
// When the buffer is full, records are dropped rather than queued.
type AsyncHandler struct {
	handler slog.Handler

	ch           chan asyncEntry
	flushTimeout time.Duration
	closed       *atomic.Bool
	wg           *sync.WaitGroup
	dropped      *atomic.Uint64
}

// NewAsyncHandler creates a new async handler and starts its worker.
func NewAsyncHandler(handler slog.Handler, opts AsyncOptions) *AsyncHandler {
	bufferSize := opts.BufferSize
	if bufferSize <= 0 {
		bufferSize = defaultAsyncBufferSize
	}
	flushTimeout := opts.FlushTimeout
	if flushTimeout <= 0 {
		flushTimeout = defaultAsyncFlushTimeout
	}

	h := &AsyncHandler{
		handler:      handler,
		ch:           make(chan asyncEntry, bufferSize),
		flushTimeout: flushTimeout,
		closed:       &atomic.Bool{},
		wg:           &sync.WaitGroup{},
		dropped:      &atomic.Uint64{},
	}
	h.wg.Add(1)
	go h.run()
	return h
}

func (h *AsyncHandler) run() {
	defer h.wg.Done()
	for e := range h.ch {
		_ = e.handler.Handle(e.ctx, e.record)
	}
}

// Enabled reports whether the underlying handler is enabled for the level.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle enqueues the record; a full buffer drops the record.
func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.closed.Load() || !h.handler.Enabled(ctx, r.Level) {
		return nil
	}
	select {
	case h.ch <- asyncEntry{ctx: ctx, record: r.Clone(), handler: h.handler}:
	default:
		h.dropped.Add(1)
	}
	return nil
}

// WithAttrs returns a derived handler sharing the same worker.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.handler = h.handler.WithAttrs(attrs)
	return &next
}

// WithGroup returns a derived handler sharing the same worker.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.handler = h.handler.WithGroup(name)
	return &next
}

// Dropped returns the number of records discarded due to a full buffer.
func (h *AsyncHandler) Dropped() uint64 {
	return h.dropped.Load()
}

// Shutdown stops accepting records and flushes pending ones, bounded by the
// configured flush timeout when the context carries no deadline.
func (h *AsyncHandler) Shutdown(ctx context.Context) error {
	if h == nil || h.closed.Swap(true) {
		return nil
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.flushTimeout)
		defer cancel()
	}
	close(h.ch)
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
