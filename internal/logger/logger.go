// Package logger provides structured logging for the bot.
// It wraps log/slog with JSON output and supports an optional Better Stack
// remote sink that ships logs without blocking request handling.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogbetterstack "github.com/samber/slog-betterstack"

	"github.com/miulabs/miu-linebot-go/internal/ctxutil"
)

// Logger is the application logger.
type Logger struct {
	*slog.Logger

	async *AsyncHandler
}

// Options configures optional log sinks.
type Options struct {
	// BetterstackToken enables the Better Stack sink when non-empty.
	BetterstackToken string

	// BetterstackEndpoint is the ingesting endpoint for the token's source.
	BetterstackEndpoint string
}

// New creates a logger writing JSON to stdout.
func New(level string) *Logger {
	return NewWithOptions(level, os.Stdout, Options{})
}

// NewWithWriter creates a logger writing JSON to the provided writer.
func NewWithWriter(level string, w io.Writer) *Logger {
	return NewWithOptions(level, w, Options{})
}

// NewWithOptions creates a logger with the full sink configuration.
func NewWithOptions(level string, w io.Writer, opts Options) *Logger {
	logLevel := parseLevel(level)

	handlerOpts := &slog.HandlerOptions{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
			case slog.LevelKey:
				a.Key = "level"
				lv := a.Value.String()
				if lv == "WARN" {
					lv = "warning"
				} else {
					lv = strings.ToLower(lv)
				}
				a.Value = slog.StringValue(lv)
			case slog.MessageKey:
				a.Key = "message"
			}
			return a
		},
	}

	local := slog.NewJSONHandler(w, handlerOpts)

	if opts.BetterstackToken == "" {
		return &Logger{Logger: slog.New(&contextHandler{next: local})}
	}

	remote := slogbetterstack.Option{
		Token:    opts.BetterstackToken,
		Endpoint: opts.BetterstackEndpoint,
		Level:    logLevel,
	}.NewBetterstackHandler()

	async := NewAsyncHandler(remote, AsyncOptions{})
	return &Logger{
		Logger: slog.New(&contextHandler{next: newFanoutHandler(local, async)}),
		async:  async,
	}
}

// Shutdown flushes any buffered remote logs.
func (l *Logger) Shutdown(ctx context.Context) error {
	if l == nil || l.async == nil {
		return nil
	}
	return l.async.Shutdown(ctx)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithModule creates a new entry with module field.
func (l *Logger) WithModule(module string) *Logger {
	return l.derive(l.With("module", module))
}

// WithRequestID creates a new entry with request ID field.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.derive(l.With("request_id", requestID))
}

// WithUserID creates a new entry with the LINE user id field.
func (l *Logger) WithUserID(userID string) *Logger {
	return l.derive(l.With("user_id", userID))
}

// WithError creates a new entry with error field.
func (l *Logger) WithError(err error) *Logger {
	return l.derive(l.With("error", err))
}

// WithField creates a new entry with a single field.
func (l *Logger) WithField(key string, value any) *Logger {
	return l.derive(l.With(key, value))
}

// WithFields creates a new entry with multiple fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return l.derive(l.With(args...))
}

func (l *Logger) derive(s *slog.Logger) *Logger {
	return &Logger{Logger: s, async: l.async}
}

// Fatal logs the message at error level and exits the process.
func (l *Logger) Fatal(msg string, args ...any) {
	l.Error(msg, args...)
	os.Exit(1)
}

// Infof logs a formatted message at info level.
func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

// Warnf logs a formatted message at warn level.
func (l *Logger) Warnf(format string, args ...any) {
	l.Warn(fmt.Sprintf(format, args...))
}

// Errorf logs a formatted message at error level.
func (l *Logger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

// Debugf logs a formatted message at debug level.
func (l *Logger) Debugf(format string, args ...any) {
	l.Debug(fmt.Sprintf(format, args...))
}

// contextHandler stamps records with the identifiers ctxutil carries, so
// the *Context logging methods correlate automatically.
type contextHandler struct {
	next slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := ctxutil.RequestID(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	if id := ctxutil.UserID(ctx); id != "" {
		r.AddAttrs(slog.String("user_id", id))
	}
	return h.next.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name)}
}

// fanoutHandler duplicates records to every handler.
type fanoutHandler struct {
	handlers []slog.Handler
}

func newFanoutHandler(handlers ...slog.Handler) *fanoutHandler {
	filtered := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	return &fanoutHandler{handlers: filtered}
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, 0, len(h.handlers))
	for _, handler := range h.handlers {
		next = append(next, handler.WithAttrs(attrs))
	}
	return &fanoutHandler{handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, 0, len(h.handlers))
	for _, handler := range h.handlers {
		next = append(next, handler.WithGroup(name))
	}
	return &fanoutHandler{handlers: next}
}
