// Package sentry wraps the Sentry Go SDK for error tracking. The DSN is
// assembled from a Better Stack Errors token and ingesting host, and a gin
// middleware captures panics from HTTP handlers.
package sentry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// Config holds Sentry configuration.
type Config struct {
	// Token is the Better Stack Errors application token.
	Token string

	// Host is the ingesting host (e.g., "errors.betterstack.com").
	Host string

	// Environment identifies the deployment environment.
	Environment string

	// Release identifies the application release version.
	Release string

	// SampleRate controls error sampling (0.0-1.0, default 1.0).
	SampleRate float64

	// Debug enables Sentry SDK debug logging.
	Debug bool
}

// Initialize sets up the Sentry SDK. If Token is empty, Sentry is disabled
// and nil is returned. The DSN is constructed as https://$TOKEN@$HOST/1;
// the project id suffix is required by the SDK and ignored by the backend.
func Initialize(cfg Config) error {
	if cfg.Token == "" {
		return nil // Sentry disabled
	}

	if cfg.Host == "" {
		return fmt.Errorf("sentry host is required when token is provided")
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              fmt.Sprintf("https://%s@%s/1", cfg.Token, cfg.Host),
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	})
}

// Middleware returns a gin middleware that reports panics to Sentry and
// re-panics so the recovery middleware can answer the request.
func Middleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{Repanic: true})
}

// Flush waits for buffered events to be sent to the server.
// Returns true if all events were sent within the timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled returns true if Sentry is initialized and active.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureException captures an error and sends it to Sentry.
func CaptureException(err error) {
	sentry.CaptureException(err)
}

// CaptureExceptionWithContext captures an error using the hub bound to ctx
// when present.
func CaptureExceptionWithContext(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}

// CaptureMessage captures a message and sends it to Sentry.
func CaptureMessage(message string) {
	sentry.CaptureMessage(message)
}
