// Package config provides centralized timeout constants for the application.
//
// These values are tuned around LINE Messaging API constraints (reply token
// validity, webhook acknowledgment expectations, loading animation duration)
// and typical OpenAI API latencies for chat, vision, transcription, and
// image generation.
package config

import "time"

// Webhook timeouts
const (
	// WebhookProcessing is the timeout for processing a single webhook event.
	// LINE's loading animation shows for up to 60s, and image generation is
	// the slowest path (vision call + generation call), so the full window
	// is used. A reply sent after the token expires falls back to push.
	WebhookProcessing = 60 * time.Second

	// WebhookHTTPRead is the HTTP server read timeout for webhook requests.
	// LINE sends small JSON payloads, so this stays short.
	WebhookHTTPRead = 10 * time.Second

	// WebhookHTTPWrite is the HTTP server write timeout.
	WebhookHTTPWrite = 15 * time.Second

	// WebhookHTTPIdle is the HTTP server idle timeout for keep-alive connections.
	WebhookHTTPIdle = 120 * time.Second
)

// External provider timeouts
const (
	// ChatCompletion is the timeout for a single chat/vision completion call.
	ChatCompletion = 45 * time.Second

	// Transcription is the timeout for a speech-to-text call.
	Transcription = 30 * time.Second

	// ImageGeneration is the timeout for an image generation call.
	// DALL-E style generation regularly takes 15-30s.
	ImageGeneration = 55 * time.Second

	// ContentFetch is the timeout for downloading message content
	// (images, audio) from the LINE content endpoint.
	ContentFetch = 20 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	DatabaseConnMaxLifetime = time.Hour
)

// Background job intervals
const (
	// DedupJanitorInterval is how often expired dedup entries are swept
	// from the in-memory store.
	DedupJanitorInterval = 10 * time.Minute

	// PendingImageCleanupInterval is how often stale pending images are
	// removed from the data directory.
	PendingImageCleanupInterval = 30 * time.Minute

	// RateLimiterCleanupInterval is how often inactive user rate limiters are cleaned.
	RateLimiterCleanupInterval = 5 * time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown is the timeout for graceful server shutdown.
	GracefulShutdown = 30 * time.Second
)
