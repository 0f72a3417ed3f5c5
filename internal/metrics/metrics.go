// Package metrics defines the Prometheus instrumentation for the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Webhook metrics
	WebhookRequestsTotal   *prometheus.CounterVec
	WebhookDurationSeconds *prometheus.HistogramVec
	WebhookDedupDropped    prometheus.Counter

	// Delivery metrics
	ReplySendTotal    *prometheus.CounterVec
	PushFallbackTotal prometheus.Counter

	// LLM / generation metrics
	LLMRequestsTotal   *prometheus.CounterVec
	LLMDurationSeconds *prometheus.HistogramVec
	ImageGenTotal      *prometheus.CounterVec

	// Quota metrics
	QuotaDenialsTotal *prometheus.CounterVec

	// Mode metrics
	ModeSwitchesTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	return &Metrics{
		WebhookRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "miu_webhook_requests_total",
				Help: "Total number of webhook events by event type and status",
			},
			[]string{"event_type", "status"}, // status: success, error, ignored
		),

		WebhookDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "miu_webhook_duration_seconds",
				Help:    "Webhook event processing duration in seconds by event type",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 15, 30, 60},
			},
			[]string{"event_type"}, // event_type: text, image, audio, postback, follow
		),

		WebhookDedupDropped: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "miu_webhook_dedup_dropped_total",
				Help: "Total number of duplicate webhook events silently dropped",
			},
		),

		ReplySendTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "miu_reply_send_total",
				Help: "Total number of reply sends by outcome",
			},
			[]string{"outcome"}, // outcome: reply, push_fallback, error
		),

		PushFallbackTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "miu_push_fallback_total",
				Help: "Total number of sends retried via push after reply token expiry",
			},
		),

		LLMRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "miu_llm_requests_total",
				Help: "Total number of LLM calls by provider, kind and status",
			},
			[]string{"provider", "kind", "status"}, // kind: chat, vision, transcribe
		),

		LLMDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "miu_llm_duration_seconds",
				Help:    "LLM call duration in seconds by provider and kind",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 45},
			},
			[]string{"provider", "kind"},
		),

		ImageGenTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "miu_image_generations_total",
				Help: "Total number of image generations by style and status",
			},
			[]string{"style", "status"},
		),

		QuotaDenialsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "miu_quota_denials_total",
				Help: "Total number of requests denied by the daily quota by plan",
			},
			[]string{"plan"},
		),

		ModeSwitchesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "miu_mode_switches_total",
				Help: "Total number of mode switches by target mode",
			},
			[]string{"mode"},
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "miu_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: user, global
		),

		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "miu_http_errors_total",
				Help: "Total HTTP errors by type",
			},
			[]string{"error_type"}, // error_type: invalid_signature, malformed_body
		),
	}
}
