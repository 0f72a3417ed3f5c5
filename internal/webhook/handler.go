// Package webhook receives LINE webhook callbacks, verifies their signature
// and fans the events out to the bot processor.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/miulabs/miu-linebot-go/internal/ctxutil"
	"github.com/miulabs/miu-linebot-go/internal/dedup"
	"github.com/miulabs/miu-linebot-go/internal/logger"
	"github.com/miulabs/miu-linebot-go/internal/metrics"
)

// defaultMaxBatchSize caps a single webhook batch when no cap is configured.
// LINE sends far fewer in practice; the cap bounds the work one request can
// enqueue.
const defaultMaxBatchSize = 100

// defaultEventTimeout bounds the processing of one event.
const defaultEventTimeout = 55 * time.Second

// Processor is the subset of the bot the webhook layer dispatches into.
type Processor interface {
	HandleText(ctx context.Context, userID, replyToken, text string) error
	HandleImage(ctx context.Context, userID, replyToken, messageID string) error
	HandleAudio(ctx context.Context, userID, replyToken, messageID string) error
	HandlePostback(ctx context.Context, userID, replyToken, data string) error
	HandleFollow(ctx context.Context, userID, replyToken string) error
}

// Handler parses webhook requests and processes events asynchronously.
type Handler struct {
	channelSecret string
	processor     Processor
	dedup         dedup.Store
	dedupTTL      time.Duration
	maxBatchSize  int
	eventTimeout  time.Duration
	metrics       *metrics.Metrics
	logger        *logger.Logger
	wg            sync.WaitGroup
}

// HandlerConfig holds configuration for creating a new Handler.
type HandlerConfig struct {
	ChannelSecret string
	Processor     Processor
	Dedup         dedup.Store
	Metrics       *metrics.Metrics
	Logger        *logger.Logger

	// Optional; zero selects the defaults.
	DedupTTL     time.Duration
	MaxBatchSize int
	EventTimeout time.Duration
}

// NewHandler creates a new webhook handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.ChannelSecret == "" {
		return nil, errors.New("channel secret is required")
	}
	if cfg.Processor == nil {
		return nil, errors.New("processor is required")
	}

	ttl := cfg.DedupTTL
	if ttl <= 0 {
		ttl = dedup.DefaultTTL
	}
	batch := cfg.MaxBatchSize
	if batch <= 0 {
		batch = defaultMaxBatchSize
	}
	timeout := cfg.EventTimeout
	if timeout <= 0 {
		timeout = defaultEventTimeout
	}

	return &Handler{
		channelSecret: cfg.ChannelSecret,
		processor:     cfg.Processor,
		dedup:         cfg.Dedup,
		dedupTTL:      ttl,
		maxBatchSize:  batch,
		eventTimeout:  timeout,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger.WithModule("webhook"),
	}, nil
}

// Handle is the Gin handler for the webhook endpoint.
func (h *Handler) Handle(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warn("Invalid webhook signature")
			c.Status(http.StatusBadRequest)
		} else {
			h.logger.WithError(err).Error("Failed to parse webhook request")
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	// LINE expects a fast 200; processing continues after the response.
	c.Status(http.StatusOK)

	if len(cb.Events) > h.maxBatchSize {
		h.logger.WithField("event_count", len(cb.Events)).
			WithField("limit", h.maxBatchSize).
			Warn("Too many events in webhook batch; truncating")
		cb.Events = cb.Events[:h.maxBatchSize]
	}

	// Copy events so processing does not race the request lifecycle.
	events := make([]webhook.EventInterface, len(cb.Events))
	copy(events, cb.Events)

	h.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.WithField("panic", r).Error("Panic in async event processing")
			}
		}()

		for _, event := range events {
			h.processEvent(context.Background(), event)
		}
	})
}

// processEvent handles a single webhook event.
func (h *Handler) processEvent(ctx context.Context, event webhook.EventInterface) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, h.eventTimeout)
	defer cancel()

	meta := extractEventMeta(event)
	if meta.eventID != "" {
		ctx = ctxutil.WithRequestID(ctx, meta.eventID)
	}

	log := h.logger
	if meta.eventID != "" {
		log = log.WithRequestID(meta.eventID)
	}
	if meta.isRedelivery {
		log = log.WithField("is_redelivery", true)
	}

	if h.isDuplicate(ctx, log, meta.eventID) {
		return
	}

	eventType, err := h.dispatch(ctx, event)
	if eventType == "" {
		log.WithField("event_type", fmt.Sprintf("%T", event)).Debug("Unsupported event type")
		return
	}

	status := "success"
	if err != nil {
		status = "error"
		log.WithError(err).WithField("event_type", eventType).Error("Failed to handle event")
	}
	h.metrics.WebhookRequestsTotal.WithLabelValues(eventType, status).Inc()
	h.metrics.WebhookDurationSeconds.WithLabelValues(eventType).Observe(time.Since(start).Seconds())

	log.WithField("event_type", eventType).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Event processed")
}

// isDuplicate checks and marks the event id in the dedup store. The store
// fails open: a dedup error never blocks event processing.
func (h *Handler) isDuplicate(ctx context.Context, log *logger.Logger, eventID string) bool {
	if h.dedup == nil || eventID == "" {
		return false
	}

	seen, err := h.dedup.Seen(ctx, eventID)
	if err != nil {
		log.WithError(err).Warn("Dedup lookup failed; processing anyway")
		return false
	}
	if seen {
		h.metrics.WebhookDedupDropped.Inc()
		log.Debug("Duplicate webhook event dropped")
		return true
	}
	if err := h.dedup.MarkSeen(ctx, eventID, h.dedupTTL); err != nil {
		log.WithError(err).Warn("Dedup mark failed")
	}
	return false
}

// dispatch routes the event to the processor. It returns the event type
// label, or "" when the event carries nothing the bot responds to.
func (h *Handler) dispatch(ctx context.Context, event webhook.EventInterface) (string, error) {
	switch e := event.(type) {
	case webhook.MessageEvent:
		userID := sourceUserID(e.Source)
		if userID == "" {
			// Group and room chats are out of scope for a personal assistant.
			return "", nil
		}
		ctx = ctxutil.WithUserID(ctx, userID)
		switch m := e.Message.(type) {
		case webhook.TextMessageContent:
			return "text", h.processor.HandleText(ctx, userID, e.ReplyToken, m.Text)
		case webhook.ImageMessageContent:
			return "image", h.processor.HandleImage(ctx, userID, e.ReplyToken, m.Id)
		case webhook.AudioMessageContent:
			return "audio", h.processor.HandleAudio(ctx, userID, e.ReplyToken, m.Id)
		default:
			return "", nil
		}
	case webhook.PostbackEvent:
		userID := sourceUserID(e.Source)
		if userID == "" {
			return "", nil
		}
		ctx = ctxutil.WithUserID(ctx, userID)
		return "postback", h.processor.HandlePostback(ctx, userID, e.ReplyToken, e.Postback.Data)
	case webhook.FollowEvent:
		userID := sourceUserID(e.Source)
		if userID == "" {
			return "", nil
		}
		ctx = ctxutil.WithUserID(ctx, userID)
		return "follow", h.processor.HandleFollow(ctx, userID, e.ReplyToken)
	default:
		return "", nil
	}
}

type eventMeta struct {
	eventID      string
	isRedelivery bool
}

func extractEventMeta(event webhook.EventInterface) eventMeta {
	switch e := event.(type) {
	case webhook.MessageEvent:
		return eventMeta{e.WebhookEventId, redelivered(e.DeliveryContext)}
	case webhook.PostbackEvent:
		return eventMeta{e.WebhookEventId, redelivered(e.DeliveryContext)}
	case webhook.FollowEvent:
		return eventMeta{e.WebhookEventId, redelivered(e.DeliveryContext)}
	default:
		return eventMeta{}
	}
}

func redelivered(dc *webhook.DeliveryContext) bool {
	return dc != nil && dc.IsRedelivery
}

// sourceUserID extracts the user id from a one-on-one chat source.
func sourceUserID(source webhook.SourceInterface) string {
	if s, ok := source.(webhook.UserSource); ok {
		return s.UserId
	}
	return ""
}

// Shutdown waits for all async event processing to complete.
// It returns an error if the context is canceled before completion.
func (h *Handler) Shutdown(ctx context.Context) error {
	c := make(chan struct{})
	go func() {
		defer close(c)
		h.wg.Wait()
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
