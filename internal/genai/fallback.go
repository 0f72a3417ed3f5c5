// Provider chain for chat: retry the primary provider, then fall through to
// the next one.
package genai

import (
	"context"
	"errors"
	"fmt"

	"github.com/miulabs/miu-linebot-go/internal/logger"
)

// ChatService runs chat requests against an ordered provider chain. Each
// provider gets the full retry budget before the chain advances; permanent
// errors and quota exhaustion skip remaining retries for that provider.
type ChatService struct {
	providers []TextGenerator
	retry     RetryConfig
	log       *logger.Logger
}

// NewChatService builds a chat service from the given providers, in fallback
// order. Nil providers are skipped so an unconfigured Gemini fallback can be
// passed directly.
func NewChatService(retry RetryConfig, log *logger.Logger, providers ...TextGenerator) (*ChatService, error) {
	chain := make([]TextGenerator, 0, len(providers))
	for _, p := range providers {
		if p == nil {
			continue
		}
		chain = append(chain, p)
	}
	if len(chain) == 0 {
		return nil, errors.New("chat service needs at least one provider")
	}

	return &ChatService{
		providers: chain,
		retry:     retry,
		log:       log.WithModule("genai.chat"),
	}, nil
}

// Providers returns the providers in the chain, for logging and health info.
func (s *ChatService) Providers() []Provider {
	out := make([]Provider, len(s.providers))
	for i, p := range s.providers {
		out[i] = p.Provider()
	}
	return out
}

// Chat runs req through the provider chain and returns the first successful
// result. The returned ChatResult names the provider that answered.
func (s *ChatService) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	var lastErr error

	for i, p := range s.providers {
		var result *ChatResult

		provider := p.Provider()
		err := WithRetry(ctx, s.retry,
			func(attempt int, err error) {
				s.log.WarnContext(ctx, "chat attempt failed, retrying",
					"provider", provider,
					"attempt", attempt,
					"error", err)
			},
			func() error {
				r, err := p.Chat(ctx, req)
				if err != nil {
					return err
				}
				result = r
				return nil
			})

		if err == nil {
			if i > 0 {
				s.log.InfoContext(ctx, "chat served by fallback provider",
					"provider", provider)
			}
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if i < len(s.providers)-1 {
			s.log.WarnContext(ctx, "chat provider exhausted, falling back",
				"provider", provider,
				"next", s.providers[i+1].Provider(),
				"error", err)
		}
	}

	return nil, fmt.Errorf("all chat providers failed: %w", lastErr)
}
