// Gemini chat fallback via google.golang.org/genai.
package genai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/miulabs/miu-linebot-go/internal/logger"
)

// GeminiChat implements TextGenerator on the Gemini API. It serves as the
// fallback chat provider when OpenAI is unavailable; vision, transcription
// and image generation stay on OpenAI.
type GeminiChat struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

// NewGeminiChat creates a Gemini chat client. Returns (nil, nil) when apiKey
// is empty, which disables the fallback.
func NewGeminiChat(ctx context.Context, apiKey, model string, log *logger.Logger) (*GeminiChat, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // fallback disabled when no API key
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiChat{
		client: client,
		model:  model,
		log:    log.WithModule("genai.gemini"),
	}, nil
}

// Provider returns ProviderGemini.
func (g *GeminiChat) Provider() Provider {
	return ProviderGemini
}

// geminiRole maps conversation roles onto Gemini's user/model pair. Anything
// that is not an assistant turn counts as user content.
func geminiRole(r Role) genai.Role {
	if r == RoleAssistant {
		return genai.RoleModel
	}
	return genai.RoleUser
}

// Chat runs a chat completion against Gemini, mapping the conversation
// history onto Gemini's user/model roles.
func (g *GeminiChat) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if g == nil || g.client == nil {
		return nil, errors.New("gemini chat is not configured")
	}

	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		contents = append(contents, genai.NewContentFromText(m.Content, geminiRole(m.Role)))
	}
	if len(req.ImageData) > 0 {
		mime := req.ImageMIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		contents = append(contents, genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(req.UserText),
			genai.NewPartFromBytes(req.ImageData, mime),
		}, genai.RoleUser))
	} else {
		contents = append(contents, genai.NewContentFromText(req.UserText, genai.RoleUser))
	}

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	start := time.Now()
	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	duration := time.Since(start)

	if err != nil {
		g.log.WarnContext(ctx, "gemini chat failed",
			"model", g.model,
			"history_len", len(req.History),
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return nil, fmt.Errorf("gemini chat: %w", err)
	}

	text := result.Text()
	if text == "" {
		return nil, errors.New("gemini chat: empty response from model")
	}

	out := &ChatResult{
		Text:     text,
		Provider: ProviderGemini,
	}
	if result.UsageMetadata != nil {
		out.PromptTokens = int64(result.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int64(result.UsageMetadata.CandidatesTokenCount)
	}

	g.log.DebugContext(ctx, "gemini chat done",
		"model", g.model,
		"input_tokens", out.PromptTokens,
		"output_tokens", out.CompletionTokens,
		"duration_ms", duration.Milliseconds())

	return out, nil
}
