// Package genai provides the LLM integrations behind the bot: chat
// completion, image understanding, audio transcription and image generation.
//
// Architecture:
//   - OpenAI: primary provider for all four capabilities, via
//     github.com/openai/openai-go/v3 (works with any OpenAI-compatible
//     gateway through a custom base URL)
//   - Gemini: optional chat fallback via google.golang.org/genai
//
// Chat requests go through a provider chain: the primary provider is retried
// with exponential backoff, then the next provider is tried. Vision,
// transcription and image generation are OpenAI-only.
package genai

import (
	"context"
	"time"
)

// Provider identifies an LLM provider for logging and metrics.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a conversation history.
type Message struct {
	Role    Role
	Content string
}

// ChatRequest describes a chat completion call.
type ChatRequest struct {
	// System is the system instruction prepended to the conversation.
	System string

	// History is the prior conversation, oldest first.
	History []Message

	// UserText is the new user message.
	UserText string

	// ImageData optionally attaches an image to the user message. The bytes
	// are inlined in the request, so no public hosting is needed.
	ImageData []byte

	// ImageMIMEType is the MIME type of ImageData. Defaults to image/jpeg.
	ImageMIMEType string

	// Temperature controls sampling. Zero means the provider default.
	Temperature float64

	// MaxTokens caps the completion length. Zero means no explicit cap.
	MaxTokens int
}

// ChatResult is the outcome of a chat completion call.
type ChatResult struct {
	// Text is the assistant's reply.
	Text string

	// Provider is the provider that produced the reply.
	Provider Provider

	// PromptTokens and CompletionTokens report usage when the provider
	// returns it, zero otherwise.
	PromptTokens     int64
	CompletionTokens int64
}

// ImageDimensions is the pixel size string passed to the image model.
type ImageDimensions string

const (
	DimensionsSquare    ImageDimensions = "1024x1024"
	DimensionsLandscape ImageDimensions = "1792x1024"
	DimensionsPortrait  ImageDimensions = "1024x1792"
)

// ImageResult is the outcome of an image generation call.
type ImageResult struct {
	// URL is a short-lived download URL for the generated image.
	// The provider expires it within about an hour, so callers that need
	// a durable link must re-host the bytes.
	URL string

	// RevisedPrompt is the provider's rewritten prompt, when returned.
	RevisedPrompt string
}

// TextGenerator produces chat completions.
type TextGenerator interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResult, error)
	Provider() Provider
}

// VisionDescriber describes the content of an image.
type VisionDescriber interface {
	DescribeImage(ctx context.Context, image []byte, mimeType, prompt string) (string, error)
}

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// ImageGenerator renders an image from a text prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, dims ImageDimensions) (*ImageResult, error)
}

// RetryConfig defines retry behavior for LLM API calls.
// Uses AWS-recommended Full Jitter exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	MaxAttempts int

	// InitialDelay is the base delay before first retry.
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries.
	MaxDelay time.Duration
}

// Retry configuration defaults.
const (
	DefaultMaxRetryAttempts  = 2
	DefaultInitialRetryDelay = 500 * time.Millisecond
	DefaultMaxRetryDelay     = 3 * time.Second
)

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxRetryAttempts,
		InitialDelay: DefaultInitialRetryDelay,
		MaxDelay:     DefaultMaxRetryDelay,
	}
}

// Config holds configuration for the OpenAI client.
type Config struct {
	// APIKey is the OpenAI API key.
	APIKey string

	// BaseURL optionally points the client at an OpenAI-compatible gateway.
	BaseURL string

	// Model names per capability.
	ChatModel       string
	VisionModel     string
	TranscribeModel string
	ImageModel      string
}
