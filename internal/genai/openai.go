// OpenAI client covering chat, vision, transcription and image generation.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/miulabs/miu-linebot-go/internal/logger"
)

// OpenAIClient implements TextGenerator, VisionDescriber, Transcriber and
// ImageGenerator against the OpenAI API or a compatible gateway.
type OpenAIClient struct {
	client          openai.Client
	chatModel       string
	visionModel     string
	transcribeModel string
	imageModel      string
	log             *logger.Logger
}

// NewOpenAIClient creates a client from cfg. APIKey is required.
func NewOpenAIClient(cfg Config, log *logger.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		client:          openai.NewClient(opts...),
		chatModel:       cfg.ChatModel,
		visionModel:     cfg.VisionModel,
		transcribeModel: cfg.TranscribeModel,
		imageModel:      cfg.ImageModel,
		log:             log.WithModule("genai.openai"),
	}, nil
}

// Provider returns ProviderOpenAI.
func (c *OpenAIClient) Provider() Provider {
	return ProviderOpenAI
}

// Chat runs a chat completion with the configured chat model.
func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.History {
		switch m.Role {
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	if len(req.ImageData) > 0 {
		mime := req.ImageMIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(req.ImageData)
		messages = append(messages, openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(req.UserText),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: dataURL,
			}),
		}))
	} else {
		messages = append(messages, openai.UserMessage(req.UserText))
	}

	params := openai.ChatCompletionNewParams{
		Model:    c.chatModel,
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		c.log.WarnContext(ctx, "chat completion failed",
			"model", c.chatModel,
			"history_len", len(req.History),
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion: empty response from model")
	}

	result := &ChatResult{
		Text:             resp.Choices[0].Message.Content,
		Provider:         ProviderOpenAI,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}

	c.log.DebugContext(ctx, "chat completion done",
		"model", c.chatModel,
		"input_tokens", resp.Usage.PromptTokens,
		"output_tokens", resp.Usage.CompletionTokens,
		"duration_ms", duration.Milliseconds())

	return result, nil
}

// DescribeImage asks the vision model about an image. The image bytes are
// inlined as a base64 data URL, so no public hosting is needed.
func (c *OpenAIClient) DescribeImage(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	if len(image) == 0 {
		return "", errors.New("describe image: empty image")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(prompt),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: dataURL,
		}),
	}

	params := openai.ChatCompletionNewParams{
		Model: c.visionModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(parts),
		},
		MaxTokens: openai.Int(300),
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		c.log.WarnContext(ctx, "vision request failed",
			"model", c.visionModel,
			"image_bytes", len(image),
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", fmt.Errorf("describe image: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("describe image: empty response from model")
	}

	return resp.Choices[0].Message.Content, nil
}

// Transcribe converts audio to Japanese text using the transcription model.
// filename hints the container format to the API (e.g. "audio.m4a").
func (c *OpenAIClient) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("transcribe: empty audio")
	}
	if filename == "" {
		filename = "audio.m4a"
	}

	start := time.Now()
	resp, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:     openai.File(bytes.NewReader(audio), filename, "application/octet-stream"),
		Model:    openai.AudioModel(c.transcribeModel),
		Language: openai.String("ja"),
	})
	duration := time.Since(start)

	if err != nil {
		c.log.WarnContext(ctx, "transcription failed",
			"model", c.transcribeModel,
			"audio_bytes", len(audio),
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", fmt.Errorf("transcribe: %w", err)
	}

	return resp.Text, nil
}

// GenerateImage renders an image from prompt at the requested dimensions.
// The returned URL is short-lived; callers re-host the bytes for durable links.
func (c *OpenAIClient) GenerateImage(ctx context.Context, prompt string, dims ImageDimensions) (*ImageResult, error) {
	if prompt == "" {
		return nil, errors.New("generate image: empty prompt")
	}
	if dims == "" {
		dims = DimensionsSquare
	}

	start := time.Now()
	resp, err := c.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(c.imageModel),
		Size:           openai.ImageGenerateParamsSize(dims),
		N:              openai.Int(1),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
	})
	duration := time.Since(start)

	if err != nil {
		c.log.WarnContext(ctx, "image generation failed",
			"model", c.imageModel,
			"dims", string(dims),
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return nil, fmt.Errorf("generate image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, errors.New("generate image: no image in response")
	}

	c.log.InfoContext(ctx, "image generated",
		"model", c.imageModel,
		"dims", string(dims),
		"duration_ms", duration.Milliseconds())

	return &ImageResult{
		URL:           resp.Data[0].URL,
		RevisedPrompt: resp.Data[0].RevisedPrompt,
	}, nil
}
