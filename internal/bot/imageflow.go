package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/miulabs/miu-linebot-go/internal/genai"
	"github.com/miulabs/miu-linebot-go/internal/lineutil"
	"github.com/miulabs/miu-linebot-go/internal/quota"
	"github.com/miulabs/miu-linebot-go/internal/storage"
)

// HandleImage is the image-message pipeline. In image mode the photo walks
// the style/size selection machine; in every other mode it goes through the
// vision path of the active mode.
func (p *Processor) HandleImage(ctx context.Context, userID, replyToken, messageID string) error {
	if p.limit != nil && !p.limit.Allow(userID) {
		p.metrics.RateLimiterDropped.WithLabelValues("user").Inc()
		return nil
	}

	u, err := p.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	p.syncRichMenu(ctx, u)

	if !u.JapaneseLevel.IsSet() {
		return p.send(ctx, userID, replyToken, BuildLevelPrompt())
	}

	if u.Mode == storage.ModeImageAnime {
		return p.handleAnimeImage(ctx, u, replyToken, messageID)
	}
	return p.handleVisionImage(ctx, u, replyToken, messageID)
}

// bufferImage downloads the photo and stores it as the user's pending image,
// replacing any previous buffer.
func (p *Processor) bufferImage(ctx context.Context, u *storage.User, messageID string) error {
	data, err := p.msg.Content(ctx, messageID)
	if err != nil {
		return fmt.Errorf("download image: %w", err)
	}

	oldID := u.PendingImageID
	id, err := p.images.Save(data)
	if err != nil {
		return fmt.Errorf("buffer image: %w", err)
	}
	now := time.Now()
	if err := p.db.SetPendingImage(ctx, u.ID, id, now); err != nil {
		_ = p.images.Delete(id)
		return fmt.Errorf("record pending image: %w", err)
	}
	if oldID != "" {
		_ = p.images.Delete(oldID)
	}
	u.PendingImageID = id
	u.PendingImageAt = now
	return nil
}

// consumePendingImage loads and clears the buffered photo.
func (p *Processor) consumePendingImage(ctx context.Context, u *storage.User) ([]byte, error) {
	data, err := p.images.Load(u.PendingImageID)
	if err != nil {
		return nil, err
	}
	if err := p.db.ClearPendingImage(ctx, u.ID); err != nil {
		return nil, err
	}
	_ = p.images.Delete(u.PendingImageID)
	u.PendingImageID = ""
	u.PendingImageAt = time.Time{}
	return data, nil
}

// handleAnimeImage advances the style-transfer machine on a new photo.
//
// No style yet: buffer the photo and ask for a touch. Style but no size:
// buffer and ask for an aspect. Both chosen: generate immediately.
// Selection replies are free; only generation consumes quota.
func (p *Processor) handleAnimeImage(ctx context.Context, u *storage.User, replyToken, messageID string) error {
	if u.AnimeStyle == "" {
		if err := p.db.ClearImageSize(ctx, u.ID); err != nil {
			return fmt.Errorf("clear image size: %w", err)
		}
		u.ImageSize = ""
		if err := p.bufferImage(ctx, u, messageID); err != nil {
			p.log.ErrorContext(ctx, "image buffering failed", "error", err)
			return p.send(ctx, u.ID, replyToken, lineutil.NewTextMessage(ImageGenerationErrorText))
		}
		return p.send(ctx, u.ID, replyToken, BuildAnimeStyleSelection())
	}

	if !u.ImageSize.IsSet() {
		if err := p.bufferImage(ctx, u, messageID); err != nil {
			p.log.ErrorContext(ctx, "image buffering failed", "error", err)
			return p.send(ctx, u.ID, replyToken, lineutil.NewTextMessage(ImageGenerationErrorText))
		}
		return p.send(ctx, u.ID, replyToken, BuildImageSizeSelection(u.AnimeStyle))
	}

	if ok, err := p.quotaGate(ctx, u, replyToken, quota.KindText, quota.KindVision); !ok {
		return err
	}

	data, err := p.msg.Content(ctx, messageID)
	if err != nil {
		p.log.ErrorContext(ctx, "image download failed", "error", err)
		return p.send(ctx, u.ID, replyToken, lineutil.NewTextMessage(ImageGenerationErrorText))
	}

	return p.generateFromPhoto(ctx, u, replyToken, data)
}

// handleImageSizeCommand stores the aspect and, when a fresh photo is
// buffered, starts generation right away. With no buffered photo the user
// gets the text-to-image instructions instead.
func (p *Processor) handleImageSizeCommand(ctx context.Context, u *storage.User, replyToken, arg string) error {
	size, ok := ResolveImageSize(arg)
	if !ok {
		return p.send(ctx, u.ID, replyToken, lineutil.NewTextMessage(ImageSizeHelpText))
	}

	if err := p.db.SetImageSize(ctx, u.ID, size); err != nil {
		return fmt.Errorf("set image size: %w", err)
	}
	u.ImageSize = size

	if u.HasPendingImage(pendingImageMaxAge) {
		if ok, err := p.quotaGate(ctx, u, replyToken, quota.KindText, quota.KindVision); !ok {
			return err
		}
		data, err := p.consumePendingImage(ctx, u)
		if err != nil {
			p.log.ErrorContext(ctx, "pending image load failed", "error", err)
			return p.send(ctx, u.ID, replyToken, lineutil.NewTextMessage(ImageGenerationErrorText))
		}
		return p.generateFromPhoto(ctx, u, replyToken, data)
	}

	return p.send(ctx, u.ID, replyToken, TextToImageReadyMessage(u.AnimeStyle, size))
}

// generateFromPhoto runs the two-stage pipeline: vision description of the
// photo, then styled generation at the selected aspect.
func (p *Processor) generateFromPhoto(ctx context.Context, u *storage.User, replyToken string, photo []byte) error {
	if ok, err := p.llmGate(ctx, u, replyToken); !ok {
		return err
	}
	if err := p.msg.ShowLoading(ctx, u.ID, loadingSeconds); err != nil {
		p.log.DebugContext(ctx, "loading animation failed", "error", err)
	}

	// A photo generation spends both budgets: vision for the describe stage
	// and the shared daily count for the paid render.
	if err := p.db.IncrementVisionCount(ctx, u.ID); err != nil {
		return fmt.Errorf("increment vision count: %w", err)
	}
	u.VisionCount++
	if err := p.db.IncrementTodayCount(ctx, u.ID); err != nil {
		return fmt.Errorf("increment today count: %w", err)
	}
	u.TodayCount++

	start := time.Now()
	description, err := p.vision.DescribeImage(ctx, photo, "image/jpeg", visionDescribePrompt)
	p.observeLLM(genai.ProviderOpenAI, "vision", start, err)
	if err != nil {
		p.log.ErrorContext(ctx, "vision description failed", "error", err)
		p.metrics.ImageGenTotal.WithLabelValues(p.styleLabel(u), "error").Inc()
		return p.send(ctx, u.ID, replyToken, lineutil.NewTextMessage(ImageGenerationErrorText))
	}

	return p.generateAndDeliver(ctx, u, replyToken, description)
}

// handleTextToImage turns a typed scene description into a generated image,
// skipping the vision stage. The Japanese description is first rewritten
// into an English prompt.
func (p *Processor) handleTextToImage(ctx context.Context, u *storage.User, replyToken, text string) error {
	if ok, err := p.quotaGate(ctx, u, replyToken, quota.KindText); !ok {
		return err
	}
	if ok, err := p.llmGate(ctx, u, replyToken); !ok {
		return err
	}
	if err := p.msg.ShowLoading(ctx, u.ID, loadingSeconds); err != nil {
		p.log.DebugContext(ctx, "loading animation failed", "error", err)
	}
	if err := p.db.IncrementTodayCount(ctx, u.ID); err != nil {
		return fmt.Errorf("increment today count: %w", err)
	}
	u.TodayCount++

	start := time.Now()
	result, err := p.chat.Chat(ctx, genai.ChatRequest{
		System:   promptTranslateSystem,
		UserText: text,
	})
	if err != nil {
		p.observeLLM("", "chat", start, err)
		p.log.ErrorContext(ctx, "prompt translation failed", "error", err)
		return p.send(ctx, u.ID, replyToken, lineutil.NewTextMessage(ImageGenerationErrorText))
	}
	p.observeLLM(result.Provider, "chat", start, nil)

	return p.generateAndDeliver(ctx, u, replyToken, result.Text)
}

// generateAndDeliver renders the final image and sends caption plus image,
// re-hosting the short-lived provider URL when a rehoster is configured.
func (p *Processor) generateAndDeliver(ctx context.Context, u *storage.User, replyToken, subject string) error {
	styleKey := u.AnimeStyle
	if styleKey == "" {
		styleKey = DefaultAnimeStyle
	}
	size := u.ImageSize
	if !size.IsSet() {
		size = storage.SizeSquare
	}

	prompt := ComposeImagePrompt(styleKey, subject)

	start := time.Now()
	result, err := p.painter.GenerateImage(ctx, prompt, ImageSizes[size].Dims)
	p.observeLLM(genai.ProviderOpenAI, "image", start, err)
	if err != nil {
		p.metrics.ImageGenTotal.WithLabelValues(styleKey, "error").Inc()
		p.log.ErrorContext(ctx, "image generation failed",
			"style", styleKey, "error", err)
		return p.send(ctx, u.ID, replyToken, lineutil.NewTextMessage(ImageGenerationErrorText))
	}
	p.metrics.ImageGenTotal.WithLabelValues(styleKey, "success").Inc()

	imageURL := result.URL
	if p.rehost != nil {
		if hosted, err := p.rehost.RehostImage(ctx, result.URL); err == nil {
			imageURL = hosted
		} else {
			// Provider URLs stay valid long enough for immediate viewing.
			p.log.WarnContext(ctx, "image re-hosting failed, sending provider url",
				"error", err)
		}
	}

	return p.send(ctx, u.ID, replyToken,
		lineutil.NewTextMessage(GenerationSuccessCaption(styleKey, size)),
		lineutil.NewImageMessage(imageURL, imageURL),
	)
}

// handleVisionImage processes a photo in the text-based modes: the image
// rides along with the mode's system prompt, and the bytes are buffered for
// the follow-up trigger.
func (p *Processor) handleVisionImage(ctx context.Context, u *storage.User, replyToken, messageID string) error {
	if ok, err := p.quotaGate(ctx, u, replyToken, quota.KindText, quota.KindVision); !ok {
		return err
	}

	data, err := p.msg.Content(ctx, messageID)
	if err != nil {
		p.log.ErrorContext(ctx, "image download failed", "error", err)
		return p.send(ctx, u.ID, replyToken, lineutil.NewTextMessage(ProcessingErrorText))
	}

	// Keep the photo around for "ask Miu for more detail".
	if id, err := p.images.Save(data); err == nil {
		now := time.Now()
		if err := p.db.SetPendingImage(ctx, u.ID, id, now); err == nil {
			if u.PendingImageID != "" {
				_ = p.images.Delete(u.PendingImageID)
			}
			u.PendingImageID = id
			u.PendingImageAt = now
		} else {
			_ = p.images.Delete(id)
		}
	}

	return p.chatAndReply(ctx, u, replyToken, chatTurn{
		Prompt:    visionModePrompt,
		RecordAs:  visionModePrompt,
		ImageData: data,
	})
}

func (p *Processor) styleLabel(u *storage.User) string {
	if u.AnimeStyle != "" {
		return u.AnimeStyle
	}
	return DefaultAnimeStyle
}
