package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/miulabs/miu-linebot-go/internal/genai"
	"github.com/miulabs/miu-linebot-go/internal/history"
	"github.com/miulabs/miu-linebot-go/internal/lineutil"
	"github.com/miulabs/miu-linebot-go/internal/logger"
	"github.com/miulabs/miu-linebot-go/internal/metrics"
	"github.com/miulabs/miu-linebot-go/internal/quota"
	"github.com/miulabs/miu-linebot-go/internal/ratelimit"
	"github.com/miulabs/miu-linebot-go/internal/storage"
	"github.com/miulabs/miu-linebot-go/internal/stringutil"
)

// Messenger is the outbound LINE surface the processor needs. Implemented by
// the messaging API client wrapper; faked in tests.
type Messenger interface {
	Reply(ctx context.Context, replyToken string, msgs []messaging_api.MessageInterface) error
	Push(ctx context.Context, to string, msgs []messaging_api.MessageInterface) error
	ShowLoading(ctx context.Context, chatID string, seconds int) error
	Profile(ctx context.Context, userID string) (displayName string, err error)
	Content(ctx context.Context, messageID string) ([]byte, error)
	LinkRichMenu(ctx context.Context, userID, richMenuID string) error
}

// Rehoster re-hosts a short-lived provider image URL on durable storage and
// returns the public URL. Nil disables re-hosting.
type Rehoster interface {
	RehostImage(ctx context.Context, srcURL string) (string, error)
}

// RichMenus holds the menu ids linked per onboarding state. Empty ids
// disable switching.
type RichMenus struct {
	Onboarding string // shown until japanese_level is set
	Main       string
}

const (
	// loadingSeconds is the LINE typing indicator duration requested before
	// paid calls.
	loadingSeconds = 30

	// pendingImageMaxAge bounds how long a buffered photo stays usable.
	pendingImageMaxAge = time.Hour

	// defaultMaxStoredHistory caps the persisted conversation turns per user
	// when no override is configured.
	defaultMaxStoredHistory = 40

	// chatTemperature matches the original tuning for all chat modes.
	chatTemperature = 0.7
)

// Config wires a Processor.
type Config struct {
	DB      *storage.DB
	Images  *storage.PendingImageStore
	Chat    *genai.ChatService
	Vision  genai.VisionDescriber
	Audio   genai.Transcriber
	Painter genai.ImageGenerator
	Quota   *quota.Manager
	Msg     Messenger
	Metrics *metrics.Metrics
	Log     *logger.Logger

	// Optional.
	Rehost    Rehoster
	UserLimit *ratelimit.PerKeyLimiter
	LLMLimit  *ratelimit.Limiter // global budget across all users
	RichMenus RichMenus

	// UpgradeURL overrides the pricing page in the usage-limit bubble.
	UpgradeURL string

	// History tuning; zero selects the package defaults.
	HistoryCharBudget int
	HistoryMaxStored  int
}

// Processor routes webhook events through the per-user mode state machine.
type Processor struct {
	db      *storage.DB
	images  *storage.PendingImageStore
	chat    *genai.ChatService
	vision  genai.VisionDescriber
	audio   genai.Transcriber
	painter genai.ImageGenerator
	quota      *quota.Manager
	msg        Messenger
	rehost     Rehoster
	limit      *ratelimit.PerKeyLimiter
	llmLimit   *ratelimit.Limiter
	menus      RichMenus
	upgradeURL string
	histBudget int
	histMax    int
	metrics    *metrics.Metrics
	log        *logger.Logger
}

// New creates a Processor. All non-optional Config fields must be set.
func New(cfg Config) (*Processor, error) {
	switch {
	case cfg.DB == nil:
		return nil, fmt.Errorf("bot: DB is required")
	case cfg.Images == nil:
		return nil, fmt.Errorf("bot: Images is required")
	case cfg.Chat == nil:
		return nil, fmt.Errorf("bot: Chat is required")
	case cfg.Vision == nil:
		return nil, fmt.Errorf("bot: Vision is required")
	case cfg.Audio == nil:
		return nil, fmt.Errorf("bot: Audio is required")
	case cfg.Painter == nil:
		return nil, fmt.Errorf("bot: Painter is required")
	case cfg.Quota == nil:
		return nil, fmt.Errorf("bot: Quota is required")
	case cfg.Msg == nil:
		return nil, fmt.Errorf("bot: Msg is required")
	case cfg.Metrics == nil:
		return nil, fmt.Errorf("bot: Metrics is required")
	case cfg.Log == nil:
		return nil, fmt.Errorf("bot: Log is required")
	}

	histBudget := cfg.HistoryCharBudget
	if histBudget <= 0 {
		histBudget = history.DefaultCharBudget
	}
	histMax := cfg.HistoryMaxStored
	if histMax <= 0 {
		histMax = defaultMaxStoredHistory
	}

	return &Processor{
		db:         cfg.DB,
		images:     cfg.Images,
		chat:       cfg.Chat,
		vision:     cfg.Vision,
		audio:      cfg.Audio,
		painter:    cfg.Painter,
		quota:      cfg.Quota,
		msg:        cfg.Msg,
		rehost:     cfg.Rehost,
		limit:      cfg.UserLimit,
		llmLimit:   cfg.LLMLimit,
		menus:      cfg.RichMenus,
		upgradeURL: cfg.UpgradeURL,
		histBudget: histBudget,
		histMax:    histMax,
		metrics:    cfg.Metrics,
		log:        cfg.Log.WithModule("bot"),
	}, nil
}

// send delivers messages via the reply token, falling back to push when the
// token has already been consumed or expired.
func (p *Processor) send(ctx context.Context, userID, replyToken string, msgs ...messaging_api.MessageInterface) error {
	if len(msgs) == 0 {
		return nil
	}

	err := p.msg.Reply(ctx, replyToken, msgs)
	if err == nil {
		p.metrics.ReplySendTotal.WithLabelValues("reply").Inc()
		return nil
	}

	low := strings.ToLower(err.Error())
	if strings.Contains(low, "invalid") || strings.Contains(low, "expired") {
		p.log.WarnContext(ctx, "reply token rejected, falling back to push",
			"error", err)
		p.metrics.PushFallbackTotal.Inc()
		if pushErr := p.msg.Push(ctx, userID, msgs); pushErr != nil {
			p.metrics.ReplySendTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("push fallback: %w", pushErr)
		}
		p.metrics.ReplySendTotal.WithLabelValues("push_fallback").Inc()
		return nil
	}

	p.metrics.ReplySendTotal.WithLabelValues("error").Inc()
	return fmt.Errorf("reply: %w", err)
}

// loadUser fetches or creates the user row, applies the JST daily reset and
// refreshes the display name best-effort.
func (p *Processor) loadUser(ctx context.Context, userID string) (*storage.User, error) {
	displayName := ""
	if name, err := p.msg.Profile(ctx, userID); err == nil {
		displayName = name
	}

	u, err := p.db.GetOrCreateUser(ctx, userID, displayName, quota.Today())
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := quota.ApplyDailyReset(ctx, p.db, u); err != nil {
		return nil, fmt.Errorf("daily reset: %w", err)
	}
	return u, nil
}

// syncRichMenu links the rich menu matching the user's onboarding state.
// Failures are logged only.
func (p *Processor) syncRichMenu(ctx context.Context, u *storage.User) {
	menuID := p.menus.Onboarding
	if u.JapaneseLevel.IsSet() {
		menuID = p.menus.Main
	}
	if menuID == "" {
		return
	}
	if err := p.msg.LinkRichMenu(ctx, u.ID, menuID); err != nil {
		p.log.WarnContext(ctx, "rich menu link failed",
			"menu_id", menuID, "error", err)
	}
}

// quotaGate checks the daily limits and replies with the upsell bubble when
// any of them is exhausted. Returns false when the request must stop.
func (p *Processor) quotaGate(ctx context.Context, u *storage.User, replyToken string, kinds ...quota.Kind) (bool, error) {
	for _, kind := range kinds {
		decision := p.quota.Check(u, kind)
		if decision.Allowed {
			continue
		}
		p.metrics.QuotaDenialsTotal.WithLabelValues(string(decision.Plan)).Inc()
		p.log.InfoContext(ctx, "quota exhausted",
			"plan", string(decision.Plan), "kind", int(kind),
			"used", decision.Used, "limit", decision.Limit)
		return false, p.send(ctx, u.ID, replyToken,
			BuildUsageLimitMessage(decision.Plan, decision.Used, decision.Limit, p.upgradeURL))
	}
	return true, nil
}

// llmGate applies the process-wide LLM call budget. Returns false when the
// call must be dropped.
func (p *Processor) llmGate(ctx context.Context, u *storage.User, replyToken string) (bool, error) {
	if p.llmLimit == nil || p.llmLimit.Allow() {
		return true, nil
	}
	p.metrics.RateLimiterDropped.WithLabelValues("global").Inc()
	p.log.WarnContext(ctx, "global llm budget exhausted, dropping call")
	return false, p.send(ctx, u.ID, replyToken, lineutil.NewTextMessage(BusyText))
}

// HandleFollow greets a new friend and starts onboarding.
func (p *Processor) HandleFollow(ctx context.Context, userID, replyToken string) error {
	u, err := p.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	p.syncRichMenu(ctx, u)
	return p.send(ctx, userID, replyToken, BuildLevelPrompt())
}

// HandlePostback routes postback data through the same grammar as text
// commands.
func (p *Processor) HandlePostback(ctx context.Context, userID, replyToken, data string) error {
	return p.HandleText(ctx, userID, replyToken, data)
}

// HandleText is the main text-message pipeline.
func (p *Processor) HandleText(ctx context.Context, userID, replyToken, text string) error {
	if p.limit != nil && !p.limit.Allow(userID) {
		p.metrics.RateLimiterDropped.WithLabelValues("user").Inc()
		p.log.WarnContext(ctx, "rate limited, dropping event")
		return nil
	}

	u, err := p.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	p.syncRichMenu(ctx, u)

	parsed := ParseInput(stringutil.Sanitize(text))

	// Level selection must work before onboarding completes.
	if parsed.Kind == InputCommand && parsed.Command == CmdSetLevel {
		return p.handleSetLevel(ctx, u, replyToken, parsed.Arg)
	}

	if !u.JapaneseLevel.IsSet() {
		return p.send(ctx, userID, replyToken, BuildLevelPrompt())
	}

	switch parsed.Kind {
	case InputTrigger:
		return p.handleTrigger(ctx, u, replyToken, parsed.Trigger)
	case InputCommand:
		return p.handleCommand(ctx, u, replyToken, parsed)
	}

	return p.dispatchFreeText(ctx, u, replyToken, parsed.Text)
}

// HandleAudio transcribes a voice message and re-enters the free-text path
// with the transcript.
func (p *Processor) HandleAudio(ctx context.Context, userID, replyToken, messageID string) error {
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
	if ok, err := p.quotaGate(ctx, u, replyToken, quota.KindText); !ok {
		return err
	}
	if ok, err := p.llmGate(ctx, u, replyToken); !ok {
		return err
	}

	if err := p.msg.ShowLoading(ctx, userID, loadingSeconds); err != nil {
		p.log.DebugContext(ctx, "loading animation failed", "error", err)
	}

	audio, err := p.msg.Content(ctx, messageID)
	if err != nil {
		p.log.ErrorContext(ctx, "audio download failed", "error", err)
		return p.send(ctx, userID, replyToken, lineutil.NewTextMessage(AudioErrorText))
	}

	// Transcription is a paid call. Increment before it so a crash cannot
	// grant free usage.
	if err := p.db.IncrementTodayCount(ctx, u.ID); err != nil {
		return fmt.Errorf("increment today count: %w", err)
	}
	u.TodayCount++

	start := time.Now()
	transcript, err := p.audio.Transcribe(ctx, audio, "audio.m4a")
	p.observeLLM(genai.ProviderOpenAI, "transcribe", start, err)
	if err != nil {
		p.log.ErrorContext(ctx, "transcription failed", "error", err)
		return p.send(ctx, userID, replyToken, lineutil.NewTextMessage(AudioErrorText))
	}

	return p.routeTranscript(ctx, u, replyToken, stringutil.Sanitize(transcript))
}

// routeTranscript forwards a transcript through the free-text paths. The
// voice turn was already charged, so the chat leg runs prepaid; image
// generation meters itself.
func (p *Processor) routeTranscript(ctx context.Context, u *storage.User, replyToken, text string) error {
	if text == "" {
		return nil
	}
	if u.Mode == storage.ModeImageAnime {
		return p.handleTextToImage(ctx, u, replyToken, text)
	}
	return p.chatAndReply(ctx, u, replyToken, chatTurn{Prompt: text, RecordAs: text, Prepaid: true})
}

// handleSetLevel completes (or re-runs) onboarding.
func (p *Processor) handleSetLevel(ctx context.Context, u *storage.User, replyToken, arg string) error {
	level, ok := ResolveLevel(arg)
	if !ok {
		level = storage.LevelBeginner
	}
	if err := p.db.SetJapaneseLevel(ctx, u.ID, level); err != nil {
		return fmt.Errorf("set level: %w", err)
	}
	u.JapaneseLevel = level
	p.syncRichMenu(ctx, u)
	return p.send(ctx, u.ID, replyToken, lineutil.NewTextMessage(LevelSetConfirmation(level)))
}

// handleTrigger processes the structured quick-reply chips.
func (p *Processor) handleTrigger(ctx context.Context, u *storage.User, replyToken string, kind TriggerKind) error {
	switch kind {
	case TriggerMoreTranslation:
		if err := p.db.SetMode(ctx, u.ID, storage.ModeTranslate); err != nil {
			return fmt.Errorf("set mode: %w", err)
		}
		u.Mode = storage.ModeTranslate
		return p.send(ctx, u.ID, replyToken, BuildTranslateInputPrompt())
	case TriggerAskDetail:
		return p.handleAskDetail(ctx, u, replyToken)
	}
	return nil
}

// handleAskDetail digs deeper into the last assistant turn, reusing the
// buffered photo when one is still fresh.
func (p *Processor) handleAskDetail(ctx context.Context, u *storage.User, replyToken string) error {
	var last *storage.HistoryEntry
	for i := len(u.History) - 1; i >= 0; i-- {
		if u.History[i].Role == storage.RoleAssistant {
			last = &u.History[i]
			break
		}
	}
	if last == nil {
		return p.send(ctx, u.ID, replyToken, lineutil.NewTextMessage(NoRecentTranslationText))
	}

	// The assistant turn is stored as bilingual JSON when parsing succeeded.
	lastContent := last.Content
	var prev BilingualResponse
	if err := json.Unmarshal([]byte(last.Content), &prev); err == nil && prev.JA != "" {
		lastContent = prev.JA
	}

	if ok, err := p.quotaGate(ctx, u, replyToken, quota.KindText); !ok {
		return err
	}

	var image []byte
	if u.HasPendingImage(pendingImageMaxAge) {
		if data, err := p.images.Load(u.PendingImageID); err == nil {
			image = data
		}
	}

	err := p.chatAndReply(ctx, u, replyToken, chatTurn{
		Prompt:    DetailPrompt(lastContent, len(image) > 0),
		RecordAs:  triggerAskDetailText,
		ImageData: image,
	})
	if err != nil {
		return err
	}

	// The buffered photo is single-use.
	if len(image) > 0 {
		if clearErr := p.db.ClearPendingImage(ctx, u.ID); clearErr == nil {
			_ = p.images.Delete(u.PendingImageID)
			u.PendingImageID = ""
			u.PendingImageAt = time.Time{}
		}
	}
	return nil
}

// handleCommand applies a parsed slash command. Commands never consume quota.
func (p *Processor) handleCommand(ctx context.Context, u *storage.User, replyToken string, parsed ParsedInput) error {
	switch parsed.Command {
	case CmdMode:
		return p.handleModeCommand(ctx, u, replyToken, parsed.Arg)

	case CmdReplyStyle:
		style, ok := ResolveReplyStyle(parsed.Arg)
		if !ok {
			return p.send(ctx, u.ID, replyToken, lineutil.NewTextMessage(ReplyStyleHelpText))
		}
		if err := p.db.SetReplyStyle(ctx, u.ID, style); err != nil {
			return fmt.Errorf("set reply style: %w", err)
		}
		u.ReplyStyle = style
		return p.send(ctx, u.ID, replyToken, lineutil.NewTextMessage(ReplyStyleConfirmation(style)))

	case CmdAnimeStyle:
		styleKey, ok := ResolveAnimeStyle(parsed.Arg)
		if !ok {
			return p.send(ctx, u.ID, replyToken, lineutil.NewTextMessage(AnimeStyleHelpText))
		}
		// Selecting a touch always restarts size selection.
		if err := p.db.SetAnimeStyle(ctx, u.ID, styleKey); err != nil {
			return fmt.Errorf("set anime style: %w", err)
		}
		u.AnimeStyle = styleKey
		u.ImageSize = ""
		return p.send(ctx, u.ID, replyToken, AnimeStyleConfirmMessage(styleKey))

	case CmdImageSize:
		return p.handleImageSizeCommand(ctx, u, replyToken, parsed.Arg)
	}
	return nil
}

// handleModeCommand switches the conversation mode. Reply mode prompts for a
// tone, image mode resets the size and prompts for a touch.
func (p *Processor) handleModeCommand(ctx context.Context, u *storage.User, replyToken, arg string) error {
	mode, ok := ResolveMode(arg)
	if !ok {
		return p.send(ctx, u.ID, replyToken, lineutil.NewTextMessage(ModeHelpText))
	}

	if err := p.db.SetMode(ctx, u.ID, mode); err != nil {
		return fmt.Errorf("set mode: %w", err)
	}
	u.Mode = mode
	p.metrics.ModeSwitchesTotal.WithLabelValues(string(mode)).Inc()

	switch mode {
	case storage.ModeReply:
		return p.send(ctx, u.ID, replyToken, BuildReplyStyleSelection())
	case storage.ModeImageAnime:
		if err := p.db.ClearImageSize(ctx, u.ID); err != nil {
			return fmt.Errorf("clear image size: %w", err)
		}
		u.ImageSize = ""
		return p.send(ctx, u.ID, replyToken, BuildAnimeStyleSelection())
	default:
		return p.send(ctx, u.ID, replyToken, BuildModeSwitchMessage(mode))
	}
}

// dispatchFreeText routes ordinary content by the active mode.
func (p *Processor) dispatchFreeText(ctx context.Context, u *storage.User, replyToken, text string) error {
	if text == "" {
		return nil
	}

	if u.Mode == storage.ModeImageAnime {
		return p.handleTextToImage(ctx, u, replyToken, text)
	}

	if ok, err := p.quotaGate(ctx, u, replyToken, quota.KindText); !ok {
		return err
	}
	return p.chatAndReply(ctx, u, replyToken, chatTurn{Prompt: text, RecordAs: text})
}

// chatTurn is one LLM round trip on behalf of the user.
type chatTurn struct {
	// Prompt is the user content sent to the model.
	Prompt string
	// RecordAs is the user turn persisted to history (the chip text for
	// triggers, the raw message otherwise).
	RecordAs string
	// ImageData optionally attaches a photo to the request.
	ImageData []byte
	// Prepaid marks a turn whose usage was already charged upstream.
	Prepaid bool
}

// chatAndReply runs the bilingual chat round trip: loading indicator, usage
// increment, provider chain, JSON extraction, flex rendering, history append.
func (p *Processor) chatAndReply(ctx context.Context, u *storage.User, replyToken string, turn chatTurn) error {
	if !turn.Prepaid {
		if ok, err := p.llmGate(ctx, u, replyToken); !ok {
			return err
		}
	}

	if err := p.msg.ShowLoading(ctx, u.ID, loadingSeconds); err != nil {
		p.log.DebugContext(ctx, "loading animation failed", "error", err)
	}

	// Increment before the paid call so a crash cannot grant free usage.
	if !turn.Prepaid {
		if len(turn.ImageData) > 0 {
			if err := p.db.IncrementVisionCount(ctx, u.ID); err != nil {
				return fmt.Errorf("increment vision count: %w", err)
			}
			u.VisionCount++
		}
		if err := p.db.IncrementTodayCount(ctx, u.ID); err != nil {
			return fmt.Errorf("increment today count: %w", err)
		}
		u.TodayCount++
	}

	window := history.Window(u.History, p.histBudget)
	msgs := make([]genai.Message, 0, len(window))
	for _, e := range window {
		msgs = append(msgs, genai.Message{Role: genai.Role(e.Role), Content: e.Content})
	}

	req := genai.ChatRequest{
		System:      SystemPrompt(u.Mode, u.JapaneseLevel, u.ReplyStyle),
		History:     msgs,
		UserText:    turn.Prompt,
		Temperature: chatTemperature,
		ImageData:   turn.ImageData,
	}

	start := time.Now()
	result, err := p.chat.Chat(ctx, req)
	if err != nil {
		p.observeLLM("", "chat", start, err)
		p.log.ErrorContext(ctx, "chat failed", "mode", string(u.Mode), "error", err)
		return p.send(ctx, u.ID, replyToken, lineutil.NewTextMessage(ProcessingErrorText))
	}
	p.observeLLM(result.Provider, "chat", start, nil)

	var reply messaging_api.MessageInterface
	var stored string

	if parsed, ok := ParseBilingual(result.Text); ok {
		flex := BuildBilingualMessage(parsed, containsJapanese(turn.Prompt) || len(turn.ImageData) > 0)
		p.attachTriggerChips(u.Mode, flex)
		reply = flex

		if encoded, err := json.Marshal(parsed); err == nil {
			stored = string(encoded)
		} else {
			stored = result.Text
		}
	} else {
		// Never drop a successful generation over formatting.
		reply = lineutil.NewTextMessage(result.Text)
		stored = result.Text
	}

	entries := []storage.HistoryEntry{
		{Role: storage.RoleUser, Content: turn.RecordAs},
		{Role: storage.RoleAssistant, Content: stored},
	}
	if err := p.db.AppendHistory(ctx, u.ID, entries, p.histMax); err != nil {
		p.log.WarnContext(ctx, "history append failed", "error", err)
	}
	u.History = append(u.History, entries...)

	return p.send(ctx, u.ID, replyToken, reply)
}

// attachTriggerChips adds the follow-up chips for the conversational modes.
func (p *Processor) attachTriggerChips(mode storage.Mode, msg *messaging_api.FlexMessage) {
	switch mode {
	case storage.ModeTranslate:
		items := []lineutil.QuickReplyItem{
			{Action: lineutil.NewMessageAction(triggerAskDetailText, triggerAskDetailText)},
			{Action: lineutil.NewMessageAction(triggerMoreTranslationText, triggerMoreTranslationText)},
		}
		msg.QuickReply = mergeQuickReplies(msg.QuickReply, items)
	case storage.ModeMiuChat:
		items := []lineutil.QuickReplyItem{
			{Action: lineutil.NewMessageAction(triggerAskDetailText, triggerAskDetailText)},
		}
		msg.QuickReply = mergeQuickReplies(msg.QuickReply, items)
	}
}

// mergeQuickReplies appends chips after any model-suggested followups.
func mergeQuickReplies(existing *messaging_api.QuickReply, extra []lineutil.QuickReplyItem) *messaging_api.QuickReply {
	merged := lineutil.NewQuickReply(extra)
	if existing == nil {
		return merged
	}
	existing.Items = append(existing.Items, merged.Items...)
	if len(existing.Items) > lineutil.MaxQuickReplyItemCount {
		existing.Items = existing.Items[:lineutil.MaxQuickReplyItemCount]
	}
	return existing
}

// observeLLM records provider call metrics.
func (p *Processor) observeLLM(provider genai.Provider, kind string, start time.Time, err error) {
	label := string(provider)
	if label == "" {
		label = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.LLMRequestsTotal.WithLabelValues(label, kind, status).Inc()
	p.metrics.LLMDurationSeconds.WithLabelValues(label, kind).Observe(time.Since(start).Seconds())
}

// containsJapanese reports whether s contains any kana or kanji, which
// decides the leading section of the bilingual bubble.
func containsJapanese(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return true
		}
	}
	return false
}
