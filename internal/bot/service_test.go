package bot

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miulabs/miu-linebot-go/internal/genai"
	"github.com/miulabs/miu-linebot-go/internal/logger"
	"github.com/miulabs/miu-linebot-go/internal/metrics"
	"github.com/miulabs/miu-linebot-go/internal/quota"
	"github.com/miulabs/miu-linebot-go/internal/ratelimit"
	"github.com/miulabs/miu-linebot-go/internal/storage"
)

// fakeMessenger records outbound traffic.
type fakeMessenger struct {
	mu          sync.Mutex
	replies     [][]messaging_api.MessageInterface
	pushes      [][]messaging_api.MessageInterface
	replyErr    error
	content     []byte
	contentErr  error
	displayName string
	linkedMenus []string
}

func (f *fakeMessenger) Reply(_ context.Context, _ string, msgs []messaging_api.MessageInterface) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replyErr != nil {
		return f.replyErr
	}
	f.replies = append(f.replies, msgs)
	return nil
}

func (f *fakeMessenger) Push(_ context.Context, _ string, msgs []messaging_api.MessageInterface) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, msgs)
	return nil
}

func (f *fakeMessenger) ShowLoading(context.Context, string, int) error { return nil }

func (f *fakeMessenger) Profile(context.Context, string) (string, error) {
	return f.displayName, nil
}

func (f *fakeMessenger) Content(context.Context, string) ([]byte, error) {
	if f.contentErr != nil {
		return nil, f.contentErr
	}
	return f.content, nil
}

func (f *fakeMessenger) LinkRichMenu(_ context.Context, _ string, menuID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkedMenus = append(f.linkedMenus, menuID)
	return nil
}

func (f *fakeMessenger) lastReply(t *testing.T) []messaging_api.MessageInterface {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.replies, "expected at least one reply")
	return f.replies[len(f.replies)-1]
}

func (f *fakeMessenger) lastReplyText(t *testing.T) string {
	t.Helper()
	msgs := f.lastReply(t)
	text, ok := msgs[0].(*messaging_api.TextMessage)
	require.True(t, ok, "expected a text message, got %T", msgs[0])
	return text.Text
}

// chatStub returns canned chat responses.
type chatStub struct {
	text string
	err  error
}

func (s *chatStub) Chat(context.Context, genai.ChatRequest) (*genai.ChatResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &genai.ChatResult{Text: s.text, Provider: genai.ProviderOpenAI}, nil
}

func (s *chatStub) Provider() genai.Provider { return genai.ProviderOpenAI }

type visionStub struct {
	description string
	err         error
}

func (s *visionStub) DescribeImage(context.Context, []byte, string, string) (string, error) {
	return s.description, s.err
}

type audioStub struct {
	transcript string
	err        error
}

func (s *audioStub) Transcribe(context.Context, []byte, string) (string, error) {
	return s.transcript, s.err
}

type painterStub struct {
	url   string
	err   error
	calls int
}

func (s *painterStub) GenerateImage(context.Context, string, genai.ImageDimensions) (*genai.ImageResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &genai.ImageResult{URL: s.url}, nil
}

type fixture struct {
	proc    *Processor
	db      *storage.DB
	msg     *fakeMessenger
	chat    *chatStub
	audio   *audioStub
	painter *painterStub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := storage.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	images, err := storage.NewPendingImageStore(t.TempDir())
	require.NoError(t, err)

	log := logger.NewWithWriter("error", io.Discard)
	chatProvider := &chatStub{text: `{"ja": "答えです", "vi": "Đây là câu trả lời"}`}
	chatSvc, err := genai.NewChatService(genai.RetryConfig{MaxAttempts: 1}, log, chatProvider)
	require.NoError(t, err)

	msg := &fakeMessenger{content: []byte("photo-bytes")}
	audio := &audioStub{transcript: "これを翻訳して"}
	painter := &painterStub{url: "https://example.com/generated.png"}

	proc, err := New(Config{
		DB:      db,
		Images:  images,
		Chat:    chatSvc,
		Vision:  &visionStub{description: "a smiling person in a park"},
		Audio:   audio,
		Painter: painter,
		Quota:   quota.New(10),
		Msg:     msg,
		Metrics: metrics.New(prometheus.NewRegistry()),
		Log:     log,
	})
	require.NoError(t, err)

	return &fixture{proc: proc, db: db, msg: msg, chat: chatProvider, audio: audio, painter: painter}
}

// onboard completes level selection so later messages pass the gate.
func (fx *fixture) onboard(t *testing.T, userID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, fx.proc.HandleText(ctx, userID, "rt", "/set_level_middle"))
	fx.msg.mu.Lock()
	fx.msg.replies = nil
	fx.msg.mu.Unlock()
}

func TestHandleTextPromptsOnboardingFirst(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "こんにちは"))

	got := fx.msg.lastReplyText(t)
	assert.Contains(t, got, "日本語レベルをおしえてね")

	// No usage consumed by the onboarding prompt.
	u, err := fx.db.GetUser(ctx, "U1")
	require.NoError(t, err)
	assert.Zero(t, u.TodayCount)
}

func TestHandleTextSetLevel(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "/set_level_advanced"))
	assert.Contains(t, fx.msg.lastReplyText(t), "ふつうの日本語")

	u, err := fx.db.GetUser(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, storage.LevelAdvanced, u.JapaneseLevel)
}

func TestHandleTextChatRoundTrip(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")

	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "これはペンです"))

	msgs := fx.msg.lastReply(t)
	flex, ok := msgs[0].(*messaging_api.FlexMessage)
	require.True(t, ok)
	assert.Equal(t, "Miuの返信", flex.AltText)

	u, err := fx.db.GetUser(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.TodayCount)
	require.Len(t, u.History, 2)
	assert.Equal(t, "これはペンです", u.History[0].Content)
	assert.Contains(t, u.History[1].Content, `"ja"`)
}

func TestHandleTextPlainTextFallback(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")
	fx.chat.text = "JSONではない返事"

	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "やあ"))
	assert.Equal(t, "JSONではない返事", fx.msg.lastReplyText(t))
}

func TestHandleTextModeSwitch(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")

	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "/mode translate"))
	assert.Contains(t, fx.msg.lastReplyText(t), "翻訳モード")

	u, err := fx.db.GetUser(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, storage.ModeTranslate, u.Mode)
	assert.Zero(t, u.TodayCount, "commands must not consume quota")
}

func TestHandleTextModeUnknownShowsHelp(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")

	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "/mode dance"))
	assert.Equal(t, ModeHelpText, fx.msg.lastReplyText(t))
}

func TestHandleTextReplyModePromptsStyle(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")

	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "/mode reply"))
	msgs := fx.msg.lastReply(t)
	flex, ok := msgs[0].(*messaging_api.FlexMessage)
	require.True(t, ok)
	assert.Equal(t, "返信スタイルを選んでね", flex.AltText)

	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "/reply_style best-friend"))
	u, err := fx.db.GetUser(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, storage.StyleBestFriend, u.ReplyStyle)
}

func TestHandleTextImageModeResetsSize(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")

	require.NoError(t, fx.db.SetImageSize(ctx, "U1", storage.SizeLandscape))

	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "/mode image"))
	msgs := fx.msg.lastReply(t)
	flex, ok := msgs[0].(*messaging_api.FlexMessage)
	require.True(t, ok)
	assert.Equal(t, "アニメスタイルを選んでね", flex.AltText)

	u, err := fx.db.GetUser(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, storage.ModeImageAnime, u.Mode)
	assert.False(t, u.ImageSize.IsSet())
}

func TestHandleTextQuotaGate(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")

	for range 10 {
		require.NoError(t, fx.db.IncrementTodayCount(ctx, "U1"))
	}

	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "翻訳して"))
	msgs := fx.msg.lastReply(t)
	flex, ok := msgs[0].(*messaging_api.FlexMessage)
	require.True(t, ok)
	assert.Equal(t, "利用上限に達しました", flex.AltText)

	u, err := fx.db.GetUser(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, 10, u.TodayCount, "denied request must not increment")
}

func TestHandleTextCommandsBypassQuota(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")

	for range 10 {
		require.NoError(t, fx.db.IncrementTodayCount(ctx, "U1"))
	}

	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "/mode standard"))
	assert.Contains(t, fx.msg.lastReplyText(t), "お悩みモード")
}

func TestHandleTextChatErrorSendsApology(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")
	fx.chat.err = &genai.LLMError{Err: errors.New("boom"), StatusCode: 400, Provider: genai.ProviderOpenAI}

	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "こんにちは"))
	assert.Equal(t, ProcessingErrorText, fx.msg.lastReplyText(t))
}

func TestHandleTextTranslateModeAttachesTriggerChips(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")
	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "/mode translate"))

	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "この書類を翻訳して"))
	msgs := fx.msg.lastReply(t)
	flex, ok := msgs[0].(*messaging_api.FlexMessage)
	require.True(t, ok)
	require.NotNil(t, flex.QuickReply)

	var labels []string
	for _, item := range flex.QuickReply.Items {
		if a, ok := item.Action.(*messaging_api.MessageAction); ok {
			labels = append(labels, a.Text)
		}
	}
	assert.Contains(t, labels, "もっと詳しくMiuにきく")
	assert.Contains(t, labels, "他にも翻訳する")
}

func TestHandleTriggerMoreTranslation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")
	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "/mode standard"))

	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "他にも翻訳する"))
	assert.Contains(t, fx.msg.lastReplyText(t), "つぎに翻訳したいもの")

	u, err := fx.db.GetUser(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, storage.ModeTranslate, u.Mode)
	assert.Zero(t, u.TodayCount)
}

func TestHandleTriggerAskDetailWithoutHistory(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")

	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "もっと詳しくMiuにきく"))
	assert.Equal(t, NoRecentTranslationText, fx.msg.lastReplyText(t))
}

func TestHandleTriggerAskDetailUsesLastTurn(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")

	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "この飲み物は何?"))
	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "もっと詳しくMiuにきく"))

	msgs := fx.msg.lastReply(t)
	_, ok := msgs[0].(*messaging_api.FlexMessage)
	assert.True(t, ok)

	u, err := fx.db.GetUser(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, 2, u.TodayCount)
	require.Len(t, u.History, 4)
	assert.Equal(t, "もっと詳しくMiuにきく", u.History[2].Content)
}

func TestHandleAudioTranscribesThenChats(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")

	require.NoError(t, fx.proc.HandleAudio(ctx, "U1", "rt", "msg-1"))

	msgs := fx.msg.lastReply(t)
	_, ok := msgs[0].(*messaging_api.FlexMessage)
	assert.True(t, ok)

	u, err := fx.db.GetUser(ctx, "U1")
	require.NoError(t, err)
	require.Len(t, u.History, 2)
	assert.Equal(t, "これを翻訳して", u.History[0].Content)
	assert.Equal(t, 1, u.TodayCount, "one voice turn costs one use")
}

func TestHandleAudioFailedTranscriptionStillCharges(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")
	fx.audio.err = errors.New("whisper unavailable")

	require.NoError(t, fx.proc.HandleAudio(ctx, "U1", "rt", "msg-1"))
	assert.Equal(t, AudioErrorText, fx.msg.lastReplyText(t))

	u, err := fx.db.GetUser(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.TodayCount, "transcription is charged before it runs")
	assert.Empty(t, u.History)
}

func TestHandleAudioQuotaGate(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")

	for range 10 {
		require.NoError(t, fx.db.IncrementTodayCount(ctx, "U1"))
	}

	require.NoError(t, fx.proc.HandleAudio(ctx, "U1", "rt", "msg-1"))
	msgs := fx.msg.lastReply(t)
	flex, ok := msgs[0].(*messaging_api.FlexMessage)
	require.True(t, ok)
	assert.Equal(t, "利用上限に達しました", flex.AltText)

	u, err := fx.db.GetUser(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, 10, u.TodayCount, "denied audio must not increment")
}

func TestGlobalBudgetSendsBusyReply(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")
	fx.proc.llmLimit = ratelimit.New(1, 0)

	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "こんにちは"))
	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "もう一回"))
	assert.Equal(t, BusyText, fx.msg.lastReplyText(t))

	u, err := fx.db.GetUser(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.TodayCount, "throttled turn must not consume quota")
}

func TestHistoryStoredCapApplies(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")
	fx.proc.histMax = 2

	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "ひとつめ"))
	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "ふたつめ"))

	u, err := fx.db.GetUser(ctx, "U1")
	require.NoError(t, err)
	require.Len(t, u.History, 2, "stored history stays within the configured cap")
	assert.Equal(t, "ふたつめ", u.History[0].Content)
}

func TestHandleFollowSendsOnboarding(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.proc.HandleFollow(ctx, "U9", "rt"))
	assert.Contains(t, fx.msg.lastReplyText(t), "はじめまして!Miuだよ")
}

func TestHandlePostbackSharesCommandGrammar(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")

	require.NoError(t, fx.proc.HandlePostback(ctx, "U1", "rt", "/mode homework"))
	assert.Contains(t, fx.msg.lastReplyText(t), "宿題モード")
}

func TestSendFallsBackToPush(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")

	fx.msg.replyErr = errors.New("400: Invalid reply token")
	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "/mode standard"))

	fx.msg.mu.Lock()
	defer fx.msg.mu.Unlock()
	assert.NotEmpty(t, fx.msg.pushes)
}

func TestFullWidthCommandIsParsed(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.onboard(t, "U1")

	// Full-width input from a Japanese IME keyboard.
	require.NoError(t, fx.proc.HandleText(ctx, "U1", "rt", "／ｍｏｄｅ translate"))

	u, err := fx.db.GetUser(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, storage.ModeTranslate, u.Mode)
}
