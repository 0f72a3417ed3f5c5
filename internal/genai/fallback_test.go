package genai

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miulabs/miu-linebot-go/internal/logger"
)

type stubGenerator struct {
	provider Provider
	results  []stubResult
	calls    int
}

type stubResult struct {
	text string
	err  error
}

func (s *stubGenerator) Chat(_ context.Context, _ ChatRequest) (*ChatResult, error) {
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	r := s.results[i]
	if r.err != nil {
		return nil, r.err
	}
	return &ChatResult{Text: r.text, Provider: s.provider}, nil
}

func (s *stubGenerator) Provider() Provider { return s.provider }

func testLog() *logger.Logger {
	return logger.NewWithWriter("error", io.Discard)
}

func TestNewChatServiceSkipsNilProviders(t *testing.T) {
	primary := &stubGenerator{provider: ProviderOpenAI, results: []stubResult{{text: "ok"}}}

	svc, err := NewChatService(fastRetry(1), testLog(), primary, nil)
	require.NoError(t, err)
	assert.Equal(t, []Provider{ProviderOpenAI}, svc.Providers())
}

func TestNewChatServiceNoProviders(t *testing.T) {
	_, err := NewChatService(fastRetry(1), testLog(), nil)
	require.Error(t, err)
}

func TestChatPrimarySucceeds(t *testing.T) {
	primary := &stubGenerator{provider: ProviderOpenAI, results: []stubResult{{text: "hello"}}}
	fallback := &stubGenerator{provider: ProviderGemini, results: []stubResult{{text: "unused"}}}

	svc, err := NewChatService(fastRetry(2), testLog(), primary, fallback)
	require.NoError(t, err)

	result, err := svc.Chat(context.Background(), ChatRequest{UserText: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Text)
	assert.Equal(t, ProviderOpenAI, result.Provider)
	assert.Zero(t, fallback.calls)
}

func TestChatRetriesTransientBeforeFallback(t *testing.T) {
	primary := &stubGenerator{provider: ProviderOpenAI, results: []stubResult{
		{err: errors.New("503 service unavailable")},
		{text: "recovered"},
	}}

	svc, err := NewChatService(fastRetry(2), testLog(), primary)
	require.NoError(t, err)

	result, err := svc.Chat(context.Background(), ChatRequest{UserText: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "recovered", result.Text)
	assert.Equal(t, 2, primary.calls)
}

func TestChatFallsBackOnQuota(t *testing.T) {
	primary := &stubGenerator{provider: ProviderOpenAI, results: []stubResult{
		{err: errors.New("quota exceeded")},
	}}
	fallback := &stubGenerator{provider: ProviderGemini, results: []stubResult{{text: "from gemini"}}}

	svc, err := NewChatService(fastRetry(3), testLog(), primary, fallback)
	require.NoError(t, err)

	result, err := svc.Chat(context.Background(), ChatRequest{UserText: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "from gemini", result.Text)
	assert.Equal(t, ProviderGemini, result.Provider)
	// Quota errors skip the remaining retry attempts.
	assert.Equal(t, 1, primary.calls)
}

func TestChatAllProvidersFail(t *testing.T) {
	primary := &stubGenerator{provider: ProviderOpenAI, results: []stubResult{
		{err: errors.New("401 unauthorized")},
	}}
	fallback := &stubGenerator{provider: ProviderGemini, results: []stubResult{
		{err: errors.New("400 bad request")},
	}}

	svc, err := NewChatService(fastRetry(2), testLog(), primary, fallback)
	require.NoError(t, err)

	_, err = svc.Chat(context.Background(), ChatRequest{UserText: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all chat providers failed")
}

func TestChatCancelledContext(t *testing.T) {
	primary := &stubGenerator{provider: ProviderOpenAI, results: []stubResult{
		{err: errors.New("timeout")},
	}}

	svc, err := NewChatService(RetryConfig{MaxAttempts: 5, InitialDelay: 50 * time.Millisecond, MaxDelay: time.Second}, testLog(), primary)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = svc.Chat(ctx, ChatRequest{UserText: "hi"})
	assert.ErrorIs(t, err, context.Canceled)
}
