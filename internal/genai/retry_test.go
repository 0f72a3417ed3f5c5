package genai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}
}

func TestCalculateBackoffBounds(t *testing.T) {
	assert.Equal(t, time.Duration(0), CalculateBackoff(0, time.Second, 3*time.Second))

	for attempt := 1; attempt <= 5; attempt++ {
		d := CalculateBackoff(attempt, 500*time.Millisecond, 3*time.Second)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, 3*time.Second)
	}
}

func TestSleepRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Sleep(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSleepZeroDuration(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), 0))
}

func TestWithRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetry(3), nil, func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryRetriesTransient(t *testing.T) {
	calls := 0
	retries := 0
	err := WithRetry(context.Background(), fastRetry(3),
		func(attempt int, err error) { retries++ },
		func() error {
			calls++
			if calls < 3 {
				return errors.New("503 service unavailable")
			}
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retries)
}

func TestWithRetryStopsOnPermanent(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetry(3), nil, func() error {
		calls++
		return errors.New("401 unauthorized")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryStopsOnFallbackError(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetry(3), nil, func() error {
		calls++
		return errors.New("quota exceeded")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetry(2), nil, func() error {
		calls++
		return errors.New("timeout")
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, fastRetry(3), nil, func() error {
		t.Fatal("fn should not run with cancelled context")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestHasSufficientBudget(t *testing.T) {
	assert.True(t, HasSufficientBudget(context.Background(), time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.False(t, HasSufficientBudget(ctx, time.Hour))
	assert.True(t, HasSufficientBudget(ctx, time.Millisecond))
}
