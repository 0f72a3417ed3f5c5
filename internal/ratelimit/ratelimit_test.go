package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterConsumesBurst(t *testing.T) {
	l := New(3, 0.001)

	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestLimiterRefills(t *testing.T) {
	l := New(1, 100) // 100 tokens/s, refills within 10ms

	assert.True(t, l.Allow())
	assert.False(t, l.Allow())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, l.Allow())
}

func TestLimiterAvailableCapped(t *testing.T) {
	l := New(2, 1000)
	time.Sleep(10 * time.Millisecond)
	assert.LessOrEqual(t, l.Available(), 2.0)
	assert.True(t, l.IsFull())
}

func TestPerKeyLimiterIsolatesKeys(t *testing.T) {
	pkl := NewPerKeyLimiter(PerKeyConfig{MaxTokens: 1, RefillRate: 0.001})
	defer pkl.Stop()

	assert.True(t, pkl.Allow("user-a"))
	assert.False(t, pkl.Allow("user-a"))
	assert.True(t, pkl.Allow("user-b"))
	assert.Equal(t, 2, pkl.ActiveCount())
}

func TestPerKeyLimiterEmptyKeyAllowed(t *testing.T) {
	pkl := NewPerKeyLimiter(PerKeyConfig{MaxTokens: 1, RefillRate: 0.001})
	defer pkl.Stop()

	for i := 0; i < 10; i++ {
		assert.True(t, pkl.Allow(""))
	}
	assert.Zero(t, pkl.ActiveCount())
}

func TestPerKeyLimiterOnDrop(t *testing.T) {
	pkl := NewPerKeyLimiter(PerKeyConfig{MaxTokens: 1, RefillRate: 0.001})
	defer pkl.Stop()

	dropped := 0
	pkl.OnDrop(func() { dropped++ })

	pkl.Allow("u")
	pkl.Allow("u")
	pkl.Allow("u")
	assert.Equal(t, 2, dropped)
}

func TestPerKeyLimiterStopTwice(t *testing.T) {
	pkl := NewPerKeyLimiter(PerKeyConfig{MaxTokens: 1, RefillRate: 1})
	pkl.Stop()
	pkl.Stop()
}
