package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSeenAfterMark(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	seen, err := s.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.MarkSeen(ctx, "evt-1", time.Hour))

	seen, err = s.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.MarkSeen(ctx, "evt-1", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	seen, err := s.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemoryStoreSweep(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.MarkSeen(ctx, "old", 10*time.Millisecond))
	require.NoError(t, s.MarkSeen(ctx, "fresh", time.Hour))
	time.Sleep(30 * time.Millisecond)

	removed := s.Sweep()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())

	seen, err := s.Seen(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestMemoryStoreZeroTTLUsesDefault(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.MarkSeen(ctx, "evt-1", 0))

	seen, err := s.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = s.MarkSeen(ctx, "a", time.Minute)
			_, _ = s.Seen(ctx, "a")
		}
	}()
	for i := 0; i < 100; i++ {
		_ = s.MarkSeen(ctx, "b", time.Minute)
		_, _ = s.Seen(ctx, "b")
		s.Sweep()
	}
	<-done
}
