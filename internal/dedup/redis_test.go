package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStoreWithClient(client), mr
}

func TestRedisStoreSeenAfterMark(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()

	seen, err := s.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.MarkSeen(ctx, "evt-1", time.Hour))

	seen, err = s.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.MarkSeen(ctx, "evt-1", time.Hour))

	mr.FastForward(2 * time.Hour)

	seen, err := s.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRedisStoreKeysAreNamespaced(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.MarkSeen(ctx, "evt-1", time.Hour))
	assert.True(t, mr.Exists("dedup:event:evt-1"))
}

func TestNewRedisStoreBadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not-a-url")
	require.Error(t, err)
}
