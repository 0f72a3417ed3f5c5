package ctxutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "evt-123")
	assert.Equal(t, "evt-123", RequestID(ctx))
}

func TestRequestIDMissing(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
}

func TestUserIDRoundTrip(t *testing.T) {
	ctx := WithUserID(context.Background(), "U4af4980629")
	assert.Equal(t, "U4af4980629", UserID(ctx))
}

func TestUserIDMissing(t *testing.T) {
	assert.Empty(t, UserID(context.Background()))
}

func TestIdentifiersAreIndependent(t *testing.T) {
	ctx := WithRequestID(context.Background(), "evt-1")
	ctx = WithUserID(ctx, "U1")

	assert.Equal(t, "evt-1", RequestID(ctx))
	assert.Equal(t, "U1", UserID(ctx))

	// Overwriting one leaves the other intact.
	ctx = WithRequestID(ctx, "evt-2")
	assert.Equal(t, "evt-2", RequestID(ctx))
	assert.Equal(t, "U1", UserID(ctx))
}
