package sentry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeEmptyTokenDisables(t *testing.T) {
	require.NoError(t, Initialize(Config{Token: ""}))
	assert.False(t, IsEnabled())
}

func TestInitializeMissingHost(t *testing.T) {
	err := Initialize(Config{Token: "test-token", Host: ""})
	require.Error(t, err)
}

func TestInitializeValidConfig(t *testing.T) {
	// Sentry uses global state; no t.Parallel.
	err := Initialize(Config{
		Token:       "test-token",
		Host:        "errors.betterstack.com",
		Environment: "test",
		SampleRate:  1.0,
	})
	require.NoError(t, err)
	assert.True(t, IsEnabled())

	Flush(time.Second)
}

func TestInitializeDefaultSampleRate(t *testing.T) {
	err := Initialize(Config{
		Token:      "test-token-2",
		Host:       "errors.betterstack.com",
		SampleRate: 0,
	})
	require.NoError(t, err)

	Flush(time.Second)
}

func TestMiddlewareIsConstructed(t *testing.T) {
	assert.NotNil(t, Middleware())
}

func TestFlushNoEvents(t *testing.T) {
	assert.True(t, Flush(100*time.Millisecond))
}
