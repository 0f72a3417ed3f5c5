// Package dedup absorbs duplicate webhook deliveries. LINE delivers events
// at least once; an event id seen within the retention window is dropped
// before any side effects run.
package dedup

import (
	"context"
	"time"
)

// DefaultTTL is the retention window for seen event ids. LINE redeliveries
// arrive within minutes; an hour leaves a wide margin.
const DefaultTTL = time.Hour

// Store tracks recently seen event ids.
// Seen and MarkSeen are separate so the caller controls when an event
// becomes visible (only after it is accepted for processing).
type Store interface {
	// Seen reports whether the id was marked within its TTL.
	Seen(ctx context.Context, id string) (bool, error)

	// MarkSeen records the id for the given retention window.
	MarkSeen(ctx context.Context, id string, ttl time.Duration) error

	// Close releases resources held by the store.
	Close() error
}
