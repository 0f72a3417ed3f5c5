package dedup

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Best-effort: entries do not survive a
// restart, which matches the at-least-once tolerance of event processing.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time // id -> expiry
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]time.Time)}
}

// Seen reports whether id was marked and has not expired.
func (s *MemoryStore) Seen(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.entries[id]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(s.entries, id)
		return false, nil
	}
	return true, nil
}

// MarkSeen records id until now+ttl.
func (s *MemoryStore) MarkSeen(_ context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = time.Now().Add(ttl)
	return nil
}

// Sweep removes expired entries. Called periodically by the janitor job so
// the map does not grow with traffic.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, expiry := range s.entries {
		if now.After(expiry) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the current number of tracked ids.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close is a no-op for the in-process store.
func (s *MemoryStore) Close() error { return nil }
