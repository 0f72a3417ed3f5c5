// Package maintenance persists background-job bookkeeping in R2 so the
// schedule survives restarts and is shared between replicas.
package maintenance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/miulabs/miu-linebot-go/internal/r2client"
)

// State stores the last successful run timestamps (unix seconds).
type State struct {
	LastBackup  int64 `json:"last_backup"`  // nightly database backup
	LastCleanup int64 `json:"last_cleanup"` // stale pending-image sweep
	UpdatedAt   int64 `json:"updated_at"`
}

type objectStore interface {
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
	PutObjectIfNotExists(ctx context.Context, key string, body io.Reader, contentType string) (bool, string, error)
	PutObjectIfMatch(ctx context.Context, key string, body io.Reader, etag string, contentType string) (bool, string, error)
}

// ScheduleStore persists maintenance state as a single JSON object, updated
// with ETag compare-and-swap so concurrent replicas cannot lose each other's
// writes.
type ScheduleStore struct {
	client         objectStore
	key            string
	requestTimeout time.Duration
}

// NewScheduleStore creates a new schedule store.
func NewScheduleStore(client objectStore, key string, requestTimeout time.Duration) (*ScheduleStore, error) {
	if client == nil {
		return nil, errors.New("maintenance: object store is required")
	}
	if key == "" {
		return nil, errors.New("maintenance: schedule key is required")
	}
	return &ScheduleStore{client: client, key: key, requestTimeout: requestTimeout}, nil
}

// Load returns the current state and ETag. exists=false when the object is
// missing. Transient errors are retried up to 3 times; context cancellation
// is not retried.
func (s *ScheduleStore) Load(ctx context.Context) (State, string, bool, error) {
	const maxRetries = 3
	var lastErr error

	for attempt := range maxRetries {
		state, etag, exists, err := s.loadOnce(ctx)
		if err == nil {
			return state, etag, exists, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return State{}, "", false, err
		}

		lastErr = err
		if attempt < maxRetries-1 {
			select {
			case <-ctx.Done():
				return State{}, "", false, ctx.Err()
			case <-time.After(100 * time.Millisecond * time.Duration(attempt+1)):
			}
		}
	}

	return State{}, "", false, lastErr
}

func (s *ScheduleStore) loadOnce(ctx context.Context) (State, string, bool, error) {
	readCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	body, etag, err := s.client.Download(readCtx, s.key)
	if err != nil {
		if errors.Is(err, r2client.ErrNotFound) {
			return State{}, "", false, nil
		}
		return State{}, "", false, fmt.Errorf("maintenance: download state: %w", err)
	}
	defer func() {
		_ = body.Close()
	}()

	var state State
	if err := json.NewDecoder(body).Decode(&state); err != nil {
		return State{}, "", false, fmt.Errorf("maintenance: decode state: %w", err)
	}
	return state, etag, true, nil
}

// Ensure returns the state and ETag, creating the object when needed.
func (s *ScheduleStore) Ensure(ctx context.Context) (State, string, error) {
	state, etag, exists, err := s.Load(ctx)
	if err != nil {
		return State{}, "", err
	}
	if exists {
		return state, etag, nil
	}

	state = State{UpdatedAt: time.Now().UTC().Unix()}
	data, err := json.Marshal(state)
	if err != nil {
		return State{}, "", fmt.Errorf("maintenance: marshal state: %w", err)
	}

	writeCtx, cancel := s.withTimeout(ctx)
	created, createdETag, err := s.client.PutObjectIfNotExists(writeCtx, s.key, bytes.NewReader(data), "application/json")
	cancel()
	if err != nil {
		return State{}, "", fmt.Errorf("maintenance: create state: %w", err)
	}
	if created {
		return state, createdETag, nil
	}

	// Another replica created the object first; load its version.
	state, etag, exists, err = s.Load(ctx)
	if err != nil {
		return State{}, "", err
	}
	if !exists {
		return State{}, "", errors.New("maintenance: state missing after create race")
	}
	return state, etag, nil
}

// Update applies an update with optimistic concurrency (ETag compare-and-swap).
func (s *ScheduleStore) Update(ctx context.Context, updater func(*State)) error {
	for range 3 {
		state, etag, err := s.Ensure(ctx)
		if err != nil {
			return err
		}

		updater(&state)
		state.UpdatedAt = time.Now().UTC().Unix()

		data, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("maintenance: marshal state: %w", err)
		}

		writeCtx, cancel := s.withTimeout(ctx)
		updated, _, err := s.client.PutObjectIfMatch(writeCtx, s.key, bytes.NewReader(data), etag, "application/json")
		cancel()
		if err != nil {
			return fmt.Errorf("maintenance: update state: %w", err)
		}
		if updated {
			return nil
		}
	}

	return errors.New("maintenance: failed to update state after retries")
}

// Due reports whether a job with the given last-run timestamp should run
// again, using a calendar-day comparison in the bot's home timezone.
func Due(lastRun int64, now time.Time, loc *time.Location) bool {
	if lastRun == 0 {
		return true
	}
	last := time.Unix(lastRun, 0).In(loc)
	nowLocal := now.In(loc)
	return last.Year() != nowLocal.Year() || last.YearDay() != nowLocal.YearDay()
}

func (s *ScheduleStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.requestTimeout)
}
