package r2client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// LockInfo is the JSON body of a lock object.
type LockInfo struct {
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DistributedLock elects a single worker across replicas using R2
// conditional writes. The backup job takes it so only one instance
// uploads the nightly database snapshot.
type DistributedLock struct {
	client  *Client
	key     string
	ttl     time.Duration
	ownerID string
	etag    string // ETag of the lock object we wrote
}

// NewDistributedLock creates a lock on the given object key.
func NewDistributedLock(client *Client, key string, ttl time.Duration) *DistributedLock {
	return &DistributedLock{
		client:  client,
		key:     key,
		ttl:     ttl,
		ownerID: uuid.New().String(),
	}
}

// Acquire attempts to take the lock.
// Returns (true, nil) when acquired, (false, nil) when another live holder
// exists, (false, error) on unexpected failures.
func (l *DistributedLock) Acquire(ctx context.Context) (bool, error) {
	data, err := json.Marshal(LockInfo{
		Owner:     l.ownerID,
		ExpiresAt: time.Now().Add(l.ttl),
	})
	if err != nil {
		return false, fmt.Errorf("acquire lock: marshal: %w", err)
	}

	created, etag, err := l.client.PutObjectIfNotExists(ctx, l.key, bytes.NewReader(data), "application/json")
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	if created {
		l.etag = etag
		return true, nil
	}

	// Lock object exists. Take it over only when the holder expired.
	expired, oldEtag, err := l.checkExpired(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire lock: check expired: %w", err)
	}
	if !expired {
		return false, nil
	}

	stolen, newEtag, err := l.steal(ctx, oldEtag)
	if err != nil {
		return false, fmt.Errorf("acquire lock: steal: %w", err)
	}
	if stolen {
		l.etag = newEtag
		return true, nil
	}
	return false, nil
}

// Renew extends the TTL while we still hold the lock.
// Returns (false, nil) when the lock was lost to another owner.
func (l *DistributedLock) Renew(ctx context.Context) (bool, error) {
	if l.etag == "" {
		return false, nil
	}

	data, err := json.Marshal(LockInfo{
		Owner:     l.ownerID,
		ExpiresAt: time.Now().Add(l.ttl),
	})
	if err != nil {
		return false, fmt.Errorf("renew lock: marshal: %w", err)
	}

	updated, newEtag, err := l.client.PutObjectIfMatch(ctx, l.key, bytes.NewReader(data), l.etag, "application/json")
	if err != nil {
		return false, fmt.Errorf("renew lock: %w", err)
	}
	if !updated {
		return false, nil
	}
	l.etag = newEtag
	return true, nil
}

// checkExpired reads the lock object and reports whether its holder expired.
func (l *DistributedLock) checkExpired(ctx context.Context) (bool, string, error) {
	body, etag, err := l.client.Download(ctx, l.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return true, "", nil // deleted between Put and Download
		}
		return false, "", err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return false, "", fmt.Errorf("read lock: %w", err)
	}

	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		// Unreadable lock body counts as expired.
		return true, etag, nil
	}
	return time.Now().After(info.ExpiresAt), etag, nil
}

// steal replaces an expired lock with our own, guarded by the old ETag so
// only one contender wins.
func (l *DistributedLock) steal(ctx context.Context, oldEtag string) (bool, string, error) {
	data, err := json.Marshal(LockInfo{
		Owner:     l.ownerID,
		ExpiresAt: time.Now().Add(l.ttl),
	})
	if err != nil {
		return false, "", fmt.Errorf("marshal: %w", err)
	}
	return l.client.PutObjectIfMatch(ctx, l.key, bytes.NewReader(data), oldEtag, "application/json")
}

// Release deletes the lock object if we still own it.
func (l *DistributedLock) Release(ctx context.Context) error {
	body, _, err := l.client.Download(ctx, l.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("release lock: verify: %w", err)
	}

	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		return fmt.Errorf("release lock: read: %w", err)
	}

	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return l.client.DeleteObject(ctx, l.key)
	}
	if info.Owner != l.ownerID {
		// Lost to a steal; nothing to release.
		return nil
	}
	return l.client.DeleteObject(ctx, l.key)
}

// OwnerID returns the unique identifier of this lock instance.
func (l *DistributedLock) OwnerID() string {
	return l.ownerID
}
