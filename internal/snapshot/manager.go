// Package snapshot backs the SQLite database up to R2 and restores it on a
// fresh host. The deployment target has ephemeral disks, so the nightly
// backup is what survives a redeploy.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/miulabs/miu-linebot-go/internal/logger"
	"github.com/miulabs/miu-linebot-go/internal/r2client"
	"github.com/miulabs/miu-linebot-go/internal/storage"
)

// ErrNotFound indicates no backup exists in the bucket.
var ErrNotFound = errors.New("snapshot: not found")

// Config holds snapshot manager configuration.
type Config struct {
	SnapshotKey string        // object key, e.g. "backups/miu.db.zst"
	LockKey     string        // object key for the backup leader lock
	LockTTL     time.Duration // how long a dead leader blocks the next backup
	TempDir     string        // scratch space for staging files
}

// Manager uploads and restores compressed database snapshots.
type Manager struct {
	client *r2client.Client
	config Config
	log    *logger.Logger

	mu       sync.RWMutex
	lastETag string
}

// New creates a new snapshot manager.
func New(client *r2client.Client, cfg Config, log *logger.Logger) *Manager {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	return &Manager{
		client: client,
		config: cfg,
		log:    log.WithModule("snapshot"),
	}
}

// Backup writes a consistent snapshot of db, compresses it and uploads it,
// replacing the previous backup. Returns the new ETag.
func (m *Manager) Backup(ctx context.Context, db *storage.DB) (string, error) {
	stagePath := filepath.Join(m.config.TempDir, fmt.Sprintf("backup_%d.db", time.Now().UnixNano()))
	if err := db.CreateSnapshot(ctx, stagePath); err != nil {
		return "", fmt.Errorf("stage snapshot: %w", err)
	}
	defer os.Remove(stagePath)

	compressedPath := stagePath + ".zst"
	if err := r2client.CompressFile(stagePath, compressedPath); err != nil {
		return "", fmt.Errorf("compress snapshot: %w", err)
	}
	defer os.Remove(compressedPath)

	f, err := os.Open(compressedPath)
	if err != nil {
		return "", fmt.Errorf("open compressed snapshot: %w", err)
	}
	defer f.Close()

	etag, err := m.client.Upload(ctx, m.config.SnapshotKey, f, "application/zstd")
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}

	m.mu.Lock()
	m.lastETag = etag
	m.mu.Unlock()

	m.log.InfoContext(ctx, "database backup uploaded", "key", m.config.SnapshotKey, "etag", etag)
	return etag, nil
}

// BackupAsLeader runs Backup only on the replica that wins the distributed
// lock, so concurrent instances do not race on the same object.
// Returns false when another replica holds the lock.
func (m *Manager) BackupAsLeader(ctx context.Context, db *storage.DB) (bool, error) {
	lock := r2client.NewDistributedLock(m.client, m.config.LockKey, m.config.LockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire backup lock: %w", err)
	}
	if !acquired {
		m.log.DebugContext(ctx, "backup skipped, another replica holds the lock")
		return false, nil
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			m.log.WarnContext(ctx, "backup lock release failed", "error", err)
		}
	}()

	_, err = m.Backup(ctx, db)
	return true, err
}

// Restore downloads the latest backup and decompresses it to destPath.
// Returns ErrNotFound when no backup exists yet.
func (m *Manager) Restore(ctx context.Context, destPath string) error {
	body, etag, err := m.client.Download(ctx, m.config.SnapshotKey)
	if err != nil {
		if errors.Is(err, r2client.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("download snapshot: %w", err)
	}
	defer body.Close()

	// Stage next to the destination so a failed restore never clobbers it.
	stagePath := destPath + ".restore"
	if err := r2client.DecompressStream(body, stagePath); err != nil {
		os.Remove(stagePath)
		return fmt.Errorf("decompress snapshot: %w", err)
	}
	if err := os.Rename(stagePath, destPath); err != nil {
		os.Remove(stagePath)
		return fmt.Errorf("move restored snapshot: %w", err)
	}

	m.mu.Lock()
	m.lastETag = etag
	m.mu.Unlock()

	m.log.InfoContext(ctx, "database restored from backup", "key", m.config.SnapshotKey, "etag", etag)
	return nil
}

// RestoreIfMissing restores a backup only when no local database exists.
// Used at startup on a fresh disk.
func (m *Manager) RestoreIfMissing(ctx context.Context, dbPath string) error {
	if _, err := os.Stat(dbPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat database: %w", err)
	}

	err := m.Restore(ctx, dbPath)
	if errors.Is(err, ErrNotFound) {
		m.log.InfoContext(ctx, "no remote backup found, starting with an empty database")
		return nil
	}
	return err
}

// LastETag returns the ETag of the most recent upload or restore.
func (m *Manager) LastETag() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastETag
}

// Changed reports whether the remote backup differs from what this instance
// last uploaded or restored.
func (m *Manager) Changed(ctx context.Context) (bool, error) {
	remote, err := m.client.HeadObject(ctx, m.config.SnapshotKey)
	if err != nil {
		if errors.Is(err, r2client.ErrNotFound) {
			return m.LastETag() != "", nil
		}
		return false, err
	}
	return remote != m.LastETag(), nil
}
