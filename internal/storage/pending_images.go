package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// PendingImageStore keeps buffered image bytes on disk while the user walks
// through style and size selection. The users row stores only the id and
// timestamp; the bytes never enter SQLite.
type PendingImageStore struct {
	dir string
}

// NewPendingImageStore creates the backing directory if needed.
func NewPendingImageStore(dir string) (*PendingImageStore, error) {
	if dir == "" {
		return nil, errors.New("pending image dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create pending image dir: %w", err)
	}
	return &PendingImageStore{dir: dir}, nil
}

// Save writes image bytes under a fresh id and returns it.
func (s *PendingImageStore) Save(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty image data")
	}
	id := uuid.NewString()
	if err := os.WriteFile(s.path(id), data, 0o644); err != nil {
		return "", fmt.Errorf("write pending image: %w", err)
	}
	return id, nil
}

// Load reads the bytes for id. Returns os.ErrNotExist if the image was
// already consumed or cleaned up.
func (s *PendingImageStore) Load(id string) ([]byte, error) {
	if id == "" {
		return nil, os.ErrNotExist
	}
	return os.ReadFile(s.path(id))
}

// Delete removes the bytes for id. Deleting an absent id is not an error.
func (s *PendingImageStore) Delete(id string) error {
	if id == "" {
		return nil
	}
	err := os.Remove(s.path(id))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// DeleteOlderThan removes files whose modification time is before the
// cutoff. Returns the number of files removed.
func (s *PendingImageStore) DeleteOlderThan(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read pending image dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func (s *PendingImageStore) path(id string) string {
	// uuid ids contain no path separators, but clean anyway.
	return filepath.Join(s.dir, filepath.Base(id))
}
