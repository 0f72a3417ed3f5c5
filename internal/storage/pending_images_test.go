package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingImageStoreSaveLoadDelete(t *testing.T) {
	store, err := NewPendingImageStore(t.TempDir())
	require.NoError(t, err)

	id, err := store.Save([]byte("image-bytes"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	data, err := store.Load(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)

	require.NoError(t, store.Delete(id))

	_, err = store.Load(id)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPendingImageStoreDeleteAbsent(t *testing.T) {
	store, err := NewPendingImageStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete("no-such-id"))
	assert.NoError(t, store.Delete(""))
}

func TestPendingImageStoreSaveEmpty(t *testing.T) {
	store, err := NewPendingImageStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save(nil)
	assert.Error(t, err)
}

func TestPendingImageStoreLoadEmptyID(t *testing.T) {
	store, err := NewPendingImageStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPendingImageStoreDeleteOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPendingImageStore(dir)
	require.NoError(t, err)

	oldID, err := store.Save([]byte("old"))
	require.NoError(t, err)
	freshID, err := store.Save([]byte("fresh"))
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, oldID), past, past))

	removed, err := store.DeleteOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Load(oldID)
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = store.Load(freshID)
	assert.NoError(t, err)
}

func TestNewPendingImageStoreCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "pending")
	_, err := NewPendingImageStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewPendingImageStoreEmptyDir(t *testing.T) {
	_, err := NewPendingImageStore("")
	assert.Error(t, err)
}
