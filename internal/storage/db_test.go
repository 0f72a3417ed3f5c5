package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesDirectoryAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "miu.db")

	db, err := New(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.Equal(t, path, db.Path())

	var name string
	err = db.Conn().QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='users'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "users", name)
}

func TestNewTestDBIsInMemory(t *testing.T) {
	db, err := NewTestDB()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.Equal(t, ":memory:", db.Path())
}

func TestCloseIsSafeTwice(t *testing.T) {
	db, err := NewTestDB()
	require.NoError(t, err)

	require.NoError(t, db.Close())
	require.NoError(t, db.Close())
}
