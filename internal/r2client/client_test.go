package r2client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresAllFields(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, Config{
		Endpoint:    "https://acct.r2.cloudflarestorage.com",
		AccessKeyID: "key",
		SecretKey:   "secret",
	})
	assert.Error(t, err, "missing bucket must be rejected")

	_, err = New(ctx, Config{
		AccessKeyID: "key",
		SecretKey:   "secret",
		Bucket:      "bucket",
	})
	assert.Error(t, err, "missing endpoint must be rejected")
}

func TestLockInfoRoundTrip(t *testing.T) {
	info := LockInfo{
		Owner:     "owner-123",
		ExpiresAt: time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC),
	}

	data, err := json.Marshal(info)
	require.NoError(t, err)

	var parsed LockInfo
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, info, parsed)
}

func TestNewDistributedLockGeneratesUniqueOwners(t *testing.T) {
	a := NewDistributedLock(nil, "locks/backup", time.Minute)
	b := NewDistributedLock(nil, "locks/backup", time.Minute)
	assert.NotEqual(t, a.OwnerID(), b.OwnerID())
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	srcPath := filepath.Join(tmpDir, "source.db")
	compressedPath := filepath.Join(tmpDir, "source.db.zst")
	restoredPath := filepath.Join(tmpDir, "restored.db")

	original := bytes.Repeat([]byte("user rows and chat history "), 4000)
	require.NoError(t, os.WriteFile(srcPath, original, 0o644))

	require.NoError(t, CompressFile(srcPath, compressedPath))

	srcInfo, err := os.Stat(srcPath)
	require.NoError(t, err)
	compInfo, err := os.Stat(compressedPath)
	require.NoError(t, err)
	assert.Less(t, compInfo.Size(), srcInfo.Size())

	f, err := os.Open(compressedPath)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, DecompressStream(f, restoredPath))

	restored, err := os.ReadFile(restoredPath)
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

func TestCompressFileMissingSource(t *testing.T) {
	tmpDir := t.TempDir()
	err := CompressFile(filepath.Join(tmpDir, "missing.db"), filepath.Join(tmpDir, "out.zst"))
	assert.Error(t, err)
}

func TestDecompressStreamRejectsGarbage(t *testing.T) {
	tmpDir := t.TempDir()
	err := DecompressStream(strings.NewReader("not zstd data"), filepath.Join(tmpDir, "out.db"))
	assert.Error(t, err)
}

type fakeUploader struct {
	key         string
	contentType string
	data        []byte
	err         error
}

func (f *fakeUploader) Upload(_ context.Context, key string, body io.Reader, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.key = key
	f.contentType = contentType
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.data = data
	return "etag", nil
}

func TestRehostImageUploadsAndReturnsPublicURL(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0, 1, 2, 3}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	up := &fakeUploader{}
	r, err := NewRehoster(up, "https://img.example.com/")
	require.NoError(t, err)

	url, err := r.RehostImage(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "https://img.example.com/images/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)
	assert.Equal(t, payload, up.data)
	assert.Equal(t, "image/png", up.contentType)
	assert.Equal(t, "https://img.example.com/"+up.key, url)
}

func TestRehostImageUsesJpegExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	up := &fakeUploader{}
	r, err := NewRehoster(up, "https://img.example.com")
	require.NoError(t, err)

	url, err := r.RehostImage(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".jpg"), url)
}

func TestRehostImageRejectsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	r, err := NewRehoster(&fakeUploader{}, "https://img.example.com")
	require.NoError(t, err)

	_, err = r.RehostImage(context.Background(), srv.URL)
	assert.Error(t, err)
}
