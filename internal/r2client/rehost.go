package r2client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxRehostBytes caps a single image download. Generated images are a few
// megabytes at most.
const maxRehostBytes = 20 << 20

type uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// Rehoster copies short-lived image URLs into the bucket and returns a
// durable public URL. Image providers expire their result URLs within
// hours, which is too short for a chat transcript.
type Rehoster struct {
	store     uploader
	publicURL string
	http      *http.Client
}

// NewRehoster creates a rehoster that serves objects under publicURL, the
// public domain mapped to the bucket.
func NewRehoster(store uploader, publicURL string) (*Rehoster, error) {
	if store == nil {
		return nil, errors.New("r2client: uploader is required")
	}
	if publicURL == "" {
		return nil, errors.New("r2client: public URL is required")
	}
	return &Rehoster{
		store:     store,
		publicURL: strings.TrimRight(publicURL, "/"),
		http:      &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// RehostImage downloads srcURL and uploads it under a fresh key.
func (r *Rehoster) RehostImage(ctx context.Context, srcURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return "", fmt.Errorf("r2client: build download request: %w", err)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("r2client: download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("r2client: download image: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRehostBytes+1))
	if err != nil {
		return "", fmt.Errorf("r2client: read image: %w", err)
	}
	if len(data) > maxRehostBytes {
		return "", fmt.Errorf("r2client: image exceeds %d bytes", maxRehostBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = "image/png"
	}

	key := fmt.Sprintf("images/%s/%s%s",
		time.Now().UTC().Format("2006/01"),
		uuid.NewString(),
		extensionFor(contentType),
	)

	if _, err := r.store.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return "", fmt.Errorf("r2client: upload image: %w", err)
	}
	return r.publicURL + "/" + key, nil
}

// extensionFor picks a file extension for the content type, defaulting to
// .png for anything unrecognized.
func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".png"
	}
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
