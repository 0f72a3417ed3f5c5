// Package r2client talks to Cloudflare R2 through the AWS S3 API. The bot
// stores two kinds of objects there: re-hosted generated images, which need
// a durable public URL, and compressed database backups.
package r2client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("r2client: object not found")

// Config holds R2 connection settings.
type Config struct {
	Endpoint    string // account endpoint, e.g. https://<account-id>.r2.cloudflarestorage.com
	AccessKeyID string
	SecretKey   string
	Bucket      string
}

// Client provides object operations against a single R2 bucket.
type Client struct {
	s3     *s3.Client
	bucket string
}

// New creates a new R2 client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, errors.New("r2client: all config fields are required")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2client: load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true // R2 does not support virtual-hosted addressing
	})

	return &Client{
		s3:     s3Client,
		bucket: cfg.Bucket,
	}, nil
}

// Upload stores an object and returns its ETag.
func (c *Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	result, err := c.s3.PutObject(ctx, input)
	if err != nil {
		return "", fmt.Errorf("r2client: upload %q: %w", key, err)
	}
	return cleanETag(result.ETag), nil
}

// Download returns the object body and ETag. The caller must close the body.
func (c *Client) Download(ctx context.Context, key string) (io.ReadCloser, string, error) {
	result, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("r2client: download %q: %w", key, err)
	}
	return result.Body, cleanETag(result.ETag), nil
}

// HeadObject returns the object's ETag without downloading the body.
func (c *Client) HeadObject(ctx context.Context, key string) (string, error) {
	result, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("r2client: head %q: %w", key, err)
	}
	return cleanETag(result.ETag), nil
}

// PutObjectIfNotExists creates the object only when it does not exist yet,
// using an If-None-Match conditional write.
// Returns (true, etag) when created, (false, "") when it already exists.
func (c *Client) PutObjectIfNotExists(ctx context.Context, key string, body io.Reader, contentType string) (bool, string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        body,
		IfNoneMatch: aws.String("*"),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	result, err := c.s3.PutObject(ctx, input)
	if err != nil {
		if isPreconditionFailed(err) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("r2client: put if not exists %q: %w", key, err)
	}
	return true, cleanETag(result.ETag), nil
}

// PutObjectIfMatch replaces the object only when its ETag still matches.
// Returns (true, newETag) when updated, (false, "") on an ETag mismatch.
func (c *Client) PutObjectIfMatch(ctx context.Context, key string, body io.Reader, etag string, contentType string) (bool, string, error) {
	input := &s3.PutObjectInput{
		Bucket:  aws.String(c.bucket),
		Key:     aws.String(key),
		Body:    body,
		IfMatch: aws.String("\"" + etag + "\""),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	result, err := c.s3.PutObject(ctx, input)
	if err != nil {
		if isPreconditionFailed(err) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("r2client: put if match %q: %w", key, err)
	}
	return true, cleanETag(result.ETag), nil
}

// DeleteObject removes an object. Deleting a missing object is not an error.
func (c *Client) DeleteObject(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("r2client: delete %q: %w", key, err)
	}
	return nil
}

func cleanETag(etag *string) string {
	if etag == nil {
		return ""
	}
	return strings.Trim(*etag, "\"")
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
		return true
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 412 {
		return true
	}
	return strings.Contains(err.Error(), "PreconditionFailed")
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "404":
			return true
		}
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return true
	}
	return false
}
