// Package amazons3 provides an Amazon S3 (or S3-compatible) asset store backend.
package amazons3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/marmos91/assetd/internal/logger"
	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/bufpool"
)

// Config holds configuration for the S3 backend.
type Config struct {
	// Bucket is the S3 bucket name.
	Bucket string

	// BucketFolder is an optional key prefix ("assets" stores "assets/abc_1").
	BucketFolder string
}

// API is the subset of the S3 client used by the backend.
type API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Backend stores assets as S3 objects.
type Backend struct {
	client    API
	bucket    string
	keyPrefix string
}

// New creates an S3 backend with an existing client.
func New(client API, cfg Config) (*Backend, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	prefix := strings.Trim(cfg.BucketFolder, "/")
	if prefix != "" {
		prefix += "/"
	}

	return &Backend{
		client:    client,
		bucket:    cfg.Bucket,
		keyPrefix: prefix,
	}, nil
}

// NewStore creates an S3 asset store.
func NewStore(client API, cfg Config) (*assetstore.BoundStore, error) {
	b, err := New(client, cfg)
	if err != nil {
		return nil, err
	}
	return assetstore.Bind(assetstore.KindAmazonS3, b), nil
}

// fullKey returns the S3 key for an object key.
func (b *Backend) fullKey(key string) string {
	return b.keyPrefix + key
}

// Initialize verifies that the bucket exists and is accessible.
func (b *Backend) Initialize(ctx context.Context) error {
	if err := b.headBucket(ctx); err != nil {
		return err
	}

	logger.Info("Initialized Amazon S3 asset store",
		logger.KeyBucket, b.bucket,
		"prefix", b.keyPrefix)
	return nil
}

func (b *Backend) headBucket(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err != nil {
		if errors.Is(mapError(err), assetstore.ErrAssetNotFound) {
			return fmt.Errorf("s3 bucket %s does not exist", b.bucket)
		}
		return fmt.Errorf("s3 head bucket: %w", err)
	}
	return nil
}

// Put uploads the object with If-None-Match: *, so an existing key is
// never overwritten. The content is spooled to a temporary file first since
// request signing needs a seekable body.
func (b *Backend) Put(ctx context.Context, key string, content io.Reader) error {
	spool, err := os.CreateTemp("", "assetd-s3-*")
	if err != nil {
		return fmt.Errorf("create spool file: %w", err)
	}
	defer func() {
		_ = spool.Close()
		_ = os.Remove(spool.Name())
	}()

	size, err := bufpool.CopyLarge(spool, content)
	if err != nil {
		return fmt.Errorf("spool %s: %w", key, err)
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return err
	}

	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(b.fullKey(key)),
		Body:          spool,
		ContentLength: aws.Int64(size),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		if mapped := mapError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

// Get streams the object into w.
func (b *Backend) Get(ctx context.Context, key string, w io.Writer) error {
	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.fullKey(key)),
	})
	if err != nil {
		if mapped := mapError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("s3 get object: %w", err)
	}
	defer resp.Body.Close()

	if _, err := bufpool.CopyLarge(w, resp.Body); err != nil {
		return fmt.Errorf("read s3 object body: %w", err)
	}
	return nil
}

// Copy streams src into dst. CopyObject has no conditional write, so a
// server-side copy could overwrite dst.
func (b *Backend) Copy(ctx context.Context, src, dst string) error {
	return assetstore.StreamCopy(ctx, b, b, src, dst)
}

// Remove deletes the object. S3 deletes are idempotent.
func (b *Backend) Remove(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.fullKey(key)),
	})
	if err != nil {
		if errors.Is(mapError(err), assetstore.ErrAssetNotFound) {
			return nil
		}
		return fmt.Errorf("s3 delete object: %w", err)
	}
	return nil
}

// URL returns the s3:// URI of the object.
func (b *Backend) URL(key string) string {
	return fmt.Sprintf("s3://%s/%s", b.bucket, b.fullKey(key))
}

// HealthCheck verifies the bucket is reachable.
func (b *Backend) HealthCheck(ctx context.Context) error {
	return b.headBucket(ctx)
}

// Close is a no-op; the client is owned by the client registry.
func (b *Backend) Close() error {
	return nil
}

// mapError translates S3 errors into asset store errors.
// Returns nil for errors without an asset store equivalent.
func mapError(err error) error {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return assetstore.ErrAssetNotFound
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return assetstore.ErrAssetNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return assetstore.ErrAssetNotFound
		case "PreconditionFailed", "ConditionalRequestConflict":
			return assetstore.ErrAssetAlreadyExists
		}
	}
	return nil
}

var _ assetstore.Backend = (*Backend)(nil)
