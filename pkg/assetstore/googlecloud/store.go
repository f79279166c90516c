// Package googlecloud provides a Google Cloud Storage asset store backend.
package googlecloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/marmos91/assetd/internal/logger"
	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/bufpool"
)

// Config holds configuration for the Google Cloud backend.
type Config struct {
	// Bucket is the Cloud Storage bucket name.
	Bucket string
}

// bucket abstracts the bucket operations the backend needs.
type bucket interface {
	Attrs(ctx context.Context) error
	NewReader(ctx context.Context, name string) (io.ReadCloser, error)
	// NewWriter returns a writer that fails on Close if name exists.
	NewWriter(ctx context.Context, name string) io.WriteCloser
	// Copy copies src to dst, failing if dst exists.
	Copy(ctx context.Context, src, dst string) error
	Delete(ctx context.Context, name string) error
}

type gcsBucket struct{ h *storage.BucketHandle }

func (b gcsBucket) Attrs(ctx context.Context) error {
	_, err := b.h.Attrs(ctx)
	return err
}

func (b gcsBucket) NewReader(ctx context.Context, name string) (io.ReadCloser, error) {
	return b.h.Object(name).NewReader(ctx)
}

func (b gcsBucket) NewWriter(ctx context.Context, name string) io.WriteCloser {
	return b.h.Object(name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
}

func (b gcsBucket) Copy(ctx context.Context, src, dst string) error {
	dstHandle := b.h.Object(dst).If(storage.Conditions{DoesNotExist: true})
	_, err := dstHandle.CopierFrom(b.h.Object(src)).Run(ctx)
	return err
}

func (b gcsBucket) Delete(ctx context.Context, name string) error {
	return b.h.Object(name).Delete(ctx)
}

// Backend stores assets as objects in a single bucket.
type Backend struct {
	name   string
	bucket bucket
}

// New creates a backend on top of a shared client.
func New(client *storage.Client, cfg Config) (*Backend, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("google cloud bucket is required")
	}
	return &Backend{
		name:   cfg.Bucket,
		bucket: gcsBucket{h: client.Bucket(cfg.Bucket)},
	}, nil
}

// NewStore creates a Google Cloud asset store.
func NewStore(client *storage.Client, cfg Config) (*assetstore.BoundStore, error) {
	b, err := New(client, cfg)
	if err != nil {
		return nil, err
	}
	return assetstore.Bind(assetstore.KindGoogleCloud, b), nil
}

// Bucket returns the bucket name.
func (b *Backend) Bucket() string {
	return b.name
}

// Initialize checks that the bucket exists and is reachable.
func (b *Backend) Initialize(ctx context.Context) error {
	if err := b.bucket.Attrs(ctx); err != nil {
		return fmt.Errorf("bucket %s: %w", b.name, err)
	}
	logger.Info("Initialized Google Cloud asset store", logger.KeyBucket, b.name)
	return nil
}

// Put uploads content under key unless the object already exists.
func (b *Backend) Put(ctx context.Context, key string, content io.Reader) error {
	// Cancelling the writer context is the only way to abort an upload.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := b.bucket.NewWriter(ctx, key)
	if _, err := bufpool.CopyLarge(w, content); err != nil {
		cancel()
		_ = w.Close()
		return fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return mapError(key, err)
	}
	return nil
}

// Get streams the object into w.
func (b *Backend) Get(ctx context.Context, key string, w io.Writer) error {
	r, err := b.bucket.NewReader(ctx, key)
	if err != nil {
		return mapError(key, err)
	}
	defer r.Close()

	if _, err := bufpool.CopyLarge(w, r); err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}
	return nil
}

// Copy performs a server-side copy.
func (b *Backend) Copy(ctx context.Context, src, dst string) error {
	if err := b.bucket.Copy(ctx, src, dst); err != nil {
		return mapError(src+" -> "+dst, err)
	}
	return nil
}

// Remove deletes the object. Missing objects are ignored.
func (b *Backend) Remove(ctx context.Context, key string) error {
	err := b.bucket.Delete(ctx, key)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// URL returns the gs:// URL of the object.
func (b *Backend) URL(key string) string {
	return fmt.Sprintf("gs://%s/%s", b.name, key)
}

// HealthCheck verifies the bucket is reachable.
func (b *Backend) HealthCheck(ctx context.Context) error {
	return b.bucket.Attrs(ctx)
}

// Close is a no-op; the client is owned by the client registry.
func (b *Backend) Close() error {
	return nil
}

func mapError(key string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return assetstore.ErrAssetNotFound
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusPreconditionFailed:
			return assetstore.ErrAssetAlreadyExists
		case http.StatusNotFound:
			return assetstore.ErrAssetNotFound
		}
	}
	return fmt.Errorf("%s: %w", key, err)
}

var _ assetstore.Backend = (*Backend)(nil)
