// Package mongogridfs provides a MongoDB GridFS asset store backend.
//
// Each object is a GridFS file whose filename is the object key. A unique
// index on filename, created by Initialize, makes uploads no-clobber: the
// second writer of a key fails when its file document is inserted, and its
// chunks are discarded.
package mongogridfs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/marmos91/assetd/internal/logger"
	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/bufpool"
)

const filenameIndex = "assetd_filename_unique"

// Config holds configuration for the GridFS backend.
type Config struct {
	// Database is the database holding the bucket.
	Database string

	// Bucket is the GridFS bucket name (collections "<bucket>.files"
	// and "<bucket>.chunks").
	Bucket string
}

// Backend stores assets in a GridFS bucket.
type Backend struct {
	client   *mongo.Client
	database string
	name     string
	bucket   *gridfs.Bucket
}

// New creates a backend on top of a shared client.
func New(client *mongo.Client, cfg Config) (*Backend, error) {
	if cfg.Database == "" {
		return nil, errors.New("mongodb database is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("gridfs bucket is required")
	}

	bucket, err := gridfs.NewBucket(
		client.Database(cfg.Database),
		options.GridFSBucket().SetName(cfg.Bucket),
	)
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}

	return &Backend{
		client:   client,
		database: cfg.Database,
		name:     cfg.Bucket,
		bucket:   bucket,
	}, nil
}

// NewStore creates a MongoDB asset store.
func NewStore(client *mongo.Client, cfg Config) (*assetstore.BoundStore, error) {
	b, err := New(client, cfg)
	if err != nil {
		return nil, err
	}
	return assetstore.Bind(assetstore.KindMongoDB, b), nil
}

// Client returns the MongoDB client used by the backend.
func (b *Backend) Client() *mongo.Client {
	return b.client
}

// Initialize checks connectivity and creates the unique filename index.
func (b *Backend) Initialize(ctx context.Context) error {
	if err := b.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongodb: %w", err)
	}

	_, err := b.bucket.GetFilesCollection().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "filename", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(filenameIndex),
	})
	if err != nil {
		return fmt.Errorf("create filename index: %w", err)
	}

	logger.Info("Initialized MongoDB asset store",
		logger.KeyDatabase, b.database,
		logger.KeyBucket, b.name)
	return nil
}

// bucketFor returns a bucket bound to the deadline of ctx. Opening a GridFS
// stream only obeys bucket deadlines; the shared bucket is never mutated.
func (b *Backend) bucketFor(ctx context.Context) (*gridfs.Bucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		return b.bucket, nil
	}

	bucket, err := gridfs.NewBucket(
		b.client.Database(b.database),
		options.GridFSBucket().SetName(b.name),
	)
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	if err := bucket.SetWriteDeadline(deadline); err != nil {
		return nil, err
	}
	if err := bucket.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	return bucket, nil
}

// Put uploads content as a new GridFS file.
func (b *Backend) Put(ctx context.Context, key string, content io.Reader) error {
	bucket, err := b.bucketFor(ctx)
	if err != nil {
		return err
	}

	us, err := bucket.OpenUploadStream(key)
	if err != nil {
		return fmt.Errorf("open upload stream %s: %w", key, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = us.SetWriteDeadline(deadline)
	}

	if _, err := bufpool.CopyLarge(us, contextReader{ctx: ctx, r: content}); err != nil {
		_ = us.Abort()
		return fmt.Errorf("upload %s: %w", key, err)
	}

	if err := us.Close(); err != nil {
		_ = us.Abort()
		if mongo.IsDuplicateKeyError(err) {
			return assetstore.ErrAssetAlreadyExists
		}
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// Get streams the file into w.
func (b *Backend) Get(ctx context.Context, key string, w io.Writer) error {
	bucket, err := b.bucketFor(ctx)
	if err != nil {
		return err
	}

	ds, err := bucket.OpenDownloadStreamByName(key)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return assetstore.ErrAssetNotFound
		}
		return fmt.Errorf("open download stream %s: %w", key, err)
	}
	defer ds.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = ds.SetReadDeadline(deadline)
	}

	if _, err := bufpool.CopyLarge(w, contextReader{ctx: ctx, r: ds}); err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}
	return nil
}

// Copy streams src into a new file dst.
func (b *Backend) Copy(ctx context.Context, src, dst string) error {
	return assetstore.StreamCopy(ctx, b, b, src, dst)
}

// Remove deletes every file named key.
func (b *Backend) Remove(ctx context.Context, key string) error {
	cursor, err := b.bucket.FindContext(ctx, bson.D{{Key: "filename", Value: key}})
	if err != nil {
		return fmt.Errorf("find %s: %w", key, err)
	}

	var files []struct {
		ID any `bson:"_id"`
	}
	if err := cursor.All(ctx, &files); err != nil {
		return fmt.Errorf("find %s: %w", key, err)
	}

	for _, f := range files {
		err := b.bucket.DeleteContext(ctx, f.ID)
		if err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

// URL returns a gridfs:// locator of the file.
func (b *Backend) URL(key string) string {
	return fmt.Sprintf("gridfs://%s/%s/%s", b.database, b.name, key)
}

// HealthCheck pings the primary.
func (b *Backend) HealthCheck(ctx context.Context) error {
	return b.client.Ping(ctx, readpref.Primary())
}

// Close is a no-op; the client is owned by the client registry.
func (b *Backend) Close() error {
	return nil
}

// contextReader stops a copy once ctx is done. GridFS streams only honor
// deadlines, not cancellation.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

var _ assetstore.Backend = (*Backend)(nil)
