// Package instrumented wraps an asset store with tracing, metrics and
// debug logging.
package instrumented

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/marmos91/assetd/internal/logger"
	"github.com/marmos91/assetd/internal/telemetry"
	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/metrics"
)

// Store decorates an AssetStore. Every Store operation gets a span, an
// operation metric and a debug log line.
type Store struct {
	inner   assetstore.AssetStore
	metrics metrics.AssetStoreMetrics
	kind    string
}

// Wrap returns s decorated with instrumentation. m may be nil.
func Wrap(s assetstore.AssetStore, m metrics.AssetStoreMetrics) *Store {
	return &Store{
		inner:   s,
		metrics: m,
		kind:    s.Kind().String(),
	}
}

// Unwrap returns the decorated store.
func (s *Store) Unwrap() assetstore.AssetStore {
	return s.inner
}

func (s *Store) Kind() assetstore.Kind {
	return s.inner.Kind()
}

func refAttrs(ref assetstore.Ref) []attribute.KeyValue {
	attrs := []attribute.KeyValue{telemetry.AssetID(ref.ID), telemetry.Version(ref.Version)}
	if ref.Suffix != "" {
		attrs = append(attrs, telemetry.Suffix(ref.Suffix))
	}
	return attrs
}

// observe runs fn inside a span and records its outcome.
func (s *Store) observe(ctx context.Context, op, assetID string, attrs []attribute.KeyValue, fn func(ctx context.Context) error) error {
	ctx, span := telemetry.StartStoreSpan(ctx, s.kind, op, attrs...)
	defer span.End()

	lc := logger.NewLogContext(op, s.kind).
		WithAsset(assetID).
		WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
	ctx = logger.WithContext(ctx, lc)

	err := fn(ctx)

	metrics.ObserveOperation(s.metrics, s.kind, op, time.Since(lc.StartTime), err)
	telemetry.RecordError(ctx, err)

	if err != nil {
		logger.DebugCtx(ctx, "Asset store operation failed",
			logger.KeyDurationMs, lc.DurationMs(), logger.KeyError, err)
	} else {
		logger.DebugCtx(ctx, "Asset store operation",
			logger.KeyDurationMs, lc.DurationMs())
	}
	return err
}

// transferred records the byte count on the span and in metrics.
func (s *Store) transferred(ctx context.Context, op string, n int64) {
	telemetry.SetAttributes(ctx, telemetry.Bytes(n))
	metrics.RecordBytes(s.metrics, s.kind, op, n)
}

func (s *Store) Initialize(ctx context.Context) error {
	return s.observe(ctx, "initialize", "", nil, s.inner.Initialize)
}

func (s *Store) Upload(ctx context.Context, ref assetstore.Ref, content io.Reader) error {
	return s.observe(ctx, "upload", ref.ID, refAttrs(ref), func(ctx context.Context) error {
		r := &countingReader{r: content}
		err := s.inner.Upload(ctx, ref, r)
		if err == nil {
			s.transferred(ctx, "upload", r.n.Load())
		}
		return err
	})
}

func (s *Store) Download(ctx context.Context, ref assetstore.Ref, w io.Writer) error {
	return s.observe(ctx, "download", ref.ID, refAttrs(ref), func(ctx context.Context) error {
		cw := &countingWriter{w: w}
		err := s.inner.Download(ctx, ref, cw)
		s.transferred(ctx, "download", cw.n.Load())
		return err
	})
}

func (s *Store) Delete(ctx context.Context, ref assetstore.Ref) error {
	return s.observe(ctx, "delete", ref.ID, refAttrs(ref), func(ctx context.Context) error {
		return s.inner.Delete(ctx, ref)
	})
}

func (s *Store) UploadTemporary(ctx context.Context, name string, content io.Reader) error {
	attrs := []attribute.KeyValue{telemetry.TemporaryName(name)}
	return s.observe(ctx, "upload_temporary", "", attrs, func(ctx context.Context) error {
		r := &countingReader{r: content}
		err := s.inner.UploadTemporary(ctx, name, r)
		if err == nil {
			s.transferred(ctx, "upload_temporary", r.n.Load())
		}
		return err
	})
}

func (s *Store) CopyTemporary(ctx context.Context, name string, ref assetstore.Ref) error {
	attrs := append(refAttrs(ref), telemetry.TemporaryName(name))
	return s.observe(ctx, "copy_temporary", ref.ID, attrs, func(ctx context.Context) error {
		return s.inner.CopyTemporary(ctx, name, ref)
	})
}

func (s *Store) DeleteTemporary(ctx context.Context, name string) error {
	attrs := []attribute.KeyValue{telemetry.TemporaryName(name)}
	return s.observe(ctx, "delete_temporary", "", attrs, func(ctx context.Context) error {
		return s.inner.DeleteTemporary(ctx, name)
	})
}

func (s *Store) SourceURL(ref assetstore.Ref) string {
	return s.inner.SourceURL(ref)
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.observe(ctx, "health_check", "", nil, s.inner.HealthCheck)
}

func (s *Store) Close() error {
	return s.inner.Close()
}

type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

type countingWriter struct {
	w io.Writer
	n atomic.Int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n.Add(int64(n))
	return n, err
}

var _ assetstore.AssetStore = (*Store)(nil)
