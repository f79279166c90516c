package googlecloud

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/assetstore/storetest"
)

// fakeBucket mimics Cloud Storage semantics: DoesNotExist preconditions
// fail with 412 and missing objects yield storage.ErrObjectNotExist.
type fakeBucket struct {
	mu       sync.Mutex
	objects  map[string][]byte
	attrsErr error
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: make(map[string][]byte)}
}

func (f *fakeBucket) Attrs(ctx context.Context) error {
	return f.attrsErr
}

func (f *fakeBucket) NewReader(ctx context.Context, name string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[name]
	if !ok {
		return nil, storage.ErrObjectNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBucket) NewWriter(ctx context.Context, name string) io.WriteCloser {
	return &fakeWriter{ctx: ctx, bucket: f, name: name}
}

func (f *fakeBucket) Copy(ctx context.Context, src, dst string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[src]
	if !ok {
		return storage.ErrObjectNotExist
	}
	if _, exists := f.objects[dst]; exists {
		return &googleapi.Error{Code: http.StatusPreconditionFailed}
	}
	f.objects[dst] = data
	return nil
}

func (f *fakeBucket) Delete(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.objects[name]; !ok {
		return storage.ErrObjectNotExist
	}
	delete(f.objects, name)
	return nil
}

type fakeWriter struct {
	ctx    context.Context
	bucket *fakeBucket
	name   string
	buf    bytes.Buffer
}

func (w *fakeWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *fakeWriter) Close() error {
	if err := w.ctx.Err(); err != nil {
		return err
	}

	w.bucket.mu.Lock()
	defer w.bucket.mu.Unlock()

	if _, exists := w.bucket.objects[w.name]; exists {
		return &googleapi.Error{Code: http.StatusPreconditionFailed, Message: "conditionNotMet"}
	}
	w.bucket.objects[w.name] = bytes.Clone(w.buf.Bytes())
	return nil
}

func newTestBackend(f *fakeBucket) *Backend {
	return &Backend{name: "assets", bucket: f}
}

func TestConformance(t *testing.T) {
	storetest.RunConformanceSuite(t, func(t *testing.T) assetstore.AssetStore {
		s := assetstore.Bind(assetstore.KindGoogleCloud, newTestBackend(newFakeBucket()))
		require.NoError(t, s.Initialize(t.Context()))
		return s
	})
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(nil, Config{})
	require.Error(t, err)
}

func TestInitialize_MissingBucket(t *testing.T) {
	f := newFakeBucket()
	f.attrsErr = storage.ErrBucketNotExist

	err := newTestBackend(f).Initialize(context.Background())
	require.ErrorIs(t, err, storage.ErrBucketNotExist)
	assert.Contains(t, err.Error(), "assets")
}

func TestURL(t *testing.T) {
	assert.Equal(t, "gs://assets/abc_1", newTestBackend(newFakeBucket()).URL("abc_1"))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("client went away") }

func TestPut_SourceErrorAbortsUpload(t *testing.T) {
	f := newFakeBucket()
	b := newTestBackend(f)

	err := b.Put(context.Background(), "abc_1", failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client went away")
	assert.Empty(t, f.objects, "aborted uploads are not committed")
}

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError("k", &googleapi.Error{Code: http.StatusNotFound}), assetstore.ErrAssetNotFound)
	assert.ErrorIs(t, mapError("k", &googleapi.Error{Code: http.StatusPreconditionFailed}), assetstore.ErrAssetAlreadyExists)

	other := &googleapi.Error{Code: http.StatusForbidden}
	err := mapError("k", other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, assetstore.ErrAssetNotFound)
}

func TestNewStore_WithEmulatorClient(t *testing.T) {
	t.Setenv("STORAGE_EMULATOR_HOST", "localhost:4443")

	client, err := storage.NewClient(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	s, err := NewStore(client, Config{Bucket: "assets"})
	require.NoError(t, err)
	assert.Equal(t, assetstore.KindGoogleCloud, s.Kind())
	assert.Equal(t, "gs://assets/abc_1", s.SourceURL(assetstore.Ref{ID: "abc", Version: 1}))
}
