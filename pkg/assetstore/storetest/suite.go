// Package storetest provides a conformance suite that every asset store
// backend must pass.
package storetest

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreFactory creates a fresh, initialized AssetStore for each test.
// The factory receives *testing.T so it can use t.TempDir() and t.Cleanup().
type StoreFactory func(t *testing.T) assetstore.AssetStore

// RunConformanceSuite runs the store contract tests against the factory.
// Each subtest gets its own store instance.
func RunConformanceSuite(t *testing.T, factory StoreFactory) {
	t.Helper()

	t.Run("UploadAndDownload", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()
		ref := assetstore.Ref{ID: "asset1", Version: 1}

		require.NoError(t, s.Upload(ctx, ref, strings.NewReader("hello world")))

		var buf bytes.Buffer
		require.NoError(t, s.Download(ctx, ref, &buf))
		assert.Equal(t, "hello world", buf.String())
	})

	t.Run("UploadEmpty", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()
		ref := assetstore.Ref{ID: "empty", Version: 0}

		require.NoError(t, s.Upload(ctx, ref, strings.NewReader("")))

		var buf bytes.Buffer
		require.NoError(t, s.Download(ctx, ref, &buf))
		assert.Equal(t, 0, buf.Len())
	})

	t.Run("UploadTwiceFails", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()
		ref := assetstore.Ref{ID: "asset1", Version: 1}

		require.NoError(t, s.Upload(ctx, ref, strings.NewReader("first")))
		err := s.Upload(ctx, ref, strings.NewReader("second"))
		require.ErrorIs(t, err, assetstore.ErrAssetAlreadyExists)

		var buf bytes.Buffer
		require.NoError(t, s.Download(ctx, ref, &buf))
		assert.Equal(t, "first", buf.String())
	})

	t.Run("VersionsAndSuffixesAreDistinct", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		refs := []assetstore.Ref{
			{ID: "asset1", Version: 1},
			{ID: "asset1", Version: 2},
			{ID: "asset1", Version: 2, Suffix: "thumbnail"},
		}
		for _, ref := range refs {
			require.NoError(t, s.Upload(ctx, ref, strings.NewReader(ref.Key())))
		}
		for _, ref := range refs {
			var buf bytes.Buffer
			require.NoError(t, s.Download(ctx, ref, &buf))
			assert.Equal(t, ref.Key(), buf.String())
		}
	})

	t.Run("DownloadMissing", func(t *testing.T) {
		s := factory(t)

		var buf bytes.Buffer
		err := s.Download(t.Context(), assetstore.Ref{ID: "missing", Version: 1}, &buf)
		require.ErrorIs(t, err, assetstore.ErrAssetNotFound)
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()
		ref := assetstore.Ref{ID: "asset1", Version: 1}

		require.NoError(t, s.Upload(ctx, ref, strings.NewReader("data")))
		require.NoError(t, s.Delete(ctx, ref))
		require.NoError(t, s.Delete(ctx, ref))

		var buf bytes.Buffer
		require.ErrorIs(t, s.Download(ctx, ref, &buf), assetstore.ErrAssetNotFound)

		// The key can be reused after deletion.
		require.NoError(t, s.Upload(ctx, ref, strings.NewReader("again")))
	})

	t.Run("TemporaryLifecycle", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()
		ref := assetstore.Ref{ID: "asset1", Version: 3}

		require.NoError(t, s.UploadTemporary(ctx, "upload-1", strings.NewReader("temp data")))
		require.NoError(t, s.CopyTemporary(ctx, "upload-1", ref))

		var buf bytes.Buffer
		require.NoError(t, s.Download(ctx, ref, &buf))
		assert.Equal(t, "temp data", buf.String())

		err := s.CopyTemporary(ctx, "upload-1", ref)
		require.ErrorIs(t, err, assetstore.ErrAssetAlreadyExists)

		require.NoError(t, s.DeleteTemporary(ctx, "upload-1"))
		require.NoError(t, s.DeleteTemporary(ctx, "upload-1"))

		err = s.CopyTemporary(ctx, "upload-1", assetstore.Ref{ID: "asset1", Version: 4})
		require.ErrorIs(t, err, assetstore.ErrAssetNotFound)

		// The promoted asset outlives its temporary file.
		buf.Reset()
		require.NoError(t, s.Download(ctx, ref, &buf))
		assert.Equal(t, "temp data", buf.String())
	})

	t.Run("TemporaryFilesAreNotAssets", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		require.NoError(t, s.UploadTemporary(ctx, "foo_1", strings.NewReader("temporary")))

		// "temp-foo_1" is both the temporary key and what this ref would name.
		shadow := assetstore.Ref{ID: "temp-foo", Version: 1}
		var buf bytes.Buffer
		require.ErrorIs(t, s.Download(ctx, shadow, &buf), assetstore.ErrInvalidRef)
		require.ErrorIs(t, s.Upload(ctx, shadow, strings.NewReader("asset")), assetstore.ErrInvalidRef)
		assert.Zero(t, buf.Len())

		require.NoError(t, s.CopyTemporary(ctx, "foo_1", assetstore.Ref{ID: "foo", Version: 1}))
		require.NoError(t, s.Download(ctx, assetstore.Ref{ID: "foo", Version: 1}, &buf))
		assert.Equal(t, "temporary", buf.String())
	})

	t.Run("InvalidRef", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		err := s.Upload(ctx, assetstore.Ref{ID: "../escape", Version: 1}, strings.NewReader("x"))
		require.ErrorIs(t, err, assetstore.ErrInvalidRef)

		err = s.UploadTemporary(ctx, "", strings.NewReader("x"))
		require.ErrorIs(t, err, assetstore.ErrInvalidRef)
	})

	t.Run("InitializeIsIdempotent", func(t *testing.T) {
		s := factory(t)

		require.NoError(t, s.Initialize(t.Context()))
		require.NoError(t, s.Initialize(t.Context()))
		require.NoError(t, s.HealthCheck(t.Context()))
	})

	t.Run("ConcurrentUploads", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		const writers = 8
		ref := assetstore.Ref{ID: "contended", Version: 1}

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.Upload(ctx, ref, strings.NewReader("payload"))
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, assetstore.ErrAssetAlreadyExists)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
	})

	t.Run("ClosedStore", func(t *testing.T) {
		s := factory(t)
		require.NoError(t, s.Close())

		err := s.Upload(t.Context(), assetstore.Ref{ID: "asset1", Version: 1}, strings.NewReader("x"))
		require.ErrorIs(t, err, assetstore.ErrStoreClosed)
	})
}
