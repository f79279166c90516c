package registry

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/assetstore/instrumented"
	"github.com/marmos91/assetd/pkg/assetstore/memory"
	"github.com/marmos91/assetd/pkg/clients"
	"github.com/marmos91/assetd/pkg/config"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	r := New(Options{Clients: clients.NewRegistry()})
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func folderSource(t *testing.T) config.MapSource {
	return config.MapSource{
		config.KeyType:       "Folder",
		config.KeyFolderPath: filepath.Join(t.TempDir(), "assets"),
	}
}

func TestRegistry_Unconfigured(t *testing.T) {
	r := newTestRegistry(t)

	assert.False(t, r.IsConfigured())

	_, err := r.AssetStore()
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = r.Store()
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = r.Initializer()
	assert.ErrorIs(t, err, ErrNotConfigured)

	assert.ErrorIs(t, r.Initialize(context.Background()), ErrNotConfigured)
	assert.ErrorIs(t, r.HealthCheck(context.Background()), ErrNotConfigured)
	assert.NotNil(t, r.ThumbnailGenerator())
}

func TestRegistry_ConfigureFolder(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.Configure(ctx, folderSource(t)))
	assert.True(t, r.IsConfigured())

	s, err := r.AssetStore()
	require.NoError(t, err)
	assert.Equal(t, assetstore.KindFolder, s.Kind())

	store, err := r.Store()
	require.NoError(t, err)
	initializer, err := r.Initializer()
	require.NoError(t, err)

	// One instance behind both capabilities.
	assert.Same(t, s, store)
	assert.Same(t, s, initializer)

	require.NoError(t, r.Initialize(ctx))
	require.NoError(t, r.HealthCheck(ctx))
}

func TestRegistry_ConfigureTwice(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.Configure(ctx, folderSource(t)))
	first, err := r.AssetStore()
	require.NoError(t, err)

	assert.ErrorIs(t, r.Configure(ctx, folderSource(t)), ErrAlreadyConfigured)
	assert.ErrorIs(t, r.ConfigureStore(memory.NewStore(assetstore.KindFolder)), ErrAlreadyConfigured)

	second, err := r.AssetStore()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestRegistry_FailedConfigureLeavesUnconfigured(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	err := r.Configure(ctx, config.MapSource{config.KeyType: "Dropbox"})
	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.False(t, r.IsConfigured())
	assert.Equal(t, 0, r.Clients().Len())

	err = r.Configure(ctx, config.MapSource{config.KeyType: "Folder"})
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, config.KeyFolderPath, cfgErr.Key)
	assert.False(t, r.IsConfigured())

	// A later valid configuration still succeeds.
	require.NoError(t, r.Configure(ctx, folderSource(t)))
}

func TestRegistry_InitializeRunsOnce(t *testing.T) {
	r := newTestRegistry(t)
	backend := memory.New()
	require.NoError(t, r.ConfigureStore(assetstore.Bind(assetstore.KindMongoDB, backend)))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Initialize(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, backend.InitializeCount())
}

type failingInit struct {
	*memory.Backend
	calls int
}

func (f *failingInit) Initialize(ctx context.Context) error {
	f.calls++
	return errors.New("bucket missing")
}

func TestRegistry_InitializeErrorIsSticky(t *testing.T) {
	r := newTestRegistry(t)
	backend := &failingInit{Backend: memory.New()}
	require.NoError(t, r.ConfigureStore(assetstore.Bind(assetstore.KindGoogleCloud, backend)))

	err := r.Initialize(context.Background())
	require.Error(t, err)
	assert.Equal(t, "initialize GoogleCloud asset store: bucket missing", err.Error())

	assert.Equal(t, err, r.Initialize(context.Background()))
	assert.Equal(t, 1, backend.calls)
}

func TestRegistry_StoreIsInstrumented(t *testing.T) {
	r := newTestRegistry(t)
	inner := memory.NewStore(assetstore.KindAzureBlob)
	require.NoError(t, r.ConfigureStore(inner))

	s, err := r.AssetStore()
	require.NoError(t, err)

	wrapped, ok := s.(*instrumented.Store)
	require.True(t, ok)
	assert.Same(t, inner, wrapped.Unwrap())
}

func TestRegistry_ConfigureNilStore(t *testing.T) {
	r := newTestRegistry(t)
	assert.Error(t, r.ConfigureStore(nil))
	assert.False(t, r.IsConfigured())
}

func TestRegistry_CloseClosesStore(t *testing.T) {
	r := New(Options{})
	inner := memory.NewStore(assetstore.KindFolder)
	require.NoError(t, r.ConfigureStore(inner))

	require.NoError(t, r.Close())
	assert.ErrorIs(t, inner.HealthCheck(context.Background()), assetstore.ErrStoreClosed)
}
