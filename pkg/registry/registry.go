// Package registry holds the process-wide services built from configuration:
// the configured asset store and the thumbnail generator.
//
// A Registry starts unconfigured. Configure resolves the asset store from a
// configuration source and publishes it; from then on the same store serves
// both the Store and the Initializer capability.
//
// Example usage:
//
//	reg := registry.New(registry.Options{Clients: clients.NewRegistry()})
//	if err := reg.Configure(ctx, cfg.AssetStoreSource()); err != nil {
//	    return err
//	}
//	if err := reg.Initialize(ctx); err != nil {
//	    return err
//	}
//	store, _ := reg.AssetStore()
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/marmos91/assetd/internal/logger"
	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/assetstore/instrumented"
	"github.com/marmos91/assetd/pkg/clients"
	"github.com/marmos91/assetd/pkg/config"
	"github.com/marmos91/assetd/pkg/metrics"
	"github.com/marmos91/assetd/pkg/thumbnail"
)

var (
	// ErrAlreadyConfigured is returned when Configure is called twice.
	ErrAlreadyConfigured = errors.New("asset store already configured")

	// ErrNotConfigured is returned when the store is requested before Configure.
	ErrNotConfigured = errors.New("asset store not configured")
)

// Options configures a Registry.
type Options struct {
	// Clients is the SDK client cache used by store constructors.
	// Default: a new private cache
	Clients *clients.Registry

	// Metrics records store operations. Nil disables metrics.
	Metrics metrics.AssetStoreMetrics

	// MaxThumbnailSource is the largest accepted thumbnail source in bytes.
	// Default: config.DefaultMaxSourceSize
	MaxThumbnailSource int64
}

// Registry owns the configured asset store.
type Registry struct {
	mu         sync.RWMutex
	store      assetstore.AssetStore
	clients    *clients.Registry
	metrics    metrics.AssetStoreMetrics
	thumbnails *thumbnail.Generator

	initOnce sync.Once
	initErr  error
}

// New creates an unconfigured registry.
func New(opts Options) *Registry {
	if opts.Clients == nil {
		opts.Clients = clients.NewRegistry()
	}
	if opts.MaxThumbnailSource <= 0 {
		opts.MaxThumbnailSource = int64(config.DefaultMaxSourceSize)
	}

	return &Registry{
		clients:    opts.Clients,
		metrics:    opts.Metrics,
		thumbnails: thumbnail.New(opts.MaxThumbnailSource),
	}
}

// Configure resolves the asset store selected by src and publishes it.
//
// On failure the registry stays unconfigured and may be configured again.
func (r *Registry) Configure(ctx context.Context, src config.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store != nil {
		return ErrAlreadyConfigured
	}

	store, err := config.ResolveAssetStore(ctx, src, r.clients)
	if err != nil {
		return err
	}

	r.store = instrumented.Wrap(store, r.metrics)
	logger.Info("Asset store configured", logger.KeyKind, store.Kind().String())
	return nil
}

// ConfigureStore publishes an already constructed store.
func (r *Registry) ConfigureStore(store assetstore.AssetStore) error {
	if store == nil {
		return fmt.Errorf("cannot configure nil asset store")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store != nil {
		return ErrAlreadyConfigured
	}
	r.store = instrumented.Wrap(store, r.metrics)
	return nil
}

// IsConfigured reports whether a store has been published.
func (r *Registry) IsConfigured() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store != nil
}

// AssetStore returns the configured store.
func (r *Registry) AssetStore() (assetstore.AssetStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.store == nil {
		return nil, ErrNotConfigured
	}
	return r.store, nil
}

// Store returns the configured store under the Store capability.
func (r *Registry) Store() (assetstore.Store, error) {
	return r.AssetStore()
}

// Initializer returns the configured store under the Initializer capability.
func (r *Registry) Initializer() (assetstore.Initializer, error) {
	return r.AssetStore()
}

// Initialize runs the store's Initialize once. Later calls return the
// result of the first call.
func (r *Registry) Initialize(ctx context.Context) error {
	store, err := r.AssetStore()
	if err != nil {
		return err
	}

	r.initOnce.Do(func() {
		r.initErr = store.Initialize(ctx)
	})
	return r.initErr
}

// HealthCheck checks the configured store.
func (r *Registry) HealthCheck(ctx context.Context) error {
	store, err := r.AssetStore()
	if err != nil {
		return err
	}
	return store.HealthCheck(ctx)
}

// ThumbnailGenerator returns the thumbnail generator.
func (r *Registry) ThumbnailGenerator() *thumbnail.Generator {
	return r.thumbnails
}

// Clients returns the SDK client cache.
func (r *Registry) Clients() *clients.Registry {
	return r.clients
}

// Close closes the store and every cached client.
func (r *Registry) Close() error {
	r.mu.Lock()
	store := r.store
	r.mu.Unlock()

	var errs []error
	if store != nil {
		if err := store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close asset store: %w", err))
		}
	}
	if err := r.clients.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close clients: %w", err))
	}
	return errors.Join(errs...)
}
