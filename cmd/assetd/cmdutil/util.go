// Package cmdutil provides shared utilities for assetd commands.
package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/clients"
	"github.com/marmos91/assetd/pkg/config"
	"github.com/marmos91/assetd/pkg/metrics"
	"github.com/marmos91/assetd/pkg/registry"
)

// ConfigPath returns the value of the inherited --config flag.
func ConfigPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}

// LoadConfig loads the configuration selected by the --config flag.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.MustLoad(ConfigPath(cmd))
}

// NewRegistry creates an unconfigured registry for cfg.
func NewRegistry(cfg *config.Config) *registry.Registry {
	return registry.New(registry.Options{
		Clients:            clients.NewRegistry(),
		Metrics:            metrics.NewAssetStoreMetrics(),
		MaxThumbnailSource: cfg.Thumbnails.MaxSourceSize.Int64(),
	})
}

// OpenRegistry configures and initializes the asset store of cfg.
// The caller must Close the returned registry.
func OpenRegistry(ctx context.Context, cfg *config.Config) (*registry.Registry, error) {
	reg := NewRegistry(cfg)

	if err := reg.Configure(ctx, cfg.AssetStoreSource()); err != nil {
		return nil, errors.Join(err, reg.Close())
	}
	if err := reg.Initialize(ctx); err != nil {
		return nil, errors.Join(err, reg.Close())
	}
	return reg, nil
}

// ParseRef builds and validates an asset reference from command arguments.
func ParseRef(id string, version int64, suffix string) (assetstore.Ref, error) {
	ref := assetstore.Ref{ID: id, Version: version, Suffix: suffix}
	if err := ref.Validate(); err != nil {
		return assetstore.Ref{}, err
	}
	return ref, nil
}

// OpenInput opens path for reading; "-" reads stdin.
func OpenInput(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

// CreateOutput creates path for writing; "-" writes stdout.
func CreateOutput(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdout, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}
