// Package asset implements commands operating on stored assets.
package asset

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetd/cmd/assetd/cmdutil"
	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/registry"
)

// Cmd is the asset subcommand.
var Cmd = &cobra.Command{
	Use:   "asset",
	Short: "Manage stored assets",
	Long: `Upload, download and delete assets in the configured asset store.

An asset is addressed by its ID, a version and an optional suffix. The
object name is "{id}_{version}" or "{id}_{version}_{suffix}".

Subcommands:
  upload    Upload an asset (optionally with a thumbnail)
  download  Download an asset
  delete    Delete an asset
  url       Print the storage location of an asset
  temp      Manage temporary uploads`,
}

// refFlags holds the flags addressing an asset version.
type refFlags struct {
	version int64
	suffix  string
}

func (f *refFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.version, "version", 0, "Asset version")
	cmd.Flags().StringVar(&f.suffix, "suffix", "", "Asset suffix (e.g. thumbnail-100x100)")
}

func (f *refFlags) ref(id string) (assetstore.Ref, error) {
	return cmdutil.ParseRef(id, f.version, f.suffix)
}

func init() {
	Cmd.AddCommand(uploadCmd)
	Cmd.AddCommand(downloadCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(urlCmd)
	Cmd.AddCommand(tempCmd)
}

// withStore opens the configured asset store, runs fn and closes the store.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, reg *registry.Registry, store assetstore.AssetStore) error) (err error) {
	cfg, err := cmdutil.LoadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	reg, err := cmdutil.OpenRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := reg.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close asset store: %w", cerr)
		}
	}()

	store, err := reg.AssetStore()
	if err != nil {
		return err
	}
	return fn(ctx, reg, store)
}
