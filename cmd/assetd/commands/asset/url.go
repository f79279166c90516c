package asset

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/registry"
)

var urlRef refFlags

var urlCmd = &cobra.Command{
	Use:   "url <id>",
	Short: "Print the storage location of an asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := urlRef.ref(args[0])
		if err != nil {
			return err
		}

		return withStore(cmd, func(ctx context.Context, _ *registry.Registry, store assetstore.AssetStore) error {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), store.SourceURL(ref))
			return nil
		})
	},
}

func init() {
	urlRef.register(urlCmd)
}
