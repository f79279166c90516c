package asset

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetd/cmd/assetd/cmdutil"
	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/registry"
)

var (
	downloadRef    refFlags
	downloadOutput string
)

var downloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Download an asset",
	Long: `Download an asset version.

Examples:
  # Write version 1 to a file
  assetd asset download 6f1c0c43 --version 1 --output photo.jpg

  # Write a thumbnail to stdout
  assetd asset download 6f1c0c43 --version 1 --suffix thumbnail-200x200 > thumb.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	downloadRef.register(downloadCmd)
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "-", "Output file (- for stdout)")
}

func runDownload(cmd *cobra.Command, args []string) error {
	ref, err := downloadRef.ref(args[0])
	if err != nil {
		return err
	}

	return withStore(cmd, func(ctx context.Context, _ *registry.Registry, store assetstore.AssetStore) error {
		if downloadOutput == "-" {
			return store.Download(ctx, ref, cmd.OutOrStdout())
		}

		f, err := cmdutil.CreateOutput(downloadOutput)
		if err != nil {
			return err
		}

		if err := store.Download(ctx, ref, f); err != nil {
			_ = f.Close()
			_ = os.Remove(downloadOutput)
			return fmt.Errorf("failed to download %s: %w", ref, err)
		}
		if err := f.Close(); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Downloaded %s to %s\n", ref, downloadOutput)
		return nil
	})
}
