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

var tempCmd = &cobra.Command{
	Use:   "temp",
	Short: "Manage temporary uploads",
	Long: `Manage temporary uploads.

A temporary upload is stored under its own name until it is copied to an
asset version and deleted.

Examples:
  assetd asset temp upload upload-42 --file photo.jpg
  assetd asset temp copy upload-42 6f1c0c43 --version 3
  assetd asset temp delete upload-42`,
}

var tempUploadFile string

var tempUploadCmd = &cobra.Command{
	Use:   "upload <name>",
	Short: "Upload a temporary file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := assetstore.ValidateTemporaryName(name); err != nil {
			return err
		}

		in, err := cmdutil.OpenInput(tempUploadFile)
		if err != nil {
			return err
		}
		if in != os.Stdin {
			defer func() { _ = in.Close() }()
		}

		return withStore(cmd, func(ctx context.Context, _ *registry.Registry, store assetstore.AssetStore) error {
			if err := store.UploadTemporary(ctx, name, in); err != nil {
				return fmt.Errorf("failed to upload temporary file %s: %w", name, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Uploaded temporary file %s\n", name)
			return nil
		})
	},
}

var tempCopyRef refFlags

var tempCopyCmd = &cobra.Command{
	Use:   "copy <name> <id>",
	Short: "Copy a temporary file to an asset version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		ref, err := tempCopyRef.ref(args[1])
		if err != nil {
			return err
		}

		return withStore(cmd, func(ctx context.Context, _ *registry.Registry, store assetstore.AssetStore) error {
			if err := store.CopyTemporary(ctx, name, ref); err != nil {
				return fmt.Errorf("failed to copy temporary file %s to %s: %w", name, ref, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Copied %s to %s\n", name, store.SourceURL(ref))
			return nil
		})
	},
}

var tempDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a temporary file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		return withStore(cmd, func(ctx context.Context, _ *registry.Registry, store assetstore.AssetStore) error {
			if err := store.DeleteTemporary(ctx, name); err != nil {
				return fmt.Errorf("failed to delete temporary file %s: %w", name, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted temporary file %s\n", name)
			return nil
		})
	},
}

func init() {
	tempUploadCmd.Flags().StringVarP(&tempUploadFile, "file", "f", "-", "File to upload (- for stdin)")
	tempCopyRef.register(tempCopyCmd)

	tempCmd.AddCommand(tempUploadCmd)
	tempCmd.AddCommand(tempCopyCmd)
	tempCmd.AddCommand(tempDeleteCmd)
}
