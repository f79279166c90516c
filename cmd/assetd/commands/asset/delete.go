package asset

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetd/internal/cli/prompt"
	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/registry"
)

var (
	deleteRef   refFlags
	deleteForce bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an asset",
	Long: `Delete an asset version. Deleting a missing asset succeeds.

Examples:
  # Delete with confirmation
  assetd asset delete 6f1c0c43 --version 1

  # Delete without confirmation
  assetd asset delete 6f1c0c43 --version 1 --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteRef.register(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ref, err := deleteRef.ref(args[0])
	if err != nil {
		return err
	}

	confirmed, err := prompt.ConfirmWithForce(fmt.Sprintf("Delete asset %s", ref), deleteForce)
	if err != nil {
		return err
	}
	if !confirmed {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}

	return withStore(cmd, func(ctx context.Context, _ *registry.Registry, store assetstore.AssetStore) error {
		if err := store.Delete(ctx, ref); err != nil {
			return fmt.Errorf("failed to delete %s: %w", ref, err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", ref)
		return nil
	})
}
