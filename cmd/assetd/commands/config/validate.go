package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetd/cmd/assetd/cmdutil"
	"github.com/marmos91/assetd/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the assetd configuration file.

Checks for syntax errors and invalid values, then reads the asset store
section the same way startup does: assetStore:type must name a known
store and every required key of that store must be set. The store itself
is not contacted.

Examples:
  # Validate default config
  assetd config validate

  # Validate specific config file
  assetd config validate --config /etc/assetd/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig(cmd)
	if err != nil {
		return err
	}

	backend, err := config.ReadBackendConfig(cfg.AssetStoreSource())
	if err != nil {
		return err
	}

	displayPath := cmdutil.ConfigPath(cmd)
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string
	if cfg.Telemetry.Enabled && cfg.Telemetry.Insecure {
		warnings = append(warnings, "Telemetry exporter uses an insecure connection")
	}
	if folder, ok := backend.(config.FolderOptions); ok && !filepath.IsAbs(folder.Path) {
		warnings = append(warnings, "Asset folder path is relative to the working directory")
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Asset store:     %s\n", backend.Kind())
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)
	_, _ = fmt.Fprintf(out, "  Metrics:         %t\n", cfg.Metrics.Enabled)

	return nil
}
