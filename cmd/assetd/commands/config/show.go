package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/assetd/cmd/assetd/cmdutil"
	"github.com/marmos91/assetd/internal/cli/output"
	"github.com/marmos91/assetd/pkg/config"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the current assetd configuration.

By default outputs YAML format. Use --output to change format. The table
format summarizes the asset store keys with credentials hidden.

Examples:
  # Show config as YAML
  assetd config show

  # Show as JSON
  assetd config show --output json

  # Show the asset store keys
  assetd config show --output table`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (table|json|yaml)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig(cmd)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case output.FormatJSON:
		return output.PrintJSON(out, masked(cfg))
	case output.FormatTable:
		return output.KeyValueTable(out, assetStoreRows(cfg.AssetStoreSource()))
	default:
		return output.PrintYAML(out, masked(cfg))
	}
}

const mask = "********"

// secretKeys are the asset store keys carrying credentials.
var secretKeys = []string{
	config.KeyAzureBlobConnectionString,
	config.KeyMongoDbConfiguration,
	config.KeyAmazonS3AccessKey,
	config.KeyAmazonS3SecretKey,
}

func isSecret(key string) bool {
	for _, k := range secretKeys {
		if k == key {
			return true
		}
	}
	return false
}

// masked returns a copy of cfg with credentials replaced by a mask.
func masked(cfg *config.Config) *config.Config {
	c := *cfg
	src := cfg.AssetStore.Source()
	for _, key := range secretKeys {
		if src.GetValue(key) != "" {
			_ = c.AssetStore.Set(key, mask)
		}
	}
	return &c
}

// assetStoreRows lists the set asset store keys, masking credentials.
func assetStoreRows(src config.Source) [][2]string {
	var rows [][2]string
	for _, key := range config.AssetStoreKeys() {
		value := src.GetValue(key)
		if value == "" {
			continue
		}
		if isSecret(key) {
			value = mask
		}
		rows = append(rows, [2]string{key, value})
	}
	return rows
}
