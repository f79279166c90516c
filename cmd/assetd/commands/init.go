package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetd/internal/cli/prompt"
	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/config"
)

var (
	initForce       bool
	initKind        string
	initPath        string
	initInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample assetd configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/assetd/config.yaml
and selects a Folder asset store. Use --config to specify a custom path.

Examples:
  # Initialize with default location
  assetd init

  # Initialize a folder store at a custom path
  assetd init --kind Folder --path /data/assets

  # Choose the asset store interactively
  assetd init --interactive

  # Force overwrite existing config
  assetd init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
	initCmd.Flags().StringVar(&initKind, "kind", "", "Asset store type ("+strings.Join(assetstore.KindNames(), ", ")+")")
	initCmd.Flags().StringVar(&initPath, "path", "", "Asset folder path (Folder only)")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "Prompt for the asset store settings")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.GetDefaultConfig()
	missing, err := configureAssetStore(&cfg.AssetStore, initKind, initPath, initInteractive)
	if err != nil {
		return err
	}

	if err := config.WriteConfig(configPath, cfg, initForce); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	if len(missing) > 0 {
		_, _ = fmt.Fprintf(out, "\nSet the following keys before starting (file or ASSETD_* environment):\n")
		for _, key := range missing {
			_, _ = fmt.Fprintf(out, "  - %s\n", key)
		}
	}
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Edit the configuration file to customize your setup")
	_, _ = fmt.Fprintln(out, "  2. Check it with: assetd config validate")
	_, _ = fmt.Fprintf(out, "  3. Start with: assetd start --config %s\n", configPath)

	return nil
}

// configureAssetStore fills the asset store section from flags or prompts.
// It returns the required keys that are still unset.
func configureAssetStore(c *config.AssetStoreConfig, kindName, path string, interactive bool) ([]string, error) {
	if kindName == "" && interactive {
		options := make([]prompt.SelectOption, 0, len(assetstore.Kinds()))
		for _, k := range assetstore.Kinds() {
			options = append(options, prompt.SelectOption{
				Label:       k.String(),
				Value:       k.String(),
				Description: kindDescription(k),
			})
		}
		selected, err := prompt.Select("Asset store type", options)
		if err != nil {
			return nil, err
		}
		kindName = selected
	}
	if kindName == "" {
		kindName = c.Type
	}

	kind, err := assetstore.ParseKind(kindName)
	if err != nil {
		return nil, &config.ConfigurationError{
			Key:    config.KeyType,
			Value:  kindName,
			Reason: "is not a valid asset store type",
			Valid:  assetstore.KindNames(),
		}
	}

	// Reset the section so only the selected kind's keys are written.
	*c = config.AssetStoreConfig{Type: kind.String()}
	if kind == assetstore.KindFolder {
		if path == "" {
			path = config.DefaultFolderPath
		}
		c.Folder.Path = path
	}

	var missing []string
	src := c.Source()
	for _, key := range config.RequiredKeys(kind) {
		if src.GetValue(key) != "" {
			continue
		}
		if !interactive {
			missing = append(missing, key)
			continue
		}

		value, err := promptValue(key)
		if err != nil {
			return nil, err
		}
		if err := c.Set(key, value); err != nil {
			return nil, err
		}
	}

	return missing, nil
}

// promptValue asks for a required key, masking keys that carry credentials.
func promptValue(key string) (string, error) {
	if key == config.KeyAzureBlobConnectionString || key == config.KeyMongoDbConfiguration {
		return prompt.Secret(key)
	}
	return prompt.InputRequired(key, "")
}

func kindDescription(k assetstore.Kind) string {
	switch k {
	case assetstore.KindFolder:
		return "Files below a local directory"
	case assetstore.KindGoogleCloud:
		return "Google Cloud Storage bucket"
	case assetstore.KindAzureBlob:
		return "Azure Blob Storage container"
	case assetstore.KindMongoDB:
		return "MongoDB GridFS bucket"
	case assetstore.KindAmazonS3:
		return "Amazon S3 or S3-compatible bucket"
	default:
		return ""
	}
}
