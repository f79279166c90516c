package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/assetd/pkg/assetstore"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for structural errors.
//
// Struct tags are checked first, then cross-field rules. The asset store
// section is only checked for a known type here; the parameters of the
// selected type are checked when the store is resolved.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry endpoint is required when telemetry is enabled")
	}

	if cfg.Telemetry.Profiling.Enabled && cfg.Telemetry.Profiling.Endpoint == "" {
		return fmt.Errorf("profiling endpoint is required when profiling is enabled")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == 0 {
		return fmt.Errorf("metrics port is required when metrics are enabled")
	}

	if cfg.AssetStore.Type != "" {
		if _, err := assetstore.ParseKind(cfg.AssetStore.Type); err != nil {
			return &ConfigurationError{
				Key:    KeyType,
				Value:  cfg.AssetStore.Type,
				Reason: "is not a valid asset store type",
				Valid:  assetstore.KindNames(),
			}
		}
	}

	return nil
}
