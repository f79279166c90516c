package config

import (
	"strings"
	"time"

	"github.com/marmos91/assetd/internal/bytesize"
	"github.com/marmos91/assetd/pkg/assetstore"
)

// DefaultFolderPath is the folder store path used when no config file exists.
const DefaultFolderPath = "assets"

// DefaultMaxSourceSize is the default limit for thumbnail source images.
const DefaultMaxSourceSize = 32 * bytesize.MiB

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values are replaced with defaults; explicit values are preserved.
// The asset store section has no defaults: a missing assetStore:type is a
// configuration error when the store is resolved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyMetricsDefaults(&cfg.Metrics)
	applyThumbnailDefaults(&cfg.Thumbnails)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}

	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// applyShutdownTimeoutDefaults sets shutdown timeout defaults.
func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyThumbnailDefaults sets thumbnail defaults.
func applyThumbnailDefaults(cfg *ThumbnailsConfig) {
	if cfg.MaxSourceSize == 0 {
		cfg.MaxSourceSize = DefaultMaxSourceSize
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
// The asset store defaults to a folder named "assets" in the working
// directory.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		AssetStore: AssetStoreConfig{
			Type:   assetstore.KindFolder.String(),
			Folder: FolderConfig{Path: DefaultFolderPath},
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
