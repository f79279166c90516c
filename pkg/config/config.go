package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/assetd/internal/bytesize"
	"github.com/marmos91/assetd/pkg/assetstore"
)

// EnvPrefix is the prefix of environment variable overrides.
// Example: ASSETD_ASSETSTORE_FOLDER_PATH=/data/assets
const EnvPrefix = "ASSETD"

// Config represents the assetd configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (ASSETD_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// AssetStore selects and configures the asset store backend.
	// It is read through Source by the store factory, so only the keys of
	// the selected type matter.
	AssetStore AssetStoreConfig `mapstructure:"assetstore" yaml:"assetStore"`

	// Thumbnails configures thumbnail generation
	Thumbnails ThumbnailsConfig `mapstructure:"thumbnails" yaml:"thumbnails"`

	// source is the viper-backed view used to resolve the asset store.
	// Nil for configs that were not loaded from a file.
	source Source
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// Default: 1.0 (sample all)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL)
	// Default: "http://localhost:4040"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	// Valid values: cpu, alloc_objects, alloc_space, inuse_objects, inuse_space,
	//               goroutines, mutex_count, mutex_duration, block_count, block_duration
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP server are enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// ThumbnailsConfig configures thumbnail generation.
type ThumbnailsConfig struct {
	// MaxSourceSize is the largest image accepted as thumbnail source.
	// Supports human-readable formats: "32MiB", "10MB"
	// Default: 32MiB
	MaxSourceSize bytesize.ByteSize `mapstructure:"max_source_size" yaml:"max_source_size,omitempty"`
}

// AssetStoreConfig mirrors the assetStore:* keys.
type AssetStoreConfig struct {
	// Type selects the backend: Folder, GoogleCloud, AzureBlob, MongoDb or AmazonS3
	Type string `mapstructure:"type" yaml:"type" jsonschema:"enum=Folder,enum=GoogleCloud,enum=AzureBlob,enum=MongoDb,enum=AmazonS3"`

	Folder      FolderConfig      `mapstructure:"folder" yaml:"folder,omitempty"`
	GoogleCloud GoogleCloudConfig `mapstructure:"googlecloud" yaml:"googleCloud,omitempty"`
	AzureBlob   AzureBlobConfig   `mapstructure:"azureblob" yaml:"azureBlob,omitempty"`
	MongoDb     MongoDbConfig     `mapstructure:"mongodb" yaml:"mongoDb,omitempty"`
	AmazonS3    AmazonS3Config    `mapstructure:"amazons3" yaml:"amazonS3,omitempty"`
}

// FolderConfig holds assetStore:folder:* keys.
type FolderConfig struct {
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

// GoogleCloudConfig holds assetStore:googleCloud:* keys.
type GoogleCloudConfig struct {
	Bucket          string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	CredentialsFile string `mapstructure:"credentialsfile" yaml:"credentialsFile,omitempty"`
}

// AzureBlobConfig holds assetStore:azureBlob:* keys.
type AzureBlobConfig struct {
	ConnectionString string `mapstructure:"connectionstring" yaml:"connectionString,omitempty"`
	ContainerName    string `mapstructure:"containername" yaml:"containerName,omitempty"`
}

// MongoDbConfig holds assetStore:mongoDb:* keys.
type MongoDbConfig struct {
	// Configuration is the MongoDB connection string.
	Configuration string `mapstructure:"configuration" yaml:"configuration,omitempty"`
	Database      string `mapstructure:"database" yaml:"database,omitempty"`
	Bucket        string `mapstructure:"bucket" yaml:"bucket,omitempty"`
}

// AmazonS3Config holds assetStore:amazonS3:* keys.
type AmazonS3Config struct {
	Bucket         string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	BucketFolder   string `mapstructure:"bucketfolder" yaml:"bucketFolder,omitempty"`
	RegionName     string `mapstructure:"regionname" yaml:"regionName,omitempty"`
	ServiceURL     string `mapstructure:"serviceurl" yaml:"serviceUrl,omitempty"`
	AccessKey      string `mapstructure:"accesskey" yaml:"accessKey,omitempty"`
	SecretKey      string `mapstructure:"secretkey" yaml:"secretKey,omitempty"`
	ForcePathStyle bool   `mapstructure:"forcepathstyle" yaml:"forcePathStyle,omitempty"`
}

// Source returns a Source over the typed values.
func (c AssetStoreConfig) Source() MapSource {
	return MapSource{
		KeyType:                       c.Type,
		KeyFolderPath:                 c.Folder.Path,
		KeyGoogleCloudBucket:          c.GoogleCloud.Bucket,
		KeyGoogleCloudCredentialsFile: c.GoogleCloud.CredentialsFile,
		KeyAzureBlobConnectionString:  c.AzureBlob.ConnectionString,
		KeyAzureBlobContainerName:     c.AzureBlob.ContainerName,
		KeyMongoDbConfiguration:       c.MongoDb.Configuration,
		KeyMongoDbDatabase:            c.MongoDb.Database,
		KeyMongoDbBucket:              c.MongoDb.Bucket,
		KeyAmazonS3Bucket:             c.AmazonS3.Bucket,
		KeyAmazonS3BucketFolder:       c.AmazonS3.BucketFolder,
		KeyAmazonS3RegionName:         c.AmazonS3.RegionName,
		KeyAmazonS3ServiceURL:         c.AmazonS3.ServiceURL,
		KeyAmazonS3AccessKey:          c.AmazonS3.AccessKey,
		KeyAmazonS3SecretKey:          c.AmazonS3.SecretKey,
		KeyAmazonS3ForcePathStyle:     fmt.Sprint(c.AmazonS3.ForcePathStyle),
	}
}

// Set assigns the asset store key to value. Keys are case-insensitive.
func (c *AssetStoreConfig) Set(key, value string) error {
	fields := map[string]*string{
		KeyType:                       &c.Type,
		KeyFolderPath:                 &c.Folder.Path,
		KeyGoogleCloudBucket:          &c.GoogleCloud.Bucket,
		KeyGoogleCloudCredentialsFile: &c.GoogleCloud.CredentialsFile,
		KeyAzureBlobConnectionString:  &c.AzureBlob.ConnectionString,
		KeyAzureBlobContainerName:     &c.AzureBlob.ContainerName,
		KeyMongoDbConfiguration:       &c.MongoDb.Configuration,
		KeyMongoDbDatabase:            &c.MongoDb.Database,
		KeyMongoDbBucket:              &c.MongoDb.Bucket,
		KeyAmazonS3Bucket:             &c.AmazonS3.Bucket,
		KeyAmazonS3BucketFolder:       &c.AmazonS3.BucketFolder,
		KeyAmazonS3RegionName:         &c.AmazonS3.RegionName,
		KeyAmazonS3ServiceURL:         &c.AmazonS3.ServiceURL,
		KeyAmazonS3AccessKey:          &c.AmazonS3.AccessKey,
		KeyAmazonS3SecretKey:          &c.AmazonS3.SecretKey,
	}

	for k, field := range fields {
		if strings.EqualFold(k, key) {
			*field = value
			return nil
		}
	}

	if strings.EqualFold(key, KeyAmazonS3ForcePathStyle) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return &ConfigurationError{Key: KeyAmazonS3ForcePathStyle, Value: value, Reason: "is not a boolean"}
		}
		c.AmazonS3.ForcePathStyle = b
		return nil
	}

	return fmt.Errorf("unknown asset store key %q", key)
}

// AssetStoreSource returns the source the asset store is resolved from.
// Configs loaded from a file read through viper (file and environment);
// others read the typed AssetStore section.
func (c *Config) AssetStoreSource() Source {
	if c.source != nil {
		return c.source
	}
	return c.AssetStore.Source()
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (ASSETD_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := newViper()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	// Without a file the default folder store applies unless the
	// environment selects another one.
	if !configFileFound {
		v.SetDefault(KeyType, assetstore.KindFolder.String())
		v.SetDefault(KeyFolderPath, DefaultFolderPath)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.source = NewViperSource(v)

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides user-friendly instructions if not.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  assetd init\n\n"+
				"Or specify a custom config file:\n"+
				"  assetd <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  assetd init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Owner read/write only: connection strings carry credentials.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// newViper returns a viper instance using ":" as key delimiter, so keys read
// like "assetStore:folder:path".
func newViper() *viper.Viper {
	return viper.NewWithOptions(viper.KeyDelimiter(KeyDelimiter))
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use ASSETD_ prefix and underscores
	// Example: ASSETD_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(KeyDelimiter, "_", ".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only applies to keys viper knows about. Bind the asset
	// store keys so env-only settings reach Unmarshal as well.
	for _, key := range AssetStoreKeys() {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/assetd/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook converts strings and numbers to bytesize.ByteSize, so
// config files can use sizes like "32MiB" or plain byte counts.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings like "30s" to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "assetd")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "assetd")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
