package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/marmos91/assetd/pkg/assetstore"
)

// KeyDelimiter separates the segments of a configuration key.
const KeyDelimiter = ":"

// Asset store configuration keys.
const (
	KeyType = "assetStore:type"

	KeyFolderPath = "assetStore:folder:path"

	KeyGoogleCloudBucket          = "assetStore:googleCloud:bucket"
	KeyGoogleCloudCredentialsFile = "assetStore:googleCloud:credentialsFile"

	KeyAzureBlobConnectionString = "assetStore:azureBlob:connectionString"
	KeyAzureBlobContainerName    = "assetStore:azureBlob:containerName"

	KeyMongoDbConfiguration = "assetStore:mongoDb:configuration"
	KeyMongoDbDatabase      = "assetStore:mongoDb:database"
	KeyMongoDbBucket        = "assetStore:mongoDb:bucket"

	KeyAmazonS3Bucket         = "assetStore:amazonS3:bucket"
	KeyAmazonS3BucketFolder   = "assetStore:amazonS3:bucketFolder"
	KeyAmazonS3RegionName     = "assetStore:amazonS3:regionName"
	KeyAmazonS3ServiceURL     = "assetStore:amazonS3:serviceUrl"
	KeyAmazonS3AccessKey      = "assetStore:amazonS3:accessKey"
	KeyAmazonS3SecretKey      = "assetStore:amazonS3:secretKey"
	KeyAmazonS3ForcePathStyle = "assetStore:amazonS3:forcePathStyle"
)

// AssetStoreKeys returns every asset store configuration key.
func AssetStoreKeys() []string {
	return []string{
		KeyType,
		KeyFolderPath,
		KeyGoogleCloudBucket,
		KeyGoogleCloudCredentialsFile,
		KeyAzureBlobConnectionString,
		KeyAzureBlobContainerName,
		KeyMongoDbConfiguration,
		KeyMongoDbDatabase,
		KeyMongoDbBucket,
		KeyAmazonS3Bucket,
		KeyAmazonS3BucketFolder,
		KeyAmazonS3RegionName,
		KeyAmazonS3ServiceURL,
		KeyAmazonS3AccessKey,
		KeyAmazonS3SecretKey,
		KeyAmazonS3ForcePathStyle,
	}
}

// RequiredKeys returns the keys that must be set for kind, besides KeyType.
func RequiredKeys(kind assetstore.Kind) []string {
	switch kind {
	case assetstore.KindFolder:
		return []string{KeyFolderPath}
	case assetstore.KindGoogleCloud:
		return []string{KeyGoogleCloudBucket}
	case assetstore.KindAzureBlob:
		return []string{KeyAzureBlobConnectionString, KeyAzureBlobContainerName}
	case assetstore.KindMongoDB:
		return []string{KeyMongoDbConfiguration, KeyMongoDbDatabase, KeyMongoDbBucket}
	case assetstore.KindAmazonS3:
		return []string{KeyAmazonS3Bucket}
	default:
		return nil
	}
}

// Source is a read-only view of configuration values addressed by
// colon-separated keys. Keys are case-insensitive.
type Source interface {
	// GetRequiredValue returns the trimmed value of key.
	// Returns a *ConfigurationError if the key is absent or blank.
	GetRequiredValue(key string) (string, error)

	// GetValue returns the trimmed value of key, or "" if absent.
	GetValue(key string) string
}

// ViperSource reads values from a viper instance, which covers both the
// configuration file and ASSETD_* environment variables.
type ViperSource struct {
	v *viper.Viper
}

// NewViperSource wraps v. The instance must use KeyDelimiter.
func NewViperSource(v *viper.Viper) *ViperSource {
	return &ViperSource{v: v}
}

// GetRequiredValue implements Source.
func (s *ViperSource) GetRequiredValue(key string) (string, error) {
	return required(key, s.GetValue(key))
}

// GetValue implements Source.
func (s *ViperSource) GetValue(key string) string {
	return strings.TrimSpace(s.v.GetString(key))
}

// MapSource is an in-memory Source.
type MapSource map[string]string

// GetRequiredValue implements Source.
func (m MapSource) GetRequiredValue(key string) (string, error) {
	return required(key, m.GetValue(key))
}

// GetValue implements Source.
func (m MapSource) GetValue(key string) string {
	if value, ok := m[key]; ok {
		return strings.TrimSpace(value)
	}
	for k, value := range m {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func required(key, value string) (string, error) {
	if value == "" {
		return "", &ConfigurationError{Key: key, Reason: "is required"}
	}
	return value, nil
}
