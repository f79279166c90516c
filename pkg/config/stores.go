package config

import (
	"context"
	"fmt"
	"strconv"

	"github.com/marmos91/assetd/internal/logger"
	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/assetstore/amazons3"
	"github.com/marmos91/assetd/pkg/assetstore/azureblob"
	"github.com/marmos91/assetd/pkg/assetstore/folder"
	"github.com/marmos91/assetd/pkg/assetstore/googlecloud"
	"github.com/marmos91/assetd/pkg/assetstore/mongogridfs"
	"github.com/marmos91/assetd/pkg/clients"
)

// BackendConfig is the parameter set of one asset store kind.
// The set of implementations is closed: FolderOptions, GoogleCloudOptions,
// AzureBlobOptions, MongoDbOptions and AmazonS3Options.
type BackendConfig interface {
	// Kind returns the backend kind the options belong to.
	Kind() assetstore.Kind

	backendConfig()
}

// FolderOptions configures the Folder backend.
type FolderOptions struct {
	Path string
}

// GoogleCloudOptions configures the GoogleCloud backend.
type GoogleCloudOptions struct {
	Bucket string

	// CredentialsFile is a service account key file. Empty uses
	// Application Default Credentials.
	CredentialsFile string
}

// AzureBlobOptions configures the AzureBlob backend.
type AzureBlobOptions struct {
	ConnectionString string
	ContainerName    string
}

// MongoDbOptions configures the MongoDb backend.
type MongoDbOptions struct {
	// Configuration is the MongoDB connection string. It also keys the
	// shared client in the client registry.
	Configuration string
	Database      string
	Bucket        string
}

// AmazonS3Options configures the AmazonS3 backend.
type AmazonS3Options struct {
	Bucket         string
	BucketFolder   string
	RegionName     string
	ServiceURL     string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
}

func (FolderOptions) Kind() assetstore.Kind      { return assetstore.KindFolder }
func (GoogleCloudOptions) Kind() assetstore.Kind { return assetstore.KindGoogleCloud }
func (AzureBlobOptions) Kind() assetstore.Kind   { return assetstore.KindAzureBlob }
func (MongoDbOptions) Kind() assetstore.Kind     { return assetstore.KindMongoDB }
func (AmazonS3Options) Kind() assetstore.Kind    { return assetstore.KindAmazonS3 }

func (FolderOptions) backendConfig()      {}
func (GoogleCloudOptions) backendConfig() {}
func (AzureBlobOptions) backendConfig()   {}
func (MongoDbOptions) backendConfig()     {}
func (AmazonS3Options) backendConfig()    {}

// ReadBackendConfig reads assetStore:type and then only the keys of the
// selected kind.
//
// Returns a *ConfigurationError if the type is missing or unknown, or if a
// required key of the selected kind is missing.
func ReadBackendConfig(src Source) (BackendConfig, error) {
	value, err := src.GetRequiredValue(KeyType)
	if err != nil {
		return nil, err
	}

	kind, err := assetstore.ParseKind(value)
	if err != nil {
		return nil, &ConfigurationError{
			Key:    KeyType,
			Value:  value,
			Reason: "is not a valid asset store type",
			Valid:  assetstore.KindNames(),
		}
	}

	switch kind {
	case assetstore.KindFolder:
		path, err := src.GetRequiredValue(KeyFolderPath)
		if err != nil {
			return nil, err
		}
		return FolderOptions{Path: path}, nil

	case assetstore.KindGoogleCloud:
		bucket, err := src.GetRequiredValue(KeyGoogleCloudBucket)
		if err != nil {
			return nil, err
		}
		return GoogleCloudOptions{
			Bucket:          bucket,
			CredentialsFile: src.GetValue(KeyGoogleCloudCredentialsFile),
		}, nil

	case assetstore.KindAzureBlob:
		connectionString, err := src.GetRequiredValue(KeyAzureBlobConnectionString)
		if err != nil {
			return nil, err
		}
		containerName, err := src.GetRequiredValue(KeyAzureBlobContainerName)
		if err != nil {
			return nil, err
		}
		return AzureBlobOptions{
			ConnectionString: connectionString,
			ContainerName:    containerName,
		}, nil

	case assetstore.KindMongoDB:
		configuration, err := src.GetRequiredValue(KeyMongoDbConfiguration)
		if err != nil {
			return nil, err
		}
		database, err := src.GetRequiredValue(KeyMongoDbDatabase)
		if err != nil {
			return nil, err
		}
		bucket, err := src.GetRequiredValue(KeyMongoDbBucket)
		if err != nil {
			return nil, err
		}
		return MongoDbOptions{
			Configuration: configuration,
			Database:      database,
			Bucket:        bucket,
		}, nil

	case assetstore.KindAmazonS3:
		return readAmazonS3Options(src)
	}

	return nil, fmt.Errorf("asset store type %s has no configuration reader", kind)
}

func readAmazonS3Options(src Source) (BackendConfig, error) {
	bucket, err := src.GetRequiredValue(KeyAmazonS3Bucket)
	if err != nil {
		return nil, err
	}

	opts := AmazonS3Options{
		Bucket:       bucket,
		BucketFolder: src.GetValue(KeyAmazonS3BucketFolder),
		RegionName:   src.GetValue(KeyAmazonS3RegionName),
		ServiceURL:   src.GetValue(KeyAmazonS3ServiceURL),
		AccessKey:    src.GetValue(KeyAmazonS3AccessKey),
		SecretKey:    src.GetValue(KeyAmazonS3SecretKey),
	}

	if raw := src.GetValue(KeyAmazonS3ForcePathStyle); raw != "" {
		forcePathStyle, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, &ConfigurationError{
				Key:    KeyAmazonS3ForcePathStyle,
				Value:  raw,
				Reason: "is not a boolean",
			}
		}
		opts.ForcePathStyle = forcePathStyle
	}

	return opts, nil
}

// OpenAssetStore constructs the store described by cfg. SDK clients are
// taken from reg, so stores with equal connection settings share a client.
// The store is not initialized.
func OpenAssetStore(ctx context.Context, cfg BackendConfig, reg *clients.Registry) (assetstore.AssetStore, error) {
	switch c := cfg.(type) {
	case FolderOptions:
		return createFolderStore(c)
	case GoogleCloudOptions:
		return createGoogleCloudStore(ctx, c, reg)
	case AzureBlobOptions:
		return createAzureBlobStore(c, reg)
	case MongoDbOptions:
		return createMongoDbStore(c, reg)
	case AmazonS3Options:
		return createAmazonS3Store(ctx, c, reg)
	default:
		return nil, fmt.Errorf("unsupported asset store configuration %T", cfg)
	}
}

// ResolveAssetStore reads the backend configuration from src and opens the
// store. No other kind is tried if this one fails.
func ResolveAssetStore(ctx context.Context, src Source, reg *clients.Registry) (assetstore.AssetStore, error) {
	cfg, err := ReadBackendConfig(src)
	if err != nil {
		return nil, err
	}

	logger.Debug("Resolving asset store", logger.KeyKind, cfg.Kind().String())

	store, err := OpenAssetStore(ctx, cfg, reg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s asset store: %w", cfg.Kind(), err)
	}
	return store, nil
}

// createFolderStore creates a filesystem asset store.
func createFolderStore(c FolderOptions) (assetstore.AssetStore, error) {
	store, err := folder.NewStore(folder.Config{Path: c.Path})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// createGoogleCloudStore creates a Cloud Storage asset store.
func createGoogleCloudStore(ctx context.Context, c GoogleCloudOptions, reg *clients.Registry) (assetstore.AssetStore, error) {
	client, err := reg.GoogleCloud(ctx, c.CredentialsFile)
	if err != nil {
		return nil, err
	}
	store, err := googlecloud.NewStore(client, googlecloud.Config{Bucket: c.Bucket})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// createAzureBlobStore creates an Azure Blob asset store.
func createAzureBlobStore(c AzureBlobOptions, reg *clients.Registry) (assetstore.AssetStore, error) {
	client, err := reg.AzureBlob(c.ConnectionString)
	if err != nil {
		return nil, err
	}
	store, err := azureblob.NewStore(client, azureblob.Config{ContainerName: c.ContainerName})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// createMongoDbStore creates a GridFS asset store.
func createMongoDbStore(c MongoDbOptions, reg *clients.Registry) (assetstore.AssetStore, error) {
	client, err := reg.Mongo(c.Configuration)
	if err != nil {
		return nil, err
	}
	store, err := mongogridfs.NewStore(client, mongogridfs.Config{
		Database: c.Database,
		Bucket:   c.Bucket,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// createAmazonS3Store creates an S3 asset store.
func createAmazonS3Store(ctx context.Context, c AmazonS3Options, reg *clients.Registry) (assetstore.AssetStore, error) {
	client, err := reg.AmazonS3(ctx, clients.S3Options{
		Region:         c.RegionName,
		Endpoint:       c.ServiceURL,
		AccessKey:      c.AccessKey,
		SecretKey:      c.SecretKey,
		ForcePathStyle: c.ForcePathStyle,
	})
	if err != nil {
		return nil, err
	}
	store, err := amazons3.NewStore(client, amazons3.Config{
		Bucket:       c.Bucket,
		BucketFolder: c.BucketFolder,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}
