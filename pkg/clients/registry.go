package clients

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/api/option"

	"github.com/marmos91/assetd/internal/logger"
)

const disconnectTimeout = 10 * time.Second

// S3Options identifies an Amazon S3 client.
type S3Options struct {
	Region         string
	Endpoint       string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
}

func (o S3Options) cacheKey() string {
	return strings.Join([]string{o.Region, o.Endpoint, o.AccessKey, o.SecretKey, fmt.Sprint(o.ForcePathStyle)}, "|")
}

// Registry owns the SDK clients used by asset store backends. A client is
// created on first use for its connection settings and reused afterwards.
type Registry struct {
	mongo *Singletons[*mongo.Client]
	azure *Singletons[*azblob.Client]
	gcs   *Singletons[*storage.Client]
	s3    *Singletons[*s3.Client]
}

// NewRegistry creates an empty client registry.
func NewRegistry() *Registry {
	return &Registry{
		mongo: NewSingletons(func(c *mongo.Client) error {
			ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
			defer cancel()
			return c.Disconnect(ctx)
		}),
		azure: NewSingletons[*azblob.Client](nil),
		gcs: NewSingletons(func(c *storage.Client) error {
			return c.Close()
		}),
		s3: NewSingletons[*s3.Client](nil),
	}
}

// Mongo returns the client for a MongoDB connection string. The driver
// connects lazily, so this does not contact the server.
func (r *Registry) Mongo(connectionString string) (*mongo.Client, error) {
	return r.mongo.GetOrAdd(connectionString, func() (*mongo.Client, error) {
		opts := options.Client().ApplyURI(connectionString)
		if opts.AppName == nil {
			opts.SetAppName("assetd")
		}

		client, err := mongo.Connect(context.Background(), opts)
		if err != nil {
			return nil, fmt.Errorf("create mongodb client: %w", err)
		}

		logger.Debug("Created MongoDB client", "connection", redact(connectionString))
		return client, nil
	})
}

// AzureBlob returns the client for an Azure Storage connection string.
func (r *Registry) AzureBlob(connectionString string) (*azblob.Client, error) {
	return r.azure.GetOrAdd(connectionString, func() (*azblob.Client, error) {
		client, err := azblob.NewClientFromConnectionString(connectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("create azure blob client: %w", err)
		}

		logger.Debug("Created Azure Blob client", "url", client.URL())
		return client, nil
	})
}

// GoogleCloud returns a Cloud Storage client. An empty credentialsFile uses
// Application Default Credentials.
func (r *Registry) GoogleCloud(ctx context.Context, credentialsFile string) (*storage.Client, error) {
	return r.gcs.GetOrAdd(credentialsFile, func() (*storage.Client, error) {
		var opts []option.ClientOption
		if credentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(credentialsFile))
		}

		// The client outlives ctx.
		client, err := storage.NewClient(context.WithoutCancel(ctx), opts...)
		if err != nil {
			return nil, fmt.Errorf("create google cloud storage client: %w", err)
		}

		logger.Debug("Created Google Cloud Storage client", "credentials_file", credentialsFile)
		return client, nil
	})
}

// AmazonS3 returns an S3 client for the given settings.
func (r *Registry) AmazonS3(ctx context.Context, o S3Options) (*s3.Client, error) {
	return r.s3.GetOrAdd(o.cacheKey(), func() (*s3.Client, error) {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if o.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(o.Region))
		}
		if o.AccessKey != "" {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, ""),
			))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(context.WithoutCancel(ctx), loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		client := s3.NewFromConfig(awsCfg, func(so *s3.Options) {
			if o.Endpoint != "" {
				so.BaseEndpoint = aws.String(o.Endpoint)
			}
			so.UsePathStyle = o.ForcePathStyle
		})

		logger.Debug("Created Amazon S3 client", "region", o.Region, "endpoint", o.Endpoint)
		return client, nil
	})
}

// Len returns the number of clients currently cached.
func (r *Registry) Len() int {
	return r.mongo.Len() + r.azure.Len() + r.gcs.Len() + r.s3.Len()
}

// Close releases all clients. The registry cannot be used afterwards.
func (r *Registry) Close() error {
	return errors.Join(
		r.mongo.Close(),
		r.azure.Close(),
		r.gcs.Close(),
		r.s3.Close(),
	)
}

// redact hides credentials embedded in connection strings.
func redact(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "sha256:" + hex.EncodeToString(sum[:4])
}
