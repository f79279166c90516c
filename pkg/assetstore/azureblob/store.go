// Package azureblob provides an Azure Blob Storage asset store backend.
package azureblob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/marmos91/assetd/internal/logger"
	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/bufpool"
)

// Config holds configuration for the Azure Blob backend.
type Config struct {
	// ContainerName is the blob container holding assets.
	ContainerName string
}

// container abstracts the blob container operations the backend needs.
type container interface {
	Create(ctx context.Context) error
	Properties(ctx context.Context) error
	// Upload writes a blob, failing if it already exists.
	Upload(ctx context.Context, name string, r io.Reader) error
	Download(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

type blobContainer struct {
	client *azblob.Client
	name   string
}

func (c blobContainer) Create(ctx context.Context) error {
	_, err := c.client.CreateContainer(ctx, c.name, nil)
	return err
}

func (c blobContainer) Properties(ctx context.Context) error {
	_, err := c.client.ServiceClient().NewContainerClient(c.name).GetProperties(ctx, nil)
	return err
}

func (c blobContainer) Upload(ctx context.Context, name string, r io.Reader) error {
	_, err := c.client.UploadStream(ctx, c.name, name, r, &azblob.UploadStreamOptions{
		AccessConditions: &blob.AccessConditions{
			ModifiedAccessConditions: &blob.ModifiedAccessConditions{
				IfNoneMatch: to.Ptr(azcore.ETagAny),
			},
		},
	})
	return err
}

func (c blobContainer) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := c.client.DownloadStream(ctx, c.name, name, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c blobContainer) Delete(ctx context.Context, name string) error {
	_, err := c.client.DeleteBlob(ctx, c.name, name, nil)
	return err
}

func (c blobContainer) URL(name string) string {
	return strings.TrimSuffix(c.client.URL(), "/") + "/" + c.name + "/" + url.PathEscape(name)
}

// Backend stores assets as block blobs in a single container.
type Backend struct {
	name      string
	container container
}

// New creates a backend on top of a shared client.
func New(client *azblob.Client, cfg Config) (*Backend, error) {
	if cfg.ContainerName == "" {
		return nil, errors.New("azure blob container name is required")
	}
	return &Backend{
		name:      cfg.ContainerName,
		container: blobContainer{client: client, name: cfg.ContainerName},
	}, nil
}

// NewStore creates an Azure Blob asset store.
func NewStore(client *azblob.Client, cfg Config) (*assetstore.BoundStore, error) {
	b, err := New(client, cfg)
	if err != nil {
		return nil, err
	}
	return assetstore.Bind(assetstore.KindAzureBlob, b), nil
}

// ContainerName returns the container name.
func (b *Backend) ContainerName() string {
	return b.name
}

// Initialize creates the container if it doesn't exist.
func (b *Backend) Initialize(ctx context.Context) error {
	err := b.container.Create(ctx)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("create container %s: %w", b.name, err)
	}
	logger.Info("Initialized Azure Blob asset store", logger.KeyContainer, b.name)
	return nil
}

// Put uploads content unless the blob already exists.
func (b *Backend) Put(ctx context.Context, key string, content io.Reader) error {
	err := b.container.Upload(ctx, key, content)
	if err == nil {
		return nil
	}
	if bloberror.HasCode(err, bloberror.BlobAlreadyExists, bloberror.ConditionNotMet) {
		return assetstore.ErrAssetAlreadyExists
	}
	return fmt.Errorf("upload %s: %w", key, err)
}

// Get streams the blob into w.
func (b *Backend) Get(ctx context.Context, key string, w io.Writer) error {
	body, err := b.container.Download(ctx, key)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return assetstore.ErrAssetNotFound
		}
		return fmt.Errorf("download %s: %w", key, err)
	}
	defer body.Close()

	if _, err := bufpool.CopyLarge(w, body); err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}
	return nil
}

// Copy streams src into a new blob dst.
func (b *Backend) Copy(ctx context.Context, src, dst string) error {
	return assetstore.StreamCopy(ctx, b, b, src, dst)
}

// Remove deletes the blob. Missing blobs are ignored.
func (b *Backend) Remove(ctx context.Context, key string) error {
	err := b.container.Delete(ctx, key)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// URL returns the blob URL.
func (b *Backend) URL(key string) string {
	return b.container.URL(key)
}

// HealthCheck verifies the container is reachable.
func (b *Backend) HealthCheck(ctx context.Context) error {
	return b.container.Properties(ctx)
}

// Close is a no-op; the client is owned by the client registry.
func (b *Backend) Close() error {
	return nil
}

var _ assetstore.Backend = (*Backend)(nil)
