// Package assetstore defines the asset store capabilities shared by every
// storage backend.
//
// An asset store keeps opaque byte blobs for user-uploaded files. Exactly one
// backend kind is selected per process (see pkg/config), and the resulting
// store is exposed under two capabilities:
//   - Store: upload, download and delete assets (plus temporary uploads)
//   - Initializer: a one-shot setup step run at startup before any operation
//
// Both capabilities are implemented by a single concrete type, returned by Bind.
package assetstore

import (
	"context"
	"errors"
	"io"
)

// Common errors returned by asset store implementations.
var (
	// ErrAssetNotFound is returned when a requested asset doesn't exist.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrAssetAlreadyExists is returned when writing to a key that is already taken.
	ErrAssetAlreadyExists = errors.New("asset already exists")

	// ErrInvalidRef is returned when an asset reference or temporary name cannot
	// be mapped to an object name.
	ErrInvalidRef = errors.New("invalid asset reference")

	// ErrStoreClosed is returned when operations are attempted on a closed store.
	ErrStoreClosed = errors.New("store is closed")
)

// Store is the blob storage capability.
type Store interface {
	// Upload writes the content of an asset.
	// Returns ErrAssetAlreadyExists if the asset has already been written.
	// Writes are atomic: Download never observes partial content.
	Upload(ctx context.Context, ref Ref, content io.Reader) error

	// Download copies the content of an asset into w.
	// Returns ErrAssetNotFound if the asset doesn't exist.
	Download(ctx context.Context, ref Ref, w io.Writer) error

	// Delete removes an asset.
	// Returns nil if the asset doesn't exist.
	Delete(ctx context.Context, ref Ref) error

	// UploadTemporary writes a temporary file that can later be promoted to an
	// asset with CopyTemporary.
	UploadTemporary(ctx context.Context, name string, content io.Reader) error

	// CopyTemporary copies a temporary file to its final asset location.
	// Returns ErrAssetNotFound if the temporary file doesn't exist and
	// ErrAssetAlreadyExists if the asset has already been written.
	CopyTemporary(ctx context.Context, name string, ref Ref) error

	// DeleteTemporary removes a temporary file.
	// Returns nil if the file doesn't exist.
	DeleteTemporary(ctx context.Context, name string) error

	// SourceURL returns the backend-specific location of an asset.
	SourceURL(ref Ref) string
}

// Initializer is the startup capability.
type Initializer interface {
	// Initialize prepares the backend (creates directories or containers,
	// verifies buckets, checks connectivity). It is idempotent and must
	// succeed before any Store operation is served.
	Initialize(ctx context.Context) error
}

// AssetStore is a store exposing both capabilities.
type AssetStore interface {
	Store
	Initializer

	// Kind returns the backend kind serving this store.
	Kind() Kind

	// HealthCheck verifies the backend is reachable and operational.
	HealthCheck(ctx context.Context) error

	// Close releases resources owned by the store.
	// Shared clients obtained from pkg/clients are not closed here.
	Close() error
}
