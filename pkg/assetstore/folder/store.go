// Package folder provides a filesystem-backed asset store backend.
package folder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/marmos91/assetd/internal/logger"
	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/bufpool"
)

// Config holds configuration for the folder backend.
type Config struct {
	// Path is the directory holding asset files.
	// Relative paths are resolved against the working directory.
	Path string

	// DirMode is the permission mode for created directories.
	// Default: 0755
	DirMode os.FileMode

	// FileMode is the permission mode for created files.
	// Default: 0644
	FileMode os.FileMode
}

// Backend stores every object as a single file below Path.
type Backend struct {
	path     string
	dirMode  os.FileMode
	fileMode os.FileMode
}

// New creates a folder backend. The directory is created by Initialize.
func New(cfg Config) (*Backend, error) {
	if cfg.Path == "" {
		return nil, errors.New("folder path is required")
	}

	path, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve folder path: %w", err)
	}

	if cfg.DirMode == 0 {
		cfg.DirMode = 0755
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0644
	}

	return &Backend{
		path:     path,
		dirMode:  cfg.DirMode,
		fileMode: cfg.FileMode,
	}, nil
}

// NewStore creates a folder asset store.
func NewStore(cfg Config) (*assetstore.BoundStore, error) {
	b, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return assetstore.Bind(assetstore.KindFolder, b), nil
}

// Path returns the absolute directory of the backend.
func (b *Backend) Path() string {
	return b.path
}

func (b *Backend) objectPath(key string) string {
	return filepath.Join(b.path, key)
}

// Initialize creates the asset directory if it doesn't exist.
func (b *Backend) Initialize(ctx context.Context) error {
	if err := os.MkdirAll(b.path, b.dirMode); err != nil {
		return fmt.Errorf("create asset folder: %w", err)
	}

	info, err := os.Stat(b.path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("asset folder %s is not a directory", b.path)
	}

	logger.Info("Initialized folder asset store", "path", b.path)
	return nil
}

// Put writes the object to a temporary file and hard-links it into place.
// Linking fails if the target exists, which makes the write both atomic
// and no-clobber.
func (b *Backend) Put(ctx context.Context, key string, content io.Reader) error {
	tmp, err := os.CreateTemp(b.path, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := bufpool.Copy(tmp, content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Chmod(tmpPath, b.fileMode); err != nil {
		return err
	}

	if err := os.Link(tmpPath, b.objectPath(key)); err != nil {
		if errors.Is(err, os.ErrExist) {
			return assetstore.ErrAssetAlreadyExists
		}
		return fmt.Errorf("publish %s: %w", key, err)
	}

	return nil
}

// Get copies the object file into w.
func (b *Backend) Get(ctx context.Context, key string, w io.Writer) error {
	f, err := os.Open(b.objectPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return assetstore.ErrAssetNotFound
		}
		return err
	}
	defer f.Close()

	if _, err := bufpool.Copy(w, f); err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	return nil
}

// Copy duplicates an object file.
func (b *Backend) Copy(ctx context.Context, src, dst string) error {
	f, err := os.Open(b.objectPath(src))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return assetstore.ErrAssetNotFound
		}
		return err
	}
	defer f.Close()

	return b.Put(ctx, dst, f)
}

// Remove deletes the object file.
func (b *Backend) Remove(ctx context.Context, key string) error {
	err := os.Remove(b.objectPath(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// URL returns the absolute file path of the object.
func (b *Backend) URL(key string) string {
	return b.objectPath(key)
}

// HealthCheck verifies the directory is accessible.
func (b *Backend) HealthCheck(ctx context.Context) error {
	info, err := os.Stat(b.path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("asset folder %s is not a directory", b.path)
	}
	return nil
}

// Close is a no-op; files are closed after every operation.
func (b *Backend) Close() error {
	return nil
}

// Ensure Backend implements assetstore.Backend.
var _ assetstore.Backend = (*Backend)(nil)
