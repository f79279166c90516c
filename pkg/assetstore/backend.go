package assetstore

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// temporaryPrefix namespaces temporary files. Asset IDs may not start with
// it, so temporary keys and asset keys are disjoint.
const temporaryPrefix = "temp-"

// Backend is the key-level contract implemented by each storage technology.
// Bind turns a Backend into an AssetStore by applying asset naming and
// closed-state handling, so backends only deal with object keys.
type Backend interface {
	// Initialize prepares the backend. Must be idempotent.
	Initialize(ctx context.Context) error

	// Put writes an object.
	// Returns ErrAssetAlreadyExists if an object with this key exists.
	Put(ctx context.Context, key string, content io.Reader) error

	// Get copies an object into w.
	// Returns ErrAssetNotFound if the object doesn't exist.
	Get(ctx context.Context, key string, w io.Writer) error

	// Copy duplicates an object.
	// Returns ErrAssetNotFound if src doesn't exist and ErrAssetAlreadyExists if dst exists.
	Copy(ctx context.Context, src, dst string) error

	// Remove deletes an object. Returns nil if the object doesn't exist.
	Remove(ctx context.Context, key string) error

	// URL returns the backend-specific location of an object.
	URL(key string) string

	// HealthCheck verifies the backend is accessible.
	HealthCheck(ctx context.Context) error

	// Close releases resources owned by the backend.
	Close() error
}

// TemporaryKey returns the object key of a temporary file.
func TemporaryKey(name string) string {
	return temporaryPrefix + name
}

// Bind wraps a backend into an AssetStore of the given kind.
func Bind(kind Kind, backend Backend) *BoundStore {
	return &BoundStore{
		kind:    kind,
		backend: backend,
	}
}

// BoundStore implements AssetStore on top of a Backend.
type BoundStore struct {
	kind    Kind
	backend Backend

	mu     sync.RWMutex
	closed bool
}

// Kind returns the backend kind serving this store.
func (s *BoundStore) Kind() Kind {
	return s.kind
}

// Backend returns the underlying backend.
func (s *BoundStore) Backend() Backend {
	return s.backend
}

func (s *BoundStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Initialize runs the backend's setup step.
func (s *BoundStore) Initialize(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.backend.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize %s asset store: %w", s.kind, err)
	}
	return nil
}

// Upload writes the content of an asset.
func (s *BoundStore) Upload(ctx context.Context, ref Ref, content io.Reader) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ref.Validate(); err != nil {
		return err
	}
	return s.backend.Put(ctx, ref.Key(), content)
}

// Download copies the content of an asset into w.
func (s *BoundStore) Download(ctx context.Context, ref Ref, w io.Writer) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ref.Validate(); err != nil {
		return err
	}
	return s.backend.Get(ctx, ref.Key(), w)
}

// Delete removes an asset.
func (s *BoundStore) Delete(ctx context.Context, ref Ref) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ref.Validate(); err != nil {
		return err
	}
	return s.backend.Remove(ctx, ref.Key())
}

// UploadTemporary writes a temporary file.
func (s *BoundStore) UploadTemporary(ctx context.Context, name string, content io.Reader) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ValidateTemporaryName(name); err != nil {
		return err
	}
	return s.backend.Put(ctx, TemporaryKey(name), content)
}

// CopyTemporary copies a temporary file to its final asset location.
func (s *BoundStore) CopyTemporary(ctx context.Context, name string, ref Ref) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ValidateTemporaryName(name); err != nil {
		return err
	}
	if err := ref.Validate(); err != nil {
		return err
	}
	return s.backend.Copy(ctx, TemporaryKey(name), ref.Key())
}

// DeleteTemporary removes a temporary file.
func (s *BoundStore) DeleteTemporary(ctx context.Context, name string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ValidateTemporaryName(name); err != nil {
		return err
	}
	return s.backend.Remove(ctx, TemporaryKey(name))
}

// SourceURL returns the backend-specific location of an asset.
func (s *BoundStore) SourceURL(ref Ref) string {
	return s.backend.URL(ref.Key())
}

// HealthCheck verifies the backend is reachable.
func (s *BoundStore) HealthCheck(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.backend.HealthCheck(ctx)
}

// Close marks the store as closed and closes the backend.
// Calling Close more than once is a no-op.
func (s *BoundStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.backend.Close()
}

// Ensure BoundStore implements AssetStore.
var _ AssetStore = (*BoundStore)(nil)
