// Package memory provides an in-memory asset store backend for testing.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/marmos91/assetd/pkg/assetstore"
)

// Backend is an in-memory implementation of assetstore.Backend.
type Backend struct {
	mu          sync.RWMutex
	objects     map[string][]byte
	initialized int
}

// New creates a new in-memory backend.
func New() *Backend {
	return &Backend{
		objects: make(map[string][]byte),
	}
}

// NewStore creates an in-memory asset store. The kind is reported by the
// store only; it doesn't change behavior.
func NewStore(kind assetstore.Kind) *assetstore.BoundStore {
	return assetstore.Bind(kind, New())
}

// Initialize counts invocations so tests can assert on initialization.
func (b *Backend) Initialize(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.initialized++
	return nil
}

// Put stores a copy of the content.
func (b *Backend) Put(ctx context.Context, key string, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[key]; exists {
		return assetstore.ErrAssetAlreadyExists
	}
	b.objects[key] = data
	return nil
}

// Get writes the stored content into w.
func (b *Backend) Get(ctx context.Context, key string, w io.Writer) error {
	b.mu.RLock()
	data, ok := b.objects[key]
	b.mu.RUnlock()

	if !ok {
		return assetstore.ErrAssetNotFound
	}

	_, err := io.Copy(w, bytes.NewReader(data))
	return err
}

// Copy duplicates an object.
func (b *Backend) Copy(ctx context.Context, src, dst string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, ok := b.objects[src]
	if !ok {
		return assetstore.ErrAssetNotFound
	}
	if _, exists := b.objects[dst]; exists {
		return assetstore.ErrAssetAlreadyExists
	}

	// Stored slices are never mutated, sharing is fine.
	b.objects[dst] = data
	return nil
}

// Remove deletes an object.
func (b *Backend) Remove(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.objects, key)
	return nil
}

// URL returns a pseudo URL for the object.
func (b *Backend) URL(key string) string {
	return fmt.Sprintf("memory://%s", key)
}

// HealthCheck always succeeds.
func (b *Backend) HealthCheck(ctx context.Context) error {
	return nil
}

// Close drops all objects.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects = make(map[string][]byte)
	return nil
}

// Keys returns all stored keys, sorted (for testing).
func (b *Backend) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.objects))
	for key := range b.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// InitializeCount returns how many times Initialize was called (for testing).
func (b *Backend) InitializeCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.initialized
}

// Ensure Backend implements assetstore.Backend.
var _ assetstore.Backend = (*Backend)(nil)
