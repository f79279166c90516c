// Package clients caches SDK clients for the lifetime of the process.
//
// Cloud SDK clients hold connection pools and credentials and are meant to
// be shared. Clients are keyed by their connection settings: two stores
// configured with the same connection string share one client.
package clients

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrClosed is returned by GetOrAdd after Close.
var ErrClosed = errors.New("client cache is closed")

// Singletons caches one value per key. The factory for a key runs at most
// once at a time; concurrent callers for the same key wait for and share
// its result. Failed constructions are not cached.
type Singletons[T any] struct {
	mu     sync.Mutex
	items  map[string]T
	closed bool
	group  singleflight.Group
	closer func(T) error
}

// NewSingletons creates an empty cache. closer releases a value on Close
// and may be nil.
func NewSingletons[T any](closer func(T) error) *Singletons[T] {
	return &Singletons[T]{
		items:  make(map[string]T),
		closer: closer,
	}
}

func (s *Singletons[T]) lookup(key string) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if s.closed {
		return zero, false, ErrClosed
	}
	v, ok := s.items[key]
	return v, ok, nil
}

// GetOrAdd returns the value cached under key, constructing it with factory
// when absent.
func (s *Singletons[T]) GetOrAdd(key string, factory func() (T, error)) (T, error) {
	var zero T

	if v, ok, err := s.lookup(key); err != nil || ok {
		return v, err
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		// A previous flight may have stored the value between our lookup
		// and joining the group.
		if v, ok, err := s.lookup(key); err != nil || ok {
			return v, err
		}

		created, err := factory()
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			if s.closer != nil {
				_ = s.closer(created)
			}
			return nil, ErrClosed
		}
		s.items[key] = created
		return created, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// Len returns the number of cached values.
func (s *Singletons[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Close releases every cached value. Further GetOrAdd calls fail with
// ErrClosed. Close is idempotent.
func (s *Singletons[T]) Close() error {
	s.mu.Lock()
	items := s.items
	s.items = make(map[string]T)
	s.closed = true
	s.mu.Unlock()

	if s.closer == nil {
		return nil
	}

	var errs []error
	for key, v := range items {
		if err := s.closer(v); err != nil {
			errs = append(errs, fmt.Errorf("close client %s: %w", redact(key), err))
		}
	}
	return errors.Join(errs...)
}
