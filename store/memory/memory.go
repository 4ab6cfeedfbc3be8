// Package memory provides an in-memory SessionStore, used in tests and as
// a fallback when no durable medium is available.
package memory

import (
	"context"
	"sync"
)

// Store implements authclient.SessionStore with a mutex-guarded map.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		values: make(map[string]string),
	}
}

// Get retrieves a value. A missing key is not an error.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	return value, ok, nil
}

// Set stores a value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

// Remove deletes a key. Removing a missing key is a no-op.
func (s *Store) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
