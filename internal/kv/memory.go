package kv

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. It backs single-node deployments
// and doubles as the test double for the repository and handler tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// Ensure MemoryStore implements Store at compile time.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

// Get returns the value for key within namespace.
func (s *MemoryStore) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ns, ok := s.data[namespace]
	if !ok {
		return "", false, nil
	}
	value, ok := ns[key]
	return value, ok, nil
}

// Put stores value under key within namespace.
func (s *MemoryStore) Put(ctx context.Context, namespace, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.data[namespace]
	if !ok {
		ns = make(map[string]string)
		s.data[namespace] = ns
	}
	ns[key] = value
	return nil
}

// Delete removes key within namespace.
func (s *MemoryStore) Delete(ctx context.Context, namespace, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.data[namespace]
	if !ok {
		return false, nil
	}
	if _, ok := ns[key]; !ok {
		return false, nil
	}
	delete(ns, key)
	return true, nil
}

// Close is a no-op for the in-memory provider.
func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of keys in namespace. Test helper.
func (s *MemoryStore) Len(namespace string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[namespace])
}
