package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// PebbleStore is a Store backed by an embedded pebble LSM database,
// for single-node deployments with larger room counts than SQLite
// handles comfortably.
type PebbleStore struct {
	db *pebble.DB
}

var _ Store = (*PebbleStore)(nil)

// OpenPebbleStore opens (or creates) a pebble database at dir.
func OpenPebbleStore(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db at %s: %w", dir, err)
	}
	return &PebbleStore{db: db}, nil
}

// pebbleKey combines namespace and key into one byte key. Namespaces
// never contain '/', so the mapping is unambiguous.
func pebbleKey(namespace, key string) []byte {
	return []byte(namespace + "/" + key)
}

// Get returns the value for key within namespace.
func (s *PebbleStore) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	value, closer, err := s.db.Get(pebbleKey(namespace, key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("pebble get failed: %w", err)
	}
	defer closer.Close()

	// The returned slice is only valid until closer.Close.
	return string(value), true, nil
}

// Put stores value under key within namespace.
func (s *PebbleStore) Put(ctx context.Context, namespace, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.db.Set(pebbleKey(namespace, key), []byte(value), pebble.Sync); err != nil {
		return fmt.Errorf("pebble set failed: %w", err)
	}
	return nil
}

// Delete removes key within namespace.
func (s *PebbleStore) Delete(ctx context.Context, namespace, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	// Pebble deletes are blind; check presence first to report it.
	_, closer, err := s.db.Get(pebbleKey(namespace, key))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pebble get failed: %w", err)
	}
	closer.Close()

	if err := s.db.Delete(pebbleKey(namespace, key), pebble.Sync); err != nil {
		return false, fmt.Errorf("pebble delete failed: %w", err)
	}
	return true, nil
}

// Close closes the pebble database.
func (s *PebbleStore) Close() error {
	return s.db.Close()
}
