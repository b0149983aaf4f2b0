// Package kv provides the namespace-scoped key-value store the room
// repository persists into, with pluggable providers.
package kv

import "context"

// Store is an opaque async mapping from string key to string value,
// scoped by namespace. No ordering or cross-key transaction guarantees.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, namespace, key string) (string, bool, error)

	// Put stores value under key, overwriting any existing value.
	Put(ctx context.Context, namespace, key, value string) error

	// Delete removes key and reports whether it was present.
	// Deleting an absent key is not an error.
	Delete(ctx context.Context, namespace, key string) (bool, error)

	// Close releases the provider's resources.
	Close() error
}
