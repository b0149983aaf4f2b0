// Package room implements the room synchronization engine: persistence
// of Room documents and the state transitions polled by clients.
package room

import (
	"context"
	"encoding/json"
	"time"

	apperrors "github.com/weichu2002/co-mindforest2/internal/errors"
	"github.com/weichu2002/co-mindforest2/internal/kv"
	"github.com/weichu2002/co-mindforest2/internal/models"
)

const (
	// DefaultNamespace scopes room documents in the backing store.
	DefaultNamespace = "rooms"

	// DefaultStoreTimeout bounds every backing-store call.
	DefaultStoreTimeout = 5 * time.Second
)

// Repository serializes Room documents to and from the key-value store.
// One JSON document per room under key "room:<id>"; every mutation is a
// whole-document write.
type Repository struct {
	store     kv.Store
	namespace string
	timeout   time.Duration
}

// NewRepository creates a Repository over store. A zero timeout selects
// DefaultStoreTimeout.
func NewRepository(store kv.Store, timeout time.Duration) *Repository {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &Repository{
		store:     store,
		namespace: DefaultNamespace,
		timeout:   timeout,
	}
}

// roomKey returns the store key for a room id.
func roomKey(roomID string) string {
	return "room:" + roomID
}

// Load reads and decodes the room document for roomID.
// Returns a NOT_FOUND error when the room does not exist and a
// STORE_UNAVAILABLE error when the store call fails or times out.
func (r *Repository) Load(ctx context.Context, roomID string) (*models.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	value, ok, err := r.store.Get(ctx, r.namespace, roomKey(roomID))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreUnavailable, "failed to load room "+roomID, err)
	}
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "room %s not found", roomID)
	}

	var room models.Room
	if err := json.Unmarshal([]byte(value), &room); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreUnavailable, "failed to decode room "+roomID, err)
	}
	return &room, nil
}

// Save encodes and writes the whole room document.
func (r *Repository) Save(ctx context.Context, room *models.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStoreUnavailable, "failed to encode room "+room.ID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.store.Put(ctx, r.namespace, roomKey(room.ID), string(data)); err != nil {
		return apperrors.Wrap(apperrors.ErrStoreUnavailable, "failed to save room "+room.ID, err)
	}
	return nil
}

// Delete removes the room document. Deleting an absent room is not an
// error.
func (r *Repository) Delete(ctx context.Context, roomID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.store.Delete(ctx, r.namespace, roomKey(roomID)); err != nil {
		return apperrors.Wrap(apperrors.ErrStoreUnavailable, "failed to delete room "+roomID, err)
	}
	return nil
}
