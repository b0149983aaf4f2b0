// Package room tests for room document persistence.
package room

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/weichu2002/co-mindforest2/internal/errors"
	"github.com/weichu2002/co-mindforest2/internal/kv"
	"github.com/weichu2002/co-mindforest2/internal/models"
)

// failingStore returns a fixed error from every call.
type failingStore struct {
	err error
}

func (s *failingStore) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	return "", false, s.err
}

func (s *failingStore) Put(ctx context.Context, namespace, key, value string) error {
	return s.err
}

func (s *failingStore) Delete(ctx context.Context, namespace, key string) (bool, error) {
	return false, s.err
}

func (s *failingStore) Close() error { return nil }

// blockingStore blocks every call until the context expires.
type blockingStore struct{}

func (s *blockingStore) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	<-ctx.Done()
	return "", false, ctx.Err()
}

func (s *blockingStore) Put(ctx context.Context, namespace, key, value string) error {
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingStore) Delete(ctx context.Context, namespace, key string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func (s *blockingStore) Close() error { return nil }

func TestRepository_SaveLoadRoundTrip(t *testing.T) {
	repo := NewRepository(kv.NewMemoryStore(), 0)
	ctx := context.Background()

	room := &models.Room{
		ID:            "r1",
		Name:          "Design Session",
		Method:        "brainstorm",
		CreatedBy:     "u1",
		CreatedByName: "Alice",
		Snapshot:      models.Snapshot(`{"nodeMap":{"a":1}}`),
		UserBranches: map[string]*models.UserBranch{
			"u1": {Snapshot: models.Snapshot(`{"nodeMap":{"a":1}}`), LastUpdated: 10, UserName: "Alice"},
		},
		ActiveUsers: []models.ActiveUser{{ID: "u1", Name: "Alice", IsHost: true}},
		Operations:  []models.Operation{},
		LastUpdated: 10,
	}

	if err := repo.Save(ctx, room); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := repo.Load(ctx, "r1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Name != "Design Session" || loaded.CreatedBy != "u1" {
		t.Errorf("metadata lost in round trip: %+v", loaded)
	}
	if loaded.Snapshot.NodeCount() != 1 {
		t.Errorf("snapshot lost in round trip: %s", loaded.Snapshot)
	}
	if branch := loaded.UserBranches["u1"]; branch == nil || branch.UserName != "Alice" {
		t.Errorf("branch lost in round trip: %+v", loaded.UserBranches)
	}
	if !loaded.HasActiveUser("u1") {
		t.Error("active users lost in round trip")
	}
}

func TestRepository_LoadMissing(t *testing.T) {
	repo := NewRepository(kv.NewMemoryStore(), 0)

	_, err := repo.Load(context.Background(), "nope")
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Load(missing) = %v, want NOT_FOUND", err)
	}
}

func TestRepository_DeleteIdempotent(t *testing.T) {
	repo := NewRepository(kv.NewMemoryStore(), 0)
	ctx := context.Background()

	if err := repo.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("Delete of absent room errored: %v", err)
	}

	room := &models.Room{ID: "r1", ActiveUsers: []models.ActiveUser{{ID: "u1"}}}
	if err := repo.Save(ctx, room); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := repo.Delete(ctx, "r1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := repo.Delete(ctx, "r1"); err != nil {
		t.Errorf("second Delete errored: %v", err)
	}
	if _, err := repo.Load(ctx, "r1"); !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Load after Delete = %v, want NOT_FOUND", err)
	}
}

func TestRepository_StoreErrorsMapToUnavailable(t *testing.T) {
	repo := NewRepository(&failingStore{err: errors.New("connection reset")}, 0)
	ctx := context.Background()

	if _, err := repo.Load(ctx, "r1"); !apperrors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Errorf("Load = %v, want STORE_UNAVAILABLE", err)
	}
	if err := repo.Save(ctx, &models.Room{ID: "r1"}); !apperrors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Errorf("Save = %v, want STORE_UNAVAILABLE", err)
	}
	if err := repo.Delete(ctx, "r1"); !apperrors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Errorf("Delete = %v, want STORE_UNAVAILABLE", err)
	}
}

func TestRepository_TimeoutMapsToUnavailable(t *testing.T) {
	repo := NewRepository(&blockingStore{}, 50*time.Millisecond)

	start := time.Now()
	_, err := repo.Load(context.Background(), "r1")
	if !apperrors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Errorf("Load on hung store = %v, want STORE_UNAVAILABLE", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Load took %v, timeout did not bound the call", elapsed)
	}
}

func TestRepository_CorruptDocument(t *testing.T) {
	store := kv.NewMemoryStore()
	repo := NewRepository(store, 0)
	ctx := context.Background()

	if err := store.Put(ctx, DefaultNamespace, "room:r1", "{not json"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := repo.Load(ctx, "r1"); !apperrors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Errorf("Load of corrupt document = %v, want STORE_UNAVAILABLE", err)
	}
}
