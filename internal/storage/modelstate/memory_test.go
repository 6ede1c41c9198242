package modelstate

import (
	"context"
	"errors"
	"testing"

	"github.com/quantlab/signalcore/internal/core"
)

func TestMemoryStore_SaveAndLoad(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Save(ctx, []byte("state-v1"), 1); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	state, version, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(state) != "state-v1" || version != 1 {
		t.Errorf("got %q v%d, want state-v1 v1", state, version)
	}
}

func TestMemoryStore_Load_Empty(t *testing.T) {
	store := NewMemoryStore()

	_, _, err := store.Load(context.Background())
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestMemoryStore_VersionMonotonic(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Save(ctx, []byte("v2"), 2)
	err := store.Save(ctx, []byte("v1"), 1)
	if !errors.Is(err, core.ErrPersistence) {
		t.Errorf("expected PERSISTENCE error for stale version, got %v", err)
	}

	state, version, _ := store.Load(ctx)
	if string(state) != "v2" || version != 2 {
		t.Error("stale save mutated stored state")
	}
}

func TestMemoryStore_FailNext(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Save(ctx, []byte("v1"), 1)

	store.FailNext = true
	err := store.Save(ctx, []byte("v2"), 2)
	if !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected PERSISTENCE error, got %v", err)
	}

	// Stored state untouched by the failed save
	state, version, _ := store.Load(ctx)
	if string(state) != "v1" || version != 1 {
		t.Error("failed save mutated stored state")
	}

	// Next save succeeds again
	if err := store.Save(ctx, []byte("v2"), 2); err != nil {
		t.Errorf("save after failure should succeed: %v", err)
	}
}

func TestMemoryStore_Reset(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Save(ctx, []byte("v1"), 1)
	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	_, _, err := store.Load(ctx)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected NOT_FOUND after reset, got %v", err)
	}

	// Version restarts after reset
	if err := store.Save(ctx, []byte("v1"), 1); err != nil {
		t.Errorf("save after reset should succeed: %v", err)
	}
}
