package flags

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
)

func testOverrideStore(t *testing.T) *OverrideStore {
	t.Helper()
	store, err := NewOverrideStore(filepath.Join(t.TempDir(), "overrides.db"), slog.Default())
	if err != nil {
		t.Fatalf("NewOverrideStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOverrideStoreSetGetClear(t *testing.T) {
	store := testOverrideStore(t)
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "beta-reports"); err != nil || ok {
		t.Fatalf("Get() before Set = (ok=%v, err=%v), want no override", ok, err)
	}

	if err := store.Set(ctx, "beta-reports", false); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	enabled, ok, err := store.Get(ctx, "beta-reports")
	if err != nil || !ok || enabled {
		t.Fatalf("Get() = (%v, %v, %v), want (false, true, nil)", enabled, ok, err)
	}

	// Upsert flips the value in place.
	if err := store.Set(ctx, "beta-reports", true); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	enabled, ok, _ = store.Get(ctx, "beta-reports")
	if !ok || !enabled {
		t.Fatalf("Get() after upsert = (%v, %v), want (true, true)", enabled, ok)
	}

	if err := store.Clear(ctx, "beta-reports"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, ok, _ := store.Get(ctx, "beta-reports"); ok {
		t.Error("override survived Clear")
	}

	// Clearing an absent override is not an error.
	if err := store.Clear(ctx, "never-set"); err != nil {
		t.Errorf("Clear() on absent override error = %v", err)
	}
}

func TestOverrideStoreList(t *testing.T) {
	store := testOverrideStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "flag-a", true); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "flag-b", false); err != nil {
		t.Fatal(err)
	}

	overrides, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(overrides) != 2 {
		t.Fatalf("List() returned %d overrides, want 2", len(overrides))
	}
	if !overrides["flag-a"] || overrides["flag-b"] {
		t.Errorf("List() = %v, want flag-a=true flag-b=false", overrides)
	}
}

func TestOverlayServicePrecedence(t *testing.T) {
	store := testOverrideStore(t)
	ctx := context.Background()

	registry := NewRegistry(map[Flag]Definition{
		"beta-reports": {State: StateEnabled},
	})
	overlay := NewOverlayService(store, NewStaticService(registry), slog.Default())

	// No override: the registry's answer flows through, as a deferred.
	result := overlay.IsEnabled(ctx, "beta-reports")
	if result.Kind != KindDeferred {
		t.Fatalf("Kind = %v, want deferred", result.Kind)
	}
	enabled, err := result.Await(ctx)
	if err != nil || !enabled {
		t.Fatalf("Await() = (%v, %v), want (true, nil)", enabled, err)
	}

	// An override beats the registry.
	if err := store.Set(ctx, "beta-reports", false); err != nil {
		t.Fatal(err)
	}
	enabled, err = overlay.IsEnabled(ctx, "beta-reports").Await(ctx)
	if err != nil || enabled {
		t.Fatalf("Await() with override = (%v, %v), want (false, nil)", enabled, err)
	}

	// Clearing restores the registry's answer.
	if err := store.Clear(ctx, "beta-reports"); err != nil {
		t.Fatal(err)
	}
	enabled, err = overlay.IsEnabled(ctx, "beta-reports").Await(ctx)
	if err != nil || !enabled {
		t.Fatalf("Await() after clear = (%v, %v), want (true, nil)", enabled, err)
	}
}
