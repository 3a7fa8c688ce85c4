package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(0)

	if err := store.Set(ctx, "k1", []byte("v1"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	value, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(value) != "v1" {
		t.Errorf("value = %q, want %q", value, "v1")
	}
}

func TestMemory_Miss(t *testing.T) {
	store := NewMemory(0)

	_, err := store.Get(context.Background(), "absent")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("err = %v, want ErrCacheMiss", err)
	}
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(0)

	if err := store.Set(ctx, "k1", []byte("v1"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if _, err := store.Get(ctx, "k1"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("err = %v, want ErrCacheMiss after expiry", err)
	}
}

func TestMemory_NonPositiveTTLNotCached(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(0)

	if err := store.Set(ctx, "k1", []byte("v1"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := store.Get(ctx, "k1"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("zero ttl should not be cached, got %v", err)
	}
}

func TestMemory_Invalidate(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(0)

	_ = store.Set(ctx, "k1", []byte("v1"), time.Minute)
	if err := store.Invalidate(ctx, "k1"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := store.Get(ctx, "k1"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("err = %v, want ErrCacheMiss after invalidate", err)
	}

	// Invalidating again is not an error.
	if err := store.Invalidate(ctx, "k1"); err != nil {
		t.Errorf("second Invalidate: %v", err)
	}
}

func TestMemory_InvalidateAll(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(0)

	for i := 0; i < 5; i++ {
		_ = store.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), time.Minute)
	}
	if err := store.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0", store.Len())
	}
}

func TestMemory_CapacityEviction(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(3)

	for i := 0; i < 3; i++ {
		_ = store.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), time.Minute)
		time.Sleep(time.Millisecond) // distinct storedAt ordering
	}
	_ = store.Set(ctx, "k3", []byte("v"), time.Minute)

	if store.Len() != 3 {
		t.Errorf("Len = %d, want 3 (capacity bound)", store.Len())
	}
	// Oldest entry evicted, newest present.
	if _, err := store.Get(ctx, "k0"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("k0 should have been evicted, got %v", err)
	}
	if _, err := store.Get(ctx, "k3"); err != nil {
		t.Errorf("k3 should be present, got %v", err)
	}
}

func TestMemory_OverwriteDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(2)

	_ = store.Set(ctx, "k0", []byte("v0"), time.Minute)
	_ = store.Set(ctx, "k1", []byte("v1"), time.Minute)
	_ = store.Set(ctx, "k0", []byte("v0-new"), time.Minute)

	if store.Len() != 2 {
		t.Errorf("Len = %d, want 2", store.Len())
	}
	value, err := store.Get(ctx, "k0")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(value) != "v0-new" {
		t.Errorf("value = %q, want overwritten value", value)
	}
}
