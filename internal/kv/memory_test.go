package kv

import (
	"context"
	"testing"
)

func TestMemoryStoreGetSet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	value, err := store.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != nil {
		t.Errorf("Get(missing) = %q, want nil", value)
	}

	if err := store.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, err = store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(value) != "v1" {
		t.Errorf("Get(k) = %q, want v1", value)
	}
}

func TestMemoryStoreWriterReceivesOwnChange(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var changes []Change
	cancel, err := store.Watch(ctx, func(c Change) {
		changes = append(changes, c)
	})
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer cancel()

	if err := store.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(changes))
	}
	if changes[0].Old != nil {
		t.Errorf("first change Old = %q, want nil", changes[0].Old)
	}
	if string(changes[0].New) != "v1" {
		t.Errorf("first change New = %q, want v1", changes[0].New)
	}
	if string(changes[1].Old) != "v1" || string(changes[1].New) != "v2" {
		t.Errorf("second change = {%q -> %q}, want {v1 -> v2}", changes[1].Old, changes[1].New)
	}
}

func TestMemoryStoreWatchCancel(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	count := 0
	cancel, err := store.Watch(ctx, func(Change) { count++ })
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := store.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	cancel()
	if err := store.Set(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if count != 1 {
		t.Errorf("watcher ran %d times, want 1", count)
	}
}

func TestMemoryStoreValueIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	original := []byte("abc")
	if err := store.Set(ctx, "k", original); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	original[0] = 'x'

	value, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(value) != "abc" {
		t.Errorf("Get(k) = %q, want abc (caller mutation must not leak)", value)
	}
}
