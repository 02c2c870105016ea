// Package kv provides the persistent key-value adapter shared by every
// context. Writers never trust their own write to update cached state:
// the change notification delivered through Watch is the single source
// of truth, and it reaches the writer too.
package kv

import "context"

// Change describes one key mutation as observed by the store.
type Change struct {
	Key string `json:"key"`
	Old []byte `json:"old,omitempty"`
	New []byte `json:"new,omitempty"`
}

// Store is an eventually-consistent key-value store with change fan-out.
type Store interface {
	// Get returns the current value for key, or nil when absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes value for key and notifies every watcher, including the
	// caller's own watch subscription.
	Set(ctx context.Context, key string, value []byte) error

	// Watch registers fn for every subsequent change. The returned cancel
	// function removes the subscription. fn must not block.
	Watch(ctx context.Context, fn func(Change)) (func(), error)
}
