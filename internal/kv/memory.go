package kv

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. Change notifications are delivered
// synchronously on Set, to the writer's own subscription as well.
// It backs local runs and tests; redis takes over when configured.
type MemoryStore struct {
	mu       sync.RWMutex
	data     map[string][]byte
	watchers map[int]func(Change)
	nextID   int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:     make(map[string][]byte),
		watchers: make(map[int]func(Change)),
	}
}

// Get returns a copy of the stored value, or nil when absent.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), value...), nil
}

// Set stores a copy of value and notifies all watchers before returning.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	old := s.data[key]
	stored := append([]byte(nil), value...)
	s.data[key] = stored

	fns := make([]func(Change), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	change := Change{Key: key, Old: old, New: stored}
	for _, fn := range fns {
		fn(change)
	}
	return nil
}

// Watch registers fn until cancel is called or ctx is done.
func (s *MemoryStore) Watch(ctx context.Context, fn func(Change)) (func(), error) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}

	return cancel, nil
}
