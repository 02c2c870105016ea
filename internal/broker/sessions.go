package broker

import (
	"sync"

	"github.com/chatnav/compass/internal/domain"
)

// SessionIndex holds the latest snapshot per source session. Entries
// live until Drop; a session that stops pushing keeps serving its last
// known state.
type SessionIndex struct {
	mu        sync.RWMutex
	snapshots map[string]domain.Snapshot
}

// NewSessionIndex creates an empty index.
func NewSessionIndex() *SessionIndex {
	return &SessionIndex{snapshots: make(map[string]domain.Snapshot)}
}

// Update stores the latest snapshot for a session.
func (idx *SessionIndex) Update(sessionID string, snap domain.Snapshot) {
	idx.mu.Lock()
	idx.snapshots[sessionID] = snap
	idx.mu.Unlock()
}

// Get returns the session's snapshot and whether one exists.
func (idx *SessionIndex) Get(sessionID string) (domain.Snapshot, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	snap, ok := idx.snapshots[sessionID]
	return snap, ok
}

// Drop removes a session.
func (idx *SessionIndex) Drop(sessionID string) {
	idx.mu.Lock()
	delete(idx.snapshots, sessionID)
	idx.mu.Unlock()
}

// Count returns the number of tracked sessions.
func (idx *SessionIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.snapshots)
}
