package page

import (
	"sync"
)

// MemoryDocument is an in-process Source driven by test code or demos.
// SetHTML and AppendHTML stand in for page mutations, Navigate for the
// browser changing location.
type MemoryDocument struct {
	mu        sync.RWMutex
	doc       Document
	mutations chan Mutation
	locations chan string
	closed    bool
}

// NewMemoryDocument creates a source showing the given initial page.
func NewMemoryDocument(html, url string) *MemoryDocument {
	return &MemoryDocument{
		doc:       Document{HTML: html, URL: url},
		mutations: make(chan Mutation, 16),
		locations: make(chan string, 4),
	}
}

func (m *MemoryDocument) Document() Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doc
}

func (m *MemoryDocument) Mutations() <-chan Mutation { return m.mutations }
func (m *MemoryDocument) Locations() <-chan string   { return m.locations }

// SetHTML replaces the page content and emits a mutation.
func (m *MemoryDocument) SetHTML(html string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.doc.HTML = html
	m.emitLocked(Mutation{Added: html, At: m.doc})
}

// AppendHTML adds a fragment to the page and emits a mutation carrying
// just the added part.
func (m *MemoryDocument) AppendHTML(fragment string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.doc.HTML += fragment
	m.emitLocked(Mutation{Added: fragment, At: m.doc})
}

// Navigate changes the location and emits it. Content stays until the
// next SetHTML, mirroring a SPA that swaps the view after the URL.
func (m *MemoryDocument) Navigate(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.doc.URL = url
	select {
	case m.locations <- url:
	default:
	}
	return nil
}

// emitLocked sends under m.mu so Close cannot close the channel between
// the closed check and the send.
func (m *MemoryDocument) emitLocked(mut Mutation) {
	select {
	case m.mutations <- mut:
	default:
	}
}

func (m *MemoryDocument) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.mutations)
	close(m.locations)
	return nil
}
