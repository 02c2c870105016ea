// Package broker is the background coordination context. It tracks
// per-session snapshots and applies bookmark events against its own
// bookmark manager, which shares a store with the panel's.
package broker

import (
	"context"

	"github.com/chatnav/compass/internal/bookmarks"
	"github.com/chatnav/compass/internal/logger"
	"github.com/chatnav/compass/internal/relay"
)

// Broker routes relay traffic for the background context.
type Broker struct {
	sessions *SessionIndex
	manager  *bookmarks.Manager
	bus      *relay.Bus
	log      logger.Logger
}

// New creates a broker over its own bookmark manager.
func New(manager *bookmarks.Manager, bus *relay.Bus, log logger.Logger) *Broker {
	return &Broker{
		sessions: NewSessionIndex(),
		manager:  manager,
		bus:      bus,
		log:      log,
	}
}

// Start registers the broker on the bus.
func (b *Broker) Start() {
	b.bus.Register(relay.EndpointBroker, b.handle)
	b.log.Info("broker registered on relay")
}

// Stop removes the broker from the bus.
func (b *Broker) Stop() {
	b.bus.Deregister(relay.EndpointBroker)
}

// Sessions exposes the session index.
func (b *Broker) Sessions() *SessionIndex {
	return b.sessions
}

func (b *Broker) handle(msg relay.Message) relay.Message {
	switch m := msg.(type) {
	case relay.SnapshotPush:
		b.sessions.Update(m.SessionID, m.Snapshot)
		b.log.Debug("snapshot stored",
			logger.String("session_id", m.SessionID),
			logger.Int("messages", len(m.Snapshot.Messages)))
		return nil

	case relay.SnapshotPull:
		snap, ok := b.sessions.Get(m.SessionID)
		if !ok {
			// An unknown session answers empty rather than erroring;
			// the panel treats it as "no messages yet".
			return relay.SnapshotResult{}
		}
		return relay.SnapshotResult{Snapshot: snap}

	case relay.RefreshCommand:
		b.bus.Send(relay.EndpointSource, m)
		return nil

	case relay.BookmarkCreated:
		b.applyCreate(m)
		return nil

	case relay.BookmarkRemoved:
		b.applyRemove(m)
		return nil

	default:
		b.log.Debug("broker ignoring message",
			logger.String("kind", relay.Kind(msg)))
		return nil
	}
}

// applyCreate persists a bookmark announced by a source context,
// unless one already exists for the same message.
func (b *Broker) applyCreate(m relay.BookmarkCreated) {
	if b.manager.IsBookmarked(m.Draft.MessageID, m.Draft.SourceURL) {
		b.log.Debug("bookmark already exists, skipping",
			logger.String("message_id", m.Draft.MessageID))
		return
	}
	if _, err := b.manager.AddBookmark(context.Background(), m.Draft, ""); err != nil {
		b.log.Error("failed to persist announced bookmark",
			logger.String("message_id", m.Draft.MessageID),
			logger.Error(err))
		return
	}
	b.bus.Send(relay.EndpointSource, relay.MarkBookmark{MessageID: m.Draft.MessageID})
}

func (b *Broker) applyRemove(m relay.BookmarkRemoved) {
	bm := b.manager.FindByMessage(m.MessageID, m.SourceURL)
	if bm == nil {
		return
	}
	if err := b.manager.RemoveBookmark(context.Background(), bm.ID); err != nil {
		b.log.Error("failed to remove announced bookmark",
			logger.String("message_id", m.MessageID),
			logger.Error(err))
		return
	}
	b.bus.Send(relay.EndpointSource, relay.UnmarkBookmark{MessageID: m.MessageID})
}
