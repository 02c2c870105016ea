package broker

import (
	"context"
	"testing"
	"time"

	"github.com/chatnav/compass/internal/bookmarks"
	"github.com/chatnav/compass/internal/domain"
	"github.com/chatnav/compass/internal/kv"
	"github.com/chatnav/compass/internal/logger"
	"github.com/chatnav/compass/internal/relay"
)

func newTestBroker(t *testing.T) (*Broker, *bookmarks.Manager, *relay.Bus) {
	t.Helper()
	mgr := bookmarks.NewManager(kv.NewMemoryStore(), logger.Nop())
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("manager Start() error = %v", err)
	}
	t.Cleanup(mgr.Stop)

	bus := relay.NewBus(time.Second, logger.Nop())
	b := New(mgr, bus, logger.Nop())
	b.Start()
	t.Cleanup(b.Stop)
	return b, mgr, bus
}

func TestBrokerPushThenPull(t *testing.T) {
	_, _, bus := newTestBroker(t)

	snap := domain.Snapshot{
		URL:      "https://chat.example/c/1",
		Title:    "Chat",
		Messages: []domain.Message{{ID: "m1", Content: "hi", Ordinal: 1}},
	}
	bus.Send(relay.EndpointBroker, relay.SnapshotPush{SessionID: "s1", Snapshot: snap})

	reply, err := bus.Request(context.Background(), relay.EndpointBroker, relay.SnapshotPull{SessionID: "s1"})
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	result := reply.(relay.SnapshotResult)
	if len(result.Snapshot.Messages) != 1 || result.Snapshot.Messages[0].ID != "m1" {
		t.Errorf("pulled snapshot = %+v", result.Snapshot)
	}
}

func TestBrokerPullUnknownSessionIsEmpty(t *testing.T) {
	_, _, bus := newTestBroker(t)

	reply, err := bus.Request(context.Background(), relay.EndpointBroker, relay.SnapshotPull{SessionID: "ghost"})
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	result := reply.(relay.SnapshotResult)
	if len(result.Snapshot.Messages) != 0 || result.Snapshot.URL != "" {
		t.Errorf("unknown session returned %+v, want zero value", result.Snapshot)
	}
}

func TestBrokerPersistsAnnouncedBookmarkOnce(t *testing.T) {
	_, mgr, bus := newTestBroker(t)

	var marked []string
	bus.Register(relay.EndpointSource, func(msg relay.Message) relay.Message {
		if m, ok := msg.(relay.MarkBookmark); ok {
			marked = append(marked, m.MessageID)
		}
		return nil
	})

	created := relay.BookmarkCreated{Draft: domain.BookmarkDraft{
		MessageID: "m1",
		Content:   "hello",
		SourceURL: "https://chat.example/c/1",
	}}
	bus.Send(relay.EndpointBroker, created)
	bus.Send(relay.EndpointBroker, created) // duplicate announcement

	if got := len(mgr.Search("")); got != 1 {
		t.Errorf("persisted %d bookmarks, want 1 (dedupe)", got)
	}
	if len(marked) != 1 || marked[0] != "m1" {
		t.Errorf("mark commands = %v, want [m1]", marked)
	}
}

func TestBrokerRemovesAnnouncedBookmark(t *testing.T) {
	_, mgr, bus := newTestBroker(t)

	var unmarked []string
	bus.Register(relay.EndpointSource, func(msg relay.Message) relay.Message {
		if m, ok := msg.(relay.UnmarkBookmark); ok {
			unmarked = append(unmarked, m.MessageID)
		}
		return nil
	})

	bus.Send(relay.EndpointBroker, relay.BookmarkCreated{Draft: domain.BookmarkDraft{
		MessageID: "m1",
		SourceURL: "https://chat.example/c/1",
		Content:   "hello",
	}})
	bus.Send(relay.EndpointBroker, relay.BookmarkRemoved{
		MessageID: "m1",
		SourceURL: "https://chat.example/c/1",
	})

	if got := len(mgr.Search("")); got != 0 {
		t.Errorf("%d bookmarks remain, want 0", got)
	}
	if len(unmarked) != 1 || unmarked[0] != "m1" {
		t.Errorf("unmark commands = %v, want [m1]", unmarked)
	}

	// Removing a never-bookmarked message is silent.
	bus.Send(relay.EndpointBroker, relay.BookmarkRemoved{MessageID: "ghost"})
}

func TestBrokerForwardsRefreshToSource(t *testing.T) {
	_, _, bus := newTestBroker(t)

	refreshed := 0
	bus.Register(relay.EndpointSource, func(msg relay.Message) relay.Message {
		if _, ok := msg.(relay.RefreshCommand); ok {
			refreshed++
		}
		return nil
	})

	bus.Send(relay.EndpointBroker, relay.RefreshCommand{SessionID: "s1"})
	if refreshed != 1 {
		t.Errorf("refresh forwarded %d times, want 1", refreshed)
	}
}

func TestSessionIndexDrop(t *testing.T) {
	idx := NewSessionIndex()
	idx.Update("s1", domain.Snapshot{URL: "u"})

	if _, ok := idx.Get("s1"); !ok {
		t.Fatal("Get() after Update() missed")
	}
	if idx.Count() != 1 {
		t.Errorf("Count() = %d", idx.Count())
	}
	idx.Drop("s1")
	if _, ok := idx.Get("s1"); ok {
		t.Error("Get() after Drop() still found the session")
	}
}
