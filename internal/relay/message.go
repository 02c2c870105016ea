package relay

import "github.com/chatnav/compass/internal/domain"

// Endpoint names a registered context on the bus.
type Endpoint string

const (
	EndpointSource Endpoint = "source"
	EndpointPanel  Endpoint = "panel"
	EndpointBroker Endpoint = "broker"
)

// Message is the closed set of payloads carried by the bus. The
// unexported method keeps the set closed to this package's types, so a
// handler's type switch is exhaustive by construction.
type Message interface {
	kind() string
}

// SnapshotPush delivers a freshly extracted snapshot to the broker.
type SnapshotPush struct {
	SessionID string
	Snapshot  domain.Snapshot
}

// SnapshotPull asks the broker for the latest snapshot of a session.
type SnapshotPull struct {
	SessionID string
}

// SnapshotResult answers a SnapshotPull.
type SnapshotResult struct {
	Snapshot domain.Snapshot
}

// RefreshCommand asks a source to run an extraction pass now.
type RefreshCommand struct {
	SessionID string
}

// NavigateCommand asks a source to scroll to a message, by ID first
// and ordinal as fallback.
type NavigateCommand struct {
	MessageID string
	Ordinal   int
}

// NavigateResult answers a NavigateCommand.
type NavigateResult struct {
	OK bool
}

// BookmarkCreated tells the broker a message was bookmarked.
type BookmarkCreated struct {
	Draft domain.BookmarkDraft
}

// BookmarkRemoved tells the broker a bookmark was deleted.
type BookmarkRemoved struct {
	MessageID string
	SourceURL string
}

// MarkBookmark asks a source to show the bookmark indicator.
type MarkBookmark struct {
	MessageID string
}

// UnmarkBookmark asks a source to clear the bookmark indicator.
type UnmarkBookmark struct {
	MessageID string
}

// ThemeQuery asks a source for the page theme.
type ThemeQuery struct{}

// ThemeResult answers a ThemeQuery.
type ThemeResult struct {
	Theme domain.Theme
}

func (SnapshotPush) kind() string    { return "snapshot.push" }
func (SnapshotPull) kind() string    { return "snapshot.pull" }
func (SnapshotResult) kind() string  { return "snapshot.result" }
func (RefreshCommand) kind() string  { return "refresh" }
func (NavigateCommand) kind() string { return "navigate" }
func (NavigateResult) kind() string  { return "navigate.result" }
func (BookmarkCreated) kind() string { return "bookmark.created" }
func (BookmarkRemoved) kind() string { return "bookmark.removed" }
func (MarkBookmark) kind() string    { return "bookmark.mark" }
func (UnmarkBookmark) kind() string  { return "bookmark.unmark" }
func (ThemeQuery) kind() string      { return "theme.query" }
func (ThemeResult) kind() string     { return "theme.result" }

// Kind exposes the message kind for logging.
func Kind(m Message) string {
	if m == nil {
		return "<nil>"
	}
	return m.kind()
}
