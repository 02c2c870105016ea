// Package source is the page-facing context. It owns the document
// feed, pushes extracted snapshots to the broker, and answers
// navigation, theme, and bookmark-indicator commands.
package source

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/chatnav/compass/internal/domain"
	"github.com/chatnav/compass/internal/extract"
	"github.com/chatnav/compass/internal/logger"
	"github.com/chatnav/compass/internal/nav"
	"github.com/chatnav/compass/internal/observe"
	"github.com/chatnav/compass/internal/page"
	"github.com/chatnav/compass/internal/relay"
)

// BookmarkChecker answers whether a message is bookmarked.
type BookmarkChecker interface {
	IsBookmarked(messageID, sourceURL string) bool
}

// Marker renders bookmark indicators on the page.
type Marker interface {
	Mark(messageID string)
	Unmark(messageID string)
}

// LogMarker is a Marker that only logs.
type LogMarker struct {
	Log logger.Logger
}

func (m LogMarker) Mark(messageID string) {
	m.Log.Debug("marking message as bookmarked", logger.String("message_id", messageID))
}

func (m LogMarker) Unmark(messageID string) {
	m.Log.Debug("unmarking message", logger.String("message_id", messageID))
}

// Options tunes the source context.
type Options struct {
	Observer observe.Options
	// RestoreRetry bounds the indicator restore pass after a page load.
	RestoreRetry nav.Policy
}

// Context is one live page session.
type Context struct {
	id        string
	doc       page.Source
	extractor *extract.Extractor
	observer  *observe.Observer
	navigator *nav.Navigator
	bus       *relay.Bus
	checker   BookmarkChecker
	marker    Marker
	opts      Options
	log       logger.Logger

	mu   sync.RWMutex
	snap domain.Snapshot

	runCtx context.Context
	cancel context.CancelFunc
}

// New assembles a source context over doc. Call Start to go live.
func New(doc page.Source, extractor *extract.Extractor, navOpts nav.Options, opts Options, bus *relay.Bus, checker BookmarkChecker, marker Marker, log logger.Logger) *Context {
	c := &Context{
		id:        uuid.NewString(),
		doc:       doc,
		extractor: extractor,
		bus:       bus,
		checker:   checker,
		marker:    marker,
		opts:      opts,
		log:       log,
	}
	c.navigator = nav.New(doc, nav.LogHighlighter{Log: log}, c.Snapshot, navOpts, log)
	c.observer = observe.New(doc, extractor, opts.Observer, log)
	c.observer.OnSnapshot = c.onSnapshot
	c.observer.OnLocation = c.onLocation
	return c
}

// ID returns the session id this context pushes snapshots under.
func (c *Context) ID() string { return c.id }

// Snapshot returns the latest extracted snapshot.
func (c *Context) Snapshot() domain.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Navigator exposes the page navigator.
func (c *Context) Navigator() *nav.Navigator { return c.navigator }

// Start registers on the bus and begins observing. The first
// extraction pass runs before Start returns.
func (c *Context) Start(ctx context.Context) {
	c.runCtx, c.cancel = context.WithCancel(ctx)
	c.bus.Register(relay.EndpointSource, c.handle)
	c.observer.Start()
	go c.restoreIndicators()
	c.log.Info("source context started",
		logger.String("session_id", c.id),
		logger.String("url", c.doc.Document().URL))
}

// Stop halts observation and leaves the bus.
func (c *Context) Stop() {
	c.observer.Stop()
	c.bus.Deregister(relay.EndpointSource)
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Context) onSnapshot(snap domain.Snapshot) {
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()

	c.bus.Send(relay.EndpointBroker, relay.SnapshotPush{
		SessionID: c.id,
		Snapshot:  snap,
	})
}

func (c *Context) onLocation(url string) {
	c.log.Debug("restoring bookmark indicators after navigation",
		logger.String("url", url))
	go c.restoreIndicators()
}

// restoreIndicators re-marks bookmarked messages on the current page.
// The page may still be rendering, so a pass that finds no messages
// retries a few times before giving up.
func (c *Context) restoreIndicators() {
	if c.checker == nil {
		return
	}
	ctx := c.runCtx
	if ctx == nil {
		ctx = context.Background()
	}

	c.opts.RestoreRetry.Do(ctx, func() bool {
		snap := c.Snapshot()
		if len(snap.Messages) == 0 {
			return false
		}
		restored := 0
		for _, msg := range snap.Messages {
			if c.checker.IsBookmarked(msg.ID, snap.URL) {
				c.marker.Mark(msg.ID)
				restored++
			}
		}
		c.log.Debug("bookmark indicators restored",
			logger.String("url", snap.URL),
			logger.Int("restored", restored))
		return true
	})
}

func (c *Context) handle(msg relay.Message) relay.Message {
	switch m := msg.(type) {
	case relay.RefreshCommand:
		c.observer.Refresh()
		return nil

	case relay.NavigateCommand:
		ok := c.navigator.ScrollToMessage(m.MessageID)
		if !ok && m.Ordinal > 0 {
			ok = c.navigator.ScrollToOrdinal(m.Ordinal)
		}
		return relay.NavigateResult{OK: ok}

	case relay.ThemeQuery:
		return relay.ThemeResult{Theme: extract.DetectTheme(c.doc.Document())}

	case relay.MarkBookmark:
		c.marker.Mark(m.MessageID)
		return nil

	case relay.UnmarkBookmark:
		c.marker.Unmark(m.MessageID)
		return nil

	default:
		return nil
	}
}
