// Package nav scrolls the page to messages and manages the transient
// highlight shown on arrival.
package nav

import (
	"context"
	"sync"
	"time"

	"github.com/chatnav/compass/internal/domain"
	"github.com/chatnav/compass/internal/logger"
	"github.com/chatnav/compass/internal/page"
)

// Highlighter renders the arrival highlight on a message.
type Highlighter interface {
	Scroll(messageID string)
	Apply(messageID string)
	Clear(messageID string)
}

// Options tunes navigation timing.
type Options struct {
	// HighlightDuration is how long the highlight stays before
	// clearing itself.
	HighlightDuration time.Duration
	// NavigationSettle is the wait after a cross-page jump before the
	// target is looked up.
	NavigationSettle time.Duration
	// Retry bounds the post-navigation target lookup.
	Retry Policy
}

// SnapshotFunc returns the current view of the page's messages.
type SnapshotFunc func() domain.Snapshot

// Navigator jumps to messages on the page. At most one message is
// highlighted at a time; jumping elsewhere clears the previous
// highlight immediately.
type Navigator struct {
	doc      page.Source
	hl       Highlighter
	snapshot SnapshotFunc
	opts     Options
	log      logger.Logger

	mu      sync.Mutex
	current string
	timer   *time.Timer
}

// New creates a navigator. snapshot must reflect the page the source
// is currently showing.
func New(doc page.Source, hl Highlighter, snapshot SnapshotFunc, opts Options, log logger.Logger) *Navigator {
	return &Navigator{
		doc:      doc,
		hl:       hl,
		snapshot: snapshot,
		opts:     opts,
		log:      log,
	}
}

// ScrollToMessage scrolls to a message on the current page and
// highlights it. Returns false when the message is not present.
func (n *Navigator) ScrollToMessage(messageID string) bool {
	snap := n.snapshot()
	if snap.Find(messageID) == nil {
		n.log.Debug("scroll target not on page",
			logger.String("message_id", messageID))
		return false
	}
	n.hl.Scroll(messageID)
	n.highlight(messageID)
	return true
}

// ScrollToOrdinal scrolls to the message holding the given ordinal.
func (n *Navigator) ScrollToOrdinal(ordinal int) bool {
	snap := n.snapshot()
	msg := snap.FindByOrdinal(ordinal)
	if msg == nil {
		return false
	}
	n.hl.Scroll(msg.ID)
	n.highlight(msg.ID)
	return true
}

// NavigateToBookmark jumps to a bookmarked message. On the bookmark's
// own page it scrolls directly; otherwise it navigates there first,
// waits for the page to settle, and retries the lookup. The message id
// is tried first, the ordinal as fallback when the id scheme shifted.
func (n *Navigator) NavigateToBookmark(ctx context.Context, bm *domain.BookmarkedMessage) bool {
	if n.doc.Document().URL == bm.SourceURL {
		if n.ScrollToMessage(bm.MessageID) {
			return true
		}
		return n.ScrollToOrdinal(bm.Ordinal)
	}

	if err := n.doc.Navigate(bm.SourceURL); err != nil {
		n.log.Warn("failed to navigate to bookmark source",
			logger.String("url", bm.SourceURL),
			logger.Error(err))
		return false
	}

	timer := time.NewTimer(n.opts.NavigationSettle)
	select {
	case <-ctx.Done():
		timer.Stop()
		return false
	case <-timer.C:
	}

	found := n.opts.Retry.Do(ctx, func() bool {
		if n.ScrollToMessage(bm.MessageID) {
			return true
		}
		return n.ScrollToOrdinal(bm.Ordinal)
	})
	if !found {
		n.log.Warn("bookmark target not found after navigation",
			logger.String("message_id", bm.MessageID),
			logger.String("url", bm.SourceURL),
			logger.Int("ordinal", bm.Ordinal))
	}
	return found
}

// highlight applies the highlight to messageID, replacing any active
// one, and schedules its removal.
func (n *Navigator) highlight(messageID string) {
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
	}
	previous := n.current
	n.current = messageID
	n.timer = time.AfterFunc(n.opts.HighlightDuration, func() {
		n.clearIfCurrent(messageID)
	})
	n.mu.Unlock()

	if previous != "" && previous != messageID {
		n.hl.Clear(previous)
	}
	n.hl.Apply(messageID)
}

// clearIfCurrent clears the highlight only if a newer jump has not
// taken over in the meantime.
func (n *Navigator) clearIfCurrent(messageID string) {
	n.mu.Lock()
	if n.current != messageID {
		n.mu.Unlock()
		return
	}
	n.current = ""
	n.timer = nil
	n.mu.Unlock()

	n.hl.Clear(messageID)
}

// Highlighted returns the id of the currently highlighted message.
func (n *Navigator) Highlighted() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// LogHighlighter is a Highlighter that only logs. It stands in where
// no rendering surface is attached.
type LogHighlighter struct {
	Log logger.Logger
}

func (h LogHighlighter) Scroll(messageID string) {
	h.Log.Debug("scrolling to message", logger.String("message_id", messageID))
}

func (h LogHighlighter) Apply(messageID string) {
	h.Log.Debug("highlighting message", logger.String("message_id", messageID))
}

func (h LogHighlighter) Clear(messageID string) {
	h.Log.Debug("clearing highlight", logger.String("message_id", messageID))
}
