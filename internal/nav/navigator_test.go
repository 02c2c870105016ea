package nav

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chatnav/compass/internal/domain"
	"github.com/chatnav/compass/internal/logger"
	"github.com/chatnav/compass/internal/page"
)

type fakeHighlighter struct {
	mu      sync.Mutex
	scrolls []string
	applied []string
	cleared []string
}

func (h *fakeHighlighter) Scroll(id string) {
	h.mu.Lock()
	h.scrolls = append(h.scrolls, id)
	h.mu.Unlock()
}

func (h *fakeHighlighter) Apply(id string) {
	h.mu.Lock()
	h.applied = append(h.applied, id)
	h.mu.Unlock()
}

func (h *fakeHighlighter) Clear(id string) {
	h.mu.Lock()
	h.cleared = append(h.cleared, id)
	h.mu.Unlock()
}

func (h *fakeHighlighter) clearedIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.cleared...)
}

func snapshotWith(url string, ids ...string) SnapshotFunc {
	msgs := make([]domain.Message, len(ids))
	for i, id := range ids {
		msgs[i] = domain.Message{ID: id, Content: "c", Ordinal: i + 1}
	}
	snap := domain.Snapshot{URL: url, Messages: msgs}
	return func() domain.Snapshot { return snap }
}

func newTestNavigator(doc page.Source, hl Highlighter, snap SnapshotFunc, highlightFor time.Duration) *Navigator {
	return New(doc, hl, snap, Options{
		HighlightDuration: highlightFor,
		NavigationSettle:  10 * time.Millisecond,
		Retry:             Policy{MaxAttempts: 3, Backoff: 10 * time.Millisecond},
	}, logger.Nop())
}

func TestScrollToMessageHighlights(t *testing.T) {
	doc := page.NewMemoryDocument("", "https://chat.example/c/1")
	defer doc.Close()
	hl := &fakeHighlighter{}
	n := newTestNavigator(doc, hl, snapshotWith(doc.Document().URL, "m1", "m2"), time.Hour)

	if !n.ScrollToMessage("m1") {
		t.Fatal("ScrollToMessage(m1) = false")
	}
	if n.Highlighted() != "m1" {
		t.Errorf("Highlighted() = %q", n.Highlighted())
	}

	if n.ScrollToMessage("missing") {
		t.Error("ScrollToMessage(missing) = true")
	}
	// A failed jump leaves the active highlight alone.
	if n.Highlighted() != "m1" {
		t.Errorf("Highlighted() = %q after failed jump", n.Highlighted())
	}
}

func TestHighlightIsExclusive(t *testing.T) {
	doc := page.NewMemoryDocument("", "https://chat.example/c/1")
	defer doc.Close()
	hl := &fakeHighlighter{}
	n := newTestNavigator(doc, hl, snapshotWith(doc.Document().URL, "m1", "m2"), time.Hour)

	n.ScrollToMessage("m1")
	n.ScrollToMessage("m2")

	if n.Highlighted() != "m2" {
		t.Errorf("Highlighted() = %q, want m2", n.Highlighted())
	}
	cleared := hl.clearedIDs()
	if len(cleared) != 1 || cleared[0] != "m1" {
		t.Errorf("cleared = %v, want [m1]", cleared)
	}
}

func TestHighlightClearsItself(t *testing.T) {
	doc := page.NewMemoryDocument("", "https://chat.example/c/1")
	defer doc.Close()
	hl := &fakeHighlighter{}
	n := newTestNavigator(doc, hl, snapshotWith(doc.Document().URL, "m1"), 20*time.Millisecond)

	n.ScrollToMessage("m1")

	deadline := time.Now().Add(time.Second)
	for n.Highlighted() != "" && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n.Highlighted() != "" {
		t.Fatal("highlight never cleared itself")
	}
	cleared := hl.clearedIDs()
	if len(cleared) != 1 || cleared[0] != "m1" {
		t.Errorf("cleared = %v, want [m1]", cleared)
	}
}

func TestNavigateToBookmarkSamePageOrdinalFallback(t *testing.T) {
	doc := page.NewMemoryDocument("", "https://chat.example/c/1")
	defer doc.Close()
	hl := &fakeHighlighter{}
	n := newTestNavigator(doc, hl, snapshotWith(doc.Document().URL, "m1", "m2"), time.Hour)

	// Stale MessageID, valid Ordinal: the ordinal fallback lands it.
	bm := &domain.BookmarkedMessage{
		MessageID: "gone",
		SourceURL: "https://chat.example/c/1",
		Ordinal:   2,
	}
	if !n.NavigateToBookmark(context.Background(), bm) {
		t.Fatal("NavigateToBookmark() = false, want ordinal fallback hit")
	}
	if n.Highlighted() != "m2" {
		t.Errorf("Highlighted() = %q, want m2", n.Highlighted())
	}
}

func TestNavigateToBookmarkCrossPageRetriesBounded(t *testing.T) {
	doc := page.NewMemoryDocument("", "https://chat.example/c/1")
	defer doc.Close()
	hl := &fakeHighlighter{}

	// Snapshot never contains the target, so every lookup fails.
	calls := 0
	snap := func() domain.Snapshot {
		calls++
		return domain.Snapshot{URL: doc.Document().URL}
	}
	n := newTestNavigator(doc, hl, snap, time.Hour)

	bm := &domain.BookmarkedMessage{
		MessageID: "m9",
		SourceURL: "https://chat.example/c/other",
		Ordinal:   9,
	}
	if n.NavigateToBookmark(context.Background(), bm) {
		t.Fatal("NavigateToBookmark() = true for a missing target")
	}
	if doc.Document().URL != "https://chat.example/c/other" {
		t.Errorf("URL = %q, navigation did not happen", doc.Document().URL)
	}
	// 3 attempts, each trying id then ordinal.
	if calls != 6 {
		t.Errorf("snapshot consulted %d times, want 6", calls)
	}
}

func TestRetryPolicyStopsOnSuccess(t *testing.T) {
	p := Policy{MaxAttempts: 5, Backoff: time.Millisecond}

	calls := 0
	ok := p.Do(context.Background(), func() bool {
		calls++
		return calls == 3
	})
	if !ok {
		t.Fatal("Do() = false")
	}
	if calls != 3 {
		t.Errorf("fn ran %d times, want 3", calls)
	}
}

func TestRetryPolicyHonorsContext(t *testing.T) {
	p := Policy{MaxAttempts: 100, Backoff: 50 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	ok := p.Do(ctx, func() bool {
		calls++
		return false
	})
	if ok {
		t.Fatal("Do() = true with cancelled context")
	}
	if calls != 1 {
		t.Errorf("fn ran %d times after cancel, want 1", calls)
	}
}
