package observe

import (
	"sync"
	"testing"
	"time"

	"github.com/chatnav/compass/internal/domain"
	"github.com/chatnav/compass/internal/extract"
	"github.com/chatnav/compass/internal/logger"
	"github.com/chatnav/compass/internal/page"
	"github.com/chatnav/compass/internal/sources/profile"
)

type snapshotRecorder struct {
	mu    sync.Mutex
	snaps []domain.Snapshot
}

func (r *snapshotRecorder) record(s domain.Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *snapshotRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func (r *snapshotRecorder) last() domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snaps[len(r.snaps)-1]
}

func markerFragment(n int, content string) string {
	return `<article data-testid="conversation-turn-` + string(rune('0'+n)) + `">` +
		`<h5 class="sr-only">You said:</h5>` +
		`<div class="whitespace-pre-wrap">` + content + `</div>` +
		`</article>`
}

func newTestObserver(doc *page.MemoryDocument, window, settle time.Duration) (*Observer, *snapshotRecorder) {
	rec := &snapshotRecorder{}
	obs := New(doc, extract.New(profile.Default()), Options{
		DebounceWindow:   window,
		NavigationSettle: settle,
	}, logger.Nop())
	obs.OnSnapshot = rec.record
	return obs, rec
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestObserverCollapsesBurstIntoOnePass(t *testing.T) {
	doc := page.NewMemoryDocument("<html><body></body></html>", "https://chat.example/c/1")
	defer doc.Close()

	obs, rec := newTestObserver(doc, 40*time.Millisecond, 40*time.Millisecond)
	obs.Start()
	defer obs.Stop()

	initial := rec.count() // the immediate pass on Start

	doc.AppendHTML(markerFragment(1, "one"))
	doc.AppendHTML(markerFragment(2, "two"))
	doc.AppendHTML(markerFragment(3, "three"))

	waitFor(t, time.Second, func() bool { return rec.count() > initial })

	// Give a second window to prove no extra passes trail in.
	time.Sleep(100 * time.Millisecond)
	if got := rec.count() - initial; got != 1 {
		t.Errorf("burst produced %d passes, want 1", got)
	}
	if got := len(rec.last().Messages); got != 3 {
		t.Errorf("last snapshot has %d messages, want 3", got)
	}
}

func TestObserverIgnoresMarkerFreeMutations(t *testing.T) {
	doc := page.NewMemoryDocument("<html><body></body></html>", "https://chat.example/c/1")
	defer doc.Close()

	obs, rec := newTestObserver(doc, 30*time.Millisecond, 30*time.Millisecond)
	obs.Start()
	defer obs.Stop()

	initial := rec.count()
	doc.AppendHTML(`<div class="toolbar">no messages here</div>`)

	time.Sleep(120 * time.Millisecond)
	if got := rec.count(); got != initial {
		t.Errorf("marker-free mutation triggered %d passes", got-initial)
	}
}

func TestObserverReExtractsAfterNavigation(t *testing.T) {
	doc := page.NewMemoryDocument("<html><body></body></html>", "https://chat.example/c/1")
	defer doc.Close()

	obs, rec := newTestObserver(doc, 30*time.Millisecond, 30*time.Millisecond)

	var gotURL string
	var mu sync.Mutex
	obs.OnLocation = func(url string) {
		mu.Lock()
		gotURL = url
		mu.Unlock()
	}

	obs.Start()
	defer obs.Stop()

	initial := rec.count()
	if err := doc.Navigate("https://chat.example/c/2"); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}

	waitFor(t, time.Second, func() bool { return rec.count() > initial })

	mu.Lock()
	defer mu.Unlock()
	if gotURL != "https://chat.example/c/2" {
		t.Errorf("OnLocation url = %q", gotURL)
	}
	if rec.last().URL != "https://chat.example/c/2" {
		t.Errorf("snapshot URL = %q", rec.last().URL)
	}
}

func TestObserverManualRefresh(t *testing.T) {
	doc := page.NewMemoryDocument(
		"<html><body>"+markerFragment(1, "hello")+"</body></html>",
		"https://chat.example/c/1")
	defer doc.Close()

	obs, rec := newTestObserver(doc, time.Hour, time.Hour)
	obs.Start()
	defer obs.Stop()

	initial := rec.count()
	obs.Refresh()

	waitFor(t, time.Second, func() bool { return rec.count() > initial })
	if got := len(rec.last().Messages); got != 1 {
		t.Errorf("refresh snapshot has %d messages, want 1", got)
	}
}
