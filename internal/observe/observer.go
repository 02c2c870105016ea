// Package observe watches a page source and runs debounced extraction
// passes. Bursts of mutations collapse into a single pass a short
// window after the last one.
package observe

import (
	"sync"
	"time"

	"github.com/chatnav/compass/internal/domain"
	"github.com/chatnav/compass/internal/extract"
	"github.com/chatnav/compass/internal/logger"
	"github.com/chatnav/compass/internal/page"
)

// Options tunes the observer timing.
type Options struct {
	// DebounceWindow is how long mutations must stay quiet before a pass.
	DebounceWindow time.Duration
	// NavigationSettle is the wait after a location change before the
	// first pass on the new page.
	NavigationSettle time.Duration
}

// Observer debounces document mutations into extraction passes and
// delivers each resulting snapshot to the OnSnapshot callback.
type Observer struct {
	source    page.Source
	extractor *extract.Extractor
	opts      Options
	log       logger.Logger

	// OnSnapshot runs on the observer goroutine after every pass.
	OnSnapshot func(domain.Snapshot)

	// OnLocation runs when the page navigates, before the settle wait.
	OnLocation func(url string)

	refresh  chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates an observer over source. Call Start to begin.
func New(source page.Source, extractor *extract.Extractor, opts Options, log logger.Logger) *Observer {
	return &Observer{
		source:    source,
		extractor: extractor,
		opts:      opts,
		log:       log,
		refresh:   make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs an immediate extraction pass and then begins watching.
func (o *Observer) Start() {
	o.pass("initial")
	go o.loop()
}

// Refresh forces a pass outside the debounce schedule. Non-blocking;
// a pending request is enough.
func (o *Observer) Refresh() {
	select {
	case o.refresh <- struct{}{}:
	default:
	}
}

// Stop halts the observer and waits for the loop to exit.
func (o *Observer) Stop() {
	o.stopOnce.Do(func() { close(o.stop) })
	<-o.done
}

func (o *Observer) loop() {
	defer close(o.done)

	// One timer serves both debounce and settle waits. Each relevant
	// event resets it, so only the quiet period after the last event
	// triggers a pass.
	timer := time.NewTimer(o.opts.DebounceWindow)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	arm := func(d time.Duration) {
		if armed && !timer.Stop() {
			<-timer.C
		}
		timer.Reset(d)
		armed = true
	}

	for {
		select {
		case <-o.stop:
			if armed {
				timer.Stop()
			}
			return

		case mut, ok := <-o.source.Mutations():
			if !ok {
				return
			}
			if !o.extractor.FragmentHasMarkers(mut.Added) {
				continue
			}
			arm(o.opts.DebounceWindow)

		case url, ok := <-o.source.Locations():
			if !ok {
				return
			}
			o.log.Debug("page navigated", logger.String("url", url))
			if o.OnLocation != nil {
				o.OnLocation(url)
			}
			arm(o.opts.NavigationSettle)

		case <-timer.C:
			armed = false
			o.pass("debounced")

		case <-o.refresh:
			if armed {
				if !timer.Stop() {
					<-timer.C
				}
				armed = false
			}
			o.pass("manual")
		}
	}
}

func (o *Observer) pass(reason string) {
	snap := o.extractor.Extract(o.source.Document())
	o.log.Debug("extraction pass",
		logger.String("reason", reason),
		logger.String("url", snap.URL),
		logger.Int("messages", len(snap.Messages)))
	if o.OnSnapshot != nil {
		o.OnSnapshot(snap)
	}
}
