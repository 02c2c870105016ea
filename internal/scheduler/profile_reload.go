// Package scheduler runs the periodic maintenance loops: markup
// profile reloads and recent-conversation pruning.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/chatnav/compass/internal/logger"
	"github.com/chatnav/compass/internal/sources/profile"
)

// ProfileReloader reloads the markup profile on an interval and on
// manual trigger, handing each loaded profile to apply.
type ProfileReloader struct {
	path     string
	interval time.Duration
	apply    func(profile.Profile)
	log      logger.Logger

	manualTrigger chan struct{}
	stopCh        chan struct{}
}

// NewProfileReloader creates a reloader for the profile at path. An
// empty path reloads the built-in defaults, which keeps the loop
// harmless when no override file is configured.
func NewProfileReloader(path string, interval time.Duration, apply func(profile.Profile), log logger.Logger) *ProfileReloader {
	return &ProfileReloader{
		path:          path,
		interval:      interval,
		apply:         apply,
		log:           log,
		manualTrigger: make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
	}
}

// Start performs an initial load, then runs the reload loop until Stop
// or ctx cancellation. The initial load failing is fatal: running with
// no profile at all extracts nothing.
func (r *ProfileReloader) Start(ctx context.Context) error {
	if err := r.reload(); err != nil {
		return fmt.Errorf("initial profile load failed: %w", err)
	}

	go r.loop(ctx)
	return nil
}

// Trigger requests an immediate reload. Non-blocking; a pending
// trigger is enough.
func (r *ProfileReloader) Trigger() {
	select {
	case r.manualTrigger <- struct{}{}:
	default:
	}
}

// TriggerChannel exposes the manual trigger for the reload endpoint.
func (r *ProfileReloader) TriggerChannel() chan<- struct{} {
	return r.manualTrigger
}

// Stop halts the reload loop.
func (r *ProfileReloader) Stop() {
	close(r.stopCh)
}

func (r *ProfileReloader) loop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			if err := r.reload(); err != nil {
				r.log.Error("scheduled profile reload failed", logger.Error(err))
			}
		case <-r.manualTrigger:
			if err := r.reload(); err != nil {
				r.log.Error("manual profile reload failed", logger.Error(err))
			}
		}
	}
}

func (r *ProfileReloader) reload() error {
	p, err := profile.Load(r.path)
	if err != nil {
		return err
	}
	r.apply(p)
	r.log.Info("markup profile loaded",
		logger.String("path", r.path),
		logger.String("marker_text", p.MarkerText))
	return nil
}
