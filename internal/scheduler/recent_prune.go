package scheduler

import (
	"context"
	"time"

	"github.com/chatnav/compass/internal/bookmarks"
	"github.com/chatnav/compass/internal/logger"
)

// RecentSweeper periodically drops recent-conversation entries older
// than the retention window.
type RecentSweeper struct {
	manager   *bookmarks.Manager
	retention time.Duration
	interval  time.Duration
	log       logger.Logger

	manualTrigger chan struct{}
	stopCh        chan struct{}
}

// NewRecentSweeper creates a sweeper over manager.
func NewRecentSweeper(manager *bookmarks.Manager, retention, interval time.Duration, log logger.Logger) *RecentSweeper {
	return &RecentSweeper{
		manager:       manager,
		retention:     retention,
		interval:      interval,
		log:           log,
		manualTrigger: make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
	}
}

// Start runs one sweep immediately, then sweeps on the interval until
// Stop or ctx cancellation.
func (s *RecentSweeper) Start(ctx context.Context) {
	s.sweep(ctx)
	go s.loop(ctx)
}

// Trigger requests an immediate sweep.
func (s *RecentSweeper) Trigger() {
	select {
	case s.manualTrigger <- struct{}{}:
	default:
	}
}

// Stop halts the sweep loop.
func (s *RecentSweeper) Stop() {
	close(s.stopCh)
}

func (s *RecentSweeper) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.manualTrigger:
			s.sweep(ctx)
		}
	}
}

func (s *RecentSweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.retention)
	removed, err := s.manager.PruneRecentConversations(ctx, cutoff)
	if err != nil {
		s.log.Error("recent conversation sweep failed", logger.Error(err))
		return
	}
	if removed > 0 {
		s.log.Info("pruned stale recent conversations",
			logger.Int("removed", removed))
	}
}
