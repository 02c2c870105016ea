package nav

import (
	"context"
	"time"
)

// Policy bounds a retried operation.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Do runs fn until it reports success, the attempts run out, or ctx is
// done. Waits Backoff between attempts, not after the last one.
func (p Policy) Do(ctx context.Context, fn func() bool) bool {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		if fn() {
			return true
		}
		if i == attempts-1 {
			break
		}
		timer := time.NewTimer(p.Backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
	return false
}
