// Package relay carries typed messages between the source, panel, and
// broker contexts. It is the only coupling between them; nothing else
// is shared.
package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chatnav/compass/internal/logger"
)

var (
	// ErrNoReceiver means no handler is registered for the endpoint.
	ErrNoReceiver = errors.New("relay: no receiver registered")

	// ErrTimeout means the handler did not answer in time.
	ErrTimeout = errors.New("relay: request timed out")
)

// Handler processes one message. A nil reply is valid for
// notifications; Request callers get ErrNoReceiver semantics only when
// the endpoint itself is absent.
type Handler func(msg Message) Message

// Bus routes messages to registered endpoints.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Endpoint]Handler
	timeout  time.Duration
	log      logger.Logger
}

// NewBus creates a bus. timeout bounds Request when the caller's
// context carries no deadline.
func NewBus(timeout time.Duration, log logger.Logger) *Bus {
	return &Bus{
		handlers: make(map[Endpoint]Handler),
		timeout:  timeout,
		log:      log,
	}
}

// Register installs the handler for an endpoint, replacing any
// previous one.
func (b *Bus) Register(ep Endpoint, h Handler) {
	b.mu.Lock()
	b.handlers[ep] = h
	b.mu.Unlock()
}

// Deregister removes the endpoint. Later sends to it are dropped.
func (b *Bus) Deregister(ep Endpoint) {
	b.mu.Lock()
	delete(b.handlers, ep)
	b.mu.Unlock()
}

// Send delivers msg without waiting for an answer. A missing receiver
// is not an error: contexts come and go independently and a
// notification to an absent one simply evaporates.
func (b *Bus) Send(ep Endpoint, msg Message) {
	b.mu.RLock()
	h, ok := b.handlers[ep]
	b.mu.RUnlock()

	if !ok {
		b.log.Debug("dropping message for absent endpoint",
			logger.String("endpoint", string(ep)),
			logger.String("kind", Kind(msg)))
		return
	}
	h(msg)
}

// Request delivers msg and waits for the handler's reply. The handler
// runs on its own goroutine so a stuck receiver cannot wedge the
// caller past the deadline.
func (b *Bus) Request(ctx context.Context, ep Endpoint, msg Message) (Message, error) {
	b.mu.RLock()
	h, ok := b.handlers[ep]
	b.mu.RUnlock()

	if !ok {
		return nil, ErrNoReceiver
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	replies := make(chan Message, 1)
	go func() {
		replies <- h(msg)
	}()

	select {
	case reply := <-replies:
		return reply, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}
