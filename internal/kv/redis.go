package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/chatnav/compass/internal/logger"
)

// RedisStore persists values in Redis and fans out change notifications
// over a pub/sub channel. Every subscriber observes the same Change
// stream, the writer included, which is what keeps independent contexts
// converging on the same view.
type RedisStore struct {
	client  *redis.Client
	channel string
	logger  logger.Logger
}

// NewRedisStore wraps an already-connected client.
func NewRedisStore(client *redis.Client, log logger.Logger) *RedisStore {
	return &RedisStore{
		client:  client,
		channel: ChangeChannel,
		logger:  log,
	}
}

// Get returns the value for key, or nil when the key does not exist.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return data, nil
}

// Set writes the value and publishes the change. The publish is best
// effort: a lost notification means watchers stay stale until the next
// successful write, which the consistency model tolerates.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	old, err := s.Get(ctx, key)
	if err != nil {
		s.logger.Warn("failed to read previous value before write",
			logger.String("key", key),
			logger.Error(err))
	}

	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	payload, err := json.Marshal(Change{Key: key, Old: old, New: value})
	if err != nil {
		return fmt.Errorf("failed to marshal change for %s: %w", key, err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		s.logger.Warn("failed to publish change notification",
			logger.String("key", key),
			logger.Error(err))
	}
	return nil
}

// Watch subscribes to the change channel and invokes fn for every
// decoded notification until cancel is called or ctx is done.
func (s *RedisStore) Watch(ctx context.Context, fn func(Change)) (func(), error) {
	sub := s.client.Subscribe(ctx, s.channel)

	// Force the subscription to be established before returning, so a
	// write issued right after Watch cannot slip past the watcher.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", s.channel, err)
	}

	go func() {
		for msg := range sub.Channel() {
			var change Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				s.logger.Warn("ignoring malformed change notification",
					logger.Error(err))
				continue
			}
			fn(change)
		}
	}()

	cancel := func() {
		if err := sub.Close(); err != nil {
			s.logger.Warn("failed to close change subscription",
				logger.Error(err))
		}
	}
	return cancel, nil
}
