package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const redisChannelPrefix = "event:"

// RedisBus fans events out through Redis pub/sub so every instance of the
// service sees them. Event data arrives at subscribers as raw JSON.
type RedisBus struct {
	client *redis.Client

	mu     sync.Mutex
	subs   map[*redis.PubSub]struct{}
	closed bool
}

func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{
		client: client,
		subs:   make(map[*redis.PubSub]struct{}),
	}
}

func (b *RedisBus) Publish(ctx context.Context, event Event) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrClosed
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if err = b.client.Publish(ctx, redisChannelPrefix+event.Topic, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event on %s: %w", event.Topic, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(topic string) (<-chan Event, func()) {
	client := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(client)
		return client, func() {}
	}
	pubsub := b.client.Subscribe(context.Background(), redisChannelPrefix+topic)
	b.subs[pubsub] = struct{}{}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(client)
		for msg := range pubsub.Channel() {
			var ev struct {
				Topic string          `json:"topic"`
				Type  string          `json:"type"`
				Data  json.RawMessage `json:"data,omitempty"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn().Err(err).Str("channel", msg.Channel).Msg("failed to decode event")
				continue
			}

			event := Event{Topic: ev.Topic, Type: ev.Type}
			if len(ev.Data) > 0 {
				event.Data = ev.Data
			}

			select {
			case client <- event:
			case <-done:
				return
			default:
				log.Warn().Str("topic", topic).Msg("subscriber is lagging, event dropped")
			}
		}
	}()

	var once sync.Once
	return client, func() {
		once.Do(func() {
			close(done)
			b.mu.Lock()
			delete(b.subs, pubsub)
			b.mu.Unlock()
			if err := pubsub.Close(); err != nil {
				log.Warn().Err(err).Str("topic", topic).Msg("failed to close subscription")
			}
		})
	}
}

// Close ends every subscription. The redis client stays open; its owner closes it.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var firstErr error
	for pubsub := range b.subs {
		if err := pubsub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(b.subs, pubsub)
	}
	return firstErr
}
