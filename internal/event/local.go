package event

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

const subscriberBuffer = 16

// LocalBus is an in-process Bus. Events never leave the process, so it only
// serves deployments running a single instance.
type LocalBus struct {
	mu      sync.Mutex
	clients map[string]map[chan Event]struct{}
	closed  bool
}

func NewLocalBus() *LocalBus {
	return &LocalBus{
		clients: make(map[string]map[chan Event]struct{}),
	}
}

func (b *LocalBus) Subscribe(topic string) (<-chan Event, func()) {
	client := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(client)
		return client, func() {}
	}
	if _, ok := b.clients[topic]; !ok {
		b.clients[topic] = make(map[chan Event]struct{})
	}
	b.clients[topic][client] = struct{}{}
	total := len(b.clients[topic])
	b.mu.Unlock()

	log.Debug().Str("topic", topic).Int("clients", total).Msg("client subscribed")

	var once sync.Once
	return client, func() {
		once.Do(func() { b.unsubscribe(topic, client) })
	}
}

func (b *LocalBus) unsubscribe(topic string, client chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clients, ok := b.clients[topic]
	if !ok {
		return
	}
	if _, ok = clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client)
	if len(clients) == 0 {
		delete(b.clients, topic)
	}

	log.Debug().Str("topic", topic).Int("clients", len(clients)).Msg("client unsubscribed")
}

// Publish never blocks: subscribers whose buffer is full skip the event.
func (b *LocalBus) Publish(_ context.Context, event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	for client := range b.clients[event.Topic] {
		select {
		case client <- event:
		default:
			log.Warn().Str("topic", event.Topic).Msg("subscriber is lagging, event dropped")
		}
	}
	return nil
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for topic, clients := range b.clients {
		for client := range clients {
			close(client)
		}
		delete(b.clients, topic)
	}
	return nil
}
