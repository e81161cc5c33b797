package notification

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/katatrina/backoffice-BE/internal/event"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPollInterval = 15 * time.Second
	feedReadTimeout     = 10 * time.Second
)

// changeSource signals that a user's notifications may have changed. The
// returned channel coalesces: several changes before a read yield one signal.
type changeSource interface {
	changes(userID string) (<-chan struct{}, func())
}

// Feed delivers live snapshots of a user's notifications. Every delivery is
// the full current state, never a delta, and is skipped when nothing changed
// since the previous one.
type Feed struct {
	service *Service
	source  changeSource
}

// NewPushFeed re-reads whenever a change event is published on the bus.
func NewPushFeed(service *Service, bus event.Bus) *Feed {
	return &Feed{service: service, source: busSource{bus: bus}}
}

// NewPollFeed re-reads on a fixed interval.
func NewPollFeed(service *Service, interval time.Duration) *Feed {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Feed{service: service, source: pollSource{interval: interval}}
}

// SubscribeLive calls onSnapshot with the user's newest notifications now and
// after every change. The returned func stops delivery; a read already in
// flight completes but is not delivered.
func (f *Feed) SubscribeLive(userID string, onSnapshot func([]model.Notification)) func() {
	return watch(f.source, userID,
		func(ctx context.Context) ([]model.Notification, error) {
			return f.service.ListByUser(ctx, userID, Filter{Limit: LiveSnapshotSize})
		},
		func(list []model.Notification) string {
			raw, err := json.Marshal(list)
			if err != nil {
				return ""
			}
			return string(raw)
		},
		onSnapshot,
	)
}

// SubscribeUnreadCount calls onCount with the user's unread count now and
// whenever it changes.
func (f *Feed) SubscribeUnreadCount(userID string, onCount func(int)) func() {
	return watch(f.source, userID,
		func(ctx context.Context) (int, error) {
			return f.service.UnreadCount(ctx, userID)
		},
		strconv.Itoa,
		onCount,
	)
}

func watch[V any](
	source changeSource,
	userID string,
	read func(ctx context.Context) (V, error),
	fingerprint func(V) string,
	deliver func(V),
) func() {
	changes, stopChanges := source.changes(userID)
	done := make(chan struct{})

	go func() {
		var (
			last      string
			delivered bool
		)

		refresh := func() {
			ctx, cancel := context.WithTimeout(context.Background(), feedReadTimeout)
			value, err := read(ctx)
			cancel()
			if err != nil {
				log.Warn().Err(err).Str("user_id", userID).Msg("failed to refresh notification feed")
				return
			}

			select {
			case <-done:
				return
			default:
			}

			fp := fingerprint(value)
			if delivered && fp == last {
				return
			}
			last, delivered = fp, true
			deliver(value)
		}

		refresh()
		for {
			select {
			case <-done:
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				refresh()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			stopChanges()
		})
	}
}

type busSource struct {
	bus event.Bus
}

func (s busSource) changes(userID string) (<-chan struct{}, func()) {
	events, unsubscribe := s.bus.Subscribe(event.NotificationTopic(userID))
	signals := make(chan struct{}, 1)

	go func() {
		defer close(signals)
		for range events {
			select {
			case signals <- struct{}{}:
			default:
			}
		}
	}()

	return signals, unsubscribe
}

type pollSource struct {
	interval time.Duration
}

func (s pollSource) changes(string) (<-chan struct{}, func()) {
	signals := make(chan struct{}, 1)
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				select {
				case signals <- struct{}{}:
				default:
				}
			}
		}
	}()

	var once sync.Once
	return signals, func() {
		once.Do(func() { close(done) })
	}
}
