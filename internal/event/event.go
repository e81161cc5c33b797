package event

import (
	"context"
	"errors"
)

// Event is something that happened on a topic, e.g. "notifications:<userID>".
type Event struct {
	Topic string `json:"topic"`
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
}

const (
	EventTypeNotificationsChanged = "notifications_changed"
)

var ErrClosed = errors.New("event bus is closed")

// NotificationTopic is the topic carrying change signals for one user's notifications.
func NotificationTopic(userID string) string {
	return "notifications:" + userID
}

// Bus delivers events to every subscriber of a topic. Delivery is best
// effort: a subscriber that does not keep up misses events, so events should
// only signal that something changed and subscribers re-read the state.
type Bus interface {
	// Subscribe returns a channel receiving the topic's events and a func
	// that ends the subscription and closes the channel.
	Subscribe(topic string) (<-chan Event, func())
	Publish(ctx context.Context, event Event) error
	Close() error
}
