package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()

	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestLocalBusDeliversToTopicSubscribers(t *testing.T) {
	bus := NewLocalBus()
	defer bus.Close()

	ana, unsubAna := bus.Subscribe(NotificationTopic("ana"))
	defer unsubAna()
	bruno, unsubBruno := bus.Subscribe(NotificationTopic("bruno"))
	defer unsubBruno()

	err := bus.Publish(context.Background(), Event{
		Topic: NotificationTopic("ana"),
		Type:  EventTypeNotificationsChanged,
	})
	require.NoError(t, err)

	ev := receive(t, ana)
	assert.Equal(t, "notifications:ana", ev.Topic)
	assert.Equal(t, EventTypeNotificationsChanged, ev.Type)

	select {
	case <-bruno:
		t.Fatal("event delivered to another topic")
	default:
	}
}

func TestLocalBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewLocalBus()
	defer bus.Close()

	ch, unsubscribe := bus.Subscribe("topic")
	unsubscribe()
	unsubscribe()

	_, ok := <-ch
	assert.False(t, ok)
	require.NoError(t, bus.Publish(context.Background(), Event{Topic: "topic"}))
}

func TestLocalBusPublishNeverBlocks(t *testing.T) {
	bus := NewLocalBus()
	defer bus.Close()

	ch, unsubscribe := bus.Subscribe("topic")
	defer unsubscribe()

	for i := 0; i < subscriberBuffer*3; i++ {
		require.NoError(t, bus.Publish(context.Background(), Event{Topic: "topic"}))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestLocalBusClose(t *testing.T) {
	bus := NewLocalBus()
	ch, unsubscribe := bus.Subscribe("topic")

	require.NoError(t, bus.Close())
	_, ok := <-ch
	assert.False(t, ok)
	unsubscribe()

	assert.ErrorIs(t, bus.Publish(context.Background(), Event{Topic: "topic"}), ErrClosed)

	late, _ := bus.Subscribe("topic")
	_, ok = <-late
	assert.False(t, ok)
}
