package feed

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testEvent(t *testing.T, id string) Event {
	t.Helper()
	event, err := NewIncidentEvent(EventNewSOS, Incident{ID: id, Status: "ACTIVE"})
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	return event
}

func TestHubDispatchesToAllSubscribers(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())

	first := hub.Subscribe()
	second := hub.Subscribe()
	defer first.Unsubscribe()
	defer second.Unsubscribe()

	if err := hub.Publish(context.Background(), testEvent(t, "a")); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	for _, sub := range []*Subscriber{first, second} {
		select {
		case event := <-sub.C:
			if event.Type != EventNewSOS {
				t.Fatalf("unexpected event type %s", event.Type)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestHubUnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())

	sub := hub.Subscribe()
	sub.Unsubscribe()
	sub.Unsubscribe()

	if _, open := <-sub.C; open {
		t.Fatal("channel must be closed after unsubscribe")
	}

	// Publishing after unsubscribe must not panic on the closed channel.
	if err := hub.Publish(context.Background(), testEvent(t, "b")); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
}

func TestHubDropsEventsForLaggingSubscriber(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())

	sub := hub.Subscribe()
	defer sub.Unsubscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		if err := hub.Publish(context.Background(), testEvent(t, "x")); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}

	if len(sub.C) != subscriberBuffer {
		t.Fatalf("expected buffer capped at %d, got %d", subscriberBuffer, len(sub.C))
	}
}
