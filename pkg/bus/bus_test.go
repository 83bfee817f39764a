package bus

import (
	"context"
	"testing"
	"time"
)

func TestPublishReachesSubscribers(t *testing.T) {
	t.Parallel()

	b := NewBus()
	t.Cleanup(b.Close)

	events, unsubscribe := b.SubscribeEvents(context.Background(), 4)
	defer unsubscribe()

	if !b.PublishEvent(context.Background(), Event{Type: EventMessageHandled, Channel: "whatsapp", SenderID: "whatsapp:1"}) {
		t.Fatal("PublishEvent returned false on open bus")
	}

	select {
	case event := <-events:
		if event.Type != EventMessageHandled {
			t.Fatalf("event.Type = %q, want %q", event.Type, EventMessageHandled)
		}
		if event.At.IsZero() {
			t.Fatal("event.At was not stamped")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()

	b := NewBus()
	t.Cleanup(b.Close)

	events, unsubscribe := b.SubscribeEvents(context.Background(), 1)
	unsubscribe()

	if _, ok := <-events; ok {
		t.Fatal("subscriber channel not closed after unsubscribe")
	}
}

func TestSlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	t.Parallel()

	b := NewBus()
	t.Cleanup(b.Close)

	_, unsubscribe := b.SubscribeEvents(context.Background(), 1)
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			b.PublishEvent(context.Background(), Event{Type: EventMessageReceived})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on full subscriber")
	}
}

func TestPublishAfterCloseFails(t *testing.T) {
	t.Parallel()

	b := NewBus()
	b.Close()

	if b.PublishEvent(context.Background(), Event{Type: EventMessageReceived}) {
		t.Fatal("PublishEvent succeeded on closed bus")
	}

	events, _ := b.SubscribeEvents(context.Background(), 1)
	if _, ok := <-events; ok {
		t.Fatal("subscription on closed bus returned open channel")
	}
}
