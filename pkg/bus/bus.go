package bus

import (
	"context"
	"sync"
	"time"
)

const defaultBufferSize = 100

// EventType classifies one gateway processing event.
type EventType string

const (
	EventMessageReceived EventType = "message_received"
	EventMessageHandled  EventType = "message_handled"
	EventMessageFailed   EventType = "message_failed"
)

// Event is one observability record emitted while processing an inbound
// message. It never carries message content, only routing identifiers.
type Event struct {
	Type     EventType `json:"type"`
	At       time.Time `json:"at"`
	Channel  string    `json:"channel,omitempty"`
	SenderID string    `json:"sender_id,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Bus fans processing events out to subscribers. Message flow itself is
// synchronous end-to-end; the bus only carries what happened, for status
// counters and logging.
type Bus struct {
	mu               sync.RWMutex
	subscribers      map[uint64]chan Event
	nextSubscriberID uint64

	done      chan struct{}
	closeOnce sync.Once
}

// NewBus returns an event bus with no subscribers.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[uint64]chan Event),
		done:        make(chan struct{}),
	}
}

// PublishEvent delivers the event to every subscriber. Returns false once
// the bus is closed.
func (b *Bus) PublishEvent(ctx context.Context, event Event) bool {
	if ctx == nil {
		ctx = context.Background()
	}

	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return false
	case <-b.done:
		return false
	default:
	}

	b.mu.RLock()
	subs := make([]chan Event, 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		subs = append(subs, ch)
	}
	b.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			// Drop instead of blocking the publisher on slow subscribers.
		}
	}

	return true
}

// SubscribeEvents registers a buffered subscriber. The returned function
// unsubscribes; it is also called automatically when ctx ends or the bus
// closes.
func (b *Bus) SubscribeEvents(ctx context.Context, buffer int) (<-chan Event, func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	if buffer <= 0 {
		buffer = defaultBufferSize
	}

	ch := make(chan Event, buffer)

	b.mu.Lock()
	select {
	case <-b.done:
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	default:
	}

	id := b.nextSubscriberID
	b.nextSubscriberID++
	b.subscribers[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			if eventCh, ok := b.subscribers[id]; ok {
				delete(b.subscribers, id)
				close(eventCh)
			}
			b.mu.Unlock()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-b.done:
			unsubscribe()
		}
	}()

	return ch, unsubscribe
}

// Close shuts the bus down and closes every subscriber channel.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.done)

		b.mu.Lock()
		for id, ch := range b.subscribers {
			close(ch)
			delete(b.subscribers, id)
		}
		b.mu.Unlock()
	})
}
