package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultQueueCapacity bounds a subscriber's outbound queue when no explicit
// capacity is configured. A full queue force-disconnects that subscriber
// instead of blocking the publisher.
const DefaultQueueCapacity = 64

// ErrSubscriberClosed reports that a subscriber was closed, whether by its
// own session or by a forced disconnect.
var ErrSubscriberClosed = errors.New("chat: subscriber closed")

// Subscriber is one live connection's delivery endpoint: a bounded, ordered
// queue of events. The session that created it owns its lifecycle; the room's
// Channel holds only a non-owning reference for fan-out.
type Subscriber struct {
	id        string
	roomID    string
	createdAt time.Time

	queue     chan Event
	closed    chan struct{}
	closeOnce sync.Once
}

func newSubscriber(roomID string, capacity int) *Subscriber {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Subscriber{
		id:        uuid.NewString(),
		roomID:    roomID,
		createdAt: time.Now(),
		queue:     make(chan Event, capacity),
		closed:    make(chan struct{}),
	}
}

// ID returns the subscriber's opaque identifier, used for log correlation.
func (s *Subscriber) ID() string { return s.id }

// RoomID returns the room this subscriber is attached to.
func (s *Subscriber) RoomID() string { return s.roomID }

// CreatedAt returns the subscribe time.
func (s *Subscriber) CreatedAt() time.Time { return s.createdAt }

// push enqueues an event without blocking. It reports false when the queue is
// full or the subscriber is closed; the owning Channel treats false as a
// force-disconnect. Only the Channel calls push, under the room lock.
func (s *Subscriber) push(ev Event) bool {
	select {
	case <-s.closed:
		return false
	default:
	}
	select {
	case s.queue <- ev:
		return true
	default:
		return false
	}
}

// Pop suspends until an event is available, the subscriber is closed
// (ErrSubscriberClosed), or ctx ends (ctx.Err()). It never busy-waits.
func (s *Subscriber) Pop(ctx context.Context) (Event, error) {
	select {
	case ev := <-s.queue:
		return ev, nil
	case <-s.closed:
		return Event{}, ErrSubscriberClosed
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Events exposes the queue for select loops that multiplex delivery with a
// keepalive timer. Receivers must also watch Done: the queue is never closed,
// so a receive on it alone would block forever after Close.
func (s *Subscriber) Events() <-chan Event { return s.queue }

// Done is closed when the subscriber is closed.
func (s *Subscriber) Done() <-chan struct{} { return s.closed }

// Close marks the subscriber closed and wakes any blocked Pop. It is
// idempotent and safe to call concurrently with push.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}
