package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Channel is the per-room ordering authority. It owns the room's append-only
// message log and its live subscriber set, both guarded by one mutex so every
// Publish and Subscribe observes a strict before/after order. Rooms never
// share a Channel, so rooms scale independently.
type Channel struct {
	roomID   string
	queueCap int

	mu        sync.Mutex
	log       []*Message
	subs      map[*Subscriber]struct{}
	lastStamp time.Time

	// clock is swapped in tests to exercise timestamp monotonicity.
	clock func() time.Time
}

// NewChannel creates the channel for one room. queueCapacity bounds each
// subscriber's queue; values <= 0 select DefaultQueueCapacity.
func NewChannel(roomID string, queueCapacity int) *Channel {
	if queueCapacity <= 0 {
		queueCapacity = DefaultQueueCapacity
	}
	return &Channel{
		roomID:   roomID,
		queueCap: queueCapacity,
		subs:     make(map[*Subscriber]struct{}),
		clock:    time.Now,
	}
}

// RoomID returns the room this channel serves.
func (c *Channel) RoomID() string { return c.roomID }

// Publish assigns an id and a per-room monotonic timestamp, appends the
// message to the log, and fans it out to every attached subscriber. Fan-out
// happens under the room lock with non-blocking pushes, which keeps delivery
// order identical to log order for all subscribers; a subscriber whose queue
// is full is removed from the live set and closed rather than blocking the
// publisher.
func (c *Channel) Publish(userID, userName, text string) *Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	stamp := c.clock().UTC()
	if !stamp.After(c.lastStamp) {
		stamp = c.lastStamp.Add(time.Millisecond)
	}
	c.lastStamp = stamp

	msg := &Message{
		ID:        uuid.NewString(),
		RoomID:    c.roomID,
		UserID:    userID,
		UserName:  userName,
		Text:      text,
		Timestamp: stamp,
	}
	c.log = append(c.log, msg)

	ev := Event{Message: msg, ActiveCount: len(c.subs)}
	var stalled []*Subscriber
	for sub := range c.subs {
		if !sub.push(ev) {
			stalled = append(stalled, sub)
		}
	}
	for _, sub := range stalled {
		delete(c.subs, sub)
		sub.Close()
	}
	return msg
}

// Subscribe returns the full ordered history as of now and attaches a new
// live subscriber, atomically with respect to Publish: a message published
// before the snapshot point is in the snapshot, one published after is
// delivered live, never both and never neither. The snapshot is a capped
// reference into the log, not a copy; entries are immutable and future
// appends only extend the tail.
func (c *Channel) Subscribe() ([]*Message, *Subscriber) {
	sub := newSubscriber(c.roomID, c.queueCap)

	c.mu.Lock()
	snapshot := c.log[:len(c.log):len(c.log)]
	c.subs[sub] = struct{}{}
	c.mu.Unlock()

	return snapshot, sub
}

// Unsubscribe detaches and closes the subscriber. It is idempotent and a
// no-op for subscribers the channel no longer tracks.
func (c *Channel) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	c.mu.Lock()
	delete(c.subs, sub)
	c.mu.Unlock()
	sub.Close()
}

// ActiveCount returns the size of the live subscriber set.
func (c *Channel) ActiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// History returns the ordered log as of now without attaching a subscriber.
func (c *Channel) History() []*Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log[:len(c.log):len(c.log)]
}

// CloseAll force-disconnects every subscriber. Used at shutdown so no open
// stream can outlive the server.
func (c *Channel) CloseAll() {
	c.mu.Lock()
	for sub := range c.subs {
		delete(c.subs, sub)
		sub.Close()
	}
	c.mu.Unlock()
}
