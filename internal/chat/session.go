package chat

import (
	"context"
	"fmt"
	"time"
)

// DefaultKeepalive is how long a stream may stay silent before a ping is
// emitted to hold the connection open.
const DefaultKeepalive = 30 * time.Second

// Sink receives the ordered output of a Session. A session calls its sink
// from a single goroutine, so implementations need no locking of their own.
type Sink interface {
	// Send delivers one room event.
	Send(Event) error
	// Ping delivers a keepalive marker.
	Ping() error
}

// Session drives one stream over a room: full history first, then live
// events in publish order, with a ping whenever the stream has been idle for
// the keepalive interval.
type Session struct {
	channel   *Channel
	sink      Sink
	keepalive time.Duration
}

// NewSession prepares a session for one subscriber. keepalive values <= 0
// select DefaultKeepalive.
func NewSession(channel *Channel, sink Sink, keepalive time.Duration) *Session {
	if keepalive <= 0 {
		keepalive = DefaultKeepalive
	}
	return &Session{channel: channel, sink: sink, keepalive: keepalive}
}

// Run subscribes, replays, then relays live events until the context is
// canceled, the subscriber is force-disconnected, or the sink fails. Context
// cancellation and forced disconnect end the stream with a nil error; only
// sink failures are reported.
func (s *Session) Run(ctx context.Context) error {
	history, sub := s.channel.Subscribe()
	defer s.channel.Unsubscribe(sub)

	count := s.channel.ActiveCount()
	for _, msg := range history {
		if err := s.sink.Send(Event{Message: msg, ActiveCount: count}); err != nil {
			return fmt.Errorf("replay message %s: %w", msg.ID, err)
		}
	}

	ticker := time.NewTicker(s.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.Done():
			return nil
		case ev := <-sub.Events():
			if err := s.sink.Send(ev); err != nil {
				return fmt.Errorf("send message %s: %w", ev.Message.ID, err)
			}
			ticker.Reset(s.keepalive)
		case <-ticker.C:
			if err := s.sink.Ping(); err != nil {
				return fmt.Errorf("keepalive ping: %w", err)
			}
		}
	}
}
