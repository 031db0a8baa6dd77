package chat

import "time"

// Message is one chat message in a room's log. Messages are immutable once
// appended and are never deleted; the owning Channel assigns the id and
// timestamp at append time.
type Message struct {
	ID        string
	RoomID    string
	UserID    string
	UserName  string
	Text      string
	Timestamp time.Time
}

// Event is one outbound delivery unit for a stream: the message plus the
// live-subscriber count observed when the event was produced. Keepalives are
// not Events; they originate in the session timer and bypass the queue.
type Event struct {
	Message     *Message
	ActiveCount int
}
