package chat

// Hub holds one Channel per room. The room set is fixed at construction, so
// lookups need no locking; all mutable state lives inside the channels.
type Hub struct {
	channels map[string]*Channel
}

// NewHub builds a hub with one channel per room id. Duplicate ids collapse to
// a single channel.
func NewHub(roomIDs []string, queueCapacity int) *Hub {
	channels := make(map[string]*Channel, len(roomIDs))
	for _, id := range roomIDs {
		if _, ok := channels[id]; ok {
			continue
		}
		channels[id] = NewChannel(id, queueCapacity)
	}
	return &Hub{channels: channels}
}

// Channel returns the channel for a room id, or nil for unknown rooms.
func (h *Hub) Channel(roomID string) *Channel {
	return h.channels[roomID]
}

// ActiveCount returns the live subscriber count for a room, zero for unknown
// rooms.
func (h *Hub) ActiveCount(roomID string) int {
	c := h.channels[roomID]
	if c == nil {
		return 0
	}
	return c.ActiveCount()
}

// CloseAll force-disconnects every subscriber in every room.
func (h *Hub) CloseAll() {
	for _, c := range h.channels {
		c.CloseAll()
	}
}
