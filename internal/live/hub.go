package live

import (
	"sync"
)

// Hub fans occupancy snapshots out to every connected dashboard. Delivery is
// fire-and-forget: a subscriber whose buffer is full simply misses that
// update and catches up on the next one, since every payload is a full,
// idempotent snapshot.
type Hub struct {
	mu     sync.RWMutex
	nextID int64
	subs   map[int64]chan []byte
	buffer int
}

// NewHub creates a hub whose subscribers each get a send buffer of the given
// size.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 8
	}
	return &Hub{
		subs:   make(map[int64]chan []byte),
		buffer: buffer,
	}
}

// Subscribe registers a new viewer and returns its id and receive channel.
func (h *Hub) Subscribe() (int64, <-chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	ch := make(chan []byte, h.buffer)
	h.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a viewer. Safe to call more than once.
func (h *Hub) Unsubscribe(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Publish delivers an already-serialized snapshot to every subscriber. A
// blocked subscriber does not stop delivery to the others.
func (h *Hub) Publish(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- payload:
		default:
			// Buffer full; drop. The next snapshot supersedes this one.
		}
	}
}

// SubscriberCount returns the number of connected viewers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
