package handlers

import (
	"sync"
	"time"

	"github.com/BaSui01/webqa/api"
)

// Hub fans scan output lines out to websocket subscribers. Slow subscribers
// drop lines instead of blocking the publisher.
type Hub struct {
	mu   sync.Mutex
	subs map[chan api.LogLine]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan api.LogLine]struct{})}
}

// Publish broadcasts one line to all current subscribers.
func (h *Hub) Publish(runID, line string) {
	msg := api.LogLine{RunID: runID, Line: line, At: time.Now()}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribe registers a new subscriber; call the returned cancel to leave.
func (h *Hub) Subscribe() (<-chan api.LogLine, func()) {
	ch := make(chan api.LogLine, 64)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

// SubscriberCount reports the current number of subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
