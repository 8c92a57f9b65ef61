package server

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/lawnchairsociety/epsilon/server/internal/events"
	"github.com/lawnchairsociety/epsilon/server/internal/logger"
)

// Hub fans labyrinth events out to the WebSocket subscribers of that labyrinth.
// It implements events.Publisher.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscriber]struct{}
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscriber]struct{})}
}

// add registers s. It fails once the hub is closed.
func (h *Hub) add(s *Subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	set := h.subs[s.labyrinthID]
	if set == nil {
		set = make(map[*Subscriber]struct{})
		h.subs[s.labyrinthID] = set
	}
	set[s] = struct{}{}
	return true
}

// remove unregisters s and closes its send queue. Safe to call twice.
func (h *Hub) remove(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(s)
}

// drop must be called with h.mu held.
func (h *Hub) drop(s *Subscriber) {
	set := h.subs[s.labyrinthID]
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, s.labyrinthID)
	}
	close(s.send)
}

// Publish queues e for every subscriber of e.LabyrinthID. Subscribers whose
// queue is full are disconnected.
func (h *Hub) Publish(_ context.Context, e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs[e.LabyrinthID] {
		select {
		case s.send <- data:
		default:
			logger.Warning("Dropping slow WebSocket subscriber",
				"labyrinth_id", s.labyrinthID,
				"client_ip", s.ip)
			h.drop(s)
		}
	}
	return nil
}

// Count returns the number of subscribers of a labyrinth.
func (h *Hub) Count(labyrinthID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[labyrinthID])
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for _, set := range h.subs {
		for s := range set {
			h.drop(s)
		}
	}
}
