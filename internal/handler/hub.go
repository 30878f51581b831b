package handler

import (
	"sort"
	"sync"
)

// Hub tracks the remote agents currently playing a hosted game.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*Session]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{sessions: make(map[*Session]bool)}
}

// Register adds a session to the hub.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s] = true
}

// Unregister removes a session from the hub.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s)
}

// ConnectionCount returns the number of active sessions.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Agents returns the names of the connected agents, sorted.
func (h *Hub) Agents() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.sessions))
	for s := range h.sessions {
		out = append(out, s.agent)
	}
	sort.Strings(out)
	return out
}
