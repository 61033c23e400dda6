package websocket

import (
	"context"
	"log/slog"
	"sync"
)

// Hub tracks the open sessions so they can be closed on shutdown.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
	closed   bool
	logger   *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		sessions: make(map[*Session]struct{}),
		logger:   logger.With(slog.String("component", "websocket.hub")),
	}
}

// register adds s, or reports false once the hub is closed.
func (h *Hub) register(s *Session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.sessions[s] = struct{}{}
	return true
}

func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s)
	h.mu.Unlock()
}

// SessionCount returns the number of open sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close ends every session with a going-away close frame and refuses new ones.
func (h *Hub) Close(ctx context.Context) {
	h.mu.Lock()
	h.closed = true
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		s.shutdown()
	}
	h.logger.InfoContext(ctx, "websocket sessions closed", slog.Int("sessions", len(sessions)))
}
