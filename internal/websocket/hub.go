// Package websocket carries assistant chat over WebSocket connections: one
// JSON turn per text frame in, one reply frame per turn out.
package websocket

import (
	"log/slog"
	"sync"

	ws "github.com/coder/websocket"
)

// Hub tracks the open chat connections so they can be counted and closed on
// shutdown.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll sends a going-away close frame to every connected client.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if c.conn == nil {
			continue
		}
		if err := c.conn.Close(ws.StatusGoingAway, "server shutting down"); err != nil {
			h.logger.Debug("close chat connection", "error", err)
		}
	}
}
