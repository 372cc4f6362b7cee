package websockets

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub holds the WebSocket connections of the local development server and
// publishes to them directly.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[string]*websocket.Conn
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[string]*websocket.Conn)}
}

// Register adds a connection of userID under connectionID.
func (h *Hub) Register(userID, connectionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[string]*websocket.Conn)
	}
	h.conns[userID][connectionID] = conn
}

// Unregister drops a connection.
func (h *Hub) Unregister(userID, connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns[userID], connectionID)
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
	}
}

// Count returns how many connections userID has open.
func (h *Hub) Count(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Publish writes message to every local connection of userID. A connection
// that fails to take the write is closed and dropped.
func (h *Hub) Publish(_ context.Context, userID string, message Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.conns[userID] {
		if err := conn.WriteJSON(message); err != nil {
			_ = conn.Close()
			delete(h.conns[userID], id)
		}
	}
	return nil
}
