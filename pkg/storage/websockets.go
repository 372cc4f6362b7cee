package storage

import "context"

// WebSocketManager defines the interface for storing and retrieving WebSocket connection IDs per user.
type WebSocketManager interface {
	AddConnection(ctx context.Context, userID, connectionID string) error
	RemoveConnection(ctx context.Context, connectionID string) error
	GetConnections(ctx context.Context, userID string) ([]string, error)
}
