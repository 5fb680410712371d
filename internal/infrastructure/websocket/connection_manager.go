package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
)

// ConnectionManager tracks live-feed subscribers per auction.
type ConnectionManager struct {
	connections map[string]map[string]domain.WebSocketConnection // auctionID -> username -> connection
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]map[string]domain.WebSocketConnection),
		log:         log,
	}
}

func (cm *ConnectionManager) RegisterConnection(username, auctionID string, conn domain.WebSocketConnection) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.connections[auctionID] == nil {
		cm.connections[auctionID] = make(map[string]domain.WebSocketConnection)
	}
	cm.connections[auctionID][username] = conn

	cm.log.Info("Connection registered", "username", username, "auction_id", auctionID)
}

func (cm *ConnectionManager) UnregisterConnection(username, auctionID string) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if auctionConns, exists := cm.connections[auctionID]; exists {
		delete(auctionConns, username)
		if len(auctionConns) == 0 {
			delete(cm.connections, auctionID)
		}
	}

	cm.log.Info("Connection unregistered", "username", username, "auction_id", auctionID)
}

func (cm *ConnectionManager) CloseConnectionsForAuction(auctionID string) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if auctionConns, exists := cm.connections[auctionID]; exists {
		for username, conn := range auctionConns {
			if err := conn.Close(); err != nil {
				cm.log.Error("Failed to close connection", "username", username,
					"auction_id", auctionID, "error", err)
			}
		}
		delete(cm.connections, auctionID)
	}
}

func (cm *ConnectionManager) connectionsForAuction(auctionID string) []domain.WebSocketConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var connections []domain.WebSocketConnection
	for _, conn := range cm.connections[auctionID] {
		connections = append(connections, conn)
	}
	return connections
}

func (cm *ConnectionManager) BroadcastToAuction(ctx context.Context, auctionID string, message interface{}) error {
	connections := cm.connectionsForAuction(auctionID)

	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	for _, conn := range connections {
		if err := conn.Send(json.RawMessage(messageBytes)); err != nil {
			cm.log.Error("Failed to send message", "username", conn.Username(),
				"auction_id", auctionID, "error", err)
			// Keep delivering to the remaining connections
		}
	}

	return nil
}
