package websocket

import (
	"context"
	"sync"
	"testing"

	"auction-marketplace/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedConn struct {
	mu        sync.Mutex
	username  string
	auctionID string
	messages  []interface{}
	closed    bool
	sendErr   error
}

func (c *recordedConn) Send(message interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.messages = append(c.messages, message)
	return nil
}

func (c *recordedConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *recordedConn) Username() string  { return c.username }
func (c *recordedConn) AuctionID() string { return c.auctionID }

func TestBroadcastReachesAuctionSubscribersOnly(t *testing.T) {
	cm := NewConnectionManager(logger.Nop())

	alice := &recordedConn{username: "alice", auctionID: "auction-1"}
	bob := &recordedConn{username: "bob", auctionID: "auction-1"}
	dan := &recordedConn{username: "dan", auctionID: "auction-2"}

	cm.RegisterConnection("alice", "auction-1", alice)
	cm.RegisterConnection("bob", "auction-1", bob)
	cm.RegisterConnection("dan", "auction-2", dan)

	require.NoError(t, cm.BroadcastToAuction(context.Background(), "auction-1", map[string]interface{}{
		"type": "bid_update",
	}))

	assert.Len(t, alice.messages, 1)
	assert.Len(t, bob.messages, 1)
	assert.Empty(t, dan.messages)
}

func TestBroadcastContinuesPastFailedConnection(t *testing.T) {
	cm := NewConnectionManager(logger.Nop())

	broken := &recordedConn{username: "alice", auctionID: "auction-1", sendErr: assert.AnError}
	healthy := &recordedConn{username: "bob", auctionID: "auction-1"}

	cm.RegisterConnection("alice", "auction-1", broken)
	cm.RegisterConnection("bob", "auction-1", healthy)

	require.NoError(t, cm.BroadcastToAuction(context.Background(), "auction-1", "update"))
	assert.Len(t, healthy.messages, 1)
}

func TestUnregisterStopsDelivery(t *testing.T) {
	cm := NewConnectionManager(logger.Nop())

	alice := &recordedConn{username: "alice", auctionID: "auction-1"}
	cm.RegisterConnection("alice", "auction-1", alice)
	cm.UnregisterConnection("alice", "auction-1")

	require.NoError(t, cm.BroadcastToAuction(context.Background(), "auction-1", "update"))
	assert.Empty(t, alice.messages)
}

func TestCloseConnectionsForAuction(t *testing.T) {
	cm := NewConnectionManager(logger.Nop())

	alice := &recordedConn{username: "alice", auctionID: "auction-1"}
	dan := &recordedConn{username: "dan", auctionID: "auction-2"}
	cm.RegisterConnection("alice", "auction-1", alice)
	cm.RegisterConnection("dan", "auction-2", dan)

	cm.CloseConnectionsForAuction("auction-1")

	assert.True(t, alice.closed)
	assert.False(t, dan.closed)

	// Ended auctions no longer receive broadcasts.
	require.NoError(t, cm.BroadcastToAuction(context.Background(), "auction-1", "update"))
	assert.Empty(t, alice.messages)
}
