package websocket

import (
	"net/http"

	"auction-marketplace/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// FeedHandler upgrades subscribers onto the live bid feed for an auction.
// The feed is read-only; bids are placed over the REST API.
type FeedHandler struct {
	connManager *ConnectionManager
	log         logger.Logger
}

func NewFeedHandler(connManager *ConnectionManager, log logger.Logger) *FeedHandler {
	return &FeedHandler{
		connManager: connManager,
		log:         log,
	}
}

func (h *FeedHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	auctionID := vars["auctionId"]

	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "username required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	feedConn := newFeedConnection(conn, username, auctionID)
	h.connManager.RegisterConnection(username, auctionID, feedConn)

	go h.readLoop(feedConn)
}

// readLoop drains client frames so that pings and close frames are handled;
// everything except "ping" is ignored.
func (h *FeedHandler) readLoop(conn *feedConnection) {
	defer func() {
		h.connManager.UnregisterConnection(conn.Username(), conn.AuctionID())
		conn.Close()
	}()

	for {
		var msg map[string]interface{}
		if err := conn.conn.ReadJSON(&msg); err != nil {
			return
		}

		if msgType, ok := msg["type"].(string); ok && msgType == "ping" {
			conn.Send(map[string]string{"type": "pong"})
		}
	}
}

type feedConnection struct {
	conn      *websocket.Conn
	username  string
	auctionID string
}

func newFeedConnection(conn *websocket.Conn, username, auctionID string) *feedConnection {
	return &feedConnection{
		conn:      conn,
		username:  username,
		auctionID: auctionID,
	}
}

func (c *feedConnection) Send(message interface{}) error {
	return c.conn.WriteJSON(message)
}

func (c *feedConnection) Close() error {
	return c.conn.Close()
}

func (c *feedConnection) Username() string {
	return c.username
}

func (c *feedConnection) AuctionID() string {
	return c.auctionID
}
