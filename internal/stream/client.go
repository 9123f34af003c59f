package stream

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/rpsgame/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Time allowed to read the next pong from a websocket peer
	pongWait = 60 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 16
)

// Presence is notified when a participant's stream opens and closes
type Presence interface {
	Connect(ctx context.Context, key model.RoomKey, userID model.UserID, connID string) error
	Disconnect(ctx context.Context, connID string) error
}

// Client is one connected stream, SSE or websocket
type Client struct {
	hub         *Hub
	userID      model.UserID
	connID      string
	send        chan []byte
	connectedAt time.Time
}

// NewClient creates a new client with a fresh connection id
func NewClient(hub *Hub, userID model.UserID) *Client {
	return &Client{
		hub:         hub,
		userID:      userID,
		connID:      uuid.NewString(),
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// offer queues a frame without blocking. When the buffer is full the oldest
// frame is discarded, since every frame is a full snapshot. Reports false
// if a frame was discarded.
func (c *Client) offer(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
	}
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- frame:
	default:
	}
	return false
}

// goOnline marks the participant behind a registered client online
func goOnline(ctx context.Context, client *Client, presence Presence) {
	if presence != nil && client.userID != "" {
		if err := presence.Connect(ctx, client.hub.key, client.userID, client.connID); err != nil {
			client.hub.logger.Warn("presence connect failed",
				slog.String("conn_id", client.connID),
				slog.Any("error", err))
		}
	}
}

// detach unregisters the client and fires its disconnect patches
func detach(ctx context.Context, client *Client, presence Presence) {
	client.hub.Unregister(client)
	if presence != nil && client.userID != "" {
		// The request context is already cancelled when the peer is gone
		_ = presence.Disconnect(context.WithoutCancel(ctx), client.connID)
	}
}
