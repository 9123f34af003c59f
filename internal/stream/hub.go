package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

// Hub fans the snapshots of one room out to its connected clients
type Hub struct {
	code    model.RoomCode
	key     model.RoomKey
	clients map[*Client]bool
	// closed is set under mu so registration cannot race a shutdown
	closed bool
	mu     sync.RWMutex
	logger *slog.Logger

	// last is the most recent frame, replayed to clients on register
	last []byte

	sub     storage.Subscription
	onClose func()

	broadcast chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a hub fed by sub
func NewHub(code model.RoomCode, key model.RoomKey, sub storage.Subscription, logger *slog.Logger) *Hub {
	return &Hub{
		code:      code,
		key:       key,
		clients:   make(map[*Client]bool),
		logger:    logger.With(slog.String("room", string(code))),
		sub:       sub,
		broadcast: make(chan []byte, 16),
		done:      make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	go h.pump()

	h.logger.Info("stream hub started")
	for {
		select {
		case message := <-h.broadcast:
			h.mu.Lock()
			h.last = message
			dropped := 0
			for client := range h.clients {
				if !client.offer(message) {
					dropped++
				}
			}
			sent := len(h.clients) - dropped
			h.mu.Unlock()
			if dropped > 0 {
				h.logger.Warn("stream message dropped - client buffer full",
					slog.Int("sent", sent),
					slog.Int("dropped", dropped))
			}

		case <-h.done:
			h.logger.Info("stream hub stopped")
			return
		}
	}
}

// pump turns store snapshots into concealed frames
func (h *Hub) pump() {
	defer h.Close()
	for state := range h.sub.C() {
		frame, err := encodeEvent(model.Event{
			Type:  model.EventRoomState,
			Room:  h.code,
			State: state.Concealed(),
		})
		if err != nil {
			h.logger.Error("encode room state failed", slog.Any("error", err))
			continue
		}
		select {
		case h.broadcast <- frame:
		case <-h.done:
			return
		}
	}
}

// Register adds a client to the hub and replays the latest frame to it. It
// reports false if the hub is closed.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[client] = true
	clientCount := len(h.clients)
	if h.last != nil {
		client.offer(h.last)
	}
	h.mu.Unlock()

	h.logger.Info("stream client registered",
		slog.String("user_id", string(client.userID)),
		slog.String("conn_id", client.connID),
		slog.Int("total_clients", clientCount))
	return true
}

// Unregister removes a client from the hub and closes its send channel
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("stream client unregistered",
		slog.String("user_id", string(client.userID)),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", clientCount))
}

// retire marks an empty hub closed. It reports false if the hub has clients.
func (h *Hub) retire() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) > 0 {
		return false
	}
	h.closed = true
	return true
}

// Close shuts down the hub and its store subscription, ending every client stream
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		clientCount := len(h.clients)
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
		h.mu.Unlock()

		close(h.done)
		_ = h.sub.Close()
		if clientCount > 0 {
			h.logger.Info("stream hub closed with clients", slog.Int("disconnected_clients", clientCount))
		}
		if h.onClose != nil {
			h.onClose()
		}
	})
}

// Done is closed once the hub has stopped
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func encodeEvent(ev model.Event) ([]byte, error) {
	return json.Marshal(ev)
}

// HubManager keeps one hub per room
type HubManager struct {
	realtime storage.Realtime
	hubs     map[model.RoomKey]*Hub
	mu       sync.Mutex
	logger   *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(realtime storage.Realtime, logger *slog.Logger) *HubManager {
	return &HubManager{
		realtime: realtime,
		hubs:     make(map[model.RoomKey]*Hub),
		logger:   logger.With(slog.String("component", "stream")),
	}
}

// GetOrCreateHub returns the hub for a room, subscribing to the store when
// the room has no hub yet
func (m *HubManager) GetOrCreateHub(code model.RoomCode, key model.RoomKey) (*Hub, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[key]; ok {
		return hub, nil
	}

	// The subscription outlives the request that created the hub
	sub, err := m.realtime.Subscribe(context.Background(), key)
	if err != nil {
		return nil, err
	}

	hub := NewHub(code, key, sub, m.logger)
	hub.onClose = func() { m.forget(key, hub) }
	m.hubs[key] = hub
	go hub.Run()
	return hub, nil
}

// Connect registers a new client for userID on the room's hub. A hub that
// closed between lookup and registration is replaced once.
func (m *HubManager) Connect(code model.RoomCode, key model.RoomKey, userID model.UserID) (*Client, error) {
	for attempt := 0; attempt < 2; attempt++ {
		hub, err := m.GetOrCreateHub(code, key)
		if err != nil {
			return nil, err
		}
		client := NewClient(hub, userID)
		if hub.Register(client) {
			return client, nil
		}
		m.forget(key, hub)
	}
	return nil, model.ErrStreamClosed
}

// GetHub returns the hub for a room, or nil if it doesn't exist
func (m *HubManager) GetHub(key model.RoomKey) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hubs[key]
}

func (m *HubManager) forget(key model.RoomKey, hub *Hub) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hubs[key] == hub {
		delete(m.hubs, key)
	}
}

// CleanupEmptyHubs removes hubs with no clients
func (m *HubManager) CleanupEmptyHubs() {
	m.mu.Lock()
	var empty []*Hub
	for key, hub := range m.hubs {
		if hub.retire() {
			empty = append(empty, hub)
			delete(m.hubs, key)
		}
	}
	m.mu.Unlock()

	for _, hub := range empty {
		hub.Close()
	}
	if len(empty) > 0 {
		m.logger.Info("stream empty hubs cleaned up", slog.Int("removed", len(empty)))
	}
}

// RunJanitor calls CleanupEmptyHubs every interval until ctx is done
func (m *HubManager) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupEmptyHubs()
		}
	}
}

// Close stops every hub
func (m *HubManager) Close() {
	m.mu.Lock()
	hubs := make([]*Hub, 0, len(m.hubs))
	for key, hub := range m.hubs {
		hubs = append(hubs, hub)
		delete(m.hubs, key)
	}
	m.mu.Unlock()

	for _, hub := range hubs {
		hub.Close()
	}
}
