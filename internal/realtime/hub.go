// Package realtime streams live vote tallies to admin dashboards over
// WebSocket, fanned out across instances via Redis pub/sub.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are heartbeat timings in seconds.
	PingInterval = 30
	PongWait     = 60
)

// Publisher publishes an event's message to other instances.
type Publisher interface {
	PublishEvent(eventID uuid.UUID, event string, payload []byte) error
}

// Subscriber subscribes to an event's channel and invokes handler for
// incoming messages.
type Subscriber interface {
	SubscribeEvent(eventID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub maintains event_id -> set of dashboard connections and broadcasts
// result updates. Local broadcast plus Redis publish for horizontal scaling.
type Hub struct {
	rooms  map[uuid.UUID]map[string]*Client
	subs   map[uuid.UUID]func() // cancel Redis subscription per event
	mu     sync.RWMutex
	logger *zap.Logger
	pub    Publisher
	sub    Subscriber
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	return &Hub{
		rooms:  make(map[uuid.UUID]map[string]*Client),
		subs:   make(map[uuid.UUID]func()),
		logger: logger,
		pub:    pub,
		sub:    sub,
	}
}

// Register adds a client to an event room, starting the Redis subscription
// for that event when it is the first watcher.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.EventID] == nil {
		h.rooms[c.EventID] = make(map[string]*Client)
		if h.sub != nil {
			cancel, err := h.sub.SubscribeEvent(c.EventID, func(event string, payload []byte) {
				h.broadcastLocal(c.EventID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.EventID] = cancel
			}
		}
	}
	h.rooms[c.EventID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("dashboard client joined", zap.String("client_id", c.ID), zap.String("event_id", c.EventID.String()))
}

// Unregister removes a client, cancelling the Redis subscription when the
// last watcher leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.EventID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, c.EventID)
			if cancel, ok := h.subs[c.EventID]; ok {
				cancel()
				delete(h.subs, c.EventID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("dashboard client left", zap.String("client_id", c.ID), zap.String("event_id", c.EventID.String()))
}

// BroadcastToEvent sends to local watchers and publishes to Redis so other
// instances deliver to theirs.
func (h *Hub) BroadcastToEvent(eventID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.broadcastLocal(eventID, event, json.RawMessage(data))
	if h.pub != nil {
		_ = h.pub.PublishEvent(eventID, event, data)
	}
}

// WatcherCount returns the number of connected dashboard clients for an event.
func (h *Hub) WatcherCount(eventID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[eventID])
}

func (h *Hub) broadcastLocal(eventID uuid.UUID, event string, data json.RawMessage) {
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := h.rooms[eventID]
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}
