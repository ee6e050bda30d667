package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shivansh47201/vartalap/internal/domain"
	"github.com/Shivansh47201/vartalap/pkg/logger"
	"github.com/Shivansh47201/vartalap/pkg/metrics"
)

// PresenceStore mirrors online state into a durable backend. Writes are
// best-effort; the in-memory registry stays authoritative for routing.
type PresenceStore interface {
	SetUserOnline(ctx context.Context, userID uuid.UUID) error
	SetUserOffline(ctx context.Context, userID uuid.UUID) error
}

// Hub is the signaling relay: it tracks which user owns which connection,
// groups connections into per-conversation rooms, and forwards call and
// typing events between users without interpreting them.
type Hub struct {
	presence PresenceStore
	metrics  *metrics.Metrics

	mu sync.RWMutex
	// one connection per user; a later registration replaces the earlier one
	clients map[string]*Client
	rooms   map[string]map[*Client]bool
}

// NewHub creates a Hub. presence and m may be nil.
func NewHub(presence PresenceStore, m *metrics.Metrics) *Hub {
	return &Hub{
		presence: presence,
		metrics:  m,
		clients:  make(map[string]*Client),
		rooms:    make(map[string]map[*Client]bool),
	}
}

// Register binds a user identity to a connection, replacing any prior
// connection for that user, and re-broadcasts the presence snapshot.
func (h *Hub) Register(client *Client, userID string) {
	if userID == "" {
		return
	}

	h.mu.Lock()
	if prev, ok := h.clients[userID]; ok && prev != client {
		prev.closeSend()
		h.removeFromRoomsLocked(prev)
	}
	client.userID = userID
	h.clients[userID] = client
	online := len(h.clients)
	h.mu.Unlock()

	logger.Debug("user registered", zap.String("user_id", userID))
	if h.metrics != nil {
		h.metrics.SetOnlineUsers(online)
	}
	h.mirrorOnline(userID, true)
	h.BroadcastPresence()
}

// Unregister removes a connection's registration. The mapping is removed
// only when the departing connection is still the one on file, so a stale
// disconnect arriving after a reconnect does not knock the user offline.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	userID := client.userID
	current, ok := h.clients[userID]
	if !ok || current != client {
		h.removeFromRoomsLocked(client)
		h.mu.Unlock()
		return
	}
	delete(h.clients, userID)
	h.removeFromRoomsLocked(client)
	online := len(h.clients)
	h.mu.Unlock()

	logger.Debug("user unregistered", zap.String("user_id", userID))
	if h.metrics != nil {
		h.metrics.SetOnlineUsers(online)
	}
	h.mirrorOnline(userID, false)
	h.BroadcastPresence()
}

// Snapshot returns the set of currently online user IDs
func (h *Hub) Snapshot() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	online := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		online = append(online, userID)
	}
	return online
}

// IsOnline reports whether a user has a live registered connection
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// JoinRoom adds a connection to a conversation room
func (h *Hub) JoinRoom(client *Client, conversationID string) {
	if conversationID == "" {
		return
	}
	h.mu.Lock()
	if h.rooms[conversationID] == nil {
		h.rooms[conversationID] = make(map[*Client]bool)
	}
	h.rooms[conversationID][client] = true
	h.mu.Unlock()
}

// LeaveRoom removes a connection from a conversation room
func (h *Hub) LeaveRoom(client *Client, conversationID string) {
	h.mu.Lock()
	if clients, ok := h.rooms[conversationID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, conversationID)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) removeFromRoomsLocked(client *Client) {
	for id, clients := range h.rooms {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, id)
		}
	}
}

// RelaySignal forwards one call signaling event to its target. The payload
// passes through untouched except for the injected From field. An offline
// target drops the event silently.
func (h *Hub) RelaySignal(from, event string, sig domain.CallSignal) {
	if sig.To == "" {
		return
	}
	target := sig.To
	sig.From = from
	sig.To = ""

	if h.SendToUser(target, event, sig) {
		if h.metrics != nil {
			h.metrics.RecordSignalRelayed(event)
		}
		return
	}

	logger.Debug("signal target offline, dropping",
		zap.String("event", event),
		zap.String("to", target),
		zap.String("call_id", sig.CallID))
	if h.metrics != nil {
		h.metrics.RecordSignalDropped(event)
	}
}

// RelayTyping forwards a typing indicator to a single user
func (h *Hub) RelayTyping(from string, payload domain.TypingPayload) {
	if payload.To == "" {
		return
	}
	target := payload.To
	payload.From = from
	payload.To = ""
	h.SendToUser(target, domain.EventTyping, payload)
}

// SendToUser delivers one event to a user's connection if online.
// Returns false when the user is offline or the send buffer is full.
func (h *Hub) SendToUser(userID, event string, data any) bool {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return false
	}

	raw, err := encodeEnvelope(event, data)
	if err != nil {
		logger.Error("failed to encode envelope", zap.Error(err), zap.String("event", event))
		return false
	}
	return client.enqueue(raw)
}

// BroadcastPresence sends the full online snapshot to every connection
func (h *Hub) BroadcastPresence() {
	snapshot := h.Snapshot()
	raw, err := encodeEnvelope(domain.EventPresenceUpdate, domain.PresenceUpdate{OnlineUsers: snapshot})
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.enqueue(raw)
	}
}

// BroadcastToRoom delivers one event to every connection in a
// conversation room, optionally excluding the sender
func (h *Hub) BroadcastToRoom(conversationID, event string, data any, exclude *Client) {
	raw, err := encodeEnvelope(event, data)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[conversationID]))
	for c := range h.rooms[conversationID] {
		if c != exclude {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.enqueue(raw)
	}
}

// EmitNewMessage notifies a conversation room of a freshly stored message
func (h *Hub) EmitNewMessage(conversationID string, message *domain.MessageResponse) {
	h.BroadcastToRoom(conversationID, domain.EventMessageNew, message, nil)
}

// EmitMessagesRead notifies a conversation room of a read receipt
func (h *Hub) EmitMessagesRead(conversationID string, event *domain.MessagesReadEvent) {
	h.BroadcastToRoom(conversationID, domain.EventMessageRead, event, nil)
}

func (h *Hub) mirrorOnline(userID string, online bool) {
	if h.presence == nil {
		return
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return
	}
	var mirrorErr error
	if online {
		mirrorErr = h.presence.SetUserOnline(context.Background(), id)
	} else {
		mirrorErr = h.presence.SetUserOffline(context.Background(), id)
	}
	if mirrorErr != nil {
		logger.Warn("presence mirror failed", zap.Error(mirrorErr), zap.String("user_id", userID))
	}
}

func encodeEnvelope(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(domain.Envelope{Event: event, Data: payload})
}
