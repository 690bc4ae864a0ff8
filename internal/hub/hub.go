package hub

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Conn is the handle the hub keeps per online user. The websocket client
// implements it; tests use fakes.
type Conn interface {
	UserID() string
	// Enqueue hands a payload to the connection's writer without blocking.
	// Returns false when the outbound buffer is full and the payload was dropped.
	Enqueue(v any) bool
	IsViewingChannel(channelID string) bool
	IsViewingDM(peerID string) bool
}

// Mirror reflects presence into an external store (redis) so sibling
// services can see who is online. Best-effort only.
type Mirror interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
}

// Hub is the presence registry plus socket-room membership. One active
// connection per user; a re-register for the same user id replaces the slot
// (last writer wins, the older socket is left to die on its own transport).
type Hub struct {
	mu      sync.RWMutex
	clients map[string]Conn            // userID -> connection
	rooms   map[string]map[string]bool // channelID -> set of userIDs

	mirror Mirror
	logger *zap.SugaredLogger

	// PublishToPeers, when set, fans payloads out to other instances
	// (redis pubsub). Failures never block or roll back local delivery.
	PublishToPeers func(ctx context.Context, channel string, payload []byte) error
}

func New(logger *zap.SugaredLogger, mirror Mirror) *Hub {
	return &Hub{
		clients: make(map[string]Conn),
		rooms:   make(map[string]map[string]bool),
		mirror:  mirror,
		logger:  logger,
	}
}

func (h *Hub) Register(ctx context.Context, c Conn) {
	h.mu.Lock()
	h.clients[c.UserID()] = c
	h.mu.Unlock()

	if h.mirror != nil {
		if err := h.mirror.SetOnline(ctx, c.UserID()); err != nil {
			h.logger.Warnw("presence mirror set online", "user_id", c.UserID(), "err", err)
		}
	}
}

// Unregister removes the user's registry entry, but only if it still points
// at this connection. A stale socket whose slot was taken over by a
// reconnect must not evict the newer connection.
func (h *Hub) Unregister(ctx context.Context, c Conn) bool {
	h.mu.Lock()
	current, ok := h.clients[c.UserID()]
	if !ok || current != c {
		h.mu.Unlock()
		return false
	}
	delete(h.clients, c.UserID())
	for _, members := range h.rooms {
		delete(members, c.UserID())
	}
	h.mu.Unlock()

	if h.mirror != nil {
		if err := h.mirror.SetOffline(ctx, c.UserID()); err != nil {
			h.logger.Warnw("presence mirror set offline", "user_id", c.UserID(), "err", err)
		}
	}
	return true
}

func (h *Hub) Lookup(userID string) (Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[userID]
	return c, ok
}

func (h *Hub) Online(userID string) bool {
	_, ok := h.Lookup(userID)
	return ok
}

func (h *Hub) JoinRoom(channelID, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[channelID]; !ok {
		h.rooms[channelID] = make(map[string]bool)
	}
	h.rooms[channelID][userID] = true
}

func (h *Hub) LeaveRoom(channelID, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[channelID]; ok {
		delete(members, userID)
		if len(members) == 0 {
			delete(h.rooms, channelID)
		}
	}
}

// SendToUser pushes to the user's connection if one is registered. Returns
// false when the user is offline or the payload was dropped.
func (h *Hub) SendToUser(userID string, v any) bool {
	h.mu.RLock()
	c, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return c.Enqueue(v)
}

// BroadcastRoom delivers to every room member except exceptUserID
// (empty string excludes no one). Typing relays use this: typing follows
// subscription, not team membership.
func (h *Hub) BroadcastRoom(channelID, exceptUserID string, v any) {
	for _, c := range h.roomConns(channelID, exceptUserID) {
		c.Enqueue(v)
	}
}

func (h *Hub) roomConns(channelID, exceptUserID string) []Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members, ok := h.rooms[channelID]
	if !ok {
		return nil
	}
	out := make([]Conn, 0, len(members))
	for userID := range members {
		if userID == exceptUserID {
			continue
		}
		if c, ok := h.clients[userID]; ok {
			out = append(out, c)
		}
	}
	return out
}

// BroadcastAll delivers to every connected client (presence changes) and,
// when a peer hook is set, fans out to other instances too.
func (h *Hub) BroadcastAll(ctx context.Context, v any) {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.clients))
	for _, c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.Enqueue(v)
	}
	if h.PublishToPeers != nil {
		b, err := json.Marshal(v)
		if err == nil {
			if err := h.PublishToPeers(ctx, "broadcast", b); err != nil {
				h.logger.Warnw("peer publish", "err", err)
			}
		}
	}
}

// IsViewingChannel reports whether the user's live connection currently has
// the channel open. Offline users are never viewing anything.
func (h *Hub) IsViewingChannel(userID, channelID string) bool {
	c, ok := h.Lookup(userID)
	return ok && c.IsViewingChannel(channelID)
}

func (h *Hub) IsViewingDM(userID, peerID string) bool {
	c, ok := h.Lookup(userID)
	return ok && c.IsViewingDM(peerID)
}
