package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"taskhub/internal/bus"
)

// Profile is the denormalized identity snapshot taken at join time. The hub
// never re-queries identity afterwards.
type Profile struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Email  string `json:"email,omitempty"`
}

type presenceEntry struct {
	connID  string
	profile Profile
}

// Hub owns the presence registry and the room router. Rooms are logical
// per-user delivery channels; a connection only ever joins its own user's
// room. Targeted delivery flows through the injected backplane so a
// multi-instance deployment can swap in a shared pub/sub channel.
//
// Presence is last-join-wins: a second connection for the same user overwrites
// the registry entry but the earlier connection keeps its room membership
// until it disconnects.
type Hub struct {
	backplane bus.Backplane

	mu       sync.RWMutex
	rooms    map[string]map[Conn]struct{}
	roomOf   map[Conn]string
	presence map[string]presenceEntry
}

func NewHub(backplane bus.Backplane) *Hub {
	return &Hub{
		backplane: backplane,
		rooms:     make(map[string]map[Conn]struct{}),
		roomOf:    make(map[Conn]string),
		presence:  make(map[string]presenceEntry),
	}
}

// Start subscribes the hub to the backplane; envelopes are delivered to
// locally connected rooms.
func (h *Hub) Start(ctx context.Context) error {
	return h.backplane.Start(ctx, h.deliver)
}

// Join adds the connection to its user's room (idempotent), records the
// presence entry, and broadcasts userOnline to every other connection.
// A connection re-joining under a different user id is moved: its old room
// membership and presence entry are dropped first, so a connection only ever
// belongs to its own user's room.
func (h *Hub) Join(c Conn, p Profile) {
	h.mu.Lock()
	var left *Profile
	if prev, ok := h.roomOf[c]; ok && prev != p.UserID {
		if conns, ok := h.rooms[prev]; ok {
			delete(conns, c)
			if len(conns) == 0 {
				delete(h.rooms, prev)
			}
		}
		if e, ok := h.presence[prev]; ok && e.connID == c.ID() {
			delete(h.presence, prev)
			pr := e.profile
			left = &pr
		}
	}
	if h.rooms[p.UserID] == nil {
		h.rooms[p.UserID] = make(map[Conn]struct{})
	}
	h.rooms[p.UserID][c] = struct{}{}
	h.roomOf[c] = p.UserID
	h.presence[p.UserID] = presenceEntry{connID: c.ID(), profile: p}
	h.mu.Unlock()

	if left != nil {
		h.broadcastExcept(c, EventUserOffline, OfflinePayload{
			UserID: left.UserID,
			Name:   left.Name,
		})
	}
	h.broadcastExcept(c, EventUserOnline, OnlinePayload{
		UserID: p.UserID,
		Name:   p.Name,
		Role:   p.Role,
	})
}

// Leave removes the connection's room membership and, if the presence entry
// still belongs to this connection, removes it and broadcasts userOffline.
// A connection that never joined is a silent no-op.
func (h *Hub) Leave(c Conn) {
	h.mu.Lock()
	userID, joined := h.roomOf[c]
	if joined {
		delete(h.roomOf, c)
		if conns, ok := h.rooms[userID]; ok {
			delete(conns, c)
			if len(conns) == 0 {
				delete(h.rooms, userID)
			}
		}
	}
	var left *Profile
	if e, ok := h.presence[userID]; joined && ok && e.connID == c.ID() {
		delete(h.presence, userID)
		p := e.profile
		left = &p
	}
	h.mu.Unlock()

	if left != nil {
		h.broadcastExcept(c, EventUserOffline, OfflinePayload{
			UserID: left.UserID,
			Name:   left.Name,
		})
	}
}

// OnlineUsers returns a snapshot of the presence registry.
func (h *Hub) OnlineUsers() []OnlinePayload {
	h.mu.RLock()
	defer h.mu.RUnlock()

	res := make([]OnlinePayload, 0, len(h.presence))
	for _, e := range h.presence {
		res = append(res, OnlinePayload{
			UserID: e.profile.UserID,
			Name:   e.profile.Name,
			Role:   e.profile.Role,
		})
	}
	return res
}

// ConnectedUsers reports the presence registry size, for the health endpoint.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.presence)
}

// EmitToRoom publishes an event for every connection in the user's room. An
// empty room is not an error; the live event is simply dropped.
func (h *Hub) EmitToRoom(ctx context.Context, room, event string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return h.backplane.Publish(ctx, bus.Envelope{Room: room, Event: event, Payload: b})
}

func (h *Hub) deliver(env bus.Envelope) {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.rooms[env.Room]))
	for c := range h.rooms[env.Room] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.Send(env.Event, json.RawMessage(env.Payload)); err != nil {
			log.Printf("ws: deliver %s to room %s: %v", env.Event, env.Room, err)
		}
	}
}

// broadcastExcept sends to every locally connected client except the
// originator. Presence broadcasts stay instance-local; only room routing
// crosses the backplane.
func (h *Hub) broadcastExcept(origin Conn, event string, payload any) {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.roomOf))
	for c := range h.roomOf {
		if c != origin {
			conns = append(conns, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.Send(event, payload); err != nil {
			log.Printf("ws: broadcast %s: %v", event, err)
		}
	}
}
