package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/bus"
)

type fakeConn struct {
	id string

	mu     sync.Mutex
	events []sentEvent
}

type sentEvent struct {
	event   string
	payload any
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{event: event, payload: payload})
	return nil
}

func (f *fakeConn) sent() []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentEvent(nil), f.events...)
}

func (f *fakeConn) eventNames() []string {
	var names []string
	for _, e := range f.sent() {
		names = append(names, e.event)
	}
	return names
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	backplane := bus.NewLocal()
	hub := NewHub(backplane)
	require.NoError(t, hub.Start(context.Background()))
	t.Cleanup(func() { _ = backplane.Close() })
	return hub
}

func TestJoinAndPresence(t *testing.T) {
	hub := newTestHub(t)

	alice := &fakeConn{id: "c1"}
	bob := &fakeConn{id: "c2"}

	hub.Join(alice, Profile{UserID: "alice", Name: "Alice", Role: "employee"})
	hub.Join(bob, Profile{UserID: "bob", Name: "Bob", Role: "owner"})

	// Alice, already connected, hears bob come online. Bob hears nothing
	// about his own join.
	assert.Equal(t, []string{EventUserOnline}, alice.eventNames())
	assert.Empty(t, bob.eventNames())

	online := hub.OnlineUsers()
	assert.Len(t, online, 2)
	assert.Equal(t, 2, hub.ConnectedUsers())
}

func TestJoinIdempotent(t *testing.T) {
	hub := newTestHub(t)

	alice := &fakeConn{id: "c1"}
	hub.Join(alice, Profile{UserID: "alice", Name: "Alice"})
	hub.Join(alice, Profile{UserID: "alice", Name: "Alice"})

	assert.Equal(t, 1, hub.ConnectedUsers())

	hub.Leave(alice)
	assert.Equal(t, 0, hub.ConnectedUsers())
}

func TestLeaveBroadcastsOffline(t *testing.T) {
	hub := newTestHub(t)

	alice := &fakeConn{id: "c1"}
	bob := &fakeConn{id: "c2"}
	hub.Join(alice, Profile{UserID: "alice", Name: "Alice"})
	hub.Join(bob, Profile{UserID: "bob", Name: "Bob"})

	hub.Leave(bob)

	names := alice.eventNames()
	require.Len(t, names, 2)
	assert.Equal(t, EventUserOffline, names[1])
	off, ok := alice.sent()[1].payload.(OfflinePayload)
	require.True(t, ok)
	assert.Equal(t, "bob", off.UserID)
	assert.Equal(t, 1, hub.ConnectedUsers())
}

func TestLeaveUnknownConnIsNoOp(t *testing.T) {
	hub := newTestHub(t)

	alice := &fakeConn{id: "c1"}
	hub.Join(alice, Profile{UserID: "alice", Name: "Alice"})

	hub.Leave(&fakeConn{id: "ghost"})

	assert.Equal(t, 1, hub.ConnectedUsers())
	assert.Empty(t, alice.eventNames())
}

func TestLastJoinWins(t *testing.T) {
	hub := newTestHub(t)

	first := &fakeConn{id: "c1"}
	second := &fakeConn{id: "c2"}
	hub.Join(first, Profile{UserID: "alice", Name: "Alice"})
	hub.Join(second, Profile{UserID: "alice", Name: "Alice"})

	// One presence entry; both connections still receive room traffic.
	assert.Equal(t, 1, hub.ConnectedUsers())

	require.NoError(t, hub.EmitToRoom(context.Background(), "alice", "receiveMessage", map[string]string{"id": "m1"}))
	assert.Equal(t, []string{"receiveMessage"}, second.eventNames())
	// The stale connection hears the other join plus the room event.
	assert.Contains(t, first.eventNames(), "receiveMessage")

	// The stale connection leaving must not clear the newer presence entry.
	hub.Leave(first)
	assert.Equal(t, 1, hub.ConnectedUsers())

	hub.Leave(second)
	assert.Equal(t, 0, hub.ConnectedUsers())
}

func TestRejoinDifferentUserMovesRooms(t *testing.T) {
	hub := newTestHub(t)
	ctx := context.Background()

	c := &fakeConn{id: "c1"}
	hub.Join(c, Profile{UserID: "alice", Name: "Alice"})
	hub.Join(c, Profile{UserID: "bob", Name: "Bob"})

	// The old membership and presence entry are gone, not just overwritten.
	assert.Equal(t, 1, hub.ConnectedUsers())
	require.Len(t, hub.OnlineUsers(), 1)
	assert.Equal(t, "bob", hub.OnlineUsers()[0].UserID)

	// Alice's room traffic must not reach the moved connection.
	require.NoError(t, hub.EmitToRoom(ctx, "alice", EventReceiveMessage, map[string]string{"id": "m1"}))
	assert.NotContains(t, c.eventNames(), EventReceiveMessage)

	require.NoError(t, hub.EmitToRoom(ctx, "bob", EventReceiveMessage, map[string]string{"id": "m2"}))
	assert.Contains(t, c.eventNames(), EventReceiveMessage)

	hub.Leave(c)
	assert.Equal(t, 0, hub.ConnectedUsers())

	// Disconnected: neither room may still deliver to it.
	before := len(c.sent())
	require.NoError(t, hub.EmitToRoom(ctx, "alice", EventReceiveMessage, map[string]string{"id": "m3"}))
	require.NoError(t, hub.EmitToRoom(ctx, "bob", EventReceiveMessage, map[string]string{"id": "m4"}))
	assert.Len(t, c.sent(), before)
}

func TestRejoinAnnouncesOldUserOffline(t *testing.T) {
	hub := newTestHub(t)

	watcher := &fakeConn{id: "w"}
	hub.Join(watcher, Profile{UserID: "carol", Name: "Carol"})

	c := &fakeConn{id: "c1"}
	hub.Join(c, Profile{UserID: "alice", Name: "Alice"})
	hub.Join(c, Profile{UserID: "bob", Name: "Bob"})

	names := watcher.eventNames()
	require.Len(t, names, 3)
	assert.Equal(t, []string{EventUserOnline, EventUserOffline, EventUserOnline}, names)
	off, ok := watcher.sent()[1].payload.(OfflinePayload)
	require.True(t, ok)
	assert.Equal(t, "alice", off.UserID)
}

func TestEmitToRoom(t *testing.T) {
	hub := newTestHub(t)
	ctx := context.Background()

	t.Run("DeliversToEveryRoomMember", func(t *testing.T) {
		alice := &fakeConn{id: "c1"}
		hub.Join(alice, Profile{UserID: "alice", Name: "Alice"})

		err := hub.EmitToRoom(ctx, "alice", EventReceiveMessage, map[string]string{"message": "hi"})
		require.NoError(t, err)

		events := alice.sent()
		require.Len(t, events, 1)
		assert.Equal(t, EventReceiveMessage, events[0].event)

		raw, ok := events[0].payload.(json.RawMessage)
		require.True(t, ok)
		var got map[string]string
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "hi", got["message"])
	})

	t.Run("EmptyRoomSilentDrop", func(t *testing.T) {
		err := hub.EmitToRoom(ctx, "nobody", EventReceiveMessage, map[string]string{"message": "lost"})
		assert.NoError(t, err)
	})
}

func TestOnlineUsersSnapshot(t *testing.T) {
	hub := newTestHub(t)

	hub.Join(&fakeConn{id: "c1"}, Profile{UserID: "alice", Name: "Alice", Role: "employee"})
	hub.Join(&fakeConn{id: "c2"}, Profile{UserID: "bob", Name: "Bob", Role: "owner"})

	online := hub.OnlineUsers()
	byID := make(map[string]OnlinePayload, len(online))
	for _, u := range online {
		byID[u.UserID] = u
	}
	assert.Equal(t, "Alice", byID["alice"].Name)
	assert.Equal(t, "owner", byID["bob"].Role)
}
