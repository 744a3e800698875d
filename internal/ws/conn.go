package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is a single client connection as seen by the hub.
type Conn interface {
	ID() string
	Send(event string, payload any) error
}

// wsConn wraps a gorilla connection with a write lock; the websocket package
// allows only one concurrent writer.
type wsConn struct {
	id string
	mu sync.Mutex
	ws *websocket.Conn
}

func newConn(ws *websocket.Conn) *wsConn {
	return &wsConn{id: uuid.NewString(), ws: ws}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(Frame{Type: event, Data: data})
}
