package bus

import (
	"context"
	"encoding/json"
	"sync"
)

// Envelope is a routed event: deliver Payload under Event to every connection
// joined to Room.
type Envelope struct {
	Room    string          `json:"room"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Handler receives envelopes published to the backplane.
type Handler func(Envelope)

// Backplane is the pub/sub channel behind room routing. A single-process
// deployment uses the in-process implementation; a horizontally scaled one
// swaps in Redis without touching the hub.
type Backplane interface {
	Publish(ctx context.Context, env Envelope) error
	Start(ctx context.Context, h Handler) error
	Close() error
}

// Local is an in-process backplane: Publish invokes the subscribed handler
// synchronously. Envelopes published before Start are dropped, matching the
// live-delivery contract (persistence, not the bus, is the durability
// guarantee).
type Local struct {
	mu sync.RWMutex
	h  Handler
}

func NewLocal() *Local {
	return &Local{}
}

var _ Backplane = (*Local)(nil)

func (l *Local) Publish(ctx context.Context, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.RLock()
	h := l.h
	l.mu.RUnlock()
	if h != nil {
		h(env)
	}
	return nil
}

func (l *Local) Start(_ context.Context, h Handler) error {
	l.mu.Lock()
	l.h = h
	l.mu.Unlock()
	return nil
}

func (l *Local) Close() error {
	l.mu.Lock()
	l.h = nil
	l.mu.Unlock()
	return nil
}
