// Package collab implements the collaborative document model: the
// replicated component store, the awareness layer, the transport adapter
// binding both to a pub/sub channel, and the persistence bridge that flushes
// snapshots to durable storage.
package collab

import (
	"sync"

	buildrerrors "github.com/buildr-dev/buildr/internal/errors"
)

// MessageKind is the wire-level frame type.
type MessageKind string

const (
	// KindUpdate broadcasts the full encoded document state after local edits
	KindUpdate MessageKind = "update"
	// KindSync is the full-state response to a sync request
	KindSync MessageKind = "sync"
	// KindRequestSync is broadcast by a newly joined peer
	KindRequestSync MessageKind = "request-sync"
	// KindAwareness carries an encoded presence delta for changed peers
	KindAwareness MessageKind = "awareness"
)

// Envelope is the JSON wire envelope every frame travels in. Data carries
// the base64-encoded binary payload for update/sync/awareness frames and is
// empty for sync requests.
type Envelope struct {
	Type     MessageKind `json:"type"`
	ClientID string      `json:"client_id"`
	Data     string      `json:"data,omitempty"`
}

// Channel is a pub/sub conduit scoped to one room. Subscribers receive
// every envelope published to the room, including their own; the adapter
// filters by client id.
type Channel interface {
	Publish(env Envelope) error
	Subscribe(handler func(env Envelope)) (unsubscribe func())
	Close() error
}

// LocalBus is an in-process Channel hub keyed by room, used by tests and by
// single-process setups where peers share memory rather than a network.
type LocalBus struct {
	rooms map[string][]*localChannel
	mutex sync.Mutex
}

// NewLocalBus creates an empty bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{rooms: make(map[string][]*localChannel)}
}

// Join attaches a new channel to a room.
func (b *LocalBus) Join(room string) Channel {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	ch := &localChannel{bus: b, room: room}
	b.rooms[room] = append(b.rooms[room], ch)
	return ch
}

func (b *LocalBus) broadcast(room string, env Envelope) {
	b.mutex.Lock()
	members := make([]*localChannel, len(b.rooms[room]))
	copy(members, b.rooms[room])
	b.mutex.Unlock()

	for _, member := range members {
		member.deliver(env)
	}
}

func (b *LocalBus) leave(ch *localChannel) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	members := b.rooms[ch.room]
	for i, member := range members {
		if member == ch {
			b.rooms[ch.room] = append(members[:i], members[i+1:]...)
			break
		}
	}
}

type localChannel struct {
	bus      *LocalBus
	room     string
	handlers []func(Envelope)
	closed   bool
	mutex    sync.Mutex
}

func (c *localChannel) Publish(env Envelope) error {
	c.mutex.Lock()
	if c.closed {
		c.mutex.Unlock()
		return buildrerrors.ErrChannelClosed
	}
	c.mutex.Unlock()

	c.bus.broadcast(c.room, env)
	return nil
}

func (c *localChannel) Subscribe(handler func(Envelope)) func() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.handlers = append(c.handlers, handler)
	index := len(c.handlers) - 1
	return func() {
		c.mutex.Lock()
		defer c.mutex.Unlock()
		if index < len(c.handlers) {
			c.handlers[index] = nil
		}
	}
}

func (c *localChannel) deliver(env Envelope) {
	c.mutex.Lock()
	handlers := make([]func(Envelope), len(c.handlers))
	copy(handlers, c.handlers)
	closed := c.closed
	c.mutex.Unlock()

	if closed {
		return
	}
	for _, handler := range handlers {
		if handler != nil {
			handler(env)
		}
	}
}

func (c *localChannel) Close() error {
	c.mutex.Lock()
	c.closed = true
	c.handlers = nil
	c.mutex.Unlock()

	c.bus.leave(c)
	return nil
}
