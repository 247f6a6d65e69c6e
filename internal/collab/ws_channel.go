package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"

	buildrerrors "github.com/buildr-dev/buildr/internal/errors"
	"github.com/buildr-dev/buildr/internal/logging"
)

// WebSocketChannel is a Channel carried over a websocket connection to the
// sync server, which relays every envelope to the other members of the room.
type WebSocketChannel struct {
	conn     *websocket.Conn
	room     string
	logger   logging.Logger
	handlers []func(Envelope)
	ctx      context.Context
	cancel   context.CancelFunc
	closed   bool
	mutex    sync.Mutex
}

// DialChannel connects to a sync server and joins a room. baseURL is the
// server root, e.g. "ws://localhost:8395".
func DialChannel(ctx context.Context, baseURL, room string, logger logging.Logger) (*WebSocketChannel, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	endpoint := fmt.Sprintf("%s/sync?room=%s", baseURL, url.QueryEscape(room))
	conn, _, err := websocket.Dial(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing sync server %s: %w", endpoint, err)
	}

	chCtx, cancel := context.WithCancel(context.Background())
	ch := &WebSocketChannel{
		conn:   conn,
		room:   room,
		logger: logger.WithComponent("ws-channel"),
		ctx:    chCtx,
		cancel: cancel,
	}
	go ch.readLoop()
	return ch, nil
}

// Publish sends one envelope to the room.
func (c *WebSocketChannel) Publish(env Envelope) error {
	c.mutex.Lock()
	if c.closed {
		c.mutex.Unlock()
		return buildrerrors.ErrChannelClosed
	}
	c.mutex.Unlock()

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(c.ctx, 10*time.Second)
	defer cancel()
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("writing to sync server: %w", err)
	}
	return nil
}

// Subscribe registers a handler for incoming envelopes.
func (c *WebSocketChannel) Subscribe(handler func(Envelope)) func() {
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

func (c *WebSocketChannel) readLoop() {
	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || c.ctx.Err() != nil {
				return
			}
			c.logger.Warn(c.ctx, err, "sync connection read failed", "room", c.room)
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn(c.ctx, err, "dropping malformed envelope", "room", c.room)
			continue
		}

		c.mutex.Lock()
		handlers := make([]func(Envelope), len(c.handlers))
		copy(handlers, c.handlers)
		c.mutex.Unlock()

		for _, handler := range handlers {
			if handler != nil {
				handler(env)
			}
		}
	}
}

// Close shuts the connection down and stops the read loop.
func (c *WebSocketChannel) Close() error {
	c.mutex.Lock()
	if c.closed {
		c.mutex.Unlock()
		return nil
	}
	c.closed = true
	c.handlers = nil
	c.mutex.Unlock()

	c.cancel()
	return c.conn.Close(websocket.StatusNormalClosure, "session ended")
}
