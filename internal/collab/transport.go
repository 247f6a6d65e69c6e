package collab

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	buildrerrors "github.com/buildr-dev/buildr/internal/errors"
	"github.com/buildr-dev/buildr/internal/logging"
	"github.com/buildr-dev/buildr/internal/types"
)

// AdapterOptions tunes the transport adapter's debounce windows.
type AdapterOptions struct {
	// DocDebounce coalesces outgoing document frames (default 300ms)
	DocDebounce time.Duration
	// AwarenessDebounce coalesces outgoing presence frames (default 60ms)
	AwarenessDebounce time.Duration
	Logger            logging.Logger
}

// Adapter binds a Store and an Awareness map to a pub/sub Channel. Outgoing
// document changes publish the full encoded replica state rather than an
// incremental diff: full-state frames stay correct under dropped and
// out-of-order delivery, at the cost of bandwidth on large documents.
type Adapter struct {
	store     *Store
	awareness *Awareness
	channel   Channel
	room      string
	logger    logging.Logger

	docDebounce       *Debouncer
	awarenessDebounce *Debouncer

	unsubChannel   func()
	unsubStore     func()
	unsubAwareness func()

	closed bool
	mutex  sync.Mutex
}

// NewAdapter attaches a store and awareness map to a channel. On attach it
// subscribes to all four message kinds and immediately broadcasts a sync
// request so this peer receives the room's current state.
func NewAdapter(store *Store, awareness *Awareness, channel Channel, room string, opts AdapterOptions) *Adapter {
	if opts.DocDebounce == 0 {
		opts.DocDebounce = 300 * time.Millisecond
	}
	if opts.AwarenessDebounce == 0 {
		opts.AwarenessDebounce = 60 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger{}
	}

	a := &Adapter{
		store:     store,
		awareness: awareness,
		channel:   channel,
		room:      room,
		logger:    opts.Logger.WithComponent("transport"),
	}

	a.docDebounce = NewDebouncer(opts.DocDebounce, func() {
		a.publishState(KindUpdate)
	})
	a.awarenessDebounce = NewDebouncer(opts.AwarenessDebounce, a.publishAwareness)

	a.unsubChannel = channel.Subscribe(a.handleEnvelope)
	a.unsubStore = store.Observe(func(event types.ChangeEvent) {
		// Remote-origin changes are rendered but never re-published.
		if event.Origin == types.OriginLocal {
			a.docDebounce.Trigger()
		}
	})
	a.unsubAwareness = awareness.Observe(func(changed []string) {
		for _, id := range changed {
			if id == awareness.LocalID() {
				a.awarenessDebounce.Trigger()
				return
			}
		}
	})

	if err := channel.Publish(Envelope{Type: KindRequestSync, ClientID: store.NodeID()}); err != nil {
		a.logger.Warn(context.Background(), err, "publishing sync request", "room", room)
	}
	// Announce local presence without waiting for a cursor move.
	a.awarenessDebounce.Trigger()

	return a
}

// handleEnvelope dispatches one incoming frame. Handler errors are logged
// and swallowed: a dropped frame is recoverable because the next full-state
// publish re-converges peers.
func (a *Adapter) handleEnvelope(env Envelope) {
	if a.isClosed() || env.ClientID == a.store.NodeID() {
		return
	}

	switch env.Type {
	case KindUpdate, KindSync:
		data, err := base64.StdEncoding.DecodeString(env.Data)
		if err == nil {
			err = a.store.ApplyRemote(data)
		}
		if err != nil {
			a.logFrameError(string(env.Type), err)
		}

	case KindRequestSync:
		// Answer a joining peer immediately; their state is stale until
		// they hear from someone.
		a.publishState(KindSync)

	case KindAwareness:
		data, err := base64.StdEncoding.DecodeString(env.Data)
		if err == nil {
			err = a.awareness.ApplyDelta(data)
		}
		if err != nil {
			a.logFrameError(string(env.Type), err)
		}
	}
}

func (a *Adapter) logFrameError(kind string, err error) {
	terr := &buildrerrors.TransportError{Kind: kind, Room: a.room, Err: err, Timestamp: time.Now()}
	a.logger.Warn(context.Background(), terr, "dropping malformed frame", "kind", kind, "room", a.room)
}

func (a *Adapter) publishState(kind MessageKind) {
	if a.isClosed() {
		return
	}
	data, err := a.store.EncodeState()
	if err != nil {
		a.logger.Error(context.Background(), err, "encoding document state")
		return
	}
	env := Envelope{
		Type:     kind,
		ClientID: a.store.NodeID(),
		Data:     base64.StdEncoding.EncodeToString(data),
	}
	if err := a.channel.Publish(env); err != nil {
		a.logger.Warn(context.Background(), err, "publishing document state", "kind", kind)
	}
}

func (a *Adapter) publishAwareness() {
	if a.isClosed() {
		return
	}
	data, err := a.awareness.EncodeDelta()
	if err != nil {
		a.logger.Error(context.Background(), err, "encoding awareness delta")
		return
	}
	if data == nil {
		return
	}
	env := Envelope{
		Type:     KindAwareness,
		ClientID: a.store.NodeID(),
		Data:     base64.StdEncoding.EncodeToString(data),
	}
	if err := a.channel.Publish(env); err != nil {
		a.logger.Warn(context.Background(), err, "publishing awareness delta")
	}
}

func (a *Adapter) isClosed() bool {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.closed
}

// Close tears the session down: a departure notice is published so peers
// drop this cursor, debouncers are cancelled without firing, all
// subscriptions are detached, and the channel is closed. In-flight callbacks
// that resolve afterwards see the closed flag and no-op.
func (a *Adapter) Close() error {
	a.mutex.Lock()
	if a.closed {
		a.mutex.Unlock()
		return nil
	}
	a.closed = true
	a.mutex.Unlock()

	a.docDebounce.Stop()
	a.awarenessDebounce.Stop()
	a.unsubStore()
	a.unsubAwareness()
	a.unsubChannel()
	a.publishLeave()
	return a.channel.Close()
}

// publishLeave broadcasts a nil awareness entry for the local peer. Best
// effort: a lost departure frame only means the cursor lingers until the
// receiving side times the peer out.
func (a *Adapter) publishLeave() {
	data, err := a.awareness.EncodeLocalLeave()
	if err != nil {
		return
	}
	env := Envelope{
		Type:     KindAwareness,
		ClientID: a.store.NodeID(),
		Data:     base64.StdEncoding.EncodeToString(data),
	}
	if err := a.channel.Publish(env); err != nil {
		a.logger.Debug(context.Background(), "departure notice not delivered", "room", a.room, "reason", err.Error())
	}
}
