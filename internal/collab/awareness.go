package collab

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/buildr-dev/buildr/internal/types"
)

// Palette is the fixed set of display colors assigned to peers.
var Palette = []string{
	"#ef4444", "#f97316", "#eab308", "#22c55e",
	"#14b8a6", "#3b82f6", "#8b5cf6", "#ec4899",
}

// ColorFor picks a palette color for a peer id. The choice is stable per id
// so a peer keeps its color across reconnects within a session.
func ColorFor(peerID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(peerID))
	return Palette[h.Sum32()%uint32(len(Palette))]
}

// AnonymousUser builds an identity for an unauthenticated session.
func AnonymousUser(peerID string) types.User {
	tag := peerID
	if len(tag) > 6 {
		tag = tag[:6]
	}
	return types.User{
		ID:    peerID,
		Name:  fmt.Sprintf("Guest %s", tag),
		Color: ColorFor(peerID),
	}
}

// Awareness is the peer-keyed ephemeral presence map. It is never part of
// the durable document: entries exist only while their peer is connected.
type Awareness struct {
	localID   string
	states    map[string]types.PresenceState
	changed   map[string]bool
	observers map[int]func(changed []string)
	nextObs   int
	mutex     sync.Mutex
}

// NewAwareness creates an awareness map with the local peer's identity set.
// Identity is fixed for the session; only the cursor changes afterwards.
func NewAwareness(localID string, user types.User) *Awareness {
	if user.Color == "" {
		user.Color = ColorFor(localID)
	}
	a := &Awareness{
		localID:   localID,
		states:    make(map[string]types.PresenceState),
		changed:   make(map[string]bool),
		observers: make(map[int]func([]string)),
	}
	a.states[localID] = types.PresenceState{User: user}
	a.changed[localID] = true
	return a
}

// LocalID returns the local peer id.
func (a *Awareness) LocalID() string { return a.localID }

// Observe registers a callback invoked with the changed peer ids after every
// mutation. The returned function unsubscribes.
func (a *Awareness) Observe(fn func(changed []string)) func() {
	a.mutex.Lock()
	id := a.nextObs
	a.nextObs++
	a.observers[id] = fn
	a.mutex.Unlock()

	return func() {
		a.mutex.Lock()
		delete(a.observers, id)
		a.mutex.Unlock()
	}
}

func (a *Awareness) notify(changed []string) {
	a.mutex.Lock()
	observers := make([]func([]string), 0, len(a.observers))
	for _, fn := range a.observers {
		observers = append(observers, fn)
	}
	a.mutex.Unlock()

	for _, fn := range observers {
		fn(changed)
	}
}

// SetLocalCursor publishes the local pointer position. Call frequency is
// unbounded (every pointer move); the transport adapter coalesces outgoing
// frames.
func (a *Awareness) SetLocalCursor(x, y float64) {
	a.mutex.Lock()
	state := a.states[a.localID]
	state.Cursor = &types.Cursor{X: x, Y: y}
	a.states[a.localID] = state
	a.changed[a.localID] = true
	a.mutex.Unlock()

	a.notify([]string{a.localID})
}

// ClearLocalCursor removes the local pointer, e.g. when it leaves the canvas.
func (a *Awareness) ClearLocalCursor() {
	a.mutex.Lock()
	state := a.states[a.localID]
	state.Cursor = nil
	a.states[a.localID] = state
	a.changed[a.localID] = true
	a.mutex.Unlock()

	a.notify([]string{a.localID})
}

// Others returns every peer's presence except the local one, which is what
// cursor rendering consumes.
func (a *Awareness) Others() map[string]types.PresenceState {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	others := make(map[string]types.PresenceState, len(a.states))
	for id, state := range a.states {
		if id != a.localID {
			others[id] = state
		}
	}
	return others
}

// Local returns the local peer's current presence.
func (a *Awareness) Local() types.PresenceState {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.states[a.localID]
}

// awarenessDelta is the wire form of a presence update: only the changed
// peers, with nil marking a peer that left.
type awarenessDelta map[string]*types.PresenceState

// EncodeDelta serializes the peers changed since the last encode and clears
// the changed set. Returns nil when nothing changed.
func (a *Awareness) EncodeDelta() ([]byte, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if len(a.changed) == 0 {
		return nil, nil
	}
	delta := make(awarenessDelta, len(a.changed))
	for id := range a.changed {
		if state, ok := a.states[id]; ok {
			s := state
			delta[id] = &s
		} else {
			delta[id] = nil
		}
	}
	a.changed = make(map[string]bool)
	return json.Marshal(delta)
}

// ApplyDelta merges a presence frame from a peer. Entries for the local id
// are ignored; nil entries remove the peer.
func (a *Awareness) ApplyDelta(data []byte) error {
	var delta awarenessDelta
	if err := json.Unmarshal(data, &delta); err != nil {
		return fmt.Errorf("decoding awareness delta: %w", err)
	}

	a.mutex.Lock()
	changed := make([]string, 0, len(delta))
	for id, state := range delta {
		if id == a.localID {
			continue
		}
		if state == nil {
			if _, ok := a.states[id]; ok {
				delete(a.states, id)
				changed = append(changed, id)
			}
			continue
		}
		a.states[id] = *state
		changed = append(changed, id)
	}
	a.mutex.Unlock()

	if len(changed) > 0 {
		a.notify(changed)
	}
	return nil
}

// EncodeLocalLeave serializes a departure notice for the local peer: a
// delta with a nil entry, which ApplyDelta treats as removal. Sent when the
// session detaches so other peers drop this cursor immediately.
func (a *Awareness) EncodeLocalLeave() ([]byte, error) {
	return json.Marshal(awarenessDelta{a.localID: nil})
}

// RemovePeer drops a disconnected peer's presence.
func (a *Awareness) RemovePeer(id string) {
	a.mutex.Lock()
	_, ok := a.states[id]
	if ok {
		delete(a.states, id)
	}
	a.mutex.Unlock()

	if ok {
		a.notify([]string{id})
	}
}
