package collab

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/buildr-dev/buildr/internal/crdt"
	"github.com/buildr-dev/buildr/internal/types"
)

// defaultPosition is where components land when added without an explicit
// canvas position.
var defaultPosition = types.Position{X: 40, Y: 40}

// ComponentUpdate is a partial update applied to one component. Props and
// Style merge shallowly: listed keys overwrite, unlisted keys are retained,
// so concurrent edits to different fields of the same component do not
// clobber each other.
type ComponentUpdate struct {
	Props    map[string]any
	Style    map[string]string
	Position *types.Position
	Order    *int
}

// Store wraps the replicated document with the local mutation API and change
// observation. Every observed change carries an explicit origin so consumers
// can tell "edited here" (mark unsaved, publish) from "arrived from a peer"
// (render only).
type Store struct {
	doc       *crdt.Doc
	observers map[int]func(types.ChangeEvent)
	nextObs   int
	mutex     sync.Mutex
}

// NewStore creates a store over a fresh replica. An empty nodeID gets a
// generated one.
func NewStore(nodeID string) *Store {
	return &Store{
		doc:       crdt.NewDoc(nodeID),
		observers: make(map[int]func(types.ChangeEvent)),
	}
}

// NodeID returns the underlying replica identity.
func (s *Store) NodeID() string { return s.doc.NodeID() }

// Components returns the current list in canonical document order.
func (s *Store) Components() []types.Component {
	return s.doc.Components()
}

// Observe registers a callback invoked with the full component list after
// every mutation, local or remote. The returned function unsubscribes.
func (s *Store) Observe(fn func(types.ChangeEvent)) func() {
	s.mutex.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mutex.Unlock()

	return func() {
		s.mutex.Lock()
		delete(s.observers, id)
		s.mutex.Unlock()
	}
}

func (s *Store) notify(origin types.Origin) {
	s.mutex.Lock()
	observers := make([]func(types.ChangeEvent), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mutex.Unlock()

	event := types.ChangeEvent{
		Origin:     origin,
		Components: s.doc.Components(),
		Timestamp:  time.Now(),
	}
	for _, fn := range observers {
		fn(event)
	}
}

// AddComponent appends a component to the end of the sequence, assigning a
// generated id and the default position when absent. The component as stored
// is returned.
func (s *Store) AddComponent(c types.Component) types.Component {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Position == (types.Position{}) {
		c.Position = defaultPosition
	}
	s.doc.Append(c)
	s.notify(types.OriginLocal)
	return c
}

// UpdateComponent merges a partial update into the component with the given
// id. An absent id is a no-op, not an error: the component may have been
// concurrently deleted by a peer, and updates must stay idempotent under
// that race.
func (s *Store) UpdateComponent(id string, update ComponentUpdate) {
	entry, ok := s.doc.Get(id)
	if !ok {
		return
	}
	merged := entry.Component.Clone()

	if len(update.Props) > 0 {
		if merged.Props == nil {
			merged.Props = make(map[string]any, len(update.Props))
		}
		for k, v := range update.Props {
			merged.Props[k] = v
		}
	}
	if len(update.Style) > 0 {
		if merged.Style == nil {
			merged.Style = make(map[string]string, len(update.Style))
		}
		for k, v := range update.Style {
			merged.Style[k] = v
		}
	}
	if update.Position != nil {
		merged.Position = *update.Position
	}
	if update.Order != nil {
		order := *update.Order
		merged.Order = &order
	}

	s.doc.Set(merged)
	s.notify(types.OriginLocal)
}

// DeleteComponent removes the component with the given id. Absent ids are a
// no-op so concurrent deletes stay idempotent.
func (s *Store) DeleteComponent(id string) {
	if s.doc.Delete(id) {
		s.notify(types.OriginLocal)
	}
}

// ReorderComponent moves the dragged component to the dropped component's
// position. A no-op when either id is missing.
func (s *Store) ReorderComponent(dragID, dropID string) {
	if dragID == dropID {
		return
	}
	if _, ok := s.doc.Get(dragID); !ok {
		return
	}
	pos, ok := s.doc.PosBefore(dropID)
	if !ok {
		return
	}
	s.doc.SetPos(dragID, pos)
	s.notify(types.OriginLocal)
}

// ReplaceComponents clears the sequence and repopulates it in one batch,
// assigning ids to entries that lack one. Used for load-project,
// apply-template, and clear-canvas.
func (s *Store) ReplaceComponents(components []types.Component) {
	list := make([]types.Component, len(components))
	for i, c := range components {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		list[i] = c
	}
	s.doc.Replace(list)
	s.notify(types.OriginLocal)
}

// EncodeState serializes the full replica state for the wire.
func (s *Store) EncodeState() ([]byte, error) {
	return s.doc.EncodeState()
}

// ApplyRemote merges a full-state frame received from a peer. Observers are
// notified with remote origin only when the merge actually changed the list,
// and remote-origin events are never re-published by the transport adapter,
// which is what prevents echo loops.
func (s *Store) ApplyRemote(data []byte) error {
	changed, err := s.doc.ApplyState(data)
	if err != nil {
		return err
	}
	if changed {
		s.notify(types.OriginRemote)
	}
	return nil
}
