// Package crdt implements the replicated component sequence backing the
// collaborative editor. The document is a last-writer-wins element set with
// fractional sequence positions: every entry carries a Lamport timestamp and
// the id of the node that wrote it, deletions are tombstones, and merging
// two documents keeps the newer version of every entry. Merge is
// commutative, associative, and idempotent, so replicas converge to the same
// state no matter what order full-state frames arrive in.
package crdt

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/buildr-dev/buildr/internal/types"
)

// Entry is one replicated record. Deleted entries remain as tombstones so a
// concurrent re-add on another replica loses deterministically rather than
// resurrecting by accident.
type Entry struct {
	Component types.Component `json:"component"`
	// Pos is the fractional sequence position; live entries sort by
	// (Pos, Component.ID)
	Pos float64 `json:"pos"`
	// Clock is the Lamport timestamp of the writing operation
	Clock uint64 `json:"clock"`
	// Node identifies the replica that wrote this version; it breaks
	// Clock ties deterministically
	Node string `json:"node"`
	// Deleted marks a tombstone
	Deleted bool `json:"deleted"`
}

// newerThan reports whether e should win a merge against other, following
// last-writer-wins: higher clock first, then lexicographically larger node id.
func (e Entry) newerThan(other Entry) bool {
	if e.Clock != other.Clock {
		return e.Clock > other.Clock
	}
	return e.Node > other.Node
}

// Doc is one replica of the component sequence. All methods are safe for
// interleaved use from local mutations and the remote frame handler.
type Doc struct {
	nodeID  string
	clock   uint64
	entries map[string]Entry
	mu      sync.Mutex
}

// NewDoc creates an empty replica. An empty nodeID gets a generated one.
func NewDoc(nodeID string) *Doc {
	if nodeID == "" {
		nodeID = uuid.NewString()
	}
	return &Doc{
		nodeID:  nodeID,
		entries: make(map[string]Entry),
	}
}

// NodeID returns this replica's identity.
func (d *Doc) NodeID() string { return d.nodeID }

func (d *Doc) tick() uint64 {
	d.clock++
	return d.clock
}

// Components returns the live component list in canonical document order.
func (d *Doc) Components() []types.Component {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.componentsLocked()
}

func (d *Doc) componentsLocked() []types.Component {
	live := make([]Entry, 0, len(d.entries))
	for _, e := range d.entries {
		if !e.Deleted {
			live = append(live, e)
		}
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].Pos != live[j].Pos {
			return live[i].Pos < live[j].Pos
		}
		return live[i].Component.ID < live[j].Component.ID
	})

	components := make([]types.Component, len(live))
	for i, e := range live {
		components[i] = e.Component.Clone()
	}
	return components
}

// Get returns the live entry for an id.
func (d *Doc) Get(id string) (Entry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.entries[id]
	if !ok || e.Deleted {
		return Entry{}, false
	}
	return e, true
}

// Len returns the number of live components.
func (d *Doc) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, e := range d.entries {
		if !e.Deleted {
			n++
		}
	}
	return n
}

// Append inserts a component after the current last live entry.
func (d *Doc) Append(c types.Component) {
	d.mu.Lock()
	defer d.mu.Unlock()

	pos := 0.0
	for _, e := range d.entries {
		if !e.Deleted && e.Pos > pos {
			pos = e.Pos
		}
	}
	d.entries[c.ID] = Entry{
		Component: c.Clone(),
		Pos:       pos + 1,
		Clock:     d.tick(),
		Node:      d.nodeID,
	}
}

// Set writes a new version of an existing live entry, keeping its sequence
// position. Missing or deleted ids are a no-op: the component may have been
// concurrently removed by a peer, which is not an error.
func (d *Doc) Set(c types.Component) {
	d.mu.Lock()
	defer d.mu.Unlock()

	current, ok := d.entries[c.ID]
	if !ok || current.Deleted {
		return
	}
	d.entries[c.ID] = Entry{
		Component: c.Clone(),
		Pos:       current.Pos,
		Clock:     d.tick(),
		Node:      d.nodeID,
	}
}

// SetPos rewrites a live entry's sequence position.
func (d *Doc) SetPos(id string, pos float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	current, ok := d.entries[id]
	if !ok || current.Deleted {
		return
	}
	current.Pos = pos
	current.Clock = d.tick()
	current.Node = d.nodeID
	d.entries[id] = current
}

// PosBefore computes a fractional position that sorts immediately before the
// given live id, for reorder operations.
func (d *Doc) PosBefore(id string) (float64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	target, ok := d.entries[id]
	if !ok || target.Deleted {
		return 0, false
	}

	// Largest live position strictly below the target.
	prev := target.Pos - 2
	found := false
	for _, e := range d.entries {
		if e.Deleted || e.Component.ID == id {
			continue
		}
		if e.Pos < target.Pos && (!found || e.Pos > prev) {
			prev = e.Pos
			found = true
		}
	}
	if !found {
		return target.Pos - 1, true
	}
	return (prev + target.Pos) / 2, true
}

// Delete tombstones a live entry. Deleting an absent id is a no-op, which
// keeps concurrent deletes idempotent.
func (d *Doc) Delete(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	current, ok := d.entries[id]
	if !ok || current.Deleted {
		return false
	}
	current.Deleted = true
	current.Clock = d.tick()
	current.Node = d.nodeID
	d.entries[id] = current
	return true
}

// Replace tombstones every live entry and repopulates the sequence from the
// given list in one batch. Used for load-project, apply-template, and
// clear-canvas, where merge semantics are not wanted.
func (d *Doc) Replace(components []types.Component) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, e := range d.entries {
		if !e.Deleted {
			e.Deleted = true
			e.Clock = d.tick()
			e.Node = d.nodeID
			d.entries[id] = e
		}
	}
	for i, c := range components {
		d.entries[c.ID] = Entry{
			Component: c.Clone(),
			Pos:       float64(i + 1),
			Clock:     d.tick(),
			Node:      d.nodeID,
		}
	}
}

// docState is the full-state wire form of a replica.
type docState struct {
	Node    string           `json:"node"`
	Clock   uint64           `json:"clock"`
	Entries map[string]Entry `json:"entries"`
}

// EncodeState serializes the full document state, tombstones included.
// Full-state frames trade bandwidth for correctness under out-of-order
// delivery: applying any frame, any number of times, in any order, still
// converges.
func (d *Doc) EncodeState() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	state := docState{
		Node:    d.nodeID,
		Clock:   d.clock,
		Entries: d.entries,
	}
	return json.Marshal(state)
}

// ApplyState merges a full-state frame from another replica. Every entry is
// kept or replaced by last-writer-wins; the local clock advances past the
// remote one so later local writes win against everything seen so far.
// It reports whether the merge changed the live component list.
func (d *Doc) ApplyState(data []byte) (bool, error) {
	var state docState
	if err := json.Unmarshal(data, &state); err != nil {
		return false, fmt.Errorf("decoding document state: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	before := d.componentsLocked()

	if state.Clock > d.clock {
		d.clock = state.Clock
	}
	for id, remote := range state.Entries {
		local, exists := d.entries[id]
		if !exists || remote.newerThan(local) {
			d.entries[id] = remote
		}
	}

	after := d.componentsLocked()
	return !equalComponentLists(before, after), nil
}

func equalComponentLists(a, b []types.Component) bool {
	if len(a) != len(b) {
		return false
	}
	aj, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bj, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(aj) == string(bj)
}
