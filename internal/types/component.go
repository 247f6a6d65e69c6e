// Package types provides common type definitions used throughout buildr.
// This package contains shared types to avoid circular dependencies between
// the generator, collaboration, and persistence packages.
package types

import "time"

// Component is one typed, styled, positioned element in a builder document.
// Props and Style are open string-keyed maps: their shape varies per Type and
// is never validated against a schema, so consumers must tolerate missing
// keys.
type Component struct {
	// ID is a stable unique identifier, assigned at creation and never reused
	ID string `json:"id" yaml:"id"`
	// Type selects which generator triple renders this component
	Type string `json:"type" yaml:"type"`
	// Props holds semantic content values (text, URLs, labels, link lists)
	Props map[string]any `json:"props,omitempty" yaml:"props,omitempty"`
	// Style holds CSS-like declarations applied as inline styles and CSS rules
	Style map[string]string `json:"style,omitempty" yaml:"style,omitempty"`
	// Position is the absolute canvas placement in pixels
	Position Position `json:"position" yaml:"position"`
	// Order fixes the emission order when set; nil falls back to position
	Order *int `json:"order,omitempty" yaml:"order,omitempty"`
	// PageID associates the component with one page; empty, "all" and "home"
	// all mean the default page
	PageID string `json:"page_id,omitempty" yaml:"page_id,omitempty"`
	// Children is the ordered child list for nesting-capable types
	// (container, card, grid)
	Children []Component `json:"children,omitempty" yaml:"children,omitempty"`
}

// Position is a pixel coordinate on the canvas.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Clone returns a deep copy of the component so callers can mutate the copy
// without aliasing the original's maps or children.
func (c Component) Clone() Component {
	out := c
	if c.Props != nil {
		out.Props = make(map[string]any, len(c.Props))
		for k, v := range c.Props {
			out.Props[k] = v
		}
	}
	if c.Style != nil {
		out.Style = make(map[string]string, len(c.Style))
		for k, v := range c.Style {
			out.Style[k] = v
		}
	}
	if c.Order != nil {
		order := *c.Order
		out.Order = &order
	}
	if c.Children != nil {
		out.Children = make([]Component, len(c.Children))
		for i, child := range c.Children {
			out.Children[i] = child.Clone()
		}
	}
	return out
}

// Page is a named collection of components plus metadata, the unit the page
// generator consumes.
type Page struct {
	Name       string       `json:"name" yaml:"name"`
	Components []Component  `json:"components" yaml:"components"`
	Metadata   PageMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// PageMetadata carries head-level document metadata.
type PageMetadata struct {
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Keywords    string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// Origin marks where a document mutation came from. Remote-origin changes are
// rendered but never re-published or re-saved, which is what breaks echo
// loops between peers.
type Origin int

const (
	// OriginLocal marks changes made by this peer
	OriginLocal Origin = iota
	// OriginRemote marks changes received from the network
	OriginRemote
)

// String returns the string representation of the origin.
func (o Origin) String() string {
	switch o {
	case OriginLocal:
		return "local"
	case OriginRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// User identifies a collaborating peer.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Cursor is a live pointer position published through the awareness layer.
type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PresenceState is the ephemeral per-peer state carried by the awareness
// layer. It is never part of the durable document.
type PresenceState struct {
	User   User    `json:"user"`
	Cursor *Cursor `json:"cursor,omitempty"`
}

// ChangeEvent describes one observed document mutation.
type ChangeEvent struct {
	// Origin indicates whether the change was made locally or merged in
	// from a remote peer
	Origin Origin
	// Components is the full component list after the change, in canonical
	// document order
	Components []Component
	// Timestamp records when the change was observed
	Timestamp time.Time
}
