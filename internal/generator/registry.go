// Package generator implements the code-generation pipeline: a registry of
// per-type generator triples, a page generator that assembles one HTML
// document per page, and a site generator that produces the complete static
// site as an in-memory file map.
package generator

import (
	"sort"
	"sync"

	"github.com/buildr-dev/buildr/internal/types"
)

// GenerateFunc produces one output fragment for a component. Implementations
// must be total: any component of the registered type yields a string, never
// a panic, regardless of what its props and style maps contain.
type GenerateFunc func(c *types.Component) string

// Triple is the generator set registered for one component type.
type Triple struct {
	// HTML returns a self-contained fragment carrying a data-component-id
	// attribute; all free-text prop content is escaped
	HTML GenerateFunc
	// CSS returns zero or more rules scoped to the component's id so they
	// cannot override the page-level base reset
	CSS GenerateFunc
	// JS returns zero or more statements that look the component's node up
	// by data-component-id and attach behavior to it
	JS GenerateFunc
}

// Registry maps component types to generator triples. Registration is
// additive: a new type needs one Register call and zero changes to existing
// entries. Unknown types are handled by the page generator, not here.
type Registry struct {
	triples map[string]Triple
	mutex   sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		triples: make(map[string]Triple),
	}
}

// Register adds or replaces the generator triple for a component type.
// Missing functions are filled with generators that emit nothing, keeping
// every registered triple total.
func (r *Registry) Register(componentType string, triple Triple) {
	if triple.HTML == nil {
		triple.HTML = emptyGenerator
	}
	if triple.CSS == nil {
		triple.CSS = emptyGenerator
	}
	if triple.JS == nil {
		triple.JS = emptyGenerator
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.triples[componentType] = triple
}

// Lookup retrieves the generator triple for a component type.
func (r *Registry) Lookup(componentType string) (Triple, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	triple, exists := r.triples[componentType]
	return triple, exists
}

// Types returns the registered component types in sorted order.
func (r *Registry) Types() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.triples))
	for name := range r.triples {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered types.
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.triples)
}

func emptyGenerator(*types.Component) string { return "" }

// Default returns a registry pre-populated with every built-in component
// type. Each call returns a fresh registry so callers can extend it without
// affecting others.
func Default() *Registry {
	r := NewRegistry()
	registerBuiltins(r)
	return r
}
