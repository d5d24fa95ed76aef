// Package components maps node component kinds to the widgets rendered
// inside each node.
package components

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/recera/drawflow/pkg/graph"
	"github.com/recera/drawflow/pkg/vdom"
	"github.com/recera/drawflow/pkg/vex/builder"
)

// Update replaces the data payload of the node a widget belongs to
type Update func(data json.RawMessage)

// Factory renders the content of one node
type Factory func(node *graph.NodeInfo, update Update) *vdom.VNode

// Registry is a concurrency-safe map from component kind to Factory
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for kind
func (r *Registry) Register(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = f
}

// Lookup returns the factory for kind
func (r *Registry) Lookup(kind string) (Factory, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[kind]
	return f, ok
}

// Kinds lists the registered kinds in sorted order
func (r *Registry) Kinds() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Render builds the widget for node. Unknown kinds, and factories that
// return nil, render the NotFound placeholder.
func (r *Registry) Render(node *graph.NodeInfo, update Update) *vdom.VNode {
	f, ok := r.Lookup(node.Component)
	if !ok || f == nil {
		return NotFound()
	}
	if v := f(node, update); v != nil {
		return v
	}
	return NotFound()
}

// NotFound is the placeholder for an unknown component kind
func NotFound() *vdom.VNode {
	return builder.Div().Text("Component not found").Build()
}

// Field decodes one string field of a node payload. Missing or
// non-string fields give "".
func Field(data json.RawMessage, name string) string {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return ""
	}
	s, _ := m[name].(string)
	return s
}

// WithField returns data with name set to value. Other fields are kept; a
// payload that is not an object is replaced.
func WithField(data json.RawMessage, name, value string) json.RawMessage {
	m := make(map[string]any)
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		m = make(map[string]any)
	}
	m[name] = value
	out, err := json.Marshal(m)
	if err != nil {
		return data
	}
	return out
}
