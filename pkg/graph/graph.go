package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNodeNotFound   = errors.New("graph: node not found")
	ErrOutputNotFound = errors.New("graph: output port not found")
	ErrInputNotFound  = errors.New("graph: input port not found")
)

// Drawflow maps node ids to nodes. Ids are assigned by the caller and stay
// stable for the lifetime of the graph. Iteration follows insertion order.
//
// Connections may reference nodes that no longer exist; every reader
// tolerates such dangling references.
type Drawflow struct {
	ids   []string
	nodes map[string]*NodeInfo
}

// New creates an empty graph
func New() *Drawflow {
	return &Drawflow{nodes: make(map[string]*NodeInfo)}
}

// Get returns the node with the given id, or nil
func (g *Drawflow) Get(id string) *NodeInfo {
	if g == nil {
		return nil
	}
	return g.nodes[id]
}

// Has reports whether the node exists
func (g *Drawflow) Has(id string) bool {
	return g.Get(id) != nil
}

// Set inserts or replaces a node. Replacing keeps the position in the
// iteration order.
func (g *Drawflow) Set(id string, node *NodeInfo) {
	if g.nodes == nil {
		g.nodes = make(map[string]*NodeInfo)
	}
	if _, ok := g.nodes[id]; !ok {
		g.ids = append(g.ids, id)
	}
	g.nodes[id] = node
}

// Remove deletes a node. Connections targeting it are left in place; call
// PruneInbound to drop them.
func (g *Drawflow) Remove(id string) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	delete(g.nodes, id)
	for i, v := range g.ids {
		if v == id {
			g.ids = append(g.ids[:i:i], g.ids[i+1:]...)
			break
		}
	}
}

// IDs returns node ids in insertion order
func (g *Drawflow) IDs() []string {
	if g == nil {
		return nil
	}
	return append([]string(nil), g.ids...)
}

// Len returns the number of nodes
func (g *Drawflow) Len() int {
	if g == nil {
		return 0
	}
	return len(g.ids)
}

// Copy returns a deep copy. The controller mutates copies only, so every
// published graph is an immutable snapshot.
func (g *Drawflow) Copy() *Drawflow {
	out := &Drawflow{
		ids:   append([]string(nil), g.ids...),
		nodes: make(map[string]*NodeInfo, len(g.nodes)),
	}
	for id, n := range g.nodes {
		out.nodes[id] = n.Copy()
	}
	return out
}

// Equal reports structural equality; node order is not significant
func (g *Drawflow) Equal(o *Drawflow) bool {
	if g.Len() != o.Len() {
		return false
	}
	if g == nil {
		return true
	}
	for _, id := range g.ids {
		if !g.nodes[id].Equal(o.Get(id)) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the graph as an object keyed by node id
func (g *Drawflow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range g.ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(g.nodes[id])
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", id, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a graph keeping the document order of nodes
func (g *Drawflow) UnmarshalJSON(data []byte) error {
	out := New()
	err := decodeOrderedObject(data, func(id string, raw json.RawMessage) error {
		var n NodeInfo
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("node %s: %w", id, err)
		}
		out.Set(id, &n)
		return nil
	})
	if err != nil {
		return err
	}
	*g = *out
	return nil
}

// Parse decodes the JSON exchange form
func Parse(data []byte) (*Drawflow, error) {
	g := New()
	if err := json.Unmarshal(data, g); err != nil {
		return nil, err
	}
	return g, nil
}

// ToDict returns the graph as a JSON-compatible tree
func (g *Drawflow) ToDict() (map[string]any, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	tree := make(map[string]any)
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// FromDict builds a graph from a JSON-compatible tree. Go maps carry no
// order, so nodes and output ports come back sorted by key.
func FromDict(tree map[string]any) (*Drawflow, error) {
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// decodeOrderedObject walks a JSON object calling fn for each member in
// document order. A JSON null is treated as an empty object.
func decodeOrderedObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("graph: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("graph: expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}
