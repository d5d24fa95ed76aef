package graph

import (
	"encoding/json"
	"fmt"
)

// Edge is one connection together with the output port it leaves from
type Edge struct {
	Source string
	Output string
	Conn   ConnectionInfo
}

// Connections lists every edge in node order, then port order, then
// connection order
func (g *Drawflow) Connections() []Edge {
	var edges []Edge
	for _, id := range g.IDs() {
		for _, out := range g.nodes[id].Outputs {
			for _, c := range out.Connections {
				edges = append(edges, Edge{Source: id, Output: out.Name, Conn: c})
			}
		}
	}
	return edges
}

// removeWhere drops every connection for which match returns true and
// returns the removed edges
func (g *Drawflow) removeWhere(match func(c ConnectionInfo) bool) []Edge {
	var removed []Edge
	for _, id := range g.ids {
		node := g.nodes[id]
		for i := range node.Outputs {
			out := &node.Outputs[i]
			kept := out.Connections[:0]
			for _, c := range out.Connections {
				if match(c) {
					removed = append(removed, Edge{Source: id, Output: out.Name, Conn: c})
					continue
				}
				kept = append(kept, c)
			}
			out.Connections = kept
		}
	}
	return removed
}

// PruneInbound removes every connection that targets nodeID
func (g *Drawflow) PruneInbound(nodeID string) int {
	return len(g.removeWhere(func(c ConnectionInfo) bool { return c.Node == nodeID }))
}

// RemoveConnectionsTo removes every connection into the given input
func (g *Drawflow) RemoveConnectionsTo(nodeID, input string) int {
	target := ConnectionInfo{Node: nodeID, Input: input}
	return len(g.removeWhere(func(c ConnectionInfo) bool { return c == target }))
}

// RemoveConnection removes c from every output that holds it
func (g *Drawflow) RemoveConnection(c ConnectionInfo) int {
	return g.RemoveConnectionsTo(c.Node, c.Input)
}

// DetachInput removes the connection feeding an input and reports the
// output it came from. If several connections target the input, the first
// in iteration order is detached.
func (g *Drawflow) DetachInput(nodeID, input string) (source, output string, ok bool) {
	target := ConnectionInfo{Node: nodeID, Input: input}
	for _, id := range g.ids {
		node := g.nodes[id]
		for i := range node.Outputs {
			out := &node.Outputs[i]
			for j, c := range out.Connections {
				if c == target {
					out.Connections = append(out.Connections[:j:j], out.Connections[j+1:]...)
					return id, out.Name, true
				}
			}
		}
	}
	return "", "", false
}

// Connect appends c to the named output of srcNode. Appending a connection
// that is already present is a no-op.
func (g *Drawflow) Connect(srcNode, output string, c ConnectionInfo) error {
	node := g.Get(srcNode)
	if node == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, srcNode)
	}
	out := node.Output(output)
	if out == nil {
		return fmt.Errorf("%w: %s.%s", ErrOutputNotFound, srcNode, output)
	}
	for _, existing := range out.Connections {
		if existing == c {
			return nil
		}
	}
	out.Connections = append(out.Connections, c)
	return nil
}

// Move sets the position of a node
func (g *Drawflow) Move(id string, x, y float64) error {
	node := g.Get(id)
	if node == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	node.PosX, node.PosY = x, y
	return nil
}

// SetData replaces the opaque payload of a node
func (g *Drawflow) SetData(id string, data json.RawMessage) error {
	node := g.Get(id)
	if node == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if !json.Valid(data) {
		return fmt.Errorf("graph: node %s: invalid data payload", id)
	}
	node.Data = append(json.RawMessage(nil), data...)
	return nil
}

// Validate reports dangling connections and inputs fed by more than one
// connection. The editor never produces either at rest; imported files
// might.
func (g *Drawflow) Validate() []error {
	var errs []error
	inbound := make(map[ConnectionInfo]int)
	for _, e := range g.Connections() {
		target := g.Get(e.Conn.Node)
		switch {
		case target == nil:
			errs = append(errs, fmt.Errorf("%w: %s.%s -> %s", ErrNodeNotFound, e.Source, e.Output, e.Conn.Node))
			continue
		case !target.HasInput(e.Conn.Input):
			errs = append(errs, fmt.Errorf("%w: %s.%s -> %s.%s", ErrInputNotFound, e.Source, e.Output, e.Conn.Node, e.Conn.Input))
		}
		inbound[e.Conn]++
		if inbound[e.Conn] == 2 {
			errs = append(errs, fmt.Errorf("graph: input %s.%s has more than one connection", e.Conn.Node, e.Conn.Input))
		}
	}
	return errs
}
