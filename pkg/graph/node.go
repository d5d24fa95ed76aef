// Package graph is the structural model of a drawflow canvas: nodes, their
// ports, and the directed connections between output and input ports.
//
// The JSON form is the exchange contract of the editor:
//
//	{ "<nodeId>": {
//	    "name": "...", "data": {...}, "class": "...", "component": "...",
//	    "inputs": ["input_1"],
//	    "outputs": { "output_1": { "connections": [ {"node": "2", "input": "input_1"} ] } },
//	    "pos_x": 10, "pos_y": 20
//	} }
package graph

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// ConnectionInfo is the receiving end of a directed edge
type ConnectionInfo struct {
	Node  string `json:"node"`
	Input string `json:"input"`
}

// Output is a named output port with its outgoing connections in
// insertion order
type Output struct {
	Name        string
	Connections []ConnectionInfo
}

// NodeInfo describes one node of the graph. Data is opaque to the editor;
// only the component registered for Component interprets it.
type NodeInfo struct {
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	Class     string          `json:"class"`
	Component string          `json:"component"`
	Inputs    []string        `json:"inputs"`
	Outputs   Outputs         `json:"outputs"`
	PosX      float64         `json:"pos_x"`
	PosY      float64         `json:"pos_y"`
}

// Output returns the named output port, or nil
func (n *NodeInfo) Output(name string) *Output {
	for i := range n.Outputs {
		if n.Outputs[i].Name == name {
			return &n.Outputs[i]
		}
	}
	return nil
}

// HasInput reports whether the node declares the named input
func (n *NodeInfo) HasInput(name string) bool {
	for _, in := range n.Inputs {
		if in == name {
			return true
		}
	}
	return false
}

// OutputNames lists output port names in declaration order
func (n *NodeInfo) OutputNames() []string {
	names := make([]string, len(n.Outputs))
	for i, o := range n.Outputs {
		names[i] = o.Name
	}
	return names
}

// Copy returns a deep copy of the node
func (n *NodeInfo) Copy() *NodeInfo {
	out := *n
	out.Data = append(json.RawMessage(nil), normalizeData(n.Data)...)
	out.Inputs = append([]string{}, n.Inputs...)
	out.Outputs = make(Outputs, len(n.Outputs))
	for i, o := range n.Outputs {
		out.Outputs[i] = Output{
			Name:        o.Name,
			Connections: append([]ConnectionInfo{}, o.Connections...),
		}
	}
	return &out
}

// Equal reports structural equality. Output order is not significant;
// input order and connection order are.
func (n *NodeInfo) Equal(o *NodeInfo) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Name != o.Name || n.Class != o.Class || n.Component != o.Component ||
		n.PosX != o.PosX || n.PosY != o.PosY {
		return false
	}
	if len(n.Inputs) != len(o.Inputs) {
		return false
	}
	for i := range n.Inputs {
		if n.Inputs[i] != o.Inputs[i] {
			return false
		}
	}
	if len(n.Outputs) != len(o.Outputs) {
		return false
	}
	for _, out := range n.Outputs {
		other := o.Output(out.Name)
		if other == nil || len(other.Connections) != len(out.Connections) {
			return false
		}
		for i := range out.Connections {
			if out.Connections[i] != other.Connections[i] {
				return false
			}
		}
	}
	return dataEqual(n.Data, o.Data)
}

// MarshalJSON writes the node with empty collections instead of null
func (n NodeInfo) MarshalJSON() ([]byte, error) {
	type alias NodeInfo
	a := alias(n)
	a.Data = normalizeData(a.Data)
	if a.Inputs == nil {
		a.Inputs = []string{}
	}
	if a.Outputs == nil {
		a.Outputs = Outputs{}
	}
	return json.Marshal(a)
}

// UnmarshalJSON reads a node, defaulting missing collections to empty
func (n *NodeInfo) UnmarshalJSON(data []byte) error {
	type alias NodeInfo
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	a.Data = normalizeData(a.Data)
	if a.Inputs == nil {
		a.Inputs = []string{}
	}
	if a.Outputs == nil {
		a.Outputs = Outputs{}
	}
	*n = NodeInfo(a)
	return nil
}

// Outputs is the ordered output-port mapping of a node
type Outputs []Output

// MarshalJSON writes the ports as an object in declaration order
func (o Outputs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, out := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(out.Name)
		if err != nil {
			return nil, err
		}
		conns := out.Connections
		if conns == nil {
			conns = []ConnectionInfo{}
		}
		val, err := json.Marshal(struct {
			Connections []ConnectionInfo `json:"connections"`
		}{conns})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the ports keeping the document order
func (o *Outputs) UnmarshalJSON(data []byte) error {
	outs := Outputs{}
	err := decodeOrderedObject(data, func(name string, raw json.RawMessage) error {
		var port struct {
			Connections []ConnectionInfo `json:"connections"`
		}
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &port); err != nil {
				return err
			}
		}
		if port.Connections == nil {
			port.Connections = []ConnectionInfo{}
		}
		outs = append(outs, Output{Name: name, Connections: port.Connections})
		return nil
	})
	if err != nil {
		return err
	}
	*o = outs
	return nil
}

func normalizeData(d json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(d)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return json.RawMessage(`{}`)
	}
	return d
}

func dataEqual(a, b json.RawMessage) bool {
	a, b = normalizeData(a), normalizeData(b)
	if bytes.Equal(a, b) {
		return true
	}
	var va, vb any
	if json.Unmarshal(a, &va) != nil || json.Unmarshal(b, &vb) != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}
