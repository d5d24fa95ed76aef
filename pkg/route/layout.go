package route

import (
	"github.com/recera/drawflow/pkg/drag"
	"github.com/recera/drawflow/pkg/geometry"
	"github.com/recera/drawflow/pkg/graph"
	"github.com/recera/drawflow/pkg/hittest"
)

// Style is the visual state of a connection
type Style uint8

const (
	Default Style = iota
	Selected
	// HoverCandidate marks a wire that a drop on the hovered port would
	// replace, or a preview that cannot land on its own node.
	HoverCandidate
)

// CandidateStroke is the stroke color of HoverCandidate paths
const CandidateStroke = "#ff4e4e97"

func (s Style) String() string {
	switch s {
	case Selected:
		return "selected"
	case HoverCandidate:
		return "hover-candidate"
	}
	return "default"
}

// Class is the CSS class list of a path drawn with this style
func (s Style) Class() string {
	if s == Selected {
		return "main-path selected"
	}
	return "main-path"
}

// EdgeStyle picks the style of an existing connection. Selection wins,
// then a hovered input endpoint that is not on the node being dragged
// from.
func EdgeStyle(conn graph.ConnectionInfo, selected *graph.ConnectionInfo, hovered *geometry.PortKey, dragNode string) Style {
	if selected != nil && *selected == conn {
		return Selected
	}
	if hovered != nil && hovered.Dir == geometry.Input && hovered.Node == conn.Node && hovered.Port == conn.Input && hovered.Node != dragNode {
		return HoverCandidate
	}
	return Default
}

// PreviewStyle picks the style of the in-progress drag curve
func PreviewStyle(hovered *geometry.PortKey, originNode string) Style {
	if hovered != nil && hovered.Node == originNode {
		return HoverCandidate
	}
	return Selected
}

// Edge is one path to draw. Conn is nil for the drag preview.
type Edge struct {
	Source string
	Output string
	Conn   *graph.ConnectionInfo
	Curve  Curve
	Style  Style
}

// Preview reports whether the edge is the in-progress drag curve
func (e Edge) Preview() bool {
	return e.Conn == nil
}

// Layout computes every path of the canvas: each output's connections in
// graph order, then the drag preview while a connection is being drawn.
// Connections into missing nodes are skipped. While dragging, the hovered
// port is resolved at the drag's live position, which may prune rects.
func Layout(g *graph.Drawflow, rects *geometry.Rectangles, d drag.Info, selected *graph.ConnectionInfo) []Edge {
	var hovered *geometry.PortKey
	if d.Dragging() {
		if key, ok := hittest.Resolve(d.Current(), rects, g); ok {
			hovered = &key
		}
	}

	var edges []Edge
	for _, e := range g.Connections() {
		start, ok := Center(g, rects, geometry.PortKey{Node: e.Source, Port: e.Output, Dir: geometry.Output})
		if !ok {
			continue
		}
		end, ok := Center(g, rects, geometry.PortKey{Node: e.Conn.Node, Port: e.Conn.Input, Dir: geometry.Input})
		if !ok {
			continue
		}
		conn := e.Conn
		edges = append(edges, Edge{
			Source: e.Source,
			Output: e.Output,
			Conn:   &conn,
			Curve:  Bezier(start, end),
			Style:  EdgeStyle(conn, selected, hovered, d.NodeID),
		})
	}

	if d.DraggingConnection {
		start, ok := Center(g, rects, geometry.PortKey{Node: d.NodeID, Port: d.OutputName, Dir: geometry.Output})
		if ok {
			edges = append(edges, Edge{
				Source: d.NodeID,
				Output: d.OutputName,
				Curve:  Bezier(start, d.Current()),
				Style:  PreviewStyle(hovered, d.NodeID),
			})
		}
	}
	return edges
}
