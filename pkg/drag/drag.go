// Package drag models the pointer interaction in progress on the canvas.
//
// An Info value describes one interaction. It is never modified once
// handed out: every transition returns a new value, so two renders can be
// compared with == to skip redundant work.
package drag

import (
	"fmt"

	"github.com/recera/drawflow/pkg/geometry"
)

// PrimaryButton is the MouseEvent.button index of the main button
const PrimaryButton = 0

// State names the interaction an Info describes
type State uint8

const (
	Idle State = iota
	DraggingNode
	DraggingConnection
	DraggingViewport
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case DraggingNode:
		return "dragging-node"
	case DraggingConnection:
		return "dragging-connection"
	case DraggingViewport:
		return "dragging-viewport"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Info is the drag state value. At most one of the three flags is set;
// none set means idle.
type Info struct {
	DraggingNode       bool
	DraggingConnection bool
	DraggingViewport   bool

	// NodeID anchors node and connection drags. OutputName is the port a
	// connection is drawn from.
	NodeID     string
	OutputName string

	StartX, StartY     float64
	OffsetX, OffsetY   float64
	CurrentX, CurrentY float64
}

// Reset returns the idle value
func Reset() Info {
	return Info{}
}

// Dragging reports whether any interaction is in progress
func (i Info) Dragging() bool {
	return i.DraggingNode || i.DraggingConnection || i.DraggingViewport
}

// State reports which interaction is in progress
func (i Info) State() State {
	switch {
	case i.DraggingNode:
		return DraggingNode
	case i.DraggingConnection:
		return DraggingConnection
	case i.DraggingViewport:
		return DraggingViewport
	}
	return Idle
}

// Current is the live pointer position in canvas coordinates
func (i Info) Current() geometry.Point {
	return geometry.Point{X: i.CurrentX, Y: i.CurrentY}
}

// Canvas converts a client position to canvas coordinates by removing the
// fixed canvas origin and the viewport translation.
func Canvas(client, viewport, origin geometry.Point) geometry.Point {
	return geometry.Pt(client.X-origin.X-viewport.X, client.Y-origin.Y-viewport.Y)
}

// StartViewport begins panning. The offset is relative to the current
// viewport translation.
func StartViewport(client, viewport, origin geometry.Point) Info {
	cur := Canvas(client, viewport, origin)
	return Info{
		DraggingViewport: true,
		StartX:           geometry.Round(client.X),
		StartY:           geometry.Round(client.Y),
		OffsetX:          geometry.Round(client.X - viewport.X),
		OffsetY:          geometry.Round(client.Y - viewport.Y),
		CurrentX:         cur.X,
		CurrentY:         cur.Y,
	}
}

// StartNode begins moving a node. The offset is relative to the node
// position.
func StartNode(nodeID string, client, nodePos, viewport, origin geometry.Point) Info {
	i := anchored(nodeID, client, nodePos, viewport, origin)
	i.DraggingNode = true
	return i
}

// StartConnection begins drawing a connection from an output port
func StartConnection(nodeID, output string, client, nodePos, viewport, origin geometry.Point) Info {
	i := anchored(nodeID, client, nodePos, viewport, origin)
	i.DraggingConnection = true
	i.OutputName = output
	return i
}

func anchored(nodeID string, client, nodePos, viewport, origin geometry.Point) Info {
	cur := Canvas(client, viewport, origin)
	return Info{
		NodeID:   nodeID,
		StartX:   geometry.Round(client.X),
		StartY:   geometry.Round(client.Y),
		OffsetX:  geometry.Round(client.X - nodePos.X),
		OffsetY:  geometry.Round(client.Y - nodePos.Y),
		CurrentX: cur.X,
		CurrentY: cur.Y,
	}
}

// Moved returns a copy with the live pointer position updated
func (i Info) Moved(client, viewport, origin geometry.Point) Info {
	cur := Canvas(client, viewport, origin)
	i.CurrentX, i.CurrentY = cur.X, cur.Y
	return i
}

// Translate applies the press offset to a client position, giving the new
// viewport translation or node position.
func (i Info) Translate(client geometry.Point) geometry.Point {
	return geometry.Pt(client.X-i.OffsetX, client.Y-i.OffsetY)
}

// Missed reports a move event whose button mask shows the button was
// released without us seeing the pointer-up.
func Missed(buttons int) bool {
	return buttons == 0
}

func (i Info) String() string {
	return fmt.Sprintf("drag(%s node=%q output=%q start=%g,%g offset=%g,%g current=%g,%g)",
		i.State(), i.NodeID, i.OutputName, i.StartX, i.StartY, i.OffsetX, i.OffsetY, i.CurrentX, i.CurrentY)
}
