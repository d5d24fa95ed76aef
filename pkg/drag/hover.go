package drag

import (
	"math"

	"github.com/recera/drawflow/pkg/geometry"
)

// HoverThreshold is how far, in pixels along either axis, the pointer may
// travel over a node before a pending port hover is dropped.
const HoverThreshold = 10

// Hover is the port the pointer rests on while idle. A pointer-down on the
// owning node turns it into a connection drag.
type Hover struct {
	Port           geometry.PortKey
	StartX, StartY float64
	set            bool
}

// NewHover records a hover over port at the given client position
func NewHover(port geometry.PortKey, client geometry.Point) Hover {
	return Hover{
		Port:   port,
		StartX: geometry.Round(client.X),
		StartY: geometry.Round(client.Y),
		set:    true,
	}
}

// Active reports whether a port is hovered
func (h Hover) Active() bool {
	return h.set
}

// On reports whether the hover is the given direction on the given node
func (h Hover) On(nodeID string, dir geometry.Direction) bool {
	return h.set && h.Port.Node == nodeID && h.Port.Dir == dir
}

// BeyondThreshold reports whether client has moved more than threshold
// along either axis from where the hover started.
func (h Hover) BeyondThreshold(client geometry.Point, threshold float64) bool {
	return math.Abs(client.X-h.StartX) > threshold || math.Abs(client.Y-h.StartY) > threshold
}
