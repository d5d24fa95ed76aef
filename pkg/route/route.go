// Package route lays out the connections of a graph as cubic Bézier curves
// and decides how each one is drawn.
package route

import (
	"math"
	"strconv"
	"strings"

	"github.com/recera/drawflow/pkg/geometry"
	"github.com/recera/drawflow/pkg/graph"
)

// MaxControlOffset caps the horizontal pull of the control points
const MaxControlOffset = 200

// Center returns the absolute center of a port. A port that has not been
// measured yet counts as a zero rect at the node position. ok is false when
// the node does not exist.
func Center(g *graph.Drawflow, rects *geometry.Rectangles, key geometry.PortKey) (geometry.Point, bool) {
	node := g.Get(key.Node)
	if node == nil {
		return geometry.Point{}, false
	}
	r, _ := rects.Get(key)
	return r.Box(node.PosX, node.PosY).Center(), true
}

// Curve is a cubic Bézier segment
type Curve struct {
	Start, C1, C2, End geometry.Point
}

// Bezier builds the S-shaped curve between two port centers. The control
// points are pushed right of start and left of end by half the distance,
// clamped to MaxControlOffset.
func Bezier(start, end geometry.Point) Curve {
	dist := math.Hypot(end.X-start.X, end.Y-start.Y)
	off := math.Min(MaxControlOffset, dist/2)
	return Curve{
		Start: start,
		C1:    geometry.Point{X: start.X + off, Y: start.Y},
		C2:    geometry.Point{X: end.X - off, Y: end.Y},
		End:   end,
	}
}

// D renders the curve as SVG path data
func (c Curve) D() string {
	var b strings.Builder
	b.WriteString("M ")
	writePair(&b, c.Start)
	b.WriteString(" C ")
	writePair(&b, c.C1)
	b.WriteByte(' ')
	writePair(&b, c.C2)
	b.WriteByte(' ')
	writePair(&b, c.End)
	return b.String()
}

func writePair(b *strings.Builder, p geometry.Point) {
	b.WriteString(strconv.FormatFloat(p.X, 'f', -1, 64))
	b.WriteByte(',')
	b.WriteString(strconv.FormatFloat(p.Y, 'f', -1, 64))
}

// Point evaluates the curve at t in [0, 1]
func (c Curve) Point(t float64) geometry.Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	d := 3 * u * t * t
	e := t * t * t
	return geometry.Point{
		X: a*c.Start.X + b*c.C1.X + d*c.C2.X + e*c.End.X,
		Y: a*c.Start.Y + b*c.C1.Y + d*c.C2.Y + e*c.End.Y,
	}
}
