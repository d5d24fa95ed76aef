// Package geometry holds the measured port rectangles of the canvas and the
// small value types used to place them in graph coordinates.
package geometry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// DecimalPositions is the precision every stored coordinate is rounded to.
const DecimalPositions = 1

// ErrMalformedRect is returned when a measurement payload cannot be decoded
var ErrMalformedRect = errors.New("geometry: malformed rect payload")

// Round rounds v to DecimalPositions, half away from zero.
func Round(v float64) float64 {
	p := math.Pow10(DecimalPositions)
	return math.Round(v*p) / p
}

// Rect is the last measured box of a port relative to its node.
// Values are replaced wholesale on every measurement, never mutated.
type Rect struct {
	OffsetLeft float64 `json:"offsetLeft"`
	OffsetTop  float64 `json:"offsetTop"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// NewRect creates a Rect with every field rounded
func NewRect(offsetLeft, offsetTop, width, height float64) Rect {
	return Rect{
		OffsetLeft: Round(offsetLeft),
		OffsetTop:  Round(offsetTop),
		Width:      Round(width),
		Height:     Round(height),
	}
}

// ParseRect decodes a layout measurement. Missing keys count as zero; the
// payload itself must be a JSON object.
func ParseRect(data []byte) (Rect, error) {
	var raw struct {
		OffsetLeft *float64 `json:"offsetLeft"`
		OffsetTop  *float64 `json:"offsetTop"`
		Width      *float64 `json:"width"`
		Height     *float64 `json:"height"`
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return Rect{}, ErrMalformedRect
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Rect{}, fmt.Errorf("%w: %v", ErrMalformedRect, err)
	}
	return NewRect(deref(raw.OffsetLeft), deref(raw.OffsetTop), deref(raw.Width), deref(raw.Height)), nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Box places the rect at the given node position
func (r Rect) Box(nodeX, nodeY float64) Box {
	left := nodeX + r.OffsetLeft
	top := nodeY + r.OffsetTop
	return Box{Left: left, Top: top, Right: left + r.Width, Bottom: top + r.Height}
}

func (r Rect) String() string {
	return fmt.Sprintf("Rect(left=%g, top=%g, w=%g, h=%g)", r.OffsetLeft, r.OffsetTop, r.Width, r.Height)
}

// Point is a position in canvas coordinates
type Point struct {
	X float64
	Y float64
}

// Pt creates a rounded Point
func Pt(x, y float64) Point {
	return Point{X: Round(x), Y: Round(y)}
}

// Box is an absolute rectangle in canvas coordinates
type Box struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Contains reports whether p lies within the box, bounds inclusive
func (b Box) Contains(p Point) bool {
	return b.Left <= p.X && p.X <= b.Right && b.Top <= p.Y && p.Y <= b.Bottom
}

// Center returns the middle of the box
func (b Box) Center() Point {
	return Point{X: (b.Left + b.Right) / 2, Y: (b.Top + b.Bottom) / 2}
}
