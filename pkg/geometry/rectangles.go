package geometry

import (
	"fmt"
	"sync"
)

// Direction tells whether a port receives or emits connections
type Direction uint8

const (
	// Input ports receive at most one connection
	Input Direction = iota
	// Output ports fan out to any number of inputs
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// ParseDirection converts "input" / "output" to a Direction
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "input":
		return Input, nil
	case "output":
		return Output, nil
	}
	return 0, fmt.Errorf("geometry: unknown port direction %q", s)
}

// PortKey identifies one port of one node
type PortKey struct {
	Node string
	Port string
	Dir  Direction
}

func (k PortKey) String() string {
	return k.Node + "/" + k.Dir.String() + "/" + k.Port
}

// Rectangles is the geometry cache: a flat table of port rects keyed by
// PortKey. Iteration follows first-insertion order. Writers may arrive from
// the measurement channel at any time, so access is guarded.
type Rectangles struct {
	mu    sync.RWMutex
	rects map[PortKey]Rect
	order []PortKey
}

// NewRectangles creates an empty cache
func NewRectangles() *Rectangles {
	return &Rectangles{rects: make(map[PortKey]Rect)}
}

// Add stores r for key. Replacing an entry keeps its position.
func (c *Rectangles) Add(key PortKey, r Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rects[key]; !ok {
		c.order = append(c.order, key)
	}
	c.rects[key] = r
}

// Get returns the cached rect for key
func (c *Rectangles) Get(key PortKey) (Rect, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.rects[key]
	return r, ok
}

// Delete removes key; deleting a missing key is a no-op
func (c *Rectangles) Delete(key PortKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rects[key]; !ok {
		return
	}
	delete(c.rects, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of cached rects
func (c *Rectangles) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Each calls fn for every entry in insertion order until fn returns false.
// fn runs on a snapshot, so it may call Add or Delete.
func (c *Rectangles) Each(fn func(key PortKey, r Rect) bool) {
	c.mu.RLock()
	keys := make([]PortKey, len(c.order))
	copy(keys, c.order)
	vals := make([]Rect, len(keys))
	for i, k := range keys {
		vals[i] = c.rects[k]
	}
	c.mu.RUnlock()

	for i, k := range keys {
		if !fn(k, vals[i]) {
			return
		}
	}
}

// Copy returns an independent cache with the same entries
func (c *Rectangles) Copy() *Rectangles {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := &Rectangles{
		rects: make(map[PortKey]Rect, len(c.rects)),
		order: make([]PortKey, len(c.order)),
	}
	copy(out.order, c.order)
	for k, v := range c.rects {
		out.rects[k] = v
	}
	return out
}
