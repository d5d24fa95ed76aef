// Package hittest maps a canvas position back to the port under it.
package hittest

import (
	"github.com/recera/drawflow/pkg/geometry"
	"github.com/recera/drawflow/pkg/graph"
)

// Resolve returns the first cached port, in cache insertion order, whose
// absolute box contains p. Entries whose node no longer exists are removed
// from rects once the scan finishes.
func Resolve(p geometry.Point, rects *geometry.Rectangles, g *graph.Drawflow) (geometry.PortKey, bool) {
	var (
		hit   geometry.PortKey
		found bool
		stale []geometry.PortKey
	)
	rects.Each(func(key geometry.PortKey, r geometry.Rect) bool {
		node := g.Get(key.Node)
		if node == nil {
			stale = append(stale, key)
			return true
		}
		if !found && r.Box(node.PosX, node.PosY).Contains(p) {
			hit, found = key, true
		}
		return true
	})
	for _, key := range stale {
		rects.Delete(key)
	}
	return hit, found
}

// Prune removes every entry whose node is missing from g and reports how
// many were dropped.
func Prune(rects *geometry.Rectangles, g *graph.Drawflow) int {
	var stale []geometry.PortKey
	rects.Each(func(key geometry.PortKey, _ geometry.Rect) bool {
		if !g.Has(key.Node) {
			stale = append(stale, key)
		}
		return true
	})
	for _, key := range stale {
		rects.Delete(key)
	}
	return len(stale)
}
