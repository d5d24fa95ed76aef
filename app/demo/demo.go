// Package demo provides the example flow the editor opens with.
package demo

import (
	_ "embed"

	"github.com/recera/drawflow/pkg/graph"
)

//go:embed default.json
var defaultJSON []byte

// Graph returns a fresh copy of the example flow
func Graph() *graph.Drawflow {
	g, err := graph.Parse(defaultJSON)
	if err != nil {
		panic("demo: bad default graph: " + err.Error())
	}
	return g
}
