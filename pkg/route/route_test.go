package route

import (
	"testing"

	"github.com/recera/drawflow/pkg/drag"
	"github.com/recera/drawflow/pkg/geometry"
	"github.com/recera/drawflow/pkg/graph"
)

func TestBezier_D(t *testing.T) {
	tests := []struct {
		name       string
		start, end geometry.Point
		want       string
	}{
		{
			name:  "short wire uses half the distance",
			start: geometry.Point{X: 0, Y: 0},
			end:   geometry.Point{X: 100, Y: 0},
			want:  "M 0,0 C 50,0 50,0 100,0",
		},
		{
			name:  "long wire is clamped",
			start: geometry.Point{X: 0, Y: 0},
			end:   geometry.Point{X: 1000, Y: 0},
			want:  "M 0,0 C 200,0 800,0 1000,0",
		},
		{
			name:  "fractional coordinates",
			start: geometry.Point{X: 10.5, Y: 20},
			end:   geometry.Point{X: 10.5, Y: 80},
			want:  "M 10.5,20 C 40.5,20 -19.5,80 10.5,80",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Bezier(tt.start, tt.end).D(); got != tt.want {
				t.Errorf("D() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCurve_Point(t *testing.T) {
	c := Bezier(geometry.Point{X: 0, Y: 0}, geometry.Point{X: 1000, Y: 0})
	if p := c.Point(0); p != c.Start {
		t.Errorf("Point(0) = %v", p)
	}
	if p := c.Point(1); p != c.End {
		t.Errorf("Point(1) = %v", p)
	}
	if p := c.Point(0.5); p.X != 500 || p.Y != 0 {
		t.Errorf("Point(0.5) = %v", p)
	}
}

func fixture() (*graph.Drawflow, *geometry.Rectangles) {
	g := graph.New()
	g.Set("a", &graph.NodeInfo{
		Name:    "a",
		Outputs: graph.Outputs{{Name: "output_1", Connections: []graph.ConnectionInfo{{Node: "b", Input: "input_1"}}}},
		PosX:    100, PosY: 100,
	})
	g.Set("b", &graph.NodeInfo{Name: "b", Inputs: []string{"input_1"}, PosX: 400, PosY: 100})

	rects := geometry.NewRectangles()
	rects.Add(geometry.PortKey{Node: "a", Port: "output_1", Dir: geometry.Output}, geometry.NewRect(150, 20, 20, 20))
	rects.Add(geometry.PortKey{Node: "b", Port: "input_1", Dir: geometry.Input}, geometry.NewRect(-10, 20, 20, 20))
	return g, rects
}

func TestCenter(t *testing.T) {
	g, rects := fixture()

	p, ok := Center(g, rects, geometry.PortKey{Node: "b", Port: "input_1", Dir: geometry.Input})
	if !ok || p != (geometry.Point{X: 400, Y: 130}) {
		t.Errorf("Center() = %v, %v", p, ok)
	}
	p, ok = Center(g, rects, geometry.PortKey{Node: "b", Port: "unmeasured", Dir: geometry.Input})
	if !ok || p != (geometry.Point{X: 400, Y: 100}) {
		t.Errorf("unmeasured port should sit at the node position, got %v", p)
	}
	if _, ok := Center(g, rects, geometry.PortKey{Node: "gone", Port: "input_1"}); ok {
		t.Error("missing node must report !ok")
	}
}

func TestEdgeStyle(t *testing.T) {
	conn := graph.ConnectionInfo{Node: "b", Input: "input_1"}
	other := graph.ConnectionInfo{Node: "c", Input: "input_1"}
	hoverB := &geometry.PortKey{Node: "b", Port: "input_1", Dir: geometry.Input}

	tests := []struct {
		name     string
		selected *graph.ConnectionInfo
		hovered  *geometry.PortKey
		dragNode string
		want     Style
	}{
		{name: "plain", want: Default},
		{name: "selected", selected: &conn, want: Selected},
		{name: "selected beats hover", selected: &conn, hovered: hoverB, dragNode: "a", want: Selected},
		{name: "other selection", selected: &other, want: Default},
		{name: "hovered input", hovered: hoverB, dragNode: "a", want: HoverCandidate},
		{name: "hover on drag origin", hovered: hoverB, dragNode: "b", want: Default},
		{name: "hover on other port", hovered: &geometry.PortKey{Node: "b", Port: "input_2"}, want: Default},
		{name: "output named like the input", hovered: &geometry.PortKey{Node: "b", Port: "input_1", Dir: geometry.Output}, dragNode: "a", want: Default},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EdgeStyle(conn, tt.selected, tt.hovered, tt.dragNode); got != tt.want {
				t.Errorf("EdgeStyle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPreviewStyle(t *testing.T) {
	if got := PreviewStyle(nil, "a"); got != Selected {
		t.Errorf("no hover: %v", got)
	}
	if got := PreviewStyle(&geometry.PortKey{Node: "a"}, "a"); got != HoverCandidate {
		t.Errorf("hover on origin: %v", got)
	}
	if got := PreviewStyle(&geometry.PortKey{Node: "b"}, "a"); got != Selected {
		t.Errorf("hover elsewhere: %v", got)
	}
	if Selected.Class() != "main-path selected" || HoverCandidate.Class() != "main-path" {
		t.Error("unexpected css classes")
	}
}

func TestLayout(t *testing.T) {
	g, rects := fixture()

	edges := Layout(g, rects, drag.Reset(), nil)
	if len(edges) != 1 {
		t.Fatalf("Layout() returned %d edges, want 1", len(edges))
	}
	if edges[0].Preview() || edges[0].Style != Default {
		t.Errorf("unexpected edge %+v", edges[0])
	}
	if edges[0].Curve.Start != (geometry.Point{X: 260, Y: 130}) || edges[0].Curve.End != (geometry.Point{X: 400, Y: 130}) {
		t.Errorf("unexpected endpoints %+v", edges[0].Curve)
	}

	// drawing a second wire from a, pointer over b.input_1
	d := drag.StartConnection("a", "output_1", geometry.Point{X: 260, Y: 130}, geometry.Point{X: 100, Y: 100}, geometry.Point{}, geometry.Point{})
	d = d.Moved(geometry.Point{X: 400, Y: 130}, geometry.Point{}, geometry.Point{})

	edges = Layout(g, rects, d, nil)
	if len(edges) != 2 {
		t.Fatalf("Layout() returned %d edges, want 2", len(edges))
	}
	if edges[0].Style != HoverCandidate {
		t.Errorf("existing wire into hovered input should be a candidate, got %v", edges[0].Style)
	}
	preview := edges[1]
	if !preview.Preview() || preview.Style != Selected || preview.Curve.End != (geometry.Point{X: 400, Y: 130}) {
		t.Errorf("unexpected preview %+v", preview)
	}
}

func TestLayout_SkipsDanglingConnections(t *testing.T) {
	g, rects := fixture()
	g.Remove("b")

	if edges := Layout(g, rects, drag.Reset(), nil); len(edges) != 0 {
		t.Errorf("dangling connection rendered: %+v", edges)
	}
}
