package canvas

import (
	"encoding/json"
	"testing"

	"github.com/recera/drawflow/pkg/drag"
	"github.com/recera/drawflow/pkg/geometry"
	"github.com/recera/drawflow/pkg/graph"
)

func in(node string) geometry.PortKey {
	return geometry.PortKey{Node: node, Port: "input_1", Dir: geometry.Input}
}

func out(node string) geometry.PortKey {
	return geometry.PortKey{Node: node, Port: "output_1", Dir: geometry.Output}
}

func press(x, y float64) MouseEvent { return MouseEvent{ClientX: x, ClientY: y, Button: 0, Buttons: 1} }
func hold(x, y float64) MouseEvent  { return MouseEvent{ClientX: x, ClientY: y, Buttons: 1} }
func release(x, y float64) MouseEvent {
	return MouseEvent{ClientX: x, ClientY: y}
}

// fixture: 1 -> 2 connected, 3 free. Every input sits 10px left of its
// node and every output 150px right, both 20x20 and 20px down.
func fixture(t *testing.T) (*Controller, *int) {
	t.Helper()
	g := graph.New()
	g.Set("1", &graph.NodeInfo{Name: "one", Component: "X",
		Outputs: graph.Outputs{{Name: "output_1", Connections: []graph.ConnectionInfo{{Node: "2", Input: "input_1"}}}},
		PosX:    100, PosY: 100})
	g.Set("2", &graph.NodeInfo{Name: "two", Component: "X", Inputs: []string{"input_1"}, PosX: 400, PosY: 100})
	g.Set("3", &graph.NodeInfo{Name: "three", Component: "X", Inputs: []string{"input_1"},
		Outputs: graph.Outputs{{Name: "output_1"}}, PosX: 400, PosY: 300})

	changes := new(int)
	opts := DefaultOptions()
	opts.OnChange = func(*graph.Drawflow) { *changes++ }
	c := New(g, opts)

	c.StoreRect(out("1"), geometry.NewRect(150, 20, 20, 20))
	for _, id := range []string{"2", "3"} {
		c.StoreRect(in(id), geometry.NewRect(-10, 20, 20, 20))
	}
	c.StoreRect(out("3"), geometry.NewRect(150, 20, 20, 20))
	return c, changes
}

func inbound(g *graph.Drawflow, node, input string) []graph.Edge {
	var edges []graph.Edge
	for _, e := range g.Connections() {
		if e.Conn.Node == node && e.Conn.Input == input {
			edges = append(edges, e)
		}
	}
	return edges
}

func TestConnect_OutputToInput(t *testing.T) {
	c, changes := fixture(t)

	c.PortOver(out("1"), press(260, 130))
	c.MouseDownNode("1", press(260, 130))
	if st := c.Snapshot(); st.Drag.State() != drag.DraggingConnection || st.Drag.OutputName != "output_1" {
		t.Fatalf("expected connection drag, got %v", st.Drag)
	}
	if c.Snapshot().SelectedNode != "1" {
		t.Error("pressed node should be selected")
	}

	c.MouseMove(hold(400, 330))
	c.MouseUp(release(400, 330))

	edges := inbound(c.Graph(), "3", "input_1")
	if len(edges) != 1 || edges[0].Source != "1" || edges[0].Output != "output_1" {
		t.Fatalf("unexpected connections into 3.input_1: %+v", edges)
	}
	if len(c.Graph().Get("1").Output("output_1").Connections) != 2 {
		t.Error("existing fan-out connection lost")
	}
	if c.Snapshot().Drag.Dragging() {
		t.Error("drag should be idle after mouse up")
	}
	if *changes != 1 {
		t.Errorf("OnChange called %d times, want 1", *changes)
	}
}

func TestConnect_ReplacesPriorConnection(t *testing.T) {
	c, _ := fixture(t)

	// 3 -> 2 replaces 1 -> 2
	c.PortOver(out("3"), press(560, 330))
	c.MouseDownNode("3", press(560, 330))
	c.MouseMove(hold(400, 130))
	c.MouseUp(release(400, 130))

	edges := inbound(c.Graph(), "2", "input_1")
	if len(edges) != 1 || edges[0].Source != "3" {
		t.Fatalf("expected only 3 -> 2, got %+v", edges)
	}
	if n := len(c.Graph().Get("1").Output("output_1").Connections); n != 0 {
		t.Errorf("prior connection survived, %d left", n)
	}
}

func TestDrop_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		from   geometry.PortKey
		origin MouseEvent
		to     MouseEvent
	}{
		{name: "empty canvas", from: out("1"), origin: press(260, 130), to: hold(0, 0)},
		{name: "own input", from: out("3"), origin: press(560, 330), to: hold(400, 330)},
		{name: "an output", from: out("3"), origin: press(560, 330), to: hold(260, 130)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, changes := fixture(t)
			before := c.Graph()

			c.PortOver(tt.from, tt.origin)
			c.MouseDownNode(tt.from.Node, tt.origin)
			c.MouseMove(tt.to)
			c.MouseUp(release(tt.to.ClientX, tt.to.ClientY))

			if c.Graph() != before || *changes != 0 {
				t.Error("graph changed on rejected drop")
			}
			if c.Snapshot().Drag != drag.Reset() {
				t.Errorf("drag not reset: %v", c.Snapshot().Drag)
			}
		})
	}
}

func TestGrabAndRedraw(t *testing.T) {
	c, _ := fixture(t)

	c.PortOver(in("2"), press(400, 130))
	c.MouseDownNode("2", press(400, 130))

	st := c.Snapshot()
	if st.Drag.State() != drag.DraggingConnection || st.Drag.NodeID != "1" || st.Drag.OutputName != "output_1" {
		t.Fatalf("expected drag from 1.output_1, got %v", st.Drag)
	}
	if len(inbound(c.Graph(), "2", "input_1")) != 0 {
		t.Error("grabbed wire should be detached")
	}

	// re-attach to 3
	c.MouseMove(hold(400, 330))
	c.MouseUp(release(400, 330))
	if len(inbound(c.Graph(), "3", "input_1")) != 1 || len(inbound(c.Graph(), "2", "input_1")) != 0 {
		t.Errorf("wire not moved: %+v", c.Graph().Connections())
	}
}

func TestUnconnectedInputDragsNode(t *testing.T) {
	c, _ := fixture(t)

	c.PortOver(in("3"), press(400, 330))
	c.MouseDownNode("3", press(400, 330))
	if st := c.Snapshot().Drag.State(); st != drag.DraggingNode {
		t.Errorf("expected node drag, got %v", st)
	}
}

func TestNodeDrag(t *testing.T) {
	c, changes := fixture(t)
	before := c.Graph()

	c.MouseDownNode("2", press(410, 110))
	c.MouseMove(hold(510.04, 160))

	node := c.Graph().Get("2")
	if node.PosX != 500 || node.PosY != 150 {
		t.Errorf("node at %g,%g, want 500,150", node.PosX, node.PosY)
	}
	if before.Get("2").PosX != 400 {
		t.Error("previous snapshot was modified")
	}
	if *changes != 1 {
		t.Errorf("OnChange called %d times", *changes)
	}

	// missed release: no button held
	c.MouseMove(release(600, 200))
	if c.Snapshot().Drag.Dragging() {
		t.Error("drag should reset on a move without buttons")
	}
	if c.Graph().Get("2").PosX != 500 {
		t.Error("node moved after missed release")
	}
}

func TestViewportDrag(t *testing.T) {
	c, _ := fixture(t)

	c.MouseDownCanvas(MouseEvent{ClientX: 50, ClientY: 50, Button: 2, Buttons: 2})
	if c.Snapshot().Drag.Dragging() {
		t.Fatal("secondary button must not pan")
	}

	c.MouseDownCanvas(press(50, 50))
	c.MouseMove(hold(80, 70))
	if vp := c.Snapshot().Viewport; vp != (geometry.Point{X: 30, Y: 20}) {
		t.Errorf("viewport = %v", vp)
	}
	c.MouseUp(release(80, 70))

	// a second pan continues from the current translation
	c.MouseDownCanvas(press(100, 100))
	c.MouseMove(hold(90, 100))
	if vp := c.Snapshot().Viewport; vp != (geometry.Point{X: 20, Y: 20}) {
		t.Errorf("viewport = %v", vp)
	}
}

func TestOriginAndRounding(t *testing.T) {
	opts := DefaultOptions()
	opts.Origin = geometry.Point{X: 0, Y: 37}
	c := New(graph.New(), opts)

	c.MouseDownCanvas(press(10.37, 50))
	d := c.Snapshot().Drag
	if d.StartX != 10.4 || d.CurrentX != 10.4 || d.CurrentY != 13 {
		t.Errorf("unexpected drag coordinates %v", d)
	}
}

func TestSetOrigin(t *testing.T) {
	c := New(graph.New(), DefaultOptions())
	c.SetOrigin(geometry.Point{X: 20, Y: 60})

	c.MouseDownCanvas(press(120, 160))
	if cur := c.Snapshot().Drag.Current(); cur != (geometry.Point{X: 100, Y: 100}) {
		t.Errorf("Current() = %v", cur)
	}
}

func TestHoverThreshold(t *testing.T) {
	c, _ := fixture(t)

	c.PortOver(out("1"), press(100, 100))
	c.MouseOverNode(press(105, 110))
	if !c.Snapshot().Hover.Active() {
		t.Fatal("hover cleared within threshold")
	}
	c.MouseOverNode(press(111, 100))
	if c.Snapshot().Hover.Active() {
		t.Error("hover kept beyond threshold")
	}

	c.MouseDownCanvas(press(0, 0))
	c.PortOver(out("1"), press(0, 0))
	if c.Snapshot().Hover.Active() {
		t.Error("hover must not be recorded while dragging")
	}
}

func TestDeleteNode(t *testing.T) {
	c, _ := fixture(t)

	c.MouseDownNode("2", press(410, 110))
	c.MouseUp(release(410, 110))
	c.Delete()

	g := c.Graph()
	if g.Has("2") {
		t.Fatal("node not removed")
	}
	for _, e := range g.Connections() {
		if e.Conn.Node == "2" {
			t.Errorf("connection into deleted node survived: %+v", e)
		}
	}
	if _, ok := c.Rectangles().Get(in("2")); ok {
		t.Error("geometry of deleted node not pruned")
	}
	if c.Snapshot().SelectedNode != "" {
		t.Error("selection should be cleared")
	}
}

func TestDeleteConnection(t *testing.T) {
	c, _ := fixture(t)

	c.MouseDownNode("3", press(410, 310))
	c.SelectConnection(graph.ConnectionInfo{Node: "2", Input: "input_1"})
	if c.Snapshot().SelectedNode != "" {
		t.Error("selecting a connection clears the node selection")
	}
	c.Delete()

	if len(c.Graph().Connections()) != 0 {
		t.Errorf("connection not removed: %+v", c.Graph().Connections())
	}
	if !c.Graph().Has("3") {
		t.Error("node removed instead of connection")
	}
	if c.Snapshot().SelectedConnection != nil {
		t.Error("connection selection should be cleared")
	}
}

func TestSelectionOnMouseDown(t *testing.T) {
	c, _ := fixture(t)
	c.SelectConnection(graph.ConnectionInfo{Node: "2", Input: "input_1"})

	// any button selects, only the primary drags
	c.MouseDownNode("3", MouseEvent{Button: 2, Buttons: 2})
	st := c.Snapshot()
	if st.SelectedNode != "3" || st.SelectedConnection != nil {
		t.Errorf("unexpected selection %+v", st)
	}
	if st.Drag.Dragging() {
		t.Error("secondary button must not start a drag")
	}

	c.MouseDownNode("missing", press(0, 0))
	if c.Snapshot().SelectedNode != "3" {
		t.Error("missing node must be ignored")
	}
}

func TestMeasure(t *testing.T) {
	c, _ := fixture(t)
	key := in("2")

	if !c.Measure(key, []byte(`{"offsetLeft": -12.34, "offsetTop": 20, "width": 20, "height": 20}`)) {
		t.Fatal("new measurement not stored")
	}
	if r, _ := c.Rectangles().Get(key); r.OffsetLeft != -12.3 {
		t.Errorf("OffsetLeft = %g", r.OffsetLeft)
	}
	if c.Measure(key, []byte(`{"offsetLeft": -12.31, "offsetTop": 20, "width": 20, "height": 20}`)) {
		t.Error("jitter below the rounding step should not count as a change")
	}
	if c.Measure(key, []byte(`{"offsetLeft": `)) {
		t.Error("malformed payload accepted")
	}
	if c.Measure(key, []byte(`null`)) {
		t.Error("null payload accepted")
	}
	if r, _ := c.Rectangles().Get(key); r.OffsetLeft != -12.3 || r.Width != 20 {
		t.Errorf("malformed payload replaced the cached rect: %v", r)
	}
}

func TestUpdateNodeData(t *testing.T) {
	c, changes := fixture(t)

	if err := c.UpdateNodeData("3", json.RawMessage(`{"channel":"channel_3"}`)); err != nil {
		t.Fatal(err)
	}
	if string(c.Graph().Get("3").Data) != `{"channel":"channel_3"}` || *changes != 1 {
		t.Errorf("data not written: %s", c.Graph().Get("3").Data)
	}
	if err := c.UpdateNodeData("nope", json.RawMessage(`{}`)); err == nil {
		t.Error("expected error for missing node")
	}
}

func TestReplaceGraph(t *testing.T) {
	c, changes := fixture(t)
	c.MouseDownNode("2", press(410, 110))

	g := graph.New()
	g.Set("1", c.Graph().Get("1").Copy())
	c.ReplaceGraph(g)

	st := c.Snapshot()
	if st.Drag.Dragging() || st.SelectedNode != "" {
		t.Errorf("state pointing at removed node kept: %+v", st)
	}
	if c.Rectangles().Len() != 1 {
		t.Errorf("stale rects kept: %d", c.Rectangles().Len())
	}
	if *changes != 0 {
		t.Error("ReplaceGraph must not report a change")
	}
}

func TestBounds(t *testing.T) {
	g := graph.New()
	g.Set("far", &graph.NodeInfo{PosX: 750, PosY: 100})
	c := New(g, DefaultOptions())

	w, h := c.Bounds()
	if w < 950 {
		t.Errorf("width = %g, want at least 950", w)
	}
	if h != 500 {
		t.Errorf("height = %g, want 500", h)
	}

	c.ReplaceGraph(graph.New())
	if w2, _ := c.Bounds(); w2 != w {
		t.Errorf("canvas shrank from %g to %g", w, w2)
	}

	g = graph.New()
	g.Set("low", &graph.NodeInfo{PosX: 0, PosY: 301})
	c = New(g, DefaultOptions())
	if _, h := c.Bounds(); h != 700 {
		t.Errorf("height = %g, want 700", h)
	}
}
