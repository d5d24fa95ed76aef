package canvas

import (
	"strings"
	"testing"

	"github.com/recera/drawflow/pkg/components"
	"github.com/recera/drawflow/pkg/graph"
	"github.com/recera/drawflow/pkg/renderer/html"
	"github.com/recera/drawflow/pkg/vdom"
)

func registry() *components.Registry {
	reg := components.NewRegistry()
	reg.Register("X", func(node *graph.NodeInfo, _ components.Update) *vdom.VNode {
		return vdom.NewElement("div", vdom.Props{"class": "title-box"}, vdom.NewText(node.Name))
	})
	return reg
}

func TestRender_Structure(t *testing.T) {
	c, _ := fixture(t)
	root := c.Render(registry())

	if root.Attr("id") != "drawflow" {
		t.Fatalf("unexpected root %v", root.Props)
	}
	if !strings.Contains(root.Attr("style"), "width: 700px; height: 500px") {
		t.Errorf("canvas style = %q", root.Attr("style"))
	}

	node := vdom.Find(root, vdom.ByAttr("id", "node-2"))
	if node == nil {
		t.Fatal("node-2 not rendered")
	}
	if node.Attr("style") != "top: 100px; left: 400px" {
		t.Errorf("node style = %q", node.Attr("style"))
	}
	if node.TextContent() != "two" {
		t.Errorf("component content = %q", node.TextContent())
	}

	port := vdom.Find(root, func(n *vdom.VNode) bool {
		return n.Attr("data-node") == "3" && n.Attr("data-dir") == "output"
	})
	if port == nil || port.Attr("class") != "output output_1" || port.Attr("data-port") != "output_1" {
		t.Errorf("output port of node 3 = %v", port)
	}

	paths := vdom.FindAll(root, func(n *vdom.VNode) bool { return n.Tag == "path" })
	if len(paths) != 1 {
		t.Fatalf("expected 1 path, got %d", len(paths))
	}
	if paths[0].Attr("class") != "main-path" || paths[0].Attr("d") != "M 260,130 C 330,130 330,130 400,130" {
		t.Errorf("unexpected path %v", paths[0].Props)
	}
}

func TestRender_UnknownComponent(t *testing.T) {
	g := graph.New()
	g.Set("a", &graph.NodeInfo{Name: "a", Component: "Nope"})
	root := New(g, DefaultOptions()).Render(registry())

	if !strings.Contains(root.TextContent(), "Component not found") {
		t.Errorf("placeholder missing: %q", root.TextContent())
	}
}

func TestRender_DeleteButton(t *testing.T) {
	c, _ := fixture(t)
	visible := func() bool {
		return vdom.Find(c.Render(registry()), vdom.ByAttr("class", "drawflow-delete")) != nil
	}

	if visible() {
		t.Error("no node selected, button must be hidden")
	}
	c.MouseDownNode("2", press(410, 110))
	if visible() {
		t.Error("button must be hidden while dragging")
	}
	c.MouseUp(release(410, 110))
	if !visible() {
		t.Error("button missing on the selected idle node")
	}
	if vdom.Find(c.Render(registry()), vdom.ByAttr("class", "drawflow-node selected")) == nil {
		t.Error("selected node not marked")
	}
}

func TestRender_ConnectionStyles(t *testing.T) {
	c, _ := fixture(t)
	c.SelectConnection(graph.ConnectionInfo{Node: "2", Input: "input_1"})

	path := vdom.Find(c.Render(registry()), func(n *vdom.VNode) bool { return n.Tag == "path" })
	if path.Attr("class") != "main-path selected" {
		t.Errorf("selected connection class = %q", path.Attr("class"))
	}

	// drag a new wire from 3 over 2's connected input
	c, _ = fixture(t)
	c.PortOver(out("3"), press(560, 330))
	c.MouseDownNode("3", press(560, 330))
	c.MouseMove(hold(400, 130))

	paths := vdom.FindAll(c.Render(registry()), func(n *vdom.VNode) bool { return n.Tag == "path" })
	if len(paths) != 2 {
		t.Fatalf("expected wire and preview, got %d paths", len(paths))
	}
	if paths[0].Attr("style") != "stroke: #ff4e4e97" {
		t.Errorf("replaceable wire style = %q", paths[0].Attr("style"))
	}
	if paths[1].Attr("class") != "main-path selected" || paths[1].Attr("data-source") != "" {
		t.Errorf("unexpected preview %v", paths[1].Props)
	}
}

func TestRender_HandlersDriveController(t *testing.T) {
	c, _ := fixture(t)

	_, handlers, err := html.Render(c.Render(registry()))
	if err != nil {
		t.Fatal(err)
	}
	root := c.Render(registry())
	out, h2, err := html.Render(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(handlers) != len(h2) {
		t.Errorf("handler tables differ between identical renders")
	}

	// the connection path is the last element with handlers
	hid := lastHID(out)
	if !h2.Dispatch(hid, "mousedown", vdom.Event{}) {
		t.Fatalf("no mousedown handler on %s", hid)
	}
	if sel := c.Snapshot().SelectedConnection; sel == nil || sel.Node != "2" {
		t.Errorf("clicking the path should select it, got %v", sel)
	}
}

func TestRender_HandlerIDsFollowElements(t *testing.T) {
	c, _ := fixture(t)

	c.MouseDownNode("1", press(110, 110))
	c.MouseMove(hold(160, 130))
	during, _, err := html.Render(c.Render(registry()))
	if err != nil {
		t.Fatal(err)
	}
	node2 := hidOf(t, during, `id="node-2"`)

	// releasing shows the delete button on node 1
	c.MouseUp(release(160, 130))
	after, handlers, err := html.Render(c.Render(registry()))
	if err != nil {
		t.Fatal(err)
	}
	if got := hidOf(t, after, `id="node-2"`); got != node2 {
		t.Fatalf("node-2 id moved from %s to %s", node2, got)
	}

	if !handlers.Dispatch(node2, "mousedown", vdom.Event{Type: "mousedown", ClientX: 410, ClientY: 110, Buttons: 1}) {
		t.Fatalf("no mousedown handler on %s", node2)
	}
	st := c.Snapshot()
	if !st.Graph.Has("1") {
		t.Error("pressing node 2 deleted node 1")
	}
	if st.SelectedNode != "2" {
		t.Errorf("selected node = %q, want 2", st.SelectedNode)
	}

	c.MouseUp(release(410, 110))
	out, _, err := html.Render(c.Render(registry()))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`data-hid="canvas"`,
		`data-hid="node:1"`,
		`data-hid="delete:2"`,
		`data-hid="port:3:output:output_1"`,
		`data-hid="conn:1:output_1:2:input_1"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s", want)
		}
	}
}

// hidOf returns the hydration ID in the start tag containing marker
func hidOf(t *testing.T, s, marker string) string {
	t.Helper()
	i := strings.Index(s, marker)
	if i < 0 {
		t.Fatalf("%s not rendered", marker)
	}
	tag := s[strings.LastIndex(s[:i], "<"):i]
	j := strings.Index(tag, `data-hid="`)
	if j < 0 {
		t.Fatalf("element with %s has no handlers", marker)
	}
	rest := tag[j+len(`data-hid="`):]
	return rest[:strings.IndexByte(rest, '"')]
}

func lastHID(s string) string {
	i := strings.LastIndex(s, `data-hid="`)
	rest := s[i+len(`data-hid="`):]
	return rest[:strings.IndexByte(rest, '"')]
}
