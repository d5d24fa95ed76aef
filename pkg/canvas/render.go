package canvas

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/recera/drawflow/pkg/components"
	"github.com/recera/drawflow/pkg/geometry"
	"github.com/recera/drawflow/pkg/graph"
	"github.com/recera/drawflow/pkg/route"
	"github.com/recera/drawflow/pkg/vdom"
	"github.com/recera/drawflow/pkg/vex/builder"
)

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

func mouse(ev vdom.Event) MouseEvent {
	return MouseEvent{ClientX: ev.ClientX, ClientY: ev.ClientY, Button: ev.Button, Buttons: ev.Buttons}
}

// Render builds the canvas tree: one element per node, followed by the svg
// layer holding every connection. Handlers in the tree call back into c.
func (c *Controller) Render(reg *components.Registry) *vdom.VNode {
	width, height := c.Bounds()

	var kids []*vdom.VNode
	for _, id := range c.graph.IDs() {
		kids = append(kids, c.renderNode(id, c.graph.Get(id), reg))
	}
	kids = append(kids, c.renderConnections())

	return builder.Div().
		ID("drawflow").
		HID("canvas").
		Class("drawflow").
		Style(fmt.Sprintf("width: %s; height: %s; transform: translate(%s, %s)",
			px(width), px(height), px(c.viewport.X), px(c.viewport.Y))).
		OnMouseMove(func(ev vdom.Event) { c.MouseMove(mouse(ev)) }).
		OnMouseUp(func(ev vdom.Event) { c.MouseUp(mouse(ev)) }).
		OnMouseDown(func(ev vdom.Event) { c.MouseDownCanvas(mouse(ev)) }).
		Children(kids...).
		Build()
}

func (c *Controller) renderNode(id string, node *graph.NodeInfo, reg *components.Registry) *vdom.VNode {
	selected := c.selectedNode == id

	update := func(data json.RawMessage) {
		if err := c.UpdateNodeData(id, data); err != nil {
			c.log.Warn("component update rejected", "node", id, "error", err)
		}
	}

	inputs := builder.Div().Class("inputs")
	for i, name := range node.Inputs {
		inputs.Children(c.renderPort(id, name, i, geometry.Input))
	}
	outputs := builder.Div().Class("outputs")
	for i, name := range node.OutputNames() {
		outputs.Children(c.renderPort(id, name, i, geometry.Output))
	}

	return builder.Div().
		Key(id).
		ID("node-"+id).
		Class("drawflow-node", node.Class).
		ClassIf(selected, "selected").
		Style(fmt.Sprintf("top: %s; left: %s", px(node.PosY), px(node.PosX))).
		Data("node", id).
		HID("node:"+id).
		OnMouseDown(func(ev vdom.Event) { c.MouseDownNode(id, mouse(ev)) }).
		OnMouseOver(func(ev vdom.Event) { c.MouseOverNode(mouse(ev)) }).
		Children(
			inputs.Build(),
			reg.Render(node.Copy(), update),
			outputs.Build(),
			c.renderDelete(id, selected),
		).
		Build()
}

// renderPort renders one port. The data attributes tell the client which
// geometry key to report measurements under.
func (c *Controller) renderPort(id, name string, index int, dir geometry.Direction) *vdom.VNode {
	key := geometry.PortKey{Node: id, Port: name, Dir: dir}
	return builder.Div().
		Class(dir.String(), fmt.Sprintf("%s_%d", dir, index+1)).
		Data("node", id).
		Data("port", name).
		Data("dir", dir.String()).
		HID(portHID(key)).
		OnMouseOver(func(ev vdom.Event) { c.PortOver(key, mouse(ev)) }).
		Build()
}

// portHID names a port by its geometry key, as measurements do
func portHID(key geometry.PortKey) string {
	return fmt.Sprintf("port:%s:%s:%s", key.Node, key.Dir, key.Port)
}

// renderDelete shows the delete button on the selected node while idle
func (c *Controller) renderDelete(id string, selected bool) *vdom.VNode {
	if !selected || c.drag.Dragging() {
		return builder.Div().Class("drawflow-delete-hidden").Hidden(true).Build()
	}
	return builder.Div().
		Class("drawflow-delete").
		HID("delete:"+id).
		Style("position: absolute; top: -38px; right: -20px; cursor: pointer").
		OnMouseDown(func(vdom.Event) { c.Delete() }).
		Text("x").
		Build()
}

func (c *Controller) renderConnections() *vdom.VNode {
	var paths []*vdom.VNode
	for _, e := range route.Layout(c.graph, c.rects, c.drag, c.selectedConn) {
		p := builder.Path().
			Attr("d", e.Curve.D()).
			Class(e.Style.Class())
		if e.Style == route.HoverCandidate {
			p.Style("stroke: " + route.CandidateStroke)
		}
		if !e.Preview() {
			conn := *e.Conn
			p.Data("source", e.Source).
				Data("output", e.Output).
				Data("target", conn.Node).
				Data("input", conn.Input).
				HID(fmt.Sprintf("conn:%s:%s:%s:%s", e.Source, e.Output, conn.Node, conn.Input)).
				OnMouseDown(func(vdom.Event) { c.SelectConnection(conn) })
		}
		paths = append(paths, p.Build())
	}
	return builder.SVG().Class("connection").Children(paths...).Build()
}
