// Package canvas is the node editor's controller. It turns pointer events
// into drag transitions and graph mutations, keeps the port geometry
// cache, and renders the canvas tree.
//
// A Controller is not safe for concurrent use: callers serialise events,
// as a live session does. Only its geometry cache may be written from
// other goroutines.
package canvas

import (
	"encoding/json"
	"log/slog"

	"github.com/recera/drawflow/pkg/drag"
	"github.com/recera/drawflow/pkg/geometry"
	"github.com/recera/drawflow/pkg/graph"
	"github.com/recera/drawflow/pkg/hittest"
)

// Options configures a Controller
type Options struct {
	// Origin is the client position of the canvas top-left corner
	Origin geometry.Point

	Width  float64
	Height float64

	// GrowthMargin is how close to an edge a node may get before the
	// canvas grows by GrowthStep.
	GrowthMargin float64
	GrowthStep   float64

	HoverThreshold float64

	Logger *slog.Logger

	// OnChange is called with every graph produced by an edit. It is not
	// called for ReplaceGraph.
	OnChange func(g *graph.Drawflow)
}

// DefaultOptions returns the stock canvas settings
func DefaultOptions() Options {
	return Options{
		Width:          500,
		Height:         500,
		GrowthMargin:   200,
		GrowthStep:     200,
		HoverThreshold: drag.HoverThreshold,
	}
}

// MouseEvent is the subset of a DOM MouseEvent the controller reads
type MouseEvent struct {
	ClientX float64
	ClientY float64
	Button  int
	Buttons int
}

func (ev MouseEvent) client() geometry.Point {
	return geometry.Point{X: ev.ClientX, Y: ev.ClientY}
}

// State is a read-only view of the controller
type State struct {
	Graph              *graph.Drawflow
	Drag               drag.Info
	Hover              drag.Hover
	SelectedNode       string
	SelectedConnection *graph.ConnectionInfo
	Viewport           geometry.Point
	Width              float64
	Height             float64
}

// Controller owns the graph snapshot and all transient editor state
type Controller struct {
	opts Options
	log  *slog.Logger

	graph *graph.Drawflow
	rects *geometry.Rectangles

	drag         drag.Info
	hover        drag.Hover
	selectedNode string
	selectedConn *graph.ConnectionInfo
	viewport     geometry.Point
	width        float64
	height       float64
}

// New creates a controller editing g. Zero options fall back to
// DefaultOptions.
func New(g *graph.Drawflow, opts Options) *Controller {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.GrowthMargin <= 0 {
		opts.GrowthMargin = def.GrowthMargin
	}
	if opts.GrowthStep <= 0 {
		opts.GrowthStep = def.GrowthStep
	}
	if opts.HoverThreshold <= 0 {
		opts.HoverThreshold = def.HoverThreshold
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if g == nil {
		g = graph.New()
	}

	return &Controller{
		opts:   opts,
		log:    logger.With("component", "canvas"),
		graph:  g,
		rects:  geometry.NewRectangles(),
		width:  opts.Width,
		height: opts.Height,
	}
}

// Graph returns the current snapshot. Snapshots are replaced, never
// modified, so the result stays valid after further edits.
func (c *Controller) Graph() *graph.Drawflow {
	return c.graph
}

// Rectangles returns the geometry cache
func (c *Controller) Rectangles() *geometry.Rectangles {
	return c.rects
}

// Snapshot returns a read-only view of the controller state
func (c *Controller) Snapshot() State {
	var sel *graph.ConnectionInfo
	if c.selectedConn != nil {
		cp := *c.selectedConn
		sel = &cp
	}
	return State{
		Graph:              c.graph,
		Drag:               c.drag,
		Hover:              c.hover,
		SelectedNode:       c.selectedNode,
		SelectedConnection: sel,
		Viewport:           c.viewport,
		Width:              c.width,
		Height:             c.height,
	}
}

// replace installs an edited copy of the graph and reports it
func (c *Controller) replace(g *graph.Drawflow) {
	c.graph = g
	if c.opts.OnChange != nil {
		c.opts.OnChange(g)
	}
}

// SetOrigin moves the client position of the canvas top-left corner, as
// reported by the page layout
func (c *Controller) SetOrigin(p geometry.Point) {
	c.opts.Origin = p
}

// MouseDownCanvas starts panning the viewport on a primary-button press
func (c *Controller) MouseDownCanvas(ev MouseEvent) {
	if ev.Button != drag.PrimaryButton {
		return
	}
	c.drag = drag.StartViewport(ev.client(), c.viewport, c.opts.Origin)
	c.log.Debug("viewport drag started", "drag", c.drag)
}

// MouseDownNode starts a node move or a connection draw depending on the
// pending port hover, and selects the node.
func (c *Controller) MouseDownNode(id string, ev MouseEvent) {
	if !c.graph.Has(id) {
		c.log.Debug("mouse down on missing node", "node", id)
		return
	}
	if ev.Button == drag.PrimaryButton {
		c.startDrag(id, ev)
	}
	c.selectedNode = id
	c.selectedConn = nil
}

func (c *Controller) startDrag(id string, ev MouseEvent) {
	hover := c.hover
	c.hover = drag.Hover{}

	source, output := id, ""
	switch {
	case hover.On(id, geometry.Input):
		// Grabbing a connected input picks its wire back up from the source
		g := c.graph.Copy()
		if src, out, ok := g.DetachInput(id, hover.Port.Port); ok {
			source, output = src, out
			c.replace(g)
			c.log.Debug("connection detached", "source", src, "output", out, "node", id, "input", hover.Port.Port)
		}
	case hover.On(id, geometry.Output):
		output = hover.Port.Port
	}

	node := c.graph.Get(source)
	pos := geometry.Point{X: node.PosX, Y: node.PosY}
	if output == "" {
		c.drag = drag.StartNode(id, ev.client(), pos, c.viewport, c.opts.Origin)
	} else {
		c.drag = drag.StartConnection(source, output, ev.client(), pos, c.viewport, c.opts.Origin)
	}
	c.log.Debug("drag started", "drag", c.drag)
}

// MouseMove advances the current drag. A move with no button held means
// the release was missed and the drag is dropped.
func (c *Controller) MouseMove(ev MouseEvent) {
	if !c.drag.Dragging() {
		return
	}
	if drag.Missed(ev.Buttons) {
		c.log.Debug("missed mouse up, drag reset", "drag", c.drag)
		c.drag = drag.Reset()
		return
	}

	client := ev.client()
	c.drag = c.drag.Moved(client, c.viewport, c.opts.Origin)

	switch c.drag.State() {
	case drag.DraggingViewport:
		c.viewport = c.drag.Translate(client)
	case drag.DraggingNode:
		pos := c.drag.Translate(client)
		g := c.graph.Copy()
		if err := g.Move(c.drag.NodeID, pos.X, pos.Y); err != nil {
			c.log.Debug("dragged node vanished", "error", err)
			c.drag = drag.Reset()
			return
		}
		c.replace(g)
	}
}

// MouseUp ends the current interaction, connecting the dragged wire when
// it is released over an input of another node.
func (c *Controller) MouseUp(ev MouseEvent) {
	if c.drag.DraggingConnection {
		c.drop()
	}
	c.drag = drag.Reset()
	c.hover = drag.Hover{}
}

func (c *Controller) drop() {
	target, ok := hittest.Resolve(c.drag.Current(), c.rects, c.graph)
	switch {
	case !ok:
		c.log.Debug("connection dropped on nothing")
		return
	case target.Node == c.drag.NodeID:
		c.log.Debug("connection dropped on its own node", "port", target)
		return
	case target.Dir != geometry.Input:
		c.log.Debug("connection dropped on an output", "port", target)
		return
	}
	if node := c.graph.Get(target.Node); node == nil || !node.HasInput(target.Port) {
		c.log.Debug("connection dropped on unknown input", "port", target)
		return
	}

	g := c.graph.Copy()
	removed := g.RemoveConnectionsTo(target.Node, target.Port)
	conn := graph.ConnectionInfo{Node: target.Node, Input: target.Port}
	if err := g.Connect(c.drag.NodeID, c.drag.OutputName, conn); err != nil {
		c.log.Warn("connection rejected", "error", err)
		return
	}
	c.replace(g)
	c.log.Debug("connected", "source", c.drag.NodeID, "output", c.drag.OutputName, "node", conn.Node, "input", conn.Input, "replaced", removed)
}

// PortOver records the port under an idle pointer
func (c *Controller) PortOver(key geometry.PortKey, ev MouseEvent) {
	if c.drag.Dragging() || !c.graph.Has(key.Node) {
		return
	}
	c.hover = drag.NewHover(key, ev.client())
}

// MouseOverNode drops a pending port hover once the pointer has moved
// beyond the hover threshold.
func (c *Controller) MouseOverNode(ev MouseEvent) {
	if c.drag.Dragging() || !c.hover.Active() {
		return
	}
	if c.hover.BeyondThreshold(ev.client(), c.opts.HoverThreshold) {
		c.hover = drag.Hover{}
	}
}

// SelectConnection selects conn and clears the node selection
func (c *Controller) SelectConnection(conn graph.ConnectionInfo) {
	c.selectedConn = &conn
	c.selectedNode = ""
}

// SelectNode selects a node without starting a drag
func (c *Controller) SelectNode(id string) {
	if !c.graph.Has(id) {
		return
	}
	c.selectedNode = id
	c.selectedConn = nil
}

// Delete removes the selected node together with every connection into
// it, or else the selected connection.
func (c *Controller) Delete() {
	switch {
	case c.selectedNode != "" && c.graph.Has(c.selectedNode):
		id := c.selectedNode
		g := c.graph.Copy()
		g.Remove(id)
		pruned := g.PruneInbound(id)
		c.selectedNode = ""
		c.replace(g)
		hittest.Prune(c.rects, g)
		c.log.Debug("node deleted", "node", id, "connections", pruned)
	case c.selectedConn != nil:
		conn := *c.selectedConn
		g := c.graph.Copy()
		n := g.RemoveConnection(conn)
		c.selectedConn = nil
		c.replace(g)
		c.log.Debug("connection deleted", "node", conn.Node, "input", conn.Input, "removed", n)
	}
}

// Measure feeds a raw layout measurement into the geometry cache. A
// payload that does not parse is dropped and the cached rect kept.
func (c *Controller) Measure(key geometry.PortKey, payload []byte) bool {
	r, err := geometry.ParseRect(payload)
	if err != nil {
		c.log.Warn("dropping port measurement", "port", key, "error", err)
		return false
	}
	return c.StoreRect(key, r)
}

// StoreRect caches r for key and reports whether anything changed
func (c *Controller) StoreRect(key geometry.PortKey, r geometry.Rect) bool {
	if old, ok := c.rects.Get(key); ok && old == r {
		return false
	}
	c.rects.Add(key, r)
	return true
}

// UpdateNodeData replaces a node's payload on behalf of its widget
func (c *Controller) UpdateNodeData(id string, data json.RawMessage) error {
	g := c.graph.Copy()
	if err := g.SetData(id, data); err != nil {
		return err
	}
	c.replace(g)
	return nil
}

// ReplaceGraph installs a graph that was changed elsewhere, such as a
// reloaded file. State that points into nodes that no longer exist is
// dropped.
func (c *Controller) ReplaceGraph(g *graph.Drawflow) {
	if g == nil {
		g = graph.New()
	}
	c.graph = g
	if c.drag.Dragging() && c.drag.NodeID != "" && !g.Has(c.drag.NodeID) {
		c.drag = drag.Reset()
	}
	if c.hover.Active() && !g.Has(c.hover.Port.Node) {
		c.hover = drag.Hover{}
	}
	if c.selectedNode != "" && !g.Has(c.selectedNode) {
		c.selectedNode = ""
	}
	hittest.Prune(c.rects, g)
}

// Bounds grows the canvas so every node stays at least GrowthMargin away
// from the right and bottom edges. The canvas never shrinks.
func (c *Controller) Bounds() (width, height float64) {
	margin, step := c.opts.GrowthMargin, c.opts.GrowthStep
	for _, id := range c.graph.IDs() {
		node := c.graph.Get(id)
		if node.PosX > c.width-margin {
			c.width = max(c.width+step, node.PosX+step)
		}
		if node.PosY > c.height-margin {
			c.height = max(c.height+step, node.PosY+step)
		}
	}
	return c.width, c.height
}
