// Package export draws a graph to a PNG image.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/recera/drawflow/pkg/geometry"
	"github.com/recera/drawflow/pkg/graph"
	"github.com/recera/drawflow/pkg/route"
)

// ErrEmpty is returned for a graph without nodes
var ErrEmpty = errors.New("export: nothing to export")

// Options controls the drawing
type Options struct {
	// NodeWidth and NodeHeight size nodes whose ports were never measured.
	// A node grows taller to fit its ports.
	NodeWidth  float64
	NodeHeight float64

	// PortSpacing is the vertical distance between estimated ports
	PortSpacing float64

	Padding  float64
	FontSize float64
}

// DefaultOptions returns the stock drawing settings
func DefaultOptions() Options {
	return Options{
		NodeWidth:   160,
		NodeHeight:  60,
		PortSpacing: 22,
		Padding:     40,
		FontSize:    13,
	}
}

var (
	background = color.White
	nodeFill   = color.RGBA{0xf7, 0xf8, 0xfa, 0xff}
	nodeStroke = color.RGBA{0x4e, 0xa9, 0xff, 0xff}
	wire       = color.RGBA{0x4e, 0xa9, 0xff, 0xff}
	portFill   = color.RGBA{0xff, 0xff, 0xff, 0xff}
	textColor  = color.Black
)

// Draw renders g. Ports found in rects are drawn where the browser
// measured them; the rest are spread along the node edges. rects may be
// nil.
func Draw(g *graph.Drawflow, rects *geometry.Rectangles, opts Options) (image.Image, error) {
	if g == nil || g.Len() == 0 {
		return nil, ErrEmpty
	}
	opts = withDefaults(opts)
	if rects == nil {
		rects = geometry.NewRectangles()
	}
	l := layout{g: g, rects: rects, opts: opts}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, id := range g.IDs() {
		node := g.Get(id)
		w, h := l.size(node)
		minX = math.Min(minX, node.PosX)
		minY = math.Min(minY, node.PosY)
		maxX = math.Max(maxX, node.PosX+w)
		maxY = math.Max(maxY, node.PosY+h)
	}
	minX -= opts.Padding
	minY -= opts.Padding
	maxX += opts.Padding
	maxY += opts.Padding

	dc := gg.NewContext(int(math.Ceil(maxX-minX)), int(math.Ceil(maxY-minY)))
	dc.SetColor(background)
	dc.Clear()
	dc.Translate(-minX, -minY)

	face, err := fontFace(opts.FontSize)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(face)

	// Connections first so they appear behind nodes
	for _, e := range g.Connections() {
		start, ok := l.port(geometry.PortKey{Node: e.Source, Port: e.Output, Dir: geometry.Output})
		if !ok {
			continue
		}
		end, ok := l.port(geometry.PortKey{Node: e.Conn.Node, Port: e.Conn.Input, Dir: geometry.Input})
		if !ok {
			continue
		}
		drawCurve(dc, route.Bezier(start, end))
	}

	for _, id := range g.IDs() {
		l.drawNode(dc, id)
	}

	return dc.Image(), nil
}

// PNG encodes the drawing of g to w
func PNG(w io.Writer, g *graph.Drawflow, rects *geometry.Rectangles, opts Options) error {
	img, err := Draw(g, rects, opts)
	if err != nil {
		return err
	}
	dc := gg.NewContextForImage(img)
	return dc.EncodePNG(w)
}

// SavePNG writes the drawing of g to a file
func SavePNG(path string, g *graph.Drawflow, rects *geometry.Rectangles, opts Options) error {
	img, err := Draw(g, rects, opts)
	if err != nil {
		return err
	}
	return gg.SavePNG(path, img)
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.NodeWidth <= 0 {
		opts.NodeWidth = def.NodeWidth
	}
	if opts.NodeHeight <= 0 {
		opts.NodeHeight = def.NodeHeight
	}
	if opts.PortSpacing <= 0 {
		opts.PortSpacing = def.PortSpacing
	}
	if opts.Padding <= 0 {
		opts.Padding = def.Padding
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	return opts
}

func fontFace(size float64) (font.Face, error) {
	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("export: parse font: %w", err)
	}
	return truetype.NewFace(ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

func drawCurve(dc *gg.Context, c route.Curve) {
	dc.SetColor(wire)
	dc.SetLineWidth(3)
	dc.MoveTo(c.Start.X, c.Start.Y)
	dc.CubicTo(c.C1.X, c.C1.Y, c.C2.X, c.C2.Y, c.End.X, c.End.Y)
	dc.Stroke()
}

type layout struct {
	g     *graph.Drawflow
	rects *geometry.Rectangles
	opts  Options
}

// size is the box drawn for node
func (l layout) size(node *graph.NodeInfo) (w, h float64) {
	ports := max(len(node.Inputs), len(node.Outputs))
	h = math.Max(l.opts.NodeHeight, float64(ports+1)*l.opts.PortSpacing)
	return l.opts.NodeWidth, h
}

// port returns the absolute center of a port, measured or estimated
func (l layout) port(key geometry.PortKey) (geometry.Point, bool) {
	node := l.g.Get(key.Node)
	if node == nil {
		return geometry.Point{}, false
	}
	if _, ok := l.rects.Get(key); ok {
		return route.Center(l.g, l.rects, key)
	}

	idx := -1
	if key.Dir == geometry.Input {
		for i, name := range node.Inputs {
			if name == key.Port {
				idx = i
			}
		}
	} else {
		for i, out := range node.Outputs {
			if out.Name == key.Port {
				idx = i
			}
		}
	}
	if idx < 0 {
		return geometry.Point{}, false
	}

	x := node.PosX
	if key.Dir == geometry.Output {
		x += l.opts.NodeWidth
	}
	return geometry.Point{X: x, Y: node.PosY + float64(idx+1)*l.opts.PortSpacing}, true
}

func (l layout) drawNode(dc *gg.Context, id string) {
	node := l.g.Get(id)
	w, h := l.size(node)

	dc.DrawRoundedRectangle(node.PosX, node.PosY, w, h, 4)
	dc.SetColor(nodeFill)
	dc.FillPreserve()
	dc.SetColor(nodeStroke)
	dc.SetLineWidth(1.5)
	dc.Stroke()

	label := node.Name
	if label == "" {
		label = id
	}
	dc.SetColor(textColor)
	dc.DrawStringAnchored(label, node.PosX+w/2, node.PosY+h/2, 0.5, 0.5)

	for _, name := range node.Inputs {
		l.drawPort(dc, geometry.PortKey{Node: id, Port: name, Dir: geometry.Input})
	}
	for _, name := range node.OutputNames() {
		l.drawPort(dc, geometry.PortKey{Node: id, Port: name, Dir: geometry.Output})
	}
}

func (l layout) drawPort(dc *gg.Context, key geometry.PortKey) {
	p, ok := l.port(key)
	if !ok {
		return
	}
	dc.DrawCircle(p.X, p.Y, 6)
	dc.SetColor(portFill)
	dc.FillPreserve()
	dc.SetColor(nodeStroke)
	dc.SetLineWidth(1.5)
	dc.Stroke()
}
