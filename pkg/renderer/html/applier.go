// Package html renders VNode trees to HTML for the first page load and for
// every live re-render of the canvas.
package html

import (
	"fmt"
	"html"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/recera/drawflow/pkg/vdom"
)

// voidElements are HTML elements that cannot have children
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// booleanAttributes are HTML attributes that are boolean flags
var booleanAttributes = map[string]bool{
	"checked":   true,
	"disabled":  true,
	"readonly":  true,
	"required":  true,
	"selected":  true,
	"hidden":    true,
	"defer":     true,
	"async":     true,
	"multiple":  true,
	"autofocus": true,
}

// Handlers maps a hydration ID and DOM event name to the handler that
// rendered it.
type Handlers map[string]map[string]vdom.Handler

// Dispatch runs the handler for hid/event and reports whether one was found
func (h Handlers) Dispatch(hid, event string, ev vdom.Event) bool {
	fn, ok := h[hid][event]
	if !ok || fn == nil {
		return false
	}
	fn(ev)
	return true
}

// HydrationIDGenerator generates unique IDs for elements with handlers
type HydrationIDGenerator struct {
	mu      sync.Mutex
	counter uint32
}

// NewHydrationIDGenerator creates a new hydration ID generator
func NewHydrationIDGenerator() *HydrationIDGenerator {
	return &HydrationIDGenerator{counter: 1}
}

// Next returns the next hydration ID
func (g *HydrationIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.counter
	g.counter++
	return fmt.Sprintf("h%d", id)
}

// HTMLApplier renders VNodes to HTML
type HTMLApplier struct {
	w        io.Writer
	scopes   []idScope
	handlers Handlers
	err      error
}

// idScope numbers the unpinned elements below a pinned one
type idScope struct {
	prefix string
	ids    *HydrationIDGenerator
}

// NewHTMLApplier creates a new HTML applier
func NewHTMLApplier(w io.Writer) *HTMLApplier {
	return &HTMLApplier{
		w:        w,
		scopes:   []idScope{{ids: NewHydrationIDGenerator()}},
		handlers: make(Handlers),
	}
}

// Apply renders a VNode tree to HTML. The HTML applier always renders the
// full tree, so prev must be nil.
func (a *HTMLApplier) Apply(prev, next *vdom.VNode) error {
	if prev != nil {
		return fmt.Errorf("html: applier does not support incremental updates")
	}
	if next == nil {
		return nil
	}
	a.renderNode(next)
	return a.err
}

// Handlers returns the handlers collected while rendering
func (a *HTMLApplier) Handlers() Handlers {
	return a.handlers
}

func (a *HTMLApplier) write(s string) {
	if a.err != nil {
		return
	}
	_, a.err = io.WriteString(a.w, s)
}

func (a *HTMLApplier) renderNode(node *vdom.VNode) {
	if node == nil || a.err != nil {
		return
	}

	switch node.Kind {
	case vdom.KindText:
		a.write(html.EscapeString(node.Text))
	case vdom.KindElement:
		a.renderElement(node)
	case vdom.KindFragment:
		for i := range node.Kids {
			a.renderNode(&node.Kids[i])
		}
	}
}

func (a *HTMLApplier) renderElement(node *vdom.VNode) {
	a.write("<")
	a.write(node.Tag)

	keys := node.Props.SortedKeys()

	// Elements with handlers get a hydration ID and the list of events the
	// client should forward for it.
	var events []string
	table := make(map[string]vdom.Handler)
	for _, key := range keys {
		if !vdom.IsEventProp(key) {
			continue
		}
		if h := vdom.AsHandler(node.Props[key]); h != nil {
			name := vdom.EventName(key)
			table[name] = h
			events = append(events, name)
		}
	}
	pinned, _ := node.Props[vdom.HIDProp].(string)
	if len(events) > 0 {
		hid := pinned
		if _, taken := a.handlers[hid]; hid == "" || taken {
			hid = a.nextID()
		}
		a.handlers[hid] = table
		sort.Strings(events)
		a.write(fmt.Sprintf(` data-hid="%s" data-on="%s"`, html.EscapeString(hid), strings.Join(events, " ")))
	}

	for _, key := range keys {
		if key == "key" || key == vdom.HIDProp || vdom.IsEventProp(key) {
			continue
		}
		value := node.Props[key]

		if booleanAttributes[key] {
			if v, ok := value.(bool); ok && v {
				a.write(" ")
				a.write(key)
			}
			continue
		}

		valueStr := node.Attr(key)
		// Security: prevent javascript: URLs in href/src attributes
		if (key == "href" || key == "src") && strings.HasPrefix(strings.ToLower(strings.TrimSpace(valueStr)), "javascript:") {
			valueStr = "#"
		}

		a.write(" ")
		a.write(key)
		a.write(`="`)
		a.write(html.EscapeString(valueStr))
		a.write(`"`)
	}
	a.write(">")

	if voidElements[node.Tag] {
		return
	}

	if pinned != "" {
		a.scopes = append(a.scopes, idScope{prefix: pinned + "/", ids: NewHydrationIDGenerator()})
		defer func() { a.scopes = a.scopes[:len(a.scopes)-1] }()
	}

	// Script and style content is not escaped
	raw := node.Tag == "script" || node.Tag == "style"
	for i := range node.Kids {
		if raw {
			a.renderRawNode(&node.Kids[i])
		} else {
			a.renderNode(&node.Kids[i])
		}
	}

	a.write("</")
	a.write(node.Tag)
	a.write(">")
}

func (a *HTMLApplier) nextID() string {
	top := a.scopes[len(a.scopes)-1]
	return top.prefix + top.ids.Next()
}

func (a *HTMLApplier) renderRawNode(node *vdom.VNode) {
	if node == nil || a.err != nil {
		return
	}

	switch node.Kind {
	case vdom.KindText:
		a.write(node.Text)
	case vdom.KindElement:
		a.renderElement(node)
	case vdom.KindFragment:
		for i := range node.Kids {
			a.renderRawNode(&node.Kids[i])
		}
	}
}

// Render renders node and returns the handler table for its elements
func Render(node *vdom.VNode) (string, Handlers, error) {
	var buf strings.Builder
	applier := NewHTMLApplier(&buf)
	if err := applier.Apply(nil, node); err != nil {
		return "", nil, err
	}
	return buf.String(), applier.Handlers(), nil
}

// RenderToString is a convenience function to render a VNode to a string
func RenderToString(node *vdom.VNode) (string, error) {
	s, _, err := Render(node)
	return s, err
}
