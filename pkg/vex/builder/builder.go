// Package builder offers a fluent way to assemble VNode trees.
//
//	builder.Div().Class("box").Children(
//		builder.P().Text("Send to telegram").Build(),
//	).Build()
package builder

import (
	"strings"

	"github.com/recera/drawflow/pkg/vdom"
)

// ElementBuilder accumulates the props and children of one element
type ElementBuilder struct {
	tag      string
	props    vdom.Props
	children []*vdom.VNode
	classes  []string
}

// El starts an element with an arbitrary tag
func El(tag string) *ElementBuilder {
	return &ElementBuilder{tag: tag, props: make(vdom.Props)}
}

func Div() *ElementBuilder      { return El("div") }
func Span() *ElementBuilder     { return El("span") }
func P() *ElementBuilder        { return El("p") }
func B() *ElementBuilder        { return El("b") }
func I() *ElementBuilder        { return El("i") }
func A() *ElementBuilder        { return El("a") }
func Br() *ElementBuilder       { return El("br") }
func Label() *ElementBuilder    { return El("label") }
func Input() *ElementBuilder    { return El("input") }
func Select() *ElementBuilder   { return El("select") }
func Option() *ElementBuilder   { return El("option") }
func Textarea() *ElementBuilder { return El("textarea") }
func Button() *ElementBuilder   { return El("button") }

// SVG starts an inline svg element
func SVG() *ElementBuilder { return El("svg") }

// Path starts an svg path element
func Path() *ElementBuilder { return El("path") }

// Class appends one or more CSS classes; empty names are skipped
func (b *ElementBuilder) Class(names ...string) *ElementBuilder {
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			b.classes = append(b.classes, n)
		}
	}
	return b
}

// ClassIf appends name when cond holds
func (b *ElementBuilder) ClassIf(cond bool, name string) *ElementBuilder {
	if cond {
		return b.Class(name)
	}
	return b
}

// ID sets the id attribute
func (b *ElementBuilder) ID(id string) *ElementBuilder {
	b.props["id"] = id
	return b
}

// Style sets the inline style attribute
func (b *ElementBuilder) Style(style string) *ElementBuilder {
	if style != "" {
		b.props["style"] = style
	}
	return b
}

// Key sets the reconciliation key
func (b *ElementBuilder) Key(key string) *ElementBuilder {
	b.props["key"] = key
	return b
}

// HID pins the hydration ID the element's handlers are routed under
func (b *ElementBuilder) HID(id string) *ElementBuilder {
	b.props[vdom.HIDProp] = id
	return b
}

// Text appends a text child
func (b *ElementBuilder) Text(text string) *ElementBuilder {
	b.children = append(b.children, vdom.NewText(text))
	return b
}

// Children appends child nodes; nil entries are skipped by vdom
func (b *ElementBuilder) Children(children ...*vdom.VNode) *ElementBuilder {
	b.children = append(b.children, children...)
	return b
}

// On registers a handler for a DOM event name such as "mousedown"
func (b *ElementBuilder) On(event string, handler vdom.Handler) *ElementBuilder {
	if handler != nil {
		b.props["on"+strings.ToLower(event)] = handler
	}
	return b
}

// Build creates the VNode
func (b *ElementBuilder) Build() *vdom.VNode {
	if len(b.classes) > 0 {
		b.props["class"] = strings.Join(b.classes, " ")
	}
	return vdom.NewElement(b.tag, b.props, b.children...)
}
