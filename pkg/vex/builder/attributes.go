package builder

import "github.com/recera/drawflow/pkg/vdom"

// === Form Attributes ===

// Name sets the name attribute
func (b *ElementBuilder) Name(name string) *ElementBuilder {
	b.props["name"] = name
	return b
}

// Value sets the value attribute
func (b *ElementBuilder) Value(value string) *ElementBuilder {
	b.props["value"] = value
	return b
}

// Type sets the type attribute
func (b *ElementBuilder) Type(t string) *ElementBuilder {
	b.props["type"] = t
	return b
}

// Placeholder sets the placeholder attribute
func (b *ElementBuilder) Placeholder(placeholder string) *ElementBuilder {
	b.props["placeholder"] = placeholder
	return b
}

// Selected sets the selected attribute (for option elements)
func (b *ElementBuilder) Selected(selected bool) *ElementBuilder {
	if selected {
		b.props["selected"] = true
	}
	return b
}

// Hidden sets the hidden attribute
func (b *ElementBuilder) Hidden(hidden bool) *ElementBuilder {
	if hidden {
		b.props["hidden"] = true
	}
	return b
}

// Rows sets the rows attribute
func (b *ElementBuilder) Rows(rows int) *ElementBuilder {
	b.props["rows"] = rows
	return b
}

// === Link Attributes ===

// Href sets the href attribute
func (b *ElementBuilder) Href(href string) *ElementBuilder {
	b.props["href"] = href
	return b
}

// Target sets the target attribute
func (b *ElementBuilder) Target(target string) *ElementBuilder {
	b.props["target"] = target
	return b
}

// === Data Attributes ===

// Data sets a data attribute
func (b *ElementBuilder) Data(key, value string) *ElementBuilder {
	b.props["data-"+key] = value
	return b
}

// Attr sets a custom attribute
func (b *ElementBuilder) Attr(key string, value any) *ElementBuilder {
	b.props[key] = value
	return b
}

// === Event Handlers ===

// OnMouseDown sets the onmousedown handler
func (b *ElementBuilder) OnMouseDown(handler vdom.Handler) *ElementBuilder {
	return b.On("mousedown", handler)
}

// OnMouseUp sets the onmouseup handler
func (b *ElementBuilder) OnMouseUp(handler vdom.Handler) *ElementBuilder {
	return b.On("mouseup", handler)
}

// OnMouseMove sets the onmousemove handler
func (b *ElementBuilder) OnMouseMove(handler vdom.Handler) *ElementBuilder {
	return b.On("mousemove", handler)
}

// OnMouseOver sets the onmouseover handler
func (b *ElementBuilder) OnMouseOver(handler vdom.Handler) *ElementBuilder {
	return b.On("mouseover", handler)
}

// OnChange sets the onchange handler, called with the new field value
func (b *ElementBuilder) OnChange(handler func(value string)) *ElementBuilder {
	if handler == nil {
		return b
	}
	return b.On("change", func(ev vdom.Event) { handler(ev.Value) })
}
