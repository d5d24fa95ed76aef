package components

import (
	"github.com/recera/drawflow/pkg/graph"
	"github.com/recera/drawflow/pkg/vdom"
	"github.com/recera/drawflow/pkg/vex/builder"
)

// Bind returns a change handler that stores the new value under field in
// the node payload. The rest of the payload is kept.
func Bind(node *graph.NodeInfo, update Update, field string) func(value string) {
	if update == nil {
		return nil
	}
	return func(value string) {
		update(WithField(node.Data, field, value))
	}
}

// InputProps defines properties for input components
type InputProps struct {
	Type        string // "text" when empty
	Field       string // payload field the input edits
	Value       string
	Placeholder string
	OnChange    func(value string)
	Class       string
}

// Input creates a text input
func Input(props InputProps) *vdom.VNode {
	if props.Type == "" {
		props.Type = "text"
	}

	input := builder.Input().
		Type(props.Type).
		Class("df-input", props.Class).
		Value(props.Value).
		OnChange(props.OnChange)

	if props.Field != "" {
		input.Attr("df-"+props.Field, "")
	}
	if props.Placeholder != "" {
		input.Placeholder(props.Placeholder)
	}
	return input.Build()
}

// TextareaProps defines properties for textarea components
type TextareaProps struct {
	Field    string
	Value    string
	Rows     int
	OnChange func(value string)
}

// Textarea creates a multi-line text field. The value is the element's
// text, as browsers expect for textarea.
func Textarea(props TextareaProps) *vdom.VNode {
	ta := builder.Textarea().
		OnChange(props.OnChange).
		Text(props.Value)

	if props.Field != "" {
		ta.Attr("df-"+props.Field, "")
	}
	if props.Rows > 0 {
		ta.Rows(props.Rows)
	}
	return ta.Build()
}

// SelectOption represents an option in a select dropdown
type SelectOption struct {
	Value string
	Label string
}

// SelectProps defines properties for select components
type SelectProps struct {
	Field    string
	Options  []SelectOption
	Value    string
	OnChange func(value string)
}

// Select creates a dropdown. The option equal to Value is selected.
func Select(props SelectProps) *vdom.VNode {
	sel := builder.Select().OnChange(props.OnChange)
	if props.Field != "" {
		sel.Attr("df-"+props.Field, "")
	}

	for _, opt := range props.Options {
		sel.Children(builder.Option().
			Value(opt.Value).
			Selected(opt.Value == props.Value).
			Text(opt.Label).
			Build())
	}
	return sel.Build()
}
