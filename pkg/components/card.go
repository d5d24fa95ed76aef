package components

import (
	"github.com/recera/drawflow/pkg/vdom"
	"github.com/recera/drawflow/pkg/vex/builder"
)

// CardProps defines the content shell most node widgets share: a title
// bar above an optional body.
type CardProps struct {
	Title string
	Body  []*vdom.VNode
	Class string
}

// Card renders the content of a node
func Card(props CardProps) *vdom.VNode {
	children := []*vdom.VNode{
		builder.Div().Class("title-box").Text(props.Title).Build(),
	}
	if len(props.Body) > 0 {
		children = append(children, builder.Div().Class("box", props.Class).Children(props.Body...).Build())
	}
	return builder.Div().
		Class("drawflow_content_node").
		Children(children...).
		Build()
}

// Paragraph is a short line of body text
func Paragraph(text string) *vdom.VNode {
	return builder.P().Text(text).Build()
}
