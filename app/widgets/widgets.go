// Package widgets holds the node contents of the demo flow: message
// channels, a template editor and a few plain boxes.
package widgets

import (
	"github.com/recera/drawflow/pkg/components"
	"github.com/recera/drawflow/pkg/graph"
	"github.com/recera/drawflow/pkg/vdom"
	"github.com/recera/drawflow/pkg/vex/builder"
)

// Register adds every demo widget to reg
func Register(reg *components.Registry) {
	reg.Register("WelcomeComponent", Welcome)
	reg.Register("DbClickComponent", DbClick)
	reg.Register("PersonalizedComponent", Personalized)
	reg.Register("MultipleComponent", Multiple)
	reg.Register("TemplateComponent", Template)
	reg.Register("EmailComponent", titleOnly("Send Email"))
	reg.Register("GoogleComponent", titleOnly("Google Drive save"))
	reg.Register("LogComponent", titleOnly("Save log file"))
	reg.Register("SlackComponent", titleOnly("Slack chat message"))
	reg.Register("FacebookComponent", titleOnly("Facebook Message"))
	reg.Register("AWSComponent", AWS)
	reg.Register("TelegramComponent", Telegram)
	reg.Register("GithubComponent", Github)
}

// New returns a registry holding the demo widgets
func New() *components.Registry {
	reg := components.NewRegistry()
	Register(reg)
	return reg
}

func titleOnly(title string) components.Factory {
	return func(*graph.NodeInfo, components.Update) *vdom.VNode {
		return components.Card(components.CardProps{Title: title})
	}
}

func Welcome(*graph.NodeInfo, components.Update) *vdom.VNode {
	return components.Card(components.CardProps{
		Title: "Welcome!!",
		Body: []*vdom.VNode{
			builder.P().
				Text("Simple flow demo based on ").
				Children(builder.B().Text("Jero Soler").Build()).
				Text("'s beautiful ").
				Children(builder.A().Href("https://github.com/jerosoler/Drawflow").Target("_blank").Text("Drawflow").Build()).
				Text(".").
				Build(),
			builder.Br().Build(),
			builder.P().
				Text("Run with the command: ").
				Children(builder.B().Text("drawflow serve").Build()).
				Build(),
		},
	})
}

// DbClick edits the "name" field
func DbClick(node *graph.NodeInfo, update components.Update) *vdom.VNode {
	return components.Card(components.CardProps{
		Title: "Db Click",
		Class: "dbclickbox",
		Body: []*vdom.VNode{
			components.Paragraph("Change your variable {name}!"),
			components.Input(components.InputProps{
				Field:    "name",
				Value:    components.Field(node.Data, "name"),
				OnChange: components.Bind(node, update, "name"),
			}),
		},
	})
}

func Personalized(*graph.NodeInfo, components.Update) *vdom.VNode {
	return builder.Div().Class("drawflow_content_node").Text("Personalized").Build()
}

func Multiple(*graph.NodeInfo, components.Update) *vdom.VNode {
	return builder.Div().Class("drawflow_content_node").Children(
		builder.Div().Class("box").Text("Multiple!").Build(),
	).Build()
}

// Template edits the "template" field
func Template(node *graph.NodeInfo, update components.Update) *vdom.VNode {
	return components.Card(components.CardProps{
		Title: "Template",
		Body: []*vdom.VNode{
			components.Paragraph("Ger Vars"),
			components.Textarea(components.TextareaProps{
				Field:    "template",
				Value:    components.Field(node.Data, "template"),
				Rows:     4,
				OnChange: components.Bind(node, update, "template"),
			}),
			components.Paragraph("Output template with vars"),
		},
	})
}

// AWS edits the "dbname" and "key" fields
func AWS(node *graph.NodeInfo, update components.Update) *vdom.VNode {
	return components.Card(components.CardProps{
		Title: "Aws Save",
		Body: []*vdom.VNode{
			components.Paragraph("Save in aws"),
			components.Input(components.InputProps{
				Field:       "dbname",
				Value:       components.Field(node.Data, "dbname"),
				Placeholder: "DB name",
				OnChange:    components.Bind(node, update, "dbname"),
			}),
			builder.Br().Build(),
			components.Input(components.InputProps{
				Field:       "key",
				Value:       components.Field(node.Data, "key"),
				Placeholder: "DB key",
				OnChange:    components.Bind(node, update, "key"),
			}),
			components.Paragraph("Output Log"),
		},
	})
}

// Channels are the choices offered by Telegram
var Channels = []components.SelectOption{
	{Value: "channel_1", Label: "Channel 1"},
	{Value: "channel_2", Label: "Channel 2"},
	{Value: "channel_3", Label: "Channel 3"},
	{Value: "channel_4", Label: "Channel 4"},
}

// Telegram picks the "channel" field
func Telegram(node *graph.NodeInfo, update components.Update) *vdom.VNode {
	return components.Card(components.CardProps{
		Title: "Telegram bot",
		Body: []*vdom.VNode{
			components.Paragraph("Send to telegram"),
			components.Paragraph("select channel"),
			components.Select(components.SelectProps{
				Field:    "channel",
				Value:    components.Field(node.Data, "channel"),
				Options:  Channels,
				OnChange: components.Bind(node, update, "channel"),
			}),
		},
	})
}

// Github edits the repository url, kept in the "name" field
func Github(node *graph.NodeInfo, update components.Update) *vdom.VNode {
	return components.Card(components.CardProps{
		Title: "Github Stars",
		Body: []*vdom.VNode{
			components.Paragraph("Enter repository url"),
			components.Input(components.InputProps{
				Field:    "name",
				Value:    components.Field(node.Data, "name"),
				OnChange: components.Bind(node, update, "name"),
			}),
		},
	})
}
