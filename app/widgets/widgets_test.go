package widgets

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/recera/drawflow/pkg/components"
	"github.com/recera/drawflow/pkg/graph"
	"github.com/recera/drawflow/pkg/renderer/html"
	"github.com/recera/drawflow/pkg/vdom"
)

func render(t *testing.T, kind, data string, update components.Update) (string, html.Handlers) {
	t.Helper()
	node := &graph.NodeInfo{Component: kind, Data: json.RawMessage(data)}
	out, handlers, err := html.Render(New().Render(node, update))
	if err != nil {
		t.Fatal(err)
	}
	return out, handlers
}

func TestRegister(t *testing.T) {
	kinds := New().Kinds()
	if len(kinds) != 13 {
		t.Errorf("registered %d widgets: %v", len(kinds), kinds)
	}
	for _, kind := range kinds {
		out, _ := render(t, kind, `{}`, nil)
		if strings.Contains(out, "Component not found") {
			t.Errorf("%s renders the placeholder", kind)
		}
	}
}

func TestTitles(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"SlackComponent", "Slack chat message"},
		{"EmailComponent", "Send Email"},
		{"LogComponent", "Save log file"},
		{"WelcomeComponent", "Welcome!!"},
		{"MultipleComponent", "Multiple!"},
		{"PersonalizedComponent", "Personalized"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			out, _ := render(t, tt.kind, `{}`, nil)
			if !strings.Contains(out, tt.want) {
				t.Errorf("%s = %s, missing %q", tt.kind, out, tt.want)
			}
		})
	}
}

func TestTelegram_ChangeChannel(t *testing.T) {
	var got json.RawMessage
	out, handlers := render(t, "TelegramComponent", `{"channel":"channel_2"}`, func(d json.RawMessage) { got = d })

	if !strings.Contains(out, `<option selected value="channel_2">Channel 2</option>`) {
		t.Errorf("current channel not selected: %s", out)
	}
	if !handlers.Dispatch("h1", "change", vdom.Event{Type: "change", Value: "channel_4"}) {
		t.Fatal("select has no change handler")
	}
	if components.Field(got, "channel") != "channel_4" {
		t.Errorf("update = %s", got)
	}
}

func TestTemplate_Edit(t *testing.T) {
	var got json.RawMessage
	out, handlers := render(t, "TemplateComponent", `{"template":"Write your template"}`, func(d json.RawMessage) { got = d })

	if !strings.Contains(out, ">Write your template</textarea>") {
		t.Errorf("template text missing: %s", out)
	}
	handlers.Dispatch("h1", "change", vdom.Event{Type: "change", Value: "Hi {name}"})
	if components.Field(got, "template") != "Hi {name}" {
		t.Errorf("update = %s", got)
	}
}

func TestAWS_TwoFields(t *testing.T) {
	var got json.RawMessage
	_, handlers := render(t, "AWSComponent", `{"dbname":"main"}`, func(d json.RawMessage) { got = d })

	if len(handlers) != 2 {
		t.Fatalf("handlers = %d, want 2", len(handlers))
	}
	handlers.Dispatch("h2", "change", vdom.Event{Type: "change", Value: "secret"})
	if components.Field(got, "key") != "secret" || components.Field(got, "dbname") != "main" {
		t.Errorf("update = %s", got)
	}
}
