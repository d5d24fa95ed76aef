package server

import (
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/recera/drawflow/pkg/graph"
	"github.com/recera/drawflow/pkg/live"
	"github.com/recera/drawflow/pkg/store"
)

func fixtureGraph() *graph.Drawflow {
	g := graph.New()
	g.Set("1", &graph.NodeInfo{Name: "one", Component: "X", Outputs: graph.Outputs{{Name: "output_1"}}, PosX: 100, PosY: 100})
	g.Set("2", &graph.NodeInfo{Name: "two", Component: "X", Inputs: []string{"input_1"}, PosX: 400, PosY: 100})
	return g
}

const connectedDoc = `{
  "1": {"name": "one", "data": {}, "class": "", "component": "X", "inputs": [],
        "outputs": {"output_1": {"connections": [{"node": "2", "input": "input_1"}]}},
        "pos_x": 100, "pos_y": 100},
  "2": {"name": "two", "data": {}, "class": "", "component": "X", "inputs": ["input_1"],
        "outputs": {}, "pos_x": 400, "pos_y": 100}
}`

func newTestApp(t *testing.T) (*App, *live.Server, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	srv := live.NewServer(live.Options{Store: mem, Default: fixtureGraph()})
	return New(Options{Live: srv, Title: "test"}), srv, mem
}

func do(app http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

var sessionAttr = regexp.MustCompile(`data-session="([^"]+)"`)

func TestApp_Index(t *testing.T) {
	app, _, _ := newTestApp(t)
	w := do(app, http.MethodGet, "/", "")
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/graphs/default" {
		t.Errorf("Location = %q", loc)
	}
}

func TestApp_Page(t *testing.T) {
	app, srv, mem := newTestApp(t)

	w := do(app, http.MethodGet, "/graphs/flow", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := w.Body.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		`id="drawflow-root"`,
		`data-live="/live/"`,
		`data-seq="1"`,
		`id="drawflow"`,
		`id="node-1"`,
		`id="node-2"`,
		`<script src="/drawflow.js"></script>`,
		`href="/drawflow.css"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %s", want)
		}
	}

	m := sessionAttr.FindStringSubmatch(body)
	if m == nil {
		t.Fatal("page has no session id")
	}
	sess, ok := srv.GetSession(m[1])
	if !ok {
		t.Fatalf("session %s not registered", m[1])
	}
	if sess.Graph != "flow" {
		t.Errorf("session graph = %q", sess.Graph)
	}
	if !strings.Contains(body, sess.HTML()) {
		t.Error("page does not embed the session render")
	}

	if _, err := mem.Load(context.Background(), "flow"); err != nil {
		t.Errorf("opening a page should seed the graph: %v", err)
	}
}

func TestApp_PageInvalidName(t *testing.T) {
	app, srv, _ := newTestApp(t)
	w := do(app, http.MethodGet, "/graphs/a.b", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if srv.Len() != 0 {
		t.Error("session opened for an invalid name")
	}
}

func TestApp_GraphAPI(t *testing.T) {
	app, srv, _ := newTestApp(t)

	if w := do(app, http.MethodGet, "/api/graphs/flow", ""); w.Code != http.StatusNotFound {
		t.Errorf("GET missing graph = %d, want 404", w.Code)
	}

	// An open editor sees a graph replaced through the API
	page := do(app, http.MethodGet, "/graphs/flow", "").Body.String()
	sess, _ := srv.GetSession(sessionAttr.FindStringSubmatch(page)[1])

	w := do(app, http.MethodPut, "/api/graphs/flow", connectedDoc)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT = %d: %s", w.Code, w.Body.String())
	}
	want, err := graph.Parse([]byte(connectedDoc))
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := sess.Export(); !got.Equal(want) {
		t.Error("open session did not pick up the replaced graph")
	}

	w = do(app, http.MethodGet, "/api/graphs/flow", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET = %d", w.Code)
	}
	got, err := graph.Parse(w.Body.Bytes())
	if err != nil {
		t.Fatalf("GET body: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("GET returned %s", w.Body.String())
	}

	w = do(app, http.MethodGet, "/api/graphs", "")
	var list struct{ Graphs []string }
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Graphs) != 1 || list.Graphs[0] != "flow" {
		t.Errorf("list = %v", list.Graphs)
	}

	if w := do(app, http.MethodDelete, "/api/graphs/flow", ""); w.Code != http.StatusNoContent {
		t.Errorf("DELETE = %d, want 204", w.Code)
	}
	if w := do(app, http.MethodGet, "/api/graphs/flow", ""); w.Code != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", w.Code)
	}
}

func TestApp_GraphAPIErrors(t *testing.T) {
	app, _, _ := newTestApp(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"bad json", http.MethodPut, "/api/graphs/flow", `{"1": [}`, http.StatusBadRequest},
		{"bad name", http.MethodPut, "/api/graphs/a.b", `{}`, http.StatusBadRequest},
		{"delete missing", http.MethodDelete, "/api/graphs/nope", "", http.StatusNotFound},
		{"method", http.MethodPost, "/api/graphs/flow", `{}`, http.StatusMethodNotAllowed},
		{"list method", http.MethodPost, "/api/graphs", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(app, tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), `"error"`) {
				t.Errorf("no error body: %s", w.Body.String())
			}
		})
	}
}

func TestApp_PNG(t *testing.T) {
	app, _, mem := newTestApp(t)
	ctx := context.Background()
	if err := mem.Save(ctx, "flow", fixtureGraph()); err != nil {
		t.Fatal(err)
	}
	if err := mem.Save(ctx, "empty", graph.New()); err != nil {
		t.Fatal(err)
	}

	w := do(app, http.MethodGet, "/api/graphs/flow/png", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if _, err := png.Decode(w.Body); err != nil {
		t.Errorf("not a PNG: %v", err)
	}

	tests := []struct {
		path string
		want int
	}{
		{"/api/graphs/missing/png", http.StatusNotFound},
		{"/api/graphs/empty/png", http.StatusUnprocessableEntity},
		{"/api/graphs/flow/png?session=nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		if w := do(app, http.MethodGet, tt.path, ""); w.Code != tt.want {
			t.Errorf("%s = %d, want %d", tt.path, w.Code, tt.want)
		}
	}
}

func TestApp_PNGFromSession(t *testing.T) {
	app, _, _ := newTestApp(t)

	page := do(app, http.MethodGet, "/graphs/flow", "").Body.String()
	id := sessionAttr.FindStringSubmatch(page)[1]

	w := do(app, http.MethodGet, "/api/graphs/flow/png?session="+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if _, err := png.Decode(w.Body); err != nil {
		t.Errorf("not a PNG: %v", err)
	}

	// The session belongs to another graph
	if w := do(app, http.MethodGet, "/api/graphs/other/png?session="+id, ""); w.Code != http.StatusNotFound {
		t.Errorf("foreign session = %d, want 404", w.Code)
	}
}

func TestApp_Assets(t *testing.T) {
	app, _, _ := newTestApp(t)

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{"/drawflow.js", "application/javascript", "drawflow-root"},
		{"/drawflow.css", "text/css", ".drawflow-node"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := do(app, http.MethodGet, tt.path, "")
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Errorf("Content-Type = %q", ct)
			}
			if !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("body missing %q", tt.contains)
			}
		})
	}
}

func TestApp_Components(t *testing.T) {
	app, srv, _ := newTestApp(t)
	srv.Registry().Register("B", nil)
	srv.Registry().Register("A", nil)

	w := do(app, http.MethodGet, "/api/components", "")
	var out struct{ Components []string }
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if strings.Join(out.Components, ",") != "A,B" {
		t.Errorf("components = %v", out.Components)
	}
}

func TestApp_NotFound(t *testing.T) {
	app, _, _ := newTestApp(t)

	tests := []string{
		"/nope",
		"/live/not-a-uuid",
		"/live/zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz",
		"/live/0b7c1c52-6f0c-4c52-9a55-3ad0d5e2c9a1",
	}
	for _, path := range tests {
		if w := do(app, http.MethodGet, path, ""); w.Code != http.StatusNotFound {
			t.Errorf("%s = %d, want 404", path, w.Code)
		}
	}

	w := do(app, http.MethodGet, "/nope", "")
	if !strings.Contains(w.Body.String(), `<a href="/">`) {
		t.Errorf("404 page: %s", w.Body.String())
	}
}
