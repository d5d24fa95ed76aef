// Package server serves the editor over HTTP: the editor page, the graph
// API, PNG export and the live WebSocket endpoint.
package server

import (
	"bytes"
	_ "embed"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/recera/drawflow/pkg/export"
	"github.com/recera/drawflow/pkg/geometry"
	"github.com/recera/drawflow/pkg/graph"
	"github.com/recera/drawflow/pkg/live"
	"github.com/recera/drawflow/pkg/store"
	"github.com/recera/drawflow/pkg/vdom"
	"github.com/recera/drawflow/pkg/vex/builder"
)

//go:embed drawflow.css
var stylesheet []byte

// LivePath is the URL prefix of the WebSocket endpoint
const LivePath = "/live/"

// Options configures an App
type Options struct {
	Live *live.Server

	// Title is shown in the page header
	Title string

	// DefaultGraph is opened by "/"
	DefaultGraph string

	Export export.Options
	Logger *slog.Logger
}

// App is the HTTP front of the editor
type App struct {
	opts   Options
	router *Router
	live   *live.Server
	store  store.Store
	log    *slog.Logger
}

// New creates an App and registers its routes
func New(opts Options) *App {
	if opts.Live == nil {
		opts.Live = live.NewServer(live.Options{Logger: opts.Logger})
	}
	if opts.Title == "" {
		opts.Title = "drawflow"
	}
	if opts.DefaultGraph == "" {
		opts.DefaultGraph = "default"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		opts:   opts,
		router: NewRouter(),
		live:   opts.Live,
		store:  opts.Live.Store(),
		log:    logger.With("component", "http"),
	}
	a.router.SetLogger(a.log)
	a.routes()
	return a
}

func (a *App) routes() {
	r := a.router
	r.Use(accessLog{})

	r.AddRoute("/", a.index)
	r.AddRoute("/graphs/[name]", a.page)
	r.AddRoute("/live/[id:uuid]", a.socket)
	r.AddRoute("/drawflow.js", a.script)
	r.AddRoute("/drawflow.css", a.css)

	r.AddAPIRoute("/api/graphs", a.listGraphs)
	r.AddAPIRoute("/api/graphs/[name]", a.graphAPI)
	r.AddRoute("/api/graphs/[name]/png", a.png)
	r.AddAPIRoute("/api/components", a.components)

	r.SetNotFound(a.notFound)
}

// ServeHTTP implements http.Handler
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Router exposes the router for extra routes
func (a *App) Router() *Router {
	return a.router
}

// accessLog logs every request once the handler is done
type accessLog struct{}

func (accessLog) Before(Ctx) error { return nil }

func (accessLog) After(ctx Ctx) error {
	ctx.Logger().Debug("request", "status", ctx.StatusCode())
	return nil
}

func (a *App) index(ctx Ctx) (*vdom.VNode, error) {
	ctx.Redirect("/graphs/"+a.opts.DefaultGraph, http.StatusFound)
	return nil, nil
}

// page opens a live session on the graph and renders the editor with the
// session's first render in place, so the page is usable before the
// socket connects.
func (a *App) page(ctx Ctx) (*vdom.VNode, error) {
	name := ctx.Param("name")
	if err := store.ValidName(name); err != nil {
		return nil, Errorf(http.StatusBadRequest, "%v", err)
	}

	sess, err := a.live.NewSession(ctx.Context(), name)
	if err != nil {
		return nil, err
	}
	tree, seq := sess.View()

	return document(a.opts.Title+" - "+name,
		builder.El("header").Text(a.opts.Title+" / "+name).Build(),
		builder.Div().
			ID("drawflow-root").
			Data("session", sess.ID).
			Data("live", LivePath).
			Data("seq", strconv.FormatUint(seq, 10)).
			Children(tree).
			Build(),
		builder.El("script").Attr("src", "/drawflow.js").Build(),
	), nil
}

func (a *App) notFound(ctx Ctx) (*vdom.VNode, error) {
	ctx.Status(http.StatusNotFound)
	return document("Not found",
		builder.El("header").Text(a.opts.Title).Build(),
		builder.P().Text("Nothing here. ").Children(
			builder.A().Href("/").Text("Open the editor").Build(),
		).Build(),
	), nil
}

func document(title string, body ...*vdom.VNode) *vdom.VNode {
	return builder.El("html").Attr("lang", "en").Children(
		builder.El("head").Children(
			builder.El("meta").Attr("charset", "utf-8").Build(),
			builder.El("title").Text(title).Build(),
			builder.El("link").Attr("rel", "stylesheet").Href("/drawflow.css").Build(),
		).Build(),
		builder.El("body").Children(body...).Build(),
	).Build()
}

func (a *App) socket(ctx Ctx) (*vdom.VNode, error) {
	a.live.HandleWebSocket(ctx.ResponseWriter(), ctx.Request(), ctx.Param("id"))
	return nil, nil
}

func (a *App) script(ctx Ctx) (*vdom.VNode, error) {
	ctx.SetHeader("Cache-Control", "no-cache")
	return nil, ctx.Blob(http.StatusOK, "application/javascript; charset=utf-8", live.ClientScript())
}

func (a *App) css(ctx Ctx) (*vdom.VNode, error) {
	ctx.SetHeader("Cache-Control", "no-cache")
	return nil, ctx.Blob(http.StatusOK, "text/css; charset=utf-8", stylesheet)
}

func (a *App) listGraphs(ctx Ctx) (any, error) {
	if ctx.Method() != http.MethodGet {
		return nil, Errorf(http.StatusMethodNotAllowed, "method %s not allowed", ctx.Method())
	}
	names, err := a.store.List(ctx.Context())
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return map[string]any{"graphs": names}, nil
}

// graphAPI reads, replaces or deletes one stored graph. A replaced graph is
// shown in every open session on it.
func (a *App) graphAPI(ctx Ctx) (any, error) {
	name := ctx.Param("name")
	if err := store.ValidName(name); err != nil {
		return nil, Errorf(http.StatusBadRequest, "%v", err)
	}

	switch ctx.Method() {
	case http.MethodGet:
		g, err := a.store.Load(ctx.Context(), name)
		if err != nil {
			return nil, storeError(err)
		}
		return g, nil

	case http.MethodPut:
		g := graph.New()
		if err := ctx.Bind(g); err != nil {
			return nil, err
		}
		for _, problem := range g.Validate() {
			ctx.Logger().Warn("stored graph has problems", "graph", name, "problem", problem)
		}
		if err := a.store.Save(ctx.Context(), name, g); err != nil {
			return nil, storeError(err)
		}
		a.live.Publish(name, g)
		ctx.Logger().Info("graph replaced", "graph", name, "nodes", g.Len())
		return g, nil

	case http.MethodDelete:
		if err := a.store.Delete(ctx.Context(), name); err != nil {
			return nil, storeError(err)
		}
		ctx.Logger().Info("graph deleted", "graph", name)
		return nil, nil
	}

	return nil, Errorf(http.StatusMethodNotAllowed, "method %s not allowed", ctx.Method())
}

// png draws a graph. With ?session= the session's unsaved state and the
// port positions its browser measured are used.
func (a *App) png(ctx Ctx) (*vdom.VNode, error) {
	name := ctx.Param("name")
	if err := store.ValidName(name); err != nil {
		return nil, Errorf(http.StatusBadRequest, "%v", err)
	}

	var (
		g     *graph.Drawflow
		rects *geometry.Rectangles
	)
	if id := ctx.Query().Get("session"); id != "" {
		sess, ok := a.live.GetSession(id)
		if !ok || sess.Graph != name {
			return nil, Errorf(http.StatusNotFound, "%v: %s", live.ErrNoSession, id)
		}
		g, rects = sess.Export()
	} else {
		var err error
		if g, err = a.store.Load(ctx.Context(), name); err != nil {
			return nil, storeError(err)
		}
	}

	var buf bytes.Buffer
	if err := export.PNG(&buf, g, rects, a.opts.Export); err != nil {
		if errors.Is(err, export.ErrEmpty) {
			return nil, Errorf(http.StatusUnprocessableEntity, "%v", err)
		}
		return nil, err
	}
	return nil, ctx.Blob(http.StatusOK, "image/png", buf.Bytes())
}

func (a *App) components(ctx Ctx) (any, error) {
	kinds := a.live.Registry().Kinds()
	if kinds == nil {
		kinds = []string{}
	}
	return map[string]any{"components": kinds}, nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return Errorf(http.StatusNotFound, "%v", err)
	case errors.Is(err, store.ErrInvalidName):
		return Errorf(http.StatusBadRequest, "%v", err)
	}
	return err
}
