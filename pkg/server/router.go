package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/recera/drawflow/pkg/renderer/html"
	"github.com/recera/drawflow/pkg/vdom"
)

// HandlerFunc is the signature for page handlers. Returning a nil VNode
// means the handler wrote the response itself.
type HandlerFunc func(ctx Ctx) (*vdom.VNode, error)

// APIHandlerFunc is the signature for API route handlers. The result is
// written as JSON.
type APIHandlerFunc func(ctx Ctx) (any, error)

// Middleware interface for before/after hooks
type Middleware interface {
	Before(ctx Ctx) error // return Stop() to abort chain
	After(ctx Ctx) error  // always called if Before succeeded
}

// RouteNode represents a node in the radix tree
type RouteNode struct {
	segment    string
	param      bool
	paramName  string
	paramType  string // "string", "uuid"
	handler    HandlerFunc
	apiHandler APIHandlerFunc
	children   []*RouteNode
	middleware []Middleware
}

// Router manages all routes and middleware
type Router struct {
	root       *RouteNode
	notFound   HandlerFunc
	errorPage  HandlerFunc
	middleware []Middleware
	logger     *slog.Logger
	mu         sync.RWMutex
}

// NewRouter creates a new router instance
func NewRouter() *Router {
	return &Router{
		root: &RouteNode{
			children: make([]*RouteNode, 0),
		},
		middleware: make([]Middleware, 0),
		logger:     slog.Default(),
	}
}

// SetLogger sets the logger request contexts derive from
func (r *Router) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if logger != nil {
		r.logger = logger
	}
}

// AddRoute registers a page handler for a path
func (r *Router) AddRoute(path string, handler HandlerFunc, middleware ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node := r.insert(path)
	node.handler = handler
	node.middleware = middleware
}

// AddAPIRoute registers an API handler for a path
func (r *Router) AddAPIRoute(path string, handler APIHandlerFunc, middleware ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node := r.insert(path)
	node.apiHandler = handler
	node.middleware = middleware
}

func (r *Router) insert(path string) *RouteNode {
	node := r.root
	for _, segment := range splitPath(path) {
		node = r.findOrCreateChild(node, segment)
	}
	return node
}

// Use adds global middleware
func (r *Router) Use(middleware ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, middleware...)
}

// SetNotFound sets the 404 handler
func (r *Router) SetNotFound(handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notFound = handler
}

// SetErrorPage sets the 500 error handler
func (r *Router) SetErrorPage(handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errorPage = handler
}

// Match finds a handler for the given path
func (r *Router) Match(path string) (HandlerFunc, map[string]string, []Middleware) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	segments := splitPath(path)
	params := make(map[string]string)

	node, matched := r.matchNode(r.root, segments, params)
	if !matched || (node.handler == nil && node.apiHandler == nil) {
		return r.notFound, map[string]string{}, r.middleware
	}

	// Collect middleware from root to matched node
	allMiddleware := append([]Middleware{}, r.middleware...)
	allMiddleware = append(allMiddleware, node.middleware...)

	if node.apiHandler != nil {
		return wrapAPIHandler(node.apiHandler), params, allMiddleware
	}

	return node.handler, params, allMiddleware
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	logger := r.logger
	r.mu.RUnlock()

	ctx := newContext(w, req, logger)

	handler, params, middleware := r.Match(req.URL.Path)
	if handler == nil {
		ctx.Text(http.StatusNotFound, "Not Found")
		return
	}

	ctx = WithParams(ctx, params)

	defer func() {
		if err := recover(); err != nil {
			ctx.Logger().Error("panic in handler", "error", err)
			r.handleError(ctx, fmt.Errorf("internal server error: %v", err))
		}
	}()

	finalHandler := handler
	for i := len(middleware) - 1; i >= 0; i-- {
		mw := middleware[i]
		next := finalHandler
		finalHandler = func(c Ctx) (*vdom.VNode, error) {
			if err := mw.Before(c); err != nil {
				if errors.Is(err, ErrStop) {
					return nil, nil // Middleware handled response
				}
				return nil, err
			}

			result, err := next(c)

			if afterErr := mw.After(c); afterErr != nil {
				c.Logger().Error("error in After middleware", "error", afterErr)
			}

			return result, err
		}
	}

	vnode, err := finalHandler(ctx)
	if err != nil {
		r.handleError(ctx, err)
		return
	}

	// If vnode is nil, the handler wrote the response
	if vnode == nil {
		return
	}

	htmlContent, err := html.RenderToString(vnode)
	if err != nil {
		r.handleError(ctx, fmt.Errorf("failed to render VNode: %w", err))
		return
	}

	ctx.HTML(ctx.StatusCode(), doctype(vnode)+htmlContent)
}

func doctype(root *vdom.VNode) string {
	if root.Kind == vdom.KindElement && root.Tag == "html" {
		return "<!DOCTYPE html>"
	}
	return ""
}

// findOrCreateChild finds or creates a child node
func (r *Router) findOrCreateChild(parent *RouteNode, segment string) *RouteNode {
	if strings.HasPrefix(segment, "[") && strings.HasSuffix(segment, "]") {
		paramName, paramType := parseParamDef(segment[1 : len(segment)-1])
		for _, child := range parent.children {
			if child.param && child.paramName == paramName {
				return child
			}
		}

		node := &RouteNode{
			segment:   segment,
			param:     true,
			paramName: paramName,
			paramType: paramType,
			children:  make([]*RouteNode, 0),
		}
		parent.children = append(parent.children, node)
		return node
	}

	for _, child := range parent.children {
		if !child.param && child.segment == segment {
			return child
		}
	}

	node := &RouteNode{
		segment:  segment,
		children: make([]*RouteNode, 0),
	}
	parent.children = append(parent.children, node)
	return node
}

// matchNode attempts to match a path against the tree. Static segments win
// over parameters.
func (r *Router) matchNode(node *RouteNode, segments []string, params map[string]string) (*RouteNode, bool) {
	if len(segments) == 0 {
		return node, true
	}

	segment := segments[0]
	remaining := segments[1:]

	for _, child := range node.children {
		if !child.param && child.segment == segment {
			if result, ok := r.matchNode(child, remaining, params); ok {
				return result, true
			}
		}
	}

	for _, child := range node.children {
		if child.param && validateParam(segment, child.paramType) {
			params[child.paramName] = segment
			if result, ok := r.matchNode(child, remaining, params); ok {
				return result, true
			}
			delete(params, child.paramName)
		}
	}

	return nil, false
}

// handleError renders the error page
func (r *Router) handleError(ctx Ctx, err error) {
	ctx.Logger().Error("handler error", "error", err)

	var he *HTTPError
	if errors.As(err, &he) {
		ctx.JSON(he.Code, map[string]string{"error": he.Message})
		return
	}

	if r.errorPage != nil {
		if vnode, err := r.errorPage(ctx); err == nil && vnode != nil {
			if htmlContent, renderErr := html.RenderToString(vnode); renderErr == nil {
				ctx.HTML(http.StatusInternalServerError, htmlContent)
				return
			}
		}
	}

	ctx.Text(http.StatusInternalServerError, "Internal Server Error")
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return []string{}
	}
	return strings.Split(path, "/")
}

func parseParamDef(def string) (name, paramType string) {
	name, paramType, ok := strings.Cut(def, ":")
	if !ok {
		paramType = "string"
	}
	return name, paramType
}

func validateParam(value, paramType string) bool {
	switch paramType {
	case "uuid":
		// canonical 8-4-4-4-12 form only, as uuid.NewString produces
		return len(value) == 36 && uuid.Validate(value) == nil
	default:
		return len(value) > 0
	}
}

func wrapAPIHandler(handler APIHandlerFunc) HandlerFunc {
	return func(ctx Ctx) (*vdom.VNode, error) {
		result, err := handler(ctx)
		if err != nil {
			return nil, err
		}
		if result == nil {
			if !ctx.Written() {
				ctx.NoContent()
			}
			return nil, nil
		}
		if err := ctx.JSON(ctx.StatusCode(), result); err != nil {
			return nil, err
		}
		return nil, nil
	}
}
