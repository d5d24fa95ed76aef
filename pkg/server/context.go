package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
)

var (
	// ErrStop is a sentinel error used by middleware to stop the chain
	ErrStop = errors.New("server: stop middleware chain")
)

// Stop returns the sentinel error to halt middleware chain execution
func Stop() error {
	return ErrStop
}

// maxBodySize bounds request bodies read by Bind
const maxBodySize = 4 << 20

// HTTPError is an error with a status code. Handlers return it to answer
// with a JSON error body instead of the error page.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// Errorf builds an HTTPError
func Errorf(code int, format string, args ...any) error {
	return &HTTPError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Ctx is the canonical interface passed through routing, middleware, and page handlers
type Ctx interface {
	// === Request ===
	Request() *http.Request   // raw request pointer (read-only)
	Context() context.Context // request context
	Path() string             // path without query string
	Method() string           // GET, POST, etc.
	Query() url.Values        // parsed query params
	Param(key string) string  // route param, panics if missing
	Bind(v any) error         // decode a JSON body into v

	// === Response ===
	ResponseWriter() http.ResponseWriter // for handlers that take over the connection
	Status(code int)                     // set HTTP status (default 200)
	StatusCode() int                     // current status
	Written() bool                       // headers already sent
	Header() http.Header                 // writeable headers
	SetHeader(key, val string)           // convenience
	Redirect(url string, code int)       // sets 30x + Location header
	JSON(code int, v any) error          // serialise & write JSON
	Text(code int, msg string) error     // write text/plain
	HTML(code int, body string) error    // write text/html
	Blob(code int, contentType string, body []byte) error
	NoContent()

	// === Internal ===
	Done() <-chan struct{} // cancellation signal (ctx.Context style)
	Logger() *slog.Logger  // structured logger
}

// ctxImpl is the internal implementation of Ctx
type ctxImpl struct {
	req           *http.Request
	w             http.ResponseWriter
	params        map[string]string
	statusCode    int
	logger        *slog.Logger
	headerWritten bool
	mu            sync.RWMutex
}

// NewContext creates a new context for handling a request
func NewContext(w http.ResponseWriter, r *http.Request) Ctx {
	return newContext(w, r, slog.Default())
}

func newContext(w http.ResponseWriter, r *http.Request, logger *slog.Logger) Ctx {
	return &ctxImpl{
		req:        r,
		w:          w,
		params:     make(map[string]string),
		statusCode: http.StatusOK,
		logger: logger.With(
			"path", r.URL.Path,
			"method", r.Method,
		),
	}
}

// WithParams returns a new context with route parameters set
func WithParams(ctx Ctx, params map[string]string) Ctx {
	if impl, ok := ctx.(*ctxImpl); ok {
		impl.mu.Lock()
		impl.params = params
		impl.mu.Unlock()
	}
	return ctx
}

// === Request Methods ===

func (c *ctxImpl) Request() *http.Request {
	return c.req
}

func (c *ctxImpl) Context() context.Context {
	return c.req.Context()
}

func (c *ctxImpl) Path() string {
	return c.req.URL.Path
}

func (c *ctxImpl) Method() string {
	return c.req.Method
}

func (c *ctxImpl) Query() url.Values {
	return c.req.URL.Query()
}

func (c *ctxImpl) Param(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	val, ok := c.params[key]
	if !ok {
		panic("server: route parameter '" + key + "' not found")
	}
	return val
}

func (c *ctxImpl) Bind(v any) error {
	body := http.MaxBytesReader(c.w, c.req.Body, maxBodySize)
	data, err := io.ReadAll(body)
	if err != nil {
		return Errorf(http.StatusRequestEntityTooLarge, "read body: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return Errorf(http.StatusBadRequest, "decode body: %v", err)
	}
	return nil
}

// === Response Methods ===

func (c *ctxImpl) ResponseWriter() http.ResponseWriter {
	c.mu.Lock()
	c.headerWritten = true
	c.mu.Unlock()
	return c.w
}

func (c *ctxImpl) Status(code int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.headerWritten {
		c.logger.Warn("attempted to set status after headers written", "code", code)
		return
	}
	c.statusCode = code
}

func (c *ctxImpl) StatusCode() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statusCode
}

func (c *ctxImpl) Written() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headerWritten
}

func (c *ctxImpl) Header() http.Header {
	return c.w.Header()
}

func (c *ctxImpl) SetHeader(key, val string) {
	c.w.Header().Set(key, val)
}

func (c *ctxImpl) Redirect(url string, code int) {
	c.commit(code)
	http.Redirect(c.w, c.req, url, code)
}

// commit records the status and marks headers as written
func (c *ctxImpl) commit(code int) {
	c.mu.Lock()
	c.statusCode = code
	c.headerWritten = true
	c.mu.Unlock()
}

func (c *ctxImpl) JSON(code int, v any) error {
	c.commit(code)

	c.w.Header().Set("Content-Type", "application/json")
	c.w.WriteHeader(code)

	encoder := json.NewEncoder(c.w)
	return encoder.Encode(v)
}

func (c *ctxImpl) Text(code int, msg string) error {
	return c.Blob(code, "text/plain; charset=utf-8", []byte(msg))
}

func (c *ctxImpl) HTML(code int, body string) error {
	return c.Blob(code, "text/html; charset=utf-8", []byte(body))
}

func (c *ctxImpl) Blob(code int, contentType string, body []byte) error {
	c.commit(code)

	c.w.Header().Set("Content-Type", contentType)
	c.w.WriteHeader(code)

	_, err := c.w.Write(body)
	return err
}

func (c *ctxImpl) NoContent() {
	c.commit(http.StatusNoContent)
	c.w.WriteHeader(http.StatusNoContent)
}

func (c *ctxImpl) Done() <-chan struct{} {
	return c.req.Context().Done()
}

func (c *ctxImpl) Logger() *slog.Logger {
	return c.logger
}
