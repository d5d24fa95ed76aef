// Package live serves editor sessions over WebSocket.
//
// The browser renders the HTML the server sends and forwards DOM events
// by hydration ID. The server runs the handler, re-renders the canvas and
// sends a new render frame only when the tree changed.
package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/recera/drawflow/pkg/canvas"
	"github.com/recera/drawflow/pkg/components"
	"github.com/recera/drawflow/pkg/graph"
	"github.com/recera/drawflow/pkg/store"
)

// ErrNoSession is returned for an unknown session ID
var ErrNoSession = errors.New("live: no such session")

// Options configures a Server
type Options struct {
	Store    store.Store
	Registry *components.Registry
	Canvas   canvas.Options

	// Default seeds a graph that is not stored yet
	Default *graph.Drawflow

	// IdleTimeout is how long a session without a connection is kept
	IdleTimeout time.Duration

	// CheckOrigin overrides the upgrader's same-origin check
	CheckOrigin func(r *http.Request) bool

	Logger *slog.Logger
}

// Server handles WebSocket connections for live sessions
type Server struct {
	opts     Options
	log      *slog.Logger
	upgrader websocket.Upgrader

	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewServer creates a new live protocol server
func NewServer(opts Options) *Server {
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.Registry == nil {
		opts.Registry = components.NewRegistry()
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 2 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		opts: opts,
		log:  logger.With("component", "live"),
		upgrader: websocket.Upgrader{
			CheckOrigin:     opts.CheckOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sessions: make(map[string]*Session),
	}
}

// Store returns the store sessions save to
func (s *Server) Store() store.Store {
	return s.opts.Store
}

// Registry returns the component registry sessions render with
func (s *Server) Registry() *components.Registry {
	return s.opts.Registry
}

// NewSession opens the named graph in a new session. The session waits
// for a WebSocket until IdleTimeout passes.
func (s *Server) NewSession(ctx context.Context, name string) (*Session, error) {
	if err := store.ValidName(name); err != nil {
		return nil, err
	}
	g, err := store.LoadOrDefault(ctx, s.opts.Store, name, s.opts.Default)
	if err != nil {
		return nil, fmt.Errorf("live: open %s: %w", name, err)
	}

	sess := newSession(uuid.NewString(), name, g, s)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.log.Info("session created", "session", sess.ID, "graph", name, "sessions", n)
	return sess, nil
}

// HandleWebSocket upgrades the request and attaches it to session id
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request, id string) {
	sess, ok := s.GetSession(id)
	if !ok {
		http.Error(w, ErrNoSession.Error(), http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", "session", id, "error", err)
		return
	}
	go sess.serve(conn)
}

// GetSession retrieves a session by ID
func (s *Server) GetSession(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// RemoveSession removes a session and closes its connection
func (s *Server) RemoveSession(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return
	}

	sess.mu.Lock()
	c := sess.conn
	sess.mu.Unlock()
	if c != nil {
		c.close()
	}
}

// Len returns the number of open sessions
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) peers(name string, except *Session) []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Session
	for _, sess := range s.sessions {
		if sess != except && sess.Graph == name {
			out = append(out, sess)
		}
	}
	return out
}

// save stores a graph edited in from and shows it in every other session
// on the same graph
func (s *Server) save(from *Session, g *graph.Drawflow) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if err := s.opts.Store.Save(ctx, from.Graph, g); err != nil {
		return err
	}
	for _, peer := range s.peers(from.Graph, from) {
		peer.Replace(g)
	}
	return nil
}

// Publish shows g in every session on the named graph
func (s *Server) Publish(name string, g *graph.Drawflow) {
	for _, sess := range s.peers(name, nil) {
		sess.Replace(g)
	}
}

// Reload reads the named graph from the store and publishes it
func (s *Server) Reload(ctx context.Context, name string) error {
	g, err := s.opts.Store.Load(ctx, name)
	if err != nil {
		return err
	}
	s.Publish(name, g)
	return nil
}

// Sweep removes sessions that have had no connection for IdleTimeout
func (s *Server) Sweep(now time.Time) int {
	s.mu.RLock()
	var stale []string
	for id, sess := range s.sessions {
		if sess.idle(now, s.opts.IdleTimeout) {
			stale = append(stale, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range stale {
		s.RemoveSession(id)
		s.log.Info("session expired", "session", id)
	}
	return len(stale)
}

// Run sweeps idle sessions until ctx is cancelled
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.IdleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}
