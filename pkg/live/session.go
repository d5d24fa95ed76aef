package live

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/recera/drawflow/pkg/canvas"
	"github.com/recera/drawflow/pkg/components"
	"github.com/recera/drawflow/pkg/geometry"
	"github.com/recera/drawflow/pkg/graph"
	"github.com/recera/drawflow/pkg/renderer/html"
	"github.com/recera/drawflow/pkg/vdom"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Session is one open editor. It owns a canvas controller and applies
// every event under one lock, so handlers never interleave.
type Session struct {
	ID    string
	Graph string

	log      *slog.Logger
	registry *components.Registry
	server   *Server

	mu        sync.Mutex
	ctrl      *canvas.Controller
	tree      *vdom.VNode
	html      string
	handlers  html.Handlers
	seq       uint64
	dirty     bool
	lastSaved *graph.Drawflow
	conn      *connection
	lastSeen  time.Time
}

func newSession(id, name string, g *graph.Drawflow, srv *Server) *Session {
	s := &Session{
		ID:        id,
		Graph:     name,
		log:       srv.log.With("session", id, "graph", name),
		registry:  srv.opts.Registry,
		server:    srv,
		lastSaved: g.Copy(),
		lastSeen:  time.Now(),
	}

	opts := srv.opts.Canvas
	opts.Logger = s.log
	opts.OnChange = func(*graph.Drawflow) { s.dirty = true }
	s.ctrl = canvas.New(g, opts)

	s.rerender()
	return s
}

// HTML returns the latest render of the canvas
func (s *Session) HTML() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.html
}

// Seq returns the sequence number of the latest render
func (s *Session) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// View returns the latest canvas tree with its sequence number, for
// embedding the first render in a page. Trees are never modified once
// built.
func (s *Session) View() (*vdom.VNode, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree, s.seq
}

// Snapshot returns the controller state
func (s *Session) Snapshot() canvas.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Snapshot()
}

// Export returns copies of the graph and the measured port geometry
func (s *Session) Export() (*graph.Drawflow, *geometry.Rectangles) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Graph().Copy(), s.ctrl.Rectangles().Copy()
}

// HandleEvent runs the handler rendered under hid for ev.Type and reports
// whether one was found.
func (s *Session) HandleEvent(hid string, ev vdom.Event) bool {
	s.mu.Lock()
	s.lastSeen = time.Now()
	if !s.handlers.Dispatch(hid, ev.Type, ev) {
		s.mu.Unlock()
		s.log.Debug("no handler", "hid", hid, "event", ev.Type)
		return false
	}
	save := s.settle()
	s.mu.Unlock()

	s.persist(save)
	return true
}

// Measure caches a port measurement sent by the browser
func (s *Session) Measure(key geometry.PortKey, rect json.RawMessage) {
	s.mu.Lock()
	if !s.ctrl.Measure(key, rect) {
		s.mu.Unlock()
		return
	}
	save := s.settle()
	s.mu.Unlock()

	s.persist(save)
}

// SetOrigin records where the canvas sits in the page
func (s *Session) SetOrigin(p geometry.Point) {
	s.mu.Lock()
	s.ctrl.SetOrigin(p)
	s.mu.Unlock()
}

// Replace installs a graph changed outside this session. Nothing happens
// when the graph is what the session already shows or last saved.
func (s *Session) Replace(g *graph.Drawflow) {
	s.mu.Lock()
	if s.ctrl.Graph().Equal(g) || s.lastSaved.Equal(g) {
		s.mu.Unlock()
		return
	}
	s.ctrl.ReplaceGraph(g.Copy())
	s.lastSaved = g.Copy()
	s.dirty = false
	s.settle()
	s.mu.Unlock()

	s.log.Debug("graph replaced")
}

// settle re-renders after a change, queues the render for the browser and
// picks up a graph to save once no drag is in progress. Queueing under s.mu
// keeps renders in sequence order. Callers hold s.mu.
func (s *Session) settle() (save *graph.Drawflow) {
	if frame := s.rerender(); frame != nil && s.conn != nil {
		s.conn.pushRender(renderFrame{seq: s.seq, data: frame})
	}
	if s.dirty && !s.ctrl.Snapshot().Drag.Dragging() {
		s.dirty = false
		save = s.ctrl.Graph()
		s.lastSaved = save
	}
	return save
}

// rerender builds the canvas tree and returns a render frame when it
// differs from the previous one. Callers hold s.mu.
func (s *Session) rerender() []byte {
	tree := s.ctrl.Render(s.registry)
	patches := vdom.Diff(s.tree, tree)

	out, handlers, err := html.Render(tree)
	if err != nil {
		s.log.Error("render failed", "error", err)
		return nil
	}
	// Handlers are refreshed even when nothing changed, they close over
	// the current render.
	s.tree, s.handlers = tree, handlers
	if len(patches) == 0 && s.seq > 0 {
		return nil
	}
	s.seq++
	s.html = out
	return EncodeRender(s.seq, out)
}

func (s *Session) persist(g *graph.Drawflow) {
	if g == nil {
		return
	}
	if err := s.server.save(s, g); err != nil {
		s.log.Warn("save failed", "error", err)
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
	}
}

func (s *Session) idle(now time.Time, timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn == nil && now.Sub(s.lastSeen) > timeout
}

// renderFrame is an encoded render with its sequence number
type renderFrame struct {
	seq  uint64
	data []byte
}

// connection is one WebSocket attached to a session
type connection struct {
	ws     *websocket.Conn
	send   chan []byte
	render chan renderFrame
	done   chan struct{}
	once   sync.Once
}

func newConnection(ws *websocket.Conn) *connection {
	return &connection{
		ws:     ws,
		send:   make(chan []byte, 64),
		render: make(chan renderFrame, 1),
		done:   make(chan struct{}),
	}
}

func (c *connection) close() {
	c.once.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}

// pushControl queues a control frame, dropping it if the buffer is full
func (c *connection) pushControl(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// pushRender replaces the render still waiting to be written, unless the
// waiting one is newer. Only the latest render matters.
func (c *connection) pushRender(f renderFrame) {
	for {
		select {
		case c.render <- f:
			return
		default:
		}
		select {
		case old := <-c.render:
			if old.seq > f.seq {
				f = old
			}
		default:
		}
	}
}

// writer handles writing messages to the WebSocket
func (c *connection) writer(log *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	write := func(mt int, data []byte) bool {
		c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(mt, data); err != nil {
			log.Debug("write failed", "error", err)
			return false
		}
		return true
	}

	for {
		select {
		case frame := <-c.send:
			if !write(websocket.BinaryMessage, frame) {
				return
			}
		case f := <-c.render:
			if !write(websocket.BinaryMessage, f.data) {
				return
			}
		case <-ticker.C:
			if !write(websocket.PingMessage, nil) {
				return
			}
		case <-c.done:
			return
		}
	}
}

// serve attaches ws to the session and reads until it closes. A session
// has at most one connection; a new one replaces the old.
func (s *Session) serve(ws *websocket.Conn) {
	c := newConnection(ws)

	go c.writer(s.log)

	s.mu.Lock()
	old := s.conn
	s.conn = c
	s.lastSeen = time.Now()
	seq := s.seq
	c.pushControl(EncodeControl(ControlHello, seq))
	c.pushRender(renderFrame{seq: seq, data: EncodeRender(seq, s.html)})
	s.mu.Unlock()
	if old != nil {
		s.log.Info("connection replaced")
		old.close()
	}

	defer func() {
		c.close()
		s.mu.Lock()
		if s.conn == c {
			s.conn = nil
		}
		s.lastSeen = time.Now()
		s.mu.Unlock()
		s.log.Info("connection closed")
	}()

	s.log.Info("connection attached", "seq", seq)

	ws.SetReadLimit(1 << 20)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("unexpected close", "error", err)
			}
			return
		}
		ws.SetReadDeadline(time.Now().Add(pongWait))

		switch mt {
		case websocket.BinaryMessage:
			s.handleBinary(c, data)
		case websocket.TextMessage:
			s.handleText(c, data)
		}
	}
}

// handleBinary processes binary protocol frames
func (s *Session) handleBinary(c *connection, data []byte) {
	if len(data) == 0 {
		return
	}

	switch MessageType(data[0]) {
	case FrameEvent:
		hid, ev, err := DecodeEvent(data)
		if err != nil {
			s.log.Warn("bad event frame", "error", err)
			return
		}
		s.HandleEvent(hid, ev)

	case FrameControl:
		name, args, err := DecodeControl(data)
		if err != nil {
			s.log.Warn("bad control frame", "error", err)
			return
		}
		switch name {
		case ControlHello:
			var lastSeq uint64
			if len(args) > 0 {
				lastSeq = args[len(args)-1]
			}
			s.log.Debug("client hello", "lastSeq", lastSeq)
			s.mu.Lock()
			if lastSeq < s.seq {
				c.pushRender(renderFrame{seq: s.seq, data: EncodeRender(s.seq, s.html)})
			}
			s.mu.Unlock()
		case ControlPing:
			c.pushControl(EncodeControl(ControlPong))
		}

	default:
		s.log.Warn("unknown frame type", "type", data[0])
	}
}

// handleText processes JSON messages from the browser client
func (s *Session) handleText(c *connection, data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.Warn("bad text message", "error", err)
		return
	}

	switch msg.Kind {
	case KindEvent:
		s.HandleEvent(msg.HID, msg.Event)
	case KindMeasure:
		dir, err := geometry.ParseDirection(msg.Dir)
		if err != nil {
			s.log.Warn("bad measurement", "error", err)
			return
		}
		s.Measure(geometry.PortKey{Node: msg.Node, Port: msg.Port, Dir: dir}, msg.Rect)
	case KindOrigin:
		s.SetOrigin(geometry.Point{X: msg.X, Y: msg.Y})
	case KindPing:
		c.pushControl(EncodeControl(ControlPong))
	default:
		s.log.Debug("unknown message kind", "kind", msg.Kind)
	}
}
