// Package server streams progressive renders of an engine to websocket
// clients and applies the parameter events they send.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"volraycast/pkg/engine"
	"volraycast/pkg/log"
	"volraycast/pkg/render"
)

var logger = log.New("server")

const writeTimeout = 5 * time.Second

// LevelMessage announces the binary PNG frame that follows it.
type LevelMessage struct {
	Type       string  `json:"type"`
	Sub        int     `json:"sub"`
	Final      bool    `json:"final"`
	Rays       int64   `json:"rays"`
	Samples    int64   `json:"samples"`
	DurationMs float64 `json:"durationMs"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// StatusMessage reports whether the scheduler is busy.
type StatusMessage struct {
	Type string `json:"type"`
	Busy bool   `json:"busy"`
}

// ErrorMessage reports a rejected event to its sender.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// client is a websocket connection with its write lock.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

func (c *client) writeFrame(header LevelMessage, frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(header); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, frame)
}

// Server is the preview server. It implements engine.Listener.
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	eng      *engine.Engine

	mu        sync.RWMutex
	clients   map[*websocket.Conn]*client
	last      []byte
	lastLevel LevelMessage

	httpServer *http.Server
}

// New creates a server listening on addr once ListenAndServe is called.
func New(addr string) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*client),
	}
}

// Attach sets the engine that receives client events.
func (s *Server) Attach(e *engine.Engine) { s.eng = e }

// Handler returns the HTTP handler serving /ws and /status.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

// ListenAndServe serves until Shutdown.
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{Addr: s.addr, Handler: s.Handler()}
	logger.Noticef("preview server listening on %s", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server and closes every client.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.mu.Unlock()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// OnLevel encodes the frame and sends it to every client.
func (s *Server) OnLevel(frame *render.Frame, stats render.LevelStats) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame.Image()); err != nil {
		logger.Errorf("encoding frame: %v", err)
		return
	}
	header := LevelMessage{
		Type:       "level",
		Sub:        stats.Level.Sub,
		Final:      stats.Level.Final,
		Rays:       stats.Rays,
		Samples:    stats.Samples,
		DurationMs: float64(stats.Duration.Microseconds()) / 1000,
		Width:      frame.Width,
		Height:     frame.Height,
	}
	data := buf.Bytes()

	s.mu.Lock()
	s.last, s.lastLevel = data, header
	s.mu.Unlock()

	s.broadcast(func(c *client) error { return c.writeFrame(header, data) })
}

// OnStatus forwards the busy flag to every client.
func (s *Server) OnStatus(busy bool) {
	msg := StatusMessage{Type: "status", Busy: busy}
	s.broadcast(func(c *client) error { return c.writeJSON(msg) })
}

func (s *Server) broadcast(send func(*client) error) {
	s.mu.RLock()
	var failed []*websocket.Conn
	for conn, c := range s.clients {
		if err := send(c); err != nil {
			logger.Debugf("write to %s failed: %v", conn.RemoteAddr(), err)
			failed = append(failed, conn)
		}
	}
	s.mu.RUnlock()

	if len(failed) == 0 {
		return
	}
	s.mu.Lock()
	for _, conn := range failed {
		delete(s.clients, conn)
		conn.Close()
	}
	s.mu.Unlock()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.eng == nil {
		http.Error(w, "no engine attached", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.eng.Status()); err != nil {
		logger.Debugf("status response: %v", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warningf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn}
	s.mu.Lock()
	s.clients[conn] = c
	last, header := s.last, s.lastLevel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()
	logger.Infof("client %s connected", conn.RemoteAddr())

	if last != nil {
		if err := c.writeFrame(header, last); err != nil {
			return
		}
	}

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debugf("client %s read: %v", conn.RemoteAddr(), err)
			}
			return
		}
		reply, err := s.apply(ev)
		if err != nil {
			reply = ErrorMessage{Type: "error", Message: err.Error()}
		}
		if reply != nil {
			if err := c.writeJSON(reply); err != nil {
				return
			}
		}
	}
}
