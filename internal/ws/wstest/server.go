// Package wstest provides an in-process WebSocket server for channel
// client tests.
package wstest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// Server is a test WebSocket endpoint. It records every inbound frame,
// can push frames to the most recent connection, and can drop or refuse
// connections to exercise the reconnect path.
type Server struct {
	t       *testing.T
	httpSrv *httptest.Server

	frames chan map[string]any

	mu     sync.Mutex
	active *websocket.Conn

	dials  atomic.Int32
	reject atomic.Bool
}

// NewServer starts a test server. It accepts any path and token.
func NewServer(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		t:      t,
		frames: make(chan map[string]any, 64),
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	s.httpSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.reject.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.dials.Add(1)

		s.mu.Lock()
		s.active = conn
		s.mu.Unlock()

		for {
			var frame map[string]any
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			s.frames <- frame
		}
	}))

	t.Cleanup(s.Close)
	return s
}

// BaseURL returns the http:// URL; the client's endpoint builder rewrites
// it to ws://.
func (s *Server) BaseURL() string {
	return s.httpSrv.URL
}

// Dials returns how many connections were successfully upgraded.
func (s *Server) Dials() int {
	return int(s.dials.Load())
}

// SetReject makes the server refuse upgrades when v is true.
func (s *Server) SetReject(v bool) {
	s.reject.Store(v)
}

// NextFrame waits for the next inbound frame.
func (s *Server) NextFrame(timeout time.Duration) (map[string]any, bool) {
	select {
	case f := <-s.frames:
		return f, true
	case <-time.After(timeout):
		return nil, false
	}
}

// NoFrame asserts that no inbound frame arrives within the window.
func (s *Server) NoFrame(window time.Duration) bool {
	select {
	case <-s.frames:
		return false
	case <-time.After(window):
		return true
	}
}

// Push writes one JSON frame to the most recent connection.
func (s *Server) Push(v any) error {
	s.mu.Lock()
	conn := s.active
	s.mu.Unlock()
	if conn == nil {
		s.t.Fatal("wstest: no active connection to push to")
	}
	return conn.WriteJSON(v)
}

// DropActive severs the most recent connection without a closing
// handshake; the client observes an unexpected close.
func (s *Server) DropActive() {
	s.mu.Lock()
	conn := s.active
	s.active = nil
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// CloseActiveGracefully performs a normal-closure handshake; the client
// must not reconnect.
func (s *Server) CloseActiveGracefully() {
	s.mu.Lock()
	conn := s.active
	s.active = nil
	s.mu.Unlock()
	if conn == nil {
		return
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = conn.Close()
}

// Close shuts the server down.
func (s *Server) Close() {
	s.DropActive()
	s.httpSrv.Close()
}
