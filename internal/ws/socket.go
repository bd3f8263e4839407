package ws

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Socket wraps one physical WebSocket connection. Writes are serialized;
// gorilla/websocket does not support concurrent writers.
type Socket struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	closeOnce sync.Once
}

// dialSocket establishes one connection. Network faults surface as a
// returned error, never a panic.
func dialSocket(ctx context.Context, rawURL string, handshakeTimeout time.Duration) (*Socket, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial: %w", err)
	}

	return &Socket{conn: conn}, nil
}

// WriteJSON marshals v and writes it as one text frame.
func (s *Socket) WriteJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// ReadMessage blocks until the next frame or a read error. A read error
// means the connection is unusable.
func (s *Socket) ReadMessage() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	return data, err
}

// Close performs the closing handshake and tears down the connection.
// Safe to call more than once.
func (s *Socket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client disconnect")
		// Best effort; the peer may already be gone.
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}

// isExpectedClose reports whether err represents a normal closure.
func isExpectedClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
