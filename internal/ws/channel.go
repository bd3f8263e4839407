package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Sorchess/Picaton-sub002/internal/auth"
	"github.com/Sorchess/Picaton-sub002/internal/logging"
	"github.com/Sorchess/Picaton-sub002/internal/monitoring"
	"github.com/Sorchess/Picaton-sub002/internal/shared/id"
)

// Sentinel errors returned by Channel operations.
var (
	// ErrNotOpen is returned by Send when the channel is not open.
	// Messages are never queued client-side; callers fall back to the
	// REST API instead.
	ErrNotOpen = errors.New("ws: channel not open")

	// ErrClosed is returned when Disconnect raced a connect attempt.
	ErrClosed = errors.New("ws: channel closed during connect")
)

// State is the connection state of a Channel.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateClosing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// DefaultConnectTimeout bounds the WebSocket handshake. Without it a
// connect against an unreachable host hangs indefinitely.
const DefaultConnectTimeout = 10 * time.Second

// Options configures a Channel.
type Options struct {
	Endpoint Endpoint
	Tokens   auth.TokenProvider

	Reconnect         ReconnectPolicy
	KeepaliveInterval time.Duration
	ConnectTimeout    time.Duration

	Logger  *logging.Logger
	Metrics *monitoring.Metrics

	// OnConnected fires after every successful open, including reconnects.
	OnConnected func()

	// OnDisconnected fires once when the channel gives up: either the
	// reconnect attempt ceiling was reached or a terminal transport fault
	// occurred. Manual reconnection is the caller's responsibility.
	OnDisconnected func(err error)

	// OnError fires on transport-level faults that feed the reconnect
	// policy. Never invoked for protocol-level drops.
	OnError func(err error)
}

// Channel is the reconnecting socket core shared by the chat, DM, and
// generation-stream clients. It owns exactly one socket handle, one
// keepalive ticker, and one pending reconnect timer.
type Channel struct {
	opts Options
	disp *Dispatcher

	log     *logging.Logger
	metrics *monitoring.Metrics

	mu             sync.Mutex
	state          State
	sock           *Socket
	gen            uint64 // bumped on every install/disconnect; detaches stale read loops
	attempt        int
	reconnectTimer *time.Timer
	kaStop         chan struct{}
}

// NewChannel creates a disconnected channel. Zero-valued options get
// defaults.
func NewChannel(opts Options) *Channel {
	if opts.Reconnect == (ReconnectPolicy{}) {
		opts.Reconnect = DefaultReconnectPolicy()
	}
	if opts.KeepaliveInterval <= 0 {
		opts.KeepaliveInterval = DefaultKeepaliveInterval
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	log := opts.Logger.With(
		zap.String("channel_id", id.NewChannelID().String()),
		zap.String("path", opts.Endpoint.Path),
	)

	return &Channel{
		opts:    opts,
		disp:    NewDispatcher(log, opts.Metrics),
		log:     log,
		metrics: opts.Metrics,
	}
}

// On registers an inbound message handler; see Dispatcher.On.
func (c *Channel) On(msgType string, h Handler) func() {
	return c.disp.On(msgType, h)
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect establishes the connection. It returns once the socket is open
// or the handshake failed. Calling Connect while already open or
// connecting is a no-op.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateOpen || c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.attempt = 0
	c.mu.Unlock()

	sock, err := c.dial(ctx)
	if err != nil {
		c.mu.Lock()
		if c.state == StateConnecting {
			c.state = StateDisconnected
		}
		c.mu.Unlock()
		return fmt.Errorf("connect %s: %w", c.opts.Endpoint.Path, err)
	}

	if !c.install(sock) {
		_ = sock.Close()
		return ErrClosed
	}
	return nil
}

// Disconnect closes the connection, cancels any pending reconnect, and
// stops the keepalive. Idempotent: disconnecting an already-disconnected
// channel does nothing.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}
	wasOpen := c.state == StateOpen
	c.state = StateClosing

	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.stopKeepaliveLocked()

	sock := c.sock
	c.sock = nil
	c.gen++ // detach the live read loop, if any
	c.attempt = 0
	c.state = StateDisconnected
	c.mu.Unlock()

	if sock != nil {
		_ = sock.Close()
	}
	if wasOpen {
		c.metrics.ConnClosed()
	}
	c.log.Info("channel disconnected")
}

// Send writes one outbound frame if the channel is open. Frames are never
// queued; ErrNotOpen tells the caller to use the REST fallback. Outbound
// order matches call order: the socket serializes writes.
func (c *Channel) Send(action string, frame any) error {
	c.mu.Lock()
	if c.state != StateOpen || c.sock == nil {
		c.mu.Unlock()
		return ErrNotOpen
	}
	sock := c.sock
	c.mu.Unlock()

	if err := sock.WriteJSON(frame); err != nil {
		return fmt.Errorf("send %s: %w", action, err)
	}
	c.metrics.FrameOut(action)
	return nil
}

// dial reads the current credential and opens one socket.
func (c *Channel) dial(ctx context.Context) (*Socket, error) {
	if c.opts.Tokens == nil {
		return nil, auth.ErrNoToken
	}
	token, err := c.opts.Tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("credential: %w", err)
	}

	u, err := c.opts.Endpoint.URL(token)
	if err != nil {
		return nil, err
	}

	return dialSocket(ctx, u, c.opts.ConnectTimeout)
}

// install makes sock the channel's live connection. Returns false when a
// concurrent Disconnect won the race.
func (c *Channel) install(sock *Socket) bool {
	c.mu.Lock()
	if c.state != StateConnecting {
		c.mu.Unlock()
		return false
	}
	c.gen++
	gen := c.gen
	c.sock = sock
	c.state = StateOpen
	c.attempt = 0
	c.startKeepaliveLocked()
	c.mu.Unlock()

	go c.readLoop(gen, sock)

	c.metrics.ConnOpened()
	c.log.Info("channel open")
	if c.opts.OnConnected != nil {
		c.opts.OnConnected()
	}
	return true
}

// readLoop pumps inbound frames for one connection generation. A stale
// generation's close is ignored, so a replaced handle's late close cannot
// trigger a duplicate reconnect.
func (c *Channel) readLoop(gen uint64, sock *Socket) {
	for {
		raw, err := sock.ReadMessage()
		if err != nil {
			c.handleClose(gen, err)
			return
		}
		c.disp.Dispatch(raw)
	}
}

// handleClose runs when a connection's read loop ends.
func (c *Channel) handleClose(gen uint64, cause error) {
	c.mu.Lock()
	if gen != c.gen {
		// Stale handle; a newer connection owns the channel now.
		c.mu.Unlock()
		return
	}

	c.stopKeepaliveLocked()
	c.sock = nil
	c.metrics.ConnClosed()

	if c.state == StateClosing || c.state == StateDisconnected || isExpectedClose(cause) {
		c.state = StateDisconnected
		c.mu.Unlock()
		return
	}

	c.log.Warn("unexpected close", zap.Error(cause))
	if c.opts.OnError != nil {
		defer c.opts.OnError(cause)
	}
	c.scheduleRetryLocked(cause) // releases c.mu
}

// scheduleRetryLocked either arms the reconnect timer or gives up. Caller
// holds c.mu; released before any callback fires.
func (c *Channel) scheduleRetryLocked(cause error) {
	if c.opts.Reconnect.ShouldRetry(c.attempt) {
		delay := c.opts.Reconnect.Delay(c.attempt)
		c.attempt++
		attempt := c.attempt
		c.state = StateConnecting
		c.reconnectTimer = time.AfterFunc(delay, c.retry)
		c.mu.Unlock()

		c.metrics.ReconnectScheduled()
		c.log.Info("reconnect scheduled",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)
		return
	}

	c.state = StateDisconnected
	c.mu.Unlock()

	c.log.Error("reconnect attempts exhausted", zap.Error(cause))
	if c.opts.OnDisconnected != nil {
		c.opts.OnDisconnected(cause)
	}
}

// retry is one scheduled reconnect attempt.
func (c *Channel) retry() {
	c.mu.Lock()
	if c.state != StateConnecting {
		// Disconnect raced the timer.
		c.mu.Unlock()
		return
	}
	c.reconnectTimer = nil
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.ConnectTimeout)
	defer cancel()

	sock, err := c.dial(ctx)
	if err != nil {
		c.mu.Lock()
		if c.state != StateConnecting {
			c.mu.Unlock()
			return
		}
		c.log.Warn("reconnect attempt failed", zap.Error(err))
		c.scheduleRetryLocked(err) // releases c.mu
		return
	}

	if !c.install(sock) {
		_ = sock.Close()
	}
}
