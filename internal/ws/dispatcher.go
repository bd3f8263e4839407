package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/Sorchess/Picaton-sub002/internal/logging"
	"github.com/Sorchess/Picaton-sub002/internal/monitoring"
)

// Handler receives the raw bytes of one inbound frame whose "type" matched
// the registration.
type Handler func(raw []byte)

type handlerEntry struct {
	id int
	fn Handler
}

// Dispatcher parses inbound frames and routes them by the "type"
// discriminant. Malformed JSON and unknown types are logged and dropped;
// they never affect connection state. The keepalive "pong" reply is
// intercepted here and never reaches registered handlers.
type Dispatcher struct {
	log     *logging.Logger
	metrics *monitoring.Metrics

	mu       sync.Mutex
	handlers map[string][]handlerEntry
	nextID   int
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(log *logging.Logger, metrics *monitoring.Metrics) *Dispatcher {
	if log == nil {
		log = logging.NewNop()
	}
	return &Dispatcher{
		log:      log,
		metrics:  metrics,
		handlers: make(map[string][]handlerEntry),
	}
}

// On registers a handler for msgType and returns an unsubscribe function.
// Multiple handlers per type run in registration order.
func (d *Dispatcher) On(msgType string, h Handler) func() {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.handlers[msgType] = append(d.handlers[msgType], handlerEntry{id: id, fn: h})
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		entries := d.handlers[msgType]
		for i, e := range entries {
			if e.id == id {
				d.handlers[msgType] = append(entries[:i:i], entries[i+1:]...)
				break
			}
		}
	}
}

// Dispatch routes one raw inbound frame. It never panics: handler panics
// are recovered so one failing handler cannot prevent its siblings from
// running, and parse failures only drop the frame.
func (d *Dispatcher) Dispatch(raw []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &env); err != nil || env.Type == "" {
		d.log.Warn("dropping malformed frame", zap.Error(err), zap.Int("bytes", len(raw)))
		d.metrics.FrameDropped("malformed")
		return
	}

	d.metrics.FrameIn(env.Type)

	if env.Type == "pong" {
		d.log.Debug("keepalive pong")
		return
	}

	d.mu.Lock()
	entries := append([]handlerEntry(nil), d.handlers[env.Type]...)
	d.mu.Unlock()

	if len(entries) == 0 {
		d.log.Debug("no handler for message type", zap.String("type", env.Type))
		d.metrics.FrameDropped("unhandled")
		return
	}

	for _, e := range entries {
		d.invoke(env.Type, e.fn, raw)
	}
}

func (d *Dispatcher) invoke(msgType string, h Handler, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("message handler panicked",
				zap.String("type", msgType),
				zap.Any("panic", r),
			)
			d.metrics.HandlerPanicked()
		}
	}()
	h(raw)
}
