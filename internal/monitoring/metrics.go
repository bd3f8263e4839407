// Package monitoring exposes Prometheus metrics for the realtime channel
// clients. The Metrics handle is nil-safe so library consumers that do not
// run a metrics endpoint can skip it entirely.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the realtime layer.
type Metrics struct {
	ConnectionsActive prometheus.Gauge
	FramesIn          *prometheus.CounterVec
	FramesOut         *prometheus.CounterVec
	Reconnects        prometheus.Counter
	DroppedFrames     *prometheus.CounterVec
	HandlerPanics     prometheus.Counter
	StreamChunks      prometheus.Counter
	StreamRollbacks   prometheus.Counter
}

// New creates a metrics collector registered against reg. Pass
// prometheus.DefaultRegisterer for the process-wide registry, or a private
// registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ConnectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_connections_active",
			Help: "Number of currently open channel connections",
		}),
		FramesIn: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "realtime_frames_in_total",
				Help: "Total inbound frames by message type",
			},
			[]string{"type"},
		),
		FramesOut: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "realtime_frames_out_total",
				Help: "Total outbound frames by action",
			},
			[]string{"action"},
		),
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "realtime_reconnects_total",
			Help: "Total reconnect attempts scheduled after unexpected closes",
		}),
		DroppedFrames: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "realtime_frames_dropped_total",
				Help: "Total inbound frames dropped by reason",
			},
			[]string{"reason"},
		),
		HandlerPanics: factory.NewCounter(prometheus.CounterOpts{
			Name: "realtime_handler_panics_total",
			Help: "Total panics recovered from message handlers",
		}),
		StreamChunks: factory.NewCounter(prometheus.CounterOpts{
			Name: "realtime_stream_chunks_total",
			Help: "Total generation stream chunks accumulated",
		}),
		StreamRollbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "realtime_stream_rollbacks_total",
			Help: "Total generation sessions rolled back on error or cancel",
		}),
	}
}

// ConnOpened records a channel transitioning to open.
func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.ConnectionsActive.Inc()
}

// ConnClosed records a channel leaving the open state.
func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.ConnectionsActive.Dec()
}

// FrameIn records one inbound frame of the given type.
func (m *Metrics) FrameIn(msgType string) {
	if m == nil {
		return
	}
	m.FramesIn.WithLabelValues(msgType).Inc()
}

// FrameOut records one outbound frame with the given action.
func (m *Metrics) FrameOut(action string) {
	if m == nil {
		return
	}
	m.FramesOut.WithLabelValues(action).Inc()
}

// ReconnectScheduled records a scheduled reconnect attempt.
func (m *Metrics) ReconnectScheduled() {
	if m == nil {
		return
	}
	m.Reconnects.Inc()
}

// FrameDropped records an inbound frame dropped for the given reason
// ("malformed", "unhandled").
func (m *Metrics) FrameDropped(reason string) {
	if m == nil {
		return
	}
	m.DroppedFrames.WithLabelValues(reason).Inc()
}

// HandlerPanicked records a recovered handler panic.
func (m *Metrics) HandlerPanicked() {
	if m == nil {
		return
	}
	m.HandlerPanics.Inc()
}

// ChunkAccumulated records one stream chunk appended to an accumulator.
func (m *Metrics) ChunkAccumulated() {
	if m == nil {
		return
	}
	m.StreamChunks.Inc()
}

// StreamRolledBack records a generation session rollback.
func (m *Metrics) StreamRolledBack() {
	if m == nil {
		return
	}
	m.StreamRollbacks.Inc()
}
