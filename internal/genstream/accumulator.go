package genstream

import "strings"

// Phase is the lifecycle of one generation session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStreaming
	PhaseCommitted
	PhaseRolledBack
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStreaming:
		return "streaming"
	case PhaseCommitted:
		return "committed"
	case PhaseRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// Accumulator buffers streamed chunks for one generation session and holds
// the pre-stream snapshot for rollback. Not safe for concurrent use; the
// Client serializes access under its own mutex.
//
// The snapshot is captured in Begin, which runs synchronously before the
// generate request is sent. A near-instant error frame therefore can never
// race an unset snapshot, and rollback is byte-identical to the content the
// caller had when the session started.
type Accumulator struct {
	phase    Phase
	snapshot string
	buf      strings.Builder
}

// Begin snapshots the caller's current content and enters Streaming.
func (a *Accumulator) Begin(current string) {
	a.snapshot = current
	a.buf.Reset()
	a.phase = PhaseStreaming
}

// Restart discards chunks buffered so far, keeping the snapshot. The
// server sends a start frame when generation actually begins; anything
// accumulated before it belongs to a superseded attempt.
func (a *Accumulator) Restart() {
	if a.phase == PhaseStreaming {
		a.buf.Reset()
	}
}

// Append adds one chunk in arrival order. Ignored outside Streaming.
func (a *Accumulator) Append(chunk string) {
	if a.phase == PhaseStreaming {
		a.buf.WriteString(chunk)
	}
}

// Content returns the chunks accumulated since Begin (or the last Restart),
// concatenated in arrival order.
func (a *Accumulator) Content() string {
	return a.buf.String()
}

// Commit ends the session with the server's full payload and returns the
// committed content. An empty full payload falls back to the accumulated
// chunks.
func (a *Accumulator) Commit(full string) string {
	if full == "" {
		full = a.buf.String()
	}
	a.phase = PhaseCommitted
	return full
}

// Rollback ends the session and returns the pre-stream snapshot.
func (a *Accumulator) Rollback() string {
	a.phase = PhaseRolledBack
	return a.snapshot
}

// Phase returns the current phase.
func (a *Accumulator) Phase() Phase {
	return a.phase
}

// Snapshot returns the content captured when the session began.
func (a *Accumulator) Snapshot() string {
	return a.snapshot
}
