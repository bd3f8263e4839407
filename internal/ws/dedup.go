package ws

import "sync"

// Deduper tracks recently seen message IDs. Overlapping reconnects can
// deliver the same inbound message twice; there is no at-most-once
// guarantee on the wire, so consumers deduplicate by message id.
type Deduper struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
	cap   int
}

// NewDeduper creates a deduper remembering up to capacity IDs.
func NewDeduper(capacity int) *Deduper {
	if capacity <= 0 {
		capacity = 512
	}
	return &Deduper{
		seen: make(map[string]struct{}, capacity),
		cap:  capacity,
	}
}

// Seen marks id as delivered and reports whether it was already seen.
// The oldest entry is evicted once capacity is exceeded.
func (d *Deduper) Seen(id string) bool {
	if id == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	d.seen[id] = struct{}{}
	d.order = append(d.order, id)
	if len(d.order) > d.cap {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
	}
	return false
}
