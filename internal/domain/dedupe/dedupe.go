// Package dedupe remembers notification IDs so that a change delivered more
// than once is applied only once.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/podium/pkg/metrics"
)

// DefaultMaxSize is used when no WithMaxSize option is given.
const DefaultMaxSize = 100_000

// Deduper records seen notification IDs.
type Deduper interface {
	// SeenAndRecord reports whether id was already seen and records it if not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a redelivery is processed again. Used when a
	// notification was recorded but could not be applied.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// ringDeduper keeps IDs in insertion order inside a fixed ring. Unrecorded
// slots become holes that are skipped on eviction.
type ringDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // id -> slot in ring
	ring    []string
	head    int // next slot to write
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a deduper with FIFO eviction.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &ringDeduper{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}
	return d
}

func (d *ringDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		metrics.RecordNotificationDuplicate()
		return true
	}

	if d.ring == nil {
		d.seen[id] = -1
		d.size.Add(1)
		return false
	}

	if old := d.ring[d.head]; old != "" {
		delete(d.seen, old)
		d.size.Add(-1)
	}
	d.ring[d.head] = id
	d.seen[id] = d.head
	d.head = (d.head + 1) % len(d.ring)
	d.size.Add(1)
	return false
}

func (d *ringDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.seen[id]
	if !ok {
		return
	}
	delete(d.seen, id)
	if slot >= 0 {
		d.ring[slot] = ""
	}
	d.size.Add(-1)
}

func (d *ringDeduper) Size() int64 {
	return d.size.Load()
}
