// Package dedupe tracks observation keys already seen during ingest so that
// overlapping exports of the same light curve are loaded once.
package dedupe

import (
	"container/list"
	"math"
	"strconv"
	"sync"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
)

// Deduper records seen keys.
type Deduper interface {
	// SeenAndRecord reports whether key was seen before and records it if not.
	SeenAndRecord(key string) bool
	// Unrecord forgets key, e.g. when the row it guarded was later rejected.
	Unrecord(key string)
	Size() int
}

// Key identifies an observation by star and exact sample time.
func Key(o model.Observation) string {
	return o.StarID + "\x00" + strconv.FormatUint(math.Float64bits(o.Time), 16)
}

// inMemoryDeduper keeps keys in a map. In bounded mode a list in insertion
// order evicts the oldest key once maxSize is reached.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
}

// NewInMemoryDeduper creates a deduper. By default it is unbounded.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize <= 0 {
		d.seen[key] = nil
		return false
	}
	if d.order.Len() >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.seen, oldest.Value.(string))
	}
	d.seen[key] = d.order.PushBack(key)
	return false
}

func (d *inMemoryDeduper) Unrecord(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	el, ok := d.seen[key]
	if !ok {
		return
	}
	delete(d.seen, key)
	if el != nil {
		d.order.Remove(el)
	}
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
