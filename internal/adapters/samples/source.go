// Package samples loads light-curve observations and serves them per star.
package samples

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/dedupe"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
)

// Source serves the ingested rows of each star.
type Source interface {
	// StarIDs returns every star in first-seen order.
	StarIDs(ctx context.Context) ([]string, error)
	// Records returns the rows of one star in ingest order, or ErrNotFound.
	Records(ctx context.Context, starID string) ([]model.Record, error)
}

// MemoryStore is a Source held in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	ids   []string
	stars map[string][]model.Record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stars: make(map[string][]model.Record)}
}

// Put appends one record.
func (m *MemoryStore) Put(rec model.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stars[rec.StarID]; !ok {
		m.ids = append(m.ids, rec.StarID)
	}
	m.stars[rec.StarID] = append(m.stars[rec.StarID], rec)
}

// StarIDs implements Source.
func (m *MemoryStore) StarIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.ids...), nil
}

// Records implements Source.
func (m *MemoryStore) Records(_ context.Context, starID string) ([]model.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs, ok := m.stars[starID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, starID)
	}
	return append([]model.Record(nil), recs...), nil
}

// Len returns the number of stars.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Report counts what happened to the rows offered to a Builder.
type Report struct {
	Rows     int            `json:"rows"`
	Accepted int            `json:"accepted"`
	Dropped  map[string]int `json:"dropped"`
}

// DroppedTotal sums the dropped rows over all reasons.
func (r Report) DroppedTotal() int {
	n := 0
	for _, v := range r.Dropped {
		n += v
	}
	return n
}

// Option configures a Builder.
type Option func(*Builder)

// WithStrict makes the builder reject invalid rows instead of dropping them.
func WithStrict(strict bool) Option {
	return func(b *Builder) { b.strict = strict }
}

// WithDeduper drops rows whose (star_id, time) was already accepted.
func WithDeduper(d dedupe.Deduper) Option {
	return func(b *Builder) { b.deduper = d }
}

// Builder validates rows and fills a MemoryStore.
type Builder struct {
	store   *MemoryStore
	strict  bool
	deduper dedupe.Deduper
	report  Report
}

// NewBuilder creates a builder over a fresh MemoryStore.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{store: NewMemoryStore(), report: Report{Dropped: map[string]int{}}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add validates and stores one record. In strict mode an invalid row is an
// error wrapping ErrMalformed; otherwise it is counted and skipped.
func (b *Builder) Add(rec model.Record) error {
	b.report.Rows++
	rec.StarID = model.NormalizeStarID(rec.StarID)

	if reason := dropReason(rec.Observation); reason != "" {
		if b.strict {
			return fmt.Errorf("%w: row %d: %s", ErrMalformed, b.report.Rows, strings.ReplaceAll(reason, "_", " "))
		}
		b.report.Dropped[reason]++
		return nil
	}
	if b.deduper != nil && b.deduper.SeenAndRecord(dedupe.Key(rec.Observation)) {
		b.report.Dropped[DropDuplicate]++
		return nil
	}
	b.store.Put(rec)
	b.report.Accepted++
	return nil
}

// Store returns the filled store.
func (b *Builder) Store() *MemoryStore { return b.store }

// Report returns the ingest counters.
func (b *Builder) Report() Report {
	r := b.report
	r.Dropped = make(map[string]int, len(b.report.Dropped))
	for k, v := range b.report.Dropped {
		r.Dropped[k] = v
	}
	return r
}

func dropReason(o model.Observation) string {
	switch {
	case o.StarID == "":
		return DropEmptyID
	case !finite(o.Time), !finite(o.Flux), !finite(o.FluxErr):
		return DropNonFinite
	case o.FluxErr < 0:
		return DropNegativeErr
	}
	return ""
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
