package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/metrics"
)

// MemoryStore is an in-process Store guarded by a RWMutex.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*Entry
	order []string

	metricsUpdateInterval time.Duration
	now                   func() time.Time

	wg       sync.WaitGroup
	stopChan chan struct{}
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs a memory store and starts its metrics updater.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:                  make(map[string]*Entry),
		metricsUpdateInterval: 5 * time.Second,
		now:                   time.Now,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background metrics updater.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// Put implements Store.Put.
func (s *MemoryStore) Put(ctx context.Context, fv model.FeatureVector) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	if fv.StarID == "" {
		return ErrInvalidStar
	}
	start := time.Now()
	defer func() { metrics.RecordRepositoryLatency("put", time.Since(start)) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[fv.StarID]; !ok {
		s.order = append(s.order, fv.StarID)
	}
	s.byID[fv.StarID] = &Entry{Vector: fv, UpdatedAt: s.now()}
	return nil
}

// Get implements Store.Get. Rank is set when the star has been scored.
func (s *MemoryStore) Get(ctx context.Context, starID string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, fmt.Errorf("context cancelled: %w", err)
	}
	start := time.Now()
	defer func() { metrics.RecordRepositoryLatency("get", time.Since(start)) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[starID]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, starID)
	}
	out := *e
	if e.Probability.Valid {
		out.Rank = 1
		for _, other := range s.byID {
			if other != e && other.Probability.Valid && ranksBefore(other, e) {
				out.Rank++
			}
		}
	}
	return out, nil
}

// List implements Store.List.
func (s *MemoryStore) List(ctx context.Context) ([]model.FeatureVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.FeatureVector, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Vector)
	}
	return out, nil
}

// SetScore implements Store.SetScore.
func (s *MemoryStore) SetScore(ctx context.Context, starID string, probability float64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	start := time.Now()
	defer func() { metrics.RecordRepositoryLatency("set_score", time.Since(start)) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[starID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, starID)
	}
	e.Probability = model.Some(probability)
	e.UpdatedAt = s.now()
	return nil
}

// TopN implements Store.TopN.
func (s *MemoryStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	start := time.Now()
	defer func() { metrics.RecordRepositoryLatency("top_n", time.Since(start)) }()

	s.mu.RLock()
	scored := make([]*Entry, 0, len(s.byID))
	for _, e := range s.byID {
		if e.Probability.Valid {
			scored = append(scored, e)
		}
	}
	sort.Slice(scored, func(i, j int) bool { return ranksBefore(scored[i], scored[j]) })
	if len(scored) > n {
		scored = scored[:n]
	}
	out := make([]Entry, len(scored))
	for i, e := range scored {
		out[i] = *e
		out[i].Rank = i + 1
	}
	s.mu.RUnlock()
	return out, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// ranksBefore orders by probability desc, then star id asc.
func ranksBefore(a, b *Entry) bool {
	if a.Probability.Value != b.Probability.Value {
		return a.Probability.Value > b.Probability.Value
	}
	return a.Vector.StarID < b.Vector.StarID
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateFeatureVectorsStored(s.Count(ctx))
			}
		}
	}()
}
