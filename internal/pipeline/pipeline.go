// Package pipeline runs feature extraction over a batch of stars. Stars are
// independent: each one is processed by a worker from the pool and the
// results are put back in input order, so the output matches a sequential run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/mq/queue"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/mq/worker"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/repository"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/samples"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/logger"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/metrics"
)

// Skipped records a star left out of the batch.
type Skipped struct {
	StarID string `json:"star_id"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Result is the outcome of a batch. Vectors follow the input order.
type Result struct {
	Vectors []model.FeatureVector
	Skipped []Skipped
	Elapsed time.Duration
}

// Option configures Run.
type Option func(*config)

type config struct {
	workers      int
	queueSize    int
	attrs        AttributeSource
	labels       LabelSource
	store        repository.Store
	progress     func(done, total int)
	drainTimeout time.Duration
}

const defaultDrainTimeout = 30 * time.Second

// WithWorkers sets the number of workers. Values below one use one per CPU.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithQueueSize bounds the job queue.
func WithQueueSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// WithAttributeSource sets where attributes come from when a star's rows have none.
func WithAttributeSource(a AttributeSource) Option {
	return func(c *config) { c.attrs = a }
}

// WithLabelSource sets where labels come from when a star's rows have none.
func WithLabelSource(l LabelSource) Option {
	return func(c *config) { c.labels = l }
}

// WithStore persists every extracted vector.
func WithStore(s repository.Store) Option {
	return func(c *config) { c.store = s }
}

// WithProgress calls fn after each star finishes, from the worker goroutine
// that processed it. fn must be safe for concurrent use.
func WithProgress(fn func(done, total int)) Option {
	return func(c *config) { c.progress = fn }
}

// WithDrainTimeout bounds how long an interrupted batch waits for in-flight
// stars. Stars still running after that are left out of the result.
func WithDrainTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.drainTimeout = d
		}
	}
}

type outcome struct {
	fv  model.FeatureVector
	err error
}

// collector gathers per-star outcomes. Once sealed, late writes from workers
// that outlived the drain timeout are dropped.
type collector struct {
	mu       sync.Mutex
	outcomes []outcome
	done     []bool
	finished int
	sealed   bool
}

func newCollector(n int) *collector {
	return &collector{outcomes: make([]outcome, n), done: make([]bool, n)}
}

func (c *collector) record(i int, o outcome) (finished int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		return c.finished, false
	}
	c.outcomes[i] = o
	c.done[i] = true
	c.finished++
	return c.finished, true
}

func (c *collector) seal() ([]outcome, []bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sealed = true
	return c.outcomes, c.done
}

// Run extracts the feature vector of every star in ids. Per-star failures are
// logged and reported in Result.Skipped. Run returns an error only when ctx
// ends before the batch completes; the partial result is still returned.
func Run(ctx context.Context, ids []string, src samples.Source, opts ...Option) (Result, error) {
	cfg := config{workers: runtime.NumCPU(), queueSize: 1024, drainTimeout: defaultDrainTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	log := logger.Get().Named("pipeline")
	start := time.Now()

	ex := NewExtractor(src, cfg.attrs, cfg.labels)
	col := newCollector(len(ids))

	q := queue.NewInMemoryQueue(queue.WithCapacity(cfg.queueSize))
	pool := worker.NewPool(min(cfg.workers, max(len(ids), 1)), q, worker.HandlerFunc(func(ctx context.Context, job worker.Job) error {
		fv, err := ex.Extract(ctx, job.StarID)
		if err == nil && cfg.store != nil {
			if perr := cfg.store.Put(ctx, fv); perr != nil {
				err = fmt.Errorf("store star %s: %w", job.StarID, perr)
			}
		}
		n, ok := col.record(job.Index, outcome{fv: fv, err: err})
		if ok && cfg.progress != nil {
			cfg.progress(n, len(ids))
		}
		return nil
	}))
	pool.Start(ctx)

	var runErr error
	for i, id := range ids {
		if err := q.Submit(ctx, queue.Job{Index: i, StarID: id}); err != nil {
			runErr = err
			break
		}
	}
	_ = q.Close()
	if err := pool.Wait(ctx); err != nil && runErr == nil {
		runErr = err
	}
	if runErr == nil {
		runErr = ctx.Err()
	}
	if runErr != nil {
		drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.drainTimeout)
		if err := pool.Shutdown(drainCtx); err != nil {
			log.Warn(ctx, "stars still running after drain timeout are dropped", logger.Error(err))
		}
		cancel()
	}
	outcomes, done := col.seal()

	res := Result{Vectors: make([]model.FeatureVector, 0, len(ids))}
	for i, id := range ids {
		if !done[i] {
			continue
		}
		o := outcomes[i]
		if o.err != nil {
			reason := Reason(o.err)
			metrics.RecordStarSkipped(reason)
			log.Warn(ctx, "skipping star", logger.String("star_id", id), logger.String("reason", reason), logger.Error(o.err))
			res.Skipped = append(res.Skipped, Skipped{StarID: id, Reason: reason, Err: o.err})
			continue
		}
		res.Vectors = append(res.Vectors, o.fv)
	}
	res.Elapsed = time.Since(start)

	log.Info(ctx, "batch finished",
		logger.Int("stars", len(ids)),
		logger.Int("vectors", len(res.Vectors)),
		logger.Int("skipped", len(res.Skipped)),
		logger.String("elapsed", res.Elapsed.String()),
	)
	if runErr != nil {
		return res, fmt.Errorf("batch interrupted: %w", runErr)
	}
	return res, nil
}

// Matrix lays vectors out as rows in featureOrder for the classifier.
// Undefined values become NaN. featureOrder must equal the fixed column
// order exactly; anything else is ErrSchemaMismatch.
func Matrix(vectors []model.FeatureVector, featureOrder []string) ([][]float64, error) {
	if !model.SameOrder(featureOrder) {
		return nil, fmt.Errorf("%w: expected %v, got %v", ErrSchemaMismatch, model.FeatureNames(), featureOrder)
	}
	out := make([][]float64, len(vectors))
	for i := range vectors {
		row := make([]float64, model.NumFeatures)
		for j, v := range vectors[i].Values {
			row[j] = v.OrElse(math.NaN())
		}
		out[i] = row
	}
	return out, nil
}

// FirstError returns the error of the first skipped star, or nil.
func (r Result) FirstError() error {
	if len(r.Skipped) == 0 {
		return nil
	}
	s := r.Skipped[0]
	if s.Err != nil {
		return s.Err
	}
	return errors.New(s.Reason)
}
