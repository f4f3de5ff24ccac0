// Package service wires the classifier, the catalog client and the feature
// store into the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/catalog"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/http/api"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/repository"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/config"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/classifier"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/logger"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/metrics"
)

const catalogCacheTTL = 7 * 24 * time.Hour

// Service owns the long-lived components behind the API.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	model   *classifier.Model
	catalog *catalog.Client
	cache   *catalog.BadgerCache
	store   repository.Store

	// ownStore is false when the store was injected and must not be closed here.
	ownStore bool

	started   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig replaces the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithModel uses an already loaded model instead of reading ModelPath.
func WithModel(m *classifier.Model) Option {
	return func(s *Service) { s.model = m }
}

// WithStore uses the given feature store instead of opening one from config.
func WithStore(store repository.Store) Option {
	return func(s *Service) { s.store = store }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{cfg: config.New()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the model and opens the catalog cache and the feature store.
// A missing model file is not fatal: the API answers 503 on /predict until
// the service is restarted with a trained artifact.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting exoscan service...")

	if s.model == nil {
		m, err := classifier.Load(s.cfg.ModelPath)
		switch {
		case err == nil:
			s.model = m
		case errors.Is(err, fs.ErrNotExist):
			s.logger.Warn(ctx, "model artifact not found, predictions disabled", logger.String("path", s.cfg.ModelPath))
		default:
			return fmt.Errorf("load model: %w", err)
		}
	}

	if s.cfg.CatalogURL != "" {
		opts := []catalog.Option{
			catalog.WithBaseURL(s.cfg.CatalogURL),
			catalog.WithTimeout(s.cfg.CatalogTimeout()),
			catalog.WithRetry(s.cfg.CatalogRetries+1, 0),
		}
		if s.cfg.CatalogCacheDir != "" {
			cache, err := catalog.OpenBadgerCache(s.cfg.CatalogCacheDir, catalogCacheTTL)
			if err != nil {
				return err
			}
			s.cache = cache
			opts = append(opts, catalog.WithCache(cache))
		}
		s.catalog = catalog.New(opts...)
	}

	if s.store == nil {
		store, err := s.openStore(ctx)
		if err != nil {
			s.closeCache(ctx)
			return err
		}
		s.store = store
		s.ownStore = true
	}

	metrics.UpdateWorkerCount(s.cfg.WorkerCount)
	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "exoscan service started",
		logger.Bool("modelLoaded", s.model != nil),
		logger.Bool("catalog", s.catalog != nil),
		logger.Bool("catalogCache", s.cache != nil),
		logger.Int("workers", s.cfg.WorkerCount),
	)
	return nil
}

func (s *Service) openStore(ctx context.Context) (repository.Store, error) {
	if s.cfg.FeaturesDSN == "" {
		s.logger.Info(ctx, "using in-memory feature store")
		return repository.NewMemoryStore(ctx), nil
	}
	store, err := repository.OpenPostgres(ctx, s.cfg.FeaturesDSN)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "using postgres feature store")
	return store, nil
}

// Stop closes what Start opened.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping exoscan service...")

	if s.ownStore && s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "close feature store", logger.Error(err))
		}
		s.store = nil
		s.ownStore = false
	}
	s.closeCache(ctx)
	s.catalog = nil

	s.started = false
	s.logger.Info(ctx, "exoscan service stopped")
}

func (s *Service) closeCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Close(); err != nil {
		s.logger.Warn(ctx, "close catalog cache", logger.Error(err))
	}
	s.cache = nil
}

// Dependencies returns the API dependencies backed by the started service.
// Nil members are left nil so the API disables what they would back.
func (s *Service) Dependencies() api.Dependencies {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var deps api.Dependencies
	if s.model != nil {
		deps.Model = s.model
	}
	if s.catalog != nil {
		deps.Attributes = s.catalog
	}
	deps.Store = s.store
	return deps
}

// Model returns the loaded classifier, or nil.
func (s *Service) Model() *classifier.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.cfg.WorkerCount,
		"queueSize":   s.cfg.QueueSize,
		"modelLoaded": s.model != nil,
		"catalog":     s.catalog != nil,
	}
	if s.model != nil {
		if rep := s.model.Artifact().Report; rep != nil {
			stats["model"] = *rep
		}
	}
	if s.started {
		stats["uptimeSeconds"] = int(time.Since(s.startedAt).Seconds())
		if s.store != nil {
			n := s.store.Count(context.Background())
			stats["featureVectors"] = n
			metrics.UpdateFeatureVectorsStored(n)
		}
	}
	return stats
}
