// Package loadtest drives a running exoscan server with synthetic light
// curves and reports throughput, latency and score separation.
package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/logger"
)

// Run executes the complete load test.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	runID := uuid.New()
	seed := cfg.Seed
	if seed == 0 {
		seed = seedFromRunID(runID)
	}
	st := &Stats{RunID: runID.String(), StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting predict load test",
		logger.String("runID", st.RunID),
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("stars", cfg.Stars),
		logger.Int("starsPerRequest", cfg.StarsPerRequest),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", seed))

	if err := checkServiceHealth(ctx, cfg); err != nil {
		return st, fmt.Errorf("service health check failed: %w", err)
	}

	stars, err := generateStars(ctx, cfg, st.RunID, seed)
	if err != nil {
		return st, fmt.Errorf("generation failed: %w", err)
	}
	st.StarsGenerated = len(stars)
	if cfg.OutputFile != "" {
		if err := saveStarsToFile(cfg.OutputFile, stars); err != nil {
			log.Warn(ctx, "failed to save stars to file", logger.Error(err))
		}
	}

	results := submitBatches(ctx, cfg, batches(stars, cfg.StarsPerRequest))
	st.RequestsSubmitted = len(results)
	for _, r := range results {
		if r.err != nil {
			st.RequestsFailed++
			continue
		}
		st.RequestsSuccessful++
		st.StarsScored += len(r.predictions)
	}
	st.Latency = summarizeLatency(results)

	st.Separation, err = verifyResults(ctx, stars, results)
	st.EndTime = time.Now()
	st.Duration = st.EndTime.Sub(st.StartTime)
	displayFinalStats(ctx, st)
	if err != nil {
		return st, fmt.Errorf("result verification failed: %w", err)
	}
	return st, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	resp, err := newHTTPClient(cfg.Timeout).Get(ctx, cfg.BaseURL+"/health")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}

func saveStarsToFile(path string, stars []Star) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(stars, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, logFilePermission)
}

func displayFinalStats(ctx context.Context, st *Stats) {
	var successRate, starsPerSecond float64
	if st.RequestsSubmitted > 0 {
		successRate = float64(st.RequestsSuccessful) / float64(st.RequestsSubmitted) * PercentageMultiplier
	}
	if st.Duration > 0 {
		starsPerSecond = float64(st.StarsScored) / st.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.String("runID", st.RunID),
		logger.Int("starsGenerated", st.StarsGenerated),
		logger.Int("requestsSubmitted", st.RequestsSubmitted),
		logger.Int("requestsSuccessful", st.RequestsSuccessful),
		logger.Int("requestsFailed", st.RequestsFailed),
		logger.Int("starsScored", st.StarsScored),
		logger.String("latencyP50", st.Latency.P50.String()),
		logger.String("latencyP95", st.Latency.P95.String()),
		logger.String("latencyP99", st.Latency.P99.String()),
		logger.Float64("transitMean", st.Separation.TransitMean),
		logger.Float64("flatMean", st.Separation.FlatMean),
		logger.String("duration", st.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("starsPerSecond", starsPerSecond))
}
