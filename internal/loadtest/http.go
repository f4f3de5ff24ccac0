package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/types"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/logger"
)

const maxResponseBytes = 32 << 20

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post sends body as JSON and returns the status and the response body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (int, []byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	return resp.StatusCode, out, err
}

// outcome is the result of one /predict call.
type outcome struct {
	latency     time.Duration
	predictions []types.StarPrediction
	err         error
}

// submitBatches posts every request with cfg.Workers workers and returns one
// outcome per request, in request order.
func submitBatches(ctx context.Context, cfg *Config, reqs []types.PredictRequest) []outcome {
	log := logger.Get()
	log.Info(ctx, "submitting predict requests",
		logger.Int("requests", len(reqs)), logger.Int("workers", cfg.Workers))

	client := newHTTPClient(cfg.Timeout)
	url := cfg.BaseURL + "/predict"
	results := make([]outcome, len(reqs))

	var (
		done   atomic.Int64
		failed atomic.Int64
		wg     sync.WaitGroup
	)
	jobs := make(chan int, cfg.Workers*WorkerChannelMultiplier)
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = submitOne(ctx, client, url, reqs[i])
				if results[i].err != nil {
					failed.Add(1)
					if cfg.Verbose {
						log.Warn(ctx, "predict request failed", logger.Int("request", i), logger.Error(results[i].err))
					}
				}
				done.Add(1)
			}
		}()
	}

	stopProgress := make(chan struct{})
	go func() {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stopProgress:
				return
			case <-ticker.C:
				log.Info(ctx, "progress",
					logger.Int("done", int(done.Load())), logger.Int("total", len(reqs)),
					logger.Int("failed", int(failed.Load())))
			}
		}
	}()

	for i := range reqs {
		if ctx.Err() != nil {
			results[i] = outcome{err: ctx.Err()}
			continue
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(stopProgress)
	return results
}

func submitOne(ctx context.Context, client *HTTPClient, url string, req types.PredictRequest) outcome {
	start := time.Now()
	status, body, err := client.Post(ctx, url, req)
	o := outcome{latency: time.Since(start)}
	if err != nil {
		o.err = err
		return o
	}
	if status != http.StatusOK {
		o.err = fmt.Errorf("status %d: %s", status, bytes.TrimSpace(body))
		return o
	}
	var resp types.PredictResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		o.err = fmt.Errorf("decode response: %w", err)
		return o
	}
	o.predictions = resp.Predictions
	return o
}
