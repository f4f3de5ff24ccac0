package loadtest

import (
	"slices"
	"time"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/stats"
)

// LatencySummary describes the request latencies of successful calls.
type LatencySummary struct {
	Count int           `json:"count"`
	Min   time.Duration `json:"min"`
	Mean  time.Duration `json:"mean"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
	Max   time.Duration `json:"max"`
}

// summarizeLatency reduces the latencies of the outcomes without an error.
func summarizeLatency(results []outcome) LatencySummary {
	xs := make([]float64, 0, len(results))
	for _, r := range results {
		if r.err == nil {
			xs = append(xs, float64(r.latency))
		}
	}
	if len(xs) == 0 {
		return LatencySummary{}
	}
	slices.Sort(xs)
	mean, _ := stats.Mean(xs)
	median, _ := stats.Median(xs)
	return LatencySummary{
		Count: len(xs),
		Min:   time.Duration(xs[0]),
		Mean:  time.Duration(mean),
		P50:   time.Duration(median),
		P95:   time.Duration(quantile(xs, 0.95)),
		P99:   time.Duration(quantile(xs, 0.99)),
		Max:   time.Duration(xs[len(xs)-1]),
	}
}

// quantile returns the nearest-rank quantile of sorted xs.
func quantile(sorted []float64, q float64) float64 {
	idx := int(q*float64(len(sorted))+0.999999) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}
