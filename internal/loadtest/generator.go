package loadtest

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/types"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/logger"
)

// Star is one synthetic light curve and whether a dip was injected.
type Star struct {
	ID      string                 `json:"star_id"`
	Transit bool                   `json:"transit"`
	Depth   float64                `json:"depth"`
	Rows    []types.ObservationRow `json:"rows"`
}

// seedFromRunID derives a generator seed from the run id.
func seedFromRunID(id uuid.UUID) uint64 {
	return binary.BigEndian.Uint64(id[:8])
}

// generateStars builds cfg.Stars light curves. Each star draws from its own
// PCG stream, so the output depends on the seed and never on scheduling.
func generateStars(ctx context.Context, cfg *Config, runID string, seed uint64) ([]Star, error) {
	logger.Get().Info(ctx, "generating synthetic light curves",
		logger.Int("stars", cfg.Stars), logger.Int("points", cfg.Points))

	prefix := runID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	stars := make([]Star, cfg.Stars)
	for i := range stars {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		rng := rand.New(rand.NewPCG(seed, uint64(i)))
		stars[i] = generateStar(rng, fmt.Sprintf("LT-%s-%05d", prefix, i), cfg.Points, rng.Float64() < cfg.TransitFraction)
	}
	return stars, nil
}

// generateStar draws a flat, normalized curve with Gaussian noise and, when
// transit is set, a single box-shaped dip away from the edges.
func generateStar(rng *rand.Rand, id string, points int, transit bool) Star {
	s := Star{ID: id, Transit: transit, Rows: make([]types.ObservationRow, points)}

	width := int(float64(points) * transitWidth)
	if width < 2 {
		width = 2
	}
	start := -1
	if transit {
		s.Depth = minTransitDepth + rng.Float64()*(maxTransitDepth-minTransitDepth)
		lo := points / 4
		start = lo + rng.IntN(points/2-width+1)
	}

	teff := model.Some(sunTeff + rng.NormFloat64()*300)
	radius := model.Some(1 + rng.NormFloat64()*0.15)
	mass := model.Some(1 + rng.NormFloat64()*0.1)
	logg := model.Some(sunLogg + rng.NormFloat64()*0.1)
	feh := model.Some(rng.NormFloat64() * 0.2)

	for i := range s.Rows {
		flux := 1 + rng.NormFloat64()*noiseSigma
		if transit && i >= start && i < start+width {
			flux -= s.Depth
		}
		s.Rows[i] = types.ObservationRow{
			StarID:  types.StarID(id),
			Time:    float64(i) * cadenceDays,
			Flux:    flux,
			FluxErr: noiseSigma,
			Teff:    teff,
			Radius:  radius,
			Mass:    mass,
			Logg:    logg,
			FeH:     feh,
		}
	}
	return s
}

// batches packs stars into request bodies of at most size stars.
func batches(stars []Star, size int) []types.PredictRequest {
	out := make([]types.PredictRequest, 0, (len(stars)+size-1)/size)
	for lo := 0; lo < len(stars); lo += size {
		hi := min(lo+size, len(stars))
		var req types.PredictRequest
		for _, s := range stars[lo:hi] {
			req.Data = append(req.Data, s.Rows...)
		}
		out = append(out, req)
	}
	return out
}
