package loadtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/stats"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/logger"
)

// Separation compares the scores of stars with and without an injected dip.
type Separation struct {
	TransitStars  int     `json:"transit_stars"`
	FlatStars     int     `json:"flat_stars"`
	TransitMean   float64 `json:"transit_mean"`
	FlatMean      float64 `json:"flat_mean"`
	Missing       int     `json:"missing"`
	Unexpected    int     `json:"unexpected"`
	OutOfInterval int     `json:"out_of_interval"`
}

// Gap is the difference between the mean transit and mean flat probability.
func (s Separation) Gap() float64 { return s.TransitMean - s.FlatMean }

var errNoScores = errors.New("no star was scored")

// verifyResults matches predictions to the generated stars and checks that
// every returned probability lies inside its own confidence interval.
func verifyResults(ctx context.Context, stars []Star, results []outcome) (Separation, error) {
	want := make(map[string]bool, len(stars))
	for _, s := range stars {
		want[s.ID] = s.Transit
	}

	var sep Separation
	var transit, flat []float64
	seen := make(map[string]bool, len(stars))
	for _, r := range results {
		for _, p := range r.predictions {
			isTransit, ok := want[p.StarID]
			if !ok {
				sep.Unexpected++
				continue
			}
			seen[p.StarID] = true
			pct := p.Probability * PercentageMultiplier
			if pct < p.ConfidenceInterval.LowerBound-0.01 || pct > p.ConfidenceInterval.UpperBound+0.01 {
				sep.OutOfInterval++
			}
			if isTransit {
				transit = append(transit, p.Probability)
			} else {
				flat = append(flat, p.Probability)
			}
		}
	}
	sep.Missing = len(stars) - len(seen)
	sep.TransitStars, sep.FlatStars = len(transit), len(flat)
	sep.TransitMean, _ = stats.Mean(transit)
	sep.FlatMean, _ = stats.Mean(flat)

	if len(transit)+len(flat) == 0 {
		return sep, errNoScores
	}
	if sep.Unexpected > 0 {
		return sep, fmt.Errorf("%d predictions for stars that were never submitted", sep.Unexpected)
	}
	if sep.OutOfInterval > 0 {
		logger.Get().Warn(ctx, "probabilities outside their confidence interval", logger.Int("count", sep.OutOfInterval))
	}
	if sep.TransitStars > 0 && sep.FlatStars > 0 && sep.Gap() <= 0 {
		logger.Get().Warn(ctx, "transit stars do not outscore flat stars",
			logger.Float64("transitMean", sep.TransitMean), logger.Float64("flatMean", sep.FlatMean))
	}
	return sep, nil
}
