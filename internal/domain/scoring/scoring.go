// Package scoring turns a feature vector into a planet probability with a
// normal-approximation confidence interval.
package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/metrics"
)

// DefaultZ is the two-sided 95% normal quantile.
const DefaultZ = 1.96

// Option applies a configuration option to the ClassifierScorer.
type Option func(*ClassifierScorer)

// WithZ sets the normal quantile used for the margin.
func WithZ(z float64) Option {
	return func(s *ClassifierScorer) {
		if z > 0 {
			s.z = z
		}
	}
}

// Input is the vector of one star.
type Input struct {
	Vector *model.FeatureVector
}

// Result is the scored star.
type Result struct {
	StarID      string
	Probability float64
	Margin      float64
	Lower       float64
	Upper       float64
}

// Scorer computes a probability for one star, honoring ctx for cancellation.
type Scorer interface {
	Score(ctx context.Context, in Input) (Result, error)
}

// Predictor is the part of a trained model the scorer needs.
type Predictor interface {
	PredictVector(fv *model.FeatureVector) (float64, error)
	Classes() []int
}

// ClassifierScorer implements Scorer over a Predictor.
type ClassifierScorer struct {
	predictor Predictor
	z         float64
}

// NewClassifierScorer creates a scorer backed by a trained model.
func NewClassifierScorer(p Predictor, opts ...Option) *ClassifierScorer {
	s := &ClassifierScorer{predictor: p, z: DefaultZ}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score predicts the probability of the positive class.
func (s *ClassifierScorer) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	if in.Vector == nil {
		return Result{}, fmt.Errorf("score: nil feature vector")
	}
	start := time.Now()
	p, err := s.predictor.PredictVector(in.Vector)
	if err != nil {
		return Result{}, fmt.Errorf("score star %s: %w", in.Vector.StarID, err)
	}
	margin, lo, hi := Interval(p, len(s.predictor.Classes()), s.z)
	metrics.RecordPrediction(p, time.Since(start))
	return Result{StarID: in.Vector.StarID, Probability: p, Margin: margin, Lower: lo, Upper: hi}, nil
}

// Interval returns margin = z*sqrt(p(1-p)/n) and the interval clipped to [0, 1].
func Interval(p float64, n int, z float64) (margin, lower, upper float64) {
	if n <= 0 {
		n = 1
	}
	margin = z * math.Sqrt(p*(1-p)/float64(n))
	return margin, math.Max(0, p-margin), math.Min(1, p+margin)
}

// Percent scales a fraction to a percentage rounded to two decimals.
func Percent(v float64) float64 {
	return math.Round(v*100*100) / 100
}
