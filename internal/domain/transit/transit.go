// Package transit finds the single global dip in a light curve and reports
// its depth, duration and shape.
package transit

import (
	"slices"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/stats"
)

// thresholdSigmas is how many median errors below baseline a point must sit to count as in-dip.
const thresholdSigmas = 2

// Analysis is the detector output plus the intermediate values behind it.
type Analysis struct {
	Scalars   model.TransitScalars
	Baseline  float64
	Threshold float64
	// DipPoints is the number of observations strictly below Threshold.
	DipPoints int
	// Start, End and Minimum are the times of the first dip point, the last
	// dip point and the global flux minimum. Only meaningful when DipPoints > 0.
	Start, End, Minimum float64
}

// Detect returns the transit scalars of one star's observations.
func Detect(obs []model.Observation) model.TransitScalars {
	return Analyze(obs).Scalars
}

// Analyze runs the detector and keeps the intermediate values. The input is
// not modified; a time-sorted copy is used.
func Analyze(obs []model.Observation) Analysis {
	if len(obs) == 0 {
		return Analysis{}
	}
	sorted := slices.Clone(obs)
	slices.SortStableFunc(sorted, func(a, b model.Observation) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})

	flux := make([]float64, len(sorted))
	errs := make([]float64, len(sorted))
	for i, o := range sorted {
		flux[i] = o.Flux
		errs[i] = o.FluxErr
	}
	baseline, _ := stats.Median(flux)
	medErr, _ := stats.Median(errs)
	a := Analysis{Baseline: baseline, Threshold: baseline - thresholdSigmas*medErr}

	first, last := -1, -1
	var dipMin float64
	for i, f := range flux {
		if !(f < a.Threshold) {
			continue
		}
		if first < 0 {
			first = i
			dipMin = f
		}
		last = i
		a.DipPoints++
		if f < dipMin {
			dipMin = f
		}
	}
	if first < 0 {
		return a
	}

	// first occurrence of the global minimum
	argmin := 0
	for i, f := range flux {
		if f < flux[argmin] {
			argmin = i
		}
	}

	a.Start = sorted[first].Time
	a.End = sorted[last].Time
	a.Minimum = sorted[argmin].Time

	// Depth is a fraction of the baseline and stays undefined for a zero or
	// negative one, while the timing scalars of the dip are still reported.
	if baseline > 0 {
		a.Scalars.Depth = model.Some((baseline - dipMin) / baseline)
	}
	a.Scalars.Duration = model.Some(a.End - a.Start)
	if a.Minimum > a.Start {
		a.Scalars.Ingress = model.Some(a.Minimum - a.Start)
	}
	if a.End > a.Minimum {
		a.Scalars.Egress = model.Some(a.End - a.Minimum)
	}
	if a.Scalars.Ingress.Valid && a.Scalars.Egress.Valid {
		a.Scalars.Symmetry = model.Some(a.Scalars.Ingress.Value / a.Scalars.Egress.Value)
	}
	return a
}
