// Package stats holds the numeric reductions used by the detector and the aggregator.
//
// Every function is pure and reads its input in order, so results are bit
// identical across runs for the same input.
package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// momentResolution mirrors the float64 resolution used to decide that a
// central moment is numerically zero.
const momentResolution = 1e-15

// Median returns the median of xs, averaging the two middle values for even
// lengths. ok is false for an empty input.
func Median(xs []float64) (m float64, ok bool) {
	n := len(xs)
	if n == 0 {
		return 0, false
	}
	s := slices.Clone(xs)
	slices.Sort(s)
	if n%2 == 1 {
		return s[n/2], true
	}
	return (s[n/2-1] + s[n/2]) / 2, true
}

// Mean returns the arithmetic mean. It accumulates deviations from the first
// element so a constant input returns that constant exactly.
func Mean(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	shift := xs[0]
	var sum float64
	for _, x := range xs {
		sum += x - shift
	}
	return shift + sum/float64(len(xs)), true
}

// Moments holds the mean and the biased central moments of a sample.
type Moments struct {
	N    int
	Mean float64
	M2   float64
	M3   float64
	M4   float64
}

// CentralMoments computes the mean and the second to fourth central moments
// (divided by n). The moments are taken about Mean so a constant input has
// exactly zero spread.
func CentralMoments(xs []float64) (Moments, bool) {
	mean, ok := Mean(xs)
	if !ok {
		return Moments{}, false
	}
	return Moments{
		N:    len(xs),
		Mean: mean,
		M2:   stat.MomentAbout(2, xs, mean, nil),
		M3:   stat.MomentAbout(3, xs, mean, nil),
		M4:   stat.MomentAbout(4, xs, mean, nil),
	}, true
}

// Std is the population standard deviation.
func (m Moments) Std() float64 {
	return math.Sqrt(m.M2)
}

// degenerate reports a variance too small to divide by.
func (m Moments) degenerate() bool {
	lim := momentResolution * m.Mean
	return m.M2 <= lim*lim
}

// Skew is the biased Fisher-Pearson skewness, m3 / m2^1.5. stat.Skew applies
// the sample size correction, which the aggregated features do not. ok is
// false when the variance is numerically zero.
func (m Moments) Skew() (float64, bool) {
	if m.N == 0 || m.degenerate() {
		return 0, false
	}
	return m.M3 / math.Pow(m.M2, 1.5), true
}

// ExcessKurtosis is the biased Fisher kurtosis (normal distribution = 0).
// ok is false when the variance is numerically zero.
func (m Moments) ExcessKurtosis() (float64, bool) {
	if m.N == 0 || m.degenerate() {
		return 0, false
	}
	return m.M4/(m.M2*m.M2) - 3, true
}

// Std returns the population standard deviation of xs.
func Std(xs []float64) (float64, bool) {
	m, ok := CentralMoments(xs)
	if !ok {
		return 0, false
	}
	return m.Std(), true
}
