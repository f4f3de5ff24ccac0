package model

import (
	"fmt"
	"slices"
)

// Feature indexes into FeatureVector.Values. The order is the column order of
// every feature matrix and model artifact.
type Feature int

// Feature columns.
const (
	FluxMean Feature = iota
	FluxStd
	FluxSkew
	FluxKurt
	ErrMean
	ErrStd
	DepthMean
	DepthStd
	DurationMean
	DurationStd
	IngressMean
	EgressMean
	RatioIngressEgress
	DepthOverDuration
	Teff
	Radius
	Mass
	Logg
	FeH

	NumFeatures int = iota
)

var featureNames = [NumFeatures]string{
	"flux_mean", "flux_std", "flux_skew", "flux_kurt",
	"err_mean", "err_std",
	"depth_mean", "depth_std", "duration_mean", "duration_std",
	"ingress_mean", "egress_mean",
	"ratio_ingress_egress", "depth_over_duration",
	"teff", "radius", "mass", "logg", "feh",
}

// FeatureNames returns a copy of the fixed column order.
func FeatureNames() []string {
	return slices.Clone(featureNames[:])
}

// String returns the column name.
func (f Feature) String() string {
	if f < 0 || int(f) >= NumFeatures {
		return fmt.Sprintf("feature(%d)", int(f))
	}
	return featureNames[f]
}

// FeatureByName resolves a column name.
func FeatureByName(name string) (Feature, error) {
	for i, n := range featureNames {
		if n == name {
			return Feature(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFeature, name)
}

// SameOrder reports whether order equals the fixed column order exactly.
func SameOrder(order []string) bool {
	return slices.Equal(order, featureNames[:])
}

// FeatureVector is the per-star aggregate fed to the classifier.
type FeatureVector struct {
	StarID string
	Values [NumFeatures]Optional
	Label  Label
}

// Get returns the value of one column.
func (fv *FeatureVector) Get(f Feature) Optional { return fv.Values[f] }

// Set stores the value of one column.
func (fv *FeatureVector) Set(f Feature, v Optional) { fv.Values[f] = v }

// Undefined lists the columns holding no value.
func (fv *FeatureVector) Undefined() []string {
	var out []string
	for i, v := range fv.Values {
		if !v.Valid {
			out = append(out, featureNames[i])
		}
	}
	return out
}

// Complete reports whether every column is defined.
func (fv *FeatureVector) Complete() bool {
	for _, v := range fv.Values {
		if !v.Valid {
			return false
		}
	}
	return true
}

// Floats returns the values in column order. ok is false when any column is undefined.
func (fv *FeatureVector) Floats() (out []float64, ok bool) {
	out = make([]float64, NumFeatures)
	for i, v := range fv.Values {
		if !v.Valid {
			return nil, false
		}
		out[i] = v.Value
	}
	return out, true
}

// Map returns the vector keyed by column name; undefined values map to nil.
func (fv *FeatureVector) Map() map[string]*float64 {
	out := make(map[string]*float64, NumFeatures)
	for i, v := range fv.Values {
		if v.Valid {
			val := v.Value
			out[featureNames[i]] = &val
		} else {
			out[featureNames[i]] = nil
		}
	}
	return out
}
