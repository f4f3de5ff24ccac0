// Package features collapses the broadcast rows of one star into a single
// fixed-width feature vector.
package features

import (
	"fmt"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/stats"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/transit"
)

// Epsilon keeps the two ratio features finite when the denominator mean is zero.
const Epsilon = 1e-6

// Aggregate reduces the rows of one star. All rows must share star id,
// static attributes and label.
func Aggregate(rows []model.Row) (model.FeatureVector, error) {
	var fv model.FeatureVector
	if len(rows) == 0 {
		return fv, ErrEmptyGroup
	}
	head := rows[0]
	for i := 1; i < len(rows); i++ {
		r := rows[i]
		if r.StarID != head.StarID {
			return fv, fmt.Errorf("%w: %s and %s", ErrMixedStars, head.StarID, r.StarID)
		}
		if !r.Attributes.Equal(head.Attributes) || r.Label != head.Label {
			return fv, fmt.Errorf("%w: star %s row %d", ErrInconsistentAttributes, head.StarID, i)
		}
	}
	fv.StarID = head.StarID
	fv.Label = head.Label

	n := len(rows)
	flux := make([]float64, n)
	errs := make([]float64, n)
	depth := make([]model.Optional, n)
	duration := make([]model.Optional, n)
	ingress := make([]model.Optional, n)
	egress := make([]model.Optional, n)
	for i, r := range rows {
		flux[i] = r.Flux
		errs[i] = r.FluxErr
		depth[i] = r.Scalars.Depth
		duration[i] = r.Scalars.Duration
		ingress[i] = r.Scalars.Ingress
		egress[i] = r.Scalars.Egress
	}

	fm, _ := stats.CentralMoments(flux)
	fv.Set(model.FluxMean, model.Some(fm.Mean))
	fv.Set(model.FluxStd, model.Some(fm.Std()))
	fv.Set(model.FluxSkew, optional(fm.Skew()))
	fv.Set(model.FluxKurt, optional(fm.ExcessKurtosis()))

	em, _ := stats.CentralMoments(errs)
	fv.Set(model.ErrMean, model.Some(em.Mean))
	fv.Set(model.ErrStd, model.Some(em.Std()))

	depthMean, depthStd := meanStd(depth)
	durMean, durStd := meanStd(duration)
	ingMean, _ := meanStd(ingress)
	egrMean, _ := meanStd(egress)
	fv.Set(model.DepthMean, depthMean)
	fv.Set(model.DepthStd, depthStd)
	fv.Set(model.DurationMean, durMean)
	fv.Set(model.DurationStd, durStd)
	fv.Set(model.IngressMean, ingMean)
	fv.Set(model.EgressMean, egrMean)
	fv.Set(model.RatioIngressEgress, Ratio(ingMean, egrMean))
	fv.Set(model.DepthOverDuration, Ratio(depthMean, durMean))

	a := head.Attributes
	fv.Set(model.Teff, a.Teff)
	fv.Set(model.Radius, a.Radius)
	fv.Set(model.Mass, a.Mass)
	fv.Set(model.Logg, a.Logg)
	fv.Set(model.FeH, a.FeH)
	return fv, nil
}

// Star runs detection, broadcast and aggregation for one star.
func Star(s model.Star) (model.FeatureVector, transit.Analysis, error) {
	return Records(s.Records())
}

// Records runs detection on the observations of one star's rows, broadcasts
// the scalars back onto every row and aggregates. Each row keeps the
// attributes it was ingested with, so disagreeing rows are reported.
func Records(recs []model.Record) (model.FeatureVector, transit.Analysis, error) {
	obs := make([]model.Observation, len(recs))
	for i, r := range recs {
		obs[i] = r.Observation
	}
	a := transit.Analyze(obs)
	rows := make([]model.Row, len(recs))
	for i, r := range recs {
		rows[i] = model.Row{Observation: r.Observation, Scalars: a.Scalars, Attributes: r.Attributes, Label: r.Label}
	}
	fv, err := Aggregate(rows)
	return fv, a, err
}

// Ratio returns num / (den + Epsilon), undefined when either side is.
func Ratio(num, den model.Optional) model.Optional {
	if !num.Valid || !den.Valid {
		return model.None()
	}
	return model.Some(num.Value / (den.Value + Epsilon))
}

// meanStd is undefined as soon as one element is undefined.
func meanStd(xs []model.Optional) (mean, std model.Optional) {
	vals := make([]float64, len(xs))
	for i, x := range xs {
		if !x.Valid {
			return model.None(), model.None()
		}
		vals[i] = x.Value
	}
	m, ok := stats.CentralMoments(vals)
	if !ok {
		return model.None(), model.None()
	}
	return model.Some(m.Mean), model.Some(m.Std())
}

func optional(v float64, ok bool) model.Optional {
	if !ok {
		return model.None()
	}
	return model.Some(v)
}
