package features_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/features"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/transit"
	. "github.com/smartystreets/goconvey/convey"
)

var sunLike = model.StarAttributes{
	Teff: model.Some(5778), Radius: model.Some(1), Mass: model.Some(1), Logg: model.Some(4.44), FeH: model.Some(0),
}

func star(id string, flux []float64, label model.Label) model.Star {
	obs := make([]model.Observation, len(flux))
	for i, f := range flux {
		obs[i] = model.Observation{StarID: id, Time: float64(i), Flux: f, FluxErr: 0.01}
	}
	return model.Star{ID: id, Observations: obs, Attributes: sunLike, Label: label}
}

func TestAggregate(t *testing.T) {
	Convey("Given the five point star", t, func() {
		fv, a, err := features.Star(star("s1", []float64{1, 1, 0.90, 0.91, 1}, model.LabelPositive))
		So(err, ShouldBeNil)
		So(a.DipPoints, ShouldEqual, 2)
		So(fv.StarID, ShouldEqual, "s1")
		So(fv.Label, ShouldEqual, model.LabelPositive)

		Convey("Then broadcast columns collapse to the scalar with zero spread", func() {
			So(fv.Get(model.DepthMean).Value, ShouldAlmostEqual, 0.10, 1e-12)
			So(fv.Get(model.DepthStd).Value, ShouldEqual, 0)
			So(fv.Get(model.DurationMean).Value, ShouldEqual, 1)
			So(fv.Get(model.DurationStd).Value, ShouldEqual, 0)
			So(fv.Get(model.EgressMean).Value, ShouldEqual, 1)
		})

		Convey("Then undefined ingress propagates into its ratio", func() {
			So(fv.Get(model.IngressMean).Valid, ShouldBeFalse)
			So(fv.Get(model.RatioIngressEgress).Valid, ShouldBeFalse)
		})

		Convey("Then depth over duration uses the epsilon floor", func() {
			want := fv.Get(model.DepthMean).Value / (1 + features.Epsilon)
			So(fv.Get(model.DepthOverDuration).Value, ShouldEqual, want)
		})

		Convey("Then flux moments are population statistics", func() {
			So(fv.Get(model.FluxMean).Value, ShouldAlmostEqual, 0.962, 1e-12)
			So(fv.Get(model.FluxStd).Value, ShouldAlmostEqual, 0.0466476152, 1e-9)
			So(fv.Get(model.FluxSkew).Value, ShouldAlmostEqual, -0.4222837404, 1e-9)
			So(fv.Get(model.FluxKurt).Value, ShouldAlmostEqual, -1.8028087154, 1e-9)
			So(fv.Get(model.ErrMean).Value, ShouldEqual, 0.01)
			So(fv.Get(model.ErrStd).Value, ShouldEqual, 0)
		})

		Convey("Then attributes pass through", func() {
			So(fv.Get(model.Teff).Value, ShouldEqual, 5778)
			So(fv.Get(model.Logg).Value, ShouldEqual, 4.44)
		})
	})

	Convey("Given a single dip point", t, func() {
		fv, _, err := features.Star(star("one", []float64{1, 1, 0.8, 1, 1}, model.LabelNegative))
		So(err, ShouldBeNil)
		Convey("Then depth over duration is depth divided by epsilon", func() {
			So(fv.Get(model.DurationMean).Value, ShouldEqual, 0)
			So(fv.Get(model.DepthOverDuration).Value, ShouldEqual, fv.Get(model.DepthMean).Value/features.Epsilon)
		})
	})

	Convey("Given a star without a dip", t, func() {
		fv, _, err := features.Star(star("flat", []float64{1, 1, 1, 1}, model.LabelNegative))
		So(err, ShouldBeNil)
		Convey("Then every transit derived column is undefined", func() {
			for _, f := range []model.Feature{model.DepthMean, model.DepthStd, model.DurationMean, model.DurationStd,
				model.IngressMean, model.EgressMean, model.RatioIngressEgress, model.DepthOverDuration} {
				So(fv.Get(f).Valid, ShouldBeFalse)
			}
		})
		Convey("Then constant flux gives undefined higher moments", func() {
			So(fv.Get(model.FluxStd).Value, ShouldEqual, 0)
			So(fv.Get(model.FluxSkew).Valid, ShouldBeFalse)
			So(fv.Get(model.FluxKurt).Valid, ShouldBeFalse)
		})
	})

	Convey("Given invalid groups", t, func() {
		_, err := features.Aggregate(nil)
		So(errors.Is(err, features.ErrEmptyGroup), ShouldBeTrue)

		s := star("a", []float64{1, 0.9, 1}, model.LabelPositive)
		rows := model.Broadcast(s.Observations, transit.Detect(s.Observations), s.Attributes, s.Label)

		mixed := append([]model.Row(nil), rows...)
		mixed[1].StarID = "b"
		_, err = features.Aggregate(mixed)
		So(errors.Is(err, features.ErrMixedStars), ShouldBeTrue)

		drift := append([]model.Row(nil), rows...)
		drift[2].Attributes.Teff = model.Some(6000)
		_, err = features.Aggregate(drift)
		So(errors.Is(err, features.ErrInconsistentAttributes), ShouldBeTrue)
	})

	Convey("Given shuffled observations", t, func() {
		rng := rand.New(rand.NewSource(3))
		flux := make([]float64, 300)
		for i := range flux {
			flux[i] = 1 + rng.NormFloat64()*0.002
			if i >= 120 && i < 140 {
				flux[i] -= 0.02
			}
		}
		s := star("p", flux, model.LabelPositive)
		want, _, err := features.Star(s)
		So(err, ShouldBeNil)

		rng.Shuffle(len(s.Observations), func(i, j int) {
			s.Observations[i], s.Observations[j] = s.Observations[j], s.Observations[i]
		})
		got, _, err := features.Star(s)
		So(err, ShouldBeNil)

		Convey("Then transit columns are identical and moments agree", func() {
			for _, f := range []model.Feature{model.DepthMean, model.DurationMean, model.IngressMean,
				model.EgressMean, model.RatioIngressEgress, model.DepthOverDuration} {
				So(got.Get(f), ShouldResemble, want.Get(f))
			}
			So(got.Get(model.FluxMean).Value, ShouldAlmostEqual, want.Get(model.FluxMean).Value, 1e-12)
			So(got.Get(model.FluxStd).Value, ShouldAlmostEqual, want.Get(model.FluxStd).Value, 1e-12)
		})
	})

	Convey("Ratio is undefined when an operand is", t, func() {
		So(features.Ratio(model.None(), model.Some(1)).Valid, ShouldBeFalse)
		So(features.Ratio(model.Some(1), model.None()).Valid, ShouldBeFalse)
		So(features.Ratio(model.Some(2), model.Some(0)).Value, ShouldEqual, 2/features.Epsilon)
	})
}
