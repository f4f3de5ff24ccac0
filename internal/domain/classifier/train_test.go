package classifier

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func overlapping() []sample {
	xs := []float64{-2, -1, -0.5, 0.5, 1, 2}
	ys := []float64{0, 0, 1, 0, 1, 1}
	out := make([]sample, len(xs))
	for i := range xs {
		out[i] = sample{x: []float64{xs[i]}, y: ys[i]}
	}
	return out
}

func TestFitLogistic(t *testing.T) {
	Convey("Given overlapping classes on one standardized feature", t, func() {
		train := overlapping()
		weights := []float64{1, 1, 1, 1, 1, 1}
		sc := Scaler{Mean: []float64{0}, Scale: []float64{1}}

		l, err := fitLogistic(train, weights, sc, trainConfig{c: 1, iterations: 200})
		So(err, ShouldBeNil)
		So(l.C, ShouldEqual, 1)
		So(l.Coef[0], ShouldBeGreaterThan, 0)

		Convey("Then the regularized gradient vanishes at the fit", func() {
			reg := 1 / (l.C * 6)
			var gw, gb float64
			for _, s := range train {
				r := (sigmoid(l.Coef[0]*s.x[0]+l.Intercept) - s.y) / 6
				gw += r * s.x[0]
				gb += r
			}
			gw += reg * l.Coef[0]
			So(math.Abs(gw), ShouldBeLessThan, 1e-6)
			So(math.Abs(gb), ShouldBeLessThan, 1e-6)
		})

		Convey("Then stronger regularization shrinks the coefficient", func() {
			tight, err := fitLogistic(train, weights, sc, trainConfig{c: 0.01, iterations: 200})
			So(err, ShouldBeNil)
			So(tight.Coef[0], ShouldBeLessThan, l.Coef[0])
		})
	})
}

func TestFitPlatt(t *testing.T) {
	Convey("Given decision values that rank the positives higher", t, func() {
		train := overlapping()
		dec := []float64{-2, -1, -0.5, 0.5, 1, 2}

		c, err := fitPlatt(dec, train, 3, 3)
		So(err, ShouldBeNil)

		Convey("Then the slope is negative so probability grows with the decision", func() {
			So(c.A, ShouldBeLessThan, 0)
			So(c.apply(2), ShouldBeGreaterThan, c.apply(-2))
		})

		Convey("Then the smoothed log loss is stationary at the fit", func() {
			hi, lo := 4.0/5, 1.0/5
			var ga, gb float64
			for i, f := range dec {
				target := lo
				if train[i].y == 1 {
					target = hi
				}
				r := sigmoid(c.A*f+c.B) - (1 - target)
				ga += r * f
				gb += r
			}
			So(math.Abs(ga), ShouldBeLessThan, 1e-6)
			So(math.Abs(gb), ShouldBeLessThan, 1e-6)
		})
	})
}
