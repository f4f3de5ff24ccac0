package stats_test

import (
	"math"
	"testing"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/stat"
)

func TestMedian(t *testing.T) {
	Convey("Median", t, func() {
		_, ok := stats.Median(nil)
		So(ok, ShouldBeFalse)

		m, _ := stats.Median([]float64{3, 1, 2})
		So(m, ShouldEqual, 2)

		m, _ = stats.Median([]float64{4, 1, 3, 2})
		So(m, ShouldEqual, 2.5)

		Convey("does not reorder the input", func() {
			in := []float64{3, 1, 2}
			stats.Median(in)
			So(in, ShouldResemble, []float64{3, 1, 2})
		})
	})
}

func TestMoments(t *testing.T) {
	Convey("Given a constant column", t, func() {
		xs := []float64{0.1, 0.1, 0.1, 0.1, 0.1}
		m, ok := stats.CentralMoments(xs)
		So(ok, ShouldBeTrue)
		So(m.Mean, ShouldEqual, 0.1)
		So(m.Std(), ShouldEqual, 0)
		_, ok = m.Skew()
		So(ok, ShouldBeFalse)
		_, ok = m.ExcessKurtosis()
		So(ok, ShouldBeFalse)
	})

	Convey("Given a single sample", t, func() {
		m, ok := stats.CentralMoments([]float64{7})
		So(ok, ShouldBeTrue)
		So(m.Mean, ShouldEqual, 7)
		So(m.Std(), ShouldEqual, 0)
		_, ok = m.Skew()
		So(ok, ShouldBeFalse)
	})

	Convey("Given the light curve 1, 1, 0.9, 0.91, 1", t, func() {
		m, _ := stats.CentralMoments([]float64{1, 1, 0.90, 0.91, 1})
		So(m.Mean, ShouldAlmostEqual, 0.962, 1e-12)
		So(m.Std(), ShouldAlmostEqual, 0.0466476152, 1e-9)

		skew, ok := m.Skew()
		So(ok, ShouldBeTrue)
		So(skew, ShouldAlmostEqual, -0.4222837404, 1e-9)

		kurt, ok := m.ExcessKurtosis()
		So(ok, ShouldBeTrue)
		So(kurt, ShouldAlmostEqual, -1.8028087154, 1e-9)
	})

	Convey("Given a symmetric sample", t, func() {
		m, _ := stats.CentralMoments([]float64{-1, 0, 1})
		skew, _ := m.Skew()
		So(math.Abs(skew), ShouldBeLessThan, 1e-12)
		kurt, _ := m.ExcessKurtosis()
		So(kurt, ShouldAlmostEqual, -1.5, 1e-12)
	})

	Convey("Empty input is undefined", t, func() {
		_, ok := stats.Mean(nil)
		So(ok, ShouldBeFalse)
		_, ok = stats.Std(nil)
		So(ok, ShouldBeFalse)
	})
}

func TestMomentsAgainstGonum(t *testing.T) {
	Convey("Given a skewed sample", t, func() {
		xs := []float64{1, 1, 0.90, 0.91, 1, 0.97, 1.02}
		m, _ := stats.CentralMoments(xs)

		Convey("Then the central moments are the population ones", func() {
			So(m.Mean, ShouldAlmostEqual, stat.Mean(xs, nil), 1e-15)
			So(m.M2, ShouldAlmostEqual, stat.Moment(2, xs, nil), 1e-15)
			So(m.M3, ShouldAlmostEqual, stat.Moment(3, xs, nil), 1e-15)
			So(m.Std(), ShouldAlmostEqual, math.Sqrt(stat.Moment(2, xs, nil)), 1e-15)
		})

		Convey("Then skew and kurtosis skip the sample size correction", func() {
			skew, _ := m.Skew()
			So(skew, ShouldAlmostEqual, stat.Moment(3, xs, nil)/math.Pow(stat.Moment(2, xs, nil), 1.5), 1e-12)
			So(math.Abs(skew-stat.Skew(xs, nil)), ShouldBeGreaterThan, 1e-3)

			kurt, _ := m.ExcessKurtosis()
			So(math.Abs(kurt-stat.ExKurtosis(xs, nil)), ShouldBeGreaterThan, 1e-3)
		})
	})
}
