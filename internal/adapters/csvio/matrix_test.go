package csvio_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/csvio"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
)

func fixtures() []model.FeatureVector {
	full := model.FeatureVector{StarID: "757450", Label: model.LabelPositive}
	for i := range full.Values {
		full.Values[i] = model.Some(float64(i) + 0.5)
	}
	partial := model.FeatureVector{StarID: "KIC 10666592", Label: model.LabelUnknown}
	partial.Set(model.Teff, model.Some(5778))
	partial.Set(model.Radius, model.Some(1))
	partial.Set(model.Mass, model.Some(1))
	partial.Set(model.Logg, model.Some(4.44))
	partial.Set(model.FeH, model.Some(-0.02))
	return []model.FeatureVector{full, partial}
}

func TestWriteMatrixGolden(t *testing.T) {
	var buf bytes.Buffer
	if err := csvio.WriteMatrix(&buf, fixtures()); err != nil {
		t.Fatalf("write matrix: %v", err)
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "matrix", buf.Bytes())
}

func TestReadMatrix(t *testing.T) {
	Convey("Given a matrix written by WriteMatrix", t, func() {
		var buf bytes.Buffer
		So(csvio.WriteMatrix(&buf, fixtures()), ShouldBeNil)

		Convey("When it is read back", func() {
			got, err := csvio.ReadMatrix(&buf)

			Convey("Then the vectors are identical", func() {
				So(err, ShouldBeNil)
				want := fixtures()
				So(len(got), ShouldEqual, len(want))
				for i := range want {
					So(got[i].StarID, ShouldEqual, want[i].StarID)
					So(got[i].Label, ShouldEqual, want[i].Label)
					for f := range want[i].Values {
						So(got[i].Values[f].Equal(want[i].Values[f]), ShouldBeTrue)
					}
				}
			})
		})
	})

	Convey("Given an empty vector list", t, func() {
		var buf bytes.Buffer
		So(csvio.WriteMatrix(&buf, nil), ShouldBeNil)
		So(buf.String(), ShouldEqual, strings.Join(csvio.Header(), ",")+"\n")
	})

	Convey("Given malformed input", t, func() {
		Convey("When the feature columns are reordered", func() {
			h := csvio.Header()
			h[1], h[2] = h[2], h[1]
			_, err := csvio.ReadMatrix(strings.NewReader(strings.Join(h, ",") + "\n"))
			So(errors.Is(err, csvio.ErrSchemaMismatch), ShouldBeTrue)
		})

		Convey("When the input is empty", func() {
			_, err := csvio.ReadMatrix(strings.NewReader(""))
			So(errors.Is(err, csvio.ErrMalformed), ShouldBeTrue)
		})

		Convey("When a cell is not numeric", func() {
			row := append([]string{"1"}, make([]string, model.NumFeatures)...)
			row[3] = "abc"
			in := strings.Join(csvio.Header()[:model.NumFeatures+1], ",") + "\n" + strings.Join(row, ",") + "\n"
			_, err := csvio.ReadMatrix(strings.NewReader(in))
			So(errors.Is(err, csvio.ErrMalformed), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "flux_skew")
		})

		Convey("When a label is not binary", func() {
			row := append([]string{"1"}, make([]string, model.NumFeatures)...)
			row = append(row, "2")
			in := strings.Join(csvio.Header(), ",") + "\n" + strings.Join(row, ",") + "\n"
			_, err := csvio.ReadMatrix(strings.NewReader(in))
			So(errors.Is(err, csvio.ErrMalformed), ShouldBeTrue)
		})
	})
}
