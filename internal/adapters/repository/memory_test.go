package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/repository"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func vector(id string, mean float64) model.FeatureVector {
	fv := model.FeatureVector{StarID: id, Label: model.LabelUnknown}
	fv.Set(model.FluxMean, model.Some(mean))
	return fv
}

func TestMemoryStore(t *testing.T) {
	Convey("Given an empty memory store", t, func() {
		ctx := context.Background()
		fixed := time.Date(2024, 10, 5, 12, 0, 0, 0, time.UTC)
		store := repository.NewMemoryStore(ctx, repository.WithClock(func() time.Time { return fixed }))
		Reset(func() { _ = store.Close() })

		So(store.Count(ctx), ShouldEqual, 0)

		Convey("When vectors are stored", func() {
			So(store.Put(ctx, vector("b", 1)), ShouldBeNil)
			So(store.Put(ctx, vector("a", 2)), ShouldBeNil)
			So(store.Put(ctx, vector("c", 3)), ShouldBeNil)

			Convey("Then List keeps insertion order", func() {
				list, err := store.List(ctx)
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 3)
				So(list[0].StarID, ShouldEqual, "b")
				So(list[1].StarID, ShouldEqual, "a")
				So(list[2].StarID, ShouldEqual, "c")
			})

			Convey("Then Get returns the vector unscored", func() {
				e, err := store.Get(ctx, "a")
				So(err, ShouldBeNil)
				So(e.Vector.Get(model.FluxMean).Value, ShouldEqual, 2)
				So(e.Probability.Valid, ShouldBeFalse)
				So(e.Rank, ShouldEqual, 0)
				So(e.UpdatedAt, ShouldEqual, fixed)
			})

			Convey("Then replacing a vector keeps its position and clears the score", func() {
				So(store.SetScore(ctx, "b", 0.5), ShouldBeNil)
				So(store.Put(ctx, vector("b", 9)), ShouldBeNil)
				list, _ := store.List(ctx)
				So(list[0].Get(model.FluxMean).Value, ShouldEqual, 9)
				e, _ := store.Get(ctx, "b")
				So(e.Probability.Valid, ShouldBeFalse)
				So(store.Count(ctx), ShouldEqual, 3)
			})

			Convey("Then TopN ranks scored stars by probability", func() {
				So(store.SetScore(ctx, "a", 0.7), ShouldBeNil)
				So(store.SetScore(ctx, "b", 0.9), ShouldBeNil)
				So(store.SetScore(ctx, "c", 0.7), ShouldBeNil)

				top, err := store.TopN(ctx, 2)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 2)
				So(top[0].Vector.StarID, ShouldEqual, "b")
				So(top[0].Rank, ShouldEqual, 1)
				So(top[1].Vector.StarID, ShouldEqual, "a")
				So(top[1].Rank, ShouldEqual, 2)

				e, _ := store.Get(ctx, "c")
				So(e.Rank, ShouldEqual, 3)
			})

			Convey("Then unscored stars are left out of TopN", func() {
				So(store.SetScore(ctx, "c", 0.1), ShouldBeNil)
				top, err := store.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 1)
			})
		})

		Convey("When a star is unknown", func() {
			_, err := store.Get(ctx, "missing")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			So(errors.Is(store.SetScore(ctx, "missing", 0.1), repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the input is invalid", func() {
			So(errors.Is(store.Put(ctx, model.FeatureVector{}), repository.ErrInvalidStar), ShouldBeTrue)
			_, err := store.TopN(ctx, 0)
			So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			So(errors.Is(store.Put(cctx, vector("x", 1)), context.Canceled), ShouldBeTrue)
		})
	})
}
