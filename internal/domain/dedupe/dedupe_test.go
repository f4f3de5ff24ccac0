package dedupe_test

import (
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/dedupe"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestKey(t *testing.T) {
	Convey("Observation keys combine star and exact time", t, func() {
		a := model.Observation{StarID: "1", Time: 131.5, Flux: 1}
		b := model.Observation{StarID: "1", Time: 131.5, Flux: 0.9}
		c := model.Observation{StarID: "1", Time: 131.50000001}
		d := model.Observation{StarID: "2", Time: 131.5}
		So(dedupe.Key(a), ShouldEqual, dedupe.Key(b))
		So(dedupe.Key(a), ShouldNotEqual, dedupe.Key(c))
		So(dedupe.Key(a), ShouldNotEqual, dedupe.Key(d))
	})
}

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		So(d.SeenAndRecord("k1"), ShouldBeFalse)
		So(d.SeenAndRecord("k1"), ShouldBeTrue)
		So(d.Size(), ShouldEqual, 1)

		Convey("When a key is unrecorded it can be recorded again", func() {
			d.Unrecord("k1")
			So(d.Size(), ShouldEqual, 0)
			So(d.SeenAndRecord("k1"), ShouldBeFalse)
			d.Unrecord("missing")
			So(d.Size(), ShouldEqual, 1)
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))
		d.SeenAndRecord("a")
		d.SeenAndRecord("b")
		d.SeenAndRecord("c")

		Convey("Then the oldest key is evicted", func() {
			So(d.Size(), ShouldEqual, 2)
			So(d.SeenAndRecord("b"), ShouldBeTrue)
			So(d.SeenAndRecord("c"), ShouldBeTrue)
			So(d.SeenAndRecord("a"), ShouldBeFalse)
		})

		Convey("Then an unrecorded key is forgotten", func() {
			d.Unrecord("c")
			So(d.Size(), ShouldEqual, 1)
			So(d.SeenAndRecord("c"), ShouldBeFalse)
			So(d.SeenAndRecord("b"), ShouldBeTrue)
		})
	})

	Convey("Given concurrent writers", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					if !d.SeenAndRecord(fmt.Sprintf("k%d", i)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()
		So(fresh, ShouldEqual, 100)
		So(d.Size(), ShouldEqual, 100)
	})
}
