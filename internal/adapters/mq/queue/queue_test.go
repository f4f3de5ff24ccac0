package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with capacity 2", t, func() {
		ctx := context.Background()
		q := NewInMemoryQueue(WithCapacity(2))

		So(q.Len(ctx), ShouldEqual, 0)

		Convey("When jobs are enqueued", func() {
			So(q.Enqueue(ctx, Job{Index: 0, StarID: "a"}), ShouldBeTrue)
			So(q.Enqueue(ctx, Job{Index: 1, StarID: "b"}), ShouldBeTrue)

			Convey("Then a third enqueue is rejected", func() {
				So(q.Enqueue(ctx, Job{Index: 2, StarID: "c"}), ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 2)
			})

			Convey("Then jobs come out in order with a submit time", func() {
				ch := q.Dequeue(ctx)
				first := <-ch
				second := <-ch
				So(first.StarID, ShouldEqual, "a")
				So(second.StarID, ShouldEqual, "b")
				So(first.Submitted.IsZero(), ShouldBeFalse)
			})

			Convey("Then closing drains the remaining jobs before closing the channel", func() {
				So(q.Close(), ShouldBeNil)
				So(q.IsClosed(), ShouldBeTrue)
				var got []string
				for j := range q.Dequeue(ctx) {
					got = append(got, j.StarID)
				}
				So(got, ShouldResemble, []string{"a", "b"})
			})

			Convey("Then a blocked Submit returns once the context expires", func() {
				cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
				defer cancel()
				err := q.Submit(cctx, Job{Index: 2, StarID: "c"})
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})

			Convey("Then a blocked Submit is released by Close", func() {
				errCh := make(chan error, 1)
				go func() { errCh <- q.Submit(ctx, Job{Index: 2, StarID: "c"}) }()
				time.Sleep(10 * time.Millisecond)
				So(q.Close(), ShouldBeNil)
				So(errors.Is(<-errCh, ErrClosed), ShouldBeTrue)
			})
		})

		Convey("When Submit waits for a consumer", func() {
			small := NewInMemoryQueue(WithCapacity(1))
			So(small.Submit(ctx, Job{StarID: "a"}), ShouldBeNil)
			ch := small.Dequeue(ctx)
			go func() {
				time.Sleep(10 * time.Millisecond)
				<-ch
			}()
			So(small.Submit(ctx, Job{StarID: "b"}), ShouldBeNil)
		})

		Convey("When the queue is closed", func() {
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)
			So(q.Enqueue(ctx, Job{StarID: "a"}), ShouldBeFalse)
			So(errors.Is(q.Submit(ctx, Job{StarID: "a"}), ErrClosed), ShouldBeTrue)
		})
	})
}
