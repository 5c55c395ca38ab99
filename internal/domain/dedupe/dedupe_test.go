package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/syncops/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a default deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("A new snapshot id is recorded", func() {
			So(d.SeenAndRecord(ctx, "snap-1"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 1)
		})

		Convey("A repeated snapshot id is reported as seen", func() {
			d.SeenAndRecord(ctx, "snap-1")
			So(d.SeenAndRecord(ctx, "snap-1"), ShouldBeTrue)
			So(d.Size(), ShouldEqual, 1)
		})

		Convey("Unrecord allows a retry", func() {
			d.SeenAndRecord(ctx, "snap-1")
			d.Unrecord(ctx, "snap-1")
			So(d.Size(), ShouldEqual, 0)
			So(d.SeenAndRecord(ctx, "snap-1"), ShouldBeFalse)
			d.Unrecord(ctx, "never-seen")
			So(d.Size(), ShouldEqual, 1)
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i := 1; i <= 4; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("snap-%d", i))
		}

		Convey("Then the oldest id is evicted first", func() {
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(ctx, "snap-4"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "snap-2"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "snap-1"), ShouldBeFalse)
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 1000; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("snap-%d", i))
		}
		So(d.Size(), ShouldEqual, 1000)
	})

	Convey("Given concurrent submitters of the same id", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !d.SeenAndRecord(ctx, "shared") {
					mu.Lock()
					fresh++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one wins", func() {
			So(fresh, ShouldEqual, 1)
		})
	})
}
