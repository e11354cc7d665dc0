package extract

import (
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/RobertIonutF/rmusico/track"
)

func TestCache(t *testing.T) {
	Convey("Given a cache with the default bounds", t, func() {
		c := NewCache(0, 0)
		for i := range 60 {
			c.Put(fmt.Sprintf("u%d", i), track.Record{Title: fmt.Sprint(i)})
		}

		Convey("Put alone never evicts", func() {
			So(c.Len(), ShouldEqual, 60)
		})

		Convey("Trim keeps the 25 newest", func() {
			So(c.Trim(), ShouldEqual, 35)
			So(c.Len(), ShouldEqual, 25)
			keys := c.Keys()
			So(keys[0], ShouldEqual, "u35")
			So(keys[24], ShouldEqual, "u59")
			_, ok := c.Get("u0")
			So(ok, ShouldBeFalse)
		})

		Convey("Refreshing an entry makes it newest", func() {
			c.Put("u0", track.Record{Title: "again"})
			c.Trim()
			rec, ok := c.Get("u0")
			So(ok, ShouldBeTrue)
			So(rec.Title, ShouldEqual, "again")
		})
	})

	Convey("Trim is a no-op at or below the cap", t, func() {
		c := NewCache(50, 25)
		for i := range 50 {
			c.Put(fmt.Sprint(i), track.Record{})
		}
		So(c.Trim(), ShouldEqual, 0)
		So(c.Len(), ShouldEqual, 50)

		c.Delete("0")
		c.Delete("missing")
		So(c.Len(), ShouldEqual, 49)
	})
}

func TestFailedSet(t *testing.T) {
	Convey("The failed set clears wholesale past its cap", t, func() {
		f := NewFailedSet(0)
		for i := range 100 {
			f.Add(fmt.Sprint(i))
		}
		So(f.Trim(), ShouldBeFalse)
		So(f.Len(), ShouldEqual, 100)

		f.Add("overflow")
		So(f.Trim(), ShouldBeTrue)
		So(f.Len(), ShouldEqual, 0)
	})

	Convey("Remove forgets a URL", t, func() {
		f := NewFailedSet(10)
		f.Add("x")
		So(f.Contains("x"), ShouldBeTrue)
		f.Remove("x")
		So(f.Contains("x"), ShouldBeFalse)
	})
}
