package proc

import (
	"context"
	"slices"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func currentID(s *Session) string {
	snap, err := s.Snapshot(0)
	if err != nil {
		return "<closed>"
	}
	if rec, ok := snap.Current.Get(); ok {
		return rec.ID
	}
	return ""
}

func TestSession(t *testing.T) {
	Convey("Given an idle session", t, func() {
		ft := newFakeTransport()
		s := newSession(1, 10, ft, 50)
		defer s.close(context.Background())

		Convey("The first enqueue starts playback, later ones wait", func() {
			_, started, err := s.Enqueue(playable("a"))
			So(err, ShouldBeNil)
			So(started, ShouldBeTrue)

			pos, started, err := s.Enqueue(playable("b"))
			So(err, ShouldBeNil)
			So(started, ShouldBeFalse)
			So(pos, ShouldEqual, 1)
			So(ft.playedIDs(), ShouldResemble, []string{"a"})
			So(currentID(s), ShouldEqual, "a")
		})

		Convey("Descriptive-only records are refused", func() {
			rec := playable("d")
			rec.StreamURL = ""
			_, _, err := s.Enqueue(rec)
			So(err, ShouldNotBeNil)
			So(ft.playedIDs(), ShouldBeEmpty)
		})

		Convey("A finished track advances to the next", func() {
			s.Enqueue(playable("a"))
			s.Enqueue(playable("b"))

			ft.finishCurrent()
			So(eventually(func() bool { return currentID(s) == "b" }), ShouldBeTrue)

			ft.finishCurrent()
			So(eventually(func() bool { return currentID(s) == "" }), ShouldBeTrue)
			snap, _ := s.Snapshot(0)
			So(snap.Playing, ShouldBeFalse)
			So(ft.playedIDs(), ShouldResemble, []string{"a", "b"})
		})

		Convey("Skip advances once and ignores the cancelled stream", func() {
			s.Enqueue(playable("a"))
			s.Enqueue(playable("b"))
			s.Enqueue(playable("c"))

			next, err := s.Skip()
			So(err, ShouldBeNil)
			So(next.MustGet().ID, ShouldEqual, "b")

			time.Sleep(50 * time.Millisecond)
			So(currentID(s), ShouldEqual, "b")
			So(ft.playedIDs(), ShouldResemble, []string{"a", "b"})
		})

		Convey("Loop replays the current track until skipped", func() {
			s.Enqueue(playable("a"))
			s.Enqueue(playable("b"))
			on, _ := s.ToggleLoop()
			So(on, ShouldBeTrue)

			ft.finishCurrent()
			So(eventually(func() bool { return len(ft.playedIDs()) == 2 }), ShouldBeTrue)
			So(ft.playedIDs(), ShouldResemble, []string{"a", "a"})

			next, _ := s.Skip()
			So(next.MustGet().ID, ShouldEqual, "b")
		})

		Convey("A track that fails to start is skipped", func() {
			ft.fail["a"] = true
			s.Enqueue(playable("x"))
			s.Enqueue(playable("a"))
			s.Enqueue(playable("b"))

			ft.finishCurrent()
			So(eventually(func() bool { return currentID(s) == "b" }), ShouldBeTrue)
			So(ft.playedIDs(), ShouldResemble, []string{"x", "a", "b"})
		})

		Convey("Stop clears everything", func() {
			s.Enqueue(playable("a"))
			s.Enqueue(playable("b"))

			So(s.Stop(), ShouldBeNil)
			snap, _ := s.Snapshot(0)
			So(snap.Playing, ShouldBeFalse)
			So(snap.Size, ShouldEqual, 0)
			So(ft.stopped, ShouldEqual, 1)
		})

		Convey("Clear keeps the playing track but drops the rest", func() {
			s.Enqueue(playable("a"))
			s.Enqueue(playable("b"))
			n, _ := s.Clear()
			So(n, ShouldEqual, 1)
			So(currentID(s), ShouldEqual, "a")

			ft.finishCurrent()
			So(eventually(func() bool { return currentID(s) == "" }), ShouldBeTrue)
		})

		Convey("Pause and resume only change state once", func() {
			changed, _ := s.Pause()
			So(changed, ShouldBeFalse)

			s.Enqueue(playable("a"))
			changed, _ = s.Pause()
			So(changed, ShouldBeTrue)
			changed, _ = s.Pause()
			So(changed, ShouldBeFalse)
			changed, _ = s.Resume()
			So(changed, ShouldBeTrue)
			So(ft.paused, ShouldEqual, 1)
			So(ft.resumed, ShouldEqual, 1)
		})

		Convey("Volume applies to the stream", func() {
			s.Enqueue(playable("a"))
			So(s.SetVolume(80), ShouldBeNil)
			snap, _ := s.Snapshot(0)
			So(snap.Volume, ShouldEqual, 80)
			So(s.SetVolume(150), ShouldBeNil)
			snap, _ = s.Snapshot(0)
			So(snap.Volume, ShouldEqual, 100)
		})

		Convey("Shuffle keeps every pending track", func() {
			for _, id := range []string{"a", "b", "c", "d"} {
				s.Enqueue(playable(id))
			}
			n, _ := s.Shuffle()
			So(n, ShouldEqual, 3)
			snap, _ := s.Snapshot(0)
			ids := []string{snap.Pending[0].ID, snap.Pending[1].ID, snap.Pending[2].ID}
			slices.Sort(ids)
			So(ids, ShouldResemble, []string{"b", "c", "d"})
			So(currentID(s), ShouldEqual, "a")
		})
	})

	Convey("Streams without volume control reject volume changes", t, func() {
		ft := newFakeTransport()
		ft.noVolume = true
		s := newSession(1, 10, ft, 50)
		defer s.close(context.Background())

		s.Enqueue(playable("a"))
		So(s.SetVolume(20), ShouldEqual, ErrNoVolumeControl)
		snap, _ := s.Snapshot(0)
		So(snap.Volume, ShouldEqual, 50)
	})

	Convey("A closed session refuses commands", t, func() {
		ft := newFakeTransport()
		s := newSession(1, 10, ft, 50)
		s.close(context.Background())

		_, _, err := s.Enqueue(playable("a"))
		So(err, ShouldEqual, ErrSessionClosed)
		So(s.SetChannel(11), ShouldEqual, ErrSessionClosed)
		So(ft.isClosed(), ShouldBeTrue)
	})

	Convey("A crash on the session goroutine closes the session", t, func() {
		ft := newFakeTransport()
		ft.panics["a"] = true
		s := newSession(1, 10, ft, 50)
		defer s.close(context.Background())

		_, _, err := s.Enqueue(playable("a"))
		So(err, ShouldEqual, ErrSessionClosed)
		So(s.Closed(), ShouldBeTrue)

		result := make(chan error, 1)
		go func() {
			_, err := s.Shuffle()
			result <- err
		}()
		select {
		case err := <-result:
			So(err, ShouldEqual, ErrSessionClosed)
		case <-time.After(time.Second):
			So("shuffle blocked", ShouldBeEmpty)
		}
	})
}
