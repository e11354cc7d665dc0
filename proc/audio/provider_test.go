package audio

import (
	"context"
	"io"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestStreamProvider(t *testing.T) {
	Convey("Given a provider with two frames", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p := NewStreamProvider(ctx)
		finished := make(chan struct{})
		p.OnFinish = func() { close(finished) }

		p.PushFrame([]byte{1})
		p.PushFrame([]byte{2})
		p.PushFrame(nil)

		Convey("Frames come out in order, then silence, then EOF", func() {
			f, err := p.ProvideOpusFrame()
			So(err, ShouldBeNil)
			So(f, ShouldResemble, []byte{1})
			f, _ = p.ProvideOpusFrame()
			So(f, ShouldResemble, []byte{2})

			silence := 0
			for {
				f, err = p.ProvideOpusFrame()
				if err != nil {
					break
				}
				So(f, ShouldResemble, OpusSilence)
				silence++
			}
			So(err, ShouldEqual, io.EOF)
			So(silence, ShouldEqual, int(SilenceDuration.Milliseconds()/20)+1)

			select {
			case <-finished:
			case <-time.After(time.Second):
				So("finish not called", ShouldBeEmpty)
			}
		})

		Convey("Pause toggles state", func() {
			So(p.Paused(), ShouldBeFalse)
			p.Pause()
			So(p.Paused(), ShouldBeTrue)
			p.Pause()
			So(p.Paused(), ShouldBeTrue)
			p.Resume()
			So(p.Paused(), ShouldBeFalse)
			p.Resume()
			So(p.Paused(), ShouldBeFalse)
		})

		Convey("Cancellation ends an idle provider", func() {
			idle := NewStreamProvider(ctx)
			cancel()
			_, err := idle.ProvideOpusFrame()
			So(err, ShouldEqual, io.EOF)
		})
	})
}

func TestScaleS16(t *testing.T) {
	Convey("Samples are scaled and clipped", t, func() {
		data := []byte{0x10, 0x00, 0xff, 0x7f, 0x00, 0x80}
		ScaleS16(data, 50)
		So(data[0:2], ShouldResemble, []byte{0x08, 0x00})
		So(data[2:4], ShouldResemble, []byte{0xff, 0x3f})
		So(data[4:6], ShouldResemble, []byte{0x00, 0xc0})

		loud := []byte{0xff, 0x7f}
		ScaleS16(loud, 200)
		So(loud, ShouldResemble, []byte{0xff, 0x7f})
	})
}
