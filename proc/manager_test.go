package proc

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/RobertIonutF/rmusico/extract"
	"github.com/RobertIonutF/rmusico/persona"
	"github.com/RobertIonutF/rmusico/search"
	"github.com/RobertIonutF/rmusico/track"
)

type stubEngine struct {
	fn func(target string) (*extract.RawInfo, error)
}

func (e stubEngine) ExtractInfo(_ context.Context, target string, _ extract.Options) (*extract.RawInfo, error) {
	return e.fn(target)
}

type stubDescriber struct{}

func (stubDescriber) FetchDescriptive(_ context.Context, id string) (track.Record, bool) {
	return track.Record{ID: id, Title: "Known title", Uploader: "Someone", Strategy: track.StrategyOEmbed}, true
}

type transports struct {
	mu      sync.Mutex
	made    map[snowflake.ID]*fakeTransport
	delay   time.Duration
	created atomic.Int32
}

func (ts *transports) factory(guildID snowflake.ID) Transport {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ft := newFakeTransport()
	ft.delay = ts.delay
	ts.made[guildID] = ft
	ts.created.Add(1)
	return ft
}

func (ts *transports) get(guildID snowflake.ID) *fakeTransport {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.made[guildID]
}

func newTestManager(engine stubEngine, opts Options) (*Manager, *transports) {
	r := extract.NewResolver(engine, persona.Default(),
		extract.ValidatorFunc(func(context.Context, string) error { return nil }),
		extract.Config{Backoff: func(int) time.Duration { return 0 }})
	ts := &transports{made: map[snowflake.ID]*fakeTransport{}}
	return NewManager(r, search.NewAdapter(r, stubDescriber{}), ts.factory, opts), ts
}

func okEngine() stubEngine {
	return stubEngine{fn: func(target string) (*extract.RawInfo, error) {
		return &extract.RawInfo{ID: "abc", Title: "Song", URL: "https://stream.example/abc"}, nil
	}}
}

func TestManager(t *testing.T) {
	ctx := context.Background()

	Convey("Given a manager", t, func() {
		m, ts := newTestManager(okEngine(), Options{})
		defer m.Shutdown(ctx)

		Convey("Join creates one session per guild", func() {
			s1, err := m.Join(ctx, 1, 10)
			So(err, ShouldBeNil)
			s2, err := m.Join(ctx, 1, 10)
			So(err, ShouldBeNil)
			So(s1, ShouldEqual, s2)
			So(ts.get(1).connects, ShouldResemble, []snowflake.ID{10})
			So(len(m.Sessions()), ShouldEqual, 1)
		})

		Convey("Joining another channel reconnects the same session", func() {
			s1, _ := m.Join(ctx, 1, 10)
			s2, err := m.Join(ctx, 1, 11)
			So(err, ShouldBeNil)
			So(s1, ShouldEqual, s2)
			So(ts.get(1).connects, ShouldResemble, []snowflake.ID{10, 11})
			snap, _ := s2.Snapshot(0)
			So(snap.ChannelID, ShouldEqual, snowflake.ID(11))
		})

		Convey("Play resolves, joins, and starts the track", func() {
			rec, _, started, err := m.Play(ctx, 1, 10, "https://www.youtube.com/watch?v=abc")
			So(err, ShouldBeNil)
			So(started, ShouldBeTrue)
			So(rec.Title, ShouldEqual, "Song")
			So(ts.get(1).playedIDs(), ShouldResemble, []string{"abc"})
		})

		Convey("Leave closes the transport", func() {
			m.Join(ctx, 1, 10)
			So(m.Leave(ctx, 1), ShouldBeTrue)
			So(ts.get(1).isClosed(), ShouldBeTrue)
			So(m.Leave(ctx, 1), ShouldBeFalse)
			_, ok := m.Session(1)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Concurrent joins in one guild share a single transport", t, func() {
		m, ts := newTestManager(okEngine(), Options{})
		ts.delay = 20 * time.Millisecond
		defer m.Shutdown(ctx)

		got := make([]*Session, 8)
		var wg sync.WaitGroup
		for i := range got {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got[i], _ = m.Join(ctx, 1, 10)
			}()
		}
		wg.Wait()

		So(int(ts.created.Load()), ShouldEqual, 1)
		for _, s := range got {
			So(s, ShouldEqual, got[0])
		}
		So(ts.get(1).isClosed(), ShouldBeFalse)
		So(ts.get(1).connects, ShouldResemble, []snowflake.ID{10})
	})

	Convey("A crashed session is dropped and the next play starts fresh", t, func() {
		m, ts := newTestManager(okEngine(), Options{})
		defer m.Shutdown(ctx)

		crashed, err := m.Join(ctx, 1, 10)
		So(err, ShouldBeNil)
		first := ts.get(1)
		first.mu.Lock()
		first.panics["abc"] = true
		first.mu.Unlock()

		_, _, _, err = m.Play(ctx, 1, 10, "https://www.youtube.com/watch?v=abc")
		So(err, ShouldEqual, ErrSessionClosed)

		_, ok := m.Session(1)
		So(ok, ShouldBeFalse)
		So(first.isClosed(), ShouldBeTrue)
		So(m.Sessions(), ShouldBeEmpty)

		_, _, started, err := m.Play(ctx, 1, 10, "https://www.youtube.com/watch?v=abc")
		So(err, ShouldBeNil)
		So(started, ShouldBeTrue)
		fresh, _ := m.Session(1)
		So(fresh, ShouldNotEqual, crashed)
		So(int(ts.created.Load()), ShouldEqual, 2)
	})

	Convey("A descriptive-only result is never enqueued", t, func() {
		m, ts := newTestManager(stubEngine{fn: func(string) (*extract.RawInfo, error) {
			return nil, extract.NewEngineError("x", "ERROR: Video unavailable", nil)
		}}, Options{})
		defer m.Shutdown(ctx)

		_, _, _, err := m.Play(ctx, 1, 10, "https://www.youtube.com/watch?v=abc")

		var de *search.DescriptiveError
		So(errors.As(err, &de), ShouldBeTrue)
		So(de.Record.Title, ShouldEqual, "Known title")
		So(ts.get(1), ShouldBeNil)
	})

	Convey("Idle sessions leave after the timeout", t, func() {
		var alone atomic.Bool
		alone.Store(true)
		m, ts := newTestManager(okEngine(), Options{
			IdleTimeout: 20 * time.Millisecond,
			IsAlone:     func(snowflake.ID, snowflake.ID) bool { return alone.Load() },
		})
		defer m.Shutdown(ctx)
		m.Join(ctx, 1, 10)

		Convey("When still alone", func() {
			m.NoteOccupancy(1, true)
			So(eventually(func() bool { _, ok := m.Session(1); return !ok }), ShouldBeTrue)
			So(ts.get(1).isClosed(), ShouldBeTrue)
		})

		Convey("Not when someone came back before the re-check", func() {
			m.NoteOccupancy(1, true)
			alone.Store(false)
			time.Sleep(60 * time.Millisecond)
			_, ok := m.Session(1)
			So(ok, ShouldBeTrue)
		})

		Convey("Not when the timer was disarmed", func() {
			m.NoteOccupancy(1, true)
			m.NoteOccupancy(1, false)
			time.Sleep(60 * time.Millisecond)
			_, ok := m.Session(1)
			So(ok, ShouldBeTrue)
		})
	})
}
