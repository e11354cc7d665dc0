package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/RobertIonutF/rmusico/extract"
	"github.com/RobertIonutF/rmusico/persona"
	"github.com/RobertIonutF/rmusico/track"
)

type fakeEngine struct {
	mu      sync.Mutex
	targets []string
	fn      func(target string, opts extract.Options) (*extract.RawInfo, error)
}

func (f *fakeEngine) ExtractInfo(_ context.Context, target string, opts extract.Options) (*extract.RawInfo, error) {
	f.mu.Lock()
	f.targets = append(f.targets, target)
	f.mu.Unlock()
	return f.fn(target, opts)
}

type fakeDescriber struct {
	ids []string
}

func (d *fakeDescriber) FetchDescriptive(_ context.Context, id string) (track.Record, bool) {
	d.ids = append(d.ids, id)
	return track.Record{ID: id, Title: "Described", Uploader: "Someone", Strategy: track.StrategyOEmbed}, true
}

const watchURL = "https://www.youtube.com/watch?v=abc123"

var errServer = errors.New("HTTP Error 500")

func hit(title string) *extract.RawInfo {
	return &extract.RawInfo{Entries: []extract.RawInfo{{ID: "hit1", Title: title, URL: "https://stream.example/" + title}}}
}

func newTestAdapter(e *fakeEngine) (*Adapter, *fakeDescriber) {
	r := extract.NewResolver(e, persona.Default(),
		extract.ValidatorFunc(func(context.Context, string) error { return nil }),
		extract.Config{Backoff: func(int) time.Duration { return 0 }})
	d := &fakeDescriber{}
	return NewAdapter(r, d), d
}

func TestAdapterSearch(t *testing.T) {
	ctx := context.Background()

	Convey("The top validated hit is returned", t, func() {
		e := &fakeEngine{fn: func(target string, opts extract.Options) (*extract.RawInfo, error) {
			So(opts.Format, ShouldEqual, SearchFormat)
			return hit("song"), nil
		}}
		a, _ := newTestAdapter(e)

		rec, err := a.Search(ctx, "lofi", 1)

		So(err, ShouldBeNil)
		So(rec.Title, ShouldEqual, "song")
		So(rec.Strategy, ShouldEqual, track.StrategySearch)
		So(e.targets, ShouldResemble, []string{"ytsearch1:lofi"})
	})

	Convey("Bot detection rotates to the next persona", t, func() {
		calls := 0
		e := &fakeEngine{fn: func(string, extract.Options) (*extract.RawInfo, error) {
			calls++
			if calls == 1 {
				return nil, extract.NewEngineError("q", "Sign in to confirm you're not a bot", nil)
			}
			return hit("song"), nil
		}}
		a, _ := newTestAdapter(e)

		_, err := a.Search(ctx, "lofi", 1)
		So(err, ShouldBeNil)
		So(calls, ShouldEqual, 2)
	})

	Convey("Other failures end the search", t, func() {
		e := &fakeEngine{fn: func(string, extract.Options) (*extract.RawInfo, error) { return nil, errServer }}
		a, _ := newTestAdapter(e)

		_, err := a.Search(ctx, "lofi", 1)
		So(errors.Is(err, ErrSearchEmpty), ShouldBeTrue)
		So(len(e.targets), ShouldEqual, 1)
	})

	Convey("Variants are tried in order until one hits", t, func() {
		e := &fakeEngine{fn: func(target string, _ extract.Options) (*extract.RawInfo, error) {
			if strings.HasSuffix(target, " official") {
				return hit("official"), nil
			}
			return nil, errServer
		}}
		a, _ := newTestAdapter(e)

		rec, err := a.SearchWithVariants(ctx, "song")

		So(err, ShouldBeNil)
		So(rec.Title, ShouldEqual, "official")
		So(e.targets, ShouldResemble, []string{"ytsearch1:song", "ytsearch1:song audio", "ytsearch1:song official"})
	})
}

func TestAdapterResolve(t *testing.T) {
	ctx := context.Background()

	Convey("A working link is extracted directly", t, func() {
		e := &fakeEngine{fn: func(string, extract.Options) (*extract.RawInfo, error) {
			return &extract.RawInfo{ID: "abc123", Title: "Direct", URL: "https://stream.example/d"}, nil
		}}
		a, _ := newTestAdapter(e)

		rec, err := a.Resolve(ctx, watchURL)
		So(err, ShouldBeNil)
		So(rec.Title, ShouldEqual, "Direct")
		So(rec.IsPlayable(), ShouldBeTrue)
	})

	Convey("A blocked link falls back to searching its video ID", t, func() {
		e := &fakeEngine{fn: func(target string, _ extract.Options) (*extract.RawInfo, error) {
			if target == "ytsearch1:abc123" {
				return hit("by-id"), nil
			}
			return nil, errServer
		}}
		a, d := newTestAdapter(e)

		rec, err := a.Resolve(ctx, watchURL)
		So(err, ShouldBeNil)
		So(rec.Title, ShouldEqual, "by-id")
		So(d.ids, ShouldBeEmpty)
	})

	Convey("An unavailable link skips searching and reports a descriptive record", t, func() {
		e := &fakeEngine{fn: func(string, extract.Options) (*extract.RawInfo, error) {
			return nil, extract.NewEngineError(watchURL, "ERROR: Video unavailable", nil)
		}}
		a, d := newTestAdapter(e)

		rec, err := a.Resolve(ctx, watchURL)

		So(rec.StreamURL, ShouldBeEmpty)
		var de *DescriptiveError
		So(errors.As(err, &de), ShouldBeTrue)
		So(de.Record.Title, ShouldEqual, "Described")
		So(de.Record.IsPlayable(), ShouldBeFalse)
		So(errors.Is(err, extract.ErrPermanentlyUnavailable), ShouldBeTrue)
		So(d.ids, ShouldResemble, []string{"abc123"})
		So(len(e.targets), ShouldEqual, 1)
	})

	Convey("Plain text is searched with variants", t, func() {
		e := &fakeEngine{fn: func(string, extract.Options) (*extract.RawInfo, error) { return hit("q"), nil }}
		a, _ := newTestAdapter(e)

		rec, err := a.Resolve(ctx, "some song")
		So(err, ShouldBeNil)
		So(rec.Strategy, ShouldEqual, track.StrategySearch)
		So(e.targets, ShouldResemble, []string{"ytsearch1:some song"})
	})
}

func TestAdapterList(t *testing.T) {
	Convey("List returns descriptive records", t, func() {
		e := &fakeEngine{fn: func(target string, opts extract.Options) (*extract.RawInfo, error) {
			So(opts.Flat, ShouldBeTrue)
			So(target, ShouldEqual, "ytsearch2:lofi")
			return &extract.RawInfo{Entries: []extract.RawInfo{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}}, nil
		}}
		a, _ := newTestAdapter(e)

		recs, err := a.List(context.Background(), "lofi", 2)
		So(err, ShouldBeNil)
		So(len(recs), ShouldEqual, 2)
		So(recs[1].PageURL, ShouldEqual, track.PageURL("b"))
		So(recs[0].IsPlayable(), ShouldBeFalse)
	})

	Convey("An empty listing is an error", t, func() {
		e := &fakeEngine{fn: func(string, extract.Options) (*extract.RawInfo, error) {
			return &extract.RawInfo{Entries: []extract.RawInfo{}}, nil
		}}
		a, _ := newTestAdapter(e)

		_, err := a.List(context.Background(), "nothing", 3)
		So(errors.Is(err, ErrSearchEmpty), ShouldBeTrue)
	})
}
