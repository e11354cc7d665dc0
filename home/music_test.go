package home

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/RobertIonutF/rmusico/extract"
	"github.com/RobertIonutF/rmusico/metadata"
	"github.com/RobertIonutF/rmusico/proc"
	"github.com/RobertIonutF/rmusico/search"
	"github.com/RobertIonutF/rmusico/sys"
	"github.com/RobertIonutF/rmusico/track"
)

func song(id, title string) track.Record {
	rec := track.New(id, title, "Band")
	rec.StreamURL = "https://stream/" + id
	rec.Duration = 3*time.Minute + 5*time.Second
	return rec
}

func TestUserMessage(t *testing.T) {
	Convey("Errors map to user-facing text", t, func() {
		So(userMessage(fmt.Errorf("wrap: %w", extract.ErrRecentlyFailed)), ShouldEqual, sys.MsgUserRecentlyFailed)
		So(userMessage(extract.ErrPermanentlyUnavailable), ShouldEqual, sys.MsgUserUnavailable)
		So(userMessage(extract.ErrBotDetection), ShouldEqual, sys.MsgUserBotBlocked)
		So(userMessage(proc.ErrNoVolumeControl), ShouldEqual, sys.MsgUserNoVolume)
		So(userMessage(errors.New("boom")), ShouldContainSubstring, "boom")
	})

	Convey("A descriptive error shows the title and uploader", t, func() {
		err := &search.DescriptiveError{Record: metadata.Placeholder("vid9"), Err: extract.ErrExtractionExhausted}
		msg := userMessage(err)
		So(msg, ShouldContainSubstring, "YouTube Video vid9")
		So(msg, ShouldContainSubstring, track.UnknownUploader)
		So(msg, ShouldContainSubstring, metadata.UnavailableDescription)
	})
}

func TestStepVolume(t *testing.T) {
	Convey("Volume buttons step by ten and stay in range", t, func() {
		So(stepVolume(50, actionVolUp), ShouldEqual, 60)
		So(stepVolume(50, actionVolDown), ShouldEqual, 40)
		So(stepVolume(95, actionVolUp), ShouldEqual, 100)
		So(stepVolume(5, actionVolDown), ShouldEqual, 0)
		So(stepVolume(70, actionMute), ShouldEqual, 0)
	})
}

func TestQueueText(t *testing.T) {
	Convey("Given an idle session with nothing queued", t, func() {
		So(queueText(proc.Snapshot{}, 10), ShouldEqual, sys.MsgUserQueueEmpty)
	})

	Convey("Given a playing track and more pending than the display limit", t, func() {
		snap := proc.Snapshot{
			Current: mo.Some(song("a", "First")),
			Pending: []track.Record{song("b", "Second"), song("c", "Third"), song("d", "Fourth")},
			Size:    3,
			Loop:    true,
		}
		text := queueText(snap, 2)

		So(text, ShouldContainSubstring, "**Now:** Now playing: [First]")
		So(text, ShouldContainSubstring, "`1.` [Second]")
		So(text, ShouldContainSubstring, "`2.` [Third]")
		So(text, ShouldNotContainSubstring, "Fourth")
		So(text, ShouldContainSubstring, "and 1 more")
		So(text, ShouldContainSubstring, "Loop is on")
		So(text, ShouldContainSubstring, "`3:05`")
	})
}

func TestPanelText(t *testing.T) {
	Convey("The panel header reflects session state", t, func() {
		snap := proc.Snapshot{Current: mo.Some(song("a", "First")), Playing: true, Paused: true, Volume: 40, Size: 2}
		text := panelText(snap, "Paused.")

		So(text, ShouldContainSubstring, "[First](https://www.youtube.com/watch?v=a)")
		So(text, ShouldContainSubstring, "⏸️ Paused")
		So(text, ShouldContainSubstring, "40%")
		So(text, ShouldContainSubstring, "2 queued")
		So(text, ShouldEndWith, "Paused.")

		So(panelText(proc.Snapshot{}, ""), ShouldStartWith, sys.MsgUserNothingPlaying)
	})
}

func TestSearchText(t *testing.T) {
	Convey("Search results are numbered", t, func() {
		text := searchText("lofi", []track.Record{song("a", "One"), song("b", "Two")})
		So(text, ShouldContainSubstring, "`1.` [One]")
		So(text, ShouldContainSubstring, "`2.` [Two]")
		So(searchText("lofi", nil), ShouldEqual, fmt.Sprintf(sys.MsgUserSearchEmpty, "lofi"))
	})
}

func TestTruncate(t *testing.T) {
	Convey("Autocomplete names are capped at 100 characters", t, func() {
		long := strings.Repeat("a", 150)
		So(len(truncate(long, 100)), ShouldEqual, 100)
		So(truncate("short", 100), ShouldEqual, "short")
	})

	Convey("Multi-byte titles are measured in characters", t, func() {
		title := strings.Repeat("夜", 40)
		So(truncate(title, 100), ShouldEqual, title)

		long := strings.Repeat("夜", 120)
		cut := truncate(long, 100)
		So(utf8.ValidString(cut), ShouldBeTrue)
		So(utf8.RuneCountInString(cut), ShouldEqual, 100)
		So(cut, ShouldEndWith, "...")
	})
}

func TestRenderStats(t *testing.T) {
	Convey("Stats without a manager are all zero", t, func() {
		st := collectStats(nil)
		So(st, ShouldResemble, PlaybackStats{})
	})

	Convey("The stats block lists playback counters", t, func() {
		text := renderStats(PlaybackStats{Sessions: 2, Playing: 1, Queued: 7, CacheSize: 12, FailedSize: 3, GatewayPing: 42 * time.Millisecond})
		So(text, ShouldStartWith, "```ansi\n")
		So(text, ShouldContainSubstring, "2 (1 playing)")
		So(text, ShouldContainSubstring, "Cached Extractions")
		So(text, ShouldContainSubstring, "42ms")
		So(text, ShouldNotContainSubstring, "API Latency")
	})
}
