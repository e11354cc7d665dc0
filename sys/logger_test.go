package sys

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogHandler(t *testing.T) {
	Convey("Given a handler writing to a buffer", t, func() {
		prev := color.NoColor
		color.NoColor = true
		Reset(func() { color.NoColor = prev })

		var buf bytes.Buffer
		logger := slog.New(NewLogHandler(&buf, &LogHandlerOptions{Level: slog.LevelInfo}))

		Convey("Plain lines carry their level", func() {
			logger.Info("hello")
			So(buf.String(), ShouldContainSubstring, " [INFO] hello\n")
		})

		Convey("Component lines drop the INFO tag", func() {
			logger.Info("queued", slog.String(componentKey, "queue"))
			So(buf.String(), ShouldContainSubstring, " [QUEUE] queued\n")
			So(buf.String(), ShouldNotContainSubstring, "[INFO]")
		})

		Convey("A bound component keeps its level tag above INFO", func() {
			logger.With(componentKey, "extract").Warn("challenge")
			So(buf.String(), ShouldContainSubstring, "[WARN] [EXTRACT] challenge")
		})

		Convey("Fatal records are labelled", func() {
			logger.Log(context.Background(), LevelFatal, "gone")
			So(buf.String(), ShouldContainSubstring, "[FATAL] gone")
		})

		Convey("Records below the level are dropped", func() {
			logger.Debug("noise")
			So(buf.Len(), ShouldEqual, 0)
		})
	})

	Convey("A silent handler writes nothing", t, func() {
		var buf bytes.Buffer
		logger := slog.New(NewLogHandler(&buf, &LogHandlerOptions{Silent: true, Level: slog.LevelDebug}))
		logger.Error("boom")
		So(buf.Len(), ShouldEqual, 0)
	})
}

func TestRecolor(t *testing.T) {
	Convey("Embedded resets re-open the outer colour", t, func() {
		prev := color.NoColor
		color.NoColor = false
		Reset(func() { color.NoColor = prev })

		out := recolor(color.New(color.FgGreen), "a "+ansiReset+" b")
		So(out, ShouldStartWith, "\x1b[32m")
		So(out, ShouldContainSubstring, ansiReset+"\x1b[32m b")
	})
}

func TestANSIStripper(t *testing.T) {
	Convey("Colour escapes never reach the file", t, func() {
		var buf bytes.Buffer
		in := []byte("\x1b[35;1m[VOICE]\x1b[0m playing")
		n, err := ansiStripper{&buf}.Write(in)
		So(err, ShouldBeNil)
		So(n, ShouldEqual, len(in))
		So(buf.String(), ShouldEqual, "[VOICE] playing")
	})
}
