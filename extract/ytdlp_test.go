package extract

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestYtdlpArgs(t *testing.T) {
	Convey("Given an engine", t, func() {
		e := &YtdlpEngine{CookiesPath: "/tmp/cookies.txt"}

		Convey("A full extraction carries format, clients, and headers", func() {
			args := e.Args("https://youtu.be/x", Options{
				Format:      "bestaudio",
				Clients:     []string{"mweb", "ios"},
				Headers:     map[string]string{"User-Agent": "UA", "Accept-Language": "en"},
				SkipWebpage: true,
				SkipFormats: []string{"hls", "dash"},
			})

			So(args, ShouldContain, "--no-playlist")
			So(args, ShouldContain, "--dump-single-json")
			So(args[len(args)-1], ShouldEqual, "https://youtu.be/x")
			So(args, ShouldContain, "bestaudio")
			So(args, ShouldContain, "youtube:player_client=mweb,ios;player_skip=webpage;skip=hls,dash")
			So(args, ShouldContain, "Accept-Language:en")
			So(args, ShouldContain, "User-Agent:UA")
			So(args, ShouldContain, "/tmp/cookies.txt")
		})

		Convey("A flat extraction drops the format and clients", func() {
			args := e.Args("https://youtu.be/x", Options{Flat: true, Clients: []string{"mweb"}, Format: "bestaudio"})

			So(args, ShouldContain, "--flat-playlist")
			So(args, ShouldNotContain, "-f")
			So(args, ShouldNotContain, "--extractor-args")
		})
	})

	Convey("Missing cookie files are ignored", t, func() {
		So(NewYtdlpEngine("/does/not/exist", "").CookiesPath, ShouldBeEmpty)
	})
}
