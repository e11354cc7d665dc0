package proc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestStatusServer(t *testing.T) {
	ctx := context.Background()

	Convey("Given a manager with one playing session", t, func() {
		m, _ := newTestManager(okEngine(), Options{})
		defer m.Shutdown(ctx)
		s, _ := m.Join(ctx, 1, 10)
		s.Enqueue(playable("a"))
		s.Enqueue(playable("b"))

		srv := httptest.NewServer(NewStatusServer(":0", m, func() (bool, int) { return true, 3 }).Handler())
		defer srv.Close()

		Convey("/health reports the bot connection", func() {
			resp, err := http.Get(srv.URL + "/health")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			var body map[string]any
			So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
			So(body["status"], ShouldEqual, "healthy")
			So(body["bot_connected"], ShouldEqual, true)
			So(body["service"], ShouldEqual, serviceName)
		})

		Convey("/api/status reports sessions and queue size", func() {
			resp, err := http.Get(srv.URL + "/api/status")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.Header.Get("Content-Type"), ShouldEqual, "application/json")

			var body statusResponse
			So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
			So(body.Connected, ShouldBeTrue)
			So(body.Guilds, ShouldEqual, 3)
			So(body.VoiceConnected, ShouldEqual, 1)
			So(*body.CurrentSong, ShouldEqual, "title a")
			So(body.QueueSize, ShouldEqual, 1)
			So(body.Sessions[0].GuildID, ShouldEqual, "1")
		})

		Convey("Other methods are rejected", func() {
			resp, err := http.Post(srv.URL+"/health", "application/json", nil)
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}
