package sys

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadConfig(t *testing.T) {
	Convey("Given an environment with only a token", t, func() {
		t.Setenv(KeyToken, "token")
		t.Setenv(KeyGuildID, "")

		cfg, err := LoadConfig(true)

		Convey("Defaults are applied", func() {
			So(err, ShouldBeNil)
			So(cfg.MaxSearchResults, ShouldEqual, 5)
			So(cfg.DefaultVolume, ShouldEqual, 0.5)
			So(cfg.MaxQueueDisplay, ShouldEqual, 10)
			So(cfg.MaxAttempts, ShouldEqual, 3)
			So(cfg.IdleTimeout, ShouldEqual, time.Minute)
			So(GlobalConfig, ShouldEqual, cfg)
		})
	})

	Convey("Environment values override defaults", t, func() {
		t.Setenv(KeyToken, "token")
		t.Setenv(KeyMaxSearchResults, "8")
		t.Setenv(KeyIdleTimeout, "90s")

		cfg, err := LoadConfig(true)
		So(err, ShouldBeNil)
		So(cfg.MaxSearchResults, ShouldEqual, 8)
		So(cfg.IdleTimeout, ShouldEqual, 90*time.Second)
	})

	Convey("A missing token only fails when required", t, func() {
		t.Setenv(KeyToken, "")

		_, err := LoadConfig(true)
		So(err, ShouldNotBeNil)

		_, err = LoadConfig(false)
		So(err, ShouldBeNil)
	})

	Convey("Validate rejects bad values", t, func() {
		So((&Config{Token: "x", GuildID: "123"}).Validate(true), ShouldNotBeNil)
		So((&Config{Token: "x", DefaultVolume: 2}).Validate(true), ShouldNotBeNil)

		c := &Config{Token: "x", DefaultVolume: 0.5}
		So(c.Validate(true), ShouldBeNil)
		So(c.MaxSearchResults, ShouldEqual, 1)
	})
}
