package config_test

import (
	"errors"
	"testing"

	"github.com/okian/podium/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.DefaultTrimPercentage, convey.ShouldEqual, 20)
			convey.So(cfg.PollIntervalMS, convey.ShouldEqual, 0)
		})

		convey.Convey("Then the defaults should validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config with an unknown store", t, func() {
		cfg := config.New()
		cfg.Store = "postgres"

		convey.Convey("Then validation should fail with ErrInvalidConfig", func() {
			err := cfg.Validate()
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a redis config without addresses", t, func() {
		cfg := config.New()
		cfg.Store = config.StoreRedis
		cfg.RedisAddrs = nil

		convey.Convey("Then validation should fail", func() {
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given a trim percentage above 100", t, func() {
		cfg := config.New()
		cfg.DefaultTrimPercentage = 150

		convey.Convey("Then validation should fail", func() {
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})
	})
}
