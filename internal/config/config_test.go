package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/seirsim/internal/config"
	"github.com/okian/seirsim/internal/domain/epidemic"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.MemoSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.RunStore, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.DefaultHorizonDays, convey.ShouldEqual, 730)
			convey.So(cfg.Epidemic, convey.ShouldResemble, epidemic.DefaultParameters())
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"an empty addr", func(c *config.Config) { c.Addr = " " }},
			{"a zero max horizon", func(c *config.Config) { c.MaxHorizonDays = 0 }},
			{"a default horizon over the max", func(c *config.Config) { c.DefaultHorizonDays = c.MaxHorizonDays + 1 }},
			{"a zero list limit", func(c *config.Config) { c.MaxListLimit = 0 }},
			{"an unknown store", func(c *config.Config) { c.RunStore = "redis" }},
			{"sqlite without a path", func(c *config.Config) { c.RunStore = config.StoreSQLite; c.SQLitePath = "" }},
			{"a malformed start date", func(c *config.Config) { c.StartDate = "03/01/2020" }},
			{"invalid epidemic parameters", func(c *config.Config) { c.Epidemic.R0 = -1 }},
		}

		for _, tc := range cases {
			convey.Convey("When it has "+tc.name, func() {
				tc.mutate(cfg)

				convey.Convey("Then validation should fail with ErrInvalidConfig", func() {
					err := cfg.Validate()
					convey.So(err, convey.ShouldNotBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When it selects sqlite with a path and a start date", func() {
			cfg.RunStore = config.StoreSQLite
			cfg.StartDate = "2020-03-01"

			convey.Convey("Then it should be valid", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}
