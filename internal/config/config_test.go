package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/syncops/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.DefaultFormula, convey.ShouldEqual, "gate")
			convey.So(cfg.Seed, convey.ShouldBeTrue)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given invalid settings", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":      func(c *config.Config) { c.Addr = "" },
			"unknown store":   func(c *config.Config) { c.Store = "etcd" },
			"redis sans addr": func(c *config.Config) { c.Store = config.StoreRedis; c.RedisAddr = "" },
			"zero queue":      func(c *config.Config) { c.QueueSize = 0 },
			"zero workers":    func(c *config.Config) { c.WorkerCount = 0 },
			"bad formula":     func(c *config.Config) { c.DefaultFormula = "weighted" },
		}
		for name, mutate := range cases {
			convey.Convey("Then "+name+" is rejected", func() {
				cfg := config.New()
				mutate(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
