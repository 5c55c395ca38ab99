package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/syncops/internal/adapters/repository"
	"github.com/okian/syncops/internal/config"
	"github.com/okian/syncops/pkg/logger"
)

const testFixtures = `
teams:
  - id: "1"
    name: Solo Team
services:
  - serviceId: "42"
    name: Lonely Service
    team: Solo Team
    repository: solo
`

func TestNewService(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.WorkerCount = 1

		convey.Convey("Then the service seeds the embedded fixtures", func() {
			svc, err := newService(cfg, repository.NewMemoryStore(), logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()
			convey.So(svc.Stats(ctx)["services"], convey.ShouldEqual, 7)
		})

		convey.Convey("Then a fixtures file replaces the embedded fixtures", func() {
			path := filepath.Join(t.TempDir(), "fixtures.yaml")
			convey.So(os.WriteFile(path, []byte(testFixtures), 0o600), convey.ShouldBeNil)
			cfg.FixturesPath = path

			svc, err := newService(cfg, repository.NewMemoryStore(), logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()
			got, err := svc.Service(ctx, "42")
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.Name, convey.ShouldEqual, "Lonely Service")
		})

		convey.Convey("Then a missing fixtures file fails", func() {
			cfg.FixturesPath = filepath.Join(t.TempDir(), "missing.yaml")
			_, err := newService(cfg, repository.NewMemoryStore(), logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("Then the legacy formula can be the default", func() {
			cfg.DefaultFormula = "legacy"
			svc, err := newService(cfg, repository.NewMemoryStore(), logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()
			sc, err := svc.Scorecard(ctx, "1", "")
			convey.So(err, convey.ShouldBeNil)
			convey.So(sc.Overall.Score, convey.ShouldEqual, 91)
		})
	})
}

func TestNewStore(t *testing.T) {
	convey.Convey("Given a store setting", t, func() {
		ctx := context.Background()
		cfg := config.New()

		convey.Convey("Then memory is the default", func() {
			store, closeStore, err := newStore(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer closeStore()
			_, ok := store.(*repository.MemoryStore)
			convey.So(ok, convey.ShouldBeTrue)
		})

		convey.Convey("Then redis connects to the configured address", func() {
			mr := miniredis.RunT(t)
			cfg.Store = config.StoreRedis
			cfg.RedisAddr = mr.Addr()

			store, closeStore, err := newStore(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer closeStore()
			_, ok := store.(*repository.RedisStore)
			convey.So(ok, convey.ShouldBeTrue)
		})

		convey.Convey("Then an unreachable redis fails fast", func() {
			mr := miniredis.RunT(t)
			cfg.Store = config.StoreRedis
			cfg.RedisAddr = mr.Addr()
			mr.Close()

			_, _, err := newStore(ctx, cfg)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestNewHandler(t *testing.T) {
	convey.Convey("Given a started service behind the full handler", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.WorkerCount = 1
		svc, err := newService(cfg, repository.NewMemoryStore(), logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		h, err := newHandler(ctx, cfg, svc)
		convey.So(err, convey.ShouldBeNil)

		for _, path := range []string{"/", "/dashboard", "/api-docs", "/openapi.yaml", "/healthz", "/stats", "/api/v1/services"} {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/teams", http.NoBody)
		req.Header.Set("Origin", "http://localhost:3000")
		h.ServeHTTP(w, req)
		convey.So(w.Header().Get("Access-Control-Allow-Origin"), convey.ShouldEqual, "*")
	})
}

func TestUpdateServiceMetrics(t *testing.T) {
	convey.Convey("Updating gauges from service stats does not panic", t, func() {
		ctx := context.Background()
		svc, err := newService(config.New(), repository.NewMemoryStore(), logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		convey.So(func() { updateServiceMetrics(ctx, svc) }, convey.ShouldNotPanic)
	})
}
