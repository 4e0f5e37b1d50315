package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/vinlookup/internal/config"
	"github.com/okian/vinlookup/pkg/logger"
	"github.com/okian/vinlookup/pkg/metrics"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func TestBuildService(t *testing.T) {
	convey.Convey("Given configuration loaded from the environment", t, func() {
		t.Setenv("VINLOOKUP_ADDR", ":8080")
		t.Setenv("VINLOOKUP_DECODER__MODE", "static")
		t.Setenv("VINLOOKUP_VALIDATION__CHECK_DIGIT", "always")
		t.Setenv("VINLOOKUP_BATCH__MAX_SIZE", "10")

		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":8080")

		convey.Convey("When the service is built from it", func() {
			svc, err := buildService(cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the settings reach the service", func() {
				stats := svc.GetStats()
				convey.So(stats["decoder"], convey.ShouldEqual, "static")
				convey.So(stats["checkDigitMode"], convey.ShouldEqual, "always")
				convey.So(stats["storeBackend"], convey.ShouldEqual, "memory")
				convey.So(stats["batchMaxSize"], convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When the decoder mode is the remote fallback", func() {
			cfg.Decoder.Mode = "vpic_fallback"
			svc, err := buildService(cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.GetStats()["decoder"], convey.ShouldEqual, "vpic+static")
		})

		convey.Convey("When the configuration is broken", func() {
			cfg.Decoder.Mode = "psychic"
			_, err := buildService(cfg, logger.Get())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestApplyLogging(t *testing.T) {
	convey.Convey("Given a configuration", t, func() {
		cfg := config.New()
		defer func() { _ = logger.Init() }()

		convey.Convey("When the level is invalid", func() {
			cfg.LogLevel = "chatty"

			convey.Convey("Then it falls back instead of failing", func() {
				convey.So(applyLogging(cfg), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the format is invalid", func() {
			cfg.LogFormat = "xml"

			convey.Convey("Then it fails", func() {
				convey.So(applyLogging(cfg), convey.ShouldNotBeNil)
			})
		})
	})
}

func TestBuildHandler(t *testing.T) {
	convey.Convey("Given a started service behind the full handler", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.Decoder.Mode = "static"
		svc, err := buildService(cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		srv := httptest.NewServer(buildHandler(ctx, svc, logger.Get()))
		defer srv.Close()

		convey.Convey("When a VIN is looked up", func() {
			resp, err := http.Post(srv.URL+"/lookup", "text/plain", strings.NewReader("1HGCM82633A004352"))
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()

			convey.Convey("Then the API answers with a request id", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(resp.Header.Get("X-Request-ID"), convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When the docs are requested", func() {
			resp, err := http.Get(srv.URL + "/openapi.yaml")
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("When the service metrics are refreshed", func() {
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metric updaters", t, func() {
		convey.Convey("Then the system updater returns when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then a system update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then a metrics manager can use its own registry", func() {
			manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
			convey.So(manager, convey.ShouldNotBeNil)
		})
	})
}
