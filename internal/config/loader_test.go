package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/vinlookup/internal/config"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Store.Backend, convey.ShouldEqual, "memory")
				convey.So(cfg.Batch.MaxSize, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("VINLOOKUP_ADDR", ":8080")
			_ = os.Setenv("VINLOOKUP_LOG_LEVEL", "debug")
			_ = os.Setenv("VINLOOKUP_DECODER__MODE", "static")
			_ = os.Setenv("VINLOOKUP_DECODER__TIMEOUT_MS", "2500")
			_ = os.Setenv("VINLOOKUP_BATCH__MAX_SIZE", "25")
			_ = os.Setenv("VINLOOKUP_EXPORT__ALLOW_EMPTY", "true")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.Decoder.Mode, convey.ShouldEqual, "static")
				convey.So(cfg.Decoder.TimeoutMS, convey.ShouldEqual, 2500)
				convey.So(cfg.Batch.MaxSize, convey.ShouldEqual, 25)
				convey.So(cfg.Batch.Concurrency, convey.ShouldEqual, 8)
				convey.So(cfg.Export.AllowEmpty, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
decoder:
  mode: vpic
  wmi_overrides:
    9ZZ: Acme Motors
store:
  backend: redis
  redis_url: redis://localhost:6379/0
export:
  default_format: parquet
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("VINLOOKUP_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Decoder.Mode, convey.ShouldEqual, "vpic")
				convey.So(cfg.Decoder.WMIOverrides["9ZZ"], convey.ShouldEqual, "Acme Motors")
				convey.So(cfg.Decoder.TimeoutMS, convey.ShouldEqual, 10_000)
				convey.So(cfg.Store.Backend, convey.ShouldEqual, "redis")
				convey.So(cfg.Store.RedisKey, convey.ShouldEqual, "vinlookup:records")
				convey.So(cfg.Export.DefaultFormat, convey.ShouldEqual, "parquet")
			})

			convey.Convey("Then environment variables override file values", func() {
				_ = os.Setenv("VINLOOKUP_ADDR", ":7070")
				_ = os.Setenv("VINLOOKUP_STORE__BACKEND", "memory")

				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.Store.Backend, convey.ShouldEqual, "memory")
				convey.So(cfg.Decoder.Mode, convey.ShouldEqual, "vpic")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("VINLOOKUP_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("VINLOOKUP_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("VINLOOKUP_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("VINLOOKUP_BATCH__MAX_SIZE", "many")

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"VINLOOKUP_CONFIG",
		"VINLOOKUP_ADDR",
		"VINLOOKUP_LOG_LEVEL",
		"VINLOOKUP_DECODER__MODE",
		"VINLOOKUP_DECODER__TIMEOUT_MS",
		"VINLOOKUP_BATCH__MAX_SIZE",
		"VINLOOKUP_EXPORT__ALLOW_EMPTY",
		"VINLOOKUP_STORE__BACKEND",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "vinlookup-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
