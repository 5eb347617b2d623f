package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/unirank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"UNIRANK_CONFIG",
	"UNIRANK_ADDR",
	"UNIRANK_LOG_LEVEL",
	"UNIRANK_MAX_FILES_PER_BATCH",
	"UNIRANK_READ_CONCURRENCY",
	"UNIRANK_SESSION_TTL",
	"UNIRANK_DUPLICATE_POLICY",
	"UNIRANK_EXPORT_QUOTING",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unirank.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

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
				convey.So(cfg.MaxFilesPerBatch, convey.ShouldEqual, 64)
				convey.So(cfg.DuplicatePolicy, convey.ShouldEqual, "keep")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("UNIRANK_ADDR", ":8080")
			_ = os.Setenv("UNIRANK_MAX_FILES_PER_BATCH", "8")
			_ = os.Setenv("UNIRANK_SESSION_TTL", "15m")
			_ = os.Setenv("UNIRANK_DUPLICATE_POLICY", "flag")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxFilesPerBatch, convey.ShouldEqual, 8)
				convey.So(cfg.SessionTTL, convey.ShouldEqual, 15*time.Minute)
				convey.So(cfg.DuplicatePolicy, convey.ShouldEqual, "flag")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := createTempConfigFile(t, `
addr: ":9090"
read_concurrency: 3
export_quoting: rfc4180
session_sweep_interval: 30s
`)
			_ = os.Setenv("UNIRANK_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values should be applied over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.ReadConcurrency, convey.ShouldEqual, 3)
				convey.So(cfg.ExportQuoting, convey.ShouldEqual, "rfc4180")
				convey.So(cfg.SessionSweepInterval, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.AllowedExtension, convey.ShouldEqual, ".csv")
			})
		})

		convey.Convey("When both file and environment set the same key", func() {
			path := createTempConfigFile(t, "addr: \":9090\"\nread_concurrency: 3\n")
			_ = os.Setenv("UNIRANK_CONFIG", path)
			_ = os.Setenv("UNIRANK_ADDR", ":7070")

			cfg, err := config.Load(ctx)

			convey.Convey("Then the environment should win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.ReadConcurrency, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the YAML file is invalid", func() {
			path := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("UNIRANK_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the file does not exist", func() {
			_ = os.Setenv("UNIRANK_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When addr is empty", func() {
			_ = os.Setenv("UNIRANK_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation should fail", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "Addr")
			})
		})

		convey.Convey("When the duplicate policy is unknown", func() {
			_ = os.Setenv("UNIRANK_DUPLICATE_POLICY", "merge")

			_, err := config.Load(ctx)

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a numeric variable is not a number", func() {
			_ = os.Setenv("UNIRANK_READ_CONCURRENCY", "many")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}
