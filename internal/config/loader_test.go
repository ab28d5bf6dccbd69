package config_test

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"

	"github.com/okian/seirsim/internal/config"
	"github.com/okian/seirsim/internal/domain/epidemic"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
				convey.So(cfg.RunStore, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.Epidemic, convey.ShouldResemble, epidemic.DefaultParameters())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SEIRSIM_ADDR", ":8080")
			_ = os.Setenv("SEIRSIM_QUEUE_SIZE", "4096")
			_ = os.Setenv("SEIRSIM_WORKER_COUNT", "16")
			_ = os.Setenv("SEIRSIM_MEMO_SIZE", "250")
			_ = os.Setenv("SEIRSIM_LOG_FORMAT", "json")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 4096)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.MemoSize, convey.ShouldEqual, 250)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When loading nested epidemic parameters from env", func() {
			_ = os.Setenv("SEIRSIM_EPIDEMIC__R0", "2.5")
			_ = os.Setenv("SEIRSIM_EPIDEMIC__SEASONAL_AMPLITUDE", "0.3")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then only the named parameters should change", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Epidemic.R0, convey.ShouldEqual, 2.5)
				convey.So(cfg.Epidemic.SeasonalAmplitude, convey.ShouldEqual, 0.3)
				convey.So(cfg.Epidemic.LatentDays, convey.ShouldEqual, epidemic.DefaultParameters().LatentDays)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
# service
addr: ":9090"  # listen address
queue_size: 300
run_store: sqlite
sqlite_path: /tmp/runs.db
start_date: "2020-03-01"
epidemic:
  r0: 2.0
  immunity_days: 300
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SEIRSIM_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.RunStore, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.SQLitePath, convey.ShouldEqual, "/tmp/runs.db")
				convey.So(cfg.StartDate, convey.ShouldEqual, "2020-03-01")
				convey.So(cfg.Epidemic.R0, convey.ShouldEqual, 2.0)
				convey.So(cfg.Epidemic.ImmunityDays, convey.ShouldEqual, 300.0)
				convey.So(cfg.Epidemic.InfectiousDays, convey.ShouldEqual, epidemic.DefaultParameters().InfectiousDays)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nworker_count: 24\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SEIRSIM_CONFIG", tmpFile)
			_ = os.Setenv("SEIRSIM_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile("addr: [unterminated\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SEIRSIM_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("SEIRSIM_CONFIG", "/non/existent/seirsim.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("SEIRSIM_QUEUE_SIZE", "lots")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			tmpFile := createTempConfigFile("addr: \"\"\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SEIRSIM_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading an unknown run store", func() {
			_ = os.Setenv("SEIRSIM_RUN_STORE", "postgres")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"SEIRSIM_CONFIG",
		"SEIRSIM_ADDR",
		"SEIRSIM_QUEUE_SIZE",
		"SEIRSIM_WORKER_COUNT",
		"SEIRSIM_MEMO_SIZE",
		"SEIRSIM_LOG_FORMAT",
		"SEIRSIM_RUN_STORE",
		"SEIRSIM_EPIDEMIC__R0",
		"SEIRSIM_EPIDEMIC__SEASONAL_AMPLITUDE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "seirsim-config-*.yaml")
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
