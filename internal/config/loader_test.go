package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/aimrank/internal/config"
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
				convey.So(cfg.DefaultPageSize, convey.ShouldEqual, 10)
				convey.So(cfg.MaxPageSize, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("AIMRANK_ADDR", ":8080")
			_ = os.Setenv("AIMRANK_DEFAULT_PAGE_SIZE", "20")
			_ = os.Setenv("AIMRANK_MAX_PAGE_SIZE", "50")
			_ = os.Setenv("AIMRANK_LOG_FORMAT", "json")
			_ = os.Setenv("AIMRANK_DEFAULT_STOCK_SORT", "buy_high")
			_ = os.Setenv("AIMRANK_METRICS_ENABLED", "false")
			_ = os.Setenv("AIMRANK_METRICS_REFRESH_INTERVAL", "15s")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DefaultPageSize, convey.ShouldEqual, 20)
				convey.So(cfg.MaxPageSize, convey.ShouldEqual, 50)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.DefaultStockSort, convey.ShouldEqual, "buy_high")
				convey.So(cfg.MetricsEnabled, convey.ShouldBeFalse)
				convey.So(cfg.MetricsRefreshInterval, convey.ShouldEqual, 15*time.Second)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
default_page_size: 25
max_page_size: 200
dataset_path: "/data/aimrank.yaml"
default_analyst_sort: target_error
metrics_labels:
  env: staging
  region: kr
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("AIMRANK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DefaultPageSize, convey.ShouldEqual, 25)
				convey.So(cfg.MaxPageSize, convey.ShouldEqual, 200)
				convey.So(cfg.DatasetPath, convey.ShouldEqual, "/data/aimrank.yaml")
				convey.So(cfg.DefaultAnalystSort, convey.ShouldEqual, "target_error")
				convey.So(cfg.MetricsLabels, convey.ShouldResemble, map[string]string{"env": "staging", "region": "kr"})
			})
		})

		convey.Convey("When env vars and a file both set a key", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nmax_page_size: 40\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("AIMRANK_CONFIG", tmpFile)
			_ = os.Setenv("AIMRANK_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env vars take precedence", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxPageSize, convey.ShouldEqual, 40)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("AIMRANK_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the addr is set empty", func() {
			_ = os.Setenv("AIMRANK_ADDR", "")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a numeric env var is malformed", func() {
			_ = os.Setenv("AIMRANK_MAX_PAGE_SIZE", "lots")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func createTempConfigFile(content string) string {
	f, err := os.CreateTemp("", "aimrank-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		panic(err)
	}
	return f.Name()
}

func clearConfigEnvVars() {
	for _, name := range []string{
		"AIMRANK_CONFIG",
		"AIMRANK_ADDR",
		"AIMRANK_LOG_LEVEL",
		"AIMRANK_LOG_FORMAT",
		"AIMRANK_DEFAULT_PAGE_SIZE",
		"AIMRANK_MAX_PAGE_SIZE",
		"AIMRANK_DATASET_PATH",
		"AIMRANK_DEFAULT_ANALYST_SORT",
		"AIMRANK_DEFAULT_STOCK_SORT",
		"AIMRANK_METRICS_ENABLED",
		"AIMRANK_METRICS_REFRESH_INTERVAL",
	} {
		_ = os.Unsetenv(name)
	}
}
