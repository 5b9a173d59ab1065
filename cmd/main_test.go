package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/okian/aimrank/internal/adapters/http/api"
	"github.com/okian/aimrank/internal/adapters/http/swagger"
	app "github.com/okian/aimrank/internal/app"
	"github.com/okian/aimrank/internal/config"
	"github.com/okian/aimrank/pkg/logger"
	"github.com/okian/aimrank/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("AIMRANK_ADDR", ":8080")
			_ = os.Setenv("AIMRANK_DEFAULT_PAGE_SIZE", "20")
			_ = os.Setenv("AIMRANK_DEFAULT_STOCK_SORT", "buy_high")
			defer func() {
				_ = os.Unsetenv("AIMRANK_ADDR")
				_ = os.Unsetenv("AIMRANK_DEFAULT_PAGE_SIZE")
				_ = os.Unsetenv("AIMRANK_DEFAULT_STOCK_SORT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DefaultPageSize, convey.ShouldEqual, 20)
				convey.So(cfg.DefaultStockSort, convey.ShouldEqual, "buy_high")
			})
		})

		convey.Convey("When mapping configuration onto the service", func() {
			cfg := config.New(context.Background())
			cfg.DefaultPageSize = 5
			cfg.MaxPageSize = 7
			cfg.DefaultAnalystSort = "target_error"

			svc := app.New(serviceOptions(cfg, logger.Get())...)
			stats := svc.GetStats()

			convey.Convey("Then the options are applied", func() {
				convey.So(stats["defaultPageSize"], convey.ShouldEqual, 5)
				convey.So(stats["maxPageSize"], convey.ShouldEqual, 7)
				convey.So(stats["defaultAnalystSort"], convey.ShouldEqual, "target_error")
			})
		})

		convey.Convey("When testing HTTP server creation", func() {
			svc := app.New()
			convey.So(svc, convey.ShouldNotBeNil)

			convey.Convey("Then HTTP server should be creatable", func() {
				server := api.NewServer(svc, svc)
				convey.So(server, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable", func() {
				manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When mapping configuration onto metrics", func() {
			cfg := config.New(context.Background())
			cfg.MetricsNamespace = "rankcheck"
			cfg.MetricsRefreshInterval = 2 * time.Second
			cfg.MetricsLabels = map[string]string{"env": "staging"}

			reg := prometheus.NewRegistry()
			manager := metrics.NewManager(append(metricsOptions(cfg), metrics.WithPrometheusRegistry(reg))...)
			families, err := reg.Gather()
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then namespace, interval and labels are applied", func() {
				convey.So(manager.RefreshInterval(), convey.ShouldEqual, 2*time.Second)
				convey.So(families, convey.ShouldNotBeEmpty)
				for _, mf := range families {
					convey.So(mf.GetName(), convey.ShouldStartWith, "rankcheck_")
					for _, m := range mf.GetMetric() {
						labels := map[string]string{}
						for _, lp := range m.GetLabel() {
							labels[lp.GetName()] = lp.GetValue()
						}
						convey.So(labels["env"], convey.ShouldEqual, "staging")
					}
				}
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should return once the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics updater", func() {
			svc := app.New()
			convey.So(svc, convey.ShouldNotBeNil)

			convey.Convey("Then it should return once the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startServiceMetricsUpdater(ctx, svc)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing system metrics update", func() {
			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(func() {
					updateSystemMetrics()
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics update on a started service", func() {
			svc := app.New()
			convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(func() {
					updateServiceMetrics(svc)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When a reload signal arrives after the dataset changed", func() {
			path := filepath.Join(t.TempDir(), "data.yaml")
			convey.So(os.WriteFile(path, []byte("stocks:\n  - {ticker: \"A\", upside: 1}\n"), 0o600), convey.ShouldBeNil)

			svc := app.New(app.WithDatasetPath(path))
			convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
			defer svc.Stop()

			ctx, cancel := context.WithCancel(context.Background())
			sigs := make(chan os.Signal, 1)
			done := make(chan struct{})
			go func() {
				reloadOnSignal(ctx, svc, logger.Get(), sigs)
				close(done)
			}()

			convey.So(os.WriteFile(path, []byte("stocks:\n  - {ticker: \"A\", upside: 1}\n  - {ticker: \"B\", upside: 2}\n"), 0o600), convey.ShouldBeNil)
			sigs <- syscall.SIGHUP

			total := 0
			for deadline := time.Now().Add(2 * time.Second); time.Now().Before(deadline); time.Sleep(10 * time.Millisecond) {
				view, err := svc.RankStocks(context.Background(), app.Query{})
				convey.So(err, convey.ShouldBeNil)
				if total = view.TotalItems; total == 2 {
					break
				}
			}
			cancel()

			convey.Convey("Then the new catalog is served and the loop exits", func() {
				convey.So(total, convey.ShouldEqual, 2)
				select {
				case <-done:
				case <-time.After(time.Second):
					t.Fatal("reloadOnSignal did not return")
				}
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given main application integration", t, func() {
		convey.Convey("When testing full application setup", func() {
			_ = os.Setenv("AIMRANK_ADDR", ":8080")
			_ = os.Setenv("AIMRANK_MAX_PAGE_SIZE", "50")
			defer func() {
				_ = os.Unsetenv("AIMRANK_ADDR")
				_ = os.Unsetenv("AIMRANK_MAX_PAGE_SIZE")
			}()

			convey.Convey("Then all components should work together", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)

				svc := app.New(serviceOptions(cfg, logger.Get())...)
				convey.So(svc.Start(ctx), convey.ShouldBeNil)
				defer svc.Stop()

				mux := http.NewServeMux()
				api.NewServer(svc, svc).Register(ctx, mux)
				swagger.Register(ctx, mux)

				for _, target := range []string{
					"/analysts/ranking?size=500",
					"/stocks/ranking?sort=buy_low",
					"/analysts/an-001",
					"/sort-keys?kind=stock",
					"/stats",
					"/healthz",
					"/api-docs",
				} {
					w := httptest.NewRecorder()
					mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				}

				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/analysts/ranking?size=500", http.NoBody))
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `"page_size":50`)
			})
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given main application error handling", t, func() {
		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("AIMRANK_ADDR", "")
			defer func() { _ = os.Unsetenv("AIMRANK_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the dataset path does not exist", func() {
			cfg := config.New(context.Background())
			cfg.DatasetPath = "/nonexistent/aimrank.yaml"
			svc := app.New(serviceOptions(cfg, logger.Get())...)

			convey.Convey("Then the service refuses to start", func() {
				convey.So(svc.Start(context.Background()), convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainApplicationResourceCleanup(t *testing.T) {
	convey.Convey("Given main application resource cleanup", t, func() {
		convey.Convey("When testing multiple service start and stop cycles", func() {
			convey.Convey("Then each cycle should succeed", func() {
				for i := 0; i < 3; i++ {
					svc := app.New()
					convey.So(svc.Start(context.Background()), convey.ShouldBeNil)

					stats := svc.GetStats()
					convey.So(stats["totalAnalysts"], convey.ShouldEqual, 23)

					svc.Stop()
					convey.So(svc.GetStats()["started"], convey.ShouldBeFalse)
				}
			})
		})
	})
}
