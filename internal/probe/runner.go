package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/aimrank/internal/domain/ranking"
	"github.com/okian/aimrank/pkg/logger"
)

// Run checks every sort key of every kind and returns the collected stats.
// It returns ErrVerification when any ranking is inconsistent.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	cfg := withDefaults(config)
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting ranking probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("pageSize", cfg.PageSize),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()),
		logger.String("sector", cfg.Sector))

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	for _, kind := range []ranking.Kind{ranking.KindAnalyst, ranking.KindStock} {
		keys, err := sortKeys(ctx, client, kind)
		if err != nil {
			return stats, fmt.Errorf("sort keys for %s: %w", kind, err)
		}
		for _, spec := range keys {
			pages, beyond, err := walk(ctx, client, &cfg, spec, stats)
			if err != nil {
				return stats, fmt.Errorf("walk %s: %w", spec.Key, err)
			}
			stats.KeysChecked.Add(1)
			for _, p := range pages {
				stats.ItemsChecked.Add(int64(len(p.Items)))
			}

			if err := verify(spec, pages, beyond); err != nil {
				stats.Failures.Add(1)
				log.Error(ctx, "ranking inconsistent",
					logger.String("kind", string(kind)),
					logger.String("sort", string(spec.Key)),
					logger.Error(err))
				continue
			}
			log.Info(ctx, "ranking verified",
				logger.String("kind", string(kind)),
				logger.String("sort", string(spec.Key)),
				logger.Int("pages", len(pages)),
				logger.Int("items", pages[0].Pagination.TotalItems))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if n := stats.Failures.Load(); n > 0 {
		return stats, fmt.Errorf("%w: %d of %d sort keys", ErrVerification, n, stats.KeysChecked.Load())
	}
	log.Info(ctx, "probe completed successfully")
	return stats, nil
}

func withDefaults(config *Config) Config {
	cfg := *config
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	logger.Get().Info(ctx, "checking service health")

	// Any 200 is healthy; the body is the Prometheus exposition.
	resp, err := client.Get(ctx, "/healthz", nil)
	if err != nil {
		return err
	}
	if err := resp.Body.Close(); err != nil {
		logger.Get().Warn(ctx, "failed to close response body", logger.Error(err))
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats logs the run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var pagesPerSecond float64
	if stats.Duration > 0 {
		pagesPerSecond = float64(stats.PagesFetched.Load()) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("keysChecked", int(stats.KeysChecked.Load())),
		logger.Int("pagesFetched", int(stats.PagesFetched.Load())),
		logger.Int("itemsChecked", int(stats.ItemsChecked.Load())),
		logger.Int("failures", int(stats.Failures.Load())),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("pagesPerSecond", pagesPerSecond))
}
