// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Provide New(ctx) to build a Config with defaults.
//   - All functions accept context.Context as the first parameter.
//   - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"strings"
	"time"

	"github.com/okian/aimrank/internal/domain/ranking"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DefaultPageSize is used when a request omits size.
	DefaultPageSize int `koanf:"default_page_size"`

	// MaxPageSize caps the size a request may ask for.
	MaxPageSize int `koanf:"max_page_size"`

	// DatasetPath points at a YAML dataset. Empty loads the bundled one.
	DatasetPath string `koanf:"dataset_path"`

	// DefaultAnalystSort and DefaultStockSort apply when a request omits sort.
	DefaultAnalystSort string `koanf:"default_analyst_sort"`
	DefaultStockSort   string `koanf:"default_stock_sort"`

	// BuyThreshold and HoldThreshold are the hidden opinion cut-offs used when
	// scoring raw reports.
	BuyThreshold  float64 `koanf:"buy_threshold"`
	HoldThreshold float64 `koanf:"hold_threshold"`

	// MetricsNamespace prefixes every exported metric.
	MetricsNamespace string `koanf:"metrics_namespace"`

	// MetricsEnabled turns metric recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsRefreshInterval paces the catalog and system gauge updates, e.g. "5s".
	MetricsRefreshInterval time.Duration `koanf:"metrics_refresh_interval"`

	// MetricsLabels are constant labels attached to every metric, e.g. env: prod.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

// New creates a Config holding the defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		DefaultPageSize:    10,
		MaxPageSize:        100,
		DefaultAnalystSort: string(ranking.SortAccuracy),
		DefaultStockSort:   string(ranking.SortUpsideHigh),
		BuyThreshold:       0.75,
		HoldThreshold:      0.4,
		MetricsNamespace:   "aimrank",
		MetricsEnabled:     true,

		MetricsRefreshInterval: 5 * time.Second,
	}
}

// Validate checks the values a service cannot run with.
func (c *Config) Validate(_ context.Context) error {
	switch {
	case c.Addr == "":
		return invalid("addr", "must not be empty")
	case c.DefaultPageSize <= 0:
		return invalid("default_page_size", "must be positive, got %d", c.DefaultPageSize)
	case c.MaxPageSize < c.DefaultPageSize:
		return invalid("max_page_size", "%d is below default_page_size %d", c.MaxPageSize, c.DefaultPageSize)
	case c.BuyThreshold <= c.HoldThreshold || c.HoldThreshold <= 0 || c.BuyThreshold > 1:
		return invalid("buy_threshold/hold_threshold", "must satisfy 0 < hold < buy <= 1")
	case c.MetricsRefreshInterval <= 0:
		return invalid("metrics_refresh_interval", "must be positive, got %s", c.MetricsRefreshInterval)
	case hasReservedLabel(c.MetricsLabels):
		return invalid("metrics_labels", "names must be non-empty and not start with __")
	}
	if err := checkSort(ranking.KindAnalyst, c.DefaultAnalystSort); err != nil {
		return err
	}
	return checkSort(ranking.KindStock, c.DefaultStockSort)
}

func hasReservedLabel(labels map[string]string) bool {
	for name := range labels {
		if name == "" || strings.HasPrefix(name, "__") {
			return true
		}
	}
	return false
}

func checkSort(kind ranking.Kind, raw string) error {
	key, err := ranking.ParseSortKey(raw)
	if err == nil {
		_, err = ranking.ResolveFor(kind, key)
	}
	if err != nil {
		return invalid("default_"+string(kind)+"_sort", "%q: %v", raw, err)
	}
	return nil
}
