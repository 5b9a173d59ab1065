// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/aimrank/internal/adapters/dataset"
	repository "github.com/okian/aimrank/internal/adapters/repository"
	"github.com/okian/aimrank/internal/domain/model"
	"github.com/okian/aimrank/internal/domain/ranking"
	"github.com/okian/aimrank/internal/domain/scoring"
	"github.com/okian/aimrank/pkg/logger"
	"github.com/okian/aimrank/pkg/metrics"
)

// Default paging and sorting.
const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ErrNotStarted is returned by queries issued before Start.
var ErrNotStarted = errors.New("service not started")

// Query selects one ranked page. An empty Sort and nil Page or Size fall back
// to the service defaults: the kind's default sort key, page 1 and the default
// page size. Explicit values are passed to the engine as given, except that
// Size is capped at the maximum page size.
type Query struct {
	Sort   string
	Page   *int
	Size   *int
	Sector string
	Firm   string
}

// Service implements the API dependencies for the ranking system.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog repository.Store
	loader  *dataset.Loader
	scorer  *scoring.Scorer

	// Configuration
	defaultPageSize    int
	maxPageSize        int
	defaultAnalystSort ranking.SortKey
	defaultStockSort   ranking.SortKey
	datasetPath        string

	// State
	started  bool
	ownStore bool
	loadedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore sets the catalog store. The service creates an in-memory one
// when none is given.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.catalog = store
		}
	}
}

// WithLoader sets the dataset loader used by Start and Reload.
func WithLoader(loader *dataset.Loader) Option {
	return func(s *Service) {
		if loader != nil {
			s.loader = loader
		}
	}
}

// WithDatasetPath reads the dataset from a YAML file instead of the bundled one.
// Ignored when WithLoader is used.
func WithDatasetPath(path string) Option {
	return func(s *Service) {
		s.datasetPath = path
	}
}

// WithScorer sets the scorer applied to raw dataset records.
// Ignored when WithLoader is used.
func WithScorer(scorer *scoring.Scorer) Option {
	return func(s *Service) {
		if scorer != nil {
			s.scorer = scorer
		}
	}
}

// WithPageSizes sets the default and maximum page sizes.
func WithPageSizes(def, limit int) Option {
	return func(s *Service) {
		if def > 0 && limit >= def {
			s.defaultPageSize = def
			s.maxPageSize = limit
		}
	}
}

// WithDefaultSorts sets the sort keys used when a query omits one. Keys that
// do not parse or belong to the wrong kind are ignored.
func WithDefaultSorts(analyst, stock string) Option {
	return func(s *Service) {
		if key, err := ranking.ParseSortKey(analyst); err == nil {
			if _, err := ranking.ResolveFor(ranking.KindAnalyst, key); err == nil {
				s.defaultAnalystSort = key
			}
		}
		if key, err := ranking.ParseSortKey(stock); err == nil {
			if _, err := ranking.ResolveFor(ranking.KindStock, key); err == nil {
				s.defaultStockSort = key
			}
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		defaultPageSize:    defaultPageSize,
		maxPageSize:        maxPageSize,
		defaultAnalystSort: ranking.SortAccuracy,
		defaultStockSort:   ranking.SortUpsideHigh,
		scorer:             scoring.New(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start creates missing components and loads the dataset into the catalog.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting ranking service...")

	if s.catalog == nil {
		s.catalog = repository.NewMemStore(ctx)
		s.ownStore = true
	}
	if s.loader == nil {
		opts := []dataset.Option{dataset.WithScorer(s.scorer)}
		if s.datasetPath != "" {
			opts = append(opts, dataset.WithPath(s.datasetPath))
		}
		s.loader = dataset.NewLoader(opts...)
	}

	if err := s.reload(ctx); err != nil {
		s.closeStore()
		return err
	}

	s.started = true
	analysts, stocks := s.catalog.Count(ctx)
	s.logger.Info(ctx, "ranking service started",
		logger.String("dataset", s.loader.Source()),
		logger.Int("analysts", analysts),
		logger.Int("stocks", stocks),
		logger.Int("defaultPageSize", s.defaultPageSize),
		logger.Int("maxPageSize", s.maxPageSize),
	)

	return nil
}

// Reload reads the dataset again and swaps it into the catalog.
func (s *Service) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	return s.reload(ctx)
}

func (s *Service) reload(ctx context.Context) error {
	ds, err := s.loader.Load(ctx)
	if err != nil {
		s.logger.Error(ctx, "dataset load failed", logger.String("dataset", s.loader.Source()), logger.Error(err))
		return err
	}
	if err := s.catalog.Replace(ctx, ds.Analysts, ds.Stocks); err != nil {
		return fmt.Errorf("store catalog: %w", err)
	}
	s.loadedAt = time.Now()
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping ranking service...")
	s.closeStore()
	s.started = false
	s.logger.Info(context.Background(), "ranking service stopped")
}

func (s *Service) closeStore() {
	if !s.ownStore {
		return
	}
	if closer, ok := s.catalog.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	s.catalog = nil
	s.ownStore = false
}

func (s *Service) store() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.catalog, nil
}

// RankAnalysts returns one ranked page of analysts.
func (s *Service) RankAnalysts(ctx context.Context, q Query) (ranking.View[model.Analyst], error) {
	store, err := s.store()
	if err != nil {
		return ranking.View[model.Analyst]{}, err
	}
	list, err := store.Analysts(ctx, repository.Filter{Sector: q.Sector, Firm: q.Firm})
	if err != nil {
		return ranking.View[model.Analyst]{}, err
	}
	return rank(ctx, s, ranking.KindAnalyst, s.defaultAnalystSort, list, q)
}

// RankStocks returns one ranked page of stocks.
func (s *Service) RankStocks(ctx context.Context, q Query) (ranking.View[model.Stock], error) {
	store, err := s.store()
	if err != nil {
		return ranking.View[model.Stock]{}, err
	}
	list, err := store.Stocks(ctx, repository.Filter{Sector: q.Sector})
	if err != nil {
		return ranking.View[model.Stock]{}, err
	}
	return rank(ctx, s, ranking.KindStock, s.defaultStockSort, list, q)
}

// rank applies query defaults and builds the view. A page past the last one
// yields an empty item list rather than an error; page 0 and size 0 do not.
func rank[E ranking.Entity](ctx context.Context, s *Service, kind ranking.Kind, def ranking.SortKey, list []E, q Query) (ranking.View[E], error) {
	start := time.Now()

	key := def
	if q.Sort != "" {
		parsed, err := ranking.ParseSortKey(q.Sort)
		if err != nil {
			metrics.RecordRankingError(string(kind), "unknown_sort_key")
			return ranking.View[E]{}, err
		}
		key = parsed
	}

	page := 1
	if q.Page != nil {
		page = *q.Page
	}
	size := s.defaultPageSize
	if q.Size != nil {
		size = min(*q.Size, s.maxPageSize)
	}

	view, err := ranking.BuildFor(kind, list, key, page, size)
	if err != nil {
		metrics.RecordRankingError(string(kind), errorReason(err))
		return ranking.View[E]{}, err
	}

	metrics.RecordRankingRequest(string(kind), string(key))
	metrics.RecordRankingPageSize(size)
	metrics.RecordRankingLatency(string(kind), float64(time.Since(start).Microseconds())/1000)
	if len(view.Items) == 0 && view.TotalItems > 0 {
		metrics.RecordRankingEmptyPage(string(kind))
	}

	s.logger.Debug(ctx, "ranking built",
		logger.String("kind", string(kind)),
		logger.String("sort", string(key)),
		logger.Int("page", page),
		logger.Int("size", size),
		logger.Int("items", len(view.Items)),
		logger.Int("totalPages", view.TotalPages),
	)
	return view, nil
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, ranking.ErrUnknownSortKey):
		return "unknown_sort_key"
	case errors.Is(err, ranking.ErrOutOfRangePage):
		return "invalid_page"
	case errors.Is(err, ranking.ErrInvalidPageSize):
		return "invalid_page_size"
	default:
		return "internal"
	}
}

// AnalystByID returns one analyst.
func (s *Service) AnalystByID(ctx context.Context, id string) (model.Analyst, error) {
	store, err := s.store()
	if err != nil {
		return model.Analyst{}, err
	}
	return store.Analyst(ctx, id)
}

// StockByTicker returns one stock.
func (s *Service) StockByTicker(ctx context.Context, ticker string) (model.Stock, error) {
	store, err := s.store()
	if err != nil {
		return model.Stock{}, err
	}
	return store.Stock(ctx, ticker)
}

// SortKeys lists the sort keys of a kind given by name.
func (s *Service) SortKeys(_ context.Context, kind string) ([]ranking.KeySpec, error) {
	k, err := ranking.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	return ranking.Keys(k), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":            s.started,
		"defaultPageSize":    s.defaultPageSize,
		"maxPageSize":        s.maxPageSize,
		"defaultAnalystSort": string(s.defaultAnalystSort),
		"defaultStockSort":   string(s.defaultStockSort),
	}

	if s.started {
		analysts, stocks := s.catalog.Count(context.Background())
		stats["totalAnalysts"] = analysts
		stats["totalStocks"] = stocks
		stats["dataset"] = s.loader.Source()
		stats["loadedAt"] = s.loadedAt.UTC().Format(time.RFC3339)

		metrics.UpdateCatalogEntities(string(ranking.KindAnalyst), analysts)
		metrics.UpdateCatalogEntities(string(ranking.KindStock), stocks)
	}

	return stats
}
