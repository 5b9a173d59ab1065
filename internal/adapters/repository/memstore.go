package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/okian/aimrank/internal/domain/model"
	"github.com/okian/aimrank/pkg/metrics"
)

const defaultMetricsUpdateInterval = 5 * time.Second

// MemStore is an in-memory Store. Replacements are atomic: readers see the
// previous set or the new one, never a mix.
type MemStore struct {
	mu        sync.RWMutex
	analysts  []model.Analyst
	stocks    []model.Stock
	analystBy map[string]int
	stockBy   map[string]int

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

var _ Store = (*MemStore)(nil)

// NewMemStore constructs an empty store and starts its metrics updater,
// which runs until ctx is done or Close is called.
func NewMemStore(ctx context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		analystBy:             make(map[string]int),
		stockBy:               make(map[string]int),
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.startMetricsUpdater(ctx)
	return s
}

func (s *MemStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.publishCounts(ctx)
			}
		}
	}()
}

func (s *MemStore) publishCounts(ctx context.Context) {
	analysts, stocks := s.Count(ctx)
	metrics.UpdateCatalogEntities("analyst", analysts)
	metrics.UpdateCatalogEntities("stock", stocks)
}

// Close stops the background metrics updater.
func (s *MemStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Replace implements Store.Replace.
func (s *MemStore) Replace(ctx context.Context, analysts []model.Analyst, stocks []model.Stock) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	aList, aIndex, err := indexAnalysts(analysts)
	if err != nil {
		return err
	}
	sList, sIndex, err := indexStocks(stocks)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.analysts, s.analystBy = aList, aIndex
	s.stocks, s.stockBy = sList, sIndex
	s.mu.Unlock()

	publishReplace("analyst", len(aList))
	publishReplace("stock", len(sList))
	return nil
}

// ReplaceAnalysts implements Store.ReplaceAnalysts.
func (s *MemStore) ReplaceAnalysts(ctx context.Context, analysts []model.Analyst) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	list, index, err := indexAnalysts(analysts)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.analysts, s.analystBy = list, index
	s.mu.Unlock()

	publishReplace("analyst", len(list))
	return nil
}

// ReplaceStocks implements Store.ReplaceStocks.
func (s *MemStore) ReplaceStocks(ctx context.Context, stocks []model.Stock) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	list, index, err := indexStocks(stocks)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.stocks, s.stockBy = list, index
	s.mu.Unlock()

	publishReplace("stock", len(list))
	return nil
}

func indexAnalysts(analysts []model.Analyst) ([]model.Analyst, map[string]int, error) {
	index := make(map[string]int, len(analysts))
	list := make([]model.Analyst, len(analysts))
	for i, a := range analysts {
		if err := addKey(index, a.ID, i); err != nil {
			metrics.RecordErrorByComponent("repository", "invalid_key")
			return nil, nil, fmt.Errorf("analyst %d: %w", i, err)
		}
		list[i] = cloneAnalyst(a)
	}
	return list, index, nil
}

func indexStocks(stocks []model.Stock) ([]model.Stock, map[string]int, error) {
	index := make(map[string]int, len(stocks))
	list := make([]model.Stock, len(stocks))
	for i, st := range stocks {
		if err := addKey(index, st.Ticker, i); err != nil {
			metrics.RecordErrorByComponent("repository", "invalid_key")
			return nil, nil, fmt.Errorf("stock %d: %w", i, err)
		}
		list[i] = cloneStock(st)
	}
	return list, index, nil
}

func publishReplace(kind string, n int) {
	metrics.RecordRepositoryReplace(kind)
	metrics.UpdateCatalogEntities(kind, n)
}

func addKey(index map[string]int, key string, i int) error {
	if key == "" {
		return ErrEmptyKey
	}
	if _, dup := index[key]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}
	index[key] = i
	return nil
}

// Analysts implements Store.Analysts.
func (s *MemStore) Analysts(ctx context.Context, f Filter) ([]model.Analyst, error) {
	defer observeQuery(time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Analyst, 0, len(s.analysts))
	for _, a := range s.analysts {
		if !matchFold(f.Firm, a.Firm) || !a.CoversSector(f.Sector) {
			continue
		}
		out = append(out, cloneAnalyst(a))
	}
	return out, nil
}

// Stocks implements Store.Stocks.
func (s *MemStore) Stocks(ctx context.Context, f Filter) ([]model.Stock, error) {
	defer observeQuery(time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Stock, 0, len(s.stocks))
	for _, st := range s.stocks {
		if !matchFold(f.Sector, st.Sector) {
			continue
		}
		out = append(out, cloneStock(st))
	}
	return out, nil
}

// Analyst implements Store.Analyst.
func (s *MemStore) Analyst(ctx context.Context, id string) (model.Analyst, error) {
	defer observeQuery(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.analystBy[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Analyst{}, fmt.Errorf("analyst %q: %w", id, ErrNotFound)
	}
	return cloneAnalyst(s.analysts[i]), nil
}

// Stock implements Store.Stock.
func (s *MemStore) Stock(ctx context.Context, ticker string) (model.Stock, error) {
	defer observeQuery(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.stockBy[ticker]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Stock{}, fmt.Errorf("stock %q: %w", ticker, ErrNotFound)
	}
	return cloneStock(s.stocks[i]), nil
}

// Count implements Store.Count.
func (s *MemStore) Count(ctx context.Context) (analysts, stocks int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.analysts), len(s.stocks)
}

func observeQuery(start time.Time) {
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
}

func matchFold(want, have string) bool {
	return want == "" || strings.EqualFold(strings.TrimSpace(want), have)
}

func cloneAnalyst(a model.Analyst) model.Analyst {
	a.Sectors = slices.Clone(a.Sectors)
	a.Reports = slices.Clone(a.Reports)
	return a
}

func cloneStock(st model.Stock) model.Stock {
	st.Upside = clonePtr(st.Upside)
	st.BuyRatio = clonePtr(st.BuyRatio)
	return st
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
