package probe

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/okian/aimrank/internal/domain/ranking"
	"github.com/okian/aimrank/pkg/logger"
)

// rankingPath returns the ranking route of kind.
func rankingPath(kind ranking.Kind) string {
	return "/" + string(kind) + "s/ranking"
}

// sortKeys fetches the sort keys the service advertises for kind.
func sortKeys(ctx context.Context, client *HTTPClient, kind ranking.Kind) ([]ranking.KeySpec, error) {
	var keys []ranking.KeySpec
	if err := client.GetJSON(ctx, "/sort-keys", url.Values{"kind": {string(kind)}}, &keys); err != nil {
		return nil, err
	}
	for i := range keys {
		spec, err := ranking.Spec(keys[i].Key)
		if err != nil {
			return nil, fmt.Errorf("service advertises %w", err)
		}
		keys[i].Direction = spec.Direction
	}
	return keys, nil
}

// fetchPage requests one page of the ranking for spec.
func fetchPage(ctx context.Context, client *HTTPClient, config *Config, spec ranking.KeySpec, page int) (Page, error) {
	q := url.Values{
		"sort": {string(spec.Key)},
		"page": {strconv.Itoa(page)},
		"size": {strconv.Itoa(config.PageSize)},
	}
	if config.Sector != "" {
		q.Set("sector", config.Sector)
	}
	var p Page
	if err := client.GetJSON(ctx, rankingPath(spec.Kind), q, &p); err != nil {
		return Page{}, err
	}
	return p, nil
}

// walk fetches every page of the ranking for spec plus the page after the
// last one. Page 1 is fetched first to learn the page count; the remaining
// pages are spread over a worker pool.
func walk(ctx context.Context, client *HTTPClient, config *Config, spec ranking.KeySpec, stats *Stats) (pages []Page, beyond Page, err error) {
	first, err := fetchPage(ctx, client, config, spec, 1)
	if err != nil {
		return nil, Page{}, err
	}
	stats.PagesFetched.Add(1)

	total := first.Pagination.TotalPages
	pages = make([]Page, max(total, 1))
	pages[0] = first

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		firstEr error
	)
	pageChan := make(chan int, config.Workers*workerChannelMultiplier)

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range pageChan {
				p, err := fetchPage(ctx, client, config, spec, n)
				if err != nil {
					mu.Lock()
					if firstEr == nil {
						firstEr = err
					}
					mu.Unlock()
					continue
				}
				stats.PagesFetched.Add(1)
				pages[n-1] = p
				if config.Verbose {
					logger.Get().Debug(ctx, "page fetched",
						logger.String("sort", string(spec.Key)),
						logger.Int("page", n),
						logger.Int("items", len(p.Items)))
				}
			}
		}()
	}

	go func() {
		defer close(pageChan)
		for n := 2; n <= total; n++ {
			select {
			case <-ctx.Done():
				return
			case pageChan <- n:
			}
		}
	}()

	wg.Wait()
	if firstEr != nil {
		return nil, Page{}, firstEr
	}
	if err := ctx.Err(); err != nil {
		return nil, Page{}, err
	}

	beyond, err = fetchPage(ctx, client, config, spec, total+1)
	if err != nil {
		return nil, Page{}, err
	}
	stats.PagesFetched.Add(1)
	return pages, beyond, nil
}
