// Package probe walks every ranking a running service exposes and checks that
// the pages it serves add up to one consistent ranked list.
package probe

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/okian/aimrank/internal/domain/ranking"
)

// ErrVerification is returned when at least one ranking failed a check.
var ErrVerification = errors.New("ranking verification failed")

// Config holds configuration for a probe run.
type Config struct {
	BaseURL  string        // Base URL of the service
	PageSize int           // Items requested per page
	Workers  int           // Number of concurrent page fetchers
	Timeout  time.Duration // HTTP request timeout
	Sector   string        // Optional sector filter applied to every walk
	Verbose  bool          // Log every page
}

// Page is the decoded body of a ranking response.
type Page struct {
	Items      []Item     `json:"items"`
	Pagination Pagination `json:"pagination"`
	Sort       SortInfo   `json:"sort"`
}

// Pagination mirrors the pagination block of a ranking response.
type Pagination struct {
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalItems int            `json:"total_items"`
	TotalPages int            `json:"total_pages"`
	HasPrev    bool           `json:"has_prev"`
	HasNext    bool           `json:"has_next"`
	Window     ranking.Window `json:"window"`
}

// SortInfo mirrors the sort block of a ranking response.
type SortInfo struct {
	Key       string `json:"key"`
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// Item is one ranked analyst or stock as served over the wire.
type Item map[string]any

// Rank returns the served position.
func (it Item) Rank() int {
	v, _ := it["rank"].(float64)
	return int(v)
}

// EntityID returns the analyst id or the stock ticker.
func (it Item) EntityID() string {
	if id, ok := it["id"].(string); ok && id != "" {
		return id
	}
	ticker, _ := it["ticker"].(string)
	return ticker
}

// Metric reads f from the top level (stocks) or from metrics (analysts).
// A JSON null counts as absent.
func (it Item) Metric(f ranking.Field) (float64, bool) {
	if v, ok := it[string(f)].(float64); ok {
		return v, true
	}
	if m, ok := it["metrics"].(map[string]any); ok {
		if v, ok := m[string(f)].(float64); ok {
			return v, true
		}
	}
	return 0, false
}

// Stats holds run statistics.
type Stats struct {
	KeysChecked  atomic.Int64
	PagesFetched atomic.Int64
	ItemsChecked atomic.Int64
	Failures     atomic.Int64
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
}
