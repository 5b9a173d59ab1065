// Package repository holds the analyst and stock catalog the rankings are built from.
package repository

import (
	"context"

	"github.com/okian/aimrank/internal/domain/model"
)

// Filter narrows a catalog listing. Zero values match everything.
type Filter struct {
	// Sector matches case-insensitively against an analyst's covered
	// sectors or a stock's sector.
	Sector string
	// Firm matches an analyst's brokerage case-insensitively. Ignored for stocks.
	Firm string
}

// Store provides read/write access to the catalog.
type Store interface {
	// Replace swaps both sets together. When either set is invalid nothing
	// changes.
	Replace(ctx context.Context, analysts []model.Analyst, stocks []model.Stock) error
	// ReplaceAnalysts swaps the whole analyst set. Insertion order is kept.
	ReplaceAnalysts(ctx context.Context, analysts []model.Analyst) error
	// ReplaceStocks swaps the whole stock set. Insertion order is kept.
	ReplaceStocks(ctx context.Context, stocks []model.Stock) error

	// Analysts returns copies of the matching analysts in insertion order.
	Analysts(ctx context.Context, f Filter) ([]model.Analyst, error)
	// Stocks returns copies of the matching stocks in insertion order.
	Stocks(ctx context.Context, f Filter) ([]model.Stock, error)

	// Analyst returns one analyst or ErrNotFound.
	Analyst(ctx context.Context, id string) (model.Analyst, error)
	// Stock returns one stock or ErrNotFound.
	Stock(ctx context.Context, ticker string) (model.Stock, error)

	// Count returns the number of analysts and stocks held.
	Count(ctx context.Context) (analysts, stocks int)
}
