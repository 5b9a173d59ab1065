package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	service "github.com/okian/aimrank/internal/app"
	"github.com/okian/aimrank/internal/domain/model"
	"github.com/okian/aimrank/internal/domain/ranking"
)

// RankingDependencies defines the interface for ranking queries.
type RankingDependencies interface {
	RankAnalysts(ctx context.Context, q service.Query) (ranking.View[model.Analyst], error)
	RankStocks(ctx context.Context, q service.Query) (ranking.View[model.Stock], error)
}

// RankingHandler serves ranked pages of analysts and stocks.
type RankingHandler struct {
	deps RankingDependencies
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps RankingDependencies) *RankingHandler {
	return &RankingHandler{deps: deps}
}

// HandleAnalysts handles GET /analysts/ranking?sort=&page=&size=&sector=&firm=.
func (h *RankingHandler) HandleAnalysts(w http.ResponseWriter, r *http.Request) {
	const op = "api.rank_analysts"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, err := parseQuery(op, r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	view, err := h.deps.RankAnalysts(r.Context(), q)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	items := make([]rankedAnalyst, len(view.Items))
	for i, it := range view.Items {
		items[i] = rankedAnalyst{Rank: it.Rank, Analyst: it.Entity}
	}
	writeJSON(w, http.StatusOK, respond(view, items))
}

// HandleStocks handles GET /stocks/ranking?sort=&page=&size=&sector=.
func (h *RankingHandler) HandleStocks(w http.ResponseWriter, r *http.Request) {
	const op = "api.rank_stocks"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, err := parseQuery(op, r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	view, err := h.deps.RankStocks(r.Context(), q)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	items := make([]rankedStock, len(view.Items))
	for i, it := range view.Items {
		items[i] = rankedStock{Rank: it.Rank, Stock: it.Entity}
	}
	writeJSON(w, http.StatusOK, respond(view, items))
}

// parseQuery reads the ranking query string. Absent numbers stay nil so the
// service applies its defaults; present ones are passed on as given.
func parseQuery(op string, r *http.Request) (service.Query, error) {
	values := r.URL.Query()
	q := service.Query{
		Sort:   values.Get("sort"),
		Sector: values.Get("sector"),
		Firm:   values.Get("firm"),
	}
	var err error
	if q.Page, err = intParam(values, "page"); err != nil {
		return q, KindWrap(op, ErrBadRequest, err)
	}
	if q.Size, err = intParam(values, "size"); err != nil {
		return q, KindWrap(op, ErrBadRequest, err)
	}
	return q, nil
}

func intParam(values url.Values, name string) (*int, error) {
	if !values.Has(name) {
		return nil, nil
	}
	n, err := strconv.Atoi(values.Get(name))
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func respond[E ranking.Entity, T any](view ranking.View[E], items []T) rankingResponse[T] {
	resp := rankingResponse[T]{
		Items: items,
		Pagination: paginationResponse{
			Page:       view.CurrentPage,
			PageSize:   view.PageSize,
			TotalItems: view.TotalItems,
			TotalPages: view.TotalPages,
			HasPrev:    view.Navigation.HasPrev,
			HasNext:    view.Navigation.HasNext,
			Window:     view.Window,
		},
		Sort: sortResponse{Key: view.SortKey},
	}
	if resp.Pagination.Window == nil {
		resp.Pagination.Window = ranking.Window{}
	}
	if spec, err := ranking.Spec(view.SortKey); err == nil {
		resp.Sort.Field = spec.Field
		resp.Sort.Direction = spec.Direction.String()
	}
	return resp
}
