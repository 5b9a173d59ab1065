// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	repository "github.com/okian/aimrank/internal/adapters/repository"
	service "github.com/okian/aimrank/internal/app"
	"github.com/okian/aimrank/internal/domain/model"
	"github.com/okian/aimrank/internal/domain/ranking"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RankingDependencies
	EntityDependencies
	SortKeyDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	rankingHandler *RankingHandler
	entityHandler  *EntityHandler
	sortKeyHandler *SortKeyHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		rankingHandler: NewRankingHandler(deps),
		entityHandler:  NewEntityHandler(deps),
		sortKeyHandler: NewSortKeyHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, RequestIDMiddleware(MetricsMiddleware(h, endpoint)))
	}

	// Specific paths first (most specific to least specific)
	route("/healthz", "healthz", s.healthHandler.HandleHealth)
	route("/stats", "stats", s.statsHandler.HandleStats)
	route("/sort-keys", "sort_keys", s.sortKeyHandler.HandleSortKeys)
	route("/analysts/ranking", "analysts_ranking", s.rankingHandler.HandleAnalysts)
	route("/stocks/ranking", "stocks_ranking", s.rankingHandler.HandleStocks)
	route("/analysts/", "analyst", s.entityHandler.HandleAnalyst)
	route("/stocks/", "stock", s.entityHandler.HandleStock)
}

// Compile-time check that the service satisfies the handler contracts.
var _ interface {
	Dependencies
	StatsProvider
} = (*service.Service)(nil)

// rankedAnalyst flattens the rank into the analyst object.
type rankedAnalyst struct {
	Rank int `json:"rank"`
	model.Analyst
}

type rankedStock struct {
	Rank int `json:"rank"`
	model.Stock
}

type paginationResponse struct {
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalItems int            `json:"total_items"`
	TotalPages int            `json:"total_pages"`
	HasPrev    bool           `json:"has_prev"`
	HasNext    bool           `json:"has_next"`
	Window     ranking.Window `json:"window"`
}

type sortResponse struct {
	Key       ranking.SortKey `json:"key"`
	Field     ranking.Field   `json:"field"`
	Direction string          `json:"direction"`
}

type rankingResponse[T any] struct {
	Items      []T                `json:"items"`
	Pagination paginationResponse `json:"pagination"`
	Sort       sortResponse       `json:"sort"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps domain errors onto HTTP statuses.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ranking.ErrUnknownSortKey):
		writeError(w, http.StatusBadRequest, "unknown_sort_key", err)
	case errors.Is(err, ranking.ErrUnknownKind):
		writeError(w, http.StatusBadRequest, "unknown_kind", err)
	case errors.Is(err, ranking.ErrOutOfRangePage):
		writeError(w, http.StatusBadRequest, "invalid_page", err)
	case errors.Is(err, ranking.ErrInvalidPageSize):
		writeError(w, http.StatusBadRequest, "invalid_page_size", err)
	case errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// isNotFound allows the API to translate upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, ErrNotFound)
}
