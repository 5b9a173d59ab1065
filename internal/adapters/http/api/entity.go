package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/aimrank/internal/domain/model"
)

// EntityDependencies defines the interface for single-entity lookups.
type EntityDependencies interface {
	AnalystByID(ctx context.Context, id string) (model.Analyst, error)
	StockByTicker(ctx context.Context, ticker string) (model.Stock, error)
}

// EntityHandler serves individual analysts and stocks.
type EntityHandler struct {
	deps EntityDependencies
}

// NewEntityHandler creates a new entity handler.
func NewEntityHandler(deps EntityDependencies) *EntityHandler {
	return &EntityHandler{deps: deps}
}

// HandleAnalyst handles GET /analysts/{id} requests.
func (h *EntityHandler) HandleAnalyst(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_analyst"
	id, ok := pathKey(w, r, "/analysts/")
	if !ok {
		return
	}
	a, err := h.deps.AnalystByID(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleStock handles GET /stocks/{ticker} requests.
func (h *EntityHandler) HandleStock(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_stock"
	ticker, ok := pathKey(w, r, "/stocks/")
	if !ok {
		return
	}
	st, err := h.deps.StockByTicker(r.Context(), ticker)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// pathKey extracts the single path segment after prefix.
func pathKey(w http.ResponseWriter, r *http.Request, prefix string) (string, bool) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return "", false
	}
	key := strings.TrimPrefix(r.URL.Path, prefix)
	if key == "" || strings.Contains(key, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return "", false
	}
	return key, true
}
