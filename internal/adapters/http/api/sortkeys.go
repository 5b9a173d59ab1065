package api

import (
	"context"
	"net/http"

	"github.com/okian/aimrank/internal/domain/ranking"
)

// SortKeyDependencies lists the sort keys a kind supports.
type SortKeyDependencies interface {
	SortKeys(ctx context.Context, kind string) ([]ranking.KeySpec, error)
}

// SortKeyHandler handles sort key discovery.
type SortKeyHandler struct {
	deps SortKeyDependencies
}

// NewSortKeyHandler creates a new sort key handler.
func NewSortKeyHandler(deps SortKeyDependencies) *SortKeyHandler {
	return &SortKeyHandler{deps: deps}
}

// HandleSortKeys handles GET /sort-keys?kind=analyst|stock requests.
func (h *SortKeyHandler) HandleSortKeys(w http.ResponseWriter, r *http.Request) {
	const op = "api.sort_keys"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	keys, err := h.deps.SortKeys(r.Context(), kind)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, keys)
}
