package api

import (
	"net/http"

	"github.com/okian/aimrank/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler serves the Prometheus exposition as the liveness probe.
type HealthHandler struct {
	gatherer prometheus.Gatherer
}

// NewHealthHandler creates a health handler over the service registry.
func NewHealthHandler() *HealthHandler {
	return NewHealthHandlerFor(nil)
}

// NewHealthHandlerFor creates a health handler over gatherer. Nil means the
// registry current at request time, so a later metrics.Configure is honoured.
func NewHealthHandlerFor(gatherer prometheus.Gatherer) *HealthHandler {
	return &HealthHandler{gatherer: gatherer}
}

// HandleHealth handles GET /healthz requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	gatherer := h.gatherer
	if gatherer == nil {
		gatherer = metrics.GetRegistry()
	}
	promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
