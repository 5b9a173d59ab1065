// Package metrics provides Prometheus metrics for the aimrank ranking service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultNamespace       = "aimrank"
	defaultSubsystem       = "ranking"
	defaultRefreshInterval = 10 * time.Second
	pageSizeBucketCount    = 6
)

// defaultPageSizeBuckets suits the default maximum page size of 100.
var defaultPageSizeBuckets = []float64{1, 5, 10, 20, 50, 100} //nolint:gochecknoglobals // read-only defaults

// Manager manages all Prometheus metrics for the aimrank service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	pageSizeBuckets  []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Ranking metrics
	rankingRequests   *prometheus.CounterVec
	rankingLatency    *prometheus.HistogramVec
	rankingEmptyPages *prometheus.CounterVec
	rankingErrors     *prometheus.CounterVec
	rankingPageSize   prometheus.Histogram

	// Catalog metrics
	catalogEntities        *prometheus.GaugeVec
	repositoryQueryLatency prometheus.Histogram
	repositoryReplaceCount *prometheus.CounterVec

	// Dataset metrics
	datasetLoads       prometheus.Counter
	datasetLoadErrors  prometheus.Counter
	datasetLoadLatency prometheus.Histogram
	datasetLastLoad    prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var (
	globalMu       sync.RWMutex         //nolint:gochecknoglobals // guards the singleton below
	globalManager  *Manager             //nolint:gochecknoglobals // intentional global for singleton metrics manager
	customRegistry *prometheus.Registry //nolint:gochecknoglobals // intentional global for metrics registry
)

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	Configure()
}

// Configure replaces the global manager with one built from opts on a fresh
// registry. Call it once at startup, before the registry is served.
func Configure(opts ...Option) *Manager {
	registry := prometheus.NewRegistry()
	m := NewManager(append([]Option{WithPrometheusRegistry(registry)}, opts...)...)

	globalMu.Lock()
	customRegistry = registry
	globalManager = m
	globalMu.Unlock()
	return m
}

func global() *Manager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalManager
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        defaultNamespace,
		subsystem:        defaultSubsystem,
		histogramBuckets: prometheus.DefBuckets,
		pageSizeBuckets:  defaultPageSizeBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// Enabled reports whether recording is switched on.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is how often gauge updaters should poll.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.rankingRequests = auto.NewCounterVec(
		m.counterOpts("requests_total", "Total number of ranking views built by entity kind and sort key"),
		[]string{"kind", "sort_key"},
	)
	m.rankingLatency = auto.NewHistogramVec(
		m.histogramOpts("build_latency_milliseconds", "Time spent sorting and paging one ranking view", m.histogramBuckets),
		[]string{"kind"},
	)
	m.rankingEmptyPages = auto.NewCounterVec(
		m.counterOpts("empty_pages_total", "Ranking views served for a page past the last one"),
		[]string{"kind"},
	)
	m.rankingErrors = auto.NewCounterVec(
		m.counterOpts("errors_total", "Ranking requests rejected by reason"),
		[]string{"kind", "reason"},
	)
	m.rankingPageSize = auto.NewHistogram(
		m.histogramOpts("page_size", "Effective page sizes requested", m.pageSizeBuckets),
	)

	m.catalogEntities = auto.NewGaugeVec(
		m.gaugeOpts("catalog_entities", "Number of entities held in the catalog by kind"),
		[]string{"kind"},
	)
	m.repositoryQueryLatency = auto.NewHistogram(
		m.histogramOpts("repository_query_latency_milliseconds", "Catalog query latency in milliseconds", m.histogramBuckets),
	)
	m.repositoryReplaceCount = auto.NewCounterVec(
		m.counterOpts("repository_replace_total", "Number of catalog replacements by kind"),
		[]string{"kind"},
	)

	m.datasetLoads = auto.NewCounter(m.counterOpts("dataset_loads_total", "Total number of dataset loads"))
	m.datasetLoadErrors = auto.NewCounter(m.counterOpts("dataset_load_errors_total", "Total number of failed dataset loads"))
	m.datasetLoadLatency = auto.NewHistogram(
		m.histogramOpts("dataset_load_latency_milliseconds", "Dataset load and scoring latency in milliseconds", m.histogramBuckets),
	)
	m.datasetLastLoad = auto.NewGauge(m.gaugeOpts("dataset_last_load_unix", "Unix timestamp of the last successful dataset load"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// Ranking Metrics Functions.

// RecordRankingRequest counts one ranking view for kind and key.
func RecordRankingRequest(kind, sortKey string) {
	if m := global(); m.enabled {
		m.rankingRequests.WithLabelValues(kind, sortKey).Inc()
	}
}

// RecordRankingLatency records how long building a view took.
func RecordRankingLatency(kind string, latencyMs float64) {
	if m := global(); m.enabled {
		m.rankingLatency.WithLabelValues(kind).Observe(latencyMs)
	}
}

// RecordRankingEmptyPage counts a view past the last page.
func RecordRankingEmptyPage(kind string) {
	if m := global(); m.enabled {
		m.rankingEmptyPages.WithLabelValues(kind).Inc()
	}
}

// RecordRankingError counts a rejected ranking request.
func RecordRankingError(kind, reason string) {
	if m := global(); m.enabled {
		m.rankingErrors.WithLabelValues(kind, reason).Inc()
	}
}

// RecordRankingPageSize observes the effective page size.
func RecordRankingPageSize(size int) {
	if m := global(); m.enabled {
		m.rankingPageSize.Observe(float64(size))
	}
}

// Catalog Metrics Functions.

// UpdateCatalogEntities sets the number of entities of kind.
func UpdateCatalogEntities(kind string, count int) {
	if m := global(); m.enabled {
		m.catalogEntities.WithLabelValues(kind).Set(float64(count))
	}
}

// RecordRepositoryQueryLatency records catalog query latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	if m := global(); m.enabled {
		m.repositoryQueryLatency.Observe(latencyMs)
	}
}

// RecordRepositoryReplace counts a catalog replacement.
func RecordRepositoryReplace(kind string) {
	if m := global(); m.enabled {
		m.repositoryReplaceCount.WithLabelValues(kind).Inc()
	}
}

// Dataset Metrics Functions.

// RecordDatasetLoad records a successful dataset load and its latency.
func RecordDatasetLoad(latencyMs float64) {
	if m := global(); m.enabled {
		m.datasetLoads.Inc()
		m.datasetLoadLatency.Observe(latencyMs)
		m.datasetLastLoad.Set(float64(time.Now().Unix()))
	}
}

// RecordDatasetLoadError counts a failed dataset load.
func RecordDatasetLoadError() {
	if m := global(); m.enabled {
		m.datasetLoadErrors.Inc()
	}
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if m := global(); m.enabled {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if m := global(); m.enabled {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if m := global(); m.enabled {
		m.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	if m := global(); m.enabled {
		m.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m := global(); m.enabled {
		m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if m := global(); m.enabled {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if m := global(); m.enabled {
		m.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if m := global(); m.enabled {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return customRegistry
}

// RefreshInterval returns the gauge refresh interval of the global manager.
func RefreshInterval() time.Duration {
	return global().refreshInterval
}
