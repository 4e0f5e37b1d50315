// Package metrics provides Prometheus metrics for the VIN lookup service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup outcomes.
const (
	OutcomeHit     = "hit"
	OutcomeDecoded = "decoded"
	OutcomeError   = "error"
	OutcomeOK      = "ok"
	OutcomeMissing = "not_found"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Domain
	lookups        *prometheus.CounterVec
	decodeLatency  *prometheus.HistogramVec
	decodeErrors   *prometheus.CounterVec
	upstreamCalls  *prometheus.CounterVec
	removes        *prometheus.CounterVec
	exports        *prometheus.CounterVec
	exportRows     prometheus.Histogram
	batchSize      prometheus.Histogram
	storedRecords  prometheus.Gauge
	storeOpLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry keeps the exposition free of default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "vinlookup",
		subsystem:        "api",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	m.lookups = m.counterVec("lookups_total",
		"VIN lookups by decoder source and outcome (hit, decoded, error)", "source", "outcome")
	m.decodeLatency = m.histogramVec("decode_latency_milliseconds",
		"Decode latency in milliseconds by decoder", m.histogramBuckets, "decoder")
	m.decodeErrors = m.counterVec("decode_errors_total",
		"Decode failures by decoder and error kind", "decoder", "kind")
	m.upstreamCalls = m.counterVec("upstream_requests_total",
		"Requests sent to the remote VIN decoding service by status class", "status")
	m.removes = m.counterVec("removes_total",
		"Record removals by outcome", "outcome")
	m.exports = m.counterVec("exports_total",
		"Exports by format and outcome", "format", "outcome")
	m.exportRows = m.histogram("export_rows",
		"Number of rows written per export", []float64{0, 1, 10, 100, 1000, 10000, 100000})
	m.batchSize = m.histogram("batch_lookup_size",
		"Number of VINs per batch lookup", []float64{1, 5, 10, 25, 50, 100, 250, 500})
	m.storedRecords = m.gauge("stored_records",
		"Number of decoded records held by the record store")
	m.storeOpLatency = m.histogramVec("store_operation_latency_milliseconds",
		"Record store operation latency in milliseconds", m.histogramBuckets, "backend", "op")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets, "endpoint", "method", "status_code")
	m.errorRateByType = m.counterVec("errors_by_type_total",
		"Total number of errors by type", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordLookup counts a lookup by decoder source and outcome.
func RecordLookup(source, outcome string) {
	globalManager.lookups.WithLabelValues(source, outcome).Inc()
}

// RecordDecodeLatency records decode latency in milliseconds.
func RecordDecodeLatency(decoder string, latencyMs float64) {
	globalManager.decodeLatency.WithLabelValues(decoder).Observe(latencyMs)
}

// RecordDecodeError counts a decode failure.
func RecordDecodeError(decoder, kind string) {
	globalManager.decodeErrors.WithLabelValues(decoder, kind).Inc()
}

// RecordUpstreamRequest counts a remote decoder call by status class (2xx, 5xx, network).
func RecordUpstreamRequest(status string) {
	globalManager.upstreamCalls.WithLabelValues(status).Inc()
}

// RecordRemove counts a removal by outcome.
func RecordRemove(outcome string) {
	globalManager.removes.WithLabelValues(outcome).Inc()
}

// RecordExport counts an export and, on success, its row count.
func RecordExport(format, outcome string, rows int) {
	globalManager.exports.WithLabelValues(format, outcome).Inc()
	if outcome == OutcomeOK {
		globalManager.exportRows.Observe(float64(rows))
	}
}

// RecordBatchSize observes the size of a batch lookup.
func RecordBatchSize(n int) {
	globalManager.batchSize.Observe(float64(n))
}

// UpdateStoredRecords sets the number of stored records.
func UpdateStoredRecords(count int) {
	globalManager.storedRecords.Set(float64(count))
}

// RecordStoreOperation records the latency of a record store operation.
func RecordStoreOperation(backend, op string, latencyMs float64) {
	globalManager.storeOpLatency.WithLabelValues(backend, op).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
