// Package metrics provides Prometheus metrics for the unirank service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Batch outcomes recorded by RecordBatch.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingestion
	batches          *prometheus.CounterVec
	batchRejections  *prometheus.CounterVec
	filesImported    prometheus.Counter
	rowsParsed       prometheus.Counter
	rowsSkipped      *prometheus.CounterVec
	duplicateIDs     prometheus.Counter
	importDuration   prometheus.Histogram
	exportsGenerated prometheus.Counter

	// Session state
	activeSessions prometheus.Gauge
	rankedRecords  prometheus.Gauge
	expiredTotal   prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the package-level recorders

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out of /metrics

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "unirank",
		subsystem:        "ranking",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.batches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batches_total",
		Help:      "Import batches by outcome",
	}, []string{"outcome"})

	m.batchRejections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_rejections_total",
		Help:      "Rejected import batches by reason",
	}, []string{"reason"})

	m.filesImported = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "files_imported_total",
		Help:      "Ranking files that contributed to an accepted batch",
	})

	m.rowsParsed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_parsed_total",
		Help:      "Data rows turned into ranking records",
	})

	m.rowsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_skipped_total",
		Help:      "Data rows dropped during parsing by reason",
	}, []string{"reason"})

	m.duplicateIDs = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_ids_total",
		Help:      "Student ids seen more than once within a batch (flag policy only)",
	})

	m.importDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "import_duration_milliseconds",
		Help:      "Time spent importing one batch",
		Buckets:   m.histogramBuckets,
	})

	m.exportsGenerated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "exports_total",
		Help:      "Ranking exports generated",
	})

	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_sessions",
		Help:      "Ranking sessions currently held in memory",
	})

	m.rankedRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranked_records",
		Help:      "Ranked records across all sessions",
	})

	m.expiredTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_expired_total",
		Help:      "Sessions removed by the idle sweeper",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "HTTP errors by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})
}

// RecordBatch counts a finished batch. Outcome must be OutcomeAccepted or OutcomeRejected.
func RecordBatch(outcome string) error {
	switch outcome {
	case OutcomeAccepted, OutcomeRejected:
		globalManager.batches.WithLabelValues(outcome).Inc()
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, outcome)
	}
}

// RecordBatchRejection counts a batch rejected for reason.
func RecordBatchRejection(reason string) {
	globalManager.batchRejections.WithLabelValues(reason).Inc()
}

// RecordFilesImported adds n files to the imported counter.
func RecordFilesImported(n int) {
	globalManager.filesImported.Add(float64(n))
}

// RecordRowsParsed adds n parsed rows.
func RecordRowsParsed(n int) {
	globalManager.rowsParsed.Add(float64(n))
}

// RecordRowSkipped counts one dropped row.
func RecordRowSkipped(reason string) {
	globalManager.rowsSkipped.WithLabelValues(reason).Inc()
}

// RecordDuplicateIDs adds n duplicate ids.
func RecordDuplicateIDs(n int) {
	globalManager.duplicateIDs.Add(float64(n))
}

// RecordImportDuration observes a batch import duration in milliseconds.
func RecordImportDuration(ms float64) {
	globalManager.importDuration.Observe(ms)
}

// RecordExport counts a generated export.
func RecordExport() {
	globalManager.exportsGenerated.Inc()
}

// UpdateActiveSessions sets the active sessions gauge.
func UpdateActiveSessions(n int) {
	globalManager.activeSessions.Set(float64(n))
}

// UpdateRankedRecords sets the ranked records gauge.
func UpdateRankedRecords(n int) {
	globalManager.rankedRecords.Set(float64(n))
}

// RecordSessionsExpired adds n expired sessions.
func RecordSessionsExpired(n int) {
	globalManager.expiredTotal.Add(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// RecordErrorByEndpoint records an HTTP error.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the registry backing the package-level recorders.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
