// Package metrics provides Prometheus metrics for the syncops scorecard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// scoreBuckets cover the 0..100 score range in steps of ten.
var scoreBuckets = prometheus.LinearBuckets(0, 10, 11)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Scoring
	classifications *prometheus.CounterVec
	degraded        *prometheus.CounterVec
	categoryScores  *prometheus.HistogramVec
	overallScores   prometheus.Histogram
	rankings        prometheus.Counter

	// Catalogue
	servicesTotal prometheus.Gauge
	teamsTotal    prometheus.Gauge
	storeLatency  *prometheus.HistogramVec

	// Snapshot ingestion
	snapshotsAccepted  prometheus.Counter
	snapshotsDuplicate prometheus.Counter
	snapshotsRejected  *prometheus.CounterVec
	snapshotsApplied   prometheus.Counter

	// Queue and workers
	queueSize           prometheus.Gauge
	queueCapacity       prometheus.Gauge
	workerCount         prometheus.Gauge
	workerErrors        prometheus.Counter
	workerLatency       prometheus.Histogram
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager registering on the configured registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "syncops",
		subsystem:        "scorecard",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.classifications = m.counterVec("classifications_total",
		"Metric classifications by metric key and resulting tier", "metric", "tier")
	m.degraded = m.counterVec("degraded_classifications_total",
		"Classifications that fell back to the lowest tier", "reason")
	m.categoryScores = m.histogramVec("category_score",
		"Distribution of computed category scores", scoreBuckets, "category")
	m.overallScores = m.histogram("overall_score",
		"Distribution of computed overall scores", scoreBuckets)
	m.rankings = m.counter("rankings_total", "Leaderboard rankings computed")

	m.servicesTotal = m.gauge("services_total", "Services in the catalogue")
	m.teamsTotal = m.gauge("teams_total", "Teams in the catalogue")
	m.storeLatency = m.histogramVec("store_latency_milliseconds",
		"Catalogue store operation latency in milliseconds", m.histogramBuckets, "operation")

	m.snapshotsAccepted = m.counter("snapshots_accepted_total", "Snapshots accepted for ingestion")
	m.snapshotsDuplicate = m.counter("snapshots_duplicate_total", "Snapshots dropped as duplicates")
	m.snapshotsRejected = m.counterVec("snapshots_rejected_total", "Snapshots rejected at the API", "reason")
	m.snapshotsApplied = m.counter("snapshots_applied_total", "Snapshots applied to the catalogue")

	m.queueSize = m.gauge("queue_size", "Current number of queued snapshots")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the snapshot queue")
	m.workerCount = m.gauge("worker_count", "Number of ingestion workers")
	m.workerErrors = m.counter("worker_errors_total", "Snapshots that failed to apply")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds",
		"Time spent applying a snapshot in milliseconds", m.histogramBuckets)

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets, "endpoint", "method", "status_code")
}

// Scoring.

// RecordClassification counts one classification outcome.
func RecordClassification(metric, tier string) {
	globalManager.classifications.WithLabelValues(metric, tier).Inc()
}

// RecordDegraded counts a classification that fell back to the lowest tier.
func RecordDegraded(reason string) {
	globalManager.degraded.WithLabelValues(reason).Inc()
}

// RecordCategoryScore observes a computed category score.
func RecordCategoryScore(category string, score int) {
	globalManager.categoryScores.WithLabelValues(category).Observe(float64(score))
}

// RecordOverallScore observes a computed overall score.
func RecordOverallScore(score int) {
	globalManager.overallScores.Observe(float64(score))
}

// RecordRanking counts a computed leaderboard.
func RecordRanking() {
	globalManager.rankings.Inc()
}

// Catalogue.

// UpdateCatalogueSize sets the service and team gauges.
func UpdateCatalogueSize(services, teams int) {
	globalManager.servicesTotal.Set(float64(services))
	globalManager.teamsTotal.Set(float64(teams))
}

// RecordStoreLatency observes a store operation.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// Snapshots.

func RecordSnapshotAccepted()  { globalManager.snapshotsAccepted.Inc() }
func RecordSnapshotDuplicate() { globalManager.snapshotsDuplicate.Inc() }
func RecordSnapshotApplied()   { globalManager.snapshotsApplied.Inc() }

// RecordSnapshotRejected counts a rejected snapshot with its reason.
func RecordSnapshotRejected(reason string) {
	globalManager.snapshotsRejected.WithLabelValues(reason).Inc()
}

// Queue and workers.

func UpdateQueueSize(size int)         { globalManager.queueSize.Set(float64(size)) }
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }
func UpdateWorkerCount(count int)      { globalManager.workerCount.Set(float64(count)) }
func RecordWorkerError()               { globalManager.workerErrors.Inc() }

// RecordWorkerProcessingLatency observes the time spent applying one snapshot.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// HTTP.

// RecordHTTPRequest counts a served request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes request latency in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
