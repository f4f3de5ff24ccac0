// Package metrics provides Prometheus metrics for the exoscan pipeline and service.
package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Skip reasons recorded by RecordStarSkipped.
const (
	ReasonMissingData  = "missing_data"
	ReasonUpstream     = "upstream"
	ReasonInconsistent = "inconsistent_attributes"
	ReasonMalformed    = "malformed"
	ReasonCanceled     = "canceled"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// pipeline
	starsProcessed     prometheus.Counter
	starsSkipped       *prometheus.CounterVec
	starsWithoutDip    prometheus.Counter
	dipPoints          prometheus.Histogram
	extractionLatency  prometheus.Histogram
	observationsLoaded prometheus.Counter
	observationsDropped *prometheus.CounterVec

	// classifier
	predictions          prometheus.Counter
	predictionErrors     *prometheus.CounterVec
	predictionLatency    prometheus.Histogram
	predictionProbability prometheus.Histogram

	// catalog
	catalogRequests  *prometheus.CounterVec
	catalogLatency   prometheus.Histogram
	catalogCacheHits *prometheus.CounterVec

	// feature repository
	featureVectorsStored prometheus.Gauge
	repositoryLatency    *prometheus.HistogramVec

	// http
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// queue and workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	workerCount        prometheus.Gauge
	workerActive       prometheus.Gauge
	workerLatency      prometheus.Histogram
	workerErrors       prometheus.Counter

	// system
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "exoscan",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		constLabels:      prometheus.Labels{},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.starsProcessed = m.counter("stars_processed_total", "Stars that produced a feature vector")
	m.starsSkipped = m.counterVec("stars_skipped_total", "Stars skipped during a batch run", "reason")
	m.starsWithoutDip = m.counter("stars_without_dip_total", "Stars whose light curve had no point below threshold")
	m.dipPoints = m.histogram("dip_points", "Number of observations inside the detected dip",
		prometheus.ExponentialBuckets(1, 2, 12))
	m.extractionLatency = m.histogram("extraction_latency_milliseconds",
		"Detection plus aggregation latency per star", m.histogramBuckets)
	m.observationsLoaded = m.counter("observations_loaded_total", "Observations accepted at ingest")
	m.observationsDropped = m.counterVec("observations_dropped_total", "Observations rejected at ingest", "reason")

	m.predictions = m.counter("predictions_total", "Stars scored by the classifier")
	m.predictionErrors = m.counterVec("prediction_errors_total", "Prediction failures", "kind")
	m.predictionLatency = m.histogram("prediction_latency_milliseconds", "End to end prediction latency", m.histogramBuckets)
	m.predictionProbability = m.histogram("prediction_probability", "Distribution of predicted planet probability",
		prometheus.LinearBuckets(0, 0.1, 11))

	m.catalogRequests = m.counterVec("catalog_requests_total", "Catalog lookups by outcome", "table", "outcome")
	m.catalogLatency = m.histogram("catalog_latency_milliseconds", "Catalog request latency",
		prometheus.ExponentialBuckets(10, 2, 12))
	m.catalogCacheHits = m.counterVec("catalog_cache_total", "Catalog cache lookups by result", "result")

	m.featureVectorsStored = m.gauge("feature_vectors_stored", "Feature vectors currently held by the repository")
	m.repositoryLatency = m.histogramVec("repository_latency_milliseconds", "Feature repository operation latency",
		m.histogramBuckets, "op")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_seconds", "HTTP request duration",
		m.histogramBuckets, "endpoint", "method", "status_code")

	m.queueSize = m.gauge("queue_size", "Star jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Queue capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Star jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Star jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Enqueue attempts that failed")
	m.workerCount = m.gauge("worker_count", "Configured workers")
	m.workerActive = m.gauge("worker_active", "Workers currently processing a star")
	m.workerLatency = m.histogram("worker_latency_milliseconds", "Per job worker latency", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Jobs that finished with an error")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes in use")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
}

// RecordStarProcessed counts one star that produced a feature vector.
func RecordStarProcessed(latency time.Duration) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.starsProcessed.Inc()
	globalManager.extractionLatency.Observe(float64(latency.Microseconds()) / 1000)
}

// RecordStarSkipped counts a star skipped for the given reason.
func RecordStarSkipped(reason string) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.starsSkipped.WithLabelValues(reason).Inc()
}

// RecordDip records the size of the detected dip; zero counts as no dip.
func RecordDip(points int) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	if points == 0 {
		globalManager.starsWithoutDip.Inc()
		return
	}
	globalManager.dipPoints.Observe(float64(points))
}

// RecordObservations counts accepted and dropped observations at ingest.
func RecordObservations(accepted int, dropped map[string]int) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.observationsLoaded.Add(float64(accepted))
	for reason, n := range dropped {
		globalManager.observationsDropped.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordPrediction records one scored star.
func RecordPrediction(probability float64, latency time.Duration) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.predictions.Inc()
	globalManager.predictionProbability.Observe(probability)
	globalManager.predictionLatency.Observe(float64(latency.Microseconds()) / 1000)
}

// RecordPredictionError counts a failed prediction by error kind.
func RecordPredictionError(kind string) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.predictionErrors.WithLabelValues(kind).Inc()
}

// RecordCatalogRequest records a catalog call and its outcome.
func RecordCatalogRequest(table, outcome string, latency time.Duration) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.catalogRequests.WithLabelValues(table, outcome).Inc()
	globalManager.catalogLatency.Observe(float64(latency.Milliseconds()))
}

// RecordCatalogCache records a cache hit or miss.
func RecordCatalogCache(hit bool) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	globalManager.catalogCacheHits.WithLabelValues(result).Inc()
}

// UpdateFeatureVectorsStored sets the repository size gauge.
func UpdateFeatureVectorsStored(n int) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.featureVectorsStored.Set(float64(n))
}

// RecordRepositoryLatency observes one repository operation.
func RecordRepositoryLatency(op string, latency time.Duration) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.repositoryLatency.WithLabelValues(op).Observe(float64(latency.Microseconds()) / 1000)
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes the request duration in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateQueueSize sets the queue depth gauge.
func UpdateQueueSize(size int) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts a successful enqueue.
func RecordQueueEnqueue() {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a dequeue.
func RecordQueueDequeue() {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a failed enqueue.
func RecordQueueEnqueueError() {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the configured worker gauge.
func UpdateWorkerCount(count int) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.workerCount.Set(float64(count))
}

// AddWorkerActive moves the active worker gauge by delta.
func AddWorkerActive(delta int) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.workerActive.Add(float64(delta))
}

// RecordWorkerJob observes one finished job.
func RecordWorkerJob(latency time.Duration, err error) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.workerLatency.Observe(float64(latency.Microseconds()) / 1000)
	if err != nil {
		globalManager.workerErrors.Inc()
	}
}

// UpdateSystemMetrics samples memory and goroutine gauges.
func UpdateSystemMetrics() {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	globalManager.systemMemoryUsage.Set(float64(ms.HeapInuse))
	globalManager.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
