// Package metrics provides Prometheus metrics for the courtside service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var latencyBuckets = []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}

// Manager owns the service's Prometheus collectors.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Rules engine
	replays        *prometheus.CounterVec
	replayLatency  prometheus.Histogram
	eventsAppended *prometheus.CounterVec
	eventsRejected *prometheus.CounterVec
	eventsUndone   prometheus.Counter
	auditResults   *prometheus.CounterVec

	// Event store
	storeOperations *prometheus.CounterVec
	storeLatency    *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Audit queue and workers
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueEnqueued           prometheus.Counter
	queueDequeued           prometheus.Counter
	queueEnqueueErrors      prometheus.Counter
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "courtside",
		subsystem:        "rules",
		histogramBuckets: latencyBuckets,
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
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.replays = m.counterVec("replays_total", "Set replays by result", "result")
	m.replayLatency = m.histogram("replay_latency_milliseconds", "Time to replay a set log in milliseconds")
	m.eventsAppended = m.counterVec("events_appended_total", "Rally events appended by kind", "kind")
	m.eventsRejected = m.counterVec("events_rejected_total", "Rally events rejected before persisting", "reason")
	m.eventsUndone = m.counter("events_undone_total", "Rally events removed by undo")
	m.auditResults = m.counterVec("audit_results_total", "Match audits by result", "result")

	m.storeOperations = m.counterVec("store_operations_total", "Event store operations", "backend", "operation", "result")
	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Event store latency in milliseconds", "backend", "operation")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.queueSize = m.gauge("queue_size", "Audit jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Audit queue capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Audit jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Audit jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Audit jobs that could not be enqueued")
	m.workerCount = m.gauge("worker_count", "Audit workers started")
	m.workerActiveCount = m.gauge("worker_active_count", "Audit workers busy with a job")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Audit job processing time in milliseconds")
	m.workerErrors = m.counter("worker_errors_total", "Audit jobs that failed")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// RecordReplay records a set replay and its latency.
func RecordReplay(err error, latencyMs float64) {
	globalManager.replays.WithLabelValues(result(err)).Inc()
	globalManager.replayLatency.Observe(latencyMs)
}

// RecordEventAppended increments the appended events counter for kind.
func RecordEventAppended(kind string) {
	globalManager.eventsAppended.WithLabelValues(kind).Inc()
}

// RecordEventRejected increments the rejected events counter.
func RecordEventRejected(reason string) {
	globalManager.eventsRejected.WithLabelValues(reason).Inc()
}

// RecordEventUndone increments the undone events counter.
func RecordEventUndone() {
	globalManager.eventsUndone.Inc()
}

// RecordAuditResult records the outcome of one match audit.
func RecordAuditResult(err error) {
	globalManager.auditResults.WithLabelValues(result(err)).Inc()
}

// RecordStoreOperation records an event store call.
func RecordStoreOperation(backend, operation string, latencyMs float64, err error) {
	globalManager.storeOperations.WithLabelValues(backend, operation, result(err)).Inc()
	globalManager.storeLatency.WithLabelValues(backend, operation).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records job processing time in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
