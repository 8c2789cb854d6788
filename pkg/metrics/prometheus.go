// Package metrics provides Prometheus metrics for the podium scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the podium service.
type Manager struct {
	namespace      string
	subsystem      string
	prefix         string
	latencyBuckets []float64
	constLabels    map[string]string
	registry       prometheus.Registerer

	// Score write path
	scoresWritten  *prometheus.CounterVec
	scoresRejected *prometheus.CounterVec
	scoresDeleted  prometheus.Counter
	scoresCached   prometheus.Gauge

	// Ranking engine
	rankingsComputed   *prometheus.CounterVec
	rankingLatency     *prometheus.HistogramVec
	formulaFallbacks   prometheus.Counter
	tiebreaksApplied   *prometheus.CounterVec
	activeCriteria     prometheus.Gauge
	activeSessionCount prometheus.Gauge

	// Derived scores
	fanOutBatches  *prometheus.CounterVec
	fanOutFailures *prometheus.CounterVec

	// Consistency poller
	pollCycles  prometheus.Counter
	pollChanges prometheus.Counter
	pollErrors  prometheus.Counter
	pollSkipped prometheus.Counter

	// Change notifications
	notificationsPublished prometheus.Counter
	notificationsConsumed  prometheus.Counter
	notificationsDuplicate prometheus.Counter
	notificationsDropped   prometheus.Counter

	// Store
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "podium",
		subsystem:      "judging",
		latencyBuckets: prometheus.DefBuckets,
		constLabels:    make(map[string]string),
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.prefix == "" {
		return n
	}
	return m.prefix + "_" + n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.scoresWritten = m.counterVec("scores_written_total", "Scores accepted into a score aggregate", "source")
	m.scoresRejected = m.counterVec("scores_rejected_total", "Score writes rejected by validation", "reason")
	m.scoresDeleted = m.counter("scores_deleted_total", "Scores removed from a score aggregate")
	m.scoresCached = m.gauge("scores_cached", "Scores currently held across all sessions")

	m.rankingsComputed = m.counterVec("rankings_computed_total", "Ranking computations by method", "method")
	m.rankingLatency = m.histogramVec("ranking_latency_milliseconds", "Ranking computation latency in milliseconds", "method")
	m.formulaFallbacks = m.counter("formula_fallbacks_total", "Custom formula evaluations that fell back to avg_score")
	m.tiebreaksApplied = m.counterVec("tiebreaks_applied_total", "Tied groups resolved by a tiebreaker", "strategy")
	m.activeCriteria = m.gauge("active_criteria", "Criteria currently open for judging across sessions")
	m.activeSessionCount = m.gauge("sessions", "Competitions currently loaded")

	m.fanOutBatches = m.counterVec("fanout_batches_total", "Derived score fan-out batches committed", "kind")
	m.fanOutFailures = m.counterVec("fanout_failures_total", "Derived score fan-out batches that failed", "kind")

	m.pollCycles = m.counter("poll_cycles_total", "Consistency poller fetch cycles")
	m.pollChanges = m.counter("poll_changes_total", "Consistency poller cycles that observed a change")
	m.pollErrors = m.counter("poll_errors_total", "Consistency poller fetch failures")
	m.pollSkipped = m.counter("poll_skipped_total", "Cycles skipped because a fetch was still in flight")

	m.notificationsPublished = m.counter("notifications_published_total", "Change notifications published")
	m.notificationsConsumed = m.counter("notifications_consumed_total", "Change notifications handled")
	m.notificationsDuplicate = m.counter("notifications_duplicate_total", "Change notifications dropped as duplicates")
	m.notificationsDropped = m.counter("notifications_dropped_total", "Change notifications dropped because a subscriber was full")

	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Score store operation latency in milliseconds", "operation")
	m.storeErrors = m.counterVec("store_errors_total", "Score store operation failures", "operation")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_time_milliseconds"),
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.constLabels,
	})
}

// Score write path.

// RecordScoreWritten counts an accepted score write; source is "judge", "carry_forward", "prejudged" or "sync".
func RecordScoreWritten(source string) {
	globalManager.scoresWritten.WithLabelValues(source).Inc()
}

// RecordScoreRejected counts a rejected score write by reason.
func RecordScoreRejected(reason string) {
	globalManager.scoresRejected.WithLabelValues(reason).Inc()
}

// RecordScoreDeleted counts a score removal.
func RecordScoreDeleted() {
	globalManager.scoresDeleted.Inc()
}

// UpdateScoresCached sets the number of cached scores.
func UpdateScoresCached(n int) {
	globalManager.scoresCached.Set(float64(n))
}

// Ranking engine.

// RecordRankingComputed records one ranking computation and its latency.
func RecordRankingComputed(method string, latencyMs float64) {
	globalManager.rankingsComputed.WithLabelValues(method).Inc()
	globalManager.rankingLatency.WithLabelValues(method).Observe(latencyMs)
}

// RecordFormulaFallback counts a custom formula evaluation that fell back.
func RecordFormulaFallback() {
	globalManager.formulaFallbacks.Inc()
}

// RecordTiebreakApplied counts a tied group resolved by strategy.
func RecordTiebreakApplied(strategy string) {
	globalManager.tiebreaksApplied.WithLabelValues(strategy).Inc()
}

// UpdateActiveCriteria sets the active criteria gauge.
func UpdateActiveCriteria(n int) {
	globalManager.activeCriteria.Set(float64(n))
}

// UpdateSessionCount sets the loaded competition gauge.
func UpdateSessionCount(n int) {
	globalManager.activeSessionCount.Set(float64(n))
}

// Derived scores.

// RecordFanOut counts a committed fan-out batch; kind is "carry_forward" or "prejudged".
func RecordFanOut(kind string) {
	globalManager.fanOutBatches.WithLabelValues(kind).Inc()
}

// RecordFanOutFailure counts a failed fan-out batch.
func RecordFanOutFailure(kind string) {
	globalManager.fanOutFailures.WithLabelValues(kind).Inc()
}

// Consistency poller.

// RecordPollCycle counts a poll fetch cycle.
func RecordPollCycle() {
	globalManager.pollCycles.Inc()
}

// RecordPollChange counts a cycle that replaced the cache.
func RecordPollChange() {
	globalManager.pollChanges.Inc()
}

// RecordPollError counts a failed poll fetch.
func RecordPollError() {
	globalManager.pollErrors.Inc()
}

// RecordPollSkipped counts a cycle skipped while a fetch was in flight.
func RecordPollSkipped() {
	globalManager.pollSkipped.Inc()
}

// Change notifications.

// RecordNotificationPublished counts a published notification.
func RecordNotificationPublished() {
	globalManager.notificationsPublished.Inc()
}

// RecordNotificationConsumed counts a handled notification.
func RecordNotificationConsumed() {
	globalManager.notificationsConsumed.Inc()
}

// RecordNotificationDuplicate counts a duplicate notification.
func RecordNotificationDuplicate() {
	globalManager.notificationsDuplicate.Inc()
}

// RecordNotificationDropped counts a notification dropped for a full subscriber.
func RecordNotificationDropped() {
	globalManager.notificationsDropped.Inc()
}

// Store.

// RecordStoreLatency records store operation latency in milliseconds.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(operation string) {
	globalManager.storeErrors.WithLabelValues(operation).Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System.

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
