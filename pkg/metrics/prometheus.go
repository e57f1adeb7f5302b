// Package metrics provides Prometheus metrics for the OSCE offline
// scoring client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the scoring client.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Sync health - the metrics that matter for an offline-first client
	queueLength      prometheus.Gauge
	entriesSynced    prometheus.Counter
	entriesFailed    prometheus.Counter
	entriesAbandoned prometheus.Counter
	drainCycles      *prometheus.CounterVec
	drainDuration    prometheus.Histogram
	replayLatency    prometheus.Histogram
	online           prometheus.Gauge

	// Local store health
	storeLatency *prometheus.HistogramVec
	storeErrors  prometheus.Counter
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter

	// Report generation
	shapedStrings prometheus.Counter
	reportPages   prometheus.Counter
}

var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "osce",
		subsystem:        "client",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.queueLength = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sync_queue_length",
		Help:      "Current number of entries awaiting remote replay",
	})

	m.entriesSynced = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "entries_synced_total",
		Help:      "Total queue entries confirmed by the remote API",
	})

	m.entriesFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "entries_failed_total",
		Help:      "Total failed replay attempts (retried up to the ceiling)",
	})

	m.entriesAbandoned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "entries_abandoned_total",
		Help:      "Total entries dropped after exhausting retries (data-loss risk)",
	})

	m.drainCycles = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "drain_cycles_total",
			Help:      "Total drain cycles by outcome",
		},
		[]string{"outcome"},
	)

	m.drainDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "drain_duration_milliseconds",
		Help:      "Duration of a complete drain cycle in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.replayLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replay_latency_milliseconds",
		Help:      "Latency of a single network replay attempt in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.online = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "online",
		Help:      "1 when the client believes it has connectivity, 0 otherwise",
	})

	m.storeLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_operation_latency_milliseconds",
			Help:      "Latency of local durable store operations in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"operation"},
	)

	m.storeErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Total local store failures (storage unavailable)",
	})

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_hits_total",
		Help:      "Total response cache hits",
	})

	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_misses_total",
		Help:      "Total response cache misses (including lazy expiries)",
	})

	m.shapedStrings = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "shaped_strings_total",
		Help:      "Total strings routed through the bidi shaper",
	})

	m.reportPages = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "report_pages_total",
		Help:      "Total report pages composed",
	})
}

// UpdateQueueLength sets the current sync queue length.
func UpdateQueueLength(n int) {
	globalManager.queueLength.Set(float64(n))
}

// RecordEntriesSynced adds confirmed entries to the synced counter.
func RecordEntriesSynced(n int) {
	globalManager.entriesSynced.Add(float64(n))
}

// RecordEntryFailed increments the failed replay counter.
func RecordEntryFailed() {
	globalManager.entriesFailed.Inc()
}

// RecordEntryAbandoned increments the abandoned entries counter.
func RecordEntryAbandoned() {
	globalManager.entriesAbandoned.Inc()
}

// RecordDrainCycle records a completed drain cycle by outcome
// (drained, skipped_offline, skipped_busy, error).
func RecordDrainCycle(outcome string) {
	globalManager.drainCycles.WithLabelValues(outcome).Inc()
}

// RecordDrainDuration records a drain cycle duration in milliseconds.
func RecordDrainDuration(latencyMs float64) {
	globalManager.drainDuration.Observe(latencyMs)
}

// RecordReplayLatency records a single replay attempt latency in milliseconds.
func RecordReplayLatency(latencyMs float64) {
	globalManager.replayLatency.Observe(latencyMs)
}

// UpdateOnline sets the connectivity gauge.
func UpdateOnline(online bool) {
	if online {
		globalManager.online.Set(1)
	} else {
		globalManager.online.Set(0)
	}
}

// RecordStoreLatency records a store operation latency in milliseconds.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordStoreError increments the store failure counter.
func RecordStoreError() {
	globalManager.storeErrors.Inc()
}

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// RecordShapedString increments the shaped strings counter.
func RecordShapedString() {
	globalManager.shapedStrings.Inc()
}

// RecordReportPages adds composed pages to the report pages counter.
func RecordReportPages(n int) {
	globalManager.reportPages.Add(float64(n))
}

// GetRegistry returns the custom registry used for metric collection.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
