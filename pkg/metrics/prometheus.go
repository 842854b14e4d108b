// Package metrics provides Prometheus metrics for the commitwatch scanner.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the scanner.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Scan lifecycle
	scans             *prometheus.CounterVec
	scanDuration      prometheus.Histogram
	registrySize      prometheus.Gauge
	scanProgress      prometheus.Gauge
	lastScanBlock     prometheus.Gauge
	lastScanTimestamp prometheus.Gauge

	// Ledger reads
	ledgerFetches *prometheus.CounterVec
	ledgerRetries prometheus.Counter

	// Commitment decoding and resolution
	decodeFailures     *prometheus.CounterVec
	conflicts          *prometheus.CounterVec
	submissionsPresent prometheus.Gauge
	changesDetected    prometheus.Counter

	// Delivery and persistence
	notifications     *prometheus.CounterVec
	baselineDiscarded prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
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
		namespace:        "commitwatch",
		subsystem:        "scanner",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.scans = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "scans_total",
		Help:        "Total number of registry scans by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.scanDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "scan_duration_seconds",
		Help:        "Wall time of a full scan cycle",
		Buckets:     []float64{1, 5, 15, 30, 60, 120, 300, 600},
		ConstLabels: labels,
	})

	m.registrySize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "registry_size",
		Help:        "Number of registry slots in the last scan",
		ConstLabels: labels,
	})

	m.scanProgress = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "scan_progress_slots",
		Help:        "Slots fetched so far in the running scan",
		ConstLabels: labels,
	})

	m.lastScanBlock = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_scan_block",
		Help:        "Ledger block the last successful scan was pinned to",
		ConstLabels: labels,
	})

	m.lastScanTimestamp = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_scan_timestamp_seconds",
		Help:        "Unix time of the last successful scan",
		ConstLabels: labels,
	})

	m.ledgerFetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "ledger_fetch_total",
		Help:        "Commitment reads by outcome (present, absent, transient, permanent)",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.ledgerRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "ledger_fetch_retries_total",
		Help:        "Commitment reads retried after a transient error",
		ConstLabels: labels,
	})

	m.decodeFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "decode_failures_total",
		Help:        "Commitments ignored because they could not be decoded",
		ConstLabels: labels,
	}, []string{"reason"})

	m.conflicts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "conflicts_total",
		Help:        "Ownership collisions by key and action",
		ConstLabels: labels,
	}, []string{"key", "action"})

	m.submissionsPresent = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "submissions_present",
		Help:        "Slots holding a submission after resolution",
		ConstLabels: labels,
	})

	m.changesDetected = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "changes_detected_total",
		Help:        "New or altered submissions relative to the baseline",
		ConstLabels: labels,
	})

	m.notifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "notifications_total",
		Help:        "Alerts by outcome (sent, failed, dropped)",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.baselineDiscarded = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "baseline_discarded_total",
		Help:        "Malformed baselines that were discarded",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint, method, and status",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request latency in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordScan counts a finished scan cycle. outcome is "ok" or "aborted".
func RecordScan(outcome string, seconds float64) {
	globalManager.scans.WithLabelValues(outcome).Inc()
	globalManager.scanDuration.Observe(seconds)
}

// UpdateRegistrySize sets the registry size of the running scan.
func UpdateRegistrySize(size int) {
	globalManager.registrySize.Set(float64(size))
}

// UpdateScanProgress sets how many slots have been fetched.
func UpdateScanProgress(slots int) {
	globalManager.scanProgress.Set(float64(slots))
}

// RecordScanCompleted stamps the block and time of a successful scan.
func RecordScanCompleted(block uint64, unixSeconds int64) {
	globalManager.lastScanBlock.Set(float64(block))
	globalManager.lastScanTimestamp.Set(float64(unixSeconds))
}

// RecordLedgerFetch counts a commitment read by outcome.
func RecordLedgerFetch(outcome string) {
	globalManager.ledgerFetches.WithLabelValues(outcome).Inc()
}

// RecordLedgerRetry counts a retried commitment read.
func RecordLedgerRetry() {
	globalManager.ledgerRetries.Inc()
}

// RecordDecodeFailure counts an ignored commitment by reason.
func RecordDecodeFailure(reason string) {
	globalManager.decodeFailures.WithLabelValues(reason).Inc()
}

// RecordConflict counts an ownership collision.
func RecordConflict(key, action string) {
	globalManager.conflicts.WithLabelValues(key, action).Inc()
}

// UpdateSubmissionsPresent sets the number of resolved submissions.
func UpdateSubmissionsPresent(count int) {
	globalManager.submissionsPresent.Set(float64(count))
}

// RecordChanges adds detected changes.
func RecordChanges(count int) {
	globalManager.changesDetected.Add(float64(count))
}

// RecordNotification counts an alert by outcome.
func RecordNotification(outcome string) {
	globalManager.notifications.WithLabelValues(outcome).Inc()
}

// RecordBaselineDiscarded counts a discarded baseline.
func RecordBaselineDiscarded() {
	globalManager.baselineDiscarded.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
