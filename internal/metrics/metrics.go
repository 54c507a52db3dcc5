// Package metrics provides Prometheus metrics for the classification pipeline.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for upstream calls.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeEmpty   = "empty"
)

// ClassifierMetrics tracks cache effectiveness, backend calls and swallowed
// persistence failures. A nil *ClassifierMetrics is valid and records nothing.
type ClassifierMetrics struct {
	CacheLookups        *prometheus.CounterVec
	UpstreamRequests    *prometheus.CounterVec
	UpstreamDuration    *prometheus.HistogramVec
	PersistenceFailures prometheus.Counter
	ScanCacheHits       prometheus.Counter
}

// NewClassifierMetrics creates the metrics and registers them on registry.
func NewClassifierMetrics(registry prometheus.Registerer) (*ClassifierMetrics, error) {
	m := &ClassifierMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register classifier metrics: %w", err)
	}
	return m, nil
}

func (m *ClassifierMetrics) initMetrics() {
	m.CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingredient_cache_lookups_total",
		Help: "Ingredient cache lookups by result (hit or miss).",
	}, []string{"result"})

	m.UpstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generative_backend_requests_total",
		Help: "Requests sent to the generative backend by operation and outcome.",
	}, []string{"operation", "outcome"})

	m.UpstreamDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "generative_backend_request_duration_seconds",
		Help:    "Duration of generative backend requests in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
	}, []string{"operation"})

	m.PersistenceFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "record_store_persistence_failures_total",
		Help: "Write-backs to the record store that failed and were swallowed.",
	})

	m.ScanCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_cache_hits_total",
		Help: "Image analyses served from the scan cache.",
	})
}

// ObserveCacheLookup records one ingredient cache lookup.
func (m *ClassifierMetrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveUpstream records one generative backend round trip.
func (m *ClassifierMetrics) ObserveUpstream(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(operation, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// IncrementPersistenceFailures counts a swallowed store write failure.
func (m *ClassifierMetrics) IncrementPersistenceFailures() {
	if m == nil {
		return
	}
	m.PersistenceFailures.Inc()
}

// IncrementScanCacheHits counts an image analysis served from cache.
func (m *ClassifierMetrics) IncrementScanCacheHits() {
	if m == nil {
		return
	}
	m.ScanCacheHits.Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *ClassifierMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.CacheLookups.Describe(ch)
	m.UpstreamRequests.Describe(ch)
	m.UpstreamDuration.Describe(ch)
	ch <- m.PersistenceFailures.Desc()
	ch <- m.ScanCacheHits.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *ClassifierMetrics) Collect(ch chan<- prometheus.Metric) {
	m.CacheLookups.Collect(ch)
	m.UpstreamRequests.Collect(ch)
	m.UpstreamDuration.Collect(ch)
	ch <- m.PersistenceFailures
	ch <- m.ScanCacheHits
}
