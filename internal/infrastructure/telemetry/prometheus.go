package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metric names.
const (
	MetricProviderCallsTotal      = "qclens_provider_calls_total"
	MetricProviderDurationSeconds = "qclens_provider_duration_seconds"
	MetricEvidenceResultsTotal    = "qclens_evidence_results_total"
	MetricCacheLookupsTotal       = "qclens_evidence_cache_lookups_total"
	MetricHTTPRequestsTotal       = "qclens_http_requests_total"
	MetricHTTPDurationSeconds     = "qclens_http_request_duration_seconds"
)

// Provider call outcomes
const (
	OutcomeItems   = "items"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
	OutcomePanic   = "panic"
)

// Metrics holds the Prometheus collectors exposed on /metrics.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Metrics struct {
	registry *prometheus.Registry

	providerCalls    *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	evidenceResults  *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a private registry together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricProviderCallsTotal,
			Help: "Evidence provider calls by provider, platform and outcome",
		}, []string{"provider", "platform", "outcome"}),
		providerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricProviderDurationSeconds,
			Help:    "Evidence provider call latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		evidenceResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricEvidenceResultsTotal,
			Help: "Aggregation results by platform and resolution",
		}, []string{"platform", "result"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricCacheLookupsTotal,
			Help: "Evidence cache lookups by result",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequestsTotal,
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPDurationSeconds,
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.providerCalls,
		m.providerDuration,
		m.evidenceResults,
		m.cacheLookups,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// RecordProviderCall records one provider attempt
func (m *Metrics) RecordProviderCall(provider, platform, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(provider, platform, outcome).Inc()
	if outcome != OutcomeSkipped {
		m.providerDuration.WithLabelValues(provider).Observe(d.Seconds())
	}
}

// RecordEvidenceResult records how an aggregation ended (items, placeholder, empty)
func (m *Metrics) RecordEvidenceResult(platform, result string) {
	if m == nil {
		return
	}
	m.evidenceResults.WithLabelValues(platform, result).Inc()
}

// RecordCacheLookup records a cache hit, miss or error
func (m *Metrics) RecordCacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records a served request
func (m *Metrics) RecordHTTPRequest(route, method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the /metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
