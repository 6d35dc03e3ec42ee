// Package metrics provides Prometheus metrics for sitegen.
// Exports HTTP, provider, parser, generation and cache metrics.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sitegen/internal/ai"
)

const namespace = "sitegen"

var (
	once     sync.Once
	instance *Metrics
)

// Metrics holds all Prometheus metric collectors
type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	HTTPResponseSize     *prometheus.HistogramVec

	// Provider Metrics
	AIAttemptsTotal   *prometheus.CounterVec
	AIAttemptDuration *prometheus.HistogramVec
	AIFallbacksTotal  *prometheus.CounterVec
	AITokensUsed      *prometheus.CounterVec

	// Parser Metrics
	ParseStagesTotal *prometheus.CounterVec

	// Generation Metrics
	PhasesTotal        *prometheus.CounterVec
	VariantsTotal      *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	NormalizedNodes    prometheus.Histogram

	// Cache Metrics
	CacheHits    *prometheus.GaugeVec
	CacheMisses  *prometheus.GaugeVec
	CacheEntries *prometheus.GaugeVec

	// System Metrics
	BuildInfo    *prometheus.GaugeVec
	StartupTime  prometheus.Gauge
	GoroutineNum prometheus.Gauge
}

// Get returns the singleton Metrics registered with the default registry
func Get() *Metrics {
	once.Do(func() {
		instance = New(prometheus.DefaultRegisterer)
	})
	return instance
}

// New creates and registers all metrics with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{}

	// HTTP Metrics
	m.HTTPRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by endpoint, method, and status code",
		},
		[]string{"endpoint", "method", "status"},
	)

	m.HTTPRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"endpoint", "method"},
	)

	m.HTTPRequestsInFlight = f.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)

	m.HTTPResponseSize = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"endpoint"},
	)

	// Provider Metrics
	m.AIAttemptsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "attempts_total",
			Help:      "Provider attempts by provider and classified outcome",
		},
		[]string{"provider", "outcome"},
	)

	m.AIAttemptDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "attempt_duration_seconds",
			Help:      "Provider attempt latency in seconds",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 20, 30, 60, 90, 120},
		},
		[]string{"provider"},
	)

	m.AIFallbacksTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "fallbacks_total",
			Help:      "Times the chain advanced past a provider, by reason",
		},
		[]string{"from_provider", "reason"},
	)

	m.AITokensUsed = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "tokens_total",
			Help:      "Tokens consumed by provider",
		},
		[]string{"provider"},
	)

	// Parser Metrics
	m.ParseStagesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parser",
			Name:      "results_total",
			Help:      "Parse results by the recovery stage that produced them",
		},
		[]string{"stage"},
	)

	// Generation Metrics
	m.PhasesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "phases_total",
			Help:      "Page phases by phase name and result",
		},
		[]string{"phase", "result"},
	)

	m.VariantsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "variants_total",
			Help:      "Variants by result",
		},
		[]string{"result"},
	)

	m.GenerationDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "End-to-end generation time by mode",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 180, 300, 600},
		},
		[]string{"mode"},
	)

	m.NormalizedNodes = f.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "section_nodes",
			Help:      "Nodes per normalized section tree",
			Buckets:   prometheus.ExponentialBuckets(4, 2, 8),
		},
	)

	// Cache Metrics
	m.CacheHits = f.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits",
			Help:      "Cache hits since start",
		},
		[]string{"cache_name"},
	)

	m.CacheMisses = f.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses",
			Help:      "Cache misses since start",
		},
		[]string{"cache_name"},
	)

	m.CacheEntries = f.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "memory_entries",
			Help:      "Entries held in the in-memory fallback",
		},
		[]string{"cache_name"},
	)

	// System Metrics
	m.BuildInfo = f.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "build",
			Name:      "info",
			Help:      "Build information",
		},
		[]string{"version", "commit"},
	)

	m.StartupTime = f.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "startup_timestamp",
			Help:      "Server startup timestamp",
		},
	)

	m.GoroutineNum = f.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "goroutines",
			Help:      "Current number of goroutines",
		},
	)

	m.StartupTime.Set(float64(time.Now().Unix()))

	return m
}

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(endpoint, method string, statusCode int, duration time.Duration, responseSize int) {
	status := statusCodeToLabel(statusCode)
	m.HTTPRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(endpoint).Observe(float64(responseSize))
}

// ObserveAttempt implements ai.Recorder
func (m *Metrics) ObserveAttempt(p ai.Provider, outcome ai.Outcome, latency time.Duration) {
	provider := sanitizeLabel(string(p), "unknown")
	m.AIAttemptsTotal.WithLabelValues(provider, sanitizeLabel(string(outcome), "ok")).Inc()
	if latency > 0 {
		m.AIAttemptDuration.WithLabelValues(provider).Observe(latency.Seconds())
	}
}

// ObserveFallback implements ai.Recorder
func (m *Metrics) ObserveFallback(from ai.Provider, reason ai.Outcome) {
	m.AIFallbacksTotal.WithLabelValues(
		sanitizeLabel(string(from), "unknown"),
		sanitizeLabel(string(reason), "unknown"),
	).Inc()
}

// ObserveParseStage implements parser.StageObserver
func (m *Metrics) ObserveParseStage(stage string) {
	m.ParseStagesTotal.WithLabelValues(sanitizeLabel(stage, "unknown")).Inc()
}

// RecordTokens adds provider token usage
func (m *Metrics) RecordTokens(p ai.Provider, tokens int) {
	if tokens > 0 {
		m.AITokensUsed.WithLabelValues(sanitizeLabel(string(p), "unknown")).Add(float64(tokens))
	}
}

// SetBuildInfo sets build information
func (m *Metrics) SetBuildInfo(version, commit string) {
	m.BuildInfo.WithLabelValues(version, commit).Set(1)
}

func statusCodeToLabel(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
