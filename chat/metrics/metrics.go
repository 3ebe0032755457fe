// Package metrics exports chat pipeline metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter holds the chat metrics on its own registry so the default
// global registry stays untouched.
type Exporter struct {
	registry *prometheus.Registry

	chatRequests     prometheus.Counter
	chatLatency      prometheus.Histogram
	fallbackStage    *prometheus.CounterVec
	toolCalls        *prometheus.CounterVec
	retrievalLatency prometheus.Histogram
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
}

// Config configures the exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns the default exporter configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}
}

// NewExporter creates an exporter with all chat metrics registered.
func NewExporter(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.chatRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ecogo",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total number of chat turns handled",
		},
	)

	e.chatLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ecogo",
			Subsystem: "chat",
			Name:      "latency_seconds",
			Help:      "Chat turn latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	e.fallbackStage = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecogo",
			Subsystem: "chat",
			Name:      "fallback_stage_total",
			Help:      "Which pipeline stage produced the answer",
		},
		[]string{"stage"},
	)

	e.toolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecogo",
			Subsystem: "chat",
			Name:      "tool_calls_total",
			Help:      "Total number of model tool calls dispatched",
		},
		[]string{"tool_name"},
	)

	e.retrievalLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ecogo",
			Subsystem: "chat",
			Name:      "retrieval_latency_seconds",
			Help:      "Knowledge base retrieval latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	e.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecogo",
			Subsystem: "chat",
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	e.cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecogo",
			Subsystem: "chat",
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	registry.MustRegister(
		e.chatRequests,
		e.chatLatency,
		e.fallbackStage,
		e.toolCalls,
		e.retrievalLatency,
		e.cacheHits,
		e.cacheMisses,
	)

	return e
}

// RecordChatTurn records one handled chat turn. The orchestrator
// always answers, so there is no failure status to distinguish.
func (e *Exporter) RecordChatTurn(latency time.Duration) {
	e.chatRequests.Inc()
	e.chatLatency.Observe(latency.Seconds())
}

// RecordFallbackStage records which stage answered the turn: model,
// tool, proxy, keyword or rag.
func (e *Exporter) RecordFallbackStage(stage string) {
	e.fallbackStage.WithLabelValues(stage).Inc()
}

// RecordToolCall records a dispatched tool call.
func (e *Exporter) RecordToolCall(toolName string) {
	e.toolCalls.WithLabelValues(toolName).Inc()
}

// RecordRetrieval records a knowledge base retrieval.
func (e *Exporter) RecordRetrieval(latency time.Duration) {
	e.retrievalLatency.Observe(latency.Seconds())
}

// RecordCacheHit records a cache hit.
func (e *Exporter) RecordCacheHit(cacheType string) {
	e.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func (e *Exporter) RecordCacheMiss(cacheType string) {
	e.cacheMisses.WithLabelValues(cacheType).Inc()
}

// Handler returns the HTTP handler for the metrics endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}
