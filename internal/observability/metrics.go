// Package observability provides Prometheus instrumentation for the gateway.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatRequestsTotal counts chat requests by provider, surface and outcome.
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatgate_requests_total",
			Help: "Total chat requests by provider, surface and outcome.",
		},
		[]string{"provider", "surface", "outcome"}, // surface: "complete" or "stream"
	)

	// ChatRequestDuration tracks end-to-end chat latency in seconds.
	ChatRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatgate_request_duration_seconds",
			Help:    "End-to-end chat request latency in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "surface"},
	)

	// StreamEventsTotal counts streaming protocol events by type.
	StreamEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatgate_stream_events_total",
			Help: "Streaming protocol events emitted, by event type.",
		},
		[]string{"event"},
	)

	// ActiveStreams tracks currently open streaming responses.
	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatgate_active_streams",
			Help: "Number of currently open streaming responses.",
		},
	)

	// ModelClientsCached tracks the size of the model client cache.
	ModelClientsCached = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatgate_model_clients_cached",
			Help: "Model client handles currently memoized.",
		},
	)

	// RetrievalCacheLookupsTotal counts retrieval cache lookups by result.
	RetrievalCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatgate_retrieval_cache_lookups_total",
			Help: "Retrieval cache lookups by result.",
		},
		[]string{"result"}, // "hit" or "miss"
	)

	// ToolCallsTotal counts tool executions by tool name and success.
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatgate_tool_calls_total",
			Help: "Tool executions by tool and success.",
		},
		[]string{"tool", "success"},
	)
)
