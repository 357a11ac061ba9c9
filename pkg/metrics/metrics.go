// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// PipelineDuration tracks end-to-end orchestration duration.
	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_duration_seconds",
			Help:    "End-to-end query pipeline duration",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"action", "status"},
	)

	// RouterDecisions tracks router rule matches.
	RouterDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "router_decisions_total",
			Help: "Router rule matches by rule name",
		},
		[]string{"rule", "specialist"},
	)

	// CacheOps tracks response cache probes by tier and outcome.
	CacheOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_ops_total",
			Help: "Response cache operations by tier and outcome",
		},
		[]string{"tier", "outcome"},
	)

	// ToolExecutions tracks tool invocations inside the conversation driver.
	ToolExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_executions_total",
			Help: "Tool executions by tool name and status",
		},
		[]string{"tool", "status"},
	)

	// ToolDuration tracks individual tool execution duration.
	ToolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tool_duration_seconds",
			Help:    "Tool execution duration",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"tool"},
	)

	// LLMCallDuration tracks LLM completion duration.
	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_duration_seconds",
			Help:    "LLM completion duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"model", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// AgentPoolSize tracks the current number of pooled agents.
	AgentPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agent_pool_size",
			Help: "Number of agents currently pooled",
		},
	)

	// AgentPoolEvictions tracks LRU evictions from the agent pool.
	AgentPoolEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_pool_evictions_total",
			Help: "Total agents evicted from the pool",
		},
	)

	// ConversationSaves tracks conversation persistence attempts.
	ConversationSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_saves_total",
			Help: "Conversation save attempts by status",
		},
		[]string{"status"},
	)

	// EnricherCalls tracks real-time data enricher invocations.
	EnricherCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enricher_calls_total",
			Help: "Enricher invocations by name and outcome",
		},
		[]string{"enricher", "outcome"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMCall records metrics for an LLM completion.
func RecordLLMCall(model, status string, duration float64, tokensIn, tokensOut int) {
	LLMCallDuration.WithLabelValues(model, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordRouterDecision records a router rule match.
func RecordRouterDecision(rule, specialist string) {
	RouterDecisions.WithLabelValues(rule, specialist).Inc()
}

// RecordCacheOp records a cache probe or write outcome.
func RecordCacheOp(tier, outcome string) {
	CacheOps.WithLabelValues(tier, outcome).Inc()
}
