package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the engine
type Registry struct {
	// Graph Metrics
	GraphTokensTotal      prometheus.Gauge
	GraphRulesTotal       prometheus.Gauge
	GraphEdgesTotal       prometheus.Gauge
	GraphMutationsTotal   *prometheus.CounterVec
	GraphMutationDuration *prometheus.HistogramVec
	GraphCycleRejections  prometheus.Counter
	GraphTraversalHops    prometheus.Histogram

	// Rule Execution Metrics
	RuleExecutionsTotal     *prometheus.CounterVec
	RuleExecutionDuration   *prometheus.HistogramVec
	RuleExecutionConfidence *prometheus.HistogramVec

	// Analysis Metrics
	AnalysesTotal           *prometheus.CounterVec
	AnalysisDuration        *prometheus.HistogramVec
	SlowAnalyses            *prometheus.CounterVec
	CascadeSize             prometheus.Histogram
	PredictionConfidence    prometheus.Histogram
	ValidationFindingsTotal *prometheus.CounterVec

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initGraphMetrics()
	r.initRuleMetrics()
	r.initAnalysisMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
