package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRuleMetrics() {
	r.RuleExecutionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokengraph_rule_executions_total",
			Help: "Total number of rule executions",
		},
		[]string{"kind", "status"},
	)

	r.RuleExecutionDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tokengraph_rule_execution_duration_seconds",
			Help:    "Rule execution duration in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1.0},
		},
		[]string{"kind"},
	)

	r.RuleExecutionConfidence = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tokengraph_rule_execution_confidence",
			Help:    "Confidence scores of rule executions",
			Buckets: []float64{0.1, 0.25, 0.4, 0.6, 0.8, 0.9, 0.95, 1.0},
		},
		[]string{"kind"},
	)
}
