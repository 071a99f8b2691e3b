package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphTokensTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "tokengraph_tokens_total",
			Help: "Total number of tokens in the registry",
		},
	)

	r.GraphRulesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "tokengraph_rules_total",
			Help: "Total number of derivation rules",
		},
	)

	r.GraphEdgesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "tokengraph_edges_total",
			Help: "Total number of dependency edges",
		},
	)

	r.GraphMutationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokengraph_graph_mutations_total",
			Help: "Total number of graph mutations",
		},
		[]string{"operation", "status"},
	)

	r.GraphMutationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tokengraph_graph_mutation_duration_seconds",
			Help:    "Graph mutation duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"operation"},
	)

	r.GraphCycleRejections = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "tokengraph_cycle_rejections_total",
			Help: "Total number of edge insertions rejected for creating a cycle",
		},
	)

	r.GraphTraversalHops = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tokengraph_traversal_hops",
			Help:    "Hop depth reached by graph traversals",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		},
	)
}
