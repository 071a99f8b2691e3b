package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initAnalysisMetrics() {
	r.AnalysesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokengraph_analyses_total",
			Help: "Total number of analysis operations",
		},
		[]string{"operation", "status"},
	)

	r.AnalysisDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tokengraph_analysis_duration_seconds",
			Help:    "Analysis operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"operation"},
	)

	r.SlowAnalyses = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokengraph_slow_analyses_total",
			Help: "Total number of slow analysis operations (>1s)",
		},
		[]string{"operation"},
	)

	r.CascadeSize = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tokengraph_cascade_size",
			Help:    "Number of tokens affected per cascade prediction",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 250},
		},
	)

	r.PredictionConfidence = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tokengraph_prediction_confidence",
			Help:    "Overall confidence of cascade predictions",
			Buckets: []float64{0.1, 0.25, 0.4, 0.6, 0.8, 0.9, 0.95, 1.0},
		},
	)

	r.ValidationFindingsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokengraph_validation_findings_total",
			Help: "Total number of validation findings by severity",
		},
		[]string{"severity"},
	)
}
