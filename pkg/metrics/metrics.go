package metrics

import (
	"runtime"
	"time"
)

// RecordMutation records a graph mutation with its duration
func (r *Registry) RecordMutation(operation, status string, duration time.Duration) {
	r.GraphMutationsTotal.WithLabelValues(operation, status).Inc()
	r.GraphMutationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCycleRejection records an edge insertion rejected for creating a cycle
func (r *Registry) RecordCycleRejection() {
	r.GraphCycleRejections.Inc()
	r.GraphMutationsTotal.WithLabelValues("add_dependency", "cycle_rejected").Inc()
}

// RecordRuleExecution records one rule execution
func (r *Registry) RecordRuleExecution(kind, status string, duration time.Duration, confidence float64) {
	r.RuleExecutionsTotal.WithLabelValues(kind, status).Inc()
	r.RuleExecutionDuration.WithLabelValues(kind).Observe(duration.Seconds())
	r.RuleExecutionConfidence.WithLabelValues(kind).Observe(confidence)
}

// RecordAnalysis records an analysis operation
func (r *Registry) RecordAnalysis(operation, status string, duration time.Duration) {
	r.AnalysesTotal.WithLabelValues(operation, status).Inc()
	r.AnalysisDuration.WithLabelValues(operation).Observe(duration.Seconds())

	if duration > time.Second {
		r.SlowAnalyses.WithLabelValues(operation).Inc()
	}
}

// RecordCascadePrediction records the outcome of a cascade impact prediction
func (r *Registry) RecordCascadePrediction(affected int, confidence float64) {
	r.CascadeSize.Observe(float64(affected))
	r.PredictionConfidence.Observe(confidence)
}

// RecordValidationFindings records validation findings by severity
func (r *Registry) RecordValidationFindings(errors, warnings, infos int) {
	if errors > 0 {
		r.ValidationFindingsTotal.WithLabelValues("error").Add(float64(errors))
	}
	if warnings > 0 {
		r.ValidationFindingsTotal.WithLabelValues("warning").Add(float64(warnings))
	}
	if infos > 0 {
		r.ValidationFindingsTotal.WithLabelValues("info").Add(float64(infos))
	}
}

// RecordTraversal records the depth a graph traversal reached
func (r *Registry) RecordTraversal(hops int) {
	r.GraphTraversalHops.Observe(float64(hops))
}

// UpdateGraphStats updates the registry size gauges
func (r *Registry) UpdateGraphStats(tokens, rules, edges int) {
	r.GraphTokensTotal.Set(float64(tokens))
	r.GraphRulesTotal.Set(float64(rules))
	r.GraphEdgesTotal.Set(float64(edges))
}

// UpdateSystemMetrics refreshes uptime and runtime gauges
func (r *Registry) UpdateSystemMetrics(start time.Time) {
	r.UptimeSeconds.Set(time.Since(start).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	r.MemoryAllocBytes.Set(float64(mem.Alloc))
	r.MemorySysBytes.Set(float64(mem.Sys))
}
