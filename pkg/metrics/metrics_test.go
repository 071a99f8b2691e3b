package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	// Verify all metrics are initialized
	if r.GraphTokensTotal == nil {
		t.Error("GraphTokensTotal not initialized")
	}
	if r.GraphMutationsTotal == nil {
		t.Error("GraphMutationsTotal not initialized")
	}
	if r.RuleExecutionsTotal == nil {
		t.Error("RuleExecutionsTotal not initialized")
	}
	if r.AnalysesTotal == nil {
		t.Error("AnalysesTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	// Should return the same instance
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordMutation(t *testing.T) {
	r := NewRegistry()

	r.RecordMutation("add_token", "success", time.Millisecond)
	r.RecordMutation("add_token", "success", 2*time.Millisecond)
	r.RecordMutation("add_token", "error", time.Millisecond)

	successCounter, err := r.GraphMutationsTotal.GetMetricWithLabelValues("add_token", "success")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := successCounter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2 {
		t.Errorf("Success counter = %v, want 2", metric.Counter.GetValue())
	}

	errorCounter, err := r.GraphMutationsTotal.GetMetricWithLabelValues("add_token", "error")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	if err := errorCounter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 1 {
		t.Errorf("Error counter = %v, want 1", metric.Counter.GetValue())
	}
}

func TestRecordCycleRejection(t *testing.T) {
	r := NewRegistry()

	r.RecordCycleRejection()
	r.RecordCycleRejection()

	var metric dto.Metric
	if err := r.GraphCycleRejections.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2 {
		t.Errorf("Cycle rejections = %v, want 2", metric.Counter.GetValue())
	}

	// Rejections also count as failed mutations
	rejected, err := r.GraphMutationsTotal.GetMetricWithLabelValues("add_dependency", "cycle_rejected")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if err := rejected.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("Rejected mutations = %v, want 2", metric.Counter.GetValue())
	}
}

func TestRecordRuleExecution(t *testing.T) {
	r := NewRegistry()

	r.RecordRuleExecution("scale", "success", 50*time.Microsecond, 1.0)
	r.RecordRuleExecution("calc", "degraded", 80*time.Microsecond, 0.2)

	counter, err := r.RuleExecutionsTotal.GetMetricWithLabelValues("scale", "success")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 1 {
		t.Errorf("Execution counter = %v, want 1", metric.Counter.GetValue())
	}

	// Confidence histogram should carry the observed score
	hist, err := r.RuleExecutionConfidence.GetMetricWithLabelValues("calc")
	if err != nil {
		t.Fatalf("Failed to get histogram: %v", err)
	}
	if err := hist.(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 1 {
		t.Errorf("Confidence sample count = %v, want 1", metric.Histogram.GetSampleCount())
	}
	sum := metric.Histogram.GetSampleSum()
	if sum < 0.19 || sum > 0.21 {
		t.Errorf("Confidence sample sum = %v, want ~0.2", sum)
	}
}

func TestRecordAnalysis_SlowCounter(t *testing.T) {
	r := NewRegistry()

	r.RecordAnalysis("predict_cascade_impact", "success", 100*time.Millisecond)
	r.RecordAnalysis("predict_cascade_impact", "success", 2*time.Second)

	slow, err := r.SlowAnalyses.GetMetricWithLabelValues("predict_cascade_impact")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := slow.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 1 {
		t.Errorf("Slow analyses = %v, want 1", metric.Counter.GetValue())
	}
}

func TestRecordCascadePrediction(t *testing.T) {
	r := NewRegistry()

	r.RecordCascadePrediction(7, 0.85)
	r.RecordCascadePrediction(3, 0.6)

	var metric dto.Metric
	if err := r.CascadeSize.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Histogram.GetSampleCount() != 2 {
		t.Errorf("Cascade size sample count = %v, want 2", metric.Histogram.GetSampleCount())
	}
	if metric.Histogram.GetSampleSum() != 10 {
		t.Errorf("Cascade size sum = %v, want 10", metric.Histogram.GetSampleSum())
	}

	if err := r.PredictionConfidence.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 2 {
		t.Errorf("Confidence sample count = %v, want 2", metric.Histogram.GetSampleCount())
	}
}

func TestRecordValidationFindings(t *testing.T) {
	r := NewRegistry()

	r.RecordValidationFindings(2, 1, 0)

	errCounter, err := r.ValidationFindingsTotal.GetMetricWithLabelValues("error")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := errCounter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2 {
		t.Errorf("Error findings = %v, want 2", metric.Counter.GetValue())
	}

	warnCounter, err := r.ValidationFindingsTotal.GetMetricWithLabelValues("warning")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if err := warnCounter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("Warning findings = %v, want 1", metric.Counter.GetValue())
	}
}

func TestUpdateGraphStats(t *testing.T) {
	r := NewRegistry()

	r.UpdateGraphStats(42, 10, 17)

	tests := []struct {
		name     string
		gauge    prometheus.Gauge
		expected float64
	}{
		{"GraphTokensTotal", r.GraphTokensTotal, 42},
		{"GraphRulesTotal", r.GraphRulesTotal, 10},
		{"GraphEdgesTotal", r.GraphEdgesTotal, 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var metric dto.Metric
			if err := tt.gauge.Write(&metric); err != nil {
				t.Fatalf("Failed to write metric: %v", err)
			}

			if metric.Gauge.GetValue() != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, metric.Gauge.GetValue(), tt.expected)
			}
		})
	}
}

func TestUpdateSystemMetrics(t *testing.T) {
	r := NewRegistry()

	r.UpdateSystemMetrics(time.Now().Add(-time.Minute))

	var metric dto.Metric
	if err := r.UptimeSeconds.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() < 59 {
		t.Errorf("Uptime = %v, want at least 59", metric.Gauge.GetValue())
	}

	if err := r.GoRoutines.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() < 1 {
		t.Errorf("GoRoutines = %v, want at least 1", metric.Gauge.GetValue())
	}
}

func TestGetPrometheusRegistry(t *testing.T) {
	r := NewRegistry()
	promRegistry := r.GetPrometheusRegistry()

	if promRegistry == nil {
		t.Fatal("GetPrometheusRegistry() returned nil")
	}

	metrics, err := promRegistry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	if len(metrics) == 0 {
		t.Error("No metrics registered")
	}

	expectedMetrics := []string{
		"tokengraph_tokens_total",
		"tokengraph_cycle_rejections_total",
		"tokengraph_uptime_seconds",
	}

	metricNames := make(map[string]bool)
	for _, m := range metrics {
		metricNames[m.GetName()] = true
	}

	for _, expected := range expectedMetrics {
		if !metricNames[expected] {
			t.Errorf("Expected metric %s not found", expected)
		}
	}
}

func TestMetricNaming(t *testing.T) {
	r := NewRegistry()
	promRegistry := r.GetPrometheusRegistry()

	metrics, err := promRegistry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	// Verify all metrics share the tokengraph_ prefix
	for _, m := range metrics {
		name := m.GetName()
		if !strings.HasPrefix(name, "tokengraph_") {
			t.Errorf("Metric %s does not have tokengraph_ prefix", name)
		}
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				r.RecordRuleExecution("scale", "success", 10*time.Microsecond, 1.0)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	counter, err := r.RuleExecutionsTotal.GetMetricWithLabelValues("scale", "success")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 1000 {
		t.Errorf("Counter = %v, want 1000", metric.Counter.GetValue())
	}
}

func BenchmarkRecordRuleExecution(b *testing.B) {
	r := NewRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordRuleExecution("scale", "success", 10*time.Microsecond, 1.0)
	}
}

func BenchmarkRecordMutation(b *testing.B) {
	r := NewRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordMutation("add_token", "success", time.Microsecond)
	}
}
