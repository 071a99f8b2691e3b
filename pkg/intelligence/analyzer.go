// Package intelligence orchestrates the token registry, the rule executor,
// and the engine calibration into four analysis operations: dependency
// analysis, change validation, ad-hoc rule execution, and cascade impact
// prediction.
//
// Every operation is a pure function of the graph snapshot at call time and
// returns a plain JSON-serializable record. Failures the registry would
// reject outright (cycles, duplicates) are reported here as findings and
// confidence degradation instead; one bad input never aborts a batch.
// Operations never mutate the registry, so they may run concurrently with
// each other. Mutations interleaved from another goroutine need the
// caller-side serialization the registry documents.
package intelligence

import (
	"strings"
	"time"

	"github.com/rafters-design/tokengraph/pkg/config"
	"github.com/rafters-design/tokengraph/pkg/history"
	"github.com/rafters-design/tokengraph/pkg/logging"
	"github.com/rafters-design/tokengraph/pkg/metrics"
	"github.com/rafters-design/tokengraph/pkg/rules"
	"github.com/rafters-design/tokengraph/pkg/store"
)

// Metric operation labels.
const (
	opAnalyze  = "analyze_dependencies"
	opValidate = "validate_changes"
	opExecute  = "execute_rule"
	opPredict  = "predict_cascade_impact"
)

// Analyzer exposes the four analysis operations over one registry.
type Analyzer struct {
	reg      *store.Registry
	cfg      config.Engine
	executor *rules.Executor
	logger   logging.Logger
	metrics  *metrics.Registry
	history  history.Store
}

// NewAnalyzer creates an analyzer with the stock calibration.
func NewAnalyzer(reg *store.Registry) *Analyzer {
	return NewAnalyzerWithConfig(reg, config.Default())
}

// NewAnalyzerWithConfig creates an analyzer with an explicit calibration.
// Logging is off and prediction history is not recorded until a caller
// injects them.
func NewAnalyzerWithConfig(reg *store.Registry, cfg config.Engine) *Analyzer {
	return &Analyzer{
		reg:      reg,
		cfg:      cfg,
		executor: rules.NewExecutor(cfg.Rules),
		logger:   logging.NewNopLogger(),
		metrics:  metrics.DefaultRegistry(),
	}
}

// SetLogger routes the analyzer's diagnostics to l.
func (a *Analyzer) SetLogger(l logging.Logger) {
	if l != nil {
		a.logger = l
	}
}

// SetMetrics points the analyzer at a metrics registry, replacing the
// process-wide default.
func (a *Analyzer) SetMetrics(m *metrics.Registry) {
	if m != nil {
		a.metrics = m
	}
}

// SetHistory enables best-effort recording of predictions and executions.
// A nil store disables recording.
func (a *Analyzer) SetHistory(h history.Store) {
	a.history = h
}

// Registry returns the registry this analyzer reads.
func (a *Analyzer) Registry() *store.Registry {
	return a.reg
}

// Config returns the calibration in effect.
func (a *Analyzer) Config() config.Engine {
	return a.cfg
}

// maxDepth resolves a per-request depth against the calibration.
func (a *Analyzer) maxDepth(requested int) int {
	if requested > 0 {
		return requested
	}
	if a.cfg.Traversal.MaxDepth > 0 {
		return a.cfg.Traversal.MaxDepth
	}
	return store.DefaultMaxDepth
}

func millis(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// matchesHint reports whether the token name contains any of the hint
// fragments, case-insensitively.
func matchesHint(name string, hints []string) bool {
	lower := strings.ToLower(name)
	for _, hint := range hints {
		if hint != "" && strings.Contains(lower, strings.ToLower(hint)) {
			return true
		}
	}
	return false
}
