package intelligence

// Output records for the four analyzer operations. All of them are plain
// JSON-serializable values; ownership ends at the caller. Success reports
// whether the operation itself completed, which for this engine is always
// the case: failures are absorbed into confidence scores and findings so
// one bad input never takes down a batch. Surfaces wrapping the analyzer
// flip it for transport-level failures.

// AnalyzeOptions controls AnalyzeDependencies.
type AnalyzeOptions struct {
	// IncludeIndirect populates IndirectDependencies in the result.
	IncludeIndirect bool
	// MaxDepth bounds traversals; 0 means the configured default.
	MaxDepth int
}

// DependencyAnalysis reports a token's position in the graph.
type DependencyAnalysis struct {
	Success              bool     `json:"success"`
	Token                string   `json:"token"`
	Exists               bool     `json:"exists"`
	DirectDependencies   []string `json:"direct_dependencies"`
	IndirectDependencies []string `json:"indirect_dependencies,omitempty"`
	Dependents           []string `json:"dependents"`
	CascadeScope         []string `json:"cascade_scope"`
	DependencyDepth      int      `json:"dependency_depth"`
	Rule                 string   `json:"rule,omitempty"`
	RuleKind             string   `json:"rule_kind,omitempty"`
	CircularDependencies []string `json:"circular_dependencies,omitempty"`
	ComplexityScore      float64  `json:"complexity_score"`
	Confidence           float64  `json:"confidence"`
	ExecutionTimeMS      float64  `json:"execution_time_ms"`
}

// ChangeRequest is one proposed token change handed to ValidateChanges.
type ChangeRequest struct {
	Name         string   `json:"name"`
	Value        string   `json:"value"`
	Category     string   `json:"category,omitempty"`
	Rule         string   `json:"rule,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Finding kinds reported by ValidateChanges.
const (
	FindingCircularDependency = "circular-dependency"
	FindingInvalidRule        = "invalid-rule"
	FindingOpaqueRule         = "opaque-rule"
	FindingMissingDependency  = "missing-dependency"
	FindingNewToken           = "new-token"
)

// Finding severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// ValidationFinding is one itemized result for one change.
type ValidationFinding struct {
	Change      string   `json:"change"`
	Kind        string   `json:"kind"`
	Severity    string   `json:"severity"`
	Message     string   `json:"message"`
	Remediation string   `json:"remediation,omitempty"`
	CyclePath   []string `json:"cycle_path,omitempty"`
}

// PerformanceEstimate is the linear pre-flight cost model for a change set.
type PerformanceEstimate struct {
	EstimatedMillis float64 `json:"estimated_millis"`
	Level           string  `json:"level"`
	Changes         int     `json:"changes"`
	Dependencies    int     `json:"dependencies"`
	RuleExecutions  int     `json:"rule_executions"`
}

// Bottleneck kinds.
const (
	BottleneckHighFanout = "high-fanout"
	BottleneckLongRule   = "long-rule"
	BottleneckWideCalc   = "wide-calc"
)

// Bottleneck flags a token or rule whose change would require
// disproportionate re-computation.
type Bottleneck struct {
	Token   string `json:"token"`
	Kind    string `json:"kind"`
	Detail  string `json:"detail"`
	Measure int    `json:"measure"`
}

// ValidationResult is the complete report for a change set. It always
// covers every input change; with k invalid changes there are exactly k
// entries in Errors.
type ValidationResult struct {
	Success         bool                `json:"success"`
	IsValid         bool                `json:"is_valid"`
	Errors          []ValidationFinding `json:"errors"`
	Warnings        []ValidationFinding `json:"warnings"`
	Infos           []ValidationFinding `json:"infos"`
	Performance     PerformanceEstimate `json:"performance"`
	Bottlenecks     []Bottleneck        `json:"bottlenecks"`
	Confidence      float64             `json:"confidence"`
	ExecutionTimeMS float64             `json:"execution_time_ms"`
}

// ExecutionContext carries the inputs ExecuteRule resolves against the
// registry. Overrides substitute values without touching stored tokens,
// for what-if runs.
type ExecutionContext struct {
	Dependencies []string          `json:"dependencies,omitempty"`
	Overrides    map[string]string `json:"overrides,omitempty"`
}

// RuleExecutionResult is the outcome of one ad-hoc rule execution.
type RuleExecutionResult struct {
	Success         bool     `json:"success"`
	Token           string   `json:"token"`
	Rule            string   `json:"rule"`
	RuleKind        string   `json:"rule_kind"`
	Value           string   `json:"value"`
	Confidence      float64  `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
	Unresolved      []string `json:"unresolved,omitempty"`
	ExecutionTimeMS float64  `json:"execution_time_ms"`
}

// TokenPrediction is the predicted outcome for one affected token.
type TokenPrediction struct {
	Token           string  `json:"token"`
	CurrentValue    string  `json:"current_value,omitempty"`
	PredictedValue  string  `json:"predicted_value"`
	Confidence      float64 `json:"confidence"`
	Rule            string  `json:"rule,omitempty"`
	RuleKind        string  `json:"rule_kind,omitempty"`
	ManuallyManaged bool    `json:"manually_managed"`
	Reasoning       string  `json:"reasoning,omitempty"`
}

// Risk levels used by the assessment axes.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// RiskAssessment grades a proposed change along four axes. The first three
// are banded low/medium/high; SemanticConsistency is the ratio of affected
// tokens governed by rules.
type RiskAssessment struct {
	BreakingChangeRisk  string  `json:"breaking_change_risk"`
	VisualImpact        string  `json:"visual_impact"`
	AccessibilityRisk   string  `json:"accessibility_risk"`
	SemanticConsistency float64 `json:"semantic_consistency"`
}

// CascadeImpactAnalysis is the full prediction for changing one token.
type CascadeImpactAnalysis struct {
	Success           bool              `json:"success"`
	Token             string            `json:"token"`
	Exists            bool              `json:"exists"`
	NewValue          string            `json:"new_value"`
	AffectedTokens    []TokenPrediction `json:"affected_tokens"`
	ImpactScore       float64           `json:"impact_score"`
	AverageConfidence float64           `json:"average_confidence"`
	Risk              RiskAssessment    `json:"risk"`
	Recommendations   []string          `json:"recommendations"`
	Confidence        float64           `json:"confidence"`
	ExecutionTimeMS   float64           `json:"execution_time_ms"`
}

// orEmpty keeps record slices JSON-friendly: [] instead of null.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
