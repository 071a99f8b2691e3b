package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rafters-design/tokengraph/pkg/rules"
	"github.com/rafters-design/tokengraph/pkg/validation"
)

// Engine collects every tunable the analysis engine reads. Nothing in the
// engine hard-codes a threshold; deployments calibrate this file against
// their recorded prediction accuracy and reload.
type Engine struct {
	Traversal   Traversal            `yaml:"traversal"`
	Rules       rules.ExecutorParams `yaml:"rules"`
	Confidence  Confidence           `yaml:"confidence"`
	Complexity  Complexity           `yaml:"complexity"`
	Performance Performance          `yaml:"performance"`
	Bottlenecks Bottlenecks          `yaml:"bottlenecks"`
	Risk        Risk                 `yaml:"risk"`
	History     History              `yaml:"history"`
}

// Traversal bounds graph walks.
type Traversal struct {
	// MaxDepth is the default hop bound for cascade and dependency
	// traversals when a request does not specify one.
	MaxDepth int `yaml:"max_depth"`
}

// Confidence holds analyzer-level floors; execution-level scoring lives
// under rules.
type Confidence struct {
	// ManualTokenFloor scores cascade predictions for tokens that have no
	// rule and must be updated by hand.
	ManualTokenFloor float64 `yaml:"manual_token_floor"`
	// AbsentTokenFloor scores analyses of token names not in the registry.
	AbsentTokenFloor float64 `yaml:"absent_token_floor"`
}

// Complexity weights the dependency complexity score.
type Complexity struct {
	DirectWeight   float64            `yaml:"direct_weight"`
	IndirectWeight float64            `yaml:"indirect_weight"`
	KindWeights    map[string]float64 `yaml:"kind_weights"`
}

// Performance drives the linear pre-flight cost estimate for a change set.
type Performance struct {
	MillisPerChange        float64 `yaml:"millis_per_change"`
	MillisPerDependency    float64 `yaml:"millis_per_dependency"`
	MillisPerRuleExecution float64 `yaml:"millis_per_rule_execution"`
	MediumThresholdMillis  float64 `yaml:"medium_threshold_millis"`
	HighThresholdMillis    float64 `yaml:"high_threshold_millis"`
}

// Bottlenecks sets the structural warning thresholds.
type Bottlenecks struct {
	// DependentFanout flags tokens with more direct dependents than this.
	DependentFanout int `yaml:"dependent_fanout"`
	// RuleTextLength flags rules longer than this many characters.
	RuleTextLength int `yaml:"rule_text_length"`
	// CalcReferenceLimit flags calc rules reading more tokens than this.
	CalcReferenceLimit int `yaml:"calc_reference_limit"`
}

// Risk shapes the cascade impact assessment.
type Risk struct {
	// ScopeSaturation is the affected-token count treated as full blast
	// radius when scoring impact.
	ScopeSaturation  float64 `yaml:"scope_saturation"`
	ScopeWeight      float64 `yaml:"scope_weight"`
	ConfidenceWeight float64 `yaml:"confidence_weight"`
	// HighImpactScopeSize triggers the blast-radius recommendation.
	HighImpactScopeSize int `yaml:"high_impact_scope_size"`
	// BreakingChangeConfidence marks a prediction as a breaking-change
	// candidate when it scores below this.
	BreakingChangeConfidence float64 `yaml:"breaking_change_confidence"`
	// AccessibilityHints are name fragments that raise accessibility risk.
	AccessibilityHints []string `yaml:"accessibility_hints"`
	// FoundationalHints are name fragments that mark base-of-system tokens.
	FoundationalHints []string `yaml:"foundational_hints"`
}

// History configures the prediction log.
type History struct {
	BufferSize int `yaml:"buffer_size"`
}

// Default returns the stock calibration.
func Default() Engine {
	return Engine{
		Traversal: Traversal{MaxDepth: 5},
		Rules:     rules.DefaultExecutorParams(),
		Confidence: Confidence{
			ManualTokenFloor: 0.4,
			AbsentTokenFloor: 0.35,
		},
		Complexity: Complexity{
			DirectWeight:   2.0,
			IndirectWeight: 1.0,
			KindWeights: map[string]float64{
				"calc":     5,
				"contrast": 4,
				"scale":    3,
				"state":    3,
				"opaque":   1,
				"unknown":  1,
			},
		},
		Performance: Performance{
			MillisPerChange:        0.5,
			MillisPerDependency:    0.1,
			MillisPerRuleExecution: 0.8,
			MediumThresholdMillis:  50,
			HighThresholdMillis:    200,
		},
		Bottlenecks: Bottlenecks{
			DependentFanout:    10,
			RuleTextLength:     120,
			CalcReferenceLimit: 5,
		},
		Risk: Risk{
			ScopeSaturation:          20,
			ScopeWeight:              0.6,
			ConfidenceWeight:         0.4,
			HighImpactScopeSize:      10,
			BreakingChangeConfidence: 0.5,
			AccessibilityHints:       []string{"color", "contrast", "text", "bg", "background", "foreground"},
			FoundationalHints:        []string{"primary", "base", "core", "default", "brand"},
		},
		History: History{BufferSize: 1000},
	}
}

// Load reads a YAML calibration file over the defaults, so partial files
// only override what they name.
func Load(path string) (Engine, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate bounds-checks the calibration.
func (e *Engine) Validate() error {
	cv := validation.NewConfigValidator("engine")

	cv.MinInt("traversal.max_depth", e.Traversal.MaxDepth, 1)

	cv.UnitInterval("confidence.manual_token_floor", e.Confidence.ManualTokenFloor).
		UnitInterval("confidence.absent_token_floor", e.Confidence.AbsentTokenFloor).
		UnitInterval("risk.scope_weight", e.Risk.ScopeWeight).
		UnitInterval("risk.confidence_weight", e.Risk.ConfidenceWeight).
		UnitInterval("risk.breaking_change_confidence", e.Risk.BreakingChangeConfidence).
		UnitInterval("rules.low_confidence_threshold", e.Rules.LowConfidenceThreshold).
		UnitInterval("rules.unknown_rule_floor", e.Rules.UnknownRuleFloor).
		UnitInterval("rules.malformed_rule_floor", e.Rules.MalformedRuleFloor)

	cv.NonNegativeFloat("complexity.direct_weight", e.Complexity.DirectWeight).
		NonNegativeFloat("complexity.indirect_weight", e.Complexity.IndirectWeight)
	cv.PositiveFloat("risk.scope_saturation", e.Risk.ScopeSaturation)
	cv.NonNegative("history.buffer_size", e.History.BufferSize)

	return cv.Validate()
}
