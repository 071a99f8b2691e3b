package rules

import (
	"fmt"
	"strings"
)

// ExecutorParams holds the calibration constants of rule execution. All of
// them are plain YAML-taggable values so deployments can tune confidence
// scoring against their recorded prediction accuracy.
type ExecutorParams struct {
	// LowConfidenceThreshold marks the upstream confidence below which a
	// chained dependency starts dragging down the derived result.
	LowConfidenceThreshold float64 `yaml:"low_confidence_threshold"`

	// Fixed confidence floors.
	UnknownRuleFloor   float64 `yaml:"unknown_rule_floor"`
	MalformedRuleFloor float64 `yaml:"malformed_rule_floor"`

	// Penalty multipliers applied on degraded paths.
	BaseMismatchPenalty        float64 `yaml:"base_mismatch_penalty"`
	UnknownStatePenalty        float64 `yaml:"unknown_state_penalty"`
	UnknownLevelPenalty        float64 `yaml:"unknown_level_penalty"`
	UnreachableContrastPenalty float64 `yaml:"unreachable_contrast_penalty"`
	EvalFailurePenalty         float64 `yaml:"eval_failure_penalty"`

	// StateSteps maps interaction state names to HSL lightness deltas.
	StateSteps map[string]float64 `yaml:"state_steps"`

	// ContrastTargets maps level names to WCAG contrast ratios.
	ContrastTargets       map[string]float64 `yaml:"contrast_targets"`
	DefaultContrastTarget float64            `yaml:"default_contrast_target"`
}

// DefaultExecutorParams returns the stock calibration.
func DefaultExecutorParams() ExecutorParams {
	return ExecutorParams{
		LowConfidenceThreshold:     0.7,
		UnknownRuleFloor:           0.3,
		MalformedRuleFloor:         0.25,
		BaseMismatchPenalty:        0.5,
		UnknownStatePenalty:        0.6,
		UnknownLevelPenalty:        0.9,
		UnreachableContrastPenalty: 0.8,
		EvalFailurePenalty:         0.2,
		StateSteps: map[string]float64{
			"hover":    -0.08,
			"active":   -0.12,
			"pressed":  -0.12,
			"focus":    -0.04,
			"disabled": 0.24,
		},
		ContrastTargets: map[string]float64{
			"low":     3.0,
			"high":    4.5,
			"aa":      4.5,
			"maximum": 7.0,
			"aaa":     7.0,
		},
		DefaultContrastTarget: 4.5,
	}
}

// Dependency is one resolved input to a rule execution. Confidence carries
// the upstream result's confidence when the value was itself derived; stored
// values resolve at 1.0.
type Dependency struct {
	Name       string
	Value      string
	Confidence float64
	Resolved   bool
}

// Input bundles everything an execution needs besides the descriptor.
type Input struct {
	Target       string
	Dependencies []Dependency
}

// Result is the outcome of executing one rule. Execution never fails;
// degraded paths surface through Confidence and Reasoning.
type Result struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Executor derives token values from descriptors. It is stateless apart
// from its calibration and safe for concurrent use.
type Executor struct {
	params ExecutorParams
}

// NewExecutor creates an executor with the given calibration.
func NewExecutor(params ExecutorParams) *Executor {
	return &Executor{params: params}
}

// NewDefaultExecutor creates an executor with stock calibration.
func NewDefaultExecutor() *Executor {
	return NewExecutor(DefaultExecutorParams())
}

// Execute derives a value for the input from the descriptor. The same
// descriptor and input always produce the same result.
func (e *Executor) Execute(desc Descriptor, in Input) Result {
	var notes []string
	conf := 1.0

	resolved := resolvedDependencies(in.Dependencies)

	if required := desc.RequiredDependencies(); required > 0 && len(resolved) < required {
		conf *= float64(len(resolved)) / float64(required)
		notes = append(notes, fmt.Sprintf("%d of %d dependencies resolved", len(resolved), required))
	}

	if factor := e.chainFactor(resolved); factor < 1 {
		conf *= factor
		notes = append(notes, "a dependency was derived at low confidence, which lowers this result")
	}

	// Structureless text gets the unknown floor; a recognized kind with
	// broken arguments gets the malformed floor. Both degrade, neither
	// fails.
	if desc.Kind == KindUnknown {
		value := fallbackValue(desc, resolved)
		notes = append(notes, fmt.Sprintf("rule %q has no recognized form; passed base value through", desc.Raw))
		return Result{Value: value, Confidence: clamp01(e.params.UnknownRuleFloor), Reasoning: strings.Join(notes, "; ")}
	}
	if !desc.WellFormed() {
		value := fallbackValue(desc, resolved)
		notes = append(notes, desc.Issues...)
		notes = append(notes, fmt.Sprintf("rule %q is malformed; kept %q", desc.Raw, value))
		return Result{Value: value, Confidence: clamp01(e.params.MalformedRuleFloor), Reasoning: strings.Join(notes, "; ")}
	}

	var value string
	switch desc.Kind {
	case KindScale:
		value, conf = e.executeScale(desc, resolved, conf, &notes)
	case KindState:
		value, conf = e.executeState(desc, resolved, conf, &notes)
	case KindContrast:
		value, conf = e.executeContrast(desc, resolved, conf, &notes)
	case KindCalc:
		value, conf = e.executeCalc(desc, resolved, conf, &notes)
	default:
		value = fallbackValue(desc, resolved)
		conf = e.params.UnknownRuleFloor
		notes = append(notes, fmt.Sprintf("rule kind %q is not recognized; passed base value through", desc.Tag))
	}

	if len(in.Dependencies) > desc.RequiredDependencies() && desc.Kind != KindCalc && desc.Kind != KindOpaque {
		notes = append(notes, fmt.Sprintf("ignored %d extra dependencies", len(in.Dependencies)-desc.RequiredDependencies()))
	}

	return Result{Value: value, Confidence: clamp01(conf), Reasoning: strings.Join(notes, "; ")}
}

func resolvedDependencies(deps []Dependency) []Dependency {
	out := make([]Dependency, 0, len(deps))
	for _, d := range deps {
		if d.Resolved {
			out = append(out, d)
		}
	}
	return out
}

// chainFactor returns the multiplier contributed by low-confidence upstream
// values. The worst dependency governs.
func (e *Executor) chainFactor(resolved []Dependency) float64 {
	worst := 1.0
	for _, d := range resolved {
		if d.Confidence < e.params.LowConfidenceThreshold {
			factor := d.Confidence / e.params.LowConfidenceThreshold
			if factor < worst {
				worst = factor
			}
		}
	}
	return worst
}

// fallbackValue picks what a degraded execution hands back: the base
// dependency's value when one resolved, otherwise the raw rule text.
func fallbackValue(desc Descriptor, resolved []Dependency) string {
	if len(resolved) > 0 {
		return resolved[0].Value
	}
	return desc.Raw
}

func (e *Executor) executeScale(desc Descriptor, resolved []Dependency, conf float64, notes *[]string) (string, float64) {
	if len(resolved) == 0 {
		*notes = append(*notes, "no base value available to scale")
		return desc.Raw, conf
	}
	base := resolved[0]

	m, ok := ParseMagnitude(base.Value)
	if !ok {
		conf *= e.params.BaseMismatchPenalty
		*notes = append(*notes, fmt.Sprintf("base value %q of %s has no numeric magnitude; kept it unchanged", base.Value, base.Name))
		return base.Value, conf
	}

	scaled := Magnitude{Value: m.Value * desc.Factor, Unit: m.Unit}
	*notes = append(*notes, fmt.Sprintf("scaled %s (%s) by factor %g", base.Name, base.Value, desc.Factor))
	return scaled.Format(), conf
}

func (e *Executor) executeState(desc Descriptor, resolved []Dependency, conf float64, notes *[]string) (string, float64) {
	if len(resolved) == 0 {
		*notes = append(*notes, "no base color available for state variant")
		return desc.Raw, conf
	}
	base := resolved[0]

	color, ok := ParseColor(base.Value)
	if !ok {
		conf *= e.params.BaseMismatchPenalty
		*notes = append(*notes, fmt.Sprintf("base value %q of %s is not a color; kept it unchanged", base.Value, base.Name))
		return base.Value, conf
	}

	delta, known := e.params.StateSteps[desc.State]
	if !known {
		conf *= e.params.UnknownStatePenalty
		*notes = append(*notes, fmt.Sprintf("state %q has no configured lightness step; color left unshifted", desc.State))
		return color.Hex(), conf
	}

	shifted := ShiftLightness(color, delta)
	*notes = append(*notes, fmt.Sprintf("applied %s state to %s (%s), lightness %+.0f%%", desc.State, base.Name, base.Value, delta*100))
	return shifted.Hex(), conf
}

func (e *Executor) executeContrast(desc Descriptor, resolved []Dependency, conf float64, notes *[]string) (string, float64) {
	if len(resolved) == 0 {
		*notes = append(*notes, "no base color available for contrast derivation")
		return desc.Raw, conf
	}
	base := resolved[0]

	color, ok := ParseColor(base.Value)
	if !ok {
		conf *= e.params.BaseMismatchPenalty
		*notes = append(*notes, fmt.Sprintf("base value %q of %s is not a color; kept it unchanged", base.Value, base.Name))
		return base.Value, conf
	}

	target, known := e.params.ContrastTargets[desc.Level]
	if !known {
		target = e.params.DefaultContrastTarget
		conf *= e.params.UnknownLevelPenalty
		*notes = append(*notes, fmt.Sprintf("contrast level %q is not configured; using default target %.1f:1", desc.Level, target))
	}

	derived, achieved, met := DeriveContrast(color, target)
	if !met {
		conf *= e.params.UnreachableContrastPenalty
		*notes = append(*notes, fmt.Sprintf("target %.1f:1 is unreachable from %s; best achievable is %.2f:1", target, base.Value, achieved))
		return derived.Hex(), conf
	}

	*notes = append(*notes, fmt.Sprintf("derived %.2f:1 contrast against %s (%s), target %.1f:1", achieved, base.Name, base.Value, target))
	return derived.Hex(), conf
}

func (e *Executor) executeCalc(desc Descriptor, resolved []Dependency, conf float64, notes *[]string) (string, float64) {
	env := make(map[string]float64, len(resolved))
	unit := ""
	for _, d := range resolved {
		m, ok := ParseMagnitude(d.Value)
		if !ok {
			*notes = append(*notes, fmt.Sprintf("reference {%s} has value %q with no numeric magnitude", d.Name, d.Value))
			continue
		}
		env[d.Name] = m.Value
		if unit == "" {
			unit = m.Unit
		}
	}

	result, err := desc.expr.eval(env)
	if err != nil {
		conf *= e.params.EvalFailurePenalty
		value := fallbackValue(desc, resolved)
		*notes = append(*notes, fmt.Sprintf("calc(%s) failed: %v; fell back to %q", desc.Expression, err, value))
		return value, conf
	}

	value := Magnitude{Value: result, Unit: unit}.Format()
	*notes = append(*notes, fmt.Sprintf("evaluated calc(%s) over %d references", desc.Expression, len(desc.References)))
	return value, conf
}
