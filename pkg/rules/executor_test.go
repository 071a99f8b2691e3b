package rules

import (
	"math"
	"reflect"
	"strings"
	"testing"
)

func dep(name, value string) Dependency {
	return Dependency{Name: name, Value: value, Confidence: 1.0, Resolved: true}
}

func execute(t *testing.T, ruleText string, deps ...Dependency) Result {
	t.Helper()
	e := NewDefaultExecutor()
	return e.Execute(Parse(ruleText), Input{Target: "--out", Dependencies: deps})
}

func confWithin(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected confidence %g, got %g", want, got)
	}
}

// TestExecute_ScaleRem tests the spacing scale scenario
func TestExecute_ScaleRem(t *testing.T) {
	res := execute(t, "scale:2", dep("--spacing-base", "1rem"))
	if res.Value != "2rem" {
		t.Errorf("Expected 2rem, got %q", res.Value)
	}
	confWithin(t, res.Confidence, 1.0)
}

// TestExecute_ScaleFractional tests fractional factors and px units
func TestExecute_ScaleFractional(t *testing.T) {
	res := execute(t, "scale:1.5", dep("--font-size-base", "16px"))
	if res.Value != "24px" {
		t.Errorf("Expected 24px, got %q", res.Value)
	}

	res = execute(t, "scale:0.5", dep("--spacing-base", "1rem"))
	if res.Value != "0.5rem" {
		t.Errorf("Expected 0.5rem, got %q", res.Value)
	}
}

// TestExecute_ScaleNonNumericBase tests the degraded path for unscalable
// values
func TestExecute_ScaleNonNumericBase(t *testing.T) {
	res := execute(t, "scale:2", dep("--color-primary", "#3b82f6"))
	if res.Value != "#3b82f6" {
		t.Errorf("Expected base value passthrough, got %q", res.Value)
	}
	confWithin(t, res.Confidence, 0.5)
	if !strings.Contains(res.Reasoning, "no numeric magnitude") {
		t.Errorf("Reasoning does not explain the degradation: %q", res.Reasoning)
	}
}

// TestExecute_StateGray tests an exact lightness shift on a grayscale base
func TestExecute_StateGray(t *testing.T) {
	// #808080 has HSL lightness 128/255; hover shifts it by -0.08
	res := execute(t, "state:hover", dep("--surface", "#808080"))
	if res.Value != "#6c6c6c" {
		t.Errorf("Expected #6c6c6c, got %q", res.Value)
	}
	confWithin(t, res.Confidence, 1.0)
}

// TestExecute_StateDirections tests that hover darkens and disabled lightens
func TestExecute_StateDirections(t *testing.T) {
	base := "#3b82f6"
	baseColor, _ := ParseColor(base)
	_, _, baseL := baseColor.HSL()

	hover := execute(t, "state:hover", dep("--color-primary", base))
	hoverColor, ok := ParseColor(hover.Value)
	if !ok {
		t.Fatalf("Hover result %q is not a color", hover.Value)
	}
	if _, _, l := hoverColor.HSL(); l >= baseL {
		t.Errorf("Hover did not darken: base %g, got %g", baseL, l)
	}

	disabled := execute(t, "state:disabled", dep("--color-primary", base))
	disabledColor, ok := ParseColor(disabled.Value)
	if !ok {
		t.Fatalf("Disabled result %q is not a color", disabled.Value)
	}
	if _, _, l := disabledColor.HSL(); l <= baseL {
		t.Errorf("Disabled did not lighten: base %g, got %g", baseL, l)
	}
}

// TestExecute_StateUnknownName tests the penalty for unconfigured states
func TestExecute_StateUnknownName(t *testing.T) {
	res := execute(t, "state:levitating", dep("--color-primary", "#3b82f6"))
	if res.Value != "#3b82f6" {
		t.Errorf("Expected unshifted color, got %q", res.Value)
	}
	confWithin(t, res.Confidence, 0.6)
}

// TestExecute_StateNonColorBase tests state rules on non-color values
func TestExecute_StateNonColorBase(t *testing.T) {
	res := execute(t, "state:hover", dep("--spacing-base", "1rem"))
	if res.Value != "1rem" {
		t.Errorf("Expected base passthrough, got %q", res.Value)
	}
	confWithin(t, res.Confidence, 0.5)
}

// TestExecute_ContrastHighOnWhite tests the well-known 4.5:1 gray boundary
func TestExecute_ContrastHighOnWhite(t *testing.T) {
	res := execute(t, "contrast:high", dep("--background", "#ffffff"))
	if res.Value != "#767676" {
		t.Errorf("Expected #767676, got %q", res.Value)
	}
	confWithin(t, res.Confidence, 1.0)

	derived, _ := ParseColor(res.Value)
	base, _ := ParseColor("#ffffff")
	if ratio := ContrastRatio(base, derived); ratio < 4.5 {
		t.Errorf("Derived color misses the 4.5:1 target: %g", ratio)
	}
}

// TestExecute_ContrastMaximumUnreachable tests the mid-gray dead zone
func TestExecute_ContrastMaximumUnreachable(t *testing.T) {
	// #808080 reaches at best ~5.3:1 against black, so 7:1 is impossible
	res := execute(t, "contrast:maximum", dep("--surface", "#808080"))
	if res.Value != "#000000" {
		t.Errorf("Expected the black pole, got %q", res.Value)
	}
	confWithin(t, res.Confidence, 0.8)
	if !strings.Contains(res.Reasoning, "unreachable") {
		t.Errorf("Reasoning does not mention unreachable target: %q", res.Reasoning)
	}
}

// TestExecute_ContrastUnknownLevel tests default target with penalty
func TestExecute_ContrastUnknownLevel(t *testing.T) {
	res := execute(t, "contrast:ultra", dep("--background", "#ffffff"))
	if res.Value != "#767676" {
		t.Errorf("Expected default 4.5:1 derivation, got %q", res.Value)
	}
	confWithin(t, res.Confidence, 0.9)
}

// TestExecute_CalcLayout tests the page layout scenario
func TestExecute_CalcLayout(t *testing.T) {
	res := execute(t, "calc({--page-width} - {--sidebar-width})",
		dep("--page-width", "1200px"), dep("--sidebar-width", "280px"))
	if res.Value != "920px" {
		t.Errorf("Expected 920px, got %q", res.Value)
	}
	confWithin(t, res.Confidence, 1.0)
}

// TestExecute_CalcPrecedence tests operator precedence and parentheses
func TestExecute_CalcPrecedence(t *testing.T) {
	res := execute(t, "calc({--a} + {--b} * 2)",
		dep("--a", "10px"), dep("--b", "20px"))
	if res.Value != "50px" {
		t.Errorf("Expected 50px, got %q", res.Value)
	}

	res = execute(t, "calc(({--a} + {--b}) * 2)",
		dep("--a", "10px"), dep("--b", "20px"))
	if res.Value != "60px" {
		t.Errorf("Expected 60px, got %q", res.Value)
	}

	res = execute(t, "calc(-{--a} + 14)", dep("--a", "4px"))
	if res.Value != "10px" {
		t.Errorf("Expected 10px, got %q", res.Value)
	}
}

// TestExecute_CalcDivisionByZero tests the degraded division path
func TestExecute_CalcDivisionByZero(t *testing.T) {
	res := execute(t, "calc({--a} / {--b})",
		dep("--a", "10px"), dep("--b", "0px"))
	if res.Value != "10px" {
		t.Errorf("Expected fallback to first dependency, got %q", res.Value)
	}
	confWithin(t, res.Confidence, 0.2)
	if !strings.Contains(res.Reasoning, "division by zero") {
		t.Errorf("Reasoning does not mention division by zero: %q", res.Reasoning)
	}
}

// TestExecute_CalcMissingReference tests proportional confidence loss plus
// the evaluation failure penalty
func TestExecute_CalcMissingReference(t *testing.T) {
	res := execute(t, "calc({--a} + {--b})",
		dep("--a", "10px"),
		Dependency{Name: "--b", Resolved: false})
	if res.Value != "10px" {
		t.Errorf("Expected fallback to resolved dependency, got %q", res.Value)
	}
	// 1/2 of the references resolved, then the evaluation failure penalty
	confWithin(t, res.Confidence, 0.5*0.2)
}

// TestExecute_MalformedRuleFloor tests the fixed floor for broken rule text
func TestExecute_MalformedRuleFloor(t *testing.T) {
	res := execute(t, "scale:huge", dep("--spacing-base", "1rem"))
	if res.Value != "1rem" {
		t.Errorf("Expected base passthrough, got %q", res.Value)
	}
	confWithin(t, res.Confidence, 0.25)
	if !strings.Contains(res.Reasoning, "malformed") {
		t.Errorf("Reasoning does not mention malformed rule: %q", res.Reasoning)
	}
}

// TestExecute_UnknownRuleFloor tests the fixed floor for structureless text
func TestExecute_UnknownRuleFloor(t *testing.T) {
	res := execute(t, "bigger", dep("--spacing-base", "1rem"))
	if res.Value != "1rem" {
		t.Errorf("Expected base passthrough, got %q", res.Value)
	}
	confWithin(t, res.Confidence, 0.3)
}

// TestExecute_OpaqueRuleFloor tests passthrough for unrecognized kinds
func TestExecute_OpaqueRuleFloor(t *testing.T) {
	res := execute(t, "filter:hue-rotate-90", dep("--color-primary", "#3b82f6"))
	if res.Value != "#3b82f6" {
		t.Errorf("Expected base passthrough, got %q", res.Value)
	}
	confWithin(t, res.Confidence, 0.3)
	if !strings.Contains(res.Reasoning, "filter") {
		t.Errorf("Reasoning does not name the unrecognized tag: %q", res.Reasoning)
	}
}

// TestExecute_LowConfidenceChain tests that shaky upstream values drag the
// result down proportionally
func TestExecute_LowConfidenceChain(t *testing.T) {
	shaky := Dependency{Name: "--spacing-base", Value: "1rem", Confidence: 0.35, Resolved: true}
	res := execute(t, "scale:2", shaky)
	if res.Value != "2rem" {
		t.Errorf("Expected 2rem, got %q", res.Value)
	}
	// 0.35 / 0.7 threshold
	confWithin(t, res.Confidence, 0.5)
}

// TestExecute_ConfidenceBounds tests that confidence stays in [0,1] across
// degradation combinations
func TestExecute_ConfidenceBounds(t *testing.T) {
	cases := []Result{
		execute(t, "scale:2"),
		execute(t, "calc({--a} / {--b})", Dependency{Name: "--a"}, Dependency{Name: "--b"}),
		execute(t, "state:hover", Dependency{Name: "--x", Value: "not-a-color", Confidence: 0.1, Resolved: true}),
		execute(t, "", dep("--a", "1rem")),
	}
	for i, res := range cases {
		if res.Confidence < 0 || res.Confidence > 1 {
			t.Errorf("Case %d: confidence %g out of bounds", i, res.Confidence)
		}
	}
}

// TestExecute_Deterministic tests that execution is a pure function
func TestExecute_Deterministic(t *testing.T) {
	e := NewDefaultExecutor()
	desc := Parse("calc(({--a} + {--b}) * 1.5)")
	in := Input{Target: "--out", Dependencies: []Dependency{dep("--a", "10px"), dep("--b", "6px")}}

	first := e.Execute(desc, in)
	for i := 0; i < 10; i++ {
		if next := e.Execute(desc, in); !reflect.DeepEqual(first, next) {
			t.Fatalf("Execution diverged on run %d: %+v != %+v", i, first, next)
		}
	}
}
