package rules

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Rule texts span every kind plus malformed and structureless cases, so
// generated executions hit the degraded paths as often as the clean ones.
var propRuleTexts = []string{
	"scale:2",
	"scale:0.5",
	"scale:1.25",
	"scale:-1",
	"scale:abc",
	"scale:",
	"state:hover",
	"state:active",
	"state:made-up",
	"contrast:aa",
	"contrast:ultra",
	"calc({--base} * 2)",
	"calc({--base} + {--gap})",
	"calc({--base} / 0)",
	"calc({--base} * ",
	"linear-gradient(90deg, {--base}, #fff)",
	"",
	"???not-a-rule???",
}

var propDepValues = []string{
	"1rem",
	"0.25rem",
	"16px",
	"120%",
	"#3366FF",
	"#000000",
	"not-a-value",
	"",
}

// propDependency maps generated ints onto a dependency. Confidence lands in
// [0,1] in 0.25 steps and every fourth dependency is unresolved.
func propDependency(name string, valueIdx, confStep, resolvedBit int) Dependency {
	return Dependency{
		Name:       name,
		Value:      propDepValues[abs(valueIdx)%len(propDepValues)],
		Confidence: float64(abs(confStep)%5) / 4,
		Resolved:   resolvedBit%4 != 0,
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// TestExecutorInvariants verifies properties that must hold for every
// descriptor and input combination
func TestExecutorInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)
	executor := NewDefaultExecutor()

	// Property 1: Confidence is always a valid probability
	properties.Property("confidence stays within [0,1]", prop.ForAll(
		func(ruleIdx, v1, c1, r1, v2, c2, r2 int) bool {
			desc := Parse(propRuleTexts[ruleIdx%len(propRuleTexts)])
			in := Input{
				Target: "--t",
				Dependencies: []Dependency{
					propDependency("--base", v1, c1, r1),
					propDependency("--gap", v2, c2, r2),
				},
			}
			result := executor.Execute(desc, in)
			return result.Confidence >= 0 && result.Confidence <= 1
		},
		gen.IntRange(0, 1000),
		gen.IntRange(0, 100), gen.IntRange(0, 100), gen.IntRange(0, 100),
		gen.IntRange(0, 100), gen.IntRange(0, 100), gen.IntRange(0, 100),
	))

	// Property 2: The same descriptor and input always produce the same
	// result
	properties.Property("execution is deterministic", prop.ForAll(
		func(ruleIdx, v1, c1, r1 int) bool {
			desc := Parse(propRuleTexts[ruleIdx%len(propRuleTexts)])
			in := Input{
				Target:       "--t",
				Dependencies: []Dependency{propDependency("--base", v1, c1, r1)},
			}
			first := executor.Execute(desc, in)
			second := executor.Execute(desc, in)
			return reflect.DeepEqual(first, second)
		},
		gen.IntRange(0, 1000),
		gen.IntRange(0, 100), gen.IntRange(0, 100), gen.IntRange(0, 100),
	))

	// Property 3: A clean scale execution is exact magnitude arithmetic at
	// full confidence
	properties.Property("scale multiplies magnitudes at confidence 1", prop.ForAll(
		func(factorIdx, baseIdx int) bool {
			factors := []float64{0.5, 1, 1.25, 2, 4}
			bases := []Magnitude{
				{Value: 0.25, Unit: "rem"},
				{Value: 1, Unit: "rem"},
				{Value: 16, Unit: "px"},
			}
			factor := factors[abs(factorIdx)%len(factors)]
			base := bases[abs(baseIdx)%len(bases)]

			desc := Parse(fmt.Sprintf("scale:%g", factor))
			in := Input{
				Target: "--t",
				Dependencies: []Dependency{
					{Name: "--base", Value: base.Format(), Confidence: 1, Resolved: true},
				},
			}
			result := executor.Execute(desc, in)

			want := Magnitude{Value: base.Value * factor, Unit: base.Unit}.Format()
			return result.Value == want && result.Confidence == 1
		},
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

// TestParseInvariants verifies that descriptor parsing is total and pure
func TestParseInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	knownKinds := map[Kind]bool{
		KindUnknown:  true,
		KindScale:    true,
		KindState:    true,
		KindContrast: true,
		KindCalc:     true,
		KindOpaque:   true,
	}

	// Property 1: Any string parses to a classified descriptor
	properties.Property("parse is total and classifies every input", prop.ForAll(
		func(text string) bool {
			desc := Parse(text)
			return knownKinds[desc.Kind]
		},
		gen.AnyString(),
	))

	// Property 2: Parsing has no hidden state
	properties.Property("parse is pure", prop.ForAll(
		func(text string) bool {
			return reflect.DeepEqual(Parse(text), Parse(text))
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// TestMagnitudeInvariants verifies the parse/format pair
func TestMagnitudeInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	units := []string{"", "rem", "em", "px", "%", "vh"}

	// Property 1: Formatting then parsing recovers the rounded magnitude
	properties.Property("format then parse round-trips", prop.ForAll(
		func(value float64, unitIdx int) bool {
			m := Magnitude{Value: value, Unit: units[abs(unitIdx)%len(units)]}

			parsed, ok := ParseMagnitude(m.Format())
			if !ok {
				return false
			}
			rounded := math.Round(value*10000) / 10000
			return parsed.Value == rounded && parsed.Unit == m.Unit
		},
		gen.Float64Range(-1e6, 1e6),
		gen.IntRange(0, 100),
	))

	// Property 2: Formatting is idempotent across a round-trip
	properties.Property("format is stable", prop.ForAll(
		func(value float64, unitIdx int) bool {
			m := Magnitude{Value: value, Unit: units[abs(unitIdx)%len(units)]}

			once := m.Format()
			parsed, ok := ParseMagnitude(once)
			return ok && parsed.Format() == once
		},
		gen.Float64Range(-1e6, 1e6),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
