package intelligence

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/rafters-design/tokengraph/pkg/history"
	"github.com/rafters-design/tokengraph/pkg/rules"
	"github.com/rafters-design/tokengraph/pkg/store"
)

// TestExecuteRule_ScaleFromStoredDependency doubles a spacing step
func TestExecuteRule_ScaleFromStoredDependency(t *testing.T) {
	reg := store.NewRegistry()
	addToken(t, reg, "spacing-4", "1rem", "spacing")

	a := NewAnalyzer(reg)
	res := a.ExecuteRule("spacing-8", "scale:2", ExecutionContext{Dependencies: []string{"spacing-4"}})

	if !res.Success {
		t.Fatal("Expected execution to succeed")
	}
	if res.RuleKind != "scale" {
		t.Errorf("Expected rule kind scale, got %s", res.RuleKind)
	}
	if res.Value != "2rem" {
		t.Errorf("Expected 2rem, got %q", res.Value)
	}
	if res.Confidence != 1.0 {
		t.Errorf("Expected confidence 1.0, got %g", res.Confidence)
	}
	if len(res.Unresolved) != 0 {
		t.Errorf("Expected no unresolved dependencies, got %v", res.Unresolved)
	}
	if !strings.Contains(res.Reasoning, "scaled") {
		t.Errorf("Expected reasoning to describe the scaling, got %q", res.Reasoning)
	}
}

// TestExecuteRule_UsesDeclaredDependencies falls back to the stored rule edge
func TestExecuteRule_UsesDeclaredDependencies(t *testing.T) {
	reg := store.NewRegistry()
	addToken(t, reg, "spacing-4", "1rem", "spacing")
	addToken(t, reg, "spacing-8", "2rem", "spacing")
	addRule(t, reg, "spacing-8", "scale:2", "spacing-4")

	a := NewAnalyzer(reg)
	res := a.ExecuteRule("spacing-8", "scale:2", ExecutionContext{})

	if res.Value != "2rem" {
		t.Errorf("Expected the declared dependency to resolve, got %q", res.Value)
	}
	if res.Confidence != 1.0 {
		t.Errorf("Expected confidence 1.0, got %g", res.Confidence)
	}
}

// TestExecuteRule_OverridesSubstituteValues runs a what-if without mutating
func TestExecuteRule_OverridesSubstituteValues(t *testing.T) {
	reg := store.NewRegistry()
	addToken(t, reg, "spacing-4", "1rem", "spacing")

	a := NewAnalyzer(reg)
	res := a.ExecuteRule("spacing-8", "scale:2", ExecutionContext{
		Dependencies: []string{"spacing-4"},
		Overrides:    map[string]string{"spacing-4": "2rem"},
	})

	if res.Value != "4rem" {
		t.Errorf("Expected the override to feed the rule, got %q", res.Value)
	}

	if stored, _ := reg.ResolveValue("spacing-4"); stored != "1rem" {
		t.Errorf("Expected the stored value untouched, got %q", stored)
	}
}

// TestExecuteRule_UnresolvedDependencyDegrades reports what could not resolve
func TestExecuteRule_UnresolvedDependencyDegrades(t *testing.T) {
	a := NewAnalyzer(store.NewRegistry())

	res := a.ExecuteRule("mystery", "scale:3", ExecutionContext{Dependencies: []string{"missing"}})

	if !res.Success {
		t.Fatal("Expected execution to complete despite the missing dependency")
	}
	if res.Confidence != 0 {
		t.Errorf("Expected confidence 0 with nothing resolved, got %g", res.Confidence)
	}
	if len(res.Unresolved) != 1 || res.Unresolved[0] != "missing" {
		t.Errorf("Expected [missing] unresolved, got %v", res.Unresolved)
	}
	if !strings.Contains(res.Reasoning, "0 of 1 dependencies resolved") {
		t.Errorf("Expected reasoning to count resolution, got %q", res.Reasoning)
	}
}

// TestExecuteRule_UnknownKindFloor keeps batch runs alive on junk text
func TestExecuteRule_UnknownKindFloor(t *testing.T) {
	a := NewAnalyzer(store.NewRegistry())

	res := a.ExecuteRule("x", "no-colon-no-paren", ExecutionContext{})

	if !res.Success {
		t.Fatal("Expected execution to complete")
	}
	if res.RuleKind != "unknown" {
		t.Errorf("Expected rule kind unknown, got %s", res.RuleKind)
	}

	floor := a.Config().Rules.UnknownRuleFloor
	if res.Confidence != floor {
		t.Errorf("Expected the unknown-rule floor %g, got %g", floor, res.Confidence)
	}
	if !strings.Contains(res.Reasoning, "no recognized form") {
		t.Errorf("Expected reasoning to explain the floor, got %q", res.Reasoning)
	}
}

// TestExecuteRule_StateVariant shifts a color by the hover step
func TestExecuteRule_StateVariant(t *testing.T) {
	reg := store.NewRegistry()
	addToken(t, reg, "primary", "#3366cc", "color")

	a := NewAnalyzer(reg)
	res := a.ExecuteRule("primary-hover", "state:hover", ExecutionContext{Dependencies: []string{"primary"}})

	if res.Confidence != 1.0 {
		t.Errorf("Expected confidence 1.0, got %g", res.Confidence)
	}
	if len(res.Value) != 7 || res.Value[0] != '#' {
		t.Errorf("Expected a hex color, got %q", res.Value)
	}
	if res.Value == "#3366cc" {
		t.Error("Expected the hover variant to differ from the base")
	}
}

// TestExecuteRule_ContrastMeetsTarget verifies the derived ratio
func TestExecuteRule_ContrastMeetsTarget(t *testing.T) {
	reg := store.NewRegistry()
	addToken(t, reg, "surface", "#767676", "color")

	a := NewAnalyzer(reg)
	res := a.ExecuteRule("on-surface", "contrast:aa", ExecutionContext{Dependencies: []string{"surface"}})

	if res.Confidence != 1.0 {
		t.Fatalf("Expected confidence 1.0, got %g (%s)", res.Confidence, res.Reasoning)
	}

	base, ok := rules.ParseColor("#767676")
	if !ok {
		t.Fatal("test color failed to parse")
	}
	derived, ok := rules.ParseColor(res.Value)
	if !ok {
		t.Fatalf("Expected a parseable color, got %q", res.Value)
	}
	if ratio := rules.ContrastRatio(base, derived); ratio < 4.5 {
		t.Errorf("Expected at least 4.5:1 contrast, got %.2f (%s)", ratio, res.Value)
	}
}

// TestExecuteRule_CalcExpression sums two spacing tokens
func TestExecuteRule_CalcExpression(t *testing.T) {
	reg := store.NewRegistry()
	addToken(t, reg, "sp2", "2px", "spacing")
	addToken(t, reg, "sp4", "4px", "spacing")

	a := NewAnalyzer(reg)
	res := a.ExecuteRule("gap", "calc({sp2} + {sp4})", ExecutionContext{})

	if res.Value != "6px" {
		t.Errorf("Expected 6px, got %q", res.Value)
	}
	if res.Confidence != 1.0 {
		t.Errorf("Expected confidence 1.0, got %g", res.Confidence)
	}
	if res.RuleKind != "calc" {
		t.Errorf("Expected rule kind calc, got %s", res.RuleKind)
	}
}

// TestExecuteRule_Deterministic repeats a run and compares byte for byte
func TestExecuteRule_Deterministic(t *testing.T) {
	reg := store.NewRegistry()
	addToken(t, reg, "primary", "#3366cc", "color")

	a := NewAnalyzer(reg)
	first := a.ExecuteRule("primary-hover", "state:hover", ExecutionContext{Dependencies: []string{"primary"}})
	second := a.ExecuteRule("primary-hover", "state:hover", ExecutionContext{Dependencies: []string{"primary"}})

	if first.Value != second.Value {
		t.Errorf("Expected identical values, got %q then %q", first.Value, second.Value)
	}
	if first.Confidence != second.Confidence {
		t.Errorf("Expected identical confidence, got %g then %g", first.Confidence, second.Confidence)
	}
	if first.Reasoning != second.Reasoning {
		t.Errorf("Expected identical reasoning, got %q then %q", first.Reasoning, second.Reasoning)
	}
}

// TestExecuteRule_RecordsHistory appends to an attached prediction log
func TestExecuteRule_RecordsHistory(t *testing.T) {
	reg := store.NewRegistry()
	addToken(t, reg, "spacing-4", "1rem", "spacing")

	a := NewAnalyzer(reg)
	log := history.NewLog(10)
	a.SetHistory(log)

	res := a.ExecuteRule("spacing-8", "scale:2", ExecutionContext{Dependencies: []string{"spacing-4"}})

	entries, err := log.Entries(nil)
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected one log entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Service != history.ServiceRuleExecution {
		t.Errorf("Expected service %s, got %s", history.ServiceRuleExecution, entry.Service)
	}
	if entry.TokenName != "spacing-8" {
		t.Errorf("Expected token spacing-8, got %s", entry.TokenName)
	}
	if entry.NewValue != "2rem" {
		t.Errorf("Expected recorded value 2rem, got %q", entry.NewValue)
	}
	if entry.Confidence != res.Confidence {
		t.Errorf("Expected confidence %g, got %g", res.Confidence, entry.Confidence)
	}

	var payload RuleExecutionResult
	if err := json.Unmarshal(entry.Prediction, &payload); err != nil {
		t.Fatalf("Prediction payload failed to unmarshal: %v", err)
	}
	if payload.Token != "spacing-8" || payload.Value != "2rem" {
		t.Errorf("Expected the payload to carry the result, got %+v", payload)
	}
}
