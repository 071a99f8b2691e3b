package rules

import (
	"reflect"
	"testing"
)

// TestParse_Scale tests the scale:N form
func TestParse_Scale(t *testing.T) {
	d := Parse("scale:2")
	if d.Kind != KindScale {
		t.Fatalf("Expected KindScale, got %s", d.Kind)
	}
	if d.Factor != 2 {
		t.Errorf("Expected factor 2, got %g", d.Factor)
	}
	if !d.WellFormed() {
		t.Errorf("Expected well-formed descriptor, got issues %v", d.Issues)
	}

	d = Parse("scale:1.5")
	if d.Factor != 1.5 {
		t.Errorf("Expected factor 1.5, got %g", d.Factor)
	}
}

// TestParse_ScaleNonNumeric tests that bad factors degrade instead of failing
func TestParse_ScaleNonNumeric(t *testing.T) {
	d := Parse("scale:huge")
	if d.Kind != KindScale {
		t.Errorf("Expected KindScale, got %s", d.Kind)
	}
	if d.WellFormed() {
		t.Error("Expected issues for non-numeric factor")
	}

	d = Parse("scale:")
	if d.WellFormed() {
		t.Error("Expected issues for missing factor")
	}
}

// TestParse_State tests the state:name form
func TestParse_State(t *testing.T) {
	d := Parse("state:hover")
	if d.Kind != KindState {
		t.Fatalf("Expected KindState, got %s", d.Kind)
	}
	if d.State != "hover" {
		t.Errorf("Expected state hover, got %q", d.State)
	}

	// Kind tags and state names are case-insensitive
	d = Parse("State:HOVER")
	if d.Kind != KindState || d.State != "hover" {
		t.Errorf("Expected lowercased state, got %s/%q", d.Kind, d.State)
	}
}

// TestParse_Contrast tests the contrast:level form
func TestParse_Contrast(t *testing.T) {
	d := Parse("contrast:high")
	if d.Kind != KindContrast {
		t.Fatalf("Expected KindContrast, got %s", d.Kind)
	}
	if d.Level != "high" {
		t.Errorf("Expected level high, got %q", d.Level)
	}
}

// TestParse_Calc tests reference extraction from calc expressions
func TestParse_Calc(t *testing.T) {
	d := Parse("calc({--page-width} - {--sidebar-width} - {--page-width})")
	if d.Kind != KindCalc {
		t.Fatalf("Expected KindCalc, got %s", d.Kind)
	}
	if !d.WellFormed() {
		t.Fatalf("Expected well-formed calc, got issues %v", d.Issues)
	}

	// First appearance order, duplicates collapsed
	want := []string{"--page-width", "--sidebar-width"}
	if !reflect.DeepEqual(d.References, want) {
		t.Errorf("Expected references %v, got %v", want, d.References)
	}
	if d.RequiredDependencies() != 2 {
		t.Errorf("Expected 2 required dependencies, got %d", d.RequiredDependencies())
	}
}

// TestParse_CalcBroken tests issue collection on malformed expressions
func TestParse_CalcBroken(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"unterminated call", "calc({--a} + 2"},
		{"empty body", "calc()"},
		{"unterminated reference", "calc({--a + 2)"},
		{"dangling operator", "calc({--a} +)"},
		{"stray character", "calc({--a} $ 2)"},
	}
	for _, tc := range cases {
		d := Parse(tc.text)
		if d.Kind != KindCalc {
			t.Errorf("%s: expected KindCalc, got %s", tc.name, d.Kind)
		}
		if d.WellFormed() {
			t.Errorf("%s: expected issues for %q", tc.name, tc.text)
		}
	}
}

// TestParse_CalcBrokenStillCollectsReferences tests that validation can see
// references even when the expression cannot be evaluated
func TestParse_CalcBrokenStillCollectsReferences(t *testing.T) {
	d := Parse("calc({--a} + {--b} +)")
	want := []string{"--a", "--b"}
	if !reflect.DeepEqual(d.References, want) {
		t.Errorf("Expected references %v, got %v", want, d.References)
	}
}

// TestParse_Opaque tests plausible-but-unrecognized rule text
func TestParse_Opaque(t *testing.T) {
	d := Parse("filter:hue-rotate-90")
	if d.Kind != KindOpaque {
		t.Fatalf("Expected KindOpaque, got %s", d.Kind)
	}
	if d.Tag != "filter" {
		t.Errorf("Expected tag filter, got %q", d.Tag)
	}
	if !d.WellFormed() {
		t.Errorf("Opaque rules are not malformed, got issues %v", d.Issues)
	}

	d = Parse("mix(red, blue)")
	if d.Kind != KindOpaque || d.Tag != "mix" {
		t.Errorf("Expected opaque mix, got %s/%q", d.Kind, d.Tag)
	}
}

// TestParse_Unknown tests structureless rule text
func TestParse_Unknown(t *testing.T) {
	for _, text := range []string{"bigger", "", "   "} {
		d := Parse(text)
		if d.Kind != KindUnknown {
			t.Errorf("Parse(%q): expected KindUnknown, got %s", text, d.Kind)
		}
		if d.WellFormed() {
			t.Errorf("Parse(%q): expected issues", text)
		}
	}
}

// TestParse_Deterministic tests that parsing is a pure function
func TestParse_Deterministic(t *testing.T) {
	texts := []string{
		"scale:2",
		"state:hover",
		"contrast:aaa",
		"calc(({--a} + {--b}) * 2 - {--c} / 4)",
		"gradient:radial",
		"nonsense",
	}
	for _, text := range texts {
		a, b := Parse(text), Parse(text)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Parse(%q) is not deterministic", text)
		}
	}
}

// TestKindString tests kind wire names
func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindScale:    "scale",
		KindState:    "state",
		KindContrast: "contrast",
		KindCalc:     "calc",
		KindOpaque:   "opaque",
		KindUnknown:  "unknown",
	}
	for kind, want := range cases {
		if kind.String() != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, kind.String(), want)
		}
	}
}
