package rules

import (
	"math"
	"testing"
)

// TestParseColor tests the supported color forms
func TestParseColor(t *testing.T) {
	cases := []struct {
		raw  string
		want RGB
		ok   bool
	}{
		{"#3b82f6", RGB{0x3b, 0x82, 0xf6}, true},
		{"#FFF", RGB{255, 255, 255}, true},
		{"#000000", RGB{0, 0, 0}, true},
		{"rgb(59, 130, 246)", RGB{59, 130, 246}, true},
		{"  #3b82f6  ", RGB{0x3b, 0x82, 0xf6}, true},
		{"#3b82f", RGB{}, false},
		{"rgb(300, 0, 0)", RGB{}, false},
		{"rgb(1, 2)", RGB{}, false},
		{"1rem", RGB{}, false},
		{"blue", RGB{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseColor(tc.raw)
		if ok != tc.ok {
			t.Errorf("ParseColor(%q): ok = %v, want %v", tc.raw, ok, tc.ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("ParseColor(%q) = %+v, want %+v", tc.raw, got, tc.want)
		}
	}
}

// TestHex tests lowercase hex rendering
func TestHex(t *testing.T) {
	if got := (RGB{0x3b, 0x82, 0xf6}).Hex(); got != "#3b82f6" {
		t.Errorf("Hex() = %q, want #3b82f6", got)
	}
	if got := (RGB{0, 0, 0}).Hex(); got != "#000000" {
		t.Errorf("Hex() = %q, want #000000", got)
	}
}

// TestHSLRoundTrip tests exact conversion on primaries and grays
func TestHSLRoundTrip(t *testing.T) {
	colors := []RGB{
		{255, 0, 0},
		{0, 255, 0},
		{0, 0, 255},
		{255, 255, 255},
		{0, 0, 0},
		{128, 128, 128},
	}
	for _, c := range colors {
		h, s, l := c.HSL()
		back := HSLToRGB(h, s, l)
		if back != c {
			t.Errorf("Round trip of %+v via HSL(%g,%g,%g) gave %+v", c, h, s, l, back)
		}
	}
}

// TestRelativeLuminance tests the WCAG reference points
func TestRelativeLuminance(t *testing.T) {
	if lum := RelativeLuminance(RGB{255, 255, 255}); math.Abs(lum-1.0) > 1e-6 {
		t.Errorf("White luminance = %g, want 1.0", lum)
	}
	if lum := RelativeLuminance(RGB{0, 0, 0}); lum != 0 {
		t.Errorf("Black luminance = %g, want 0", lum)
	}
}

// TestContrastRatio tests the extremes and symmetry
func TestContrastRatio(t *testing.T) {
	black, white := RGB{0, 0, 0}, RGB{255, 255, 255}

	if ratio := ContrastRatio(black, white); math.Abs(ratio-21) > 1e-6 {
		t.Errorf("Black/white ratio = %g, want 21", ratio)
	}
	if ratio := ContrastRatio(white, black); math.Abs(ratio-21) > 1e-6 {
		t.Errorf("Ratio is not symmetric: %g", ratio)
	}
	if ratio := ContrastRatio(white, white); math.Abs(ratio-1) > 1e-6 {
		t.Errorf("Identical colors ratio = %g, want 1", ratio)
	}
}

// TestDeriveContrast_MeetsTarget tests targets reachable from a brand blue;
// its luminance allows at best ~5.7:1 against black, so 7:1 is out of reach
func TestDeriveContrast_MeetsTarget(t *testing.T) {
	base := RGB{0x3b, 0x82, 0xf6}
	if _, _, met := DeriveContrast(base, 7.0); met {
		t.Error("7:1 should be unreachable from #3b82f6")
	}
	for _, target := range []float64{3.0, 4.5} {
		derived, achieved, met := DeriveContrast(base, target)
		if !met {
			t.Errorf("Target %g reported unreachable from %s", target, base.Hex())
			continue
		}
		if achieved < target {
			t.Errorf("Achieved %g below target %g", achieved, target)
		}
		if recomputed := ContrastRatio(base, derived); math.Abs(recomputed-achieved) > 1e-9 {
			t.Errorf("Achieved ratio %g does not match recomputed %g", achieved, recomputed)
		}
	}
}

// TestDeriveContrast_Unreachable tests the mid-gray dead zone
func TestDeriveContrast_Unreachable(t *testing.T) {
	derived, achieved, met := DeriveContrast(RGB{128, 128, 128}, 7.0)
	if met {
		t.Error("7:1 should be unreachable from mid-gray")
	}
	if derived != (RGB{0, 0, 0}) {
		t.Errorf("Expected the black pole, got %+v", derived)
	}
	if achieved >= 7.0 {
		t.Errorf("Achieved %g contradicts unreachable", achieved)
	}
}

// TestDeriveContrast_Deterministic tests repeatability of the search
func TestDeriveContrast_Deterministic(t *testing.T) {
	base := RGB{0x3b, 0x82, 0xf6}
	first, firstRatio, _ := DeriveContrast(base, 4.5)
	for i := 0; i < 5; i++ {
		next, nextRatio, _ := DeriveContrast(base, 4.5)
		if next != first || nextRatio != firstRatio {
			t.Fatalf("Derivation diverged: %+v/%g != %+v/%g", next, nextRatio, first, firstRatio)
		}
	}
}

// TestShiftLightness_Clamps tests clamping at the poles
func TestShiftLightness_Clamps(t *testing.T) {
	white := RGB{255, 255, 255}
	if got := ShiftLightness(white, 0.5); got != white {
		t.Errorf("Lightening white gave %+v", got)
	}
	black := RGB{0, 0, 0}
	if got := ShiftLightness(black, -0.5); got != black {
		t.Errorf("Darkening black gave %+v", got)
	}
}
