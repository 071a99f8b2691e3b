package rules

import (
	"math"
	"strconv"
	"strings"
)

// Magnitude is a numeric token value with its unit ("1rem" parses to
// {1, "rem"}). Values with more than one numeric run, like shadow
// shorthands, are not magnitudes.
type Magnitude struct {
	Value float64
	Unit  string
}

// ParseMagnitude extracts a single number plus optional unit suffix from a
// raw token value. Returns false when the value is not a simple magnitude.
func ParseMagnitude(raw string) (Magnitude, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Magnitude{}, false
	}

	i := 0
	if s[i] == '-' || s[i] == '+' {
		i++
	}
	start := i
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	if i == start {
		return Magnitude{}, false
	}

	value, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return Magnitude{}, false
	}

	unit := strings.TrimSpace(s[i:])
	for j := 0; j < len(unit); j++ {
		ch := unit[j]
		if !(ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '%') {
			return Magnitude{}, false
		}
	}
	return Magnitude{Value: value, Unit: unit}, true
}

// Format renders the magnitude back into a token value. The numeric part is
// rounded to four decimals so derived values stay stable across runs.
func (m Magnitude) Format() string {
	rounded := math.Round(m.Value*10000) / 10000
	return strconv.FormatFloat(rounded, 'f', -1, 64) + m.Unit
}
