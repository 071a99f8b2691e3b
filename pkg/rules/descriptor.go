package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the parsed form of a generation rule.
type Kind int

const (
	// KindUnknown is rule text with no recognized structure at all.
	KindUnknown Kind = iota
	// KindScale multiplies a numeric base value by a constant factor.
	KindScale
	// KindState derives an interaction-state variant of a base color.
	KindState
	// KindContrast derives a color meeting a contrast ratio against the base.
	KindContrast
	// KindCalc evaluates an arithmetic expression over token references.
	KindCalc
	// KindOpaque is structurally plausible rule text whose kind tag is not
	// recognized. The tag is preserved so tooling can report it.
	KindOpaque
)

// String returns the kind's wire name.
func (k Kind) String() string {
	switch k {
	case KindScale:
		return "scale"
	case KindState:
		return "state"
	case KindContrast:
		return "contrast"
	case KindCalc:
		return "calc"
	case KindOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// Descriptor is the parsed form of a generation rule. Rules are parsed once,
// when declared; everything downstream switches on Kind instead of
// re-inspecting the raw text.
//
// Parsing never fails. Problems with the rule text (non-numeric scale
// factor, empty calc body, unterminated references) are recorded in Issues
// and degrade execution instead of aborting it.
type Descriptor struct {
	Kind Kind
	Raw  string

	// Factor is the multiplier for KindScale.
	Factor float64
	// State is the interaction state name for KindState.
	State string
	// Level is the contrast level name for KindContrast.
	Level string
	// Expression is the arithmetic body for KindCalc.
	Expression string
	// References lists {token} names in the expression, first appearance
	// order, deduplicated.
	References []string
	// Tag preserves the unrecognized kind tag for KindOpaque.
	Tag string

	// Issues describes why the rule cannot execute cleanly. Empty for
	// well-formed rules.
	Issues []string

	expr calcNode
}

// WellFormed reports whether the rule parsed without issues.
func (d *Descriptor) WellFormed() bool {
	return len(d.Issues) == 0
}

// RequiredDependencies returns how many resolved dependencies the rule needs
// for a full-confidence execution.
func (d *Descriptor) RequiredDependencies() int {
	switch d.Kind {
	case KindScale, KindState, KindContrast:
		return 1
	case KindCalc:
		return len(d.References)
	default:
		return 0
	}
}

// Parse converts rule text into a Descriptor. It is a pure function: the
// same text always yields the same descriptor, and it never returns an
// error. See Descriptor.Issues for problems found in the text.
func Parse(text string) Descriptor {
	d := Descriptor{Raw: text}
	trimmed := strings.TrimSpace(text)

	if trimmed == "" {
		d.Kind = KindUnknown
		d.Issues = append(d.Issues, "rule text is empty")
		return d
	}

	if strings.HasPrefix(strings.ToLower(trimmed), "calc(") {
		return parseCalcRule(d, trimmed)
	}

	if idx := strings.Index(trimmed, ":"); idx >= 0 {
		tag := strings.ToLower(strings.TrimSpace(trimmed[:idx]))
		arg := strings.TrimSpace(trimmed[idx+1:])
		switch tag {
		case "scale":
			return parseScaleRule(d, arg)
		case "state":
			return parseStateRule(d, arg)
		case "contrast":
			return parseContrastRule(d, arg)
		case "":
			d.Kind = KindUnknown
			d.Issues = append(d.Issues, "rule kind tag is missing before the colon")
			return d
		default:
			d.Kind = KindOpaque
			d.Tag = tag
			return d
		}
	}

	if idx := strings.Index(trimmed, "("); idx > 0 {
		d.Kind = KindOpaque
		d.Tag = strings.ToLower(strings.TrimSpace(trimmed[:idx]))
		return d
	}

	d.Kind = KindUnknown
	d.Issues = append(d.Issues, fmt.Sprintf("rule %q has no recognized form", trimmed))
	return d
}

func parseScaleRule(d Descriptor, arg string) Descriptor {
	d.Kind = KindScale
	if arg == "" {
		d.Issues = append(d.Issues, "scale factor is missing")
		return d
	}
	factor, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		d.Issues = append(d.Issues, fmt.Sprintf("scale factor %q is not numeric", arg))
		return d
	}
	d.Factor = factor
	return d
}

func parseStateRule(d Descriptor, arg string) Descriptor {
	d.Kind = KindState
	if arg == "" {
		d.Issues = append(d.Issues, "state name is missing")
		return d
	}
	d.State = strings.ToLower(arg)
	return d
}

func parseContrastRule(d Descriptor, arg string) Descriptor {
	d.Kind = KindContrast
	if arg == "" {
		d.Issues = append(d.Issues, "contrast level is missing")
		return d
	}
	d.Level = strings.ToLower(arg)
	return d
}

func parseCalcRule(d Descriptor, trimmed string) Descriptor {
	d.Kind = KindCalc

	body := trimmed[len("calc("):]
	if strings.HasSuffix(body, ")") {
		body = body[:len(body)-1]
	} else {
		d.Issues = append(d.Issues, "calc expression is not closed with ')'")
	}
	body = strings.TrimSpace(body)
	d.Expression = body

	if body == "" {
		d.Issues = append(d.Issues, "calc expression is empty")
		return d
	}

	root, refs, issues := parseCalcExpression(body)
	d.References = refs
	d.Issues = append(d.Issues, issues...)
	if len(d.Issues) == 0 {
		d.expr = root
	}
	return d
}
