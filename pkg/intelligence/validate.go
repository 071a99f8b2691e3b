package intelligence

import (
	"fmt"
	"strings"
	"time"

	"github.com/rafters-design/tokengraph/pkg/logging"
	"github.com/rafters-design/tokengraph/pkg/rules"
)

// ValidateChanges checks a proposed change set without touching the
// registry. Every change is checked for the three failure modes: closing a
// dependency cycle, carrying rule text the parser cannot classify, and
// declaring dependencies that exist neither in the registry nor elsewhere
// in the batch. All checks run for every change; nothing aborts early.
//
// A change contributes at most one entry to Errors, the worst failure
// found, so the error count equals the invalid change count. Further
// failures on the same change are reported as warnings.
func (a *Analyzer) ValidateChanges(changes []ChangeRequest) ValidationResult {
	start := time.Now()

	res := ValidationResult{
		Success:     true,
		Errors:      []ValidationFinding{},
		Warnings:    []ValidationFinding{},
		Infos:       []ValidationFinding{},
		Bottlenecks: []Bottleneck{},
	}

	// A change may introduce the token another change in the same batch
	// depends on; those names count as present.
	introduced := make(map[string]bool, len(changes))
	for _, change := range changes {
		if change.Name != "" {
			introduced[change.Name] = true
		}
	}

	valid := 0
	totalDeps := 0
	ruleExecs := 0
	flagged := make(map[string]bool)

	for _, change := range changes {
		report := a.checkChange(change, introduced)

		invalid := false
		for _, f := range report.findings {
			switch f.Severity {
			case SeverityError:
				res.Errors = append(res.Errors, f)
				invalid = true
			case SeverityWarning:
				res.Warnings = append(res.Warnings, f)
			default:
				res.Infos = append(res.Infos, f)
			}
		}
		if !invalid {
			valid++
		}

		for _, b := range report.bottlenecks {
			key := b.Token + "/" + b.Kind
			if !flagged[key] {
				flagged[key] = true
				res.Bottlenecks = append(res.Bottlenecks, b)
			}
		}

		totalDeps += len(report.deps)
		if report.hasRule {
			ruleExecs++
		}
		if a.reg.Tokens().Has(change.Name) {
			for _, member := range a.reg.Graph().CascadeScope(change.Name, a.maxDepth(0)) {
				if a.reg.Graph().HasRule(member) {
					ruleExecs++
				}
			}
		}
	}

	res.Performance = a.estimatePerformance(len(changes), totalDeps, ruleExecs)
	res.IsValid = len(res.Errors) == 0
	if len(changes) == 0 {
		res.Confidence = 1.0
	} else {
		res.Confidence = float64(valid) / float64(len(changes))
	}

	elapsed := time.Since(start)
	res.ExecutionTimeMS = millis(elapsed)

	status := "success"
	if !res.IsValid {
		status = "invalid"
	}
	a.metrics.RecordAnalysis(opValidate, status, elapsed)
	a.metrics.RecordValidationFindings(len(res.Errors), len(res.Warnings), len(res.Infos))
	a.logger.Debug("change validation complete",
		logging.ChangeCount(len(changes)),
		logging.Int("errors", len(res.Errors)),
		logging.Int("warnings", len(res.Warnings)),
		logging.Confidence(res.Confidence),
		logging.Latency(elapsed))

	return res
}

// changeReport is the per-change outcome of checkChange.
type changeReport struct {
	findings    []ValidationFinding
	bottlenecks []Bottleneck
	deps        []string
	hasRule     bool
}

// checkChange runs the three checks for one change. Findings come back
// worst-first with at most one error.
func (a *Analyzer) checkChange(change ChangeRequest, introduced map[string]bool) changeReport {
	var report changeReport

	var desc rules.Descriptor
	report.hasRule = strings.TrimSpace(change.Rule) != ""
	if report.hasRule {
		desc = rules.Parse(change.Rule)
	}
	report.deps = dependencyUnion(change.Dependencies, desc.References)

	errorTaken := false
	demote := func(f ValidationFinding) ValidationFinding {
		if errorTaken {
			f.Severity = SeverityWarning
		} else {
			errorTaken = true
		}
		return f
	}

	if path, cyclic := a.wouldCycle(change.Name, report.deps); cyclic {
		report.findings = append(report.findings, demote(ValidationFinding{
			Change:      change.Name,
			Kind:        FindingCircularDependency,
			Severity:    SeverityError,
			Message:     fmt.Sprintf("declaring %s with these dependencies closes the cycle %s", change.Name, strings.Join(path, " -> ")),
			Remediation: "remove one dependency on the cycle or derive it from a token outside the loop",
			CyclePath:   path,
		}))
	}

	if report.hasRule {
		switch {
		case desc.Kind == rules.KindUnknown || !desc.WellFormed():
			msg := fmt.Sprintf("rule %q is not well-formed", change.Rule)
			if len(desc.Issues) > 0 {
				msg = desc.Issues[0]
			}
			report.findings = append(report.findings, demote(ValidationFinding{
				Change:      change.Name,
				Kind:        FindingInvalidRule,
				Severity:    SeverityError,
				Message:     msg,
				Remediation: "use scale:N, state:name, contrast:level, or calc(expr) with {token} references",
			}))
		case desc.Kind == rules.KindOpaque:
			report.findings = append(report.findings, ValidationFinding{
				Change:      change.Name,
				Kind:        FindingOpaqueRule,
				Severity:    SeverityWarning,
				Message:     fmt.Sprintf("rule kind %q is not recognized; executions will fall back to the base value at reduced confidence", desc.Tag),
				Remediation: "use scale:N, state:name, contrast:level, or calc(expr) with {token} references",
			})
		}
	}

	var missing []string
	for _, dep := range report.deps {
		if !a.reg.Tokens().Has(dep) && !introduced[dep] {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		report.findings = append(report.findings, demote(ValidationFinding{
			Change:      change.Name,
			Kind:        FindingMissingDependency,
			Severity:    SeverityError,
			Message:     fmt.Sprintf("dependencies do not exist: %s", strings.Join(missing, ", ")),
			Remediation: "create the missing tokens first or include them in this change set",
		}))
	}

	if change.Name != "" && !a.reg.Tokens().Has(change.Name) {
		report.findings = append(report.findings, ValidationFinding{
			Change:   change.Name,
			Kind:     FindingNewToken,
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("token %s does not exist yet and will be created", change.Name),
		})
	}

	report.bottlenecks = a.checkBottlenecks(change, desc, report.hasRule)
	return report
}

// checkBottlenecks flags structural hot spots a change would touch.
func (a *Analyzer) checkBottlenecks(change ChangeRequest, desc rules.Descriptor, hasRule bool) []Bottleneck {
	var out []Bottleneck

	if fanout := len(a.reg.Graph().Dependents(change.Name)); fanout > a.cfg.Bottlenecks.DependentFanout {
		out = append(out, Bottleneck{
			Token:   change.Name,
			Kind:    BottleneckHighFanout,
			Detail:  fmt.Sprintf("%d direct dependents re-derive on every change to this token", fanout),
			Measure: fanout,
		})
	}
	if !hasRule {
		return out
	}
	if length := len(change.Rule); length > a.cfg.Bottlenecks.RuleTextLength {
		out = append(out, Bottleneck{
			Token:   change.Name,
			Kind:    BottleneckLongRule,
			Detail:  fmt.Sprintf("rule text is %d characters; consider splitting the derivation", length),
			Measure: length,
		})
	}
	if desc.Kind == rules.KindCalc && len(desc.References) > a.cfg.Bottlenecks.CalcReferenceLimit {
		out = append(out, Bottleneck{
			Token:   change.Name,
			Kind:    BottleneckWideCalc,
			Detail:  fmt.Sprintf("calc expression reads %d tokens; each one can invalidate this value", len(desc.References)),
			Measure: len(desc.References),
		})
	}
	return out
}

// wouldCycle simulates declaring name with deps. The graph simulation only
// knows interned names, so a token depending on itself is caught here even
// when the registry has never seen it.
func (a *Analyzer) wouldCycle(name string, deps []string) ([]string, bool) {
	if name == "" {
		return nil, false
	}
	for _, dep := range deps {
		if dep == name {
			return []string{name, name}, true
		}
	}
	return a.reg.Graph().WouldCycle(name, deps)
}

// dependencyUnion merges declared dependencies with rule references,
// first-appearance order, deduplicated.
func dependencyUnion(declared, references []string) []string {
	out := make([]string, 0, len(declared)+len(references))
	seen := make(map[string]bool, len(declared)+len(references))
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	for _, dep := range declared {
		add(dep)
	}
	for _, ref := range references {
		add(ref)
	}
	return out
}

// estimatePerformance applies the linear cost model to a change set.
func (a *Analyzer) estimatePerformance(changes, deps, ruleExecs int) PerformanceEstimate {
	est := a.cfg.Performance.MillisPerChange*float64(changes) +
		a.cfg.Performance.MillisPerDependency*float64(deps) +
		a.cfg.Performance.MillisPerRuleExecution*float64(ruleExecs)

	level := RiskLow
	switch {
	case est >= a.cfg.Performance.HighThresholdMillis:
		level = RiskHigh
	case est >= a.cfg.Performance.MediumThresholdMillis:
		level = RiskMedium
	}
	return PerformanceEstimate{
		EstimatedMillis: est,
		Level:           level,
		Changes:         changes,
		Dependencies:    deps,
		RuleExecutions:  ruleExecs,
	}
}
