package intelligence

import (
	"encoding/json"
	"time"

	"github.com/rafters-design/tokengraph/pkg/history"
	"github.com/rafters-design/tokengraph/pkg/logging"
	"github.com/rafters-design/tokengraph/pkg/rules"
)

// ExecuteRule parses and executes rule text for a token without declaring
// anything in the registry. Dependency values resolve from the execution
// context first, then the registry; names that resolve nowhere are reported
// in Unresolved and degrade confidence instead of failing the call.
//
// When the context names no dependencies and the rule references none, the
// token's declared dependencies are used, so re-running a stored rule needs
// only the token name.
func (a *Analyzer) ExecuteRule(tokenName, ruleText string, ctx ExecutionContext) RuleExecutionResult {
	start := time.Now()
	desc := rules.Parse(ruleText)

	names := dependencyUnion(ctx.Dependencies, desc.References)
	if len(names) == 0 {
		names = a.reg.Graph().DirectDependencies(tokenName)
	}

	deps := make([]rules.Dependency, 0, len(names))
	var unresolved []string
	for _, name := range names {
		dep := rules.Dependency{Name: name}
		if value, ok := ctx.Overrides[name]; ok {
			dep.Value, dep.Confidence, dep.Resolved = value, 1.0, true
		} else if value, ok := a.reg.ResolveValue(name); ok {
			dep.Value, dep.Confidence, dep.Resolved = value, 1.0, true
		} else {
			unresolved = append(unresolved, name)
		}
		deps = append(deps, dep)
	}

	out := a.executor.Execute(desc, rules.Input{Target: tokenName, Dependencies: deps})

	res := RuleExecutionResult{
		Success:    true,
		Token:      tokenName,
		Rule:       ruleText,
		RuleKind:   desc.Kind.String(),
		Value:      out.Value,
		Confidence: out.Confidence,
		Reasoning:  out.Reasoning,
		Unresolved: unresolved,
	}

	elapsed := time.Since(start)
	res.ExecutionTimeMS = millis(elapsed)

	status := "success"
	if out.Confidence < a.cfg.Rules.LowConfidenceThreshold {
		status = "degraded"
	}
	a.metrics.RecordRuleExecution(res.RuleKind, status, elapsed, out.Confidence)
	a.logger.Debug("rule executed",
		logging.TokenName(tokenName),
		logging.RuleKind(res.RuleKind),
		logging.Confidence(out.Confidence),
		logging.Latency(elapsed))

	a.recordHistory(history.ServiceRuleExecution, tokenName, out.Value, out.Confidence, res)
	return res
}

// recordHistory appends an analysis record to the prediction log when one
// is attached. Recording is best effort; a full or failing log never
// affects the result already in hand.
func (a *Analyzer) recordHistory(service, tokenName, newValue string, confidence float64, payload any) {
	if a.history == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		a.logger.Warn("prediction log payload failed to marshal",
			logging.String("service", service),
			logging.TokenName(tokenName),
			logging.Error(err))
		return
	}
	entry := history.NewEntry(service, tokenName, newValue, raw, confidence)
	if err := a.history.Record(entry); err != nil {
		a.logger.Warn("prediction log write failed",
			logging.String("service", service),
			logging.TokenName(tokenName),
			logging.Error(err))
	}
}
