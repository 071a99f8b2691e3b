package intelligence

import (
	"fmt"
	"math"
	"time"

	"github.com/rafters-design/tokengraph/pkg/history"
	"github.com/rafters-design/tokengraph/pkg/logging"
	"github.com/rafters-design/tokengraph/pkg/rules"
)

// Breaking-change bands over the share of predictions scoring below the
// configured breaking-change confidence.
const (
	breakingHighRatio   = 0.4
	breakingMediumRatio = 0.15
)

// PredictCascadeImpact simulates changing a token's value and re-derives
// every token in its cascade scope through that token's own rule, without
// touching the registry. The result aggregates an impact score that grows
// with scope size and shrinks with prediction confidence, a four-axis risk
// assessment, and ranked recommendations.
//
// An unknown token yields an empty prediction at the configured floor
// confidence rather than an error.
func (a *Analyzer) PredictCascadeImpact(tokenName, newValue string) CascadeImpactAnalysis {
	start := time.Now()

	res := CascadeImpactAnalysis{
		Success:         true,
		Token:           tokenName,
		NewValue:        newValue,
		AffectedTokens:  []TokenPrediction{},
		Recommendations: []string{},
		Risk: RiskAssessment{
			BreakingChangeRisk:  RiskLow,
			VisualImpact:        RiskLow,
			AccessibilityRisk:   RiskLow,
			SemanticConsistency: 1.0,
		},
	}

	if !a.reg.Tokens().Has(tokenName) {
		res.Confidence = a.cfg.Confidence.AbsentTokenFloor
		elapsed := time.Since(start)
		res.ExecutionTimeMS = millis(elapsed)
		a.metrics.RecordAnalysis(opPredict, "unknown_token", elapsed)
		a.logger.Debug("cascade prediction for unknown token",
			logging.TokenName(tokenName))
		return res
	}
	res.Exists = true

	scope := a.reg.Graph().CascadeScope(tokenName, a.maxDepth(0))
	p := newPredictor(a, tokenName, newValue, scope)
	for _, member := range scope {
		res.AffectedTokens = append(res.AffectedTokens, p.predict(member))
	}

	n := len(res.AffectedTokens)
	sum := 0.0
	low := 0
	ruled := 0
	for _, pred := range res.AffectedTokens {
		sum += pred.Confidence
		if pred.Confidence < a.cfg.Risk.BreakingChangeConfidence {
			low++
		}
		if !pred.ManuallyManaged {
			ruled++
		}
	}

	avg := 1.0
	if n > 0 {
		avg = sum / float64(n)
	}
	res.AverageConfidence = avg
	res.Confidence = avg
	res.ImpactScore = clampUnit(
		a.cfg.Risk.ScopeWeight*math.Min(1, float64(n)/a.cfg.Risk.ScopeSaturation) +
			a.cfg.Risk.ConfidenceWeight*(1-avg))

	res.Risk = a.assessRisk(tokenName, res.AffectedTokens, low, ruled)
	res.Recommendations = a.recommend(tokenName, n, low, n-ruled)

	elapsed := time.Since(start)
	res.ExecutionTimeMS = millis(elapsed)

	a.metrics.RecordAnalysis(opPredict, "success", elapsed)
	a.metrics.RecordCascadePrediction(n, avg)
	a.logger.Debug("cascade impact predicted",
		logging.TokenName(tokenName),
		logging.CascadeSize(n),
		logging.Confidence(avg),
		logging.Float64("impact", res.ImpactScore),
		logging.Latency(elapsed))

	a.recordHistory(history.ServiceCascadePrediction, tokenName, newValue, res.Confidence, res)
	return res
}

// assessRisk grades the prediction set along the four risk axes.
func (a *Analyzer) assessRisk(tokenName string, preds []TokenPrediction, low, ruled int) RiskAssessment {
	risk := RiskAssessment{
		BreakingChangeRisk:  RiskLow,
		VisualImpact:        RiskLow,
		AccessibilityRisk:   RiskLow,
		SemanticConsistency: 1.0,
	}
	n := len(preds)
	if n == 0 {
		return risk
	}

	ratio := float64(low) / float64(n)
	switch {
	case ratio >= breakingHighRatio:
		risk.BreakingChangeRisk = RiskHigh
	case ratio >= breakingMediumRatio:
		risk.BreakingChangeRisk = RiskMedium
	}

	switch {
	case n >= a.cfg.Risk.HighImpactScopeSize:
		risk.VisualImpact = RiskHigh
	case n*2 >= a.cfg.Risk.HighImpactScopeSize:
		risk.VisualImpact = RiskMedium
	}

	if matchesHint(tokenName, a.cfg.Risk.AccessibilityHints) {
		risk.AccessibilityRisk = RiskHigh
	} else {
		for _, pred := range preds {
			if matchesHint(pred.Token, a.cfg.Risk.AccessibilityHints) {
				risk.AccessibilityRisk = RiskMedium
				break
			}
		}
	}

	risk.SemanticConsistency = float64(ruled) / float64(n)
	return risk
}

// recommend emits the ranked recommendation list for a prediction.
func (a *Analyzer) recommend(tokenName string, affected, lowConfidence, manual int) []string {
	recs := []string{}
	if lowConfidence > 0 {
		recs = append(recs, fmt.Sprintf("review the %d prediction(s) below %.2f confidence before applying this change",
			lowConfidence, a.cfg.Risk.BreakingChangeConfidence))
	}
	if manual > 0 {
		recs = append(recs, fmt.Sprintf("%d affected token(s) have no rule; add rule coverage or plan manual updates", manual))
	}
	if affected >= a.cfg.Risk.HighImpactScopeSize {
		recs = append(recs, fmt.Sprintf("change reaches %d tokens; stage it behind a preview before release", affected))
	}
	if matchesHint(tokenName, a.cfg.Risk.FoundationalHints) {
		recs = append(recs, fmt.Sprintf("%s names a foundational token; expect system-wide shifts and coordinate the rollout", tokenName))
	}
	return recs
}

// cascadePredictor re-derives values across a change's blast radius.
// Derivations are memoized so shared upstreams execute once, and
// resolution recurses through in-scope dependencies so every token is
// derived from post-change values regardless of the order the scope lists
// it in.
type cascadePredictor struct {
	a           *Analyzer
	root        string
	rootValue   string
	inScope     map[string]bool
	predictions map[string]TokenPrediction
}

func newPredictor(a *Analyzer, root, rootValue string, scope []string) *cascadePredictor {
	inScope := make(map[string]bool, len(scope))
	for _, name := range scope {
		inScope[name] = true
	}
	return &cascadePredictor{
		a:           a,
		root:        root,
		rootValue:   rootValue,
		inScope:     inScope,
		predictions: make(map[string]TokenPrediction, len(scope)),
	}
}

// predict derives the post-change outcome for one affected token.
func (p *cascadePredictor) predict(name string) TokenPrediction {
	if done, ok := p.predictions[name]; ok {
		return done
	}

	current, _ := p.a.reg.ResolveValue(name)
	edge, hasRule := p.a.reg.Graph().Rule(name)

	var pred TokenPrediction
	if !hasRule {
		pred = TokenPrediction{
			Token:           name,
			CurrentValue:    current,
			PredictedValue:  current,
			Confidence:      p.a.cfg.Confidence.ManualTokenFloor,
			ManuallyManaged: true,
			Reasoning:       "not governed by a rule; the value must be updated by hand",
		}
	} else {
		deps := make([]rules.Dependency, 0, len(edge.Sources))
		for _, src := range edge.Sources {
			deps = append(deps, p.resolve(src))
		}
		out := p.a.executor.Execute(edge.Descriptor, rules.Input{Target: name, Dependencies: deps})
		pred = TokenPrediction{
			Token:          name,
			CurrentValue:   current,
			PredictedValue: out.Value,
			Confidence:     out.Confidence,
			Rule:           edge.Text,
			RuleKind:       edge.Descriptor.Kind.String(),
			Reasoning:      out.Reasoning,
		}
	}

	p.predictions[name] = pred
	return pred
}

// resolve produces the dependency view of a name after the change: the new
// value for the changed token itself, a recursive prediction for in-scope
// tokens, and the stored value for everything outside the blast radius.
// The graph is acyclic, so the recursion terminates.
func (p *cascadePredictor) resolve(name string) rules.Dependency {
	if name == p.root {
		return rules.Dependency{Name: name, Value: p.rootValue, Confidence: 1.0, Resolved: true}
	}
	if !p.inScope[name] {
		if value, ok := p.a.reg.ResolveValue(name); ok {
			return rules.Dependency{Name: name, Value: value, Confidence: 1.0, Resolved: true}
		}
		return rules.Dependency{Name: name}
	}
	pred := p.predict(name)
	if pred.ManuallyManaged {
		// A hand-updated token's post-change value is unknowable.
		return rules.Dependency{Name: name, Confidence: p.a.cfg.Confidence.ManualTokenFloor}
	}
	return rules.Dependency{Name: name, Value: pred.PredictedValue, Confidence: pred.Confidence, Resolved: true}
}
