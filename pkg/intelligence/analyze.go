package intelligence

import (
	"strings"
	"time"

	"github.com/rafters-design/tokengraph/pkg/logging"
)

// AnalyzeDependencies reports a token's dependency structure: direct and
// indirect dependencies, dependents, cascade scope, depth, rule, and a
// complexity score. A name the registry has never seen still yields a
// valid, empty-scoped result; asking about a token before creating it is a
// legitimate query.
func (a *Analyzer) AnalyzeDependencies(name string, opts AnalyzeOptions) DependencyAnalysis {
	start := time.Now()
	depth := a.maxDepth(opts.MaxDepth)
	g := a.reg.Graph()

	res := DependencyAnalysis{
		Success: true,
		Token:   name,
		Exists:  a.reg.Tokens().Has(name),
	}

	res.DirectDependencies = orEmpty(g.DirectDependencies(name))
	res.Dependents = orEmpty(g.Dependents(name))
	res.CascadeScope = orEmpty(g.CascadeScope(name, depth))
	res.DependencyDepth = g.DependencyDepth(name)

	// The complexity score always weighs indirect dependencies, whether or
	// not the caller asked to see them.
	indirect := g.IndirectDependencies(name, depth)
	if opts.IncludeIndirect {
		res.IndirectDependencies = orEmpty(indirect)
	}

	var kindWeight float64
	if edge, ok := g.Rule(name); ok {
		res.Rule = edge.Text
		res.RuleKind = edge.Descriptor.Kind.String()
		kindWeight = a.cfg.Complexity.KindWeights[res.RuleKind]
	}

	for _, cycle := range g.DetectCycles() {
		for _, member := range cycle {
			if member == name {
				res.CircularDependencies = append(res.CircularDependencies, strings.Join(cycle, " -> "))
				break
			}
		}
	}

	res.ComplexityScore = a.cfg.Complexity.DirectWeight*float64(len(res.DirectDependencies)) +
		a.cfg.Complexity.IndirectWeight*float64(len(indirect)) +
		kindWeight

	res.Confidence = 1.0
	status := "success"
	if !res.Exists {
		res.Confidence = a.cfg.Confidence.AbsentTokenFloor
		status = "unknown_token"
	}

	elapsed := time.Since(start)
	res.ExecutionTimeMS = millis(elapsed)

	a.metrics.RecordAnalysis(opAnalyze, status, elapsed)
	a.metrics.RecordTraversal(res.DependencyDepth)
	a.logger.Debug("dependency analysis complete",
		logging.TokenName(name),
		logging.Int("dependents", len(res.Dependents)),
		logging.CascadeSize(len(res.CascadeScope)),
		logging.Latency(elapsed))

	return res
}
