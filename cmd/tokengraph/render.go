package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rafters-design/tokengraph/pkg/history"
	"github.com/rafters-design/tokengraph/pkg/intelligence"
	"github.com/rafters-design/tokengraph/pkg/store"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FFFF"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00FF00")).
		Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 2)
)

func printField(label, value string) {
	fmt.Printf("  %s %s\n", labelStyle.Render(label+":"), value)
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return dimStyle.Render("none")
	}
	return strings.Join(names, ", ")
}

func renderAnalysis(res intelligence.DependencyAnalysis) {
	fmt.Println(titleStyle.Render("Dependency Analysis: " + res.Token))
	if !res.Exists {
		fmt.Printf("  %s token is not registered\n", warnStyle.Render("!"))
		return
	}

	if res.Rule != "" {
		printField("Rule", fmt.Sprintf("%s (%s)", res.Rule, res.RuleKind))
	} else {
		printField("Rule", dimStyle.Render("none (manually managed)"))
	}
	printField("Direct dependencies", joinOrNone(res.DirectDependencies))
	if res.IndirectDependencies != nil {
		printField("Indirect dependencies", joinOrNone(res.IndirectDependencies))
	}
	printField("Dependents", joinOrNone(res.Dependents))
	printField("Cascade scope", fmt.Sprintf("%d token(s)", len(res.CascadeScope)))
	printField("Dependency depth", fmt.Sprintf("%d", res.DependencyDepth))
	printField("Complexity", fmt.Sprintf("%.2f", res.ComplexityScore))
	printField("Confidence", fmt.Sprintf("%.2f", res.Confidence))

	if len(res.CircularDependencies) > 0 {
		fmt.Printf("  %s circular dependency: %s\n",
			errorStyle.Render("✗"), strings.Join(res.CircularDependencies, " -> "))
	}
}

func renderValidation(res intelligence.ValidationResult) {
	if res.IsValid {
		fmt.Printf("%s %s\n", okStyle.Render("✓"), titleStyle.Render("change set is valid"))
	} else {
		fmt.Printf("%s %s\n", errorStyle.Render("✗"), titleStyle.Render("change set is invalid"))
	}

	printFindings("Errors", errorStyle.Render("✗"), res.Errors)
	printFindings("Warnings", warnStyle.Render("!"), res.Warnings)
	printFindings("Notes", dimStyle.Render("·"), res.Infos)

	perf := res.Performance
	printField("Estimated cost", fmt.Sprintf("%.1fms (%s) for %d change(s)", perf.EstimatedMillis, perf.Level, perf.Changes))

	if len(res.Bottlenecks) > 0 {
		fmt.Println(labelStyle.Render("  Bottlenecks:"))
		for _, b := range res.Bottlenecks {
			fmt.Printf("    %s %s [%s]: %s\n", warnStyle.Render("!"), b.Token, b.Kind, b.Detail)
		}
	}

	printField("Confidence", fmt.Sprintf("%.2f", res.Confidence))
}

func printFindings(heading, symbol string, findings []intelligence.ValidationFinding) {
	if len(findings) == 0 {
		return
	}
	fmt.Println(labelStyle.Render("  " + heading + ":"))
	for _, f := range findings {
		fmt.Printf("    %s %s [%s]: %s\n", symbol, f.Change, f.Kind, f.Message)
		if f.Remediation != "" {
			fmt.Printf("      %s\n", dimStyle.Render("fix: "+f.Remediation))
		}
		if len(f.CyclePath) > 0 {
			fmt.Printf("      %s\n", dimStyle.Render("cycle: "+strings.Join(f.CyclePath, " -> ")))
		}
	}
}

func renderExecution(res intelligence.RuleExecutionResult) {
	fmt.Println(titleStyle.Render("Rule Execution: " + res.Token))
	printField("Rule", fmt.Sprintf("%s (%s)", res.Rule, res.RuleKind))
	printField("Value", okStyle.Render(res.Value))
	printField("Confidence", fmt.Sprintf("%.2f", res.Confidence))
	printField("Reasoning", res.Reasoning)
	if len(res.Unresolved) > 0 {
		fmt.Printf("  %s unresolved dependencies: %s\n",
			warnStyle.Render("!"), strings.Join(res.Unresolved, ", "))
	}
}

func renderImpact(res intelligence.CascadeImpactAnalysis) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("Cascade Impact: %s -> %s", res.Token, res.NewValue)))
	if !res.Exists {
		fmt.Printf("  %s token is not registered, no cascade exists\n", warnStyle.Render("!"))
		return
	}

	printField("Affected tokens", fmt.Sprintf("%d", len(res.AffectedTokens)))
	printField("Impact score", fmt.Sprintf("%.2f", res.ImpactScore))
	printField("Average confidence", fmt.Sprintf("%.2f", res.AverageConfidence))
	printField("Risk", fmt.Sprintf("breaking %s, visual %s, accessibility %s",
		res.Risk.BreakingChangeRisk, res.Risk.VisualImpact, res.Risk.AccessibilityRisk))

	for _, p := range res.AffectedTokens {
		line := fmt.Sprintf("%s: %s -> %s (%.2f)", p.Token, p.CurrentValue, p.PredictedValue, p.Confidence)
		if p.ManuallyManaged {
			line += "  " + dimStyle.Render("manually managed")
		}
		fmt.Printf("    %s\n", line)
	}
	for _, rec := range res.Recommendations {
		fmt.Printf("  %s %s\n", labelStyle.Render(">"), rec)
	}
}

func renderStats(reg *store.Registry) {
	stats := reg.Stats()

	categories := make(map[string]int)
	for _, name := range reg.Tokens().Names() {
		if t, ok := reg.Tokens().Get(name); ok {
			categories[t.Category]++
		}
	}

	lines := []string{
		titleStyle.Render("Collection"),
		fmt.Sprintf("%s %d", labelStyle.Render("Tokens:"), stats.Tokens),
		fmt.Sprintf("%s  %d", labelStyle.Render("Rules:"), stats.Rules),
		fmt.Sprintf("%s  %d", labelStyle.Render("Edges:"), stats.Edges),
	}
	fmt.Println(statsBoxStyle.Render(strings.Join(lines, "\n")))

	if len(categories) > 0 {
		names := make([]string, 0, len(categories))
		for name := range categories {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Println(labelStyle.Render("  By category:"))
		for _, name := range names {
			label := name
			if label == "" {
				label = dimStyle.Render("(uncategorized)")
			}
			fmt.Printf("    %s: %d\n", label, categories[name])
		}
	}
}

func renderHistory(entries []history.Entry, stats history.Stats) {
	fmt.Println(titleStyle.Render("Prediction History"))
	printField("Entries", fmt.Sprintf("%d shown, %d in segment", len(entries), stats.Total))
	printField("Validated", fmt.Sprintf("%d (%d accurate, %.0f%% accuracy)",
		stats.Validated, stats.Accurate, stats.AccuracyRate*100))
	printField("Avg confidence", fmt.Sprintf("%.2f", stats.AvgConfidence))

	for i := range entries {
		e := &entries[i]

		mark := dimStyle.Render("·")
		if e.Validated() {
			if e.Accurate != nil && *e.Accurate {
				mark = okStyle.Render("✓")
			} else {
				mark = errorStyle.Render("✗")
			}
		}

		line := fmt.Sprintf("%s  %-18s  %s", e.Timestamp.Format(time.RFC3339), e.Service, e.TokenName)
		if e.NewValue != "" {
			line += " -> " + e.NewValue
		}
		line += fmt.Sprintf("  (%.2f)", e.Confidence)
		fmt.Printf("  %s %s\n", mark, line)
	}
}
