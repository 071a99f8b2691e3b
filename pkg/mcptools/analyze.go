package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rafters-design/tokengraph/pkg/intelligence"
)

// AnalyzeTool handles the token_analyze MCP tool.
type AnalyzeTool struct {
	analyzer *intelligence.Analyzer
}

// NewAnalyzeTool creates an AnalyzeTool over the given analyzer.
func NewAnalyzeTool(a *intelligence.Analyzer) *AnalyzeTool {
	return &AnalyzeTool{analyzer: a}
}

// Definition returns the MCP tool definition for token_analyze.
func (t *AnalyzeTool) Definition() mcp.Tool {
	return mcp.NewTool("token_analyze",
		mcp.WithDescription(
			"Analyze a design token's position in the dependency graph: what it reads, "+
				"what reads it, how deep its derivation chain runs, and how complex its "+
				"rule is. Use this before proposing a change to understand blast radius.",
		),
		mcp.WithString("token",
			mcp.Required(),
			mcp.Description("Token name, e.g. 'primary-hover' or 'spacing-md'"),
		),
		mcp.WithBoolean("include_indirect",
			mcp.Description("Also list dependencies reached through intermediates (default: false)"),
		),
		mcp.WithNumber("max_depth",
			mcp.Description("Bound graph traversals to this many hops (default: engine configuration)"),
		),
	)
}

// Handle processes the token_analyze tool call.
func (t *AnalyzeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token := req.GetString("token", "")
	if token == "" {
		return mcp.NewToolResultError("'token' is required"), nil
	}

	opts := intelligence.AnalyzeOptions{
		IncludeIndirect: boolArg(req, "include_indirect", false),
		MaxDepth:        intArg(req, "max_depth", 0),
	}
	analysis := t.analyzer.AnalyzeDependencies(token, opts)

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Dependency Analysis: %s\n\n", token)

	if !analysis.Exists {
		sb.WriteString("This token is **not registered**. Analysis reflects an empty position in the graph.\n")
		writeRecord(&sb, analysis)
		return mcp.NewToolResultText(sb.String()), nil
	}

	if analysis.Rule != "" {
		fmt.Fprintf(&sb, "- **Rule**: `%s` (%s)\n", analysis.Rule, analysis.RuleKind)
	} else {
		sb.WriteString("- **Rule**: none (manually managed)\n")
	}
	fmt.Fprintf(&sb, "- **Direct dependencies** (%d): %s\n",
		len(analysis.DirectDependencies), nameList(analysis.DirectDependencies))
	if opts.IncludeIndirect {
		fmt.Fprintf(&sb, "- **Indirect dependencies** (%d): %s\n",
			len(analysis.IndirectDependencies), nameList(analysis.IndirectDependencies))
	}
	fmt.Fprintf(&sb, "- **Dependents** (%d): %s\n",
		len(analysis.Dependents), nameList(analysis.Dependents))
	fmt.Fprintf(&sb, "- **Cascade scope** (%d): %s\n",
		len(analysis.CascadeScope), nameList(analysis.CascadeScope))
	fmt.Fprintf(&sb, "- **Dependency depth**: %d\n", analysis.DependencyDepth)
	fmt.Fprintf(&sb, "- **Complexity score**: %.2f\n", analysis.ComplexityScore)
	fmt.Fprintf(&sb, "- **Confidence**: %.2f\n", analysis.Confidence)

	if len(analysis.CircularDependencies) > 0 {
		fmt.Fprintf(&sb, "\n⚠️ **Circular dependencies detected**: %s\n",
			nameList(analysis.CircularDependencies))
	}

	writeRecord(&sb, analysis)
	return mcp.NewToolResultText(sb.String()), nil
}
