package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rafters-design/tokengraph/pkg/intelligence"
)

// ExecuteTool handles the token_execute_rule MCP tool.
type ExecuteTool struct {
	analyzer *intelligence.Analyzer
}

// NewExecuteTool creates an ExecuteTool over the given analyzer.
func NewExecuteTool(a *intelligence.Analyzer) *ExecuteTool {
	return &ExecuteTool{analyzer: a}
}

// Definition returns the MCP tool definition for token_execute_rule.
func (t *ExecuteTool) Definition() mcp.Tool {
	return mcp.NewTool("token_execute_rule",
		mcp.WithDescription(
			"Execute rule text for a token without storing anything. Supports "+
				"scale:N, state:NAME, contrast:LEVEL, and calc({token} expr) forms. "+
				"Dependency values come from overrides first, then the registry; "+
				"unresolvable names degrade confidence instead of failing. "+
				"Use overrides to answer what-if questions.",
		),
		mcp.WithString("token",
			mcp.Required(),
			mcp.Description("Token the rule derives, e.g. 'spacing-lg'"),
		),
		mcp.WithString("rule",
			mcp.Required(),
			mcp.Description("Rule text, e.g. 'scale:2' or 'calc({spacing-sm} * 3)'"),
		),
		mcp.WithString("dependencies",
			mcp.Description("Comma-separated dependency names, e.g. 'spacing-sm,spacing-md'. Defaults to the token's declared dependencies."),
		),
		mcp.WithString("overrides",
			mcp.Description(
				`JSON object of name-to-value overrides, e.g. "{\"spacing-sm\":\"0.5rem\"}". `+
					"Overrides win over stored values.",
			),
		),
	)
}

// Handle processes the token_execute_rule tool call.
func (t *ExecuteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token := req.GetString("token", "")
	if token == "" {
		return mcp.NewToolResultError("'token' is required"), nil
	}
	rule := req.GetString("rule", "")
	if rule == "" {
		return mcp.NewToolResultError("'rule' is required"), nil
	}

	ec := intelligence.ExecutionContext{
		Dependencies: splitList(req.GetString("dependencies", "")),
	}
	if overridesRaw := req.GetString("overrides", ""); overridesRaw != "" {
		if err := json.Unmarshal([]byte(overridesRaw), &ec.Overrides); err != nil {
			return mcp.NewToolResultError(
				fmt.Sprintf("'overrides' must be a valid JSON object of string values. Parse error: %v", err),
			), nil
		}
	}

	result := t.analyzer.ExecuteRule(token, rule, ec)

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Rule Execution: %s\n\n", token)
	fmt.Fprintf(&sb, "- **Rule**: `%s` (%s)\n", result.Rule, result.RuleKind)
	fmt.Fprintf(&sb, "- **Value**: `%s`\n", result.Value)
	fmt.Fprintf(&sb, "- **Confidence**: %.2f\n", result.Confidence)
	fmt.Fprintf(&sb, "- **Reasoning**: %s\n", result.Reasoning)

	if len(result.Unresolved) > 0 {
		fmt.Fprintf(&sb, "\n⚠️ **Unresolved dependencies**: %s\n", nameList(result.Unresolved))
	}

	writeRecord(&sb, result)
	return mcp.NewToolResultText(sb.String()), nil
}
