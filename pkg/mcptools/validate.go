package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rafters-design/tokengraph/pkg/intelligence"
)

// ValidateTool handles the token_validate_changes MCP tool.
type ValidateTool struct {
	analyzer *intelligence.Analyzer
}

// NewValidateTool creates a ValidateTool over the given analyzer.
func NewValidateTool(a *intelligence.Analyzer) *ValidateTool {
	return &ValidateTool{analyzer: a}
}

// Definition returns the MCP tool definition for token_validate_changes.
func (t *ValidateTool) Definition() mcp.Tool {
	return mcp.NewTool("token_validate_changes",
		mcp.WithDescription(
			"Validate a batch of proposed token changes before applying them. "+
				"Checks for dependency cycles, unparseable rule text, and references "+
				"to tokens that exist neither in the registry nor in the batch. "+
				"Nothing is applied; every change is checked even when earlier ones fail.",
		),
		mcp.WithString("changes",
			mcp.Required(),
			mcp.Description(
				"JSON array of change objects, e.g. "+
					`"[{\"name\":\"accent-hover\",\"value\":\"#cc5200\",\"rule\":\"state:hover\",\"dependencies\":[\"accent\"]}]". `+
					"Each object takes name (required), value, category, rule, and dependencies.",
			),
		),
	)
}

// Handle processes the token_validate_changes tool call.
func (t *ValidateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	changesRaw := req.GetString("changes", "")
	if changesRaw == "" {
		return mcp.NewToolResultError("'changes' is required"), nil
	}

	var changes []intelligence.ChangeRequest
	if err := json.Unmarshal([]byte(changesRaw), &changes); err != nil {
		return mcp.NewToolResultError(
			fmt.Sprintf("'changes' must be a valid JSON array of change objects. Parse error: %v", err),
		), nil
	}
	if len(changes) == 0 {
		return mcp.NewToolResultError("'changes' array is empty"), nil
	}

	result := t.analyzer.ValidateChanges(changes)

	var sb strings.Builder
	verdict := "VALID"
	if !result.IsValid {
		verdict = "INVALID"
	}
	fmt.Fprintf(&sb, "## Change Validation: %s\n\n", verdict)
	fmt.Fprintf(&sb, "- **Changes**: %d\n", len(changes))
	fmt.Fprintf(&sb, "- **Errors**: %d | **Warnings**: %d\n", len(result.Errors), len(result.Warnings))
	fmt.Fprintf(&sb, "- **Estimated cost**: %.1fms (%s)\n",
		result.Performance.EstimatedMillis, result.Performance.Level)
	fmt.Fprintf(&sb, "- **Confidence**: %.2f\n", result.Confidence)

	writeFindings(&sb, "Errors", result.Errors)
	writeFindings(&sb, "Warnings", result.Warnings)

	if len(result.Bottlenecks) > 0 {
		sb.WriteString("\n### Bottlenecks\n\n")
		for _, b := range result.Bottlenecks {
			fmt.Fprintf(&sb, "- **%s** (%s): %s\n", b.Token, b.Kind, b.Detail)
		}
	}

	writeRecord(&sb, result)
	return mcp.NewToolResultText(sb.String()), nil
}

func writeFindings(sb *strings.Builder, heading string, findings []intelligence.ValidationFinding) {
	if len(findings) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n### %s\n\n", heading)
	for _, f := range findings {
		fmt.Fprintf(sb, "- **%s** [%s]: %s\n", f.Change, f.Kind, f.Message)
		if f.Remediation != "" {
			fmt.Fprintf(sb, "  - Fix: %s\n", f.Remediation)
		}
	}
}
