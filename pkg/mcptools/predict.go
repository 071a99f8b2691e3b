package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rafters-design/tokengraph/pkg/intelligence"
)

// maxAffectedRows caps the prose table; the JSON record carries the full list.
const maxAffectedRows = 15

// PredictTool handles the token_predict_impact MCP tool.
type PredictTool struct {
	analyzer *intelligence.Analyzer
}

// NewPredictTool creates a PredictTool over the given analyzer.
func NewPredictTool(a *intelligence.Analyzer) *PredictTool {
	return &PredictTool{analyzer: a}
}

// Definition returns the MCP tool definition for token_predict_impact.
func (t *PredictTool) Definition() mcp.Tool {
	return mcp.NewTool("token_predict_impact",
		mcp.WithDescription(
			"Predict what happens if a token's value changes: every token in the "+
				"cascade is re-derived through its own rule against the hypothetical "+
				"value, with per-token confidence, an aggregate impact score, and a "+
				"risk assessment. The registry is not modified.",
		),
		mcp.WithString("token",
			mcp.Required(),
			mcp.Description("Token whose value would change"),
		),
		mcp.WithString("new_value",
			mcp.Required(),
			mcp.Description("Hypothetical new value, e.g. '#0055cc' or '1.25rem'"),
		),
	)
}

// Handle processes the token_predict_impact tool call.
func (t *PredictTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token := req.GetString("token", "")
	if token == "" {
		return mcp.NewToolResultError("'token' is required"), nil
	}
	newValue := req.GetString("new_value", "")
	if newValue == "" {
		return mcp.NewToolResultError("'new_value' is required"), nil
	}

	impact := t.analyzer.PredictCascadeImpact(token, newValue)

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Cascade Impact: %s → %s\n\n", token, newValue)

	if !impact.Exists {
		sb.WriteString("This token is **not registered**, so no cascade exists.\n")
		writeRecord(&sb, impact)
		return mcp.NewToolResultText(sb.String()), nil
	}

	fmt.Fprintf(&sb, "- **Affected tokens**: %d\n", len(impact.AffectedTokens))
	fmt.Fprintf(&sb, "- **Impact score**: %.2f\n", impact.ImpactScore)
	fmt.Fprintf(&sb, "- **Average confidence**: %.2f\n", impact.AverageConfidence)
	fmt.Fprintf(&sb, "- **Risk**: breaking=%s visual=%s accessibility=%s consistency=%.2f\n",
		impact.Risk.BreakingChangeRisk, impact.Risk.VisualImpact,
		impact.Risk.AccessibilityRisk, impact.Risk.SemanticConsistency)

	if len(impact.AffectedTokens) > 0 {
		sb.WriteString("\n### Predicted values\n\n")
		for i, pred := range impact.AffectedTokens {
			if i == maxAffectedRows {
				fmt.Fprintf(&sb, "- ... and %d more (see JSON record)\n",
					len(impact.AffectedTokens)-maxAffectedRows)
				break
			}
			note := ""
			if pred.ManuallyManaged {
				note = " (manually managed, kept as-is)"
			}
			fmt.Fprintf(&sb, "- **%s**: `%s` → `%s` (confidence %.2f)%s\n",
				pred.Token, pred.CurrentValue, pred.PredictedValue, pred.Confidence, note)
		}
	}

	if len(impact.Recommendations) > 0 {
		sb.WriteString("\n### Recommendations\n\n")
		for _, rec := range impact.Recommendations {
			fmt.Fprintf(&sb, "- %s\n", rec)
		}
	}

	writeRecord(&sb, impact)
	return mcp.NewToolResultText(sb.String()), nil
}
