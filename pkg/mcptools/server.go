package mcptools

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/rafters-design/tokengraph/pkg/intelligence"
)

// Version is set at build time via ldflags.
var Version = "dev"

// NewServer creates an MCP server with the four analysis tools registered
// against the given analyzer. The analyzer's registry is the server's world:
// load a collection into it before serving.
func NewServer(a *intelligence.Analyzer) *server.MCPServer {
	s := server.NewMCPServer(
		"tokengraph",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	analyzeTool := NewAnalyzeTool(a)
	s.AddTool(analyzeTool.Definition(), analyzeTool.Handle)

	validateTool := NewValidateTool(a)
	s.AddTool(validateTool.Definition(), validateTool.Handle)

	executeTool := NewExecuteTool(a)
	s.AddTool(executeTool.Definition(), executeTool.Handle)

	predictTool := NewPredictTool(a)
	s.AddTool(predictTool.Definition(), predictTool.Handle)

	return s
}

// serverInstructions tells the client how the tools fit together.
func serverInstructions() string {
	return `Tokengraph analyzes design token dependency graphs.

Typical flow:
1. token_analyze: inspect a token's dependencies, dependents, and cascade scope.
2. token_predict_impact: simulate a value change across the cascade before making it.
3. token_validate_changes: vet a batch of edits for cycles, bad rules, and missing references.
4. token_execute_rule: run rule text ad hoc, with optional overrides for what-if values.

All tools are read-only and deterministic: the same registry and arguments always
produce the same record. Every response ends with a JSON block of the full result.`
}
