// Package mcptools exposes the token engine's analysis operations as MCP
// tools.
//
// Each tool follows the same pattern:
// - A struct holding the analyzer, injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Tools are read-only: they analyze, validate, execute, and predict against
// the registry the server was started with, and never mutate it. Every
// response ends with a fenced JSON block carrying the full analysis record,
// so callers that need exact values can parse instead of scraping prose.
package mcptools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// splitList parses a comma-separated argument into trimmed names,
// dropping empty segments.
func splitList(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// writeRecord appends the machine-readable record as a fenced JSON block.
func writeRecord(sb *strings.Builder, record any) {
	raw, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		fmt.Fprintf(sb, "\n_record unavailable: %v_\n", err)
		return
	}
	fmt.Fprintf(sb, "\n```json\n%s\n```\n", raw)
}

// nameList renders a name slice for a bullet line.
func nameList(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
