// Tokengraph MCP server.
//
// Exposes the token dependency engine's analysis operations as MCP tools
// over stdio, for AI coding tools that speak the protocol.
//
// Usage:
//
//	tokengraph-mcp serve [collection.yaml]   # Start MCP server (stdio transport)
//
// Environment:
//
//	TOKENGRAPH_LOG_LEVEL   debug|info|warn|error (default: info)
//	TOKENGRAPH_HISTORY     path to a prediction log segment; recording is off when unset
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/rafters-design/tokengraph/pkg/collection"
	"github.com/rafters-design/tokengraph/pkg/history"
	"github.com/rafters-design/tokengraph/pkg/intelligence"
	"github.com/rafters-design/tokengraph/pkg/logging"
	"github.com/rafters-design/tokengraph/pkg/mcptools"
	"github.com/rafters-design/tokengraph/pkg/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		path := ""
		if len(os.Args) > 2 {
			path = os.Args[2]
		}
		if err := run(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
	case "--version", "-v", "version":
		fmt.Printf("tokengraph-mcp v%s\n", mcptools.Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run(collectionPath string) error {
	// Diagnostics go to stderr; stdout belongs to the MCP transport.
	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(os.Getenv("TOKENGRAPH_LOG_LEVEL")))

	reg := store.NewRegistry()
	if collectionPath != "" {
		timer := logging.StartTimer(logger, "collection load", logging.Path(collectionPath))
		res, err := collection.Load(collectionPath)
		if err != nil {
			timer.EndError(err)
			return fmt.Errorf("loading collection: %w", err)
		}
		timer.End()
		reg = res.Registry
		logger.Info("collection ready",
			logging.Count(res.Loaded),
			logging.Int("findings", len(res.Findings)))
		for _, f := range res.Findings {
			logger.Warn("collection finding",
				logging.TokenName(f.Token),
				logging.String("kind", f.Kind),
				logging.String("detail", f.Message))
		}
	}

	a := intelligence.NewAnalyzer(reg)
	a.SetLogger(logger)

	if histPath := os.Getenv("TOKENGRAPH_HISTORY"); histPath != "" {
		seg, err := history.NewSegmentLog(histPath)
		if err != nil {
			return fmt.Errorf("opening prediction log: %w", err)
		}
		defer seg.Close()
		a.SetHistory(seg)
		logger.Info("prediction log attached", logging.Path(histPath))
	}

	s := mcptools.NewServer(a)
	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Tokengraph MCP v%s - design token analysis over MCP

Usage:
  tokengraph-mcp serve [collection.yaml]   Start the MCP server (stdio transport)

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "tokengraph": {
        "command": "tokengraph-mcp",
        "args": ["serve", "tokens.yaml"]
      }
    }
  }
`, mcptools.Version)
}
