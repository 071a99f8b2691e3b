// Command tokengraph inspects and analyzes design token collections from
// the command line.
//
// Every analysis command loads a collection file (YAML or JSON), runs the
// requested operation in process, and prints either a styled report or,
// with -json, the raw analysis record.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rafters-design/tokengraph/pkg/collection"
	gql "github.com/rafters-design/tokengraph/pkg/graphql"
	"github.com/rafters-design/tokengraph/pkg/history"
	"github.com/rafters-design/tokengraph/pkg/intelligence"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "analyze":
		runAnalyze(args)
	case "validate":
		runValidate(args)
	case "execute":
		runExecute(args)
	case "predict":
		runPredict(args)
	case "query":
		runQuery(args)
	case "cycles":
		runCycles(args)
	case "stats":
		runStats(args)
	case "history":
		runHistory(args)
	case "help", "--help", "-h":
		printUsage()
	case "version", "--version", "-v":
		fmt.Printf("tokengraph %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// commonFlags registers the flags every analysis command shares.
func commonFlags(fs *flag.FlagSet) (collectionPath *string, jsonOut *bool) {
	collectionPath = fs.String("collection", getEnvOrDefault("TOKENGRAPH_COLLECTION", ""), "Token collection file (YAML or JSON)")
	jsonOut = fs.Bool("json", false, "Print the raw record as JSON")
	return collectionPath, jsonOut
}

// loadAnalyzer loads the collection and wraps it in an analyzer. Loader
// findings are reported on stderr but do not abort: a partially loaded
// collection is still analyzable.
func loadAnalyzer(path string) *intelligence.Analyzer {
	if path == "" {
		fail("no collection given: pass -collection or set TOKENGRAPH_COLLECTION")
	}

	res, err := collection.Load(path)
	if err != nil {
		fail("load collection: %v", err)
	}
	for _, f := range res.Findings {
		fmt.Fprintf(os.Stderr, "%s %s: %s\n", warnStyle.Render("!"), f.Token, f.Message)
	}

	return intelligence.NewAnalyzer(res.Registry)
}

func runAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	collectionPath, jsonOut := commonFlags(fs)
	indirect := fs.Bool("indirect", false, "Include transitive dependencies")
	depth := fs.Int("depth", 0, "Traversal depth cap (0 uses the engine default)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fail("usage: tokengraph analyze [flags] <token>")
	}

	a := loadAnalyzer(*collectionPath)
	res := a.AnalyzeDependencies(fs.Arg(0), intelligence.AnalyzeOptions{
		IncludeIndirect: *indirect,
		MaxDepth:        *depth,
	})

	if *jsonOut {
		printJSON(res)
		return
	}
	renderAnalysis(res)
}

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	collectionPath, jsonOut := commonFlags(fs)
	fs.Parse(args)

	a := loadAnalyzer(*collectionPath)
	changes, err := readChanges(fs.Arg(0))
	if err != nil {
		fail("read changes: %v", err)
	}
	res := a.ValidateChanges(changes)

	if *jsonOut {
		printJSON(res)
	} else {
		renderValidation(res)
	}
	if !res.IsValid {
		os.Exit(1)
	}
}

// readChanges decodes a change batch from path, or from stdin when path
// is empty or "-".
func readChanges(path string) ([]intelligence.ChangeRequest, error) {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var changes []intelligence.ChangeRequest
	if err := json.Unmarshal(data, &changes); err != nil {
		return nil, fmt.Errorf("changes must be a JSON array of change objects: %w", err)
	}
	return changes, nil
}

func runExecute(args []string) {
	fs := flag.NewFlagSet("execute", flag.ExitOnError)
	collectionPath, jsonOut := commonFlags(fs)
	deps := fs.String("deps", "", "Comma-separated dependency names")
	overrides := fs.String("overrides", "", `JSON object of value overrides, e.g. '{"spacing-unit":"0.5rem"}'`)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fail("usage: tokengraph execute [flags] <token> <rule>")
	}

	ctx := intelligence.ExecutionContext{Dependencies: splitList(*deps)}
	if *overrides != "" {
		if err := json.Unmarshal([]byte(*overrides), &ctx.Overrides); err != nil {
			fail("-overrides must be a JSON object of string values: %v", err)
		}
	}

	a := loadAnalyzer(*collectionPath)
	res := a.ExecuteRule(fs.Arg(0), fs.Arg(1), ctx)

	if *jsonOut {
		printJSON(res)
		return
	}
	renderExecution(res)
}

func runPredict(args []string) {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	collectionPath, jsonOut := commonFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fail("usage: tokengraph predict [flags] <token> <new-value>")
	}

	a := loadAnalyzer(*collectionPath)
	res := a.PredictCascadeImpact(fs.Arg(0), fs.Arg(1))

	if *jsonOut {
		printJSON(res)
		return
	}
	renderImpact(res)
}

func runQuery(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	collectionPath, jsonOut := commonFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fail("usage: tokengraph query [flags] '<graphql query>'")
	}

	a := loadAnalyzer(*collectionPath)
	schema, err := gql.GenerateSchema(a)
	if err != nil {
		fail("generate schema: %v", err)
	}

	result := gql.ExecuteQuery(fs.Arg(0), schema)
	for _, qerr := range result.Errors {
		fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("✗"), qerr.Message)
	}

	if *jsonOut {
		printJSON(result)
	} else if result.Data != nil {
		printJSON(result.Data)
	}
	if result.HasErrors() {
		os.Exit(1)
	}
}

func runCycles(args []string) {
	fs := flag.NewFlagSet("cycles", flag.ExitOnError)
	collectionPath, jsonOut := commonFlags(fs)
	fs.Parse(args)

	a := loadAnalyzer(*collectionPath)
	cycles := a.Registry().Graph().DetectCycles()

	if *jsonOut {
		if cycles == nil {
			cycles = [][]string{}
		}
		printJSON(cycles)
	} else if len(cycles) == 0 {
		fmt.Printf("%s no circular dependencies\n", okStyle.Render("✓"))
	} else {
		for _, cycle := range cycles {
			fmt.Printf("%s %s\n", errorStyle.Render("✗"), strings.Join(cycle, " -> "))
		}
	}
	if len(cycles) > 0 {
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	collectionPath, jsonOut := commonFlags(fs)
	fs.Parse(args)

	a := loadAnalyzer(*collectionPath)

	if *jsonOut {
		printJSON(a.Registry().Stats())
		return
	}
	renderStats(a.Registry())
}

func runHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "Print entries and stats as JSON")
	service := fs.String("service", "", "Filter by service (cascade-prediction, rule-execution)")
	token := fs.String("token", "", "Filter by token name")
	validated := fs.Bool("validated", false, "Only entries with a validated outcome")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fail("usage: tokengraph history [flags] <segment-file>")
	}

	r, err := history.OpenSegmentReader(fs.Arg(0))
	if err != nil {
		fail("open segment: %v", err)
	}
	defer r.Close()

	entries, err := r.Entries(&history.Filter{
		Service:       *service,
		TokenName:     *token,
		OnlyValidated: *validated,
	})
	if err != nil {
		fail("read segment: %v", err)
	}
	stats, err := r.Stats()
	if err != nil {
		fail("segment stats: %v", err)
	}

	if *jsonOut {
		printJSON(struct {
			Entries []history.Entry `json:"entries"`
			Stats   history.Stats   `json:"stats"`
		}{entries, stats})
		return
	}
	renderHistory(entries, stats)
}

// splitList turns a comma-separated flag value into trimmed names.
func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("✗"), fmt.Sprintf(format, args...))
	os.Exit(1)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fail("encode result: %v", err)
	}
	fmt.Println(string(data))
}

func printUsage() {
	usage := `tokengraph - design token dependency analysis

Usage:
  tokengraph <command> [flags] [args]

Available Commands:
  analyze     Analyze a token's dependencies and cascade scope
  validate    Validate a batch of proposed changes
  execute     Execute a derivation rule against the collection
  predict     Predict the cascade impact of a value change
  query       Run a GraphQL query against the collection
  cycles      Report circular dependencies
  stats       Show collection statistics
  history     Inspect a prediction history segment
  help        Show this help message
  version     Show version information

Analysis commands read the collection named by -collection or the
TOKENGRAPH_COLLECTION environment variable. Flags come before
positional arguments. Add -json to any command for the raw record.

Examples:
  # Analyze a token, including transitive dependencies
  tokengraph analyze -collection theme.yaml -indirect spacing-lg

  # Validate a change batch from a file (or "-" for stdin)
  tokengraph validate -collection theme.yaml changes.json

  # What-if execution with value overrides
  tokengraph execute -collection theme.yaml -overrides '{"spacing-unit":"0.5rem"}' spacing-md 'calc({spacing-unit} * 4)'

  # Predict the cascade of changing a brand color
  tokengraph predict -collection theme.yaml brand '#0055CC'

  # Query the collection over GraphQL
  tokengraph query -collection theme.yaml '{ stats { tokens rules edges } }'

  # Inspect predictions recorded by the MCP server
  tokengraph history -service cascade-prediction predictions.seg

Use "tokengraph <command> --help" for more information about a command.
`
	fmt.Print(usage)
}
