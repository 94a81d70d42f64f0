package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const version = "0.1.0-dev"

// Global flags may appear anywhere on the command line. parseGlobalFlags
// records them and hands back the remaining arguments in order.
var (
	globalConfigPath string
	globalModel      string
	globalVerbose    bool
)

func main() {
	args := parseGlobalFlags(os.Args[1:])

	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	cmd, rest := args[0], args[1:]

	var err error
	switch cmd {
	case "analyze":
		err = runAnalyze(rest)
	case "extract":
		err = runExtract(rest)
	case "metadata":
		err = runMetadata(rest)
	case "rows":
		err = runRows(rest)
	case "tasks":
		err = runTasks(rest)
	case "config":
		err = runConfig(rest)
	case "mcp":
		err = runMCP(rest)
	case "version", "--version", "-v":
		fmt.Printf("pdf-analyze %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		if strings.HasPrefix(cmd, "-") {
			fmt.Fprintf(os.Stderr, "Unknown flag: %s\n\n", cmd)
			printUsage()
			os.Exit(1)
		}
		// A bare path is shorthand for the analyze command.
		err = runAnalyze(args)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseGlobalFlags(args []string) []string {
	var rest []string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--config" && i+1 < len(args):
			i++
			globalConfigPath = args[i]
		case strings.HasPrefix(args[i], "--config="):
			globalConfigPath = strings.TrimPrefix(args[i], "--config=")
		case (args[i] == "--model" || args[i] == "-m") && i+1 < len(args):
			i++
			globalModel = args[i]
		case strings.HasPrefix(args[i], "--model="):
			globalModel = strings.TrimPrefix(args[i], "--model=")
		case args[i] == "--verbose":
			globalVerbose = true
		default:
			rest = append(rest, args[i])
		}
	}
	return rest
}

// newLogger routes diagnostics to stderr so stdout stays parseable.
// Verbose mode lowers the threshold to debug.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if globalVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func printUsage() {
	fmt.Printf(`pdf-analyze %s — PDF text extraction and model-backed document analysis

Usage:
  pdf-analyze <file.pdf> [flags]
  pdf-analyze <command> [arguments]

Commands:
  analyze <file.pdf>   Extract text and run an analysis task (the default)
  extract <file.pdf>   Print extracted text without any model call
  metadata <file.pdf>  Print document metadata as JSON
  rows <file.pdf>      Print row-grouped text for tabular PDFs
  tasks                List the built-in analysis tasks
  config               Show the resolved configuration and where it came from
  mcp                  Serve the toolset over MCP on stdin/stdout
  version              Print version

Analyze Flags:
  -t, --task <name>    Analysis task (default: general)
  -o, --output <path>  Write the report to a file instead of stdout
  -f, --format <fmt>   Report format: text or json (default: text)

Flags:
  -m, --model <p/m>    Model as provider/model, e.g. deepseek/deepseek-chat
      --config <path>  Config file (default: ~/.pdf-analyze/config.yaml)
      --verbose        Verbose progress and debug logging
  -h, --help           Show this help message
  -v, --version        Print version

Environment:
  DEEPSEEK_API_KEY     Key for the default DeepSeek provider
  OPENAI_API_KEY       Key for the OpenAI provider
  PDF_ANALYZE_MODEL    Default model override (provider/model)

Documentation:
  https://github.com/KRSaiVarun/pdf-analysis-tool
`, version)
}
