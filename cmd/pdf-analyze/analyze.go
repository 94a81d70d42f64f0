package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/KRSaiVarun/pdf-analysis-tool/internal/analyze"
	"github.com/KRSaiVarun/pdf-analysis-tool/internal/config"
	"github.com/KRSaiVarun/pdf-analysis-tool/internal/llm"
	"github.com/KRSaiVarun/pdf-analysis-tool/internal/pdfx"
	"github.com/KRSaiVarun/pdf-analysis-tool/internal/report"
	"github.com/KRSaiVarun/pdf-analysis-tool/internal/task"
	"github.com/KRSaiVarun/pdf-analysis-tool/internal/textutil"
)

type analyzeOpts struct {
	Path   string
	Task   string
	Output string
	Format string
}

func parseAnalyzeArgs(args []string) (analyzeOpts, error) {
	var opts analyzeOpts
	for i := 0; i < len(args); i++ {
		switch {
		case (args[i] == "--task" || args[i] == "-t") && i+1 < len(args):
			i++
			opts.Task = args[i]
		case strings.HasPrefix(args[i], "--task="):
			opts.Task = strings.TrimPrefix(args[i], "--task=")
		case (args[i] == "--output" || args[i] == "-o") && i+1 < len(args):
			i++
			opts.Output = args[i]
		case strings.HasPrefix(args[i], "--output="):
			opts.Output = strings.TrimPrefix(args[i], "--output=")
		case (args[i] == "--format" || args[i] == "-f") && i+1 < len(args):
			i++
			opts.Format = args[i]
		case strings.HasPrefix(args[i], "--format="):
			opts.Format = strings.TrimPrefix(args[i], "--format=")
		case strings.HasPrefix(args[i], "-"):
			return analyzeOpts{}, fmt.Errorf("unknown flag: %s", args[i])
		default:
			if opts.Path != "" {
				return analyzeOpts{}, fmt.Errorf("unexpected argument: %s", args[i])
			}
			opts.Path = args[i]
		}
	}
	if opts.Path == "" {
		return analyzeOpts{}, fmt.Errorf("usage: pdf-analyze <file.pdf> [--task <name>] [--format text|json] [--output <path>]")
	}
	return opts, nil
}

func runAnalyze(args []string) error {
	opts, err := parseAnalyzeArgs(args)
	if err != nil {
		return err
	}

	resolved, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath: globalConfigPath,
		CLIModel:   globalModel,
		CLITask:    opts.Task,
		CLIFormat:  opts.Format,
	})
	if err != nil {
		return err
	}

	taskName := resolved.Task.Value
	if _, err := task.Get(taskName); err != nil {
		return err
	}
	format := resolved.Format.Value
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q (supported: text, json)", format)
	}

	logger := newLogger()
	if globalVerbose {
		fmt.Fprintf(os.Stderr, "Processing PDF: %s\n", opts.Path)
		fmt.Fprintf(os.Stderr, "Analysis task: %s\n", taskName)
	}

	extractor := pdfx.New(logger)
	doc, err := extractor.ExtractText(opts.Path)
	if err != nil {
		return err
	}
	text := textutil.Normalize(doc.Text)
	if globalVerbose {
		fmt.Fprintf(os.Stderr, "Extracted %d characters of text\n", utf8.RuneCountInString(text))
	}

	env := &report.Envelope{
		Source: &report.Source{
			Path:           opts.Path,
			PageCount:      doc.PageCount,
			PagesExtracted: doc.PagesExtracted,
			TextLength:     utf8.RuneCountInString(text),
		},
		Entities:   textutil.Entities(text),
		Statistics: textutil.Stats(text),
		Keywords:   textutil.Keywords(text, 0),
	}
	// Metadata is a best-effort sidecar; a malformed Info dictionary should
	// not sink the analysis.
	if md, mdErr := extractor.ExtractMetadata(opts.Path); mdErr == nil {
		env.PDFMetadata = md
	}

	if globalVerbose {
		fmt.Fprintln(os.Stderr, "Performing AI analysis...")
	}

	outcome, err := analyzeText(context.Background(), resolved, logger, text, taskName)
	if err != nil {
		return err
	}
	env.Analysis = outcome.Result
	env.Degraded = outcome.Degraded
	if outcome.Cause != nil {
		env.DegradedCause = outcome.Cause.Error()
		fmt.Fprintf(os.Stderr, "⚠️  Model analysis failed (%v); report built from pattern extraction instead.\n", outcome.Cause)
	}

	var out string
	if format == "json" {
		out, err = report.JSON(env)
		if err != nil {
			return err
		}
	} else {
		out = report.Text(env.Analysis)
	}

	if opts.Output != "" {
		if err := report.Write(opts.Output, out); err != nil {
			return err
		}
		fmt.Printf("Analysis saved to: %s\n", opts.Output)
		return nil
	}
	fmt.Println(out)
	return nil
}

// analyzeText runs the task against the configured model. The medical task
// degrades to the regex synthesizer when no provider can be built; every
// other task reports the failure.
func analyzeText(ctx context.Context, resolved config.ResolvedConfig, logger *slog.Logger, text, taskName string) (analyze.Outcome, error) {
	provider, err := buildProvider(resolved, logger)
	if err != nil {
		if taskName == "medical" {
			logger.Warn("analyze.provider.unavailable", slog.String("cause", err.Error()))
			return analyze.DegradedMedical(text, err), nil
		}
		return analyze.Outcome{}, err
	}

	analyzer := analyze.New(provider, logger)
	if taskName == "medical" {
		return analyzer.MedicalReport(ctx, text), nil
	}

	result, err := analyzer.AnalyzeTask(ctx, text, taskName)
	if err != nil {
		return analyze.Outcome{}, err
	}
	return analyze.Outcome{Result: result}, nil
}

// buildProvider assembles the model client from the resolved configuration.
func buildProvider(resolved config.ResolvedConfig, logger *slog.Logger) (llm.Provider, error) {
	cfg, err := llm.ParseModelFlag(resolved.Model.Value)
	if err != nil {
		return nil, err
	}
	cfg.APIKey = resolved.APIKeyForProvider(cfg.Provider).Value
	cfg.BaseURL = resolved.BaseURL.Value
	cfg.MaxRetries = resolved.MaxRetriesOr(0)
	cfg.Timeout = resolved.TimeoutOr(0)
	cfg.Logger = logger
	return llm.NewProvider(cfg)
}
