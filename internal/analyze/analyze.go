// Package analyze runs model-backed document analysis.
//
// One generic capability (render a task's prompts, call the provider in
// JSON mode, parse and validate the object) serves every task. Specialized
// entry points such as the medical report compose it with their own post-
// processing; the medical path additionally degrades to a regex-based
// synthesizer when the model path fails, and reports that degradation to
// the caller.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/KRSaiVarun/pdf-analysis-tool/internal/llm"
	"github.com/KRSaiVarun/pdf-analysis-tool/internal/task"
)

// Result is the open-ended key-value payload of one analysis.
type Result map[string]any

// Analyzer drives analysis tasks against a model provider.
type Analyzer struct {
	provider llm.Provider
	logger   *slog.Logger
}

// New creates an Analyzer. A nil logger falls back to slog.Default().
func New(provider llm.Provider, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{provider: provider, logger: logger}
}

// AnalyzeDocument performs one analysis task over the given text. The parsed
// model output is validated against the task's result schema (mismatches are
// logged, not fatal) and stamped with analysis_type, model_used, and
// text_length before being returned.
func (a *Analyzer) AnalyzeDocument(ctx context.Context, text string, cfg task.Config) (Result, error) {
	start := time.Now()
	textLen := utf8.RuneCountInString(text)
	a.logger.Debug("analyze.start",
		slog.String("task", cfg.Name),
		slog.Int("text_runes", textLen))

	content, err := a.provider.Complete(ctx, cfg.Render(text), llm.CompletionOpts{
		System:      cfg.SystemPrompt,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Format:      "json",
	})
	if err != nil {
		return nil, fmt.Errorf("analyzing document: %w", err)
	}

	var result Result
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("parsing analysis response: %w", err)
	}

	if schema := task.ResultSchema(cfg.Name); schema != nil {
		if err := validateAgainstSchema(schema, []byte(content)); err != nil {
			a.logger.Warn("analyze.schema.mismatch",
				slog.String("task", cfg.Name),
				slog.String("cause", err.Error()))
		}
	}

	result["analysis_type"] = cfg.Name
	result["model_used"] = a.provider.Model()
	result["text_length"] = textLen

	a.logger.Debug("analyze.done",
		slog.String("task", cfg.Name),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	return result, nil
}

// AnalyzeTask looks up a built-in task by name and runs it.
func (a *Analyzer) AnalyzeTask(ctx context.Context, text, taskName string) (Result, error) {
	cfg, err := task.Get(taskName)
	if err != nil {
		return nil, err
	}
	return a.AnalyzeDocument(ctx, text, cfg)
}

// truncateRunes caps s at n runes. Prompt budgets count characters the way
// the providers bill them, not bytes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// stringify renders one JSON array element as a string.
func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// toStrings converts a decoded JSON array field into a string slice.
func toStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, stringify(item))
	}
	return out
}
