// Package mcp provides a Model Context Protocol server for the PDF analysis
// tool.
//
// It exposes the extraction pipeline (PDF text, metadata, rows), the local
// text utilities (entities, statistics, keywords), and the model-backed
// analysis operations as MCP tools, plus the task catalog as a resource.
// Runs over stdio transport for editor and desktop clients.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/KRSaiVarun/pdf-analysis-tool/internal/analyze"
	"github.com/KRSaiVarun/pdf-analysis-tool/internal/llm"
	"github.com/KRSaiVarun/pdf-analysis-tool/internal/pdfx"
	"github.com/KRSaiVarun/pdf-analysis-tool/internal/report"
	"github.com/KRSaiVarun/pdf-analysis-tool/internal/task"
	"github.com/KRSaiVarun/pdf-analysis-tool/internal/textutil"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Version  string       // version string for MCP server info
	Provider llm.Provider // optional; analysis tools error without it
	Logger   *slog.Logger
}

// NewServer creates a configured MCP server with all tools and resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := server.NewMCPServer(
		"PDF Analyze",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	extractor := pdfx.New(logger)

	var analyzer *analyze.Analyzer
	if cfg.Provider != nil {
		analyzer = analyze.New(cfg.Provider, logger)
	}

	// Extraction tools work without a model provider.
	registerPDFExtractTool(s, extractor)
	registerPDFMetadataTool(s, extractor)
	registerPDFRowsTool(s, extractor)
	registerTextEntitiesTool(s)
	registerTextStatsTool(s)
	registerTextKeywordsTool(s)
	registerListTasksTool(s)

	// Analysis tools need the provider.
	registerPDFAnalyzeTool(s, extractor, analyzer)
	registerDocSummarizeTool(s, analyzer)
	registerDocInsightsTool(s, analyzer)
	registerDocClassifyTool(s, analyzer)
	registerDocSentimentTool(s, analyzer)
	registerDocRecommendationsTool(s, analyzer)

	registerTasksResource(s)

	return s
}

const noProviderMsg = "no model provider configured: set DEEPSEEK_API_KEY or OPENAI_API_KEY, or start the server with --model"

// --- Extraction tools ---

func registerPDFExtractTool(s *server.MCPServer, extractor *pdfx.Extractor) {
	tool := mcp.NewTool("pdf_extract",
		mcp.WithDescription("Extract and normalize the text of a PDF file. Pages without a text layer are skipped; fails only when no page yields text."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError("path is required"), nil
		}

		doc, err := extractor.ExtractText(path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("extract error: %v", err)), nil
		}
		text := textutil.Normalize(doc.Text)

		data, _ := json.MarshalIndent(map[string]any{
			"text":            text,
			"page_count":      doc.PageCount,
			"pages_extracted": doc.PagesExtracted,
			"text_length":     len([]rune(text)),
		}, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerPDFMetadataTool(s *server.MCPServer, extractor *pdfx.Extractor) {
	tool := mcp.NewTool("pdf_metadata",
		mcp.WithDescription("Read PDF document metadata: title, author, producer, dates, page count, and file size. Does not read body text."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError("path is required"), nil
		}

		md, err := extractor.ExtractMetadata(path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("metadata error: %v", err)), nil
		}
		data, _ := json.MarshalIndent(md, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerPDFRowsTool(s *server.MCPServer, extractor *pdfx.Extractor) {
	tool := mcp.NewTool("pdf_rows",
		mcp.WithDescription("Extract PDF text grouped into rows by glyph baseline, approximating tabular layout. Useful for invoices and lab reports."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError("path is required"), nil
		}

		rows, err := extractor.ExtractRows(path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("rows error: %v", err)), nil
		}
		data, _ := json.MarshalIndent(map[string]any{
			"rows":  rows,
			"count": len(rows),
		}, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

// --- Text utility tools (no model required) ---

func registerTextEntitiesTool(s *server.MCPServer) {
	tool := mcp.NewTool("text_entities",
		mcp.WithDescription("Extract emails, phone numbers, dates, and currency amounts from text using fixed patterns. Categories with no matches are omitted."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to scan"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}
		data, _ := json.MarshalIndent(textutil.Entities(text), "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerTextStatsTool(s *server.MCPServer) {
	tool := mcp.NewTool("text_stats",
		mcp.WithDescription("Compute character, word, sentence, and paragraph counts plus estimated reading time. Empty input returns an empty record."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to measure"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}
		stats := textutil.Stats(text)
		if stats == nil {
			return mcp.NewToolResultText("{}"), nil
		}
		data, _ := json.MarshalIndent(stats, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerTextKeywordsTool(s *server.MCPServer) {
	tool := mcp.NewTool("text_keywords",
		mcp.WithDescription("Extract the most frequent keywords from text after stop-word removal. Ties keep first-occurrence order."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to analyze"),
		),
		mcp.WithNumber("top_n",
			mcp.Description("Number of keywords to return (default: 10)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}
		topN := 0
		if v, err := req.RequireFloat("top_n"); err == nil && v > 0 {
			topN = int(v)
		}
		keywords := textutil.Keywords(text, topN)
		data, _ := json.MarshalIndent(map[string]any{
			"keywords": keywords,
			"count":    len(keywords),
		}, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerListTasksTool(s *server.MCPServer) {
	tool := mcp.NewTool("list_tasks",
		mcp.WithDescription("List the built-in analysis tasks with their descriptions."),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		catalog := task.Catalog()
		data, _ := json.MarshalIndent(map[string]any{
			"tasks": catalog,
			"count": len(catalog),
		}, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

// --- Analysis tools ---

func registerPDFAnalyzeTool(s *server.MCPServer, extractor *pdfx.Extractor, analyzer *analyze.Analyzer) {
	tool := mcp.NewTool("pdf_analyze",
		mcp.WithDescription("Run the full pipeline on a PDF: extract text, normalize, compute entity/statistics/keyword sidecars, and produce a model-backed analysis. The medical task degrades to a regex fallback when the model call fails."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
		mcp.WithString("task",
			mcp.Description("Analysis task (default: general)"),
			mcp.Enum("general", "summary", "medical", "invoice", "research"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if analyzer == nil {
			return mcp.NewToolResultError(noProviderMsg), nil
		}

		path, err := req.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError("path is required"), nil
		}
		taskName := "general"
		if v, err := req.RequireString("task"); err == nil && v != "" {
			taskName = v
		}
		if _, err := task.Get(taskName); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		doc, err := extractor.ExtractText(path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("extract error: %v", err)), nil
		}
		text := textutil.Normalize(doc.Text)

		env := &report.Envelope{
			Source: &report.Source{
				Path:           path,
				PageCount:      doc.PageCount,
				PagesExtracted: doc.PagesExtracted,
				TextLength:     len([]rune(text)),
			},
			Entities:   textutil.Entities(text),
			Statistics: textutil.Stats(text),
			Keywords:   textutil.Keywords(text, 0),
		}
		if md, err := extractor.ExtractMetadata(path); err == nil {
			env.PDFMetadata = md
		}

		if taskName == "medical" {
			outcome := analyzer.MedicalReport(ctx, text)
			env.Analysis = outcome.Result
			env.Degraded = outcome.Degraded
			if outcome.Cause != nil {
				env.DegradedCause = outcome.Cause.Error()
			}
		} else {
			result, err := analyzer.AnalyzeTask(ctx, text, taskName)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("analysis error: %v", err)), nil
			}
			env.Analysis = result
		}

		out, err := report.JSON(env)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding report: %v", err)), nil
		}
		return mcp.NewToolResultText(out), nil
	})
}

func registerDocSummarizeTool(s *server.MCPServer, analyzer *analyze.Analyzer) {
	tool := mcp.NewTool("doc_summarize",
		mcp.WithDescription("Summarize text in a bounded number of words."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to summarize"),
		),
		mcp.WithNumber("max_words",
			mcp.Description("Word budget for the summary (default: 200)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if analyzer == nil {
			return mcp.NewToolResultError(noProviderMsg), nil
		}
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}
		maxWords := 0
		if v, err := req.RequireFloat("max_words"); err == nil && v > 0 {
			maxWords = int(v)
		}

		summary, err := analyzer.Summarize(ctx, text, maxWords)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("summarize error: %v", err)), nil
		}
		data, _ := json.MarshalIndent(map[string]any{"summary": summary}, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerDocInsightsTool(s *server.MCPServer, analyzer *analyze.Analyzer) {
	tool := mcp.NewTool("doc_insights",
		mcp.WithDescription("Extract the most important insights from text as a ranked list."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to analyze"),
		),
		mcp.WithNumber("count",
			mcp.Description("Number of insights to extract (default: 5)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if analyzer == nil {
			return mcp.NewToolResultError(noProviderMsg), nil
		}
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}
		count := 0
		if v, err := req.RequireFloat("count"); err == nil && v > 0 {
			count = int(v)
		}

		insights, err := analyzer.KeyInsights(ctx, text, count)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("insights error: %v", err)), nil
		}
		data, _ := json.MarshalIndent(map[string]any{
			"insights": insights,
			"count":    len(insights),
		}, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerDocClassifyTool(s *server.MCPServer, analyzer *analyze.Analyzer) {
	tool := mcp.NewTool("doc_classify",
		mcp.WithDescription("Classify a document's type and subject matter from its text."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Document text to classify"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if analyzer == nil {
			return mcp.NewToolResultError(noProviderMsg), nil
		}
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}

		result, err := analyzer.Classify(ctx, text)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("classify error: %v", err)), nil
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerDocSentimentTool(s *server.MCPServer, analyzer *analyze.Analyzer) {
	tool := mcp.NewTool("doc_sentiment",
		mcp.WithDescription("Assess overall sentiment and emotional tone of text."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to assess"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if analyzer == nil {
			return mcp.NewToolResultError(noProviderMsg), nil
		}
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}

		result, err := analyzer.Sentiment(ctx, text)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("sentiment error: %v", err)), nil
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerDocRecommendationsTool(s *server.MCPServer, analyzer *analyze.Analyzer) {
	tool := mcp.NewTool("doc_recommendations",
		mcp.WithDescription("Generate actionable recommendations from document text."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Document text"),
		),
		mcp.WithString("analysis_type",
			mcp.Description("Domain hint for the recommendations (default: general)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if analyzer == nil {
			return mcp.NewToolResultError(noProviderMsg), nil
		}
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}
		analysisType := "general"
		if v, err := req.RequireString("analysis_type"); err == nil && v != "" {
			analysisType = v
		}

		recs, err := analyzer.Recommendations(ctx, text, analysisType)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("recommendations error: %v", err)), nil
		}
		data, _ := json.MarshalIndent(map[string]any{
			"recommendations": recs,
			"count":           len(recs),
		}, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}
