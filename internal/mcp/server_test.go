package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/KRSaiVarun/pdf-analysis-tool/internal/llm"
)

// fakeProvider stands in for a hosted model in tool tests.
type fakeProvider struct {
	response string
	err      error
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string, opts llm.CompletionOpts) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeProvider) Name() string  { return "fake/test-model" }
func (f *fakeProvider) Model() string { return "test-model" }

// buildPDF assembles a minimal one-page PDF with the given content stream.
func buildPDF(contentStream string) []byte {
	var buf bytes.Buffer
	offsets := make([]int, 7)

	writeObj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	buf.WriteString("%PDF-1.4\n")
	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	writeObj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>")
	writeObj(4, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(contentStream), contentStream))
	writeObj(5, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	writeObj(6, "<< /Title (Quarterly Report) /Author (Finance Team) >>")

	xrefPos := buf.Len()
	buf.WriteString("xref\n0 7\n")
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 6; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 7 /Root 1 0 R /Info 6 0 R >>\nstartxref\n%d\n%%%%EOF\n", xrefPos)
	return buf.Bytes()
}

func writeFixture(t *testing.T, contentStream string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.pdf")
	if err := os.WriteFile(path, buildPDF(contentStream), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

// callTool invokes an MCP tool through the server's JSON-RPC entry point.
func callTool(t *testing.T, srv *server.MCPServer, name string, args map[string]interface{}) *mcplib.CallToolResult {
	t.Helper()

	result := srv.HandleMessage(context.Background(), mustMarshal(t, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      name,
			"arguments": args,
		},
	}))

	respBytes, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}

	var resp struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("unmarshal response: %v\nraw: %s", err, string(respBytes))
	}

	if resp.Error != nil {
		t.Fatalf("JSON-RPC error: %d %s", resp.Error.Code, resp.Error.Message)
	}

	callResult := &mcplib.CallToolResult{
		IsError: resp.Result.IsError,
	}
	for _, c := range resp.Result.Content {
		if c.Type == "text" {
			callResult.Content = append(callResult.Content, mcplib.NewTextContent(c.Text))
		}
	}
	return callResult
}

// readResource reads an MCP resource through the JSON-RPC entry point.
func readResource(t *testing.T, srv *server.MCPServer, uri string) string {
	t.Helper()

	result := srv.HandleMessage(context.Background(), mustMarshal(t, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "resources/read",
		"params": map[string]interface{}{
			"uri": uri,
		},
	}))

	respBytes, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}

	var resp struct {
		Result struct {
			Contents []struct {
				URI      string `json:"uri"`
				MIMEType string `json:"mimeType"`
				Text     string `json:"text"`
			} `json:"contents"`
		} `json:"result"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("unmarshal response: %v\nraw: %s", err, string(respBytes))
	}
	if resp.Error != nil {
		t.Fatalf("JSON-RPC error: %d %s", resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Result.Contents) == 0 {
		t.Fatal("no resource contents")
	}
	return resp.Result.Contents[0].Text
}

func mustMarshal(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func getTextContent(t *testing.T, result *mcplib.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcplib.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("no text content found")
	return ""
}

func TestNewServer(t *testing.T) {
	srv := NewServer(ServerConfig{Version: "test"})
	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
}

func TestPDFExtractTool(t *testing.T) {
	path := writeFixture(t, "BT /F1 12 Tf 72 712 Td (Revenue grew steadily) Tj ET")
	srv := NewServer(ServerConfig{})

	result := callTool(t, srv, "pdf_extract", map[string]interface{}{"path": path})
	if result.IsError {
		t.Fatalf("tool error: %s", getTextContent(t, result))
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &payload); err != nil {
		t.Fatalf("parsing payload: %v", err)
	}
	if !strings.Contains(payload["text"].(string), "Revenue") {
		t.Errorf("text missing content: %v", payload["text"])
	}
	if payload["page_count"].(float64) != 1 {
		t.Errorf("page_count = %v, want 1", payload["page_count"])
	}
}

func TestPDFExtractToolMissingFile(t *testing.T) {
	srv := NewServer(ServerConfig{})

	result := callTool(t, srv, "pdf_extract", map[string]interface{}{
		"path": filepath.Join(t.TempDir(), "absent.pdf"),
	})
	if !result.IsError {
		t.Fatal("expected tool error for missing file")
	}
	if !strings.Contains(getTextContent(t, result), "file not found") {
		t.Errorf("unexpected error text: %s", getTextContent(t, result))
	}
}

func TestPDFMetadataTool(t *testing.T) {
	path := writeFixture(t, "BT /F1 12 Tf 72 712 Td (body) Tj ET")
	srv := NewServer(ServerConfig{})

	result := callTool(t, srv, "pdf_metadata", map[string]interface{}{"path": path})
	if result.IsError {
		t.Fatalf("tool error: %s", getTextContent(t, result))
	}

	var md map[string]interface{}
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &md); err != nil {
		t.Fatalf("parsing metadata: %v", err)
	}
	if md["title"] != "Quarterly Report" {
		t.Errorf("title = %v, want Quarterly Report", md["title"])
	}
	if md["page_count"].(float64) != 1 {
		t.Errorf("page_count = %v, want 1", md["page_count"])
	}
}

func TestPDFRowsTool(t *testing.T) {
	content := "BT /F1 12 Tf 72 712 Td (Alpha) Tj ET BT /F1 12 Tf 72 600 Td (Beta) Tj ET"
	path := writeFixture(t, content)
	srv := NewServer(ServerConfig{})

	result := callTool(t, srv, "pdf_rows", map[string]interface{}{"path": path})
	if result.IsError {
		t.Fatalf("tool error: %s", getTextContent(t, result))
	}

	var payload struct {
		Rows  []string `json:"rows"`
		Count int      `json:"count"`
	}
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &payload); err != nil {
		t.Fatalf("parsing payload: %v", err)
	}
	if payload.Count != 2 {
		t.Errorf("count = %d, want 2: %q", payload.Count, payload.Rows)
	}
}

func TestTextEntitiesTool(t *testing.T) {
	srv := NewServer(ServerConfig{})

	result := callTool(t, srv, "text_entities", map[string]interface{}{
		"text": "Contact billing@acme.com or call 555-123-4567.",
	})
	if result.IsError {
		t.Fatalf("tool error: %s", getTextContent(t, result))
	}

	var entities map[string][]string
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &entities); err != nil {
		t.Fatalf("parsing entities: %v", err)
	}
	if len(entities["emails"]) != 1 || entities["emails"][0] != "billing@acme.com" {
		t.Errorf("emails = %v", entities["emails"])
	}
	if len(entities["phone_numbers"]) != 1 {
		t.Errorf("phone_numbers = %v", entities["phone_numbers"])
	}
}

func TestTextStatsTool(t *testing.T) {
	srv := NewServer(ServerConfig{})

	result := callTool(t, srv, "text_stats", map[string]interface{}{
		"text": "Hello world. Bye now!",
	})
	if result.IsError {
		t.Fatalf("tool error: %s", getTextContent(t, result))
	}

	var stats map[string]interface{}
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &stats); err != nil {
		t.Fatalf("parsing stats: %v", err)
	}
	if stats["word_count"].(float64) != 4 {
		t.Errorf("word_count = %v, want 4", stats["word_count"])
	}
	if stats["sentence_count"].(float64) != 2 {
		t.Errorf("sentence_count = %v, want 2", stats["sentence_count"])
	}

	empty := callTool(t, srv, "text_stats", map[string]interface{}{"text": ""})
	if got := getTextContent(t, empty); got != "{}" {
		t.Errorf("empty input stats = %q, want {}", got)
	}
}

func TestTextKeywordsTool(t *testing.T) {
	srv := NewServer(ServerConfig{})

	result := callTool(t, srv, "text_keywords", map[string]interface{}{
		"text":  "network network network latency latency throughput",
		"top_n": float64(2),
	})
	if result.IsError {
		t.Fatalf("tool error: %s", getTextContent(t, result))
	}

	var payload struct {
		Keywords []string `json:"keywords"`
		Count    int      `json:"count"`
	}
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &payload); err != nil {
		t.Fatalf("parsing payload: %v", err)
	}
	if payload.Count != 2 {
		t.Fatalf("count = %d, want 2", payload.Count)
	}
	if payload.Keywords[0] != "network" || payload.Keywords[1] != "latency" {
		t.Errorf("keywords = %v", payload.Keywords)
	}
}

func TestListTasksTool(t *testing.T) {
	srv := NewServer(ServerConfig{})

	result := callTool(t, srv, "list_tasks", map[string]interface{}{})
	if result.IsError {
		t.Fatalf("tool error: %s", getTextContent(t, result))
	}

	var payload struct {
		Tasks []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"tasks"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &payload); err != nil {
		t.Fatalf("parsing payload: %v", err)
	}
	if payload.Count != 5 {
		t.Errorf("count = %d, want 5", payload.Count)
	}
	names := map[string]bool{}
	for _, task := range payload.Tasks {
		names[task.Name] = true
	}
	for _, want := range []string{"general", "summary", "medical", "invoice", "research"} {
		if !names[want] {
			t.Errorf("missing task %s in %v", want, names)
		}
	}
}

func TestPDFAnalyzeTool(t *testing.T) {
	path := writeFixture(t, "BT /F1 12 Tf 72 712 Td (Revenue grew steadily this quarter) Tj ET")
	srv := NewServer(ServerConfig{
		Provider: &fakeProvider{response: `{"document_type": "report", "summary": "Growth quarter."}`},
	})

	result := callTool(t, srv, "pdf_analyze", map[string]interface{}{"path": path})
	if result.IsError {
		t.Fatalf("tool error: %s", getTextContent(t, result))
	}

	var env struct {
		Source   map[string]interface{} `json:"source"`
		Analysis map[string]interface{} `json:"analysis"`
		Keywords []string               `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &env); err != nil {
		t.Fatalf("parsing envelope: %v", err)
	}
	if env.Analysis["document_type"] != "report" {
		t.Errorf("document_type = %v", env.Analysis["document_type"])
	}
	if env.Analysis["analysis_type"] != "general" {
		t.Errorf("analysis_type = %v, want general", env.Analysis["analysis_type"])
	}
	if env.Analysis["model_used"] != "test-model" {
		t.Errorf("model_used = %v", env.Analysis["model_used"])
	}
	if env.Source["page_count"].(float64) != 1 {
		t.Errorf("source page_count = %v", env.Source["page_count"])
	}
	if len(env.Keywords) == 0 {
		t.Error("expected keyword sidecar")
	}
}

func TestPDFAnalyzeToolMedicalFallback(t *testing.T) {
	path := writeFixture(t, "BT /F1 12 Tf 72 712 Td (Name: John Doe Lab No: 123) Tj ET")
	srv := NewServer(ServerConfig{
		Provider: &fakeProvider{err: errors.New("model unavailable")},
	})

	result := callTool(t, srv, "pdf_analyze", map[string]interface{}{
		"path": path,
		"task": "medical",
	})
	if result.IsError {
		t.Fatalf("tool error: %s", getTextContent(t, result))
	}

	var env struct {
		Analysis      map[string]interface{} `json:"analysis"`
		Degraded      bool                   `json:"degraded"`
		DegradedCause string                 `json:"degraded_cause"`
	}
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &env); err != nil {
		t.Fatalf("parsing envelope: %v", err)
	}
	if !env.Degraded {
		t.Fatal("expected degraded analysis")
	}
	if !strings.Contains(env.DegradedCause, "model unavailable") {
		t.Errorf("degraded_cause = %q", env.DegradedCause)
	}
	if env.Analysis["analysis_type"] != "medical" {
		t.Errorf("analysis_type = %v", env.Analysis["analysis_type"])
	}
	if env.Analysis["model_used"] != "regex-fallback" {
		t.Errorf("model_used = %v", env.Analysis["model_used"])
	}
}

func TestPDFAnalyzeToolUnknownTask(t *testing.T) {
	path := writeFixture(t, "BT /F1 12 Tf 72 712 Td (text) Tj ET")
	srv := NewServer(ServerConfig{Provider: &fakeProvider{response: "{}"}})

	result := callTool(t, srv, "pdf_analyze", map[string]interface{}{
		"path": path,
		"task": "astrology",
	})
	if !result.IsError {
		t.Fatal("expected tool error for unknown task")
	}
}

func TestAnalysisToolsWithoutProvider(t *testing.T) {
	path := writeFixture(t, "BT /F1 12 Tf 72 712 Td (text) Tj ET")
	srv := NewServer(ServerConfig{})

	for name, args := range map[string]map[string]interface{}{
		"pdf_analyze":   {"path": path},
		"doc_summarize": {"text": "some text"},
		"doc_classify":  {"text": "some text"},
	} {
		result := callTool(t, srv, name, args)
		if !result.IsError {
			t.Errorf("%s: expected error without provider", name)
			continue
		}
		if !strings.Contains(getTextContent(t, result), "no model provider") {
			t.Errorf("%s: unexpected error text: %s", name, getTextContent(t, result))
		}
	}
}

func TestDocSummarizeTool(t *testing.T) {
	srv := NewServer(ServerConfig{
		Provider: &fakeProvider{response: "A short summary."},
	})

	result := callTool(t, srv, "doc_summarize", map[string]interface{}{
		"text":      "A long document about networks.",
		"max_words": float64(50),
	})
	if result.IsError {
		t.Fatalf("tool error: %s", getTextContent(t, result))
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &payload); err != nil {
		t.Fatalf("parsing payload: %v", err)
	}
	if payload["summary"] != "A short summary." {
		t.Errorf("summary = %q", payload["summary"])
	}
}

func TestDocInsightsTool(t *testing.T) {
	srv := NewServer(ServerConfig{
		Provider: &fakeProvider{response: `{"insights": ["first point", "second point"]}`},
	})

	result := callTool(t, srv, "doc_insights", map[string]interface{}{
		"text":  "Document body.",
		"count": float64(2),
	})
	if result.IsError {
		t.Fatalf("tool error: %s", getTextContent(t, result))
	}

	var payload struct {
		Insights []string `json:"insights"`
		Count    int      `json:"count"`
	}
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &payload); err != nil {
		t.Fatalf("parsing payload: %v", err)
	}
	if payload.Count != 2 || payload.Insights[0] != "first point" {
		t.Errorf("insights = %v", payload.Insights)
	}
}

func TestDocClassifyTool(t *testing.T) {
	srv := NewServer(ServerConfig{
		Provider: &fakeProvider{response: `{"document_type": "invoice", "confidence_score": 0.9}`},
	})

	result := callTool(t, srv, "doc_classify", map[string]interface{}{
		"text": "Invoice #42, total due $100.",
	})
	if result.IsError {
		t.Fatalf("tool error: %s", getTextContent(t, result))
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &payload); err != nil {
		t.Fatalf("parsing payload: %v", err)
	}
	if payload["document_type"] != "invoice" {
		t.Errorf("document_type = %v", payload["document_type"])
	}
}

func TestDocRecommendationsTool(t *testing.T) {
	srv := NewServer(ServerConfig{
		Provider: &fakeProvider{response: `{"recommendations": ["do this", "then that"]}`},
	})

	result := callTool(t, srv, "doc_recommendations", map[string]interface{}{
		"text":          "Report body.",
		"analysis_type": "business",
	})
	if result.IsError {
		t.Fatalf("tool error: %s", getTextContent(t, result))
	}

	var payload struct {
		Recommendations []string `json:"recommendations"`
		Count           int      `json:"count"`
	}
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &payload); err != nil {
		t.Fatalf("parsing payload: %v", err)
	}
	if payload.Count != 2 {
		t.Errorf("recommendations = %v", payload.Recommendations)
	}
}

func TestTasksResource(t *testing.T) {
	srv := NewServer(ServerConfig{})

	text := readResource(t, srv, "pdf-analyze://tasks")

	var payload struct {
		Tasks []struct {
			Name         string  `json:"name"`
			SystemPrompt string  `json:"system_prompt"`
			Temperature  float64 `json:"temperature"`
		} `json:"tasks"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		t.Fatalf("parsing resource: %v", err)
	}
	if payload.Count != 5 {
		t.Errorf("count = %d, want 5", payload.Count)
	}
	for _, task := range payload.Tasks {
		if task.Name == "medical" && task.Temperature != 0.1 {
			t.Errorf("medical temperature = %v, want 0.1", task.Temperature)
		}
		if task.SystemPrompt == "" {
			t.Errorf("task %s has empty system prompt", task.Name)
		}
	}
}
