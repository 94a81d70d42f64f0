// Package report renders analysis results as JSON or human-readable text.
// The JSON form is lossless; the text form renders a curated subset of
// well-known fields for terminal reading.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/KRSaiVarun/pdf-analysis-tool/internal/pdfx"
	"github.com/KRSaiVarun/pdf-analysis-tool/internal/textutil"
)

const (
	bannerWidth  = 60
	sectionWidth = 40
)

var (
	banner     = strings.Repeat("=", bannerWidth)
	sectionBar = strings.Repeat("-", sectionWidth)
	titleCaser = cases.Title(language.English)
)

// Source records where the analyzed text came from.
type Source struct {
	Path           string `json:"path"`
	PageCount      int    `json:"page_count"`
	PagesExtracted int    `json:"pages_extracted"`
	TextLength     int    `json:"text_length"`
}

// Envelope is the JSON report shape: the model (or fallback) analysis plus
// the locally computed text-pipeline sidecars.
type Envelope struct {
	Source        *Source              `json:"source,omitempty"`
	Analysis      map[string]any       `json:"analysis"`
	Degraded      bool                 `json:"degraded,omitempty"`
	DegradedCause string               `json:"degraded_cause,omitempty"`
	Entities      map[string][]string  `json:"entities,omitempty"`
	Statistics    *textutil.Statistics `json:"statistics,omitempty"`
	Keywords      []string             `json:"keywords,omitempty"`
	PDFMetadata   *pdfx.Metadata       `json:"pdf_metadata,omitempty"`
}

// JSON renders v as two-space-indented UTF-8 JSON. HTML escaping is off so
// characters like & and < survive verbatim.
func JSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Text renders an analysis for terminal reading. Medical analyses get the
// laboratory-report layout; everything else gets the generic layout.
func Text(analysis map[string]any) string {
	if asString(analysis["analysis_type"]) == "medical" {
		return medicalText(analysis)
	}

	lines := []string{banner, "PDF ANALYSIS REPORT", banner, ""}

	if v, ok := analysis["document_type"]; ok {
		lines = append(lines, "Document Type: "+asString(v), "")
	}
	if v, ok := analysis["summary"]; ok {
		lines = append(lines, "SUMMARY:", sectionBar, asString(v), "")
	}
	if items := asList(analysis["key_insights"]); len(items) > 0 {
		lines = append(lines, "KEY INSIGHTS:", sectionBar)
		lines = append(lines, numbered(items)...)
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// medicalText mirrors the laboratory-report layout: summary, then
// interpretations as key insights, critical findings, recommendations,
// patient details, and the disclaimer.
func medicalText(analysis map[string]any) string {
	lines := []string{banner, "PDF ANALYSIS REPORT (MEDICAL ANALYSIS)", banner}
	lines = append(lines, "Document Type: Medical Laboratory Report - Comprehensive Health Checkup", "")

	if v, ok := analysis["summary"]; ok {
		lines = append(lines, "SUMMARY:", sectionBar, asString(v), "")
	}
	if items := asList(analysis["interpretations"]); len(items) > 0 {
		lines = append(lines, "KEY INSIGHTS:", sectionBar)
		lines = append(lines, numbered(items)...)
		lines = append(lines, "")
	}
	if items := asList(analysis["critical_findings"]); len(items) > 0 {
		lines = append(lines, "CRITICAL FINDINGS:", sectionBar)
		lines = append(lines, numbered(items)...)
		lines = append(lines, "")
	}
	if items := asList(analysis["recommendations"]); len(items) > 0 {
		lines = append(lines, "RECOMMENDATIONS:", sectionBar)
		lines = append(lines, numbered(items)...)
		lines = append(lines, "")
	}
	if details, ok := analysis["patient_details"].(map[string]any); ok && len(details) > 0 {
		lines = append(lines, "PATIENT DETAILS:", sectionBar)
		lines = append(lines, patientDetailLines(details)...)
		lines = append(lines, "")
	}
	if v, ok := analysis["disclaimer"]; ok {
		lines = append(lines, "DISCLAIMER:", sectionBar, asString(v), "")
	}
	return strings.Join(lines, "\n")
}

// patientDetailOrder fixes the rendering order of the regex-extracted
// identifier fields; anything else the model adds follows, sorted by key.
var patientDetailOrder = []string{"name", "age", "gender", "lab_no", "collected_date", "reported_date"}

func patientDetailLines(details map[string]any) []string {
	keys := make([]string, 0, len(details))
	known := make(map[string]bool, len(patientDetailOrder))
	for _, k := range patientDetailOrder {
		known[k] = true
		if _, ok := details[k]; ok {
			keys = append(keys, k)
		}
	}
	extras := make([]string, 0, len(details))
	for k := range details {
		if !known[k] {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	keys = append(keys, extras...)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		label := titleCaser.String(strings.ReplaceAll(k, "_", " "))
		lines = append(lines, fmt.Sprintf("- %s: %s", label, asString(details[k])))
	}
	return lines
}

func numbered(items []string) []string {
	lines := make([]string, 0, len(items))
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, item))
	}
	return lines
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}

func asList(v any) []string {
	switch items := v.(type) {
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, asString(item))
		}
		return out
	default:
		return nil
	}
}

// Write saves a rendered report to path, creating parent directories as
// needed.
func Write(path, content string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing report to %s: %w", path, err)
	}
	return nil
}
