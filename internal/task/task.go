// Package task defines the analysis task catalog: named prompt templates with
// their sampling parameters and expected result shapes.
//
// The built-in registry is constructed once and never mutated afterwards;
// Get hands out value copies, so callers cannot reach the shared definitions.
// Custom tasks built with CustomTask or DomainTask live outside the registry
// and are passed to the analyzer directly.
package task

import (
	"fmt"
	"sort"
	"strings"
)

// Placeholder is the marker in a user prompt that Render replaces with the
// document text.
const Placeholder = "{text}"

// DefaultMaxTokens bounds completion length when a task does not override it.
const DefaultMaxTokens = 2000

// Config describes one analysis task.
type Config struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	SystemPrompt  string  `json:"system_prompt"`
	UserPrompt    string  `json:"user_prompt"` // contains Placeholder
	Temperature   float64 `json:"temperature"`
	MaxTokens     int     `json:"max_tokens"`
	MaxInputRunes int     `json:"max_input_runes,omitempty"` // 0 = no input cap
	Custom        bool    `json:"custom,omitempty"`
}

// Render substitutes the document text into the task's user prompt, applying
// the task's input cap first.
func (c Config) Render(text string) string {
	if c.MaxInputRunes > 0 {
		text = truncateRunes(text, c.MaxInputRunes)
	}
	return strings.ReplaceAll(c.UserPrompt, Placeholder, text)
}

// Info is a catalog entry for task listings.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Get returns the built-in task with the given name.
func Get(name string) (Config, error) {
	cfg, ok := builtins[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown task %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return cfg, nil
}

// Names lists the built-in task names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalog lists the built-in tasks with their descriptions, sorted by name.
func Catalog() []Info {
	infos := make([]Info, 0, len(builtins))
	for _, name := range Names() {
		infos = append(infos, Info{Name: name, Description: builtins[name].Description})
	}
	return infos
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// builtins is the fixed task registry. Temperatures drop as the domain gets
// stricter: exploratory analysis runs warmer than clinical or financial
// extraction.
var builtins = map[string]Config{
	"general": {
		Name:        "general",
		Description: "General purpose document analysis and summarization",
		SystemPrompt: "You are an expert document analyst. Your task is to analyze documents " +
			"and provide comprehensive insights, summaries, and structured information. " +
			"Always respond with valid JSON format.",
		UserPrompt: `Analyze the following document and provide a comprehensive analysis. Respond with a JSON object containing:
- 'document_type': The type of document (e.g., report, letter, manual)
- 'summary': A concise summary of the main content (2-3 sentences)
- 'key_insights': Array of 3-5 most important insights or findings
- 'main_topics': Array of primary topics discussed
- 'structured_data': Object with any structured information found
- 'recommendations': Array of actionable recommendations (if applicable)
- 'confidence_score': Your confidence in the analysis (0-1)

Document text:
{text}`,
		Temperature: 0.3,
		MaxTokens:   DefaultMaxTokens,
	},
	"summary": {
		Name:        "summary",
		Description: "Focused document summarization with key points extraction",
		SystemPrompt: "You are an expert at creating concise, accurate summaries of documents. " +
			"Focus on extracting the most important information and presenting it clearly. " +
			"Always respond with valid JSON format.",
		UserPrompt: `Create a comprehensive summary of the following document. Respond with a JSON object containing:
- 'executive_summary': A brief 1-2 sentence overview
- 'detailed_summary': A more comprehensive 3-4 paragraph summary
- 'key_points': Array of the most important points (5-7 items)
- 'supporting_details': Object with supporting information for key points
- 'conclusion': Main conclusion or outcome from the document
- 'word_count_original': Estimated word count of original
- 'compression_ratio': Ratio of summary to original length

Document text:
{text}`,
		Temperature: 0.3,
		MaxTokens:   DefaultMaxTokens,
	},
	"medical": {
		Name:        "medical",
		Description: "Specialized analysis for medical reports and health documents",
		SystemPrompt: "You are a senior medical analyst with expertise in clinical pathology. " +
			"Analyze medical laboratory reports with extreme attention to detail. " +
			"Extract ALL patient information, test results, reference ranges, and flags. " +
			"Provide comprehensive clinical insights and specific recommendations. " +
			"Always respond with valid JSON format containing detailed structured data. " +
			"IMPORTANT: Always include a top-level field 'analysis_type' with value 'medical'.",
		UserPrompt: `Comprehensively analyze this medical laboratory report. Respond with a detailed JSON object containing:
- 'analysis_type': always set this to 'medical'
- 'patient_details': dict with all available patient demographics
- 'test_panels': array of all test categories performed
- 'key_results': detailed dict of test categories with actual values
- 'critical_findings': array of any abnormal or concerning results
- 'interpretations': array of clinical insights for each test category
- 'recommendations': array of specific medical recommendations
- 'summary': comprehensive summary of overall health status
- 'disclaimer': appropriate medical disclaimer

Focus on accuracy and clinical relevance. Include actual values and reference ranges.

Medical report text:
{text}`,
		Temperature:   0.1,
		MaxTokens:     3000,
		MaxInputRunes: 10000,
	},
	"invoice": {
		Name:        "invoice",
		Description: "Specialized analysis for invoices, bills, and financial documents",
		SystemPrompt: "You are a financial document analysis expert. Extract and organize " +
			"information from invoices, bills, receipts, and financial statements. " +
			"Focus on accuracy and completeness of financial data extraction. " +
			"Always respond with valid JSON format.",
		UserPrompt: `Analyze this financial document and extract all relevant information. Respond with a JSON object containing:
- 'document_type': Type of financial document (invoice, receipt, bill, etc.)
- 'vendor_information': Company/vendor details (name, address, contact)
- 'customer_information': Customer/client details
- 'document_numbers': Invoice number, PO number, reference numbers
- 'dates': Invoice date, due date, service dates
- 'line_items': Detailed breakdown of items/services with quantities and prices
- 'financial_summary': Subtotal, tax, discounts, total amount
- 'payment_terms': Payment terms and conditions
- 'currency': Currency used in the document
- 'tax_information': Tax rates, tax amounts, tax IDs
- 'potential_issues': Any discrepancies or issues found
- 'verification_status': Assessment of document completeness

Financial document text:
{text}`,
		Temperature: 0.1,
		MaxTokens:   DefaultMaxTokens,
	},
	"research": {
		Name:        "research",
		Description: "Specialized analysis for research papers and academic documents",
		SystemPrompt: "You are an academic research analysis expert. Analyze research papers, " +
			"academic articles, and scholarly documents to extract key research " +
			"components and evaluate research quality. Always respond with valid JSON format.",
		UserPrompt: `Analyze this research document and extract key academic information. Respond with a JSON object containing:
- 'document_type': Type of academic document (research paper, thesis, etc.)
- 'title': Document title
- 'authors': List of authors and affiliations
- 'abstract': Abstract or summary section
- 'research_field': Field of study or discipline
- 'research_question': Main research question or hypothesis
- 'methodology': Research methodology and approach
- 'key_findings': Main research findings and results
- 'conclusions': Primary conclusions drawn
- 'contributions': Novel contributions to the field
- 'limitations': Study limitations mentioned
- 'future_work': Suggested future research directions
- 'keywords': Important keywords and terms
- 'research_quality': Assessment of research rigor and quality
- 'practical_applications': Potential real-world applications
- 'citation_potential': Assessment of citation worthiness

Research document text:
{text}`,
		Temperature:   0.2,
		MaxTokens:     DefaultMaxTokens,
		MaxInputRunes: 3000,
	},
}
