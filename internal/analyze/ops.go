package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/KRSaiVarun/pdf-analysis-tool/internal/llm"
)

// Input budgets for the quick document operations. Classification and
// sentiment only need the document head to make a call.
const (
	classifyInputRunes  = 2000
	sentimentInputRunes = 1500
	recsInputRunes      = 2000
)

// Summarize produces a plain-text summary of at most maxWords words
// (0 = default 200).
func (a *Analyzer) Summarize(ctx context.Context, text string, maxWords int) (string, error) {
	if maxWords <= 0 {
		maxWords = 200
	}
	prompt := fmt.Sprintf("Please provide a concise summary of the following text in no more than "+
		"%d words. Focus on the main points and key information:\n\n%s", maxWords, text)

	content, err := a.provider.Complete(ctx, prompt, llm.CompletionOpts{
		Temperature: 0.3,
		MaxTokens:   maxWords * 3 / 2,
	})
	if err != nil {
		return "", fmt.Errorf("summarizing text: %w", err)
	}
	return strings.TrimSpace(content), nil
}

// KeyInsights extracts n key insights (0 = default 5) as a string list.
func (a *Analyzer) KeyInsights(ctx context.Context, text string, n int) ([]string, error) {
	if n <= 0 {
		n = 5
	}
	prompt := fmt.Sprintf("Analyze the following text and extract %d key insights or "+
		"important points. Respond with a JSON object containing an 'insights' "+
		"array:\n\n%s", n, text)

	result, err := a.completeJSON(ctx, prompt, 0.3)
	if err != nil {
		return nil, fmt.Errorf("extracting insights: %w", err)
	}
	return toStrings(result["insights"]), nil
}

// Classify determines the document type from the document head.
func (a *Analyzer) Classify(ctx context.Context, text string) (Result, error) {
	prompt := "Analyze the following text and classify the document type. " +
		"Respond with a JSON object containing 'document_type', 'confidence_score' " +
		"(0-1), and 'reasoning'. Common types include: medical_report, invoice, " +
		"research_paper, legal_document, business_report, personal_letter, " +
		"technical_manual, academic_paper, financial_statement, or other.\n\n" +
		truncateRunes(text, classifyInputRunes) + "..."

	result, err := a.completeJSON(ctx, prompt, 0.2)
	if err != nil {
		return nil, fmt.Errorf("classifying document: %w", err)
	}
	return result, nil
}

// Sentiment analyzes sentiment and tone from the document head.
func (a *Analyzer) Sentiment(ctx context.Context, text string) (Result, error) {
	prompt := "Analyze the sentiment and tone of the following text. " +
		"Respond with a JSON object containing 'sentiment' (positive/negative/neutral), " +
		"'confidence_score' (0-1), 'emotional_tone' (professional/casual/formal/etc.), " +
		"and 'key_emotions' (array of detected emotions):\n\n" +
		truncateRunes(text, sentimentInputRunes) + "..."

	result, err := a.completeJSON(ctx, prompt, 0.2)
	if err != nil {
		return nil, fmt.Errorf("analyzing sentiment: %w", err)
	}
	return result, nil
}

// Recommendations generates 3-5 actionable next steps for a document of the
// given analysis type.
func (a *Analyzer) Recommendations(ctx context.Context, text, analysisType string) ([]string, error) {
	prompt := fmt.Sprintf("Based on the following %s document, provide 3-5 actionable "+
		"recommendations or next steps. Respond with a JSON object containing "+
		"a 'recommendations' array:\n\n%s...", analysisType, truncateRunes(text, recsInputRunes))

	result, err := a.completeJSON(ctx, prompt, 0.4)
	if err != nil {
		return nil, fmt.Errorf("generating recommendations: %w", err)
	}
	return toStrings(result["recommendations"]), nil
}

// completeJSON runs a user-role-only JSON-mode completion and parses the
// resulting object.
func (a *Analyzer) completeJSON(ctx context.Context, prompt string, temperature float64) (Result, error) {
	content, err := a.provider.Complete(ctx, prompt, llm.CompletionOpts{
		Temperature: temperature,
		Format:      "json",
	})
	if err != nil {
		return nil, err
	}
	var result Result
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return result, nil
}
