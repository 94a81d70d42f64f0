package task

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// CustomTask builds a one-off analysis task from a field list. The resulting
// config is not registered anywhere; hand it straight to the analyzer.
func CustomTask(name, description, systemPrompt string, analysisFields []string, additionalInstructions string) (Config, error) {
	if strings.TrimSpace(name) == "" {
		return Config{}, fmt.Errorf("custom task name is empty")
	}
	if _, exists := builtins[name]; exists {
		return Config{}, fmt.Errorf("custom task name %q collides with a built-in task", name)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return Config{}, fmt.Errorf("custom task %q has an empty system prompt", name)
	}
	if len(analysisFields) == 0 {
		return Config{}, fmt.Errorf("custom task %q has no analysis fields", name)
	}

	var b strings.Builder
	b.WriteString("Analyze the following document according to the specified requirements. ")
	b.WriteString("Respond with a JSON object containing:\n")
	for _, field := range analysisFields {
		label := titleCaser.String(strings.ReplaceAll(field, "_", " "))
		fmt.Fprintf(&b, "- '%s': %s\n", field, label)
	}
	if additionalInstructions != "" {
		fmt.Fprintf(&b, "\nAdditional instructions: %s\n", additionalInstructions)
	}
	b.WriteString("\nDocument text:\n")
	b.WriteString(Placeholder)

	return Config{
		Name:         name,
		Description:  description,
		SystemPrompt: systemPrompt,
		UserPrompt:   b.String(),
		Temperature:  0.3,
		MaxTokens:    DefaultMaxTokens,
		Custom:       true,
	}, nil
}

// DomainTask builds a task for an arbitrary document domain from a list of
// domain-specific requirements.
func DomainTask(domain string, requirements []string) (Config, error) {
	if strings.TrimSpace(domain) == "" {
		return Config{}, fmt.Errorf("domain is empty")
	}
	if len(requirements) == 0 {
		return Config{}, fmt.Errorf("domain task %q has no requirements", domain)
	}

	systemPrompt := fmt.Sprintf("You are a %s document analysis expert. Analyze documents "+
		"within the %s domain and extract relevant domain-specific "+
		"information. Always respond with valid JSON format.", domain, domain)

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this %s document and extract relevant information. ", domain)
	b.WriteString("Focus on the following domain-specific requirements:\n")
	for _, req := range requirements {
		fmt.Fprintf(&b, "- %s\n", req)
	}
	b.WriteString("\nRespond with a JSON object containing appropriate fields for these requirements.\n\n")
	b.WriteString("Document text:\n")
	b.WriteString(Placeholder)

	name := domain + "_analysis"
	if _, exists := builtins[name]; exists {
		return Config{}, fmt.Errorf("domain task name %q collides with a built-in task", name)
	}

	return Config{
		Name:         name,
		Description:  fmt.Sprintf("Specialized analysis for %s documents", domain),
		SystemPrompt: systemPrompt,
		UserPrompt:   b.String(),
		Temperature:  0.3,
		MaxTokens:    DefaultMaxTokens,
		Custom:       true,
	}, nil
}
