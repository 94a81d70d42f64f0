package task

// ResultSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map
// describing the result shape a built-in task asks the model for. The
// analyzer validates model output against it and logs mismatches; open-ended
// extras are allowed everywhere, so additionalProperties stays open. Unknown
// and custom task names return nil (no schema, no validation).
func ResultSchema(name string) map[string]any {
	switch name {
	case "general":
		return objectSchema(map[string]any{
			"document_type":    map[string]any{"type": "string"},
			"summary":          map[string]any{"type": "string"},
			"key_insights":     arrayProp(),
			"main_topics":      arrayProp(),
			"structured_data":  map[string]any{"type": "object"},
			"recommendations":  arrayProp(),
			"confidence_score": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		}, []string{"document_type", "summary", "key_insights"})
	case "summary":
		return objectSchema(map[string]any{
			"executive_summary": map[string]any{"type": "string"},
			"detailed_summary":  map[string]any{"type": "string"},
			"key_points":        arrayProp(),
			"conclusion":        map[string]any{"type": "string"},
		}, []string{"executive_summary", "key_points"})
	case "medical":
		return objectSchema(map[string]any{
			"analysis_type":     map[string]any{"type": "string"},
			"patient_details":   map[string]any{"type": "object"},
			"test_panels":       arrayProp(),
			"key_results":       map[string]any{"type": "object"},
			"critical_findings": arrayProp(),
			"interpretations":   arrayProp(),
			"recommendations":   arrayProp(),
			"summary":           map[string]any{"type": "string"},
			"disclaimer":        map[string]any{"type": "string"},
		}, []string{"patient_details", "test_panels", "key_results", "critical_findings",
			"interpretations", "recommendations", "summary", "disclaimer"})
	case "invoice":
		return objectSchema(map[string]any{
			"document_type":      map[string]any{"type": "string"},
			"vendor_information": map[string]any{},
			"line_items":         arrayProp(),
			"financial_summary":  map[string]any{"type": "object"},
			"currency":           map[string]any{"type": "string"},
		}, []string{"document_type", "financial_summary"})
	case "research":
		return objectSchema(map[string]any{
			"document_type": map[string]any{"type": "string"},
			"title":         map[string]any{"type": "string"},
			"key_findings":  arrayProp(),
			"conclusions":   map[string]any{},
			"methodology":   map[string]any{},
		}, []string{"document_type", "key_findings"})
	}
	return nil
}

func objectSchema(props map[string]any, required []string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func arrayProp() map[string]any {
	return map[string]any{"type": "array"}
}
