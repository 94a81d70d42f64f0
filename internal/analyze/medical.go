package analyze

import (
	"context"
	"log/slog"
)

// requiredMedicalFields are always present in a medical result, whether the
// model produced it or the fallback synthesizer did.
var requiredMedicalFields = []string{
	"patient_details", "test_panels", "key_results",
	"critical_findings", "interpretations", "recommendations",
	"summary", "disclaimer",
}

// Outcome carries a medical analysis result together with how it was
// produced. Degraded means the model path failed and Result came from the
// regex fallback; Cause holds that failure. The overall operation still
// succeeds either way.
type Outcome struct {
	Result   Result
	Degraded bool
	Cause    error
}

// MedicalReport analyzes a medical laboratory report. Any model-path error
// (transport, API, malformed JSON) degrades to FallbackMedicalAnalysis
// instead of failing; callers inspect Degraded/Cause to tell the two apart.
func (a *Analyzer) MedicalReport(ctx context.Context, text string) Outcome {
	result, err := a.AnalyzeTask(ctx, text, "medical")
	if err != nil {
		a.logger.Warn("analyze.medical.fallback", slog.String("cause", err.Error()))
		return DegradedMedical(text, err)
	}

	ensureMedicalFields(result)
	return Outcome{Result: result}
}

// DegradedMedical synthesizes a medical Outcome from the regex fallback,
// stamped the same way a degraded model run would be. It covers failures
// that happen before a request can even be made, such as a provider that
// cannot be constructed.
func DegradedMedical(text string, cause error) Outcome {
	result := FallbackMedicalAnalysis(text)
	result["analysis_type"] = "medical"
	result["model_used"] = "regex-fallback"
	return Outcome{Result: result, Degraded: true, Cause: cause}
}

// ensureMedicalFields backfills any required field the model omitted:
// summary becomes an empty string, everything else an empty list.
func ensureMedicalFields(result Result) {
	for _, field := range requiredMedicalFields {
		if _, ok := result[field]; ok {
			continue
		}
		if field == "summary" {
			result[field] = ""
		} else {
			result[field] = []any{}
		}
	}
}
