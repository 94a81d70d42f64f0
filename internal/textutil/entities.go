package textutil

import "regexp"

// entityPattern binds an output category to its compiled pattern.
type entityPattern struct {
	category string
	regex    *regexp.Regexp
}

// entityPatterns covers the single-match categories. Phone numbers are
// handled separately because their digit groups are captured and rejoined.
var entityPatterns = []entityPattern{
	{"emails", regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
	{"dates", regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b|\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`)},
	{"currency_amounts", regexp.MustCompile(`(?i)\$[\d,]+\.?\d*|\b\d+\.?\d*\s*(?:USD|EUR|GBP|dollars?|euros?|pounds?)\b`)},
}

// phoneRE captures the three digit groups of a North American number so that
// "(555) 123-4567", "555.123.4567", and "+1 555 123 4567" all normalize to
// the same canonical form.
var phoneRE = regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})\b`)

// Entities scans text for contact and financial data points. Categories with
// no matches are absent from the result map entirely; matches within a
// category are deduplicated, first occurrence wins. Callers must not rely on
// ordering within a category.
func Entities(text string) map[string][]string {
	out := make(map[string][]string)
	for _, p := range entityPatterns {
		if found := dedupe(p.regex.FindAllString(text, -1)); len(found) > 0 {
			out[p.category] = found
		}
	}

	phones := []string{}
	for _, m := range phoneRE.FindAllStringSubmatch(text, -1) {
		phones = append(phones, m[1]+"-"+m[2]+"-"+m[3])
	}
	if found := dedupe(phones); len(found) > 0 {
		out["phone_numbers"] = found
	}
	return out
}

// dedupe drops repeat values, keeping first occurrences in order.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := []string{}
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
