// Package textutil implements the deterministic text stages of the analysis
// pipeline:
// - Normalization (Unicode cleanup and whitespace collapsing)
// - Entity extraction (emails, phone numbers, dates, currency amounts)
// - Document statistics (counts, averages, reading time)
// - Keyword extraction (frequency-ranked content words)
//
// Every stage is a pure function over strings: no I/O, no network, no state.
// Callers run them in any order, though the normalizer is built to run first
// on raw PDF extractor output.
package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	blankLinesRE = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

// Normalize rewrites raw extractor output into a stable form: NFKD
// decomposition, form feeds to spaces, whitespace runs to single spaces,
// blank-line runs squeezed to a paragraph break, then an outer trim.
//
// The whitespace collapse runs before the blank-line squeeze, so no interior
// newlines survive it and normalized output is a single line. Normalize is
// idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKD.String(s)
	s = strings.ReplaceAll(s, "\f", " ")
	s = whitespaceRE.ReplaceAllString(s, " ")
	s = blankLinesRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
