package analyze

import "context"

// Invoice analyzes an invoice or financial document. Unlike the medical
// path there is no fallback: extraction errors propagate.
func (a *Analyzer) Invoice(ctx context.Context, text string) (Result, error) {
	return a.AnalyzeTask(ctx, text, "invoice")
}

// ResearchPaper analyzes a research paper or academic document. The research
// task caps its input at the document head; papers front-load the parts that
// matter (title, authors, abstract).
func (a *Analyzer) ResearchPaper(ctx context.Context, text string) (Result, error) {
	return a.AnalyzeTask(ctx, text, "research")
}
