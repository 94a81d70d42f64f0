// Package pdfx reads PDF files from disk: plain-text extraction with
// per-page fault tolerance, document-information metadata, and row-ordered
// text for roughly tabular documents. Scanned or image-only PDFs have no
// text layer and are reported as errors, not OCR'd.
package pdfx

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor reads PDFs. The zero value is not usable; construct with New.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Document is the result of text extraction.
type Document struct {
	Text           string `json:"text"`            // page texts joined with blank lines
	PageCount      int    `json:"page_count"`      // pages in the file
	PagesExtracted int    `json:"pages_extracted"` // pages that yielded text
}

// Metadata describes a PDF without reading its body text. String fields came
// from the document-information dictionary and are empty when absent; date
// fields keep the raw PDF form (e.g. "D:20240101120000Z").
type Metadata struct {
	Title         string `json:"title,omitempty"`
	Author        string `json:"author,omitempty"`
	Subject       string `json:"subject,omitempty"`
	Creator       string `json:"creator,omitempty"`
	Producer      string `json:"producer,omitempty"`
	CreationDate  string `json:"creation_date,omitempty"`
	ModDate       string `json:"mod_date,omitempty"`
	PageCount     int    `json:"page_count"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

// Validate checks that path names a readable .pdf file. It runs before any
// parsing so bad inputs fail with a precise message instead of a parser
// error.
func Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
		return fmt.Errorf("checking file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a PDF file", path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("not a PDF file: %s (expected a .pdf extension)", path)
	}
	return nil
}

// ExtractText pulls plain text from every page. A page that fails to extract
// is logged and skipped; only a document where no page yields text is an
// error. Page texts are joined with a blank line, the seam the text
// normalizer later collapses.
func (e *Extractor) ExtractText(path string) (*Document, error) {
	if err := Validate(path); err != nil {
		return nil, err
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	numPages := r.NumPage()
	parts := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("pdf.extract.page_skipped",
				slog.String("path", path),
				slog.Int("page", i),
				slog.String("cause", err.Error()))
			continue
		}
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}

	if len(parts) == 0 {
		return nil, fmt.Errorf("no extractable text in %s (the PDF may be scanned or image-based)", path)
	}

	e.logger.Debug("pdf.extract.done",
		slog.String("path", path),
		slog.Int("pages", numPages),
		slog.Int("pages_extracted", len(parts)))

	return &Document{
		Text:           strings.Join(parts, "\n\n"),
		PageCount:      numPages,
		PagesExtracted: len(parts),
	}, nil
}

// ExtractMetadata reads page count, file size, and the document-information
// dictionary.
func (e *Extractor) ExtractMetadata(path string) (*Metadata, error) {
	if err := Validate(path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("checking file %s: %w", path, err)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	md := &Metadata{
		PageCount:     r.NumPage(),
		FileSizeBytes: info.Size(),
	}

	docInfo := r.Trailer().Key("Info")
	if !docInfo.IsNull() {
		md.Title = textValue(docInfo.Key("Title"))
		md.Author = textValue(docInfo.Key("Author"))
		md.Subject = textValue(docInfo.Key("Subject"))
		md.Creator = textValue(docInfo.Key("Creator"))
		md.Producer = textValue(docInfo.Key("Producer"))
		md.CreationDate = textValue(docInfo.Key("CreationDate"))
		md.ModDate = textValue(docInfo.Key("ModDate"))
	}
	return md, nil
}

// ExtractRows returns the document's text rows in reading order, one string
// per row, pages in sequence. Row grouping follows glyph baselines, so the
// output approximates tabular layout; it is not a cell-accurate table model.
func (e *Extractor) ExtractRows(path string) ([]string, error) {
	if err := Validate(path); err != nil {
		return nil, err
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	rows := []string{}
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageRows, err := page.GetTextByRow()
		if err != nil {
			e.logger.Warn("pdf.rows.page_skipped",
				slog.String("path", path),
				slog.Int("page", i),
				slog.String("cause", err.Error()))
			continue
		}
		for _, row := range pageRows {
			var b strings.Builder
			for _, chunk := range row.Content {
				b.WriteString(chunk.S)
			}
			if s := strings.TrimSpace(b.String()); s != "" {
				rows = append(rows, s)
			}
		}
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no text rows in %s", path)
	}
	return rows, nil
}

func textValue(v pdf.Value) string {
	if v.IsNull() {
		return ""
	}
	return strings.TrimSpace(v.Text())
}
