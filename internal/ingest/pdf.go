package ingest

import (
	"fmt"
	"path/filepath"

	"github.com/ledongthuc/pdf"
)

// Page is one page of extracted document text.
type Page struct {
	Number int // 1-based
	Text   string
}

// Document is a parsed source document as an ordered sequence of pages.
type Document struct {
	Source string // filename or URL the document came from
	Pages  []Page
}

// ParsePDF extracts per-page plain text from the PDF at path. Pages
// that fail text extraction (e.g. scanned images) are kept with empty
// text so page numbering stays aligned; the indexer skips them.
func ParsePDF(path string) (Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	doc := Document{Source: filepath.Base(path)}
	total := r.NumPage()
	for n := 1; n <= total; n++ {
		p := r.Page(n)
		if p.V.IsNull() {
			doc.Pages = append(doc.Pages, Page{Number: n})
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			text = ""
		}
		doc.Pages = append(doc.Pages, Page{Number: n, Text: text})
	}

	return doc, nil
}
