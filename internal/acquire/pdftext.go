package acquire

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDFTextReader reads the embedded text layer of a PDF using ledongthuc/pdf.
type PDFTextReader struct{}

func NewPDFTextReader() *PDFTextReader { return &PDFTextReader{} }

// PageTexts returns one string per page, empty for pages without a text
// layer (scanned pages).
func (PDFTextReader) PageTexts(data []byte) (texts []string, err error) {
	// The reader panics on some malformed xref tables; treat that the same
	// as a parse error so the caller can fall back to OCR.
	defer func() {
		if r := recover(); r != nil {
			texts = nil
			err = fmt.Errorf("pdf text layer: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf text layer: %w", err)
	}

	n := reader.NumPage()
	texts = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page is not fatal; it will be treated
			// as a scanned page.
			texts = append(texts, "")
			continue
		}
		texts = append(texts, content)
	}
	return texts, nil
}
