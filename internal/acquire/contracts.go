package acquire

import (
	"context"
	"fmt"
)

// Path records which acquisition strategy produced the text. Downstream
// confidence scoring depends on it.
type Path string

const (
	PathText  Path = "text"  // direct text-layer extraction
	PathOCR   Path = "ocr"   // optical recognition of rendered pages
	PathMixed Path = "mixed" // text layer supplemented by per-page OCR
)

// Result is the recovered text for one document or chunk.
type Result struct {
	Text     string
	Path     Path
	Pages    int
	Warnings []string
}

// PageRange selects a contiguous 1-based inclusive span of pages.
type PageRange struct {
	First int
	Last  int
}

func (r PageRange) String() string { return fmt.Sprintf("%d-%d", r.First, r.Last) }

// OCRRequest asks a provider to recognize text in a document. Pages
// restricts recognition to a span; nil means the whole document. Providers
// must tolerate being called once per chunk for large documents.
type OCRRequest struct {
	Data     []byte
	MIMEType string
	Pages    *PageRange
}

// OCRResult is the provider's recovered text. PageTexts, when supplied,
// is in page order.
type OCRResult struct {
	Text      string
	PageTexts []string
}

// OCRProvider is the external recognition collaborator.
type OCRProvider interface {
	Recognize(ctx context.Context, req OCRRequest) (OCRResult, error)
}

// TextLayerReader extracts the embedded text layer of a PDF, one entry
// per page. Implementations must not mutate data.
type TextLayerReader interface {
	PageTexts(data []byte) ([]string, error)
}

// AcquisitionError means every text-recovery path failed for a document.
type AcquisitionError struct {
	Message string
	Cause   error
}

func (e *AcquisitionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("acquisition failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("acquisition failed: %s", e.Message)
}

func (e *AcquisitionError) Unwrap() error { return e.Cause }
