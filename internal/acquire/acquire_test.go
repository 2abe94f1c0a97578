package acquire

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/odunayo-falade/fleetdocs/internal/entity"
)

type fakeReader struct {
	pages []string
	err   error
}

func (f *fakeReader) PageTexts(data []byte) ([]string, error) {
	return f.pages, f.err
}

type fakeOCR struct {
	text     string
	err      error
	requests []OCRRequest
}

func (f *fakeOCR) Recognize(ctx context.Context, req OCRRequest) (OCRResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return OCRResult{}, f.err
	}
	return OCRResult{Text: f.text}, nil
}

func newAcquirer(reader TextLayerReader, ocr OCRProvider) *Acquirer {
	return New(Config{MinTextChars: 100, MixedPageMinChars: 32, MaxPagesPerChunk: 15}, reader, ocr, nil)
}

func pdfDoc() entity.SourceFile {
	return entity.SourceFile{
		Filename: "cert.pdf",
		MIMEType: "application/pdf",
		Data:     []byte("%PDF-1.7 test fixture"),
	}
}

func page(n int) string {
	return strings.Repeat("a", n)
}

func TestAcquireTextPathNeverInvokesOCR(t *testing.T) {
	ocr := &fakeOCR{text: "should not be used"}
	a := newAcquirer(&fakeReader{pages: []string{page(80), page(80)}}, ocr)

	res, err := a.Acquire(context.Background(), pdfDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Path != PathText {
		t.Fatalf("expected text path, got %s", res.Path)
	}
	if res.Pages != 2 {
		t.Fatalf("expected 2 pages, got %d", res.Pages)
	}
	if len(ocr.requests) != 0 {
		t.Fatalf("OCR must not run on the text path, got %d calls", len(ocr.requests))
	}
	if want := page(80) + pageSeparator + page(80); res.Text != want {
		t.Fatalf("unexpected merged text: %q", res.Text)
	}
}

func TestAcquireSparseTextRoutesToOCR(t *testing.T) {
	ocr := &fakeOCR{text: "recognized document text"}
	a := newAcquirer(&fakeReader{pages: []string{"", " ", ""}}, ocr)

	res, err := a.Acquire(context.Background(), pdfDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Path != PathOCR {
		t.Fatalf("expected ocr path, got %s", res.Path)
	}
	if res.Text != "recognized document text" {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	if len(ocr.requests) != 1 {
		t.Fatalf("expected one whole-document OCR call, got %d", len(ocr.requests))
	}
	if ocr.requests[0].Pages != nil {
		t.Fatalf("whole-document OCR must not carry a page window")
	}
}

func TestAcquireMixedBacksUpWeakPages(t *testing.T) {
	ocr := &fakeOCR{text: "ocr text"}
	// Page 2 is below the per-page floor; pages 1 and 3 are fine.
	a := newAcquirer(&fakeReader{pages: []string{page(80), "stamp", page(80)}}, ocr)

	res, err := a.Acquire(context.Background(), pdfDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Path != PathMixed {
		t.Fatalf("expected mixed path, got %s", res.Path)
	}
	if len(ocr.requests) != 1 {
		t.Fatalf("expected OCR only for the weak page, got %d calls", len(ocr.requests))
	}
	window := ocr.requests[0].Pages
	if window == nil || window.First != 2 || window.Last != 2 {
		t.Fatalf("expected page window 2-2, got %v", window)
	}
	// The weak page keeps its text layer base with the OCR text appended.
	parts := strings.Split(res.Text, pageSeparator)
	if len(parts) != 3 {
		t.Fatalf("expected 3 page segments, got %d", len(parts))
	}
	if parts[1] != "stamp\nocr text" {
		t.Fatalf("unexpected merged weak page: %q", parts[1])
	}
}

func TestAcquireMixedPageOCRFailureKeepsBaseText(t *testing.T) {
	ocr := &fakeOCR{err: errors.New("tesseract exploded")}
	a := newAcquirer(&fakeReader{pages: []string{page(80), "stamp", page(80)}}, ocr)

	res, err := a.Acquire(context.Background(), pdfDoc())
	if err != nil {
		t.Fatalf("mixed page OCR failure must not fail the document: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", res.Warnings)
	}
	parts := strings.Split(res.Text, pageSeparator)
	if parts[1] != "stamp" {
		t.Fatalf("expected base text kept for the failed page, got %q", parts[1])
	}
}

func TestAcquireImageGoesStraightToOCR(t *testing.T) {
	ocr := &fakeOCR{text: "seafarer identity card"}
	a := newAcquirer(&fakeReader{}, ocr)

	file := entity.SourceFile{Filename: "scan.png", MIMEType: "image/png", Data: []byte{1, 2, 3}}
	res, err := a.Acquire(context.Background(), file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Path != PathOCR || res.Text != "seafarer identity card" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestAcquireImageOCRFailureIsTerminal(t *testing.T) {
	ocr := &fakeOCR{err: errors.New("no binary")}
	a := newAcquirer(&fakeReader{}, ocr)

	file := entity.SourceFile{Filename: "scan.png", MIMEType: "image/png", Data: []byte{1}}
	_, err := a.Acquire(context.Background(), file)
	var aerr *AcquisitionError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AcquisitionError, got %v", err)
	}
}

func TestAcquireUnsupportedMIME(t *testing.T) {
	a := newAcquirer(&fakeReader{}, &fakeOCR{})
	file := entity.SourceFile{Filename: "doc.txt", MIMEType: "text/plain", Data: []byte("x")}
	if _, err := a.Acquire(context.Background(), file); err == nil {
		t.Fatalf("expected error for unsupported mime type")
	}
}

func TestAcquireChunkedPreservesPageOrder(t *testing.T) {
	// 20 readable pages with a 15-page chunk limit: two spans, both on the
	// text path, re-joined in original order. Carving the fixture bytes
	// fails, so each span falls back to its absolute window, which must not
	// change the output.
	pages := make([]string, 20)
	for i := range pages {
		pages[i] = "page " + strings.Repeat("x", 60+i)
	}
	ocr := &fakeOCR{text: "unused"}
	a := newAcquirer(&fakeReader{pages: pages}, ocr)

	res, err := a.Acquire(context.Background(), pdfDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Path != PathText {
		t.Fatalf("expected text path for fully readable chunks, got %s", res.Path)
	}
	if res.Pages != 20 {
		t.Fatalf("expected 20 pages, got %d", res.Pages)
	}
	if want := strings.Join(pages, pageSeparator); res.Text != want {
		t.Fatalf("chunked text does not match unchunked join")
	}
	if len(ocr.requests) != 0 {
		t.Fatalf("readable chunks must not invoke OCR, got %d calls", len(ocr.requests))
	}
}

func TestAcquireChunkedWeakPageUsesAbsoluteWindow(t *testing.T) {
	// Page 17 is weak; it lands in the second span. The OCR window must be
	// the absolute page number since span carving falls back to the full
	// document.
	pages := make([]string, 20)
	for i := range pages {
		pages[i] = page(70)
	}
	pages[16] = "sig"
	ocr := &fakeOCR{text: "ocr text"}
	a := newAcquirer(&fakeReader{pages: pages}, ocr)

	res, err := a.Acquire(context.Background(), pdfDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Path != PathMixed {
		t.Fatalf("expected mixed path, got %s", res.Path)
	}
	if len(ocr.requests) != 1 {
		t.Fatalf("expected one page OCR call, got %d", len(ocr.requests))
	}
	window := ocr.requests[0].Pages
	if window == nil || window.First != 17 || window.Last != 17 {
		t.Fatalf("expected absolute window 17-17, got %v", window)
	}
	parts := strings.Split(res.Text, pageSeparator)
	if parts[16] != "sig\nocr text" {
		t.Fatalf("unexpected merged page 17: %q", parts[16])
	}
}

func TestAcquireChunkedFailedChunkDemotesPath(t *testing.T) {
	// The first span is fully readable; the second span is sparse and its
	// OCR fails, leaving an empty segment. The merged result must not claim
	// a pure text acquisition.
	pages := make([]string, 20)
	for i := range pages {
		pages[i] = page(70)
	}
	for i := 15; i < 20; i++ {
		pages[i] = ""
	}
	ocr := &fakeOCR{err: errors.New("tesseract exploded")}
	a := newAcquirer(&fakeReader{pages: pages}, ocr)

	res, err := a.Acquire(context.Background(), pdfDoc())
	if err != nil {
		t.Fatalf("one failed chunk must not fail the document: %v", err)
	}
	if res.Path != PathMixed {
		t.Fatalf("expected mixed path with a failed chunk, got %s", res.Path)
	}
	if res.Pages != 20 {
		t.Fatalf("expected 20 pages, got %d", res.Pages)
	}
	if len(res.Warnings) == 0 {
		t.Fatalf("expected a warning for the failed chunk")
	}
	parts := strings.Split(res.Text, pageSeparator)
	if parts[len(parts)-1] != "" {
		t.Fatalf("failed chunk must contribute an empty segment, got %q", parts[len(parts)-1])
	}
}

func TestSplitSpans(t *testing.T) {
	spans := splitSpans(47, 15)
	want := []PageRange{{1, 15}, {16, 30}, {31, 45}, {46, 47}}
	if len(spans) != len(want) {
		t.Fatalf("expected %d spans, got %d", len(want), len(spans))
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Fatalf("span %d: expected %v, got %v", i, want[i], spans[i])
		}
	}
}
