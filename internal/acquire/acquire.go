// Package acquire turns an uploaded document into machine-readable text.
// It classifies each document as text-based, image-based or mixed and
// routes it to direct extraction, OCR, or a per-page combination, splitting
// oversized documents into independently processed chunks.
package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/odunayo-falade/fleetdocs/constants"
	"github.com/odunayo-falade/fleetdocs/internal/entity"
)

// pageSeparator keeps a clear page break marker in concatenated output.
const pageSeparator = "\n\f\n"

type Config struct {
	MinTextChars      int // whole-document floor before OCR takes over
	MixedPageMinChars int // per-page floor before a page gets OCR backup
	MaxPagesPerChunk  int // documents beyond this are span-split
}

type Acquirer struct {
	cfg    Config
	reader TextLayerReader
	ocr    OCRProvider
	logger *slog.Logger
}

func New(cfg Config, reader TextLayerReader, ocr OCRProvider, logger *slog.Logger) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 100
	}
	if cfg.MixedPageMinChars <= 0 {
		cfg.MixedPageMinChars = 32
	}
	if cfg.MaxPagesPerChunk <= 0 {
		cfg.MaxPagesPerChunk = 15
	}
	return &Acquirer{cfg: cfg, reader: reader, ocr: ocr, logger: logger}
}

// Acquire recovers text for one document, choosing the cheapest path that
// clears the configured thresholds.
func (a *Acquirer) Acquire(ctx context.Context, file entity.SourceFile) (Result, error) {
	switch constants.MapMIMEToFormat(file.MIMEType) {
	case constants.IMAGE:
		return a.acquireImage(ctx, file)
	case constants.PDF:
		return a.acquirePDF(ctx, file)
	default:
		return Result{}, &AcquisitionError{Message: fmt.Sprintf("unsupported mime type %q", file.MIMEType)}
	}
}

func (a *Acquirer) acquireImage(ctx context.Context, file entity.SourceFile) (Result, error) {
	out, err := a.ocr.Recognize(ctx, OCRRequest{Data: file.Data, MIMEType: file.MIMEType})
	if err != nil {
		return Result{}, &AcquisitionError{Message: "image ocr failed", Cause: err}
	}
	pages := len(out.PageTexts)
	if pages == 0 {
		pages = 1
	}
	return Result{Text: out.Text, Path: PathOCR, Pages: pages}, nil
}

func (a *Acquirer) acquirePDF(ctx context.Context, file entity.SourceFile) (Result, error) {
	pageTexts, err := a.reader.PageTexts(file.Data)
	if err != nil {
		// No readable text layer at all; the whole document goes to OCR.
		a.logger.Warn("acquire.textlayer.unreadable", "file", file.Filename, "error", err)
		pages := pageCount(file.Data)
		if pages > a.cfg.MaxPagesPerChunk {
			return a.acquireChunked(ctx, file, make([]string, pages))
		}
		res, ocrErr := a.ocrSpan(ctx, file.Data, file.MIMEType, nil, pages)
		if ocrErr != nil {
			return Result{}, ocrErr
		}
		res.Warnings = append(res.Warnings, fmt.Sprintf("text layer unreadable: %v", err))
		return res, nil
	}

	if len(pageTexts) > a.cfg.MaxPagesPerChunk {
		return a.acquireChunked(ctx, file, pageTexts)
	}
	return a.acquireSpan(ctx, file.Data, file.MIMEType, pageTexts, nil)
}

// acquireSpan classifies and processes one contiguous span. window is the
// 1-based absolute page span pageTexts covers within data; nil means data
// is exactly the span.
func (a *Acquirer) acquireSpan(ctx context.Context, data []byte, mime string, pageTexts []string, window *PageRange) (Result, error) {
	total := 0
	weak := make([]int, 0, len(pageTexts))
	for i, text := range pageTexts {
		n := len(strings.TrimSpace(text))
		total += n
		if n < a.cfg.MixedPageMinChars {
			weak = append(weak, i)
		}
	}

	switch {
	case total >= a.cfg.MinTextChars && len(weak) == 0:
		// Text-based: the embedded layer alone is sufficient. The OCR
		// provider is never invoked on this path.
		return Result{
			Text:  strings.Join(pageTexts, pageSeparator),
			Path:  PathText,
			Pages: len(pageTexts),
		}, nil

	case total < a.cfg.MinTextChars:
		// Image-based: nothing useful in the text layer.
		return a.ocrSpan(ctx, data, mime, window, len(pageTexts))

	default:
		// Mixed: a usable base plus scanned pages needing OCR backup.
		return a.acquireMixed(ctx, data, mime, pageTexts, weak, window)
	}
}

// ocrSpan routes a whole span through the OCR provider.
func (a *Acquirer) ocrSpan(ctx context.Context, data []byte, mime string, window *PageRange, pageHint int) (Result, error) {
	out, err := a.ocr.Recognize(ctx, OCRRequest{Data: data, MIMEType: mime, Pages: window})
	if err != nil {
		return Result{}, &AcquisitionError{Message: "document ocr failed", Cause: err}
	}
	pages := pageHint
	if n := len(out.PageTexts); n > 0 {
		pages = n
	}
	if pages == 0 {
		pages = 1
	}
	return Result{Text: out.Text, Path: PathOCR, Pages: pages}, nil
}

func (a *Acquirer) acquireMixed(ctx context.Context, data []byte, mime string, pageTexts []string, weak []int, window *PageRange) (Result, error) {
	first := 1
	if window != nil {
		first = window.First
	}
	merged := make([]string, len(pageTexts))
	copy(merged, pageTexts)
	var warnings []string

	for _, idx := range weak {
		page := first + idx
		out, err := a.ocr.Recognize(ctx, OCRRequest{
			Data:     data,
			MIMEType: mime,
			Pages:    &PageRange{First: page, Last: page},
		})
		if err != nil {
			// Keep whatever the text layer gave us for this page.
			a.logger.Warn("acquire.mixed.page_ocr_failed", "page", page, "error", err)
			warnings = append(warnings, fmt.Sprintf("page %d ocr failed: %v", page, err))
			continue
		}
		base := strings.TrimSpace(merged[idx])
		if base == "" {
			merged[idx] = out.Text
		} else {
			merged[idx] = base + "\n" + out.Text
		}
	}

	return Result{
		Text:     strings.Join(merged, pageSeparator),
		Path:     PathMixed,
		Pages:    len(pageTexts),
		Warnings: warnings,
	}, nil
}
