package acquire

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/odunayo-falade/fleetdocs/internal/entity"
)

// acquireChunked splits an oversized PDF into contiguous page spans,
// acquires each span independently and in parallel, and concatenates the
// texts in original page order. A failed span contributes an empty segment
// with a warning; only all spans failing is a hard error.
func (a *Acquirer) acquireChunked(ctx context.Context, file entity.SourceFile, pageTexts []string) (Result, error) {
	spans := splitSpans(len(pageTexts), a.cfg.MaxPagesPerChunk)
	a.logger.Debug("acquire.chunked.start",
		"file", file.Filename, "pages", len(pageTexts), "chunks", len(spans))

	type chunkOutcome struct {
		res Result
		err error
	}
	outcomes := make([]chunkOutcome, len(spans))

	eg, gctx := errgroup.WithContext(ctx)
	for i, span := range spans {
		eg.Go(func() error {
			res, err := a.acquireChunk(gctx, file, span, pageTexts[span.First-1:span.Last])
			outcomes[i] = chunkOutcome{res: res, err: err}
			// Chunk failures are isolated; never cancel sibling chunks.
			return nil
		})
	}
	_ = eg.Wait()

	texts := make([]string, len(spans))
	var warnings []string
	pages := 0
	failed := 0
	paths := map[Path]int{}
	for i, out := range outcomes {
		if out.err != nil {
			failed++
			a.logger.Warn("acquire.chunk.failed",
				"file", file.Filename, "span", spans[i].String(), "error", out.err)
			warnings = append(warnings, fmt.Sprintf("pages %s: %v", spans[i], out.err))
			texts[i] = ""
			pages += spans[i].Last - spans[i].First + 1
			continue
		}
		texts[i] = out.res.Text
		warnings = append(warnings, out.res.Warnings...)
		pages += out.res.Pages
		paths[out.res.Path]++
	}
	if failed == len(spans) {
		return Result{}, &AcquisitionError{
			Message: fmt.Sprintf("all %d chunks failed for %q", len(spans), file.Filename),
		}
	}

	return Result{
		Text:     strings.Join(texts, pageSeparator),
		Path:     mergedPath(paths, failed),
		Pages:    pages,
		Warnings: warnings,
	}, nil
}

// acquireChunk carves the span into a standalone PDF so the OCR provider
// only ever sees chunk-sized payloads. If carving fails the span is
// processed against the full document with an absolute page window.
func (a *Acquirer) acquireChunk(ctx context.Context, file entity.SourceFile, span PageRange, spanTexts []string) (Result, error) {
	carved, err := carveSpan(file.Data, span)
	if err != nil {
		a.logger.Warn("acquire.chunk.carve_failed",
			"file", file.Filename, "span", span.String(), "error", err)
		window := span
		return a.acquireSpan(ctx, file.Data, file.MIMEType, spanTexts, &window)
	}
	return a.acquireSpan(ctx, carved, file.MIMEType, spanTexts, nil)
}

// carveSpan extracts a contiguous page span into a new PDF document.
func carveSpan(data []byte, span PageRange) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.Trim(bytes.NewReader(data), &buf, []string{span.String()}, nil); err != nil {
		return nil, fmt.Errorf("carve pages %s: %w", span, err)
	}
	return buf.Bytes(), nil
}

// pageCount returns the PDF page count, 0 when the document is unreadable.
func pageCount(data []byte) int {
	n, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0
	}
	return n
}

// splitSpans partitions n pages into contiguous spans of at most size pages.
func splitSpans(n, size int) []PageRange {
	spans := make([]PageRange, 0, (n+size-1)/size)
	for first := 1; first <= n; first += size {
		last := first + size - 1
		if last > n {
			last = n
		}
		spans = append(spans, PageRange{First: first, Last: last})
	}
	return spans
}

// mergedPath reports the overall acquisition path for a chunked document.
// Any failed chunk leaves empty segments in the output, so the result is
// never a pure text acquisition.
func mergedPath(paths map[Path]int, failed int) Path {
	switch {
	case failed > 0:
		return PathMixed
	case len(paths) == 1:
		for p := range paths {
			return p
		}
		return PathMixed
	case len(paths) == 0:
		return PathOCR
	default:
		return PathMixed
	}
}
