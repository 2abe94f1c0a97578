package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/odunayo-falade/fleetdocs/constants"
	"github.com/odunayo-falade/fleetdocs/internal/acquire"
	"github.com/odunayo-falade/fleetdocs/internal/common"
	"github.com/odunayo-falade/fleetdocs/internal/entity"
)

// Debug harness for the text acquisition stage: runs one file through the
// direct/OCR/mixed routing and reports which path was taken.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runacquire <file>")
		os.Exit(2)
	}
	path := os.Args[1]

	mime := constants.MIMEForExt(filepath.Ext(path))
	if mime == "" {
		logger.Error("unsupported file extension", "path", path)
		os.Exit(2)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}
	file := entity.SourceFile{Filename: filepath.Base(path), MIMEType: mime, Data: data}

	cfg := common.LoadConfig()
	ocr := acquire.NewTesseractOCR(acquire.TesseractConfig{
		Pdftoppm:  cfg.OCR.Pdftoppm,
		Tesseract: cfg.OCR.Tesseract,
		Lang:      cfg.OCR.TesseractLang,
		DPI:       cfg.OCR.DPI,
		Timeout:   cfg.OCR.Timeout,
	}, logger)
	acquirer := acquire.New(acquire.Config{
		MinTextChars:      cfg.Pipeline.MinTextChars,
		MixedPageMinChars: cfg.Pipeline.MixedPageMinChars,
		MaxPagesPerChunk:  cfg.Pipeline.MaxPagesPerChunk,
	}, acquire.NewPDFTextReader(), ocr, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = common.WithContentHash(ctx, file.ContentHash())

	start := time.Now()
	res, err := acquirer.Acquire(ctx, file)
	dur := time.Since(start)

	if err != nil {
		logger.Error("acquisition failed", "file", file.Filename, "error", err,
			"duration_ms", dur.Milliseconds())
		os.Exit(1)
	}

	logger.Info("acquisition OK",
		"file", file.Filename,
		"path", res.Path,
		"pages", res.Pages,
		"bytes", len(res.Text),
		"warnings", len(res.Warnings),
		"duration_ms", dur.Milliseconds(),
	)
	for _, w := range res.Warnings {
		logger.Warn("acquisition warning", "warning", w)
	}
}
