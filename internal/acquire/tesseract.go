package acquire

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/odunayo-falade/fleetdocs/constants"
	"github.com/odunayo-falade/fleetdocs/internal/common"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		slog.Error("exec failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), 8<<10), // cap at 8KB
		)
	} else {
		slog.Debug("exec ok",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"stdout_bytes", out.Len(),
		)
	}

	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

// TesseractConfig configures the exec-based OCR provider.
type TesseractConfig struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Lang string // default "eng"
	DPI  int    // rasterization DPI for scanned PDFs, default 300
	PSM  int    // e.g., 6 is good for uniform block of text

	Timeout time.Duration // ceiling for one Recognize call, default 2m
}

// TesseractOCR recognizes document text by rasterizing PDF pages with
// pdftoppm and running tesseract over each image.
type TesseractOCR struct {
	cfg    TesseractConfig
	runner Runner
	logger *slog.Logger
}

func NewTesseractOCR(cfg TesseractConfig, logger *slog.Logger) *TesseractOCR {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &TesseractOCR{cfg: cfg, runner: execRunner{}, logger: logger}
}

func (t *TesseractOCR) Recognize(ctx context.Context, req OCRRequest) (OCRResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	tmpDir, err := os.MkdirTemp("", "fd-ocr-*")
	if err != nil {
		return OCRResult{}, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			t.logger.Warn("ocr temp dir cleanup failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	base := "doc"
	if hash := common.ContentHashFromContext(ctx); hash != "" {
		base = hash[:12]
	}

	switch constants.MapMIMEToFormat(req.MIMEType) {
	case constants.PDF:
		return t.recognizePDF(ctx, req, tmpDir, base)
	case constants.IMAGE:
		in := filepath.Join(tmpDir, base+extForMIME(req.MIMEType))
		if err := os.WriteFile(in, req.Data, 0o600); err != nil {
			return OCRResult{}, err
		}
		text, err := t.tesseract(ctx, in)
		if err != nil {
			return OCRResult{}, err
		}
		return OCRResult{Text: text, PageTexts: []string{text}}, nil
	default:
		return OCRResult{}, fmt.Errorf("ocr: unsupported mime type %q", req.MIMEType)
	}
}

func (t *TesseractOCR) recognizePDF(ctx context.Context, req OCRRequest, tmpDir, base string) (OCRResult, error) {
	in := filepath.Join(tmpDir, base+".pdf")
	if err := os.WriteFile(in, req.Data, 0o600); err != nil {
		return OCRResult{}, err
	}

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", fmt.Sprintf("%d", t.cfg.DPI), "-png"}
	if req.Pages != nil {
		args = append(args,
			"-f", fmt.Sprintf("%d", req.Pages.First),
			"-l", fmt.Sprintf("%d", req.Pages.Last),
		)
	}
	args = append(args, in, prefix)
	if _, errb, err := t.runner.Run(ctx, t.cfg.Pdftoppm, args...); err != nil {
		return OCRResult{}, fmt.Errorf("pdftoppm: %w (%s)", err, truncate(string(errb), 512))
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return OCRResult{}, fmt.Errorf("pdftoppm produced no images")
	}

	pageTexts := make([]string, 0, len(matches))
	var b strings.Builder
	for _, img := range matches {
		text, err := t.tesseract(ctx, img)
		if err != nil {
			t.logger.Warn("ocr.page_failed", "image", filepath.Base(img), "error", err)
			pageTexts = append(pageTexts, "")
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(text)
		pageTexts = append(pageTexts, text)
	}
	return OCRResult{Text: b.String(), PageTexts: pageTexts}, nil
}

func (t *TesseractOCR) tesseract(ctx context.Context, imagePath string) (string, error) {
	args := []string{imagePath, "stdout", "-l", t.cfg.Lang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", t.cfg.PSM))
	}
	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

func extForMIME(mime string) string {
	switch strings.ToLower(mime) {
	case "image/png":
		return ".png"
	case "image/tiff":
		return ".tif"
	default:
		return ".jpg"
	}
}
