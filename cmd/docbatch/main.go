package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/odunayo-falade/fleetdocs/constants"
	"github.com/odunayo-falade/fleetdocs/internal/acquire"
	"github.com/odunayo-falade/fleetdocs/internal/batch"
	"github.com/odunayo-falade/fleetdocs/internal/common"
	"github.com/odunayo-falade/fleetdocs/internal/dedupe"
	"github.com/odunayo-falade/fleetdocs/internal/entity"
	"github.com/odunayo-falade/fleetdocs/internal/export"
	"github.com/odunayo-falade/fleetdocs/internal/llm"
	"github.com/odunayo-falade/fleetdocs/internal/llm/openai"
	"github.com/odunayo-falade/fleetdocs/internal/pipeline"
	"github.com/odunayo-falade/fleetdocs/internal/quality"
	"github.com/odunayo-falade/fleetdocs/internal/records"
	"github.com/odunayo-falade/fleetdocs/internal/records/postgres"
	"github.com/odunayo-falade/fleetdocs/internal/records/sqlite"
	"github.com/odunayo-falade/fleetdocs/internal/rules"
	"github.com/odunayo-falade/fleetdocs/internal/storage"
	"github.com/odunayo-falade/fleetdocs/internal/storage/miniostore"
	"github.com/odunayo-falade/fleetdocs/internal/validate"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir      = flag.String("dir", "", "directory of documents to ingest (required)")
		imo      = flag.String("imo", "", "vessel IMO number (required)")
		name     = flag.String("vessel", "", "vessel name (required)")
		catStr   = flag.String("category", "", "document category (required), one of: "+categoryNames())
		dest     = flag.String("dest", "", "destination folder path, slash-separated (default vessel/category)")
		out      = flag.String("out", "", "output XLSX report path (optional, defaults to parent directory)")
		override = flag.Bool("override-duplicates", false, "skip duplicate detection (resume after a user confirmed upload)")
	)
	flag.Parse()

	if *dir == "" || *imo == "" || *name == "" || *catStr == "" {
		printError("Error: --dir, --imo, --vessel and --category are required\n")
		flag.Usage()
		os.Exit(1)
	}
	category, ok := constants.ParseCategory(*catStr)
	if !ok {
		printError("Error: unknown category %q, expected one of: %s\n", *catStr, categoryNames())
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "batch-report.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Record store: Postgres when DB_URL is set, embedded sqlite otherwise.
	recordStore, cleanup, err := openRecordStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open record store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	remote, err := miniostore.New(miniostore.Config{
		Endpoint:  cfg.Store.Endpoint,
		AccessKey: cfg.Store.AccessKey,
		SecretKey: cfg.Store.SecretKey,
		Bucket:    cfg.Store.Bucket,
		UseSSL:    cfg.Store.UseSSL,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to object store", "error", err)
		os.Exit(1)
	}

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

	provider := openai.NewClient(openai.Config{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	extractor := llm.NewExtractor(provider, llm.Config{MaxPromptChars: cfg.LLM.MaxPromptChars}, logger)

	processor := pipeline.NewProcessor(
		validate.DefaultLimits(cfg.Pipeline.MaxFileBytes),
		acquirer,
		extractor,
		quality.NewGate(quality.Config{
			MinConfidence: cfg.Pipeline.MinConfidence,
			MinTextChars:  cfg.Pipeline.MinTextChars,
		}, logger),
		rules.NewValidator(logger),
		dedupe.NewDetector(dedupe.Config{SimilarityFloor: cfg.Pipeline.SimilarityFloor}, logger),
		storage.NewCoordinator(remote, logger),
		recordStore,
		logger,
	)

	// Vessel identity is derived from the IMO number so repeated runs for
	// the same vessel share one record scope.
	vessel := entity.Vessel{
		ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte("imo:"+*imo)),
		IMONumber: *imo,
		Name:      *name,
	}

	files, err := readDirectory(*dir)
	if err != nil {
		logger.Error("failed to read input directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		printError("No supported documents found in %s\n", *dir)
		os.Exit(1)
	}

	existing, err := recordStore.FindExisting(ctx, vessel.ID, category)
	if err != nil {
		logger.Error("failed to load existing records", "error", err)
		os.Exit(1)
	}

	destination := strings.Split(strings.Trim(*dest, "/"), "/")
	if *dest == "" {
		destination = []string{vessel.Name, string(category)}
	}

	orchestrator := batch.NewOrchestrator(batch.Config{
		MaxInFlight:  cfg.Batch.MaxInFlight,
		StaggerDelay: cfg.Batch.StaggerDelay,
		TaskTimeout:  cfg.Batch.TaskTimeout,
	}, processor, logger)

	result, err := orchestrator.Run(ctx, batch.Request{
		Files:              files,
		Vessel:             vessel,
		Category:           category,
		Destination:        destination,
		Existing:           existing,
		OverrideDuplicates: *override,
	})
	if err != nil {
		logger.Error("batch run interrupted", "error", err)
		os.Exit(1)
	}

	report, err := export.NewReporter(logger).BatchReportXLSX(vessel, category, result)
	if err != nil {
		logger.Error("failed to build batch report", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, report, 0644); err != nil {
		logger.Error("failed to write report file", "path", *out, "error", err)
		os.Exit(1)
	}

	fmt.Printf("Batch complete!\n")
	fmt.Printf("- Files:               %d\n", result.Total)
	fmt.Printf("- Succeeded:           %d\n", result.Succeeded)
	fmt.Printf("- Failed:              %d\n", result.Failed)
	fmt.Printf("- Manual input:        %d\n", result.ManualInput)
	fmt.Printf("- Pending resolution:  %d\n", result.PendingResolution)
	fmt.Printf("- Report:              %s\n", *out)
	if result.Failed > 0 {
		os.Exit(1)
	}
}

// readDirectory loads every supported document in dir, non-recursively,
// in lexical order so batch indexes are stable across runs.
func readDirectory(dir string) ([]entity.SourceFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []entity.SourceFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		mime := constants.MIMEForExt(filepath.Ext(entry.Name()))
		if mime == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		files = append(files, entity.SourceFile{
			Filename: entry.Name(),
			MIMEType: mime,
			Data:     data,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Filename < files[j].Filename })
	return files, nil
}

func openRecordStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (records.Store, func(), error) {
	if cfg.Database.DSN != "" {
		pool, err := postgres.Open(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		repo := postgres.NewRepository(pool, logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil
	}
	db, err := sqlite.Open(cfg.Database.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	repo := sqlite.NewRepository(db, logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return repo, func() { _ = db.Close() }, nil
}

func categoryNames() string {
	var names []string
	for _, c := range constants.AllCategories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
