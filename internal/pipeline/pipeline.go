// Package pipeline sequences the per-file stages: validation, text
// acquisition, field extraction, quality gating, business rules, duplicate
// detection, storage and record creation. Stages are strictly sequential
// within one file; the batch orchestrator is the only component aware of
// multiple files at once.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/odunayo-falade/fleetdocs/constants"
	"github.com/odunayo-falade/fleetdocs/internal/acquire"
	"github.com/odunayo-falade/fleetdocs/internal/common"
	"github.com/odunayo-falade/fleetdocs/internal/dedupe"
	"github.com/odunayo-falade/fleetdocs/internal/entity"
	"github.com/odunayo-falade/fleetdocs/internal/llm"
	"github.com/odunayo-falade/fleetdocs/internal/quality"
	"github.com/odunayo-falade/fleetdocs/internal/records"
	"github.com/odunayo-falade/fleetdocs/internal/rules"
	"github.com/odunayo-falade/fleetdocs/internal/storage"
	"github.com/odunayo-falade/fleetdocs/internal/validate"
)

// Stage collaborators, narrowed to what the processor calls.
type (
	TextAcquirer interface {
		Acquire(ctx context.Context, file entity.SourceFile) (acquire.Result, error)
	}
	FieldExtractor interface {
		Extract(ctx context.Context, text string, category constants.Category, filename string) (llm.FieldSet, error)
	}
	QualityGate interface {
		Assess(fields llm.FieldSet, acquiredTextLen int) quality.Decision
	}
	RuleValidator interface {
		Validate(fields llm.FieldSet, vessel entity.Vessel, category constants.Category) rules.Verdict
	}
	DuplicateFinder interface {
		FindDuplicates(fields llm.FieldSet, vesselID uuid.UUID, existing []entity.CertificateRecord) []dedupe.Candidate
	}
	Uploader interface {
		Store(ctx context.Context, file entity.SourceFile, summary string, destination []string) (storage.Outcome, error)
	}
)

// Request is one file's processing order. Progress, when set, receives
// each stage transition; Existing is a read-only snapshot for duplicate
// scoping.
type Request struct {
	Index              int
	File               entity.SourceFile
	Vessel             entity.Vessel
	Category           constants.Category
	Destination        []string
	Existing           []entity.CertificateRecord
	OverrideDuplicates bool
	Progress           func(constants.TaskStatus)
}

// Outcome is the terminal result for one file. Fields carries whatever was
// extracted even on manual-input routing, for pre-filling a form.
type Outcome struct {
	Index      int                  `json:"index"`
	Filename   string               `json:"filename"`
	Status     constants.TaskStatus `json:"status"`
	Message    string               `json:"message,omitempty"`
	Fields     *llm.FieldSet        `json:"fields,omitempty"`
	Candidates []dedupe.Candidate   `json:"candidates,omitempty"`
	Storage    *storage.Outcome     `json:"storage,omitempty"`
	RecordID   uuid.UUID            `json:"record_id,omitempty"`
	Warnings   []string             `json:"warnings,omitempty"`
}

type Processor struct {
	limits    validate.Limits
	acquirer  TextAcquirer
	extractor FieldExtractor
	gate      QualityGate
	rules     RuleValidator
	detector  DuplicateFinder
	uploader  Uploader
	records   records.Store
	logger    *slog.Logger
}

func NewProcessor(
	limits validate.Limits,
	acquirer TextAcquirer,
	extractor FieldExtractor,
	gate QualityGate,
	ruleValidator RuleValidator,
	detector DuplicateFinder,
	uploader Uploader,
	recordStore records.Store,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		limits:    limits,
		acquirer:  acquirer,
		extractor: extractor,
		gate:      gate,
		rules:     ruleValidator,
		detector:  detector,
		uploader:  uploader,
		records:   recordStore,
		logger:    logger,
	}
}

// Process runs all stages for one file. Errors are terminal for this file
// only and never propagate to sibling tasks.
func (p *Processor) Process(ctx context.Context, req Request) Outcome {
	out := Outcome{Index: req.Index, Filename: req.File.Filename}
	progress := req.Progress
	if progress == nil {
		progress = func(constants.TaskStatus) {}
	}

	// 1) Fast-fail input gate.
	progress(constants.TaskValidating)
	if err := validate.File(req.File, p.limits); err != nil {
		p.logger.Warn("pipeline.validate.rejected", "file", req.File.Filename, "error", err)
		return p.fail(out, err)
	}
	ctx = common.WithContentHash(ctx, req.File.ContentHash())

	// 2) Text acquisition.
	progress(constants.TaskAcquiring)
	acquired, err := p.acquirer.Acquire(ctx, req.File)
	if err != nil {
		p.logger.Error("pipeline.acquire.failed", "file", req.File.Filename, "error", err)
		return p.fail(out, err)
	}
	out.Warnings = append(out.Warnings, acquired.Warnings...)
	p.logger.Debug("pipeline.acquire.ok", "file", req.File.Filename,
		"path", acquired.Path, "pages", acquired.Pages, "text_len", len(acquired.Text))

	// 3) Field extraction.
	progress(constants.TaskExtracting)
	fields, err := p.extractor.Extract(ctx, acquired.Text, req.Category, req.File.Filename)
	if err != nil {
		p.logger.Error("pipeline.extract.failed", "file", req.File.Filename, "error", err)
		return p.fail(out, err)
	}
	out.Fields = &fields

	// 4) Quality gate: routing decision, not an error.
	progress(constants.TaskQualityChecking)
	if decision := p.gate.Assess(fields, len(acquired.Text)); !decision.Proceed {
		out.Status = constants.TaskManualInput
		out.Message = decision.Reason
		return out
	}

	// 5) Business rules. A hard reject means storage never runs and no
	// partial record is created.
	progress(constants.TaskRuleChecking)
	verdict := p.rules.Validate(fields, req.Vessel, req.Category)
	if verdict.Kind == rules.RejectedHard {
		out.Status = constants.TaskFailed
		out.Message = fmt.Sprintf("%s: %s", verdict.Reason, verdict.Note())
		return out
	}
	if note := verdict.Note(); note != "" {
		out.Warnings = append(out.Warnings, note)
	}

	// 6) Duplicate detection, skipped on an explicit override.
	if !req.OverrideDuplicates {
		progress(constants.TaskDuplicateChecking)
		if candidates := p.detector.FindDuplicates(fields, req.Vessel.ID, req.Existing); len(candidates) > 0 {
			out.Status = constants.TaskPendingResolution
			out.Message = fmt.Sprintf("%d possible duplicate(s); awaiting resolution", len(candidates))
			out.Candidates = candidates
			return out
		}
	}

	// 7) Upload original plus generated summary.
	progress(constants.TaskUploading)
	stored, err := p.uploader.Store(ctx, req.File, acquired.Text, req.Destination)
	if err != nil {
		p.logger.Error("pipeline.store.failed", "file", req.File.Filename, "error", err)
		return p.fail(out, err)
	}
	out.Storage = &stored
	out.Warnings = append(out.Warnings, stored.Warnings...)

	// 8) Hand the finished record to the record store.
	record := buildRecord(req, fields, stored)
	if err := p.records.Create(ctx, record); err != nil {
		p.logger.Error("pipeline.record.create_failed", "file", req.File.Filename, "error", err)
		out.Status = constants.TaskFailed
		out.Message = fmt.Sprintf("record creation failed after upload: %v", err)
		return out
	}
	out.RecordID = record.ID

	out.Status = constants.TaskCompleted
	out.Message = "certificate record created"
	p.logger.Info("pipeline.completed", "file", req.File.Filename,
		"batch_id", common.RequestIDFromContext(ctx),
		"record_id", record.ID, "file_id", stored.FileID,
		"summary_file_id", stored.SummaryFileID)
	return out
}

func (p *Processor) fail(out Outcome, err error) Outcome {
	out.Status = constants.TaskFailed
	out.Message = err.Error()
	return out
}

func buildRecord(req Request, fields llm.FieldSet, stored storage.Outcome) *entity.CertificateRecord {
	return &entity.CertificateRecord{
		ID:               uuid.New(),
		VesselID:         req.Vessel.ID,
		Category:         req.Category,
		Name:             fields.String(constants.FieldCertificateName),
		Number:           fields.String(constants.FieldCertificateNo),
		IssuingAuthority: fields.String(constants.FieldIssuingAuthority),
		IssueDate:        fields.String(constants.FieldIssueDate),
		ValidUntil:       fields.String(constants.FieldValidUntil),
		FileID:           stored.FileID,
		SummaryFileID:    stored.SummaryFileID,
		FolderID:         string(stored.FolderID),
		ContentHash:      req.File.ContentHash(),
	}
}
