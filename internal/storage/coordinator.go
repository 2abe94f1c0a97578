// Package storage coordinates uploads to the remote hierarchical store and
// owns the lifecycle coupling between a certificate file and its generated
// text summary.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/odunayo-falade/fleetdocs/internal/entity"
)

const (
	// SummarySuffix derives the summary filename from the main file's base
	// name. The same rule applies at upload and rename time.
	SummarySuffix = "_summary.txt"
	// SummaryFolder is the sibling sub-path summaries are filed under.
	SummaryFolder = "summary"

	summaryMIMEType = "text/plain; charset=utf-8"
)

type Coordinator struct {
	store  RemoteStore
	logger *slog.Logger
}

func NewCoordinator(store RemoteStore, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{store: store, logger: logger}
}

// SummaryName derives the summary filename for a main file base name.
func SummaryName(baseName string) string { return baseName + SummarySuffix }

// Store uploads the original file to the destination path and, when a
// non-empty summary was generated during acquisition, uploads it as a
// sibling artifact. A summary upload failure after a successful main
// upload is non-fatal: it is logged and reported as a warning, and the
// record is created with a null summary id.
func (c *Coordinator) Store(ctx context.Context, file entity.SourceFile, summary string, destination []string) (Outcome, error) {
	folder, err := c.store.EnsurePath(ctx, destination)
	if err != nil {
		return Outcome{}, &StorageError{Op: "ensure path", Cause: err}
	}

	fileID, err := c.store.Upload(ctx, folder, file.Filename, file.Data, file.MIMEType)
	if err != nil {
		return Outcome{}, &StorageError{Op: "upload", Cause: err}
	}
	c.logger.Info("storage.main_uploaded", "file", file.Filename, "file_id", fileID)

	out := Outcome{FileID: fileID, FolderID: folder}
	if summary == "" {
		return out, nil
	}

	summaryFolder, err := c.store.EnsurePath(ctx, append(append([]string{}, destination...), SummaryFolder))
	if err == nil {
		summaryID, upErr := c.store.Upload(ctx, summaryFolder,
			SummaryName(file.BaseName()), []byte(summary), summaryMIMEType)
		if upErr == nil {
			out.SummaryFileID = summaryID
			return out, nil
		}
		err = upErr
	}

	// Asymmetric failure: keep the main upload, report the summary loss.
	c.logger.Warn("storage.summary_upload_failed",
		"file", file.Filename, "file_id", fileID, "error", err)
	out.Warnings = append(out.Warnings, fmt.Sprintf("summary upload failed: %v", err))
	return out, nil
}

// Rename renames the main file and, when a summary exists, renames it with
// the same derived-suffix rule. Either rename may fail independently; a
// failure on one side never rolls back the other. The returned document
// carries the post-rename ids; a failed side keeps its old id so the
// caller still has a valid handle to it.
func (c *Coordinator) Rename(ctx context.Context, doc StoredDocument, newBaseName string) (StoredDocument, error) {
	var errs []error

	newName := newBaseName
	if doc.Ext != "" {
		newName += "." + doc.Ext
	}
	if newID, err := c.store.Rename(ctx, doc.FileID, newName); err != nil {
		c.logger.Error("storage.rename.main_failed", "file_id", doc.FileID, "error", err)
		errs = append(errs, &StorageError{Op: "rename main file", Cause: err})
	} else {
		doc.FileID = newID
		doc.BaseName = newBaseName
	}

	if doc.SummaryFileID != "" {
		if newID, err := c.store.Rename(ctx, doc.SummaryFileID, SummaryName(newBaseName)); err != nil {
			c.logger.Error("storage.rename.summary_failed",
				"summary_file_id", doc.SummaryFileID, "error", err)
			errs = append(errs, &StorageError{Op: "rename summary file", Cause: err})
		} else {
			doc.SummaryFileID = newID
		}
	}
	return doc, errors.Join(errs...)
}

// Delete removes the main file, then the summary file if one is recorded.
// The summary deletion is always attempted regardless of the main
// deletion's result. Partial failure is reported as a non-fatal warning so
// the business record deletion can proceed and not strand an undeletable
// record.
func (c *Coordinator) Delete(ctx context.Context, doc StoredDocument) error {
	var errs []error

	if err := c.store.Delete(ctx, doc.FileID); err != nil {
		c.logger.Warn("storage.delete.main_failed", "file_id", doc.FileID, "error", err)
		errs = append(errs, &StorageError{Op: "delete main file", Cause: err})
	}

	if doc.SummaryFileID != "" {
		if err := c.store.Delete(ctx, doc.SummaryFileID); err != nil {
			c.logger.Warn("storage.delete.summary_failed",
				"summary_file_id", doc.SummaryFileID, "error", err)
			errs = append(errs, &StorageError{Op: "delete summary file", Cause: err})
		}
	}
	return errors.Join(errs...)
}
