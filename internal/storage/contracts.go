package storage

import (
	"context"
	"fmt"
)

// FolderRef identifies a resolved folder in the remote hierarchical store.
type FolderRef string

// RemoteStore is the remote hierarchical file store collaborator. All
// operations are assumed idempotent-safe to retry on transient failure;
// retry policy belongs to the implementation, not to callers.
type RemoteStore interface {
	// EnsurePath resolves a folder path, creating intermediate folders as
	// needed.
	EnsurePath(ctx context.Context, segments []string) (FolderRef, error)
	Upload(ctx context.Context, folder FolderRef, filename string, data []byte, mimeType string) (string, error)
	// Rename and Move return the file's identifier after the operation.
	// Key-addressed stores mint a new id; callers must persist it.
	Rename(ctx context.Context, fileID, newName string) (string, error)
	Move(ctx context.Context, fileID string, target FolderRef) (string, error)
	Delete(ctx context.Context, fileID string) error
}

// Outcome carries the remote identifiers returned at upload time. The
// pairing FileID <-> SummaryFileID is an invariant for the life of the
// record: renames and deletes of the main file must be mirrored on the
// summary, or the summary is explicitly orphaned and logged.
type Outcome struct {
	FileID        string    `json:"file_id"`
	SummaryFileID string    `json:"summary_file_id,omitempty"`
	FolderID      FolderRef `json:"folder_id"`
	Warnings      []string  `json:"warnings,omitempty"`
}

// StoredDocument is the persisted identity of an uploaded pair, used by
// the later-invoked rename/delete lifecycle operations.
type StoredDocument struct {
	FileID        string
	SummaryFileID string
	BaseName      string
	Ext           string // main file extension without the dot
}

// StorageError is an upload, rename or delete failure.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }
