package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/odunayo-falade/fleetdocs/constants"
)

// CertificateRecord is a compliance certificate row for data transfer
// between layers. FileID/SummaryFileID are the remote store identifiers
// returned at upload time; a non-empty SummaryFileID must follow the main
// file through renames and deletes.
type CertificateRecord struct {
	ID               uuid.UUID          `json:"id"`
	VesselID         uuid.UUID          `json:"vessel_id"`
	Category         constants.Category `json:"category"`
	Name             string             `json:"name"`
	Number           string             `json:"number"`
	IssuingAuthority string             `json:"issuing_authority,omitempty"`
	IssueDate        string             `json:"issue_date,omitempty"`  // YYYY-MM-DD
	ValidUntil       string             `json:"valid_until,omitempty"` // YYYY-MM-DD
	FileID           string             `json:"file_id,omitempty"`
	SummaryFileID    string             `json:"summary_file_id,omitempty"`
	FolderID         string             `json:"folder_id,omitempty"`
	ContentHash      []byte             `json:"-"`
	CreatedAt        time.Time          `json:"created_at"`
}
