// Package records defines the business record store consumed by the
// pipeline: it reads existing certificates for duplicate scoping and
// persists finished records.
package records

import (
	"context"

	"github.com/google/uuid"

	"github.com/odunayo-falade/fleetdocs/constants"
	"github.com/odunayo-falade/fleetdocs/internal/entity"
)

// Store is the document-database collaborator. The existing-record set
// read for a batch is a best-effort snapshot; callers must not mutate the
// backing store mid-batch.
type Store interface {
	FindExisting(ctx context.Context, vesselID uuid.UUID, category constants.Category) ([]entity.CertificateRecord, error)
	Create(ctx context.Context, record *entity.CertificateRecord) error
}
