// Package sqlite is the embedded certificate record store used for local
// runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/odunayo-falade/fleetdocs/constants"
	"github.com/odunayo-falade/fleetdocs/internal/common"
	"github.com/odunayo-falade/fleetdocs/internal/entity"
)

// Open opens (or creates) the sqlite database at path. Use ":memory:" for
// an ephemeral store.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent tasks.
	db.SetMaxOpenConns(1)
	return db, nil
}

type Repository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewRepository(db *sql.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS certificates (
	id TEXT PRIMARY KEY,
	vessel_id TEXT NOT NULL,
	category TEXT NOT NULL,
	name TEXT NOT NULL,
	number TEXT NOT NULL,
	issuing_authority TEXT NOT NULL DEFAULT '',
	issue_date TEXT NOT NULL DEFAULT '',
	valid_until TEXT NOT NULL DEFAULT '',
	file_id TEXT NOT NULL DEFAULT '',
	summary_file_id TEXT NOT NULL DEFAULT '',
	folder_id TEXT NOT NULL DEFAULT '',
	content_hash BLOB,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS certificates_vessel_category_idx
	ON certificates (vessel_id, category);`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return common.WrapError(err, "ensure certificates schema")
	}
	return nil
}

func (r *Repository) FindExisting(ctx context.Context, vesselID uuid.UUID, category constants.Category) ([]entity.CertificateRecord, error) {
	const query = `
SELECT id, vessel_id, category, name, number, issuing_authority,
	issue_date, valid_until, file_id, summary_file_id, folder_id,
	content_hash, created_at
FROM certificates
WHERE vessel_id = ? AND category = ?
ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, vesselID.String(), string(category))
	if err != nil {
		return nil, common.WrapError(err, "query existing certificates")
	}
	defer rows.Close()

	var out []entity.CertificateRecord
	for rows.Next() {
		var rec entity.CertificateRecord
		var id, vessel, cat, createdAt string
		if err := rows.Scan(&id, &vessel, &cat, &rec.Name, &rec.Number,
			&rec.IssuingAuthority, &rec.IssueDate, &rec.ValidUntil,
			&rec.FileID, &rec.SummaryFileID, &rec.FolderID,
			&rec.ContentHash, &createdAt); err != nil {
			return nil, common.WrapError(err, "scan certificate row")
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, common.WrapError(err, "parse certificate id")
		}
		if rec.VesselID, err = uuid.Parse(vessel); err != nil {
			return nil, common.WrapError(err, "parse vessel id")
		}
		rec.Category = constants.Category(cat)
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.CreatedAt = ts
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repository) Create(ctx context.Context, record *entity.CertificateRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO certificates (
	id, vessel_id, category, name, number, issuing_authority,
	issue_date, valid_until, file_id, summary_file_id, folder_id,
	content_hash, created_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`

	_, err := r.db.ExecContext(ctx, query,
		record.ID.String(), record.VesselID.String(), string(record.Category),
		record.Name, record.Number, record.IssuingAuthority,
		record.IssueDate, record.ValidUntil,
		record.FileID, record.SummaryFileID, record.FolderID,
		record.ContentHash, record.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return common.WrapError(err, "insert certificate")
	}
	r.logger.Debug("records.created", "id", record.ID, "vessel_id", record.VesselID)
	return nil
}
