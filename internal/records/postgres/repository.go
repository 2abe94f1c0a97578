// Package postgres is the pgx-backed certificate record store.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odunayo-falade/fleetdocs/constants"
	"github.com/odunayo-falade/fleetdocs/internal/common"
	"github.com/odunayo-falade/fleetdocs/internal/entity"
)

// Open creates a pgx pool from the database configuration.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.Info("connecting to database")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.ConnConfig.RuntimeParams["application_name"] = "fleetdocs"

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{pool: pool, logger: logger}
}

// EnsureSchema creates the certificates table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS certificates (
	id UUID PRIMARY KEY,
	vessel_id UUID NOT NULL,
	category TEXT NOT NULL,
	name TEXT NOT NULL,
	number TEXT NOT NULL,
	issuing_authority TEXT,
	issue_date TEXT,
	valid_until TEXT,
	file_id TEXT,
	summary_file_id TEXT,
	folder_id TEXT,
	content_hash BYTEA,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS certificates_vessel_category_idx
	ON certificates (vessel_id, category);`
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return common.WrapError(err, "ensure certificates schema")
	}
	return nil
}

func (r *Repository) FindExisting(ctx context.Context, vesselID uuid.UUID, category constants.Category) ([]entity.CertificateRecord, error) {
	const query = `
SELECT id, vessel_id, category, name, number,
	COALESCE(issuing_authority, ''), COALESCE(issue_date, ''),
	COALESCE(valid_until, ''), COALESCE(file_id, ''),
	COALESCE(summary_file_id, ''), COALESCE(folder_id, ''),
	content_hash, created_at
FROM certificates
WHERE vessel_id = $1 AND category = $2
ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, vesselID, string(category))
	if err != nil {
		return nil, common.WrapError(err, "query existing certificates")
	}
	defer rows.Close()

	var out []entity.CertificateRecord
	for rows.Next() {
		var rec entity.CertificateRecord
		var cat string
		if err := rows.Scan(&rec.ID, &rec.VesselID, &cat, &rec.Name, &rec.Number,
			&rec.IssuingAuthority, &rec.IssueDate, &rec.ValidUntil,
			&rec.FileID, &rec.SummaryFileID, &rec.FolderID,
			&rec.ContentHash, &rec.CreatedAt); err != nil {
			return nil, common.WrapError(err, "scan certificate row")
		}
		rec.Category = constants.Category(cat)
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
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

	_, err := r.pool.Exec(ctx, query,
		record.ID, record.VesselID, string(record.Category),
		record.Name, record.Number, record.IssuingAuthority,
		record.IssueDate, record.ValidUntil,
		record.FileID, record.SummaryFileID, record.FolderID,
		record.ContentHash, record.CreatedAt)
	if err != nil {
		return common.WrapError(err, "insert certificate")
	}
	r.logger.Debug("records.created", "id", record.ID, "vessel_id", record.VesselID)
	return nil
}
