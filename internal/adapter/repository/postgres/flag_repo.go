package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tokogudang/backoffice/internal/domain"
)

// FlagRepository implements usecase.FlagRepository.
type FlagRepository struct {
	pool *pgxpool.Pool
}

// NewFlagRepository creates a new FlagRepository.
func NewFlagRepository(pool *pgxpool.Pool) *FlagRepository {
	return &FlagRepository{pool: pool}
}

const flagColumns = `id, operation, resource_type, resource_id, failed_step, detail, uncompensated, status, created_at, resolved_at`

// Create creates a new reconciliation flag.
func (r *FlagRepository) Create(ctx context.Context, flag *domain.ReconciliationFlag) error {
	query := `
		INSERT INTO reconciliation_flags (` + flagColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var resolvedAt pgtype.Timestamptz
	if flag.ResolvedAt != nil {
		resolvedAt = timeToPgTimestamptz(*flag.ResolvedAt)
	}

	_, err := r.pool.Exec(ctx, query,
		flag.ID,
		flag.Operation,
		flag.ResourceType,
		flag.ResourceID,
		flag.FailedStep,
		flag.Detail,
		flag.Uncompensated,
		string(flag.Status),
		timeToPgTimestamptz(flag.CreatedAt),
		resolvedAt,
	)

	return err
}

// GetByID retrieves a flag by ID.
func (r *FlagRepository) GetByID(ctx context.Context, id string) (*domain.ReconciliationFlag, error) {
	query := `SELECT ` + flagColumns + ` FROM reconciliation_flags WHERE id = $1`

	return scanFlag(r.pool.QueryRow(ctx, query, id))
}

// ListOpen lists open flags, oldest first.
func (r *FlagRepository) ListOpen(ctx context.Context, limit, offset int) ([]*domain.ReconciliationFlag, error) {
	query := `
		SELECT ` + flagColumns + `
		FROM reconciliation_flags
		WHERE status = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, string(domain.FlagOpen), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flags []*domain.ReconciliationFlag
	for rows.Next() {
		flag, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		flags = append(flags, flag)
	}

	return flags, rows.Err()
}

// Resolve marks a flag resolved. Resolution is manual and terminal.
func (r *FlagRepository) Resolve(ctx context.Context, id string, resolvedAt time.Time) error {
	query := `
		UPDATE reconciliation_flags
		SET status = $2, resolved_at = $3
		WHERE id = $1 AND status = $4
	`

	tag, err := r.pool.Exec(ctx, query,
		id,
		string(domain.FlagResolved),
		timeToPgTimestamptz(resolvedAt),
		string(domain.FlagOpen),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrFlagNotFound
	}

	return nil
}

func scanFlag(row rowScanner) (*domain.ReconciliationFlag, error) {
	var (
		flag                  domain.ReconciliationFlag
		status                string
		createdAt, resolvedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&flag.ID,
		&flag.Operation,
		&flag.ResourceType,
		&flag.ResourceID,
		&flag.FailedStep,
		&flag.Detail,
		&flag.Uncompensated,
		&status,
		&createdAt,
		&resolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFlagNotFound
		}
		return nil, err
	}

	flag.Status = domain.FlagStatus(status)
	flag.CreatedAt = createdAt.Time
	if resolvedAt.Valid {
		t := resolvedAt.Time
		flag.ResolvedAt = &t
	}

	return &flag, nil
}
