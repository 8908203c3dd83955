package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tokogudang/backoffice/internal/domain"
	"github.com/tokogudang/backoffice/internal/usecase"
)

// ConsignmentRepository implements usecase.ConsignmentRepository.
type ConsignmentRepository struct {
	pool *pgxpool.Pool
}

// NewConsignmentRepository creates a new ConsignmentRepository.
func NewConsignmentRepository(pool *pgxpool.Pool) *ConsignmentRepository {
	return &ConsignmentRepository{pool: pool}
}

const consignmentColumns = `id, product_id, consignee_id, branch_id, quantity, sold, remaining, unit_price, created_at, updated_at`

// Create creates a new consignment.
func (r *ConsignmentRepository) Create(ctx context.Context, consignment *domain.Consignment) error {
	query := `
		INSERT INTO consignments (` + consignmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		consignment.ID,
		consignment.ProductID,
		consignment.ConsigneeID,
		consignment.BranchID,
		decimalToNumeric(consignment.Quantity),
		decimalToNumeric(consignment.Sold),
		decimalToNumeric(consignment.Remaining),
		decimalToNumeric(consignment.UnitPrice),
		timeToPgTimestamptz(consignment.CreatedAt),
		timeToPgTimestamptz(consignment.UpdatedAt),
	)

	return err
}

// GetByID retrieves a consignment by ID.
func (r *ConsignmentRepository) GetByID(ctx context.Context, id string) (*domain.Consignment, error) {
	query := `SELECT ` + consignmentColumns + ` FROM consignments WHERE id = $1`

	return scanConsignment(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a consignment with a FOR UPDATE lock.
func (r *ConsignmentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Consignment, error) {
	query := `SELECT ` + consignmentColumns + ` FROM consignments WHERE id = $1 FOR UPDATE`

	return scanConsignment(queryerFor(tx, r.pool).QueryRow(ctx, query, id))
}

// UpdateCounters writes the sold and remaining counters.
func (r *ConsignmentRepository) UpdateCounters(ctx context.Context, tx usecase.Transaction, id string, sold, remaining decimal.Decimal, updatedAt time.Time) error {
	query := `
		UPDATE consignments
		SET sold = $2, remaining = $3, updated_at = $4
		WHERE id = $1
	`

	tag, err := queryerFor(tx, r.pool).Exec(ctx, query,
		id,
		decimalToNumeric(sold),
		decimalToNumeric(remaining),
		timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrConsignmentNotFound
	}

	return nil
}

// List lists consignments, newest first.
func (r *ConsignmentRepository) List(ctx context.Context, limit, offset int) ([]*domain.Consignment, error) {
	query := `
		SELECT ` + consignmentColumns + `
		FROM consignments
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var consignments []*domain.Consignment
	for rows.Next() {
		consignment, err := scanConsignment(rows)
		if err != nil {
			return nil, err
		}
		consignments = append(consignments, consignment)
	}

	return consignments, rows.Err()
}

func scanConsignment(row rowScanner) (*domain.Consignment, error) {
	var (
		c                    domain.Consignment
		qty, sold, remaining pgtype.Numeric
		unitPrice            pgtype.Numeric
		createdAt, updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&c.ID,
		&c.ProductID,
		&c.ConsigneeID,
		&c.BranchID,
		&qty,
		&sold,
		&remaining,
		&unitPrice,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConsignmentNotFound
		}
		return nil, err
	}

	c.Quantity = numericToDecimal(qty)
	c.Sold = numericToDecimal(sold)
	c.Remaining = numericToDecimal(remaining)
	c.UnitPrice = numericToDecimal(unitPrice)
	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time

	return &c, nil
}
