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

// StockRepository implements usecase.StockRepository.
type StockRepository struct {
	pool *pgxpool.Pool
}

// NewStockRepository creates a new StockRepository.
func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return &StockRepository{pool: pool}
}

const positionColumns = `product_id, branch_id, quantity, version, updated_at`

const movementColumns = `id, product_id, branch_id, direction, quantity, unit_cost, reference_id, date, created_at`

// GetPosition retrieves the stock position of a product at a branch.
func (r *StockRepository) GetPosition(ctx context.Context, productID, branchID string) (*domain.StockPosition, error) {
	query := `SELECT ` + positionColumns + ` FROM stock_positions WHERE product_id = $1 AND branch_id = $2`

	return scanPosition(r.pool.QueryRow(ctx, query, productID, branchID))
}

// GetPositionForUpdate retrieves a position with a FOR UPDATE lock.
func (r *StockRepository) GetPositionForUpdate(ctx context.Context, tx usecase.Transaction, productID, branchID string) (*domain.StockPosition, error) {
	query := `SELECT ` + positionColumns + ` FROM stock_positions WHERE product_id = $1 AND branch_id = $2 FOR UPDATE`

	return scanPosition(queryerFor(tx, r.pool).QueryRow(ctx, query, productID, branchID))
}

// CreatePosition creates a new stock position.
func (r *StockRepository) CreatePosition(ctx context.Context, tx usecase.Transaction, pos *domain.StockPosition) error {
	query := `
		INSERT INTO stock_positions (` + positionColumns + `)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := queryerFor(tx, r.pool).Exec(ctx, query,
		pos.ProductID,
		pos.BranchID,
		decimalToNumeric(pos.Quantity),
		pos.Version,
		timeToPgTimestamptz(pos.UpdatedAt),
	)

	return err
}

// UpdateQuantity writes the on-hand quantity, guarded by the row
// version. A stale version yields domain.VersionConflictError.
func (r *StockRepository) UpdateQuantity(ctx context.Context, tx usecase.Transaction, productID, branchID string, qty decimal.Decimal, expectedVersion int64, updatedAt time.Time) error {
	query := `
		UPDATE stock_positions
		SET quantity = $3, version = version + 1, updated_at = $4
		WHERE product_id = $1 AND branch_id = $2 AND version = $5
	`

	tag, err := queryerFor(tx, r.pool).Exec(ctx, query,
		productID,
		branchID,
		decimalToNumeric(qty),
		timeToPgTimestamptz(updatedAt),
		expectedVersion,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return &domain.VersionConflictError{Resource: "stock_position", ID: productID + "/" + branchID}
	}

	return nil
}

// CreateMovement appends a movement row. Movements are never updated
// or deleted.
func (r *StockRepository) CreateMovement(ctx context.Context, tx usecase.Transaction, movement *domain.StockMovement) error {
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := queryerFor(tx, r.pool).Exec(ctx, query,
		movement.ID,
		movement.ProductID,
		movement.BranchID,
		string(movement.Direction),
		decimalToNumeric(movement.Quantity),
		decimalToNumeric(movement.UnitCost),
		movement.ReferenceID,
		timeToPgTimestamptz(movement.Date),
		timeToPgTimestamptz(movement.CreatedAt),
	)

	return err
}

// ListMovements lists movements of a product at a branch, log order.
func (r *StockRepository) ListMovements(ctx context.Context, productID, branchID string, limit, offset int) ([]*domain.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE product_id = $1 AND branch_id = $2
		ORDER BY created_at, id
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, productID, branchID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMovements(rows)
}

// ListMovementsByReference lists movements sharing a reference ID.
func (r *StockRepository) ListMovementsByReference(ctx context.Context, referenceID string) ([]*domain.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE reference_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, referenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMovements(rows)
}

func scanPosition(row rowScanner) (*domain.StockPosition, error) {
	var (
		pos       domain.StockPosition
		qty       pgtype.Numeric
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&pos.ProductID,
		&pos.BranchID,
		&qty,
		&pos.Version,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStockNotFound
		}
		return nil, err
	}

	pos.Quantity = numericToDecimal(qty)
	pos.UpdatedAt = updatedAt.Time

	return &pos, nil
}

func scanMovements(rows pgx.Rows) ([]*domain.StockMovement, error) {
	var movements []*domain.StockMovement
	for rows.Next() {
		var (
			m               domain.StockMovement
			direction       string
			qty, unitCost   pgtype.Numeric
			date, createdAt pgtype.Timestamptz
		)

		err := rows.Scan(
			&m.ID,
			&m.ProductID,
			&m.BranchID,
			&direction,
			&qty,
			&unitCost,
			&m.ReferenceID,
			&date,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		m.Direction = domain.Direction(direction)
		m.Quantity = numericToDecimal(qty)
		m.UnitCost = numericToDecimal(unitCost)
		m.Date = date.Time
		m.CreatedAt = createdAt.Time

		movements = append(movements, &m)
	}

	return movements, rows.Err()
}
