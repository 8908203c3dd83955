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

// DebtRepository implements usecase.DebtRepository.
type DebtRepository struct {
	pool *pgxpool.Pool
}

// NewDebtRepository creates a new DebtRepository.
func NewDebtRepository(pool *pgxpool.Pool) *DebtRepository {
	return &DebtRepository{pool: pool}
}

const debtColumns = `id, transaction_id, party_id, kind, total_amount, paid_amount, status, due_date, created_at, updated_at`

// Create creates a new debt record.
func (r *DebtRepository) Create(ctx context.Context, tx usecase.Transaction, debt *domain.DebtRecord) error {
	query := `
		INSERT INTO debt_records (` + debtColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var due pgtype.Timestamptz
	if debt.DueDate != nil {
		due = timeToPgTimestamptz(*debt.DueDate)
	}

	_, err := queryerFor(tx, r.pool).Exec(ctx, query,
		debt.ID,
		debt.TransactionID,
		debt.PartyID,
		string(debt.Kind),
		decimalToNumeric(debt.TotalAmount),
		decimalToNumeric(debt.PaidAmount),
		string(debt.Status),
		due,
		timeToPgTimestamptz(debt.CreatedAt),
		timeToPgTimestamptz(debt.UpdatedAt),
	)

	return err
}

// GetByID retrieves a debt record by ID.
func (r *DebtRepository) GetByID(ctx context.Context, id string) (*domain.DebtRecord, error) {
	query := `SELECT ` + debtColumns + ` FROM debt_records WHERE id = $1`

	return scanDebt(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a debt record with a FOR UPDATE lock.
func (r *DebtRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.DebtRecord, error) {
	query := `SELECT ` + debtColumns + ` FROM debt_records WHERE id = $1 FOR UPDATE`

	return scanDebt(queryerFor(tx, r.pool).QueryRow(ctx, query, id))
}

// GetByTransaction retrieves the debt record opened by a transaction.
func (r *DebtRepository) GetByTransaction(ctx context.Context, transactionID string) (*domain.DebtRecord, error) {
	query := `SELECT ` + debtColumns + ` FROM debt_records WHERE transaction_id = $1`

	return scanDebt(r.pool.QueryRow(ctx, query, transactionID))
}

// UpdatePaid writes the derived paid amount and status.
func (r *DebtRepository) UpdatePaid(ctx context.Context, tx usecase.Transaction, id string, paid decimal.Decimal, status domain.DebtStatus, updatedAt time.Time) error {
	query := `
		UPDATE debt_records
		SET paid_amount = $2, status = $3, updated_at = $4
		WHERE id = $1
	`

	tag, err := queryerFor(tx, r.pool).Exec(ctx, query,
		id,
		decimalToNumeric(paid),
		string(status),
		timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrDebtNotFound
	}

	return nil
}

// Delete removes a debt record.
func (r *DebtRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	query := `DELETE FROM debt_records WHERE id = $1`

	tag, err := queryerFor(tx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrDebtNotFound
	}

	return nil
}

// List lists debt records of one kind, newest first.
func (r *DebtRepository) List(ctx context.Context, kind domain.DebtKind, limit, offset int) ([]*domain.DebtRecord, error) {
	query := `
		SELECT ` + debtColumns + `
		FROM debt_records
		WHERE kind = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, string(kind), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var debts []*domain.DebtRecord
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, debt)
	}

	return debts, rows.Err()
}

func scanDebt(row rowScanner) (*domain.DebtRecord, error) {
	var (
		debt                      domain.DebtRecord
		kind, status              string
		total, paid               pgtype.Numeric
		due, createdAt, updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&debt.ID,
		&debt.TransactionID,
		&debt.PartyID,
		&kind,
		&total,
		&paid,
		&status,
		&due,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDebtNotFound
		}
		return nil, err
	}

	debt.Kind = domain.DebtKind(kind)
	debt.Status = domain.DebtStatus(status)
	debt.TotalAmount = numericToDecimal(total)
	debt.PaidAmount = numericToDecimal(paid)
	if due.Valid {
		t := due.Time
		debt.DueDate = &t
	}
	debt.CreatedAt = createdAt.Time
	debt.UpdatedAt = updatedAt.Time

	return &debt, nil
}
