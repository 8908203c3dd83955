package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tokogudang/backoffice/internal/domain"
	"github.com/tokogudang/backoffice/internal/usecase"
)

// PaymentRepository implements usecase.PaymentRepository.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const paymentColumns = `id, debt_id, account_id, entry_id, amount, date, note, created_at`

// Create creates a new payment row.
func (r *PaymentRepository) Create(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	query := `
		INSERT INTO debt_payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := queryerFor(tx, r.pool).Exec(ctx, query,
		payment.ID,
		payment.DebtID,
		payment.AccountID,
		payment.EntryID,
		decimalToNumeric(payment.Amount),
		timeToPgTimestamptz(payment.Date),
		payment.Note,
		timeToPgTimestamptz(payment.CreatedAt),
	)

	return err
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM debt_payments WHERE id = $1`

	return scanPayment(r.pool.QueryRow(ctx, query, id))
}

// ListByDebt lists payments against a debt in application order.
func (r *PaymentRepository) ListByDebt(ctx context.Context, debtID string) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM debt_payments
		WHERE debt_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, debtID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}

// CountByDebt counts payments against a debt.
func (r *PaymentRepository) CountByDebt(ctx context.Context, debtID string) (int, error) {
	query := `SELECT COUNT(*) FROM debt_payments WHERE debt_id = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, debtID).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// Delete removes a payment row.
func (r *PaymentRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	query := `DELETE FROM debt_payments WHERE id = $1`

	tag, err := queryerFor(tx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}

	return nil
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var (
		payment         domain.Payment
		amount          pgtype.Numeric
		date, createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&payment.ID,
		&payment.DebtID,
		&payment.AccountID,
		&payment.EntryID,
		&amount,
		&date,
		&payment.Note,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}

	payment.Amount = numericToDecimal(amount)
	payment.Date = date.Time
	payment.CreatedAt = createdAt.Time

	return &payment, nil
}
