package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tokogudang/backoffice/internal/domain"
	"github.com/tokogudang/backoffice/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, type, status, party_id, branch_id, account_id, date, note, stock_applied, cash_applied, created_at, updated_at`

const itemColumns = `id, transaction_id, product_id, quantity, unit_price, unit_cost`

// Create creates a new transaction header.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := queryerFor(tx, r.pool).Exec(ctx, query,
		txn.ID,
		string(txn.Type),
		string(txn.Status),
		txn.PartyID,
		txn.BranchID,
		txn.AccountID,
		timeToPgTimestamptz(txn.Date),
		txn.Note,
		txn.StockApplied,
		txn.CashApplied,
		timeToPgTimestamptz(txn.CreatedAt),
		timeToPgTimestamptz(txn.UpdatedAt),
	)

	return err
}

// GetByID retrieves a transaction header by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	var (
		txn                        domain.Transaction
		typ, status                string
		date, createdAt, updatedAt pgtype.Timestamptz
	)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&txn.ID,
		&typ,
		&status,
		&txn.PartyID,
		&txn.BranchID,
		&txn.AccountID,
		&date,
		&txn.Note,
		&txn.StockApplied,
		&txn.CashApplied,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	txn.Type = domain.TransactionType(typ)
	txn.Status = domain.TransactionStatus(status)
	txn.Date = date.Time
	txn.CreatedAt = createdAt.Time
	txn.UpdatedAt = updatedAt.Time

	return &txn, nil
}

// CreateItem creates a transaction line.
func (r *TransactionRepository) CreateItem(ctx context.Context, tx usecase.Transaction, item *domain.TransactionItem) error {
	query := `
		INSERT INTO transaction_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := queryerFor(tx, r.pool).Exec(ctx, query,
		item.ID,
		item.TransactionID,
		item.ProductID,
		decimalToNumeric(item.Quantity),
		decimalToNumeric(item.UnitPrice),
		decimalToNumeric(item.UnitCost),
	)

	return err
}

// GetItems lists the lines of a transaction.
func (r *TransactionRepository) GetItems(ctx context.Context, transactionID string) ([]*domain.TransactionItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM transaction_items
		WHERE transaction_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.TransactionItem
	for rows.Next() {
		var (
			item                     domain.TransactionItem
			qty, unitPrice, unitCost pgtype.Numeric
		)

		err := rows.Scan(
			&item.ID,
			&item.TransactionID,
			&item.ProductID,
			&qty,
			&unitPrice,
			&unitCost,
		)
		if err != nil {
			return nil, err
		}

		item.Quantity = numericToDecimal(qty)
		item.UnitPrice = numericToDecimal(unitPrice)
		item.UnitCost = numericToDecimal(unitCost)

		items = append(items, &item)
	}

	return items, rows.Err()
}

// UpdateStatus writes the lifecycle status.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error {
	query := `
		UPDATE transactions
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	tag, err := queryerFor(tx, r.pool).Exec(ctx, query, id, string(status), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// SetApplied writes the side-effect markers.
func (r *TransactionRepository) SetApplied(ctx context.Context, tx usecase.Transaction, id string, stockApplied, cashApplied bool, updatedAt time.Time) error {
	query := `
		UPDATE transactions
		SET stock_applied = $2, cash_applied = $3, updated_at = $4
		WHERE id = $1
	`

	tag, err := queryerFor(tx, r.pool).Exec(ctx, query, id, stockApplied, cashApplied, timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// DeleteItems removes all lines of a transaction.
func (r *TransactionRepository) DeleteItems(ctx context.Context, tx usecase.Transaction, transactionID string) error {
	query := `DELETE FROM transaction_items WHERE transaction_id = $1`

	_, err := queryerFor(tx, r.pool).Exec(ctx, query, transactionID)

	return err
}

// Delete removes a transaction header.
func (r *TransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	query := `DELETE FROM transactions WHERE id = $1`

	tag, err := queryerFor(tx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}
