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

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

const entryColumns = `id, account_id, direction, category, amount, running_balance, business_date, note, reference_id, created_at`

// Create creates a new ledger entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := queryerFor(tx, r.pool).Exec(ctx, query,
		entry.ID,
		entry.AccountID,
		string(entry.Direction),
		entry.Category,
		decimalToNumeric(entry.Amount),
		decimalToNumeric(entry.RunningBalance),
		timeToPgTimestamptz(entry.BusinessDate),
		entry.Note,
		entry.ReferenceID,
		timeToPgTimestamptz(entry.CreatedAt),
	)

	return err
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE id = $1`

	return scanEntry(r.pool.QueryRow(ctx, query, id))
}

// GetByIDTx retrieves an entry by ID inside an open transaction.
func (r *EntryRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE id = $1 FOR UPDATE`

	return scanEntry(queryerFor(tx, r.pool).QueryRow(ctx, query, id))
}

// Update rewrites the mutable fields of an entry. The recording
// instant is immutable once written.
func (r *EntryRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	query := `
		UPDATE ledger_entries
		SET direction = $2, category = $3, amount = $4, running_balance = $5,
		    business_date = $6, note = $7
		WHERE id = $1
	`

	tag, err := queryerFor(tx, r.pool).Exec(ctx, query,
		entry.ID,
		string(entry.Direction),
		entry.Category,
		decimalToNumeric(entry.Amount),
		decimalToNumeric(entry.RunningBalance),
		timeToPgTimestamptz(entry.BusinessDate),
		entry.Note,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// Delete removes an entry.
func (r *EntryRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	query := `DELETE FROM ledger_entries WHERE id = $1`

	tag, err := queryerFor(tx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// ShiftRunningBalances adds delta to the running balance of every
// entry of the account created strictly after the given instant. One
// statement cascades a mid-chain edit through the whole suffix.
func (r *EntryRepository) ShiftRunningBalances(ctx context.Context, tx usecase.Transaction, accountID string, after time.Time, delta decimal.Decimal) error {
	query := `
		UPDATE ledger_entries
		SET running_balance = running_balance + $3
		WHERE account_id = $1 AND created_at > $2
	`

	_, err := queryerFor(tx, r.pool).Exec(ctx, query,
		accountID,
		timeToPgTimestamptz(after),
		decimalToNumeric(delta),
	)

	return err
}

// ListByAccount lists entries of an account in chain order.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListByReference lists entries sharing a reference ID in chain order.
func (r *EntryRepository) ListByReference(ctx context.Context, referenceID string) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE reference_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, referenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntry(row rowScanner) (*domain.LedgerEntry, error) {
	var (
		entry                   domain.LedgerEntry
		direction               string
		amount, running         pgtype.Numeric
		businessDate, createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&entry.ID,
		&entry.AccountID,
		&direction,
		&entry.Category,
		&amount,
		&running,
		&businessDate,
		&entry.Note,
		&entry.ReferenceID,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}

	entry.Direction = domain.Direction(direction)
	entry.Amount = numericToDecimal(amount)
	entry.RunningBalance = numericToDecimal(running)
	entry.BusinessDate = businessDate.Time
	entry.CreatedAt = createdAt.Time

	return &entry, nil
}

func scanEntries(rows pgx.Rows) ([]*domain.LedgerEntry, error) {
	var entries []*domain.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
