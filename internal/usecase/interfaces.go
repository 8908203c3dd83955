package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokogudang/backoffice/internal/domain"
)

// AccountRepository defines data access for cash accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	// UpdateBalance writes the balance projection. The expected version
	// is checked and incremented in one statement; a stale version
	// yields domain.VersionConflictError.
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	GetByIDTx(ctx context.Context, tx Transaction, id string) (*domain.LedgerEntry, error)
	Update(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	Delete(ctx context.Context, tx Transaction, id string) error
	// ShiftRunningBalances adds delta to the running balance of every
	// entry of the account created strictly after the given instant.
	ShiftRunningBalances(ctx context.Context, tx Transaction, accountID string, after time.Time, delta decimal.Decimal) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error)
	ListByReference(ctx context.Context, referenceID string) ([]*domain.LedgerEntry, error)
}

// DebtRepository defines data access for debt records.
type DebtRepository interface {
	Create(ctx context.Context, tx Transaction, debt *domain.DebtRecord) error
	GetByID(ctx context.Context, id string) (*domain.DebtRecord, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.DebtRecord, error)
	GetByTransaction(ctx context.Context, transactionID string) (*domain.DebtRecord, error)
	UpdatePaid(ctx context.Context, tx Transaction, id string, paid decimal.Decimal, status domain.DebtStatus, updatedAt time.Time) error
	Delete(ctx context.Context, tx Transaction, id string) error
	List(ctx context.Context, kind domain.DebtKind, limit, offset int) ([]*domain.DebtRecord, error)
}

// PaymentRepository defines data access for debt payments.
type PaymentRepository interface {
	Create(ctx context.Context, tx Transaction, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	ListByDebt(ctx context.Context, debtID string) ([]*domain.Payment, error)
	CountByDebt(ctx context.Context, debtID string) (int, error)
	Delete(ctx context.Context, tx Transaction, id string) error
}

// StockRepository defines data access for stock positions and movements.
type StockRepository interface {
	GetPosition(ctx context.Context, productID, branchID string) (*domain.StockPosition, error)
	GetPositionForUpdate(ctx context.Context, tx Transaction, productID, branchID string) (*domain.StockPosition, error)
	CreatePosition(ctx context.Context, tx Transaction, pos *domain.StockPosition) error
	// UpdateQuantity checks and increments the row version, like
	// AccountRepository.UpdateBalance.
	UpdateQuantity(ctx context.Context, tx Transaction, productID, branchID string, qty decimal.Decimal, expectedVersion int64, updatedAt time.Time) error
	CreateMovement(ctx context.Context, tx Transaction, movement *domain.StockMovement) error
	ListMovements(ctx context.Context, productID, branchID string, limit, offset int) ([]*domain.StockMovement, error)
	ListMovementsByReference(ctx context.Context, referenceID string) ([]*domain.StockMovement, error)
}

// ConsignmentRepository defines data access for consignments.
type ConsignmentRepository interface {
	Create(ctx context.Context, consignment *domain.Consignment) error
	GetByID(ctx context.Context, id string) (*domain.Consignment, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Consignment, error)
	UpdateCounters(ctx context.Context, tx Transaction, id string, sold, remaining decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Consignment, error)
}

// TransactionRepository defines data access for business transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	CreateItem(ctx context.Context, tx Transaction, item *domain.TransactionItem) error
	GetItems(ctx context.Context, transactionID string) ([]*domain.TransactionItem, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error
	SetApplied(ctx context.Context, tx Transaction, id string, stockApplied, cashApplied bool, updatedAt time.Time) error
	DeleteItems(ctx context.Context, tx Transaction, transactionID string) error
	Delete(ctx context.Context, tx Transaction, id string) error
}

// FlagRepository defines data access for reconciliation flags.
type FlagRepository interface {
	Create(ctx context.Context, flag *domain.ReconciliationFlag) error
	GetByID(ctx context.Context, id string) (*domain.ReconciliationFlag, error)
	ListOpen(ctx context.Context, limit, offset int) ([]*domain.ReconciliationFlag, error)
	Resolve(ctx context.Context, id string, resolvedAt time.Time) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
	GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation on transient failures (deadlocks,
// serialization failures, version conflicts).
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
