package domain

import "time"

// Event types
const (
	EventTypeEntryAppended         = "entry.appended"
	EventTypeEntryReversed         = "entry.reversed"
	EventTypeTransferCreated       = "transfer.created"
	EventTypePaymentApplied        = "payment.applied"
	EventTypeStockMoved            = "stock.moved"
	EventTypeSagaCompensated       = "saga.compensated"
	EventTypeReconciliationFlagged = "reconciliation.flagged"
)

// Aggregate types
const (
	AggregateTypeAccount     = "account"
	AggregateTypeDebt        = "debt"
	AggregateTypeStock       = "stock"
	AggregateTypeTransaction = "transaction"
	AggregateTypeConsignment = "consignment"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// EntryAppendedEvent payload
type EntryAppendedEvent struct {
	EntryID        string `json:"entry_id"`
	AccountID      string `json:"account_id"`
	Direction      string `json:"direction"`
	Amount         string `json:"amount"`
	RunningBalance string `json:"running_balance"`
}

// EntryReversedEvent payload
type EntryReversedEvent struct {
	EntryID   string `json:"entry_id"`
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
}

// TransferCreatedEvent payload
type TransferCreatedEvent struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	OutEntryID    string `json:"out_entry_id"`
	InEntryID     string `json:"in_entry_id"`
	Amount        string `json:"amount"`
}

// PaymentAppliedEvent payload
type PaymentAppliedEvent struct {
	PaymentID string `json:"payment_id"`
	DebtID    string `json:"debt_id"`
	Amount    string `json:"amount"`
	Status    string `json:"status"`
}

// StockMovedEvent payload
type StockMovedEvent struct {
	MovementID string `json:"movement_id"`
	ProductID  string `json:"product_id"`
	BranchID   string `json:"branch_id"`
	Direction  string `json:"direction"`
	Quantity   string `json:"quantity"`
}

// SagaCompensatedEvent payload
type SagaCompensatedEvent struct {
	Operation   string   `json:"operation"`
	FailedStep  string   `json:"failed_step"`
	Compensated []string `json:"compensated"`
}

// ReconciliationFlaggedEvent payload
type ReconciliationFlaggedEvent struct {
	FlagID       string `json:"flag_id"`
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
}
