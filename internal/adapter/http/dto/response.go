package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokogudang/backoffice/internal/domain"
	"github.com/tokogudang/backoffice/internal/usecase"
)

// Envelope is the uniform response shape. Errors carry a
// machine-readable kind next to the human-readable detail.
type Envelope struct {
	OK          bool   `json:"ok"`
	Data        any    `json:"data,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"`
	ErrorDetail string `json:"error_detail,omitempty"`
}

// AccountResponse represents a cash account in API responses.
type AccountResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	SeedBalance decimal.Decimal `json:"seed_balance"`
	Balance     decimal.Decimal `json:"balance"`
	Version     int64           `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:          a.ID,
		Name:        a.Name,
		SeedBalance: a.SeedBalance,
		Balance:     a.Balance,
		Version:     a.Version,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID             string          `json:"id"`
	AccountID      string          `json:"account_id"`
	Direction      string          `json:"direction"`
	Category       string          `json:"category"`
	Amount         decimal.Decimal `json:"amount"`
	RunningBalance decimal.Decimal `json:"running_balance"`
	BusinessDate   time.Time       `json:"business_date"`
	Note           string          `json:"note,omitempty"`
	ReferenceID    string          `json:"reference_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	return &EntryResponse{
		ID:             e.ID,
		AccountID:      e.AccountID,
		Direction:      string(e.Direction),
		Category:       e.Category,
		Amount:         e.Amount,
		RunningBalance: e.RunningBalance,
		BusinessDate:   e.BusinessDate,
		Note:           e.Note,
		ReferenceID:    e.ReferenceID,
		CreatedAt:      e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// TransferResponse represents the two legs of a cash transfer.
type TransferResponse struct {
	ReferenceID string         `json:"reference_id"`
	OutEntry    *EntryResponse `json:"out_entry"`
	InEntry     *EntryResponse `json:"in_entry"`
}

// TransferFromResult converts a transfer result to a response.
func TransferFromResult(r *usecase.TransferResult) *TransferResponse {
	return &TransferResponse{
		ReferenceID: r.ReferenceID,
		OutEntry:    EntryFromDomain(r.OutEntry),
		InEntry:     EntryFromDomain(r.InEntry),
	}
}

// DebtResponse represents a debt record in API responses.
type DebtResponse struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id"`
	PartyID       string          `json:"party_id"`
	Kind          string          `json:"kind"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	Status        string          `json:"status"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// DebtFromDomain converts a domain debt record to a response.
func DebtFromDomain(d *domain.DebtRecord) *DebtResponse {
	return &DebtResponse{
		ID:            d.ID,
		TransactionID: d.TransactionID,
		PartyID:       d.PartyID,
		Kind:          string(d.Kind),
		TotalAmount:   d.TotalAmount,
		PaidAmount:    d.PaidAmount,
		Outstanding:   d.Outstanding(),
		Status:        string(d.Status),
		DueDate:       d.DueDate,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// DebtsFromDomain converts domain debt records to responses.
func DebtsFromDomain(debts []*domain.DebtRecord) []*DebtResponse {
	result := make([]*DebtResponse, len(debts))
	for i, d := range debts {
		result[i] = DebtFromDomain(d)
	}
	return result
}

// PaymentResponse represents a debt payment in API responses.
type PaymentResponse struct {
	ID        string          `json:"id"`
	DebtID    string          `json:"debt_id"`
	AccountID string          `json:"account_id"`
	EntryID   string          `json:"entry_id"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
	Note      string          `json:"note,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// PaymentFromDomain converts a domain payment to a response.
func PaymentFromDomain(p *domain.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:        p.ID,
		DebtID:    p.DebtID,
		AccountID: p.AccountID,
		EntryID:   p.EntryID,
		Amount:    p.Amount,
		Date:      p.Date,
		Note:      p.Note,
		CreatedAt: p.CreatedAt,
	}
}

// PaymentsFromDomain converts domain payments to responses.
func PaymentsFromDomain(payments []*domain.Payment) []*PaymentResponse {
	result := make([]*PaymentResponse, len(payments))
	for i, p := range payments {
		result[i] = PaymentFromDomain(p)
	}
	return result
}

// PositionResponse represents a stock position in API responses.
type PositionResponse struct {
	ProductID string          `json:"product_id"`
	BranchID  string          `json:"branch_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Version   int64           `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PositionFromDomain converts a domain stock position to a response.
func PositionFromDomain(p *domain.StockPosition) *PositionResponse {
	return &PositionResponse{
		ProductID: p.ProductID,
		BranchID:  p.BranchID,
		Quantity:  p.Quantity,
		Version:   p.Version,
		UpdatedAt: p.UpdatedAt,
	}
}

// MovementResponse represents a stock movement in API responses.
type MovementResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	BranchID    string          `json:"branch_id"`
	Direction   string          `json:"direction"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	ReferenceID string          `json:"reference_id,omitempty"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

// MovementFromDomain converts a domain stock movement to a response.
func MovementFromDomain(m *domain.StockMovement) *MovementResponse {
	return &MovementResponse{
		ID:          m.ID,
		ProductID:   m.ProductID,
		BranchID:    m.BranchID,
		Direction:   string(m.Direction),
		Quantity:    m.Quantity,
		UnitCost:    m.UnitCost,
		ReferenceID: m.ReferenceID,
		Date:        m.Date,
		CreatedAt:   m.CreatedAt,
	}
}

// MovementsFromDomain converts domain stock movements to responses.
func MovementsFromDomain(movements []*domain.StockMovement) []*MovementResponse {
	result := make([]*MovementResponse, len(movements))
	for i, m := range movements {
		result[i] = MovementFromDomain(m)
	}
	return result
}

// ConsignmentResponse represents a consignment in API responses.
type ConsignmentResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ConsigneeID string          `json:"consignee_id"`
	BranchID    string          `json:"branch_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Sold        decimal.Decimal `json:"sold"`
	Remaining   decimal.Decimal `json:"remaining"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ConsignmentFromDomain converts a domain consignment to a response.
func ConsignmentFromDomain(c *domain.Consignment) *ConsignmentResponse {
	return &ConsignmentResponse{
		ID:          c.ID,
		ProductID:   c.ProductID,
		ConsigneeID: c.ConsigneeID,
		BranchID:    c.BranchID,
		Quantity:    c.Quantity,
		Sold:        c.Sold,
		Remaining:   c.Remaining,
		UnitPrice:   c.UnitPrice,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// ConsignmentsFromDomain converts domain consignments to responses.
func ConsignmentsFromDomain(consignments []*domain.Consignment) []*ConsignmentResponse {
	result := make([]*ConsignmentResponse, len(consignments))
	for i, c := range consignments {
		result[i] = ConsignmentFromDomain(c)
	}
	return result
}

// TransactionResponse represents a transaction header in API responses.
type TransactionResponse struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	PartyID      string    `json:"party_id,omitempty"`
	BranchID     string    `json:"branch_id"`
	AccountID    string    `json:"account_id,omitempty"`
	Date         time.Time `json:"date"`
	Note         string    `json:"note,omitempty"`
	StockApplied bool      `json:"stock_applied"`
	CashApplied  bool      `json:"cash_applied"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:           t.ID,
		Type:         string(t.Type),
		Status:       string(t.Status),
		PartyID:      t.PartyID,
		BranchID:     t.BranchID,
		AccountID:    t.AccountID,
		Date:         t.Date,
		Note:         t.Note,
		StockApplied: t.StockApplied,
		CashApplied:  t.CashApplied,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// FlagResponse represents a reconciliation flag in API responses.
type FlagResponse struct {
	ID            string     `json:"id"`
	Operation     string     `json:"operation"`
	ResourceType  string     `json:"resource_type"`
	ResourceID    string     `json:"resource_id"`
	FailedStep    string     `json:"failed_step"`
	Detail        string     `json:"detail"`
	Uncompensated []string   `json:"uncompensated,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}

// FlagFromDomain converts a domain reconciliation flag to a response.
func FlagFromDomain(f *domain.ReconciliationFlag) *FlagResponse {
	return &FlagResponse{
		ID:            f.ID,
		Operation:     f.Operation,
		ResourceType:  f.ResourceType,
		ResourceID:    f.ResourceID,
		FailedStep:    f.FailedStep,
		Detail:        f.Detail,
		Uncompensated: f.Uncompensated,
		Status:        string(f.Status),
		CreatedAt:     f.CreatedAt,
		ResolvedAt:    f.ResolvedAt,
	}
}

// FlagsFromDomain converts domain reconciliation flags to responses.
func FlagsFromDomain(flags []*domain.ReconciliationFlag) []*FlagResponse {
	result := make([]*FlagResponse, len(flags))
	for i, f := range flags {
		result[i] = FlagFromDomain(f)
	}
	return result
}
