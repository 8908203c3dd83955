package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokogudang/backoffice/internal/domain"
	"github.com/tokogudang/backoffice/internal/usecase"
)

// CreateAccountRequest represents a request to create a cash account.
type CreateAccountRequest struct {
	Name        string          `json:"name"`
	SeedBalance decimal.Decimal `json:"seed_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Name:        r.Name,
		SeedBalance: r.SeedBalance,
	}
}

// AppendEntryRequest represents a request to append a ledger entry.
type AppendEntryRequest struct {
	AccountID    string          `json:"account_id"`
	Direction    string          `json:"direction"`
	Amount       decimal.Decimal `json:"amount"`
	Category     string          `json:"category"`
	BusinessDate time.Time       `json:"business_date"`
	Note         string          `json:"note,omitempty"`
	ReferenceID  string          `json:"reference_id,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *AppendEntryRequest) ToUseCaseInput() usecase.AppendEntryInput {
	return usecase.AppendEntryInput{
		AccountID:    r.AccountID,
		Direction:    domain.Direction(r.Direction),
		Amount:       r.Amount,
		Category:     r.Category,
		BusinessDate: r.BusinessDate,
		Note:         r.Note,
		ReferenceID:  r.ReferenceID,
	}
}

// UpdateEntryRequest represents a request to rewrite a ledger entry.
type UpdateEntryRequest struct {
	Direction    string          `json:"direction"`
	Amount       decimal.Decimal `json:"amount"`
	Category     string          `json:"category"`
	BusinessDate time.Time       `json:"business_date"`
	Note         string          `json:"note,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateEntryRequest) ToUseCaseInput(entryID string) usecase.UpdateEntryInput {
	return usecase.UpdateEntryInput{
		EntryID:      entryID,
		Direction:    domain.Direction(r.Direction),
		Amount:       r.Amount,
		Category:     r.Category,
		BusinessDate: r.BusinessDate,
		Note:         r.Note,
	}
}

// TransferRequest represents a request to move cash between accounts.
type TransferRequest struct {
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	BusinessDate  time.Time       `json:"business_date"`
	Note          string          `json:"note,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *TransferRequest) ToUseCaseInput() usecase.TransferInput {
	return usecase.TransferInput{
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Amount:        r.Amount,
		BusinessDate:  r.BusinessDate,
		Note:          r.Note,
	}
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
