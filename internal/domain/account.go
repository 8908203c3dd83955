package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a cash account (kas). Balance is a projection of
// the entry chain: it always equals the running balance of the most
// recent ledger entry, or SeedBalance when no entries exist.
type Account struct {
	ID          string
	Name        string
	SeedBalance decimal.Decimal
	Balance     decimal.Decimal
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidateWithdrawal checks if the account holds enough to cover amount.
func (a *Account) ValidateWithdrawal(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return &InsufficientFundsError{
			AccountID: a.ID,
			Balance:   a.Balance,
			Requested: amount,
		}
	}
	return nil
}
