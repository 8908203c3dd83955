package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebtKind distinguishes money owed to us from money we owe.
type DebtKind string

const (
	DebtReceivable DebtKind = "receivable"
	DebtPayable    DebtKind = "payable"
)

// DebtStatus classifies how much of a debt has been settled.
type DebtStatus string

const (
	DebtUnpaid  DebtStatus = "unpaid"
	DebtPartial DebtStatus = "partial"
	DebtPaid    DebtStatus = "paid"
)

// PaymentTolerance absorbs decimal rounding when comparing paid
// amounts against totals.
var PaymentTolerance = decimal.NewFromFloat(0.01)

// DebtRecord tracks the outstanding balance of one credit transaction.
// PaidAmount is derived from the payment rows and never written
// independently of them.
type DebtRecord struct {
	ID            string
	TransactionID string
	PartyID       string
	Kind          DebtKind
	TotalAmount   decimal.Decimal
	PaidAmount    decimal.Decimal
	Status        DebtStatus
	DueDate       *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Outstanding returns the unpaid remainder, floored at zero.
func (d *DebtRecord) Outstanding() decimal.Decimal {
	rest := d.TotalAmount.Sub(d.PaidAmount)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// ValidatePayment rejects a payment that would overshoot the total
// beyond the rounding tolerance.
func (d *DebtRecord) ValidatePayment(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if d.PaidAmount.Add(amount).GreaterThan(d.TotalAmount.Add(PaymentTolerance)) {
		return &OverpaymentError{
			DebtID: d.ID,
			Paid:   d.PaidAmount,
			Amount: amount,
			Total:  d.TotalAmount,
		}
	}
	return nil
}

// ClassifyDebt maps a paid amount to a status, within tolerance.
func ClassifyDebt(paid, total decimal.Decimal) DebtStatus {
	switch {
	case paid.GreaterThanOrEqual(total.Sub(PaymentTolerance)):
		return DebtPaid
	case paid.IsPositive():
		return DebtPartial
	default:
		return DebtUnpaid
	}
}

// Payment is one installment (cicilan) against a debt record. Creating
// a payment also creates the matching ledger entry on Account.
type Payment struct {
	ID        string
	DebtID    string
	AccountID string
	EntryID   string
	Amount    decimal.Decimal
	Date      time.Time
	Note      string
	CreatedAt time.Time
}
