package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// Not-found errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrEntryNotFound       = errors.New("ledger entry not found")
	ErrDebtNotFound        = errors.New("debt record not found")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrConsignmentNotFound = errors.New("consignment not found")
	ErrStockNotFound       = errors.New("stock position not found")
	ErrFlagNotFound        = errors.New("reconciliation flag not found")

	// Validation errors
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrInvalidDirection = errors.New("direction must be in or out")
	ErrSameAccount      = errors.New("cannot transfer to same account")
	ErrSameBranch       = errors.New("cannot transfer to same branch")

	// Lifecycle errors
	ErrTransactionCancelled = errors.New("transaction is cancelled")
	ErrPaymentsExist        = errors.New("transaction has payments and cannot be cancelled")
	ErrUnknownOperation     = errors.New("unknown coordinator operation")
)

// ErrorKind is the machine-readable classification surfaced to API
// callers alongside the human-readable message.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindNotFound          ErrorKind = "not_found"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindInsufficientStock ErrorKind = "insufficient_stock"
	KindOverpayment       ErrorKind = "overpayment"
	KindConflict          ErrorKind = "conflict"
	KindPartialFailure    ErrorKind = "partial_failure"
	KindInternal          ErrorKind = "internal"
)

// InsufficientFundsError reports a withdrawal larger than the account
// balance, with both figures for display.
type InsufficientFundsError struct {
	AccountID string
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds on account %s: balance %s, requested %s",
		e.AccountID, e.Balance, e.Requested)
}

// InsufficientStockError reports an attempted decrement past the
// on-hand quantity.
type InsufficientStockError struct {
	ProductID string
	BranchID  string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s at branch %s: available %s, requested %s",
		e.ProductID, e.BranchID, e.Available, e.Requested)
}

// OverpaymentError reports a payment that would push the paid amount
// past the debt total.
type OverpaymentError struct {
	DebtID string
	Paid   decimal.Decimal
	Amount decimal.Decimal
	Total  decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("overpayment on debt %s: paid %s + payment %s exceeds total %s",
		e.DebtID, e.Paid, e.Amount, e.Total)
}

// VersionConflictError reports an optimistic-lock failure on an
// account or stock row. Safe to retry.
type VersionConflictError struct {
	Resource string
	ID       string
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict on %s %s", e.Resource, e.ID)
}

// PartialFailureError is raised by the coordinator when a step failed
// after earlier steps committed. Compensated lists the steps that were
// rolled back; Uncompensated the ones whose rollback also failed and
// now need manual reconciliation.
type PartialFailureError struct {
	Operation     string
	FailedStep    string
	Cause         error
	Compensated   []string
	Uncompensated []string
	RollbackErrs  []error
}

func (e *PartialFailureError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "operation %s failed at step %s: %v", e.Operation, e.FailedStep, e.Cause)
	if len(e.Compensated) > 0 {
		fmt.Fprintf(&b, "; compensated: %s", strings.Join(e.Compensated, ", "))
	}
	if len(e.Uncompensated) > 0 {
		fmt.Fprintf(&b, "; NOT compensated: %s", strings.Join(e.Uncompensated, ", "))
	}
	return b.String()
}

func (e *PartialFailureError) Unwrap() error { return e.Cause }

// KindOf classifies an error into its machine-readable kind.
func KindOf(err error) ErrorKind {
	var (
		funds   *InsufficientFundsError
		stock   *InsufficientStockError
		overpay *OverpaymentError
		version *VersionConflictError
		partial *PartialFailureError
	)

	switch {
	case errors.As(err, &partial):
		return KindPartialFailure
	case errors.As(err, &funds):
		return KindInsufficientFunds
	case errors.As(err, &stock):
		return KindInsufficientStock
	case errors.As(err, &overpay):
		return KindOverpayment
	case errors.As(err, &version):
		return KindConflict
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrEntryNotFound),
		errors.Is(err, ErrDebtNotFound),
		errors.Is(err, ErrPaymentNotFound),
		errors.Is(err, ErrTransactionNotFound),
		errors.Is(err, ErrConsignmentNotFound),
		errors.Is(err, ErrStockNotFound),
		errors.Is(err, ErrFlagNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidDirection),
		errors.Is(err, ErrSameAccount),
		errors.Is(err, ErrSameBranch),
		errors.Is(err, ErrTransactionCancelled),
		errors.Is(err, ErrPaymentsExist),
		errors.Is(err, ErrUnknownOperation):
		return KindValidation
	default:
		return KindInternal
	}
}
