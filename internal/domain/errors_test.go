package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect ErrorKind
	}{
		{"account not found", ErrAccountNotFound, KindNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", ErrDebtNotFound), KindNotFound},
		{"invalid amount", ErrInvalidAmount, KindValidation},
		{"same account", ErrSameAccount, KindValidation},
		{"payments exist", ErrPaymentsExist, KindValidation},
		{
			"insufficient funds",
			&InsufficientFundsError{AccountID: "a", Balance: decimal.NewFromInt(10), Requested: decimal.NewFromInt(20)},
			KindInsufficientFunds,
		},
		{
			"insufficient stock",
			&InsufficientStockError{Available: decimal.NewFromInt(30), Requested: decimal.NewFromInt(50)},
			KindInsufficientStock,
		},
		{
			"overpayment",
			&OverpaymentError{Paid: decimal.NewFromInt(900), Amount: decimal.NewFromInt(200), Total: decimal.NewFromInt(1000)},
			KindOverpayment,
		},
		{"version conflict", &VersionConflictError{Resource: "account", ID: "a"}, KindConflict},
		{
			"partial failure",
			&PartialFailureError{Operation: "stock.transfer", FailedStep: "credit", Cause: errors.New("boom")},
			KindPartialFailure,
		},
		{"unknown error", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.expect {
				t.Errorf("expected kind %s, got %s", tt.expect, got)
			}
		})
	}
}

func TestPartialFailureError_Message(t *testing.T) {
	err := &PartialFailureError{
		Operation:     "consignment.sell",
		FailedStep:    "append cash entry",
		Cause:         errors.New("connection reset"),
		Compensated:   []string{"record movement", "decrement stock"},
		Uncompensated: []string{"update consignment"},
	}

	msg := err.Error()
	for _, want := range []string{"consignment.sell", "append cash entry", "connection reset", "decrement stock", "NOT compensated: update consignment"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}

	if !errors.Is(err, err.Cause) {
		t.Error("expected Unwrap to expose the cause")
	}
}
