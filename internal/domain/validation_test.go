package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectError bool
	}{
		{"valid name", "Kas Utama", false},
		{"empty name", "", true},
		{"whitespace only", "   ", true},
		{"too long", string(make([]byte, 300)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)

			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}

			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name        string
		amount      decimal.Decimal
		expectError bool
	}{
		{"positive amount", decimal.NewFromInt(100), false},
		{"zero amount", decimal.Zero, true},
		{"negative amount", decimal.NewFromInt(-5), true},
		{"above maximum", decimal.RequireFromString("1000000000001"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(tt.amount)

			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}

			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateCategory(t *testing.T) {
	if err := ValidateCategory("installment"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := ValidateCategory(" Transfer "); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := ValidateCategory("lottery"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestValidatePagination(t *testing.T) {
	limit, offset, err := ValidatePagination(0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != DefaultPageSize || offset != 0 {
		t.Errorf("expected defaults, got limit=%d offset=%d", limit, offset)
	}

	limit, _, _ = ValidatePagination(5000, 0)
	if limit != MaxPageSize {
		t.Errorf("expected limit clamped to %d, got %d", MaxPageSize, limit)
	}

	if _, _, err := ValidatePagination(10, -1); err == nil {
		t.Error("expected error for negative offset")
	}
}
