package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidName      = errors.New("invalid name")
	ErrAmountTooLarge   = errors.New("amount exceeds maximum allowed")
	ErrInvalidCategory  = errors.New("invalid entry category")
	ErrInvalidPageParam = errors.New("invalid pagination parameter")
)

// Validation constants
const (
	MaxNameLength   = 255
	MaxNoteLength   = 1024
	MaxEntryAmount  = "1000000000000" // 1 trillion
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Entry categories recognized by the ledger. Free-form categories from
// the legacy system map onto "other".
var validCategories = map[string]bool{
	"sale": true, "purchase": true, "transfer": true,
	"installment": true, "consignment": true, "operational": true,
	"correction": true, "other": true,
}

// ValidateName validates an account or party display name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}

	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, MaxNameLength)
	}

	return nil
}

// ValidateAmount validates a ledger amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxEntryAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxEntryAmount)
	}

	return nil
}

// ValidateCategory validates an entry category.
func ValidateCategory(category string) error {
	if !validCategories[strings.ToLower(strings.TrimSpace(category))] {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	return nil
}

// ValidatePagination normalizes limit/offset, clamping to bounds.
func ValidatePagination(limit, offset int) (int, int, error) {
	if offset < 0 {
		return 0, 0, fmt.Errorf("%w: offset must not be negative", ErrInvalidPageParam)
	}

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	return limit, offset, nil
}
