package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockPosition is the on-hand quantity of one product at one branch.
// Quantity never goes below zero.
type StockPosition struct {
	ProductID string
	BranchID  string
	Quantity  decimal.Decimal
	Version   int64
	UpdatedAt time.Time
}

// ValidateDecrement checks the position can give up qty.
func (p *StockPosition) ValidateDecrement(qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidQuantity
	}
	if p.Quantity.LessThan(qty) {
		return &InsufficientStockError{
			ProductID: p.ProductID,
			BranchID:  p.BranchID,
			Available: p.Quantity,
			Requested: qty,
		}
	}
	return nil
}

// StockMovement is an append-only audit record of one quantity change.
// Reversals are recorded as opposite-direction movements; rows are
// never deleted.
type StockMovement struct {
	ID          string
	ProductID   string
	BranchID    string
	Direction   Direction
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	ReferenceID string
	Date        time.Time
	CreatedAt   time.Time
}

// SignedQuantity returns the quantity with the direction's sign applied.
func (m *StockMovement) SignedQuantity() decimal.Decimal {
	if m.Direction == DirectionOut {
		return m.Quantity.Neg()
	}
	return m.Quantity
}
