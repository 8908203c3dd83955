package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Consignment tracks goods placed with a consignee: how much was
// dropped off, how much has been sold, and how much remains claimable.
type Consignment struct {
	ID          string
	ProductID   string
	ConsigneeID string
	BranchID    string
	Quantity    decimal.Decimal
	Sold        decimal.Decimal
	Remaining   decimal.Decimal
	UnitPrice   decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidateSale checks qty can still be sold from this consignment.
func (c *Consignment) ValidateSale(qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidQuantity
	}
	if c.Remaining.LessThan(qty) {
		return &InsufficientStockError{
			ProductID: c.ProductID,
			BranchID:  c.BranchID,
			Available: c.Remaining,
			Requested: qty,
		}
	}
	return nil
}
