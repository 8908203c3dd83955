package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType names the business workflow a transaction belongs to.
type TransactionType string

const (
	TransactionPurchase        TransactionType = "purchase"
	TransactionSale            TransactionType = "sale"
	TransactionConsignmentSale TransactionType = "consignment_sale"
	TransactionStockTransfer   TransactionType = "stock_transfer"
)

// TransactionStatus is the lifecycle of a stock-bearing transaction.
// Cancelled is terminal; a cancelled transaction is never reactivated.
type TransactionStatus string

const (
	TransactionDraft     TransactionStatus = "draft"
	TransactionCommitted TransactionStatus = "committed"
	TransactionCancelled TransactionStatus = "cancelled"
)

// Transaction is the header of a purchase, sale, transfer, or
// consignment sale.
type Transaction struct {
	ID           string
	Type         TransactionType
	Status       TransactionStatus
	PartyID      string
	BranchID     string
	AccountID    string
	Date         time.Time
	Note         string
	StockApplied bool
	CashApplied  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TransactionItem is one line of a transaction. Line totals, not the
// header, are the authoritative source for the transaction amount.
type TransactionItem struct {
	ID            string
	TransactionID string
	ProductID     string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	UnitCost      decimal.Decimal
}

// Subtotal returns quantity times unit price for the line.
func (i *TransactionItem) Subtotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// SumItems recomputes a transaction total from its lines.
func SumItems(items []*TransactionItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
