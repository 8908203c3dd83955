package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction marks an entry or movement as money/stock in or out.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionIn || d == DirectionOut
}

// Inverse returns the opposite direction.
func (d Direction) Inverse() Direction {
	if d == DirectionIn {
		return DirectionOut
	}
	return DirectionIn
}

// LedgerEntry is a single dated cash movement (kas_harian row).
//
// CreatedAt is the total-order key for the account's entry chain.
// BusinessDate is the user-supplied date and carries no ordering
// semantics; backdated corrections keep their recording instant.
type LedgerEntry struct {
	ID             string
	AccountID      string
	Direction      Direction
	Category       string
	Amount         decimal.Decimal
	RunningBalance decimal.Decimal
	BusinessDate   time.Time
	Note           string
	ReferenceID    string
	CreatedAt      time.Time
}

// SignedAmount returns the amount with the direction's sign applied.
func (e *LedgerEntry) SignedAmount() decimal.Decimal {
	if e.Direction == DirectionOut {
		return e.Amount.Neg()
	}
	return e.Amount
}
