package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeSale    TransactionType = "SALE"
	TransactionTypeCashIn  TransactionType = "CASH_IN"
	TransactionTypeCashOut TransactionType = "CASH_OUT"
	TransactionTypeExpense TransactionType = "EXPENSE"
	TransactionTypeOther   TransactionType = "OTHER"
)

// Direction says whether a register movement brings cash in or takes it out.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// AllowedFor reports whether t may be recorded in direction d. OTHER goes
// either way.
func (t TransactionType) AllowedFor(d Direction) bool {
	switch t {
	case TransactionTypeSale, TransactionTypeCashIn:
		return d == DirectionIn
	case TransactionTypeCashOut, TransactionTypeExpense:
		return d == DirectionOut
	case TransactionTypeOther:
		return d == DirectionIn || d == DirectionOut
	}
	return false
}

// CashRegisterTransaction is one immutable movement on a register.
type CashRegisterTransaction struct {
	ID              string
	RegisterID      string
	Type            TransactionType
	Direction       Direction
	Amount          decimal.Decimal
	Description     string
	Category        string
	Reference       string
	UserID          string
	CashBookEntryID string
	CreatedAt       time.Time
}
