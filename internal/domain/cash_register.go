package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type RegisterStatus string

const (
	RegisterStatusOpen      RegisterStatus = "OPEN"
	RegisterStatusClosed    RegisterStatus = "CLOSED"
	RegisterStatusBalanced  RegisterStatus = "BALANCED"
	RegisterStatusDeposited RegisterStatus = "DEPOSITED"
)

// IsValid reports whether s is a known register status.
func (s RegisterStatus) IsValid() bool {
	switch s {
	case RegisterStatusOpen, RegisterStatusClosed, RegisterStatusBalanced, RegisterStatusDeposited:
		return true
	}
	return false
}

// CashRegister is the custody record for one branch's physical cash over a
// business day.
type CashRegister struct {
	ID                     string
	BranchID               string
	RegisterDate           time.Time
	Status                 RegisterStatus
	OpeningBalance         decimal.Decimal
	ClosingBalance         *decimal.Decimal
	ExpectedClosingBalance decimal.Decimal
	CashInTotal            decimal.Decimal
	CashOutTotal           decimal.Decimal
	SalesTotal             decimal.Decimal
	Discrepancy            *decimal.Decimal
	OpenedBy               string
	OpenedAt               time.Time
	ClosedBy               *string
	ClosedAt               *time.Time
	DepositedBankID        *string
	DepositedAmount        *decimal.Decimal
	DepositedAt            *time.Time
	DepositedBy            *string
	Notes                  string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// NewCashRegister opens a register with all totals at zero.
func NewCashRegister(id, branchID string, opening decimal.Decimal, openedBy string, now time.Time) (*CashRegister, error) {
	if err := ValidateNonNegativeAmount(opening); err != nil {
		return nil, err
	}
	return &CashRegister{
		ID:                     id,
		BranchID:               branchID,
		RegisterDate:           DateOf(now),
		Status:                 RegisterStatusOpen,
		OpeningBalance:         opening,
		ExpectedClosingBalance: opening,
		CashInTotal:            decimal.Zero,
		CashOutTotal:           decimal.Zero,
		SalesTotal:             decimal.Zero,
		OpenedBy:               openedBy,
		OpenedAt:               now,
		CreatedAt:              now,
		UpdatedAt:              now,
	}, nil
}

// IsOpen reports whether the register still accepts transactions.
func (r *CashRegister) IsOpen() bool {
	return r.Status == RegisterStatusOpen
}

// ComputeExpectedClosing is opening + cash in + sales - cash out.
func (r *CashRegister) ComputeExpectedClosing() decimal.Decimal {
	return r.OpeningBalance.Add(r.CashInTotal).Add(r.SalesTotal).Sub(r.CashOutTotal)
}

// ApplyTransaction adds a movement to the running totals.
func (r *CashRegister) ApplyTransaction(dir Direction, typ TransactionType, amount decimal.Decimal, now time.Time) error {
	if !r.IsOpen() {
		return ErrRegisterNotOpen
	}
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if !typ.AllowedFor(dir) {
		return ErrInvalidTransactionType
	}

	switch {
	case dir == DirectionOut:
		r.CashOutTotal = r.CashOutTotal.Add(amount)
	case typ == TransactionTypeSale:
		r.SalesTotal = r.SalesTotal.Add(amount)
	default:
		r.CashInTotal = r.CashInTotal.Add(amount)
	}
	r.ExpectedClosingBalance = r.ComputeExpectedClosing()
	r.UpdatedAt = now
	return nil
}

// Close freezes the register against a physical count. A zero discrepancy
// leaves the register BALANCED, anything else CLOSED.
func (r *CashRegister) Close(actual decimal.Decimal, closedBy string, now time.Time) error {
	if !r.IsOpen() {
		return ErrRegisterNotOpen
	}
	if err := ValidateNonNegativeAmount(actual); err != nil {
		return err
	}

	r.ExpectedClosingBalance = r.ComputeExpectedClosing()
	discrepancy := actual.Sub(r.ExpectedClosingBalance)

	r.ClosingBalance = &actual
	r.Discrepancy = &discrepancy
	r.ClosedBy = &closedBy
	r.ClosedAt = &now
	r.UpdatedAt = now
	if discrepancy.IsZero() {
		r.Status = RegisterStatusBalanced
	} else {
		r.Status = RegisterStatusClosed
	}
	return nil
}

// MarkDeposited records that the register's cash went to a bank.
func (r *CashRegister) MarkDeposited(bankID string, amount decimal.Decimal, by string, now time.Time) error {
	switch r.Status {
	case RegisterStatusOpen:
		return ErrRegisterStillOpen
	case RegisterStatusDeposited:
		return ErrRegisterAlreadyDeposited
	}
	if err := ValidateAmount(amount); err != nil {
		return err
	}

	r.Status = RegisterStatusDeposited
	r.DepositedBankID = &bankID
	r.DepositedAmount = &amount
	r.DepositedAt = &now
	r.DepositedBy = &by
	r.UpdatedAt = now
	return nil
}

// CanDelete reports whether the register has not yet left custody.
func (r *CashRegister) CanDelete() bool {
	return r.Status != RegisterStatusDeposited
}

// AppendNote adds a line to the register notes.
func (r *CashRegister) AppendNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if r.Notes == "" {
		r.Notes = note
		return
	}
	r.Notes += "\n" + note
}

// RegisterDailySummary aggregates a branch's registers for one date.
type RegisterDailySummary struct {
	BranchID         string
	Date             time.Time
	RegisterCount    int
	OpenCount        int
	TotalOpening     decimal.Decimal
	TotalSales       decimal.Decimal
	TotalCashIn      decimal.Decimal
	TotalCashOut     decimal.Decimal
	TotalExpected    decimal.Decimal
	TotalClosing     decimal.Decimal
	TotalDiscrepancy decimal.Decimal
	TotalDeposited   decimal.Decimal
}

// SummarizeRegisters folds registers into a daily summary.
func SummarizeRegisters(branchID string, date time.Time, registers []*CashRegister) RegisterDailySummary {
	s := RegisterDailySummary{
		BranchID:         branchID,
		Date:             DateOf(date),
		TotalOpening:     decimal.Zero,
		TotalSales:       decimal.Zero,
		TotalCashIn:      decimal.Zero,
		TotalCashOut:     decimal.Zero,
		TotalExpected:    decimal.Zero,
		TotalClosing:     decimal.Zero,
		TotalDiscrepancy: decimal.Zero,
		TotalDeposited:   decimal.Zero,
	}
	for _, r := range registers {
		s.RegisterCount++
		if r.IsOpen() {
			s.OpenCount++
		}
		s.TotalOpening = s.TotalOpening.Add(r.OpeningBalance)
		s.TotalSales = s.TotalSales.Add(r.SalesTotal)
		s.TotalCashIn = s.TotalCashIn.Add(r.CashInTotal)
		s.TotalCashOut = s.TotalCashOut.Add(r.CashOutTotal)
		s.TotalExpected = s.TotalExpected.Add(r.ExpectedClosingBalance)
		if r.ClosingBalance != nil {
			s.TotalClosing = s.TotalClosing.Add(*r.ClosingBalance)
		}
		if r.Discrepancy != nil {
			s.TotalDiscrepancy = s.TotalDiscrepancy.Add(*r.Discrepancy)
		}
		if r.DepositedAmount != nil {
			s.TotalDeposited = s.TotalDeposited.Add(*r.DepositedAmount)
		}
	}
	return s
}
