package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankLedgerEntry is one immutable movement on a bank account. Exactly one of
// Debit and Credit is non-zero. Corrections are new entries pointing at the
// corrected one through ReversalOf.
type BankLedgerEntry struct {
	ID           string
	BankID       string
	Date         time.Time
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	BalanceAfter decimal.Decimal
	Description  string
	ChequeID     *string
	RegisterID   *string
	ReversalOf   *string
	CreatedBy    string
	CreatedAt    time.Time
}

// Validate checks the single-sided amount rule.
func (e *BankLedgerEntry) Validate() error {
	if e.Debit.IsNegative() || e.Credit.IsNegative() {
		return ErrNegativeAmount
	}
	if e.Debit.IsZero() == e.Credit.IsZero() {
		return ErrInvalidLedgerEntry
	}
	if err := validateMoney(e.Debit); err != nil {
		return err
	}
	return validateMoney(e.Credit)
}

// Amount is the non-zero side of the entry.
func (e *BankLedgerEntry) Amount() decimal.Decimal {
	if e.Credit.IsZero() {
		return e.Debit
	}
	return e.Credit
}

// Signed returns the entry's effect on the bank balance.
func (e *BankLedgerEntry) Signed() decimal.Decimal {
	return e.Credit.Sub(e.Debit)
}

// Reverse builds the compensating entry with debit and credit swapped.
func (e *BankLedgerEntry) Reverse(id, description, createdBy string, date, now time.Time) *BankLedgerEntry {
	original := e.ID
	return &BankLedgerEntry{
		ID:          id,
		BankID:      e.BankID,
		Date:        DateOf(date),
		Debit:       e.Credit,
		Credit:      e.Debit,
		Description: description,
		ChequeID:    e.ChequeID,
		RegisterID:  e.RegisterID,
		ReversalOf:  &original,
		CreatedBy:   createdBy,
		CreatedAt:   now,
	}
}

// ReplayBankLedger recomputes a bank balance from its opening balance and its
// entries in creation order. It returns the first entry whose stored
// BalanceAfter disagrees with the replay, if any.
func ReplayBankLedger(opening decimal.Decimal, entries []*BankLedgerEntry) (decimal.Decimal, *BankLedgerEntry) {
	balance := opening
	var mismatch *BankLedgerEntry
	for _, e := range entries {
		balance = balance.Add(e.Signed())
		if mismatch == nil && !e.BalanceAfter.Equal(balance) {
			mismatch = e
		}
	}
	return balance, mismatch
}

// BankReconciliation compares a bank's cached balance with a ledger replay.
type BankReconciliation struct {
	BankID          string
	OpeningBalance  decimal.Decimal
	CachedBalance   decimal.Decimal
	ReplayedBalance decimal.Decimal
	TotalCredits    decimal.Decimal
	TotalDebits     decimal.Decimal
	EntryCount      int
	FirstMismatchID string
	Balanced        bool
}
