package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cash book categories used by the engine itself.
const (
	CashBookCategorySale        = "SALE"
	CashBookCategoryBankDeposit = "BANK_DEPOSIT"
)

// CashBookEntry is one row of a branch's append-only cash book. Debit is cash
// received and Credit is cash paid out. Sequence orders the rows of a branch.
type CashBookEntry struct {
	ID              string
	BranchID        string
	Sequence        int64
	TransactionDate time.Time
	Debit           decimal.Decimal
	Credit          decimal.Decimal
	RunningBalance  decimal.Decimal
	Description     string
	Category        string
	ReferenceType   string
	ReferenceID     string
	UserID          string
	CreatedAt       time.Time
}

// NextCashBookEntry builds the entry that follows prev (nil for the first
// entry of a branch).
func NextCashBookEntry(prev *CashBookEntry, e CashBookEntry) (*CashBookEntry, error) {
	if e.Debit.IsNegative() || e.Credit.IsNegative() {
		return nil, ErrNegativeAmount
	}
	if e.Debit.IsZero() && e.Credit.IsZero() {
		return nil, ErrInvalidAmount
	}
	if err := validateMoney(e.Debit); err != nil {
		return nil, err
	}
	if err := validateMoney(e.Credit); err != nil {
		return nil, err
	}

	balance := decimal.Zero
	e.Sequence = 1
	if prev != nil {
		balance = prev.RunningBalance
		e.Sequence = prev.Sequence + 1
	}
	e.RunningBalance = balance.Add(e.Debit).Sub(e.Credit)
	e.TransactionDate = DateOf(e.TransactionDate)
	return &e, nil
}

// CashBookSummary aggregates a branch's cash book over a date range.
type CashBookSummary struct {
	BranchID       string
	StartDate      time.Time
	EndDate        time.Time
	OpeningBalance decimal.Decimal
	TotalReceipts  decimal.Decimal
	TotalPayments  decimal.Decimal
	ClosingBalance decimal.Decimal
}

// NewCashBookSummary combines the balance carried in with the range totals.
func NewCashBookSummary(branchID string, start, end time.Time, opening, receipts, payments decimal.Decimal) CashBookSummary {
	return CashBookSummary{
		BranchID:       branchID,
		StartDate:      DateOf(start),
		EndDate:        DateOf(end),
		OpeningBalance: opening,
		TotalReceipts:  receipts,
		TotalPayments:  payments,
		ClosingBalance: opening.Add(receipts).Sub(payments),
	}
}

// CashBookVerification is the result of replaying a branch's cash book.
type CashBookVerification struct {
	BranchID        string
	EntryCount      int
	FinalBalance    decimal.Decimal
	FirstMismatchID string
	Valid           bool
}

// VerifyCashBook replays entries (in sequence order) from zero and checks
// every stored running balance.
func VerifyCashBook(branchID string, entries []*CashBookEntry) CashBookVerification {
	v := CashBookVerification{BranchID: branchID, EntryCount: len(entries), Valid: true}
	balance := decimal.Zero
	for _, e := range entries {
		balance = balance.Add(e.Debit).Sub(e.Credit)
		if v.Valid && !e.RunningBalance.Equal(balance) {
			v.Valid = false
			v.FirstMismatchID = e.ID
		}
	}
	v.FinalBalance = balance
	return v
}
