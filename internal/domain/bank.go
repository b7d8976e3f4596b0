package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Bank is a bank account the business deposits into. CurrentBalance is a
// cache of OpeningBalance replayed through the bank ledger; it is only ever
// written through ApplyLedgerEntry.
type Bank struct {
	ID                string
	Name              string
	AccountNumber     string
	BranchName        string
	AccountHolderName string
	AccountType       string
	OpeningBalance    decimal.Decimal
	CurrentBalance    decimal.Decimal
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewBank builds an active bank whose current balance starts at the opening
// balance.
func NewBank(id, name, accountNumber string, opening decimal.Decimal, now time.Time) (*Bank, error) {
	b := &Bank{
		ID:             id,
		Name:           strings.TrimSpace(name),
		AccountNumber:  strings.TrimSpace(accountNumber),
		OpeningBalance: opening,
		CurrentBalance: opening,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks the descriptive fields of a bank.
func (b *Bank) Validate() error {
	if err := ValidateName("bank name", b.Name); err != nil {
		return err
	}
	if err := ValidateName("account number", b.AccountNumber); err != nil {
		return err
	}
	return ValidateNonNegativeAmount(b.OpeningBalance)
}

// ApplyLedgerEntry returns the balance after one ledger entry. Credit is money
// entering the account and debit is money leaving it. Negative results are
// allowed; overdraft is the caller's decision.
func (b *Bank) ApplyLedgerEntry(debit, credit decimal.Decimal) (decimal.Decimal, error) {
	if debit.IsNegative() || credit.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return b.CurrentBalance.Add(credit).Sub(debit), nil
}
