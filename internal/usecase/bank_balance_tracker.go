package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/metrics"
)

// BankBalanceTracker is the only writer of Bank.CurrentBalance. Every change
// goes through a bank ledger entry appended in the caller's transaction
// while the bank row is locked.
type BankBalanceTracker struct {
	banks   BankRepository
	ledger  BankLedgerRepository
	idGen   IDGenerator
	metrics *metrics.Metrics
	clock   func() time.Time
}

// NewBankBalanceTracker creates a new BankBalanceTracker.
func NewBankBalanceTracker(store Store, opts Options) *BankBalanceTracker {
	e := newEngine(store, opts)
	return &BankBalanceTracker{
		banks:   store.Banks,
		ledger:  store.BankLedger,
		idGen:   opts.IDGen,
		metrics: opts.Metrics,
		clock:   e.clock,
	}
}

// ApplyLedgerEntry locks the entry's bank, appends the entry and persists the
// new balance. BalanceAfter and a missing ID are filled in. Inactive banks
// accept only reversals.
func (t *BankBalanceTracker) ApplyLedgerEntry(ctx context.Context, tx Transaction, entry *domain.BankLedgerEntry) (decimal.Decimal, error) {
	if err := entry.Validate(); err != nil {
		return decimal.Zero, err
	}

	bank, err := t.banks.GetByIDForUpdate(ctx, tx, entry.BankID)
	if err != nil {
		return decimal.Zero, err
	}

	if !bank.Active && entry.ReversalOf == nil {
		return decimal.Zero, domain.ErrBankInactive
	}

	return t.apply(ctx, tx, bank, entry)
}

// Reverse appends the compensating entry for entryID. An entry can be
// reversed once.
func (t *BankBalanceTracker) Reverse(
	ctx context.Context,
	tx Transaction,
	entryID, description, userID string,
	date time.Time,
) (*domain.BankLedgerEntry, error) {
	original, err := t.ledger.GetByID(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}

	bank, err := t.banks.GetByIDForUpdate(ctx, tx, original.BankID)
	if err != nil {
		return nil, err
	}

	// Checked under the bank lock so two reversals cannot both pass.
	reversed, err := t.ledger.ExistsReversalOf(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}
	if reversed {
		return nil, domain.ErrLedgerEntryAlreadyReversed
	}

	reversal := original.Reverse(t.idGen.Generate(), description, userID, date, t.clock())
	if _, err := t.apply(ctx, tx, bank, reversal); err != nil {
		return nil, err
	}

	return reversal, nil
}

func (t *BankBalanceTracker) apply(ctx context.Context, tx Transaction, bank *domain.Bank, entry *domain.BankLedgerEntry) (decimal.Decimal, error) {
	balance, err := bank.ApplyLedgerEntry(entry.Debit, entry.Credit)
	if err != nil {
		return decimal.Zero, err
	}

	now := t.clock()
	if entry.ID == "" {
		entry.ID = t.idGen.Generate()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.Date = domain.DateOf(entry.Date)
	entry.BalanceAfter = balance

	if err := t.ledger.Create(ctx, tx, entry); err != nil {
		return decimal.Zero, err
	}

	if err := t.banks.UpdateBalance(ctx, tx, bank.ID, balance, now); err != nil {
		return decimal.Zero, err
	}

	bank.CurrentBalance = balance
	bank.UpdatedAt = now

	if t.metrics != nil {
		side := "credit"
		if entry.Credit.IsZero() {
			side = "debit"
		}
		t.metrics.BankLedgerEntries.WithLabelValues(side).Inc()
	}

	return balance, nil
}
