package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// BankUseCase manages bank accounts and their ledgers.
type BankUseCase struct {
	engine
}

// NewBankUseCase creates a new BankUseCase.
func NewBankUseCase(store Store, opts Options) *BankUseCase {
	return &BankUseCase{engine: newEngine(store, opts)}
}

// CreateBankInput represents input for creating a bank.
type CreateBankInput struct {
	Name              string
	AccountNumber     string
	BranchName        string
	AccountHolderName string
	AccountType       string
	OpeningBalance    decimal.Decimal
}

// UpdateBankInput carries the descriptive fields of a bank. Balances cannot
// be edited.
type UpdateBankInput struct {
	ID                string
	Name              string
	AccountNumber     string
	BranchName        string
	AccountHolderName string
	AccountType       string
}

// CreateBank registers a bank whose current balance starts at the opening
// balance.
func (uc *BankUseCase) CreateBank(ctx context.Context, input CreateBankInput, user domain.User) (_ *domain.Bank, err error) {
	defer uc.observe("bank.create", time.Now(), &err)

	if err := user.Validate(); err != nil {
		return nil, err
	}

	bank, err := domain.NewBank(uc.idGen.Generate(), input.Name, input.AccountNumber, input.OpeningBalance, uc.now())
	if err != nil {
		return nil, err
	}
	bank.BranchName = strings.TrimSpace(input.BranchName)
	bank.AccountHolderName = strings.TrimSpace(input.AccountHolderName)
	bank.AccountType = strings.TrimSpace(input.AccountType)

	err = uc.inTx(ctx, func(tx Transaction) error {
		exists, err := uc.store.Banks.ExistsByAccountNumber(ctx, tx, bank.AccountNumber, "")
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateAccountNumber
		}

		if err := uc.store.Banks.Create(ctx, tx, bank); err != nil {
			return err
		}

		return uc.audit(ctx, tx, user, domain.AuditActionBankCreate, domain.ResourceTypeBank, bank.ID, nil, bank)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("bank_id", bank.ID).
		Str("opening_balance", bank.OpeningBalance.StringFixed(2)).
		Msg("bank created")

	return bank, nil
}

// UpdateBank changes descriptive fields. The account number stays unique.
func (uc *BankUseCase) UpdateBank(ctx context.Context, input UpdateBankInput, user domain.User) (_ *domain.Bank, err error) {
	defer uc.observe("bank.update", time.Now(), &err)

	if err := user.Validate(); err != nil {
		return nil, err
	}

	var bank *domain.Bank
	err = uc.inTx(ctx, func(tx Transaction) error {
		current, err := uc.store.Banks.GetByIDForUpdate(ctx, tx, input.ID)
		if err != nil {
			return err
		}
		before := *current

		current.Name = strings.TrimSpace(input.Name)
		current.AccountNumber = strings.TrimSpace(input.AccountNumber)
		current.BranchName = strings.TrimSpace(input.BranchName)
		current.AccountHolderName = strings.TrimSpace(input.AccountHolderName)
		current.AccountType = strings.TrimSpace(input.AccountType)
		current.UpdatedAt = uc.now()

		if err := current.Validate(); err != nil {
			return err
		}

		exists, err := uc.store.Banks.ExistsByAccountNumber(ctx, tx, current.AccountNumber, current.ID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateAccountNumber
		}

		if err := uc.store.Banks.Update(ctx, tx, current); err != nil {
			return err
		}

		bank = current
		return uc.audit(ctx, tx, user, domain.AuditActionBankUpdate, domain.ResourceTypeBank, current.ID, before, current)
	})
	if err != nil {
		return nil, err
	}

	return bank, nil
}

// DeactivateBank hides a bank from new deposits. Its ledger stays intact.
func (uc *BankUseCase) DeactivateBank(ctx context.Context, id string, user domain.User) (_ *domain.Bank, err error) {
	defer uc.observe("bank.deactivate", time.Now(), &err)

	if err := user.Validate(); err != nil {
		return nil, err
	}

	var bank *domain.Bank
	err = uc.inTx(ctx, func(tx Transaction) error {
		current, err := uc.store.Banks.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		before := *current

		current.Active = false
		current.UpdatedAt = uc.now()
		if err := uc.store.Banks.Update(ctx, tx, current); err != nil {
			return err
		}

		bank = current
		return uc.audit(ctx, tx, user, domain.AuditActionBankDeactivate, domain.ResourceTypeBank, id, before, current)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info().Str("bank_id", id).Msg("bank deactivated")

	return bank, nil
}

// GetBank retrieves a bank by ID.
func (uc *BankUseCase) GetBank(ctx context.Context, id string) (*domain.Bank, error) {
	return uc.store.Banks.GetByID(ctx, id)
}

// ListBanks lists banks with pagination.
func (uc *BankUseCase) ListBanks(ctx context.Context, limit, offset int) ([]*domain.Bank, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.store.Banks.List(ctx, limit, offset)
}

// ListActiveBanks lists banks that accept deposits.
func (uc *BankUseCase) ListActiveBanks(ctx context.Context) ([]*domain.Bank, error) {
	return uc.store.Banks.ListActive(ctx)
}

// TotalBalance sums the cached balances of all active banks.
func (uc *BankUseCase) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	banks, err := uc.store.Banks.ListActive(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, b := range banks {
		total = total.Add(b.CurrentBalance)
	}

	return total, nil
}

// ListLedger lists a bank's ledger entries in creation order.
func (uc *BankUseCase) ListLedger(ctx context.Context, bankID string, limit, offset int) ([]*domain.BankLedgerEntry, error) {
	if _, err := uc.store.Banks.GetByID(ctx, bankID); err != nil {
		return nil, err
	}

	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.store.BankLedger.ListByBank(ctx, bankID, limit, offset)
}

// ReconcileBank replays the ledger from the opening balance and compares it
// with the cached balance. Both are read in one transaction holding the bank
// row lock, so no ledger write can land between the two reads.
func (uc *BankUseCase) ReconcileBank(ctx context.Context, bankID string) (*domain.BankReconciliation, error) {
	var (
		bank    *domain.Bank
		entries []*domain.BankLedgerEntry
	)
	err := uc.inTx(ctx, func(tx Transaction) error {
		var err error
		if bank, err = uc.store.Banks.GetByIDForUpdate(ctx, tx, bankID); err != nil {
			return err
		}
		entries, err = uc.store.BankLedger.ListAllByBank(ctx, tx, bankID)
		return err
	})
	if err != nil {
		return nil, err
	}

	replayed, mismatch := domain.ReplayBankLedger(bank.OpeningBalance, entries)

	result := &domain.BankReconciliation{
		BankID:          bank.ID,
		OpeningBalance:  bank.OpeningBalance,
		CachedBalance:   bank.CurrentBalance,
		ReplayedBalance: replayed,
		TotalCredits:    decimal.Zero,
		TotalDebits:     decimal.Zero,
		EntryCount:      len(entries),
	}
	for _, e := range entries {
		result.TotalCredits = result.TotalCredits.Add(e.Credit)
		result.TotalDebits = result.TotalDebits.Add(e.Debit)
	}
	if mismatch != nil {
		result.FirstMismatchID = mismatch.ID
	}
	result.Balanced = mismatch == nil && replayed.Equal(bank.CurrentBalance)

	if !result.Balanced {
		uc.logger.Warn().
			Str("bank_id", bank.ID).
			Str("cached", bank.CurrentBalance.String()).
			Str("replayed", replayed.String()).
			Msg("bank balance does not match ledger")
	}

	return result, nil
}
