package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/cashledger/internal/domain"
)

// ReconciliationUseCase checks every bank ledger and branch cash book
// against its cached balances.
type ReconciliationUseCase struct {
	banks    *BankUseCase
	cashBook *CashBookUseCase
	store    Store
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(store Store, banks *BankUseCase, cashBook *CashBookUseCase) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		banks:    banks,
		cashBook: cashBook,
		store:    store,
	}
}

// ReconcileAllBanks replays the ledger of every bank, active or not.
func (uc *ReconciliationUseCase) ReconcileAllBanks(ctx context.Context) ([]*domain.BankReconciliation, error) {
	results := make([]*domain.BankReconciliation, 0)

	for offset := 0; ; offset += ledgerScanLimit {
		banks, err := uc.store.Banks.List(ctx, ledgerScanLimit, offset)
		if err != nil {
			return nil, err
		}

		for _, bank := range banks {
			result, err := uc.banks.ReconcileBank(ctx, bank.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile bank %s: %w", bank.ID, err)
			}
			results = append(results, result)
		}

		if len(banks) < ledgerScanLimit {
			return results, nil
		}
	}
}

// VerifyCashBooks replays the cash book of each branch.
func (uc *ReconciliationUseCase) VerifyCashBooks(ctx context.Context, branchIDs []string) ([]*domain.CashBookVerification, error) {
	results := make([]*domain.CashBookVerification, 0, len(branchIDs))
	for _, id := range branchIDs {
		v, err := uc.cashBook.VerifyBranch(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to verify cash book of branch %s: %w", id, err)
		}
		results = append(results, v)
	}
	return results, nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalBanks         int
	BalancedBanks      int
	BankDiscrepancies  []*domain.BankReconciliation
	BranchesChecked    int
	CashBookMismatches []*domain.CashBookVerification
	Consistent         bool
	CheckedAt          time.Time
}

// GenerateReconciliationReport checks all banks and the given branches.
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context, branchIDs []string) (*ReconciliationReport, error) {
	banks, err := uc.ReconcileAllBanks(ctx)
	if err != nil {
		return nil, err
	}

	books, err := uc.VerifyCashBooks(ctx, branchIDs)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalBanks:         len(banks),
		BankDiscrepancies:  make([]*domain.BankReconciliation, 0),
		BranchesChecked:    len(books),
		CashBookMismatches: make([]*domain.CashBookVerification, 0),
		CheckedAt:          uc.banks.now(),
	}

	for _, b := range banks {
		if b.Balanced {
			report.BalancedBanks++
		} else {
			report.BankDiscrepancies = append(report.BankDiscrepancies, b)
		}
	}

	for _, v := range books {
		if !v.Valid {
			report.CashBookMismatches = append(report.CashBookMismatches, v)
		}
	}

	report.Consistent = len(report.BankDiscrepancies) == 0 && len(report.CashBookMismatches) == 0

	return report, nil
}
