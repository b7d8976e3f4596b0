package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// CashBookUseCase maintains each branch's running-balance cash book.
type CashBookUseCase struct {
	engine
	branches BranchDirectory
}

// NewCashBookUseCase creates a new CashBookUseCase.
func NewCashBookUseCase(store Store, branches BranchDirectory, opts Options) *CashBookUseCase {
	return &CashBookUseCase{
		engine:   newEngine(store, opts),
		branches: branches,
	}
}

// AppendInput describes one cash book movement. Debit is cash received,
// Credit is cash paid out.
type AppendInput struct {
	BranchID      string
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	Description   string
	Category      string
	ReferenceType string
	ReferenceID   string
}

// Append writes one entry inside tx. The branch lock is taken here, so the
// tail read and the insert cannot interleave with another append for the
// same branch.
func (uc *CashBookUseCase) Append(ctx context.Context, tx Transaction, input AppendInput, user domain.User) (*domain.CashBookEntry, error) {
	if err := uc.store.Locker.LockBranch(ctx, tx, input.BranchID); err != nil {
		return nil, err
	}

	last, err := uc.store.CashBook.GetLastByBranch(ctx, tx, input.BranchID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	entry, err := domain.NextCashBookEntry(last, domain.CashBookEntry{
		ID:              uc.idGen.Generate(),
		BranchID:        input.BranchID,
		TransactionDate: now,
		Debit:           input.Debit,
		Credit:          input.Credit,
		Description:     input.Description,
		Category:        input.Category,
		ReferenceType:   input.ReferenceType,
		ReferenceID:     input.ReferenceID,
		UserID:          user.ID,
		CreatedAt:       now,
	})
	if err != nil {
		return nil, err
	}

	if err := uc.store.CashBook.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.CashBookEntries.Inc()
	}

	return entry, nil
}

// Summary combines the balance carried into [start, end] with the receipts
// and payments inside it.
func (uc *CashBookUseCase) Summary(ctx context.Context, branchID string, start, end time.Time) (*domain.CashBookSummary, error) {
	if err := domain.ValidateDateRange(start, end); err != nil {
		return nil, err
	}

	if _, err := uc.branches.GetBranch(ctx, branchID); err != nil {
		return nil, err
	}

	start, end = domain.DateOf(start), domain.DateOf(end)

	opening := decimal.Zero
	last, err := uc.store.CashBook.GetLastBefore(ctx, branchID, start)
	if err != nil {
		return nil, err
	}
	if last != nil {
		opening = last.RunningBalance
	}

	receipts, payments, err := uc.store.CashBook.SumByBranchAndDateRange(ctx, branchID, start, end)
	if err != nil {
		return nil, err
	}

	summary := domain.NewCashBookSummary(branchID, start, end, opening, receipts, payments)
	return &summary, nil
}

// ListByBranch lists a branch's entries in sequence order.
func (uc *CashBookUseCase) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*domain.CashBookEntry, error) {
	if _, err := uc.branches.GetBranch(ctx, branchID); err != nil {
		return nil, err
	}

	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.store.CashBook.ListByBranch(ctx, branchID, limit, offset)
}

// ListByBranchAndDateRange lists a branch's entries dated within [start, end].
func (uc *CashBookUseCase) ListByBranchAndDateRange(
	ctx context.Context,
	branchID string,
	start, end time.Time,
	limit, offset int,
) ([]*domain.CashBookEntry, error) {
	if err := domain.ValidateDateRange(start, end); err != nil {
		return nil, err
	}

	if _, err := uc.branches.GetBranch(ctx, branchID); err != nil {
		return nil, err
	}

	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.store.CashBook.ListByBranchAndDateRange(ctx, branchID, domain.DateOf(start), domain.DateOf(end), limit, offset)
}

// VerifyBranch replays the branch's whole cash book from zero.
func (uc *CashBookUseCase) VerifyBranch(ctx context.Context, branchID string) (*domain.CashBookVerification, error) {
	if _, err := uc.branches.GetBranch(ctx, branchID); err != nil {
		return nil, err
	}

	entries, err := uc.store.CashBook.ListAllByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}

	v := domain.VerifyCashBook(branchID, entries)
	if !v.Valid {
		uc.logger.Error().
			Str("branch_id", branchID).
			Str("entry_id", v.FirstMismatchID).
			Msg("cash book running balance mismatch")
	}

	return &v, nil
}
