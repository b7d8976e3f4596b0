package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// CashBookRepository implements usecase.CashBookRepository.
type CashBookRepository struct {
	s *Store
}

// NewCashBookRepository creates a new CashBookRepository.
func NewCashBookRepository(s *Store) *CashBookRepository {
	return &CashBookRepository{s: s}
}

func cloneCashBookEntry(e *domain.CashBookEntry) *domain.CashBookEntry {
	c := *e
	return &c
}

// Create appends an entry. A (branch, sequence) pair may be used once; a
// clash means two writers raced on the tail.
func (r *CashBookRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.CashBookEntry) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range r.s.cashBook {
		if e.BranchID == entry.BranchID && e.Sequence == entry.Sequence {
			return domain.ErrConcurrencyConflict
		}
	}

	id := entry.ID
	r.s.cashBook = append(r.s.cashBook, cloneCashBookEntry(entry))
	t.onRollback(func() {
		r.s.cashBook = removeWhere(r.s.cashBook, func(e *domain.CashBookEntry) bool { return e.ID == id })
	})
	return nil
}

// GetLastByBranch returns the entry with the highest sequence, or nil.
func (r *CashBookRepository) GetLastByBranch(ctx context.Context, tx usecase.Transaction, branchID string) (*domain.CashBookEntry, error) {
	return r.last(branchID, func(*domain.CashBookEntry) bool { return true }), nil
}

// GetLastBefore returns the last entry dated before the given date, or nil.
func (r *CashBookRepository) GetLastBefore(ctx context.Context, branchID string, before time.Time) (*domain.CashBookEntry, error) {
	return r.last(branchID, func(e *domain.CashBookEntry) bool { return e.TransactionDate.Before(before) }), nil
}

func (r *CashBookRepository) last(branchID string, keep func(*domain.CashBookEntry) bool) *domain.CashBookEntry {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var last *domain.CashBookEntry
	for _, e := range r.s.cashBook {
		if e.BranchID != branchID || !keep(e) {
			continue
		}
		if last == nil || e.Sequence > last.Sequence {
			last = e
		}
	}
	if last == nil {
		return nil
	}
	return cloneCashBookEntry(last)
}

// SumByBranchAndDateRange totals debits and credits dated within [start, end].
func (r *CashBookRepository) SumByBranchAndDateRange(ctx context.Context, branchID string, start, end time.Time) (decimal.Decimal, decimal.Decimal, error) {
	debit, credit := decimal.Zero, decimal.Zero
	for _, e := range r.inRange(branchID, start, end) {
		debit = debit.Add(e.Debit)
		credit = credit.Add(e.Credit)
	}
	return debit, credit, nil
}

// ListByBranch lists a branch's entries in sequence order.
func (r *CashBookRepository) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*domain.CashBookEntry, error) {
	entries, _ := r.ListAllByBranch(ctx, branchID)
	return paginate(entries, limit, offset), nil
}

// ListByBranchAndDateRange lists a branch's entries dated within [start, end].
func (r *CashBookRepository) ListByBranchAndDateRange(
	ctx context.Context,
	branchID string,
	start, end time.Time,
	limit, offset int,
) ([]*domain.CashBookEntry, error) {
	return paginate(r.inRange(branchID, start, end), limit, offset), nil
}

// ListAllByBranch lists every entry of a branch in sequence order.
func (r *CashBookRepository) ListAllByBranch(ctx context.Context, branchID string) ([]*domain.CashBookEntry, error) {
	return r.inRange(branchID, time.Time{}, time.Time{}), nil
}

// inRange returns a branch's entries by sequence; zero bounds are open.
func (r *CashBookRepository) inRange(branchID string, start, end time.Time) []*domain.CashBookEntry {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*domain.CashBookEntry{}
	for _, e := range r.s.cashBook {
		if e.BranchID != branchID {
			continue
		}
		if !start.IsZero() && e.TransactionDate.Before(start) {
			continue
		}
		if !end.IsZero() && e.TransactionDate.After(end) {
			continue
		}
		out = append(out, cloneCashBookEntry(e))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}
