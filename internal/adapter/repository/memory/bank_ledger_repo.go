package memory

import (
	"context"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// BankLedgerRepository implements usecase.BankLedgerRepository.
type BankLedgerRepository struct {
	s *Store
}

// NewBankLedgerRepository creates a new BankLedgerRepository.
func NewBankLedgerRepository(s *Store) *BankLedgerRepository {
	return &BankLedgerRepository{s: s}
}

func cloneLedgerEntry(e *domain.BankLedgerEntry) *domain.BankLedgerEntry {
	c := *e
	return &c
}

// Create appends an entry. An entry can be the reversal of at most one other.
func (r *BankLedgerRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.BankLedgerEntry) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if entry.ReversalOf != nil && r.reversed(*entry.ReversalOf) {
		return domain.ErrLedgerEntryAlreadyReversed
	}

	id := entry.ID
	r.s.bankLedger = append(r.s.bankLedger, cloneLedgerEntry(entry))
	t.onRollback(func() {
		r.s.bankLedger = removeWhere(r.s.bankLedger, func(e *domain.BankLedgerEntry) bool { return e.ID == id })
	})
	return nil
}

// GetByID retrieves an entry by ID.
func (r *BankLedgerRepository) GetByID(ctx context.Context, tx usecase.Transaction, id string) (*domain.BankLedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range r.s.bankLedger {
		if e.ID == id {
			return cloneLedgerEntry(e), nil
		}
	}
	return nil, domain.ErrLedgerEntryNotFound
}

// ExistsReversalOf reports whether entryID has already been reversed.
func (r *BankLedgerRepository) ExistsReversalOf(ctx context.Context, tx usecase.Transaction, entryID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.reversed(entryID), nil
}

func (r *BankLedgerRepository) reversed(entryID string) bool {
	for _, e := range r.s.bankLedger {
		if e.ReversalOf != nil && *e.ReversalOf == entryID {
			return true
		}
	}
	return false
}

// ListByBank lists a bank's entries in creation order.
func (r *BankLedgerRepository) ListByBank(ctx context.Context, bankID string, limit, offset int) ([]*domain.BankLedgerEntry, error) {
	entries, _ := r.ListAllByBank(ctx, nil, bankID)
	return paginate(entries, limit, offset), nil
}

// ListAllByBank lists every entry of a bank in creation order.
func (r *BankLedgerRepository) ListAllByBank(ctx context.Context, tx usecase.Transaction, bankID string) ([]*domain.BankLedgerEntry, error) {
	return r.filter(func(e *domain.BankLedgerEntry) bool { return e.BankID == bankID }), nil
}

// ListByCheque lists the entries linked to a cheque.
func (r *BankLedgerRepository) ListByCheque(ctx context.Context, chequeID string) ([]*domain.BankLedgerEntry, error) {
	return r.filter(func(e *domain.BankLedgerEntry) bool {
		return e.ChequeID != nil && *e.ChequeID == chequeID
	}), nil
}

func (r *BankLedgerRepository) filter(keep func(*domain.BankLedgerEntry) bool) []*domain.BankLedgerEntry {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*domain.BankLedgerEntry{}
	for _, e := range r.s.bankLedger {
		if keep(e) {
			out = append(out, cloneLedgerEntry(e))
		}
	}
	return out
}
