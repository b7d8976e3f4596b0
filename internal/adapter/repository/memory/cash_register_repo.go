package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// CashRegisterRepository implements usecase.CashRegisterRepository.
type CashRegisterRepository struct {
	s *Store
}

// NewCashRegisterRepository creates a new CashRegisterRepository.
func NewCashRegisterRepository(s *Store) *CashRegisterRepository {
	return &CashRegisterRepository{s: s}
}

func cloneRegister(r *domain.CashRegister) *domain.CashRegister {
	c := *r
	return &c
}

// openIn returns the id of the branch's open register other than excludeID.
func (r *CashRegisterRepository) openIn(branchID, excludeID string) (string, bool) {
	for _, reg := range r.s.registers {
		if reg.BranchID == branchID && reg.ID != excludeID && reg.Status == domain.RegisterStatusOpen {
			return reg.ID, true
		}
	}
	return "", false
}

// Create inserts a register. Only one register per branch may be OPEN.
func (r *CashRegisterRepository) Create(ctx context.Context, tx usecase.Transaction, register *domain.CashRegister) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if register.Status == domain.RegisterStatusOpen {
		if _, taken := r.openIn(register.BranchID, register.ID); taken {
			return domain.ErrRegisterAlreadyOpen
		}
	}

	id := register.ID
	r.s.registers[id] = cloneRegister(register)
	t.onRollback(func() { delete(r.s.registers, id) })
	return nil
}

// GetByID retrieves a register by ID.
func (r *CashRegisterRepository) GetByID(ctx context.Context, id string) (*domain.CashRegister, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reg, ok := r.s.registers[id]
	if !ok {
		return nil, domain.ErrRegisterNotFound
	}
	return cloneRegister(reg), nil
}

// GetByIDForUpdate locks the register until tx ends and returns it.
func (r *CashRegisterRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.CashRegister, error) {
	t, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := t.lock(ctx, "register:"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// FindOpenByBranch returns the branch's open register.
func (r *CashRegisterRepository) FindOpenByBranch(ctx context.Context, tx usecase.Transaction, branchID string) (*domain.CashRegister, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.openIn(branchID, "")
	if !ok {
		return nil, domain.ErrNoOpenRegister
	}
	return cloneRegister(r.s.registers[id]), nil
}

// Update replaces a register.
func (r *CashRegisterRepository) Update(ctx context.Context, tx usecase.Transaction, register *domain.CashRegister) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.s.registers[register.ID]
	if !ok {
		return domain.ErrRegisterNotFound
	}
	if register.Status == domain.RegisterStatusOpen {
		if _, taken := r.openIn(register.BranchID, register.ID); taken {
			return domain.ErrRegisterAlreadyOpen
		}
	}

	id := register.ID
	r.s.registers[id] = cloneRegister(register)
	t.onRollback(func() { r.s.registers[id] = prev })
	return nil
}

// Delete removes a register.
func (r *CashRegisterRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.s.registers[id]
	if !ok {
		return domain.ErrRegisterNotFound
	}

	delete(r.s.registers, id)
	t.onRollback(func() { r.s.registers[id] = prev })
	return nil
}

// ListByBranch lists a branch's registers, newest first.
func (r *CashRegisterRepository) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*domain.CashRegister, error) {
	return paginate(r.byBranch(branchID, time.Time{}, time.Time{}), limit, offset), nil
}

// ListByBranchAndDateRange lists a branch's registers dated within [start, end].
func (r *CashRegisterRepository) ListByBranchAndDateRange(ctx context.Context, branchID string, start, end time.Time) ([]*domain.CashRegister, error) {
	return r.byBranch(branchID, start, end), nil
}

func (r *CashRegisterRepository) byBranch(branchID string, start, end time.Time) []*domain.CashRegister {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*domain.CashRegister{}
	for _, reg := range r.s.registers {
		if reg.BranchID != branchID {
			continue
		}
		if !start.IsZero() && reg.RegisterDate.Before(start) {
			continue
		}
		if !end.IsZero() && reg.RegisterDate.After(end) {
			continue
		}
		out = append(out, cloneRegister(reg))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].OpenedAt.Equal(out[j].OpenedAt) {
			return out[i].OpenedAt.After(out[j].OpenedAt)
		}
		return out[i].ID > out[j].ID
	})

	return out
}

// CashRegisterTransactionRepository implements
// usecase.CashRegisterTransactionRepository.
type CashRegisterTransactionRepository struct {
	s *Store
}

// NewCashRegisterTransactionRepository creates a new CashRegisterTransactionRepository.
func NewCashRegisterTransactionRepository(s *Store) *CashRegisterTransactionRepository {
	return &CashRegisterTransactionRepository{s: s}
}

// Create appends a register transaction.
func (r *CashRegisterTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.CashRegisterTransaction) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *txn
	id := txn.ID
	r.s.registerTxns = append(r.s.registerTxns, &c)
	t.onRollback(func() {
		r.s.registerTxns = removeWhere(r.s.registerTxns, func(x *domain.CashRegisterTransaction) bool { return x.ID == id })
	})
	return nil
}

// ListByRegister lists a register's transactions in creation order.
func (r *CashRegisterTransactionRepository) ListByRegister(ctx context.Context, registerID string) ([]*domain.CashRegisterTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*domain.CashRegisterTransaction{}
	for _, txn := range r.s.registerTxns {
		if txn.RegisterID == registerID {
			c := *txn
			out = append(out, &c)
		}
	}
	return out, nil
}

// DeleteByRegister removes a register's transactions.
func (r *CashRegisterTransactionRepository) DeleteByRegister(ctx context.Context, tx usecase.Transaction, registerID string) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var removed []*domain.CashRegisterTransaction
	kept := make([]*domain.CashRegisterTransaction, 0, len(r.s.registerTxns))
	for _, txn := range r.s.registerTxns {
		if txn.RegisterID == registerID {
			removed = append(removed, txn)
			continue
		}
		kept = append(kept, txn)
	}

	r.s.registerTxns = kept
	t.onRollback(func() { r.s.registerTxns = append(r.s.registerTxns, removed...) })
	return nil
}
