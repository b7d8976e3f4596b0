package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// BankRepository implements usecase.BankRepository.
type BankRepository struct {
	s *Store
}

// NewBankRepository creates a new BankRepository.
func NewBankRepository(s *Store) *BankRepository {
	return &BankRepository{s: s}
}

func cloneBank(b *domain.Bank) *domain.Bank {
	c := *b
	return &c
}

// Create inserts a bank. Account numbers are unique.
func (r *BankRepository) Create(ctx context.Context, tx usecase.Transaction, bank *domain.Bank) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.accountNumberTaken(bank.AccountNumber, "") {
		return domain.ErrDuplicateAccountNumber
	}

	r.s.banks[bank.ID] = cloneBank(bank)
	t.onRollback(func() { delete(r.s.banks, bank.ID) })
	return nil
}

// GetByID retrieves a bank by ID.
func (r *BankRepository) GetByID(ctx context.Context, id string) (*domain.Bank, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.banks[id]
	if !ok {
		return nil, domain.ErrBankNotFound
	}
	return cloneBank(b), nil
}

// GetByIDForUpdate locks the bank until tx ends and returns it.
func (r *BankRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Bank, error) {
	t, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := t.lock(ctx, "bank:"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// ExistsByAccountNumber reports whether another bank uses accountNumber.
func (r *BankRepository) ExistsByAccountNumber(ctx context.Context, tx usecase.Transaction, accountNumber, excludeID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.accountNumberTaken(accountNumber, excludeID), nil
}

func (r *BankRepository) accountNumberTaken(accountNumber, excludeID string) bool {
	for _, b := range r.s.banks {
		if b.ID != excludeID && b.AccountNumber == accountNumber {
			return true
		}
	}
	return false
}

// Update persists descriptive fields and the active flag.
func (r *BankRepository) Update(ctx context.Context, tx usecase.Transaction, bank *domain.Bank) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.banks[bank.ID]
	if !ok {
		return domain.ErrBankNotFound
	}
	if r.accountNumberTaken(bank.AccountNumber, bank.ID) {
		return domain.ErrDuplicateAccountNumber
	}

	prev := *current
	next := prev
	next.Name = bank.Name
	next.AccountNumber = bank.AccountNumber
	next.BranchName = bank.BranchName
	next.AccountHolderName = bank.AccountHolderName
	next.AccountType = bank.AccountType
	next.Active = bank.Active
	next.UpdatedAt = bank.UpdatedAt

	r.s.banks[bank.ID] = &next
	t.onRollback(func() { r.s.banks[bank.ID] = &prev })
	return nil
}

// UpdateBalance sets the cached balance.
func (r *BankRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.banks[id]
	if !ok {
		return domain.ErrBankNotFound
	}

	prev := *current
	next := prev
	next.CurrentBalance = balance
	next.UpdatedAt = updatedAt

	r.s.banks[id] = &next
	t.onRollback(func() { r.s.banks[id] = &prev })
	return nil
}

// List lists banks ordered by name.
func (r *BankRepository) List(ctx context.Context, limit, offset int) ([]*domain.Bank, error) {
	return paginate(r.sorted(false), limit, offset), nil
}

// ListActive lists active banks ordered by name.
func (r *BankRepository) ListActive(ctx context.Context) ([]*domain.Bank, error) {
	return r.sorted(true), nil
}

func (r *BankRepository) sorted(activeOnly bool) []*domain.Bank {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	banks := make([]*domain.Bank, 0, len(r.s.banks))
	for _, b := range r.s.banks {
		if activeOnly && !b.Active {
			continue
		}
		banks = append(banks, cloneBank(b))
	}

	sort.Slice(banks, func(i, j int) bool {
		if banks[i].Name != banks[j].Name {
			return banks[i].Name < banks[j].Name
		}
		return banks[i].ID < banks[j].ID
	})

	return banks
}
