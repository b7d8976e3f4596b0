package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// ChequeRepository implements usecase.ChequeRepository.
type ChequeRepository struct {
	s *Store
}

// NewChequeRepository creates a new ChequeRepository.
func NewChequeRepository(s *Store) *ChequeRepository {
	return &ChequeRepository{s: s}
}

func cloneCheque(c *domain.IncomingCheque) *domain.IncomingCheque {
	cp := *c
	return &cp
}

func (r *ChequeRepository) numberTaken(number, excludeID string) bool {
	for _, c := range r.s.cheques {
		if c.DeletedAt == nil && c.ID != excludeID && c.ChequeNumber == number {
			return true
		}
	}
	return false
}

// Create inserts a cheque. Live cheque numbers are unique.
func (r *ChequeRepository) Create(ctx context.Context, tx usecase.Transaction, cheque *domain.IncomingCheque) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.numberTaken(cheque.ChequeNumber, cheque.ID) {
		return domain.ErrDuplicateChequeNumber
	}

	id := cheque.ID
	r.s.cheques[id] = cloneCheque(cheque)
	t.onRollback(func() { delete(r.s.cheques, id) })
	return nil
}

func (r *ChequeRepository) live(id string) (*domain.IncomingCheque, bool) {
	c, ok := r.s.cheques[id]
	if !ok || c.DeletedAt != nil {
		return nil, false
	}
	return c, true
}

// GetByID retrieves a live cheque by ID.
func (r *ChequeRepository) GetByID(ctx context.Context, id string) (*domain.IncomingCheque, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.live(id)
	if !ok {
		return nil, domain.ErrChequeNotFound
	}
	return cloneCheque(c), nil
}

// GetByIDForUpdate locks the cheque until tx ends and returns it.
func (r *ChequeRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.IncomingCheque, error) {
	t, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := t.lock(ctx, "cheque:"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// ExistsByNumber reports whether another live cheque uses number.
func (r *ChequeRepository) ExistsByNumber(ctx context.Context, tx usecase.Transaction, number, excludeID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.numberTaken(number, excludeID), nil
}

// Update replaces a live cheque.
func (r *ChequeRepository) Update(ctx context.Context, tx usecase.Transaction, cheque *domain.IncomingCheque) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.live(cheque.ID)
	if !ok {
		return domain.ErrChequeNotFound
	}
	if r.numberTaken(cheque.ChequeNumber, cheque.ID) {
		return domain.ErrDuplicateChequeNumber
	}

	id := cheque.ID
	r.s.cheques[id] = cloneCheque(cheque)
	t.onRollback(func() { r.s.cheques[id] = prev })
	return nil
}

// SoftDelete hides a cheque from every read.
func (r *ChequeRepository) SoftDelete(ctx context.Context, tx usecase.Transaction, id string, deletedAt time.Time) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.live(id)
	if !ok {
		return domain.ErrChequeNotFound
	}

	next := cloneCheque(prev)
	next.DeletedAt = &deletedAt
	r.s.cheques[id] = next
	t.onRollback(func() { r.s.cheques[id] = prev })
	return nil
}

// List lists matching cheques, newest cheque date first.
func (r *ChequeRepository) List(ctx context.Context, filter domain.ChequeFilter) ([]*domain.IncomingCheque, error) {
	return paginate(r.matching(filter), filter.Limit, filter.Offset), nil
}

// Summarize totals matching cheques per status.
func (r *ChequeRepository) Summarize(ctx context.Context, filter domain.ChequeFilter) (domain.ChequeStatistics, error) {
	return domain.SummarizeCheques(r.matching(filter)), nil
}

func (r *ChequeRepository) matching(filter domain.ChequeFilter) []*domain.IncomingCheque {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*domain.IncomingCheque{}
	for _, c := range r.s.cheques {
		if filter.Matches(c) {
			out = append(out, cloneCheque(c))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ChequeDate.Equal(out[j].ChequeDate) {
			return out[i].ChequeDate.After(out[j].ChequeDate)
		}
		return out[i].ID > out[j].ID
	})

	return out
}
