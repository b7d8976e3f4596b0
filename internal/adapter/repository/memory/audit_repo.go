package memory

import (
	"context"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	s *Store
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(s *Store) *AuditRepository {
	return &AuditRepository{s: s}
}

// CreateTx appends an audit row within a transaction.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *log
	id := log.ID
	r.s.audit = append(r.s.audit, &c)
	t.onRollback(func() {
		r.s.audit = removeWhere(r.s.audit, func(l *domain.AuditLog) bool { return l.ID == id })
	})
	return nil
}

// List returns audit rows matching filter, oldest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*domain.AuditLog{}
	for _, l := range r.s.audit {
		if filter.UserID != "" && l.UserID != filter.UserID {
			continue
		}
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.ResourceType != "" && l.ResourceType != filter.ResourceType {
			continue
		}
		if filter.ResourceID != "" && l.ResourceID != filter.ResourceID {
			continue
		}
		if filter.StartDate != nil && l.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && l.CreatedAt.After(*filter.EndDate) {
			continue
		}
		c := *l
		out = append(out, &c)
	}
	return paginate(out, filter.Limit, filter.Offset), nil
}
