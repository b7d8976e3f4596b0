package usecase

import (
	"context"

	"github.com/iho/cashledger/internal/domain"
)

// AuditUseCase reads the audit trail and the outbox history written next to
// every change.
type AuditUseCase struct {
	store Store
}

// NewAuditUseCase creates a new AuditUseCase.
func NewAuditUseCase(store Store) *AuditUseCase {
	return &AuditUseCase{store: store}
}

// ListAuditLogs returns audit rows matching filter, oldest first.
func (uc *AuditUseCase) ListAuditLogs(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return nil, domain.ErrInvalidDateRange
	}
	return uc.store.Audit.List(ctx, filter)
}

// ListEvents returns the outbox events of one aggregate, oldest first,
// published or not.
func (uc *AuditUseCase) ListEvents(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	switch aggregateType {
	case domain.AggregateTypeRegister, domain.AggregateTypeCheque:
	default:
		return nil, domain.ErrUnknownAggregate
	}
	return uc.store.Outbox.GetByAggregate(ctx, aggregateType, aggregateID, limit, offset)
}
