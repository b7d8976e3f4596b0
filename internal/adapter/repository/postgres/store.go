package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// Ports wires the Postgres repositories into a usecase.Store. With
// eventsEnabled false, outbox writes are dropped.
func Ports(pool *pgxpool.Pool, eventsEnabled bool) usecase.Store {
	var outbox usecase.OutboxRepository = discardOutbox{}
	if eventsEnabled {
		outbox = NewOutboxRepository(pool)
	}

	return usecase.Store{
		TxManager:    NewTxManager(pool),
		Banks:        NewBankRepository(pool),
		BankLedger:   NewBankLedgerRepository(pool),
		CashBook:     NewCashBookRepository(pool),
		Registers:    NewCashRegisterRepository(pool),
		RegisterTxns: NewCashRegisterTransactionRepository(pool),
		Cheques:      NewChequeRepository(pool),
		Outbox:       outbox,
		Audit:        NewAuditRepository(pool),
		Locker:       NewLocker(),
	}
}

// discardOutbox drops events when publishing is disabled.
type discardOutbox struct{}

func (discardOutbox) Create(context.Context, usecase.Transaction, *domain.OutboxEvent) error {
	return nil
}

func (discardOutbox) GetUnpublished(context.Context, int) ([]*domain.OutboxEvent, error) {
	return nil, nil
}

func (discardOutbox) MarkPublished(context.Context, string, time.Time) error { return nil }

func (discardOutbox) GetByAggregate(context.Context, string, string, int, int) ([]*domain.OutboxEvent, error) {
	return nil, nil
}

func (discardOutbox) DeletePublished(context.Context, time.Time) error { return nil }
