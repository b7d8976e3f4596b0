package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/eventpublisher"
	"github.com/iho/cashledger/internal/usecase"
	"github.com/iho/cashledger/tests/testutil"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []*domain.OutboxEvent
}

func (p *capturePublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType
	}
	return out
}

func TestOutboxEvents(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)

	t.Run("register lifecycle writes events that the publisher drains", func(t *testing.T) {
		db.TruncateAll(ctx)
		uc := db.NewUseCases(true)
		branch := db.SeedBranch(ctx, "main")

		reg, err := uc.Registers.Open(ctx, usecase.OpenRegisterInput{BranchID: branch.ID, OpeningBalance: testutil.Amount("10")}, testutil.Cashier)
		require.NoError(t, err)
		_, err = uc.Registers.Close(ctx, usecase.CloseRegisterInput{RegisterID: reg.ID, ActualClosingBalance: testutil.Amount("10")}, testutil.Cashier)
		require.NoError(t, err)

		events, err := uc.Store.Outbox.GetByAggregate(ctx, domain.AggregateTypeRegister, reg.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, events, 2)

		pub := &capturePublisher{}
		ep := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: uc.Store.Outbox,
			Publisher:  pub,
			Logger:     zerolog.Nop(),
			BatchSize:  10,
			Interval:   20 * time.Millisecond,
		})

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = ep.Start(runCtx)
		}()

		require.Eventually(t, func() bool { return len(pub.types()) == 2 }, 2*time.Second, 20*time.Millisecond)
		cancel()
		<-done

		assert.Equal(t, []string{domain.EventTypeRegisterOpened, domain.EventTypeRegisterClosed}, pub.types())

		pending, err := uc.Store.Outbox.GetUnpublished(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("disabled outbox writes nothing", func(t *testing.T) {
		db.TruncateAll(ctx)
		uc := db.NewUseCases(false)
		branch := db.SeedBranch(ctx, "main")

		_, err := uc.Registers.Open(ctx, usecase.OpenRegisterInput{BranchID: branch.ID, OpeningBalance: testutil.Amount("10")}, testutil.Cashier)
		require.NoError(t, err)

		var count int
		require.NoError(t, db.Pool.QueryRow(ctx, `SELECT count(*) FROM outbox_events`).Scan(&count))
		assert.Zero(t, count)
	})
}
