package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
	"github.com/iho/cashledger/tests/testutil"
)

func receive(t *testing.T, ctx context.Context, uc *testutil.UseCases, bankID, number, amount string) *domain.IncomingCheque {
	t.Helper()

	c, err := uc.Cheques.Create(ctx, usecase.ChequeInput{
		ChequeNumber: number,
		Amount:       testutil.Amount(amount),
		ChequeDate:   time.Now().UTC(),
		BankID:       bankID,
		ReceivedFrom: "Acme Ltd",
	}, testutil.Cashier)
	require.NoError(t, err)
	return c
}

func TestChequeLifecycle(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	uc := db.NewUseCases(false)

	t.Run("clear then bounce reverses the credit once", func(t *testing.T) {
		db.TruncateAll(ctx)
		bank := uc.CreateBank(t, ctx, "500.00")
		c := receive(t, ctx, uc, bank.ID, "CHQ-1", "250.00")

		_, err := uc.Cheques.Deposit(ctx, c.ID, time.Time{}, testutil.Cashier)
		require.NoError(t, err)
		cleared, err := uc.Cheques.Clear(ctx, c.ID, time.Time{}, testutil.Cashier)
		require.NoError(t, err)
		assert.True(t, cleared.RecordedInBank)

		got, err := uc.Banks.GetBank(ctx, bank.ID)
		require.NoError(t, err)
		assert.True(t, got.CurrentBalance.Equal(testutil.Amount("750.00")))

		_, err = uc.Cheques.Bounce(ctx, usecase.BounceInput{ChequeID: c.ID, Reason: "stopped"}, testutil.Cashier)
		require.NoError(t, err)

		entries, err := uc.Cheques.ListLedgerEntries(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.NotNil(t, entries[1].ReversalOf)
		assert.Equal(t, entries[0].ID, *entries[1].ReversalOf)

		recon, err := uc.Banks.ReconcileBank(ctx, bank.ID)
		require.NoError(t, err)
		assert.True(t, recon.Balanced, "%+v", recon)
		assert.True(t, recon.CachedBalance.Equal(testutil.Amount("500.00")))
	})

	t.Run("cheque numbers are unique per bank", func(t *testing.T) {
		db.TruncateAll(ctx)
		bank := uc.CreateBank(t, ctx, "0")
		other := uc.CreateBank(t, ctx, "0")
		receive(t, ctx, uc, bank.ID, "CHQ-9", "10.00")

		_, err := uc.Cheques.Create(ctx, usecase.ChequeInput{
			ChequeNumber: "CHQ-9",
			Amount:       testutil.Amount("10.00"),
			ChequeDate:   time.Now().UTC(),
			BankID:       bank.ID,
		}, testutil.Cashier)
		assert.Equal(t, domain.KindDuplicateResource, domain.KindOf(err))

		receive(t, ctx, uc, other.ID, "CHQ-9", "10.00")
	})

	t.Run("statistics bucket by status", func(t *testing.T) {
		db.TruncateAll(ctx)
		bank := uc.CreateBank(t, ctx, "0")
		receive(t, ctx, uc, bank.ID, "A", "100.00")
		b := receive(t, ctx, uc, bank.ID, "B", "40.00")
		_, err := uc.Cheques.Cancel(ctx, b.ID, "duplicate", testutil.Cashier)
		require.NoError(t, err)

		stats, err := uc.Cheques.Statistics(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Total.Count)
		assert.Equal(t, 1, stats.Pending.Count)
		assert.Equal(t, 1, stats.Cancelled.Count)
		assert.True(t, stats.Total.Amount.Equal(testutil.Amount("140.00")))
	})
}
