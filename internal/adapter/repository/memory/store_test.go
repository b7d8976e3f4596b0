package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cashledger/internal/domain"
)

func newBank(id, number string) *domain.Bank {
	return &domain.Bank{
		ID:             id,
		Name:           "Bank " + id,
		AccountNumber:  number,
		OpeningBalance: decimal.NewFromInt(100),
		CurrentBalance: decimal.NewFromInt(100),
		Active:         true,
	}
}

func TestTx_RollbackUndoesWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	ports := s.Ports()

	tx, err := ports.TxManager.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, ports.Banks.Create(ctx, tx, newBank("b1", "001")))
	require.NoError(t, tx.Commit(ctx))

	tx, err = ports.TxManager.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, ports.Banks.UpdateBalance(ctx, tx, "b1", decimal.NewFromInt(999), time.Now()))
	require.NoError(t, ports.BankLedger.Create(ctx, tx, &domain.BankLedgerEntry{ID: "e1", BankID: "b1", Credit: decimal.NewFromInt(899)}))
	require.NoError(t, ports.Banks.Create(ctx, tx, newBank("b2", "002")))
	require.NoError(t, tx.Rollback(ctx))

	bank, err := ports.Banks.GetByID(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, bank.CurrentBalance.Equal(decimal.NewFromInt(100)))

	_, err = ports.Banks.GetByID(ctx, "b2")
	assert.ErrorIs(t, err, domain.ErrBankNotFound)

	entries, err := ports.BankLedger.ListAllByBank(ctx, nil, "b1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.NoError(t, tx.Rollback(ctx), "rollback after rollback is a no-op")
	assert.ErrorIs(t, tx.Commit(ctx), ErrTxDone)
}

func TestTx_ReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	ports := NewStore().Ports()

	tx, _ := ports.TxManager.Begin(ctx)
	require.NoError(t, ports.Banks.Create(ctx, tx, newBank("b1", "001")))
	require.NoError(t, tx.Commit(ctx))

	bank, err := ports.Banks.GetByID(ctx, "b1")
	require.NoError(t, err)
	bank.CurrentBalance = decimal.NewFromInt(-1)

	again, err := ports.Banks.GetByID(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, again.CurrentBalance.Equal(decimal.NewFromInt(100)))
}

func TestLocker_SerializesBranch(t *testing.T) {
	ctx := context.Background()
	ports := NewStore().Ports()

	first, _ := ports.TxManager.Begin(ctx)
	require.NoError(t, ports.Locker.LockBranch(ctx, first, "br-1"))
	require.NoError(t, ports.Locker.LockBranch(ctx, first, "br-1"), "re-entrant within one tx")

	acquired := make(chan struct{})
	go func() {
		second, _ := ports.TxManager.Begin(ctx)
		defer second.Rollback(ctx)
		if err := ports.Locker.LockBranch(ctx, second, "br-1"); err == nil {
			close(acquired)
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second transaction acquired a held branch lock")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, first.Commit(ctx))

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock was not released on commit")
	}
}

func TestLocker_HonoursContext(t *testing.T) {
	ports := NewStore().Ports()
	bg := context.Background()

	holder, _ := ports.TxManager.Begin(bg)
	require.NoError(t, ports.Locker.LockBranch(bg, holder, "br-1"))
	defer holder.Rollback(bg)

	ctx, cancel := context.WithTimeout(bg, 20*time.Millisecond)
	defer cancel()

	waiter, _ := ports.TxManager.Begin(bg)
	defer waiter.Rollback(bg)

	err := ports.Locker.LockBranch(ctx, waiter, "br-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCashRegisterRepository_SingleOpenPerBranch(t *testing.T) {
	ctx := context.Background()
	ports := NewStore().Ports()
	now := time.Now().UTC()

	open := func(id string) error {
		r, err := domain.NewCashRegister(id, "br-1", decimal.Zero, "u", now)
		require.NoError(t, err)
		tx, _ := ports.TxManager.Begin(ctx)
		defer tx.Rollback(ctx)
		if err := ports.Registers.Create(ctx, tx, r); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}

	require.NoError(t, open("r1"))
	assert.ErrorIs(t, open("r2"), domain.ErrRegisterAlreadyOpen)

	current, err := ports.Registers.FindOpenByBranch(ctx, nil, "br-1")
	require.NoError(t, err)
	assert.Equal(t, "r1", current.ID)

	_, err = ports.Registers.FindOpenByBranch(ctx, nil, "br-2")
	assert.ErrorIs(t, err, domain.ErrNoOpenRegister)
}

func TestChequeRepository_NumberReusableAfterSoftDelete(t *testing.T) {
	ctx := context.Background()
	ports := NewStore().Ports()

	cheque := func(id string) *domain.IncomingCheque {
		return &domain.IncomingCheque{ID: id, ChequeNumber: "CHQ-1", Amount: decimal.NewFromInt(5), Status: domain.ChequeStatusPending}
	}

	tx, _ := ports.TxManager.Begin(ctx)
	require.NoError(t, ports.Cheques.Create(ctx, tx, cheque("c1")))
	assert.ErrorIs(t, ports.Cheques.Create(ctx, tx, cheque("c2")), domain.ErrDuplicateChequeNumber)
	require.NoError(t, ports.Cheques.SoftDelete(ctx, tx, "c1", time.Now()))
	require.NoError(t, ports.Cheques.Create(ctx, tx, cheque("c2")))
	require.NoError(t, tx.Commit(ctx))

	_, err := ports.Cheques.GetByID(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrChequeNotFound)

	list, err := ports.Cheques.List(ctx, domain.ChequeFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c2", list[0].ID)
}

func TestCashBookRepository_ConcurrentRollbacksKeepOthers(t *testing.T) {
	ctx := context.Background()
	ports := NewStore().Ports()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx, _ := ports.TxManager.Begin(ctx)
			branch := "br-" + string(rune('a'+i))
			_ = ports.CashBook.Create(ctx, tx, &domain.CashBookEntry{
				ID: branch, BranchID: branch, Sequence: 1, Debit: decimal.NewFromInt(1),
			})
			if i%2 == 0 {
				_ = tx.Rollback(ctx)
				return
			}
			_ = tx.Commit(ctx)
		}(i)
	}
	wg.Wait()

	kept := 0
	for i := 0; i < 20; i++ {
		entries, err := ports.CashBook.ListAllByBranch(ctx, "br-"+string(rune('a'+i)))
		require.NoError(t, err)
		if i%2 == 0 {
			assert.Empty(t, entries)
		} else {
			kept += len(entries)
		}
	}
	assert.Equal(t, 10, kept)
}

func TestCashBookRepository_SequenceClash(t *testing.T) {
	ctx := context.Background()
	ports := NewStore().Ports()

	tx, _ := ports.TxManager.Begin(ctx)
	defer tx.Rollback(ctx)

	entry := &domain.CashBookEntry{ID: "e1", BranchID: "br", Sequence: 1, Debit: decimal.NewFromInt(1)}
	require.NoError(t, ports.CashBook.Create(ctx, tx, entry))

	dup := *entry
	dup.ID = "e2"
	assert.ErrorIs(t, ports.CashBook.Create(ctx, tx, &dup), domain.ErrConcurrencyConflict)
}
