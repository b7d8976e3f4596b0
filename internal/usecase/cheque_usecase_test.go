package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

func (f *fixture) receiveCheque(t *testing.T, bankID, number, amount string) *domain.IncomingCheque {
	t.Helper()

	c, err := f.cheques.Create(context.Background(), usecase.ChequeInput{
		ChequeNumber: number,
		Amount:       dec(amount),
		ChequeDate:   time.Now().UTC(),
		BankID:       bankID,
		ReceivedFrom: "Acme Ltd",
	}, cashier)
	if err != nil {
		t.Fatalf("create cheque: %v", err)
	}
	return c
}

func TestCheque_ClearThenBounceRestoresBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bank := f.createBank(t, "ACC-1", "10000.00")
	c := f.receiveCheque(t, bank.ID, "CHQ-1001", "15000.00")

	if c.Status != domain.ChequeStatusPending {
		t.Fatalf("expected PENDING, got %s", c.Status)
	}

	if _, err := f.cheques.Deposit(ctx, c.ID, time.Time{}, cashier); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	assertDecimal(t, "balance after deposit", "10000.00", f.bankBalance(t, bank.ID))

	cleared, err := f.cheques.Clear(ctx, c.ID, time.Time{}, cashier)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !cleared.RecordedInBank || cleared.BankLedgerEntryID == nil {
		t.Fatal("cleared cheque must reference its ledger entry")
	}
	assertDecimal(t, "balance after clear", "25000.00", f.bankBalance(t, bank.ID))

	bounced, err := f.cheques.Bounce(ctx, usecase.BounceInput{ChequeID: c.ID, Reason: "insufficient funds"}, cashier)
	if err != nil {
		t.Fatalf("bounce: %v", err)
	}
	if bounced.Status != domain.ChequeStatusBounced || bounced.BounceReason != "insufficient funds" {
		t.Fatalf("unexpected bounced cheque: %+v", bounced)
	}
	assertDecimal(t, "balance after bounce", "10000.00", f.bankBalance(t, bank.ID))

	entries, err := f.cheques.ListLedgerEntries(ctx, c.ID)
	if err != nil {
		t.Fatalf("ledger entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected exactly 2 ledger entries, got %d", len(entries))
	}
	credit, reversal := entries[0], entries[1]
	assertDecimal(t, "credit", "15000.00", credit.Credit)
	assertDecimal(t, "reversal debit", "15000.00", reversal.Debit)
	if reversal.ReversalOf == nil || *reversal.ReversalOf != credit.ID {
		t.Fatal("reversal must point at the original credit")
	}
	if !strings.HasPrefix(reversal.Description, "Cheque bounced - reversal: CHQ-1001") {
		t.Fatalf("unexpected reversal description %q", reversal.Description)
	}

	// A second bounce is a state error and writes nothing.
	if _, err := f.cheques.Bounce(ctx, usecase.BounceInput{ChequeID: c.ID, Reason: "again"}, cashier); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("expected state error on second bounce, got %v", err)
	}
	entries, _ = f.cheques.ListLedgerEntries(ctx, c.ID)
	if len(entries) != 2 {
		t.Fatalf("second bounce wrote ledger entries: %d", len(entries))
	}

	recon, err := f.banks.ReconcileBank(ctx, bank.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !recon.Balanced {
		t.Fatalf("bank ledger does not replay: %+v", recon)
	}
}

func TestCheque_BounceBeforeClearMovesNoMoney(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bank := f.createBank(t, "ACC-1", "0")
	c := f.receiveCheque(t, bank.ID, "CHQ-1", "75.00")

	if _, err := f.cheques.Deposit(ctx, c.ID, time.Time{}, cashier); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := f.cheques.Bounce(ctx, usecase.BounceInput{ChequeID: c.ID}, cashier); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected reason to be required, got %v", err)
	}
	if _, err := f.cheques.Bounce(ctx, usecase.BounceInput{ChequeID: c.ID, Reason: "signature"}, cashier); err != nil {
		t.Fatalf("bounce: %v", err)
	}

	entries, _ := f.cheques.ListLedgerEntries(ctx, c.ID)
	if len(entries) != 0 {
		t.Fatalf("expected no ledger entries, got %d", len(entries))
	}
	assertDecimal(t, "bank balance", "0", f.bankBalance(t, bank.ID))
}

func TestCheque_ConcurrentBounceReversesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bank := f.createBank(t, "ACC-1", "0")
	c := f.receiveCheque(t, bank.ID, "CHQ-1", "500.00")
	if _, err := f.cheques.Deposit(ctx, c.ID, time.Time{}, cashier); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := f.cheques.Clear(ctx, c.ID, time.Time{}, cashier); err != nil {
		t.Fatalf("clear: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.cheques.Bounce(ctx, usecase.BounceInput{ChequeID: c.ID, Reason: "stopped"}, cashier)
		}()
	}
	wg.Wait()

	entries, _ := f.cheques.ListLedgerEntries(ctx, c.ID)
	if len(entries) != 2 {
		t.Fatalf("expected credit and one reversal, got %d entries", len(entries))
	}
	assertDecimal(t, "bank balance", "0", f.bankBalance(t, bank.ID))
}

func TestBankBalanceTracker_ReverseTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bank := f.createBank(t, "ACC-1", "0")
	c := f.receiveCheque(t, bank.ID, "CHQ-1", "20.00")
	_, _ = f.cheques.Deposit(ctx, c.ID, time.Time{}, cashier)
	cleared, err := f.cheques.Clear(ctx, c.ID, time.Time{}, cashier)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}

	reverse := func() error {
		tx, err := f.store.TxManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if _, err := f.tracker.Reverse(ctx, tx, *cleared.BankLedgerEntryID, "manual", admin.ID, time.Now()); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}

	if err := reverse(); err != nil {
		t.Fatalf("first reversal: %v", err)
	}
	if err := reverse(); !errors.Is(err, domain.ErrLedgerEntryAlreadyReversed) {
		t.Fatalf("expected ErrLedgerEntryAlreadyReversed, got %v", err)
	}
	assertDecimal(t, "bank balance", "0", f.bankBalance(t, bank.ID))
}

func TestCheque_Transitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bank := f.createBank(t, "ACC-1", "0")

	t.Run("clear requires deposit", func(t *testing.T) {
		c := f.receiveCheque(t, bank.ID, "T-1", "1.00")
		if _, err := f.cheques.Clear(ctx, c.ID, time.Time{}, cashier); !errors.Is(err, domain.ErrChequeNotDeposited) {
			t.Fatalf("expected ErrChequeNotDeposited, got %v", err)
		}
	})

	t.Run("reconcile requires clear", func(t *testing.T) {
		c := f.receiveCheque(t, bank.ID, "T-2", "1.00")
		if _, err := f.cheques.Reconcile(ctx, c.ID, cashier); !errors.Is(err, domain.ErrChequeNotCleared) {
			t.Fatalf("expected ErrChequeNotCleared, got %v", err)
		}
	})

	t.Run("cleared cheque cannot be cancelled or edited", func(t *testing.T) {
		c := f.receiveCheque(t, bank.ID, "T-3", "1.00")
		_, _ = f.cheques.Deposit(ctx, c.ID, time.Time{}, cashier)
		if _, err := f.cheques.Clear(ctx, c.ID, time.Time{}, cashier); err != nil {
			t.Fatalf("clear: %v", err)
		}
		if _, err := f.cheques.Cancel(ctx, c.ID, "oops", cashier); !errors.Is(err, domain.ErrChequeCannotCancel) {
			t.Fatalf("expected ErrChequeCannotCancel, got %v", err)
		}
		if _, err := f.cheques.Update(ctx, c.ID, usecase.ChequeInput{ChequeNumber: "T-3", Amount: dec("2.00"), BankID: bank.ID}, cashier); !errors.Is(err, domain.ErrChequeLocked) {
			t.Fatalf("expected ErrChequeLocked, got %v", err)
		}
		if err := f.cheques.Delete(ctx, c.ID, admin); !errors.Is(err, domain.ErrChequeLocked) {
			t.Fatalf("expected ErrChequeLocked on delete, got %v", err)
		}

		reconciled, err := f.cheques.Reconcile(ctx, c.ID, cashier)
		if err != nil {
			t.Fatalf("reconcile: %v", err)
		}
		if !reconciled.Reconciled || reconciled.ReconciledDate == nil {
			t.Fatal("expected reconciled flag and date")
		}
	})

	t.Run("cancel appends reason", func(t *testing.T) {
		c := f.receiveCheque(t, bank.ID, "T-4", "1.00")
		cancelled, err := f.cheques.Cancel(ctx, c.ID, "customer paid cash", cashier)
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if !strings.Contains(cancelled.Remarks, "Cancellation Reason: customer paid cash") {
			t.Fatalf("unexpected remarks %q", cancelled.Remarks)
		}
	})
}

func TestCheque_NumberUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bank := f.createBank(t, "ACC-1", "0")

	c := f.receiveCheque(t, bank.ID, "CHQ-9", "10.00")

	_, err := f.cheques.Create(ctx, usecase.ChequeInput{ChequeNumber: "CHQ-9", Amount: dec("5.00"), BankID: bank.ID, ChequeDate: time.Now()}, cashier)
	if !errors.Is(err, domain.ErrDuplicateChequeNumber) {
		t.Fatalf("expected ErrDuplicateChequeNumber, got %v", err)
	}

	if err := f.cheques.Delete(ctx, c.ID, admin); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.cheques.Get(ctx, c.ID); !errors.Is(err, domain.ErrChequeNotFound) {
		t.Fatalf("deleted cheque still visible: %v", err)
	}

	f.receiveCheque(t, bank.ID, "CHQ-9", "5.00")
}

func TestCheque_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bank := f.createBank(t, "ACC-1", "0")

	tests := []struct {
		name  string
		input usecase.ChequeInput
		want  error
	}{
		{"zero amount", usecase.ChequeInput{ChequeNumber: "A", Amount: dec("0"), BankID: bank.ID}, domain.ErrValidation},
		{"blank number", usecase.ChequeInput{ChequeNumber: "  ", Amount: dec("1"), BankID: bank.ID}, domain.ErrValidation},
		{"unknown bank", usecase.ChequeInput{ChequeNumber: "B", Amount: dec("1"), BankID: "nope", ChequeDate: time.Now()}, domain.ErrBankNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.cheques.Create(ctx, tt.input, cashier); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCheque_Statistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bank := f.createBank(t, "ACC-1", "0")

	f.receiveCheque(t, bank.ID, "S-1", "10.00")
	d := f.receiveCheque(t, bank.ID, "S-2", "20.00")
	cl := f.receiveCheque(t, bank.ID, "S-3", "30.00")

	_, _ = f.cheques.Deposit(ctx, d.ID, time.Time{}, cashier)
	_, _ = f.cheques.Deposit(ctx, cl.ID, time.Time{}, cashier)
	if _, err := f.cheques.Clear(ctx, cl.ID, time.Time{}, cashier); err != nil {
		t.Fatalf("clear: %v", err)
	}

	stats, err := f.cheques.Statistics(ctx)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}

	if stats.Total.Count != 3 {
		t.Fatalf("expected 3 cheques, got %d", stats.Total.Count)
	}
	assertDecimal(t, "total amount", "60.00", stats.Total.Amount)
	if stats.Pending.Count != 1 || stats.Deposited.Count != 1 || stats.Cleared.Count != 1 {
		t.Fatalf("unexpected buckets: %+v", stats)
	}

	list, err := f.cheques.List(ctx, domain.ChequeFilter{Status: domain.ChequeStatusDeposited})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != d.ID {
		t.Fatalf("unexpected filtered list: %+v", list)
	}

	if _, err := f.cheques.List(ctx, domain.ChequeFilter{Status: "LOST"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}

func TestCheque_RejectsInactiveBank(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	open := f.createBank(t, "ACC-1", "0.00")
	closed := f.createBank(t, "ACC-2", "0.00")
	if _, err := f.banks.DeactivateBank(ctx, closed.ID, admin); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := f.cheques.Create(ctx, usecase.ChequeInput{
		ChequeNumber: "CHQ-9",
		Amount:       dec("10.00"),
		ChequeDate:   time.Now().UTC(),
		BankID:       closed.ID,
	}, cashier)
	if !errors.Is(err, domain.ErrBankInactive) {
		t.Fatalf("expected ErrBankInactive on create, got %v", err)
	}

	c := f.receiveCheque(t, open.ID, "CHQ-10", "10.00")
	_, err = f.cheques.Update(ctx, c.ID, usecase.ChequeInput{
		ChequeNumber: c.ChequeNumber,
		Amount:       c.Amount,
		ChequeDate:   c.ChequeDate,
		BankID:       closed.ID,
	}, cashier)
	if !errors.Is(err, domain.ErrBankInactive) {
		t.Fatalf("expected ErrBankInactive on move, got %v", err)
	}

	stored, err := f.cheques.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.BankID != open.ID {
		t.Fatalf("cheque moved to %s", stored.BankID)
	}
}
