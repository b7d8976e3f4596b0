package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

func TestCashRegister_DayCycleBalances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.openRegister(t, testBranch, "5000.00")

	if _, err := f.sales.RecordSale(ctx, usecase.SaleInput{
		BranchID:  testBranch,
		Amount:    dec("1200.50"),
		Reference: "INV-1",
	}, cashier); err != nil {
		t.Fatalf("record sale: %v", err)
	}

	out, err := f.registers.RecordCashOut(ctx, usecase.RecordTransactionInput{
		RegisterID:  r.ID,
		Amount:      dec("300.00"),
		Description: "petty cash",
	}, cashier)
	if err != nil {
		t.Fatalf("record cash out: %v", err)
	}
	assertDecimal(t, "expected closing", "5900.50", out.Register.ExpectedClosingBalance)

	closed, err := f.registers.Close(ctx, usecase.CloseRegisterInput{
		RegisterID:           r.ID,
		ActualClosingBalance: dec("5900.50"),
	}, cashier)
	if err != nil {
		t.Fatalf("close: %v", err)
	}

	if closed.Status != domain.RegisterStatusBalanced {
		t.Fatalf("expected BALANCED, got %s", closed.Status)
	}
	assertDecimal(t, "discrepancy", "0", *closed.Discrepancy)
	assertDecimal(t, "sales total", "1200.50", closed.SalesTotal)
	assertDecimal(t, "cash out total", "300.00", closed.CashOutTotal)

	v := f.assertCashBookValid(t, testBranch)
	if v.EntryCount != 2 {
		t.Fatalf("expected 2 cash book entries, got %d", v.EntryCount)
	}
	assertDecimal(t, "cash book balance", "900.50", v.FinalBalance)

	txns, err := f.registers.ListTransactions(ctx, r.ID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txns) != 2 || txns[0].Type != domain.TransactionTypeSale || txns[1].Type != domain.TransactionTypeCashOut {
		t.Fatalf("unexpected transactions: %+v", txns)
	}
}

func TestCashRegister_CloseWithShortfall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.openRegister(t, testBranch, "100.00")
	if _, err := f.registers.RecordCashIn(ctx, usecase.RecordTransactionInput{RegisterID: r.ID, Amount: dec("50.00")}, cashier); err != nil {
		t.Fatalf("cash in: %v", err)
	}

	closed, err := f.registers.Close(ctx, usecase.CloseRegisterInput{RegisterID: r.ID, ActualClosingBalance: dec("140.00")}, cashier)
	if err != nil {
		t.Fatalf("close: %v", err)
	}

	if closed.Status != domain.RegisterStatusClosed {
		t.Fatalf("expected CLOSED, got %s", closed.Status)
	}
	assertDecimal(t, "discrepancy", "-10.00", *closed.Discrepancy)

	if _, err := f.registers.Close(ctx, usecase.CloseRegisterInput{RegisterID: r.ID, ActualClosingBalance: dec("150.00")}, cashier); !errors.Is(err, domain.ErrRegisterNotOpen) {
		t.Fatalf("expected ErrRegisterNotOpen on second close, got %v", err)
	}
}

func TestCashRegister_DepositOpenRegisterRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bank := f.createBank(t, "ACC-1", "0")
	r := f.openRegister(t, testBranch, "1000.00")

	_, err := f.registers.DepositToBank(ctx, usecase.DepositInput{
		RegisterID: r.ID,
		BankID:     bank.ID,
		Amount:     dec("1000.00"),
	}, cashier)
	if !errors.Is(err, domain.ErrRegisterStillOpen) {
		t.Fatalf("expected ErrRegisterStillOpen, got %v", err)
	}
	if domain.KindOf(err) != domain.KindInvalidStateTransition {
		t.Fatalf("expected invalid state transition kind, got %s", domain.KindOf(err))
	}

	assertDecimal(t, "bank balance", "0", f.bankBalance(t, bank.ID))
	entries, _ := f.banks.ListLedger(ctx, bank.ID, 0, 0)
	if len(entries) != 0 {
		t.Fatalf("expected no ledger entries, got %d", len(entries))
	}

	current, err := f.registers.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.Status != domain.RegisterStatusOpen {
		t.Fatalf("register should still be OPEN, got %s", current.Status)
	}
}

func TestCashRegister_DepositToBank(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bank := f.createBank(t, "ACC-1", "250.00")
	r := f.openRegister(t, testBranch, "0")
	if _, err := f.sales.RecordSale(ctx, usecase.SaleInput{BranchID: testBranch, Amount: dec("800.00")}, cashier); err != nil {
		t.Fatalf("sale: %v", err)
	}
	if _, err := f.registers.Close(ctx, usecase.CloseRegisterInput{RegisterID: r.ID, ActualClosingBalance: dec("800.00")}, cashier); err != nil {
		t.Fatalf("close: %v", err)
	}

	res, err := f.registers.DepositToBank(ctx, usecase.DepositInput{
		RegisterID: r.ID,
		BankID:     bank.ID,
		Amount:     dec("800.00"),
	}, cashier)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if res.Register.Status != domain.RegisterStatusDeposited {
		t.Fatalf("expected DEPOSITED, got %s", res.Register.Status)
	}
	assertDecimal(t, "ledger credit", "800.00", res.LedgerEntry.Credit)
	assertDecimal(t, "balance after", "1050.00", res.LedgerEntry.BalanceAfter)
	assertDecimal(t, "bank balance", "1050.00", f.bankBalance(t, bank.ID))
	assertDecimal(t, "cash book credit", "800.00", res.CashBookEntry.Credit)
	if res.CashBookEntry.Category != domain.CashBookCategoryBankDeposit {
		t.Fatalf("unexpected cash book category %s", res.CashBookEntry.Category)
	}

	v := f.assertCashBookValid(t, testBranch)
	assertDecimal(t, "cash book balance", "0", v.FinalBalance)

	_, err = f.registers.DepositToBank(ctx, usecase.DepositInput{RegisterID: r.ID, BankID: bank.ID, Amount: dec("800.00")}, cashier)
	if !errors.Is(err, domain.ErrRegisterAlreadyDeposited) {
		t.Fatalf("expected ErrRegisterAlreadyDeposited, got %v", err)
	}
	assertDecimal(t, "bank balance after retry", "1050.00", f.bankBalance(t, bank.ID))

	if err := f.registers.Delete(ctx, r.ID, admin); !errors.Is(err, domain.ErrRegisterAlreadyDeposited) {
		t.Fatalf("expected deposited register to be undeletable, got %v", err)
	}
}

func TestCashRegister_DepositFailureLeavesNoPartialWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bank := f.createBank(t, "ACC-1", "0")
	if _, err := f.banks.DeactivateBank(ctx, bank.ID, admin); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	r := f.openRegister(t, testBranch, "40.00")
	if _, err := f.registers.Close(ctx, usecase.CloseRegisterInput{RegisterID: r.ID, ActualClosingBalance: dec("40.00")}, cashier); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err := f.registers.DepositToBank(ctx, usecase.DepositInput{RegisterID: r.ID, BankID: bank.ID, Amount: dec("40.00")}, cashier)
	if !errors.Is(err, domain.ErrBankInactive) {
		t.Fatalf("expected ErrBankInactive, got %v", err)
	}

	current, _ := f.registers.Get(ctx, r.ID)
	if current.Status != domain.RegisterStatusBalanced {
		t.Fatalf("register status changed to %s", current.Status)
	}
	entries, _ := f.cashBook.ListByBranch(ctx, testBranch, 0, 0)
	if len(entries) != 0 {
		t.Fatalf("expected empty cash book, got %d entries", len(entries))
	}
	assertDecimal(t, "bank balance", "0", f.bankBalance(t, bank.ID))
}

func TestCashRegister_SingleOpenPerBranch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		opened    int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.registers.Open(ctx, usecase.OpenRegisterInput{BranchID: testBranch, OpeningBalance: dec("10.00")}, cashier)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				opened++
			case errors.Is(err, domain.ErrRegisterAlreadyOpen):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if opened != 1 || conflicts != workers-1 {
		t.Fatalf("expected 1 open and %d conflicts, got %d and %d", workers-1, opened, conflicts)
	}

	// Another branch is unaffected.
	f.openRegister(t, "branch-2", "0")
}

func TestCashRegister_OpenValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input usecase.OpenRegisterInput
		user  domain.User
		want  error
	}{
		{"unknown branch", usecase.OpenRegisterInput{BranchID: "nowhere", OpeningBalance: dec("1")}, cashier, domain.ErrBranchNotFound},
		{"negative opening", usecase.OpenRegisterInput{BranchID: testBranch, OpeningBalance: dec("-1")}, cashier, domain.ErrValidation},
		{"too many decimals", usecase.OpenRegisterInput{BranchID: testBranch, OpeningBalance: dec("1.001")}, cashier, domain.ErrValidation},
		{"missing actor", usecase.OpenRegisterInput{BranchID: testBranch, OpeningBalance: dec("1")}, domain.User{}, domain.ErrMissingActor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.registers.Open(ctx, tt.input, tt.user); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCashRegister_RecordRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.openRegister(t, testBranch, "10.00")

	if _, err := f.registers.RecordCashIn(ctx, usecase.RecordTransactionInput{RegisterID: r.ID, Amount: dec("0")}, cashier); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("zero amount: expected validation error, got %v", err)
	}
	if _, err := f.registers.RecordCashIn(ctx, usecase.RecordTransactionInput{RegisterID: r.ID, Type: domain.TransactionTypeExpense, Amount: dec("1")}, cashier); !errors.Is(err, domain.ErrInvalidTransactionType) {
		t.Fatalf("expense as cash in: expected ErrInvalidTransactionType, got %v", err)
	}
	if _, err := f.registers.RecordCashOut(ctx, usecase.RecordTransactionInput{RegisterID: r.ID, Type: domain.TransactionTypeSale, Amount: dec("1")}, cashier); !errors.Is(err, domain.ErrInvalidTransactionType) {
		t.Fatalf("sale as cash out: expected ErrInvalidTransactionType, got %v", err)
	}
	if _, err := f.registers.RecordCashIn(ctx, usecase.RecordTransactionInput{RegisterID: "missing", Amount: dec("1")}, cashier); !errors.Is(err, domain.ErrRegisterNotFound) {
		t.Fatalf("missing register: expected ErrRegisterNotFound, got %v", err)
	}

	if _, err := f.registers.Close(ctx, usecase.CloseRegisterInput{RegisterID: r.ID, ActualClosingBalance: dec("10.00")}, cashier); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := f.registers.RecordCashIn(ctx, usecase.RecordTransactionInput{RegisterID: r.ID, Amount: dec("1")}, cashier); !errors.Is(err, domain.ErrRegisterNotOpen) {
		t.Fatalf("closed register: expected ErrRegisterNotOpen, got %v", err)
	}

	entries, _ := f.cashBook.ListByBranch(ctx, testBranch, 0, 0)
	if len(entries) != 0 {
		t.Fatalf("rejected movements must not reach the cash book, got %d entries", len(entries))
	}
}

func TestSaleRecorder_NoOpenRegister(t *testing.T) {
	f := newFixture(t)

	_, err := f.sales.RecordSale(context.Background(), usecase.SaleInput{BranchID: testBranch, Amount: dec("5.00")}, cashier)
	if !errors.Is(err, domain.ErrNoOpenRegister) {
		t.Fatalf("expected ErrNoOpenRegister, got %v", err)
	}
}

func TestCashRegister_DeleteKeepsCashBook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.openRegister(t, testBranch, "0")
	if _, err := f.registers.RecordCashIn(ctx, usecase.RecordTransactionInput{RegisterID: r.ID, Amount: dec("20.00")}, cashier); err != nil {
		t.Fatalf("cash in: %v", err)
	}

	if err := f.registers.Delete(ctx, r.ID, admin); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := f.registers.Get(ctx, r.ID); !errors.Is(err, domain.ErrRegisterNotFound) {
		t.Fatalf("expected register gone, got %v", err)
	}
	f.assertCashBookValid(t, testBranch)

	// The branch may open a new register once the old one is gone.
	f.openRegister(t, testBranch, "0")
}

func TestCashRegister_DailySummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.openRegister(t, testBranch, "100.00")
	if _, err := f.sales.RecordSale(ctx, usecase.SaleInput{BranchID: testBranch, Amount: dec("40.00")}, cashier); err != nil {
		t.Fatalf("sale: %v", err)
	}
	if _, err := f.registers.Close(ctx, usecase.CloseRegisterInput{RegisterID: r.ID, ActualClosingBalance: dec("135.00")}, cashier); err != nil {
		t.Fatalf("close: %v", err)
	}
	f.openRegister(t, testBranch, "135.00")

	summary, err := f.registers.DailySummary(ctx, testBranch, r.RegisterDate)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if summary.RegisterCount != 2 || summary.OpenCount != 1 {
		t.Fatalf("expected 2 registers with 1 open, got %d and %d", summary.RegisterCount, summary.OpenCount)
	}
	assertDecimal(t, "total sales", "40.00", summary.TotalSales)
	assertDecimal(t, "total discrepancy", "-5.00", summary.TotalDiscrepancy)

	if _, err := f.registers.DailySummary(ctx, "nowhere", r.RegisterDate); !errors.Is(err, domain.ErrBranchNotFound) {
		t.Fatalf("expected ErrBranchNotFound, got %v", err)
	}
}
