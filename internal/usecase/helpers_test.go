package usecase_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/adapter/repository/memory"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/metrics"
	"github.com/iho/cashledger/internal/usecase"
)

const testBranch = "branch-1"

var (
	cashier = domain.User{ID: "user-1", Name: "Cashier", Role: domain.RoleCashier}
	admin   = domain.User{ID: "admin-1", Name: "Admin", Role: domain.RoleAdmin}
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) Generate() string {
	return fmt.Sprintf("id-%06d", s.n.Add(1))
}

type fixture struct {
	store     usecase.Store
	branches  *memory.BranchDirectory
	tracker   *usecase.BankBalanceTracker
	banks     *usecase.BankUseCase
	cashBook  *usecase.CashBookUseCase
	registers *usecase.CashRegisterUseCase
	sales     *usecase.SaleRecorder
	cheques   *usecase.ChequeUseCase
	recon     *usecase.ReconciliationUseCase
	metrics   *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore().Ports()
	branches := memory.NewBranchDirectory(
		domain.Branch{ID: testBranch, Name: "Main"},
		domain.Branch{ID: "branch-2", Name: "Harbour"},
	)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	opts := usecase.Options{
		IDGen:   &seqIDs{},
		Logger:  zerolog.Nop(),
		Metrics: m,
	}

	tracker := usecase.NewBankBalanceTracker(store, opts)
	cashBook := usecase.NewCashBookUseCase(store, branches, opts)
	registers := usecase.NewCashRegisterUseCase(store, branches, cashBook, tracker, opts)
	banks := usecase.NewBankUseCase(store, opts)

	return &fixture{
		store:     store,
		branches:  branches,
		tracker:   tracker,
		banks:     banks,
		cashBook:  cashBook,
		registers: registers,
		sales:     usecase.NewSaleRecorder(registers),
		cheques:   usecase.NewChequeUseCase(store, tracker, opts),
		recon:     usecase.NewReconciliationUseCase(store, banks, cashBook),
		metrics:   m,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) createBank(t *testing.T, number, opening string) *domain.Bank {
	t.Helper()

	bank, err := f.banks.CreateBank(context.Background(), usecase.CreateBankInput{
		Name:           "Bank " + number,
		AccountNumber:  number,
		OpeningBalance: dec(opening),
	}, admin)
	if err != nil {
		t.Fatalf("create bank: %v", err)
	}
	return bank
}

func (f *fixture) openRegister(t *testing.T, branchID, opening string) *domain.CashRegister {
	t.Helper()

	r, err := f.registers.Open(context.Background(), usecase.OpenRegisterInput{
		BranchID:       branchID,
		OpeningBalance: dec(opening),
	}, cashier)
	if err != nil {
		t.Fatalf("open register: %v", err)
	}
	return r
}

func (f *fixture) bankBalance(t *testing.T, id string) decimal.Decimal {
	t.Helper()

	bank, err := f.banks.GetBank(context.Background(), id)
	if err != nil {
		t.Fatalf("get bank: %v", err)
	}
	return bank.CurrentBalance
}

func (f *fixture) assertCashBookValid(t *testing.T, branchID string) *domain.CashBookVerification {
	t.Helper()

	v, err := f.cashBook.VerifyBranch(context.Background(), branchID)
	if err != nil {
		t.Fatalf("verify cash book: %v", err)
	}
	if !v.Valid {
		t.Fatalf("cash book of %s is inconsistent at entry %s", branchID, v.FirstMismatchID)
	}
	return v
}

func assertDecimal(t *testing.T, name string, want string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s: expected %s, got %s", name, want, got.StringFixed(2))
	}
}
