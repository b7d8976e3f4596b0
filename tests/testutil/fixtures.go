package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	postgresRepo "github.com/iho/cashledger/internal/adapter/repository/postgres"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/postgres"
	"github.com/iho/cashledger/internal/usecase"
)

var (
	// Admin may manage banks and delete records.
	Admin = domain.User{ID: "admin-1", Name: "Admin", Role: domain.RoleAdmin}
	// Cashier operates registers and cheques.
	Cashier = domain.User{ID: "cashier-1", Name: "Cashier", Role: domain.RoleCashier}
)

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// NewTestDB connects to DATABASE_URL and applies migrations. The test is
// skipped in -short mode or when DATABASE_URL is unset.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	if err := postgres.RunMigrations(dbURL, "", zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dbURL, 20, 2)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	db := &TestDB{Pool: pool, t: t}
	t.Cleanup(pool.Close)
	return db
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE
			bank_ledger_entries,
			incoming_cheques,
			cash_register_transactions,
			cash_registers,
			cash_book_entries,
			banks,
			branches,
			outbox_events,
			audit_logs
		CASCADE
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// SeedBranch inserts a branch and returns it.
func (db *TestDB) SeedBranch(ctx context.Context, id string) domain.Branch {
	db.t.Helper()

	b := domain.Branch{ID: id, Name: "Branch " + id}
	if err := postgresRepo.NewBranchDirectory(db.Pool).UpsertBranch(ctx, b); err != nil {
		db.t.Fatalf("failed to seed branch: %v", err)
	}
	return b
}

// UseCases bundles every use case over one store.
type UseCases struct {
	Store          usecase.Store
	Banks          *usecase.BankUseCase
	CashBook       *usecase.CashBookUseCase
	Registers      *usecase.CashRegisterUseCase
	Sales          *usecase.SaleRecorder
	Cheques        *usecase.ChequeUseCase
	Reconciliation *usecase.ReconciliationUseCase
}

// NewUseCases wires the use cases over the postgres store with retries on
// serialization failures.
func (db *TestDB) NewUseCases(eventsEnabled bool) *UseCases {
	store := postgresRepo.Ports(db.Pool, eventsEnabled)
	opts := usecase.Options{
		IDGen:   postgresRepo.NewULIDGenerator(),
		Retrier: postgresRepo.NewRetrier(postgresRepo.DefaultRetrierConfig(), zerolog.Nop(), nil),
		Logger:  zerolog.Nop(),
	}
	return Wire(store, postgresRepo.NewBranchDirectory(db.Pool), opts)
}

// Wire builds the use cases over any store.
func Wire(store usecase.Store, branches usecase.BranchDirectory, opts usecase.Options) *UseCases {
	tracker := usecase.NewBankBalanceTracker(store, opts)
	banks := usecase.NewBankUseCase(store, opts)
	cashBook := usecase.NewCashBookUseCase(store, branches, opts)
	registers := usecase.NewCashRegisterUseCase(store, branches, cashBook, tracker, opts)
	return &UseCases{
		Store:          store,
		Banks:          banks,
		CashBook:       cashBook,
		Registers:      registers,
		Sales:          usecase.NewSaleRecorder(registers),
		Cheques:        usecase.NewChequeUseCase(store, tracker, opts),
		Reconciliation: usecase.NewReconciliationUseCase(store, banks, cashBook),
	}
}

// CreateBank creates an active bank with the given opening balance.
func (u *UseCases) CreateBank(t *testing.T, ctx context.Context, opening string) *domain.Bank {
	t.Helper()

	bank, err := u.Banks.CreateBank(ctx, usecase.CreateBankInput{
		Name:           "Bank " + GenerateID()[20:],
		AccountNumber:  GenerateID(),
		OpeningBalance: Amount(opening),
	}, Admin)
	if err != nil {
		t.Fatalf("failed to create bank: %v", err)
	}
	return bank
}

// Amount parses a decimal literal, panicking on malformed input.
func Amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// GenerateID generates a new ULID.
func GenerateID() string {
	return ulid.Make().String()
}
