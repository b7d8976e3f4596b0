package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// BankRepository defines data access for banks. Balances are written only
// through UpdateBalance.
type BankRepository interface {
	Create(ctx context.Context, tx Transaction, bank *domain.Bank) error
	GetByID(ctx context.Context, id string) (*domain.Bank, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Bank, error)
	ExistsByAccountNumber(ctx context.Context, tx Transaction, accountNumber, excludeID string) (bool, error)
	// Update persists descriptive fields and the active flag, never balances.
	Update(ctx context.Context, tx Transaction, bank *domain.Bank) error
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Bank, error)
	ListActive(ctx context.Context) ([]*domain.Bank, error)
}

// BankLedgerRepository defines data access for bank ledger entries.
type BankLedgerRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.BankLedgerEntry) error
	GetByID(ctx context.Context, tx Transaction, id string) (*domain.BankLedgerEntry, error)
	ExistsReversalOf(ctx context.Context, tx Transaction, entryID string) (bool, error)
	ListByBank(ctx context.Context, bankID string, limit, offset int) ([]*domain.BankLedgerEntry, error)
	// ListAllByBank returns every entry of a bank in creation order. A nil
	// tx reads outside any transaction.
	ListAllByBank(ctx context.Context, tx Transaction, bankID string) ([]*domain.BankLedgerEntry, error)
	ListByCheque(ctx context.Context, chequeID string) ([]*domain.BankLedgerEntry, error)
}

// CashBookRepository defines data access for the per-branch cash book.
type CashBookRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.CashBookEntry) error
	// GetLastByBranch returns the branch's tail entry, or nil when the branch
	// has none.
	GetLastByBranch(ctx context.Context, tx Transaction, branchID string) (*domain.CashBookEntry, error)
	// GetLastBefore returns the last entry dated before the given date, or nil.
	GetLastBefore(ctx context.Context, branchID string, before time.Time) (*domain.CashBookEntry, error)
	SumByBranchAndDateRange(ctx context.Context, branchID string, start, end time.Time) (debit, credit decimal.Decimal, err error)
	ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*domain.CashBookEntry, error)
	ListByBranchAndDateRange(ctx context.Context, branchID string, start, end time.Time, limit, offset int) ([]*domain.CashBookEntry, error)
	ListAllByBranch(ctx context.Context, branchID string) ([]*domain.CashBookEntry, error)
}

// CashRegisterRepository defines data access for cash registers.
type CashRegisterRepository interface {
	// Create returns domain.ErrRegisterAlreadyOpen when the branch already has
	// an open register.
	Create(ctx context.Context, tx Transaction, register *domain.CashRegister) error
	GetByID(ctx context.Context, id string) (*domain.CashRegister, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.CashRegister, error)
	// FindOpenByBranch returns domain.ErrNoOpenRegister when none is open. A
	// nil tx reads outside any transaction.
	FindOpenByBranch(ctx context.Context, tx Transaction, branchID string) (*domain.CashRegister, error)
	Update(ctx context.Context, tx Transaction, register *domain.CashRegister) error
	Delete(ctx context.Context, tx Transaction, id string) error
	ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*domain.CashRegister, error)
	ListByBranchAndDateRange(ctx context.Context, branchID string, start, end time.Time) ([]*domain.CashRegister, error)
}

// CashRegisterTransactionRepository defines data access for register movements.
type CashRegisterTransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.CashRegisterTransaction) error
	ListByRegister(ctx context.Context, registerID string) ([]*domain.CashRegisterTransaction, error)
	DeleteByRegister(ctx context.Context, tx Transaction, registerID string) error
}

// ChequeRepository defines data access for incoming cheques. Soft-deleted
// cheques are invisible to every read.
type ChequeRepository interface {
	// Create returns domain.ErrDuplicateChequeNumber when a live cheque
	// already uses the number.
	Create(ctx context.Context, tx Transaction, cheque *domain.IncomingCheque) error
	GetByID(ctx context.Context, id string) (*domain.IncomingCheque, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.IncomingCheque, error)
	ExistsByNumber(ctx context.Context, tx Transaction, number, excludeID string) (bool, error)
	Update(ctx context.Context, tx Transaction, cheque *domain.IncomingCheque) error
	SoftDelete(ctx context.Context, tx Transaction, id string, deletedAt time.Time) error
	List(ctx context.Context, filter domain.ChequeFilter) ([]*domain.IncomingCheque, error)
	Summarize(ctx context.Context, filter domain.ChequeFilter) (domain.ChequeStatistics, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Locker serializes work per branch for the lifetime of a transaction.
type Locker interface {
	LockBranch(ctx context.Context, tx Transaction, branchID string) error
}

// BranchDirectory resolves branches owned by another subsystem.
type BranchDirectory interface {
	// GetBranch returns domain.ErrBranchNotFound for unknown ids.
	GetBranch(ctx context.Context, id string) (*domain.Branch, error)
}

// Retrier re-runs an operation after transient serialization failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// ErrCacheMiss is returned by Cache.Get for absent keys.
var ErrCacheMiss = errors.New("cache miss")

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
