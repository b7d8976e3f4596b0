// Package memory is an in-process implementation of the persistence ports.
// Transactions keep an undo log and hold per-key locks until they finish, so
// it gives the same atomicity and serialization as the Postgres adapter
// within one process.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("memory: transaction already committed or rolled back")

// Store holds all tables.
type Store struct {
	mu sync.Mutex

	banks        map[string]*domain.Bank
	bankLedger   []*domain.BankLedgerEntry
	cashBook     []*domain.CashBookEntry
	registers    map[string]*domain.CashRegister
	registerTxns []*domain.CashRegisterTransaction
	cheques      map[string]*domain.IncomingCheque
	outbox       []*domain.OutboxEvent
	audit        []*domain.AuditLog

	locks *keyedLocks
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		banks:     make(map[string]*domain.Bank),
		registers: make(map[string]*domain.CashRegister),
		cheques:   make(map[string]*domain.IncomingCheque),
		locks:     newKeyedLocks(),
	}
}

// Ports wires every repository of s into a usecase.Store.
func (s *Store) Ports() usecase.Store {
	return usecase.Store{
		TxManager:    NewTxManager(s),
		Banks:        NewBankRepository(s),
		BankLedger:   NewBankLedgerRepository(s),
		CashBook:     NewCashBookRepository(s),
		Registers:    NewCashRegisterRepository(s),
		RegisterTxns: NewCashRegisterTransactionRepository(s),
		Cheques:      NewChequeRepository(s),
		Outbox:       NewOutboxRepository(s),
		Audit:        NewAuditRepository(s),
		Locker:       NewLocker(),
	}
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{store: m.store, held: make(map[string]bool)}, nil
}

// Tx is an in-memory transaction. Writes are applied immediately and undone
// on rollback.
type Tx struct {
	store *Store
	undo  []func()
	held  map[string]bool
	order []string
	done  bool
}

// Commit keeps the writes and releases held locks.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.undo = nil
	t.release()
	return nil
}

// Rollback undoes the writes in reverse order. Rolling back a finished
// transaction is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true

	t.store.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.store.mu.Unlock()

	t.undo = nil
	t.release()
	return nil
}

// onRollback registers an undo step. Callers hold store.mu.
func (t *Tx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

// lock acquires key for the rest of the transaction. Re-acquiring a held key
// is a no-op.
func (t *Tx) lock(ctx context.Context, key string) error {
	if t.done {
		return ErrTxDone
	}
	if t.held[key] {
		return nil
	}
	if err := t.store.locks.acquire(ctx, key); err != nil {
		return err
	}
	t.held[key] = true
	t.order = append(t.order, key)
	return nil
}

func (t *Tx) release() {
	for i := len(t.order) - 1; i >= 0; i-- {
		t.store.locks.release(t.order[i])
	}
	t.order = nil
	t.held = map[string]bool{}
}

func txFrom(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t == nil {
		return nil, errors.New("memory: write requires a memory transaction")
	}
	if t.done {
		return nil, ErrTxDone
	}
	return t, nil
}

// keyedLocks is a set of mutexes addressed by string keys. A buffered
// channel per key lets waiters give up when their context ends.
type keyedLocks struct {
	mu sync.Mutex
	m  map[string]chan struct{}
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{m: make(map[string]chan struct{})}
}

func (l *keyedLocks) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.m[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.m[key] = ch
	}
	return ch
}

func (l *keyedLocks) acquire(ctx context.Context, key string) error {
	select {
	case l.slot(key) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *keyedLocks) release(key string) {
	<-l.slot(key)
}

// Locker implements usecase.Locker on top of transaction-held key locks.
type Locker struct{}

// NewLocker creates a new Locker.
func NewLocker() *Locker {
	return &Locker{}
}

// LockBranch serializes the branch until tx ends.
func (Locker) LockBranch(ctx context.Context, tx usecase.Transaction, branchID string) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}
	return t.lock(ctx, "branch:"+branchID)
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// removeWhere drops matching items in place, keeping the order of the rest.
func removeWhere[T any](items []T, match func(T) bool) []T {
	out := items[:0]
	for _, it := range items {
		if !match(it) {
			out = append(out, it)
		}
	}
	return out
}
