package postgres

import (
	"context"

	"github.com/iho/cashledger/internal/usecase"
)

// Locker serializes branch work with transaction-scoped advisory locks. The
// lock is released by Postgres at commit or rollback.
type Locker struct{}

// NewLocker creates a new Locker.
func NewLocker() *Locker {
	return &Locker{}
}

// LockBranch blocks until tx holds the branch lock.
func (Locker) LockBranch(ctx context.Context, tx usecase.Transaction, branchID string) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('branch:' || $1))`, branchID)
	return err
}
