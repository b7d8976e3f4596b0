package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/cashledger/internal/domain"
)

// BranchDirectory implements usecase.BranchDirectory over the branches table.
type BranchDirectory struct {
	db DB
}

// NewBranchDirectory creates a new BranchDirectory.
func NewBranchDirectory(db DB) *BranchDirectory {
	return &BranchDirectory{db: db}
}

// GetBranch returns domain.ErrBranchNotFound for unknown ids.
func (d *BranchDirectory) GetBranch(ctx context.Context, id string) (*domain.Branch, error) {
	var b domain.Branch
	err := d.db.QueryRow(ctx, `SELECT id, name FROM branches WHERE id = $1`, id).Scan(&b.ID, &b.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBranchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// UpsertBranch registers a branch or renames an existing one.
func (d *BranchDirectory) UpsertBranch(ctx context.Context, b domain.Branch) error {
	_, err := d.db.Exec(ctx, `
		INSERT INTO branches (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		b.ID, b.Name,
	)
	return err
}
