package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

const bankColumns = `id, name, account_number, branch_name, account_holder_name, account_type,
	opening_balance, current_balance, active, created_at, updated_at`

// BankRepository implements usecase.BankRepository.
type BankRepository struct {
	db DB
}

// NewBankRepository creates a new BankRepository.
func NewBankRepository(db DB) *BankRepository {
	return &BankRepository{db: db}
}

// Create inserts a bank.
func (r *BankRepository) Create(ctx context.Context, tx usecase.Transaction, bank *domain.Bank) error {
	q, err := on(r.db, tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO banks (`+bankColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		bank.ID,
		bank.Name,
		bank.AccountNumber,
		bank.BranchName,
		bank.AccountHolderName,
		bank.AccountType,
		decimalToNumeric(bank.OpeningBalance),
		decimalToNumeric(bank.CurrentBalance),
		bank.Active,
		bank.CreatedAt,
		bank.UpdatedAt,
	)
	return mapError(err)
}

// GetByID retrieves a bank by ID.
func (r *BankRepository) GetByID(ctx context.Context, id string) (*domain.Bank, error) {
	return scanBank(r.db.QueryRow(ctx, `SELECT `+bankColumns+` FROM banks WHERE id = $1`, id))
}

// GetByIDForUpdate retrieves a bank with a row lock held until tx ends.
func (r *BankRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Bank, error) {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	return scanBank(pgxTx.QueryRow(ctx, `SELECT `+bankColumns+` FROM banks WHERE id = $1 FOR UPDATE`, id))
}

// ExistsByAccountNumber reports whether another bank uses accountNumber.
func (r *BankRepository) ExistsByAccountNumber(ctx context.Context, tx usecase.Transaction, accountNumber, excludeID string) (bool, error) {
	q, err := on(r.db, tx)
	if err != nil {
		return false, err
	}

	var exists bool
	err = q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM banks WHERE account_number = $1 AND id <> $2)`,
		accountNumber, excludeID,
	).Scan(&exists)
	return exists, err
}

// Update writes descriptive fields and the active flag.
func (r *BankRepository) Update(ctx context.Context, tx usecase.Transaction, bank *domain.Bank) error {
	q, err := on(r.db, tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, `
		UPDATE banks
		SET name = $2, account_number = $3, branch_name = $4, account_holder_name = $5,
		    account_type = $6, active = $7, updated_at = $8
		WHERE id = $1`,
		bank.ID,
		bank.Name,
		bank.AccountNumber,
		bank.BranchName,
		bank.AccountHolderName,
		bank.AccountType,
		bank.Active,
		bank.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBankNotFound
	}
	return nil
}

// UpdateBalance sets the cached current balance.
func (r *BankRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx,
		`UPDATE banks SET current_balance = $2, updated_at = $3 WHERE id = $1`,
		id, decimalToNumeric(balance), updatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBankNotFound
	}
	return nil
}

// List lists banks by name.
func (r *BankRepository) List(ctx context.Context, limit, offset int) ([]*domain.Bank, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+bankColumns+` FROM banks ORDER BY name, id LIMIT $1 OFFSET $2`,
		limitArg(limit), offset,
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBank)
}

// ListActive lists active banks by name.
func (r *BankRepository) ListActive(ctx context.Context) ([]*domain.Bank, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bankColumns+` FROM banks WHERE active ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBank)
}

func scanBank(row pgx.Row) (*domain.Bank, error) {
	var (
		b                domain.Bank
		opening, current pgtype.Numeric
	)
	err := row.Scan(
		&b.ID,
		&b.Name,
		&b.AccountNumber,
		&b.BranchName,
		&b.AccountHolderName,
		&b.AccountType,
		&opening,
		&current,
		&b.Active,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBankNotFound
	}
	if err != nil {
		return nil, err
	}

	b.OpeningBalance = numericToDecimal(opening)
	b.CurrentBalance = numericToDecimal(current)
	return &b, nil
}
