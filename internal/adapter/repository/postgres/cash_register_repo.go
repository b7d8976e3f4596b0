package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

const registerColumns = `id, branch_id, register_date, status, opening_balance, closing_balance,
	expected_closing_balance, cash_in_total, cash_out_total, sales_total, discrepancy,
	opened_by, opened_at, closed_by, closed_at, deposited_bank_id, deposited_amount,
	deposited_at, deposited_by, notes, created_at, updated_at`

// CashRegisterRepository implements usecase.CashRegisterRepository.
type CashRegisterRepository struct {
	db DB
}

// NewCashRegisterRepository creates a new CashRegisterRepository.
func NewCashRegisterRepository(db DB) *CashRegisterRepository {
	return &CashRegisterRepository{db: db}
}

// Create inserts a register. The cash_registers_one_open_per_branch index
// rejects a second open register for the branch.
func (r *CashRegisterRepository) Create(ctx context.Context, tx usecase.Transaction, reg *domain.CashRegister) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO cash_registers (`+registerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
		        $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		registerArgs(reg)...,
	)
	return mapError(err)
}

// GetByID retrieves a register by ID.
func (r *CashRegisterRepository) GetByID(ctx context.Context, id string) (*domain.CashRegister, error) {
	return registerOrNotFound(scanRegister(r.db.QueryRow(ctx,
		`SELECT `+registerColumns+` FROM cash_registers WHERE id = $1`, id)))
}

// GetByIDForUpdate retrieves a register with a row lock held until tx ends.
func (r *CashRegisterRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.CashRegister, error) {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	return registerOrNotFound(scanRegister(pgxTx.QueryRow(ctx,
		`SELECT `+registerColumns+` FROM cash_registers WHERE id = $1 FOR UPDATE`, id)))
}

// FindOpenByBranch returns the branch's open register. Inside a transaction
// the row stays locked until tx ends.
func (r *CashRegisterRepository) FindOpenByBranch(ctx context.Context, tx usecase.Transaction, branchID string) (*domain.CashRegister, error) {
	query := `SELECT ` + registerColumns + ` FROM cash_registers WHERE branch_id = $1 AND status = 'OPEN'`
	if tx != nil {
		query += ` FOR UPDATE`
	}

	q, err := on(r.db, tx)
	if err != nil {
		return nil, err
	}

	reg, err := scanRegister(q.QueryRow(ctx, query, branchID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNoOpenRegister
	}
	return reg, err
}

// Update writes every mutable column of a register.
func (r *CashRegisterRepository) Update(ctx context.Context, tx usecase.Transaction, reg *domain.CashRegister) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx, `
		UPDATE cash_registers
		SET status = $2, closing_balance = $3, expected_closing_balance = $4,
		    cash_in_total = $5, cash_out_total = $6, sales_total = $7, discrepancy = $8,
		    closed_by = $9, closed_at = $10, deposited_bank_id = $11, deposited_amount = $12,
		    deposited_at = $13, deposited_by = $14, notes = $15, updated_at = $16
		WHERE id = $1`,
		reg.ID,
		string(reg.Status),
		decimalPtrToNumeric(reg.ClosingBalance),
		decimalToNumeric(reg.ExpectedClosingBalance),
		decimalToNumeric(reg.CashInTotal),
		decimalToNumeric(reg.CashOutTotal),
		decimalToNumeric(reg.SalesTotal),
		decimalPtrToNumeric(reg.Discrepancy),
		reg.ClosedBy,
		reg.ClosedAt,
		reg.DepositedBankID,
		decimalPtrToNumeric(reg.DepositedAmount),
		reg.DepositedAt,
		reg.DepositedBy,
		reg.Notes,
		reg.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRegisterNotFound
	}
	return nil
}

// Delete removes a register. Its movements go with it through ON DELETE CASCADE.
func (r *CashRegisterRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx, `DELETE FROM cash_registers WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRegisterNotFound
	}
	return nil
}

// ListByBranch lists a branch's registers, newest first.
func (r *CashRegisterRepository) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*domain.CashRegister, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+registerColumns+` FROM cash_registers
		WHERE branch_id = $1
		ORDER BY opened_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		branchID, limitArg(limit), offset,
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanRegister)
}

// ListByBranchAndDateRange lists a branch's registers dated within [start, end].
func (r *CashRegisterRepository) ListByBranchAndDateRange(ctx context.Context, branchID string, start, end time.Time) ([]*domain.CashRegister, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+registerColumns+` FROM cash_registers
		WHERE branch_id = $1 AND register_date BETWEEN $2 AND $3
		ORDER BY opened_at DESC, id DESC`,
		branchID, dateToPg(start), dateToPg(end),
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanRegister)
}

func registerArgs(reg *domain.CashRegister) []any {
	return []any{
		reg.ID,
		reg.BranchID,
		dateToPg(reg.RegisterDate),
		string(reg.Status),
		decimalToNumeric(reg.OpeningBalance),
		decimalPtrToNumeric(reg.ClosingBalance),
		decimalToNumeric(reg.ExpectedClosingBalance),
		decimalToNumeric(reg.CashInTotal),
		decimalToNumeric(reg.CashOutTotal),
		decimalToNumeric(reg.SalesTotal),
		decimalPtrToNumeric(reg.Discrepancy),
		reg.OpenedBy,
		reg.OpenedAt,
		reg.ClosedBy,
		reg.ClosedAt,
		reg.DepositedBankID,
		decimalPtrToNumeric(reg.DepositedAmount),
		reg.DepositedAt,
		reg.DepositedBy,
		reg.Notes,
		reg.CreatedAt,
		reg.UpdatedAt,
	}
}

func scanRegister(row pgx.Row) (*domain.CashRegister, error) {
	var (
		reg                                    domain.CashRegister
		status                                 string
		registerDate                           pgtype.Date
		opening, closing, expected             pgtype.Numeric
		cashIn, cashOut, sales, discrepancy    pgtype.Numeric
		depositedAmount                        pgtype.Numeric
		closedBy, depositedBankID, depositedBy pgtype.Text
		closedAt, depositedAt                  pgtype.Timestamptz
	)
	if err := row.Scan(
		&reg.ID,
		&reg.BranchID,
		&registerDate,
		&status,
		&opening,
		&closing,
		&expected,
		&cashIn,
		&cashOut,
		&sales,
		&discrepancy,
		&reg.OpenedBy,
		&reg.OpenedAt,
		&closedBy,
		&closedAt,
		&depositedBankID,
		&depositedAmount,
		&depositedAt,
		&depositedBy,
		&reg.Notes,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	); err != nil {
		return nil, err
	}

	reg.RegisterDate = domain.DateOf(registerDate.Time)
	reg.Status = domain.RegisterStatus(status)
	reg.OpeningBalance = numericToDecimal(opening)
	reg.ClosingBalance = numericToDecimalPtr(closing)
	reg.ExpectedClosingBalance = numericToDecimal(expected)
	reg.CashInTotal = numericToDecimal(cashIn)
	reg.CashOutTotal = numericToDecimal(cashOut)
	reg.SalesTotal = numericToDecimal(sales)
	reg.Discrepancy = numericToDecimalPtr(discrepancy)
	reg.ClosedBy = textPtr(closedBy)
	reg.ClosedAt = timestamptzPtr(closedAt)
	reg.DepositedBankID = textPtr(depositedBankID)
	reg.DepositedAmount = numericToDecimalPtr(depositedAmount)
	reg.DepositedAt = timestamptzPtr(depositedAt)
	reg.DepositedBy = textPtr(depositedBy)
	return &reg, nil
}

func registerOrNotFound(reg *domain.CashRegister, err error) (*domain.CashRegister, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRegisterNotFound
	}
	return reg, err
}
