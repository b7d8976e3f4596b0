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

const cashBookColumns = `id, branch_id, sequence, transaction_date, debit, credit, running_balance,
	description, category, reference_type, reference_id, user_id, created_at`

// CashBookRepository implements usecase.CashBookRepository.
type CashBookRepository struct {
	db DB
}

// NewCashBookRepository creates a new CashBookRepository.
func NewCashBookRepository(db DB) *CashBookRepository {
	return &CashBookRepository{db: db}
}

// Create appends an entry. Reusing a (branch, sequence) pair reports
// domain.ErrConcurrencyConflict.
func (r *CashBookRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.CashBookEntry) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO cash_book_entries (`+cashBookColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		entry.ID,
		entry.BranchID,
		entry.Sequence,
		dateToPg(entry.TransactionDate),
		decimalToNumeric(entry.Debit),
		decimalToNumeric(entry.Credit),
		decimalToNumeric(entry.RunningBalance),
		entry.Description,
		entry.Category,
		entry.ReferenceType,
		entry.ReferenceID,
		entry.UserID,
		entry.CreatedAt,
	)
	return mapError(err)
}

// GetLastByBranch returns the branch tail, or nil when the branch is empty.
func (r *CashBookRepository) GetLastByBranch(ctx context.Context, tx usecase.Transaction, branchID string) (*domain.CashBookEntry, error) {
	q, err := on(r.db, tx)
	if err != nil {
		return nil, err
	}

	return optional(scanCashBookEntry(q.QueryRow(ctx,
		`SELECT `+cashBookColumns+` FROM cash_book_entries WHERE branch_id = $1 ORDER BY sequence DESC LIMIT 1`,
		branchID,
	)))
}

// GetLastBefore returns the last entry dated before the given date, or nil.
func (r *CashBookRepository) GetLastBefore(ctx context.Context, branchID string, before time.Time) (*domain.CashBookEntry, error) {
	return optional(scanCashBookEntry(r.db.QueryRow(ctx, `
		SELECT `+cashBookColumns+` FROM cash_book_entries
		WHERE branch_id = $1 AND transaction_date < $2
		ORDER BY sequence DESC LIMIT 1`,
		branchID, dateToPg(before),
	)))
}

// SumByBranchAndDateRange totals both sides for entries dated within [start, end].
func (r *CashBookRepository) SumByBranchAndDateRange(ctx context.Context, branchID string, start, end time.Time) (decimal.Decimal, decimal.Decimal, error) {
	var debit, credit pgtype.Numeric
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(debit), 0), COALESCE(SUM(credit), 0)
		FROM cash_book_entries
		WHERE branch_id = $1 AND transaction_date BETWEEN $2 AND $3`,
		branchID, dateToPg(start), dateToPg(end),
	).Scan(&debit, &credit)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return numericToDecimal(debit), numericToDecimal(credit), nil
}

// ListByBranch lists a branch's entries in sequence order.
func (r *CashBookRepository) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*domain.CashBookEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+cashBookColumns+` FROM cash_book_entries WHERE branch_id = $1 ORDER BY sequence LIMIT $2 OFFSET $3`,
		branchID, limitArg(limit), offset,
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCashBookEntry)
}

// ListByBranchAndDateRange lists a branch's entries dated within [start, end].
func (r *CashBookRepository) ListByBranchAndDateRange(
	ctx context.Context,
	branchID string,
	start, end time.Time,
	limit, offset int,
) ([]*domain.CashBookEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+cashBookColumns+` FROM cash_book_entries
		WHERE branch_id = $1 AND transaction_date BETWEEN $2 AND $3
		ORDER BY sequence LIMIT $4 OFFSET $5`,
		branchID, dateToPg(start), dateToPg(end), limitArg(limit), offset,
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCashBookEntry)
}

// ListAllByBranch lists every entry of a branch in sequence order.
func (r *CashBookRepository) ListAllByBranch(ctx context.Context, branchID string) ([]*domain.CashBookEntry, error) {
	return r.ListByBranch(ctx, branchID, 0, 0)
}

func scanCashBookEntry(row pgx.Row) (*domain.CashBookEntry, error) {
	var (
		e                      domain.CashBookEntry
		date                   pgtype.Date
		debit, credit, running pgtype.Numeric
	)
	if err := row.Scan(
		&e.ID,
		&e.BranchID,
		&e.Sequence,
		&date,
		&debit,
		&credit,
		&running,
		&e.Description,
		&e.Category,
		&e.ReferenceType,
		&e.ReferenceID,
		&e.UserID,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}

	e.TransactionDate = domain.DateOf(date.Time)
	e.Debit = numericToDecimal(debit)
	e.Credit = numericToDecimal(credit)
	e.RunningBalance = numericToDecimal(running)
	return &e, nil
}

// optional turns pgx.ErrNoRows into a nil result.
func optional[T any](v *T, err error) (*T, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return v, err
}
