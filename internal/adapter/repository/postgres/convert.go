package postgres

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func decimalPtrToNumeric(d *decimal.Decimal) pgtype.Numeric {
	if d == nil {
		return pgtype.Numeric{}
	}
	return decimalToNumeric(*d)
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func numericToDecimalPtr(n pgtype.Numeric) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := numericToDecimal(n)
	return &d
}

func dateToPg(t time.Time) pgtype.Date {
	return pgtype.Date{Time: domain.DateOf(t), Valid: true}
}

func datePtrToPg(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return dateToPg(*t)
}

func pgToDatePtr(d pgtype.Date) *time.Time {
	if !d.Valid {
		return nil
	}
	t := domain.DateOf(d.Time)
	return &t
}

// PostgreSQL error codes mapped to domain errors.
const (
	pgErrUniqueViolation = "23505"
	pgErrForeignKey      = "23503"
)

// uniqueViolations maps constraint names from the schema to domain errors.
var uniqueViolations = map[string]error{
	"banks_account_number_key":              domain.ErrDuplicateAccountNumber,
	"bank_ledger_entries_reversal_of_key":   domain.ErrLedgerEntryAlreadyReversed,
	"cash_registers_one_open_per_branch":    domain.ErrRegisterAlreadyOpen,
	"cash_book_entries_branch_sequence_key": domain.ErrConcurrencyConflict,
	"incoming_cheques_live_number":          domain.ErrDuplicateChequeNumber,
}

// mapError translates constraint violations into domain errors.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgErrUniqueViolation:
		if mapped, ok := uniqueViolations[pgErr.ConstraintName]; ok {
			return mapped
		}
		return domain.ErrDuplicateResource
	case pgErrForeignKey:
		return errors.Join(domain.ErrValidation, err)
	}

	return err
}

// limitArg turns a non-positive limit into LIMIT NULL, which returns all rows.
func limitArg(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}

// collect scans every row with scan and closes rows.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	defer rows.Close()

	out := []*T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func timestamptzPtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
