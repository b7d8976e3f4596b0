package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

const bankLedgerColumns = `id, bank_id, entry_date, debit, credit, balance_after, description,
	cheque_id, register_id, reversal_of, created_by, created_at`

// BankLedgerRepository implements usecase.BankLedgerRepository. Entries are
// ordered by the seq column, which follows insertion order.
type BankLedgerRepository struct {
	db DB
}

// NewBankLedgerRepository creates a new BankLedgerRepository.
func NewBankLedgerRepository(db DB) *BankLedgerRepository {
	return &BankLedgerRepository{db: db}
}

// Create inserts an entry. A second reversal of the same entry violates
// bank_ledger_entries_reversal_of_key.
func (r *BankLedgerRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.BankLedgerEntry) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO bank_ledger_entries (`+bankLedgerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID,
		entry.BankID,
		dateToPg(entry.Date),
		decimalToNumeric(entry.Debit),
		decimalToNumeric(entry.Credit),
		decimalToNumeric(entry.BalanceAfter),
		entry.Description,
		entry.ChequeID,
		entry.RegisterID,
		entry.ReversalOf,
		entry.CreatedBy,
		entry.CreatedAt,
	)
	return mapError(err)
}

// GetByID retrieves an entry, inside tx when one is given.
func (r *BankLedgerRepository) GetByID(ctx context.Context, tx usecase.Transaction, id string) (*domain.BankLedgerEntry, error) {
	q, err := on(r.db, tx)
	if err != nil {
		return nil, err
	}

	entry, err := scanBankLedgerEntry(q.QueryRow(ctx, `SELECT `+bankLedgerColumns+` FROM bank_ledger_entries WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrLedgerEntryNotFound
	}
	return entry, err
}

// ExistsReversalOf reports whether entryID has already been reversed.
func (r *BankLedgerRepository) ExistsReversalOf(ctx context.Context, tx usecase.Transaction, entryID string) (bool, error) {
	q, err := on(r.db, tx)
	if err != nil {
		return false, err
	}

	var exists bool
	err = q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bank_ledger_entries WHERE reversal_of = $1)`,
		entryID,
	).Scan(&exists)
	return exists, err
}

// ListByBank lists a bank's entries in creation order.
func (r *BankLedgerRepository) ListByBank(ctx context.Context, bankID string, limit, offset int) ([]*domain.BankLedgerEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+bankLedgerColumns+` FROM bank_ledger_entries WHERE bank_id = $1 ORDER BY seq LIMIT $2 OFFSET $3`,
		bankID, limitArg(limit), offset,
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBankLedgerEntry)
}

// ListAllByBank lists every entry of a bank in creation order.
func (r *BankLedgerRepository) ListAllByBank(ctx context.Context, tx usecase.Transaction, bankID string) ([]*domain.BankLedgerEntry, error) {
	q, err := on(r.db, tx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx,
		`SELECT `+bankLedgerColumns+` FROM bank_ledger_entries WHERE bank_id = $1 ORDER BY seq`,
		bankID,
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBankLedgerEntry)
}

// ListByCheque lists the entries that reference a cheque.
func (r *BankLedgerRepository) ListByCheque(ctx context.Context, chequeID string) ([]*domain.BankLedgerEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+bankLedgerColumns+` FROM bank_ledger_entries WHERE cheque_id = $1 ORDER BY seq`,
		chequeID,
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBankLedgerEntry)
}

func scanBankLedgerEntry(row pgx.Row) (*domain.BankLedgerEntry, error) {
	var (
		e                           domain.BankLedgerEntry
		date                        pgtype.Date
		debit, credit, balanceAfter pgtype.Numeric
		chequeID, registerID, revOf pgtype.Text
	)
	if err := row.Scan(
		&e.ID,
		&e.BankID,
		&date,
		&debit,
		&credit,
		&balanceAfter,
		&e.Description,
		&chequeID,
		&registerID,
		&revOf,
		&e.CreatedBy,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}

	e.Date = domain.DateOf(date.Time)
	e.Debit = numericToDecimal(debit)
	e.Credit = numericToDecimal(credit)
	e.BalanceAfter = numericToDecimal(balanceAfter)
	e.ChequeID = textPtr(chequeID)
	e.RegisterID = textPtr(registerID)
	e.ReversalOf = textPtr(revOf)
	return &e, nil
}
