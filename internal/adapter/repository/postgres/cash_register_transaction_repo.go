package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

const registerTxnColumns = `id, register_id, type, direction, amount, description, category,
	reference, user_id, cash_book_entry_id, created_at`

// CashRegisterTransactionRepository implements
// usecase.CashRegisterTransactionRepository.
type CashRegisterTransactionRepository struct {
	db DB
}

// NewCashRegisterTransactionRepository creates a new CashRegisterTransactionRepository.
func NewCashRegisterTransactionRepository(db DB) *CashRegisterTransactionRepository {
	return &CashRegisterTransactionRepository{db: db}
}

// Create inserts a register movement.
func (r *CashRegisterTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.CashRegisterTransaction) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO cash_register_transactions (`+registerTxnColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		txn.ID,
		txn.RegisterID,
		string(txn.Type),
		string(txn.Direction),
		decimalToNumeric(txn.Amount),
		txn.Description,
		txn.Category,
		txn.Reference,
		txn.UserID,
		txn.CashBookEntryID,
		txn.CreatedAt,
	)
	return mapError(err)
}

// ListByRegister lists a register's movements in recording order.
func (r *CashRegisterTransactionRepository) ListByRegister(ctx context.Context, registerID string) ([]*domain.CashRegisterTransaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+registerTxnColumns+` FROM cash_register_transactions WHERE register_id = $1 ORDER BY seq`,
		registerID,
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanRegisterTxn)
}

// DeleteByRegister removes a register's movements.
func (r *CashRegisterTransactionRepository) DeleteByRegister(ctx context.Context, tx usecase.Transaction, registerID string) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `DELETE FROM cash_register_transactions WHERE register_id = $1`, registerID)
	return err
}

func scanRegisterTxn(row pgx.Row) (*domain.CashRegisterTransaction, error) {
	var (
		t              domain.CashRegisterTransaction
		typ, direction string
		amount         pgtype.Numeric
	)
	if err := row.Scan(
		&t.ID,
		&t.RegisterID,
		&typ,
		&direction,
		&amount,
		&t.Description,
		&t.Category,
		&t.Reference,
		&t.UserID,
		&t.CashBookEntryID,
		&t.CreatedAt,
	); err != nil {
		return nil, err
	}

	t.Type = domain.TransactionType(typ)
	t.Direction = domain.Direction(direction)
	t.Amount = numericToDecimal(amount)
	return &t, nil
}
