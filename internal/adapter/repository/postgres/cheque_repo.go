package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

const chequeColumns = `id, cheque_number, amount, cheque_date, deposit_date, clearance_date, bank_id,
	customer_id, supplier_id, received_from, reference_number, status, recorded_in_bank,
	bank_ledger_entry_id, reconciled, reconciled_date, bounce_reason, bounce_date, remarks,
	created_by, updated_by, created_at, updated_at, deleted_at`

// ChequeRepository implements usecase.ChequeRepository. Soft-deleted rows
// are filtered out of every read.
type ChequeRepository struct {
	db DB
}

// NewChequeRepository creates a new ChequeRepository.
func NewChequeRepository(db DB) *ChequeRepository {
	return &ChequeRepository{db: db}
}

// Create inserts a cheque. incoming_cheques_live_number rejects a number
// already used by a live cheque.
func (r *ChequeRepository) Create(ctx context.Context, tx usecase.Transaction, c *domain.IncomingCheque) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO incoming_cheques (`+chequeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`,
		c.ID,
		c.ChequeNumber,
		decimalToNumeric(c.Amount),
		dateToPg(c.ChequeDate),
		datePtrToPg(c.DepositDate),
		datePtrToPg(c.ClearanceDate),
		c.BankID,
		c.CustomerID,
		c.SupplierID,
		c.ReceivedFrom,
		c.ReferenceNumber,
		string(c.Status),
		c.RecordedInBank,
		c.BankLedgerEntryID,
		c.Reconciled,
		datePtrToPg(c.ReconciledDate),
		c.BounceReason,
		datePtrToPg(c.BounceDate),
		c.Remarks,
		c.CreatedBy,
		c.UpdatedBy,
		c.CreatedAt,
		c.UpdatedAt,
		c.DeletedAt,
	)
	return mapError(err)
}

// GetByID retrieves a live cheque by ID.
func (r *ChequeRepository) GetByID(ctx context.Context, id string) (*domain.IncomingCheque, error) {
	return chequeOrNotFound(scanCheque(r.db.QueryRow(ctx,
		`SELECT `+chequeColumns+` FROM incoming_cheques WHERE id = $1 AND deleted_at IS NULL`, id)))
}

// GetByIDForUpdate retrieves a live cheque with a row lock held until tx ends.
func (r *ChequeRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.IncomingCheque, error) {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	return chequeOrNotFound(scanCheque(pgxTx.QueryRow(ctx,
		`SELECT `+chequeColumns+` FROM incoming_cheques WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id)))
}

// ExistsByNumber reports whether another live cheque uses number.
func (r *ChequeRepository) ExistsByNumber(ctx context.Context, tx usecase.Transaction, number, excludeID string) (bool, error) {
	q, err := on(r.db, tx)
	if err != nil {
		return false, err
	}

	var exists bool
	err = q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM incoming_cheques
			WHERE cheque_number = $1 AND id <> $2 AND deleted_at IS NULL
		)`,
		number, excludeID,
	).Scan(&exists)
	return exists, err
}

// Update writes every mutable column of a live cheque.
func (r *ChequeRepository) Update(ctx context.Context, tx usecase.Transaction, c *domain.IncomingCheque) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx, `
		UPDATE incoming_cheques
		SET cheque_number = $2, amount = $3, cheque_date = $4, deposit_date = $5,
		    clearance_date = $6, bank_id = $7, customer_id = $8, supplier_id = $9,
		    received_from = $10, reference_number = $11, status = $12, recorded_in_bank = $13,
		    bank_ledger_entry_id = $14, reconciled = $15, reconciled_date = $16,
		    bounce_reason = $17, bounce_date = $18, remarks = $19, updated_by = $20, updated_at = $21
		WHERE id = $1 AND deleted_at IS NULL`,
		c.ID,
		c.ChequeNumber,
		decimalToNumeric(c.Amount),
		dateToPg(c.ChequeDate),
		datePtrToPg(c.DepositDate),
		datePtrToPg(c.ClearanceDate),
		c.BankID,
		c.CustomerID,
		c.SupplierID,
		c.ReceivedFrom,
		c.ReferenceNumber,
		string(c.Status),
		c.RecordedInBank,
		c.BankLedgerEntryID,
		c.Reconciled,
		datePtrToPg(c.ReconciledDate),
		c.BounceReason,
		datePtrToPg(c.BounceDate),
		c.Remarks,
		c.UpdatedBy,
		c.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChequeNotFound
	}
	return nil
}

// SoftDelete hides a cheque and frees its number.
func (r *ChequeRepository) SoftDelete(ctx context.Context, tx usecase.Transaction, id string, deletedAt time.Time) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx,
		`UPDATE incoming_cheques SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, deletedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChequeNotFound
	}
	return nil
}

// List lists live cheques matching filter, newest cheque date first.
func (r *ChequeRepository) List(ctx context.Context, filter domain.ChequeFilter) ([]*domain.IncomingCheque, error) {
	where, args := chequeWhere(filter)
	args = append(args, limitArg(filter.Limit), filter.Offset)

	query := fmt.Sprintf(`SELECT %s FROM incoming_cheques WHERE %s
		ORDER BY cheque_date DESC, created_at DESC, id
		LIMIT $%d OFFSET $%d`, chequeColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCheque)
}

// Summarize counts and totals live cheques matching filter, grouped by status.
func (r *ChequeRepository) Summarize(ctx context.Context, filter domain.ChequeFilter) (domain.ChequeStatistics, error) {
	where, args := chequeWhere(filter)

	rows, err := r.db.Query(ctx,
		`SELECT status, COUNT(*), COALESCE(SUM(amount), 0) FROM incoming_cheques WHERE `+where+` GROUP BY status`,
		args...,
	)
	if err != nil {
		return domain.ChequeStatistics{}, err
	}
	defer rows.Close()

	var stats domain.ChequeStatistics
	for rows.Next() {
		var (
			status string
			count  int
			amount pgtype.Numeric
		)
		if err := rows.Scan(&status, &count, &amount); err != nil {
			return domain.ChequeStatistics{}, err
		}

		bucket := domain.ChequeBucket{Count: count, Amount: numericToDecimal(amount)}
		stats.Total.Count += bucket.Count
		stats.Total.Amount = stats.Total.Amount.Add(bucket.Amount)

		switch domain.ChequeStatus(status) {
		case domain.ChequeStatusPending:
			stats.Pending = bucket
		case domain.ChequeStatusDeposited:
			stats.Deposited = bucket
		case domain.ChequeStatusCleared:
			stats.Cleared = bucket
		case domain.ChequeStatusReconciled:
			stats.Reconciled = bucket
		case domain.ChequeStatusBounced:
			stats.Bounced = bucket
		case domain.ChequeStatusCancelled:
			stats.Cancelled = bucket
		}
	}
	return stats, rows.Err()
}

// chequeWhere builds the WHERE clause shared by List and Summarize.
func chequeWhere(filter domain.ChequeFilter) (string, []any) {
	conds := []string{"deleted_at IS NULL"}
	args := []any{}

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.BankID != "" {
		add("bank_id = $%d", filter.BankID)
	}
	if filter.FromDate != nil {
		add("cheque_date >= $%d", dateToPg(*filter.FromDate))
	}
	if filter.ToDate != nil {
		add("cheque_date <= $%d", dateToPg(*filter.ToDate))
	}

	return strings.Join(conds, " AND "), args
}

func scanCheque(row pgx.Row) (*domain.IncomingCheque, error) {
	var (
		c                                      domain.IncomingCheque
		status                                 string
		amount                                 pgtype.Numeric
		chequeDate, depositDate, clearanceDate pgtype.Date
		reconciledDate, bounceDate             pgtype.Date
		customerID, supplierID, ledgerEntryID  pgtype.Text
		deletedAt                              pgtype.Timestamptz
	)
	if err := row.Scan(
		&c.ID,
		&c.ChequeNumber,
		&amount,
		&chequeDate,
		&depositDate,
		&clearanceDate,
		&c.BankID,
		&customerID,
		&supplierID,
		&c.ReceivedFrom,
		&c.ReferenceNumber,
		&status,
		&c.RecordedInBank,
		&ledgerEntryID,
		&c.Reconciled,
		&reconciledDate,
		&c.BounceReason,
		&bounceDate,
		&c.Remarks,
		&c.CreatedBy,
		&c.UpdatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
		&deletedAt,
	); err != nil {
		return nil, err
	}

	c.Amount = numericToDecimal(amount)
	c.ChequeDate = domain.DateOf(chequeDate.Time)
	c.DepositDate = pgToDatePtr(depositDate)
	c.ClearanceDate = pgToDatePtr(clearanceDate)
	c.CustomerID = textPtr(customerID)
	c.SupplierID = textPtr(supplierID)
	c.Status = domain.ChequeStatus(status)
	c.BankLedgerEntryID = textPtr(ledgerEntryID)
	c.ReconciledDate = pgToDatePtr(reconciledDate)
	c.BounceDate = pgToDatePtr(bounceDate)
	c.DeletedAt = timestamptzPtr(deletedAt)
	return &c, nil
}

func chequeOrNotFound(c *domain.IncomingCheque, err error) (*domain.IncomingCheque, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrChequeNotFound
	}
	return c, err
}
