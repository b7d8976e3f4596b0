package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// ChequeUseCase drives incoming cheques through their clearing lifecycle.
// Clearing credits the bank; bouncing a cleared cheque reverses that credit.
//
// Locks are taken cheque row first, then bank row.
type ChequeUseCase struct {
	engine
	tracker *BankBalanceTracker
}

// NewChequeUseCase creates a new ChequeUseCase.
func NewChequeUseCase(store Store, tracker *BankBalanceTracker, opts Options) *ChequeUseCase {
	return &ChequeUseCase{
		engine:  newEngine(store, opts),
		tracker: tracker,
	}
}

// ChequeInput carries the caller-editable fields of a cheque.
type ChequeInput struct {
	ChequeNumber    string
	Amount          decimal.Decimal
	ChequeDate      time.Time
	BankID          string
	CustomerID      *string
	SupplierID      *string
	ReceivedFrom    string
	ReferenceNumber string
	Remarks         string
}

// BounceInput represents a bank's rejection of a cheque.
type BounceInput struct {
	ChequeID string
	Reason   string
	Date     time.Time
}

func (in ChequeInput) applyTo(c *domain.IncomingCheque) {
	c.ChequeNumber = strings.TrimSpace(in.ChequeNumber)
	c.Amount = in.Amount
	c.ChequeDate = domain.DateOf(in.ChequeDate)
	c.BankID = in.BankID
	c.CustomerID = in.CustomerID
	c.SupplierID = in.SupplierID
	c.ReceivedFrom = strings.TrimSpace(in.ReceivedFrom)
	c.ReferenceNumber = strings.TrimSpace(in.ReferenceNumber)
	c.Remarks = strings.TrimSpace(in.Remarks)
}

// requireActiveBank returns ErrBankInactive for banks that no longer accept
// credits.
func (uc *ChequeUseCase) requireActiveBank(ctx context.Context, bankID string) error {
	bank, err := uc.store.Banks.GetByID(ctx, bankID)
	if err != nil {
		return err
	}
	if !bank.Active {
		return domain.ErrBankInactive
	}
	return nil
}

// Create records a received cheque as PENDING against an active bank. Cheque
// numbers are unique among non-deleted cheques.
func (uc *ChequeUseCase) Create(ctx context.Context, input ChequeInput, user domain.User) (_ *domain.IncomingCheque, err error) {
	defer uc.observe("cheque.create", time.Now(), &err)

	if err := user.Validate(); err != nil {
		return nil, err
	}

	now := uc.now()
	cheque := &domain.IncomingCheque{
		ID:        uc.idGen.Generate(),
		Status:    domain.ChequeStatusPending,
		CreatedBy: user.ID,
		UpdatedBy: user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	input.applyTo(cheque)

	if err := cheque.Validate(); err != nil {
		return nil, err
	}

	if err := uc.requireActiveBank(ctx, cheque.BankID); err != nil {
		return nil, err
	}

	err = uc.inTx(ctx, func(tx Transaction) error {
		exists, err := uc.store.Cheques.ExistsByNumber(ctx, tx, cheque.ChequeNumber, "")
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateChequeNumber
		}

		if err := uc.store.Cheques.Create(ctx, tx, cheque); err != nil {
			return err
		}

		return uc.audit(ctx, tx, user, domain.AuditActionChequeCreate, domain.ResourceTypeCheque, cheque.ID, nil, cheque)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ChequeTransitions.WithLabelValues(string(domain.ChequeStatusPending)).Inc()
		uc.metrics.ChequeAmount.Observe(cheque.Amount.InexactFloat64())
	}

	uc.logger.Info().
		Str("cheque_id", cheque.ID).
		Str("cheque_number", cheque.ChequeNumber).
		Str("amount", cheque.Amount.StringFixed(2)).
		Msg("cheque received")

	return cheque, nil
}

// Update edits a cheque that has not been cleared. The status never changes
// here.
func (uc *ChequeUseCase) Update(ctx context.Context, id string, input ChequeInput, user domain.User) (_ *domain.IncomingCheque, err error) {
	defer uc.observe("cheque.update", time.Now(), &err)

	if err := user.Validate(); err != nil {
		return nil, err
	}

	var cheque *domain.IncomingCheque
	err = uc.inTx(ctx, func(tx Transaction) error {
		c, err := uc.store.Cheques.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !c.CanEdit() {
			return domain.ErrChequeLocked
		}
		before := *c

		input.applyTo(c)
		c.UpdatedBy = user.ID
		c.UpdatedAt = uc.now()
		if err := c.Validate(); err != nil {
			return err
		}

		if c.BankID != before.BankID {
			if err := uc.requireActiveBank(ctx, c.BankID); err != nil {
				return err
			}
		}

		exists, err := uc.store.Cheques.ExistsByNumber(ctx, tx, c.ChequeNumber, c.ID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateChequeNumber
		}

		if err := uc.store.Cheques.Update(ctx, tx, c); err != nil {
			return err
		}

		cheque = c
		return uc.audit(ctx, tx, user, domain.AuditActionChequeUpdate, domain.ResourceTypeCheque, c.ID, before, c)
	})
	if err != nil {
		return nil, err
	}

	return cheque, nil
}

// transition runs one status change under the cheque row lock.
func (uc *ChequeUseCase) transition(
	ctx context.Context,
	op string,
	id string,
	action domain.AuditAction,
	user domain.User,
	fn func(tx Transaction, c *domain.IncomingCheque) error,
) (_ *domain.IncomingCheque, err error) {
	defer uc.observe(op, time.Now(), &err)

	if err := user.Validate(); err != nil {
		return nil, err
	}

	var cheque *domain.IncomingCheque
	err = uc.inTx(ctx, func(tx Transaction) error {
		c, err := uc.store.Cheques.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		before := *c

		if err := fn(tx, c); err != nil {
			return err
		}

		if err := uc.store.Cheques.Update(ctx, tx, c); err != nil {
			return err
		}

		cheque = c
		return uc.audit(ctx, tx, user, action, domain.ResourceTypeCheque, c.ID, before, c)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ChequeTransitions.WithLabelValues(string(cheque.Status)).Inc()
	}

	return cheque, nil
}

// Deposit hands a pending cheque to the bank. No money moves yet.
func (uc *ChequeUseCase) Deposit(ctx context.Context, id string, date time.Time, user domain.User) (*domain.IncomingCheque, error) {
	cheque, err := uc.transition(ctx, "cheque.deposit", id, domain.AuditActionChequeDeposit, user,
		func(_ Transaction, c *domain.IncomingCheque) error {
			return c.Deposit(uc.dateOr(date), user.ID, uc.now())
		})
	if err != nil {
		return nil, err
	}

	uc.logger.Info().Str("cheque_id", id).Msg("cheque deposited")

	return cheque, nil
}

// Clear confirms a deposited cheque and credits its bank with one ledger
// entry.
func (uc *ChequeUseCase) Clear(ctx context.Context, id string, date time.Time, user domain.User) (*domain.IncomingCheque, error) {
	var entry *domain.BankLedgerEntry

	cheque, err := uc.transition(ctx, "cheque.clear", id, domain.AuditActionChequeClear, user,
		func(tx Transaction, c *domain.IncomingCheque) error {
			day := uc.dateOr(date)
			entryID := uc.idGen.Generate()

			if err := c.MarkCleared(entryID, day, user.ID, uc.now()); err != nil {
				return err
			}

			description := "Cheque cleared: " + c.ChequeNumber
			if c.ReceivedFrom != "" {
				description += " from " + c.ReceivedFrom
			}

			chequeID := c.ID
			entry = &domain.BankLedgerEntry{
				ID:          entryID,
				BankID:      c.BankID,
				Date:        day,
				Credit:      c.Amount,
				Debit:       decimal.Zero,
				Description: description,
				ChequeID:    &chequeID,
				CreatedBy:   user.ID,
			}
			if _, err := uc.tracker.ApplyLedgerEntry(ctx, tx, entry); err != nil {
				return err
			}

			return uc.emit(ctx, tx, domain.AggregateTypeCheque, c.ID, domain.EventTypeChequeCleared, domain.ChequeClearedEvent{
				ChequeID:          c.ID,
				ChequeNumber:      c.ChequeNumber,
				BankID:            c.BankID,
				Amount:            c.Amount.StringFixed(2),
				BankLedgerEntryID: entryID,
			})
		})
	if err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("cheque_id", id).
		Str("bank_id", cheque.BankID).
		Str("amount", cheque.Amount.StringFixed(2)).
		Str("balance_after", entry.BalanceAfter.StringFixed(2)).
		Msg("cheque cleared")

	return cheque, nil
}

// Bounce records the bank's rejection. A cheque that had already credited
// the bank gets a reversal entry that restores the balance exactly.
func (uc *ChequeUseCase) Bounce(ctx context.Context, input BounceInput, user domain.User) (*domain.IncomingCheque, error) {
	var reversal *domain.BankLedgerEntry

	cheque, err := uc.transition(ctx, "cheque.bounce", input.ChequeID, domain.AuditActionChequeBounce, user,
		func(tx Transaction, c *domain.IncomingCheque) error {
			day := uc.dateOr(input.Date)
			reversal = nil

			var creditEntryID string
			if c.NeedsReversal() {
				creditEntryID = *c.BankLedgerEntryID
			}

			if err := c.MarkBounced(input.Reason, day, user.ID, uc.now()); err != nil {
				return err
			}

			if creditEntryID != "" {
				r, err := uc.tracker.Reverse(ctx, tx, creditEntryID, "Cheque bounced - reversal: "+c.ChequeNumber, user.ID, day)
				if err != nil {
					return err
				}
				reversal = r
			}

			event := domain.ChequeBouncedEvent{
				ChequeID:     c.ID,
				ChequeNumber: c.ChequeNumber,
				BankID:       c.BankID,
				Amount:       c.Amount.StringFixed(2),
				Reason:       c.BounceReason,
			}
			if reversal != nil {
				event.ReversalEntryID = reversal.ID
			}

			return uc.emit(ctx, tx, domain.AggregateTypeCheque, c.ID, domain.EventTypeChequeBounced, event)
		})
	if err != nil {
		return nil, err
	}

	uc.logger.Warn().
		Str("cheque_id", cheque.ID).
		Str("reason", cheque.BounceReason).
		Bool("reversed", reversal != nil).
		Msg("cheque bounced")

	return cheque, nil
}

// Cancel withdraws a cheque before it reaches the bank ledger.
func (uc *ChequeUseCase) Cancel(ctx context.Context, id, reason string, user domain.User) (*domain.IncomingCheque, error) {
	cheque, err := uc.transition(ctx, "cheque.cancel", id, domain.AuditActionChequeCancel, user,
		func(_ Transaction, c *domain.IncomingCheque) error {
			return c.Cancel(reason, user.ID, uc.now())
		})
	if err != nil {
		return nil, err
	}

	uc.logger.Info().Str("cheque_id", id).Msg("cheque cancelled")

	return cheque, nil
}

// Reconcile marks a cleared cheque as matched against a bank statement today.
func (uc *ChequeUseCase) Reconcile(ctx context.Context, id string, user domain.User) (*domain.IncomingCheque, error) {
	cheque, err := uc.transition(ctx, "cheque.reconcile", id, domain.AuditActionChequeReconcile, user,
		func(_ Transaction, c *domain.IncomingCheque) error {
			now := uc.now()
			return c.Reconcile(now, user.ID, now)
		})
	if err != nil {
		return nil, err
	}

	uc.logger.Info().Str("cheque_id", id).Msg("cheque reconciled")

	return cheque, nil
}

// Delete soft-deletes a cheque that never moved money. Its number becomes
// available again.
func (uc *ChequeUseCase) Delete(ctx context.Context, id string, user domain.User) (err error) {
	defer uc.observe("cheque.delete", time.Now(), &err)

	if err := user.Validate(); err != nil {
		return err
	}

	return uc.inTx(ctx, func(tx Transaction) error {
		c, err := uc.store.Cheques.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !c.CanDelete() {
			return domain.ErrChequeLocked
		}

		if err := uc.store.Cheques.SoftDelete(ctx, tx, id, uc.now()); err != nil {
			return err
		}

		return uc.audit(ctx, tx, user, domain.AuditActionChequeDelete, domain.ResourceTypeCheque, id, c, nil)
	})
}

// Get retrieves a cheque by ID.
func (uc *ChequeUseCase) Get(ctx context.Context, id string) (*domain.IncomingCheque, error) {
	return uc.store.Cheques.GetByID(ctx, id)
}

// List lists cheques matching filter.
func (uc *ChequeUseCase) List(ctx context.Context, filter domain.ChequeFilter) ([]*domain.IncomingCheque, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("unknown cheque status %q: %w", filter.Status, domain.ErrValidation)
	}
	if filter.FromDate != nil && filter.ToDate != nil {
		if err := domain.ValidateDateRange(*filter.FromDate, *filter.ToDate); err != nil {
			return nil, err
		}
	}

	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)
	return uc.store.Cheques.List(ctx, filter)
}

// Statistics totals all live cheques per status.
func (uc *ChequeUseCase) Statistics(ctx context.Context) (domain.ChequeStatistics, error) {
	return uc.store.Cheques.Summarize(ctx, domain.ChequeFilter{})
}

// StatisticsByDateRange totals cheques whose cheque date is within
// [start, end].
func (uc *ChequeUseCase) StatisticsByDateRange(ctx context.Context, start, end time.Time) (domain.ChequeStatistics, error) {
	if err := domain.ValidateDateRange(start, end); err != nil {
		return domain.ChequeStatistics{}, err
	}

	from, to := domain.DateOf(start), domain.DateOf(end)
	return uc.store.Cheques.Summarize(ctx, domain.ChequeFilter{FromDate: &from, ToDate: &to})
}

// ListLedgerEntries lists the bank ledger entries a cheque produced.
func (uc *ChequeUseCase) ListLedgerEntries(ctx context.Context, chequeID string) ([]*domain.BankLedgerEntry, error) {
	if _, err := uc.store.Cheques.GetByID(ctx, chequeID); err != nil {
		return nil, err
	}
	return uc.store.BankLedger.ListByCheque(ctx, chequeID)
}
