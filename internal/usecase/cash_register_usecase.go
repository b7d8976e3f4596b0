package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// CashRegisterUseCase runs the open, transact, close and deposit cycle of
// branch cash registers.
//
// Locks are always taken in the same order: branch, register row, bank row.
type CashRegisterUseCase struct {
	engine
	branches BranchDirectory
	cashBook *CashBookUseCase
	tracker  *BankBalanceTracker
}

// NewCashRegisterUseCase creates a new CashRegisterUseCase.
func NewCashRegisterUseCase(
	store Store,
	branches BranchDirectory,
	cashBook *CashBookUseCase,
	tracker *BankBalanceTracker,
	opts Options,
) *CashRegisterUseCase {
	return &CashRegisterUseCase{
		engine:   newEngine(store, opts),
		branches: branches,
		cashBook: cashBook,
		tracker:  tracker,
	}
}

// OpenRegisterInput represents input for opening a register.
type OpenRegisterInput struct {
	BranchID       string
	OpeningBalance decimal.Decimal
	Notes          string
}

// RecordTransactionInput represents one cash movement on a register.
type RecordTransactionInput struct {
	RegisterID  string
	Type        domain.TransactionType
	Amount      decimal.Decimal
	Description string
	Category    string
	Reference   string
}

// CloseRegisterInput represents input for closing a register.
type CloseRegisterInput struct {
	RegisterID           string
	ActualClosingBalance decimal.Decimal
	Notes                string
}

// DepositInput represents input for depositing a register's cash.
type DepositInput struct {
	RegisterID string
	BankID     string
	Amount     decimal.Decimal
	Notes      string
}

// RecordTransactionResult is what a recorded movement produced.
type RecordTransactionResult struct {
	Register      *domain.CashRegister
	Transaction   *domain.CashRegisterTransaction
	CashBookEntry *domain.CashBookEntry
}

// DepositResult is what a register deposit produced.
type DepositResult struct {
	Register      *domain.CashRegister
	LedgerEntry   *domain.BankLedgerEntry
	CashBookEntry *domain.CashBookEntry
}

// Open starts a register for a branch. A branch has at most one open register.
func (uc *CashRegisterUseCase) Open(ctx context.Context, input OpenRegisterInput, user domain.User) (_ *domain.CashRegister, err error) {
	defer uc.observe("register.open", time.Now(), &err)

	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateNonNegativeAmount(input.OpeningBalance); err != nil {
		return nil, err
	}
	if _, err := uc.branches.GetBranch(ctx, input.BranchID); err != nil {
		return nil, err
	}

	var register *domain.CashRegister
	err = uc.inTx(ctx, func(tx Transaction) error {
		if err := uc.store.Locker.LockBranch(ctx, tx, input.BranchID); err != nil {
			return err
		}

		_, err := uc.store.Registers.FindOpenByBranch(ctx, tx, input.BranchID)
		switch {
		case err == nil:
			return domain.ErrRegisterAlreadyOpen
		case !errors.Is(err, domain.ErrNoOpenRegister):
			return err
		}

		r, err := domain.NewCashRegister(uc.idGen.Generate(), input.BranchID, input.OpeningBalance, user.ID, uc.now())
		if err != nil {
			return err
		}
		r.AppendNote(input.Notes)

		if err := uc.store.Registers.Create(ctx, tx, r); err != nil {
			return err
		}

		if err := uc.audit(ctx, tx, user, domain.AuditActionRegisterOpen, domain.ResourceTypeRegister, r.ID, nil, r); err != nil {
			return err
		}

		if err := uc.emit(ctx, tx, domain.AggregateTypeRegister, r.ID, domain.EventTypeRegisterOpened, domain.RegisterOpenedEvent{
			RegisterID:     r.ID,
			BranchID:       r.BranchID,
			OpeningBalance: r.OpeningBalance.StringFixed(2),
			OpenedBy:       user.ID,
		}); err != nil {
			return err
		}

		register = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.RegistersOpened.Inc()
	}

	uc.logger.Info().
		Str("register_id", register.ID).
		Str("branch_id", register.BranchID).
		Str("opening_balance", register.OpeningBalance.StringFixed(2)).
		Msg("register opened")

	return register, nil
}

// RecordCashIn records a sale or other cash received on an open register.
func (uc *CashRegisterUseCase) RecordCashIn(ctx context.Context, input RecordTransactionInput, user domain.User) (*RecordTransactionResult, error) {
	if input.Type == "" {
		input.Type = domain.TransactionTypeCashIn
	}
	return uc.record(ctx, domain.DirectionIn, input, uc.lockRegister(input.RegisterID), user)
}

// RecordCashOut records cash paid out of an open register.
func (uc *CashRegisterUseCase) RecordCashOut(ctx context.Context, input RecordTransactionInput, user domain.User) (*RecordTransactionResult, error) {
	if input.Type == "" {
		input.Type = domain.TransactionTypeCashOut
	}
	return uc.record(ctx, domain.DirectionOut, input, uc.lockRegister(input.RegisterID), user)
}

// registerResolver locks and returns the register a movement applies to.
type registerResolver func(ctx context.Context, tx Transaction) (*domain.CashRegister, error)

func (uc *CashRegisterUseCase) lockRegister(id string) registerResolver {
	return func(ctx context.Context, tx Transaction) (*domain.CashRegister, error) {
		r, err := uc.store.Registers.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := uc.store.Locker.LockBranch(ctx, tx, r.BranchID); err != nil {
			return nil, err
		}

		return uc.store.Registers.GetByIDForUpdate(ctx, tx, id)
	}
}

func (uc *CashRegisterUseCase) lockOpenRegister(branchID string) registerResolver {
	return func(ctx context.Context, tx Transaction) (*domain.CashRegister, error) {
		if err := uc.store.Locker.LockBranch(ctx, tx, branchID); err != nil {
			return nil, err
		}

		r, err := uc.store.Registers.FindOpenByBranch(ctx, tx, branchID)
		if err != nil {
			return nil, err
		}

		return uc.store.Registers.GetByIDForUpdate(ctx, tx, r.ID)
	}
}

func (uc *CashRegisterUseCase) record(
	ctx context.Context,
	dir domain.Direction,
	input RecordTransactionInput,
	resolve registerResolver,
	user domain.User,
) (_ *RecordTransactionResult, err error) {
	defer uc.observe("register.record", time.Now(), &err)

	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if !input.Type.AllowedFor(dir) {
		return nil, domain.ErrInvalidTransactionType
	}

	var result *RecordTransactionResult
	err = uc.inTx(ctx, func(tx Transaction) error {
		register, err := resolve(ctx, tx)
		if err != nil {
			return err
		}
		before := *register

		now := uc.now()
		if err := register.ApplyTransaction(dir, input.Type, input.Amount, now); err != nil {
			return err
		}

		txnID := uc.idGen.Generate()
		book := AppendInput{
			BranchID:      register.BranchID,
			Description:   describeMovement(input),
			Category:      input.Category,
			ReferenceType: domain.ResourceTypeRegister,
			ReferenceID:   txnID,
		}
		if book.Category == "" {
			book.Category = string(input.Type)
		}
		if dir == domain.DirectionIn {
			book.Debit = input.Amount
		} else {
			book.Credit = input.Amount
		}

		entry, err := uc.cashBook.Append(ctx, tx, book, user)
		if err != nil {
			return err
		}

		txn := &domain.CashRegisterTransaction{
			ID:              txnID,
			RegisterID:      register.ID,
			Type:            input.Type,
			Direction:       dir,
			Amount:          input.Amount,
			Description:     strings.TrimSpace(input.Description),
			Category:        book.Category,
			Reference:       strings.TrimSpace(input.Reference),
			UserID:          user.ID,
			CashBookEntryID: entry.ID,
			CreatedAt:       now,
		}
		if err := uc.store.RegisterTxns.Create(ctx, tx, txn); err != nil {
			return err
		}

		if err := uc.store.Registers.Update(ctx, tx, register); err != nil {
			return err
		}

		if err := uc.audit(ctx, tx, user, domain.AuditActionRegisterTransaction, domain.ResourceTypeRegister, register.ID, before, txn); err != nil {
			return err
		}

		result = &RecordTransactionResult{Register: register, Transaction: txn, CashBookEntry: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.RegisterTransactions.WithLabelValues(string(input.Type)).Inc()
	}

	uc.logger.Info().
		Str("register_id", result.Register.ID).
		Str("type", string(input.Type)).
		Str("amount", input.Amount.StringFixed(2)).
		Str("expected_closing", result.Register.ExpectedClosingBalance.StringFixed(2)).
		Msg("register transaction recorded")

	return result, nil
}

func describeMovement(input RecordTransactionInput) string {
	if d := strings.TrimSpace(input.Description); d != "" {
		return d
	}
	if input.Reference != "" {
		return fmt.Sprintf("%s %s", input.Type, input.Reference)
	}
	return string(input.Type)
}

// Close counts the register. The register ends BALANCED when the count
// matches the expected balance and CLOSED otherwise.
func (uc *CashRegisterUseCase) Close(ctx context.Context, input CloseRegisterInput, user domain.User) (_ *domain.CashRegister, err error) {
	defer uc.observe("register.close", time.Now(), &err)

	if err := user.Validate(); err != nil {
		return nil, err
	}

	var register *domain.CashRegister
	err = uc.inTx(ctx, func(tx Transaction) error {
		r, err := uc.store.Registers.GetByIDForUpdate(ctx, tx, input.RegisterID)
		if err != nil {
			return err
		}
		before := *r

		if err := r.Close(input.ActualClosingBalance, user.ID, uc.now()); err != nil {
			return err
		}
		r.AppendNote(input.Notes)

		if err := uc.store.Registers.Update(ctx, tx, r); err != nil {
			return err
		}

		if err := uc.audit(ctx, tx, user, domain.AuditActionRegisterClose, domain.ResourceTypeRegister, r.ID, before, r); err != nil {
			return err
		}

		if err := uc.emit(ctx, tx, domain.AggregateTypeRegister, r.ID, domain.EventTypeRegisterClosed, domain.RegisterClosedEvent{
			RegisterID:     r.ID,
			BranchID:       r.BranchID,
			Status:         string(r.Status),
			Expected:       r.ExpectedClosingBalance.StringFixed(2),
			ClosingBalance: r.ClosingBalance.StringFixed(2),
			Discrepancy:    r.Discrepancy.StringFixed(2),
		}); err != nil {
			return err
		}

		register = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.RegistersClosed.WithLabelValues(string(register.Status)).Inc()
		uc.metrics.RegisterDiscrepancy.Observe(register.Discrepancy.Abs().InexactFloat64())
	}

	event := uc.logger.Info()
	if register.Status != domain.RegisterStatusBalanced {
		event = uc.logger.Warn()
	}
	event.
		Str("register_id", register.ID).
		Str("status", string(register.Status)).
		Str("discrepancy", register.Discrepancy.StringFixed(2)).
		Msg("register closed")

	return register, nil
}

// DepositToBank moves a closed register's cash into a bank: one bank ledger
// credit and one cash book payment.
func (uc *CashRegisterUseCase) DepositToBank(ctx context.Context, input DepositInput, user domain.User) (_ *DepositResult, err error) {
	defer uc.observe("register.deposit", time.Now(), &err)

	if err := user.Validate(); err != nil {
		return nil, err
	}

	var result *DepositResult
	err = uc.inTx(ctx, func(tx Transaction) error {
		r, err := uc.lockRegister(input.RegisterID)(ctx, tx)
		if err != nil {
			return err
		}
		before := *r

		now := uc.now()
		// State is checked before the amount so an open register is always
		// rejected as a state error.
		if err := r.MarkDeposited(input.BankID, input.Amount, user.ID, now); err != nil {
			return err
		}
		r.AppendNote(input.Notes)

		registerID := r.ID
		ledgerEntry := &domain.BankLedgerEntry{
			ID:          uc.idGen.Generate(),
			BankID:      input.BankID,
			Date:        now,
			Credit:      input.Amount,
			Debit:       decimal.Zero,
			Description: fmt.Sprintf("Cash register deposit: %s", r.ID),
			RegisterID:  &registerID,
			CreatedBy:   user.ID,
		}
		if _, err := uc.tracker.ApplyLedgerEntry(ctx, tx, ledgerEntry); err != nil {
			return err
		}

		bookEntry, err := uc.cashBook.Append(ctx, tx, AppendInput{
			BranchID:      r.BranchID,
			Credit:        input.Amount,
			Description:   fmt.Sprintf("Deposit to bank %s", input.BankID),
			Category:      domain.CashBookCategoryBankDeposit,
			ReferenceType: domain.ResourceTypeRegister,
			ReferenceID:   r.ID,
		}, user)
		if err != nil {
			return err
		}

		if err := uc.store.Registers.Update(ctx, tx, r); err != nil {
			return err
		}

		if err := uc.audit(ctx, tx, user, domain.AuditActionRegisterDeposit, domain.ResourceTypeRegister, r.ID, before, r); err != nil {
			return err
		}

		if err := uc.emit(ctx, tx, domain.AggregateTypeRegister, r.ID, domain.EventTypeRegisterDeposited, domain.RegisterDepositedEvent{
			RegisterID:        r.ID,
			BranchID:          r.BranchID,
			BankID:            input.BankID,
			Amount:            input.Amount.StringFixed(2),
			BankLedgerEntryID: ledgerEntry.ID,
		}); err != nil {
			return err
		}

		result = &DepositResult{Register: r, LedgerEntry: ledgerEntry, CashBookEntry: bookEntry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.RegisterDeposits.Inc()
	}

	uc.logger.Info().
		Str("register_id", result.Register.ID).
		Str("bank_id", input.BankID).
		Str("amount", input.Amount.StringFixed(2)).
		Msg("register deposited")

	return result, nil
}

// Delete removes a register that has not been deposited, together with its
// transactions. Cash book rows it produced are kept.
func (uc *CashRegisterUseCase) Delete(ctx context.Context, id string, user domain.User) (err error) {
	defer uc.observe("register.delete", time.Now(), &err)

	if err := user.Validate(); err != nil {
		return err
	}

	err = uc.inTx(ctx, func(tx Transaction) error {
		r, err := uc.store.Registers.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if !r.CanDelete() {
			return domain.ErrRegisterAlreadyDeposited
		}

		if err := uc.store.RegisterTxns.DeleteByRegister(ctx, tx, id); err != nil {
			return err
		}

		if err := uc.store.Registers.Delete(ctx, tx, id); err != nil {
			return err
		}

		return uc.audit(ctx, tx, user, domain.AuditActionRegisterDelete, domain.ResourceTypeRegister, id, r, nil)
	})
	if err != nil {
		return err
	}

	uc.logger.Info().Str("register_id", id).Msg("register deleted")

	return nil
}

// Get retrieves a register by ID.
func (uc *CashRegisterUseCase) Get(ctx context.Context, id string) (*domain.CashRegister, error) {
	return uc.store.Registers.GetByID(ctx, id)
}

// GetCurrent returns the branch's open register.
func (uc *CashRegisterUseCase) GetCurrent(ctx context.Context, branchID string) (*domain.CashRegister, error) {
	return uc.store.Registers.FindOpenByBranch(ctx, nil, branchID)
}

// ListByBranch lists a branch's registers, newest first.
func (uc *CashRegisterUseCase) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*domain.CashRegister, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.store.Registers.ListByBranch(ctx, branchID, limit, offset)
}

// ListByDateRange lists a branch's registers whose register date is within
// [start, end].
func (uc *CashRegisterUseCase) ListByDateRange(ctx context.Context, branchID string, start, end time.Time) ([]*domain.CashRegister, error) {
	if err := domain.ValidateDateRange(start, end); err != nil {
		return nil, err
	}
	return uc.store.Registers.ListByBranchAndDateRange(ctx, branchID, domain.DateOf(start), domain.DateOf(end))
}

// ListTransactions lists a register's movements in the order they happened.
func (uc *CashRegisterUseCase) ListTransactions(ctx context.Context, registerID string) ([]*domain.CashRegisterTransaction, error) {
	if _, err := uc.store.Registers.GetByID(ctx, registerID); err != nil {
		return nil, err
	}
	return uc.store.RegisterTxns.ListByRegister(ctx, registerID)
}

// DailySummary aggregates a branch's registers for one date.
func (uc *CashRegisterUseCase) DailySummary(ctx context.Context, branchID string, date time.Time) (*domain.RegisterDailySummary, error) {
	if _, err := uc.branches.GetBranch(ctx, branchID); err != nil {
		return nil, err
	}

	day := uc.dateOr(date)
	registers, err := uc.store.Registers.ListByBranchAndDateRange(ctx, branchID, day, day)
	if err != nil {
		return nil, err
	}

	summary := domain.SummarizeRegisters(branchID, day, registers)
	return &summary, nil
}
