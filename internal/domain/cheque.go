package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ChequeStatus string

const (
	ChequeStatusPending    ChequeStatus = "PENDING"
	ChequeStatusDeposited  ChequeStatus = "DEPOSITED"
	ChequeStatusCleared    ChequeStatus = "CLEARED"
	ChequeStatusReconciled ChequeStatus = "RECONCILED"
	ChequeStatusBounced    ChequeStatus = "BOUNCED"
	ChequeStatusCancelled  ChequeStatus = "CANCELLED"
)

// chequeTransitions lists every legal status change.
var chequeTransitions = map[ChequeStatus][]ChequeStatus{
	ChequeStatusPending:   {ChequeStatusDeposited, ChequeStatusBounced, ChequeStatusCancelled},
	ChequeStatusDeposited: {ChequeStatusCleared, ChequeStatusBounced, ChequeStatusCancelled},
	ChequeStatusCleared:   {ChequeStatusReconciled, ChequeStatusBounced},
}

// IsValid reports whether s is a known cheque status.
func (s ChequeStatus) IsValid() bool {
	switch s {
	case ChequeStatusPending, ChequeStatusDeposited, ChequeStatusCleared,
		ChequeStatusReconciled, ChequeStatusBounced, ChequeStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a cheque in status s may move to next.
func (s ChequeStatus) CanTransitionTo(next ChequeStatus) bool {
	for _, allowed := range chequeTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IncomingCheque is a customer cheque tracked from receipt to clearance or
// bounce.
type IncomingCheque struct {
	ID                string
	ChequeNumber      string
	Amount            decimal.Decimal
	ChequeDate        time.Time
	DepositDate       *time.Time
	ClearanceDate     *time.Time
	BankID            string
	CustomerID        *string
	SupplierID        *string
	ReceivedFrom      string
	ReferenceNumber   string
	Status            ChequeStatus
	RecordedInBank    bool
	BankLedgerEntryID *string
	Reconciled        bool
	ReconciledDate    *time.Time
	BounceReason      string
	BounceDate        *time.Time
	Remarks           string
	CreatedBy         string
	UpdatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time
}

// Validate checks the fields a caller supplies on create and update.
func (c *IncomingCheque) Validate() error {
	if err := ValidateChequeNumber(c.ChequeNumber); err != nil {
		return err
	}
	if err := ValidateAmount(c.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(c.BankID) == "" {
		return fmt.Errorf("bank id is required: %w", ErrValidation)
	}
	if c.ChequeDate.IsZero() {
		return fmt.Errorf("cheque date is required: %w", ErrValidation)
	}
	return nil
}

// CanEdit reports whether descriptive fields may still change.
func (c *IncomingCheque) CanEdit() bool {
	return c.Status == ChequeStatusPending || c.Status == ChequeStatusDeposited
}

// CanDelete reports whether the cheque may be soft-deleted.
func (c *IncomingCheque) CanDelete() bool {
	switch c.Status {
	case ChequeStatusPending, ChequeStatusDeposited, ChequeStatusCancelled:
		return !c.RecordedInBank
	}
	return false
}

// Deposit moves a pending cheque into bank clearing.
func (c *IncomingCheque) Deposit(date time.Time, by string, now time.Time) error {
	if c.Status != ChequeStatusPending {
		return ErrChequeNotPending
	}
	d := DateOf(date)
	c.Status = ChequeStatusDeposited
	c.DepositDate = &d
	c.touch(by, now)
	return nil
}

// MarkCleared records the clearance and the ledger entry that credited the
// bank.
func (c *IncomingCheque) MarkCleared(entryID string, date time.Time, by string, now time.Time) error {
	if c.Status != ChequeStatusDeposited {
		return ErrChequeNotDeposited
	}
	d := DateOf(date)
	c.Status = ChequeStatusCleared
	c.ClearanceDate = &d
	c.RecordedInBank = true
	c.BankLedgerEntryID = &entryID
	c.touch(by, now)
	return nil
}

// NeedsReversal reports whether bouncing the cheque must undo a bank credit.
func (c *IncomingCheque) NeedsReversal() bool {
	return c.RecordedInBank && c.BankLedgerEntryID != nil
}

// MarkBounced records the bank's rejection and drops the bank link. Callers
// must reverse the ledger entry first when NeedsReversal is true.
func (c *IncomingCheque) MarkBounced(reason string, date time.Time, by string, now time.Time) error {
	if !c.Status.CanTransitionTo(ChequeStatusBounced) {
		return ErrChequeCannotBounce
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("bounce reason is required: %w", ErrValidation)
	}
	d := DateOf(date)
	c.Status = ChequeStatusBounced
	c.BounceReason = reason
	c.BounceDate = &d
	c.RecordedInBank = false
	c.BankLedgerEntryID = nil
	c.touch(by, now)
	return nil
}

// Reconcile marks a cleared cheque as verified against a bank statement.
func (c *IncomingCheque) Reconcile(date time.Time, by string, now time.Time) error {
	if c.Status != ChequeStatusCleared {
		return ErrChequeNotCleared
	}
	d := DateOf(date)
	c.Status = ChequeStatusReconciled
	c.Reconciled = true
	c.ReconciledDate = &d
	c.touch(by, now)
	return nil
}

// Cancel withdraws a cheque that never reached the bank ledger.
func (c *IncomingCheque) Cancel(reason, by string, now time.Time) error {
	if !c.Status.CanTransitionTo(ChequeStatusCancelled) {
		return ErrChequeCannotCancel
	}
	c.Status = ChequeStatusCancelled
	if reason = strings.TrimSpace(reason); reason != "" {
		line := "Cancellation Reason: " + reason
		if c.Remarks == "" {
			c.Remarks = line
		} else {
			c.Remarks += "\n" + line
		}
	}
	c.touch(by, now)
	return nil
}

func (c *IncomingCheque) touch(by string, now time.Time) {
	c.UpdatedBy = by
	c.UpdatedAt = now
}

// ChequeFilter narrows cheque listings. Dates filter on the cheque date.
type ChequeFilter struct {
	Status   ChequeStatus
	BankID   string
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}

// Matches reports whether c passes the filter, ignoring paging.
func (f ChequeFilter) Matches(c *IncomingCheque) bool {
	if c.DeletedAt != nil {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.BankID != "" && c.BankID != f.BankID {
		return false
	}
	if f.FromDate != nil && c.ChequeDate.Before(DateOf(*f.FromDate)) {
		return false
	}
	if f.ToDate != nil && c.ChequeDate.After(DateOf(*f.ToDate)) {
		return false
	}
	return true
}

// ChequeBucket is a count and amount total.
type ChequeBucket struct {
	Count  int
	Amount decimal.Decimal
}

func (b *ChequeBucket) add(amount decimal.Decimal) {
	b.Count++
	b.Amount = b.Amount.Add(amount)
}

// ChequeStatistics totals cheques overall and per status.
type ChequeStatistics struct {
	Total      ChequeBucket
	Pending    ChequeBucket
	Deposited  ChequeBucket
	Cleared    ChequeBucket
	Reconciled ChequeBucket
	Bounced    ChequeBucket
	Cancelled  ChequeBucket
}

// SummarizeCheques folds cheques into statistics.
func SummarizeCheques(cheques []*IncomingCheque) ChequeStatistics {
	var s ChequeStatistics
	for _, c := range cheques {
		s.Total.add(c.Amount)
		switch c.Status {
		case ChequeStatusPending:
			s.Pending.add(c.Amount)
		case ChequeStatusDeposited:
			s.Deposited.add(c.Amount)
		case ChequeStatusCleared:
			s.Cleared.add(c.Amount)
		case ChequeStatusReconciled:
			s.Reconciled.add(c.Amount)
		case ChequeStatusBounced:
			s.Bounced.add(c.Amount)
		case ChequeStatusCancelled:
			s.Cancelled.add(c.Amount)
		}
	}
	return s
}
