package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced by the engine wraps exactly one of these,
// so callers can branch with errors.Is on the kind alone.
var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrDuplicateResource      = errors.New("duplicate resource")
	ErrConcurrencyConflict    = errors.New("concurrency conflict")
	ErrValidation             = errors.New("validation failed")
)

var (
	// Shared errors
	ErrInvalidAmount    = fmt.Errorf("amount must be positive: %w", ErrValidation)
	ErrNegativeAmount   = fmt.Errorf("amount must not be negative: %w", ErrValidation)
	ErrAmountPrecision  = fmt.Errorf("amount has more than two decimal places: %w", ErrValidation)
	ErrInvalidDateRange = fmt.Errorf("start date is after end date: %w", ErrValidation)
	ErrMissingActor     = fmt.Errorf("acting user is required: %w", ErrValidation)

	// Branch errors
	ErrBranchNotFound = fmt.Errorf("branch %w", ErrNotFound)

	// Bank errors
	ErrBankNotFound               = fmt.Errorf("bank %w", ErrNotFound)
	ErrBankInactive               = fmt.Errorf("bank is inactive: %w", ErrInvalidStateTransition)
	ErrDuplicateAccountNumber     = fmt.Errorf("account number already exists: %w", ErrDuplicateResource)
	ErrInvalidLedgerEntry         = fmt.Errorf("ledger entry needs exactly one non-zero side: %w", ErrValidation)
	ErrLedgerEntryNotFound        = fmt.Errorf("bank ledger entry %w", ErrNotFound)
	ErrLedgerEntryAlreadyReversed = fmt.Errorf("bank ledger entry already reversed: %w", ErrInvalidStateTransition)

	// Cash register errors
	ErrRegisterNotFound         = fmt.Errorf("cash register %w", ErrNotFound)
	ErrNoOpenRegister           = fmt.Errorf("open cash register for branch %w", ErrNotFound)
	ErrRegisterAlreadyOpen      = fmt.Errorf("branch already has an open cash register: %w", ErrInvalidStateTransition)
	ErrRegisterNotOpen          = fmt.Errorf("cash register is not open: %w", ErrInvalidStateTransition)
	ErrRegisterStillOpen        = fmt.Errorf("cash register must be closed before depositing: %w", ErrInvalidStateTransition)
	ErrRegisterAlreadyDeposited = fmt.Errorf("cash register already deposited: %w", ErrInvalidStateTransition)
	ErrInvalidTransactionType   = fmt.Errorf("transaction type not allowed for this direction: %w", ErrValidation)

	// Cheque errors
	ErrChequeNotFound        = fmt.Errorf("cheque %w", ErrNotFound)
	ErrDuplicateChequeNumber = fmt.Errorf("cheque number already exists: %w", ErrDuplicateResource)
	ErrInvalidChequeNumber   = fmt.Errorf("cheque number is required: %w", ErrValidation)
	ErrChequeNotPending      = fmt.Errorf("only pending cheques can be deposited: %w", ErrInvalidStateTransition)
	ErrChequeNotDeposited    = fmt.Errorf("only deposited cheques can be cleared: %w", ErrInvalidStateTransition)
	ErrChequeNotCleared      = fmt.Errorf("only cleared cheques can be reconciled: %w", ErrInvalidStateTransition)
	ErrChequeCannotBounce    = fmt.Errorf("cheque cannot be bounced in its current state: %w", ErrInvalidStateTransition)
	ErrChequeCannotCancel    = fmt.Errorf("only uncleared cheques can be cancelled: %w", ErrInvalidStateTransition)
	ErrChequeLocked          = fmt.Errorf("cheque can no longer be modified: %w", ErrInvalidStateTransition)

	// History errors
	ErrUnknownAggregate = fmt.Errorf("unknown aggregate type: %w", ErrValidation)
)

// Kind classifies an error into the engine's failure taxonomy.
type Kind string

const (
	KindNotFound               Kind = "not_found"
	KindInvalidStateTransition Kind = "invalid_state_transition"
	KindDuplicateResource      Kind = "duplicate_resource"
	KindConcurrencyConflict    Kind = "concurrency_conflict"
	KindValidation             Kind = "validation"
	KindInternal               Kind = "internal"
)

// KindOf reports which taxonomy kind err belongs to. Errors that wrap none of
// the kind sentinels are internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidStateTransition):
		return KindInvalidStateTransition
	case errors.Is(err, ErrDuplicateResource):
		return KindDuplicateResource
	case errors.Is(err, ErrConcurrencyConflict):
		return KindConcurrencyConflict
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindInternal
	}
}
