package domain

import (
	"encoding/json"
	"time"
)

// AuditLog is one audit trail row, written in the same transaction as the
// change it describes.
type AuditLog struct {
	ID           string
	UserID       string // Who performed the action
	Action       string // register.open, cheque.bounce, ...
	ResourceType string // register, cheque, bank
	ResourceID   string
	RequestID    string
	BeforeState  JSON
	AfterState   JSON
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	// Bank actions
	AuditActionBankCreate     AuditAction = "bank.create"
	AuditActionBankUpdate     AuditAction = "bank.update"
	AuditActionBankDeactivate AuditAction = "bank.deactivate"

	// Register actions
	AuditActionRegisterOpen        AuditAction = "register.open"
	AuditActionRegisterTransaction AuditAction = "register.transaction"
	AuditActionRegisterClose       AuditAction = "register.close"
	AuditActionRegisterDeposit     AuditAction = "register.deposit"
	AuditActionRegisterDelete      AuditAction = "register.delete"

	// Cheque actions
	AuditActionChequeCreate    AuditAction = "cheque.create"
	AuditActionChequeUpdate    AuditAction = "cheque.update"
	AuditActionChequeDeposit   AuditAction = "cheque.deposit"
	AuditActionChequeClear     AuditAction = "cheque.clear"
	AuditActionChequeBounce    AuditAction = "cheque.bounce"
	AuditActionChequeCancel    AuditAction = "cheque.cancel"
	AuditActionChequeReconcile AuditAction = "cheque.reconcile"
	AuditActionChequeDelete    AuditAction = "cheque.delete"
)

// Resource types used in audit rows.
const (
	ResourceTypeBank     = "bank"
	ResourceTypeRegister = "register"
	ResourceTypeCheque   = "cheque"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}
