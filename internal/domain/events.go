package domain

import "time"

// Event types
const (
	EventTypeRegisterOpened    = "register.opened"
	EventTypeRegisterClosed    = "register.closed"
	EventTypeRegisterDeposited = "register.deposited"
	EventTypeChequeCleared     = "cheque.cleared"
	EventTypeChequeBounced     = "cheque.bounced"
)

// Aggregate types
const (
	AggregateTypeRegister = "register"
	AggregateTypeCheque   = "cheque"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// RegisterOpenedEvent payload
type RegisterOpenedEvent struct {
	RegisterID     string `json:"register_id"`
	BranchID       string `json:"branch_id"`
	OpeningBalance string `json:"opening_balance"`
	OpenedBy       string `json:"opened_by"`
}

// RegisterClosedEvent payload
type RegisterClosedEvent struct {
	RegisterID     string `json:"register_id"`
	BranchID       string `json:"branch_id"`
	Status         string `json:"status"`
	Expected       string `json:"expected_closing_balance"`
	ClosingBalance string `json:"closing_balance"`
	Discrepancy    string `json:"discrepancy"`
}

// RegisterDepositedEvent payload
type RegisterDepositedEvent struct {
	RegisterID        string `json:"register_id"`
	BranchID          string `json:"branch_id"`
	BankID            string `json:"bank_id"`
	Amount            string `json:"amount"`
	BankLedgerEntryID string `json:"bank_ledger_entry_id"`
}

// ChequeClearedEvent payload
type ChequeClearedEvent struct {
	ChequeID          string `json:"cheque_id"`
	ChequeNumber      string `json:"cheque_number"`
	BankID            string `json:"bank_id"`
	Amount            string `json:"amount"`
	BankLedgerEntryID string `json:"bank_ledger_entry_id"`
}

// ChequeBouncedEvent payload
type ChequeBouncedEvent struct {
	ChequeID        string `json:"cheque_id"`
	ChequeNumber    string `json:"cheque_number"`
	BankID          string `json:"bank_id"`
	Amount          string `json:"amount"`
	Reason          string `json:"reason"`
	ReversalEntryID string `json:"reversal_entry_id,omitempty"`
}
