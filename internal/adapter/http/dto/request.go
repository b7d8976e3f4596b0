package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// Amounts travel as decimal strings so no value passes through a float.
func parseAmount(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%s is required: %w", field, domain.ErrValidation)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q is not a decimal: %w", field, raw, domain.ErrValidation)
	}
	return d, nil
}

// parseOptionalDate returns fallback for an empty value.
func parseOptionalDate(raw string, fallback time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	return domain.ParseDate(raw)
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// CreateBankRequest represents a request to register a bank account.
type CreateBankRequest struct {
	Name              string `json:"name"`
	AccountNumber     string `json:"account_number"`
	BranchName        string `json:"branch_name,omitempty"`
	AccountHolderName string `json:"account_holder_name,omitempty"`
	AccountType       string `json:"account_type,omitempty"`
	OpeningBalance    string `json:"opening_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateBankRequest) ToUseCaseInput() (usecase.CreateBankInput, error) {
	opening, err := parseAmount("opening_balance", r.OpeningBalance)
	if err != nil {
		return usecase.CreateBankInput{}, err
	}
	return usecase.CreateBankInput{
		Name:              r.Name,
		AccountNumber:     r.AccountNumber,
		BranchName:        r.BranchName,
		AccountHolderName: r.AccountHolderName,
		AccountType:       r.AccountType,
		OpeningBalance:    opening,
	}, nil
}

// UpdateBankRequest represents a request to edit a bank's details.
type UpdateBankRequest struct {
	Name              string `json:"name"`
	AccountNumber     string `json:"account_number"`
	BranchName        string `json:"branch_name,omitempty"`
	AccountHolderName string `json:"account_holder_name,omitempty"`
	AccountType       string `json:"account_type,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateBankRequest) ToUseCaseInput(id string) usecase.UpdateBankInput {
	return usecase.UpdateBankInput{
		ID:                id,
		Name:              r.Name,
		AccountNumber:     r.AccountNumber,
		BranchName:        r.BranchName,
		AccountHolderName: r.AccountHolderName,
		AccountType:       r.AccountType,
	}
}

// OpenRegisterRequest represents a request to open a branch register.
type OpenRegisterRequest struct {
	BranchID       string `json:"branch_id"`
	OpeningBalance string `json:"opening_balance"`
	Notes          string `json:"notes,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *OpenRegisterRequest) ToUseCaseInput() (usecase.OpenRegisterInput, error) {
	opening, err := parseAmount("opening_balance", r.OpeningBalance)
	if err != nil {
		return usecase.OpenRegisterInput{}, err
	}
	return usecase.OpenRegisterInput{
		BranchID:       r.BranchID,
		OpeningBalance: opening,
		Notes:          r.Notes,
	}, nil
}

// RecordTransactionRequest represents a cash-in or cash-out.
type RecordTransactionRequest struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Reference   string `json:"reference,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordTransactionRequest) ToUseCaseInput(registerID string) (usecase.RecordTransactionInput, error) {
	amount, err := parseAmount("amount", r.Amount)
	if err != nil {
		return usecase.RecordTransactionInput{}, err
	}
	return usecase.RecordTransactionInput{
		RegisterID:  registerID,
		Type:        domain.TransactionType(strings.ToUpper(strings.TrimSpace(r.Type))),
		Amount:      amount,
		Description: r.Description,
		Category:    r.Category,
		Reference:   r.Reference,
	}, nil
}

// CloseRegisterRequest represents the counted cash at close.
type CloseRegisterRequest struct {
	ActualClosingBalance string `json:"actual_closing_balance"`
	Notes                string `json:"notes,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CloseRegisterRequest) ToUseCaseInput(registerID string) (usecase.CloseRegisterInput, error) {
	actual, err := parseAmount("actual_closing_balance", r.ActualClosingBalance)
	if err != nil {
		return usecase.CloseRegisterInput{}, err
	}
	return usecase.CloseRegisterInput{
		RegisterID:           registerID,
		ActualClosingBalance: actual,
		Notes:                r.Notes,
	}, nil
}

// DepositRequest represents moving a closed register's cash into a bank.
type DepositRequest struct {
	BankID string `json:"bank_id"`
	Amount string `json:"amount"`
	Notes  string `json:"notes,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *DepositRequest) ToUseCaseInput(registerID string) (usecase.DepositInput, error) {
	amount, err := parseAmount("amount", r.Amount)
	if err != nil {
		return usecase.DepositInput{}, err
	}
	return usecase.DepositInput{
		RegisterID: registerID,
		BankID:     r.BankID,
		Amount:     amount,
		Notes:      r.Notes,
	}, nil
}

// SaleRequest represents a cash sale reported by the sales subsystem.
type SaleRequest struct {
	BranchID    string `json:"branch_id"`
	Amount      string `json:"amount"`
	Reference   string `json:"reference"`
	Description string `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *SaleRequest) ToUseCaseInput() (usecase.SaleInput, error) {
	amount, err := parseAmount("amount", r.Amount)
	if err != nil {
		return usecase.SaleInput{}, err
	}
	return usecase.SaleInput{
		BranchID:    r.BranchID,
		Amount:      amount,
		Reference:   r.Reference,
		Description: r.Description,
	}, nil
}

// ChequeRequest represents a received cheque, for create and update.
type ChequeRequest struct {
	ChequeNumber    string `json:"cheque_number"`
	Amount          string `json:"amount"`
	ChequeDate      string `json:"cheque_date"`
	BankID          string `json:"bank_id"`
	CustomerID      string `json:"customer_id,omitempty"`
	SupplierID      string `json:"supplier_id,omitempty"`
	ReceivedFrom    string `json:"received_from,omitempty"`
	ReferenceNumber string `json:"reference_number,omitempty"`
	Remarks         string `json:"remarks,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ChequeRequest) ToUseCaseInput() (usecase.ChequeInput, error) {
	amount, err := parseAmount("amount", r.Amount)
	if err != nil {
		return usecase.ChequeInput{}, err
	}
	chequeDate, err := domain.ParseDate(r.ChequeDate)
	if err != nil {
		return usecase.ChequeInput{}, err
	}
	return usecase.ChequeInput{
		ChequeNumber:    r.ChequeNumber,
		Amount:          amount,
		ChequeDate:      chequeDate,
		BankID:          r.BankID,
		CustomerID:      optionalString(r.CustomerID),
		SupplierID:      optionalString(r.SupplierID),
		ReceivedFrom:    r.ReceivedFrom,
		ReferenceNumber: r.ReferenceNumber,
		Remarks:         r.Remarks,
	}, nil
}

// ChequeDateRequest carries the effective date of a deposit or clearance.
// An empty date means today.
type ChequeDateRequest struct {
	Date string `json:"date,omitempty"`
}

// EffectiveDate resolves the date against now.
func (r *ChequeDateRequest) EffectiveDate(now time.Time) (time.Time, error) {
	return parseOptionalDate(r.Date, now)
}

// BounceRequest represents a bank's rejection of a cheque.
type BounceRequest struct {
	Reason string `json:"reason"`
	Date   string `json:"date,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *BounceRequest) ToUseCaseInput(chequeID string, now time.Time) (usecase.BounceInput, error) {
	date, err := parseOptionalDate(r.Date, now)
	if err != nil {
		return usecase.BounceInput{}, err
	}
	return usecase.BounceInput{
		ChequeID: chequeID,
		Reason:   r.Reason,
		Date:     date,
	}, nil
}

// CancelRequest represents withdrawing a cheque before clearance.
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// ReconciliationRequest lists the branches whose cash books are verified.
type ReconciliationRequest struct {
	BranchIDs []string `json:"branch_ids"`
}
