package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// SaleRecorder is the entry point for the sales subsystem. A completed sale
// is recorded as a SALE on the branch's open register; without one the sale
// must fail.
type SaleRecorder struct {
	registers *CashRegisterUseCase
}

// NewSaleRecorder creates a new SaleRecorder.
func NewSaleRecorder(registers *CashRegisterUseCase) *SaleRecorder {
	return &SaleRecorder{registers: registers}
}

// SaleInput describes a completed sale.
type SaleInput struct {
	BranchID    string
	Amount      decimal.Decimal
	Reference   string
	Description string
}

// RecordSale returns domain.ErrNoOpenRegister when the branch has no open
// register.
func (s *SaleRecorder) RecordSale(ctx context.Context, input SaleInput, user domain.User) (*RecordTransactionResult, error) {
	return s.registers.record(ctx, domain.DirectionIn, RecordTransactionInput{
		Type:        domain.TransactionTypeSale,
		Amount:      input.Amount,
		Description: input.Description,
		Category:    domain.CashBookCategorySale,
		Reference:   input.Reference,
	}, s.registers.lockOpenRegister(input.BranchID), user)
}
