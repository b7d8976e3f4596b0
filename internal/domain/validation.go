package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxNameLength        = 255
	MaxChequeNumberLen   = 64
	MaxDescriptionLength = 1000
	MaxAmount            = "1000000000000" // 1 trillion
	MoneyScale           = 2
)

var maxAmount = decimal.RequireFromString(MaxAmount)

// ValidateAmount checks a movement amount: strictly positive, at most two
// decimal places and below MaxAmount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	return validateMoney(amount)
}

// ValidateNonNegativeAmount is ValidateAmount with zero allowed, used for
// opening floats and physical counts.
func ValidateNonNegativeAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}

	return validateMoney(amount)
}

func validateMoney(amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(MoneyScale)) {
		return ErrAmountPrecision
	}

	if amount.Abs().GreaterThan(maxAmount) {
		return fmt.Errorf("amount exceeds maximum of %s: %w", MaxAmount, ErrValidation)
	}

	return nil
}

// ValidateName validates a required, bounded free-text field.
func ValidateName(field, value string) error {
	value = strings.TrimSpace(value)

	if value == "" {
		return fmt.Errorf("%s cannot be empty: %w", field, ErrValidation)
	}

	if len(value) > MaxNameLength {
		return fmt.Errorf("%s exceeds %d characters: %w", field, MaxNameLength, ErrValidation)
	}

	return nil
}

// ValidateChequeNumber validates a cheque number.
func ValidateChequeNumber(number string) error {
	number = strings.TrimSpace(number)

	if number == "" {
		return ErrInvalidChequeNumber
	}

	if len(number) > MaxChequeNumberLen {
		return fmt.Errorf("cheque number exceeds %d characters: %w", MaxChequeNumberLen, ErrValidation)
	}

	return nil
}

// ValidateDateRange checks that start is not after end.
func ValidateDateRange(start, end time.Time) error {
	if DateOf(start).After(DateOf(end)) {
		return ErrInvalidDateRange
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
