// Package validator checks payment, bank transaction and date-range input
// before it reaches the matcher or storage.
//
// Every failure wraps model.ErrValidation so callers can map it with errors.Is.
package validator

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
)

// MaxFractionDigits is the currency minor-unit precision.
const MaxFractionDigits = 2

// MaxIntegerDigits bounds the whole-currency part of an amount.
const MaxIntegerDigits = 12

// maxScale is the most fraction digits accepted before the precision check
// reports them.
const maxScale = 8

var (
	amountPattern = regexp.MustCompile(`^[-+]?[0-9]{1,12}(\.[0-9]{1,8})?$`)
	maxAmount     = decimal.New(1, MaxIntegerDigits)
)

// ParseAmount parses a plain decimal amount such as "125.50". Exponent
// notation and more than MaxIntegerDigits whole digits are rejected.
func ParseAmount(raw string) (decimal.Decimal, error) {
	if !amountPattern.MatchString(raw) {
		return decimal.Zero, model.Validationf("invalid amount %q", raw)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, model.Validationf("invalid amount %q", raw)
	}
	return amount, nil
}

// ValidateRange checks that both dates are set and start is not after end.
func ValidateRange(start, end model.Date) error {
	if start.IsZero() {
		return model.Validationf("start date is required")
	}
	if end.IsZero() {
		return model.Validationf("end date is required")
	}
	if start.After(end.Time) {
		return model.Validationf("start date %s is after end date %s", start, end)
	}
	return nil
}

// ValidatePayment checks a payment before it is recorded.
func ValidatePayment(p *model.Payment) error {
	if strings.TrimSpace(p.OrganizationID) == "" {
		return model.Validationf("organization is required")
	}
	if err := validateAmount(p.Amount); err != nil {
		return err
	}
	if !p.Amount.IsPositive() {
		return model.Validationf("payment amount must be greater than zero, got %s", p.Amount)
	}
	if p.ReceivedDate.IsZero() {
		return model.Validationf("received date is required")
	}
	if !p.Method.Valid() {
		return model.Validationf("unknown payment method %q", p.Method)
	}
	return nil
}

// ValidateBankTransaction checks a bank transaction before it is imported.
// Withdrawals are negative, so only zero is rejected.
func ValidateBankTransaction(t *model.BankTransaction) error {
	if strings.TrimSpace(t.OrganizationID) == "" {
		return model.Validationf("organization is required")
	}
	if err := validateAmount(t.Amount); err != nil {
		return err
	}
	if t.Amount.IsZero() {
		return model.Validationf("bank transaction amount must be non-zero")
	}
	if t.Date.IsZero() {
		return model.Validationf("date is required")
	}
	if strings.TrimSpace(t.Description) == "" {
		return model.Validationf("description is required")
	}
	return nil
}

func validateAmount(amount decimal.Decimal) error {
	// Exponent first: Truncate and comparisons rescale the coefficient to it.
	if exp := amount.Exponent(); exp > MaxIntegerDigits || exp < -maxScale {
		return model.Validationf("amount is out of range")
	}
	if amount.Abs().GreaterThanOrEqual(maxAmount) {
		return model.Validationf("amount %s exceeds %d whole digits", amount, MaxIntegerDigits)
	}
	if !amount.Equal(amount.Truncate(MaxFractionDigits)) {
		return model.Validationf("amount %s has more than %d decimal places", amount, MaxFractionDigits)
	}
	return nil
}
