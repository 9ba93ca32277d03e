package matcher

import (
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
)

// Config holds matcher configuration
type Config struct {
	DateToleranceDays int // Inclusive calendar-day window (default: 3)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		DateToleranceDays: 3,
	}
}

// Pair is one automatic match produced by the matcher
type Pair struct {
	Payment         *model.Payment
	BankTransaction *model.BankTransaction
	DateDiff        int // Days between receivedDate and bank date
}

// Summary holds the aggregate totals for a reconciliation period
type Summary struct {
	ExpectedTotal decimal.Decimal // Sum of payment amounts
	ActualTotal   decimal.Decimal // Sum of bank transaction amounts
	Difference    decimal.Decimal // ActualTotal - ExpectedTotal
}

// Result is the complete outcome of one matching pass
type Result struct {
	Pairs                     []Pair
	UnmatchedPayments         []*model.Payment
	UnmatchedBankTransactions []*model.BankTransaction
	Summary                   Summary
}
