package matcher

import (
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
)

// Summarize computes period totals. Difference is always ActualTotal - ExpectedTotal.
func Summarize(payments []*model.Payment, transactions []*model.BankTransaction) Summary {
	expected := decimal.Zero
	for _, p := range payments {
		expected = expected.Add(p.Amount)
	}

	actual := decimal.Zero
	for _, t := range transactions {
		actual = actual.Add(t.Amount)
	}

	return Summary{
		ExpectedTotal: expected,
		ActualTotal:   actual,
		Difference:    actual.Sub(expected),
	}
}
