// Package matcher pairs recorded payments with imported bank transactions.
//
// The matcher uses strict matching criteria:
//   - Amount must be exactly equal (decimal equality, no tolerance)
//   - Date must be within tolerance (default 3 calendar days, inclusive)
//   - Each payment and each bank transaction is used at most once
//
// Assignment is sort-then-greedy: every qualifying (payment, transaction)
// pair is sorted by date distance, then by transaction insertion order, then
// by payment insertion order, and pairs are accepted in that order while both
// sides are still free. The result does not depend on input ordering.
//
// Example usage:
//
//	m := matcher.NewMatcher(matcher.DefaultConfig())
//	result := m.Reconcile(payments, transactions)
//	for _, pair := range result.Pairs {
//		// pair.Payment was received as pair.BankTransaction
//	}
package matcher

import (
	"sort"

	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
)

// Matcher matches payments with bank transactions
type Matcher struct {
	config Config
}

// NewMatcher creates a new matcher with the given config
func NewMatcher(config Config) *Matcher {
	if config.DateToleranceDays < 0 {
		config.DateToleranceDays = 0
	}
	return &Matcher{
		config: config,
	}
}

// Config returns the matcher configuration
func (m *Matcher) Config() Config {
	return m.config
}

// Qualifies reports whether a payment and a transaction may be matched automatically.
func (m *Matcher) Qualifies(p *model.Payment, t *model.BankTransaction) bool {
	if !p.Amount.Equal(t.Amount) {
		return false
	}
	return p.ReceivedDate.DaysApart(t.Date) <= m.config.DateToleranceDays
}

// Match returns the one-to-one pairs chosen for the given candidates.
// Pairs are returned in acceptance order (closest first).
func (m *Matcher) Match(payments []*model.Payment, transactions []*model.BankTransaction) []Pair {
	candidates := make([]Pair, 0)
	for _, p := range payments {
		for _, t := range transactions {
			if !m.Qualifies(p, t) {
				continue
			}
			candidates = append(candidates, Pair{
				Payment:         p,
				BankTransaction: t,
				DateDiff:        p.ReceivedDate.DaysApart(t.Date),
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return lessPair(candidates[i], candidates[j])
	})

	usedPayments := make(map[string]bool)
	usedTransactions := make(map[string]bool)
	pairs := make([]Pair, 0)

	for _, c := range candidates {
		if usedPayments[c.Payment.ID] || usedTransactions[c.BankTransaction.ID] {
			continue
		}
		usedPayments[c.Payment.ID] = true
		usedTransactions[c.BankTransaction.ID] = true
		pairs = append(pairs, c)
	}

	return pairs
}

// Reconcile runs Match and returns the pairs, the unmatched remainder and the
// period summary computed over all inputs.
func (m *Matcher) Reconcile(payments []*model.Payment, transactions []*model.BankTransaction) *Result {
	pairs := m.Match(payments, transactions)
	unmatchedPayments, unmatchedTransactions := Unmatched(payments, transactions, pairs)

	return &Result{
		Pairs:                     pairs,
		UnmatchedPayments:         unmatchedPayments,
		UnmatchedBankTransactions: unmatchedTransactions,
		Summary:                   Summarize(payments, transactions),
	}
}

// Unmatched returns the inputs not consumed by pairs, in Seq order.
func Unmatched(payments []*model.Payment, transactions []*model.BankTransaction, pairs []Pair) ([]*model.Payment, []*model.BankTransaction) {
	usedPayments := make(map[string]bool, len(pairs))
	usedTransactions := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		usedPayments[p.Payment.ID] = true
		usedTransactions[p.BankTransaction.ID] = true
	}

	restPayments := make([]*model.Payment, 0, len(payments))
	for _, p := range payments {
		if !usedPayments[p.ID] {
			restPayments = append(restPayments, p)
		}
	}
	sort.SliceStable(restPayments, func(i, j int) bool {
		return restPayments[i].Seq < restPayments[j].Seq
	})

	restTransactions := make([]*model.BankTransaction, 0, len(transactions))
	for _, t := range transactions {
		if !usedTransactions[t.ID] {
			restTransactions = append(restTransactions, t)
		}
	}
	sort.SliceStable(restTransactions, func(i, j int) bool {
		return restTransactions[i].Seq < restTransactions[j].Seq
	})

	return restPayments, restTransactions
}

// lessPair orders candidates by date distance, then transaction age, then payment age.
// IDs break ties between rows that share a Seq (e.g. unsaved fixtures).
func lessPair(a, b Pair) bool {
	if a.DateDiff != b.DateDiff {
		return a.DateDiff < b.DateDiff
	}
	if a.BankTransaction.Seq != b.BankTransaction.Seq {
		return a.BankTransaction.Seq < b.BankTransaction.Seq
	}
	if a.BankTransaction.ID != b.BankTransaction.ID {
		return a.BankTransaction.ID < b.BankTransaction.ID
	}
	if a.Payment.Seq != b.Payment.Seq {
		return a.Payment.Seq < b.Payment.Seq
	}
	return a.Payment.ID < b.Payment.ID
}
