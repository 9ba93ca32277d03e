package matcher

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
)

// Helper to create test payment
func makePayment(id string, seq int64, amount string, date model.Date) *model.Payment {
	return &model.Payment{
		ID:           id,
		Seq:          seq,
		Amount:       decimal.RequireFromString(amount),
		ReceivedDate: date,
		Method:       model.MethodCheck,
	}
}

// Helper to create test bank transaction
func makeTransaction(id string, seq int64, amount string, date model.Date) *model.BankTransaction {
	return &model.BankTransaction{
		ID:          id,
		Seq:         seq,
		Amount:      decimal.RequireFromString(amount),
		Date:        date,
		Description: "deposit",
	}
}

func jan(day int) model.Date {
	return model.NewDate(2024, time.January, day)
}

func TestMatcher_NextDayMatch(t *testing.T) {
	// Arrange
	m := NewMatcher(DefaultConfig())
	payments := []*model.Payment{makePayment("p1", 1, "100.00", jan(15))}
	transactions := []*model.BankTransaction{makeTransaction("t1", 1, "100.00", jan(16))}

	// Act
	result := m.Reconcile(payments, transactions)

	// Assert
	require.Len(t, result.Pairs, 1)
	assert.Equal(t, "p1", result.Pairs[0].Payment.ID)
	assert.Equal(t, "t1", result.Pairs[0].BankTransaction.ID)
	assert.Equal(t, 1, result.Pairs[0].DateDiff)
	assert.True(t, result.Summary.Difference.IsZero())
	assert.Empty(t, result.UnmatchedPayments)
	assert.Empty(t, result.UnmatchedBankTransactions)
}

func TestMatcher_OutsideDateTolerance_NoMatch(t *testing.T) {
	// Arrange - 5 day gap exceeds the 3 day window
	m := NewMatcher(DefaultConfig())
	payments := []*model.Payment{makePayment("p1", 1, "100.00", jan(15))}
	transactions := []*model.BankTransaction{makeTransaction("t1", 1, "100.00", jan(20))}

	// Act
	result := m.Reconcile(payments, transactions)

	// Assert
	assert.Empty(t, result.Pairs)
	require.Len(t, result.UnmatchedPayments, 1)
	require.Len(t, result.UnmatchedBankTransactions, 1)
	assert.Equal(t, "p1", result.UnmatchedPayments[0].ID)
	assert.Equal(t, "t1", result.UnmatchedBankTransactions[0].ID)
}

func TestMatcher_DateToleranceBoundary(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	tests := []struct {
		name      string
		bankDate  model.Date
		wantMatch bool
	}{
		{"same day", jan(15), true},
		{"three days after", jan(18), true},
		{"three days before", jan(12), true},
		{"four days after", jan(19), false},
		{"four days before", jan(11), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := []*model.Payment{makePayment("p1", 1, "42.00", jan(15))}
			transactions := []*model.BankTransaction{makeTransaction("t1", 1, "42.00", tt.bankDate)}

			pairs := m.Match(payments, transactions)

			if tt.wantMatch {
				assert.Len(t, pairs, 1)
			} else {
				assert.Empty(t, pairs)
			}
		})
	}
}

func TestMatcher_AmountMustBeExact(t *testing.T) {
	// Arrange - one cent off never matches
	m := NewMatcher(DefaultConfig())
	payments := []*model.Payment{makePayment("p1", 1, "100.00", jan(15))}
	transactions := []*model.BankTransaction{
		makeTransaction("t1", 1, "100.01", jan(15)),
		makeTransaction("t2", 2, "99.99", jan(15)),
	}

	// Act
	pairs := m.Match(payments, transactions)

	// Assert
	assert.Empty(t, pairs)
}

func TestMatcher_AmountEqualityIgnoresScale(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	payments := []*model.Payment{makePayment("p1", 1, "100", jan(15))}
	transactions := []*model.BankTransaction{makeTransaction("t1", 1, "100.00", jan(15))}

	pairs := m.Match(payments, transactions)

	assert.Len(t, pairs, 1)
}

func TestMatcher_TwoPaymentsOneTransaction(t *testing.T) {
	// Arrange - two identical payments compete for one deposit
	m := NewMatcher(DefaultConfig())
	payments := []*model.Payment{
		makePayment("p2", 2, "50.00", jan(10)),
		makePayment("p1", 1, "50.00", jan(10)),
	}
	transactions := []*model.BankTransaction{makeTransaction("t1", 1, "50.00", jan(10))}

	// Act
	result := m.Reconcile(payments, transactions)

	// Assert - exactly one match, earliest-created payment wins
	require.Len(t, result.Pairs, 1)
	assert.Equal(t, "p1", result.Pairs[0].Payment.ID)
	require.Len(t, result.UnmatchedPayments, 1)
	assert.Equal(t, "p2", result.UnmatchedPayments[0].ID)
	assert.Empty(t, result.UnmatchedBankTransactions)
}

func TestMatcher_PrefersClosestDate(t *testing.T) {
	// Arrange
	m := NewMatcher(DefaultConfig())
	payments := []*model.Payment{makePayment("p1", 1, "75.00", jan(15))}
	transactions := []*model.BankTransaction{
		makeTransaction("t-far", 1, "75.00", jan(18)),
		makeTransaction("t-near", 2, "75.00", jan(16)),
	}

	// Act
	pairs := m.Match(payments, transactions)

	// Assert
	require.Len(t, pairs, 1)
	assert.Equal(t, "t-near", pairs[0].BankTransaction.ID)
	assert.Equal(t, 1, pairs[0].DateDiff)
}

func TestMatcher_TieBreakEarliestTransaction(t *testing.T) {
	// Arrange - both deposits are one day away, the older import wins
	m := NewMatcher(DefaultConfig())
	payments := []*model.Payment{makePayment("p1", 1, "75.00", jan(15))}
	transactions := []*model.BankTransaction{
		makeTransaction("t-after", 9, "75.00", jan(16)),
		makeTransaction("t-before", 4, "75.00", jan(14)),
	}

	// Act
	pairs := m.Match(payments, transactions)

	// Assert
	require.Len(t, pairs, 1)
	assert.Equal(t, "t-before", pairs[0].BankTransaction.ID)
}

func TestMatcher_ClosestPairClaimsTransactionFirst(t *testing.T) {
	// Arrange - p1 is older but p2 is on the same day as the deposit.
	// Global sorting assigns the deposit to p2, leaving p1 free for t2.
	m := NewMatcher(DefaultConfig())
	payments := []*model.Payment{
		makePayment("p1", 1, "20.00", jan(12)),
		makePayment("p2", 2, "20.00", jan(14)),
	}
	transactions := []*model.BankTransaction{
		makeTransaction("t1", 1, "20.00", jan(14)),
		makeTransaction("t2", 2, "20.00", jan(11)),
	}

	// Act
	pairs := m.Match(payments, transactions)

	// Assert
	require.Len(t, pairs, 2)
	byPayment := make(map[string]string)
	for _, p := range pairs {
		byPayment[p.Payment.ID] = p.BankTransaction.ID
	}
	assert.Equal(t, "t1", byPayment["p2"])
	assert.Equal(t, "t2", byPayment["p1"])
}

func TestMatcher_NoTransactionUsedTwice(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	payments := make([]*model.Payment, 0)
	transactions := make([]*model.BankTransaction, 0)
	for i := 1; i <= 10; i++ {
		payments = append(payments, makePayment(fmt.Sprintf("p%02d", i), int64(i), "10.00", jan(10+i%3)))
	}
	for i := 1; i <= 6; i++ {
		transactions = append(transactions, makeTransaction(fmt.Sprintf("t%02d", i), int64(i), "10.00", jan(10+i%4)))
	}

	pairs := m.Match(payments, transactions)

	assert.Len(t, pairs, 6)
	seenPayments := make(map[string]bool)
	seenTransactions := make(map[string]bool)
	for _, p := range pairs {
		assert.False(t, seenPayments[p.Payment.ID], "payment %s matched twice", p.Payment.ID)
		assert.False(t, seenTransactions[p.BankTransaction.ID], "transaction %s matched twice", p.BankTransaction.ID)
		seenPayments[p.Payment.ID] = true
		seenTransactions[p.BankTransaction.ID] = true
	}
}

func TestMatcher_OrderIndependent(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	payments := []*model.Payment{
		makePayment("p1", 1, "10.00", jan(10)),
		makePayment("p2", 2, "10.00", jan(11)),
		makePayment("p3", 3, "25.50", jan(12)),
		makePayment("p4", 4, "10.00", jan(13)),
	}
	transactions := []*model.BankTransaction{
		makeTransaction("t1", 1, "10.00", jan(12)),
		makeTransaction("t2", 2, "25.50", jan(14)),
		makeTransaction("t3", 3, "10.00", jan(10)),
	}

	baseline := pairKeys(m.Match(payments, transactions))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		ps := append([]*model.Payment(nil), payments...)
		ts := append([]*model.BankTransaction(nil), transactions...)
		rng.Shuffle(len(ps), func(a, b int) { ps[a], ps[b] = ps[b], ps[a] })
		rng.Shuffle(len(ts), func(a, b int) { ts[a], ts[b] = ts[b], ts[a] })

		assert.Equal(t, baseline, pairKeys(m.Match(ps, ts)))
	}
}

func TestMatcher_CustomTolerance(t *testing.T) {
	m := NewMatcher(Config{DateToleranceDays: 0})
	payments := []*model.Payment{makePayment("p1", 1, "10.00", jan(10))}
	transactions := []*model.BankTransaction{makeTransaction("t1", 1, "10.00", jan(11))}

	assert.Empty(t, m.Match(payments, transactions))
	assert.Equal(t, 0, m.Config().DateToleranceDays)
}

func TestMatcher_EmptyInputs(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	result := m.Reconcile(nil, nil)

	assert.Empty(t, result.Pairs)
	assert.Empty(t, result.UnmatchedPayments)
	assert.Empty(t, result.UnmatchedBankTransactions)
	assert.True(t, result.Summary.ExpectedTotal.IsZero())
	assert.True(t, result.Summary.ActualTotal.IsZero())
	assert.True(t, result.Summary.Difference.IsZero())
}

func pairKeys(pairs []Pair) map[string]string {
	keys := make(map[string]string, len(pairs))
	for _, p := range pairs {
		keys[p.Payment.ID] = p.BankTransaction.ID
	}
	return keys
}
