// Package model defines the reconciliation entities shared by the matcher,
// the services and the storage layer.
//
// Every entity is scoped to an organization. IDs are UUID strings; Seq is the
// storage insertion order and is what "earliest created" means when the
// matcher has to break a tie.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how a payment was received.
type PaymentMethod string

const (
	MethodCheck        PaymentMethod = "CHECK"
	MethodCash         PaymentMethod = "CASH"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodManual       PaymentMethod = "MANUAL"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCheck, MethodCash, MethodBankTransfer, MethodManual:
		return true
	}
	return false
}

// ReconciliationStatus is the state of a reconciliation period.
// IN_PROGRESS -> COMPLETED is the only transition; COMPLETED is terminal.
type ReconciliationStatus string

const (
	StatusInProgress ReconciliationStatus = "IN_PROGRESS"
	StatusCompleted  ReconciliationStatus = "COMPLETED"
)

// MatchType records whether a match came from the automatic matcher or a user override.
type MatchType string

const (
	MatchAuto   MatchType = "AUTO"
	MatchManual MatchType = "MANUAL"
)

// Payment is money recorded as received by the organization.
type Payment struct {
	ID                string
	OrganizationID    string
	Seq               int64
	Amount            decimal.Decimal
	ReceivedDate      Date
	Method            PaymentMethod
	Reference         string
	ChargeID          string
	Reconciled        bool
	ReconciliationID  string
	BankTransactionID string
	CreatedAt         time.Time
}

// BankTransaction is a line imported from a bank statement.
type BankTransaction struct {
	ID               string
	OrganizationID   string
	Seq              int64
	Amount           decimal.Decimal
	Date             Date
	Description      string
	Reference        string
	ReconciliationID string
	PaymentID        string
	CreatedAt        time.Time
}

// Matched reports whether the transaction is linked to a payment.
func (t BankTransaction) Matched() bool {
	return t.PaymentID != ""
}

// Match links one payment to one bank transaction inside a reconciliation period.
type Match struct {
	ID                string
	ReconciliationID  string
	PaymentID         string
	BankTransactionID string
	Type              MatchType
	DateDiffDays      int
	Amount            decimal.Decimal
	CreatedAt         time.Time
}

// Reconciliation is a date-bounded batch in which payments are matched
// against bank transactions.
type Reconciliation struct {
	ID             string
	OrganizationID string
	StartDate      Date
	EndDate        Date
	ExpectedTotal  decimal.Decimal
	ActualTotal    decimal.Decimal
	Difference     decimal.Decimal
	Status         ReconciliationStatus
	Notes          string
	MatchedCount   int
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// Completed reports whether the period has reached its terminal state.
func (r *Reconciliation) Completed() bool {
	return r.Status == StatusCompleted
}

// SetTotals stores both totals and derives the difference from them.
func (r *Reconciliation) SetTotals(expected, actual decimal.Decimal) {
	r.ExpectedTotal = expected
	r.ActualTotal = actual
	r.Difference = actual.Sub(expected)
}
