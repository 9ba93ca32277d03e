package dto

import "time"

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a healthy response stamped with the current time.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// PaymentResponse represents a payment in API responses.
type PaymentResponse struct {
	ID                string `json:"id"`
	Amount            string `json:"amount"`
	ReceivedDate      string `json:"received_date"`
	Method            string `json:"method"`
	Reference         string `json:"reference,omitempty"`
	ChargeID          string `json:"charge_id,omitempty"`
	Reconciled        bool   `json:"reconciled"`
	ReconciliationID  string `json:"reconciliation_id,omitempty"`
	BankTransactionID string `json:"bank_transaction_id,omitempty"`
	CreatedAt         string `json:"created_at"`
}

// PaymentListResponse is returned when listing payments.
type PaymentListResponse struct {
	Payments   []PaymentResponse `json:"payments"`
	TotalCount int               `json:"total_count"`
	Limit      int               `json:"limit"`
	Offset     int               `json:"offset"`
}

// BankTransactionResponse represents a bank transaction in API responses.
type BankTransactionResponse struct {
	ID               string `json:"id"`
	Amount           string `json:"amount"`
	Date             string `json:"date"`
	Description      string `json:"description"`
	Reference        string `json:"reference,omitempty"`
	Matched          bool   `json:"matched"`
	ReconciliationID string `json:"reconciliation_id,omitempty"`
	PaymentID        string `json:"payment_id,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// BankTransactionListResponse is returned when listing bank transactions.
type BankTransactionListResponse struct {
	Transactions []BankTransactionResponse `json:"transactions"`
	TotalCount   int                       `json:"total_count"`
	Limit        int                       `json:"limit"`
	Offset       int                       `json:"offset"`
}

// ImportBankTransactionsResponse is returned after a batch import.
type ImportBankTransactionsResponse struct {
	Imported     int                       `json:"imported"`
	Transactions []BankTransactionResponse `json:"transactions"`
}

// MatchResponse represents a payment/bank transaction link.
type MatchResponse struct {
	ID                string `json:"id"`
	PaymentID         string `json:"payment_id"`
	BankTransactionID string `json:"bank_transaction_id"`
	Type              string `json:"type"`
	DateDiffDays      int    `json:"date_diff_days"`
	Amount            string `json:"amount"`
	CreatedAt         string `json:"created_at"`
}

// ReconciliationResponse represents a reconciliation period.
type ReconciliationResponse struct {
	ID            string `json:"id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	ExpectedTotal string `json:"expected_total"`
	ActualTotal   string `json:"actual_total"`
	Difference    string `json:"difference"`
	Status        string `json:"status"`
	Notes         string `json:"notes,omitempty"`
	MatchedCount  int    `json:"matched_count"`
	CreatedAt     string `json:"created_at"`
	CompletedAt   string `json:"completed_at,omitempty"`
}

// ReconciliationDetailResponse is a period with its matches and the
// unmatched rows of its window.
type ReconciliationDetailResponse struct {
	Reconciliation            ReconciliationResponse    `json:"reconciliation"`
	Matches                   []MatchResponse           `json:"matches"`
	UnmatchedPayments         []PaymentResponse         `json:"unmatched_payments"`
	UnmatchedBankTransactions []BankTransactionResponse `json:"unmatched_bank_transactions"`
}

// ReconciliationListResponse is returned when listing periods.
type ReconciliationListResponse struct {
	Reconciliations []ReconciliationResponse `json:"reconciliations"`
	TotalCount      int                      `json:"total_count"`
	Limit           int                      `json:"limit"`
	Offset          int                      `json:"offset"`
}

// ManualMatchResponse is returned after a manual match.
type ManualMatchResponse struct {
	Reconciliation ReconciliationResponse `json:"reconciliation"`
	Match          MatchResponse          `json:"match"`
}

// UnmatchedResponse lists the candidates for manual matching in a range.
type UnmatchedResponse struct {
	StartDate        string                    `json:"start_date"`
	EndDate          string                    `json:"end_date"`
	Payments         []PaymentResponse         `json:"payments"`
	BankTransactions []BankTransactionResponse `json:"bank_transactions"`
}
