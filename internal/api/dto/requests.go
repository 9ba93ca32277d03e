package dto

// List pagination defaults shared by every list endpoint.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// CreateReconciliationRequest is the body of POST /api/reconciliation.
type CreateReconciliationRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ManualMatchRequest is the body of POST /api/reconciliation/{id}/match.
type ManualMatchRequest struct {
	PaymentID         string `json:"payment_id"`
	BankTransactionID string `json:"bank_transaction_id"`
}

// CompleteReconciliationRequest is the optional body of PUT /api/reconciliation/{id}/complete.
type CompleteReconciliationRequest struct {
	Notes string `json:"notes"`
}

// RecordPaymentRequest is the body of POST /api/payments.
// Amounts are decimal strings ("100.00") so no precision is lost in transit.
type RecordPaymentRequest struct {
	Amount       string `json:"amount"`
	ReceivedDate string `json:"received_date"`
	Method       string `json:"method"`
	Reference    string `json:"reference,omitempty"`
	ChargeID     string `json:"charge_id,omitempty"`
}

// BankTransactionRequest is one statement line in POST /api/bank-transactions
// and in batch imports.
type BankTransactionRequest struct {
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Reference   string `json:"reference,omitempty"`
}

// ImportBankTransactionsRequest is the JSON body of POST /api/bank-transactions/import.
type ImportBankTransactionsRequest struct {
	Transactions []BankTransactionRequest `json:"transactions"`
}
