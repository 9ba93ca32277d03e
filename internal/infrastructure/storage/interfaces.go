package storage

import (
	"context"
	"time"

	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, etc.)
// and makes testing with mocks straightforward.
type Repository interface {
	PaymentRepository
	BankTransactionRepository
	ReconciliationRepository

	// InTx runs fn inside one write transaction. The repository passed to fn
	// is bound to that transaction; returning an error rolls it back.
	InTx(ctx context.Context, fn func(tx Repository) error) error

	Close() error
}

// PaymentRepository handles recorded payments
type PaymentRepository interface {
	// CreatePayment inserts a payment and fills in ID (if empty), Seq and CreatedAt
	CreatePayment(ctx context.Context, p *model.Payment) error

	// GetPayment retrieves a payment scoped to the organization (model.ErrNotFound if absent)
	GetPayment(ctx context.Context, orgID, id string) (*model.Payment, error)

	// ListPayments returns payments matching the filters in insertion order
	ListPayments(ctx context.Context, filters PaymentFilters) (*PaymentListResult, error)

	// MarkPaymentReconciled flips reconciled to true (model.ErrConflict if it already was)
	MarkPaymentReconciled(ctx context.Context, orgID, id string) error
}

// PaymentFilters defines filters for listing payments
type PaymentFilters struct {
	OrganizationID string
	From           model.Date          // Inclusive lower bound on received date (zero = unbounded)
	To             model.Date          // Inclusive upper bound on received date (zero = unbounded)
	Reconciled     *bool               // Filter by reconciled flag (nil = all)
	Method         model.PaymentMethod // Filter by method (empty = all)
	Limit          int                 // Max results (0 = no limit)
	Offset         int                 // Pagination offset
}

// PaymentListResult contains paginated payment results
type PaymentListResult struct {
	Payments   []*model.Payment
	TotalCount int
	Limit      int
	Offset     int
}

// BankTransactionRepository handles imported bank transactions
type BankTransactionRepository interface {
	// CreateBankTransaction inserts a transaction and fills in ID (if empty), Seq and CreatedAt
	CreateBankTransaction(ctx context.Context, t *model.BankTransaction) error

	// GetBankTransaction retrieves a transaction scoped to the organization (model.ErrNotFound if absent)
	GetBankTransaction(ctx context.Context, orgID, id string) (*model.BankTransaction, error)

	// ListBankTransactions returns transactions matching the filters in insertion order
	ListBankTransactions(ctx context.Context, filters BankTransactionFilters) (*BankTransactionListResult, error)
}

// BankTransactionFilters defines filters for listing bank transactions
type BankTransactionFilters struct {
	OrganizationID string
	From           model.Date // Inclusive lower bound on date (zero = unbounded)
	To             model.Date // Inclusive upper bound on date (zero = unbounded)
	Matched        *bool      // Filter by match linkage (nil = all)
	Limit          int        // Max results (0 = no limit)
	Offset         int        // Pagination offset
}

// BankTransactionListResult contains paginated bank transaction results
type BankTransactionListResult struct {
	Transactions []*model.BankTransaction
	TotalCount   int
	Limit        int
	Offset       int
}

// ReconciliationRepository handles reconciliation periods and their matches
type ReconciliationRepository interface {
	// CreateReconciliation inserts a period and fills in ID (if empty) and CreatedAt
	CreateReconciliation(ctx context.Context, r *model.Reconciliation) error

	// GetReconciliation retrieves a period scoped to the organization (model.ErrNotFound if absent)
	GetReconciliation(ctx context.Context, orgID, id string) (*model.Reconciliation, error)

	// ListReconciliations returns periods newest first
	ListReconciliations(ctx context.Context, filters ReconciliationFilters) (*ReconciliationListResult, error)

	// UpdateReconciliationTotals persists ExpectedTotal, ActualTotal and the derived Difference
	UpdateReconciliationTotals(ctx context.Context, r *model.Reconciliation) error

	// CompleteReconciliation moves an IN_PROGRESS period to COMPLETED
	// (model.ErrConflict if it is already completed)
	CompleteReconciliation(ctx context.Context, orgID, id, notes string, completedAt time.Time) error

	// CreateMatch links a payment and a bank transaction
	// (model.ErrConflict if either side is already matched)
	CreateMatch(ctx context.Context, m *model.Match) error

	// ListMatches returns the matches of a period in creation order
	ListMatches(ctx context.Context, reconciliationID string) ([]*model.Match, error)

	// ListPeriodMembers returns the in-range payments and transactions that are
	// either unmatched or matched into the given period
	ListPeriodMembers(ctx context.Context, r *model.Reconciliation) ([]*model.Payment, []*model.BankTransaction, error)
}

// ReconciliationFilters defines filters for listing periods
type ReconciliationFilters struct {
	OrganizationID string
	Status         model.ReconciliationStatus // Filter by status (empty = all)
	Limit          int                        // Max results (0 = no limit)
	Offset         int                        // Pagination offset
}

// ReconciliationListResult contains paginated period results
type ReconciliationListResult struct {
	Reconciliations []*model.Reconciliation
	TotalCount      int
	Limit           int
	Offset          int
}

// BoolPtr is a convenience for building optional boolean filters.
func BoolPtr(v bool) *bool {
	return &v
}
