package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in slices, making tests fast and isolated. Rows are
// copied on the way in and out so test mutations never leak into the store.
type MockRepository struct {
	mu   sync.Mutex
	txMu sync.Mutex

	payments        []model.Payment
	transactions    []model.BankTransaction
	reconciliations []model.Reconciliation
	matches         []model.Match
	nextSeq         int64

	// Hooks for test assertions
	InTxCalls         int
	CreateMatchCalls  int
	LastCreatedPeriod *model.Reconciliation
	CompleteCalls     int

	// Error injection for testing error paths
	CreatePaymentErr         error
	CreateBankTransactionErr error
	CreateReconciliationErr  error
	CreateMatchErr           error
	ListPaymentsErr          error
	ListBankTransactionsErr  error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		payments:        make([]model.Payment, 0),
		transactions:    make([]model.BankTransaction, 0),
		reconciliations: make([]model.Reconciliation, 0),
		matches:         make([]model.Match, 0),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// InTx serializes fn against other transactions and restores the previous
// state if fn fails.
func (m *MockRepository) InTx(ctx context.Context, fn func(tx Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	m.InTxCalls++
	snapshot := m.snapshot()
	m.mu.Unlock()

	if err := fn(&mockTx{m}); err != nil {
		m.mu.Lock()
		m.restore(snapshot)
		m.mu.Unlock()
		return err
	}
	return nil
}

// mockTx is the repository handed to InTx callbacks; nested InTx calls join
// the outer transaction instead of waiting on txMu.
type mockTx struct {
	*MockRepository
}

func (t *mockTx) InTx(ctx context.Context, fn func(tx Repository) error) error {
	return fn(t)
}

type mockState struct {
	payments        []model.Payment
	transactions    []model.BankTransaction
	reconciliations []model.Reconciliation
	matches         []model.Match
	nextSeq         int64
}

func (m *MockRepository) snapshot() mockState {
	return mockState{
		payments:        append([]model.Payment(nil), m.payments...),
		transactions:    append([]model.BankTransaction(nil), m.transactions...),
		reconciliations: append([]model.Reconciliation(nil), m.reconciliations...),
		matches:         append([]model.Match(nil), m.matches...),
		nextSeq:         m.nextSeq,
	}
}

func (m *MockRepository) restore(s mockState) {
	m.payments = s.payments
	m.transactions = s.transactions
	m.reconciliations = s.reconciliations
	m.matches = s.matches
	m.nextSeq = s.nextSeq
}

// ================================================================
// PAYMENTS
// ================================================================

// CreatePayment stores a copy of the payment
func (m *MockRepository) CreatePayment(ctx context.Context, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreatePaymentErr != nil {
		return m.CreatePaymentErr
	}
	if p.ID == "" {
		p.ID = newID()
	}
	for _, existing := range m.payments {
		if existing.ID == p.ID {
			return model.Conflictf("payment %s already exists", p.ID)
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.nextSeq++
	p.Seq = m.nextSeq

	stored := *p
	stored.ReconciliationID = ""
	stored.BankTransactionID = ""
	m.payments = append(m.payments, stored)
	return nil
}

// GetPayment returns a copy of the payment
func (m *MockRepository) GetPayment(ctx context.Context, orgID, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getPayment(orgID, id)
}

func (m *MockRepository) getPayment(orgID, id string) (*model.Payment, error) {
	for _, p := range m.payments {
		if p.OrganizationID == orgID && p.ID == id {
			return m.linkPayment(p), nil
		}
	}
	return nil, model.NotFoundf("payment %s", id)
}

// ListPayments filters payments in insertion order
func (m *MockRepository) ListPayments(ctx context.Context, filters PaymentFilters) (*PaymentListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListPaymentsErr != nil {
		return nil, m.ListPaymentsErr
	}

	filtered := make([]*model.Payment, 0)
	for _, p := range m.payments {
		if p.OrganizationID != filters.OrganizationID {
			continue
		}
		if !filters.From.IsZero() && p.ReceivedDate.Before(filters.From.Time) {
			continue
		}
		if !filters.To.IsZero() && p.ReceivedDate.After(filters.To.Time) {
			continue
		}
		if filters.Reconciled != nil && p.Reconciled != *filters.Reconciled {
			continue
		}
		if filters.Method != "" && p.Method != filters.Method {
			continue
		}
		filtered = append(filtered, m.linkPayment(p))
	}

	return &PaymentListResult{
		Payments:   paginate(filtered, filters.Limit, filters.Offset),
		TotalCount: len(filtered),
		Limit:      filters.Limit,
		Offset:     filters.Offset,
	}, nil
}

// MarkPaymentReconciled flips the reconciled flag
func (m *MockRepository) MarkPaymentReconciled(ctx context.Context, orgID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.payments {
		p := &m.payments[i]
		if p.OrganizationID != orgID || p.ID != id {
			continue
		}
		if p.Reconciled {
			return model.Conflictf("payment %s is already reconciled", id)
		}
		p.Reconciled = true
		return nil
	}
	return model.NotFoundf("payment %s", id)
}

func (m *MockRepository) linkPayment(p model.Payment) *model.Payment {
	for _, match := range m.matches {
		if match.PaymentID == p.ID {
			p.ReconciliationID = match.ReconciliationID
			p.BankTransactionID = match.BankTransactionID
		}
	}
	return &p
}

// ================================================================
// BANK TRANSACTIONS
// ================================================================

// CreateBankTransaction stores a copy of the transaction
func (m *MockRepository) CreateBankTransaction(ctx context.Context, t *model.BankTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateBankTransactionErr != nil {
		return m.CreateBankTransactionErr
	}
	if t.ID == "" {
		t.ID = newID()
	}
	for _, existing := range m.transactions {
		if existing.ID == t.ID {
			return model.Conflictf("bank transaction %s already exists", t.ID)
		}
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	m.nextSeq++
	t.Seq = m.nextSeq

	stored := *t
	stored.ReconciliationID = ""
	stored.PaymentID = ""
	m.transactions = append(m.transactions, stored)
	return nil
}

// GetBankTransaction returns a copy of the transaction
func (m *MockRepository) GetBankTransaction(ctx context.Context, orgID, id string) (*model.BankTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.transactions {
		if t.OrganizationID == orgID && t.ID == id {
			return m.linkTransaction(t), nil
		}
	}
	return nil, model.NotFoundf("bank transaction %s", id)
}

// ListBankTransactions filters transactions in insertion order
func (m *MockRepository) ListBankTransactions(ctx context.Context, filters BankTransactionFilters) (*BankTransactionListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListBankTransactionsErr != nil {
		return nil, m.ListBankTransactionsErr
	}

	filtered := make([]*model.BankTransaction, 0)
	for _, raw := range m.transactions {
		if raw.OrganizationID != filters.OrganizationID {
			continue
		}
		if !filters.From.IsZero() && raw.Date.Before(filters.From.Time) {
			continue
		}
		if !filters.To.IsZero() && raw.Date.After(filters.To.Time) {
			continue
		}
		t := m.linkTransaction(raw)
		if filters.Matched != nil && t.Matched() != *filters.Matched {
			continue
		}
		filtered = append(filtered, t)
	}

	return &BankTransactionListResult{
		Transactions: paginate(filtered, filters.Limit, filters.Offset),
		TotalCount:   len(filtered),
		Limit:        filters.Limit,
		Offset:       filters.Offset,
	}, nil
}

func (m *MockRepository) linkTransaction(t model.BankTransaction) *model.BankTransaction {
	for _, match := range m.matches {
		if match.BankTransactionID == t.ID {
			t.ReconciliationID = match.ReconciliationID
			t.PaymentID = match.PaymentID
		}
	}
	return &t
}

// ================================================================
// RECONCILIATIONS
// ================================================================

// CreateReconciliation stores a copy of the period
func (m *MockRepository) CreateReconciliation(ctx context.Context, r *model.Reconciliation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateReconciliationErr != nil {
		return m.CreateReconciliationErr
	}
	if r.ID == "" {
		r.ID = newID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = model.StatusInProgress
	}
	r.SetTotals(r.ExpectedTotal, r.ActualTotal)

	stored := *r
	m.reconciliations = append(m.reconciliations, stored)
	m.LastCreatedPeriod = &stored
	return nil
}

// GetReconciliation returns a copy of the period
func (m *MockRepository) GetReconciliation(ctx context.Context, orgID, id string) (*model.Reconciliation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getReconciliation(orgID, id)
}

func (m *MockRepository) getReconciliation(orgID, id string) (*model.Reconciliation, error) {
	for _, r := range m.reconciliations {
		if r.OrganizationID == orgID && r.ID == id {
			return m.countMatches(r), nil
		}
	}
	return nil, model.NotFoundf("reconciliation %s", id)
}

// ListReconciliations returns periods newest first
func (m *MockRepository) ListReconciliations(ctx context.Context, filters ReconciliationFilters) (*ReconciliationListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	filtered := make([]*model.Reconciliation, 0)
	for i := len(m.reconciliations) - 1; i >= 0; i-- {
		r := m.reconciliations[i]
		if r.OrganizationID != filters.OrganizationID {
			continue
		}
		if filters.Status != "" && r.Status != filters.Status {
			continue
		}
		filtered = append(filtered, m.countMatches(r))
	}

	return &ReconciliationListResult{
		Reconciliations: paginate(filtered, filters.Limit, filters.Offset),
		TotalCount:      len(filtered),
		Limit:           filters.Limit,
		Offset:          filters.Offset,
	}, nil
}

// UpdateReconciliationTotals stores new totals
func (m *MockRepository) UpdateReconciliationTotals(ctx context.Context, r *model.Reconciliation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.SetTotals(r.ExpectedTotal, r.ActualTotal)
	for i := range m.reconciliations {
		stored := &m.reconciliations[i]
		if stored.OrganizationID == r.OrganizationID && stored.ID == r.ID {
			stored.SetTotals(r.ExpectedTotal, r.ActualTotal)
			return nil
		}
	}
	return model.NotFoundf("reconciliation %s", r.ID)
}

// CompleteReconciliation marks an IN_PROGRESS period completed
func (m *MockRepository) CompleteReconciliation(ctx context.Context, orgID, id, notes string, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CompleteCalls++
	for i := range m.reconciliations {
		r := &m.reconciliations[i]
		if r.OrganizationID != orgID || r.ID != id {
			continue
		}
		if r.Completed() {
			return model.Conflictf("reconciliation %s is already completed", id)
		}
		r.Status = model.StatusCompleted
		r.Notes = notes
		at := completedAt
		r.CompletedAt = &at
		return nil
	}
	return model.NotFoundf("reconciliation %s", id)
}

// CreateMatch stores a match, enforcing one match per side
func (m *MockRepository) CreateMatch(ctx context.Context, match *model.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateMatchCalls++
	if m.CreateMatchErr != nil {
		return m.CreateMatchErr
	}
	for _, existing := range m.matches {
		if existing.PaymentID == match.PaymentID {
			return model.Conflictf("payment %s is already matched", match.PaymentID)
		}
		if existing.BankTransactionID == match.BankTransactionID {
			return model.Conflictf("bank transaction %s is already matched", match.BankTransactionID)
		}
	}
	if match.ID == "" {
		match.ID = newID()
	}
	if match.CreatedAt.IsZero() {
		match.CreatedAt = time.Now().UTC()
	}
	m.matches = append(m.matches, *match)
	return nil
}

// ListMatches returns copies of a period's matches
func (m *MockRepository) ListMatches(ctx context.Context, reconciliationID string) ([]*model.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matches := make([]*model.Match, 0)
	for _, match := range m.matches {
		if match.ReconciliationID == reconciliationID {
			copied := match
			matches = append(matches, &copied)
		}
	}
	return matches, nil
}

// ListPeriodMembers mirrors the SQLite membership rule
func (m *MockRepository) ListPeriodMembers(ctx context.Context, r *model.Reconciliation) ([]*model.Payment, []*model.BankTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	payments := make([]*model.Payment, 0)
	for _, raw := range m.payments {
		if raw.OrganizationID != r.OrganizationID || !raw.ReceivedDate.Within(r.StartDate, r.EndDate) {
			continue
		}
		p := m.linkPayment(raw)
		if !p.Reconciled || p.ReconciliationID == r.ID {
			payments = append(payments, p)
		}
	}

	transactions := make([]*model.BankTransaction, 0)
	for _, raw := range m.transactions {
		if raw.OrganizationID != r.OrganizationID || !raw.Date.Within(r.StartDate, r.EndDate) {
			continue
		}
		t := m.linkTransaction(raw)
		if !t.Matched() || t.ReconciliationID == r.ID {
			transactions = append(transactions, t)
		}
	}

	return payments, transactions, nil
}

func (m *MockRepository) countMatches(r model.Reconciliation) *model.Reconciliation {
	r.MatchedCount = 0
	for _, match := range m.matches {
		if match.ReconciliationID == r.ID {
			r.MatchedCount++
		}
	}
	return &r
}

// ================================================================
// TEST HELPERS
// ================================================================

// AddPayment seeds a payment (bypasses error injection)
func (m *MockRepository) AddPayment(p *model.Payment) {
	saved := m.CreatePaymentErr
	m.CreatePaymentErr = nil
	_ = m.CreatePayment(context.Background(), p)
	m.CreatePaymentErr = saved
}

// AddBankTransaction seeds a bank transaction (bypasses error injection)
func (m *MockRepository) AddBankTransaction(t *model.BankTransaction) {
	saved := m.CreateBankTransactionErr
	m.CreateBankTransactionErr = nil
	_ = m.CreateBankTransaction(context.Background(), t)
	m.CreateBankTransactionErr = saved
}

// AllMatches returns every stored match sorted by payment ID
func (m *MockRepository) AllMatches() []model.Match {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := append([]model.Match(nil), m.matches...)
	sort.Slice(all, func(i, j int) bool { return all[i].PaymentID < all[j].PaymentID })
	return all
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return make([]T, 0)
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
