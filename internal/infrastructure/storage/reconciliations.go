package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
)

const reconciliationColumns = `
	r.id, r.organization_id, r.start_date, r.end_date,
	r.expected_total, r.actual_total, r.difference, r.status, r.notes,
	r.created_at, r.completed_at,
	(SELECT COUNT(*) FROM reconciliation_matches m WHERE m.reconciliation_id = r.id)
`

// CreateReconciliation inserts a reconciliation period
func (s *Storage) CreateReconciliation(ctx context.Context, r *model.Reconciliation) error {
	if r.ID == "" {
		r.ID = newID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = model.StatusInProgress
	}
	// Difference is never taken from the caller
	r.SetTotals(r.ExpectedTotal, r.ActualTotal)

	query := `
	INSERT INTO reconciliations
	(id, organization_id, start_date, end_date, expected_total, actual_total,
	 difference, status, notes, created_at, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.q.ExecContext(ctx, query,
		r.ID,
		r.OrganizationID,
		r.StartDate,
		r.EndDate,
		r.ExpectedTotal,
		r.ActualTotal,
		r.Difference,
		string(r.Status),
		r.Notes,
		r.CreatedAt,
		nullTime(r.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert reconciliation: %w", mapError(err))
	}

	return nil
}

// GetReconciliation retrieves a period by ID within an organization
func (s *Storage) GetReconciliation(ctx context.Context, orgID, id string) (*model.Reconciliation, error) {
	query := `SELECT ` + reconciliationColumns + ` FROM reconciliations r WHERE r.organization_id = ? AND r.id = ?`

	r, err := scanReconciliation(s.q.QueryRowContext(ctx, query, orgID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFoundf("reconciliation %s", id)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListReconciliations returns periods newest first
func (s *Storage) ListReconciliations(ctx context.Context, filters ReconciliationFilters) (*ReconciliationListResult, error) {
	conds := []string{"r.organization_id = ?"}
	args := []any{filters.OrganizationID}

	if filters.Status != "" {
		conds = append(conds, "r.status = ?")
		args = append(args, string(filters.Status))
	}

	where := whereClause(conds)

	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM reconciliations r`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count reconciliations: %w", err)
	}

	query := `SELECT ` + reconciliationColumns + ` FROM reconciliations r` + where +
		` ORDER BY r.seq DESC` + pageClause(filters.Limit, filters.Offset)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciliations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	periods := make([]*model.Reconciliation, 0)
	for rows.Next() {
		r, err := scanReconciliation(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &ReconciliationListResult{
		Reconciliations: periods,
		TotalCount:      total,
		Limit:           filters.Limit,
		Offset:          filters.Offset,
	}, nil
}

// UpdateReconciliationTotals persists the totals and the derived difference
func (s *Storage) UpdateReconciliationTotals(ctx context.Context, r *model.Reconciliation) error {
	r.SetTotals(r.ExpectedTotal, r.ActualTotal)

	result, err := s.q.ExecContext(ctx,
		`UPDATE reconciliations SET expected_total = ?, actual_total = ?, difference = ?
		 WHERE organization_id = ? AND id = ?`,
		r.ExpectedTotal, r.ActualTotal, r.Difference, r.OrganizationID, r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update reconciliation totals: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return model.NotFoundf("reconciliation %s", r.ID)
	}
	return nil
}

// CompleteReconciliation moves an IN_PROGRESS period to COMPLETED
func (s *Storage) CompleteReconciliation(ctx context.Context, orgID, id, notes string, completedAt time.Time) error {
	result, err := s.q.ExecContext(ctx,
		`UPDATE reconciliations SET status = ?, notes = ?, completed_at = ?
		 WHERE organization_id = ? AND id = ? AND status = ?`,
		string(model.StatusCompleted), notes, completedAt, orgID, id, string(model.StatusInProgress),
	)
	if err != nil {
		return fmt.Errorf("failed to complete reconciliation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	if _, err := s.GetReconciliation(ctx, orgID, id); err != nil {
		return err
	}
	return model.Conflictf("reconciliation %s is already completed", id)
}

// CreateMatch links a payment and a bank transaction. The UNIQUE constraints
// on payment_id and bank_transaction_id reject a second match for either side.
func (s *Storage) CreateMatch(ctx context.Context, m *model.Match) error {
	if m.ID == "" {
		m.ID = newID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO reconciliation_matches
	(id, reconciliation_id, payment_id, bank_transaction_id, match_type, date_diff_days, amount, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.q.ExecContext(ctx, query,
		m.ID,
		m.ReconciliationID,
		m.PaymentID,
		m.BankTransactionID,
		string(m.Type),
		m.DateDiffDays,
		m.Amount,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", mapError(err))
	}
	return nil
}

// ListMatches returns the matches of a period in creation order
func (s *Storage) ListMatches(ctx context.Context, reconciliationID string) ([]*model.Match, error) {
	query := `
	SELECT id, reconciliation_id, payment_id, bank_transaction_id, match_type,
	       date_diff_days, amount, created_at
	FROM reconciliation_matches
	WHERE reconciliation_id = ?
	ORDER BY seq ASC
	`

	rows, err := s.q.QueryContext(ctx, query, reconciliationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	matches := make([]*model.Match, 0)
	for rows.Next() {
		m := &model.Match{}
		var matchType string
		if err := rows.Scan(
			&m.ID,
			&m.ReconciliationID,
			&m.PaymentID,
			&m.BankTransactionID,
			&matchType,
			&m.DateDiffDays,
			&m.Amount,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		m.Type = model.MatchType(matchType)
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

// ListPeriodMembers returns the in-range payments and transactions that are
// unmatched or matched into this period. Rows matched into another period are excluded.
func (s *Storage) ListPeriodMembers(ctx context.Context, r *model.Reconciliation) ([]*model.Payment, []*model.BankTransaction, error) {
	paymentQuery := `SELECT ` + paymentColumns + paymentFrom + `
	WHERE p.organization_id = ?
	  AND p.received_date >= ? AND p.received_date <= ?
	  AND (p.reconciled = 0 OR m.reconciliation_id = ?)
	ORDER BY p.seq ASC`

	rows, err := s.q.QueryContext(ctx, paymentQuery, r.OrganizationID, r.StartDate, r.EndDate, r.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list period payments: %w", err)
	}
	payments := make([]*model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			_ = rows.Close()
			return nil, nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, nil, err
	}
	_ = rows.Close()

	txnQuery := `SELECT ` + bankTransactionColumns + bankTransactionFrom + `
	WHERE t.organization_id = ?
	  AND t.date >= ? AND t.date <= ?
	  AND (m.id IS NULL OR m.reconciliation_id = ?)
	ORDER BY t.seq ASC`

	rows, err = s.q.QueryContext(ctx, txnQuery, r.OrganizationID, r.StartDate, r.EndDate, r.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list period bank transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	transactions := make([]*model.BankTransaction, 0)
	for rows.Next() {
		t, err := scanBankTransaction(rows)
		if err != nil {
			return nil, nil, err
		}
		transactions = append(transactions, t)
	}

	return payments, transactions, rows.Err()
}

func scanReconciliation(row rowScanner) (*model.Reconciliation, error) {
	r := &model.Reconciliation{}
	var status string
	var completedAt sql.NullTime
	err := row.Scan(
		&r.ID,
		&r.OrganizationID,
		&r.StartDate,
		&r.EndDate,
		&r.ExpectedTotal,
		&r.ActualTotal,
		&r.Difference,
		&status,
		&r.Notes,
		&r.CreatedAt,
		&completedAt,
		&r.MatchedCount,
	)
	if err != nil {
		return nil, err
	}
	r.Status = model.ReconciliationStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return r, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
