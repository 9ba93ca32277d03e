package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

const paymentColumns = `
	p.seq, p.id, p.organization_id, p.amount, p.received_date, p.method,
	p.reference, p.charge_id, p.reconciled, p.created_at,
	COALESCE(m.reconciliation_id, ''), COALESCE(m.bank_transaction_id, '')
`

const paymentFrom = `
	FROM payments p
	LEFT JOIN reconciliation_matches m ON m.payment_id = p.id
`

// CreatePayment inserts a payment
func (s *Storage) CreatePayment(ctx context.Context, p *model.Payment) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO payments
	(id, organization_id, amount, received_date, method, reference, charge_id, reconciled, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.q.ExecContext(ctx, query,
		p.ID,
		p.OrganizationID,
		p.Amount,
		p.ReceivedDate,
		string(p.Method),
		p.Reference,
		p.ChargeID,
		p.Reconciled,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", mapError(err))
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return err
	}
	p.Seq = seq

	return nil
}

// GetPayment retrieves a payment by ID within an organization
func (s *Storage) GetPayment(ctx context.Context, orgID, id string) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + paymentFrom + ` WHERE p.organization_id = ? AND p.id = ?`

	p, err := scanPayment(s.q.QueryRowContext(ctx, query, orgID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFoundf("payment %s", id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPayments returns payments matching the filters in insertion order
func (s *Storage) ListPayments(ctx context.Context, filters PaymentFilters) (*PaymentListResult, error) {
	conds := []string{"p.organization_id = ?"}
	args := []any{filters.OrganizationID}

	if !filters.From.IsZero() {
		conds = append(conds, "p.received_date >= ?")
		args = append(args, filters.From)
	}
	if !filters.To.IsZero() {
		conds = append(conds, "p.received_date <= ?")
		args = append(args, filters.To)
	}
	if filters.Reconciled != nil {
		conds = append(conds, "p.reconciled = ?")
		args = append(args, *filters.Reconciled)
	}
	if filters.Method != "" {
		conds = append(conds, "p.method = ?")
		args = append(args, string(filters.Method))
	}

	where := whereClause(conds)

	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*)`+paymentFrom+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	query := `SELECT ` + paymentColumns + paymentFrom + where +
		` ORDER BY p.seq ASC` + pageClause(filters.Limit, filters.Offset)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	payments := make([]*model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &PaymentListResult{
		Payments:   payments,
		TotalCount: total,
		Limit:      filters.Limit,
		Offset:     filters.Offset,
	}, nil
}

// MarkPaymentReconciled flips the reconciled flag. The WHERE clause makes the
// update a compare-and-set so two writers cannot both claim the payment.
func (s *Storage) MarkPaymentReconciled(ctx context.Context, orgID, id string) error {
	result, err := s.q.ExecContext(ctx,
		`UPDATE payments SET reconciled = 1 WHERE organization_id = ? AND id = ? AND reconciled = 0`,
		orgID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark payment reconciled: %w", mapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	// Nothing updated: either unknown or already reconciled
	if _, err := s.GetPayment(ctx, orgID, id); err != nil {
		return err
	}
	return model.Conflictf("payment %s is already reconciled", id)
}

func scanPayment(row rowScanner) (*model.Payment, error) {
	p := &model.Payment{}
	var method string
	err := row.Scan(
		&p.Seq,
		&p.ID,
		&p.OrganizationID,
		&p.Amount,
		&p.ReceivedDate,
		&method,
		&p.Reference,
		&p.ChargeID,
		&p.Reconciled,
		&p.CreatedAt,
		&p.ReconciliationID,
		&p.BankTransactionID,
	)
	if err != nil {
		return nil, err
	}
	p.Method = model.PaymentMethod(method)
	return p, nil
}
