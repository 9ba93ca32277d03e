package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
)

const bankTransactionColumns = `
	t.seq, t.id, t.organization_id, t.amount, t.date, t.description,
	t.reference, t.created_at,
	COALESCE(m.reconciliation_id, ''), COALESCE(m.payment_id, '')
`

const bankTransactionFrom = `
	FROM bank_transactions t
	LEFT JOIN reconciliation_matches m ON m.bank_transaction_id = t.id
`

// CreateBankTransaction inserts a bank transaction
func (s *Storage) CreateBankTransaction(ctx context.Context, t *model.BankTransaction) error {
	if t.ID == "" {
		t.ID = newID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO bank_transactions
	(id, organization_id, amount, date, description, reference, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.q.ExecContext(ctx, query,
		t.ID,
		t.OrganizationID,
		t.Amount,
		t.Date,
		t.Description,
		t.Reference,
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bank transaction: %w", mapError(err))
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return err
	}
	t.Seq = seq

	return nil
}

// GetBankTransaction retrieves a bank transaction by ID within an organization
func (s *Storage) GetBankTransaction(ctx context.Context, orgID, id string) (*model.BankTransaction, error) {
	query := `SELECT ` + bankTransactionColumns + bankTransactionFrom + ` WHERE t.organization_id = ? AND t.id = ?`

	t, err := scanBankTransaction(s.q.QueryRowContext(ctx, query, orgID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFoundf("bank transaction %s", id)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListBankTransactions returns bank transactions matching the filters in insertion order
func (s *Storage) ListBankTransactions(ctx context.Context, filters BankTransactionFilters) (*BankTransactionListResult, error) {
	conds := []string{"t.organization_id = ?"}
	args := []any{filters.OrganizationID}

	if !filters.From.IsZero() {
		conds = append(conds, "t.date >= ?")
		args = append(args, filters.From)
	}
	if !filters.To.IsZero() {
		conds = append(conds, "t.date <= ?")
		args = append(args, filters.To)
	}
	if filters.Matched != nil {
		if *filters.Matched {
			conds = append(conds, "m.id IS NOT NULL")
		} else {
			conds = append(conds, "m.id IS NULL")
		}
	}

	where := whereClause(conds)

	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*)`+bankTransactionFrom+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count bank transactions: %w", err)
	}

	query := `SELECT ` + bankTransactionColumns + bankTransactionFrom + where +
		` ORDER BY t.seq ASC` + pageClause(filters.Limit, filters.Offset)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	transactions := make([]*model.BankTransaction, 0)
	for rows.Next() {
		t, err := scanBankTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &BankTransactionListResult{
		Transactions: transactions,
		TotalCount:   total,
		Limit:        filters.Limit,
		Offset:       filters.Offset,
	}, nil
}

func scanBankTransaction(row rowScanner) (*model.BankTransaction, error) {
	t := &model.BankTransaction{}
	err := row.Scan(
		&t.Seq,
		&t.ID,
		&t.OrganizationID,
		&t.Amount,
		&t.Date,
		&t.Description,
		&t.Reference,
		&t.CreatedAt,
		&t.ReconciliationID,
		&t.PaymentID,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}
