package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/eshaffer321/reconcile-backend/internal/domain/matcher"
	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
	"github.com/eshaffer321/reconcile-backend/internal/domain/validator"
	"github.com/eshaffer321/reconcile-backend/internal/infrastructure/storage"
)

// ReconciliationReport is a period together with what was matched into it and
// what in its window is still waiting for a match.
type ReconciliationReport struct {
	Reconciliation            *model.Reconciliation
	Matches                   []*model.Match
	UnmatchedPayments         []*model.Payment
	UnmatchedBankTransactions []*model.BankTransaction
}

// ManualMatchResult is the user-created match and the period after its totals
// were recomputed.
type ManualMatchResult struct {
	Reconciliation *model.Reconciliation
	Match          *model.Match
}

// UnmatchedItems are the candidates for manual matching in a date range.
type UnmatchedItems struct {
	Payments         []*model.Payment
	BankTransactions []*model.BankTransaction
}

// ReconciliationQuery holds list parameters for periods.
type ReconciliationQuery struct {
	Status model.ReconciliationStatus
	Limit  int
	Offset int
}

// ReconciliationService runs reconciliation periods: automatic matching,
// manual overrides and completion.
type ReconciliationService struct {
	storage storage.Repository
	matcher *matcher.Matcher
	logger  *slog.Logger
	now     func() time.Time
}

// NewReconciliationService creates a new reconciliation service.
func NewReconciliationService(store storage.Repository, cfg matcher.Config, logger *slog.Logger) *ReconciliationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconciliationService{
		storage: store,
		matcher: matcher.NewMatcher(cfg),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateReconciliation opens a period for [start, end] and auto-matches every
// unreconciled payment and unmatched bank transaction in it.
//
// Loading, matching and linking happen inside one write transaction. If a
// concurrent writer claims a row first the insert fails with model.ErrConflict
// and nothing is persisted.
func (s *ReconciliationService) CreateReconciliation(ctx context.Context, orgID string, start, end model.Date) (*ReconciliationReport, error) {
	if err := requireOrganization(orgID); err != nil {
		return nil, err
	}
	if err := validator.ValidateRange(start, end); err != nil {
		return nil, err
	}

	var report *ReconciliationReport
	err := s.storage.InTx(ctx, func(tx storage.Repository) error {
		payments, err := tx.ListPayments(ctx, storage.PaymentFilters{
			OrganizationID: orgID,
			From:           start,
			To:             end,
			Reconciled:     storage.BoolPtr(false),
		})
		if err != nil {
			return fmt.Errorf("failed to load payments: %w", err)
		}

		transactions, err := tx.ListBankTransactions(ctx, storage.BankTransactionFilters{
			OrganizationID: orgID,
			From:           start,
			To:             end,
			Matched:        storage.BoolPtr(false),
		})
		if err != nil {
			return fmt.Errorf("failed to load bank transactions: %w", err)
		}

		result := s.matcher.Reconcile(payments.Payments, transactions.Transactions)

		period := &model.Reconciliation{
			OrganizationID: orgID,
			StartDate:      start,
			EndDate:        end,
			Status:         model.StatusInProgress,
		}
		period.SetTotals(result.Summary.ExpectedTotal, result.Summary.ActualTotal)
		if err := tx.CreateReconciliation(ctx, period); err != nil {
			return fmt.Errorf("failed to create reconciliation: %w", err)
		}

		matches := make([]*model.Match, 0, len(result.Pairs))
		for _, pair := range result.Pairs {
			match := &model.Match{
				ReconciliationID:  period.ID,
				PaymentID:         pair.Payment.ID,
				BankTransactionID: pair.BankTransaction.ID,
				Type:              model.MatchAuto,
				DateDiffDays:      pair.DateDiff,
				Amount:            pair.Payment.Amount,
			}
			if err := s.link(ctx, tx, period, pair.Payment, pair.BankTransaction, match); err != nil {
				return err
			}
			matches = append(matches, match)
		}
		period.MatchedCount = len(matches)

		report = &ReconciliationReport{
			Reconciliation:            period,
			Matches:                   matches,
			UnmatchedPayments:         result.UnmatchedPayments,
			UnmatchedBankTransactions: result.UnmatchedBankTransactions,
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("reconciliation failed",
			"organization_id", orgID,
			"start_date", start.String(),
			"end_date", end.String(),
			"error", err,
		)
		return nil, err
	}

	r := report.Reconciliation
	s.logger.Info("reconciliation created",
		"organization_id", orgID,
		"reconciliation_id", r.ID,
		"start_date", start.String(),
		"end_date", end.String(),
		"matched", len(report.Matches),
		"unmatched_payments", len(report.UnmatchedPayments),
		"unmatched_bank_transactions", len(report.UnmatchedBankTransactions),
		"expected_total", r.ExpectedTotal.StringFixed(2),
		"actual_total", r.ActualTotal.StringFixed(2),
		"difference", r.Difference.StringFixed(2),
	)

	return report, nil
}

// ManualMatch links a payment to a bank transaction chosen by the user. Amount
// and date tolerance are not checked; both sides must still fall inside the
// period window and be unmatched.
func (s *ReconciliationService) ManualMatch(ctx context.Context, orgID, reconciliationID, paymentID, bankTransactionID string) (*ManualMatchResult, error) {
	if err := requireOrganization(orgID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(paymentID) == "" {
		return nil, model.Validationf("payment_id is required")
	}
	if strings.TrimSpace(bankTransactionID) == "" {
		return nil, model.Validationf("bank_transaction_id is required")
	}

	var result *ManualMatchResult
	var amountMismatch bool
	err := s.storage.InTx(ctx, func(tx storage.Repository) error {
		period, err := tx.GetReconciliation(ctx, orgID, reconciliationID)
		if err != nil {
			return err
		}
		payment, err := tx.GetPayment(ctx, orgID, paymentID)
		if err != nil {
			return err
		}
		txn, err := tx.GetBankTransaction(ctx, orgID, bankTransactionID)
		if err != nil {
			return err
		}

		if period.Completed() {
			return model.Conflictf("reconciliation %s is completed", period.ID)
		}
		if payment.Reconciled {
			return model.Conflictf("payment %s is already reconciled", payment.ID)
		}
		if txn.Matched() {
			return model.Conflictf("bank transaction %s is already matched", txn.ID)
		}
		if !payment.ReceivedDate.Within(period.StartDate, period.EndDate) {
			return model.Validationf("payment date %s is outside reconciliation period %s to %s",
				payment.ReceivedDate, period.StartDate, period.EndDate)
		}
		if !txn.Date.Within(period.StartDate, period.EndDate) {
			return model.Validationf("bank transaction date %s is outside reconciliation period %s to %s",
				txn.Date, period.StartDate, period.EndDate)
		}

		match := &model.Match{
			ReconciliationID:  period.ID,
			PaymentID:         payment.ID,
			BankTransactionID: txn.ID,
			Type:              model.MatchManual,
			DateDiffDays:      payment.ReceivedDate.DaysApart(txn.Date),
			Amount:            payment.Amount,
		}
		if err := s.link(ctx, tx, period, payment, txn, match); err != nil {
			return err
		}
		amountMismatch = !payment.Amount.Equal(txn.Amount)

		if err := s.recomputeTotals(ctx, tx, period); err != nil {
			return err
		}

		updated, err := tx.GetReconciliation(ctx, orgID, period.ID)
		if err != nil {
			return err
		}

		result = &ManualMatchResult{Reconciliation: updated, Match: match}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("manual match created",
		"organization_id", orgID,
		"reconciliation_id", reconciliationID,
		"payment_id", paymentID,
		"bank_transaction_id", bankTransactionID,
		"amount_mismatch", amountMismatch,
		"difference", result.Reconciliation.Difference.StringFixed(2),
	)

	return result, nil
}

// ListUnmatched returns unreconciled payments and unmatched bank transactions
// in [start, end], in insertion order.
func (s *ReconciliationService) ListUnmatched(ctx context.Context, orgID string, start, end model.Date) (*UnmatchedItems, error) {
	if err := requireOrganization(orgID); err != nil {
		return nil, err
	}
	if err := validator.ValidateRange(start, end); err != nil {
		return nil, err
	}

	payments, err := s.storage.ListPayments(ctx, storage.PaymentFilters{
		OrganizationID: orgID,
		From:           start,
		To:             end,
		Reconciled:     storage.BoolPtr(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list unreconciled payments: %w", err)
	}

	transactions, err := s.storage.ListBankTransactions(ctx, storage.BankTransactionFilters{
		OrganizationID: orgID,
		From:           start,
		To:             end,
		Matched:        storage.BoolPtr(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list unmatched bank transactions: %w", err)
	}

	return &UnmatchedItems{
		Payments:         payments.Payments,
		BankTransactions: transactions.Transactions,
	}, nil
}

// CompleteReconciliation closes an IN_PROGRESS period. Completing a period
// twice is a conflict.
func (s *ReconciliationService) CompleteReconciliation(ctx context.Context, orgID, id, notes string) (*model.Reconciliation, error) {
	if err := requireOrganization(orgID); err != nil {
		return nil, err
	}

	var completed *model.Reconciliation
	err := s.storage.InTx(ctx, func(tx storage.Repository) error {
		if err := tx.CompleteReconciliation(ctx, orgID, id, strings.TrimSpace(notes), s.now()); err != nil {
			return err
		}
		r, err := tx.GetReconciliation(ctx, orgID, id)
		if err != nil {
			return err
		}
		completed = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reconciliation completed",
		"organization_id", orgID,
		"reconciliation_id", id,
		"matched", completed.MatchedCount,
		"difference", completed.Difference.StringFixed(2),
	)

	return completed, nil
}

// GetReconciliation returns a period with its matches and the rows in its
// window that are still unmatched.
func (s *ReconciliationService) GetReconciliation(ctx context.Context, orgID, id string) (*ReconciliationReport, error) {
	if err := requireOrganization(orgID); err != nil {
		return nil, err
	}

	period, err := s.storage.GetReconciliation(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	matches, err := s.storage.ListMatches(ctx, period.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	payments, transactions, err := s.storage.ListPeriodMembers(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to list period members: %w", err)
	}

	report := &ReconciliationReport{
		Reconciliation:            period,
		Matches:                   matches,
		UnmatchedPayments:         make([]*model.Payment, 0),
		UnmatchedBankTransactions: make([]*model.BankTransaction, 0),
	}
	for _, p := range payments {
		if !p.Reconciled {
			report.UnmatchedPayments = append(report.UnmatchedPayments, p)
		}
	}
	for _, t := range transactions {
		if !t.Matched() {
			report.UnmatchedBankTransactions = append(report.UnmatchedBankTransactions, t)
		}
	}
	return report, nil
}

// ListReconciliations returns the organization's periods, newest first.
func (s *ReconciliationService) ListReconciliations(ctx context.Context, orgID string, query ReconciliationQuery) (*storage.ReconciliationListResult, error) {
	if err := requireOrganization(orgID); err != nil {
		return nil, err
	}
	if query.Status != "" && query.Status != model.StatusInProgress && query.Status != model.StatusCompleted {
		return nil, model.Validationf("unknown reconciliation status %q", query.Status)
	}
	if err := validatePage(query.Limit, query.Offset); err != nil {
		return nil, err
	}

	return s.storage.ListReconciliations(ctx, storage.ReconciliationFilters{
		OrganizationID: orgID,
		Status:         query.Status,
		Limit:          query.Limit,
		Offset:         query.Offset,
	})
}

// link records a match and claims the payment. Either step failing on a
// uniqueness check aborts the surrounding transaction.
func (s *ReconciliationService) link(ctx context.Context, tx storage.Repository, period *model.Reconciliation, payment *model.Payment, txn *model.BankTransaction, match *model.Match) error {
	if err := tx.CreateMatch(ctx, match); err != nil {
		return fmt.Errorf("failed to match payment %s with bank transaction %s: %w", payment.ID, txn.ID, err)
	}
	if err := tx.MarkPaymentReconciled(ctx, period.OrganizationID, payment.ID); err != nil {
		return fmt.Errorf("failed to reconcile payment %s: %w", payment.ID, err)
	}

	payment.Reconciled = true
	payment.ReconciliationID = period.ID
	payment.BankTransactionID = txn.ID
	txn.ReconciliationID = period.ID
	txn.PaymentID = payment.ID
	return nil
}

// recomputeTotals rebuilds a period's totals from its current members.
func (s *ReconciliationService) recomputeTotals(ctx context.Context, tx storage.Repository, period *model.Reconciliation) error {
	payments, transactions, err := tx.ListPeriodMembers(ctx, period)
	if err != nil {
		return fmt.Errorf("failed to list period members: %w", err)
	}

	summary := matcher.Summarize(payments, transactions)
	period.SetTotals(summary.ExpectedTotal, summary.ActualTotal)
	if err := tx.UpdateReconciliationTotals(ctx, period); err != nil {
		return fmt.Errorf("failed to update reconciliation totals: %w", err)
	}
	return nil
}

func requireOrganization(orgID string) error {
	if strings.TrimSpace(orgID) == "" {
		return model.Validationf("organization is required")
	}
	return nil
}

func validatePage(limit, offset int) error {
	if limit < 0 {
		return model.Validationf("limit must not be negative")
	}
	if offset < 0 {
		return model.Validationf("offset must not be negative")
	}
	return nil
}
