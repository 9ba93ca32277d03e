package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/eshaffer321/reconcile-backend/internal/application/service"
	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
)

// Reconciler is the part of service.ReconciliationService the command drives.
type Reconciler interface {
	CreateReconciliation(ctx context.Context, orgID string, start, end model.Date) (*service.ReconciliationReport, error)
	ListUnmatched(ctx context.Context, orgID string, start, end model.Date) (*service.UnmatchedItems, error)
	CompleteReconciliation(ctx context.Context, orgID, id, notes string) (*model.Reconciliation, error)
}

// RunReconcile performs the operation selected by flags and prints the result to w.
func RunReconcile(ctx context.Context, svc Reconciler, flags ReconcileFlags, w io.Writer) error {
	if flags.CompleteID != "" {
		period, err := svc.CompleteReconciliation(ctx, flags.Org, flags.CompleteID, flags.Notes)
		if err != nil {
			return fmt.Errorf("failed to complete reconciliation: %w", err)
		}
		PrintCompleted(w, period)
		return nil
	}

	start, err := model.ParseDate(flags.From)
	if err != nil {
		return fmt.Errorf("invalid -from: %w", err)
	}
	end, err := model.ParseDate(flags.To)
	if err != nil {
		return fmt.Errorf("invalid -to: %w", err)
	}

	if flags.Unmatched {
		items, err := svc.ListUnmatched(ctx, flags.Org, start, end)
		if err != nil {
			return fmt.Errorf("failed to list unmatched items: %w", err)
		}
		PrintUnmatched(w, start, end, items)
		return nil
	}

	report, err := svc.CreateReconciliation(ctx, flags.Org, start, end)
	if err != nil {
		return fmt.Errorf("failed to reconcile: %w", err)
	}
	PrintReport(w, report)
	return nil
}
