package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/eshaffer321/reconcile-backend/internal/application/service"
	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
)

const rule = 60

// PrintReport prints a reconciliation period with its matches and leftovers
func PrintReport(w io.Writer, report *service.ReconciliationReport) {
	r := report.Reconciliation
	fmt.Fprintf(w, "reconcile: %s to %s (%s)\n", r.StartDate, r.EndDate, r.Status)
	fmt.Fprintf(w, "Reconciliation: %s\n\n", r.ID)

	if len(report.Matches) > 0 {
		fmt.Fprintln(w, "Matches:")
		for _, m := range report.Matches {
			fmt.Fprintf(w, "  %-6s %12s  payment %s <-> bank %s (%d days)\n",
				m.Type, m.Amount.StringFixed(2), m.PaymentID, m.BankTransactionID, m.DateDiffDays)
		}
		fmt.Fprintln(w)
	}

	printPayments(w, "Unmatched payments:", report.UnmatchedPayments)
	printTransactions(w, "Unmatched bank transactions:", report.UnmatchedBankTransactions)

	fmt.Fprintln(w, strings.Repeat("-", rule))
	fmt.Fprintf(w, "Summary: Matched=%d Expected=%s Actual=%s Difference=%s\n",
		r.MatchedCount,
		r.ExpectedTotal.StringFixed(2),
		r.ActualTotal.StringFixed(2),
		r.Difference.StringFixed(2))

	if r.Difference.IsZero() && len(report.UnmatchedPayments) == 0 && len(report.UnmatchedBankTransactions) == 0 {
		fmt.Fprintln(w, "\nPeriod balances.")
	}
}

// PrintUnmatched prints the manual-matching candidates in a range
func PrintUnmatched(w io.Writer, start, end model.Date, items *service.UnmatchedItems) {
	fmt.Fprintf(w, "reconcile: unmatched items %s to %s\n\n", start, end)
	printPayments(w, "Payments:", items.Payments)
	printTransactions(w, "Bank transactions:", items.BankTransactions)
	fmt.Fprintln(w, strings.Repeat("-", rule))
	fmt.Fprintf(w, "Summary: Payments=%d BankTransactions=%d\n", len(items.Payments), len(items.BankTransactions))
}

// PrintCompleted prints a completed period
func PrintCompleted(w io.Writer, r *model.Reconciliation) {
	fmt.Fprintf(w, "reconcile: %s completed\n", r.ID)
	fmt.Fprintf(w, "Period: %s to %s | Matched: %d | Difference: %s\n",
		r.StartDate, r.EndDate, r.MatchedCount, r.Difference.StringFixed(2))
	if r.Notes != "" {
		fmt.Fprintf(w, "Notes: %s\n", r.Notes)
	}
}

func printPayments(w io.Writer, title string, payments []*model.Payment) {
	if len(payments) == 0 {
		return
	}
	fmt.Fprintln(w, title)
	for _, p := range payments {
		fmt.Fprintf(w, "  %s %12s  %-13s %s", p.ReceivedDate, p.Amount.StringFixed(2), p.Method, p.ID)
		if p.Reference != "" {
			fmt.Fprintf(w, " (%s)", p.Reference)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}

func printTransactions(w io.Writer, title string, transactions []*model.BankTransaction) {
	if len(transactions) == 0 {
		return
	}
	fmt.Fprintln(w, title)
	for _, t := range transactions {
		fmt.Fprintf(w, "  %s %12s  %s %s\n", t.Date, t.Amount.StringFixed(2), t.ID, t.Description)
	}
	fmt.Fprintln(w)
}
