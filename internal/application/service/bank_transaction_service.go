package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
	"github.com/eshaffer321/reconcile-backend/internal/domain/validator"
	"github.com/eshaffer321/reconcile-backend/internal/infrastructure/storage"
)

// BankTransactionInput is one line of a bank statement.
type BankTransactionInput struct {
	Amount      decimal.Decimal
	Date        model.Date
	Description string
	Reference   string
}

// BankTransactionQuery holds list parameters for bank transactions.
type BankTransactionQuery struct {
	From    model.Date
	To      model.Date
	Matched *bool
	Limit   int
	Offset  int
}

// Columns recognised in an imported statement. Reference is optional.
var requiredCSVColumns = []string{"date", "amount", "description"}

// BankTransactionService imports bank statement lines and looks them up.
type BankTransactionService struct {
	storage storage.Repository
	logger  *slog.Logger
}

// NewBankTransactionService creates a new bank transaction service.
func NewBankTransactionService(store storage.Repository, logger *slog.Logger) *BankTransactionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BankTransactionService{storage: store, logger: logger}
}

// CreateBankTransaction validates and stores a single statement line.
func (s *BankTransactionService) CreateBankTransaction(ctx context.Context, orgID string, in BankTransactionInput) (*model.BankTransaction, error) {
	t := newBankTransaction(orgID, in)
	if err := validator.ValidateBankTransaction(t); err != nil {
		return nil, err
	}

	if err := s.storage.CreateBankTransaction(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create bank transaction: %w", err)
	}
	return t, nil
}

// ImportBankTransactions stores a batch of statement lines. Every row is
// validated before anything is written and the inserts share one transaction,
// so a bad row rejects the whole batch.
func (s *BankTransactionService) ImportBankTransactions(ctx context.Context, orgID string, inputs []BankTransactionInput) ([]*model.BankTransaction, error) {
	if err := requireOrganization(orgID); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, model.Validationf("no bank transactions to import")
	}

	transactions := make([]*model.BankTransaction, 0, len(inputs))
	for i, in := range inputs {
		t := newBankTransaction(orgID, in)
		if err := validator.ValidateBankTransaction(t); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		transactions = append(transactions, t)
	}

	err := s.storage.InTx(ctx, func(tx storage.Repository) error {
		for i, t := range transactions {
			if err := tx.CreateBankTransaction(ctx, t); err != nil {
				return fmt.Errorf("row %d: failed to import bank transaction: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bank transactions imported",
		"organization_id", orgID,
		"count", len(transactions),
	)
	return transactions, nil
}

// ImportCSV parses a bank statement export and imports it as one batch.
// The header row names the columns (date, amount, description, reference) in
// any order; dates are YYYY-MM-DD.
func (s *BankTransactionService) ImportCSV(ctx context.Context, orgID string, r io.Reader) ([]*model.BankTransaction, error) {
	inputs, err := ParseStatementCSV(r)
	if err != nil {
		return nil, err
	}
	return s.ImportBankTransactions(ctx, orgID, inputs)
}

// GetBankTransaction returns one bank transaction of the organization.
func (s *BankTransactionService) GetBankTransaction(ctx context.Context, orgID, id string) (*model.BankTransaction, error) {
	if err := requireOrganization(orgID); err != nil {
		return nil, err
	}
	return s.storage.GetBankTransaction(ctx, orgID, id)
}

// ListBankTransactions returns the organization's bank transactions in insertion order.
func (s *BankTransactionService) ListBankTransactions(ctx context.Context, orgID string, query BankTransactionQuery) (*storage.BankTransactionListResult, error) {
	if err := requireOrganization(orgID); err != nil {
		return nil, err
	}
	if err := validateOptionalRange(query.From, query.To); err != nil {
		return nil, err
	}
	if err := validatePage(query.Limit, query.Offset); err != nil {
		return nil, err
	}

	return s.storage.ListBankTransactions(ctx, storage.BankTransactionFilters{
		OrganizationID: orgID,
		From:           query.From,
		To:             query.To,
		Matched:        query.Matched,
		Limit:          query.Limit,
		Offset:         query.Offset,
	})
}

// ParseStatementCSV reads statement rows from CSV. Row numbers in errors are
// zero-based data rows, matching the batch import.
func ParseStatementCSV(r io.Reader) ([]BankTransactionInput, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, model.Validationf("csv is empty")
	}
	if err != nil {
		return nil, model.Validationf("reading CSV header: %v", err)
	}

	columns, err := headerMap(header)
	if err != nil {
		return nil, err
	}

	inputs := make([]BankTransactionInput, 0)
	for row := 0; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, model.Validationf("row %d: reading CSV row: %v", row, err)
		}
		if isBlankRecord(record) {
			row--
			continue
		}

		in, err := parseStatementRow(record, columns)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		inputs = append(inputs, in)
	}

	return inputs, nil
}

func headerMap(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := columns[key]; dup {
			return nil, model.Validationf("duplicate CSV column %q", key)
		}
		columns[key] = i
	}
	for _, required := range requiredCSVColumns {
		if _, ok := columns[required]; !ok {
			return nil, model.Validationf("missing CSV column %q", required)
		}
	}
	return columns, nil
}

func parseStatementRow(record []string, columns map[string]int) (BankTransactionInput, error) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	date, err := model.ParseDate(field("date"))
	if err != nil {
		return BankTransactionInput{}, model.Validationf("%v", err)
	}

	amount, err := parseAmount(field("amount"))
	if err != nil {
		return BankTransactionInput{}, err
	}

	return BankTransactionInput{
		Amount:      amount,
		Date:        date,
		Description: field("description"),
		Reference:   field("reference"),
	}, nil
}

// parseAmount accepts plain decimals plus the currency symbol and thousands
// separators common in bank exports.
func parseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = "-" + strings.TrimSuffix(strings.TrimPrefix(cleaned, "("), ")")
	}
	amount, err := validator.ParseAmount(cleaned)
	if err != nil {
		return decimal.Zero, model.Validationf("invalid amount %q", raw)
	}
	return amount, nil
}

func isBlankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func newBankTransaction(orgID string, in BankTransactionInput) *model.BankTransaction {
	return &model.BankTransaction{
		OrganizationID: orgID,
		Amount:         in.Amount,
		Date:           in.Date,
		Description:    strings.TrimSpace(in.Description),
		Reference:      strings.TrimSpace(in.Reference),
	}
}
