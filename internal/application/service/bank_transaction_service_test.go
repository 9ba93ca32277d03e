package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
	"github.com/eshaffer321/reconcile-backend/internal/infrastructure/storage"
)

func TestCreateBankTransaction(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := NewBankTransactionService(repo, testLogger())

	txn, err := svc.CreateBankTransaction(context.Background(), org, BankTransactionInput{
		Amount:      amount("-12.34"),
		Date:        date("2024-03-02"),
		Description: " SERVICE FEE ",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, txn.ID)
	assert.Equal(t, "SERVICE FEE", txn.Description)
	assert.False(t, txn.Matched())

	_, err = svc.CreateBankTransaction(context.Background(), org, BankTransactionInput{
		Amount: amount("0"), Date: date("2024-03-02"), Description: "NOTHING",
	})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestImportBankTransactions_AllOrNothing(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := NewBankTransactionService(repo, testLogger())
	ctx := context.Background()

	_, err := svc.ImportBankTransactions(ctx, org, []BankTransactionInput{
		{Amount: amount("10.00"), Date: date("2024-01-01"), Description: "A"},
		{Amount: amount("20.00"), Date: date("2024-01-02"), Description: ""},
	})

	require.ErrorIs(t, err, model.ErrValidation)
	assert.Contains(t, err.Error(), "row 1")

	list, err := repo.ListBankTransactions(ctx, storage.BankTransactionFilters{OrganizationID: org})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
}

func TestImportBankTransactions_InsertFailureRollsBack(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := NewBankTransactionService(repo, testLogger())
	ctx := context.Background()

	existing := addTransaction(repo, org, "1.00", "2024-01-01")
	repo.CreateBankTransactionErr = model.Conflictf("duplicate")

	_, err := svc.ImportBankTransactions(ctx, org, []BankTransactionInput{
		{Amount: amount("10.00"), Date: date("2024-01-01"), Description: "A"},
	})
	assert.ErrorIs(t, err, model.ErrConflict)

	list, err := repo.ListBankTransactions(ctx, storage.BankTransactionFilters{OrganizationID: org})
	require.NoError(t, err)
	require.Len(t, list.Transactions, 1)
	assert.Equal(t, existing.ID, list.Transactions[0].ID)
}

func TestImportBankTransactions_Empty(t *testing.T) {
	svc := NewBankTransactionService(storage.NewMockRepository(), testLogger())

	_, err := svc.ImportBankTransactions(context.Background(), org, nil)

	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestImportCSV(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := NewBankTransactionService(repo, testLogger())

	csvData := "Reference,Date,Description,Amount\n" +
		"r-1,2024-01-15,MOBILE DEPOSIT,100.00\n" +
		"\n" +
		",2024-01-16,\"ACH, HOA DUES\",\"$1,250.50\"\n" +
		"r-3,2024-01-17,BANK FEE,(5.00)\n"

	imported, err := svc.ImportCSV(context.Background(), org, strings.NewReader(csvData))

	require.NoError(t, err)
	require.Len(t, imported, 3)
	assert.Equal(t, "100.00", imported[0].Amount.StringFixed(2))
	assert.Equal(t, "r-1", imported[0].Reference)
	assert.Equal(t, "2024-01-15", imported[0].Date.String())
	assert.Equal(t, "ACH, HOA DUES", imported[1].Description)
	assert.Equal(t, "1250.50", imported[1].Amount.StringFixed(2))
	assert.Empty(t, imported[1].Reference)
	assert.Equal(t, "-5.00", imported[2].Amount.StringFixed(2))

	// Insertion order follows the file
	assert.Less(t, imported[0].Seq, imported[1].Seq)
	assert.Less(t, imported[1].Seq, imported[2].Seq)
}

func TestImportCSV_Errors(t *testing.T) {
	svc := NewBankTransactionService(storage.NewMockRepository(), testLogger())
	ctx := context.Background()

	tests := []struct {
		name    string
		csv     string
		wantMsg string
	}{
		{"empty", "", "csv is empty"},
		{"missing column", "date,amount\n2024-01-01,1.00\n", `missing CSV column "description"`},
		{"duplicate column", "date,amount,description,date\n", "duplicate CSV column"},
		{"bad date", "date,amount,description\n01/15/2024,1.00,X\n", "row 0"},
		{"bad amount", "date,amount,description\n2024-01-15,1.00,X\n2024-01-16,abc,Y\n", "row 1"},
		{"header only", "date,amount,description\n", "no bank transactions"},
		{"exponent amount", "date,amount,description\n2024-01-15,1e9,X\n", `invalid amount "1e9"`},
		{"huge exponent amount", "date,amount,description\n2024-01-15,1e50000000,X\n", `invalid amount "1e50000000"`},
		{"thirteen digit amount", "date,amount,description\n2024-01-15,\"$1,000,000,000,000.00\",X\n", "invalid amount"},
		{"sub-cent amount", "date,amount,description\n2024-01-15,1.005,X\n", "decimal places"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ImportCSV(ctx, org, strings.NewReader(tt.csv))
			require.ErrorIs(t, err, model.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestListBankTransactions(t *testing.T) {
	repo := storage.NewMockRepository()
	addTransaction(repo, org, "10.00", "2024-01-01")
	addTransaction(repo, org, "20.00", "2024-01-02")
	addTransaction(repo, "org-2", "30.00", "2024-01-03")
	svc := NewBankTransactionService(repo, testLogger())
	ctx := context.Background()

	result, err := svc.ListBankTransactions(ctx, org, BankTransactionQuery{Matched: storage.BoolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalCount)

	_, err = svc.ListBankTransactions(ctx, org, BankTransactionQuery{Offset: -1})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.GetBankTransaction(ctx, org, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
