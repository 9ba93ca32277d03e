package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/reconcile-backend/internal/api/middleware"
	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
	"github.com/eshaffer321/reconcile-backend/internal/infrastructure/storage"
)

const org = "org-1"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newRequest builds a request scoped to org with the given chi URL params.
func newRequest(method, target, body string, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithOrganizationID(ctx, org)
	return req.WithContext(ctx)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func addPayment(repo *storage.MockRepository, orgID, amt, received string) *model.Payment {
	p := &model.Payment{
		OrganizationID: orgID,
		Amount:         decimal.RequireFromString(amt),
		ReceivedDate:   model.MustParseDate(received),
		Method:         model.MethodCheck,
	}
	repo.AddPayment(p)
	return p
}

func addTransaction(repo *storage.MockRepository, orgID, amt, on string) *model.BankTransaction {
	txn := &model.BankTransaction{
		OrganizationID: orgID,
		Amount:         decimal.RequireFromString(amt),
		Date:           model.MustParseDate(on),
		Description:    "DEPOSIT",
	}
	repo.AddBankTransaction(txn)
	return txn
}
