package api_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/reconcile-backend/internal/api"
	"github.com/eshaffer321/reconcile-backend/internal/api/dto"
	"github.com/eshaffer321/reconcile-backend/internal/api/middleware"
	"github.com/eshaffer321/reconcile-backend/internal/application/service"
	"github.com/eshaffer321/reconcile-backend/internal/domain/matcher"
	"github.com/eshaffer321/reconcile-backend/internal/infrastructure/storage"
)

func newServices(repo storage.Repository, logger *slog.Logger) api.Services {
	return api.Services{
		Reconciliations:  service.NewReconciliationService(repo, matcher.DefaultConfig(), logger),
		Payments:         service.NewPaymentService(repo, logger),
		BankTransactions: service.NewBankTransactionService(repo, logger),
	}
}

func newTestServer(t *testing.T) (*api.Server, *storage.MockRepository) {
	t.Helper()
	repo := storage.NewMockRepository()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	server := api.NewServer(api.DefaultConfig(), newServices(repo, logger), logger)
	return server, repo
}

func serve(server *api.Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.OrganizationHeader, "org-1")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestServer_HealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))

	var response dto.HealthResponse
	err := json.NewDecoder(rec.Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, "ok", response.Status)
}

func TestServer_RequiresOrganization(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/payments", nil)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var apiErr dto.APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
	assert.Equal(t, dto.ErrCodeBadRequest, apiErr.Code)
}

func TestServer_Routes(t *testing.T) {
	server, _ := newTestServer(t)

	created := serve(server, http.MethodPost, "/api/reconciliation", `{"start_date":"2024-01-01","end_date":"2024-01-31"}`)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	var detail dto.ReconciliationDetailResponse
	require.NoError(t, json.NewDecoder(created.Body).Decode(&detail))
	id := detail.Reconciliation.ID

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"list reconciliations", http.MethodGet, "/api/reconciliation", "", http.StatusOK},
		{"unmatched is not an id", http.MethodGet, "/api/reconciliation/unmatched/list?start_date=2024-01-01&end_date=2024-01-31", "", http.StatusOK},
		{"get reconciliation", http.MethodGet, "/api/reconciliation/" + id, "", http.StatusOK},
		{"match with unknown rows", http.MethodPost, "/api/reconciliation/" + id + "/match", `{"payment_id":"p","bank_transaction_id":"t"}`, http.StatusNotFound},
		{"record payment", http.MethodPost, "/api/payments", `{"amount":"10.00","received_date":"2024-01-02","method":"CASH"}`, http.StatusCreated},
		{"list payments", http.MethodGet, "/api/payments", "", http.StatusOK},
		{"get unknown payment", http.MethodGet, "/api/payments/nope", "", http.StatusNotFound},
		{"create bank transaction", http.MethodPost, "/api/bank-transactions", `{"amount":"10.00","date":"2024-01-02","description":"DEP"}`, http.StatusCreated},
		{"import bank transactions", http.MethodPost, "/api/bank-transactions/import", `{"transactions":[{"amount":"1.00","date":"2024-01-03","description":"DEP"}]}`, http.StatusCreated},
		{"list bank transactions", http.MethodGet, "/api/bank-transactions", "", http.StatusOK},
		{"get unknown bank transaction", http.MethodGet, "/api/bank-transactions/nope", "", http.StatusNotFound},
		{"complete reconciliation", http.MethodPut, "/api/reconciliation/" + id + "/complete", "", http.StatusOK},
		{"complete twice", http.MethodPut, "/api/reconciliation/" + id + "/complete", "", http.StatusConflict},
		{"unknown route", http.MethodGet, "/api/orders", "", http.StatusNotFound},
		{"wrong method", http.MethodDelete, "/api/payments", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(server, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestServer_CORS(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/reconciliation", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), middleware.OrganizationHeader)
}

func TestServer_OptionalServices(t *testing.T) {
	repo := storage.NewMockRepository()
	var reconciliations *service.ReconciliationService
	server := api.NewServer(api.DefaultConfig(), api.Services{
		Reconciliations: reconciliations,
		Payments:        service.NewPaymentService(repo, nil),
	}, nil)

	rec := serve(server, http.MethodGet, "/api/reconciliation", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(server, http.MethodPost, "/api/bank-transactions", `{"amount":"1.00"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(server, http.MethodGet, "/api/payments", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
