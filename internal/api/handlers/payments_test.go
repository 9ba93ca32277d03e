package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/reconcile-backend/internal/api/dto"
	"github.com/eshaffer321/reconcile-backend/internal/api/handlers"
	"github.com/eshaffer321/reconcile-backend/internal/application/service"
	"github.com/eshaffer321/reconcile-backend/internal/infrastructure/storage"
)

func newPaymentsHandler(repo storage.Repository) *handlers.PaymentsHandler {
	return handlers.NewPaymentsHandler(service.NewPaymentService(repo, testLogger()), testLogger())
}

func TestPaymentsHandler_Create(t *testing.T) {
	t.Run("records a payment", func(t *testing.T) {
		repo := storage.NewMockRepository()
		h := newPaymentsHandler(repo)
		rec := httptest.NewRecorder()

		h.Create(rec, newRequest(http.MethodPost, "/api/payments",
			`{"amount":"125.50","received_date":"2024-01-15","method":"check","reference":"CHK-1001"}`, nil))

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		resp := decode[dto.PaymentResponse](t, rec)
		assert.NotEmpty(t, resp.ID)
		assert.Equal(t, "125.50", resp.Amount)
		assert.Equal(t, "2024-01-15", resp.ReceivedDate)
		assert.Equal(t, "CHECK", resp.Method)
		assert.Equal(t, "CHK-1001", resp.Reference)
		assert.False(t, resp.Reconciled)

		stored, err := repo.GetPayment(context.Background(), org, resp.ID)
		require.NoError(t, err)
		assert.Equal(t, "125.50", stored.Amount.StringFixed(2))
	})

	tests := []struct {
		name string
		body string
	}{
		{"missing amount", `{"received_date":"2024-01-15","method":"CHECK"}`},
		{"non numeric amount", `{"amount":"ten","received_date":"2024-01-15","method":"CHECK"}`},
		{"zero amount", `{"amount":"0","received_date":"2024-01-15","method":"CHECK"}`},
		{"missing date", `{"amount":"10.00","method":"CHECK"}`},
		{"bad date", `{"amount":"10.00","received_date":"2024-13-01","method":"CHECK"}`},
		{"unknown method", `{"amount":"10.00","received_date":"2024-01-15","method":"BITCOIN"}`},
		{"too many decimals", `{"amount":"10.001","received_date":"2024-01-15","method":"CASH"}`},
		{"exponent amount", `{"amount":"1e9","received_date":"2024-01-15","method":"CASH"}`},
		{"huge exponent amount", `{"amount":"1e50000000","received_date":"2024-01-15","method":"CASH"}`},
		{"thirteen digit amount", `{"amount":"1000000000000","received_date":"2024-01-15","method":"CASH"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newPaymentsHandler(storage.NewMockRepository())
			rec := httptest.NewRecorder()

			h.Create(rec, newRequest(http.MethodPost, "/api/payments", tt.body, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, dto.ErrCodeValidation, decode[dto.APIError](t, rec).Code)
		})
	}
}

func TestPaymentsHandler_List(t *testing.T) {
	repo := storage.NewMockRepository()
	addPayment(repo, org, "10.00", "2024-01-05")
	addPayment(repo, org, "20.00", "2024-01-15")
	addPayment(repo, org, "30.00", "2024-02-01")
	addPayment(repo, "org-2", "40.00", "2024-01-10")
	h := newPaymentsHandler(repo)

	t.Run("defaults", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.List(rec, newRequest(http.MethodGet, "/api/payments", "", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[dto.PaymentListResponse](t, rec)
		assert.Equal(t, 3, resp.TotalCount)
		assert.Equal(t, dto.DefaultListLimit, resp.Limit)
		assert.Equal(t, 0, resp.Offset)
		assert.Len(t, resp.Payments, 3)
	})

	t.Run("filters by range", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.List(rec, newRequest(http.MethodGet, "/api/payments?start_date=2024-01-01&end_date=2024-01-31", "", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[dto.PaymentListResponse](t, rec)
		assert.Equal(t, 2, resp.TotalCount)
	})

	t.Run("caps limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.List(rec, newRequest(http.MethodGet, "/api/payments?limit=10000&offset=-4", "", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[dto.PaymentListResponse](t, rec)
		assert.Equal(t, dto.MaxListLimit, resp.Limit)
		assert.Equal(t, 0, resp.Offset)
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.List(rec, newRequest(http.MethodGet, "/api/payments?start_date=yesterday", "", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPaymentsHandler_Get(t *testing.T) {
	repo := storage.NewMockRepository()
	p := addPayment(repo, org, "10.00", "2024-01-05")
	foreign := addPayment(repo, "org-2", "10.00", "2024-01-05")
	h := newPaymentsHandler(repo)

	t.Run("returns payment", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Get(rec, newRequest(http.MethodGet, "/", "", map[string]string{"id": p.ID}))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, p.ID, decode[dto.PaymentResponse](t, rec).ID)
	})

	t.Run("other organization is not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Get(rec, newRequest(http.MethodGet, "/", "", map[string]string{"id": foreign.ID}))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Get(rec, newRequest(http.MethodGet, "/", "", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
