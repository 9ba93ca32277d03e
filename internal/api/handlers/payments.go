package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/reconcile-backend/internal/api/dto"
	"github.com/eshaffer321/reconcile-backend/internal/application/service"
	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
	"github.com/eshaffer321/reconcile-backend/internal/infrastructure/storage"
)

// PaymentService is the part of service.PaymentService the HTTP layer depends on.
type PaymentService interface {
	RecordPayment(ctx context.Context, orgID string, in service.PaymentInput) (*model.Payment, error)
	GetPayment(ctx context.Context, orgID, id string) (*model.Payment, error)
	ListPayments(ctx context.Context, orgID string, query service.PaymentQuery) (*storage.PaymentListResult, error)
}

var _ PaymentService = (*service.PaymentService)(nil)

// PaymentsHandler handles payment requests.
type PaymentsHandler struct {
	*Base
	service PaymentService
}

// NewPaymentsHandler creates a new payments handler.
func NewPaymentsHandler(svc PaymentService, logger *slog.Logger) *PaymentsHandler {
	return &PaymentsHandler{
		Base:    NewBase(logger),
		service: svc,
	}
}

// Create handles POST /api/payments - records a payment.
func (h *PaymentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordPaymentRequest
	if err := DecodeJSON(r, &req, false); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	amount, err := ParseAmount("amount", req.Amount)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	received, err := ParseDate("received_date", req.ReceivedDate)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), h.Organization(r), service.PaymentInput{
		Amount:       amount,
		ReceivedDate: received,
		Method:       model.PaymentMethod(req.Method),
		Reference:    req.Reference,
		ChargeID:     req.ChargeID,
	})
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, toPaymentResponse(payment))
}

// List handles GET /api/payments - returns paginated payments.
func (h *PaymentsHandler) List(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	limit, offset := ParsePage(r)
	query := service.PaymentQuery{
		From:       from,
		To:         to,
		Reconciled: ParseOptionalBoolParam(r, "reconciled"),
		Method:     model.PaymentMethod(strings.ToUpper(r.URL.Query().Get("method"))),
		Limit:      limit,
		Offset:     offset,
	}

	result, err := h.service.ListPayments(r.Context(), h.Organization(r), query)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.PaymentListResponse{
		Payments:   toPaymentResponses(result.Payments),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /api/payments/{id} - returns a single payment.
func (h *PaymentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("payment ID is required"))
		return
	}

	payment, err := h.service.GetPayment(r.Context(), h.Organization(r), id)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toPaymentResponse(payment))
}

func toPaymentResponse(p *model.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:                p.ID,
		Amount:            p.Amount.StringFixed(2),
		ReceivedDate:      p.ReceivedDate.String(),
		Method:            string(p.Method),
		Reference:         p.Reference,
		ChargeID:          p.ChargeID,
		Reconciled:        p.Reconciled,
		ReconciliationID:  p.ReconciliationID,
		BankTransactionID: p.BankTransactionID,
		CreatedAt:         formatTime(p.CreatedAt),
	}
}

func toPaymentResponses(payments []*model.Payment) []dto.PaymentResponse {
	responses := make([]dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		responses = append(responses, toPaymentResponse(p))
	}
	return responses
}
