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

// ReconciliationService is the part of service.ReconciliationService the
// HTTP layer depends on.
type ReconciliationService interface {
	CreateReconciliation(ctx context.Context, orgID string, start, end model.Date) (*service.ReconciliationReport, error)
	ManualMatch(ctx context.Context, orgID, reconciliationID, paymentID, bankTransactionID string) (*service.ManualMatchResult, error)
	ListUnmatched(ctx context.Context, orgID string, start, end model.Date) (*service.UnmatchedItems, error)
	CompleteReconciliation(ctx context.Context, orgID, id, notes string) (*model.Reconciliation, error)
	GetReconciliation(ctx context.Context, orgID, id string) (*service.ReconciliationReport, error)
	ListReconciliations(ctx context.Context, orgID string, query service.ReconciliationQuery) (*storage.ReconciliationListResult, error)
}

var _ ReconciliationService = (*service.ReconciliationService)(nil)

// ReconciliationHandler handles reconciliation period requests.
type ReconciliationHandler struct {
	*Base
	service ReconciliationService
}

// NewReconciliationHandler creates a new reconciliation handler.
func NewReconciliationHandler(svc ReconciliationService, logger *slog.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{
		Base:    NewBase(logger),
		service: svc,
	}
}

// Create handles POST /api/reconciliation - opens a period and auto-matches it.
func (h *ReconciliationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateReconciliationRequest
	if err := DecodeJSON(r, &req, false); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	report, err := h.service.CreateReconciliation(r.Context(), h.Organization(r), start, end)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, toReconciliationDetailResponse(report))
}

// List handles GET /api/reconciliation - returns periods newest first.
func (h *ReconciliationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParsePage(r)
	query := service.ReconciliationQuery{
		Status: model.ReconciliationStatus(strings.ToUpper(r.URL.Query().Get("status"))),
		Limit:  limit,
		Offset: offset,
	}

	result, err := h.service.ListReconciliations(r.Context(), h.Organization(r), query)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	response := dto.ReconciliationListResponse{
		Reconciliations: make([]dto.ReconciliationResponse, 0, len(result.Reconciliations)),
		TotalCount:      result.TotalCount,
		Limit:           result.Limit,
		Offset:          result.Offset,
	}
	for _, period := range result.Reconciliations {
		response.Reconciliations = append(response.Reconciliations, toReconciliationResponse(period))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/reconciliation/{id} - returns a period with its matches.
func (h *ReconciliationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("reconciliation ID is required"))
		return
	}

	report, err := h.service.GetReconciliation(r.Context(), h.Organization(r), id)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toReconciliationDetailResponse(report))
}

// Unmatched handles GET /api/reconciliation/unmatched/list - returns the
// unreconciled payments and unmatched bank transactions in a range.
func (h *ReconciliationHandler) Unmatched(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	items, err := h.service.ListUnmatched(r.Context(), h.Organization(r), start, end)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	response := dto.UnmatchedResponse{
		StartDate:        start.String(),
		EndDate:          end.String(),
		Payments:         toPaymentResponses(items.Payments),
		BankTransactions: toBankTransactionResponses(items.BankTransactions),
	}
	h.WriteJSON(w, http.StatusOK, response)
}

// Match handles POST /api/reconciliation/{id}/match - links a payment and a
// bank transaction chosen by the user.
func (h *ReconciliationHandler) Match(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("reconciliation ID is required"))
		return
	}

	var req dto.ManualMatchRequest
	if err := DecodeJSON(r, &req, false); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	result, err := h.service.ManualMatch(r.Context(), h.Organization(r), id, req.PaymentID, req.BankTransactionID)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, dto.ManualMatchResponse{
		Reconciliation: toReconciliationResponse(result.Reconciliation),
		Match:          toMatchResponse(result.Match),
	})
}

// Complete handles PUT /api/reconciliation/{id}/complete - closes a period.
func (h *ReconciliationHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("reconciliation ID is required"))
		return
	}

	var req dto.CompleteReconciliationRequest
	if err := DecodeJSON(r, &req, true); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	period, err := h.service.CompleteReconciliation(r.Context(), h.Organization(r), id, req.Notes)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toReconciliationResponse(period))
}

// parseRange parses both ends of a date range; presence and ordering are
// checked by the service.
func parseRange(startRaw, endRaw string) (model.Date, model.Date, error) {
	start, err := ParseDate("start_date", startRaw)
	if err != nil {
		return model.Date{}, model.Date{}, err
	}
	end, err := ParseDate("end_date", endRaw)
	if err != nil {
		return model.Date{}, model.Date{}, err
	}
	return start, end, nil
}

func toReconciliationResponse(r *model.Reconciliation) dto.ReconciliationResponse {
	response := dto.ReconciliationResponse{
		ID:            r.ID,
		StartDate:     r.StartDate.String(),
		EndDate:       r.EndDate.String(),
		ExpectedTotal: r.ExpectedTotal.StringFixed(2),
		ActualTotal:   r.ActualTotal.StringFixed(2),
		Difference:    r.Difference.StringFixed(2),
		Status:        string(r.Status),
		Notes:         r.Notes,
		MatchedCount:  r.MatchedCount,
		CreatedAt:     formatTime(r.CreatedAt),
	}
	if r.CompletedAt != nil {
		response.CompletedAt = formatTime(*r.CompletedAt)
	}
	return response
}

func toMatchResponse(m *model.Match) dto.MatchResponse {
	return dto.MatchResponse{
		ID:                m.ID,
		PaymentID:         m.PaymentID,
		BankTransactionID: m.BankTransactionID,
		Type:              string(m.Type),
		DateDiffDays:      m.DateDiffDays,
		Amount:            m.Amount.StringFixed(2),
		CreatedAt:         formatTime(m.CreatedAt),
	}
}

func toReconciliationDetailResponse(report *service.ReconciliationReport) dto.ReconciliationDetailResponse {
	response := dto.ReconciliationDetailResponse{
		Reconciliation:            toReconciliationResponse(report.Reconciliation),
		Matches:                   make([]dto.MatchResponse, 0, len(report.Matches)),
		UnmatchedPayments:         toPaymentResponses(report.UnmatchedPayments),
		UnmatchedBankTransactions: toBankTransactionResponses(report.UnmatchedBankTransactions),
	}
	for _, m := range report.Matches {
		response.Matches = append(response.Matches, toMatchResponse(m))
	}
	return response
}
