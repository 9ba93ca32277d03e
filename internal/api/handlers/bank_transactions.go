package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/reconcile-backend/internal/api/dto"
	"github.com/eshaffer321/reconcile-backend/internal/application/service"
	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
	"github.com/eshaffer321/reconcile-backend/internal/infrastructure/storage"
)

// BankTransactionService is the part of service.BankTransactionService the
// HTTP layer depends on.
type BankTransactionService interface {
	CreateBankTransaction(ctx context.Context, orgID string, in service.BankTransactionInput) (*model.BankTransaction, error)
	ImportBankTransactions(ctx context.Context, orgID string, inputs []service.BankTransactionInput) ([]*model.BankTransaction, error)
	ImportCSV(ctx context.Context, orgID string, r io.Reader) ([]*model.BankTransaction, error)
	GetBankTransaction(ctx context.Context, orgID, id string) (*model.BankTransaction, error)
	ListBankTransactions(ctx context.Context, orgID string, query service.BankTransactionQuery) (*storage.BankTransactionListResult, error)
}

var _ BankTransactionService = (*service.BankTransactionService)(nil)

// BankTransactionsHandler handles bank transaction requests.
type BankTransactionsHandler struct {
	*Base
	service BankTransactionService
}

// NewBankTransactionsHandler creates a new bank transactions handler.
func NewBankTransactionsHandler(svc BankTransactionService, logger *slog.Logger) *BankTransactionsHandler {
	return &BankTransactionsHandler{
		Base:    NewBase(logger),
		service: svc,
	}
}

// Create handles POST /api/bank-transactions - imports one statement line.
func (h *BankTransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.BankTransactionRequest
	if err := DecodeJSON(r, &req, false); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	in, err := toBankTransactionInput(req)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	txn, err := h.service.CreateBankTransaction(r.Context(), h.Organization(r), in)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, toBankTransactionResponse(txn))
}

// Import handles POST /api/bank-transactions/import - imports a statement as
// one batch. The body is either JSON or a text/csv export.
func (h *BankTransactionsHandler) Import(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		imported []*model.BankTransaction
		err      error
	)

	switch mediaType {
	case "text/csv", "application/csv":
		imported, err = h.service.ImportCSV(r.Context(), h.Organization(r), io.LimitReader(r.Body, maxBodyBytes))
	case "application/json", "":
		var req dto.ImportBankTransactionsRequest
		if decodeErr := DecodeJSON(r, &req, false); decodeErr != nil {
			h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(decodeErr.Error()))
			return
		}

		inputs := make([]service.BankTransactionInput, 0, len(req.Transactions))
		for i, row := range req.Transactions {
			in, rowErr := toBankTransactionInput(row)
			if rowErr != nil {
				h.WriteServiceError(w, r, fmt.Errorf("row %d: %w", i, rowErr))
				return
			}
			inputs = append(inputs, in)
		}
		imported, err = h.service.ImportBankTransactions(r.Context(), h.Organization(r), inputs)
	default:
		h.WriteError(w, http.StatusUnsupportedMediaType,
			dto.BadRequestError(fmt.Sprintf("unsupported content type %q", mediaType)))
		return
	}

	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, dto.ImportBankTransactionsResponse{
		Imported:     len(imported),
		Transactions: toBankTransactionResponses(imported),
	})
}

// List handles GET /api/bank-transactions - returns paginated transactions.
func (h *BankTransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	limit, offset := ParsePage(r)
	query := service.BankTransactionQuery{
		From:    from,
		To:      to,
		Matched: ParseOptionalBoolParam(r, "matched"),
		Limit:   limit,
		Offset:  offset,
	}

	result, err := h.service.ListBankTransactions(r.Context(), h.Organization(r), query)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.BankTransactionListResponse{
		Transactions: toBankTransactionResponses(result.Transactions),
		TotalCount:   result.TotalCount,
		Limit:        result.Limit,
		Offset:       result.Offset,
	})
}

// Get handles GET /api/bank-transactions/{id} - returns a single transaction.
func (h *BankTransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("bank transaction ID is required"))
		return
	}

	txn, err := h.service.GetBankTransaction(r.Context(), h.Organization(r), id)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toBankTransactionResponse(txn))
}

func toBankTransactionInput(req dto.BankTransactionRequest) (service.BankTransactionInput, error) {
	amount, err := ParseAmount("amount", req.Amount)
	if err != nil {
		return service.BankTransactionInput{}, err
	}
	date, err := ParseDate("date", req.Date)
	if err != nil {
		return service.BankTransactionInput{}, err
	}
	return service.BankTransactionInput{
		Amount:      amount,
		Date:        date,
		Description: req.Description,
		Reference:   req.Reference,
	}, nil
}

func toBankTransactionResponse(t *model.BankTransaction) dto.BankTransactionResponse {
	return dto.BankTransactionResponse{
		ID:               t.ID,
		Amount:           t.Amount.StringFixed(2),
		Date:             t.Date.String(),
		Description:      t.Description,
		Reference:        t.Reference,
		Matched:          t.Matched(),
		ReconciliationID: t.ReconciliationID,
		PaymentID:        t.PaymentID,
		CreatedAt:        formatTime(t.CreatedAt),
	}
}

func toBankTransactionResponses(transactions []*model.BankTransaction) []dto.BankTransactionResponse {
	responses := make([]dto.BankTransactionResponse, 0, len(transactions))
	for _, t := range transactions {
		responses = append(responses, toBankTransactionResponse(t))
	}
	return responses
}
