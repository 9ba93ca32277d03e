package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
	"github.com/eshaffer321/reconcile-backend/internal/domain/validator"
	"github.com/eshaffer321/reconcile-backend/internal/infrastructure/storage"
)

// PaymentInput is a payment as reported by the property-management side.
type PaymentInput struct {
	Amount       decimal.Decimal
	ReceivedDate model.Date
	Method       model.PaymentMethod
	Reference    string
	ChargeID     string
}

// PaymentQuery holds list parameters for payments.
type PaymentQuery struct {
	From       model.Date
	To         model.Date
	Reconciled *bool
	Method     model.PaymentMethod
	Limit      int
	Offset     int
}

// PaymentService records payments and looks them up.
type PaymentService struct {
	storage storage.Repository
	logger  *slog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(store storage.Repository, logger *slog.Logger) *PaymentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentService{storage: store, logger: logger}
}

// RecordPayment validates and stores a new, unreconciled payment.
func (s *PaymentService) RecordPayment(ctx context.Context, orgID string, in PaymentInput) (*model.Payment, error) {
	p := &model.Payment{
		OrganizationID: orgID,
		Amount:         in.Amount,
		ReceivedDate:   in.ReceivedDate,
		Method:         model.PaymentMethod(strings.ToUpper(strings.TrimSpace(string(in.Method)))),
		Reference:      strings.TrimSpace(in.Reference),
		ChargeID:       strings.TrimSpace(in.ChargeID),
	}
	if err := validator.ValidatePayment(p); err != nil {
		return nil, err
	}

	if err := s.storage.CreatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	s.logger.Debug("payment recorded",
		"organization_id", orgID,
		"payment_id", p.ID,
		"amount", p.Amount.StringFixed(2),
		"received_date", p.ReceivedDate.String(),
		"method", string(p.Method),
	)
	return p, nil
}

// GetPayment returns one payment of the organization.
func (s *PaymentService) GetPayment(ctx context.Context, orgID, id string) (*model.Payment, error) {
	if err := requireOrganization(orgID); err != nil {
		return nil, err
	}
	return s.storage.GetPayment(ctx, orgID, id)
}

// ListPayments returns the organization's payments in insertion order.
func (s *PaymentService) ListPayments(ctx context.Context, orgID string, query PaymentQuery) (*storage.PaymentListResult, error) {
	if err := requireOrganization(orgID); err != nil {
		return nil, err
	}
	if err := validateOptionalRange(query.From, query.To); err != nil {
		return nil, err
	}
	if query.Method != "" && !query.Method.Valid() {
		return nil, model.Validationf("unknown payment method %q", query.Method)
	}
	if err := validatePage(query.Limit, query.Offset); err != nil {
		return nil, err
	}

	return s.storage.ListPayments(ctx, storage.PaymentFilters{
		OrganizationID: orgID,
		From:           query.From,
		To:             query.To,
		Reconciled:     query.Reconciled,
		Method:         query.Method,
		Limit:          query.Limit,
		Offset:         query.Offset,
	})
}

// validateOptionalRange accepts open-ended ranges but rejects inverted ones.
func validateOptionalRange(from, to model.Date) error {
	if !from.IsZero() && !to.IsZero() && from.After(to.Time) {
		return model.Validationf("start date %s is after end date %s", from, to)
	}
	return nil
}
