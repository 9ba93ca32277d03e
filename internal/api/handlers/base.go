package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/reconcile-backend/internal/api/dto"
	"github.com/eshaffer321/reconcile-backend/internal/api/middleware"
	"github.com/eshaffer321/reconcile-backend/internal/domain/model"
	"github.com/eshaffer321/reconcile-backend/internal/domain/validator"
)

// maxBodyBytes bounds JSON and CSV request bodies.
const maxBodyBytes = 10 << 20

// Base provides shared functionality for all handlers.
type Base struct {
	logger *slog.Logger
}

// NewBase creates a new base handler with the given logger.
func NewBase(logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{logger: logger}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(w http.ResponseWriter, status int, err dto.APIError) {
	b.WriteJSON(w, status, err)
}

// WriteServiceError maps a service error onto the API error taxonomy.
// Unrecognised errors are logged and returned as an opaque internal error.
func (b *Base) WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		b.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
	case errors.Is(err, model.ErrNotFound):
		b.WriteError(w, http.StatusNotFound, dto.NotFoundError(err.Error()))
	case errors.Is(err, model.ErrConflict):
		b.WriteError(w, http.StatusConflict, dto.ConflictError(err.Error()))
	default:
		b.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimw.GetReqID(r.Context()),
			"error", err,
		)
		b.WriteError(w, http.StatusInternalServerError, dto.InternalError())
	}
}

// Organization returns the organization the request is scoped to.
func (b *Base) Organization(r *http.Request) string {
	return middleware.OrganizationID(r.Context())
}

// DecodeJSON decodes a JSON request body into v. An empty body leaves v
// untouched when allowEmpty is set.
func DecodeJSON(r *http.Request, v interface{}, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseBoolParam parses a boolean query parameter with a default value.
func ParseBoolParam(r *http.Request, name string, defaultVal bool) bool {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1"
}

// ParseOptionalBoolParam returns nil when the parameter is absent.
func ParseOptionalBoolParam(r *http.Request, name string) *bool {
	if r.URL.Query().Get(name) == "" {
		return nil
	}
	v := ParseBoolParam(r, name, false)
	return &v
}

// ParsePage reads limit and offset, applying the list defaults and cap.
func ParsePage(r *http.Request) (limit, offset int) {
	limit = ParseIntParam(r, "limit", dto.DefaultListLimit)
	if limit <= 0 {
		limit = dto.DefaultListLimit
	}
	if limit > dto.MaxListLimit {
		limit = dto.MaxListLimit
	}
	offset = ParseIntParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ParseDate parses a YYYY-MM-DD value. Empty input yields the zero date so
// callers can decide whether the field is required.
func ParseDate(name, value string) (model.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return model.Date{}, nil
	}
	d, err := model.ParseDate(value)
	if err != nil {
		return model.Date{}, model.Validationf("%s: %v", name, err)
	}
	return d, nil
}

// ParseAmount parses a plain decimal amount string.
func ParseAmount(name, value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, model.Validationf("%s is required", name)
	}
	amount, err := validator.ParseAmount(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", name, err)
	}
	return amount, nil
}

// formatTime renders timestamps in API responses.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
