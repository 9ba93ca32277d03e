package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/eshaffer321/reconcile-backend/internal/api/dto"
)

// OrganizationHeader carries the tenant every /api request is scoped to.
const OrganizationHeader = "X-Organization-ID"

type organizationKey struct{}

// WithOrganizationID returns a copy of ctx carrying the organization ID.
func WithOrganizationID(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, organizationKey{}, orgID)
}

// OrganizationID returns the organization stored by RequireOrganization, or "".
func OrganizationID(ctx context.Context) string {
	orgID, _ := ctx.Value(organizationKey{}).(string)
	return orgID
}

// RequireOrganization rejects requests without an X-Organization-ID header and
// stores the organization in the request context.
func RequireOrganization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID := strings.TrimSpace(r.Header.Get(OrganizationHeader))
		if orgID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(dto.BadRequestError(OrganizationHeader + " header is required"))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithOrganizationID(r.Context(), orgID)))
	})
}
