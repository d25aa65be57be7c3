package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mtlprog/taskflow/internal/domain"
	"github.com/mtlprog/taskflow/internal/handler/dto"
)

type contextKey string

const (
	// ContextKeyIdentity is the key for storing the caller identity in request context.
	ContextKeyIdentity contextKey = "identity"
)

// Request headers carrying the caller identity. They are set by a trusted gateway.
const (
	HeaderTenantID = "X-Tenant-Id"
	HeaderRole     = "X-Role"
	HeaderUserID   = "X-User-Id"
)

// ErrMissingIdentity is returned when no identity was attached to the context.
var ErrMissingIdentity = errors.New("request identity missing")

// Identity is who is calling. Role and UserID are empty when the headers were absent.
type Identity struct {
	TenantID string
	Role     domain.Role
	UserID   string
}

// RequireRole returns the role or an error when the X-Role header was absent.
func (i Identity) RequireRole() (domain.Role, error) {
	if i.Role == "" {
		return "", domain.ErrInvalidRole
	}
	return i.Role, nil
}

// Identify reads the identity headers and adds them to request context.
// X-Tenant-Id is mandatory; X-Role, when present, must be a known role.
func Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := strings.TrimSpace(r.Header.Get(HeaderTenantID))
		if tenantID == "" {
			respondError(w, http.StatusUnauthorized, "MISSING_TENANT", "X-Tenant-Id header is required")
			return
		}

		identity := Identity{
			TenantID: tenantID,
			UserID:   strings.TrimSpace(r.Header.Get(HeaderUserID)),
		}

		if raw := strings.TrimSpace(r.Header.Get(HeaderRole)); raw != "" {
			role, err := domain.ParseRole(strings.ToLower(raw))
			if err != nil {
				respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
				return
			}
			identity.Role = role
		}

		ctx := context.WithValue(r.Context(), ContextKeyIdentity, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentityFromContext retrieves the caller identity from request context.
func GetIdentityFromContext(ctx context.Context) (Identity, error) {
	identity, ok := ctx.Value(ContextKeyIdentity).(Identity)
	if !ok || identity.TenantID == "" {
		return Identity{}, ErrMissingIdentity
	}
	return identity, nil
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(dto.NewErrorResponse(code, message)); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
