package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/taskflow/internal/domain"
	"github.com/mtlprog/taskflow/internal/handler/dto"
	"github.com/mtlprog/taskflow/internal/middleware"
)

func TestIdentify(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantCode   string
		want       middleware.Identity
	}{
		{
			name:       "missing tenant",
			headers:    map[string]string{"X-Role": "agent"},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "MISSING_TENANT",
		},
		{
			name:       "unknown role",
			headers:    map[string]string{"X-Tenant-Id": "t_1", "X-Role": "admin"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "tenant only",
			headers:    map[string]string{"X-Tenant-Id": "t_1"},
			wantStatus: http.StatusOK,
			want:       middleware.Identity{TenantID: "t_1"},
		},
		{
			name:       "full identity",
			headers:    map[string]string{"X-Tenant-Id": "t_1", "X-Role": "Manager", "X-User-Id": "u_9"},
			wantStatus: http.StatusOK,
			want:       middleware.Identity{TenantID: "t_1", Role: domain.RoleManager, UserID: "u_9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got middleware.Identity
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var err error
				got, err = middleware.GetIdentityFromContext(r.Context())
				require.NoError(t, err)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()

			middleware.Identify(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				var resp dto.ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, tt.wantCode, resp.Error.Code)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetIdentityFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := middleware.GetIdentityFromContext(req.Context())
	assert.ErrorIs(t, err, middleware.ErrMissingIdentity)
}

func TestIdentity_RequireRole(t *testing.T) {
	_, err := middleware.Identity{TenantID: "t"}.RequireRole()
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	role, err := middleware.Identity{TenantID: "t", Role: domain.RoleAgent}.RequireRole()
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, role)
}
