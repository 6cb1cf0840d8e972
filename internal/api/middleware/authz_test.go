package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daap14/coachgate/internal/api/middleware"
	"github.com/daap14/coachgate/internal/auth"
)

// --- RequireRole Tests ---

func TestRequireRole_AdminAllowed(t *testing.T) {
	t.Parallel()
	svc, _ := setupAuthService(t)
	_, rawKey := createClientWithKey(t, svc, "ops", auth.RoleAdmin)

	handler := middleware.Auth(svc)(middleware.RequireRole(auth.RoleAdmin)(okHandler()))
	req := httptest.NewRequest(http.MethodPut, "/", nil)
	req.Header.Set("X-API-Key", rawKey)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole_ServiceRejectedFromAdminRoute(t *testing.T) {
	t.Parallel()
	svc, _ := setupAuthService(t)
	_, rawKey := createClientWithKey(t, svc, "web", auth.RoleService)

	handler := middleware.Auth(svc)(middleware.RequireRole(auth.RoleAdmin)(okHandler()))
	req := httptest.NewRequest(http.MethodPut, "/", nil)
	req.Header.Set("X-API-Key", rawKey)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", parseErrorResponse(t, w)["code"])
}

func TestRequireRole_AnyOfSeveral(t *testing.T) {
	t.Parallel()
	svc, _ := setupAuthService(t)
	_, rawKey := createClientWithKey(t, svc, "web", auth.RoleService)

	handler := middleware.Auth(svc)(middleware.RequireRole(auth.RoleService, auth.RoleAdmin)(okHandler()))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", rawKey)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole_NoIdentity(t *testing.T) {
	t.Parallel()

	handler := middleware.RequireRole(auth.RoleAdmin)(okHandler())
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
