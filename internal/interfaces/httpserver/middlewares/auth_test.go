package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-server/internal/domain/user"
	"crm-server/internal/infrastructure/auth"
	"crm-server/internal/interfaces/httpserver/middlewares"
)

func newProtectedRouter(tokens *auth.TokenManager, roles ...user.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	group := router.Group("/protected", middlewares.RequireAuth(tokens))
	if len(roles) > 0 {
		group.Use(middlewares.RequireRole(roles...))
	}
	group.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"caller_id":   middlewares.CallerID(c),
			"caller_role": middlewares.CallerRole(c),
		})
	})
	return router
}

func issueToken(t *testing.T, tokens *auth.TokenManager, role user.Role) string {
	t.Helper()
	session, err := tokens.Issue(context.Background(), &user.User{ID: "usr_1", Name: "Laura", Role: role})
	require.NoError(t, err)
	return session.Token
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "crm-server", time.Hour)
	router := newProtectedRouter(tokens)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "se requiere autenticación")
}

func TestRequireAuthRejectsInvalidToken(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "crm-server", time.Hour)
	router := newProtectedRouter(tokens)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer basura")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "sesión inválida o expirada")
}

func TestRequireAuthSetsCallerIdentity(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "crm-server", time.Hour)
	router := newProtectedRouter(tokens)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, user.RoleSalesAgent))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"caller_id":"usr_1"`)
	assert.Contains(t, w.Body.String(), `"caller_role":"sales_agent"`)
}

func TestRequireRole(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "crm-server", time.Hour)
	router := newProtectedRouter(tokens, user.RoleAdmin)

	tests := []struct {
		name       string
		role       user.Role
		wantStatus int
	}{
		{"admin allowed", user.RoleAdmin, http.StatusOK},
		{"agent forbidden", user.RoleSalesAgent, http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, tc.role))
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus == http.StatusForbidden {
				assert.Contains(t, w.Body.String(), "no tienes permiso")
			}
		})
	}
}
