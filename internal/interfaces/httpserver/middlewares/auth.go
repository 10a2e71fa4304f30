package middlewares

import (
	"github.com/gin-gonic/gin"

	"crm-server/internal/domain/user"
	"crm-server/internal/infrastructure/auth"
	"crm-server/internal/utils/platformerrors"
)

const (
	ctxUserIDKey   = "auth_user_id"
	ctxUserNameKey = "auth_user_name"
	ctxUserRoleKey = "auth_user_role"
)

// RequireAuth verifies the bearer session token and stores the caller's
// identity in the gin context.
func RequireAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := auth.BearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			platformerrors.WriteUnauthorized(c, "se requiere autenticación")
			c.Abort()
			return
		}

		claims, err := tokens.Verify(c.Request.Context(), tokenString)
		if err != nil {
			platformerrors.WriteUnauthorized(c, "sesión inválida o expirada")
			c.Abort()
			return
		}

		c.Set(ctxUserIDKey, claims.Subject)
		c.Set(ctxUserNameKey, claims.Name)
		c.Set(ctxUserRoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole restricts a route group to callers holding one of the given
// roles. Must run after RequireAuth.
func RequireRole(roles ...user.Role) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[string(role)] = true
	}

	return func(c *gin.Context) {
		if !allowed[c.GetString(ctxUserRoleKey)] {
			platformerrors.WriteForbidden(c, "no tienes permiso para acceder a este recurso")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CallerID returns the authenticated user's id, or "".
func CallerID(c *gin.Context) string {
	return c.GetString(ctxUserIDKey)
}

// CallerName returns the authenticated user's display name, or "".
func CallerName(c *gin.Context) string {
	return c.GetString(ctxUserNameKey)
}

// CallerRole returns the authenticated user's role, or "".
func CallerRole(c *gin.Context) string {
	return c.GetString(ctxUserRoleKey)
}
