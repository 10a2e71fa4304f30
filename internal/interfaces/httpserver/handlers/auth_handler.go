package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"crm-server/internal/domain/user"
	"crm-server/internal/infrastructure/auth"
	"crm-server/internal/interfaces/httpserver/requests"
	"crm-server/internal/interfaces/httpserver/responses"
	"crm-server/internal/utils/platformerrors"
)

// AuthHandler exposes session issuance for intranet accounts.
type AuthHandler struct {
	users  *user.Service
	tokens *auth.TokenManager
	log    zerolog.Logger
}

func NewAuthHandler(users *user.Service, tokens *auth.TokenManager, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		log:    log.With().Str("component", "auth-handler").Logger(),
	}
}

// Login verifies credentials and issues a session token. Bans are evaluated
// here: an expired ban no longer blocks the account.
func (h *AuthHandler) Login(c *gin.Context) {
	var req requests.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, "correo y contraseña son obligatorios")
		return
	}

	u, err := h.users.VerifyCredentials(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	session, err := h.tokens.Issue(c.Request.Context(), u)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      responses.FromUser(u),
	})
}
