package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"crm-server/internal/domain/user"
	"crm-server/internal/interfaces/httpserver/requests"
	"crm-server/internal/interfaces/httpserver/responses"
	"crm-server/internal/utils/platformerrors"
)

// UserHandler exposes admin account management.
type UserHandler struct {
	users *user.Service
	log   zerolog.Logger
}

func NewUserHandler(users *user.Service, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		users: users,
		log:   log.With().Str("component", "user-handler").Logger(),
	}
}

// List returns accounts with pagination, active/banned filtering, and
// name/email search.
func (h *UserHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.users.List(c.Request.Context(), user.ListOptions{
		Page:     page,
		PageSize: pageSize,
		Filter:   user.ListFilter(c.DefaultQuery("filter", "active")),
		Search:   c.Query("q"),
	})
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.UserListResponse{
		Users:      responses.FromUsers(result.Users),
		Total:      result.Total,
		TotalPages: result.TotalPages,
	})
}

// Create registers a new account.
func (h *UserHandler) Create(c *gin.Context) {
	var req requests.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, "nombre, correo, contraseña y rol son obligatorios")
		return
	}

	u, err := h.users.Create(c.Request.Context(), user.CreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     user.Role(req.Role),
	})
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusCreated, responses.FromUser(u))
}

// Update applies partial account changes.
func (h *UserHandler) Update(c *gin.Context) {
	var req requests.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, "cuerpo de la petición inválido")
		return
	}

	input := user.UpdateInput{Name: req.Name, Email: req.Email}
	if req.Role != nil {
		role := user.Role(*req.Role)
		input.Role = &role
	}

	u, err := h.users.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.FromUser(u))
}

// Ban blocks an account, optionally until an expiry date.
func (h *UserHandler) Ban(c *gin.Context) {
	var req requests.BanUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, "cuerpo de la petición inválido")
		return
	}

	u, err := h.users.Ban(c.Request.Context(), c.Param("id"), req.Reason, req.Expires)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.FromUser(u))
}

// Reactivate clears a ban.
func (h *UserHandler) Reactivate(c *gin.Context) {
	u, err := h.users.Reactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.FromUser(u))
}
