package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"crm-server/internal/domain/chat"
	"crm-server/internal/domain/lead"
	"crm-server/internal/interfaces/httpserver/requests"
	"crm-server/internal/utils/platformerrors"
)

// ChatHandler exposes the public lead-facing chat endpoints.
type ChatHandler struct {
	chats *chat.Service
	leads *lead.Service
	log   zerolog.Logger
}

func NewChatHandler(chats *chat.Service, leads *lead.Service, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		chats: chats,
		leads: leads,
		log:   log.With().Str("component", "chat-handler").Logger(),
	}
}

// Handshake resolves the client-held token: whether the visitor is a known
// lead and which open conversation to resume. An absent or unknown token is
// not an error.
func (h *ChatHandler) Handshake(c *gin.Context) {
	var req requests.HandshakeRequest
	// An empty body is a valid handshake from a brand new visitor.
	_ = c.ShouldBindJSON(&req)

	result, err := h.leads.ResolveHandshake(c.Request.Context(), req.LeadID)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, result)
}

// StartConversation runs the lead capture path and returns the new
// conversation id plus the canonical lead token the client must store.
func (h *ChatHandler) StartConversation(c *gin.Context) {
	var req requests.StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, "nombre, correo y mensaje son obligatorios")
		return
	}

	result, err := h.chats.StartConversation(c.Request.Context(), chat.StartConversationInput{
		LeadID:  req.LeadID,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	})
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetMessages returns the ordered history of a conversation the caller owns.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	conversationID := c.Param("id")
	if !h.authorizeLead(c, conversationID, c.Query("lead_id")) {
		return
	}

	msgs, err := h.chats.GetMessages(c.Request.Context(), conversationID)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// SendMessage relays a lead message into a conversation the caller owns.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	conversationID := c.Param("id")

	var req requests.LeadMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, "el mensaje no puede estar vacío")
		return
	}
	if !h.authorizeLead(c, conversationID, req.LeadID) {
		return
	}

	msg, err := h.chats.SendMessage(c.Request.Context(), conversationID, req.Content, chat.SenderLead)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// authorizeLead verifies the supplied lead token owns the conversation. On
// failure it writes the response and returns false.
func (h *ChatHandler) authorizeLead(c *gin.Context, conversationID, leadID string) bool {
	if leadID == "" {
		platformerrors.WriteForbidden(c, "ID de Lead requerido")
		return false
	}

	owner, err := h.chats.GetConversationOwner(c.Request.Context(), conversationID)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return false
	}
	if owner != leadID {
		h.log.Warn().
			Str("conversation_id", conversationID).
			Str("lead_id", leadID).
			Msg("lead attempted to access a conversation it does not own")
		platformerrors.WriteForbidden(c, "No tienes permiso para ver este chat")
		return false
	}
	return true
}
