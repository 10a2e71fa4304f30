package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"crm-server/internal/domain/chat"
	"crm-server/internal/interfaces/httpserver/middlewares"
	"crm-server/internal/interfaces/httpserver/requests"
	"crm-server/internal/utils/platformerrors"
)

// AgentHandler exposes the agent workspace endpoints. All routes require an
// authenticated agent or admin session.
type AgentHandler struct {
	chats       *chat.Service
	assignments *chat.AssignmentService
	log         zerolog.Logger
}

func NewAgentHandler(chats *chat.Service, assignments *chat.AssignmentService, log zerolog.Logger) *AgentHandler {
	return &AgentHandler{
		chats:       chats,
		assignments: assignments,
		log:         log.With().Str("component", "agent-handler").Logger(),
	}
}

// Queue returns QUEUED conversations, oldest first.
func (h *AgentHandler) Queue(c *gin.Context) {
	convs, err := h.chats.GetQueue(c.Request.Context())
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// MyConversations returns the caller's assigned conversations, most
// recently assigned first.
func (h *AgentHandler) MyConversations(c *gin.Context) {
	convs, err := h.chats.GetAgentConversations(c.Request.Context(), middlewares.CallerID(c))
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// GetConversation returns one conversation with its lead and full history.
func (h *AgentHandler) GetConversation(c *gin.Context) {
	conv, err := h.chats.GetConversation(c.Request.Context(), c.Param("id"))
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// Assign claims the conversation for the calling agent. A conversation
// already claimed by someone else returns a conflict.
func (h *AgentHandler) Assign(c *gin.Context) {
	conv, err := h.assignments.Assign(c.Request.Context(), c.Param("id"), middlewares.CallerID(c), middlewares.CallerName(c))
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// SendMessage relays an agent message into a conversation.
func (h *AgentHandler) SendMessage(c *gin.Context) {
	var req requests.AgentMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, "el mensaje no puede estar vacío")
		return
	}

	msg, err := h.chats.SendMessage(c.Request.Context(), c.Param("id"), req.Content, chat.SenderAgent)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// Resolve marks a conversation terminal. Only the owning agent may do it.
func (h *AgentHandler) Resolve(c *gin.Context) {
	conv, err := h.assignments.Resolve(c.Request.Context(), c.Param("id"), middlewares.CallerID(c))
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, conv)
}
