package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"crm-server/internal/domain/chat"
	"crm-server/internal/infrastructure/auth"
	"crm-server/internal/infrastructure/broadcast"
	"crm-server/internal/interfaces/httpserver/requests"
	"crm-server/internal/utils/platformerrors"
)

// BroadcastHandler authorizes broadcast channel subscriptions. Agents may
// join any topic; leads only the private topic of a conversation they own.
type BroadcastHandler struct {
	signer *broadcast.Signer
	tokens *auth.TokenManager
	chats  *chat.Service
	log    zerolog.Logger
}

func NewBroadcastHandler(signer *broadcast.Signer, tokens *auth.TokenManager, chats *chat.Service, log zerolog.Logger) *BroadcastHandler {
	return &BroadcastHandler{
		signer: signer,
		tokens: tokens,
		chats:  chats,
		log:    log.With().Str("component", "broadcast-handler").Logger(),
	}
}

// Auth issues a subscription grant. The realtime client posts the socket id
// and topic form-encoded before joining a private topic.
func (h *BroadcastHandler) Auth(c *gin.Context) {
	var req requests.BroadcastAuthRequest
	if err := c.ShouldBind(&req); err != nil {
		platformerrors.WriteValidationError(c, "socket_id y channel_name son obligatorios")
		return
	}

	info, ok := h.authorize(c, &req)
	if !ok {
		return
	}

	grant, err := h.signer.Sign(c.Request.Context(), req.SocketID, req.Channel, info)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, grant)
}

func (h *BroadcastHandler) authorize(c *gin.Context, req *requests.BroadcastAuthRequest) (*broadcast.SubscriberInfo, bool) {
	// A valid session token makes the caller an agent with access to every
	// topic, the dashboard included.
	if tokenString := auth.BearerToken(c.GetHeader("Authorization")); tokenString != "" {
		claims, err := h.tokens.Verify(c.Request.Context(), tokenString)
		if err != nil {
			platformerrors.WriteUnauthorized(c, "sesión inválida o expirada")
			return nil, false
		}
		return &broadcast.SubscriberInfo{
			UserID: claims.Subject,
			UserInfo: map[string]string{
				"name": claims.Name,
				"role": claims.Role,
			},
		}, true
	}

	// Anonymous caller: must present a lead token and may only join the
	// private topic of a conversation that token owns.
	if req.UserID == "" {
		platformerrors.WriteForbidden(c, "ID de Lead requerido")
		return nil, false
	}

	conversationID := chat.ConversationIDFromTopic(req.Channel)
	if conversationID == "" {
		platformerrors.WriteForbidden(c, "Tipo de canal no autorizado para visitantes")
		return nil, false
	}

	owner, err := h.chats.GetConversationOwner(c.Request.Context(), conversationID)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return nil, false
	}
	if owner != req.UserID {
		h.log.Warn().
			Str("lead_id", req.UserID).
			Str("conversation_id", conversationID).
			Str("owner", owner).
			Msg("lead attempted to subscribe to a conversation it does not own")
		platformerrors.WriteForbidden(c, "No tienes permiso para ver este chat")
		return nil, false
	}

	return &broadcast.SubscriberInfo{
		UserID: req.UserID,
		UserInfo: map[string]string{
			"name": "Visitante",
			"role": "LEAD",
		},
	}, true
}
