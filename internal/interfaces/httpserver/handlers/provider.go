package handlers

import (
	"github.com/rs/zerolog"

	"crm-server/internal/domain/chat"
	"crm-server/internal/domain/lead"
	"crm-server/internal/domain/user"
	"crm-server/internal/infrastructure/auth"
	"crm-server/internal/infrastructure/broadcast"
)

// Provider wires HTTP handlers.
type Provider struct {
	Chat      *ChatHandler
	Agent     *AgentHandler
	Auth      *AuthHandler
	Users     *UserHandler
	Broadcast *BroadcastHandler
}

func NewProvider(
	chats *chat.Service,
	assignments *chat.AssignmentService,
	leads *lead.Service,
	users *user.Service,
	tokens *auth.TokenManager,
	signer *broadcast.Signer,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		Chat:      NewChatHandler(chats, leads, log),
		Agent:     NewAgentHandler(chats, assignments, log),
		Auth:      NewAuthHandler(users, tokens, log),
		Users:     NewUserHandler(users, log),
		Broadcast: NewBroadcastHandler(signer, tokens, chats, log),
	}
}
