package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"crm-server/internal/infrastructure/metrics"
	"crm-server/internal/utils/idgen"
	"crm-server/internal/utils/platformerrors"
)

// AssignmentService binds conversations to agents under mutual exclusion.
type AssignmentService struct {
	tx            Transactor
	conversations ConversationRepository
	messages      MessageRepository
	events        *Events
	log           zerolog.Logger
}

func NewAssignmentService(tx Transactor, conversations ConversationRepository, messages MessageRepository, events *Events, log zerolog.Logger) *AssignmentService {
	return &AssignmentService{
		tx:            tx,
		conversations: conversations,
		messages:      messages,
		events:        events,
		log:           log.With().Str("component", "assignment-service").Logger(),
	}
}

// Assign claims a conversation for an agent. The read-guard-write sequence
// and the SYSTEM message run inside one transaction with the conversation
// row locked, so concurrent claims on the same conversation serialize: only
// one caller observes an unset agent and proceeds, everyone else fails the
// guard. A re-claim by the agent that already owns the conversation
// succeeds and appends another SYSTEM message.
func (s *AssignmentService) Assign(ctx context.Context, conversationID, agentID, agentName string) (*Conversation, error) {
	var claimed *Conversation

	err := s.tx.Transaction(ctx, func(txCtx context.Context) error {
		conv, err := s.conversations.FindByIDForUpdate(txCtx, conversationID)
		if err != nil {
			if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
				return platformerrors.NewError(txCtx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
					"La conversación no existe o fue eliminada.", err, "c4f8a216-3e9d-47b0-8a51-d27e6b14c9f3")
			}
			return platformerrors.AsError(txCtx, platformerrors.LayerDomain, err, "failed to read conversation for claim")
		}

		// The guard: an already-claimed conversation can only be re-claimed
		// by the same agent.
		if conv.AgentID != nil && *conv.AgentID != agentID {
			return platformerrors.NewError(txCtx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
				"Este chat ya fue tomado por otro agente.", nil, "7d1b9e42-65af-4c03-b8d9-f0a32c58e617")
		}

		now := time.Now().UTC()
		conv.AgentID = &agentID
		conv.Status = StatusInProgress
		conv.AssignedAt = &now

		if err := s.conversations.Update(txCtx, conv); err != nil {
			return platformerrors.AsError(txCtx, platformerrors.LayerDomain, err, "failed to claim conversation")
		}

		msgID, err := idgen.GenerateSecureID("msg", 16)
		if err != nil {
			return platformerrors.AsError(txCtx, platformerrors.LayerDomain, err, "failed to generate message id")
		}
		systemMsg := &Message{
			ID:             msgID,
			ConversationID: conversationID,
			Content:        fmt.Sprintf("%s se ha unido al chat.", agentName),
			SenderType:     SenderSystem,
		}
		if err := s.messages.Create(txCtx, systemMsg); err != nil {
			return platformerrors.AsError(txCtx, platformerrors.LayerDomain, err, "failed to append system message")
		}

		claimed = conv
		return nil
	})
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict) {
			metrics.RecordClaim("conflict")
		} else {
			metrics.RecordClaim("error")
		}
		return nil, err
	}

	metrics.RecordClaim("success")

	// The durable claim already committed: notify both sides best effort.
	s.events.AgentJoined(conversationID, agentID, agentName)
	s.events.ConversationAssigned(conversationID, agentID)

	s.log.Info().
		Str("conversation_id", conversationID).
		Str("agent_id", agentID).
		Msg("conversation assigned")

	return claimed, nil
}

// Resolve marks an IN_PROGRESS conversation terminal. Only the owning agent
// may resolve it.
func (s *AssignmentService) Resolve(ctx context.Context, conversationID, agentID string) (*Conversation, error) {
	var resolved *Conversation

	err := s.tx.Transaction(ctx, func(txCtx context.Context) error {
		conv, err := s.conversations.FindByIDForUpdate(txCtx, conversationID)
		if err != nil {
			return platformerrors.AsError(txCtx, platformerrors.LayerDomain, err, "failed to read conversation")
		}

		if conv.AgentID == nil || *conv.AgentID != agentID {
			return platformerrors.NewError(txCtx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden,
				"Solo el agente asignado puede resolver la conversación.", nil, "e92c5a88-4b17-4f60-a3dc-185f7e0b94c2")
		}
		if conv.Status != StatusInProgress {
			return platformerrors.NewError(txCtx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
				"La conversación no está en progreso.", nil, "51a3dc07-8ef4-49b2-bc6e-920d1f74a8c5")
		}

		conv.Status = StatusResolved
		if err := s.conversations.Update(txCtx, conv); err != nil {
			return platformerrors.AsError(txCtx, platformerrors.LayerDomain, err, "failed to resolve conversation")
		}

		resolved = conv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.ConversationUpdated(conversationID, map[string]string{
		"id":     conversationID,
		"status": string(StatusResolved),
	})

	return resolved, nil
}
