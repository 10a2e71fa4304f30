package chat

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"crm-server/internal/domain/lead"
	"crm-server/internal/infrastructure/metrics"
	"crm-server/internal/utils/idgen"
	"crm-server/internal/utils/platformerrors"
)

// StartConversationInput is the intake form payload plus the client-held
// lead token and the first message.
type StartConversationInput struct {
	LeadID  string
	Name    string
	Email   string
	Phone   string
	Message string
}

// StartConversationResult reports the new conversation and the canonical
// lead id the client must keep. When the submitted email matched an
// existing lead under a different token, LeadID differs from the submitted
// one and the client replaces its stored token.
type StartConversationResult struct {
	ConversationID string `json:"conversation_id"`
	LeadID         string `json:"lead_id"`
}

// Service is the message relay and conversation query surface shared by the
// lead-facing widget and the agent workspace.
type Service struct {
	tx            Transactor
	conversations ConversationRepository
	messages      MessageRepository
	leads         *lead.Service
	events        *Events
	analyzer      Analyzer
	log           zerolog.Logger
}

func NewService(tx Transactor, conversations ConversationRepository, messages MessageRepository, leads *lead.Service, events *Events, analyzer Analyzer, log zerolog.Logger) *Service {
	return &Service{
		tx:            tx,
		conversations: conversations,
		messages:      messages,
		leads:         leads,
		events:        events,
		analyzer:      analyzer,
		log:           log.With().Str("component", "chat-service").Logger(),
	}
}

// StartConversation runs the lead capture path: reconcile the submitted
// token against the store, upsert the lead, then create the QUEUED
// conversation and its first message atomically. The dashboard notification
// is best effort and never rolls back persistence.
func (s *Service) StartConversation(ctx context.Context, input StartConversationInput) (*StartConversationResult, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"el mensaje no puede estar vacío", nil, "b6490c3e-2a87-4f15-9d02-c81e5a37f694")
	}

	canonicalID, err := s.leads.Reconcile(ctx, input.LeadID, input.Email)
	if err != nil {
		return nil, err
	}

	l, err := s.leads.CreateOrUpdate(ctx, lead.UpsertInput{
		ID:    canonicalID,
		Name:  input.Name,
		Email: input.Email,
		Phone: input.Phone,
	})
	if err != nil {
		return nil, err
	}

	convID, err := idgen.GenerateSecureID("conv", 16)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate conversation id")
	}
	msgID, err := idgen.GenerateSecureID("msg", 16)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate message id")
	}

	conv := &Conversation{
		ID:     convID,
		LeadID: l.ID,
		Status: StatusQueued,
	}
	first := &Message{
		ID:             msgID,
		ConversationID: convID,
		Content:        strings.TrimSpace(input.Message),
		SenderType:     SenderLead,
	}

	err = s.tx.Transaction(ctx, func(txCtx context.Context) error {
		if err := s.conversations.Create(txCtx, conv); err != nil {
			return platformerrors.AsError(txCtx, platformerrors.LayerDomain, err, "failed to create conversation")
		}
		if err := s.messages.Create(txCtx, first); err != nil {
			return platformerrors.AsError(txCtx, platformerrors.LayerDomain, err, "failed to create first message")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordMessage(string(SenderLead))
	s.events.NewLead(convID, l.ID, l.Name)

	s.log.Info().
		Str("conversation_id", convID).
		Str("lead_id", l.ID).
		Msg("conversation queued")

	return &StartConversationResult{ConversationID: convID, LeadID: l.ID}, nil
}

// SendMessage persists a message then republishes it on the conversation's
// private topic. Used symmetrically by the lead and agent send paths. The
// synchronous return value and the broadcast may reach a client in either
// order; clients merge by message id.
func (s *Service) SendMessage(ctx context.Context, conversationID, content string, sender SenderType) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"el mensaje no puede estar vacío", nil, "f3a17d52-08c9-4be6-a4d1-7e62b90c58f3")
	}

	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "conversation not found")
	}
	if conv.Status == StatusResolved {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
			"la conversación ya fue resuelta", nil, "2d9c6f41-8b57-4e0a-a3f8-c17e54b2d690")
	}

	msgID, err := idgen.GenerateSecureID("msg", 16)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate message id")
	}
	msg := &Message{
		ID:             msgID,
		ConversationID: conversationID,
		Content:        strings.TrimSpace(content),
		SenderType:     sender,
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to persist message")
	}

	metrics.RecordMessage(string(sender))
	s.events.NewMessage(msg)

	if sender == SenderLead {
		s.leads.TouchLastSeen(ctx, conv.LeadID)
	}

	// Annotation is opportunistic: detached from the request, never awaited,
	// and only ever touches the AI triage fields.
	if s.analyzer != nil && sender != SenderSystem {
		go func(id string) {
			if err := s.analyzer.AnalyzeConversation(context.Background(), id); err != nil {
				s.log.Warn().Err(err).Str("conversation_id", id).Msg("conversation analysis failed")
			}
		}(conversationID)
	}

	return msg, nil
}

// GetMessages returns the full ordered history of a conversation.
func (s *Service) GetMessages(ctx context.Context, conversationID string) ([]*Message, error) {
	if _, err := s.conversations.FindByID(ctx, conversationID); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "conversation not found")
	}
	msgs, err := s.messages.FindByConversation(ctx, conversationID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list messages")
	}
	return msgs, nil
}

// GetQueue returns QUEUED conversations for the agent dashboard, oldest
// first so the longest-waiting lead is attended next.
func (s *Service) GetQueue(ctx context.Context) ([]*Conversation, error) {
	convs, err := s.conversations.FindQueued(ctx)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list queued conversations")
	}
	return convs, nil
}

// GetAgentConversations returns the conversations assigned to an agent,
// most recently assigned first.
func (s *Service) GetAgentConversations(ctx context.Context, agentID string) ([]*Conversation, error) {
	convs, err := s.conversations.FindByAgent(ctx, agentID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list agent conversations")
	}
	return convs, nil
}

// GetConversation returns a conversation with its lead and message history.
func (s *Service) GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	conv, err := s.conversations.FindByIDWithDetails(ctx, conversationID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "conversation not found")
	}
	return conv, nil
}

// GetConversationOwner returns the lead id owning a conversation. Used by
// the broadcast subscription authorizer.
func (s *Service) GetConversationOwner(ctx context.Context, conversationID string) (string, error) {
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "conversation not found")
	}
	return conv.LeadID, nil
}
