package lead

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"crm-server/internal/utils/idgen"
	"crm-server/internal/utils/platformerrors"
)

// ActiveConversationFinder reports the most recent open conversation for a
// lead, if any. Implemented by the conversation repository.
type ActiveConversationFinder interface {
	FindActiveConversationID(ctx context.Context, leadID string) (*string, error)
}

// HandshakeResult is the outcome of the smart handshake: whether the
// client-held token maps to a known lead, and the open conversation to
// resume if one exists.
type HandshakeResult struct {
	Exists               bool    `json:"exists"`
	ActiveConversationID *string `json:"active_conversation_id"`
}

// UpsertInput carries the contact details collected by the intake form.
type UpsertInput struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// Service resolves client-held identifiers against durable lead state.
type Service struct {
	repo          Repository
	conversations ActiveConversationFinder
	validate      *validator.Validate
	log           zerolog.Logger
}

func NewService(repo Repository, conversations ActiveConversationFinder, log zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		conversations: conversations,
		validate:      validator.New(),
		log:           log.With().Str("component", "lead-service").Logger(),
	}
}

// ResolveHandshake checks whether the client-held token belongs to a known
// lead and, if so, returns the lead's most recent open conversation. The
// token is untrusted input; an unknown token simply means the intake form
// must be shown.
func (s *Service) ResolveHandshake(ctx context.Context, clientToken string) (*HandshakeResult, error) {
	clientToken = strings.TrimSpace(clientToken)
	if clientToken == "" {
		return &HandshakeResult{Exists: false}, nil
	}

	l, err := s.repo.FindByID(ctx, clientToken)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return &HandshakeResult{Exists: false}, nil
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to resolve handshake")
	}

	activeID, err := s.conversations.FindActiveConversationID(ctx, l.ID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to look up active conversation")
	}

	return &HandshakeResult{Exists: true, ActiveConversationID: activeID}, nil
}

// Reconcile returns the canonical lead id for a submitted token and email.
// If the email already belongs to a lead with a different id, that lead's id
// wins so the same person does not get duplicate records across devices. An
// empty token gets a freshly generated id.
func (s *Service) Reconcile(ctx context.Context, submittedID, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		return "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to reconcile lead identity")
	}
	if existing != nil {
		return existing.ID, nil
	}

	submittedID = strings.TrimSpace(submittedID)
	if submittedID == "" {
		generated, err := idgen.GenerateSecureID("lead", 24)
		if err != nil {
			return "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate lead id")
		}
		return generated, nil
	}
	return submittedID, nil
}

// CreateOrUpdate upserts a lead by id, refreshing contact details and last
// seen on every call.
func (s *Service) CreateOrUpdate(ctx context.Context, input UpsertInput) (*Lead, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"correo electrónico inválido", err, "8f0c2d1a-93b4-4a6e-bf01-5a2d7c3e9f10")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"el nombre es obligatorio", nil, "2b7e4f9c-1d35-4c8a-9e60-7f1a3b5d8c21")
	}

	l := &Lead{
		ID:       input.ID,
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		LastSeen: time.Now().UTC(),
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		l.Phone = &phone
	}

	if err := s.repo.Upsert(ctx, l); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to upsert lead")
	}
	return l, nil
}

// TouchLastSeen marks the lead as recently active. Best effort: failures are
// logged and swallowed since message delivery must not depend on it.
func (s *Service) TouchLastSeen(ctx context.Context, id string) {
	if err := s.repo.TouchLastSeen(ctx, id, time.Now().UTC()); err != nil {
		s.log.Warn().Err(err).Str("lead_id", id).Msg("failed to update lead last seen")
	}
}
