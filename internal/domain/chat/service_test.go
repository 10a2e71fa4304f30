package chat_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-server/internal/domain/chat"
	"crm-server/internal/domain/lead"
	"crm-server/internal/utils/platformerrors"
)

func leadNotFoundErr() error {
	return platformerrors.NewError(context.Background(), platformerrors.LayerRepository,
		platformerrors.ErrorTypeNotFound, "lead not found", nil, "00000000-0000-0000-0000-000000000001")
}

func newChatService(convRepo chat.ConversationRepository, msgRepo chat.MessageRepository, leadRepo lead.Repository, pub *recordingPublisher, analyzer chat.Analyzer) *chat.Service {
	events := chat.NewEvents(pub, time.Second, zerolog.Nop())
	leads := lead.NewService(leadRepo, &mockFinder{}, zerolog.Nop())
	return chat.NewService(&fakeTransactor{}, convRepo, msgRepo, leads, events, analyzer, zerolog.Nop())
}

func TestStartConversationRejectsEmptyMessage(t *testing.T) {
	svc := newChatService(&mockConversationRepo{}, &mockMessageRepo{}, &mockLeadRepo{}, &recordingPublisher{}, nil)

	_, err := svc.StartConversation(context.Background(), chat.StartConversationInput{
		Name:    "Ana",
		Email:   "ana@example.com",
		Message: "   ",
	})
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}

func TestStartConversationQueuesWithFirstMessage(t *testing.T) {
	var createdConv *chat.Conversation
	convRepo := &mockConversationRepo{
		CreateFunc: func(ctx context.Context, conv *chat.Conversation) error {
			createdConv = conv
			return nil
		},
	}
	msgRepo := &mockMessageRepo{}
	leadRepo := &mockLeadRepo{
		FindByEmailFunc: func(ctx context.Context, email string) (*lead.Lead, error) {
			return nil, leadNotFoundErr()
		},
	}
	pub := &recordingPublisher{}

	svc := newChatService(convRepo, msgRepo, leadRepo, pub, nil)

	result, err := svc.StartConversation(context.Background(), chat.StartConversationInput{
		LeadID:  "lead_abc",
		Name:    "Ana",
		Email:   "Ana@Example.com",
		Message: "Hola, busco un departamento",
	})
	require.NoError(t, err)

	assert.Equal(t, "lead_abc", result.LeadID)
	assert.True(t, strings.HasPrefix(result.ConversationID, "conv_"))

	require.NotNil(t, createdConv)
	assert.Equal(t, chat.StatusQueued, createdConv.Status)
	assert.Nil(t, createdConv.AgentID)
	assert.Equal(t, "lead_abc", createdConv.LeadID)

	msgs := msgRepo.createdMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, chat.SenderLead, msgs[0].SenderType)
	assert.Equal(t, "Hola, busco un departamento", msgs[0].Content)
	assert.Equal(t, createdConv.ID, msgs[0].ConversationID)

	events := pub.events()
	require.Len(t, events, 1)
	assert.Equal(t, chat.DashboardTopic, events[0].Topic)
	assert.Equal(t, chat.EventNewLead, events[0].Event)
}

// A submitted token loses to an existing lead with the same email: the
// canonical id comes back so the client can replace its stored token.
func TestStartConversationReconcilesLeadByEmail(t *testing.T) {
	existing := &lead.Lead{ID: "lead_original", Name: "Ana", Email: "ana@example.com"}
	leadRepo := &mockLeadRepo{
		FindByEmailFunc: func(ctx context.Context, email string) (*lead.Lead, error) {
			return existing, nil
		},
	}

	svc := newChatService(&mockConversationRepo{}, &mockMessageRepo{}, leadRepo, &recordingPublisher{}, nil)

	result, err := svc.StartConversation(context.Background(), chat.StartConversationInput{
		LeadID:  "lead_fresh_device",
		Name:    "Ana",
		Email:   "ana@example.com",
		Message: "Hola de nuevo",
	})
	require.NoError(t, err)
	assert.Equal(t, "lead_original", result.LeadID)
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	svc := newChatService(&mockConversationRepo{}, &mockMessageRepo{}, &mockLeadRepo{}, &recordingPublisher{}, nil)

	_, err := svc.SendMessage(context.Background(), "conv_1", "", chat.SenderAgent)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}

func TestSendMessageRejectsResolvedConversation(t *testing.T) {
	convRepo := &mockConversationRepo{
		FindByIDFunc: func(ctx context.Context, id string) (*chat.Conversation, error) {
			return &chat.Conversation{ID: id, LeadID: "lead_abc", Status: chat.StatusResolved}, nil
		},
	}
	msgRepo := &mockMessageRepo{}
	pub := &recordingPublisher{}
	svc := newChatService(convRepo, msgRepo, &mockLeadRepo{}, pub, nil)

	_, err := svc.SendMessage(context.Background(), "conv_1", "¿sigue disponible?", chat.SenderLead)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict))
	assert.Empty(t, msgRepo.createdMessages())
	assert.Empty(t, pub.events())
}

// A failing broadcast never fails the send: the message stays persisted and
// the caller gets it back.
func TestSendMessageSurvivesBroadcastFailure(t *testing.T) {
	convRepo := &mockConversationRepo{
		FindByIDFunc: func(ctx context.Context, id string) (*chat.Conversation, error) {
			return &chat.Conversation{ID: id, LeadID: "lead_1", Status: chat.StatusInProgress}, nil
		},
	}
	msgRepo := &mockMessageRepo{}
	pub := &recordingPublisher{Err: context.DeadlineExceeded}

	svc := newChatService(convRepo, msgRepo, &mockLeadRepo{}, pub, nil)

	msg, err := svc.SendMessage(context.Background(), "conv_1", "sigo interesado", chat.SenderLead)
	require.NoError(t, err)
	assert.Equal(t, "sigo interesado", msg.Content)
	assert.Len(t, msgRepo.createdMessages(), 1)
}

func TestSendMessageTriggersAnalysis(t *testing.T) {
	convRepo := &mockConversationRepo{
		FindByIDFunc: func(ctx context.Context, id string) (*chat.Conversation, error) {
			return &chat.Conversation{ID: id, LeadID: "lead_1", Status: chat.StatusInProgress}, nil
		},
	}
	analyzer := newMockAnalyzer()

	svc := newChatService(convRepo, &mockMessageRepo{}, &mockLeadRepo{}, &recordingPublisher{}, analyzer)

	_, err := svc.SendMessage(context.Background(), "conv_1", "quiero agendar una visita", chat.SenderLead)
	require.NoError(t, err)

	select {
	case id := <-analyzer.called:
		assert.Equal(t, "conv_1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("analysis was never triggered")
	}
}

func TestSendMessageSkipsAnalysisForSystemSender(t *testing.T) {
	convRepo := &mockConversationRepo{
		FindByIDFunc: func(ctx context.Context, id string) (*chat.Conversation, error) {
			return &chat.Conversation{ID: id, LeadID: "lead_1", Status: chat.StatusInProgress}, nil
		},
	}
	analyzer := newMockAnalyzer()

	svc := newChatService(convRepo, &mockMessageRepo{}, &mockLeadRepo{}, &recordingPublisher{}, analyzer)

	_, err := svc.SendMessage(context.Background(), "conv_1", "Laura se ha unido al chat.", chat.SenderSystem)
	require.NoError(t, err)

	select {
	case <-analyzer.called:
		t.Fatal("system messages must not trigger analysis")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSendMessageTouchesLeadLastSeen(t *testing.T) {
	convRepo := &mockConversationRepo{
		FindByIDFunc: func(ctx context.Context, id string) (*chat.Conversation, error) {
			return &chat.Conversation{ID: id, LeadID: "lead_1", Status: chat.StatusInProgress}, nil
		},
	}
	var touched string
	leadRepo := &mockLeadRepo{
		TouchLastSeenFunc: func(ctx context.Context, id string, at time.Time) error {
			touched = id
			return nil
		},
	}

	svc := newChatService(convRepo, &mockMessageRepo{}, leadRepo, &recordingPublisher{}, nil)

	_, err := svc.SendMessage(context.Background(), "conv_1", "hola", chat.SenderLead)
	require.NoError(t, err)
	assert.Equal(t, "lead_1", touched)

	// Agent messages do not touch the lead.
	touched = ""
	_, err = svc.SendMessage(context.Background(), "conv_1", "buenas tardes", chat.SenderAgent)
	require.NoError(t, err)
	assert.Empty(t, touched)
}
