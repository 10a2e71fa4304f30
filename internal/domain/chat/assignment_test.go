package chat_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-server/internal/domain/chat"
	"crm-server/internal/utils/platformerrors"
)

func newAssignmentService(conversations chat.ConversationRepository, messages chat.MessageRepository, pub *recordingPublisher) *chat.AssignmentService {
	events := chat.NewEvents(pub, time.Second, zerolog.Nop())
	return chat.NewAssignmentService(&fakeTransactor{}, conversations, messages, events, zerolog.Nop())
}

func notFoundErr() error {
	return platformerrors.NewError(context.Background(), platformerrors.LayerRepository,
		platformerrors.ErrorTypeNotFound, "conversation not found", nil, "00000000-0000-0000-0000-000000000000")
}

func TestAssignClaimsQueuedConversation(t *testing.T) {
	conv := &chat.Conversation{ID: "conv_1", LeadID: "lead_1", Status: chat.StatusQueued}

	var updated *chat.Conversation
	convRepo := &mockConversationRepo{
		FindByIDForUpdateFunc: func(ctx context.Context, id string) (*chat.Conversation, error) {
			return conv, nil
		},
		UpdateFunc: func(ctx context.Context, c *chat.Conversation) error {
			updated = c
			return nil
		},
	}
	msgRepo := &mockMessageRepo{}
	pub := &recordingPublisher{}

	svc := newAssignmentService(convRepo, msgRepo, pub)

	claimed, err := svc.Assign(context.Background(), "conv_1", "usr_7", "Laura")
	require.NoError(t, err)

	require.NotNil(t, claimed.AgentID)
	assert.Equal(t, "usr_7", *claimed.AgentID)
	assert.Equal(t, chat.StatusInProgress, claimed.Status)
	require.NotNil(t, claimed.AssignedAt)
	assert.Same(t, conv, updated)

	msgs := msgRepo.createdMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, chat.SenderSystem, msgs[0].SenderType)
	assert.Equal(t, "Laura se ha unido al chat.", msgs[0].Content)
	assert.Equal(t, "conv_1", msgs[0].ConversationID)

	events := pub.events()
	require.Len(t, events, 2)
	assert.Equal(t, chat.ConversationTopic("conv_1"), events[0].Topic)
	assert.Equal(t, chat.EventAgentJoined, events[0].Event)
	assert.Equal(t, chat.DashboardTopic, events[1].Topic)
	assert.Equal(t, chat.EventConversationAssigned, events[1].Event)
}

func TestAssignConflictWhenClaimedByAnotherAgent(t *testing.T) {
	other := "usr_1"
	conv := &chat.Conversation{ID: "conv_1", LeadID: "lead_1", Status: chat.StatusInProgress, AgentID: &other}

	convRepo := &mockConversationRepo{
		FindByIDForUpdateFunc: func(ctx context.Context, id string) (*chat.Conversation, error) {
			return conv, nil
		},
	}
	msgRepo := &mockMessageRepo{}
	pub := &recordingPublisher{}

	svc := newAssignmentService(convRepo, msgRepo, pub)

	_, err := svc.Assign(context.Background(), "conv_1", "usr_2", "Marco")
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict))
	assert.Contains(t, err.Error(), "Este chat ya fue tomado por otro agente.")

	// The losing claim leaves no trace.
	assert.Empty(t, msgRepo.createdMessages())
	assert.Empty(t, pub.events())
	assert.Equal(t, other, *conv.AgentID)
}

func TestAssignReclaimBySameAgentSucceeds(t *testing.T) {
	mine := "usr_2"
	assignedAt := time.Now().UTC().Add(-time.Hour)
	conv := &chat.Conversation{ID: "conv_1", LeadID: "lead_1", Status: chat.StatusInProgress, AgentID: &mine, AssignedAt: &assignedAt}

	convRepo := &mockConversationRepo{
		FindByIDForUpdateFunc: func(ctx context.Context, id string) (*chat.Conversation, error) {
			return conv, nil
		},
	}
	msgRepo := &mockMessageRepo{}
	pub := &recordingPublisher{}

	svc := newAssignmentService(convRepo, msgRepo, pub)

	claimed, err := svc.Assign(context.Background(), "conv_1", "usr_2", "Marco")
	require.NoError(t, err)
	assert.Equal(t, "usr_2", *claimed.AgentID)

	// A re-claim appends another join notice.
	msgs := msgRepo.createdMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Marco se ha unido al chat.", msgs[0].Content)
}

func TestAssignUnknownConversation(t *testing.T) {
	convRepo := &mockConversationRepo{
		FindByIDForUpdateFunc: func(ctx context.Context, id string) (*chat.Conversation, error) {
			return nil, notFoundErr()
		},
	}
	svc := newAssignmentService(convRepo, &mockMessageRepo{}, &recordingPublisher{})

	_, err := svc.Assign(context.Background(), "conv_missing", "usr_1", "Laura")
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
	assert.Contains(t, err.Error(), "La conversación no existe o fue eliminada.")
}

// TestAssignMutualExclusion races many agents for one conversation through a
// shared state-backed repository. Exactly one claim must win.
func TestAssignMutualExclusion(t *testing.T) {
	state := &chat.Conversation{ID: "conv_1", LeadID: "lead_1", Status: chat.StatusQueued}

	// The fake transactor serializes Assign calls, so reads and writes of
	// state never interleave, mirroring the row lock.
	convRepo := &mockConversationRepo{
		FindByIDForUpdateFunc: func(ctx context.Context, id string) (*chat.Conversation, error) {
			copied := *state
			return &copied, nil
		},
		UpdateFunc: func(ctx context.Context, c *chat.Conversation) error {
			*state = *c
			return nil
		},
	}
	msgRepo := &mockMessageRepo{}
	svc := newAssignmentService(convRepo, msgRepo, &recordingPublisher{})

	const agents = 8
	results := make(chan error, agents)
	var wg sync.WaitGroup
	for i := 0; i < agents; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Assign(context.Background(), "conv_1", fmt.Sprintf("usr_%d", n), fmt.Sprintf("Agente %d", n))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		require.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict))
		conflicts++
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, agents-1, conflicts)
	assert.Len(t, msgRepo.createdMessages(), 1)
	require.NotNil(t, state.AgentID)
	assert.Equal(t, chat.StatusInProgress, state.Status)
}

func TestResolveByOwner(t *testing.T) {
	mine := "usr_2"
	conv := &chat.Conversation{ID: "conv_1", LeadID: "lead_1", Status: chat.StatusInProgress, AgentID: &mine}

	convRepo := &mockConversationRepo{
		FindByIDForUpdateFunc: func(ctx context.Context, id string) (*chat.Conversation, error) {
			return conv, nil
		},
	}
	pub := &recordingPublisher{}
	svc := newAssignmentService(convRepo, &mockMessageRepo{}, pub)

	resolved, err := svc.Resolve(context.Background(), "conv_1", "usr_2")
	require.NoError(t, err)
	assert.Equal(t, chat.StatusResolved, resolved.Status)

	events := pub.events()
	require.Len(t, events, 2)
	assert.Equal(t, chat.EventConversationUpdated, events[0].Event)
}

func TestResolveByNonOwnerForbidden(t *testing.T) {
	mine := "usr_2"
	conv := &chat.Conversation{ID: "conv_1", LeadID: "lead_1", Status: chat.StatusInProgress, AgentID: &mine}

	convRepo := &mockConversationRepo{
		FindByIDForUpdateFunc: func(ctx context.Context, id string) (*chat.Conversation, error) {
			return conv, nil
		},
	}
	svc := newAssignmentService(convRepo, &mockMessageRepo{}, &recordingPublisher{})

	_, err := svc.Resolve(context.Background(), "conv_1", "usr_9")
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeForbidden))
	assert.Equal(t, chat.StatusInProgress, conv.Status)
}

func TestResolveQueuedConversationConflicts(t *testing.T) {
	mine := "usr_2"
	conv := &chat.Conversation{ID: "conv_1", LeadID: "lead_1", Status: chat.StatusResolved, AgentID: &mine}

	convRepo := &mockConversationRepo{
		FindByIDForUpdateFunc: func(ctx context.Context, id string) (*chat.Conversation, error) {
			return conv, nil
		},
	}
	svc := newAssignmentService(convRepo, &mockMessageRepo{}, &recordingPublisher{})

	_, err := svc.Resolve(context.Background(), "conv_1", "usr_2")
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict))
}
