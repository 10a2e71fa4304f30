package chat_test

import (
	"context"
	"sync"
	"time"

	"crm-server/internal/domain/chat"
	"crm-server/internal/domain/lead"
)

// mockConversationRepo is a func-field mock of chat.ConversationRepository.
type mockConversationRepo struct {
	CreateFunc              func(ctx context.Context, conv *chat.Conversation) error
	FindByIDFunc            func(ctx context.Context, id string) (*chat.Conversation, error)
	FindByIDForUpdateFunc   func(ctx context.Context, id string) (*chat.Conversation, error)
	FindByIDWithDetailsFunc func(ctx context.Context, id string) (*chat.Conversation, error)
	UpdateFunc              func(ctx context.Context, conv *chat.Conversation) error
	UpdateAIFieldsFunc      func(ctx context.Context, id string, summary string, tags []string, priority chat.Priority) error
	FindQueuedFunc          func(ctx context.Context) ([]*chat.Conversation, error)
	FindByAgentFunc         func(ctx context.Context, agentID string) ([]*chat.Conversation, error)
	FindActiveByLeadFunc    func(ctx context.Context, leadID string) (*chat.Conversation, error)
}

func (m *mockConversationRepo) Create(ctx context.Context, conv *chat.Conversation) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, conv)
	}
	return nil
}

func (m *mockConversationRepo) FindByID(ctx context.Context, id string) (*chat.Conversation, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockConversationRepo) FindByIDForUpdate(ctx context.Context, id string) (*chat.Conversation, error) {
	if m.FindByIDForUpdateFunc != nil {
		return m.FindByIDForUpdateFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockConversationRepo) FindByIDWithDetails(ctx context.Context, id string) (*chat.Conversation, error) {
	if m.FindByIDWithDetailsFunc != nil {
		return m.FindByIDWithDetailsFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockConversationRepo) Update(ctx context.Context, conv *chat.Conversation) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, conv)
	}
	return nil
}

func (m *mockConversationRepo) UpdateAIFields(ctx context.Context, id string, summary string, tags []string, priority chat.Priority) error {
	if m.UpdateAIFieldsFunc != nil {
		return m.UpdateAIFieldsFunc(ctx, id, summary, tags, priority)
	}
	return nil
}

func (m *mockConversationRepo) FindQueued(ctx context.Context) ([]*chat.Conversation, error) {
	if m.FindQueuedFunc != nil {
		return m.FindQueuedFunc(ctx)
	}
	return nil, nil
}

func (m *mockConversationRepo) FindByAgent(ctx context.Context, agentID string) ([]*chat.Conversation, error) {
	if m.FindByAgentFunc != nil {
		return m.FindByAgentFunc(ctx, agentID)
	}
	return nil, nil
}

func (m *mockConversationRepo) FindActiveByLead(ctx context.Context, leadID string) (*chat.Conversation, error) {
	if m.FindActiveByLeadFunc != nil {
		return m.FindActiveByLeadFunc(ctx, leadID)
	}
	return nil, nil
}

// mockMessageRepo is a func-field mock of chat.MessageRepository. It also
// records every created message for assertions.
type mockMessageRepo struct {
	mu                     sync.Mutex
	created                []*chat.Message
	CreateFunc             func(ctx context.Context, msg *chat.Message) error
	FindByConversationFunc func(ctx context.Context, conversationID string) ([]*chat.Message, error)
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *chat.Message) error {
	m.mu.Lock()
	m.created = append(m.created, msg)
	m.mu.Unlock()
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, msg)
	}
	return nil
}

func (m *mockMessageRepo) FindByConversation(ctx context.Context, conversationID string) ([]*chat.Message, error) {
	if m.FindByConversationFunc != nil {
		return m.FindByConversationFunc(ctx, conversationID)
	}
	return nil, nil
}

func (m *mockMessageRepo) createdMessages() []*chat.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*chat.Message, len(m.created))
	copy(out, m.created)
	return out
}

// fakeTransactor serializes transactions with a mutex the way row locks
// serialize them in the store.
type fakeTransactor struct {
	mu sync.Mutex
}

func (t *fakeTransactor) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

// recordingPublisher captures every publish, optionally failing them.
type recordingPublisher struct {
	mu        sync.Mutex
	published []publishedEvent
	Err       error
}

type publishedEvent struct {
	Topic   string
	Event   string
	Payload any
}

func (p *recordingPublisher) Publish(ctx context.Context, topic, event string, payload any) error {
	p.mu.Lock()
	p.published = append(p.published, publishedEvent{Topic: topic, Event: event, Payload: payload})
	p.mu.Unlock()
	return p.Err
}

func (p *recordingPublisher) events() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]publishedEvent, len(p.published))
	copy(out, p.published)
	return out
}

// mockLeadRepo is a func-field mock of lead.Repository.
type mockLeadRepo struct {
	FindByIDFunc      func(ctx context.Context, id string) (*lead.Lead, error)
	FindByEmailFunc   func(ctx context.Context, email string) (*lead.Lead, error)
	UpsertFunc        func(ctx context.Context, l *lead.Lead) error
	TouchLastSeenFunc func(ctx context.Context, id string, at time.Time) error
}

func (m *mockLeadRepo) FindByID(ctx context.Context, id string) (*lead.Lead, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockLeadRepo) FindByEmail(ctx context.Context, email string) (*lead.Lead, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockLeadRepo) Upsert(ctx context.Context, l *lead.Lead) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, l)
	}
	return nil
}

func (m *mockLeadRepo) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	if m.TouchLastSeenFunc != nil {
		return m.TouchLastSeenFunc(ctx, id, at)
	}
	return nil
}

// mockFinder is a func-field mock of lead.ActiveConversationFinder.
type mockFinder struct {
	FindActiveConversationIDFunc func(ctx context.Context, leadID string) (*string, error)
}

func (m *mockFinder) FindActiveConversationID(ctx context.Context, leadID string) (*string, error) {
	if m.FindActiveConversationIDFunc != nil {
		return m.FindActiveConversationIDFunc(ctx, leadID)
	}
	return nil, nil
}

// mockAnalyzer signals on a channel when invoked.
type mockAnalyzer struct {
	called chan string
}

func newMockAnalyzer() *mockAnalyzer {
	return &mockAnalyzer{called: make(chan string, 8)}
}

func (m *mockAnalyzer) AnalyzeConversation(ctx context.Context, conversationID string) error {
	m.called <- conversationID
	return nil
}
