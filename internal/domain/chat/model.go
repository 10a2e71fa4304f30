package chat

import (
	"context"
	"time"

	"crm-server/internal/domain/lead"
)

// ===============================================
// Conversation Types
// ===============================================

type ConversationStatus string

const (
	StatusQueued     ConversationStatus = "QUEUED"
	StatusInProgress ConversationStatus = "IN_PROGRESS"
	StatusResolved   ConversationStatus = "RESOLVED"
)

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

type SenderType string

const (
	SenderLead   SenderType = "LEAD"
	SenderAgent  SenderType = "AGENT"
	SenderSystem SenderType = "SYSTEM"
)

// ===============================================
// Conversation Structure
// ===============================================

// Conversation is the unit of assignment and messaging between one lead and
// at most one agent. AgentID is nil exactly while the conversation is QUEUED;
// once set by the claim it never changes to a different agent.
type Conversation struct {
	ID         string             `json:"id"`
	LeadID     string             `json:"lead_id"`
	AgentID    *string            `json:"agent_id,omitempty"`
	Status     ConversationStatus `json:"status"`
	AssignedAt *time.Time         `json:"assigned_at,omitempty"`
	AISummary  *string            `json:"ai_summary,omitempty"`
	AITags     []string           `json:"ai_tags,omitempty"`
	Priority   *Priority          `json:"priority,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`

	Lead     *lead.Lead `json:"lead,omitempty"`
	Messages []*Message `json:"messages,omitempty"`
}

// Message is an append-only chat entry. Ordering is by CreatedAt ascending;
// IDs are opaque and not assumed sortable.
type Message struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	Content        string         `json:"content"`
	SenderType     SenderType     `json:"sender_type"`
	IsRead         bool           `json:"is_read"`
	ReadAt         *time.Time     `json:"read_at,omitempty"`
	AttachmentURL  *string        `json:"attachment_url,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ===============================================
// Repositories
// ===============================================

type ConversationRepository interface {
	Create(ctx context.Context, conv *Conversation) error
	FindByID(ctx context.Context, id string) (*Conversation, error)
	// FindByIDForUpdate reads the row under a pessimistic lock; it must be
	// called inside a transaction so concurrent claims serialize on the row.
	FindByIDForUpdate(ctx context.Context, id string) (*Conversation, error)
	FindByIDWithDetails(ctx context.Context, id string) (*Conversation, error)
	Update(ctx context.Context, conv *Conversation) error
	// UpdateAIFields writes only the annotator owned columns. It never
	// touches status, agent binding, or messages.
	UpdateAIFields(ctx context.Context, id string, summary string, tags []string, priority Priority) error
	FindQueued(ctx context.Context) ([]*Conversation, error)
	FindByAgent(ctx context.Context, agentID string) ([]*Conversation, error)
	FindActiveByLead(ctx context.Context, leadID string) (*Conversation, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error
	FindByConversation(ctx context.Context, conversationID string) ([]*Message, error)
}

// Transactor runs fn inside a single store transaction. The context passed
// to fn carries the transaction; repository calls made with it join it.
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Analyzer annotates a conversation after the fact. Implementations are
// fire-and-forget from the send path's point of view.
type Analyzer interface {
	AnalyzeConversation(ctx context.Context, conversationID string) error
}
