package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DashboardTopic is the shared topic agents subscribe to for
// cross-conversation events.
const DashboardTopic = "agents-dashboard"

const conversationTopicPrefix = "private-chat-"

// ConversationTopic returns the private per-conversation topic name.
func ConversationTopic(conversationID string) string {
	return conversationTopicPrefix + conversationID
}

// ConversationIDFromTopic extracts the conversation id from a private topic
// name, or "" if the topic is not a private conversation topic.
func ConversationIDFromTopic(topic string) string {
	if len(topic) <= len(conversationTopicPrefix) || topic[:len(conversationTopicPrefix)] != conversationTopicPrefix {
		return ""
	}
	return topic[len(conversationTopicPrefix):]
}

// Event names carried on the broadcast channel.
const (
	EventNewMessage           = "new-message"
	EventAgentJoined          = "agent-joined"
	EventConversationAssigned = "conversation-assigned"
	EventNewLead              = "new-lead"
	EventConversationUpdated  = "conversation:updated"
)

// Publisher fans an event out to everyone subscribed to a topic. Delivery is
// at-least-once; duplicates and drops are tolerated because the store stays
// the source of truth.
type Publisher interface {
	Publish(ctx context.Context, topic, event string, payload any) error
}

// Events wraps the publisher with the fire-and-forget semantics the send and
// claim paths require: each publish gets its own short deadline and a
// failure is logged, never returned.
type Events struct {
	pub     Publisher
	timeout time.Duration
	log     zerolog.Logger
}

func NewEvents(pub Publisher, timeout time.Duration, log zerolog.Logger) *Events {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Events{
		pub:     pub,
		timeout: timeout,
		log:     log.With().Str("component", "chat-events").Logger(),
	}
}

func (e *Events) publish(topic, event string, payload any) {
	// Detached from the caller's context: the durable operation has already
	// committed and must not be failed or cancelled by a slow broadcast.
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	if err := e.pub.Publish(ctx, topic, event, payload); err != nil {
		e.log.Warn().Err(err).
			Str("topic", topic).
			Str("event", event).
			Msg("broadcast publish failed")
	}
}

// NewMessage notifies the conversation's private topic of a persisted message.
func (e *Events) NewMessage(msg *Message) {
	e.publish(ConversationTopic(msg.ConversationID), EventNewMessage, msg)
}

// AgentJoined notifies the lead's private topic that an agent claimed the chat.
func (e *Events) AgentJoined(conversationID, agentID, agentName string) {
	e.publish(ConversationTopic(conversationID), EventAgentJoined, map[string]string{
		"agentId":   agentID,
		"agentName": agentName,
	})
}

// ConversationAssigned tells the dashboard a conversation left the queue.
func (e *Events) ConversationAssigned(conversationID, agentID string) {
	e.publish(DashboardTopic, EventConversationAssigned, map[string]string{
		"conversationId": conversationID,
		"agentId":        agentID,
	})
}

// NewLead tells the dashboard a new conversation entered the queue.
func (e *Events) NewLead(conversationID, leadID, leadName string) {
	e.publish(DashboardTopic, EventNewLead, map[string]string{
		"conversationId": conversationID,
		"leadId":         leadID,
		"leadName":       leadName,
	})
}

// ConversationUpdated pushes annotator results to both the private topic and
// the dashboard.
func (e *Events) ConversationUpdated(conversationID string, payload any) {
	e.publish(ConversationTopic(conversationID), EventConversationUpdated, payload)
	e.publish(DashboardTopic, EventConversationUpdated, payload)
}
