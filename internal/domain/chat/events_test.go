package chat_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-server/internal/domain/chat"
)

func TestConversationTopicRoundTrip(t *testing.T) {
	topic := chat.ConversationTopic("conv_abc123")
	assert.Equal(t, "private-chat-conv_abc123", topic)
	assert.Equal(t, "conv_abc123", chat.ConversationIDFromTopic(topic))
}

func TestConversationIDFromTopicRejectsOtherTopics(t *testing.T) {
	tests := []struct {
		name  string
		topic string
	}{
		{"dashboard", chat.DashboardTopic},
		{"empty", ""},
		{"prefix only", "private-chat-"},
		{"unrelated", "presence-lobby"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Empty(t, chat.ConversationIDFromTopic(tc.topic))
		})
	}
}

func TestConversationUpdatedReachesBothTopics(t *testing.T) {
	pub := &recordingPublisher{}
	events := chat.NewEvents(pub, time.Second, zerolog.Nop())

	events.ConversationUpdated("conv_1", map[string]string{"id": "conv_1"})

	published := pub.events()
	require.Len(t, published, 2)
	assert.Equal(t, chat.ConversationTopic("conv_1"), published[0].Topic)
	assert.Equal(t, chat.DashboardTopic, published[1].Topic)
	for _, e := range published {
		assert.Equal(t, chat.EventConversationUpdated, e.Event)
	}
}

func TestEventsSwallowPublishErrors(t *testing.T) {
	pub := &recordingPublisher{Err: assert.AnError}
	events := chat.NewEvents(pub, time.Second, zerolog.Nop())

	// Must not panic or propagate anything.
	events.NewMessage(&chat.Message{ID: "msg_1", ConversationID: "conv_1"})
	events.NewLead("conv_1", "lead_1", "Ana")
	events.AgentJoined("conv_1", "usr_1", "Laura")

	assert.Len(t, pub.events(), 3)
}
