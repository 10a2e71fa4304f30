package ai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"crm-server/internal/domain/chat"
	"crm-server/internal/infrastructure/metrics"
	"crm-server/internal/utils/platformerrors"
)

const analysisSystemPrompt = `Role: You are an expert Real Estate Lead Analyst.
Task: Analyze the chat history between a "Agente" (Sales Rep) and a "Prospecto" (Lead).

Output JSON Schema:
{
  "summary": "String. Resumen conciso de negocio en ESPAÑOL (máx 2 oraciones). Enfócate en necesidades: presupuesto, ubicación, tipo, tiempo.",
  "tags": "String Array. Select max 3 from allowed list.",
  "priority": "String. Enum: 'HIGH', 'MEDIUM', 'LOW'."
}

Business Rules:
1. PRIORITY:
    - 'HIGH': Intent to visit/tour, discusses contract/payment, specific budget ready, or high urgency.
    - 'MEDIUM': Asking about price, location, photos, or amenities. Exploring phase.
    - 'LOW': Unresponsive, greeting only, just looking, or stated lack of interest.

2. ALLOWED TAGS (Strict):
    - 'hot-lead' (Ready to buy/rent)
    - 'schedule-request' (Wants to visit)
    - 'pricing-query' (Asking about cost)
    - 'location-query' (Asking about area)
    - 'objection' (Price too high, doesn't like feature)
    - 'competitor-mention'
    - 'follow-up-needed'

3. SUMMARY:
    - Provide actionable info in SPANISH. Example: "Busca depa 2hab en Centro, ppt $150k. Quiere visitar el lunes."`

// allowedTags is the closed triage vocabulary. Anything the model returns
// outside this set is dropped.
var allowedTags = map[string]struct{}{
	"hot-lead":           {},
	"schedule-request":   {},
	"pricing-query":      {},
	"location-query":     {},
	"objection":          {},
	"competitor-mention": {},
	"follow-up-needed":   {},
}

const maxTags = 3

type analysisResult struct {
	Summary  string   `json:"summary"`
	Tags     []string `json:"tags"`
	Priority string   `json:"priority"`
}

// ConversationAnalyzer implements chat.Analyzer against the OpenAI chat
// completions API. It reads the full history, asks for a structured triage
// verdict, and writes only the AI columns back.
type ConversationAnalyzer struct {
	client        *openai.Client
	model         string
	timeout       time.Duration
	conversations chat.ConversationRepository
	messages      chat.MessageRepository
	events        *chat.Events
	log           zerolog.Logger
}

var _ chat.Analyzer = (*ConversationAnalyzer)(nil)

func NewConversationAnalyzer(apiKey, model string, timeout time.Duration, conversations chat.ConversationRepository, messages chat.MessageRepository, events *chat.Events, log zerolog.Logger) *ConversationAnalyzer {
	if model == "" {
		model = openai.GPT4oMini
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ConversationAnalyzer{
		client:        openai.NewClient(apiKey),
		model:         model,
		timeout:       timeout,
		conversations: conversations,
		messages:      messages,
		events:        events,
		log:           log.With().Str("component", "conversation-analyzer").Logger(),
	}
}

// AnalyzeConversation runs one triage pass over a conversation. SYSTEM
// messages are excluded from the transcript; a conversation with no lead or
// agent messages is skipped without error.
func (a *ConversationAnalyzer) AnalyzeConversation(ctx context.Context, conversationID string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()

	msgs, err := a.messages.FindByConversation(ctx, conversationID)
	if err != nil {
		metrics.RecordAnalysis("error", time.Since(start).Seconds())
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to load conversation history")
	}

	history := buildTranscript(msgs)
	if history == "" {
		metrics.RecordAnalysis("skipped", time.Since(start).Seconds())
		return nil
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analysisSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: history},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		metrics.RecordAnalysis("error", time.Since(start).Seconds())
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "chat completion failed", err, "4a7c9e2f-1d5b-4e8a-9c3f-6b8d2a5e7c14")
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		metrics.RecordAnalysis("error", time.Since(start).Seconds())
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "empty chat completion response", nil, "7e2b5d8a-4f9c-4a1e-8d6b-3c5f9a2e7d48")
	}

	var result analysisResult
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &result); err != nil {
		metrics.RecordAnalysis("error", time.Since(start).Seconds())
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "malformed analysis response", err, "9c5e8a1d-6b2f-4c7a-9e4d-8f1b3c6a5e92")
	}

	priority, ok := normalizePriority(result.Priority)
	if !ok {
		metrics.RecordAnalysis("error", time.Since(start).Seconds())
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "analysis returned unknown priority", nil, "c8f2a5d9-3e7b-4d1c-8a6e-5b9f2d7a4c31")
	}
	tags := filterTags(result.Tags)

	if err := a.conversations.UpdateAIFields(ctx, conversationID, result.Summary, tags, priority); err != nil {
		metrics.RecordAnalysis("error", time.Since(start).Seconds())
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to store analysis")
	}

	a.events.ConversationUpdated(conversationID, map[string]any{
		"id":        conversationID,
		"aiSummary": result.Summary,
		"aiTags":    tags,
		"priority":  string(priority),
	})

	metrics.RecordAnalysis("success", time.Since(start).Seconds())
	a.log.Debug().
		Str("conversation_id", conversationID).
		Str("priority", string(priority)).
		Msg("conversation analyzed")
	return nil
}

// buildTranscript renders the history the way the prompt expects:
// "Prospecto:" for lead lines, "Agente:" for agent lines, SYSTEM dropped.
func buildTranscript(msgs []*chat.Message) string {
	var b strings.Builder
	for _, msg := range msgs {
		switch msg.SenderType {
		case chat.SenderLead:
			b.WriteString("Prospecto: ")
		case chat.SenderAgent:
			b.WriteString("Agente: ")
		default:
			continue
		}
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func normalizePriority(raw string) (chat.Priority, bool) {
	switch chat.Priority(strings.ToUpper(strings.TrimSpace(raw))) {
	case chat.PriorityHigh:
		return chat.PriorityHigh, true
	case chat.PriorityMedium:
		return chat.PriorityMedium, true
	case chat.PriorityLow:
		return chat.PriorityLow, true
	}
	return "", false
}

func filterTags(raw []string) []string {
	tags := make([]string, 0, maxTags)
	for _, tag := range raw {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if _, ok := allowedTags[tag]; !ok {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}
