package conversationrepo

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"

	"crm-server/internal/domain/chat"
	"crm-server/internal/domain/lead"
	"crm-server/internal/infrastructure/database/entities"
	"crm-server/internal/utils/platformerrors"
)

func toEntity(ctx context.Context, conv *chat.Conversation) (*entities.Conversation, error) {
	entity := &entities.Conversation{
		ID:         conv.ID,
		LeadID:     conv.LeadID,
		AgentID:    conv.AgentID,
		Status:     string(conv.Status),
		AssignedAt: conv.AssignedAt,
		AISummary:  conv.AISummary,
		CreatedAt:  conv.CreatedAt,
		UpdatedAt:  conv.UpdatedAt,
	}
	if conv.Priority != nil {
		p := string(*conv.Priority)
		entity.Priority = &p
	}
	if conv.AITags != nil {
		raw, err := json.Marshal(conv.AITags)
		if err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal, "failed to encode conversation tags", err, "e1f4a8c2-6d9b-4e3a-8f7c-2b5d9a1e4c76")
		}
		entity.AITags = datatypes.JSON(raw)
	}
	return entity, nil
}

func fromEntity(ctx context.Context, entity *entities.Conversation) (*chat.Conversation, error) {
	conv := &chat.Conversation{
		ID:         entity.ID,
		LeadID:     entity.LeadID,
		AgentID:    entity.AgentID,
		Status:     chat.ConversationStatus(entity.Status),
		AssignedAt: entity.AssignedAt,
		AISummary:  entity.AISummary,
		CreatedAt:  entity.CreatedAt,
		UpdatedAt:  entity.UpdatedAt,
	}
	if entity.Priority != nil {
		p := chat.Priority(*entity.Priority)
		conv.Priority = &p
	}
	if len(entity.AITags) > 0 {
		var tags []string
		if err := json.Unmarshal(entity.AITags, &tags); err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal, "failed to decode conversation tags", err, "f7c2e5a9-1b4d-4f8a-9c3e-6d8b2f5a7c91")
		}
		conv.AITags = tags
	}
	if entity.Lead != nil {
		conv.Lead = &lead.Lead{
			ID:        entity.Lead.ID,
			Name:      entity.Lead.Name,
			Email:     entity.Lead.Email,
			Phone:     entity.Lead.Phone,
			LastSeen:  entity.Lead.LastSeen,
			CreatedAt: entity.Lead.CreatedAt,
			UpdatedAt: entity.Lead.UpdatedAt,
		}
	}
	if len(entity.Messages) > 0 {
		msgs := make([]*chat.Message, 0, len(entity.Messages))
		for i := range entity.Messages {
			msgs = append(msgs, messageFromEntity(&entity.Messages[i]))
		}
		conv.Messages = msgs
	}
	return conv, nil
}

func fromEntities(ctx context.Context, rows []entities.Conversation) ([]*chat.Conversation, error) {
	out := make([]*chat.Conversation, 0, len(rows))
	for i := range rows {
		conv, err := fromEntity(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, conv)
	}
	return out, nil
}

func messageFromEntity(entity *entities.Message) *chat.Message {
	msg := &chat.Message{
		ID:             entity.ID,
		ConversationID: entity.ConversationID,
		Content:        entity.Content,
		SenderType:     chat.SenderType(entity.SenderType),
		IsRead:         entity.IsRead,
		ReadAt:         entity.ReadAt,
		AttachmentURL:  entity.AttachmentURL,
		CreatedAt:      entity.CreatedAt,
	}
	if len(entity.Metadata) > 0 {
		meta := make(map[string]any, len(entity.Metadata))
		for k, v := range entity.Metadata {
			meta[k] = v
		}
		msg.Metadata = meta
	}
	return msg
}
