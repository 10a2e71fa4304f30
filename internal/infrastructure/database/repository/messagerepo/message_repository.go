package messagerepo

import (
	"context"

	"gorm.io/datatypes"

	"crm-server/internal/domain/chat"
	"crm-server/internal/infrastructure/database/entities"
	"crm-server/internal/infrastructure/database/transaction"
	"crm-server/internal/utils/platformerrors"
)

// MessageGormRepository implements chat.MessageRepository using GORM.
// Messages are append-only; there is no update path.
type MessageGormRepository struct {
	db *transaction.Database
}

var _ chat.MessageRepository = (*MessageGormRepository)(nil)

func NewMessageGormRepository(db *transaction.Database) *MessageGormRepository {
	return &MessageGormRepository{db: db}
}

func (r *MessageGormRepository) Create(ctx context.Context, msg *chat.Message) error {
	entity := toEntity(msg)
	tx := r.db.GetTx(ctx)
	if err := tx.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to create message", err, "a3c7f1e5-9b2d-4a8c-8e4f-6d1b5a9c3e72")
	}
	msg.CreatedAt = entity.CreatedAt
	return nil
}

func (r *MessageGormRepository) FindByConversation(ctx context.Context, conversationID string) ([]*chat.Message, error) {
	var rows []entities.Message
	tx := r.db.GetTx(ctx)
	err := tx.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to list messages", err, "b8e2d5a1-4c7f-4b3e-9a6d-2f8c5e1a7d94")
	}
	out := make([]*chat.Message, 0, len(rows))
	for i := range rows {
		out = append(out, fromEntity(&rows[i]))
	}
	return out, nil
}

func toEntity(msg *chat.Message) *entities.Message {
	entity := &entities.Message{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Content:        msg.Content,
		SenderType:     string(msg.SenderType),
		IsRead:         msg.IsRead,
		ReadAt:         msg.ReadAt,
		AttachmentURL:  msg.AttachmentURL,
		CreatedAt:      msg.CreatedAt,
	}
	if len(msg.Metadata) > 0 {
		meta := make(datatypes.JSONMap, len(msg.Metadata))
		for k, v := range msg.Metadata {
			meta[k] = v
		}
		entity.Metadata = meta
	}
	return entity
}

func fromEntity(entity *entities.Message) *chat.Message {
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
