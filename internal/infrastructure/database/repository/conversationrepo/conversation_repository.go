package conversationrepo

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crm-server/internal/domain/chat"
	"crm-server/internal/infrastructure/database/entities"
	"crm-server/internal/infrastructure/database/transaction"
	"crm-server/internal/utils/platformerrors"
)

// ConversationGormRepository implements chat.ConversationRepository using GORM.
type ConversationGormRepository struct {
	db *transaction.Database
}

var _ chat.ConversationRepository = (*ConversationGormRepository)(nil)

func NewConversationGormRepository(db *transaction.Database) *ConversationGormRepository {
	return &ConversationGormRepository{db: db}
}

func (r *ConversationGormRepository) Create(ctx context.Context, conv *chat.Conversation) error {
	entity, err := toEntity(ctx, conv)
	if err != nil {
		return err
	}
	tx := r.db.GetTx(ctx)
	if err := tx.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to create conversation", err, "3f6c1a8e-92d4-4b5f-a1c7-0e8d2b4f6a91")
	}
	conv.CreatedAt = entity.CreatedAt
	conv.UpdatedAt = entity.UpdatedAt
	return nil
}

func (r *ConversationGormRepository) FindByID(ctx context.Context, id string) (*chat.Conversation, error) {
	var entity entities.Conversation
	tx := r.db.GetTx(ctx)
	if err := tx.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, wrapFindError(ctx, err, "8a2e5d1c-4f7b-4c3a-9e6d-1b5a8c2f4e73")
	}
	return fromEntity(ctx, &entity)
}

// FindByIDForUpdate reads the conversation row under FOR UPDATE. It must run
// inside a transaction; concurrent claims on the same row serialize here.
func (r *ConversationGormRepository) FindByIDForUpdate(ctx context.Context, id string) (*chat.Conversation, error) {
	var entity entities.Conversation
	tx := r.db.GetTx(ctx)
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&entity).Error
	if err != nil {
		return nil, wrapFindError(ctx, err, "b7d4f2a9-6e1c-4d8b-8f3a-5c9e7a1d3b62")
	}
	return fromEntity(ctx, &entity)
}

func (r *ConversationGormRepository) FindByIDWithDetails(ctx context.Context, id string) (*chat.Conversation, error) {
	var entity entities.Conversation
	tx := r.db.GetTx(ctx)
	err := tx.WithContext(ctx).
		Preload("Lead").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&entity).Error
	if err != nil {
		return nil, wrapFindError(ctx, err, "c1e8a3f5-7b2d-4a6c-9d4e-8f1b3a5c7e94")
	}
	return fromEntity(ctx, &entity)
}

func (r *ConversationGormRepository) Update(ctx context.Context, conv *chat.Conversation) error {
	entity, err := toEntity(ctx, conv)
	if err != nil {
		return err
	}
	tx := r.db.GetTx(ctx)
	if err := tx.WithContext(ctx).Save(entity).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to update conversation", err, "d5a2c7e1-9f4b-4e8d-b6a3-2c8f5d1a7b49")
	}
	conv.UpdatedAt = entity.UpdatedAt
	return nil
}

// UpdateAIFields writes only the annotator owned columns so a concurrent
// claim or message write is never clobbered.
func (r *ConversationGormRepository) UpdateAIFields(ctx context.Context, id string, summary string, tags []string, priority chat.Priority) error {
	raw, err := json.Marshal(tags)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal, "failed to encode conversation tags", err, "e9c4a1f7-3b6d-4c2a-8e5f-7d1b9a3c5e86")
	}
	tx := r.db.GetTx(ctx)
	result := tx.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"ai_summary": summary,
			"ai_tags":    datatypes.JSON(raw),
			"priority":   string(priority),
		})
	if result.Error != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to update conversation analysis", result.Error, "f2b7d4a9-5e1c-4f8b-a3d6-9c5e2f7a1b48")
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", gorm.ErrRecordNotFound, "a8e3c5f1-7d2b-4a9c-8e6f-4b1d7a3c9e52")
	}
	return nil
}

func (r *ConversationGormRepository) FindQueued(ctx context.Context) ([]*chat.Conversation, error) {
	var rows []entities.Conversation
	tx := r.db.GetTx(ctx)
	err := tx.WithContext(ctx).
		Preload("Lead").
		Where("status = ?", string(chat.StatusQueued)).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to list queued conversations", err, "b4f1a7c3-9e5d-4b2a-8c7f-3d9b5e1a7c64")
	}
	return fromEntities(ctx, rows)
}

func (r *ConversationGormRepository) FindByAgent(ctx context.Context, agentID string) ([]*chat.Conversation, error) {
	var rows []entities.Conversation
	tx := r.db.GetTx(ctx)
	err := tx.WithContext(ctx).
		Preload("Lead").
		Where("agent_id = ?", agentID).
		Order("assigned_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to list agent conversations", err, "c8d5e2a7-1f4b-4c9e-b3a8-6e2d9f5a1c73")
	}
	return fromEntities(ctx, rows)
}

func (r *ConversationGormRepository) FindActiveByLead(ctx context.Context, leadID string) (*chat.Conversation, error) {
	var entity entities.Conversation
	tx := r.db.GetTx(ctx)
	err := tx.WithContext(ctx).
		Where("lead_id = ? AND status IN ?", leadID, []string{string(chat.StatusQueued), string(chat.StatusInProgress)}).
		Order("created_at DESC").
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find active conversation", err, "d9a6f3c1-8e2b-4d7a-9c4e-5f1a8d3b7e92")
	}
	return fromEntity(ctx, &entity)
}

// FindActiveConversationID serves the lead handshake without pulling the
// whole row across the domain boundary.
func (r *ConversationGormRepository) FindActiveConversationID(ctx context.Context, leadID string) (*string, error) {
	conv, err := r.FindActiveByLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, nil
	}
	return &conv.ID, nil
}

func wrapFindError(ctx context.Context, err error, uuid string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", err, uuid)
	}
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find conversation", err, uuid)
}
