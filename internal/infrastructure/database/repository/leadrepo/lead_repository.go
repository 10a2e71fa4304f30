package leadrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crm-server/internal/domain/lead"
	"crm-server/internal/infrastructure/database/entities"
	"crm-server/internal/infrastructure/database/transaction"
	"crm-server/internal/utils/platformerrors"
)

// LeadGormRepository implements lead.Repository using GORM.
type LeadGormRepository struct {
	db *transaction.Database
}

var _ lead.Repository = (*LeadGormRepository)(nil)

func NewLeadGormRepository(db *transaction.Database) *LeadGormRepository {
	return &LeadGormRepository{db: db}
}

func (r *LeadGormRepository) FindByID(ctx context.Context, id string) (*lead.Lead, error) {
	var entity entities.Lead
	tx := r.db.GetTx(ctx)
	if err := tx.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "lead not found", err, "7a1d4c8e-5b9f-4a3d-8e2c-9f6b1d4a7c35")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find lead", err, "c5a9e2f7-3d1b-4c8a-9f6e-8b2d5a7c1e43")
	}
	return fromEntity(&entity), nil
}

func (r *LeadGormRepository) FindByEmail(ctx context.Context, email string) (*lead.Lead, error) {
	var entity entities.Lead
	tx := r.db.GetTx(ctx)
	if err := tx.WithContext(ctx).Where("email = ?", email).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "lead not found", err, "1e6b9d2a-4c7f-4b5e-9a3d-7c2f8b5d1a64")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find lead by email", err, "d2f7b4a9-6e3c-4d1b-8a5f-9c7e2b4d6a81")
	}
	return fromEntity(&entity), nil
}

// Upsert creates the lead or refreshes its contact details and last seen.
// Conflict is on the primary key; the email uniqueness constraint still
// applies and surfaces as a database error if violated.
func (r *LeadGormRepository) Upsert(ctx context.Context, l *lead.Lead) error {
	entity := toEntity(l)
	tx := r.db.GetTx(ctx)
	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "phone", "last_seen", "updated_at"}),
		}).
		Create(entity).Error
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to upsert lead", err, "e8c3d6a1-5f9b-4e2d-b7a4-1c6f8e3a5d92")
	}
	l.CreatedAt = entity.CreatedAt
	l.UpdatedAt = entity.UpdatedAt
	return nil
}

func (r *LeadGormRepository) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	tx := r.db.GetTx(ctx)
	err := tx.WithContext(ctx).
		Model(&entities.Lead{}).
		Where("id = ?", id).
		Update("last_seen", at).Error
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to touch lead last seen", err, "f4b9e1c7-2a5d-4f3b-8c9e-6d2a7f4b1e53")
	}
	return nil
}

func toEntity(l *lead.Lead) *entities.Lead {
	return &entities.Lead{
		ID:        l.ID,
		Name:      l.Name,
		Email:     l.Email,
		Phone:     l.Phone,
		LastSeen:  l.LastSeen,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func fromEntity(entity *entities.Lead) *lead.Lead {
	return &lead.Lead{
		ID:        entity.ID,
		Name:      entity.Name,
		Email:     entity.Email,
		Phone:     entity.Phone,
		LastSeen:  entity.LastSeen,
		CreatedAt: entity.CreatedAt,
		UpdatedAt: entity.UpdatedAt,
	}
}
