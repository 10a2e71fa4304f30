package userrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"crm-server/internal/domain/user"
	"crm-server/internal/infrastructure/database/entities"
	"crm-server/internal/infrastructure/database/transaction"
	"crm-server/internal/utils/platformerrors"
)

// UserGormRepository implements user.Repository using GORM.
type UserGormRepository struct {
	db *transaction.Database
}

var _ user.Repository = (*UserGormRepository)(nil)

func NewUserGormRepository(db *transaction.Database) *UserGormRepository {
	return &UserGormRepository{db: db}
}

func (r *UserGormRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	var entity entities.User
	tx := r.db.GetTx(ctx)
	if err := tx.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "user not found", err, "2c8f5a1e-7d4b-4c9a-8e6f-3b9d2a5c7e14")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find user", err, "9d4a7c2f-1e8b-4d5a-9c3e-6f2b8d4a1c75")
	}
	return fromEntity(&entity), nil
}

func (r *UserGormRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var entity entities.User
	tx := r.db.GetTx(ctx)
	if err := tx.WithContext(ctx).Where("email = ?", email).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "user not found", err, "5e1b8d3a-9c6f-4e2d-b7a5-4c8f1e6b3d92")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find user by email", err, "8b3e6a9d-2f5c-4b1e-8d7a-9c4f2b6e8a53")
	}
	return fromEntity(&entity), nil
}

func (r *UserGormRepository) Create(ctx context.Context, u *user.User) error {
	entity := toEntity(u)
	tx := r.db.GetTx(ctx)
	if err := tx.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to create user", err, "4f9c2e7a-6b1d-4a8c-9e5f-1d7b4a9c2e68")
	}
	u.CreatedAt = entity.CreatedAt
	u.UpdatedAt = entity.UpdatedAt
	return nil
}

func (r *UserGormRepository) Update(ctx context.Context, u *user.User) error {
	entity := toEntity(u)
	tx := r.db.GetTx(ctx)
	if err := tx.WithContext(ctx).Save(entity).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to update user", err, "7d2a5f8c-3e9b-4d6a-8c1f-5b8e2d7a4c96")
	}
	u.UpdatedAt = entity.UpdatedAt
	return nil
}

// List applies the active/banned filter, name/email search, and pagination,
// returning the page plus the total row count before paging.
func (r *UserGormRepository) List(ctx context.Context, opts user.ListOptions) ([]*user.User, int64, error) {
	tx := r.db.GetTx(ctx)
	q := tx.WithContext(ctx).Model(&entities.User{})

	switch opts.Filter {
	case user.FilterBanned:
		q = q.Where("banned = ?", true)
	case user.FilterActive:
		q = q.Where("banned = ?", false)
	}
	if opts.Search != "" {
		pattern := "%" + opts.Search + "%"
		q = q.Where("name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to count users", err, "3a8d1f6c-9e4b-4a7d-8f2c-6b9e3a1d5c87")
	}

	var rows []entities.User
	err := q.Order("created_at DESC").
		Offset((opts.Page - 1) * opts.PageSize).
		Limit(opts.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to list users", err, "6c4f9a2d-8b7e-4c3a-9d5f-2e8b6c4a9d71")
	}

	out := make([]*user.User, 0, len(rows))
	for i := range rows {
		out = append(out, fromEntity(&rows[i]))
	}
	return out, total, nil
}

func toEntity(u *user.User) *entities.User {
	return &entities.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		PasswordHash: u.PasswordHash,
		Banned:       u.Banned,
		BanReason:    u.BanReason,
		BanExpires:   u.BanExpires,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func fromEntity(entity *entities.User) *user.User {
	return &user.User{
		ID:           entity.ID,
		Name:         entity.Name,
		Email:        entity.Email,
		Role:         user.Role(entity.Role),
		PasswordHash: entity.PasswordHash,
		Banned:       entity.Banned,
		BanReason:    entity.BanReason,
		BanExpires:   entity.BanExpires,
		CreatedAt:    entity.CreatedAt,
		UpdatedAt:    entity.UpdatedAt,
	}
}
