package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"crm-server/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&entities.Lead{},
		&entities.User{},
		&entities.Conversation{},
		&entities.Message{},
	); err != nil {
		return err
	}
	log.Info().Msg("applied CRM schema migrations")
	return nil
}
