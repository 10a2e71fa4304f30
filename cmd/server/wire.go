//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"crm-server/internal/config"
	"crm-server/internal/domain/chat"
	"crm-server/internal/domain/lead"
	"crm-server/internal/domain/user"
	"crm-server/internal/infrastructure/ai"
	"crm-server/internal/infrastructure/auth"
	"crm-server/internal/infrastructure/broadcast"
	"crm-server/internal/infrastructure/database"
	"crm-server/internal/infrastructure/database/repository/conversationrepo"
	"crm-server/internal/infrastructure/database/repository/leadrepo"
	"crm-server/internal/infrastructure/database/repository/messagerepo"
	"crm-server/internal/infrastructure/database/repository/userrepo"
	"crm-server/internal/infrastructure/database/transaction"
	"crm-server/internal/infrastructure/logger"
	"crm-server/internal/interfaces/httpserver"
	"crm-server/internal/interfaces/httpserver/handlers"
	v1 "crm-server/internal/interfaces/httpserver/routes/v1"
)

var repositorySet = wire.NewSet(
	transaction.NewDatabase,
	conversationrepo.NewConversationGormRepository,
	wire.Bind(new(chat.ConversationRepository), new(*conversationrepo.ConversationGormRepository)),
	wire.Bind(new(lead.ActiveConversationFinder), new(*conversationrepo.ConversationGormRepository)),
	messagerepo.NewMessageGormRepository,
	wire.Bind(new(chat.MessageRepository), new(*messagerepo.MessageGormRepository)),
	leadrepo.NewLeadGormRepository,
	wire.Bind(new(lead.Repository), new(*leadrepo.LeadGormRepository)),
	userrepo.NewUserGormRepository,
	wire.Bind(new(user.Repository), new(*userrepo.UserGormRepository)),
)

var domainSet = wire.NewSet(
	provideEvents,
	lead.NewService,
	provideUserService,
	provideAnalyzer,
	provideChatService,
	chat.NewAssignmentService,
	wire.Bind(new(chat.Transactor), new(*transaction.Database)),
)

// BuildApplication assembles the CRM server with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		provideLogger,
		newDatabaseConfig,
		newGormDB,
		providePublisher,
		provideTokenManager,
		provideSigner,
		repositorySet,
		domainSet,
		handlers.NewProvider,
		v1.NewRoutes,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func provideLogger(cfg *config.Config) (zerolog.Logger, error) {
	return logger.New(cfg.LogLevel, cfg.LogFormat)
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func providePublisher(cfg *config.Config, log zerolog.Logger) (*broadcast.RedisPublisher, error) {
	return broadcast.NewRedisPublisher(cfg.RedisURL, log)
}

func provideEvents(cfg *config.Config, publisher *broadcast.RedisPublisher, log zerolog.Logger) *chat.Events {
	return chat.NewEvents(publisher, cfg.BroadcastTimeout, log)
}

func provideUserService(cfg *config.Config, repo user.Repository, log zerolog.Logger) *user.Service {
	return user.NewService(repo, cfg.BcryptCost, log)
}

// provideAnalyzer returns a nil analyzer when no API key is configured; the
// chat service treats that as analysis disabled.
func provideAnalyzer(cfg *config.Config, conversations chat.ConversationRepository, messages chat.MessageRepository, events *chat.Events, log zerolog.Logger) chat.Analyzer {
	if !cfg.AIEnabled() {
		return nil
	}
	return ai.NewConversationAnalyzer(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.AIAnalysisTimeout, conversations, messages, events, log)
}

func provideChatService(tx chat.Transactor, conversations chat.ConversationRepository, messages chat.MessageRepository, leads *lead.Service, events *chat.Events, analyzer chat.Analyzer, log zerolog.Logger) *chat.Service {
	return chat.NewService(tx, conversations, messages, leads, events, analyzer, log)
}

func provideTokenManager(cfg *config.Config) *auth.TokenManager {
	return auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL)
}

func provideSigner(cfg *config.Config) *broadcast.Signer {
	return broadcast.NewSigner(cfg.BroadcastSecret)
}
