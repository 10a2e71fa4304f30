package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
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
	"crm-server/internal/infrastructure/observability"
	"crm-server/internal/interfaces/httpserver"
	"crm-server/internal/interfaces/httpserver/handlers"
	v1 "crm-server/internal/interfaces/httpserver/routes/v1"
)

type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	publisher, err := broadcast.NewRedisPublisher(cfg.RedisURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect broadcast channel")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("close broadcast channel")
		}
	}()

	txDB := transaction.NewDatabase(db)
	conversationRepository := conversationrepo.NewConversationGormRepository(txDB)
	messageRepository := messagerepo.NewMessageGormRepository(txDB)
	leadRepository := leadrepo.NewLeadGormRepository(txDB)
	userRepository := userrepo.NewUserGormRepository(txDB)

	events := chat.NewEvents(publisher, cfg.BroadcastTimeout, log)
	leadService := lead.NewService(leadRepository, conversationRepository, log)
	userService := user.NewService(userRepository, cfg.BcryptCost, log)

	var analyzer chat.Analyzer
	if cfg.AIEnabled() {
		analyzer = ai.NewConversationAnalyzer(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.AIAnalysisTimeout,
			conversationRepository, messageRepository, events, log)
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, conversation analysis disabled")
	}

	chatService := chat.NewService(txDB, conversationRepository, messageRepository, leadService, events, analyzer, log)
	assignmentService := chat.NewAssignmentService(txDB, conversationRepository, messageRepository, events, log)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL)
	signer := broadcast.NewSigner(cfg.BroadcastSecret)

	handlerProvider := handlers.NewProvider(chatService, assignmentService, leadService, userService, tokens, signer, log)
	routes := v1.NewRoutes(handlerProvider, tokens)

	httpServer := httpserver.New(cfg, log, handlerProvider, routes)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
