package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the CRM service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"crm-server"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"CRM_API_PORT" envDefault:"8380"`
	LogLevel        string        `env:"CRM_LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"CRM_LOG_FORMAT" envDefault:"console"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	// Database (required, no default)
	DatabaseURL string `env:"DB_POSTGRESQL_DSN,notEmpty"`

	// Database Connection Pool
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Broadcast channel (Redis pub/sub)
	RedisURL         string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	BroadcastTimeout time.Duration `env:"BROADCAST_PUBLISH_TIMEOUT" envDefault:"2s"`
	BroadcastSecret  string        `env:"BROADCAST_APP_SECRET,notEmpty"`

	// Auth
	JWTSecret   string        `env:"AUTH_JWT_SECRET,notEmpty"`
	JWTIssuer   string        `env:"AUTH_JWT_ISSUER" envDefault:"crm-server"`
	SessionTTL  time.Duration `env:"AUTH_SESSION_TTL" envDefault:"12h"`
	BcryptCost  int           `env:"AUTH_BCRYPT_COST" envDefault:"10"`

	// AI annotator
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIModel      string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	AIAnalysisTimeout time.Duration `env:"AI_ANALYSIS_TIMEOUT" envDefault:"30s"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	cfg.BroadcastSecret = strings.TrimSpace(cfg.BroadcastSecret)
	cfg.OpenAIAPIKey = strings.TrimSpace(cfg.OpenAIAPIKey)
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, fmt.Errorf("AUTH_BCRYPT_COST out of range: %d", cfg.BcryptCost)
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// AIEnabled reports whether the conversation annotator is configured.
func (c *Config) AIEnabled() bool {
	return c.OpenAIAPIKey != ""
}
