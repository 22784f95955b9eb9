package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// Config holds application configuration.
type Config struct {
	DatabaseURL    string `validate:"required"`
	Port           string `validate:"required,numeric"`
	IsProduction   bool
	EnableDBCheck  bool
	JWTSecret      string `validate:"required,min=16"`
	MigrationsPath string `validate:"required"`

	// Voucher schemas
	SchemaDir       string
	SchemaCacheSize int `validate:"min=1"`

	// Redis backs the task queue and idempotency locks; empty disables both.
	RedisAddress       string
	IdempotencyLockTTL time.Duration `validate:"min=1s"`
	TaskQueueName      string        `validate:"required"`

	// Pub/Sub publishing; an empty project logs events instead.
	PubSubProjectID       string
	PubSubTopic           string `validate:"required_with=PubSubProjectID"`
	PubSubCredentialsJSON string

	OutboxPollInterval time.Duration `validate:"min=100ms"`
	OutboxMaxAttempts  int           `validate:"min=1"`

	// RateLimit uses the limiter format, e.g. "100-M".
	RateLimit          string `validate:"required"`
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("SCHEMA_DIR", "config/schemas")
	v.SetDefault("SCHEMA_CACHE_SIZE", 256)
	v.SetDefault("REDIS_ADDRESS", "")
	v.SetDefault("IDEMPOTENCY_LOCK_TTL", "30s")
	v.SetDefault("TASK_QUEUE_NAME", "himalytix:tasks")
	v.SetDefault("PUBSUB_PROJECT_ID", "")
	v.SetDefault("PUBSUB_TOPIC", "journal-events")
	v.SetDefault("PUBSUB_CREDENTIALS_JSON", "")
	v.SetDefault("OUTBOX_POLL_INTERVAL", "5s")
	v.SetDefault("OUTBOX_MAX_ATTEMPTS", 10)
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:           v.GetString("PGSQL_URL"),
		Port:                  v.GetString("PORT"),
		IsProduction:          v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:         v.GetBool("ENABLE_DB_CHECK"),
		JWTSecret:             v.GetString("JWT_SECRET"),
		MigrationsPath:        v.GetString("MIGRATIONS_PATH"),
		SchemaDir:             v.GetString("SCHEMA_DIR"),
		SchemaCacheSize:       v.GetInt("SCHEMA_CACHE_SIZE"),
		RedisAddress:          v.GetString("REDIS_ADDRESS"),
		IdempotencyLockTTL:    v.GetDuration("IDEMPOTENCY_LOCK_TTL"),
		TaskQueueName:         v.GetString("TASK_QUEUE_NAME"),
		PubSubProjectID:       v.GetString("PUBSUB_PROJECT_ID"),
		PubSubTopic:           v.GetString("PUBSUB_TOPIC"),
		PubSubCredentialsJSON: v.GetString("PUBSUB_CREDENTIALS_JSON"),
		OutboxPollInterval:    v.GetDuration("OUTBOX_POLL_INTERVAL"),
		OutboxMaxAttempts:     v.GetInt("OUTBOX_MAX_ATTEMPTS"),
		RateLimit:             v.GetString("RATE_LIMIT"),
		CORSAllowedOrigins:    splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if cfg.JWTSecret == defaultJWTSecret {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	if cfg.RedisAddress == "" {
		log.Println("Warning: REDIS_ADDRESS not set. Idempotency locks and the task queue are disabled.")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags of cfg.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
