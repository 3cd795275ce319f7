package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"basegraph.app/mergebot/core/db"
)

type Config struct {
	OTel     OTelConfig
	Pipeline PipelineConfig
	GitLab   GitLabConfig
	Worker   WorkerConfig
	Repos    ReposConfig
	Env      string
	Port     string
	DB       db.Config
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type PipelineConfig struct {
	RedisURL        string
	RedisStream     string
	RedisGroup      string
	RedisDLQStream  string
	RedisConsumer   string
	TraceHeaderName string
}

type GitLabConfig struct {
	WebhookSecret string
	BaseURL       string
	BotUsername   string // comments must mention @BotUsername to be treated as commands
}

type WorkerConfig struct {
	RefreshInterval time.Duration
	RegistryTTL     time.Duration // Refresh reloads repository policies older than this
	MaxAttempts     int
	RequeueDelay    time.Duration
	ReclaimInterval time.Duration
	ReclaimMinIdle  time.Duration // pending deliveries idle this long are taken over
}

type ReposConfig struct {
	ConfigPath string // policy file path inside each repository
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeWorker ServiceType = "worker"
)

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files:
//   - .env.server for the webhook server
//   - .env.worker for the event worker
//
// Falls back to .env if service-specific file doesn't exist.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("MERGEBOT_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	cfg := Config{
		Env:  getEnv("MERGEBOT_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		DB: db.Config{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt32("DB_MAX_CONNS", 5),
			MinConns: getEnvInt32("DB_MIN_CONNS", 1),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "mergebot"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		Pipeline: PipelineConfig{
			RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
			RedisStream:     getEnv("REDIS_STREAM", "mergebot_events"),
			RedisGroup:      getEnv("REDIS_CONSUMER_GROUP", "mergebot_group"),
			RedisDLQStream:  getEnv("REDIS_DLQ_STREAM", "mergebot_events_dlq"),
			RedisConsumer:   getEnv("REDIS_CONSUMER_NAME", string(serviceType)),
			TraceHeaderName: getEnv("TRACE_HEADER_NAME", "X-Trace-Id"),
		},
		GitLab: GitLabConfig{
			WebhookSecret: getEnv("GITLAB_WEBHOOK_SECRET", ""),
			BaseURL:       getEnv("GITLAB_BASE_URL", ""),
			BotUsername:   getEnv("GITLAB_BOT_USERNAME", "bors"),
		},
		Worker: WorkerConfig{
			RefreshInterval: getEnvDuration("REFRESH_INTERVAL", time.Minute),
			RegistryTTL:     getEnvDuration("REGISTRY_TTL", 10*time.Minute),
			MaxAttempts:     getEnvInt("WORKER_MAX_ATTEMPTS", 3),
			RequeueDelay:    getEnvDuration("WORKER_REQUEUE_DELAY", time.Second),
			ReclaimInterval: getEnvDuration("WORKER_RECLAIM_INTERVAL", time.Minute),
			ReclaimMinIdle:  getEnvDuration("WORKER_RECLAIM_MIN_IDLE", 5*time.Minute),
		},
		Repos: ReposConfig{
			ConfigPath: getEnv("REPO_CONFIG_PATH", ".mergebot.yml"),
		},
	}

	switch serviceType {
	case ServiceTypeServer:
		if cfg.GitLab.WebhookSecret == "" {
			return Config{}, fmt.Errorf("GITLAB_WEBHOOK_SECRET is required")
		}
	case ServiceTypeWorker:
		if cfg.DB.DSN == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
