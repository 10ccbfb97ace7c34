package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration for the API and the worker.
type Config struct {
	// Server
	Port        int    `env:"PORT" envDefault:"8080"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8081"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	APIPrefix   string `env:"API_V1_STR" envDefault:"/api/v1"`
	ProjectName string `env:"PROJECT_NAME" envDefault:"Intelligent Book Management System"`

	AllowedOrigins     []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	RateLimitPerMinute int      `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // 10MB in bytes

	// Store
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"postgres"`
	DBURL         string `env:"DB_URL"`

	// Queue
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"nats"`
	QueueURL      string `env:"QUEUE_URL"`

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"redis"` // "redis" or "none"
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"3600"` // seconds

	// Auth
	SecretKey                string `env:"SECRET_KEY"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`

	// Generation backend
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"llama"` // "llama" (self-hosted /generate endpoint) or "openai"
	OpenAIKey   string `env:"OPENAI_API_KEY"`
	LLMModel    string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	Llama       LlamaConfig
}

// LlamaConfig points the generation client at a self-hosted model server.
type LlamaConfig struct {
	Host    string        `env:"LLAMA_MODEL_HOST" envDefault:"localhost"`
	Port    int           `env:"LLAMA_MODEL_PORT" envDefault:"8080"`
	Timeout time.Duration `env:"LLAMA_TIMEOUT" envDefault:"60s"`
}

// BaseURL returns the root URL of the model server.
func (c LlamaConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// CacheExpiry is CACHE_TTL as a duration.
func (c Config) CacheExpiry() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
