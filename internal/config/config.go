package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration for the planner, recorder and CLI.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Guidelines; empty uses the built-in table.
	GuidelinesFile string `env:"GUIDELINES_FILE"`

	// LLM
	LLMProvider    string        `env:"LLM_PROVIDER" envDefault:"openai"` // "openai" (any OpenAI-compatible endpoint) or "stub"
	HFAPIToken     string        `env:"HF_API_TOKEN"`
	HFToken        string        `env:"HF_TOKEN"`
	LLMBaseURL     string        `env:"LLM_BASE_URL" envDefault:"https://router.huggingface.co/v1"`
	LLMModel       string        `env:"LLM_MODEL" envDefault:"meta-llama/Llama-3.2-3B-Instruct"`
	LLMTimeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
	LLMMaxRetries  int           `env:"LLM_MAX_RETRIES" envDefault:"1"`
	LLMTemperature float64       `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	LLMTopP        float64       `env:"LLM_TOP_P" envDefault:"0.9"`
	LLMMaxTokens   int64         `env:"LLM_MAX_TOKENS" envDefault:"500"`

	// Rate limiting
	RateLimitProvider string        `env:"RATE_LIMIT_PROVIDER" envDefault:"none"` // "none", "memory" or "redis"
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"30"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	RedisAddr         string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`

	// Queue
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"none"` // "none" or "nats"
	QueueURL      string `env:"QUEUE_URL"`

	// Store (recorder only)
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"postgres"`
	DBURL         string `env:"DB_URL"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}

// APIToken returns the inference bearer token, preferring HF_API_TOKEN.
func (c Config) APIToken() string {
	if c.HFAPIToken != "" {
		return c.HFAPIToken
	}
	return c.HFToken
}
