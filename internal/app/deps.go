package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"meal-planner/internal/config"
	"meal-planner/internal/fallback"
	"meal-planner/internal/guideline"
	"meal-planner/internal/llm"
	"meal-planner/internal/logger"
	"meal-planner/internal/planner"
	"meal-planner/internal/queue"
	"meal-planner/internal/ratelimit"
	"meal-planner/internal/store"
)

// Deps bundles the runtime dependencies of the planner service.
type Deps struct {
	Config  config.Config
	Log     *slog.Logger
	Planner *planner.Planner
	Limiter ratelimit.Limiter
	Queue   queue.Queue
}

// RecorderDeps bundles the runtime dependencies of the recorder service.
type RecorderDeps struct {
	Config config.Config
	Log    *slog.Logger
	Store  store.Store
	Queue  queue.Queue
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig() (config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	return config.Load(), nil
}

// Build loads env, config, and the planner service components.
func Build() (Deps, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return Deps{}, err
	}
	log := logger.New(cfg.LogLevel)

	p, err := BuildPlanner(cfg, log)
	if err != nil {
		return Deps{}, err
	}
	limiter, err := buildLimiter(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize rate limiter: %w", err)
	}
	q, err := buildQueue(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	return Deps{
		Config:  cfg,
		Log:     log,
		Planner: p,
		Limiter: limiter,
		Queue:   q,
	}, nil
}

// BuildRecorder loads env, config, the consultation store and the queue.
func BuildRecorder(ctx context.Context) (RecorderDeps, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return RecorderDeps{}, err
	}
	log := logger.New(cfg.LogLevel)

	st, err := buildStore(ctx, cfg, log)
	if err != nil {
		return RecorderDeps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	if cfg.QueueProvider != "nats" {
		return RecorderDeps{}, fmt.Errorf("recorder requires QUEUE_PROVIDER=nats, got %q", cfg.QueueProvider)
	}
	q, err := buildQueue(cfg, log)
	if err != nil {
		return RecorderDeps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	return RecorderDeps{Config: cfg, Log: log, Store: st, Queue: q}, nil
}

// BuildPlanner wires the guideline table, fallback selector and LLM client.
// The table and selector are built once and shared read-only.
func BuildPlanner(cfg config.Config, log *slog.Logger) (*planner.Planner, error) {
	table, err := guideline.Load(cfg.GuidelinesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load guidelines: %w", err)
	}
	selector, err := fallback.New(table)
	if err != nil {
		return nil, fmt.Errorf("failed to build fallback selector: %w", err)
	}
	client, err := buildLLM(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	return planner.New(table, selector, client, log)
}

func buildLLM(cfg config.Config, log *slog.Logger) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		token := cfg.APIToken()
		if token == "" {
			log.Warn("HF_API_TOKEN is not set; every request will use fallback guidance")
		}
		client, err := llm.NewOpenAIClient(llm.Options{
			APIKey:     token,
			BaseURL:    cfg.LLMBaseURL,
			Model:      cfg.LLMModel,
			Timeout:    cfg.LLMTimeout,
			MaxRetries: cfg.LLMMaxRetries,
			Params: llm.Params{
				Temperature: cfg.LLMTemperature,
				TopP:        cfg.LLMTopP,
				MaxTokens:   cfg.LLMMaxTokens,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI-compatible client: %w", err)
		}
		log.Info("using hosted inference", "model", client.Model(), "base_url", cfg.LLMBaseURL)
		return client, nil
	case "stub":
		log.Info("using stub LLM client")
		return llm.NewStubClient(), nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid options: openai, stub)", cfg.LLMProvider)
	}
}

func buildLimiter(cfg config.Config, log *slog.Logger) (ratelimit.Limiter, error) {
	switch cfg.RateLimitProvider {
	case "memory", "redis":
		if cfg.RateLimitWindow <= 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %s (must be positive)", cfg.RateLimitWindow)
		}
		if cfg.RateLimitRequests <= 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT_REQUESTS: %d (must be positive)", cfg.RateLimitRequests)
		}
	}

	switch cfg.RateLimitProvider {
	case "none", "":
		return ratelimit.NewNoOpLimiter(), nil
	case "memory":
		log.Info("using in-memory rate limiter", "requests", cfg.RateLimitRequests, "window", cfg.RateLimitWindow)
		return ratelimit.NewMemoryLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow), nil
	case "redis":
		limiter, err := ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RateLimitRequests, cfg.RateLimitWindow)
		if err != nil {
			log.Warn("redis unavailable, rate limiting disabled", "err", err)
			return ratelimit.NewNoOpLimiter(), nil
		}
		log.Info("using Redis rate limiter", "addr", cfg.RedisAddr)
		return limiter, nil
	default:
		return nil, fmt.Errorf("invalid RATE_LIMIT_PROVIDER: %s (valid options: none, memory, redis)", cfg.RateLimitProvider)
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	switch cfg.QueueProvider {
	case "none", "":
		return queue.NewNoOpQueue(), nil
	case "nats":
		if cfg.QueueURL == "" {
			return nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL, nats.Name("meal-planner"), nats.MaxReconnects(-1))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nil
	default:
		return nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid options: none, nats)", cfg.QueueProvider)
	}
}

func buildStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(ctx, cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres store")
		return db, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid option: postgres)", cfg.StoreProvider)
	}
}
