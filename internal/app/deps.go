package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"bookshelf-ai/internal/ai"
	"bookshelf-ai/internal/auth"
	"bookshelf-ai/internal/cache"
	"bookshelf-ai/internal/config"
	"bookshelf-ai/internal/llm"
	"bookshelf-ai/internal/logger"
	"bookshelf-ai/internal/queue"
	"bookshelf-ai/internal/store"
)

// Deps bundles common runtime dependencies for services.
type Deps struct {
	Config config.Config
	Log    *slog.Logger
	Store  store.Store
	Cache  cache.Cache
	Queue  queue.Queue
	LLM    llm.Generator
	AI     *ai.Service
	JWT    *auth.JWTManager
}

// Build loads env, config, and shared components.
func Build() (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	deps := Deps{Config: cfg, Log: log}
	var err error
	if deps.Store, err = buildStore(cfg, log); err != nil {
		return Deps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	if deps.Queue, err = buildQueue(cfg, log); err != nil {
		deps.Close()
		return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	if deps.LLM, err = buildLLM(cfg, log); err != nil {
		deps.Close()
		return Deps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	if deps.JWT, err = auth.NewJWTManager(cfg.SecretKey, cfg.AccessTokenTTL()); err != nil {
		deps.Close()
		return Deps{}, fmt.Errorf("failed to initialize auth: %w", err)
	}
	deps.Cache = buildCache(cfg, log)
	deps.AI = ai.NewService(deps.LLM, log)
	return deps, nil
}

// Close releases every component that was built.
func (d Deps) Close() error {
	var errs []error
	if d.LLM != nil {
		errs = append(errs, d.LLM.Close())
	}
	if d.Cache != nil {
		errs = append(errs, d.Cache.Close())
	}
	if d.Queue != nil {
		errs = append(errs, d.Queue.Close())
	}
	if d.Store != nil {
		errs = append(errs, d.Store.Close())
	}
	return errors.Join(errs...)
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres store")
		return db, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid option: postgres)", cfg.StoreProvider)
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	switch cfg.QueueProvider {
	case "nats":
		if cfg.QueueURL == "" {
			return nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL, nats.Name(cfg.ProjectName))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nil
	default:
		return nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid option: nats)", cfg.QueueProvider)
	}
}

func buildLLM(cfg config.Config, log *slog.Logger) (llm.Generator, error) {
	switch cfg.LLMProvider {
	case "llama":
		log.Info("using self-hosted generation service", "url", cfg.Llama.BaseURL(), "timeout", cfg.Llama.Timeout)
		return llm.NewLlamaClient(cfg.Llama, log), nil
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		client, err := llm.NewOpenAIClient(cfg.OpenAIKey, openai.ChatModel(cfg.LLMModel), log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		log.Info("using OpenAI LLM client", "model", cfg.LLMModel)
		return client, nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid options: llama, openai)", cfg.LLMProvider)
	}
}

// buildCache never fails; an unreachable Redis degrades to no caching.
func buildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	switch cfg.CacheProvider {
	case "redis":
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("redis unavailable, caching disabled", "addr", cfg.RedisAddr, "err", err)
			return cache.NewNoOpCache()
		}
		log.Info("using Redis cache", "addr", cfg.RedisAddr, "ttl", cfg.CacheExpiry())
		return c
	case "none", "":
		log.Info("caching disabled")
		return cache.NewNoOpCache()
	default:
		log.Warn("unknown CACHE_PROVIDER, caching disabled", "provider", cfg.CacheProvider)
		return cache.NewNoOpCache()
	}
}
