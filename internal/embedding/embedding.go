// Package embedding turns text into vectors. Backends: Google GenAI, an Ollama-style HTTP
// endpoint, and a Redis cache that wraps either.
package embedding

import (
	"context"
	"fmt"
	"time"

	"food-ordering-agent/internal/common/config"
	"food-ordering-agent/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// Service generates embeddings. EmbedBatch returns vectors in input order.
type Service interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// New builds the configured backend, wrapped in the Redis cache when enabled.
func New(ctx context.Context, cfg config.EmbeddingConfig, redisClient *redis.Client, log logger.Logger) (Service, error) {
	var (
		svc Service
		err error
	)

	switch cfg.Provider {
	case "gemini":
		svc, err = NewGenAIEngine(ctx, cfg.APIKey, cfg.Model, cfg.TaskType)
	case "http":
		svc = NewHTTPEngine(cfg.BaseURL, cfg.Model, config.GetDuration(cfg.Timeout), cfg.Concurrency)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (use 'http' or 'gemini')", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Enabled {
		if redisClient == nil {
			return nil, fmt.Errorf("embedding cache enabled without a redis client")
		}
		svc = NewCachedService(svc, redisClient, cfg.Provider+":"+cfg.Model, time.Duration(cfg.Cache.TTL)*time.Second, log)
	}

	logger.Component(log, "embedding").Info("embedding service ready", map[string]interface{}{
		"provider": cfg.Provider,
		"model":    cfg.Model,
		"cache":    cfg.Cache.Enabled,
	})
	return svc, nil
}
