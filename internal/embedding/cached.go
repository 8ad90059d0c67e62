package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"food-ordering-agent/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// CachedService stores text→vector results in Redis under emb:<namespace>:<sha256(text)>.
// Cache errors never fail a call; the inner service is used instead.
type CachedService struct {
	inner     Service
	redis     *redis.Client
	namespace string
	ttl       time.Duration
	logger    logger.Logger
}

func NewCachedService(inner Service, client *redis.Client, namespace string, ttl time.Duration, log logger.Logger) *CachedService {
	return &CachedService{
		inner:     inner,
		redis:     client,
		namespace: namespace,
		ttl:       ttl,
		logger:    logger.Component(log, "embedding-cache"),
	}
}

func (c *CachedService) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + c.namespace + ":" + hex.EncodeToString(sum[:])
}

func (c *CachedService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch reads all keys with one MGET and only sends misses to the inner service.
func (c *CachedService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = c.cacheKey(text)
	}

	result := make([][]float32, len(texts))
	var missIdx []int

	vals, err := c.redis.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("embedding cache read failed", map[string]interface{}{"error": err})
		vals = nil
	}

	for i := range texts {
		if i < len(vals) {
			if s, ok := vals[i].(string); ok {
				var vec []float32
				if json.Unmarshal([]byte(s), &vec) == nil && len(vec) > 0 {
					result[i] = vec
					continue
				}
			}
		}
		missIdx = append(missIdx, i)
	}

	if len(missIdx) == 0 {
		return result, nil
	}

	missTexts := make([]string, len(missIdx))
	for j, i := range missIdx {
		missTexts[j] = texts[i]
	}
	fresh, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	pipe := c.redis.Pipeline()
	for j, i := range missIdx {
		result[i] = fresh[j]
		if data, err := json.Marshal(fresh[j]); err == nil {
			pipe.Set(ctx, keys[i], data, c.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("embedding cache write failed", map[string]interface{}{"error": err})
	}

	c.logger.Debug("embedding cache lookup", map[string]interface{}{
		"hits":   len(texts) - len(missIdx),
		"misses": len(missIdx),
	})
	return result, nil
}
