package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"food-ordering-agent/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisRepository stores each session as JSON under <prefix><id>.
type RedisRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisRepository creates a repository; a zero ttl keeps keys without expiry.
func NewRedisRepository(client *redis.Client, prefix string, ttl time.Duration) *RedisRepository {
	return &RedisRepository{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisRepository) key(id string) string {
	return r.prefix + id
}

func (r *RedisRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	val, err := r.client.Get(ctx, r.key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var s models.Session
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if s.Preferences == nil {
		s.Preferences = []string{}
	}
	return &s, nil
}

func (r *RedisRepository) Save(ctx context.Context, s *models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	if err := r.client.Set(ctx, r.key(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
