package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Stripe keeps idempotency keys for 24 hours, so replays past that would
// not be honored upstream either.
const defaultTTL = 24 * time.Hour

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    defaultTTL,
	}
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type cachedSession struct {
	URL         string    `json:"url"`
	Fingerprint string    `json:"fingerprint"`
	IssuedAt    time.Time `json:"issued_at"`
}

func (r RedisCache) Get(ctx context.Context, idempotencyKey string) (Session, error) {
	data, err := r.client.Get(ctx, cacheKey(idempotencyKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrCacheMiss
	}
	if err != nil {
		return Session{}, fmt.Errorf("redis get failed: %w", err)
	}

	var cached cachedSession
	if err := json.Unmarshal(data, &cached); err != nil {
		return Session{}, fmt.Errorf("unmarshal session failed: %w", err)
	}
	if cached.URL == "" {
		return Session{}, ErrCacheMiss
	}
	return Session{URL: cached.URL, Fingerprint: cached.Fingerprint}, nil
}

func (r RedisCache) Set(ctx context.Context, idempotencyKey string, session Session) error {
	data, err := json.Marshal(cachedSession{
		URL:         session.URL,
		Fingerprint: session.Fingerprint,
		IssuedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}
	if err := r.client.Set(ctx, cacheKey(idempotencyKey), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(idempotencyKey string) string {
	return fmt.Sprintf("checkout-session:%s", idempotencyKey)
}
