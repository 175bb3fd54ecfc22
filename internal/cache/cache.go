// cache — Redis-хранилище отозванных токенов (denylist).
//
// Ключ — prefix + "jti:" + jti, значение — "1", TTL — остаток жизни токена:
// запись исчезает ровно тогда, когда токен и так перестаёт быть валидным.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist — минимальный контракт хранилища отозванных токенов.
type Denylist interface {
	// Revoke помечает jti отозванным на ttl. Нулевой/отрицательный ttl — no-op.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	// IsRevoked сообщает, отозван ли jti.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisCache реализует Denylist поверх go-redis.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0)
// и проверяет доступность. Если prefix пустой — используется "rh:".
func NewRedisCache(ctx context.Context, redisURL, prefix string) (*RedisCache, error) {
	const op = "cache.NewRedisCache"

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewFromClient(rdb, prefix), nil
}

// NewFromClient оборачивает готовый клиент.
func NewFromClient(rdb *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "rh:"
	}

	return &RedisCache{rdb: rdb, prefix: prefix}
}

func (c *RedisCache) key(jti string) string { return c.prefix + "jti:" + jti }

func (c *RedisCache) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	const op = "cache.Revoke"

	if ttl <= 0 {
		return nil
	}

	if err := c.rdb.Set(ctx, c.key(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *RedisCache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	const op = "cache.IsRevoked"

	err := c.rdb.Get(ctx, c.key(jti)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("%s: %w", op, err)
	}
}

// Client отдаёт нижележащий клиент (общий с rate limiter).
func (c *RedisCache) Client() *redis.Client { return c.rdb }

// Prefix возвращает префикс ключей.
func (c *RedisCache) Prefix() string { return c.prefix }

// Ping проверяет доступность Redis (readiness).
func (c *RedisCache) Ping(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }

// Close закрывает клиент Redis.
func (c *RedisCache) Close() error { return c.rdb.Close() }

var _ Denylist = (*RedisCache)(nil)
