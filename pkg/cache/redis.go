// pkg/cache/redis.go
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const revokedPrefix = "auth:revoked:"

// RedisCache keeps revoked session token ids until they would have expired
// anyway. It satisfies auth.RevocationStore.
type RedisCache struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisCache(addr, password string) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return NewRedisCacheFromClient(client)
}

func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, now: time.Now}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(c.now())
	if ttl <= 0 {
		// Already expired; the token verifier rejects it on its own.
		return nil
	}
	return c.client.Set(ctx, revokedPrefix+tokenID, 1, ttl).Err()
}

func (c *RedisCache) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := c.client.Get(ctx, revokedPrefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
