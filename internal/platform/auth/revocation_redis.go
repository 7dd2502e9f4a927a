package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisBlacklistPrefix = "medlink:blacklist:"

// RedisBlacklist keeps one key per revoked jti with a TTL equal to the
// token's remaining lifetime, so entries disappear on their own.
type RedisBlacklist struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisBlacklist connects using a redis:// URL.
func NewRedisBlacklist(redisURL string) (*RedisBlacklist, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisBlacklistFromClient(redis.NewClient(opts)), nil
}

func NewRedisBlacklistFromClient(client redis.UniversalClient) *RedisBlacklist {
	return &RedisBlacklist{client: client, now: time.Now}
}

func (b *RedisBlacklist) Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, redisBlacklistPrefix+jti, userID, ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (b *RedisBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, redisBlacklistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("query blacklist: %w", err)
	}
	return n > 0, nil
}

// Ping is used by the health endpoint.
func (b *RedisBlacklist) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBlacklist) Close() error {
	return b.client.Close()
}
