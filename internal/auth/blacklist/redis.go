package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "talentlink:blacklist:"

// RedisStore keeps blacklisted jtis as keys that expire with the token.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(rawURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("blacklist: redis url: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opts)}, nil
}

func redisKey(jti string) string { return redisPrefix + jti }

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Add(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// already unusable
		return nil
	}
	if err := s.client.Set(ctx, redisKey(jti), userID, ttl).Err(); err != nil {
		return fmt.Errorf("blacklist: redis set %s: %w", jti, err)
	}
	return nil
}

func (s *RedisStore) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist: redis exists %s: %w", jti, err)
	}
	return n > 0, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
