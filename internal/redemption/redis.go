package redemption

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/salimtrading/staffportal/config"
)

const redisKeyPrefix = "staffportal:redeemed:"

// RedisBackend stores claims as expiring Redis keys.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend constructs a Redis backend from config.
func NewRedisBackend(ctx context.Context, cfg config.RedisConfig) (*RedisBackend, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisBackend{client: client}, nil
}

// NewRedisBackendFromClient wraps an existing client.
func NewRedisBackendFromClient(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Claim(ctx context.Context, key string, ttl time.Duration) error {
	ok, err := b.client.SetNX(ctx, redisKeyPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyRedeemed
	}
	return nil
}

func (b *RedisBackend) Release(ctx context.Context, key string) error {
	return b.client.Del(ctx, redisKeyPrefix+key).Err()
}

// Close closes the underlying client.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
