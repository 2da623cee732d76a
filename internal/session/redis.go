package session

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// RedisBackend keeps the token in Redis so several client processes on one
// host can share a login.
type RedisBackend struct {
	client *redis.Client
	key    string
}

// NewRedisBackend stores the token under session:<key>.
func NewRedisBackend(client *redis.Client, key string) *RedisBackend {
	return &RedisBackend{client: client, key: redisKeyPrefix + key}
}

func (b *RedisBackend) Load(ctx context.Context) (string, error) {
	token, err := b.client.Get(ctx, b.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

func (b *RedisBackend) Save(ctx context.Context, token string) error {
	return b.client.Set(ctx, b.key, token, 0).Err()
}

func (b *RedisBackend) Delete(ctx context.Context) error {
	return b.client.Del(ctx, b.key).Err()
}
