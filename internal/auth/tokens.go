package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// UsedTokens remembers consumed otpToken IDs until they would have expired.
type UsedTokens interface {
	// MarkUsed records jti and reports false when it was already recorded.
	MarkUsed(ctx context.Context, jti string, ttl time.Duration) (bool, error)
}

type memoryUsedTokens struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewMemoryUsedTokens keeps consumed IDs in process memory.
func NewMemoryUsedTokens() UsedTokens {
	return &memoryUsedTokens{seen: make(map[string]time.Time)}
}

func (m *memoryUsedTokens) MarkUsed(_ context.Context, jti string, ttl time.Duration) (bool, error) {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, exp := range m.seen {
		if now.After(exp) {
			delete(m.seen, id)
		}
	}
	if _, exists := m.seen[jti]; exists {
		return false, nil
	}
	m.seen[jti] = now.Add(ttl)
	return true, nil
}

type redisUsedTokens struct {
	cache *redis.Client
}

// NewRedisUsedTokens shares consumed IDs across stub instances.
func NewRedisUsedTokens(cache *redis.Client) UsedTokens {
	return &redisUsedTokens{cache: cache}
}

func (r *redisUsedTokens) MarkUsed(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Second
	}
	return r.cache.SetNX(ctx, "otp:used:"+jti, 1, ttl).Result()
}
