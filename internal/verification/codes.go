package verification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoCode means no unexpired code is stored for the phone.
var ErrNoCode = errors.New("no pending code")

// CodeStore holds the pending code per phone number.
type CodeStore interface {
	Put(ctx context.Context, phoneE164, code string, ttl time.Duration) error
	Get(ctx context.Context, phoneE164 string) (string, error)
	Delete(ctx context.Context, phoneE164 string) error
}

type pendingCode struct {
	code    string
	expires time.Time
}

type memoryCodes struct {
	mu    sync.Mutex
	codes map[string]pendingCode
}

// NewMemoryCodes keeps codes in process memory.
func NewMemoryCodes() CodeStore {
	return &memoryCodes{codes: make(map[string]pendingCode)}
}

func (m *memoryCodes) Put(_ context.Context, phoneE164, code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[phoneE164] = pendingCode{code: code, expires: time.Now().Add(ttl)}
	return nil
}

func (m *memoryCodes) Get(_ context.Context, phoneE164 string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.codes[phoneE164]
	if !ok {
		return "", ErrNoCode
	}
	if time.Now().After(p.expires) {
		delete(m.codes, phoneE164)
		return "", ErrNoCode
	}
	return p.code, nil
}

func (m *memoryCodes) Delete(_ context.Context, phoneE164 string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, phoneE164)
	return nil
}

const codeKeyPrefix = "verify:code:"

type redisCodes struct {
	cache *redis.Client
}

// NewRedisCodes stores codes in Redis with a TTL.
func NewRedisCodes(cache *redis.Client) CodeStore {
	return &redisCodes{cache: cache}
}

func (r *redisCodes) Put(ctx context.Context, phoneE164, code string, ttl time.Duration) error {
	return r.cache.Set(ctx, codeKeyPrefix+phoneE164, code, ttl).Err()
}

func (r *redisCodes) Get(ctx context.Context, phoneE164 string) (string, error) {
	code, err := r.cache.Get(ctx, codeKeyPrefix+phoneE164).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoCode
	}
	return code, err
}

func (r *redisCodes) Delete(ctx context.Context, phoneE164 string) error {
	return r.cache.Del(ctx, codeKeyPrefix+phoneE164).Err()
}
