package session

import (
	"context"
	"sync"
)

// MemoryBackend keeps the token for the lifetime of the process only.
type MemoryBackend struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryBackend returns a backend preloaded with token, which may be "".
func NewMemoryBackend(token string) *MemoryBackend {
	return &MemoryBackend{token: token}
}

func (b *MemoryBackend) Load(context.Context) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.token, nil
}

func (b *MemoryBackend) Save(_ context.Context, token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = token
	return nil
}

func (b *MemoryBackend) Delete(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = ""
	return nil
}
