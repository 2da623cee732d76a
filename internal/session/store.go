package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Backend persists the single session token durably.
type Backend interface {
	// Load returns the stored token, or "" when none is stored.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// Store is the durable holder of the current bearer token. It notifies
// subscribers whenever the token value changes.
type Store struct {
	backend Backend
	logger  *slog.Logger

	mu        sync.Mutex
	token     string
	observers map[int]func(string)
	nextID    int
}

// Open builds a store and loads the persisted token from backend.
func Open(ctx context.Context, backend Backend, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	token, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &Store{
		backend:   backend,
		logger:    logger,
		token:     token,
		observers: make(map[int]func(string)),
	}, nil
}

// Get returns the current token or "".
func (s *Store) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Set persists token and notifies subscribers if it changed. On a persistence
// failure the in-memory token is left untouched.
func (s *Store) Set(ctx context.Context, token string) error {
	if token == "" {
		return s.Clear(ctx)
	}
	if err := s.backend.Save(ctx, token); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	s.mu.Lock()
	changed := s.token != token
	s.token = token
	s.mu.Unlock()

	if changed {
		s.notify(token)
	}
	return nil
}

// Clear forgets the token. Memory is cleared even when the persisted copy
// cannot be removed, so a logout always takes effect for this process.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	changed := s.token != ""
	s.token = ""
	s.mu.Unlock()

	err := s.backend.Delete(ctx)
	if changed {
		s.notify("")
	}
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ClearIf clears the store only while it still holds token. It reports
// whether anything was cleared.
func (s *Store) ClearIf(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	if token == "" || s.token != token {
		s.mu.Unlock()
		return false, nil
	}
	s.token = ""
	s.mu.Unlock()

	err := s.backend.Delete(ctx)
	s.notify("")
	if err != nil {
		return true, fmt.Errorf("delete session: %w", err)
	}
	return true, nil
}

// Subscribe registers fn to be called with the new token after every change.
// Callbacks run synchronously on the goroutine that changed the token and
// must not call back into Set or Clear. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(token string)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(token string) {
	s.mu.Lock()
	fns := make([]func(string), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	s.logger.Debug("session token changed", slog.Bool("present", token != ""))
	for _, fn := range fns {
		fn(token)
	}
}
