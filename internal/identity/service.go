package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bookly-de/customer_portal/internal/customer"
)

// ErrSessionInvalid is returned by RefreshMe when the stored token no longer
// yields a profile. The session has already been cleared when it is returned;
// callers normally render the logged-out state without an alert.
var ErrSessionInvalid = errors.New("session invalid")

const defaultRefreshTimeout = 15 * time.Second

// API is the slice of the customer API the identity service calls.
type API interface {
	Me(ctx context.Context) (customer.Customer, error)
	Login(ctx context.Context, email, password string) (customer.AuthResult, error)
	Register(ctx context.Context, reg customer.Registration) (customer.AuthResult, error)
}

// TokenStore is the durable session holder.
type TokenStore interface {
	Get() string
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
	ClearIf(ctx context.Context, token string) (bool, error)
	Subscribe(fn func(token string)) func()
}

// State is an immutable snapshot handed to observers.
type State struct {
	Customer *customer.Customer
	Token    string
}

// Authenticated reports whether a profile is loaded for the session.
func (s State) Authenticated() bool {
	return s.Token != "" && s.Customer != nil
}

// Service exposes the current customer and the session operations. It
// reconciles the stored token with the server exactly once per distinct token.
type Service struct {
	api            API
	store          TokenStore
	logger         *slog.Logger
	refreshTimeout time.Duration

	mu         sync.Mutex
	token      string
	customer   *customer.Customer
	reconciled string
	refreshSeq uint64
	appliedSeq uint64
	observers  map[int]func(State)
	nextID     int

	baseCtx     context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRefreshTimeout bounds background profile refreshes.
func WithRefreshTimeout(d time.Duration) Option {
	return func(s *Service) { s.refreshTimeout = d }
}

// NewService wires the service. Call Start to begin reconciling.
func NewService(api API, store TokenStore, opts ...Option) *Service {
	s := &Service{
		api:            api,
		store:          store,
		logger:         slog.Default(),
		refreshTimeout: defaultRefreshTimeout,
		observers:      make(map[int]func(State)),
		baseCtx:        context.Background(),
		cancel:         func() {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start subscribes to token changes and reconciles the token loaded from
// durable storage. Background refreshes derive from ctx.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.unsubscribe = s.store.Subscribe(s.onTokenChange)
	s.onTokenChange(s.store.Get())
}

// Close stops reconciling and waits for in-flight refreshes to finish.
func (s *Service) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// Wait blocks until background refreshes started so far have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Snapshot returns the current state.
func (s *Service) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Customer returns the loaded profile, or nil.
func (s *Service) Customer() *customer.Customer {
	return s.Snapshot().Customer
}

// Token returns the session token, or "".
func (s *Service) Token() string {
	return s.Snapshot().Token
}

// Authenticated reports whether a profile is loaded for the session.
func (s *Service) Authenticated() bool {
	return s.Snapshot().Authenticated()
}

// Subscribe registers fn for every committed state change. The returned
// func unsubscribes.
func (s *Service) Subscribe(fn func(State)) func() {
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

// RefreshMe fetches the profile for the current token. Any failure clears
// the customer, the token and the persisted store together and returns an
// error wrapping ErrSessionInvalid. Without a token it does nothing.
func (s *Service) RefreshMe(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		return nil
	}
	return s.refresh(ctx, token)
}

// Login exchanges credentials for a session. On failure the state is untouched.
func (s *Service) Login(ctx context.Context, email, password string) error {
	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return s.establish(ctx, res)
}

// Register completes a verified registration and establishes its session.
func (s *Service) Register(ctx context.Context, reg customer.Registration) error {
	res, err := s.api.Register(ctx, reg)
	if err != nil {
		return err
	}
	return s.establish(ctx, res)
}

// Logout clears the session immediately. It is idempotent and any refresh
// still in flight will discard its result.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	wasSet := s.token != "" || s.customer != nil
	s.token = ""
	s.customer = nil
	s.reconciled = ""
	s.mu.Unlock()

	err := s.store.Clear(ctx)
	if wasSet {
		s.logger.Info("customer logged out")
		s.notify()
	}
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *Service) establish(ctx context.Context, res customer.AuthResult) error {
	me := res.Customer

	s.mu.Lock()
	prevToken, prevCustomer := s.token, s.customer
	s.token = res.Token
	s.customer = &me
	s.mu.Unlock()

	if err := s.store.Set(ctx, res.Token); err != nil {
		s.mu.Lock()
		if s.token == res.Token {
			s.token, s.customer = prevToken, prevCustomer
		}
		s.mu.Unlock()
		return fmt.Errorf("persist session: %w", err)
	}

	s.logger.Info("customer session established", slog.String("customer_id", me.ID))
	s.notify()
	return nil
}

// onTokenChange runs for the initial load and after every store change. A
// token not yet reconciled gets exactly one background refresh.
func (s *Service) onTokenChange(token string) {
	s.mu.Lock()
	changed := token != s.token
	if changed {
		s.token = token
		s.customer = nil
	}
	trigger := token != "" && token != s.reconciled
	if trigger || token == "" {
		s.reconciled = token
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
	if !trigger {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.mu.Lock()
		base := s.baseCtx
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(base, s.refreshTimeout)
		defer cancel()
		if err := s.refresh(ctx, token); err != nil {
			s.logger.Debug("session reconciliation ended", slog.Any("error", err))
		}
	}()
}

// refresh fetches the profile and commits it only while token is still
// the current token and no later-started refresh has already committed.
func (s *Service) refresh(ctx context.Context, token string) error {
	s.mu.Lock()
	s.refreshSeq++
	seq := s.refreshSeq
	s.mu.Unlock()

	me, err := s.api.Me(ctx)
	if err != nil && ctx.Err() != nil {
		// abandoned by the caller; not a verdict on the session
		return ctx.Err()
	}

	s.mu.Lock()
	if s.token != token || seq < s.appliedSeq {
		s.mu.Unlock()
		s.logger.Debug("discarding stale profile refresh")
		return nil
	}

	s.appliedSeq = seq

	if err != nil {
		s.token = ""
		s.customer = nil
		s.reconciled = ""
		s.mu.Unlock()

		if _, cerr := s.store.ClearIf(context.WithoutCancel(ctx), token); cerr != nil {
			s.logger.Warn("clear persisted session", slog.Any("error", cerr))
		}
		s.logger.Info("stored session rejected, signed out", slog.Any("error", err))
		s.notify()
		return fmt.Errorf("%w: %v", ErrSessionInvalid, err)
	}

	s.customer = &me
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Service) snapshotLocked() State {
	st := State{Token: s.token}
	if s.customer != nil {
		c := *s.customer
		st.Customer = &c
	}
	return st
}

func (s *Service) notify() {
	s.mu.Lock()
	st := s.snapshotLocked()
	fns := make([]func(State), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
