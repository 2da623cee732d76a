package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/bookly-de/customer_portal/internal/accounts"
	"github.com/bookly-de/customer_portal/internal/config"
	"github.com/bookly-de/customer_portal/internal/notification"
	"github.com/bookly-de/customer_portal/internal/routes"
)

// Server wraps the Fiber application of the customer API stub.
type Server struct {
	app      *fiber.App
	cfg      config.Config
	services *routes.Services
}

// Option customizes the server.
type Option func(*routes.Deps)

// WithNotifier replaces the logging notifier used for verification SMS.
func WithNotifier(n notification.Notifier) Option {
	return func(d *routes.Deps) { d.Notifier = n }
}

// WithAccessLog enables the plain text access log on stdout.
func WithAccessLog() Option {
	return func(d *routes.Deps) { d.AccessLog = true }
}

// WithBcryptCost lowers password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(d *routes.Deps) { d.BcryptCost = cost }
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
// cache may be nil in development.
func New(cfg config.Config, cache *redis.Client, logger *slog.Logger, opts ...Option) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          routes.ErrorHandler,
		DisableStartupMessage: true,
	})

	deps := routes.Deps{Cfg: cfg, Cache: cache, Logger: logger}
	for _, opt := range opts {
		opt(&deps)
	}
	services, err := routes.Setup(app, deps)
	if err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, services: services}, nil
}

// Services exposes the backend services, e.g. for seeding.
func (s *Server) Services() *routes.Services {
	return s.services
}

// SeedDemo creates a demo customer with a couple of bookings.
func (s *Server) SeedDemo(ctx context.Context, email, password, phoneE164 string) (accounts.Account, error) {
	account, err := s.services.Accounts.Register(ctx, accounts.NewAccount{
		Name:      "User",
		Email:     email,
		Password:  password,
		PhoneE164: phoneE164,
	})
	if err != nil {
		return accounts.Account{}, fmt.Errorf("seed account: %w", err)
	}
	if err := s.services.Reservations.SeedDemo(ctx, account.ID, time.Now()); err != nil {
		return accounts.Account{}, fmt.Errorf("seed reservations: %w", err)
	}
	return account, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
