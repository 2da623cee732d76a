package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/bookly-de/customer_portal/internal/api"
	"github.com/bookly-de/customer_portal/internal/config"
	"github.com/bookly-de/customer_portal/internal/customer"
	"github.com/bookly-de/customer_portal/internal/identity"
	"github.com/bookly-de/customer_portal/internal/infra"
	"github.com/bookly-de/customer_portal/internal/logging"
	"github.com/bookly-de/customer_portal/internal/otp"
	"github.com/bookly-de/customer_portal/internal/session"
)

const usage = `usage: portal <command> [flags]

commands:
  login            -email -password
  logout
  me
  register         -name -email -password -phone
  reset-password   -phone -new-password
  change-phone     -phone
  change-password  -current -new
  rename           -name
  bookings
  cancel           -id

Verification codes are read from stdin. Enter "r" to resend a code.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.NewWithWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := newPortal(ctx, cfg, logger)
	if err != nil {
		logger.Error("start portal", "error", err)
		os.Exit(1)
	}
	defer p.close()

	if err := p.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// portal holds the client side wiring shared by every command.
type portal struct {
	cfg      config.Config
	logger   *slog.Logger
	cache    *redis.Client
	store    *session.Store
	client   *customer.Client
	identity *identity.Service
	in       *prompter
	out      io.Writer
}

func newPortal(ctx context.Context, cfg config.Config, logger *slog.Logger) (*portal, error) {
	p := &portal{cfg: cfg, logger: logger, in: newPrompter(os.Stdin, os.Stdout), out: os.Stdout}

	backend, err := p.sessionBackend(ctx)
	if err != nil {
		return nil, err
	}
	store, err := session.Open(ctx, backend, logger)
	if err != nil {
		p.close()
		return nil, fmt.Errorf("open session store: %w", err)
	}
	p.store = store

	gw := api.New(cfg.APIBaseURL, store,
		api.WithDoer(&http.Client{Timeout: cfg.RequestTimeout}),
		api.WithLogger(logger),
	)
	p.client = customer.NewClient(gw, cfg.APILang)
	p.identity = identity.NewService(p.client, store, identity.WithLogger(logger), identity.WithRefreshTimeout(cfg.RequestTimeout))
	p.identity.Start(ctx)
	p.identity.Wait()
	return p, nil
}

func (p *portal) sessionBackend(ctx context.Context) (session.Backend, error) {
	switch p.cfg.SessionBackend {
	case config.SessionBackendRedis:
		cache, err := infra.NewRedisClient(ctx, p.cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		p.cache = cache
		return session.NewRedisBackend(cache, p.cfg.SessionKey), nil
	case config.SessionBackendMemory:
		return session.NewMemoryBackend(""), nil
	default:
		return session.NewFileBackend(p.cfg.SessionFile, p.cfg.SessionKey), nil
	}
}

func (p *portal) close() {
	if p.identity != nil {
		p.identity.Close()
	}
	if p.cache != nil {
		if err := p.cache.Close(); err != nil {
			p.logger.Warn("close redis", "error", err)
		}
	}
}

func (p *portal) newOTP() *otp.Controller {
	return otp.New(p.client, otp.WithLogger(p.logger))
}

func (p *portal) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}
