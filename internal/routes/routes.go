package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookly-de/customer_portal/internal/accounts"
	"github.com/bookly-de/customer_portal/internal/auth"
	"github.com/bookly-de/customer_portal/internal/config"
	"github.com/bookly-de/customer_portal/internal/middleware"
	"github.com/bookly-de/customer_portal/internal/notification"
	"github.com/bookly-de/customer_portal/internal/reservations"
	"github.com/bookly-de/customer_portal/internal/verification"
)

const loginRateLimit = 5

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg       config.Config
	Cache     *redis.Client
	Logger    *slog.Logger
	Notifier  notification.Notifier
	AccessLog bool
	// BcryptCost overrides the password hashing cost; zero keeps the default.
	BcryptCost int
}

// Services are the backend services behind the routes. Callers use them to
// seed demo data.
type Services struct {
	Accounts     *accounts.Service
	Reservations *reservations.Service
	Verification *verification.Service
	Tokens       *auth.Service
}

// Setup configures middlewares and all customer API routes.
func Setup(app *fiber.App, d Deps) (*Services, error) {
	if !d.Cfg.IsDev() && d.Cache == nil {
		return nil, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Notifier == nil {
		d.Notifier = notification.NewLoggerNotifier(d.Logger)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if d.AccessLog {
		// Plain text access log: [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	svc := buildServices(d)

	bearer := middleware.BearerAuth(svc.Tokens, accountLookup{svc.Accounts})

	RegisterAuthRoutes(app, svc, middleware.RateLimit(d.Cache, "login", "email", loginRateLimit))
	RegisterVerificationRoutes(app, svc, middleware.RateLimit(d.Cache, "sms", "phone", d.Cfg.SMSRateLimit))

	protected := app.Group("/auth/customer")
	RegisterProfileRoutes(protected, svc, bearer)
	RegisterReservationRoutes(protected, svc, bearer)

	return svc, nil
}

func buildServices(d Deps) *Services {
	var (
		codes verification.CodeStore
		used  auth.UsedTokens
	)
	if d.Cache != nil {
		codes = verification.NewRedisCodes(d.Cache)
		used = auth.NewRedisUsedTokens(d.Cache)
	} else {
		codes = verification.NewMemoryCodes()
		used = auth.NewMemoryUsedTokens()
	}

	cost := d.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	tokens := auth.NewService(d.Cfg.JWTSecret, d.Cfg.TokenTTL, d.Cfg.OTPTTL, used)
	return &Services{
		Accounts:     accounts.NewService(accounts.NewMemoryRepository(), accounts.WithBcryptCost(cost)),
		Reservations: reservations.NewService(reservations.NewMemoryRepository()),
		Verification: verification.NewService(codes, d.Notifier, tokens, d.Cfg.OTPTTL,
			verification.WithAcceptAny(d.Cfg.OTPAcceptAny),
			verification.WithLogger(d.Logger),
		),
		Tokens: tokens,
	}
}
