package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName         = "CustomerPortal"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultAPIBaseURL      = "http://localhost:8080"
	defaultAPILang         = "de"
	defaultRequestTimeout  = 15 * time.Second
	defaultSessionBackend  = SessionBackendFile
	defaultSessionKey      = "customer_token"
	defaultShutdownDelay   = 10 * time.Second
	defaultTokenTTL        = 7 * 24 * time.Hour
	defaultOTPTTL          = 10 * time.Minute
	defaultSMSRateLimit    = 5
	defaultKafkaTopic      = "sms.outbound"
	devJWTSecret           = "dev-secret-change-me"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Session backends accepted by SESSION_BACKEND.
const (
	SessionBackendFile   = "file"
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

// Config captures runtime configuration for the portal client and the stub
// backend, loaded from environment variables.
type Config struct {
	AppName   string
	AppEnv    string
	LogLevel  string
	LogFormat string

	// client
	APIBaseURL     string
	APILang        string
	RequestTimeout time.Duration
	SessionBackend string
	SessionFile    string
	SessionKey     string
	RedisURL       string

	// stub backend
	Port           string
	JWTSecret      string
	TokenTTL       time.Duration
	OTPTTL         time.Duration
	OTPAcceptAny   bool
	SMSRateLimit   int
	KafkaBroker    string
	KafkaTopic     string
	ShutdownPeriod time.Duration
}

// Load reads an optional .env file, then the environment, and validates the result.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", defaultLogFormat)),
		APIBaseURL:     strings.TrimRight(getEnv("API_BASE_URL", defaultAPIBaseURL), "/"),
		APILang:        getEnv("API_LANG", defaultAPILang),
		RequestTimeout: defaultRequestTimeout,
		SessionBackend: strings.ToLower(getEnv("SESSION_BACKEND", defaultSessionBackend)),
		SessionFile:    os.Getenv("SESSION_FILE"),
		SessionKey:     getEnv("SESSION_KEY", defaultSessionKey),
		RedisURL:       os.Getenv("REDIS_URL"),
		Port:           getEnv("PORT", defaultPort),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenTTL:       defaultTokenTTL,
		OTPTTL:         defaultOTPTTL,
		SMSRateLimit:   defaultSMSRateLimit,
		KafkaBroker:    os.Getenv("KAFKA_BROKER"),
		KafkaTopic:     getEnv("KAFKA_TOPIC", defaultKafkaTopic),
		ShutdownPeriod: defaultShutdownDelay,
	}

	var err error
	if cfg.RequestTimeout, err = durationEnv("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", cfg.TokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.OTPTTL, err = durationEnv("OTP_TTL", cfg.OTPTTL); err != nil {
		return Config{}, err
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if cfg.ShutdownPeriod, err = durationEnv(shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("SMS_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SMS_RATE_LIMIT: %w", err)
		}
		cfg.SMSRateLimit = n
	}

	if v := os.Getenv("OTP_ACCEPT_ANY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid OTP_ACCEPT_ANY: %w", err)
		}
		cfg.OTPAcceptAny = b
	}

	if cfg.SessionFile == "" {
		cfg.SessionFile = defaultSessionFile()
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = devJWTSecret
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.SessionBackend {
	case SessionBackendFile, SessionBackendMemory:
	case SessionBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL must be set when SESSION_BACKEND=redis")
		}
	default:
		return fmt.Errorf("invalid SESSION_BACKEND %q", c.SessionBackend)
	}

	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL must be set")
	}

	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set when APP_ENV=%s", c.AppEnv)
	}
	return nil
}

// IsDev reports whether the configuration targets a local environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "customer-portal", "session.json")
}
