package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/bookly-de/customer_portal/internal/config"
	"github.com/bookly-de/customer_portal/internal/infra"
	"github.com/bookly-de/customer_portal/internal/logging"
	"github.com/bookly-de/customer_portal/internal/notification"
	"github.com/bookly-de/customer_portal/internal/server"
)

const (
	demoEmail    = "user@example.com"
	demoPassword = "secret1"
	demoPhone    = "+491571234567"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
	} else {
		logger.Info("REDIS_URL not set, using in-memory stores")
	}

	var notifier notification.Notifier = notification.NewLoggerNotifier(logger)
	if cfg.KafkaBroker != "" {
		kafka := notification.NewKafkaNotifier(cfg.KafkaBroker, cfg.KafkaTopic)
		defer func() {
			if err := kafka.Close(); err != nil {
				logger.Warn("close kafka writer", "error", err)
			}
		}()
		notifier = notification.Fanout{notifier, kafka}
		logger.Info("publishing verification codes", "broker", cfg.KafkaBroker, "topic", cfg.KafkaTopic)
	}

	srv, err := server.New(cfg, cache, logger, server.WithNotifier(notifier), server.WithAccessLog())
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	if cfg.IsDev() {
		if _, err := srv.SeedDemo(ctx, demoEmail, demoPassword, demoPhone); err != nil {
			logger.Warn("seed demo customer", "error", err)
		} else {
			logger.Info("demo customer ready", "email", demoEmail, "phone", demoPhone)
		}
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()
	logger.Info("customer api stub listening", "addr", cfg.Address(), "env", cfg.AppEnv)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
