// Command partsctl is the operator CLI of the parts inventory. Every
// subcommand runs one catalog, stock or kit operation and prints its result
// as JSON on stdout.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gestorpecas/internal/app"
	"gestorpecas/internal/config"
	"gestorpecas/internal/infra"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &cli{cfg: cfg, open: openApp, migrate: infra.RunMigrations}
	code := run(ctx, c, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// setupLogger: dev is pretty on stderr, everything else JSON. Each
// invocation gets its own op_id so log lines of one command can be grouped.
func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(os.Stderr)
	if cfg.Env == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = logger.With().Timestamp().Str("op_id", uuid.NewString()).Logger()
}

func openApp(cfg *config.Config) (*app.App, error) {
	db, err := infra.NewDatabase(cfg.DatabaseURL, infra.PoolOptions{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, part cache disabled")
		rdb = nil
	}

	return app.New(cfg, db, rdb), nil
}
