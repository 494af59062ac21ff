package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/owlchat/koins/internal/auth"
	"github.com/owlchat/koins/internal/config"
	"github.com/owlchat/koins/internal/infra"
	"github.com/owlchat/koins/internal/ledger"
	"github.com/owlchat/koins/internal/logging"
	"github.com/owlchat/koins/internal/metrics"
	"github.com/owlchat/koins/internal/routes"
	"github.com/owlchat/koins/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	health := map[string]routes.HealthCheck{}

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
		health["redis"] = func(ctx context.Context) error { return cache.Ping(ctx).Err() }
	}

	var store ledger.Store
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		pg := ledger.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Error("apply schema", "error", err)
			os.Exit(1)
		}
		health["postgres"] = pg.Ping
		store = pg
	case config.BackendRedis:
		store = ledger.NewRedisStore(cache)
	default:
		logger.Warn("using in-memory store: balances are lost on restart")
		store = ledger.NewInMemory()
	}

	l, err := openLedger(ctx, cfg, store, logger)
	if err != nil {
		logger.Error("open ledger", "error", err)
		os.Exit(1)
	}
	logger.Info("ledger ready", "owner", l.Owner().String(), "backend", cfg.StoreBackend)

	srv, err := server.New(routes.Deps{
		Cfg:     cfg,
		Ledger:  l,
		Cache:   cache,
		Tokens:  auth.NewTokenManager(cfg.JWTSecret, cfg.AppName, cfg.TokenTTL),
		Logger:  logger,
		Metrics: metrics.New(),
		Health:  health,
	})
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

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

// openLedger reopens the persisted ledger, creating it on first boot with the
// configured owner as the deploying caller.
func openLedger(ctx context.Context, cfg config.Config, store ledger.Store, logger *slog.Logger) (*ledger.Ledger, error) {
	owner, err := configuredOwner(cfg)
	if err != nil {
		return nil, err
	}

	l, err := ledger.Open(ctx, store)
	if errors.Is(err, ledger.ErrNotCreated) {
		if owner.IsZero() {
			return nil, fmt.Errorf("OWNER_ACCOUNT or OWNER_SUBJECT must be set to create the ledger")
		}
		return ledger.Create(ledger.WithCaller(ctx, owner), store)
	}
	if err != nil {
		return nil, err
	}

	if !owner.IsZero() && owner != l.Owner() {
		logger.Warn("configured owner differs from stored owner; stored owner wins",
			"configured", owner.String(), "stored", l.Owner().String())
	}
	return l, nil
}

func configuredOwner(cfg config.Config) (ledger.AccountID, error) {
	if cfg.OwnerAccount != "" {
		owner, err := ledger.ParseAccountID(cfg.OwnerAccount)
		if err != nil {
			return ledger.AccountID{}, fmt.Errorf("invalid OWNER_ACCOUNT: %w", err)
		}
		return owner, nil
	}
	if cfg.OwnerSubject != "" {
		return auth.AccountFor(cfg.OwnerSubject), nil
	}
	return ledger.AccountID{}, nil
}
