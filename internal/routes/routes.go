package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/owlchat/koins/internal/auth"
	"github.com/owlchat/koins/internal/coins"
	"github.com/owlchat/koins/internal/config"
	"github.com/owlchat/koins/internal/metrics"
	"github.com/owlchat/koins/internal/middleware"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg     config.Config
	Ledger  coins.Ledger
	Cache   *redis.Client
	Tokens  *auth.TokenManager
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Health  map[string]HealthCheck
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Ledger == nil {
		return fmt.Errorf("ledger is required")
	}
	if d.Tokens == nil {
		return fmt.Errorf("token manager is required")
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Cache == nil && !d.Cfg.IsDev() {
		d.Logger.Warn("redis not configured: idempotency keys and read rate limits are disabled")
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Metrics(d.Metrics))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))

	coinsSvc := coins.NewService(d.Ledger, d.Logger, d.Metrics)
	coinsHandler := coins.NewHandler(coinsSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
	RegisterCoinsRoutes(api, coinsHandler, d)

	return nil
}
