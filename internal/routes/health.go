package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RegisterHealthRoutes adds liveness/readiness style endpoints.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		statuses := fiber.Map{}
		status := http.StatusOK
		for name, check := range d.Health {
			if err := check(ctx); err != nil {
				statuses[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			statuses[name] = "ok"
		}

		return c.Status(status).JSON(fiber.Map{
			"status":    statuses,
			"owner":     d.Ledger.Owner(),
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}
