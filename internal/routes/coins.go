package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/owlchat/koins/internal/coins"
	"github.com/owlchat/koins/internal/middleware"
)

// RegisterCoinsRoutes wires the ledger endpoints. Reads are public and only
// anonymous readers are throttled; mutations
// require a caller token and, when Redis is available, an Idempotency-Key.
func RegisterCoinsRoutes(r fiber.Router, h *coins.Handler, d Deps) {
	r.Get("/owner", h.Owner)
	r.Get("/accounts/:account/coins",
		middleware.OptionalCaller(d.Tokens),
		middleware.RateLimit(d.Cache, "reads", d.Cfg.ReadRateLimit),
		h.Get,
	)

	mutating := func(handler fiber.Handler) []fiber.Handler {
		chain := []fiber.Handler{middleware.CallerAuth(d.Tokens)}
		if d.Cache != nil {
			chain = append(chain, middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
		}
		return append(chain, handler)
	}
	r.Post("/accounts/:account/coins", mutating(h.Add)...)
	r.Post("/accounts/:account/increment", mutating(h.Increment)...)
	r.Post("/accounts/:account/decrement", mutating(h.Decrement)...)
}
