package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/owlchat/koins/internal/auth"
	"github.com/owlchat/koins/internal/ledger"
)

const callerLocal = "caller"

// CallerAuth validates the bearer token and binds the caller's ledger identity
// to the request context. Requests without a valid token are rejected.
func CallerAuth(tm *auth.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := bindCaller(c, tm); err != nil {
			return err
		}
		return c.Next()
	}
}

// OptionalCaller binds the caller when a valid bearer token is present and
// lets anonymous requests through untouched.
func OptionalCaller(tm *auth.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_ = bindCaller(c, tm)
		return c.Next()
	}
}

func bindCaller(c *fiber.Ctx, tm *auth.TokenManager) error {
	authz := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
	}
	claims, err := tm.Parse(strings.TrimSpace(authz[len("Bearer "):]))
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "invalid token")
	}

	caller := auth.AccountFor(claims.Subject)
	c.Locals(callerLocal, caller)
	c.SetUserContext(ledger.WithCaller(c.UserContext(), caller))
	return nil
}

// CallerFrom returns the identity bound by CallerAuth, if any.
func CallerFrom(c *fiber.Ctx) (ledger.AccountID, bool) {
	caller, ok := c.Locals(callerLocal).(ledger.AccountID)
	return caller, ok
}
