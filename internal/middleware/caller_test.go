package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/owlchat/koins/internal/auth"
	"github.com/owlchat/koins/internal/ledger"
)

func TestCallerAuth(t *testing.T) {
	tm := auth.NewTokenManager("secret", "koins", time.Hour)
	app := fiber.New()
	app.Use(CallerAuth(tm))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		fromLocals, ok := CallerFrom(c)
		if !ok {
			return fiber.NewError(fiber.StatusInternalServerError, "caller not bound")
		}
		fromCtx, ok := ledger.CallerFrom(c.UserContext())
		if !ok || fromCtx != fromLocals {
			return fiber.NewError(fiber.StatusInternalServerError, "context caller mismatch")
		}
		return c.SendString(fromCtx.String())
	})

	token, _, err := tm.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if string(body) != auth.AccountFor("user-1").String() {
		t.Fatalf("unexpected caller %s", body)
	}

	for _, header := range []string{"", "Basic abc", "Bearer nope"} {
		req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
		if header != "" {
			req.Header.Set(fiber.HeaderAuthorization, header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, resp.StatusCode)
		}
	}
}
