package coins

import (
	"errors"
	"math"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/owlchat/koins/internal/ledger"
)

// Handler exposes the ledger over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs a coins HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type addCoinsRequest struct {
	Amount *int64 `json:"amount"`
}

type coinsResponse struct {
	Account ledger.AccountID `json:"account"`
	Coins   uint32           `json:"coins"`
}

// Get returns the balance of the account in the path. Anyone may call it.
func (h *Handler) Get(c *fiber.Ctx) error {
	account, err := accountParam(c)
	if err != nil {
		return err
	}
	coins, err := h.service.GetCoins(c.UserContext(), account)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(coinsResponse{Account: account, Coins: coins})
}

// Add credits the requested amount to the account in the path.
func (h *Handler) Add(c *fiber.Ctx) error {
	account, err := accountParam(c)
	if err != nil {
		return err
	}
	var req addCoinsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Amount == nil {
		return fiber.NewError(http.StatusBadRequest, "amount is required")
	}
	if *req.Amount < 0 || *req.Amount > math.MaxUint32 {
		return fiber.NewError(http.StatusBadRequest, "amount must be between 0 and 4294967295")
	}

	coins, err := h.service.AddCoins(c.UserContext(), account, uint32(*req.Amount))
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(coinsResponse{Account: account, Coins: coins})
}

// Increment adds one coin to the account in the path.
func (h *Handler) Increment(c *fiber.Ctx) error {
	account, err := accountParam(c)
	if err != nil {
		return err
	}
	coins, err := h.service.Increment(c.UserContext(), account)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(coinsResponse{Account: account, Coins: coins})
}

// Decrement removes one coin from the account in the path.
func (h *Handler) Decrement(c *fiber.Ctx) error {
	account, err := accountParam(c)
	if err != nil {
		return err
	}
	coins, err := h.service.Decrement(c.UserContext(), account)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(coinsResponse{Account: account, Coins: coins})
}

// Owner reports the ledger owner.
func (h *Handler) Owner(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{"owner": h.service.Owner()})
}

func accountParam(c *fiber.Ctx) (ledger.AccountID, error) {
	account, err := ledger.ParseAccountID(c.Params("account"))
	if err != nil {
		return ledger.AccountID{}, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return account, nil
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		return fiber.NewError(http.StatusForbidden, ledger.ErrUnauthorized.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "ledger unavailable")
	}
}
