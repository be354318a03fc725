package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/okapi-vault/okapi_vault/internal/token"
)

// RegisterTokenRoutes wires balance queries, transfers and allowances.
func RegisterTokenRoutes(r fiber.Router, h *token.Handler) {
	r.Get("/accounts/:address/balance", h.Balance)
	r.Get("/accounts/:address/principal", h.Principal)
	r.Get("/accounts/:address/rate", h.Rate)
	r.Post("/transfers", h.Transfer)
	r.Post("/allowances", h.Approve)
	r.Get("/allowances/:owner/:spender", h.Allowance)
}
