package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/okapi-vault/okapi_vault/internal/vault"
)

// RegisterVaultRoutes wires the custodial gateway endpoints.
func RegisterVaultRoutes(r fiber.Router, h *vault.Handler, withdrawLimit fiber.Handler) {
	r.Get("/vault", h.Info)
	r.Post("/vault/deposits", h.Deposit)
	r.Post("/vault/withdrawals", withdrawLimit, h.Withdraw)
}
