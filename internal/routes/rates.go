package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/okapi-vault/okapi_vault/internal/rates"
)

// RegisterRateRoutes wires global-rate endpoints. Changing the rate is an
// operator-only action.
func RegisterRateRoutes(r fiber.Router, h *rates.Handler, operatorGuard fiber.Handler) {
	r.Get("/rate", h.Current)
	r.Put("/rate", operatorGuard, h.Set)
}
