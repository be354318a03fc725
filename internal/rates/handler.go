package rates

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/okapi-vault/okapi_vault/internal/ledger"
)

// Handler exposes rate control HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a rate control handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type setRateRequest struct {
	Rate uint64 `json:"rate_per_second"`
}

type rateResponse struct {
	Rate            uint64 `json:"rate_per_second"`
	PrecisionFactor uint64 `json:"precision_factor"`
}

// Current returns the global rate.
func (h *Handler) Current(c *fiber.Ctx) error {
	rate, err := h.service.Current(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(rateResponse{Rate: rate, PrecisionFactor: ledger.PrecisionFactor})
}

// Set applies a new (non-increased) global rate.
func (h *Handler) Set(c *fiber.Ctx) error {
	var req setRateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.Set(c.UserContext(), req.Rate); err != nil {
		var rateErr *ledger.RateIncreaseError
		if errors.As(err, &rateErr) {
			return fiber.NewError(http.StatusConflict, rateErr.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(rateResponse{Rate: req.Rate, PrecisionFactor: ledger.PrecisionFactor})
}
