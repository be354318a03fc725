package token

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/okapi-vault/okapi_vault/internal/ledger"
)

// Handler exposes token HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a token HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Balance returns the accrued-inclusive position for an account.
func (h *Handler) Balance(c *fiber.Ctx) error {
	account, err := ledger.ParseAddress(c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	position, err := h.service.Position(c.UserContext(), account)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(BalanceResponse{
		Account:   position.Account.String(),
		Balance:   position.Amount,
		Principal: position.Principal,
		Rate:      position.Rate,
		AsOf:      position.AsOf,
	})
}

// Principal returns the realized balance only, for auditing realized versus
// unrealized interest.
func (h *Handler) Principal(c *fiber.Ctx) error {
	account, err := ledger.ParseAddress(c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	principal, err := h.service.ledger.PrincipalOf(c.UserContext(), account)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account":   account.String(),
		"principal": principal,
	})
}

// Rate returns the rate locked in for an account.
func (h *Handler) Rate(c *fiber.Ctx) error {
	account, err := ledger.ParseAddress(c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	rate, err := h.service.ledger.RateOf(c.UserContext(), account)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account":         account.String(),
		"rate_per_second": rate,
	})
}

// Transfer moves tokens between accounts.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	input, err := transferInputFromRequest(req)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Transfer(c.UserContext(), input)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInsufficientBalance), errors.Is(err, ledger.ErrInsufficientAllowance):
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, ledger.ErrAmountOverflow):
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(TransferResponse{
		From:        result.From.String(),
		To:          result.To.String(),
		FromBalance: result.FromBalance,
		ToBalance:   result.ToBalance,
		CompletedAt: result.CompletedAt,
	})
}

// Approve grants an allowance.
func (h *Handler) Approve(c *fiber.Ctx) error {
	var req ApproveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	owner, err := ledger.ParseAddress(req.Owner)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	spender, err := ledger.ParseAddress(req.Spender)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount := req.Amount
	if req.Unlimited {
		amount = ledger.MaxAmount
	}
	if err := h.service.Approve(c.UserContext(), owner, spender, amount); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"owner":   owner.String(),
		"spender": spender.String(),
		"amount":  amount,
	})
}

// Allowance reports what a spender may still move on behalf of an owner.
func (h *Handler) Allowance(c *fiber.Ctx) error {
	owner, err := ledger.ParseAddress(c.Params("owner"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	spender, err := ledger.ParseAddress(c.Params("spender"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := h.service.Allowance(c.UserContext(), owner, spender)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"owner":     owner.String(),
		"spender":   spender.String(),
		"amount":    amount,
		"unlimited": amount == ledger.MaxAmount,
	})
}

func transferInputFromRequest(req TransferRequest) (TransferInput, error) {
	from, err := ledger.ParseAddress(req.From)
	if err != nil {
		return TransferInput{}, err
	}
	to, err := ledger.ParseAddress(req.To)
	if err != nil {
		return TransferInput{}, err
	}
	input := TransferInput{From: from, To: to, Amount: req.Amount}
	if req.EntireBalance {
		input.Amount = ledger.MaxAmount
	}
	if req.Spender != "" {
		spender, err := ledger.ParseAddress(req.Spender)
		if err != nil {
			return TransferInput{}, err
		}
		input.Spender = spender
	}
	return input, nil
}
