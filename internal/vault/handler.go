package vault

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/okapi-vault/okapi_vault/internal/ledger"
)

// Handler exposes HTTP endpoints for the custodial gateway.
type Handler struct {
	service *Service
}

// NewHandler constructs a vault handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Info reports which ledger this gateway is bound to.
func (h *Handler) Info(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"ledger_id": h.service.LedgerID(),
	})
}

// Deposit mints ledger balance against a confirmed asset deposit.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req DepositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	account, err := ledger.ParseAddress(req.Account)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	receipt, err := h.service.Deposit(c.UserContext(), DepositInput{Account: account, Amount: req.Amount})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toResponse(receipt))
}

// Withdraw burns ledger balance and releases the reference asset.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req WithdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	account, err := ledger.ParseAddress(req.Account)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount := req.Amount
	if req.EntireBalance {
		amount = ledger.MaxAmount
	}

	receipt, err := h.service.Withdraw(c.UserContext(), WithdrawInput{Account: account, Amount: amount})
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toResponse(receipt))
}

func toResponse(receipt Receipt) ReceiptResponse {
	return ReceiptResponse{
		Account:          receipt.Account.String(),
		Amount:           receipt.Amount,
		Balance:          receipt.Balance,
		CustodyReference: receipt.CustodyReference,
		CompletedAt:      receipt.CompletedAt,
	}
}
