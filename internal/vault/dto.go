package vault

import "time"

// DepositRequest captures user-provided data to mint against a confirmed
// reference-asset deposit.
type DepositRequest struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}

// WithdrawRequest captures a redemption. EntireBalance redeems the full
// accrued balance regardless of Amount.
type WithdrawRequest struct {
	Account       string `json:"account"`
	Amount        uint64 `json:"amount"`
	EntireBalance bool   `json:"entire_balance,omitempty"`
}

// ReceiptResponse represents the API response for vault operations.
type ReceiptResponse struct {
	Account          string    `json:"account"`
	Amount           uint64    `json:"amount"`
	Balance          uint64    `json:"balance"`
	CustodyReference string    `json:"custody_reference"`
	CompletedAt      time.Time `json:"completed_at"`
}
