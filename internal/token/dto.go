package token

import "time"

// TransferRequest captures user-provided data for a transfer. Setting
// EntireBalance moves the sender's full accrued balance regardless of Amount.
// Spender, when present, makes this an allowance-consuming transfer.
type TransferRequest struct {
	From          string `json:"from"`
	To            string `json:"to"`
	Spender       string `json:"spender,omitempty"`
	Amount        uint64 `json:"amount"`
	EntireBalance bool   `json:"entire_balance,omitempty"`
}

// TransferResponse represents the API response for a transfer.
type TransferResponse struct {
	From        string    `json:"from"`
	To          string    `json:"to"`
	FromBalance uint64    `json:"from_balance"`
	ToBalance   uint64    `json:"to_balance"`
	CompletedAt time.Time `json:"completed_at"`
}

// ApproveRequest captures an allowance grant. Unlimited grants an allowance
// that is never decremented.
type ApproveRequest struct {
	Owner     string `json:"owner"`
	Spender   string `json:"spender"`
	Amount    uint64 `json:"amount"`
	Unlimited bool   `json:"unlimited,omitempty"`
}

// BalanceResponse is the full position view of an account.
type BalanceResponse struct {
	Account   string    `json:"account"`
	Balance   uint64    `json:"balance"`
	Principal uint64    `json:"principal"`
	Rate      uint64    `json:"rate_per_second"`
	AsOf      time.Time `json:"as_of"`
}
