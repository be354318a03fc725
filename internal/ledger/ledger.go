package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrInsufficientBalance occurs when a burn or transfer would drive an
	// account's settled balance negative. The whole operation is discarded.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientAllowance occurs when a spender attempts to move more than
	// the owner approved.
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrAmountOverflow indicates the accrual product or a balance update does
	// not fit the 64-bit amount domain. Arithmetic never silently wraps.
	ErrAmountOverflow = errors.New("amount overflow")

	// ErrInvalidAddress indicates a malformed account address.
	ErrInvalidAddress = errors.New("invalid address")
)

// RateIncreaseError is returned by SetRate when the attempted rate is above the
// current one. The global rate is monotonically non-increasing for the lifetime
// of the ledger.
type RateIncreaseError struct {
	Current   uint64
	Attempted uint64
}

func (e *RateIncreaseError) Error() string {
	return fmt.Sprintf("rate increase rejected: current %d, attempted %d", e.Current, e.Attempted)
}

// MaxAmount is the sentinel accepted by Burn, Transfer and TransferFrom meaning
// "the account's entire accrued-inclusive balance". As an allowance it means
// unlimited and is not decremented by TransferFrom.
const MaxAmount uint64 = math.MaxUint64

// Clock supplies the current time to the ledger. Accrual is a pure function of
// stored state and the supplied clock; the ledger keeps no timer of its own.
type Clock func() time.Time

// MutationResult captures the outcome of a mint or burn.
type MutationResult struct {
	Account Address
	Balance uint64
}

// TransferResult captures the outcome of a balance move between two accounts.
type TransferResult struct {
	From        Address
	To          Address
	FromBalance uint64
	ToBalance   uint64
}

// Ledger is the system of record for the interest-bearing token. Every mutator
// settles accrued interest into principal before principal moves, so callers
// only ever observe fully settled states.
type Ledger interface {
	// SetRate lowers (or keeps) the global rate applied to new rate locks.
	// Attempting to raise it fails with *RateIncreaseError and changes nothing.
	SetRate(ctx context.Context, newRate uint64) error
	CurrentRate(ctx context.Context) (uint64, error)

	// BalanceOf returns the accrued-inclusive balance. It never mutates state.
	BalanceOf(ctx context.Context, account Address) (uint64, error)
	// PrincipalOf returns the realized balance only, with no accrual applied.
	PrincipalOf(ctx context.Context, account Address) (uint64, error)
	// RateOf returns the rate locked in for the account.
	RateOf(ctx context.Context, account Address) (uint64, error)

	Mint(ctx context.Context, to Address, amount uint64) (MutationResult, error)
	Burn(ctx context.Context, from Address, amount uint64) (MutationResult, error)
	Transfer(ctx context.Context, from, to Address, amount uint64) (TransferResult, error)
	TransferFrom(ctx context.Context, spender, from, to Address, amount uint64) (TransferResult, error)

	Approve(ctx context.Context, owner, spender Address, amount uint64) error
	Allowance(ctx context.Context, owner, spender Address) (uint64, error)
}
