package token

import (
	"context"
	"time"

	"github.com/okapi-vault/okapi_vault/internal/events"
	"github.com/okapi-vault/okapi_vault/internal/ledger"
)

// Service exposes token balance queries and transfers backed by the ledger.
// It holds no balance state of its own; the ledger is the source of truth.
type Service struct {
	ledger   ledger.Ledger
	notifier events.Notifier
}

// NewService builds a token service instance.
func NewService(ledgerBackend ledger.Ledger, notifier events.Notifier) *Service {
	return &Service{ledger: ledgerBackend, notifier: notifier}
}

// Balance is the accrued-inclusive position of one account at a point in time.
type Balance struct {
	Account   ledger.Address
	Amount    uint64
	Principal uint64
	Rate      uint64
	AsOf      time.Time
}

// Position returns the full view of an account: accrued balance, realized
// principal and the locked rate.
func (s *Service) Position(ctx context.Context, account ledger.Address) (Balance, error) {
	amount, err := s.ledger.BalanceOf(ctx, account)
	if err != nil {
		return Balance{}, err
	}
	principal, err := s.ledger.PrincipalOf(ctx, account)
	if err != nil {
		return Balance{}, err
	}
	rate, err := s.ledger.RateOf(ctx, account)
	if err != nil {
		return Balance{}, err
	}
	return Balance{
		Account:   account,
		Amount:    amount,
		Principal: principal,
		Rate:      rate,
		AsOf:      time.Now().UTC(),
	}, nil
}

// TransferInput captures the data needed to move tokens between accounts.
// A zero Spender means the owner moves their own funds; otherwise the move
// consumes the spender's allowance.
type TransferInput struct {
	From    ledger.Address
	To      ledger.Address
	Spender ledger.Address
	Amount  uint64
}

// TransferResult describes the settled outcome of a transfer.
type TransferResult struct {
	From        ledger.Address
	To          ledger.Address
	FromBalance uint64
	ToBalance   uint64
	CompletedAt time.Time
}

// Transfer moves tokens, settling both parties first. The ledger.MaxAmount
// sentinel moves the sender's entire accrued balance.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (TransferResult, error) {
	var res ledger.TransferResult
	var err error
	if input.Spender == ledger.ZeroAddress {
		res, err = s.ledger.Transfer(ctx, input.From, input.To, input.Amount)
	} else {
		res, err = s.ledger.TransferFrom(ctx, input.Spender, input.From, input.To, input.Amount)
	}
	if err != nil {
		return TransferResult{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, events.Event{
			Kind:         events.KindTransfer,
			Account:      input.From.String(),
			Counterparty: input.To.String(),
			Amount:       input.Amount,
			At:           time.Now().UTC(),
		})
	}

	return TransferResult{
		From:        res.From,
		To:          res.To,
		FromBalance: res.FromBalance,
		ToBalance:   res.ToBalance,
		CompletedAt: time.Now().UTC(),
	}, nil
}

// Approve sets the spender's allowance over the owner's balance.
// ledger.MaxAmount grants an unlimited allowance.
func (s *Service) Approve(ctx context.Context, owner, spender ledger.Address, amount uint64) error {
	return s.ledger.Approve(ctx, owner, spender, amount)
}

// Allowance returns the remaining allowance of spender over owner.
func (s *Service) Allowance(ctx context.Context, owner, spender ledger.Address) (uint64, error) {
	return s.ledger.Allowance(ctx, owner, spender)
}
