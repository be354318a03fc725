package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okapi-vault/okapi_vault/internal/events"
	"github.com/okapi-vault/okapi_vault/internal/ledger"
)

// Service is the custodial gateway: it exchanges the reference asset for
// ledger-minted balance and back, delegating every balance decision to the
// ledger. It holds no balances of its own.
type Service struct {
	ledger    ledger.Ledger
	ledgerID  string
	custodian Custodian
	notifier  events.Notifier
}

// NewService builds the vault gateway. The ledger binding is fixed at
// construction; LedgerID identifies it for the life of the process.
func NewService(ledgerBackend ledger.Ledger, custodian Custodian, notifier events.Notifier) (*Service, error) {
	if ledgerBackend == nil {
		return nil, fmt.Errorf("ledger backend is required")
	}
	if custodian == nil {
		custodian = StaticCustodian{}
	}
	return &Service{
		ledger:    ledgerBackend,
		ledgerID:  uuid.NewString(),
		custodian: custodian,
		notifier:  notifier,
	}, nil
}

// LedgerID identifies the ledger instance this gateway is bound to.
func (s *Service) LedgerID() string {
	return s.ledgerID
}

// Ledger exposes the bound ledger.
func (s *Service) Ledger() ledger.Ledger {
	return s.ledger
}

// DepositInput captures a confirmed-asset deposit to mint against.
type DepositInput struct {
	Account ledger.Address
	Amount  uint64
}

// WithdrawInput captures a redemption request. Amount may be the
// ledger.MaxAmount sentinel to redeem the entire accrued balance.
type WithdrawInput struct {
	Account ledger.Address
	Amount  uint64
}

// Receipt describes the gateway outcome of a deposit or withdrawal.
type Receipt struct {
	Account          ledger.Address
	Amount           uint64
	Balance          uint64
	CustodyReference string
	CompletedAt      time.Time
}

// Deposit confirms the reference-asset movement with the custodian and mints
// the same amount into the account.
func (s *Service) Deposit(ctx context.Context, input DepositInput) (Receipt, error) {
	if input.Amount == 0 || input.Amount == ledger.MaxAmount {
		return Receipt{}, fmt.Errorf("deposit amount must be positive and explicit")
	}

	receipt, err := s.custodian.ConfirmDeposit(ctx, DepositConfirmation{
		Account: input.Account.String(),
		Amount:  input.Amount,
	})
	if err != nil {
		return Receipt{}, err
	}

	minted, err := s.ledger.Mint(ctx, input.Account, input.Amount)
	if err != nil {
		return Receipt{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, events.Event{
			Kind:    events.KindDeposit,
			Account: input.Account.String(),
			Amount:  input.Amount,
			At:      time.Now().UTC(),
		})
	}

	return Receipt{
		Account:          minted.Account,
		Amount:           input.Amount,
		Balance:          minted.Balance,
		CustodyReference: receipt.Reference,
		CompletedAt:      time.Now().UTC(),
	}, nil
}

// Withdraw burns from the account first, then instructs the custodian to
// release the reference asset for the burned amount.
func (s *Service) Withdraw(ctx context.Context, input WithdrawInput) (Receipt, error) {
	if input.Amount == 0 {
		return Receipt{}, fmt.Errorf("withdrawal amount must be positive")
	}

	// Resolve the redeem-all sentinel before burning so the custodian release
	// matches the burned amount exactly.
	amount := input.Amount
	if amount == ledger.MaxAmount {
		balance, err := s.ledger.BalanceOf(ctx, input.Account)
		if err != nil {
			return Receipt{}, err
		}
		amount = balance
	}

	burned, err := s.ledger.Burn(ctx, input.Account, amount)
	if err != nil {
		return Receipt{}, err
	}

	receipt, err := s.custodian.ReleaseWithdrawal(ctx, WithdrawalRelease{
		Account: input.Account.String(),
		Amount:  amount,
	})
	if err != nil {
		return Receipt{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, events.Event{
			Kind:    events.KindWithdrawal,
			Account: input.Account.String(),
			Amount:  amount,
			At:      time.Now().UTC(),
		})
	}

	return Receipt{
		Account:          burned.Account,
		Amount:           amount,
		Balance:          burned.Balance,
		CustodyReference: receipt.Reference,
		CompletedAt:      time.Now().UTC(),
	}, nil
}
