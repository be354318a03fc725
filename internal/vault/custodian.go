package vault

import (
	"context"

	"github.com/google/uuid"
)

// Custodian represents a connector to the system holding the reference asset.
// The vault never moves the asset itself; it only confirms that the custodian
// did before touching the ledger.
type Custodian interface {
	ConfirmDeposit(ctx context.Context, input DepositConfirmation) (CustodyReceipt, error)
	ReleaseWithdrawal(ctx context.Context, input WithdrawalRelease) (CustodyReceipt, error)
}

// CustodyReceipt captures the custodian's acknowledgement of an asset move.
type CustodyReceipt struct {
	Reference string
	Status    string
}

// DepositConfirmation describes an inbound reference-asset transfer awaiting
// confirmation.
type DepositConfirmation struct {
	Account string
	Amount  uint64
}

// WithdrawalRelease instructs the custodian to return the reference asset.
type WithdrawalRelease struct {
	Account string
	Amount  uint64
}

// StaticCustodian simulates a custodian that acknowledges every movement.
type StaticCustodian struct{}

// ConfirmDeposit approves the deposit with a synthetic reference.
func (StaticCustodian) ConfirmDeposit(_ context.Context, _ DepositConfirmation) (CustodyReceipt, error) {
	return CustodyReceipt{Reference: uuid.NewString(), Status: "confirmed"}, nil
}

// ReleaseWithdrawal approves the asset release with a synthetic reference.
func (StaticCustodian) ReleaseWithdrawal(_ context.Context, _ WithdrawalRelease) (CustodyReceipt, error) {
	return CustodyReceipt{Reference: uuid.NewString(), Status: "released"}, nil
}
