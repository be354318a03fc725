package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okapi-vault/okapi_vault/internal/events"
	"github.com/okapi-vault/okapi_vault/internal/ledger"
)

const testRate = uint64(10_000_000_000) // 1% per second at 1e12 precision

type fakeClock struct {
	now int64
}

func (c *fakeClock) Now() time.Time {
	return time.Unix(c.now, 0)
}

type captureNotifier struct {
	sent []events.Event
}

func (n *captureNotifier) Send(_ context.Context, event events.Event) error {
	n.sent = append(n.sent, event)
	return nil
}

func addr(b byte) ledger.Address {
	var a ledger.Address
	a[ledger.AddressLength-1] = b
	return a
}

func TestTransferEmitsEvent(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{now: 1_000}
	backend := ledger.NewInMemory(testRate, clk.Now)
	notifier := &captureNotifier{}
	svc := NewService(backend, notifier)

	a, b := addr(1), addr(2)
	if _, err := backend.Mint(ctx, a, 1_000); err != nil {
		t.Fatalf("mint: %v", err)
	}

	res, err := svc.Transfer(ctx, TransferInput{From: a, To: b, Amount: 400})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if res.FromBalance != 600 || res.ToBalance != 400 {
		t.Fatalf("expected 600/400, got %d/%d", res.FromBalance, res.ToBalance)
	}

	if len(notifier.sent) != 1 || notifier.sent[0].Kind != events.KindTransfer {
		t.Fatalf("expected one transfer event, got %+v", notifier.sent)
	}
}

func TestTransferViaSpenderUsesAllowance(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{now: 1_000}
	backend := ledger.NewInMemory(testRate, clk.Now)
	svc := NewService(backend, nil)

	owner, spender, dest := addr(1), addr(2), addr(3)
	if _, err := backend.Mint(ctx, owner, 500); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := svc.Approve(ctx, owner, spender, 100); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := svc.Transfer(ctx, TransferInput{From: owner, To: dest, Spender: spender, Amount: 80}); err != nil {
		t.Fatalf("transfer from: %v", err)
	}
	remaining, err := svc.Allowance(ctx, owner, spender)
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	if remaining != 20 {
		t.Fatalf("expected allowance 20, got %d", remaining)
	}

	_, err = svc.Transfer(ctx, TransferInput{From: owner, To: dest, Spender: spender, Amount: 80})
	if !errors.Is(err, ledger.ErrInsufficientAllowance) {
		t.Fatalf("expected insufficient allowance, got %v", err)
	}
}

func TestPositionReflectsAccrual(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{now: 1_000}
	backend := ledger.NewInMemory(testRate, clk.Now)
	svc := NewService(backend, nil)

	account := addr(1)
	if _, err := backend.Mint(ctx, account, 100); err != nil {
		t.Fatalf("mint: %v", err)
	}
	clk.now += 100

	position, err := svc.Position(ctx, account)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if position.Amount != 200 {
		t.Fatalf("expected accrued balance 200, got %d", position.Amount)
	}
	if position.Principal != 100 {
		t.Fatalf("expected principal 100, got %d", position.Principal)
	}
	if position.Rate != testRate {
		t.Fatalf("expected rate %d, got %d", testRate, position.Rate)
	}
}
