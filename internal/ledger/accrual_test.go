package ledger

import (
	"errors"
	"math"
	"testing"
)

func TestAccruedBalanceLinearGrowth(t *testing.T) {
	// rate of 1e10 with precision 1e12 grows the balance by 1% per second.
	const rate = uint64(10_000_000_000)

	got, err := accruedBalance(100, rate, 1_000, 1_050)
	if err != nil {
		t.Fatalf("accrued balance: %v", err)
	}
	if got != 150 {
		t.Fatalf("expected 150 after 50s at 1%%/s, got %d", got)
	}
}

func TestAccruedBalanceNeutralCases(t *testing.T) {
	cases := []struct {
		name                     string
		principal, rate          uint64
		lastSettled, now         int64
	}{
		{"never settled", 500, 10_000_000_000, 0, 1_000_000},
		{"zero rate", 500, 0, 1_000, 2_000},
		{"no elapsed time", 500, 10_000_000_000, 1_000, 1_000},
		{"clock behind settlement", 500, 10_000_000_000, 2_000, 1_000},
	}
	for _, tc := range cases {
		got, err := accruedBalance(tc.principal, tc.rate, tc.lastSettled, tc.now)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.principal {
			t.Fatalf("%s: expected principal %d unchanged, got %d", tc.name, tc.principal, got)
		}
	}
}

func TestAccruedBalanceTruncatesTowardZero(t *testing.T) {
	// 3 * 1.5 = 4.5, floor to 4.
	got, err := accruedBalance(3, 10_000_000_000, 1_000, 1_050)
	if err != nil {
		t.Fatalf("accrued balance: %v", err)
	}
	if got != 4 {
		t.Fatalf("expected floor(4.5)=4, got %d", got)
	}
}

func TestAccruedBalanceOverflow(t *testing.T) {
	// rate*elapsed alone exceeds 64 bits.
	if _, err := accruedBalance(1, math.MaxUint64, 1, math.MaxInt64); !errors.Is(err, ErrAmountOverflow) {
		t.Fatalf("expected overflow from rate*elapsed, got %v", err)
	}

	// A max-balance account doubling no longer fits uint64.
	if _, err := accruedBalance(math.MaxUint64, 10_000_000_000, 1_000, 1_100); !errors.Is(err, ErrAmountOverflow) {
		t.Fatalf("expected overflow from principal*multiplier, got %v", err)
	}
}

func TestSettledIdempotentWithinInstant(t *testing.T) {
	acct := account{principal: 100, lockedRate: 10_000_000_000, lastSettled: 1_000}

	once, err := settled(acct, 1_100)
	if err != nil {
		t.Fatalf("first settlement: %v", err)
	}
	if once.principal != 200 {
		t.Fatalf("expected settled principal 200, got %d", once.principal)
	}

	twice, err := settled(once, 1_100)
	if err != nil {
		t.Fatalf("second settlement: %v", err)
	}
	if twice != once {
		t.Fatalf("second settlement at same instant changed the account: %+v vs %+v", twice, once)
	}
}
