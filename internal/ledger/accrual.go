package ledger

import "math/bits"

// PrecisionFactor is the fixed integer scale for interest arithmetic. A locked
// rate of r grows an account by r/PrecisionFactor of its principal per second
// of elapsed time, simple (non-compounding) within a settlement interval.
const PrecisionFactor uint64 = 1_000_000_000_000

// account is the stored record for a single address, shared by both backends.
type account struct {
	principal   uint64
	lockedRate  uint64
	lastSettled int64
}

// accruedBalance computes principal * (PrecisionFactor + rate*elapsed) /
// PrecisionFactor with a 128-bit intermediate. A zero lastSettled yields the
// neutral multiplier, so untouched accounts never grow. The product is checked
// at every step: the result must fit uint64, which bounds the supportable
// rate * elapsed * principal product at 2^64 * PrecisionFactor.
func accruedBalance(principal, rate uint64, lastSettled, now int64) (uint64, error) {
	if principal == 0 || rate == 0 || lastSettled == 0 || now <= lastSettled {
		return principal, nil
	}
	elapsed := uint64(now - lastSettled)

	hi, lo := bits.Mul64(rate, elapsed)
	if hi != 0 {
		return 0, ErrAmountOverflow
	}
	multiplier, carry := bits.Add64(PrecisionFactor, lo, 0)
	if carry != 0 {
		return 0, ErrAmountOverflow
	}

	hi, lo = bits.Mul64(principal, multiplier)
	if hi >= PrecisionFactor {
		return 0, ErrAmountOverflow
	}
	quo, _ := bits.Div64(hi, lo, PrecisionFactor)
	return quo, nil
}

// settled folds accrued interest into principal and stamps the settlement
// time. Calling it twice at the same instant is a no-op the second time.
// Mutators must apply it to every account they touch before principal or the
// locked rate changes.
func settled(acct account, now int64) (account, error) {
	balance, err := accruedBalance(acct.principal, acct.lockedRate, acct.lastSettled, now)
	if err != nil {
		return account{}, err
	}
	acct.principal = balance
	acct.lastSettled = now
	return acct, nil
}

// resolveAmount substitutes the MaxAmount sentinel with the full settled
// balance of the source account.
func resolveAmount(amount, settledBalance uint64) uint64 {
	if amount == MaxAmount {
		return settledBalance
	}
	return amount
}
