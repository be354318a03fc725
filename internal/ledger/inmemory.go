package ledger

import (
	"context"
	"sync"
	"time"
)

type inMemoryLedger struct {
	mu          sync.RWMutex
	clock       Clock
	currentRate uint64
	accounts    map[Address]account
	allowances  map[Address]map[Address]uint64
}

// NewInMemory creates a concurrency-safe in-memory ledger. It backs unit tests
// and dev mode. Mutators stage all writes and commit them only once every
// check has passed, so a failing operation leaves no partial settlement.
func NewInMemory(initialRate uint64, clock Clock) Ledger {
	if clock == nil {
		clock = time.Now
	}
	return &inMemoryLedger{
		clock:       clock,
		currentRate: initialRate,
		accounts:    make(map[Address]account),
		allowances:  make(map[Address]map[Address]uint64),
	}
}

func (l *inMemoryLedger) SetRate(_ context.Context, newRate uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if newRate > l.currentRate {
		return &RateIncreaseError{Current: l.currentRate, Attempted: newRate}
	}
	l.currentRate = newRate
	return nil
}

func (l *inMemoryLedger) CurrentRate(_ context.Context) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.currentRate, nil
}

func (l *inMemoryLedger) BalanceOf(_ context.Context, addr Address) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acct := l.accounts[addr]
	return accruedBalance(acct.principal, acct.lockedRate, acct.lastSettled, l.clock().Unix())
}

func (l *inMemoryLedger) PrincipalOf(_ context.Context, addr Address) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.accounts[addr].principal, nil
}

func (l *inMemoryLedger) RateOf(_ context.Context, addr Address) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.accounts[addr].lockedRate, nil
}

func (l *inMemoryLedger) Mint(_ context.Context, to Address, amount uint64) (MutationResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock().Unix()
	acct, err := settled(l.accounts[to], now)
	if err != nil {
		return MutationResult{}, err
	}
	// A net-new holder locks in the rate in effect at mint time. Later global
	// rate decreases do not touch it.
	if acct.principal == 0 && acct.lockedRate == 0 {
		acct.lockedRate = l.currentRate
	}
	updated := acct.principal + amount
	if updated < acct.principal {
		return MutationResult{}, ErrAmountOverflow
	}
	acct.principal = updated

	l.accounts[to] = acct
	return MutationResult{Account: to, Balance: acct.principal}, nil
}

func (l *inMemoryLedger) Burn(_ context.Context, from Address, amount uint64) (MutationResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock().Unix()
	acct, err := settled(l.accounts[from], now)
	if err != nil {
		return MutationResult{}, err
	}
	amount = resolveAmount(amount, acct.principal)
	if amount > acct.principal {
		return MutationResult{}, ErrInsufficientBalance
	}
	acct.principal -= amount

	l.accounts[from] = acct
	return MutationResult{Account: from, Balance: acct.principal}, nil
}

func (l *inMemoryLedger) Transfer(_ context.Context, from, to Address, amount uint64) (TransferResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transferLocked(from, to, amount)
}

func (l *inMemoryLedger) TransferFrom(_ context.Context, spender, from, to Address, amount uint64) (TransferResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	allowance := l.allowances[from][spender]
	if allowance != MaxAmount {
		// Resolve the sentinel against the accrued balance before the
		// allowance check, matching what will actually move.
		if amount == MaxAmount {
			acct := l.accounts[from]
			balance, err := accruedBalance(acct.principal, acct.lockedRate, acct.lastSettled, l.clock().Unix())
			if err != nil {
				return TransferResult{}, err
			}
			amount = balance
		}
		if amount > allowance {
			return TransferResult{}, ErrInsufficientAllowance
		}
		res, err := l.transferLocked(from, to, amount)
		if err != nil {
			return TransferResult{}, err
		}
		if l.allowances[from] == nil {
			l.allowances[from] = make(map[Address]uint64)
		}
		l.allowances[from][spender] = allowance - amount
		return res, nil
	}
	return l.transferLocked(from, to, amount)
}

// transferLocked settles both parties, resolves the sentinel, applies the
// rate-adoption rule and moves principal. Caller holds the write lock.
func (l *inMemoryLedger) transferLocked(from, to Address, amount uint64) (TransferResult, error) {
	now := l.clock().Unix()

	fromAcct, err := settled(l.accounts[from], now)
	if err != nil {
		return TransferResult{}, err
	}
	amount = resolveAmount(amount, fromAcct.principal)
	if amount > fromAcct.principal {
		return TransferResult{}, ErrInsufficientBalance
	}

	if from == to {
		l.accounts[from] = fromAcct
		return TransferResult{From: from, To: to, FromBalance: fromAcct.principal, ToBalance: fromAcct.principal}, nil
	}

	toAcct, err := settled(l.accounts[to], now)
	if err != nil {
		return TransferResult{}, err
	}
	// A recipient with no settled position inherits the sender's locked rate.
	// One with an existing balance keeps its own.
	if toAcct.principal == 0 {
		toAcct.lockedRate = fromAcct.lockedRate
	}
	updated := toAcct.principal + amount
	if updated < toAcct.principal {
		return TransferResult{}, ErrAmountOverflow
	}
	fromAcct.principal -= amount
	toAcct.principal = updated

	l.accounts[from] = fromAcct
	l.accounts[to] = toAcct
	return TransferResult{From: from, To: to, FromBalance: fromAcct.principal, ToBalance: toAcct.principal}, nil
}

func (l *inMemoryLedger) Approve(_ context.Context, owner, spender Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[Address]uint64)
	}
	l.allowances[owner][spender] = amount
	return nil
}

func (l *inMemoryLedger) Allowance(_ context.Context, owner, spender Address) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.allowances[owner][spender], nil
}
