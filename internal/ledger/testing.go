package ledger

// SeedAccount is a test helper that writes an account record directly when
// using the in-memory ledger, bypassing settlement.
func SeedAccount(l Ledger, addr Address, principal, lockedRate uint64, lastSettled int64) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.accounts[addr] = account{principal: principal, lockedRate: lockedRate, lastSettled: lastSettled}
	}
}
