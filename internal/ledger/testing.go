package ledger

// SeedBalance is a test helper that writes a balance directly into an
// in-memory store, bypassing the owner check.
func SeedBalance(s *InMemoryStore, account AccountID, coins uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[account] = coins
}
