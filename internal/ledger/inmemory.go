package ledger

import (
	"context"
	"sync"
)

// InMemoryStore keeps ledger state in process memory. Invocations are
// serialised by a single mutex.
type InMemoryStore struct {
	mu       sync.RWMutex
	owner    *AccountID
	balances map[AccountID]uint32
}

// NewInMemory creates an empty in-memory store useful for unit tests and
// single-process deployments.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{balances: make(map[AccountID]uint32)}
}

func (s *InMemoryStore) View(_ context.Context, fn func(tx Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&inMemoryTx{store: s, readOnly: true})
}

func (s *InMemoryStore) Update(_ context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &inMemoryTx{store: s, pending: make(map[AccountID]uint32)}
	if err := fn(tx); err != nil {
		return err
	}

	if tx.owner != nil {
		owner := *tx.owner
		s.owner = &owner
	}
	for account, coins := range tx.pending {
		s.balances[account] = coins
	}
	return nil
}

// Len returns the number of accounts with a recorded entry.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.balances)
}

type inMemoryTx struct {
	store    *InMemoryStore
	readOnly bool
	owner    *AccountID
	pending  map[AccountID]uint32
}

func (t *inMemoryTx) Owner(_ context.Context) (AccountID, bool, error) {
	if t.owner != nil {
		return *t.owner, true, nil
	}
	if t.store.owner != nil {
		return *t.store.owner, true, nil
	}
	return AccountID{}, false, nil
}

func (t *inMemoryTx) SetOwner(_ context.Context, owner AccountID) error {
	if t.readOnly {
		return errReadOnly
	}
	t.owner = &owner
	return nil
}

func (t *inMemoryTx) Balance(_ context.Context, account AccountID) (uint32, bool, error) {
	if coins, ok := t.pending[account]; ok {
		return coins, true, nil
	}
	coins, ok := t.store.balances[account]
	return coins, ok, nil
}

func (t *inMemoryTx) SetBalance(_ context.Context, account AccountID, coins uint32) error {
	if t.readOnly {
		return errReadOnly
	}
	t.pending[account] = coins
	return nil
}
