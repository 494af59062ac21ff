package ledger

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned by every mutating operation when the caller
	// is not the ledger owner. No state is changed when it is returned.
	ErrUnauthorized = errors.New("unauthorized caller")

	// ErrNoCaller indicates the context carries no caller identity.
	ErrNoCaller = errors.New("caller identity missing from context")

	// ErrNotCreated is returned by Open when the store holds no ledger.
	ErrNotCreated = errors.New("ledger not created")

	// ErrAlreadyCreated is returned by Create when the store already has an owner.
	ErrAlreadyCreated = errors.New("ledger already created")

	// ErrCorruptBalance indicates a persisted balance outside the uint32 range.
	ErrCorruptBalance = errors.New("corrupt balance")

	errReadOnly = errors.New("write attempted in read-only transaction")
)

// Tx reads and stages writes inside a single Store invocation.
type Tx interface {
	Owner(ctx context.Context) (AccountID, bool, error)
	SetOwner(ctx context.Context, owner AccountID) error
	Balance(ctx context.Context, account AccountID) (uint32, bool, error)
	SetBalance(ctx context.Context, account AccountID, coins uint32) error
}

// Store is the persistent substrate behind a Ledger. Update commits every
// write staged by fn atomically, or none of them when fn returns an error.
// Implementations may run fn more than once, so fn must not have effects
// outside the Tx.
type Store interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
}

// Ledger is an owner-gated map of account balances.
type Ledger struct {
	owner AccountID
	store Store
}

// Create initialises a ledger in store owned by the caller carried in ctx.
func Create(ctx context.Context, store Store) (*Ledger, error) {
	caller, ok := CallerFrom(ctx)
	if !ok {
		return nil, ErrNoCaller
	}
	err := store.Update(ctx, func(tx Tx) error {
		if _, exists, err := tx.Owner(ctx); err != nil {
			return err
		} else if exists {
			return ErrAlreadyCreated
		}
		return tx.SetOwner(ctx, caller)
	})
	if err != nil {
		return nil, err
	}
	return &Ledger{owner: caller, store: store}, nil
}

// Open attaches to a ledger previously created in store.
func Open(ctx context.Context, store Store) (*Ledger, error) {
	var owner AccountID
	err := store.View(ctx, func(tx Tx) error {
		o, exists, err := tx.Owner(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotCreated
		}
		owner = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Ledger{owner: owner, store: store}, nil
}

// Owner returns the identity allowed to mutate balances.
func (l *Ledger) Owner() AccountID {
	return l.owner
}

// AddCoins credits amount to account, saturating at MaxCoins, and returns the
// resulting balance.
func (l *Ledger) AddCoins(ctx context.Context, account AccountID, amount uint32) (uint32, error) {
	return l.mutate(ctx, account, func(current uint32) uint32 {
		return clampAdd(current, amount)
	})
}

// GetCoins returns the balance of account. Unknown accounts hold zero.
func (l *Ledger) GetCoins(ctx context.Context, account AccountID) (uint32, error) {
	var coins uint32
	err := l.store.View(ctx, func(tx Tx) error {
		c, err := currentBalance(ctx, tx, account)
		coins = c
		return err
	})
	if err != nil {
		return 0, err
	}
	return coins, nil
}

// Increment is AddCoins(account, 1).
func (l *Ledger) Increment(ctx context.Context, account AccountID) (uint32, error) {
	return l.AddCoins(ctx, account, 1)
}

// Decrement debits one coin from account, never going below zero.
func (l *Ledger) Decrement(ctx context.Context, account AccountID) (uint32, error) {
	return l.mutate(ctx, account, func(current uint32) uint32 {
		return clampSub(current, 1)
	})
}

func (l *Ledger) mutate(ctx context.Context, account AccountID, apply func(uint32) uint32) (uint32, error) {
	if err := l.ensureOwner(ctx); err != nil {
		return 0, err
	}
	var next uint32
	err := l.store.Update(ctx, func(tx Tx) error {
		current, err := currentBalance(ctx, tx, account)
		if err != nil {
			return err
		}
		next = apply(current)
		return tx.SetBalance(ctx, account, next)
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (l *Ledger) ensureOwner(ctx context.Context) error {
	caller, ok := CallerFrom(ctx)
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnauthorized, ErrNoCaller)
	}
	if caller != l.owner {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	return nil
}

func currentBalance(ctx context.Context, tx Tx, account AccountID) (uint32, error) {
	coins, _, err := tx.Balance(ctx, account)
	if err != nil {
		return 0, err
	}
	return coins, nil
}
