package ledger

import (
	"context"
	"errors"
	"testing"
)

var (
	alice  = testAccount(0xa1)
	bob    = testAccount(0xb0)
	eve    = testAccount(0xe7)
	django = testAccount(0xd1)
)

func testAccount(b byte) AccountID {
	var id AccountID
	for i := range id {
		id[i] = b
	}
	return id
}

func asOwner() context.Context {
	return WithCaller(context.Background(), alice)
}

func asStranger() context.Context {
	return WithCaller(context.Background(), django)
}

// runStoreSuite exercises the ledger contract against any Store backend.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("HappyPath", func(t *testing.T) {
		l := mustCreate(t, newStore(t))
		ctx := asOwner()

		expectCoins(t, l, bob, 0)
		if got, err := l.AddCoins(ctx, bob, 42); err != nil || got != 42 {
			t.Fatalf("add coins: got %d, err %v", got, err)
		}
		expectCoins(t, l, bob, 42)
		expectCoins(t, l, eve, 0)
	})

	t.Run("AddCoinsAccumulates", func(t *testing.T) {
		l := mustCreate(t, newStore(t))
		ctx := asOwner()

		if got, err := l.AddCoins(ctx, bob, 100); err != nil || got != 100 {
			t.Fatalf("first add: got %d, err %v", got, err)
		}
		if got, err := l.AddCoins(ctx, bob, 50); err != nil || got != 150 {
			t.Fatalf("second add: got %d, err %v", got, err)
		}
		expectCoins(t, l, bob, 150)
	})

	t.Run("IncrementDecrement", func(t *testing.T) {
		l := mustCreate(t, newStore(t))
		ctx := asOwner()

		if got, err := l.Increment(ctx, bob); err != nil || got != 1 {
			t.Fatalf("increment: got %d, err %v", got, err)
		}
		expectCoins(t, l, bob, 1)
		if got, err := l.AddCoins(ctx, bob, 100); err != nil || got != 101 {
			t.Fatalf("add coins: got %d, err %v", got, err)
		}
		if got, err := l.Decrement(ctx, bob); err != nil || got != 100 {
			t.Fatalf("decrement: got %d, err %v", got, err)
		}
		expectCoins(t, l, bob, 100)

		for i := 0; i < 2; i++ {
			if got, err := l.Decrement(ctx, eve); err != nil || got != 0 {
				t.Fatalf("decrement unseen account #%d: got %d, err %v", i, got, err)
			}
		}
		expectCoins(t, l, eve, 0)
	})

	t.Run("SaturatesAtMax", func(t *testing.T) {
		l := mustCreate(t, newStore(t))
		ctx := asOwner()

		if got, err := l.AddCoins(ctx, bob, MaxCoins-1); err != nil || got != MaxCoins-1 {
			t.Fatalf("add near max: got %d, err %v", got, err)
		}
		if got, err := l.Increment(ctx, bob); err != nil || got != MaxCoins {
			t.Fatalf("increment to max: got %d, err %v", got, err)
		}
		if got, err := l.Increment(ctx, bob); err != nil || got != MaxCoins {
			t.Fatalf("increment past max: got %d, err %v", got, err)
		}
		if got, err := l.AddCoins(ctx, bob, MaxCoins); err != nil || got != MaxCoins {
			t.Fatalf("add past max: got %d, err %v", got, err)
		}
		expectCoins(t, l, bob, MaxCoins)
	})

	t.Run("NotTheOwner", func(t *testing.T) {
		l := mustCreate(t, newStore(t))

		if _, err := l.AddCoins(asOwner(), bob, 42); err != nil {
			t.Fatalf("owner add: %v", err)
		}

		ctx := asStranger()
		if _, err := l.AddCoins(ctx, bob, 100); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected unauthorized add, got %v", err)
		}
		if _, err := l.Increment(ctx, bob); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected unauthorized increment, got %v", err)
		}
		if _, err := l.Decrement(ctx, bob); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected unauthorized decrement, got %v", err)
		}
		if _, err := l.Increment(context.Background(), eve); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected unauthorized without caller, got %v", err)
		}

		expectCoins(t, l, bob, 42)
		expectCoins(t, l, eve, 0)
	})

	t.Run("ReadsArePublic", func(t *testing.T) {
		l := mustCreate(t, newStore(t))
		if _, err := l.AddCoins(asOwner(), bob, 7); err != nil {
			t.Fatalf("owner add: %v", err)
		}
		for _, ctx := range []context.Context{asStranger(), context.Background(), asOwner()} {
			got, err := l.GetCoins(ctx, bob)
			if err != nil || got != 7 {
				t.Fatalf("get coins: got %d, err %v", got, err)
			}
		}
	})

	t.Run("CreateOnce", func(t *testing.T) {
		store := newStore(t)
		mustCreate(t, store)

		if _, err := Create(asStranger(), store); !errors.Is(err, ErrAlreadyCreated) {
			t.Fatalf("expected already created, got %v", err)
		}
		if _, err := Create(context.Background(), newStore(t)); !errors.Is(err, ErrNoCaller) {
			t.Fatalf("expected missing caller, got %v", err)
		}
	})

	t.Run("OpenRestoresState", func(t *testing.T) {
		store := newStore(t)
		if _, err := Open(context.Background(), store); !errors.Is(err, ErrNotCreated) {
			t.Fatalf("expected not created, got %v", err)
		}

		l := mustCreate(t, store)
		if _, err := l.AddCoins(asOwner(), bob, 9); err != nil {
			t.Fatalf("add: %v", err)
		}

		reopened, err := Open(asStranger(), store)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if reopened.Owner() != alice {
			t.Fatalf("expected owner %s, got %s", alice, reopened.Owner())
		}
		expectCoins(t, reopened, bob, 9)
		if _, err := reopened.Increment(asStranger(), bob); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected unauthorized after reopen, got %v", err)
		}
	})
}

func mustCreate(t *testing.T, store Store) *Ledger {
	t.Helper()
	l, err := Create(asOwner(), store)
	if err != nil {
		t.Fatalf("create ledger: %v", err)
	}
	if l.Owner() != alice {
		t.Fatalf("expected owner %s, got %s", alice, l.Owner())
	}
	return l
}

func expectCoins(t *testing.T, l *Ledger, account AccountID, want uint32) {
	t.Helper()
	got, err := l.GetCoins(context.Background(), account)
	if err != nil {
		t.Fatalf("get coins for %s: %v", account, err)
	}
	if got != want {
		t.Fatalf("expected %d coins for %s, got %d", want, account, got)
	}
}
