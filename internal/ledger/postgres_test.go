package ledger

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres tests run only when KOINS_TEST_DATABASE_URL points at a disposable database.
func TestPostgresStore(t *testing.T) {
	url := os.Getenv("KOINS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("KOINS_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	runStoreSuite(t, func(t *testing.T) Store {
		store := NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			t.Fatalf("ensure schema: %v", err)
		}
		if _, err := pool.Exec(ctx, `TRUNCATE ledger_owner, balances`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return store
	})
}
