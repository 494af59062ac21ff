package ledger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// updateLockKey is the transaction-scoped advisory lock taken by every Update
// so mutations against one database are applied one at a time.
const updateLockKey int64 = 0x6b6f696e73

// PostgresStore persists the owner and balances in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the ledger tables when they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply ledger schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) View(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(&postgresTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, updateLockKey); err != nil {
		return fmt.Errorf("acquire ledger lock: %w", err)
	}

	if err := fn(&postgresTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Ping checks connectivity to the database.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) Owner(ctx context.Context) (AccountID, bool, error) {
	var raw []byte
	if err := t.tx.QueryRow(ctx, `SELECT owner FROM ledger_owner WHERE id = 1`).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountID{}, false, nil
		}
		return AccountID{}, false, err
	}
	owner, err := AccountIDFromBytes(raw)
	if err != nil {
		return AccountID{}, false, err
	}
	return owner, true, nil
}

func (t *postgresTx) SetOwner(ctx context.Context, owner AccountID) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO ledger_owner (id, owner) VALUES (1, $1)`, owner[:])
	return err
}

func (t *postgresTx) Balance(ctx context.Context, account AccountID) (uint32, bool, error) {
	var coins int64
	if err := t.tx.QueryRow(ctx, `SELECT coins FROM balances WHERE account = $1`, account[:]).Scan(&coins); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if coins < 0 || coins > MaxCoins {
		return 0, false, fmt.Errorf("%w: account %s holds %d", ErrCorruptBalance, account, coins)
	}
	return uint32(coins), true, nil
}

func (t *postgresTx) SetBalance(ctx context.Context, account AccountID, coins uint32) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO balances (account, coins, updated_at) VALUES ($1, $2, now())
        ON CONFLICT (account) DO UPDATE SET coins = EXCLUDED.coins, updated_at = now()`, account[:], int64(coins))
	return err
}
