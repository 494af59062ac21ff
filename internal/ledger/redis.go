package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix   = "koins:v1:"
	redisOwnerKey    = redisKeyPrefix + "owner"
	redisBalancesKey = redisKeyPrefix + "balances"
	minRetryBackoff  = time.Millisecond
	maxRetryBackoff  = 50 * time.Millisecond
)

// ErrConflict is returned when an optimistic Redis transaction is still losing
// to concurrent writers once the caller's context is done.
var ErrConflict = errors.New("ledger update conflicted with a concurrent writer")

// RedisStore persists the owner under a string key and balances in a single
// hash keyed by hex account id. Updates from one process are serialised by a
// mutex; updates racing across processes use WATCH/MULTI/EXEC and retry with
// jittered backoff until ctx is done.
type RedisStore struct {
	client *redis.Client
	mu     sync.Mutex
}

// NewRedisStore constructs a Redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) View(_ context.Context, fn func(tx Tx) error) error {
	return fn(&redisTx{cmd: s.client, readOnly: true})
}

func (s *RedisStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	backoff := minRetryBackoff
	for {
		err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
			tx := &redisTx{cmd: rtx, pending: make(map[AccountID]uint32)}
			if err := fn(tx); err != nil {
				return err
			}
			if tx.owner == nil && len(tx.pending) == 0 {
				return nil
			}
			_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if tx.owner != nil {
					pipe.Set(ctx, redisOwnerKey, tx.owner.String(), 0)
				}
				for account, coins := range tx.pending {
					pipe.HSet(ctx, redisBalancesKey, account.String(), strconv.FormatUint(uint64(coins), 10))
				}
				return nil
			})
			return err
		}, redisOwnerKey, redisBalancesKey)

		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}

		timer := time.NewTimer(backoff/2 + time.Duration(rand.Int63n(int64(backoff/2+1))))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", ErrConflict, ctx.Err())
		case <-timer.C:
		}
		backoff = min(backoff*2, maxRetryBackoff)
	}
}

// Ping checks connectivity to Redis.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// redisReader is satisfied by both *redis.Client and *redis.Tx.
type redisReader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
}

type redisTx struct {
	cmd      redisReader
	readOnly bool
	owner    *AccountID
	pending  map[AccountID]uint32
}

func (t *redisTx) Owner(ctx context.Context) (AccountID, bool, error) {
	if t.owner != nil {
		return *t.owner, true, nil
	}
	raw, err := t.cmd.Get(ctx, redisOwnerKey).Result()
	if errors.Is(err, redis.Nil) {
		return AccountID{}, false, nil
	}
	if err != nil {
		return AccountID{}, false, err
	}
	owner, err := ParseAccountID(raw)
	if err != nil {
		return AccountID{}, false, fmt.Errorf("stored owner: %w", err)
	}
	return owner, true, nil
}

func (t *redisTx) SetOwner(_ context.Context, owner AccountID) error {
	if t.readOnly {
		return errReadOnly
	}
	t.owner = &owner
	return nil
}

func (t *redisTx) Balance(ctx context.Context, account AccountID) (uint32, bool, error) {
	if coins, ok := t.pending[account]; ok {
		return coins, true, nil
	}
	raw, err := t.cmd.HGet(ctx, redisBalancesKey, account.String()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	coins, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false, fmt.Errorf("%w: account %s holds %q", ErrCorruptBalance, account, raw)
	}
	return uint32(coins), true, nil
}

func (t *redisTx) SetBalance(_ context.Context, account AccountID, coins uint32) error {
	if t.readOnly {
		return errReadOnly
	}
	t.pending[account] = coins
	return nil
}
