package coins

import (
	"context"
	"errors"
	"log/slog"

	"github.com/owlchat/koins/internal/ledger"
	"github.com/owlchat/koins/internal/metrics"
)

// Operation names used in logs and metrics.
const (
	OpAddCoins  = "add_coins"
	OpGetCoins  = "get_coins"
	OpIncrement = "increment"
	OpDecrement = "decrement"
)

// Ledger is the balance ledger the service fronts.
type Ledger interface {
	Owner() ledger.AccountID
	AddCoins(ctx context.Context, account ledger.AccountID, amount uint32) (uint32, error)
	GetCoins(ctx context.Context, account ledger.AccountID) (uint32, error)
	Increment(ctx context.Context, account ledger.AccountID) (uint32, error)
	Decrement(ctx context.Context, account ledger.AccountID) (uint32, error)
}

// Service exposes ledger operations with audit logging and metrics.
type Service struct {
	ledger  Ledger
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewService constructs a coins service. metrics may be nil.
func NewService(l Ledger, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{ledger: l, logger: logger, metrics: m}
}

// Owner returns the ledger owner.
func (s *Service) Owner() ledger.AccountID {
	return s.ledger.Owner()
}

// AddCoins credits amount to account on behalf of the caller in ctx.
func (s *Service) AddCoins(ctx context.Context, account ledger.AccountID, amount uint32) (uint32, error) {
	coins, err := s.ledger.AddCoins(ctx, account, amount)
	s.record(ctx, OpAddCoins, account, coins, err, slog.Uint64("amount", uint64(amount)))
	return coins, err
}

// GetCoins returns the balance of account.
func (s *Service) GetCoins(ctx context.Context, account ledger.AccountID) (uint32, error) {
	coins, err := s.ledger.GetCoins(ctx, account)
	if err != nil {
		s.logger.Error("coins.get failed", slog.String("account", account.String()), slog.Any("error", err))
		s.metrics.ObserveOperation(OpGetCoins, metrics.OutcomeError)
		return 0, err
	}
	s.metrics.ObserveOperation(OpGetCoins, metrics.OutcomeOK)
	return coins, nil
}

// Increment adds one coin to account.
func (s *Service) Increment(ctx context.Context, account ledger.AccountID) (uint32, error) {
	coins, err := s.ledger.Increment(ctx, account)
	s.record(ctx, OpIncrement, account, coins, err)
	return coins, err
}

// Decrement removes one coin from account, flooring at zero.
func (s *Service) Decrement(ctx context.Context, account ledger.AccountID) (uint32, error) {
	coins, err := s.ledger.Decrement(ctx, account)
	s.record(ctx, OpDecrement, account, coins, err)
	return coins, err
}

func (s *Service) record(ctx context.Context, op string, account ledger.AccountID, coins uint32, err error, extra ...any) {
	attrs := append([]any{slog.String("operation", op), slog.String("account", account.String())}, extra...)
	if caller, ok := ledger.CallerFrom(ctx); ok {
		attrs = append(attrs, slog.String("caller", caller.String()))
	}

	switch {
	case err == nil:
		s.metrics.ObserveOperation(op, metrics.OutcomeOK)
		s.logger.Info("coins mutation committed", append(attrs, slog.Uint64("coins", uint64(coins)))...)
	case errors.Is(err, ledger.ErrUnauthorized):
		s.metrics.ObserveOperation(op, metrics.OutcomeUnauthorized)
		s.logger.Warn("coins mutation rejected", append(attrs, slog.Any("error", err))...)
	default:
		s.metrics.ObserveOperation(op, metrics.OutcomeError)
		s.logger.Error("coins mutation failed", append(attrs, slog.Any("error", err))...)
	}
}
