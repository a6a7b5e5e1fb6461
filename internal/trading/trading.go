// Package trading runs the trade lifecycle: opening a trade against the user
// balance and settling it at expiry with a synthetic exit price.
package trading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/andymarkow/tradesim/internal/domain/balance"
	"github.com/andymarkow/tradesim/internal/domain/trades"
	"github.com/andymarkow/tradesim/internal/storage"
	"github.com/shopspring/decimal"
)

var (
	ErrEntryPriceRequired = errors.New("entry price is required when no price feed is configured")
	ErrPriceFeedDisabled  = errors.New("price feed is not configured")
)

var (
	DefaultPayoutRatio = decimal.RequireFromString("1.85")
	DefaultVolatility  = decimal.RequireFromString("0.002")
)

// PriceSource returns a reference price of an instrument pair.
type PriceSource interface {
	GetPrice(ctx context.Context, pair string) (decimal.Decimal, error)
}

type Service struct {
	log         *slog.Logger
	store       storage.TradeStorage
	prices      PriceSource
	payoutRatio decimal.Decimal
	volatility  decimal.Decimal
	random      func() float64
	now         func() time.Time
}

func NewService(store storage.TradeStorage, opts ...Option) *Service {
	s := &Service{
		log:         slog.Default(),
		store:       store,
		payoutRatio: DefaultPayoutRatio,
		volatility:  DefaultVolatility,
		random:      rand.Float64,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.log = logger
	}
}

// WithPriceSource enables reference prices for trades opened without an entry price.
func WithPriceSource(prices PriceSource) Option {
	return func(s *Service) {
		s.prices = prices
	}
}

func WithPayoutRatio(ratio decimal.Decimal) Option {
	return func(s *Service) {
		s.payoutRatio = ratio
	}
}

func WithVolatility(volatility decimal.Decimal) Option {
	return func(s *Service) {
		s.volatility = volatility
	}
}

// WithRandom replaces the source of uniform values in [0, 1).
func WithRandom(random func() float64) Option {
	return func(s *Service) {
		s.random = random
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

type OpenParams struct {
	UserID     string
	Pair       string
	Direction  string
	Amount     decimal.Decimal
	EntryPrice decimal.NullDecimal
	Duration   time.Duration
}

// Open validates the trade, debits the stake and stores the trade as ACTIVE.
func (s *Service) Open(ctx context.Context, params OpenParams) (*trades.Trade, error) {
	entryPrice := params.EntryPrice.Decimal

	if !params.EntryPrice.Valid {
		price, err := s.Quote(ctx, params.Pair)
		if err != nil {
			if errors.Is(err, ErrPriceFeedDisabled) {
				return nil, ErrEntryPriceRequired
			}

			return nil, err
		}

		entryPrice = price
	}

	trade, err := trades.NewTrade(trades.Params{
		UserID:     params.UserID,
		Pair:       params.Pair,
		Direction:  params.Direction,
		Amount:     params.Amount,
		EntryPrice: entryPrice,
		Duration:   params.Duration,
	}, s.now())
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if err := s.store.OpenTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("store.OpenTrade: %w", err)
	}

	s.log.Debug("trade opened",
		slog.String("trade_id", trade.ID),
		slog.String("user_id", trade.UserID),
		slog.String("pair", trade.Pair),
		slog.String("direction", trade.Direction.String()),
		slog.String("amount", trade.Amount.String()),
	)

	return trade, nil
}

// Quote returns the reference price of the pair from the price source.
func (s *Service) Quote(ctx context.Context, pair string) (decimal.Decimal, error) {
	pair, err := trades.NormalizePair(pair)
	if err != nil {
		return decimal.Zero, err //nolint:wrapcheck
	}

	if s.prices == nil {
		return decimal.Zero, ErrPriceFeedDisabled
	}

	price, err := s.prices.GetPrice(ctx, pair)
	if err != nil {
		return decimal.Zero, fmt.Errorf("prices.GetPrice: %w", err)
	}

	return price.Round(balance.Precision), nil
}

// Settle resolves an ACTIVE trade and credits the payout of a win.
// A trade that is already resolved yields trades.ErrTradeNotActive and changes nothing.
func (s *Service) Settle(ctx context.Context, trade *trades.Trade) (*trades.Trade, error) {
	if trade.Status != trades.StatusActive {
		return nil, trades.ErrTradeNotActive
	}

	settled := *trade

	if err := settled.Settle(s.ExitPrice(trade.EntryPrice), s.payoutRatio, s.now()); err != nil {
		return nil, err //nolint:wrapcheck
	}

	if err := s.store.SettleTrade(ctx, &settled); err != nil {
		if errors.Is(err, storage.ErrTradeNotActive) {
			return nil, trades.ErrTradeNotActive
		}

		return nil, fmt.Errorf("store.SettleTrade: %w", err)
	}

	s.log.Debug("trade settled",
		slog.String("trade_id", settled.ID),
		slog.String("status", settled.Status.String()),
		slog.String("exit_price", settled.ExitPrice.String()),
		slog.String("payout", settled.Payout.String()),
	)

	return &settled, nil
}

// ExitPrice moves the entry price by a uniform random fraction of the volatility in either direction.
func (s *Service) ExitPrice(entryPrice decimal.Decimal) decimal.Decimal {
	u := decimal.NewFromFloat(2*s.random() - 1)
	factor := decimal.NewFromInt(1).Add(u.Mul(s.volatility))

	return entryPrice.Mul(factor).Round(balance.Precision)
}
