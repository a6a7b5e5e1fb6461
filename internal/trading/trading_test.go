package trading

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andymarkow/tradesim/internal/domain/trades"
	"github.com/andymarkow/tradesim/internal/domain/users"
	"github.com/andymarkow/tradesim/internal/storage"
	"github.com/andymarkow/tradesim/internal/storage/inmemory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPrices struct {
	price decimal.Decimal
	err   error
	pairs []string
}

func (p *stubPrices) GetPrice(_ context.Context, pair string) (decimal.Decimal, error) {
	p.pairs = append(p.pairs, pair)

	return p.price, p.err
}

func fixedRandom(v float64) func() float64 {
	return func() float64 { return v }
}

func setup(t *testing.T, funds int64, opts ...Option) (*Service, *inmemory.Storage, string) {
	t.Helper()

	store := inmemory.NewStorage()

	usr, err := users.NewUser(users.Params{Email: "trader@example.com", Password: "password123"})
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(context.Background(), usr))

	_, err = store.SetUserBalance(context.Background(), usr.ID, decimal.NewFromInt(funds))
	require.NoError(t, err)

	return NewService(store, opts...), store, usr.ID
}

func openParams(userID string) OpenParams {
	return OpenParams{
		UserID:     userID,
		Pair:       "EUR/USD",
		Direction:  "CALL",
		Amount:     decimal.NewFromInt(100),
		EntryPrice: decimal.NewNullDecimal(decimal.RequireFromString("1.2")),
		Duration:   30 * time.Second,
	}
}

func current(t *testing.T, store *inmemory.Storage, userID string) decimal.Decimal {
	t.Helper()

	blnc, err := store.GetUserBalance(context.Background(), userID)
	require.NoError(t, err)

	return blnc.Current()
}

func TestService_ExitPrice(t *testing.T) {
	tests := []struct {
		random   float64
		expected string
	}{
		{random: 0.5, expected: "1.2"},
		{random: 0.75, expected: "1.2012"},
		{random: 0.25, expected: "1.1988"},
		{random: 0, expected: "1.1976"},
	}

	for _, tt := range tests {
		s := NewService(nil, WithRandom(fixedRandom(tt.random)))

		exit := s.ExitPrice(decimal.RequireFromString("1.2"))
		assert.True(t, exit.Equal(decimal.RequireFromString(tt.expected)), "random %v: got %s", tt.random, exit)
	}
}

func TestService_OpenAndSettle(t *testing.T) {
	ctx := context.Background()

	t.Run("Win", func(t *testing.T) {
		s, store, userID := setup(t, 1000, WithRandom(fixedRandom(0.75)))

		trade, err := s.Open(ctx, openParams(userID))
		require.NoError(t, err)
		assert.Equal(t, trades.StatusActive, trade.Status)
		assert.True(t, current(t, store, userID).Equal(decimal.NewFromInt(900)))

		settled, err := s.Settle(ctx, trade)
		require.NoError(t, err)
		assert.Equal(t, trades.StatusWon, settled.Status)
		assert.True(t, settled.Profit.Equal(decimal.NewFromInt(85)))
		assert.True(t, current(t, store, userID).Equal(decimal.NewFromInt(1085)))

		_, err = s.Settle(ctx, trade)
		assert.ErrorIs(t, err, trades.ErrTradeNotActive)
		assert.True(t, current(t, store, userID).Equal(decimal.NewFromInt(1085)))
	})

	t.Run("Loss", func(t *testing.T) {
		s, store, userID := setup(t, 1000, WithRandom(fixedRandom(0.25)))

		trade, err := s.Open(ctx, openParams(userID))
		require.NoError(t, err)

		settled, err := s.Settle(ctx, trade)
		require.NoError(t, err)
		assert.Equal(t, trades.StatusLost, settled.Status)
		assert.True(t, settled.Payout.IsZero())
		assert.True(t, current(t, store, userID).Equal(decimal.NewFromInt(900)))
	})

	t.Run("UnchangedPriceLoses", func(t *testing.T) {
		s, store, userID := setup(t, 1000, WithRandom(fixedRandom(0.5)))

		trade, err := s.Open(ctx, openParams(userID))
		require.NoError(t, err)

		settled, err := s.Settle(ctx, trade)
		require.NoError(t, err)
		assert.Equal(t, trades.StatusLost, settled.Status)
		assert.True(t, current(t, store, userID).Equal(decimal.NewFromInt(900)))
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		s, store, userID := setup(t, 50)

		_, err := s.Open(ctx, openParams(userID))
		assert.ErrorIs(t, err, storage.ErrUserBalanceNotEnough)
		assert.True(t, current(t, store, userID).Equal(decimal.NewFromInt(50)))
	})

	t.Run("Invalid", func(t *testing.T) {
		s, _, userID := setup(t, 1000)

		params := openParams(userID)
		params.Direction = "SIDEWAYS"

		_, err := s.Open(ctx, params)
		assert.ErrorIs(t, err, trades.ErrTradeDirectionInvalid)
	})
}

func TestService_OpenWithoutEntryPrice(t *testing.T) {
	ctx := context.Background()

	t.Run("NoPriceSource", func(t *testing.T) {
		s, _, userID := setup(t, 1000)

		params := openParams(userID)
		params.EntryPrice = decimal.NullDecimal{}

		_, err := s.Open(ctx, params)
		assert.ErrorIs(t, err, ErrEntryPriceRequired)
	})

	t.Run("FromPriceSource", func(t *testing.T) {
		prices := &stubPrices{price: decimal.RequireFromString("1.0815")}
		s, _, userID := setup(t, 1000, WithPriceSource(prices))

		params := openParams(userID)
		params.Pair = "eur/usd"
		params.EntryPrice = decimal.NullDecimal{}

		trade, err := s.Open(ctx, params)
		require.NoError(t, err)
		assert.True(t, trade.EntryPrice.Equal(decimal.RequireFromString("1.0815")))
		assert.Equal(t, []string{"EUR/USD"}, prices.pairs)
	})

	t.Run("PriceRoundedToStoredPrecision", func(t *testing.T) {
		prices := &stubPrices{price: decimal.RequireFromString("1.081512345")}
		s, _, userID := setup(t, 1000, WithPriceSource(prices))

		params := openParams(userID)
		params.EntryPrice = decimal.NullDecimal{}

		trade, err := s.Open(ctx, params)
		require.NoError(t, err)
		assert.True(t, trade.EntryPrice.Equal(decimal.RequireFromString("1.08151235")), "got %s", trade.EntryPrice)
	})

	t.Run("PriceSourceError", func(t *testing.T) {
		errFeed := errors.New("feed down")
		s, _, userID := setup(t, 1000, WithPriceSource(&stubPrices{err: errFeed}))

		params := openParams(userID)
		params.EntryPrice = decimal.NullDecimal{}

		_, err := s.Open(ctx, params)
		assert.ErrorIs(t, err, errFeed)
	})
}

func TestService_Quote(t *testing.T) {
	s := NewService(nil)

	_, err := s.Quote(context.Background(), "EUR/USD")
	assert.ErrorIs(t, err, ErrPriceFeedDisabled)

	_, err = s.Quote(context.Background(), "")
	assert.ErrorIs(t, err, trades.ErrTradePairEmpty)
}
