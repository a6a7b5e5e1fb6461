package trades

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() Params {
	return Params{
		UserID:     uuid.NewString(),
		Pair:       "eur/usd",
		Direction:  "call",
		Amount:     decimal.NewFromInt(100),
		EntryPrice: decimal.RequireFromString("1.2000"),
		Duration:   30 * time.Second,
	}
}

func TestNewTrade(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	trade, err := NewTrade(validParams(), now)
	require.NoError(t, err)

	assert.NotEmpty(t, trade.ID)
	assert.Equal(t, "EUR/USD", trade.Pair)
	assert.Equal(t, DirectionCall, trade.Direction)
	assert.Equal(t, StatusActive, trade.Status)
	assert.Equal(t, now, trade.CreatedAt)
	assert.Equal(t, now.Add(30*time.Second), trade.ExpiresAt)
	assert.True(t, trade.ClosedAt.IsZero())
}

func TestNewTrade_Validation(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(p *Params)
		expectedErr error
	}{
		{name: "EmptyPair", modify: func(p *Params) { p.Pair = " " }, expectedErr: ErrTradePairEmpty},
		{name: "BadPair", modify: func(p *Params) { p.Pair = "EUR USD" }, expectedErr: ErrTradePairInvalid},
		{name: "BadDirection", modify: func(p *Params) { p.Direction = "UP" }, expectedErr: ErrTradeDirectionInvalid},
		{name: "ZeroAmount", modify: func(p *Params) { p.Amount = decimal.Zero }, expectedErr: ErrTradeAmountInvalid},
		{name: "NegativeEntry", modify: func(p *Params) { p.EntryPrice = decimal.NewFromInt(-1) }, expectedErr: ErrTradeEntryPriceInvalid},
		{
			name:        "SubPrecisionAmount",
			modify:      func(p *Params) { p.Amount = decimal.RequireFromString("0.000000001") },
			expectedErr: ErrTradeAmountOutOfRange,
		},
		{
			name:        "HugeAmount",
			modify:      func(p *Params) { p.Amount = decimal.RequireFromString("1000000000000") },
			expectedErr: ErrTradeAmountOutOfRange,
		},
		{
			name:        "SubPrecisionEntry",
			modify:      func(p *Params) { p.EntryPrice = decimal.RequireFromString("1.2000000001") },
			expectedErr: ErrTradePriceOutOfRange,
		},
		{name: "ShortDuration", modify: func(p *Params) { p.Duration = 29 * time.Second }, expectedErr: ErrTradeDurationInvalid},
		{name: "LongDuration", modify: func(p *Params) { p.Duration = 301 * time.Second }, expectedErr: ErrTradeDurationInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams()
			tt.modify(&params)

			_, err := NewTrade(params, time.Now())
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestOutcome(t *testing.T) {
	entry := decimal.RequireFromString("1.2000")
	up := decimal.RequireFromString("1.2010")
	down := decimal.RequireFromString("1.1990")

	tests := []struct {
		direction Direction
		exit      decimal.Decimal
		expected  Status
	}{
		{DirectionCall, up, StatusWon},
		{DirectionCall, down, StatusLost},
		{DirectionCall, entry, StatusLost},
		{DirectionBuy, up, StatusWon},
		{DirectionPut, down, StatusWon},
		{DirectionPut, up, StatusLost},
		{DirectionSell, down, StatusWon},
		{DirectionSell, entry, StatusLost},
	}

	for _, tt := range tests {
		t.Run(tt.direction.String()+"_"+tt.exit.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, Outcome(tt.direction, entry, tt.exit))
		})
	}
}

func TestTrade_Settle(t *testing.T) {
	ratio := decimal.RequireFromString("1.85")

	t.Run("Won", func(t *testing.T) {
		trade, err := NewTrade(validParams(), time.Now())
		require.NoError(t, err)

		require.NoError(t, trade.Settle(decimal.RequireFromString("1.2024"), ratio, time.Now()))

		assert.Equal(t, StatusWon, trade.Status)
		assert.True(t, trade.Payout.Equal(decimal.NewFromInt(185)))
		assert.True(t, trade.Profit.Equal(decimal.NewFromInt(85)))
		assert.False(t, trade.ClosedAt.IsZero())
	})

	t.Run("Lost", func(t *testing.T) {
		trade, err := NewTrade(validParams(), time.Now())
		require.NoError(t, err)

		require.NoError(t, trade.Settle(decimal.RequireFromString("1.1976"), ratio, time.Now()))

		assert.Equal(t, StatusLost, trade.Status)
		assert.True(t, trade.Payout.IsZero())
		assert.True(t, trade.Profit.Equal(decimal.NewFromInt(-100)))
	})

	t.Run("PayoutRounded", func(t *testing.T) {
		params := validParams()
		params.Amount = decimal.RequireFromString("0.00000001")

		trade, err := NewTrade(params, time.Now())
		require.NoError(t, err)

		require.NoError(t, trade.Settle(decimal.RequireFromString("1.2024"), ratio, time.Now()))

		assert.True(t, trade.Payout.Equal(decimal.RequireFromString("0.00000002")), "got %s", trade.Payout)
	})

	t.Run("AlreadySettled", func(t *testing.T) {
		trade, err := NewTrade(validParams(), time.Now())
		require.NoError(t, err)
		require.NoError(t, trade.Settle(decimal.RequireFromString("1.1976"), ratio, time.Now()))

		err = trade.Settle(decimal.RequireFromString("1.2100"), ratio, time.Now())
		assert.ErrorIs(t, err, ErrTradeNotActive)
		assert.Equal(t, StatusLost, trade.Status)
	})
}

func TestTrade_IsDue(t *testing.T) {
	now := time.Now()

	trade, err := NewTrade(validParams(), now)
	require.NoError(t, err)

	assert.False(t, trade.IsDue(now.Add(29*time.Second)))
	assert.True(t, trade.IsDue(now.Add(30*time.Second)))
}

func TestValidateDurationSeconds(t *testing.T) {
	tests := []struct {
		name    string
		seconds int64
		wantErr bool
	}{
		{name: "Min", seconds: 30},
		{name: "Max", seconds: 300},
		{name: "Short", seconds: 29, wantErr: true},
		{name: "Long", seconds: 301, wantErr: true},
		{name: "Negative", seconds: -30, wantErr: true},
		{name: "WrapsAsNanoseconds", seconds: 18446744104, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDurationSeconds(tt.seconds)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrTradeDurationInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
