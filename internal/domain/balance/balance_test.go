package balance

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBalance(t *testing.T, current string) *Balance {
	t.Helper()

	b, err := NewBalance(uuid.NewString(), decimal.RequireFromString(current), decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	return b
}

func TestNewBalance_InvalidUserID(t *testing.T) {
	_, err := NewBalance("", decimal.Zero, decimal.Zero, decimal.Zero)
	assert.Error(t, err)

	_, err = NewBalance("not-a-uuid", decimal.Zero, decimal.Zero, decimal.Zero)
	assert.Error(t, err)
}

func TestBalance_Debit(t *testing.T) {
	tests := []struct {
		name        string
		current     string
		amount      string
		expectedErr error
		expected    string
	}{
		{name: "Partial", current: "1000", amount: "100", expected: "900"},
		{name: "Exact", current: "40", amount: "40", expected: "0"},
		{name: "Insufficient", current: "40", amount: "50", expectedErr: ErrInsufficientFunds, expected: "40"},
		{name: "Zero", current: "40", amount: "0", expectedErr: ErrAmountNotPositive, expected: "40"},
		{name: "Negative", current: "40", amount: "-5", expectedErr: ErrAmountNotPositive, expected: "40"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBalance(t, tt.current)

			err := b.Debit(decimal.RequireFromString(tt.amount))
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}

			assert.True(t, b.Current().Equal(decimal.RequireFromString(tt.expected)), "got %s", b.Current())
			assert.False(t, b.Current().IsNegative())
		})
	}
}

func TestBalance_Credit(t *testing.T) {
	b := newTestBalance(t, "900")

	require.NoError(t, b.Credit(decimal.NewFromInt(185)))
	assert.True(t, b.Current().Equal(decimal.NewFromInt(1085)))

	assert.ErrorIs(t, b.Credit(decimal.Zero), ErrAmountNotPositive)
}

func TestBalance_HoldReleaseSettle(t *testing.T) {
	b := newTestBalance(t, "100")

	require.NoError(t, b.Hold(decimal.NewFromInt(60)))
	assert.True(t, b.Current().Equal(decimal.NewFromInt(40)))
	assert.True(t, b.Held().Equal(decimal.NewFromInt(60)))

	assert.ErrorIs(t, b.Hold(decimal.NewFromInt(50)), ErrInsufficientFunds)
	assert.True(t, b.Held().Equal(decimal.NewFromInt(60)))

	require.NoError(t, b.Release(decimal.NewFromInt(20)))
	assert.True(t, b.Current().Equal(decimal.NewFromInt(60)))
	assert.True(t, b.Held().Equal(decimal.NewFromInt(40)))

	require.NoError(t, b.Settle(decimal.NewFromInt(40)))
	assert.True(t, b.Held().IsZero())
	assert.True(t, b.Withdrawn().Equal(decimal.NewFromInt(40)))

	assert.ErrorIs(t, b.Settle(decimal.NewFromInt(1)), ErrInsufficientFunds)
	assert.ErrorIs(t, b.Release(decimal.NewFromInt(1)), ErrInsufficientFunds)
}

func TestBalance_Set(t *testing.T) {
	b := newTestBalance(t, "100")
	require.NoError(t, b.Hold(decimal.NewFromInt(30)))

	require.NoError(t, b.Set(decimal.NewFromInt(5)))
	assert.True(t, b.Current().Equal(decimal.NewFromInt(5)))
	assert.True(t, b.Held().Equal(decimal.NewFromInt(30)))

	require.NoError(t, b.Set(decimal.Zero))
	assert.ErrorIs(t, b.Set(decimal.NewFromInt(-1)), ErrAmountNegative)
	assert.True(t, b.Current().IsZero())
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		expectedErr error
	}{
		{name: "Whole", amount: "1000"},
		{name: "Eight decimals", amount: "0.00000001"},
		{name: "Trailing zeros", amount: "1.1200000000"},
		{name: "Largest", amount: "999999999999.99999999"},
		{name: "Nine decimals", amount: "0.000000001", expectedErr: ErrAmountPrecision},
		{name: "Column overflow", amount: "1000000000000", expectedErr: ErrAmountTooLarge},
		{name: "Far overflow", amount: "10000000000000.5", expectedErr: ErrAmountTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(decimal.RequireFromString(tt.amount))
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBalance_OutOfRangeAmounts(t *testing.T) {
	b := newTestBalance(t, "100")

	assert.ErrorIs(t, b.Set(decimal.RequireFromString("10000000000000")), ErrAmountTooLarge)
	assert.ErrorIs(t, b.Debit(decimal.RequireFromString("0.000000001")), ErrAmountPrecision)
	assert.ErrorIs(t, b.Credit(decimal.RequireFromString("1.000000001")), ErrAmountPrecision)
	assert.ErrorIs(t, b.Hold(decimal.RequireFromString("0.000000001")), ErrAmountPrecision)
	assert.True(t, b.Current().Equal(decimal.NewFromInt(100)), "got %s", b.Current())
	assert.True(t, b.Held().IsZero())

	require.NoError(t, b.Set(decimal.RequireFromString("999999999999")))
	assert.ErrorIs(t, b.Credit(decimal.NewFromInt(1)), ErrAmountTooLarge)
	assert.True(t, b.Current().Equal(decimal.RequireFromString("999999999999")))
}
