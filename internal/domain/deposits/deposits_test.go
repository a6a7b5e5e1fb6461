package deposits

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeposit(t *testing.T) {
	tests := []struct {
		name        string
		currency    string
		amount      int64
		address     string
		expectedErr error
	}{
		{name: "Success", currency: "usdt", amount: 600, address: "TXYZ"},
		{name: "MinAmount", currency: "BTC", amount: 500, address: "bc1q"},
		{name: "BelowMin", currency: "BTC", amount: 499, address: "bc1q", expectedErr: ErrDepositAmountOutOfRange},
		{name: "AboveMax", currency: "BTC", amount: 10_000_001, address: "bc1q", expectedErr: ErrDepositAmountOutOfRange},
		{name: "NoCurrency", currency: "", amount: 600, address: "bc1q", expectedErr: ErrDepositCurrencyInvalid},
		{name: "NoAddress", currency: "BTC", amount: 600, address: "  ", expectedErr: ErrDepositAddressInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dep, err := NewDeposit(uuid.NewString(), tt.currency, decimal.NewFromInt(tt.amount), tt.address)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, StatusPending, dep.Status)
			assert.Equal(t, "USDT", dep.Currency)
		})
	}
}

func TestNewDeposit_Precision(t *testing.T) {
	_, err := NewDeposit(uuid.NewString(), "USDT", decimal.RequireFromString("600.000000001"), "TXYZ")
	assert.ErrorIs(t, err, ErrDepositAmountOutOfRange)

	dep, err := NewDeposit(uuid.NewString(), "USDT", decimal.RequireFromString("600.00000001"), "TXYZ")
	require.NoError(t, err)
	assert.Equal(t, "600.00000001", dep.Amount.String())
}

func TestDeposit_Review(t *testing.T) {
	dep, err := NewDeposit(uuid.NewString(), "USDT", decimal.NewFromInt(600), "TXYZ")
	require.NoError(t, err)

	assert.ErrorIs(t, dep.Review(StatusPending, ""), ErrDepositDecisionInvalid)

	require.NoError(t, dep.Review(StatusConfirmed, " ok "))
	assert.Equal(t, StatusConfirmed, dep.Status)
	assert.Equal(t, "ok", dep.AdminNote)
	assert.False(t, dep.ProcessedAt.IsZero())

	assert.ErrorIs(t, dep.Review(StatusRejected, ""), ErrDepositAlreadyProcessed)
	assert.Equal(t, StatusConfirmed, dep.Status)
}

func TestParseDecision(t *testing.T) {
	status, err := ParseDecision("confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, status)

	status, err = ParseDecision("Rejected")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, status)

	_, err = ParseDecision("Pending")
	assert.ErrorIs(t, err, ErrDepositDecisionInvalid)

	_, err = ParseDecision("approved")
	assert.ErrorIs(t, err, ErrDepositDecisionInvalid)
}
