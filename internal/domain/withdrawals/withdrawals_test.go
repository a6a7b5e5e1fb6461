package withdrawals

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithdrawal(t *testing.T) {
	userID := uuid.NewString()

	w, err := NewWithdrawal(userID, decimal.NewFromInt(50), "usdt", "TWallet")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, w.Status)
	assert.Equal(t, "USDT", w.Currency)

	_, err = NewWithdrawal(userID, decimal.NewFromInt(9), "USDT", "TWallet")
	assert.ErrorIs(t, err, ErrWithdrawalAmountOutOfRange)

	_, err = NewWithdrawal(userID, decimal.NewFromInt(10_000_001), "USDT", "TWallet")
	assert.ErrorIs(t, err, ErrWithdrawalAmountOutOfRange)

	_, err = NewWithdrawal(userID, decimal.RequireFromString("50.000000001"), "USDT", "TWallet")
	assert.ErrorIs(t, err, ErrWithdrawalAmountOutOfRange)

	_, err = NewWithdrawal(userID, decimal.NewFromInt(50), "USDT", "")
	assert.ErrorIs(t, err, ErrWithdrawalWalletInvalid)

	_, err = NewWithdrawal("nope", decimal.NewFromInt(50), "USDT", "TWallet")
	assert.Error(t, err)
}

func TestWithdrawal_Review(t *testing.T) {
	w, err := NewWithdrawal(uuid.NewString(), decimal.NewFromInt(50), "USDT", "TWallet")
	require.NoError(t, err)

	require.NoError(t, w.Review(StatusRejected, "wrong network"))
	assert.Equal(t, StatusRejected, w.Status)
	assert.Equal(t, "wrong network", w.AdminNote)

	assert.ErrorIs(t, w.Review(StatusCompleted, ""), ErrWithdrawalAlreadyProcessed)
}

func TestParseDecision(t *testing.T) {
	status, err := ParseDecision("COMPLETED")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)

	_, err = ParseDecision("pending")
	assert.ErrorIs(t, err, ErrWithdrawalDecisionInvalid)
}
