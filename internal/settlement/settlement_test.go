package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/andymarkow/tradesim/internal/domain/trades"
	"github.com/andymarkow/tradesim/internal/domain/users"
	"github.com/andymarkow/tradesim/internal/storage/inmemory"
	"github.com/andymarkow/tradesim/internal/trading"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettlement_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := inmemory.NewStorage()

	usr, err := users.NewUser(users.Params{Email: "trader@example.com", Password: "password123"})
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(ctx, usr))

	_, err = store.SetUserBalance(ctx, usr.ID, decimal.NewFromInt(1000))
	require.NoError(t, err)

	// Expired while the daemon was not running.
	trade, err := trades.NewTrade(trades.Params{
		UserID:     usr.ID,
		Pair:       "EUR/USD",
		Direction:  "CALL",
		Amount:     decimal.NewFromInt(100),
		EntryPrice: decimal.RequireFromString("1.2"),
		Duration:   30 * time.Second,
	}, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, store.OpenTrade(ctx, trade))

	svc := trading.NewService(store, trading.WithRandom(func() float64 { return 0.1 }))

	daemon := NewSettlement(store, svc, WithPollInterval(10*time.Millisecond), WithWorkers(2))

	done := make(chan error, 1)

	go func() {
		done <- daemon.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		stored, err := store.GetTrade(context.Background(), trade.ID)

		return err == nil && stored.Status.IsTerminal()
	}, 2*time.Second, 10*time.Millisecond)

	stored, err := store.GetTrade(context.Background(), trade.ID)
	require.NoError(t, err)
	assert.Equal(t, trades.StatusLost, stored.Status)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("settlement daemon did not stop")
	}
}
