package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andymarkow/tradesim/internal/httpclient"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(WithClient(httpclient.New(httpclient.WithBaseURL(srv.URL), httpclient.WithRetryCount(0))))
}

func TestClient_GetPrice(t *testing.T) {
	var gotSymbol string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotSymbol = r.URL.Query().Get("symbol")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"EURUSD","price":"1.08125000"}`))
	})

	price, err := c.GetPrice(context.Background(), "eur/usd")
	require.NoError(t, err)

	assert.Equal(t, "EURUSD", gotSymbol)
	assert.True(t, price.Equal(decimal.RequireFromString("1.08125")))
}

func TestClient_GetPriceErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		expectedErr error
	}{
		{name: "UnknownSymbol", status: http.StatusBadRequest, body: `{"code":-1121,"msg":"Invalid symbol."}`, expectedErr: ErrPairNotFound},
		{name: "RateLimited", status: http.StatusTooManyRequests, body: `{}`, expectedErr: ErrTooManyRequests},
		{name: "ServerError", status: http.StatusInternalServerError, body: `{}`, expectedErr: ErrFeedUnavailable},
		{name: "ZeroPrice", status: http.StatusOK, body: `{"symbol":"EURUSD","price":"0"}`, expectedErr: ErrPriceInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.GetPrice(context.Background(), "EUR/USD")
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestSymbol(t *testing.T) {
	assert.Equal(t, "EURUSD", Symbol("eur/usd"))
	assert.Equal(t, "BTCUSDT", Symbol("BTC-USDT"))
	assert.Equal(t, "XAUUSD", Symbol(" xau_usd "))
}
