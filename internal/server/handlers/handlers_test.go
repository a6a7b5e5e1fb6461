package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andymarkow/tradesim/internal/domain/deposits"
	"github.com/andymarkow/tradesim/internal/domain/trades"
	"github.com/andymarkow/tradesim/internal/pricefeed"
	"github.com/andymarkow/tradesim/internal/storage"
	"github.com/andymarkow/tradesim/internal/trading"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
		known   bool
	}{
		{
			name:    "validation error keeps its message",
			err:     fmt.Errorf("trades.NewTrade: %w", trades.ErrTradeDurationInvalid),
			code:    http.StatusBadRequest,
			message: "trade duration is out of range",
			known:   true,
		},
		{
			name:    "insufficient funds",
			err:     fmt.Errorf("store.OpenTrade: %w", storage.ErrUserBalanceNotEnough),
			code:    http.StatusPaymentRequired,
			message: "insufficient funds",
			known:   true,
		},
		{
			name:    "already processed",
			err:     deposits.ErrDepositAlreadyProcessed,
			code:    http.StatusConflict,
			message: "request already processed",
			known:   true,
		},
		{
			name:    "not found",
			err:     storage.ErrWithdrawalNotFound,
			code:    http.StatusNotFound,
			message: "withdrawal not found",
			known:   true,
		},
		{
			name:    "price feed disabled",
			err:     trading.ErrPriceFeedDisabled,
			code:    http.StatusServiceUnavailable,
			message: "price feed is not configured",
			known:   true,
		},
		{
			name:    "price feed failure",
			err:     fmt.Errorf("prices.GetPrice: %w", pricefeed.ErrFeedUnavailable),
			code:    http.StatusBadGateway,
			message: "price feed is unavailable",
			known:   true,
		},
		{
			name:    "unknown error is hidden",
			err:     errors.New("pq: connection reset by peer"),
			code:    http.StatusInternalServerError,
			message: "internal server error",
			known:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr, known := mapError(tt.err)

			assert.Equal(t, tt.code, httpErr.Code)
			assert.Equal(t, tt.message, httpErr.Error())
			assert.Equal(t, tt.known, known)
		})
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
		ok    bool
	}{
		{name: "default", query: "", want: 50, ok: true},
		{name: "explicit", query: "?limit=10", want: 10, ok: true},
		{name: "capped", query: "?limit=1000", want: 100, ok: true},
		{name: "zero", query: "?limit=0", ok: false},
		{name: "not a number", query: "?limit=ten", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/trades"+tt.query, nil)

			got, ok := parseLimit(r, defaultTradesLimit, maxTradesLimit)

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
