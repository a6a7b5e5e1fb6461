// Package pricefeed fetches reference prices from a ticker API that exposes
// GET /api/v3/ticker/price?symbol=EURUSD and answers {"symbol": "EURUSD", "price": "1.08"}.
package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/andymarkow/tradesim/internal/httpclient"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

var (
	ErrPairNotFound    = errors.New("pair not found")
	ErrTooManyRequests = errors.New("too many requests")
	ErrFeedUnavailable = errors.New("price feed unavailable")
	ErrPriceInvalid    = errors.New("price is invalid")
)

type TickerModel struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

type Client struct {
	log    *slog.Logger
	client *resty.Client
}

func New(opts ...Option) *Client {
	c := &Client{
		log:    slog.Default(),
		client: httpclient.New(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type Option func(c *Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.log = logger
	}
}

func WithClient(client *resty.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// GetPrice returns the last price of the pair, e.g. "EUR/USD".
func (c *Client) GetPrice(ctx context.Context, pair string) (decimal.Decimal, error) {
	ticker := new(TickerModel)

	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(ticker).
		SetQueryParam("symbol", Symbol(pair)).
		Get("/api/v3/ticker/price")
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrFeedUnavailable, err)
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusOK:
	case code == http.StatusBadRequest, code == http.StatusNotFound:
		return decimal.Zero, ErrPairNotFound
	case code == http.StatusTooManyRequests:
		return decimal.Zero, ErrTooManyRequests
	default:
		c.log.Warn("unexpected price feed response",
			slog.String("pair", pair), slog.Int("status", code))

		return decimal.Zero, ErrFeedUnavailable
	}

	if !ticker.Price.IsPositive() {
		return decimal.Zero, ErrPriceInvalid
	}

	return ticker.Price, nil
}

// Symbol converts a pair to the ticker symbol by dropping separators.
func Symbol(pair string) string {
	return strings.NewReplacer("/", "", "-", "", "_", "").Replace(strings.ToUpper(strings.TrimSpace(pair)))
}
