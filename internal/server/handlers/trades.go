package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/andymarkow/tradesim/internal/domain/trades"
	"github.com/andymarkow/tradesim/internal/errmsg"
	"github.com/andymarkow/tradesim/internal/server/models"
	"github.com/andymarkow/tradesim/internal/trading"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const (
	defaultTradesLimit = 50
	maxTradesLimit     = 100

	defaultAdminTradesLimit = 100
	maxAdminTradesLimit     = 1000
)

func (h *Handlers) CreateTrade(w http.ResponseWriter, r *http.Request) {
	var payload models.TradeRequest

	if !h.decodeJSON(w, r, &payload) {
		return
	}

	if err := trades.ValidateDurationSeconds(payload.Duration); err != nil {
		h.handleServiceError(w, "trades.ValidateDurationSeconds()", err)

		return
	}

	params := trading.OpenParams{
		UserID:    userIDFromContext(r.Context()),
		Pair:      payload.Pair,
		Direction: payload.Direction,
		Amount:    payload.Amount,
		Duration:  time.Duration(payload.Duration) * time.Second,
	}

	if payload.EntryPrice != nil {
		params.EntryPrice = decimal.NewNullDecimal(*payload.EntryPrice)
	}

	trade, err := h.trading.Open(r.Context(), params)
	if err != nil {
		h.handleServiceError(w, "trading.Open()", err)

		return
	}

	h.log.Info("Trade opened",
		slog.String("trade_id", trade.ID),
		slog.String("user_id", trade.UserID),
		slog.String("pair", trade.Pair),
	)

	handleJSONResponse(w, http.StatusCreated, &models.TradeCreatedResponse{
		Trade: models.NewTradeResponse(trade),
	})
}

func (h *Handlers) GetUserTrades(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r, defaultTradesLimit, maxTradesLimit)
	if !ok {
		handleError(w, errmsg.ErrRequestParamInvalid)

		return
	}

	list, err := h.storage.GetTradesByUser(r.Context(), userIDFromContext(r.Context()), limit)
	if err != nil {
		h.handleServiceError(w, "storage.GetTradesByUser()", err)

		return
	}

	handleJSONResponse(w, http.StatusOK, models.NewTradeResponses(list))
}

func (h *Handlers) GetUserTrade(w http.ResponseWriter, r *http.Request) {
	tradeID, ok := resourceID(r)
	if !ok {
		handleError(w, errmsg.ErrTradeNotFound)

		return
	}

	trade, err := h.storage.GetTrade(r.Context(), tradeID)
	if err != nil {
		h.handleServiceError(w, "storage.GetTrade()", err)

		return
	}

	// Trades of other users are reported as missing.
	if trade.UserID != userIDFromContext(r.Context()) {
		handleError(w, errmsg.ErrTradeNotFound)

		return
	}

	handleJSONResponse(w, http.StatusOK, models.NewTradeResponse(trade))
}

func (h *Handlers) GetPrice(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "pair"))
	if err != nil {
		handleError(w, errmsg.ErrRequestParamInvalid)

		return
	}

	pair, err := trades.NormalizePair(raw)
	if err != nil {
		h.handleServiceError(w, "trades.NormalizePair()", err)

		return
	}

	price, err := h.trading.Quote(r.Context(), pair)
	if err != nil {
		h.handleServiceError(w, "trading.Quote()", err)

		return
	}

	handleJSONResponse(w, http.StatusOK, &models.PriceResponse{
		Pair:  pair,
		Price: price.InexactFloat64(),
	})
}

func (h *Handlers) ListTrades(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r, defaultAdminTradesLimit, maxAdminTradesLimit)
	if !ok {
		handleError(w, errmsg.ErrRequestParamInvalid)

		return
	}

	list, err := h.storage.ListTrades(r.Context(), limit)
	if err != nil {
		h.handleServiceError(w, "storage.ListTrades()", err)

		return
	}

	handleJSONResponse(w, http.StatusOK, models.NewTradeResponses(list))
}
