package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/andymarkow/tradesim/internal/domain/balance"
	"github.com/andymarkow/tradesim/internal/domain/deposits"
	"github.com/andymarkow/tradesim/internal/domain/trades"
	"github.com/andymarkow/tradesim/internal/domain/users"
	"github.com/andymarkow/tradesim/internal/domain/withdrawals"
	"github.com/andymarkow/tradesim/internal/errmsg"
	"github.com/andymarkow/tradesim/internal/pricefeed"
	"github.com/andymarkow/tradesim/internal/storage"
	"github.com/andymarkow/tradesim/internal/trading"
)

// validationErrors are reported to the client as 400 with their own message.
var validationErrors = []error{
	users.ErrUserIDEmpty,
	users.ErrUserIDInvalid,
	users.ErrUserEmailEmpty,
	users.ErrUserEmailInvalid,
	users.ErrUserPasswdEmpty,
	users.ErrUserPasswdTooShort,
	users.ErrUserPasswdTooLong,
	users.ErrUserNameTooLong,
	balance.ErrAmountNotPositive,
	balance.ErrAmountNegative,
	balance.ErrAmountPrecision,
	balance.ErrAmountTooLarge,
	trades.ErrTradePairEmpty,
	trades.ErrTradePairInvalid,
	trades.ErrTradeDirectionInvalid,
	trades.ErrTradeAmountInvalid,
	trades.ErrTradeAmountOutOfRange,
	trades.ErrTradeEntryPriceInvalid,
	trades.ErrTradePriceOutOfRange,
	trades.ErrTradeDurationInvalid,
	trading.ErrEntryPriceRequired,
	pricefeed.ErrPairNotFound,
	deposits.ErrDepositCurrencyInvalid,
	deposits.ErrDepositAmountOutOfRange,
	deposits.ErrDepositAddressInvalid,
	deposits.ErrDepositNoteTooLong,
	deposits.ErrDepositDecisionInvalid,
	withdrawals.ErrWithdrawalCurrencyInvalid,
	withdrawals.ErrWithdrawalAmountOutOfRange,
	withdrawals.ErrWithdrawalWalletInvalid,
	withdrawals.ErrWithdrawalNoteTooLong,
	withdrawals.ErrWithdrawalDecisionInvalid,
}

// mapError translates domain and storage errors into HTTP errors.
// Anything unknown is an internal error.
func mapError(err error) (errmsg.HTTPError, bool) {
	for _, verr := range validationErrors {
		if errors.Is(err, verr) {
			return errmsg.Validation(verr), true
		}
	}

	switch {
	case errors.Is(err, storage.ErrUserAlreadyExists):
		return errmsg.ErrUserAlreadyExists, true

	case errors.Is(err, storage.ErrUserNotFound), errors.Is(err, storage.ErrUserBalanceNotFound):
		return errmsg.ErrUserNotFound, true

	case errors.Is(err, storage.ErrUserBalanceNotEnough), errors.Is(err, balance.ErrInsufficientFunds):
		return errmsg.ErrUserBalanceNotEnough, true

	case errors.Is(err, storage.ErrTradeNotFound):
		return errmsg.ErrTradeNotFound, true

	case errors.Is(err, storage.ErrDepositNotFound):
		return errmsg.ErrDepositNotFound, true

	case errors.Is(err, storage.ErrWithdrawalNotFound):
		return errmsg.ErrWithdrawalNotFound, true

	case errors.Is(err, deposits.ErrDepositAlreadyProcessed),
		errors.Is(err, withdrawals.ErrWithdrawalAlreadyProcessed),
		errors.Is(err, trades.ErrTradeNotActive):
		return errmsg.ErrAlreadyProcessed, true

	case errors.Is(err, trading.ErrPriceFeedDisabled):
		return errmsg.ErrPriceFeedDisabled, true

	case errors.Is(err, pricefeed.ErrTooManyRequests),
		errors.Is(err, pricefeed.ErrFeedUnavailable),
		errors.Is(err, pricefeed.ErrPriceInvalid):
		return errmsg.ErrPriceFeedUnavailable, true
	}

	return errmsg.ErrInternal, false
}

// handleServiceError logs err under op and writes the mapped HTTP error.
func (h *Handlers) handleServiceError(w http.ResponseWriter, op string, err error) {
	httpErr, known := mapError(err)

	switch {
	case !known:
		h.log.Error(op, slog.Any("error", err))
	case httpErr.Code >= http.StatusInternalServerError:
		h.log.Warn(op, slog.Any("error", err))
	default:
		h.log.Debug(op, slog.Any("error", err))
	}

	handleError(w, httpErr)
}
