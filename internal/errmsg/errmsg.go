package errmsg

import (
	"errors"
	"net/http"
)

type HTTPError struct {
	Code    int
	Message error
}

func NewHTTPError(code int, message error) HTTPError {
	return HTTPError{Code: code, Message: message}
}

func (e *HTTPError) Error() string {
	return e.Message.Error()
}

func (e *HTTPError) Unwrap() error {
	return e.Message
}

// Validation returns a 400 error carrying the validation failure message.
func Validation(err error) HTTPError {
	return NewHTTPError(http.StatusBadRequest, err)
}

var ErrInternal = NewHTTPError(
	http.StatusInternalServerError,
	errors.New("internal server error"),
)

var (
	ErrRequestPayloadEmpty = NewHTTPError(
		http.StatusBadRequest,
		errors.New("request payload is empty"),
	)

	ErrRequestPayloadInvalid = NewHTTPError(
		http.StatusBadRequest,
		errors.New("request payload is invalid"),
	)

	ErrRequestParamInvalid = NewHTTPError(
		http.StatusBadRequest,
		errors.New("request parameter is invalid"),
	)
)

var (
	ErrUnauthenticated = NewHTTPError(
		http.StatusUnauthorized,
		errors.New("authentication required"),
	)

	ErrForbidden = NewHTTPError(
		http.StatusForbidden,
		errors.New("admin privileges required"),
	)
)

var (
	ErrUserAlreadyExists = NewHTTPError(
		http.StatusConflict,
		errors.New("user already exists"),
	)

	ErrUserNotFound = NewHTTPError(
		http.StatusNotFound,
		errors.New("user not found"),
	)

	ErrUserCredentialsInvalid = NewHTTPError(
		http.StatusUnauthorized,
		errors.New("user credentials invalid"),
	)

	ErrUserBalanceNotEnough = NewHTTPError(
		http.StatusPaymentRequired,
		errors.New("insufficient funds"),
	)
)

var (
	ErrTradeNotFound = NewHTTPError(
		http.StatusNotFound,
		errors.New("trade not found"),
	)

	ErrDepositNotFound = NewHTTPError(
		http.StatusNotFound,
		errors.New("deposit not found"),
	)

	ErrWithdrawalNotFound = NewHTTPError(
		http.StatusNotFound,
		errors.New("withdrawal not found"),
	)

	ErrAlreadyProcessed = NewHTTPError(
		http.StatusConflict,
		errors.New("request already processed"),
	)
)

var (
	ErrPriceFeedDisabled = NewHTTPError(
		http.StatusServiceUnavailable,
		errors.New("price feed is not configured"),
	)

	ErrPriceFeedUnavailable = NewHTTPError(
		http.StatusBadGateway,
		errors.New("price feed is unavailable"),
	)
)
